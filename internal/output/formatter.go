package output

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aryankumar/node-upgrader/internal/executor"
	"github.com/aryankumar/node-upgrader/internal/upgrade"
	"github.com/aryankumar/node-upgrader/internal/util"
	"github.com/aryankumar/node-upgrader/pkg/version"
)

// Format represents the output format type
type Format string

const (
	// FormatTable outputs data in a table format (kubectl-style)
	FormatTable Format = "table"
	// FormatJSON outputs data in JSON format
	FormatJSON Format = "json"
	// FormatYAML outputs data in YAML format
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown output format %q (expected table, json or yaml)", s)
	}
}

// AccountRow is one line of an inventory listing
type AccountRow struct {
	Account string `json:"account" yaml:"account"`
	Region  string `json:"region" yaml:"region"`
	Skipped bool   `json:"skipped" yaml:"skipped"`
}

// AccountRows merges the inventory and skip list into listing rows.
// Skipped pairs that are not part of the inventory are listed after it.
func AccountRows(accounts, skipped []upgrade.AccountRegion) []AccountRow {
	skip := make(map[upgrade.AccountRegion]bool, len(skipped))
	for _, ar := range skipped {
		skip[ar] = true
	}

	rows := make([]AccountRow, 0, len(accounts)+len(skipped))
	seen := make(map[upgrade.AccountRegion]bool, len(accounts))
	for _, ar := range accounts {
		if seen[ar] {
			continue
		}
		seen[ar] = true
		rows = append(rows, AccountRow{Account: ar.AccountID, Region: ar.Region, Skipped: skip[ar]})
	}
	for _, ar := range skipped {
		if seen[ar] {
			continue
		}
		seen[ar] = true
		rows = append(rows, AccountRow{Account: ar.AccountID, Region: ar.Region, Skipped: true})
	}
	return rows
}

// Formatter renders the results of the node-upgrader commands
type Formatter interface {
	// FormatPlan outputs the stale node groups found by a dry run
	FormatPlan(w io.Writer, targets []upgrade.Target) error

	// FormatAccounts outputs the account inventory with skip status
	FormatAccounts(w io.Writer, rows []AccountRow) error

	// FormatSummary outputs the outcome counts of a run
	FormatSummary(w io.Writer, summary *executor.Summary) error

	// FormatVersion outputs build information
	FormatVersion(w io.Writer, info version.Info) error
}

// Option is a functional option for configuring formatters
type Option func(*Options)

// Options holds configuration for formatters
type Options struct {
	// NoColor disables color output
	NoColor bool

	// NoHeaders disables table headers
	NoHeaders bool
}

// WithNoColor disables color output
func WithNoColor(noColor bool) Option {
	return func(o *Options) {
		o.NoColor = noColor
	}
}

// WithNoHeaders disables table headers
func WithNoHeaders(noHeaders bool) Option {
	return func(o *Options) {
		o.NoHeaders = noHeaders
	}
}

// NewFormatter creates a new formatter based on the specified format
func NewFormatter(format Format, opts ...Option) Formatter {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	switch format {
	case FormatJSON:
		return NewJSONFormatter(options)
	case FormatYAML:
		return NewYAMLFormatter(options)
	case FormatTable:
		fallthrough
	default:
		return NewTableFormatter(options)
	}
}

// summaryDocument is the serialized form of a run summary
type summaryDocument struct {
	Accounts        int              `json:"accounts" yaml:"accounts"`
	Skipped         int              `json:"skipped" yaml:"skipped"`
	Scanned         int              `json:"scanned" yaml:"scanned"`
	ScanFailed      int              `json:"scanFailed" yaml:"scanFailed"`
	ScanSkipped     int              `json:"scanSkipped" yaml:"scanSkipped"`
	Interrupted     int              `json:"interrupted" yaml:"interrupted"`
	Stale           int              `json:"stale" yaml:"stale"`
	Dispatched      int              `json:"dispatched" yaml:"dispatched"`
	DispatchFailed  int              `json:"dispatchFailed" yaml:"dispatchFailed"`
	DispatchSkipped int              `json:"dispatchSkipped" yaml:"dispatchSkipped"`
	Succeeded       int              `json:"succeeded" yaml:"succeeded"`
	Failed          int              `json:"failed" yaml:"failed"`
	Errored         int              `json:"errored" yaml:"errored"`
	Abandoned       int              `json:"abandoned" yaml:"abandoned"`
	Panics          int              `json:"panics" yaml:"panics"`
	Duration        string           `json:"duration" yaml:"duration"`
	Targets         []upgrade.Target `json:"targets,omitempty" yaml:"targets,omitempty"`
	Errors          []string         `json:"errors,omitempty" yaml:"errors,omitempty"`
}

func newSummaryDocument(s *executor.Summary) summaryDocument {
	doc := summaryDocument{
		Accounts:        s.Accounts,
		Skipped:         s.Skipped,
		Scanned:         s.Scanned,
		ScanFailed:      s.ScanFailed,
		ScanSkipped:     s.ScanSkipped,
		Interrupted:     s.Interrupted,
		Stale:           s.Stale,
		Dispatched:      s.Dispatched,
		DispatchFailed:  s.DispatchFailed,
		DispatchSkipped: s.DispatchSkipped,
		Succeeded:       s.Succeeded,
		Failed:          s.Failed,
		Errored:         s.Errored,
		Abandoned:       s.Abandoned,
		Panics:          s.Panics,
		Duration:        s.Duration.String(),
		Targets:         s.Targets,
	}
	var multi *util.MultiError
	if errors.As(s.Err(), &multi) {
		for _, err := range multi.Errors {
			doc.Errors = append(doc.Errors, err.Error())
		}
	}
	return doc
}
