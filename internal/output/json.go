package output

import (
	"encoding/json"
	"io"

	"github.com/aryankumar/node-upgrader/internal/executor"
	"github.com/aryankumar/node-upgrader/internal/upgrade"
	"github.com/aryankumar/node-upgrader/pkg/version"
)

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	options *Options
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(opts *Options) *JSONFormatter {
	if opts == nil {
		opts = &Options{}
	}
	return &JSONFormatter{
		options: opts,
	}
}

// FormatPlan outputs the stale targets as a JSON array
func (f *JSONFormatter) FormatPlan(w io.Writer, targets []upgrade.Target) error {
	if targets == nil {
		targets = []upgrade.Target{}
	}
	return f.encode(w, targets)
}

// FormatAccounts outputs the inventory rows as a JSON array
func (f *JSONFormatter) FormatAccounts(w io.Writer, rows []AccountRow) error {
	if rows == nil {
		rows = []AccountRow{}
	}
	return f.encode(w, rows)
}

// FormatSummary outputs the run summary as a JSON object
func (f *JSONFormatter) FormatSummary(w io.Writer, summary *executor.Summary) error {
	if summary == nil {
		summary = &executor.Summary{}
	}
	return f.encode(w, newSummaryDocument(summary))
}

// FormatVersion outputs build information as a JSON object
func (f *JSONFormatter) FormatVersion(w io.Writer, info version.Info) error {
	return f.encode(w, info)
}

func (f *JSONFormatter) encode(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
