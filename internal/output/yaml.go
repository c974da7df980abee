package output

import (
	"io"

	"github.com/aryankumar/node-upgrader/internal/executor"
	"github.com/aryankumar/node-upgrader/internal/upgrade"
	"github.com/aryankumar/node-upgrader/pkg/version"
	"gopkg.in/yaml.v3"
)

// YAMLFormatter formats output as YAML
type YAMLFormatter struct {
	options *Options
}

// NewYAMLFormatter creates a new YAML formatter
func NewYAMLFormatter(opts *Options) *YAMLFormatter {
	if opts == nil {
		opts = &Options{}
	}
	return &YAMLFormatter{
		options: opts,
	}
}

// FormatPlan outputs the stale targets as a YAML sequence
func (f *YAMLFormatter) FormatPlan(w io.Writer, targets []upgrade.Target) error {
	if targets == nil {
		targets = []upgrade.Target{}
	}
	return f.encode(w, targets)
}

// FormatAccounts outputs the inventory rows as a YAML sequence
func (f *YAMLFormatter) FormatAccounts(w io.Writer, rows []AccountRow) error {
	if rows == nil {
		rows = []AccountRow{}
	}
	return f.encode(w, rows)
}

// FormatSummary outputs the run summary as a YAML mapping
func (f *YAMLFormatter) FormatSummary(w io.Writer, summary *executor.Summary) error {
	if summary == nil {
		summary = &executor.Summary{}
	}
	return f.encode(w, newSummaryDocument(summary))
}

// FormatVersion outputs build information as a YAML mapping
func (f *YAMLFormatter) FormatVersion(w io.Writer, info version.Info) error {
	return f.encode(w, info)
}

func (f *YAMLFormatter) encode(w io.Writer, v interface{}) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	return encoder.Encode(v)
}
