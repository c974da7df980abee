package output

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/aryankumar/node-upgrader/internal/executor"
	"github.com/aryankumar/node-upgrader/internal/upgrade"
	"github.com/aryankumar/node-upgrader/pkg/version"
	"github.com/olekukonko/tablewriter"
)

// TableFormatter formats output as a table (kubectl-style)
type TableFormatter struct {
	options *Options
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(opts *Options) *TableFormatter {
	if opts == nil {
		opts = &Options{}
	}
	return &TableFormatter{
		options: opts,
	}
}

// FormatPlan outputs one row per stale node group
func (f *TableFormatter) FormatPlan(w io.Writer, targets []upgrade.Target) error {
	if len(targets) == 0 {
		fmt.Fprintln(w, "No node groups require an upgrade")
		return nil
	}

	colors := NewColorScheme(w, f.options.NoColor)
	table := f.createTable(w)
	f.setHeader(table, colors, "ACCOUNT", "REGION", "CLUSTER", "NODEGROUP", "CURRENT", "LATEST")

	for _, t := range targets {
		table.Append([]string{
			t.AccountID,
			t.Region,
			colors.ClusterName("%s", t.Cluster),
			t.NodeGroup,
			colors.Warning("%s", t.CurrentVersion),
			colors.Success("%s", t.LatestVersion),
		})
	}
	table.Render()

	fmt.Fprintf(w, "\n%d node group(s) would be upgraded\n", len(targets))
	return nil
}

// FormatAccounts outputs the inventory with a STATUS column
func (f *TableFormatter) FormatAccounts(w io.Writer, rows []AccountRow) error {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No accounts configured")
		return nil
	}

	colors := NewColorScheme(w, f.options.NoColor)
	table := f.createTable(w)
	f.setHeader(table, colors, "ACCOUNT", "REGION", "STATUS")

	active := 0
	for _, r := range rows {
		status := colors.Success("active")
		if r.Skipped {
			status = colors.Warning("skipped")
		} else {
			active++
		}
		table.Append([]string{r.Account, r.Region, status})
	}
	table.Render()

	fmt.Fprintf(w, "\n%d active, %d skipped\n", active, len(rows)-active)
	return nil
}

// FormatSummary outputs the outcome counts as a two-column table
func (f *TableFormatter) FormatSummary(w io.Writer, summary *executor.Summary) error {
	if summary == nil {
		summary = &executor.Summary{}
	}

	colors := NewColorScheme(w, f.options.NoColor)
	table := f.createTable(w)
	f.setHeader(table, colors, "OUTCOME", "COUNT")

	rows := []struct {
		name  string
		count int
		color ColorFunc
	}{
		{"Accounts", summary.Accounts, nil},
		{"Skipped", summary.Skipped, colors.Warning},
		{"Scanned", summary.Scanned, nil},
		{"Scan failed", summary.ScanFailed, colors.Error},
		{"Scan skipped", summary.ScanSkipped, colors.Warning},
		{"Interrupted", summary.Interrupted, colors.Warning},
		{"Stale", summary.Stale, nil},
		{"Dispatched", summary.Dispatched, nil},
		{"Dispatch failed", summary.DispatchFailed, colors.Error},
		{"Dispatch skipped", summary.DispatchSkipped, colors.Warning},
		{"Succeeded", summary.Succeeded, colors.Success},
		{"Failed", summary.Failed, colors.Error},
		{"Errored", summary.Errored, colors.Error},
		{"Abandoned", summary.Abandoned, colors.Warning},
		{"Panics", summary.Panics, colors.Error},
	}
	for _, r := range rows {
		count := strconv.Itoa(r.count)
		if r.color != nil && r.count > 0 {
			count = r.color("%s", count)
		}
		table.Append([]string{r.name, count})
	}
	table.Render()

	f.printSummary(w, summary, colors)
	return nil
}

func (f *TableFormatter) setHeader(table *tablewriter.Table, colors *ColorScheme, headers ...string) {
	if f.options.NoHeaders {
		return
	}
	if colors.Disabled {
		table.SetHeader(headers)
		return
	}
	colored := make([]string, len(headers))
	for i, h := range headers {
		colored[i] = colors.Header("%s", h)
	}
	table.SetHeader(colored)
}

// FormatVersion outputs build information as COMPONENT/VALUE rows
func (f *TableFormatter) FormatVersion(w io.Writer, info version.Info) error {
	colors := NewColorScheme(w, f.options.NoColor)
	table := f.createTable(w)
	f.setHeader(table, colors, "COMPONENT", "VALUE")
	table.AppendBulk([][]string{
		{"Version", info.Version},
		{"Commit", info.Commit},
		{"Build Time", info.BuildTime},
		{"Go Version", info.GoVersion},
		{"Platform", info.Platform},
	})
	table.Render()
	return nil
}

// createTable creates a new table with kubectl-style configuration
func (f *TableFormatter) createTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)

	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)

	return table
}

// printSummary prints the one-line outcome after the table
func (f *TableFormatter) printSummary(w io.Writer, summary *executor.Summary, colors *ColorScheme) {
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Summary: ")

	succeeded := colors.Success("%d succeeded", summary.Succeeded)

	failedCount := summary.Failed + summary.Errored + summary.DispatchFailed + summary.ScanFailed
	failed := fmt.Sprintf("%d failed", failedCount)
	if failedCount > 0 {
		failed = colors.Error("%s", failed)
	}

	duration := colors.Info("took %s", summary.Duration.Round(time.Millisecond))

	fmt.Fprintf(w, "%s, %s, %s\n", succeeded, failed, duration)
}
