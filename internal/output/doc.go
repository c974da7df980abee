// Package output renders node-upgrader results for the terminal.
//
// Two concerns live here. ConsoleReporter implements upgrade.Reporter and
// prints one colored line per event as the scheduler runs. The Formatter
// implementations render the end products of the commands: the plan of stale
// node groups, the account inventory, and the run summary.
//
// # Formats
//
//   - table: kubectl-style borderless table with tab-separated columns
//   - json: indented JSON, suitable for scripting
//   - yaml: YAML documents with two-space indentation
//
// # Usage
//
//	reporter := output.NewConsoleReporter(os.Stdout, noColor)
//	summary, err := scheduler.Run(ctx, accounts, skipped)
//	...
//	formatter := output.NewFormatter(output.FormatTable, output.WithNoColor(noColor))
//	formatter.FormatSummary(os.Stdout, summary)
//
// # Color Support
//
// Colors are enabled only for TTY outputs and can be disabled with
// WithNoColor(true) or the reporter's noColor argument. Failures are red,
// completed upgrades green, skips and interruptions yellow.
package output
