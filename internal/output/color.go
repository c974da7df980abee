package output

import (
	"io"
	"os"

	"github.com/aryankumar/node-upgrader/internal/upgrade"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// ColorFunc formats and colors a string
type ColorFunc func(format string, a ...interface{}) string

// ColorScheme provides color functions for different output elements
type ColorScheme struct {
	// ClusterName colors cluster and node group names
	ClusterName ColorFunc

	// Success colors successful outcomes
	Success ColorFunc

	// Error colors failures
	Error ColorFunc

	// Warning colors skips and interruptions
	Warning ColorFunc

	// Header colors table headers
	Header ColorFunc

	// Info colors progress lines
	Info ColorFunc

	// Disabled indicates if colors are disabled
	Disabled bool
}

// NewColorScheme creates a new color scheme.
// Colors are disabled for non-TTY outputs or when noColor is true.
func NewColorScheme(w io.Writer, noColor bool) *ColorScheme {
	if noColor || !isTTY(w) {
		plain := color.New()
		plain.DisableColor()
		return &ColorScheme{
			ClusterName: plain.Sprintf,
			Success:     plain.Sprintf,
			Error:       plain.Sprintf,
			Warning:     plain.Sprintf,
			Header:      plain.Sprintf,
			Info:        plain.Sprintf,
			Disabled:    true,
		}
	}

	return &ColorScheme{
		ClusterName: colorFunc(color.FgCyan, color.Bold),
		Success:     colorFunc(color.FgGreen),
		Error:       colorFunc(color.FgRed, color.Bold),
		Warning:     colorFunc(color.FgYellow),
		Header:      colorFunc(color.FgWhite, color.Bold),
		Info:        colorFunc(color.FgBlue),
	}
}

// colorFunc forces the attributes on so a TTY check made here is not
// overridden by the global color.NoColor detection on stdout.
func colorFunc(attrs ...color.Attribute) ColorFunc {
	c := color.New(attrs...)
	c.EnableColor()
	return c.Sprintf
}

func isTTY(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// StatusColor returns an appropriate color function based on error status
func (cs *ColorScheme) StatusColor(hasError bool) ColorFunc {
	if hasError {
		return cs.Error
	}
	return cs.Success
}

// EventColor picks the color for one reported event
func (cs *ColorScheme) EventColor(e upgrade.Event) ColorFunc {
	if e.IsError() {
		return cs.Error
	}
	switch e.Kind {
	case upgrade.EventCompleted, upgrade.EventDispatched:
		return cs.Success
	case upgrade.EventSkipped, upgrade.EventScanSkipped, upgrade.EventScanInterrupted,
		upgrade.EventDispatchSkipped, upgrade.EventAbandoned, upgrade.EventStale:
		return cs.Warning
	default:
		return cs.Info
	}
}
