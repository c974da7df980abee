package output

import (
	"fmt"
	"io"
	"sync"

	"github.com/aryankumar/node-upgrader/internal/upgrade"
)

// ConsoleReporter writes one colored line per event
type ConsoleReporter struct {
	mu      sync.Mutex
	w       io.Writer
	colors  *ColorScheme
	verbose bool
}

// ReporterOption configures a ConsoleReporter
type ReporterOption func(*ConsoleReporter)

// WithTransitions also prints intermediate job state changes and
// per-account scan completions
func WithTransitions(verbose bool) ReporterOption {
	return func(r *ConsoleReporter) {
		r.verbose = verbose
	}
}

// NewConsoleReporter creates a reporter writing to w
func NewConsoleReporter(w io.Writer, noColor bool, opts ...ReporterOption) *ConsoleReporter {
	r := &ConsoleReporter{
		w:      w,
		colors: NewColorScheme(w, noColor),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Report implements upgrade.Reporter
func (r *ConsoleReporter) Report(e upgrade.Event) {
	if !r.verbose && (e.Kind == upgrade.EventTransition || e.Kind == upgrade.EventScanCompleted) {
		return
	}
	if e.Message == "" {
		return
	}

	line := r.colors.EventColor(e)("%s", e.Message)

	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.w, line)
}
