package executor

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aryankumar/node-upgrader/internal/upgrade"
	"github.com/aryankumar/node-upgrader/internal/util"
)

// Summary counts the outcomes of one scheduler run
type Summary struct {
	Accounts        int `json:"accounts" yaml:"accounts"`
	Skipped         int `json:"skipped" yaml:"skipped"`
	Scanned         int `json:"scanned" yaml:"scanned"`
	ScanFailed      int `json:"scanFailed" yaml:"scanFailed"`
	ScanSkipped     int `json:"scanSkipped" yaml:"scanSkipped"`
	Interrupted     int `json:"interrupted" yaml:"interrupted"`
	Stale           int `json:"stale" yaml:"stale"`
	Dispatched      int `json:"dispatched" yaml:"dispatched"`
	DispatchFailed  int `json:"dispatchFailed" yaml:"dispatchFailed"`
	DispatchSkipped int `json:"dispatchSkipped" yaml:"dispatchSkipped"`
	Succeeded       int `json:"succeeded" yaml:"succeeded"`
	Failed          int `json:"failed" yaml:"failed"`
	Errored         int `json:"errored" yaml:"errored"`
	Abandoned       int `json:"abandoned" yaml:"abandoned"`
	Panics          int `json:"panics" yaml:"panics"`

	Duration time.Duration `json:"duration" yaml:"duration"`

	// Targets lists the stale node groups found by a dry run
	Targets []upgrade.Target `json:"targets,omitempty" yaml:"targets,omitempty"`

	errs util.MultiError
}

// Completed returns the number of jobs that reached a terminal state
func (s *Summary) Completed() int {
	return s.Succeeded + s.Failed + s.Errored
}

// HasFailures returns true if any scan, dispatch or job did not succeed
func (s *Summary) HasFailures() bool {
	return s.errs.Len() > 0 || s.Failed > 0
}

// Err returns every failure of the run combined, or nil
func (s *Summary) Err() error {
	return s.errs.ErrorOrNil()
}

// String returns a human-readable one-line summary
func (s *Summary) String() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Accounts: %d, ", s.Accounts))
	sb.WriteString(fmt.Sprintf("Skipped: %d, ", s.Skipped))
	sb.WriteString(fmt.Sprintf("Scanned: %d, ", s.Scanned))
	if s.Targets != nil || s.Stale > 0 {
		sb.WriteString(fmt.Sprintf("Stale: %d, ", s.Stale))
	}
	sb.WriteString(fmt.Sprintf("Dispatched: %d, ", s.Dispatched))
	sb.WriteString(fmt.Sprintf("Succeeded: %d, ", s.Succeeded))
	sb.WriteString(fmt.Sprintf("Failed: %d, ", s.Failed))
	sb.WriteString(fmt.Sprintf("Errored: %d", s.Errored))

	if s.Abandoned > 0 {
		sb.WriteString(fmt.Sprintf(", Abandoned: %d", s.Abandoned))
	}
	if s.Duration > 0 {
		sb.WriteString(fmt.Sprintf(", Duration: %s", s.Duration.Round(time.Millisecond)))
	}

	return sb.String()
}

// collector builds a Summary from the events of a run
type collector struct {
	mu sync.Mutex
	s  Summary
}

func newCollector(accounts int) *collector {
	return &collector{s: Summary{Accounts: accounts}}
}

// Report implements upgrade.Reporter
func (c *collector) Report(e upgrade.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch e.Kind {
	case upgrade.EventSkipped:
		c.s.Skipped++
	case upgrade.EventScanSkipped:
		c.s.ScanSkipped++
	case upgrade.EventScanCompleted:
		c.s.Scanned++
	case upgrade.EventScanInterrupted:
		c.s.Scanned++
		c.s.Interrupted++
	case upgrade.EventScanFailed:
		c.s.Scanned++
		c.s.ScanFailed++
		c.s.errs.Add(e.Err)
	case upgrade.EventStale:
		c.s.Stale++
		c.s.Targets = append(c.s.Targets, e.Target)
	case upgrade.EventDispatched:
		c.s.Dispatched++
	case upgrade.EventDispatchFailed:
		c.s.DispatchFailed++
		c.s.errs.Add(e.Err)
	case upgrade.EventDispatchSkipped:
		c.s.DispatchSkipped++
	case upgrade.EventAbandoned:
		c.s.Abandoned++
	case upgrade.EventTaskPanic:
		c.s.Panics++
		c.s.errs.Add(e.Err)
	case upgrade.EventCompleted:
		switch e.State {
		case upgrade.StateSucceeded:
			c.s.Succeeded++
		case upgrade.StateFailed:
			c.s.Failed++
		case upgrade.StateErrored:
			c.s.Errored++
			if e.Err != nil {
				c.s.errs.Add(e.Err)
			} else {
				c.s.errs.Add(fmt.Errorf("%s", e.Message))
			}
		}
	}
}

func (c *collector) skipped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.s.Skipped
}

func (c *collector) summary(d time.Duration) *Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.s
	out.Targets = append([]upgrade.Target(nil), c.s.Targets...)
	if len(c.s.Targets) == 0 {
		out.Targets = nil
	}
	out.errs = util.MultiError{Errors: append([]error(nil), c.s.errs.Errors...)}
	out.Duration = d
	return &out
}
