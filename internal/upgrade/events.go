package upgrade

import (
	"fmt"
	"sync"
	"time"

	"github.com/aryankumar/node-upgrader/internal/util"
)

// EventKind classifies a reported event
type EventKind string

const (
	// EventSkipped is an account/region on the skip list
	EventSkipped EventKind = "skipped"
	// EventScanSkipped is a scan never started because of shutdown
	EventScanSkipped EventKind = "scan-skipped"
	// EventScanInterrupted is a scan stopped at a cluster boundary by shutdown
	EventScanInterrupted EventKind = "scan-interrupted"
	// EventScanFailed is a credential or enumeration failure
	EventScanFailed EventKind = "scan-failed"
	// EventScanCompleted is a finished scan with its stale count
	EventScanCompleted EventKind = "scan-completed"
	// EventStale is an out-of-date node group found by a dry run
	EventStale EventKind = "stale"
	// EventDispatched is a started upgrade
	EventDispatched EventKind = "dispatched"
	// EventDispatchFailed is an upgrade that could not be started
	EventDispatchFailed EventKind = "dispatch-failed"
	// EventDispatchSkipped is a stale node group left alone because of shutdown
	EventDispatchSkipped EventKind = "dispatch-skipped"
	// EventTransition is a job state change
	EventTransition EventKind = "transition"
	// EventCompleted is a job reaching a terminal state
	EventCompleted EventKind = "completed"
	// EventAbandoned is a job whose tracking stopped on shutdown
	EventAbandoned EventKind = "abandoned"
	// EventTaskPanic is a task that panicked
	EventTaskPanic EventKind = "task-panic"
)

// Event is one operational occurrence during a run
type Event struct {
	Kind     EventKind
	Time     time.Time
	Account  AccountRegion
	Target   Target
	UpdateID string
	State    JobState
	Message  string
	Err      error
}

// IsError reports whether the event describes a failure
func (e Event) IsError() bool {
	switch e.Kind {
	case EventScanFailed, EventDispatchFailed, EventTaskPanic:
		return true
	case EventCompleted:
		return e.State == StateFailed || e.State == StateErrored
	default:
		return false
	}
}

// Reporter receives events. Implementations must be safe for concurrent use.
type Reporter interface {
	Report(Event)
}

// ReporterFunc adapts a function to Reporter
type ReporterFunc func(Event)

// Report calls f(e)
func (f ReporterFunc) Report(e Event) {
	f(e)
}

// MultiReporter fans an event out to several reporters
type MultiReporter []Reporter

// Report forwards e to every reporter
func (m MultiReporter) Report(e Event) {
	for _, r := range m {
		if r != nil {
			r.Report(e)
		}
	}
}

// Recorder is a Reporter that keeps every event in memory
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Report stores e
func (r *Recorder) Report(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Kind returns the recorded events of one kind
func (r *Recorder) Kind(kind EventKind) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Messages returns the message of every recorded event of one kind
func (r *Recorder) Messages(kind EventKind) []string {
	var out []string
	for _, e := range r.Kind(kind) {
		out = append(out, e.Message)
	}
	return out
}

// Operational messages, one line per event

func skippedMessage(ar AccountRegion) string {
	return fmt.Sprintf("Skipping account %s in region %s", ar.AccountID, ar.Region)
}

func scanSkippedMessage(ar AccountRegion) string {
	return fmt.Sprintf("Shutdown flag set, skipping processing for account %s in region %s", ar.AccountID, ar.Region)
}

func scanInterruptedMessage(ar AccountRegion, cluster string) string {
	return fmt.Sprintf("Shutdown flag set, stopping processing for cluster %s in account %s region %s", cluster, ar.AccountID, ar.Region)
}

func scanFailedMessage(ar AccountRegion, err error) string {
	return fmt.Sprintf("Error processing region %s for account %s: %v", ar.Region, ar.AccountID, err)
}

func staleMessage(t Target) string {
	return fmt.Sprintf("Nodegroup %s in cluster %s in region %s for account %s requires upgrade from %s to %s",
		t.NodeGroup, t.Cluster, t.Region, t.AccountID, t.CurrentVersion, t.LatestVersion)
}

func dispatchedMessage(t Target) string {
	return fmt.Sprintf("Successfully initiated upgrade for nodegroup %s in cluster %s in region %s for account %s",
		t.NodeGroup, t.Cluster, t.Region, t.AccountID)
}

func dispatchFailedMessage(t Target, err error) string {
	return fmt.Sprintf("Error upgrading nodegroup %s in cluster %s: %v", t.NodeGroup, t.Cluster, err)
}

func dispatchSkippedMessage(t Target) string {
	return fmt.Sprintf("Shutdown flag set, not starting upgrade for nodegroup %s in cluster %s", t.NodeGroup, t.Cluster)
}

func succeededMessage(t Target) string {
	return fmt.Sprintf("Successfully upgraded nodegroup %s in cluster %s", t.NodeGroup, t.Cluster)
}

func failedMessage(t Target) string {
	return fmt.Sprintf("Upgrade failed for nodegroup %s in cluster %s", t.NodeGroup, t.Cluster)
}

func cancelledMessage(t Target) string {
	return fmt.Sprintf("Upgrade cancelled for nodegroup %s in cluster %s", t.NodeGroup, t.Cluster)
}

func erroredMessage(t Target, err error) string {
	return fmt.Sprintf("Error checking upgrade status for nodegroup %s in cluster %s: %v", t.NodeGroup, t.Cluster, err)
}

func abandonedMessage(j *Job) string {
	return fmt.Sprintf("Shutdown flag set, abandoning status tracking for nodegroup %s in cluster %s (update %s)",
		j.Target.NodeGroup, j.Target.Cluster, j.UpdateID)
}

// SkippedEvent reports an account/region excluded by the skip list
func SkippedEvent(ar AccountRegion) Event {
	return Event{Kind: EventSkipped, Time: time.Now(), Account: ar, Message: skippedMessage(ar)}
}

// ScanSkippedEvent reports a scan that never started because of shutdown
func ScanSkippedEvent(ar AccountRegion) Event {
	return Event{Kind: EventScanSkipped, Time: time.Now(), Account: ar, Err: util.ErrShutdown, Message: scanSkippedMessage(ar)}
}

// ScanFailedEvent reports a credential or enumeration failure
func ScanFailedEvent(ar AccountRegion, err error) Event {
	return Event{Kind: EventScanFailed, Time: time.Now(), Account: ar, Err: err, Message: scanFailedMessage(ar, err)}
}

// ScanCompletedEvent reports the number of stale node groups a scan found
func ScanCompletedEvent(ar AccountRegion, stale int) Event {
	return Event{
		Kind:    EventScanCompleted,
		Time:    time.Now(),
		Account: ar,
		Message: fmt.Sprintf("Scanned account %s in region %s: %d nodegroup(s) require upgrade", ar.AccountID, ar.Region, stale),
	}
}

// StaleEvent reports a node group found out of date without dispatching it
func StaleEvent(t Target) Event {
	return Event{Kind: EventStale, Time: time.Now(), Account: t.AccountRegion(), Target: t, Message: staleMessage(t)}
}

// DispatchedEvent reports a started upgrade
func DispatchedEvent(j *Job) Event {
	return Event{
		Kind:     EventDispatched,
		Time:     time.Now(),
		Account:  j.Target.AccountRegion(),
		Target:   j.Target,
		UpdateID: j.UpdateID,
		State:    j.State,
		Message:  dispatchedMessage(j.Target),
	}
}

// DispatchFailedEvent reports an upgrade that could not be started
func DispatchFailedEvent(t Target, err error) Event {
	return Event{
		Kind:    EventDispatchFailed,
		Time:    time.Now(),
		Account: t.AccountRegion(),
		Target:  t,
		Err:     err,
		Message: dispatchFailedMessage(t, err),
	}
}

// DispatchSkippedEvent reports a stale node group left alone because of shutdown
func DispatchSkippedEvent(t Target) Event {
	return Event{
		Kind:    EventDispatchSkipped,
		Time:    time.Now(),
		Account: t.AccountRegion(),
		Target:  t,
		Err:     util.ErrShutdown,
		Message: dispatchSkippedMessage(t),
	}
}

// CompletedEvent reports a job reaching a terminal state.
// Errored jobs carry their last status read failure.
func CompletedEvent(j *Job, message string) Event {
	var err error
	if j.State == StateErrored {
		err = j.LastError
	}
	return Event{
		Kind:     EventCompleted,
		Time:     time.Now(),
		Account:  j.Target.AccountRegion(),
		Target:   j.Target,
		UpdateID: j.UpdateID,
		State:    j.State,
		Message:  message,
		Err:      err,
	}
}

// AbandonedEvent reports a job whose tracking stopped on shutdown
func AbandonedEvent(j *Job) Event {
	return Event{
		Kind:     EventAbandoned,
		Time:     time.Now(),
		Account:  j.Target.AccountRegion(),
		Target:   j.Target,
		UpdateID: j.UpdateID,
		State:    j.State,
		Err:      util.ErrShutdown,
		Message:  abandonedMessage(j),
	}
}

// TaskPanicEvent reports a task that panicked
func TaskPanicEvent(ar AccountRegion, recovered interface{}) Event {
	err := fmt.Errorf("task panicked: %v", recovered)
	return Event{
		Kind:    EventTaskPanic,
		Time:    time.Now(),
		Account: ar,
		Err:     err,
		Message: fmt.Sprintf("Unexpected error processing account %s in region %s: %v", ar.AccountID, ar.Region, err),
	}
}

func transitionEvent(j *Job, from JobState) Event {
	return Event{
		Kind:     EventTransition,
		Time:     time.Now(),
		Account:  j.Target.AccountRegion(),
		Target:   j.Target,
		UpdateID: j.UpdateID,
		State:    j.State,
		Message:  fmt.Sprintf("Nodegroup %s in cluster %s moved from %s to %s", j.Target.NodeGroup, j.Target.Cluster, from, j.State),
	}
}

// ScanInterruptedEvent reports a scan that stopped early because of shutdown
func ScanInterruptedEvent(ar AccountRegion, cluster string) Event {
	return Event{Kind: EventScanInterrupted, Time: time.Now(), Account: ar, Err: util.ErrShutdown, Message: scanInterruptedMessage(ar, cluster)}
}
