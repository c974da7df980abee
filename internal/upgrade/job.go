package upgrade

import (
	"fmt"

	"github.com/aryankumar/node-upgrader/internal/util"
)

// JobState is the lifecycle state of an upgrade job
type JobState int

const (
	// StateInitiated is the state right after a successful dispatch
	StateInitiated JobState = iota
	// StateInProgress mirrors a remote in-progress status
	StateInProgress
	// StateSucceeded mirrors a remote successful status
	StateSucceeded
	// StateFailed mirrors a remote failed or cancelled status
	StateFailed
	// StateErrored is assigned locally when the status read itself fails
	StateErrored
)

var stateNames = map[JobState]string{
	StateInitiated:  "Initiated",
	StateInProgress: "InProgress",
	StateSucceeded:  "Succeeded",
	StateFailed:     "Failed",
	StateErrored:    "Errored",
}

// String returns the state name
func (s JobState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("JobState(%d)", int(s))
}

// MarshalText encodes the state by name for json and yaml output
func (s JobState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// IsTerminal reports whether no further transition can happen
func (s JobState) IsTerminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateErrored
}

// canTransition encodes the forward-only lifecycle
func canTransition(from, to JobState) bool {
	if from.IsTerminal() {
		return false
	}
	switch to {
	case StateInProgress:
		return from == StateInitiated
	case StateSucceeded, StateFailed, StateErrored:
		return true
	default:
		return false
	}
}

// Job tracks one in-flight remote upgrade.
// A Job is owned by a single scheduler task at a time and needs no locking.
type Job struct {
	Target   Target
	UpdateID string
	State    JobState

	// Attempts counts status reads
	Attempts int

	// PollErrors counts failed status reads
	PollErrors int

	// LastError is the most recent failed status read
	LastError error

	client  ControlPlane
	history []JobState
}

// NewJob creates a job in the Initiated state bound to the client that started it
func NewJob(target Target, updateID string, client ControlPlane) *Job {
	return &Job{
		Target:   target,
		UpdateID: updateID,
		State:    StateInitiated,
		client:   client,
		history:  []JobState{StateInitiated},
	}
}

// Transition moves the job to a new state.
// Staying in InProgress is a no-op; anything moving backwards is rejected.
func (j *Job) Transition(to JobState) error {
	if j.State == to && to == StateInProgress {
		return nil
	}
	if !canTransition(j.State, to) {
		return fmt.Errorf("%w: %s -> %s for %s", util.ErrInvalidTransition, j.State, to, j.Target)
	}
	j.State = to
	j.history = append(j.history, to)
	return nil
}

// History returns the sequence of states the job went through
func (j *Job) History() []JobState {
	out := make([]JobState, len(j.history))
	copy(out, j.history)
	return out
}

// Client returns the control plane client that owns the job
func (j *Job) Client() ControlPlane {
	return j.client
}
