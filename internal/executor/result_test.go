package executor

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aryankumar/node-upgrader/internal/upgrade"
)

func TestCollector_Report(t *testing.T) {
	target := upgrade.Target{AccountID: "222", Region: "us-east-1", Cluster: "c1", NodeGroup: "ng1"}
	job := upgrade.NewJob(target, "u-1", nil)

	c := newCollector(3)
	events := []upgrade.Event{
		upgrade.SkippedEvent(target.AccountRegion()),
		upgrade.ScanCompletedEvent(target.AccountRegion(), 1),
		upgrade.ScanFailedEvent(target.AccountRegion(), errors.New("denied")),
		upgrade.ScanInterruptedEvent(target.AccountRegion(), "c2"),
		upgrade.ScanSkippedEvent(target.AccountRegion()),
		upgrade.DispatchedEvent(job),
		upgrade.DispatchFailedEvent(target, errors.New("in use")),
		upgrade.DispatchSkippedEvent(target),
	}
	for _, e := range events {
		c.Report(e)
	}

	is := assert.New(t)
	is.NoError(job.Transition(upgrade.StateSucceeded))
	c.Report(upgrade.CompletedEvent(job, "ok"))

	s := c.summary(time.Second)
	is.Equal(3, s.Accounts)
	is.Equal(1, s.Skipped)
	is.Equal(3, s.Scanned)
	is.Equal(1, s.ScanFailed)
	is.Equal(1, s.Interrupted)
	is.Equal(1, s.ScanSkipped)
	is.Equal(1, s.Dispatched)
	is.Equal(1, s.DispatchFailed)
	is.Equal(1, s.DispatchSkipped)
	is.Equal(1, s.Succeeded)
	is.Equal(1, s.Completed())
	is.Equal(time.Second, s.Duration)
	is.True(s.HasFailures())
	is.Len(s.errs.Errors, 2)
}

func TestCollector_CompletedStates(t *testing.T) {
	tests := []struct {
		name  string
		state upgrade.JobState
		check func(*testing.T, *Summary)
	}{
		{
			name:  "succeeded",
			state: upgrade.StateSucceeded,
			check: func(t *testing.T, s *Summary) {
				assert.Equal(t, 1, s.Succeeded)
				assert.False(t, s.HasFailures())
				assert.NoError(t, s.Err())
			},
		},
		{
			name:  "failed",
			state: upgrade.StateFailed,
			check: func(t *testing.T, s *Summary) {
				assert.Equal(t, 1, s.Failed)
				assert.True(t, s.HasFailures())
			},
		},
		{
			name:  "errored",
			state: upgrade.StateErrored,
			check: func(t *testing.T, s *Summary) {
				assert.Equal(t, 1, s.Errored)
				assert.EqualError(t, s.Err(), "status unreadable")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := upgrade.NewJob(upgrade.Target{Cluster: "c1", NodeGroup: "ng1"}, "u-1", nil)
			assert.NoError(t, job.Transition(tt.state))

			c := newCollector(1)
			c.Report(upgrade.CompletedEvent(job, "status unreadable"))

			tt.check(t, c.summary(0))
		})
	}
}

func TestCollector_StaleTargets(t *testing.T) {
	c := newCollector(1)
	assert.Nil(t, c.summary(0).Targets)

	target := upgrade.Target{Cluster: "c1", NodeGroup: "ng1", CurrentVersion: "1.0", LatestVersion: "1.1"}
	c.Report(upgrade.StaleEvent(target))

	s := c.summary(0)
	assert.Equal(t, 1, s.Stale)
	assert.Equal(t, []upgrade.Target{target}, s.Targets)
}

func TestSummary_String(t *testing.T) {
	tests := []struct {
		name    string
		summary Summary
		want    string
	}{
		{
			name:    "empty",
			summary: Summary{},
			want:    "Accounts: 0, Skipped: 0, Scanned: 0, Dispatched: 0, Succeeded: 0, Failed: 0, Errored: 0",
		},
		{
			name:    "with abandoned and duration",
			summary: Summary{Accounts: 2, Scanned: 2, Dispatched: 3, Succeeded: 1, Abandoned: 2, Duration: 1500 * time.Millisecond},
			want:    "Accounts: 2, Skipped: 0, Scanned: 2, Dispatched: 3, Succeeded: 1, Failed: 0, Errored: 0, Abandoned: 2, Duration: 1.5s",
		},
		{
			name:    "dry run",
			summary: Summary{Accounts: 1, Scanned: 1, Stale: 2},
			want:    "Accounts: 1, Skipped: 0, Scanned: 1, Stale: 2, Dispatched: 0, Succeeded: 0, Failed: 0, Errored: 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.summary.String())
		})
	}
}
