package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/aryankumar/node-upgrader/internal/upgrade"
	"github.com/aryankumar/node-upgrader/internal/upgrade/upgradetest"
	"github.com/aryankumar/node-upgrader/internal/util"
)

var (
	acct111 = upgrade.AccountRegion{AccountID: "111", Region: "us-east-1"}
	acct222 = upgrade.AccountRegion{AccountID: "222", Region: "us-east-1"}
)

func fastConfig() Config {
	return Config{Workers: 4, PollInterval: time.Millisecond}
}

func singleNodeGroup(polls ...upgradetest.PollStep) *upgradetest.ControlPlane {
	return upgradetest.NewControlPlane(map[string]map[string]*upgradetest.NodeGroup{
		"c1": {"ng1": {Current: "1.0", Latest: "1.1", Polls: polls}},
	})
}

func TestNewScheduler(t *testing.T) {
	tests := []struct {
		name            string
		workers         int
		expectedWorkers int
	}{
		{name: "positive workers", workers: 5, expectedWorkers: 5},
		{name: "zero workers uses default", workers: 0, expectedWorkers: DefaultWorkers},
		{name: "negative workers uses default", workers: -5, expectedWorkers: DefaultWorkers},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScheduler(Config{Workers: tt.workers}, upgradetest.NewConnector(nil), nil, nil)
			require.NotNil(t, s)
			assert.Equal(t, tt.expectedWorkers, s.WorkerCount())
			assert.False(t, s.IsRunning())
			assert.Equal(t, 0, s.LiveJobs())
			assert.Equal(t, DefaultPollInterval, s.cfg.PollInterval)
			assert.Equal(t, PolicyDrain, s.cfg.Policy)
		})
	}
}

func TestScheduler_SkipList(t *testing.T) {
	connector := upgradetest.NewConnector(map[upgrade.AccountRegion]*upgradetest.ControlPlane{
		acct111: singleNodeGroup(),
		acct222: upgradetest.NewControlPlane(nil),
	})
	recorder := &upgrade.Recorder{}
	s := NewScheduler(fastConfig(), connector, recorder, zaptest.NewLogger(t))

	summary, err := s.Run(context.Background(),
		[]upgrade.AccountRegion{acct111, acct222},
		[]upgrade.AccountRegion{acct111})

	require.NoError(t, err)
	assert.Equal(t, []upgrade.AccountRegion{acct222}, connector.Connects(), "skipped account must never be contacted")
	assert.Equal(t, []string{"Skipping account 111 in region us-east-1"}, recorder.Messages(upgrade.EventSkipped))
	assert.Empty(t, recorder.Kind(upgrade.EventDispatched))
	assert.Equal(t, 2, summary.Accounts)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.Scanned)
}

func TestScheduler_AllSkipped(t *testing.T) {
	connector := upgradetest.NewConnector(nil)
	s := NewScheduler(fastConfig(), connector, nil, nil)

	summary, err := s.Run(context.Background(),
		[]upgrade.AccountRegion{acct111},
		[]upgrade.AccountRegion{acct111})

	require.NoError(t, err)
	assert.Empty(t, connector.Connects())
	assert.Equal(t, 1, summary.Skipped)
	assert.False(t, s.IsRunning())
}

func TestScheduler_UpgradeSucceeds(t *testing.T) {
	plane := singleNodeGroup(
		upgradetest.PollStep{Status: upgrade.UpdateInProgress},
		upgradetest.PollStep{Status: upgrade.UpdateSuccessful},
	)
	connector := upgradetest.NewConnector(map[upgrade.AccountRegion]*upgradetest.ControlPlane{acct222: plane})
	recorder := &upgrade.Recorder{}
	s := NewScheduler(fastConfig(), connector, recorder, zaptest.NewLogger(t))

	summary, err := s.Run(context.Background(), []upgrade.AccountRegion{acct222}, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, plane.CallCount("StartUpgrade:c1/ng1"))
	assert.Equal(t, 2, plane.CallCount("DescribeUpdate:u-1"))

	dispatched := recorder.Kind(upgrade.EventDispatched)
	require.Len(t, dispatched, 1)
	assert.Equal(t, "u-1", dispatched[0].UpdateID)
	assert.Equal(t,
		"Successfully initiated upgrade for nodegroup ng1 in cluster c1 in region us-east-1 for account 222",
		dispatched[0].Message)

	assert.Equal(t,
		[]string{"Successfully upgraded nodegroup ng1 in cluster c1"},
		recorder.Messages(upgrade.EventCompleted))
	assert.Equal(t, 0, s.LiveJobs(), "job must be removed from tracking")
	assert.Equal(t, 1, summary.Dispatched)
	assert.Equal(t, 1, summary.Succeeded)
	assert.False(t, summary.HasFailures())
}

func TestScheduler_StatusReadErrorEndsTracking(t *testing.T) {
	plane := singleNodeGroup(upgradetest.PollStep{Err: errors.New("read timeout")})
	connector := upgradetest.NewConnector(map[upgrade.AccountRegion]*upgradetest.ControlPlane{acct222: plane})
	recorder := &upgrade.Recorder{}
	s := NewScheduler(fastConfig(), connector, recorder, nil)

	summary, err := s.Run(context.Background(), []upgrade.AccountRegion{acct222}, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, plane.CallCount("DescribeUpdate:u-1"), "no retry by default")

	completed := recorder.Kind(upgrade.EventCompleted)
	require.Len(t, completed, 1)
	assert.Equal(t, upgrade.StateErrored, completed[0].State)
	assert.Contains(t, completed[0].Message, "Error checking upgrade status for nodegroup ng1 in cluster c1")
	assert.Equal(t, 1, summary.Errored)
	assert.True(t, summary.HasFailures())
	assert.True(t, util.IsPollError(summary.Err()))
}

func TestScheduler_PollErrorRetries(t *testing.T) {
	readErr := errors.New("throttled")
	plane := singleNodeGroup(
		upgradetest.PollStep{Err: readErr},
		upgradetest.PollStep{Status: upgrade.UpdateSuccessful},
	)
	connector := upgradetest.NewConnector(map[upgrade.AccountRegion]*upgradetest.ControlPlane{acct222: plane})
	cfg := fastConfig()
	cfg.PollErrorRetries = 1
	s := NewScheduler(cfg, connector, nil, nil)

	summary, err := s.Run(context.Background(), []upgrade.AccountRegion{acct222}, nil)

	require.NoError(t, err)
	assert.Equal(t, 2, plane.CallCount("DescribeUpdate:u-1"))
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 0, summary.Errored)
}

func TestScheduler_FailuresAreIsolated(t *testing.T) {
	broken := upgradetest.NewControlPlane(map[string]map[string]*upgradetest.NodeGroup{
		"c1": {
			"ng1": {Current: "1.0", Latest: "1.1", StartErr: errors.New("ResourceInUseException")},
			"ng2": {Current: "1.0", Latest: "1.1", Polls: []upgradetest.PollStep{{Status: upgrade.UpdateFailed}}},
			"ng3": {Current: "1.0", Latest: "1.1"},
		},
	})
	connector := upgradetest.NewConnector(map[upgrade.AccountRegion]*upgradetest.ControlPlane{
		acct222: broken,
	})
	connector.Errors[acct111] = errors.New("AccessDenied")
	recorder := &upgrade.Recorder{}
	s := NewScheduler(fastConfig(), connector, recorder, nil)

	summary, err := s.Run(context.Background(), []upgrade.AccountRegion{acct111, acct222}, nil)

	require.NoError(t, err)
	assert.Len(t, recorder.Kind(upgrade.EventScanFailed), 1)
	assert.Len(t, recorder.Kind(upgrade.EventDispatchFailed), 1)
	assert.Equal(t, 1, summary.ScanFailed)
	assert.Equal(t, 1, summary.DispatchFailed)
	assert.Equal(t, 2, summary.Dispatched)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.True(t, summary.HasFailures())
}

func TestScheduler_PartialScanIsDispatched(t *testing.T) {
	plane := upgradetest.NewControlPlane(map[string]map[string]*upgradetest.NodeGroup{
		"c1": {"ng1": {Current: "1.0", Latest: "1.1"}},
		"c2": {"ng2": {Current: "1.0", Latest: "1.1"}},
	})
	plane.ListNodeGroupsErr["c2"] = errors.New("throttled")
	connector := upgradetest.NewConnector(map[upgrade.AccountRegion]*upgradetest.ControlPlane{acct222: plane})
	s := NewScheduler(fastConfig(), connector, nil, nil)

	summary, err := s.Run(context.Background(), []upgrade.AccountRegion{acct222}, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.ScanFailed)
	assert.Equal(t, 1, summary.Dispatched)
	assert.Equal(t, 1, plane.CallCount("StartUpgrade:c1/ng1"))
}

func TestScheduler_DuplicateAccountsScannedOnce(t *testing.T) {
	plane := singleNodeGroup()
	connector := upgradetest.NewConnector(map[upgrade.AccountRegion]*upgradetest.ControlPlane{acct222: plane})
	s := NewScheduler(fastConfig(), connector, nil, nil)

	summary, err := s.Run(context.Background(), []upgrade.AccountRegion{acct222, acct222, acct222}, nil)

	require.NoError(t, err)
	assert.Len(t, connector.Connects(), 1)
	assert.Equal(t, 1, plane.CallCount("StartUpgrade:c1/ng1"))
	assert.Equal(t, 1, summary.Scanned)
}

func TestScheduler_AllCurrentDispatchesNothing(t *testing.T) {
	plane := upgradetest.NewControlPlane(map[string]map[string]*upgradetest.NodeGroup{
		"c1": {"ng1": {Current: "1.1", Latest: "1.1"}},
	})
	connector := upgradetest.NewConnector(map[upgrade.AccountRegion]*upgradetest.ControlPlane{acct222: plane})
	recorder := &upgrade.Recorder{}
	s := NewScheduler(fastConfig(), connector, recorder, nil)

	summary, err := s.Run(context.Background(), []upgrade.AccountRegion{acct222}, nil)

	require.NoError(t, err)
	assert.Empty(t, recorder.Kind(upgrade.EventDispatched))
	assert.Equal(t, 0, summary.Dispatched)
	assert.Equal(t, 1, summary.Scanned)
}

func TestScheduler_DryRun(t *testing.T) {
	plane := singleNodeGroup()
	connector := upgradetest.NewConnector(map[upgrade.AccountRegion]*upgradetest.ControlPlane{acct222: plane})
	cfg := fastConfig()
	cfg.DryRun = true
	recorder := &upgrade.Recorder{}
	s := NewScheduler(cfg, connector, recorder, nil)

	summary, err := s.Run(context.Background(), []upgrade.AccountRegion{acct222}, nil)

	require.NoError(t, err)
	assert.Zero(t, plane.CallCount("StartUpgrade:c1/ng1"))
	assert.Len(t, recorder.Kind(upgrade.EventStale), 1)
	require.Len(t, summary.Targets, 1)
	assert.Equal(t, "ng1", summary.Targets[0].NodeGroup)
	assert.Equal(t, "1.1", summary.Targets[0].LatestVersion)
}

func TestScheduler_ShutdownDrainsPolls(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	plane := singleNodeGroup(
		upgradetest.PollStep{Status: upgrade.UpdateInProgress},
		upgradetest.PollStep{Status: upgrade.UpdateInProgress},
		upgradetest.PollStep{Status: upgrade.UpdateSuccessful},
	)
	other := singleNodeGroup()
	connector := upgradetest.NewConnector(map[upgrade.AccountRegion]*upgradetest.ControlPlane{
		acct222: plane,
		acct111: other,
	})
	recorder := &upgrade.Recorder{}
	reporter := upgrade.MultiReporter{recorder, upgrade.ReporterFunc(func(e upgrade.Event) {
		if e.Kind == upgrade.EventDispatched {
			cancel()
		}
	})}
	cfg := fastConfig()
	cfg.Workers = 1
	s := NewScheduler(cfg, connector, reporter, nil)

	summary, err := s.Run(ctx, []upgrade.AccountRegion{acct222, acct111}, nil)

	require.NoError(t, err)
	assert.Equal(t, 3, plane.CallCount("DescribeUpdate:u-1"), "started upgrade is polled to the end")
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 0, summary.Abandoned)
	assert.Equal(t, 1, summary.ScanSkipped)
	assert.Equal(t, []upgrade.AccountRegion{acct222}, connector.Connects(), "no scan starts after shutdown")
	assert.Equal(t, 0, s.LiveJobs())
}

func TestScheduler_ShutdownAbandonsPolls(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	plane := singleNodeGroup(upgradetest.PollStep{Status: upgrade.UpdateInProgress})
	connector := upgradetest.NewConnector(map[upgrade.AccountRegion]*upgradetest.ControlPlane{acct222: plane})
	recorder := &upgrade.Recorder{}
	reporter := upgrade.MultiReporter{recorder, upgrade.ReporterFunc(func(e upgrade.Event) {
		if e.Kind == upgrade.EventTransition && e.State == upgrade.StateInProgress {
			cancel()
		}
	})}
	cfg := fastConfig()
	cfg.Policy = PolicyAbandon
	s := NewScheduler(cfg, connector, reporter, nil)

	summary, err := s.Run(ctx, []upgrade.AccountRegion{acct222}, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, plane.CallCount("DescribeUpdate:u-1"))
	assert.Equal(t, 1, summary.Abandoned)
	assert.Equal(t, 0, summary.Completed())
	assert.Len(t, recorder.Kind(upgrade.EventAbandoned), 1)
	assert.Equal(t, 0, s.LiveJobs())
}

func TestScheduler_ShutdownStopsDispatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	plane := upgradetest.NewControlPlane(map[string]map[string]*upgradetest.NodeGroup{
		"c1": {
			"ng1": {Current: "1.0", Latest: "1.1"},
			"ng2": {Current: "1.0", Latest: "1.1"},
		},
	})
	connector := upgradetest.NewConnector(map[upgrade.AccountRegion]*upgradetest.ControlPlane{acct222: plane})
	reporter := upgrade.ReporterFunc(func(e upgrade.Event) {
		if e.Kind == upgrade.EventDispatched {
			cancel()
		}
	})
	s := NewScheduler(fastConfig(), connector, reporter, nil)

	summary, err := s.Run(ctx, []upgrade.AccountRegion{acct222}, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Dispatched)
	assert.Equal(t, 1, summary.DispatchSkipped)
	assert.Zero(t, plane.CallCount("StartUpgrade:c1/ng2"))
}

func TestScheduler_PreCancelledRunScansNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	connector := upgradetest.NewConnector(map[upgrade.AccountRegion]*upgradetest.ControlPlane{
		acct111: singleNodeGroup(),
		acct222: singleNodeGroup(),
	})
	s := NewScheduler(fastConfig(), connector, nil, nil)

	summary, err := s.Run(ctx, []upgrade.AccountRegion{acct111, acct222}, nil)

	require.NoError(t, err)
	assert.Empty(t, connector.Connects())
	assert.Equal(t, 2, summary.ScanSkipped)
}

func TestScheduler_ConcurrencyBound(t *testing.T) {
	planes := make(map[upgrade.AccountRegion]*upgradetest.ControlPlane)
	var accounts []upgrade.AccountRegion
	shared := upgradetest.NewControlPlane(map[string]map[string]*upgradetest.NodeGroup{
		"c1": {"ng1": {Current: "1.1", Latest: "1.1"}},
		"c2": {"ng2": {Current: "1.1", Latest: "1.1"}},
	})
	shared.CallDelay = 2 * time.Millisecond
	for i := 0; i < 12; i++ {
		ar := upgrade.AccountRegion{AccountID: fmt.Sprintf("%03d", i), Region: "us-west-2"}
		planes[ar] = shared
		accounts = append(accounts, ar)
	}
	connector := upgradetest.NewConnector(planes)
	cfg := fastConfig()
	cfg.Workers = 3
	s := NewScheduler(cfg, connector, nil, nil)

	summary, err := s.Run(context.Background(), accounts, nil)

	require.NoError(t, err)
	assert.Equal(t, 12, summary.Scanned)
	assert.LessOrEqual(t, shared.MaxConcurrentCalls(), 3)
	assert.Greater(t, shared.MaxConcurrentCalls(), 0)
}

func TestScheduler_PanicIsRecovered(t *testing.T) {
	panicking := singleNodeGroup()
	panicking.BeforeListNodeGroups = func(string) { panic("unexpected nil") }
	healthy := singleNodeGroup()
	connector := upgradetest.NewConnector(map[upgrade.AccountRegion]*upgradetest.ControlPlane{
		acct111: panicking,
		acct222: healthy,
	})
	recorder := &upgrade.Recorder{}
	s := NewScheduler(fastConfig(), connector, recorder, nil)

	summary, err := s.Run(context.Background(), []upgrade.AccountRegion{acct111, acct222}, nil)

	require.NoError(t, err)
	panics := recorder.Kind(upgrade.EventTaskPanic)
	require.Len(t, panics, 1)
	assert.Equal(t, acct111, panics[0].Account)
	assert.Equal(t, 1, summary.Panics)
	assert.Equal(t, 1, summary.Succeeded)
}

func TestScheduler_RunIsExclusive(t *testing.T) {
	plane := singleNodeGroup(upgradetest.PollStep{Status: upgrade.UpdateInProgress})
	connector := upgradetest.NewConnector(map[upgrade.AccountRegion]*upgradetest.ControlPlane{acct222: plane})

	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	var once sync.Once
	reporter := upgrade.ReporterFunc(func(e upgrade.Event) {
		if e.Kind == upgrade.EventDispatched {
			once.Do(func() { close(started) })
		}
	})
	cfg := fastConfig()
	cfg.Policy = PolicyAbandon
	s := NewScheduler(cfg, connector, reporter, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.Run(ctx, []upgrade.AccountRegion{acct222}, nil)
	}()

	<-started
	_, err := s.Run(context.Background(), []upgrade.AccountRegion{acct222}, nil)
	assert.Error(t, err)

	cancel()
	<-done
	assert.False(t, s.IsRunning())
}

// Every job's observed states follow Initiated, InProgress*, then one terminal state.
func TestScheduler_StateSequence(t *testing.T) {
	plane := upgradetest.NewControlPlane(map[string]map[string]*upgradetest.NodeGroup{
		"c1": {
			"ng1": {Current: "1.0", Latest: "1.1", Polls: []upgradetest.PollStep{
				{Status: upgrade.UpdateInProgress}, {Status: upgrade.UpdateInProgress}, {Status: upgrade.UpdateSuccessful},
			}},
			"ng2": {Current: "1.0", Latest: "1.1", Polls: []upgradetest.PollStep{
				{Status: upgrade.UpdateInProgress}, {Status: upgrade.UpdateFailed},
			}},
			"ng3": {Current: "1.0", Latest: "1.1", Polls: []upgradetest.PollStep{
				{Status: upgrade.UpdateInProgress}, {Err: errors.New("boom")},
			}},
		},
	})
	connector := upgradetest.NewConnector(map[upgrade.AccountRegion]*upgradetest.ControlPlane{acct222: plane})

	var mu sync.Mutex
	states := make(map[string][]upgrade.JobState)
	reporter := upgrade.ReporterFunc(func(e upgrade.Event) {
		if e.Kind != upgrade.EventDispatched && e.Kind != upgrade.EventTransition {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		states[e.Target.NodeGroup] = append(states[e.Target.NodeGroup], e.State)
	})
	s := NewScheduler(fastConfig(), connector, reporter, nil)

	_, err := s.Run(context.Background(), []upgrade.AccountRegion{acct222}, nil)
	require.NoError(t, err)

	want := map[string][]upgrade.JobState{
		"ng1": {upgrade.StateInitiated, upgrade.StateInProgress, upgrade.StateSucceeded},
		"ng2": {upgrade.StateInitiated, upgrade.StateInProgress, upgrade.StateFailed},
		"ng3": {upgrade.StateInitiated, upgrade.StateInProgress, upgrade.StateErrored},
	}
	assert.Equal(t, want, states)
}
