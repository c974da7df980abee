package executor

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/util/workqueue"
	"k8s.io/utils/clock"

	"github.com/aryankumar/node-upgrader/internal/upgrade"
)

// ShutdownPolicy decides what happens to jobs still being polled once shutdown is signaled
type ShutdownPolicy string

const (
	// PolicyDrain keeps polling started upgrades until they reach a terminal state
	PolicyDrain ShutdownPolicy = "drain"

	// PolicyAbandon stops tracking started upgrades at their next poll
	PolicyAbandon ShutdownPolicy = "abandon"
)

const (
	// DefaultWorkers is the default worker-count limit
	DefaultWorkers = 10

	// DefaultPollInterval is the default delay between two status reads of a job
	DefaultPollInterval = 5 * time.Second

	queueName = "node_upgrader_tasks"
)

// Config controls a Scheduler
type Config struct {
	// Workers is the maximum number of tasks executing at once
	Workers int

	// PollInterval is the delay before a non-terminal job is polled again
	PollInterval time.Duration

	// PollJitter spreads poll delays by up to PollJitter*PollInterval
	PollJitter float64

	// PollErrorRetries is how many failed status reads a job tolerates
	PollErrorRetries int

	// Policy applies to outstanding polls after shutdown
	Policy ShutdownPolicy

	// DryRun reports stale node groups without starting upgrades
	DryRun bool

	// Clusters restricts scans to these cluster names
	Clusters []string

	// MetricsProvider receives work queue metrics, optional
	MetricsProvider workqueue.MetricsProvider

	// Clock drives delayed requeues, optional
	Clock clock.WithTicker
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.Policy == "" {
		c.Policy = PolicyDrain
	}
	if c.Clock == nil {
		c.Clock = clock.RealClock{}
	}
	return c
}

type taskKind int

const (
	scanTask taskKind = iota
	pollTask
)

// task is one queue item. Poll tasks are requeued as the same pointer.
type task struct {
	kind    taskKind
	account upgrade.AccountRegion
	job     *upgrade.Job
}

func (t *task) accountRegion() upgrade.AccountRegion {
	if t.job != nil {
		return t.job.Target.AccountRegion()
	}
	return t.account
}

// Scheduler drives scan and poll tasks over a bounded pool of workers.
//
// Poll delays are realized by the delaying work queue, so no worker is held
// while a job waits for its next status read.
type Scheduler struct {
	cfg        Config
	scanner    *upgrade.Scanner
	dispatcher *upgrade.Dispatcher
	poller     *upgrade.Poller
	tracker    *upgrade.Tracker
	reporter   upgrade.Reporter
	logger     *zap.Logger

	running atomic.Bool
}

// NewScheduler creates a scheduler that reaches control planes through connector
// and reports every event to reporter
func NewScheduler(cfg Config, connector upgrade.Connector, reporter upgrade.Reporter, logger *zap.Logger) *Scheduler {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	if reporter == nil {
		reporter = upgrade.ReporterFunc(func(upgrade.Event) {})
	}

	return &Scheduler{
		cfg:        cfg,
		scanner:    upgrade.NewScanner(connector, logger.Named("scanner"), upgrade.WithClusterFilter(cfg.Clusters)),
		dispatcher: upgrade.NewDispatcher(logger.Named("dispatcher")),
		poller: upgrade.NewPoller(logger.Named("poller"),
			upgrade.WithErrorRetries(cfg.PollErrorRetries),
			upgrade.WithTransitionReporter(reporter)),
		tracker:  upgrade.NewTracker(),
		reporter: reporter,
		logger:   logger,
	}
}

// WorkerCount returns the worker-count limit
func (s *Scheduler) WorkerCount() int {
	return s.cfg.Workers
}

// IsRunning returns true while Run is executing
func (s *Scheduler) IsRunning() bool {
	return s.running.Load()
}

// LiveJobs returns the number of jobs dispatched and not yet terminal
func (s *Scheduler) LiveJobs() int {
	return s.tracker.Live()
}

// Run scans every account/region not in skipped, dispatches upgrades for
// stale node groups and polls them until no task remains.
//
// Cancelling ctx is the shutdown signal: scans not yet started are skipped,
// running scans stop at their next cluster, no further upgrade is started and
// outstanding polls are drained or abandoned according to the policy. Run
// returns once every outstanding task has finished.
func (s *Scheduler) Run(ctx context.Context, accounts, skipped []upgrade.AccountRegion) (*Summary, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("scheduler is already running")
	}
	defer s.running.Store(false)

	start := time.Now()
	collector := newCollector(len(accounts))
	r := &run{
		Scheduler: s,
		ctx:       ctx,
		reporter:  upgrade.MultiReporter{s.reporter, collector},
		queue: workqueue.NewTypedDelayingQueueWithConfig(workqueue.TypedDelayingQueueConfig[*task]{
			Name:            queueName,
			MetricsProvider: s.cfg.MetricsProvider,
			Clock:           s.cfg.Clock,
		}),
	}

	skipSet := sets.New(skipped...)
	seen := sets.New[upgrade.AccountRegion]()
	for _, ar := range accounts {
		switch {
		case skipSet.Has(ar):
			r.report(upgrade.SkippedEvent(ar))
		case seen.Has(ar):
			s.logger.Debug("duplicate account/region ignored",
				zap.String("account", ar.AccountID),
				zap.String("region", ar.Region))
		default:
			seen.Insert(ar)
			r.enqueue(&task{kind: scanTask, account: ar})
		}
	}

	if r.outstanding.Load() == 0 {
		r.queue.ShutDown()
		s.logger.Info("no account/region to scan", zap.Int("skipped", collector.skipped()))
		return collector.summary(time.Since(start)), nil
	}

	s.logger.Info("starting scheduler",
		zap.Int("workers", s.cfg.Workers),
		zap.Int("scans", seen.Len()),
		zap.Duration("poll_interval", s.cfg.PollInterval),
		zap.String("shutdown_policy", string(s.cfg.Policy)),
		zap.Bool("dry_run", s.cfg.DryRun))

	var g errgroup.Group
	for i := 0; i < s.cfg.Workers; i++ {
		workerID := i
		g.Go(func() error {
			r.worker(workerID)
			return nil
		})
	}
	_ = g.Wait()

	for _, job := range s.tracker.Jobs() {
		s.logger.Error("job still tracked after the queue drained",
			zap.String("cluster", job.Target.Cluster),
			zap.String("nodegroup", job.Target.NodeGroup),
			zap.String("update_id", job.UpdateID))
	}

	summary := collector.summary(time.Since(start))
	s.logger.Info("scheduler finished",
		zap.Int("dispatched", summary.Dispatched),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("errored", summary.Errored),
		zap.Duration("duration", summary.Duration))
	return summary, nil
}

// run is the state of a single Run call
type run struct {
	*Scheduler

	ctx         context.Context
	queue       workqueue.TypedDelayingInterface[*task]
	reporter    upgrade.Reporter
	outstanding atomic.Int64
}

func (r *run) report(e upgrade.Event) {
	r.reporter.Report(e)
}

// enqueue counts t as outstanding before it becomes visible to workers
func (r *run) enqueue(t *task) {
	r.outstanding.Add(1)
	r.queue.Add(t)
}

// finish retires one outstanding task; the last one shuts the queue down
func (r *run) finish() {
	if r.outstanding.Add(-1) == 0 {
		r.queue.ShutDown()
	}
}

func (r *run) worker(workerID int) {
	r.logger.Debug("worker started", zap.Int("worker_id", workerID))
	for r.processNextTask(workerID) {
	}
	r.logger.Debug("worker finished", zap.Int("worker_id", workerID))
}

func (r *run) processNextTask(workerID int) bool {
	t, shutdown := r.queue.Get()
	if shutdown {
		return false
	}
	defer r.queue.Done(t)

	r.execute(workerID, t)
	return true
}

// execute runs one task. A panic is reported and retires the task.
func (r *run) execute(workerID int, t *task) {
	requeue := false
	defer func() {
		if rec := recover(); rec != nil {
			requeue = false
			r.logger.Error("task panicked",
				zap.Int("worker_id", workerID),
				zap.Stringer("account", t.accountRegion()),
				zap.Any("panic", rec))
			if t.job != nil {
				r.tracker.Release(t.job.Target.Key())
			}
			r.report(upgrade.TaskPanicEvent(t.accountRegion(), rec))
		}

		if requeue {
			r.queue.AddAfter(t, r.pollDelay())
			return
		}
		r.finish()
	}()

	switch t.kind {
	case scanTask:
		r.scan(t.account)
	case pollTask:
		requeue = r.poll(t.job)
	}
}

func (r *run) pollDelay() time.Duration {
	if r.cfg.PollJitter > 0 {
		return wait.Jitter(r.cfg.PollInterval, r.cfg.PollJitter)
	}
	return r.cfg.PollInterval
}

func (r *run) scan(ar upgrade.AccountRegion) {
	if r.ctx.Err() != nil {
		r.report(upgrade.ScanSkippedEvent(ar))
		return
	}

	result := r.scanner.Scan(r.ctx, ar)
	switch {
	case result.Err != nil:
		r.report(upgrade.ScanFailedEvent(ar, result.Err))
	case result.Interrupted():
		r.report(upgrade.ScanInterruptedEvent(ar, result.InterruptedAt))
	default:
		r.report(upgrade.ScanCompletedEvent(ar, len(result.Targets)))
	}

	for _, target := range result.Targets {
		r.dispatch(result.Client, target)
	}
}

func (r *run) dispatch(client upgrade.ControlPlane, target upgrade.Target) {
	if r.cfg.DryRun {
		r.report(upgrade.StaleEvent(target))
		return
	}
	if r.ctx.Err() != nil {
		r.report(upgrade.DispatchSkippedEvent(target))
		return
	}
	if !r.tracker.Claim(target.Key()) {
		r.logger.Warn("nodegroup already has a live upgrade job",
			zap.String("account", target.AccountID),
			zap.String("region", target.Region),
			zap.String("cluster", target.Cluster),
			zap.String("nodegroup", target.NodeGroup))
		return
	}

	job, err := r.dispatcher.Dispatch(r.ctx, client, target)
	if err != nil {
		r.tracker.Release(target.Key())
		r.report(upgrade.DispatchFailedEvent(target, err))
		return
	}

	r.tracker.Attach(job)
	r.report(upgrade.DispatchedEvent(job))
	r.enqueue(&task{kind: pollTask, job: job})
}

// poll returns true when the job must be polled again
func (r *run) poll(job *upgrade.Job) bool {
	if r.ctx.Err() != nil && r.cfg.Policy == PolicyAbandon {
		r.tracker.Release(job.Target.Key())
		r.report(upgrade.AbandonedEvent(job))
		return false
	}

	terminal, message := r.poller.Poll(r.ctx, job)
	if !terminal {
		return true
	}

	r.tracker.Release(job.Target.Key())
	r.report(upgrade.CompletedEvent(job, message))
	return false
}
