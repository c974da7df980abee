// Package executor runs the scan, dispatch and poll pipeline of a rolling
// node group upgrade over a bounded pool of workers.
//
// A Scheduler owns one delaying work queue per run. Every account/region that
// is not skipped becomes a scan task; every upgrade a scan starts becomes a
// poll task. A poll task that does not reach a terminal state is put back on
// the queue after the poll interval, so waiting jobs never hold a worker.
//
// # Basic Usage
//
//	scheduler := executor.NewScheduler(executor.Config{
//	    Workers:      10,
//	    PollInterval: 5 * time.Second,
//	}, connector, reporter, logger)
//
//	summary, err := scheduler.Run(ctx, accounts, skipped)
//
// # Shutdown
//
// Cancelling the run context signals shutdown. Scan tasks not yet started
// report a skip, running scans stop before their next cluster and no new
// upgrade is started. Upgrades that already started are polled to a terminal
// state under PolicyDrain or dropped at their next poll under PolicyAbandon.
// Run returns once no task is outstanding. Remote calls already issued are
// never interrupted.
//
// # Concurrency Guarantees
//
//   - At most Config.Workers tasks execute at once
//   - Each account/region is scanned at most once per run
//   - At most one live job exists per node group
//   - A panicking task is reported and retired without stopping the run
package executor
