// Package upgrade holds the node group upgrade domain: the identities that are
// scanned and upgraded, the job state machine, and the three per-task
// components driven by the scheduler.
//
// # Components
//
//   - Scanner: enumerates clusters and node groups for one account/region and
//     returns the node groups whose release version differs from the latest one
//   - Dispatcher: starts the upgrade of one node group and returns a Job
//   - Poller: performs one status read for a Job and advances its state
//   - Tracker: guarantees at most one live Job per node group
//
// # Job lifecycle
//
// A Job only moves forward:
//
//	Initiated -> InProgress -> Succeeded | Failed
//	Initiated | InProgress  -> Errored
//
// A remote "successful" or "failed" status observed on the first read moves an
// Initiated job straight to its terminal state.
//
// # Shutdown
//
// Every component receives the run context. A cancelled context is the
// shutdown signal: the Scanner stops before the next cluster, and remote calls
// already issued are never aborted because they run on a context detached from
// cancellation.
package upgrade
