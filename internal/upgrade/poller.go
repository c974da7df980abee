package upgrade

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/aryankumar/node-upgrader/internal/util"
)

// Poller performs status reads for upgrade jobs
type Poller struct {
	maxErrorRetries int
	reporter        Reporter
	logger          *zap.Logger
}

// PollerOption configures a Poller
type PollerOption func(*Poller)

// WithErrorRetries allows n failed status reads before a job is marked Errored.
// The default of zero ends tracking on the first failed read.
func WithErrorRetries(n int) PollerOption {
	return func(p *Poller) {
		if n > 0 {
			p.maxErrorRetries = n
		}
	}
}

// WithTransitionReporter sends every state change of a job to r
func WithTransitionReporter(r Reporter) PollerOption {
	return func(p *Poller) {
		p.reporter = r
	}
}

// NewPoller creates a poller
func NewPoller(logger *zap.Logger, opts ...PollerOption) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Poller{logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Poll issues one status read for job and advances its state.
// It returns terminal=true with the message to report once the job reached
// Succeeded, Failed or Errored.
func (p *Poller) Poll(ctx context.Context, job *Job) (terminal bool, message string) {
	job.Attempts++
	logger := p.logger.With(
		zap.String("cluster", job.Target.Cluster),
		zap.String("nodegroup", job.Target.NodeGroup),
		zap.String("update_id", job.UpdateID),
		zap.Int("attempt", job.Attempts))

	status, err := job.client.DescribeUpdate(context.WithoutCancel(ctx), job.Target.Cluster, job.Target.NodeGroup, job.UpdateID)
	if err != nil {
		job.PollErrors++
		err = util.WrapTargetError(job.Target.Cluster, job.Target.NodeGroup, fmt.Errorf("%w: %w", util.ErrPoll, err))
		job.LastError = err
		if job.PollErrors <= p.maxErrorRetries {
			logger.Warn("status read failed, will retry",
				zap.Int("errors", job.PollErrors),
				zap.Int("max_retries", p.maxErrorRetries),
				zap.Error(err))
			return false, ""
		}
		p.transition(job, StateErrored, logger)
		return true, erroredMessage(job.Target, err)
	}

	switch status {
	case UpdateInProgress:
		p.transition(job, StateInProgress, logger)
		return false, ""
	case UpdateSuccessful:
		p.transition(job, StateSucceeded, logger)
		return true, succeededMessage(job.Target)
	case UpdateFailed:
		p.transition(job, StateFailed, logger)
		return true, failedMessage(job.Target)
	case UpdateCancelled:
		p.transition(job, StateFailed, logger)
		return true, cancelledMessage(job.Target)
	default:
		logger.Warn("unknown update status, polling again", zap.String("status", string(status)))
		return false, ""
	}
}

func (p *Poller) transition(job *Job, to JobState, logger *zap.Logger) {
	from := job.State
	if from == to {
		return
	}
	if err := job.Transition(to); err != nil {
		logger.Error("rejected job state change", zap.Error(err))
		return
	}
	logger.Debug("job state changed", zap.Stringer("from", from), zap.Stringer("to", to))
	if p.reporter != nil {
		p.reporter.Report(transitionEvent(job, from))
	}
}
