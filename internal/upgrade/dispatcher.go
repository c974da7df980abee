package upgrade

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/aryankumar/node-upgrader/internal/util"
)

// Dispatcher starts node group upgrades
type Dispatcher struct {
	logger *zap.Logger
}

// NewDispatcher creates a dispatcher
func NewDispatcher(logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{logger: logger}
}

// Dispatch starts the upgrade of target through client.
// On success the returned job is Initiated with no attempts. A failure is
// returned as an ErrDispatch error; callers do not retry it within a run.
func (d *Dispatcher) Dispatch(ctx context.Context, client ControlPlane, target Target) (*Job, error) {
	updateID, err := client.StartUpgrade(context.WithoutCancel(ctx), target.Cluster, target.NodeGroup)
	if err != nil {
		return nil, util.WrapTargetError(target.Cluster, target.NodeGroup, fmt.Errorf("%w: %w", util.ErrDispatch, err))
	}
	if updateID == "" {
		return nil, util.WrapTargetError(target.Cluster, target.NodeGroup, fmt.Errorf("%w: empty update id", util.ErrDispatch))
	}

	d.logger.Debug("upgrade started",
		zap.String("account", target.AccountID),
		zap.String("region", target.Region),
		zap.String("cluster", target.Cluster),
		zap.String("nodegroup", target.NodeGroup),
		zap.String("update_id", updateID))

	return NewJob(target, updateID, client), nil
}
