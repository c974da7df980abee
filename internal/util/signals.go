package util

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"go.uber.org/zap"
)

// ShutdownCoordinator owns the run-wide cancellation signal.
// The signal is set at most once and is never cleared; every task receives
// the coordinator's context and treats ctx.Err() != nil as "shutdown observed".
type ShutdownCoordinator struct {
	ctx      context.Context
	cancel   context.CancelFunc
	once     sync.Once
	signaled atomic.Bool
	notified atomic.Int32
	logger   *zap.Logger
}

// NewShutdownCoordinator creates a coordinator whose context derives from parent
func NewShutdownCoordinator(parent context.Context, logger *zap.Logger) *ShutdownCoordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(parent)
	return &ShutdownCoordinator{
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
}

// Context returns the context that is cancelled once shutdown is signaled
func (s *ShutdownCoordinator) Context() context.Context {
	return s.ctx
}

// Signal sets the shutdown flag. Only the first call has any effect.
func (s *ShutdownCoordinator) Signal(reason string) {
	s.notified.Add(1)
	s.once.Do(func() {
		s.signaled.Store(true)
		s.logger.Info("Termination signal received. Initiating graceful shutdown...", zap.String("reason", reason))
		s.cancel()
	})
}

// Signaled reports whether shutdown has been signaled
func (s *ShutdownCoordinator) Signaled() bool {
	return s.signaled.Load()
}

// Notifications returns how many shutdown notifications were received
func (s *ShutdownCoordinator) Notifications() int {
	return int(s.notified.Load())
}

// Watch forwards the given OS signals (SIGINT and SIGTERM when none are given)
// to Signal until the returned stop function is called.
// Repeated signals are logged and otherwise ignored.
func (s *ShutdownCoordinator) Watch(sigs ...os.Signal) (stop func()) {
	if len(sigs) == 0 {
		sigs = []os.Signal{syscall.SIGINT, syscall.SIGTERM}
	}

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, sigs...)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case sig := <-sigCh:
				if s.Signaled() {
					s.logger.Warn("shutdown already in progress, ignoring signal", zap.String("signal", sig.String()))
				}
				s.Signal(sig.String())
			case <-done:
				return
			}
		}
	}()

	var stopOnce sync.Once
	return func() {
		stopOnce.Do(func() {
			signal.Stop(sigCh)
			close(done)
		})
	}
}
