package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aryankumar/node-upgrader/internal/executor"
	"github.com/aryankumar/node-upgrader/internal/inventory"
	"github.com/aryankumar/node-upgrader/internal/metrics"
	"github.com/aryankumar/node-upgrader/internal/oracle"
	"github.com/aryankumar/node-upgrader/internal/output"
	"github.com/aryankumar/node-upgrader/internal/upgrade"
	"github.com/aryankumar/node-upgrader/internal/util"
)

func newRunCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Upgrade every out-of-date node group",
		Long: `Scan every configured account and region, start an upgrade for each
managed node group whose release version is behind the latest one, and poll
each upgrade until it succeeds or fails.

On SIGINT or SIGTERM no new scan or upgrade is started. Upgrades already
started are followed to completion unless --shutdown-policy=abandon.`,
		Example: `  # Upgrade node groups in the accounts of a file
  node-upgrader run --accounts-file accounts.yaml

  # Upgrade two accounts, skipping one region
  node-upgrader run --accounts 123456789012/us-east-1,123456789012/eu-west-1 \
    --skip 123456789012/eu-west-1

  # Only touch the prod cluster, with a summary in JSON
  node-upgrader run --accounts-file accounts.yaml --clusters prod -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runScheduler(cmd, false)
		},
	}

	addAWSFlags(cmd.Flags())
	addSchedulerFlags(cmd.Flags())
	cmd.Flags().Int("poll-error-retries", 0, "failed status reads an upgrade tolerates before it is reported as errored")
	cmd.Flags().String("shutdown-policy", string(executor.PolicyDrain), "what to do with started upgrades on shutdown (drain, abandon)")
	registerValueCompletions(cmd, map[string][]string{
		"shutdown-policy": {string(executor.PolicyDrain), string(executor.PolicyAbandon)},
		"version-oracle":  oracleKinds,
	})

	return cmd
}

func newPlanCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "List the node groups an upgrade run would touch",
		Long: `Scan every configured account and region like run does, but only report
the out-of-date node groups with their current and latest release versions.
No upgrade is started.`,
		Example: `  # Show what run would upgrade
  node-upgrader plan --accounts-file accounts.yaml

  # Compare against pinned release versions
  node-upgrader plan --accounts-file accounts.yaml --version-oracle static \
    --latest-versions 1.29=1.29.3-20240531`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runScheduler(cmd, true)
		},
	}

	addAWSFlags(cmd.Flags())
	addSchedulerFlags(cmd.Flags())
	registerValueCompletions(cmd, map[string][]string{"version-oracle": oracleKinds})

	return cmd
}

var oracleKinds = []string{string(oracle.KindSSM), string(oracle.KindStatic)}

// loadInventory reads the accounts to process and the pairs to skip
func (a *app) loadInventory(ctx context.Context) ([]upgrade.AccountRegion, []upgrade.AccountRegion, error) {
	inline, err := a.cfg.InlineAccounts()
	if err != nil {
		return nil, nil, err
	}
	skip, err := a.cfg.SkipList()
	if err != nil {
		return nil, nil, err
	}

	var source upgrade.AccountSource
	switch {
	case a.cfg.AccountsFile != "":
		source = inventory.NewFile(a.cfg.AccountsFile, skip).WithAccounts(inline)
	case len(inline) > 0:
		source = inventory.NewStatic(inline, skip)
	default:
		return nil, nil, fmt.Errorf("%w: no accounts configured", util.ErrInventory)
	}

	accounts, err := source.ListAccounts(ctx)
	if err != nil {
		return nil, nil, err
	}
	skipped, err := source.ListSkippedAccounts(ctx)
	if err != nil {
		return nil, nil, err
	}

	a.logger.Debug("loaded inventory",
		zap.Int("accounts", len(accounts)),
		zap.Int("skipped", len(skipped)))
	return accounts, skipped, nil
}

// runScheduler runs one scheduler pass. Only inventory and AWS configuration
// failures are returned as errors; per-account failures end up in the summary.
func (a *app) runScheduler(cmd *cobra.Command, dryRun bool) error {
	cfg := a.cfg

	coordinator := util.NewShutdownCoordinator(cmd.Context(), a.logger)
	stop := coordinator.Watch()
	defer stop()
	ctx := coordinator.Context()

	accounts, skipped, err := a.loadInventory(ctx)
	if err != nil {
		return err
	}

	connector, err := a.connect(ctx, cfg, a.logger)
	if err != nil {
		return err
	}

	m := metrics.New()
	console := output.NewConsoleReporter(a.eventWriter(cmd), cfg.NoColor, output.WithTransitions(a.verbose))

	scheduler := executor.NewScheduler(executor.Config{
		Workers:          cfg.Workers,
		PollInterval:     cfg.PollInterval,
		PollJitter:       cfg.PollJitter,
		PollErrorRetries: cfg.PollErrorRetries,
		Policy:           executor.ShutdownPolicy(cfg.ShutdownPolicy),
		DryRun:           dryRun,
		Clusters:         cfg.Clusters,
		MetricsProvider:  m.QueueMetrics(),
	}, connector, m.Reporter(console), a.logger.Named("scheduler"))

	if err := m.TrackLiveJobs(scheduler.LiveJobs); err != nil {
		return err
	}

	if cfg.MetricsAddr != "" {
		srv, err := m.Listen(cfg.MetricsAddr, a.logger.Named("metrics"))
		if err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		// keep serving while started upgrades drain after a signal
		serveCtx, cancelServe := context.WithCancel(context.WithoutCancel(ctx))
		served := make(chan struct{})
		go func() {
			defer close(served)
			if err := srv.Serve(serveCtx); err != nil {
				a.logger.Warn("metrics server stopped", zap.Error(err))
			}
		}()
		defer func() {
			cancelServe()
			<-served
		}()
	}

	summary, err := scheduler.Run(ctx, accounts, skipped)
	if err != nil {
		return err
	}

	if coordinator.Signaled() {
		a.logger.Info("Shutdown complete",
			zap.Int("abandoned", summary.Abandoned),
			zap.Int("signals", coordinator.Notifications()))
	}
	if summary.HasFailures() {
		a.logger.Warn("run finished with failures", zap.Error(summary.Err()))
	}
	a.logger.Debug("run finished", zap.Stringer("summary", summary))

	formatter := a.formatter()
	if dryRun {
		return formatter.FormatPlan(cmd.OutOrStdout(), summary.Targets)
	}
	return formatter.FormatSummary(cmd.OutOrStdout(), summary)
}
