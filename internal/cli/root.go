package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/aryankumar/node-upgrader/internal/config"
	"github.com/aryankumar/node-upgrader/internal/output"
	"github.com/aryankumar/node-upgrader/internal/util"
)

// flagKeys binds each command-line flag to its configuration key
var flagKeys = map[string]string{
	"workers":            config.KeyWorkers,
	"poll-interval":      config.KeyPollInterval,
	"poll-jitter":        config.KeyPollJitter,
	"poll-error-retries": config.KeyPollErrorRetries,
	"shutdown-policy":    config.KeyShutdownPolicy,
	"role-name":          config.KeyRoleName,
	"session-name":       config.KeySessionName,
	"timeout":            config.KeyTimeout,
	"rate-limit":         config.KeyRateLimit,
	"profile":            config.KeyProfile,
	"region":             config.KeyRegion,
	"accounts-file":      config.KeyAccountsFile,
	"accounts":           config.KeyAccounts,
	"skip":               config.KeySkip,
	"clusters":           config.KeyClusters,
	"version-oracle":     config.KeyVersionOracle,
	"latest-versions":    config.KeyLatestVersions,
	"log-level":          config.KeyLogLevel,
	"log-format":         config.KeyLogFormat,
	"output":             config.KeyOutput,
	"no-color":           config.KeyNoColor,
	"no-headers":         config.KeyNoHeaders,
	"metrics-addr":       config.KeyMetricsAddr,
}

// app carries the state shared by the commands of one invocation
type app struct {
	cfgFile string
	verbose bool

	manager *config.Manager
	cfg     *config.Config
	logger  *zap.Logger

	// connect builds the control-plane connector; replaced in tests
	connect connectFunc
}

func newApp() *app {
	return &app{
		manager: config.NewManager(""),
		logger:  zap.NewNop(),
		connect: connectAWS,
	}
}

// Execute runs the root command with the provided context
func Execute(ctx context.Context) error {
	a := newApp()
	defer func() { _ = a.logger.Sync() }()
	return newRootCmd(a).ExecuteContext(ctx)
}

// newRootCmd creates the root command
func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "node-upgrader",
		Short: "Node Upgrader - rolling EKS node group upgrades across accounts",
		Long: `Node Upgrader scans every configured AWS account and region for EKS
managed node groups running an out-of-date release version, starts an
upgrade for each one and follows it to completion.

Accounts come from an accounts file or the accounts list in the config;
pairs on the skip list are never touched.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.node-upgrader.yaml)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "verbose output with debug logging")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "console", "log format (console, json)")
	flags.StringP("output", "o", "table", "output format (table, json, yaml)")
	flags.Bool("no-color", false, "disable colored output")
	flags.Bool("no-headers", false, "omit table headers")
	flags.String("accounts-file", "", "YAML or JSON file listing accounts and skipped accounts")
	flags.StringSlice("accounts", nil, "extra account/region pairs to process (e.g. 123456789012/us-east-1)")
	flags.StringSlice("skip", nil, "account/region pairs never to process")
	registerValueCompletions(rootCmd, map[string][]string{
		"output":     {string(output.FormatTable), string(output.FormatJSON), string(output.FormatYAML)},
		"log-level":  {"debug", "info", "warn", "error"},
		"log-format": {"console", "json"},
	})

	rootCmd.AddCommand(newRunCmd(a))
	rootCmd.AddCommand(newPlanCmd(a))
	rootCmd.AddCommand(newAccountsCmd(a))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

// addAWSFlags registers the flags of commands that reach AWS
func addAWSFlags(flags *pflag.FlagSet) {
	flags.String("profile", "", "shared AWS config profile of the management account")
	flags.String("region", "", "region of the management account's STS calls")
	flags.String("role-name", config.DefaultRoleName, "role assumed in every member account")
	flags.String("session-name", config.DefaultSessionName, "session name of the assumed role")
	flags.Duration("timeout", config.DefaultTimeout, "timeout for each remote call")
	flags.Float64("rate-limit", 0, "requests per second per account/region (0 = unlimited)")
	flags.StringSlice("clusters", nil, "only scan these clusters (names or ARNs)")
	flags.String("version-oracle", "ssm", "source of latest release versions (ssm, static)")
	flags.StringToString("latest-versions", nil, "release version per Kubernetes version for the static oracle (e.g. 1.29=1.29.3-20240601)")
}

// addSchedulerFlags registers the flags of commands that run the scheduler
func addSchedulerFlags(flags *pflag.FlagSet) {
	flags.IntP("workers", "w", config.DefaultWorkers, "maximum number of tasks executing at once")
	flags.Duration("poll-interval", config.DefaultPollInterval, "delay between two status reads of one upgrade")
	flags.Float64("poll-jitter", 0, "randomize poll delays by up to this fraction of the interval")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
}

// initConfig binds the executing command's flags, loads configuration and
// builds the logger
func (a *app) initConfig(cmd *cobra.Command) error {
	if err := bindFlags(a.manager, cmd.Flags()); err != nil {
		return err
	}
	if a.cfgFile != "" {
		a.manager.SetConfigPath(a.cfgFile)
	}

	cfg, err := a.manager.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.LogLevel
	if a.verbose {
		level = "debug"
	}
	logger, err := util.NewLogger(level, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("%w: %w", util.ErrInvalidConfig, err)
	}
	a.logger = logger

	if used := a.manager.ConfigFileUsed(); used != "" {
		a.logger.Debug("loaded configuration", zap.String("file", used))
	}
	return nil
}

func bindFlags(m *config.Manager, flags *pflag.FlagSet) error {
	var bindErr error
	flags.VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || bindErr != nil {
			return
		}
		if err := m.Viper().BindPFlag(key, f); err != nil {
			bindErr = fmt.Errorf("failed to bind flag %q: %w", f.Name, err)
		}
	})
	return bindErr
}

// formatter returns the formatter selected by the loaded configuration
func (a *app) formatter() output.Formatter {
	return output.NewFormatter(output.Format(a.cfg.Output),
		output.WithNoColor(a.cfg.NoColor),
		output.WithNoHeaders(a.cfg.NoHeaders))
}

// eventWriter picks where per-event lines go. Structured formats keep stdout
// parseable by moving the lines to stderr.
func (a *app) eventWriter(cmd *cobra.Command) io.Writer {
	if a.cfg != nil && a.cfg.Output != "table" {
		return cmd.ErrOrStderr()
	}
	return cmd.OutOrStdout()
}
