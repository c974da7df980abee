package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/aryankumar/node-upgrader/internal/credentials"
	"github.com/aryankumar/node-upgrader/internal/executor"
	"github.com/aryankumar/node-upgrader/internal/upgrade"
	"github.com/aryankumar/node-upgrader/internal/util"
)

const (
	defaultConfigName = ".node-upgrader"
	defaultConfigDir  = ".node-upgrader"
	envPrefix         = "NODE_UPGRADER"

	// keyDelimiter keeps dotted Kubernetes versions in latestVersions intact
	keyDelimiter = "::"
)

// Defaults shared with command-line flags
const (
	DefaultWorkers      = executor.DefaultWorkers
	DefaultPollInterval = executor.DefaultPollInterval
	DefaultTimeout      = 30 * time.Second
	DefaultRoleName     = credentials.DefaultRoleName
	DefaultSessionName  = credentials.DefaultSessionName
)

// Configuration keys
const (
	KeyWorkers          = "workers"
	KeyPollInterval     = "pollInterval"
	KeyPollJitter       = "pollJitter"
	KeyPollErrorRetries = "pollErrorRetries"
	KeyShutdownPolicy   = "shutdownPolicy"
	KeyRoleName         = "roleName"
	KeySessionName      = "sessionName"
	KeyTimeout          = "timeout"
	KeyRateLimit        = "rateLimit"
	KeyProfile          = "profile"
	KeyRegion           = "region"
	KeyAccountsFile     = "accountsFile"
	KeyAccounts         = "accounts"
	KeySkip             = "skip"
	KeyClusters         = "clusters"
	KeyVersionOracle    = "versionOracle"
	KeyLatestVersions   = "latestVersions"
	KeyLogLevel         = "logLevel"
	KeyLogFormat        = "logFormat"
	KeyOutput           = "output"
	KeyNoColor          = "noColor"
	KeyNoHeaders        = "noHeaders"
	KeyMetricsAddr      = "metricsAddr"
)

// Manager loads node upgrader configuration
type Manager struct {
	configPath string
	config     *Config
	viper      *viper.Viper
}

// NewManager creates a new configuration manager. An empty configPath looks
// for .node-upgrader.yaml in the home directory, then in ~/.node-upgrader/.
func NewManager(configPath string) *Manager {
	v := viper.NewWithOptions(viper.KeyDelimiter(keyDelimiter))
	applyDefaults(v)
	return &Manager{
		configPath: configPath,
		viper:      v,
		config:     &Config{},
	}
}

// Viper returns the underlying viper instance so flags can be bound to it
func (m *Manager) Viper() *viper.Viper {
	return m.viper
}

// SetConfigPath changes the file Load reads
func (m *Manager) SetConfigPath(path string) {
	m.configPath = path
}

// ConfigFileUsed returns the file Load read, if any
func (m *Manager) ConfigFileUsed() string {
	return m.viper.ConfigFileUsed()
}

// Load reads the configuration. A missing config file is not an error.
func (m *Manager) Load() (*Config, error) {
	if m.configPath != "" {
		m.viper.SetConfigFile(m.configPath)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}

		m.viper.AddConfigPath(home)
		m.viper.AddConfigPath(filepath.Join(home, defaultConfigDir))
		m.viper.SetConfigName(defaultConfigName)
		m.viper.SetConfigType("yaml")
	}

	m.viper.SetEnvPrefix(envPrefix)
	m.viper.AutomaticEnv()

	if err := m.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	m.config = &Config{}
	if err := m.viper.Unmarshal(m.config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return m.config, nil
}

// GetConfig returns the configuration from the last Load
func (m *Manager) GetConfig() *Config {
	return m.config
}

// applyDefaults registers the default of every key
func applyDefaults(v *viper.Viper) {
	v.SetDefault(KeyWorkers, DefaultWorkers)
	v.SetDefault(KeyPollInterval, DefaultPollInterval)
	v.SetDefault(KeyPollJitter, 0.0)
	v.SetDefault(KeyPollErrorRetries, 0)
	v.SetDefault(KeyShutdownPolicy, "drain")
	v.SetDefault(KeyRoleName, DefaultRoleName)
	v.SetDefault(KeySessionName, DefaultSessionName)
	v.SetDefault(KeyTimeout, DefaultTimeout)
	v.SetDefault(KeyRateLimit, 0.0)
	v.SetDefault(KeyProfile, "")
	v.SetDefault(KeyRegion, "")
	v.SetDefault(KeyAccountsFile, "")
	v.SetDefault(KeyAccounts, []string{})
	v.SetDefault(KeySkip, []string{})
	v.SetDefault(KeyClusters, []string{})
	v.SetDefault(KeyVersionOracle, "ssm")
	v.SetDefault(KeyLatestVersions, map[string]string{})
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
	v.SetDefault(KeyOutput, "table")
	v.SetDefault(KeyNoColor, false)
	v.SetDefault(KeyNoHeaders, false)
	v.SetDefault(KeyMetricsAddr, "")
}

// Validate checks every field and returns all problems at once
func (c *Config) Validate() error {
	errs := &util.MultiError{}

	if c.Workers < 1 {
		errs.Add(util.NewValidationError(KeyWorkers, c.Workers, "must be at least 1"))
	}
	if c.PollInterval <= 0 {
		errs.Add(util.NewValidationError(KeyPollInterval, c.PollInterval, "must be positive"))
	}
	if c.PollJitter < 0 {
		errs.Add(util.NewValidationError(KeyPollJitter, c.PollJitter, "must not be negative"))
	}
	if c.PollErrorRetries < 0 {
		errs.Add(util.NewValidationError(KeyPollErrorRetries, c.PollErrorRetries, "must not be negative"))
	}
	if c.ShutdownPolicy != "drain" && c.ShutdownPolicy != "abandon" {
		errs.Add(util.NewValidationError(KeyShutdownPolicy, c.ShutdownPolicy, "must be drain or abandon"))
	}
	if c.RoleName == "" {
		errs.Add(util.NewValidationError(KeyRoleName, nil, "must not be empty"))
	}
	if c.Timeout <= 0 {
		errs.Add(util.NewValidationError(KeyTimeout, c.Timeout, "must be positive"))
	}
	if c.RateLimit < 0 {
		errs.Add(util.NewValidationError(KeyRateLimit, c.RateLimit, "must not be negative"))
	}
	switch c.VersionOracle {
	case "ssm":
	case "static":
		if len(c.LatestVersions) == 0 {
			errs.Add(util.NewValidationError(KeyLatestVersions, nil, "required by the static version oracle"))
		}
	default:
		errs.Add(util.NewValidationError(KeyVersionOracle, c.VersionOracle, "must be ssm or static"))
	}
	switch c.Output {
	case "table", "json", "yaml":
	default:
		errs.Add(util.NewValidationError(KeyOutput, c.Output, "must be table, json or yaml"))
	}
	if _, err := parsePairs(KeyAccounts, c.Accounts); err != nil {
		errs.Add(err)
	}
	if _, err := parsePairs(KeySkip, c.Skip); err != nil {
		errs.Add(err)
	}

	return errs.ErrorOrNil()
}

// InlineAccounts returns the parsed accounts list
func (c *Config) InlineAccounts() ([]upgrade.AccountRegion, error) {
	return parsePairs(KeyAccounts, c.Accounts)
}

// SkipList returns the parsed skip list
func (c *Config) SkipList() ([]upgrade.AccountRegion, error) {
	return parsePairs(KeySkip, c.Skip)
}

func parsePairs(field string, values []string) ([]upgrade.AccountRegion, error) {
	out := make([]upgrade.AccountRegion, 0, len(values))
	for i, s := range values {
		ar, err := upgrade.ParseAccountRegion(s)
		if err != nil {
			return nil, util.NewValidationError(fmt.Sprintf("%s[%d]", field, i), s, err.Error())
		}
		out = append(out, ar)
	}
	return out, nil
}
