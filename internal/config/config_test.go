package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryankumar/node-upgrader/internal/upgrade"
	"github.com/aryankumar/node-upgrader/internal/util"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestManager_Load(t *testing.T) {
	tests := []struct {
		name             string
		configContent    string
		wantErr          bool
		wantWorkers      int
		wantPollInterval time.Duration
		wantRole         string
		wantPolicy       string
	}{
		{
			name: "full config",
			configContent: `
workers: 4
pollInterval: 30s
roleName: UpgraderRole
shutdownPolicy: abandon
versionOracle: static
latestVersions:
  "1.29": 1.29.3-20240506
  "1.30": 1.30.0-20240506
accounts:
  - 111/us-east-1
skip:
  - 111/us-east-1
clusters:
  - prod
`,
			wantWorkers:      4,
			wantPollInterval: 30 * time.Second,
			wantRole:         "UpgraderRole",
			wantPolicy:       "abandon",
		},
		{
			name:             "empty config uses defaults",
			configContent:    "",
			wantWorkers:      10,
			wantPollInterval: 5 * time.Second,
			wantRole:         "OrganizationAccountAccessRole",
			wantPolicy:       "drain",
		},
		{
			name:          "invalid yaml",
			configContent: "workers: [",
			wantErr:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(writeConfig(t, tt.configContent))

			cfg, err := m.Load()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantWorkers, cfg.Workers)
			assert.Equal(t, tt.wantPollInterval, cfg.PollInterval)
			assert.Equal(t, tt.wantRole, cfg.RoleName)
			assert.Equal(t, tt.wantPolicy, cfg.ShutdownPolicy)
			assert.Same(t, cfg, m.GetConfig())
		})
	}
}

func TestManager_LoadDefaults(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := m.Load()

	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Workers)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.Equal(t, 0, cfg.PollErrorRetries)
	assert.Equal(t, "AssumeRoleSession", cfg.SessionName)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "ssm", cfg.VersionOracle)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, "table", cfg.Output)
	assert.NoError(t, cfg.Validate())
}

func TestManager_LatestVersionsKeepDots(t *testing.T) {
	m := NewManager(writeConfig(t, `
versionOracle: static
latestVersions:
  "1.29": 1.29.3-20240506
`))

	cfg, err := m.Load()

	require.NoError(t, err)
	assert.Equal(t, map[string]string{"1.29": "1.29.3-20240506"}, cfg.LatestVersions)
}

func TestManager_EnvOverride(t *testing.T) {
	t.Setenv("NODE_UPGRADER_WORKERS", "3")
	t.Setenv("NODE_UPGRADER_SHUTDOWNPOLICY", "abandon")
	m := NewManager(writeConfig(t, "workers: 7\n"))

	cfg, err := m.Load()

	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "abandon", cfg.ShutdownPolicy)
}

func TestManager_ViperOverride(t *testing.T) {
	m := NewManager(writeConfig(t, "workers: 7\n"))
	m.Viper().Set(KeyWorkers, 2)

	cfg, err := m.Load()

	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Workers)
}

func validConfig() Config {
	return Config{
		Workers:        10,
		PollInterval:   5 * time.Second,
		ShutdownPolicy: "drain",
		RoleName:       "OrganizationAccountAccessRole",
		Timeout:        30 * time.Second,
		VersionOracle:  "ssm",
		Output:         "table",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "zero workers", mutate: func(c *Config) { c.Workers = 0 }, wantField: "workers"},
		{name: "zero poll interval", mutate: func(c *Config) { c.PollInterval = 0 }, wantField: "pollInterval"},
		{name: "negative jitter", mutate: func(c *Config) { c.PollJitter = -1 }, wantField: "pollJitter"},
		{name: "negative retries", mutate: func(c *Config) { c.PollErrorRetries = -1 }, wantField: "pollErrorRetries"},
		{name: "unknown policy", mutate: func(c *Config) { c.ShutdownPolicy = "kill" }, wantField: "shutdownPolicy"},
		{name: "empty role", mutate: func(c *Config) { c.RoleName = "" }, wantField: "roleName"},
		{name: "zero timeout", mutate: func(c *Config) { c.Timeout = 0 }, wantField: "timeout"},
		{name: "negative rate", mutate: func(c *Config) { c.RateLimit = -2 }, wantField: "rateLimit"},
		{name: "unknown oracle", mutate: func(c *Config) { c.VersionOracle = "github" }, wantField: "versionOracle"},
		{name: "static without versions", mutate: func(c *Config) { c.VersionOracle = "static" }, wantField: "latestVersions"},
		{name: "unknown output", mutate: func(c *Config) { c.Output = "xml" }, wantField: "output"},
		{name: "bad account", mutate: func(c *Config) { c.Accounts = []string{"111"} }, wantField: "accounts[0]"},
		{name: "bad skip", mutate: func(c *Config) { c.Skip = []string{"ok/us-east-1", "nope"} }, wantField: "skip[1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, util.ErrInvalidConfig)
			assert.Contains(t, err.Error(), `"`+tt.wantField+`"`)
		})
	}
}

func TestConfig_Pairs(t *testing.T) {
	cfg := validConfig()
	cfg.Accounts = []string{"111/us-east-1", "222:eu-west-1"}
	cfg.Skip = []string{"111/us-east-1"}

	accounts, err := cfg.InlineAccounts()
	require.NoError(t, err)
	assert.Equal(t, []upgrade.AccountRegion{
		{AccountID: "111", Region: "us-east-1"},
		{AccountID: "222", Region: "eu-west-1"},
	}, accounts)

	skip, err := cfg.SkipList()
	require.NoError(t, err)
	assert.Equal(t, []upgrade.AccountRegion{{AccountID: "111", Region: "us-east-1"}}, skip)
}
