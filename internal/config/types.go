package config

import "time"

// Config is the node upgrader configuration, read from flags, environment
// and the config file in that order of precedence
type Config struct {
	// Workers is the worker-count limit of the scheduler
	Workers int `mapstructure:"workers" yaml:"workers" json:"workers"`

	// PollInterval is the delay between two status reads of one upgrade
	PollInterval time.Duration `mapstructure:"pollInterval" yaml:"pollInterval" json:"pollInterval"`

	// PollJitter randomizes poll delays by up to this fraction of PollInterval
	PollJitter float64 `mapstructure:"pollJitter" yaml:"pollJitter" json:"pollJitter"`

	// PollErrorRetries is how many failed status reads an upgrade tolerates
	PollErrorRetries int `mapstructure:"pollErrorRetries" yaml:"pollErrorRetries" json:"pollErrorRetries"`

	// ShutdownPolicy is "drain" or "abandon"
	ShutdownPolicy string `mapstructure:"shutdownPolicy" yaml:"shutdownPolicy" json:"shutdownPolicy"`

	// RoleName is assumed in every member account
	RoleName string `mapstructure:"roleName" yaml:"roleName" json:"roleName"`

	// SessionName names the assumed-role session
	SessionName string `mapstructure:"sessionName" yaml:"sessionName" json:"sessionName"`

	// Timeout bounds each remote call
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`

	// RateLimit caps requests per second per account/region, zero is unlimited
	RateLimit float64 `mapstructure:"rateLimit" yaml:"rateLimit" json:"rateLimit"`

	// Profile is the shared AWS config profile of the management account
	Profile string `mapstructure:"profile" yaml:"profile,omitempty" json:"profile,omitempty"`

	// Region is the region used for STS calls
	Region string `mapstructure:"region" yaml:"region,omitempty" json:"region,omitempty"`

	// AccountsFile is a YAML or JSON accounts document
	AccountsFile string `mapstructure:"accountsFile" yaml:"accountsFile,omitempty" json:"accountsFile,omitempty"`

	// Accounts lists extra "account/region" pairs
	Accounts []string `mapstructure:"accounts" yaml:"accounts,omitempty" json:"accounts,omitempty"`

	// Skip lists "account/region" pairs never to process
	Skip []string `mapstructure:"skip" yaml:"skip,omitempty" json:"skip,omitempty"`

	// Clusters restricts scans to these cluster names or ARNs
	Clusters []string `mapstructure:"clusters" yaml:"clusters,omitempty" json:"clusters,omitempty"`

	// VersionOracle is "ssm" or "static"
	VersionOracle string `mapstructure:"versionOracle" yaml:"versionOracle" json:"versionOracle"`

	// LatestVersions maps Kubernetes versions to release versions for the static oracle
	LatestVersions map[string]string `mapstructure:"latestVersions" yaml:"latestVersions,omitempty" json:"latestVersions,omitempty"`

	LogLevel    string `mapstructure:"logLevel" yaml:"logLevel" json:"logLevel"`
	LogFormat   string `mapstructure:"logFormat" yaml:"logFormat" json:"logFormat"`
	Output      string `mapstructure:"output" yaml:"output" json:"output"`
	NoColor     bool   `mapstructure:"noColor" yaml:"noColor" json:"noColor"`
	NoHeaders   bool   `mapstructure:"noHeaders" yaml:"noHeaders" json:"noHeaders"`
	MetricsAddr string `mapstructure:"metricsAddr" yaml:"metricsAddr,omitempty" json:"metricsAddr,omitempty"`
}
