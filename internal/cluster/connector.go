package cluster

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eks"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"go.uber.org/zap"

	"github.com/aryankumar/node-upgrader/internal/credentials"
	"github.com/aryankumar/node-upgrader/internal/oracle"
	"github.com/aryankumar/node-upgrader/internal/upgrade"
)

// Broker obtains credentials for a member account
type Broker interface {
	AssumeRole(ctx context.Context, accountID, roleName string) (credentials.Credentials, error)
}

// ConnectorConfig controls the clients a Connector issues
type ConnectorConfig struct {
	// RoleName is assumed in every member account
	RoleName string

	// Oracle selects the version oracle
	Oracle oracle.Kind

	// LatestVersions feeds the static oracle
	LatestVersions map[string]string

	// RateLimit caps requests per second of each client; zero means unlimited
	RateLimit float64

	// CallTimeout bounds each remote call
	CallTimeout time.Duration
}

// Connector issues one EKS-backed control plane per account/region
type Connector struct {
	base   aws.Config
	broker Broker
	cfg    ConnectorConfig
	logger *zap.Logger

	newEKS    func(aws.Config) EKSAPI
	newOracle func(aws.Config) oracle.Oracle
}

// NewConnector creates a connector that assumes cfg.RoleName through broker
// and builds clients on top of base
func NewConnector(base aws.Config, broker Broker, cfg ConnectorConfig, logger *zap.Logger) *Connector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RoleName == "" {
		cfg.RoleName = credentials.DefaultRoleName
	}

	c := &Connector{
		base:   base,
		broker: broker,
		cfg:    cfg,
		logger: logger,
		newEKS: func(awsCfg aws.Config) EKSAPI {
			return eks.NewFromConfig(awsCfg)
		},
	}

	switch cfg.Oracle {
	case oracle.KindStatic:
		static := oracle.NewStatic(cfg.LatestVersions)
		c.newOracle = func(aws.Config) oracle.Oracle { return static }
	default:
		c.newOracle = func(awsCfg aws.Config) oracle.Oracle {
			return oracle.NewSSM(ssm.NewFromConfig(awsCfg), logger.Named("oracle"))
		}
	}
	return c
}

// Connect implements upgrade.Connector. Every call assumes the role afresh and
// returns a client that is not shared with any other account/region.
func (c *Connector) Connect(ctx context.Context, ar upgrade.AccountRegion) (upgrade.ControlPlane, error) {
	creds, err := c.broker.AssumeRole(ctx, ar.AccountID, c.cfg.RoleName)
	if err != nil {
		return nil, err
	}

	awsCfg := c.base.Copy()
	awsCfg.Region = ar.Region
	awsCfg.Credentials = aws.NewCredentialsCache(creds.Provider())

	c.logger.Debug("connected",
		zap.String("account", ar.AccountID),
		zap.String("region", ar.Region),
		zap.String("role", c.cfg.RoleName))

	return NewClient(ar, c.newEKS(awsCfg), c.newOracle(awsCfg),
		WithRateLimit(c.cfg.RateLimit),
		WithCallTimeout(c.cfg.CallTimeout),
		WithLogger(c.logger.Named("eks"))), nil
}
