package cli

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"go.uber.org/zap"

	"github.com/aryankumar/node-upgrader/internal/cluster"
	"github.com/aryankumar/node-upgrader/internal/config"
	"github.com/aryankumar/node-upgrader/internal/credentials"
	"github.com/aryankumar/node-upgrader/internal/oracle"
	"github.com/aryankumar/node-upgrader/internal/upgrade"
	"github.com/aryankumar/node-upgrader/internal/util"
	"github.com/aryankumar/node-upgrader/pkg/version"
)

// fallbackRegion serves STS calls when neither flags nor the AWS config name a region
const fallbackRegion = "us-east-1"

type connectFunc func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (upgrade.Connector, error)

// connectAWS initializes the credential subsystem of the management account
// and returns a connector assuming cfg.RoleName in each member account
func connectAWS(ctx context.Context, cfg *config.Config, logger *zap.Logger) (upgrade.Connector, error) {
	kind, err := oracle.ParseKind(cfg.VersionOracle)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", util.ErrInvalidConfig, err)
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithAppID(version.Get().AppID()),
	}
	if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	base, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load AWS configuration: %w", util.ErrCredential, err)
	}
	if base.Region == "" {
		logger.Debug("no region configured, using fallback for STS", zap.String("region", fallbackRegion))
		base.Region = fallbackRegion
	}

	broker := credentials.NewBroker(sts.NewFromConfig(base),
		credentials.WithPartition(util.PartitionForRegion(base.Region)),
		credentials.WithSessionName(cfg.SessionName),
		credentials.WithLogger(logger.Named("credentials")),
	)

	return cluster.NewConnector(base, broker, cluster.ConnectorConfig{
		RoleName:       cfg.RoleName,
		Oracle:         kind,
		LatestVersions: cfg.LatestVersions,
		RateLimit:      cfg.RateLimit,
		CallTimeout:    cfg.Timeout,
	}, logger.Named("cluster")), nil
}
