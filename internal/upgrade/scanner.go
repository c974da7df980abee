package upgrade

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/aryankumar/node-upgrader/internal/util"
)

// ScanResult is the outcome of scanning one account/region.
// Targets is valid even when Err is set or the scan was interrupted.
type ScanResult struct {
	Account AccountRegion

	// Targets are the node groups whose release differs from the latest one
	Targets []Target

	// Client is the control plane used by the scan, nil if connecting failed
	Client ControlPlane

	// Err is the failure that ended the scan early, if any
	Err error

	// InterruptedAt names the cluster the scan stopped before on shutdown
	InterruptedAt string
}

// Interrupted reports whether shutdown cut the scan short
func (r *ScanResult) Interrupted() bool {
	return r.InterruptedAt != ""
}

// Scanner finds out-of-date node groups in one account/region
type Scanner struct {
	connector Connector
	clusters  sets.Set[string]
	logger    *zap.Logger
}

// ScannerOption configures a Scanner
type ScannerOption func(*Scanner)

// WithClusterFilter restricts scans to the named clusters. An empty list scans all.
func WithClusterFilter(names []string) ScannerOption {
	return func(s *Scanner) {
		normalized := util.NormalizeClusterNames(names)
		if len(normalized) > 0 {
			s.clusters = sets.New(normalized...)
		}
	}
}

// NewScanner creates a scanner that obtains clients from connector
func NewScanner(connector Connector, logger *zap.Logger, opts ...ScannerOption) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scanner{
		connector: connector,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan enumerates clusters and node groups of ar and returns the stale ones.
//
// Shutdown is checked before each cluster's node groups are listed; an
// interrupted scan returns what it collected so far. Any failed remote call
// ends the scan with the partial result and the error.
func (s *Scanner) Scan(ctx context.Context, ar AccountRegion) *ScanResult {
	result := &ScanResult{Account: ar}
	logger := s.logger.With(zap.String("account", ar.AccountID), zap.String("region", ar.Region))

	// Remote calls run to completion even once shutdown is signaled
	callCtx := context.WithoutCancel(ctx)

	client, err := s.connector.Connect(callCtx, ar)
	if err != nil {
		if !util.IsCredentialError(err) {
			err = fmt.Errorf("%w: %w", util.ErrCredential, err)
		}
		result.Err = util.WrapAccountRegionError(ar.AccountID, ar.Region, err)
		return result
	}
	result.Client = client

	clusters, err := client.ListClusters(callCtx)
	if err != nil {
		result.Err = util.WrapAccountRegionError(ar.AccountID, ar.Region, fmt.Errorf("%w: listing clusters: %w", util.ErrScan, err))
		return result
	}
	logger.Debug("listed clusters", zap.Int("count", len(clusters)))

	for _, cluster := range clusters {
		if s.clusters != nil && !s.clusters.Has(cluster) {
			logger.Debug("cluster excluded by filter", zap.String("cluster", cluster))
			continue
		}

		if ctx.Err() != nil {
			result.InterruptedAt = cluster
			logger.Info("shutdown observed, stopping scan", zap.String("cluster", cluster))
			return result
		}

		if err := s.scanCluster(callCtx, ar, client, cluster, result); err != nil {
			result.Err = util.WrapAccountRegionError(ar.AccountID, ar.Region, err)
			return result
		}
	}

	logger.Debug("scan complete", zap.Int("stale", len(result.Targets)))
	return result
}

func (s *Scanner) scanCluster(ctx context.Context, ar AccountRegion, client ControlPlane, cluster string, result *ScanResult) error {
	nodeGroups, err := client.ListNodeGroups(ctx, cluster)
	if err != nil {
		return util.WrapTargetError(cluster, "", fmt.Errorf("%w: listing nodegroups: %w", util.ErrScan, err))
	}

	for _, name := range nodeGroups {
		ng, err := client.DescribeNodeGroup(ctx, cluster, name)
		if err != nil {
			return util.WrapTargetError(cluster, name, fmt.Errorf("%w: describing nodegroup: %w", util.ErrScan, err))
		}

		latest, err := client.LatestVersion(ctx, ng)
		if err != nil {
			return util.WrapTargetError(cluster, name, fmt.Errorf("%w: resolving latest version: %w", util.ErrScan, err))
		}

		s.logger.Debug("checked nodegroup",
			zap.String("account", ar.AccountID),
			zap.String("region", ar.Region),
			zap.String("cluster", cluster),
			zap.String("nodegroup", name),
			zap.String("current", ng.ReleaseVersion),
			zap.String("latest", latest))

		if !RequiresUpgrade(ng.ReleaseVersion, latest) {
			continue
		}

		result.Targets = append(result.Targets, Target{
			AccountID:      ar.AccountID,
			Region:         ar.Region,
			Cluster:        cluster,
			NodeGroup:      name,
			CurrentVersion: ng.ReleaseVersion,
			LatestVersion:  latest,
		})
	}

	return nil
}
