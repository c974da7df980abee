package upgrade

import "context"

// ControlPlane is the remote API for one account/region
type ControlPlane interface {
	// ListClusters returns the names of all clusters
	ListClusters(ctx context.Context) ([]string, error)

	// ListNodeGroups returns the names of all managed node groups of a cluster
	ListNodeGroups(ctx context.Context, cluster string) ([]string, error)

	// DescribeNodeGroup returns the node group's current version metadata
	DescribeNodeGroup(ctx context.Context, cluster, nodeGroup string) (NodeGroup, error)

	// LatestVersion asks the version oracle for the release the node group should run
	LatestVersion(ctx context.Context, nodeGroup NodeGroup) (string, error)

	// StartUpgrade starts a latest-launch-template upgrade and returns its update id
	StartUpgrade(ctx context.Context, cluster, nodeGroup string) (string, error)

	// DescribeUpdate reads the remote status of an update
	DescribeUpdate(ctx context.Context, cluster, nodeGroup, updateID string) (UpdateStatus, error)
}

// Connector issues a ControlPlane scoped to one account/region.
// Each call returns a fresh client owned by the caller.
type Connector interface {
	Connect(ctx context.Context, ar AccountRegion) (ControlPlane, error)
}

// AccountSource yields the account/region pairs to process and the pairs to skip
type AccountSource interface {
	ListAccounts(ctx context.Context) ([]AccountRegion, error)
	ListSkippedAccounts(ctx context.Context) ([]AccountRegion, error)
}
