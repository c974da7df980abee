package cluster

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/eks"
)

//go:generate mockgen -destination=mocks/eksapi_mock.go -package=mocks github.com/aryankumar/node-upgrader/internal/cluster EKSAPI

// EKSAPI is the subset of the EKS client used by Client
type EKSAPI interface {
	ListClusters(ctx context.Context, params *eks.ListClustersInput, optFns ...func(*eks.Options)) (*eks.ListClustersOutput, error)
	ListNodegroups(ctx context.Context, params *eks.ListNodegroupsInput, optFns ...func(*eks.Options)) (*eks.ListNodegroupsOutput, error)
	DescribeNodegroup(ctx context.Context, params *eks.DescribeNodegroupInput, optFns ...func(*eks.Options)) (*eks.DescribeNodegroupOutput, error)
	UpdateNodegroupVersion(ctx context.Context, params *eks.UpdateNodegroupVersionInput, optFns ...func(*eks.Options)) (*eks.UpdateNodegroupVersionOutput, error)
	DescribeUpdate(ctx context.Context, params *eks.DescribeUpdateInput, optFns ...func(*eks.Options)) (*eks.DescribeUpdateOutput, error)
}

// LatestLaunchTemplateVersion is the launch template version every upgrade moves to
const LatestLaunchTemplateVersion = "$Latest"
