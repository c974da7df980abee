package cluster

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eks"
	ekstypes "github.com/aws/aws-sdk-go-v2/service/eks/types"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/aryankumar/node-upgrader/internal/oracle"
	"github.com/aryankumar/node-upgrader/internal/upgrade"
	"github.com/aryankumar/node-upgrader/internal/util"
)

// DefaultCallTimeout bounds a single EKS call
const DefaultCallTimeout = 30 * time.Second

// Client is the EKS control plane of one account/region.
// It is owned by one scan and the polls derived from it.
type Client struct {
	account upgrade.AccountRegion
	api     EKSAPI
	oracle  oracle.Oracle
	limiter *rate.Limiter
	timeout time.Duration
	logger  *zap.Logger

	// launchTemplates maps "cluster/nodegroup" to the template id seen by DescribeNodeGroup
	launchTemplates sync.Map
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithRateLimit caps the client at rps requests per second; zero means unlimited
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		if rps > 0 {
			burst := int(rps)
			if burst < 1 {
				burst = 1
			}
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithCallTimeout bounds every call; zero keeps DefaultCallTimeout
func WithCallTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the client's logger
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates the control plane of account backed by api and oracle
func NewClient(account upgrade.AccountRegion, api EKSAPI, versions oracle.Oracle, opts ...ClientOption) *Client {
	c := &Client{
		account: account,
		api:     api,
		oracle:  versions,
		timeout: DefaultCallTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("account", account.AccountID), zap.String("region", account.Region))
	return c
}

// Account returns the account/region the client is scoped to
func (c *Client) Account() upgrade.AccountRegion {
	return c.account
}

// call waits for the rate limiter and returns a context bounded by the call timeout
func (c *Client) call(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, nil, fmt.Errorf("rate limiter: %w", err)
		}
	}
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	return callCtx, cancel, nil
}

func apiError(op string, err error) error {
	if code := util.APIErrorCode(err); code != "" {
		return fmt.Errorf("%s (%s): %w", op, code, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// ListClusters implements upgrade.ControlPlane
func (c *Client) ListClusters(ctx context.Context) ([]string, error) {
	var names []string
	paginator := eks.NewListClustersPaginator(c.api, &eks.ListClustersInput{})
	for paginator.HasMorePages() {
		callCtx, cancel, err := c.call(ctx)
		if err != nil {
			return names, err
		}
		page, err := paginator.NextPage(callCtx)
		cancel()
		if err != nil {
			return names, apiError("ListClusters", err)
		}
		names = append(names, page.Clusters...)
	}
	return names, nil
}

// ListNodeGroups implements upgrade.ControlPlane
func (c *Client) ListNodeGroups(ctx context.Context, cluster string) ([]string, error) {
	var names []string
	paginator := eks.NewListNodegroupsPaginator(c.api, &eks.ListNodegroupsInput{
		ClusterName: aws.String(cluster),
	})
	for paginator.HasMorePages() {
		callCtx, cancel, err := c.call(ctx)
		if err != nil {
			return names, err
		}
		page, err := paginator.NextPage(callCtx)
		cancel()
		if err != nil {
			return names, apiError("ListNodegroups", err)
		}
		names = append(names, page.Nodegroups...)
	}
	return names, nil
}

// DescribeNodeGroup implements upgrade.ControlPlane
func (c *Client) DescribeNodeGroup(ctx context.Context, cluster, nodeGroup string) (upgrade.NodeGroup, error) {
	callCtx, cancel, err := c.call(ctx)
	if err != nil {
		return upgrade.NodeGroup{}, err
	}
	defer cancel()

	out, err := c.api.DescribeNodegroup(callCtx, &eks.DescribeNodegroupInput{
		ClusterName:   aws.String(cluster),
		NodegroupName: aws.String(nodeGroup),
	})
	if err != nil {
		return upgrade.NodeGroup{}, apiError("DescribeNodegroup", err)
	}
	if out.Nodegroup == nil {
		return upgrade.NodeGroup{}, fmt.Errorf("DescribeNodegroup: empty response")
	}

	ng := out.Nodegroup
	result := upgrade.NodeGroup{
		Cluster:           cluster,
		Name:              nodeGroup,
		ReleaseVersion:    aws.ToString(ng.ReleaseVersion),
		KubernetesVersion: aws.ToString(ng.Version),
		AMIType:           string(ng.AmiType),
		Status:            string(ng.Status),
	}
	if ng.LaunchTemplate != nil {
		result.LaunchTemplateID = aws.ToString(ng.LaunchTemplate.Id)
		if result.LaunchTemplateID != "" {
			c.launchTemplates.Store(cluster+"/"+nodeGroup, result.LaunchTemplateID)
		}
	}
	return result, nil
}

// LatestVersion implements upgrade.ControlPlane by asking the oracle
func (c *Client) LatestVersion(ctx context.Context, nodeGroup upgrade.NodeGroup) (string, error) {
	if c.oracle == nil {
		return "", nil
	}
	callCtx, cancel, err := c.call(ctx)
	if err != nil {
		return "", err
	}
	defer cancel()
	return c.oracle.LatestVersion(callCtx, nodeGroup)
}

// StartUpgrade implements upgrade.ControlPlane. The node group moves to the
// latest version of its launch template.
func (c *Client) StartUpgrade(ctx context.Context, cluster, nodeGroup string) (string, error) {
	callCtx, cancel, err := c.call(ctx)
	if err != nil {
		return "", err
	}
	defer cancel()

	template := &ekstypes.LaunchTemplateSpecification{
		Version: aws.String(LatestLaunchTemplateVersion),
	}
	if id, ok := c.launchTemplates.Load(cluster + "/" + nodeGroup); ok {
		template.Id = aws.String(id.(string))
	}

	out, err := c.api.UpdateNodegroupVersion(callCtx, &eks.UpdateNodegroupVersionInput{
		ClusterName:    aws.String(cluster),
		NodegroupName:  aws.String(nodeGroup),
		LaunchTemplate: template,
	})
	if err != nil {
		return "", apiError("UpdateNodegroupVersion", err)
	}
	if out.Update == nil {
		return "", fmt.Errorf("UpdateNodegroupVersion: empty response")
	}

	id := aws.ToString(out.Update.Id)
	c.logger.Debug("update started",
		zap.String("cluster", cluster),
		zap.String("nodegroup", nodeGroup),
		zap.String("update_id", id))
	return id, nil
}

// DescribeUpdate implements upgrade.ControlPlane
func (c *Client) DescribeUpdate(ctx context.Context, cluster, nodeGroup, updateID string) (upgrade.UpdateStatus, error) {
	callCtx, cancel, err := c.call(ctx)
	if err != nil {
		return "", err
	}
	defer cancel()

	out, err := c.api.DescribeUpdate(callCtx, &eks.DescribeUpdateInput{
		Name:          aws.String(cluster),
		NodegroupName: aws.String(nodeGroup),
		UpdateId:      aws.String(updateID),
	})
	if err != nil {
		return "", apiError("DescribeUpdate", err)
	}
	if out.Update == nil {
		return "", fmt.Errorf("DescribeUpdate: empty response")
	}
	return upgrade.UpdateStatus(out.Update.Status), nil
}
