// Package upgradetest provides in-memory collaborators for exercising the
// upgrade engine without a remote control plane.
package upgradetest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aryankumar/node-upgrader/internal/upgrade"
)

// ErrNotFound is returned for unknown clusters, node groups or updates
var ErrNotFound = errors.New("not found")

// PollStep is one scripted answer to DescribeUpdate
type PollStep struct {
	Status upgrade.UpdateStatus
	Err    error
}

// NodeGroup describes a fake node group
type NodeGroup struct {
	Current string
	Latest  string

	// DescribeErr fails DescribeNodeGroup for this node group
	DescribeErr error

	// StartErr fails StartUpgrade for this node group
	StartErr error

	// Polls scripts DescribeUpdate answers in order; the last step repeats.
	// An empty script answers Successful.
	Polls []PollStep
}

// ControlPlane is an in-memory upgrade.ControlPlane
type ControlPlane struct {
	mu sync.Mutex

	// Clusters maps cluster name to node group name to node group
	Clusters map[string]map[string]*NodeGroup

	// ListClustersErr fails ListClusters
	ListClustersErr error

	// ListNodeGroupsErr fails ListNodeGroups per cluster
	ListNodeGroupsErr map[string]error

	// BeforeListNodeGroups runs before a cluster's node groups are listed
	BeforeListNodeGroups func(cluster string)

	// CallDelay is added to every call
	CallDelay time.Duration

	// UpdatePrefix prefixes generated update ids; defaults to "u-"
	UpdatePrefix string

	calls     []string
	updates   map[string]updateRef
	nextID    int
	inFlight  atomic.Int32
	maxFlight atomic.Int32
}

type updateRef struct {
	cluster   string
	nodeGroup string
	polls     int
}

// NewControlPlane creates a fake with one cluster per entry
func NewControlPlane(clusters map[string]map[string]*NodeGroup) *ControlPlane {
	if clusters == nil {
		clusters = make(map[string]map[string]*NodeGroup)
	}
	return &ControlPlane{
		Clusters:          clusters,
		ListNodeGroupsErr: make(map[string]error),
		updates:           make(map[string]updateRef),
	}
}

func (c *ControlPlane) enter(call string) func() {
	n := c.inFlight.Add(1)
	for {
		peak := c.maxFlight.Load()
		if n <= peak || c.maxFlight.CompareAndSwap(peak, n) {
			break
		}
	}

	c.mu.Lock()
	c.calls = append(c.calls, call)
	delay := c.CallDelay
	c.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	return func() { c.inFlight.Add(-1) }
}

// ListClusters implements upgrade.ControlPlane
func (c *ControlPlane) ListClusters(ctx context.Context) ([]string, error) {
	defer c.enter("ListClusters")()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ListClustersErr != nil {
		return nil, c.ListClustersErr
	}
	names := make([]string, 0, len(c.Clusters))
	for name := range c.Clusters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// ListNodeGroups implements upgrade.ControlPlane
func (c *ControlPlane) ListNodeGroups(ctx context.Context, cluster string) ([]string, error) {
	if c.BeforeListNodeGroups != nil {
		c.BeforeListNodeGroups(cluster)
	}
	defer c.enter("ListNodeGroups:" + cluster)()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ListNodeGroupsErr[cluster]; err != nil {
		return nil, err
	}
	groups, ok := c.Clusters[cluster]
	if !ok {
		return nil, fmt.Errorf("cluster %s: %w", cluster, ErrNotFound)
	}
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// DescribeNodeGroup implements upgrade.ControlPlane
func (c *ControlPlane) DescribeNodeGroup(ctx context.Context, cluster, nodeGroup string) (upgrade.NodeGroup, error) {
	defer c.enter("DescribeNodeGroup:" + cluster + "/" + nodeGroup)()

	ng, err := c.lookup(cluster, nodeGroup)
	if err != nil {
		return upgrade.NodeGroup{}, err
	}
	if ng.DescribeErr != nil {
		return upgrade.NodeGroup{}, ng.DescribeErr
	}
	return upgrade.NodeGroup{
		Cluster:        cluster,
		Name:           nodeGroup,
		ReleaseVersion: ng.Current,
	}, nil
}

// LatestVersion implements upgrade.ControlPlane
func (c *ControlPlane) LatestVersion(ctx context.Context, nodeGroup upgrade.NodeGroup) (string, error) {
	ng, err := c.lookup(nodeGroup.Cluster, nodeGroup.Name)
	if err != nil {
		return "", err
	}
	return ng.Latest, nil
}

// StartUpgrade implements upgrade.ControlPlane
func (c *ControlPlane) StartUpgrade(ctx context.Context, cluster, nodeGroup string) (string, error) {
	defer c.enter("StartUpgrade:" + cluster + "/" + nodeGroup)()

	ng, err := c.lookup(cluster, nodeGroup)
	if err != nil {
		return "", err
	}
	if ng.StartErr != nil {
		return "", ng.StartErr
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	prefix := c.UpdatePrefix
	if prefix == "" {
		prefix = "u-"
	}
	id := fmt.Sprintf("%s%d", prefix, c.nextID)
	c.updates[id] = updateRef{cluster: cluster, nodeGroup: nodeGroup}
	return id, nil
}

// DescribeUpdate implements upgrade.ControlPlane
func (c *ControlPlane) DescribeUpdate(ctx context.Context, cluster, nodeGroup, updateID string) (upgrade.UpdateStatus, error) {
	defer c.enter("DescribeUpdate:" + updateID)()

	ng, err := c.lookup(cluster, nodeGroup)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	ref, ok := c.updates[updateID]
	if !ok || ref.cluster != cluster || ref.nodeGroup != nodeGroup {
		return "", fmt.Errorf("update %s: %w", updateID, ErrNotFound)
	}

	step := PollStep{Status: upgrade.UpdateSuccessful}
	if len(ng.Polls) > 0 {
		idx := ref.polls
		if idx >= len(ng.Polls) {
			idx = len(ng.Polls) - 1
		}
		step = ng.Polls[idx]
	}
	ref.polls++
	c.updates[updateID] = ref

	if step.Err != nil {
		return "", step.Err
	}
	return step.Status, nil
}

func (c *ControlPlane) lookup(cluster, nodeGroup string) (*NodeGroup, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	groups, ok := c.Clusters[cluster]
	if !ok {
		return nil, fmt.Errorf("cluster %s: %w", cluster, ErrNotFound)
	}
	ng, ok := groups[nodeGroup]
	if !ok {
		return nil, fmt.Errorf("nodegroup %s/%s: %w", cluster, nodeGroup, ErrNotFound)
	}
	return ng, nil
}

// Calls returns every call made, in order
func (c *ControlPlane) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.calls))
	copy(out, c.calls)
	return out
}

// CallCount returns how many calls had the given name
func (c *ControlPlane) CallCount(call string) int {
	n := 0
	for _, got := range c.Calls() {
		if got == call {
			n++
		}
	}
	return n
}

// MaxConcurrentCalls returns the highest number of overlapping calls observed
func (c *ControlPlane) MaxConcurrentCalls() int {
	return int(c.maxFlight.Load())
}

// Connector is an in-memory upgrade.Connector
type Connector struct {
	mu sync.Mutex

	// Planes maps account/region to its fake control plane
	Planes map[upgrade.AccountRegion]*ControlPlane

	// Errors fails Connect for an account/region
	Errors map[upgrade.AccountRegion]error

	// OnConnect runs at the start of every Connect call
	OnConnect func(ar upgrade.AccountRegion)

	connects []upgrade.AccountRegion
}

// NewConnector creates a connector serving planes
func NewConnector(planes map[upgrade.AccountRegion]*ControlPlane) *Connector {
	if planes == nil {
		planes = make(map[upgrade.AccountRegion]*ControlPlane)
	}
	return &Connector{
		Planes: planes,
		Errors: make(map[upgrade.AccountRegion]error),
	}
}

// Connect implements upgrade.Connector
func (c *Connector) Connect(ctx context.Context, ar upgrade.AccountRegion) (upgrade.ControlPlane, error) {
	if c.OnConnect != nil {
		c.OnConnect(ar)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.connects = append(c.connects, ar)
	if err := c.Errors[ar]; err != nil {
		return nil, err
	}
	plane, ok := c.Planes[ar]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", ar, ErrNotFound)
	}
	return plane, nil
}

// Connects returns every account/region Connect was called for, in order
func (c *Connector) Connects() []upgrade.AccountRegion {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]upgrade.AccountRegion, len(c.connects))
	copy(out, c.connects)
	return out
}

// AccountSource is a static upgrade.AccountSource
type AccountSource struct {
	Accounts []upgrade.AccountRegion
	Skipped  []upgrade.AccountRegion
	Err      error
}

// ListAccounts implements upgrade.AccountSource
func (s *AccountSource) ListAccounts(ctx context.Context) ([]upgrade.AccountRegion, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Accounts, nil
}

// ListSkippedAccounts implements upgrade.AccountSource
func (s *AccountSource) ListSkippedAccounts(ctx context.Context) ([]upgrade.AccountRegion, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Skipped, nil
}
