package upgrade

import (
	"fmt"
	"strings"
)

// AccountRegion identifies one account and region pair to process
type AccountRegion struct {
	AccountID string `yaml:"account" json:"account"`
	Region    string `yaml:"region" json:"region"`
}

// String returns the "account/region" form
func (a AccountRegion) String() string {
	return a.AccountID + "/" + a.Region
}

// ParseAccountRegion parses the "account/region" or "account:region" form
func ParseAccountRegion(s string) (AccountRegion, error) {
	sep := strings.IndexAny(s, "/:")
	if sep <= 0 || sep == len(s)-1 {
		return AccountRegion{}, fmt.Errorf("invalid account/region %q: expected <account>/<region>", s)
	}
	return AccountRegion{
		AccountID: strings.TrimSpace(s[:sep]),
		Region:    strings.TrimSpace(s[sep+1:]),
	}, nil
}

// TargetKey is the identity of one upgradable node group
type TargetKey struct {
	AccountID string
	Region    string
	Cluster   string
	NodeGroup string
}

// Target is a node group found to be out of date by a scan
type Target struct {
	AccountID string `json:"account" yaml:"account"`
	Region    string `json:"region" yaml:"region"`
	Cluster   string `json:"cluster" yaml:"cluster"`
	NodeGroup string `json:"nodegroup" yaml:"nodegroup"`

	// CurrentVersion is the release version the node group runs
	CurrentVersion string `json:"currentVersion" yaml:"currentVersion"`

	// LatestVersion is the release version the oracle reported
	LatestVersion string `json:"latestVersion" yaml:"latestVersion"`
}

// Key returns the identity of the target
func (t Target) Key() TargetKey {
	return TargetKey{
		AccountID: t.AccountID,
		Region:    t.Region,
		Cluster:   t.Cluster,
		NodeGroup: t.NodeGroup,
	}
}

// AccountRegion returns the account and region the target belongs to
func (t Target) AccountRegion() AccountRegion {
	return AccountRegion{AccountID: t.AccountID, Region: t.Region}
}

// String returns a compact description for logs
func (t Target) String() string {
	return fmt.Sprintf("%s/%s/%s/%s", t.AccountID, t.Region, t.Cluster, t.NodeGroup)
}

// NodeGroup is the subset of node group metadata the scanner needs
type NodeGroup struct {
	Cluster           string
	Name              string
	ReleaseVersion    string
	KubernetesVersion string
	AMIType           string
	Status            string
	LaunchTemplateID  string
}

// UpdateStatus is the remote status of an upgrade
type UpdateStatus string

const (
	UpdateInProgress UpdateStatus = "InProgress"
	UpdateFailed     UpdateStatus = "Failed"
	UpdateCancelled  UpdateStatus = "Cancelled"
	UpdateSuccessful UpdateStatus = "Successful"
)

// RequiresUpgrade reports whether a node group needs to move to latest
func RequiresUpgrade(current, latest string) bool {
	return latest != "" && current != latest
}
