// Package oracle decides which release version a node group should run.
package oracle

import (
	"context"
	"fmt"

	"github.com/aryankumar/node-upgrader/internal/upgrade"
)

// Oracle reports the latest release version for a node group.
// An empty version with a nil error means the oracle has no opinion and the
// node group is left alone.
type Oracle interface {
	LatestVersion(ctx context.Context, nodeGroup upgrade.NodeGroup) (string, error)
}

// Kind names an oracle implementation in configuration
type Kind string

const (
	KindStatic Kind = "static"
	KindSSM    Kind = "ssm"
)

// ParseKind validates an oracle name
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindStatic, KindSSM:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown version oracle %q: expected static or ssm", s)
	}
}

// Static answers from a fixed Kubernetes version to release version table
type Static struct {
	versions map[string]string
}

// NewStatic creates a static oracle. The "*" key applies to every Kubernetes
// version without its own entry.
func NewStatic(versions map[string]string) *Static {
	copied := make(map[string]string, len(versions))
	for k, v := range versions {
		copied[k] = v
	}
	return &Static{versions: copied}
}

// LatestVersion implements Oracle
func (s *Static) LatestVersion(ctx context.Context, nodeGroup upgrade.NodeGroup) (string, error) {
	if v, ok := s.versions[nodeGroup.KubernetesVersion]; ok {
		return v, nil
	}
	return s.versions["*"], nil
}
