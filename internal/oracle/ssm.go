package oracle

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"go.uber.org/zap"

	"github.com/aryankumar/node-upgrader/internal/upgrade"
	"github.com/aryankumar/node-upgrader/internal/util"
)

// SSMAPI is the subset of the SSM client used by SSM
type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// amiFamilies maps an EKS AMI type to its public parameter family
var amiFamilies = map[string]string{
	"AL2_x86_64":             "amazon-linux-2",
	"AL2_x86_64_GPU":         "amazon-linux-2-gpu",
	"AL2_ARM_64":             "amazon-linux-2-arm64",
	"AL2023_x86_64_STANDARD": "amazon-linux-2023/x86_64/standard",
	"AL2023_ARM_64_STANDARD": "amazon-linux-2023/arm64/standard",
	"AL2023_x86_64_NVIDIA":   "amazon-linux-2023/x86_64/nvidia",
	"AL2023_x86_64_NEURON":   "amazon-linux-2023/x86_64/neuron",
}

// ParameterPath returns the public parameter holding the recommended release
// version for an AMI type, or "" when the AMI type has none.
func ParameterPath(kubernetesVersion, amiType string) string {
	family, ok := amiFamilies[amiType]
	if !ok || kubernetesVersion == "" {
		return ""
	}
	return fmt.Sprintf("/aws/service/eks/optimized-ami/%s/%s/recommended/release_version", kubernetesVersion, family)
}

// SSM reads recommended release versions from the EKS optimized AMI public parameters
type SSM struct {
	client SSMAPI
	cache  sync.Map
	logger *zap.Logger
}

// NewSSM creates an SSM oracle
func NewSSM(client SSMAPI, logger *zap.Logger) *SSM {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SSM{client: client, logger: logger}
}

// LatestVersion implements Oracle. Node groups with custom or unsupported AMI
// types get no version.
func (s *SSM) LatestVersion(ctx context.Context, nodeGroup upgrade.NodeGroup) (string, error) {
	path := ParameterPath(nodeGroup.KubernetesVersion, nodeGroup.AMIType)
	if path == "" {
		s.logger.Debug("no recommended release for AMI type",
			zap.String("cluster", nodeGroup.Cluster),
			zap.String("nodegroup", nodeGroup.Name),
			zap.String("ami_type", nodeGroup.AMIType))
		return "", nil
	}

	if v, ok := s.cache.Load(path); ok {
		return v.(string), nil
	}

	out, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{Name: aws.String(path)})
	if err != nil {
		if util.APIErrorCode(err) == "ParameterNotFound" {
			s.logger.Warn("recommended release parameter not found", zap.String("parameter", path))
			return "", nil
		}
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	if out.Parameter == nil {
		return "", fmt.Errorf("reading %s: empty parameter", path)
	}

	version := aws.ToString(out.Parameter.Value)
	s.cache.Store(path, version)
	return version, nil
}
