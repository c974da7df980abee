package util

import (
	"fmt"
	"strings"
)

// ShortClusterName extracts the short cluster name from an ARN or returns the original name.
// AWS EKS ARNs have the format: arn:aws:eks:region:account-id:cluster/cluster-name
// or arn:aws-us-gov:eks:region:account-id:cluster/cluster-name for GovCloud.
func ShortClusterName(name string) string {
	if !strings.HasPrefix(name, "arn:") {
		return name
	}

	if idx := strings.LastIndex(name, "cluster/"); idx != -1 {
		return name[idx+len("cluster/"):]
	}

	if idx := strings.LastIndex(name, "/"); idx != -1 {
		return name[idx+1:]
	}

	if idx := strings.LastIndex(name, ":"); idx != -1 {
		return name[idx+1:]
	}

	return name
}

// NormalizeClusterNames reduces ARNs to short names, trims whitespace and drops empties
func NormalizeClusterNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		out = append(out, ShortClusterName(n))
	}
	return out
}

// RoleARN builds the IAM role ARN assumed in a member account
func RoleARN(partition, accountID, roleName string) string {
	if partition == "" {
		partition = "aws"
	}
	return fmt.Sprintf("arn:%s:iam::%s:role/%s", partition, accountID, roleName)
}

// PartitionForRegion returns the AWS partition a region belongs to
func PartitionForRegion(region string) string {
	switch {
	case strings.HasPrefix(region, "us-gov-"):
		return "aws-us-gov"
	case strings.HasPrefix(region, "cn-"):
		return "aws-cn"
	default:
		return "aws"
	}
}
