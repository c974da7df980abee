// Package credentials exchanges an account id for short-lived credentials
// by assuming a role in that account through STS.
package credentials

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"go.uber.org/zap"

	"github.com/aryankumar/node-upgrader/internal/util"
)

const (
	// DefaultRoleName is the role assumed in every member account
	DefaultRoleName = "OrganizationAccountAccessRole"

	// DefaultSessionName names the assumed-role session
	DefaultSessionName = "AssumeRoleSession"
)

// STSAPI is the subset of the STS client used by Broker
type STSAPI interface {
	AssumeRole(ctx context.Context, params *sts.AssumeRoleInput, optFns ...func(*sts.Options)) (*sts.AssumeRoleOutput, error)
}

// Credentials is a temporary key set scoped to one account
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Expires         time.Time
}

// Provider returns a static provider serving c
func (c Credentials) Provider() aws.CredentialsProvider {
	return awscreds.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, c.SessionToken)
}

// Broker assumes roles in member accounts
type Broker struct {
	client      STSAPI
	partition   string
	sessionName string
	duration    time.Duration
	logger      *zap.Logger
}

// Option configures a Broker
type Option func(*Broker)

// WithPartition sets the partition used in role ARNs, "aws" by default
func WithPartition(partition string) Option {
	return func(b *Broker) {
		if partition != "" {
			b.partition = partition
		}
	}
}

// WithSessionName overrides the role session name
func WithSessionName(name string) Option {
	return func(b *Broker) {
		if name != "" {
			b.sessionName = name
		}
	}
}

// WithDuration requests sessions of the given length instead of the STS default
func WithDuration(d time.Duration) Option {
	return func(b *Broker) {
		b.duration = d
	}
}

// WithLogger sets the broker's logger
func WithLogger(logger *zap.Logger) Option {
	return func(b *Broker) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBroker creates a broker calling STS through client
func NewBroker(client STSAPI, opts ...Option) *Broker {
	b := &Broker{
		client:      client,
		partition:   "aws",
		sessionName: DefaultSessionName,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// AssumeRole assumes roleName in accountID. Failures wrap util.ErrCredential.
func (b *Broker) AssumeRole(ctx context.Context, accountID, roleName string) (Credentials, error) {
	if accountID == "" {
		return Credentials{}, fmt.Errorf("%w: empty account id", util.ErrCredential)
	}
	if roleName == "" {
		roleName = DefaultRoleName
	}

	roleARN := util.RoleARN(b.partition, accountID, roleName)
	input := &sts.AssumeRoleInput{
		RoleArn:         aws.String(roleARN),
		RoleSessionName: aws.String(b.sessionName),
	}
	if b.duration > 0 {
		input.DurationSeconds = aws.Int32(int32(b.duration / time.Second))
	}

	out, err := b.client.AssumeRole(ctx, input)
	if err != nil {
		if code := util.APIErrorCode(err); code != "" {
			return Credentials{}, fmt.Errorf("%w: assuming %s (%s): %w", util.ErrCredential, roleARN, code, err)
		}
		return Credentials{}, fmt.Errorf("%w: assuming %s: %w", util.ErrCredential, roleARN, err)
	}
	if out.Credentials == nil {
		return Credentials{}, fmt.Errorf("%w: assuming %s: no credentials returned", util.ErrCredential, roleARN)
	}

	creds := Credentials{
		AccessKeyID:     aws.ToString(out.Credentials.AccessKeyId),
		SecretAccessKey: aws.ToString(out.Credentials.SecretAccessKey),
		SessionToken:    aws.ToString(out.Credentials.SessionToken),
		Expires:         aws.ToTime(out.Credentials.Expiration),
	}

	b.logger.Debug("assumed role",
		zap.String("account", accountID),
		zap.String("role_arn", roleARN),
		zap.Time("expires", creds.Expires))

	return creds, nil
}
