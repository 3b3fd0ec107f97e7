// Package awsclient adapts the AWS SDK clients the check reads from to the
// narrow interfaces of package check.
package awsclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// DefaultRegion is where the publisher and its log group live.
const DefaultRegion = "eu-west-1"

// Config selects region and credentials. Empty keys fall back to the default
// credential chain (environment, shared profile, instance role).
type Config struct {
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	SessionToken string
}

// Load resolves an aws.Config for cfg.
func Load(ctx context.Context, cfg Config) (aws.Config, error) {
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = DefaultRegion
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, cfg.SessionToken),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("awsclient: load config: %w", err)
	}
	return awsCfg, nil
}

// endpoint returns a pointer for BaseEndpoint, or nil to keep the default.
func endpoint(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return aws.String(s)
}
