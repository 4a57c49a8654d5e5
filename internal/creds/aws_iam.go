package creds

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/rds/auth"
)

// AWSIAMIssuer issues RDS IAM authentication tokens using the default AWS
// credential chain (environment, config files, instance roles). Tokens are
// valid for 15 minutes and are never cached here: one token per connect.
type AWSIAMIssuer struct {
	region string
}

// NewAWSIAMIssuer creates an issuer for the given region. An empty region
// falls back to $AWS_REGION at issue time.
func NewAWSIAMIssuer(region string) *AWSIAMIssuer {
	return &AWSIAMIssuer{region: region}
}

// IssueToken builds an IAM authentication token for user at host:port.
func (p *AWSIAMIssuer) IssueToken(ctx context.Context, host string, port int, user string) (string, error) {
	region := p.region
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	if region == "" {
		return "", fmt.Errorf("AWS IAM auth requires a region (set $AWS_REGION)")
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return "", fmt.Errorf("load AWS config: %w", err)
	}

	endpoint := fmt.Sprintf("%s:%d", host, port)
	token, err := auth.BuildAuthToken(ctx, endpoint, region, user, cfg.Credentials)
	if err != nil {
		return "", fmt.Errorf("build RDS auth token for %s: %w", endpoint, err)
	}
	return token, nil
}

// String returns a description without secrets.
func (p *AWSIAMIssuer) String() string {
	return fmt.Sprintf("AWSIAMIssuer(region=%s)", p.region)
}
