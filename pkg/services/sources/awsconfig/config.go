package awsconfig

import (
	"context"
	"fmt"

	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/models/domain"
	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
)

const (
	DefaultRegion = "eu-central-1"
)

// Load resolves the shared AWS config for a profile and verifies credentials
// up front, so a missing credential surfaces as MissingCredential before any
// source is queried rather than mid-run.
func Load(ctx context.Context, profile, region string) (*awssdk.Config, error) {
	if region == "" {
		region = DefaultRegion
	}

	opts := []func(*config.LoadOptions) error{
		config.WithDefaultRegion(region),
	}
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}

	if _, err := awsCfg.Credentials.Retrieve(ctx); err != nil {
		return nil, domain.NewSourceError(domain.ErrMissingCredential, "aws",
			fmt.Errorf("invalid AWS credentials for profile %q: %w", profile, err))
	}

	return &awsCfg, nil
}
