// Package dynamo builds the DynamoDB client used by the DynamoDB user store.
package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	platformhttp "users_backend/internal/platform/http"
)

// Config holds DynamoDB settings. Credentials come from the default AWS chain.
type Config struct {
	Table      string `env:"DYNAMODB_TABLE" envDefault:"users"`
	EmailIndex string `env:"DYNAMODB_EMAIL_INDEX" envDefault:"email-index"`
	Region     string `env:"AWS_REGION"`
	// Endpoint overrides the service endpoint, e.g. for DynamoDB Local.
	Endpoint string `env:"DYNAMODB_ENDPOINT"`
	// HTTPTimeout bounds each HTTP round trip to DynamoDB.
	HTTPTimeout time.Duration `env:"DYNAMODB_HTTP_TIMEOUT" envDefault:"10s"`
}

// NewClient loads the default AWS configuration and returns a DynamoDB client.
func NewClient(ctx context.Context, cfg Config) (*dynamodb.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithHTTPClient(platformhttp.NewClient(cfg.HTTPTimeout)),
	}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}
