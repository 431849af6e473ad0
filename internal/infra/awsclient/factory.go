// Where: internal/infra/awsclient/factory.go
// What: AWS SDK configuration and client construction.
// Why: Every adapter shares region, credentials, and endpoint overrides.
package awsclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/bkozora/serverless-aws-batch-orka/internal/infra/envutil"
)

// Host variables read by FromEnv, prefixed with BATCHORKA_ by default.
const (
	EnvAccessKey = "ACCESS_KEY"
	EnvSecretKey = "SECRET_KEY"
	EnvEndpoint  = "AWS_ENDPOINT"
)

var errRegionRequired = errors.New("aws region is required")

// Factory builds SDK clients for one region.
// Static credentials and a custom endpoint are optional; without them the default chain is used.
type Factory struct {
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string

	load func(ctx context.Context, optFns ...func(*config.LoadOptions) error) (aws.Config, error)
}

// FromEnv returns a Factory for region with overrides taken from the host environment.
func FromEnv(region string) *Factory {
	return &Factory{
		Region:    region,
		AccessKey: envutil.GetHostEnv(EnvAccessKey),
		SecretKey: envutil.GetHostEnv(EnvSecretKey),
		Endpoint:  envutil.GetHostEnv(EnvEndpoint),
	}
}

// Config loads the shared SDK configuration.
func (f *Factory) Config(ctx context.Context) (aws.Config, error) {
	if f.Region == "" {
		return aws.Config{}, errRegionRequired
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(f.Region)}
	if f.AccessKey != "" && f.SecretKey != "" {
		creds := credentials.NewStaticCredentialsProvider(f.AccessKey, f.SecretKey, "")
		opts = append(opts, config.WithCredentialsProvider(creds))
	}
	load := f.load
	if load == nil {
		load = config.LoadDefaultConfig
	}
	cfg, err := load(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}

func (f *Factory) ECR(ctx context.Context) (*ecr.Client, error) {
	cfg, err := f.Config(ctx)
	if err != nil {
		return nil, err
	}
	return ecr.NewFromConfig(cfg, func(o *ecr.Options) {
		if f.Endpoint != "" {
			o.BaseEndpoint = aws.String(f.Endpoint)
		}
	}), nil
}

func (f *Factory) STS(ctx context.Context) (*sts.Client, error) {
	cfg, err := f.Config(ctx)
	if err != nil {
		return nil, err
	}
	return sts.NewFromConfig(cfg, func(o *sts.Options) {
		if f.Endpoint != "" {
			o.BaseEndpoint = aws.String(f.Endpoint)
		}
	}), nil
}

func (f *Factory) S3(ctx context.Context) (*s3.Client, error) {
	cfg, err := f.Config(ctx)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if f.Endpoint != "" {
			o.BaseEndpoint = aws.String(f.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

func (f *Factory) DynamoDB(ctx context.Context) (*dynamodb.Client, error) {
	cfg, err := f.Config(ctx)
	if err != nil {
		return nil, err
	}
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if f.Endpoint != "" {
			o.BaseEndpoint = aws.String(f.Endpoint)
		}
	}), nil
}
