// Where: internal/command/wiring.go
// What: Factories for AWS and Docker backed collaborators.
// Why: Commands build only the clients they need, and tests swap every factory.
package command

import (
	"context"
	"io"

	"github.com/bkozora/serverless-aws-batch-orka/internal/infra/artifacts"
	"github.com/bkozora/serverless-aws-batch-orka/internal/infra/awsclient"
	"github.com/bkozora/serverless-aws-batch-orka/internal/infra/dockerimage"
	"github.com/bkozora/serverless-aws-batch-orka/internal/infra/history"
	"github.com/bkozora/serverless-aws-batch-orka/internal/infra/registry"
	"github.com/bkozora/serverless-aws-batch-orka/internal/ports"
)

// Cloud builds region-bound AWS collaborators.
type Cloud interface {
	Account(ctx context.Context) (ports.AccountResolver, error)
	Registry(ctx context.Context) (ports.Registry, error)
	ArtifactStore(ctx context.Context, bucket, prefix string) (ports.ArtifactStore, error)
	History(ctx context.Context, table string) (ports.DeploymentHistory, error)
}

type (
	CloudFactory       func(region string) Cloud
	LocalImagesFactory func() (ports.LocalImages, io.Closer, error)
)

// NewAWSCloud returns a Cloud backed by the AWS SDK.
func NewAWSCloud(region string) Cloud {
	return awsCloud{factory: awsclient.FromEnv(region)}
}

type awsCloud struct {
	factory *awsclient.Factory
}

func (c awsCloud) Account(ctx context.Context) (ports.AccountResolver, error) {
	client, err := c.factory.STS(ctx)
	if err != nil {
		return nil, err
	}
	return awsclient.NewAccountResolver(client), nil
}

func (c awsCloud) Registry(ctx context.Context) (ports.Registry, error) {
	client, err := c.factory.ECR(ctx)
	if err != nil {
		return nil, err
	}
	return registry.NewECR(client), nil
}

func (c awsCloud) ArtifactStore(ctx context.Context, bucket, prefix string) (ports.ArtifactStore, error) {
	client, err := c.factory.S3(ctx)
	if err != nil {
		return nil, err
	}
	store, err := artifacts.NewS3Store(client, bucket, prefix)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func (c awsCloud) History(ctx context.Context, table string) (ports.DeploymentHistory, error) {
	client, err := c.factory.DynamoDB(ctx)
	if err != nil {
		return nil, err
	}
	ledger, err := history.NewTable(client, table)
	if err != nil {
		return nil, err
	}
	return ledger, nil
}

// NewDockerLocalImages connects to the local Docker daemon.
func NewDockerLocalImages() (ports.LocalImages, io.Closer, error) {
	client, err := dockerimage.NewDockerClient()
	if err != nil {
		return nil, nil, err
	}
	return dockerimage.New(client), client, nil
}
