// Where: internal/infra/registry/ecr.go
// What: ECR adapter for login material, image listing, and batch deletes.
// Why: Push needs docker credentials and remove must empty the repository before stack deletion.
package registry

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/aws/aws-sdk-go-v2/service/ecr/types"

	"github.com/bkozora/serverless-aws-batch-orka/internal/ports"
)

// MaxDeleteBatch is the BatchDeleteImage limit per request.
const MaxDeleteBatch = 100

var (
	errNoAuthorizationData = errors.New("ecr returned no authorization data")
	errMalformedToken      = errors.New("ecr authorization token is malformed")
)

// API is the subset of the ECR client used here.
type API interface {
	ecr.ListImagesAPIClient
	GetAuthorizationToken(ctx context.Context, params *ecr.GetAuthorizationTokenInput, optFns ...func(*ecr.Options)) (*ecr.GetAuthorizationTokenOutput, error)
	BatchDeleteImage(ctx context.Context, params *ecr.BatchDeleteImageInput, optFns ...func(*ecr.Options)) (*ecr.BatchDeleteImageOutput, error)
}

// ECR implements ports.Registry.
type ECR struct {
	client API
}

func NewECR(client API) *ECR {
	return &ECR{client: client}
}

// Authorization decodes the first authorization token into docker login material.
func (r *ECR) Authorization(ctx context.Context) (ports.RegistryAuth, error) {
	out, err := r.client.GetAuthorizationToken(ctx, &ecr.GetAuthorizationTokenInput{})
	if err != nil {
		return ports.RegistryAuth{}, fmt.Errorf("get authorization token: %w", err)
	}
	if len(out.AuthorizationData) == 0 {
		return ports.RegistryAuth{}, errNoAuthorizationData
	}
	data := out.AuthorizationData[0]
	decoded, err := base64.StdEncoding.DecodeString(aws.ToString(data.AuthorizationToken))
	if err != nil {
		return ports.RegistryAuth{}, fmt.Errorf("%w: %v", errMalformedToken, err)
	}
	user, password, ok := strings.Cut(string(decoded), ":")
	if !ok || user == "" || password == "" {
		return ports.RegistryAuth{}, errMalformedToken
	}
	return ports.RegistryAuth{
		Username: user,
		Password: password,
		Endpoint: aws.ToString(data.ProxyEndpoint),
	}, nil
}

// ListImages returns every image id in repository. A missing repository yields nothing.
func (r *ECR) ListImages(ctx context.Context, repository string) ([]ports.ImageRef, error) {
	paginator := ecr.NewListImagesPaginator(r.client, &ecr.ListImagesInput{
		RepositoryName: aws.String(repository),
	})
	var refs []ports.ImageRef
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			var notFound *types.RepositoryNotFoundException
			if errors.As(err, &notFound) {
				return nil, nil
			}
			return nil, fmt.Errorf("list images in %s: %w", repository, err)
		}
		for _, id := range page.ImageIds {
			refs = append(refs, ports.ImageRef{
				Digest: aws.ToString(id.ImageDigest),
				Tag:    aws.ToString(id.ImageTag),
			})
		}
	}
	return refs, nil
}

// DeleteImages removes images in batches of MaxDeleteBatch.
// Per-image failures other than ImageNotFound are reported as an error.
func (r *ECR) DeleteImages(ctx context.Context, repository string, images []ports.ImageRef) error {
	for start := 0; start < len(images); start += MaxDeleteBatch {
		end := min(start+MaxDeleteBatch, len(images))
		ids := make([]types.ImageIdentifier, 0, end-start)
		for _, ref := range images[start:end] {
			ids = append(ids, toIdentifier(ref))
		}
		out, err := r.client.BatchDeleteImage(ctx, &ecr.BatchDeleteImageInput{
			RepositoryName: aws.String(repository),
			ImageIds:       ids,
		})
		if err != nil {
			var notFound *types.RepositoryNotFoundException
			if errors.As(err, &notFound) {
				return nil
			}
			return fmt.Errorf("delete images in %s: %w", repository, err)
		}
		if err := failuresError(out.Failures); err != nil {
			return fmt.Errorf("delete images in %s: %w", repository, err)
		}
	}
	return nil
}

func toIdentifier(ref ports.ImageRef) types.ImageIdentifier {
	id := types.ImageIdentifier{}
	if ref.Digest != "" {
		id.ImageDigest = aws.String(ref.Digest)
	}
	if ref.Tag != "" {
		id.ImageTag = aws.String(ref.Tag)
	}
	return id
}

func failuresError(failures []types.ImageFailure) error {
	var msgs []string
	for _, failure := range failures {
		if failure.FailureCode == types.ImageFailureCodeImageNotFound {
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s: %s", failure.FailureCode, aws.ToString(failure.FailureReason)))
	}
	if len(msgs) == 0 {
		return nil
	}
	return errors.New(strings.Join(msgs, "; "))
}

var _ ports.Registry = (*ECR)(nil)
