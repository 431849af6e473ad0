package registry

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/aws/aws-sdk-go-v2/service/ecr/types"

	"github.com/bkozora/serverless-aws-batch-orka/internal/ports"
)

type fakeECR struct {
	token        string
	pages        [][]types.ImageIdentifier
	listErr      error
	deleteBatch  []int
	deleteErr    error
	failures     []types.ImageFailure
	listRequests int
}

func (f *fakeECR) GetAuthorizationToken(context.Context, *ecr.GetAuthorizationTokenInput, ...func(*ecr.Options)) (*ecr.GetAuthorizationTokenOutput, error) {
	if f.token == "" {
		return &ecr.GetAuthorizationTokenOutput{}, nil
	}
	return &ecr.GetAuthorizationTokenOutput{
		AuthorizationData: []types.AuthorizationData{{
			AuthorizationToken: aws.String(f.token),
			ProxyEndpoint:      aws.String("https://123.dkr.ecr.us-east-1.amazonaws.com"),
		}},
	}, nil
}

func (f *fakeECR) ListImages(_ context.Context, in *ecr.ListImagesInput, _ ...func(*ecr.Options)) (*ecr.ListImagesOutput, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	page := f.listRequests
	f.listRequests++
	out := &ecr.ListImagesOutput{}
	if page < len(f.pages) {
		out.ImageIds = f.pages[page]
	}
	if page+1 < len(f.pages) {
		out.NextToken = aws.String(fmt.Sprintf("page-%d", page+1))
	}
	return out, nil
}

func (f *fakeECR) BatchDeleteImage(_ context.Context, in *ecr.BatchDeleteImageInput, _ ...func(*ecr.Options)) (*ecr.BatchDeleteImageOutput, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	f.deleteBatch = append(f.deleteBatch, len(in.ImageIds))
	return &ecr.BatchDeleteImageOutput{Failures: f.failures}, nil
}

func TestAuthorizationDecodesToken(t *testing.T) {
	token := base64.StdEncoding.EncodeToString([]byte("AWS:secret"))
	auth, err := NewECR(&fakeECR{token: token}).Authorization(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if auth.Username != "AWS" || auth.Password != "secret" || auth.Endpoint == "" {
		t.Fatalf("unexpected auth: %+v", auth)
	}
}

func TestAuthorizationRejectsBadTokens(t *testing.T) {
	if _, err := NewECR(&fakeECR{}).Authorization(context.Background()); !errors.Is(err, errNoAuthorizationData) {
		t.Fatalf("expected missing data error, got %v", err)
	}
	bad := base64.StdEncoding.EncodeToString([]byte("no-colon"))
	if _, err := NewECR(&fakeECR{token: bad}).Authorization(context.Background()); !errors.Is(err, errMalformedToken) {
		t.Fatalf("expected malformed token error, got %v", err)
	}
}

func TestListImagesFollowsPages(t *testing.T) {
	fake := &fakeECR{pages: [][]types.ImageIdentifier{
		{{ImageDigest: aws.String("sha256:a"), ImageTag: aws.String("latest")}},
		{{ImageDigest: aws.String("sha256:b")}},
	}}
	refs, err := NewECR(fake).ListImages(context.Background(), "svc-dev")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(refs) != 2 || refs[0].Tag != "latest" || refs[1].Digest != "sha256:b" {
		t.Fatalf("unexpected refs: %+v", refs)
	}
}

func TestListImagesMissingRepositoryIsEmpty(t *testing.T) {
	fake := &fakeECR{listErr: &types.RepositoryNotFoundException{Message: aws.String("nope")}}
	refs, err := NewECR(fake).ListImages(context.Background(), "svc-dev")
	if err != nil || len(refs) != 0 {
		t.Fatalf("expected empty result, got %v %v", refs, err)
	}
}

func TestDeleteImagesChunks(t *testing.T) {
	images := make([]ports.ImageRef, 250)
	for i := range images {
		images[i] = ports.ImageRef{Digest: fmt.Sprintf("sha256:%d", i)}
	}
	fake := &fakeECR{}
	if err := NewECR(fake).DeleteImages(context.Background(), "svc-dev", images); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fake.deleteBatch) != 3 || fake.deleteBatch[0] != 100 || fake.deleteBatch[2] != 50 {
		t.Fatalf("unexpected batches: %v", fake.deleteBatch)
	}
}

func TestDeleteImagesEmptyMakesNoCalls(t *testing.T) {
	fake := &fakeECR{}
	if err := NewECR(fake).DeleteImages(context.Background(), "svc-dev", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fake.deleteBatch) != 0 {
		t.Fatalf("expected no delete calls, got %v", fake.deleteBatch)
	}
}

func TestDeleteImagesReportsFailures(t *testing.T) {
	fake := &fakeECR{failures: []types.ImageFailure{
		{FailureCode: types.ImageFailureCodeImageNotFound},
		{FailureCode: types.ImageFailureCodeImageReferencedByManifestList, FailureReason: aws.String("in use")},
	}}
	err := NewECR(fake).DeleteImages(context.Background(), "svc-dev", []ports.ImageRef{{Tag: "latest"}})
	if err == nil {
		t.Fatalf("expected failure error")
	}
}
