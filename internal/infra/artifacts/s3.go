// Where: internal/infra/artifacts/s3.go
// What: S3 upload of packaged outputs.
// Why: The compiled template and shim archives are kept in the deployment bucket.
package artifacts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/bkozora/serverless-aws-batch-orka/internal/ports"
)

var errBucketRequired = errors.New("deployment bucket is required")

// PutObjectAPI is the subset of the S3 client used here.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store uploads files to bucket under prefix.
type S3Store struct {
	client PutObjectAPI
	bucket string
	prefix string
}

func NewS3Store(client PutObjectAPI, bucket, prefix string) (*S3Store, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, errBucketRequired
	}
	return &S3Store{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}, nil
}

// Prefix returns the standard key prefix for a service stage.
func Prefix(service, stage string) string {
	return path.Join("serverless", service, stage)
}

// Key returns the object key for name.
func (s *S3Store) Key(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + strings.TrimLeft(name, "/")
}

func (s *S3Store) Upload(ctx context.Context, key, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open %s: %w", filePath, err)
	}
	defer file.Close()

	objectKey := s.Key(key)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
		Body:   file,
	})
	if err != nil {
		return fmt.Errorf("upload s3://%s/%s: %w", s.bucket, objectKey, err)
	}
	return nil
}

var _ ports.ArtifactStore = (*S3Store)(nil)
