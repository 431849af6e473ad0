// Where: internal/infra/dockerimage/dockerimage.go
// What: Docker SDK adapter for local image inspection and removal.
// Why: Push checks the built image exists and remove can prune it from the host.
package dockerimage

import (
	"context"
	"errors"
	"fmt"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"

	"github.com/bkozora/serverless-aws-batch-orka/internal/ports"
)

var errDockerClientNil = errors.New("docker client is nil")

// DockerClient defines the subset of Docker SDK methods used by this package.
type DockerClient interface {
	ImageInspect(ctx context.Context, imageID string, opts ...client.ImageInspectOption) (image.InspectResponse, error)
	ImageRemove(ctx context.Context, imageID string, options image.RemoveOptions) ([]image.DeleteResponse, error)
}

// NewDockerClient constructs a Docker SDK client using environment defaults.
func NewDockerClient() (*client.Client, error) {
	dockerClient, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	return dockerClient, nil
}

// Images implements ports.LocalImages.
type Images struct {
	client DockerClient
}

func New(dockerClient DockerClient) *Images {
	return &Images{client: dockerClient}
}

func (i *Images) Exists(ctx context.Context, ref string) (bool, error) {
	if i.client == nil {
		return false, errDockerClientNil
	}
	if _, err := i.client.ImageInspect(ctx, ref); err != nil {
		if cerrdefs.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("inspect image %s: %w", ref, err)
	}
	return true, nil
}

func (i *Images) Remove(ctx context.Context, ref string) error {
	if i.client == nil {
		return errDockerClientNil
	}
	_, err := i.client.ImageRemove(ctx, ref, image.RemoveOptions{PruneChildren: true})
	if err != nil && !cerrdefs.IsNotFound(err) {
		return fmt.Errorf("remove image %s: %w", ref, err)
	}
	return nil
}

var _ ports.LocalImages = (*Images)(nil)
