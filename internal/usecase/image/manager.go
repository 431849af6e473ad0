// Where: internal/usecase/image/manager.go
// What: Container image build, push, and registry cleanup.
// Why: The job image in the registry must match the compiled job definitions.
package image

import (
	"context"
	"fmt"
	"strings"

	"github.com/bkozora/serverless-aws-batch-orka/internal/domain/deployment"
	"github.com/bkozora/serverless-aws-batch-orka/internal/infra/fileops"
	"github.com/bkozora/serverless-aws-batch-orka/internal/infra/runner"
	"github.com/bkozora/serverless-aws-batch-orka/internal/infra/ui"
	"github.com/bkozora/serverless-aws-batch-orka/internal/ports"
)

const dockerBinary = "docker"

// Manager drives docker and the registry. Local is optional; without it the
// push preflight is skipped and local pruning is unavailable.
type Manager struct {
	Runner   runner.CommandRunner
	Registry ports.Registry
	Local    ports.LocalImages
	UI       ui.UserInterface
}

// RemoveOptions controls teardown.
type RemoveOptions struct {
	PruneLocal bool
}

func NewManager(cmdRunner runner.CommandRunner, registry ports.Registry, local ports.LocalImages, out ui.UserInterface) *Manager {
	if out == nil {
		out = ui.Discard()
	}
	return &Manager{Runner: cmdRunner, Registry: registry, Local: local, UI: out}
}

// HasDockerfile reports whether the service directory holds a Dockerfile.
func HasDockerfile(dctx *deployment.Context) bool {
	return fileops.FileExists(dctx.DockerfilePath())
}

// Build runs docker build in the service directory. Without a Dockerfile it does nothing.
func (m *Manager) Build(ctx context.Context, dctx *deployment.Context) error {
	if !HasDockerfile(dctx) {
		return nil
	}
	if m.Runner == nil {
		return errRunnerMissing
	}
	imageName := dctx.Naming.DockerImageName()
	m.UI.Info(fmt.Sprintf("Building docker image: %q...", imageName))
	err := m.Runner.Run(ctx, dctx.ServicePath, dockerBinary,
		"build", "-f", dctx.DockerfilePath(), "-t", imageName, ".")
	if err != nil {
		return fmt.Errorf("docker build: %w", err)
	}
	return nil
}

// Push logs in to the registry and pushes the image. Without a Dockerfile it does nothing.
func (m *Manager) Push(ctx context.Context, dctx *deployment.Context) error {
	if !HasDockerfile(dctx) {
		return nil
	}
	if m.Runner == nil {
		return errRunnerMissing
	}
	if m.Registry == nil {
		return errRegistryMissing
	}
	imageName := dctx.Naming.DockerImageName()
	if m.Local != nil {
		exists, err := m.Local.Exists(ctx, imageName)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: %s", ErrImageNotBuilt, imageName)
		}
	}

	m.UI.Info("Logging into ECR...")
	auth, err := m.Registry.Authorization(ctx)
	if err != nil {
		return err
	}
	endpoint := auth.Endpoint
	if endpoint == "" {
		endpoint = "https://" + dctx.Naming.ECRRegistry()
	}
	err = m.Runner.RunInput(ctx, dctx.ServicePath, strings.NewReader(auth.Password), dockerBinary,
		"login", "--username", auth.Username, "--password-stdin", endpoint)
	if err != nil {
		return fmt.Errorf("docker login: %w", err)
	}

	m.UI.Info("Uploading to ECR...")
	if err := m.Runner.Run(ctx, dctx.ServicePath, dockerBinary, "push", imageName); err != nil {
		return fmt.Errorf("docker push: %w", err)
	}
	m.UI.Success(fmt.Sprintf("Pushed %s", imageName))
	return nil
}

// Remove deletes every image in the service repository. A missing or empty
// repository is not an error.
func (m *Manager) Remove(ctx context.Context, dctx *deployment.Context, opts RemoveOptions) error {
	if m.Registry == nil {
		return errRegistryMissing
	}
	repository := dctx.Naming.ECRRepositoryName()
	images, err := m.Registry.ListImages(ctx, repository)
	if err != nil {
		return err
	}
	if len(images) == 0 {
		m.UI.Info(fmt.Sprintf("No images found in ECR repository %q", repository))
	} else {
		m.UI.Info(fmt.Sprintf("Removing %d image(s) from ECR repository %q...", len(images), repository))
		if err := m.Registry.DeleteImages(ctx, repository, images); err != nil {
			return err
		}
	}

	if !opts.PruneLocal {
		return nil
	}
	if m.Local == nil {
		return errLocalMissing
	}
	return m.Local.Remove(ctx, dctx.Naming.DockerImageName())
}
