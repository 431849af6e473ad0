// Where: internal/usecase/pipeline/pipeline.go
// What: Lifecycle checkpoints for one deployment.
// Why: Keep checkpoint order visible while each step lives in its own use case.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/bkozora/serverless-aws-batch-orka/internal/domain/deployment"
	"github.com/bkozora/serverless-aws-batch-orka/internal/infra/fileops"
	"github.com/bkozora/serverless-aws-batch-orka/internal/infra/ui"
	"github.com/bkozora/serverless-aws-batch-orka/internal/ports"
	"github.com/bkozora/serverless-aws-batch-orka/internal/usecase/compile"
	"github.com/bkozora/serverless-aws-batch-orka/internal/usecase/image"
)

var (
	errCompilerNotConfigured = errors.New("compiler is not configured")
	errImagesNotConfigured   = errors.New("image lifecycle is not configured")

	// ErrArtifactMissing reports a packaged function whose schedule archive is gone.
	ErrArtifactMissing = errors.New("schedule artifact missing")
)

// Actions recorded in the deployment history.
const (
	ActionPush   = "push"
	ActionRemove = "remove"
)

// ImageLifecycle builds, pushes, and removes the job image.
type ImageLifecycle interface {
	Build(ctx context.Context, dctx *deployment.Context) error
	Push(ctx context.Context, dctx *deployment.Context) error
	Remove(ctx context.Context, dctx *deployment.Context, opts image.RemoveOptions) error
}

// Pipeline binds use cases to lifecycle checkpoints. Artifacts and History are optional.
type Pipeline struct {
	Compiler  *compile.Compiler
	Images    ImageLifecycle
	Artifacts ports.ArtifactStore
	History   ports.DeploymentHistory
	UI        ui.UserInterface
}

type step struct {
	name string
	run  func(ctx context.Context, dctx *deployment.Context) error
}

// runSteps runs steps in order and stops at the first failure.
func runSteps(ctx context.Context, dctx *deployment.Context, steps []step) error {
	for _, s := range steps {
		if err := s.run(ctx, dctx); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

func (p *Pipeline) ui() ui.UserInterface {
	if p.UI == nil {
		return ui.Discard()
	}
	return p.UI
}

// AfterInit registers the core template resources.
func (p *Pipeline) AfterInit(ctx context.Context, dctx *deployment.Context) error {
	return runSteps(ctx, dctx, []step{
		{name: "generate core template", run: func(_ context.Context, d *deployment.Context) error {
			return compile.GenerateCoreTemplate(d)
		}},
	})
}

// BeforeCompile generates the batch environment and compiles every batch function.
func (p *Pipeline) BeforeCompile(ctx context.Context, dctx *deployment.Context) error {
	if p.Compiler == nil {
		return errCompilerNotConfigured
	}
	return runSteps(ctx, dctx, []step{
		{name: "generate batch environment", run: func(_ context.Context, d *deployment.Context) error {
			return compile.GenerateBatchEnvironment(d)
		}},
		{name: "compile batch functions", run: func(_ context.Context, d *deployment.Context) error {
			return p.Compiler.CompileAll(d)
		}},
	})
}

// AfterPackage builds the job image.
func (p *Pipeline) AfterPackage(ctx context.Context, dctx *deployment.Context) error {
	if p.Images == nil {
		return errImagesNotConfigured
	}
	return runSteps(ctx, dctx, []step{
		{name: "build image", run: p.Images.Build},
	})
}

// BeforeUpload pushes the image, uploads build outputs, and records the deployment.
func (p *Pipeline) BeforeUpload(ctx context.Context, dctx *deployment.Context) error {
	if p.Images == nil {
		return errImagesNotConfigured
	}
	return runSteps(ctx, dctx, []step{
		{name: "push image", run: p.Images.Push},
		{name: "upload artifacts", run: p.uploadArtifacts},
		{name: "record deployment", run: func(ctx context.Context, d *deployment.Context) error {
			return p.record(ctx, d, ActionPush)
		}},
	})
}

// BeforeRemove empties the image repository and records the removal.
func (p *Pipeline) BeforeRemove(ctx context.Context, dctx *deployment.Context, opts image.RemoveOptions) error {
	if p.Images == nil {
		return errImagesNotConfigured
	}
	return runSteps(ctx, dctx, []step{
		{name: "remove images", run: func(ctx context.Context, d *deployment.Context) error {
			return p.Images.Remove(ctx, d, opts)
		}},
		{name: "record removal", run: func(ctx context.Context, d *deployment.Context) error {
			return p.record(ctx, d, ActionRemove)
		}},
	})
}

// uploadArtifacts sends schedule archives and compiled outputs to the artifact store.
func (p *Pipeline) uploadArtifacts(ctx context.Context, dctx *deployment.Context) error {
	if p.Artifacts == nil {
		return nil
	}
	// Archives are located by name; push runs without a compile.
	packaged := fileops.FileExists(filepath.Join(dctx.BuildDir(), FunctionsFileName))
	var paths []string
	for _, fn := range dctx.Service.BatchFunctions() {
		path := dctx.ArtifactPath(fn.Name)
		if fileops.FileExists(path) {
			paths = append(paths, path)
			continue
		}
		if packaged {
			return fmt.Errorf("%w: %s", ErrArtifactMissing, path)
		}
	}
	for _, name := range []string{TemplateFileName, FunctionsFileName} {
		if path := filepath.Join(dctx.BuildDir(), name); fileops.FileExists(path) {
			paths = append(paths, path)
		}
	}
	for _, path := range paths {
		key := filepath.Base(path)
		p.ui().Info(fmt.Sprintf("Uploading artifact %s...", key))
		if err := p.Artifacts.Upload(ctx, key, path); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) record(ctx context.Context, dctx *deployment.Context, action string) error {
	if p.History == nil {
		return nil
	}
	record := ports.DeploymentRecord{
		Service: dctx.Service.Name,
		Stage:   dctx.Naming.Stage,
		Region:  dctx.Naming.Region,
		Action:  action,
	}
	for _, fn := range dctx.Service.BatchFunctions() {
		record.Functions = append(record.Functions, fn.Name)
	}
	if action == ActionPush && image.HasDockerfile(dctx) {
		record.Image = dctx.Naming.DockerImageName()
	}
	return p.History.Record(ctx, record)
}
