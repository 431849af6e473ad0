// Where: internal/command/deploy.go
// What: package, deploy, and push commands.
// Why: Each command runs a prefix of the same checkpoint sequence.
package command

import (
	"context"
	"fmt"
	"io"

	"github.com/bkozora/serverless-aws-batch-orka/internal/infra/ui"
	"github.com/bkozora/serverless-aws-batch-orka/internal/usecase/image"
	"github.com/bkozora/serverless-aws-batch-orka/internal/usecase/pipeline"
)

func runPackage(cli CLI, deps Dependencies, out io.Writer) int {
	ctx := context.Background()
	s, err := openSession(ctx, cli, deps, out, levelBuild)
	if err != nil {
		return exitWithError(out, err)
	}
	defer s.Close()

	showPlan(s, "Package plan")
	if err := packageService(ctx, s); err != nil {
		return exitWithError(out, err)
	}
	s.ui.Success("Package complete")
	return 0
}

func runDeploy(cli CLI, deps Dependencies, out io.Writer) int {
	ctx := context.Background()
	s, err := openSession(ctx, cli, deps, out, levelRemote)
	if err != nil {
		return exitWithError(out, err)
	}
	defer s.Close()

	showPlan(s, "Deploy plan")
	if err := packageService(ctx, s); err != nil {
		return exitWithError(out, err)
	}
	if err := s.pipeline.BeforeUpload(ctx, s.dctx); err != nil {
		return exitWithError(out, err)
	}
	s.ui.Success("Deploy complete")
	return 0
}

func runPush(cli CLI, deps Dependencies, out io.Writer) int {
	ctx := context.Background()
	s, err := openSession(ctx, cli, deps, out, levelRemote)
	if err != nil {
		return exitWithError(out, err)
	}
	defer s.Close()

	if err := s.pipeline.BeforeUpload(ctx, s.dctx); err != nil {
		return exitWithError(out, err)
	}
	s.ui.Success("Push complete")
	return 0
}

// packageService runs after-init, before-compile, writes build outputs, then after-package.
func packageService(ctx context.Context, s *session) error {
	if err := s.pipeline.AfterInit(ctx, s.dctx); err != nil {
		return err
	}
	if err := s.pipeline.BeforeCompile(ctx, s.dctx); err != nil {
		return err
	}
	paths, err := pipeline.WriteOutputs(s.dctx)
	if err != nil {
		return err
	}
	for _, path := range paths {
		s.ui.Info(fmt.Sprintf("Wrote %s", path))
	}
	return s.pipeline.AfterPackage(ctx, s.dctx)
}

func showPlan(s *session, title string) {
	svc := s.dctx.Service
	imageName := "-"
	if image.HasDockerfile(s.dctx) {
		imageName = s.dctx.Naming.DockerImageName()
	}
	bucket := svc.Provider.DeploymentBucket
	if bucket == "" {
		bucket = "-"
	}
	s.ui.Block("🧭", title, []ui.KeyValue{
		{Key: "Service", Value: svc.Name},
		{Key: "Stage", Value: s.dctx.Naming.Stage},
		{Key: "Region", Value: s.dctx.Naming.Region},
		{Key: "Account", Value: s.dctx.Naming.AccountID},
		{Key: "BatchFunctions", Value: len(svc.BatchFunctions())},
		{Key: "Image", Value: imageName},
		{Key: "Bucket", Value: bucket},
	})
}
