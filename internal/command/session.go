// Where: internal/command/session.go
// What: Loads the service file and assembles the pipeline for one command.
// Why: Every command shares the same resolution order and only builds the clients it uses.
package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bkozora/serverless-aws-batch-orka/internal/domain/deployment"
	"github.com/bkozora/serverless-aws-batch-orka/internal/domain/naming"
	"github.com/bkozora/serverless-aws-batch-orka/internal/infra/artifacts"
	"github.com/bkozora/serverless-aws-batch-orka/internal/infra/config"
	"github.com/bkozora/serverless-aws-batch-orka/internal/infra/runner"
	"github.com/bkozora/serverless-aws-batch-orka/internal/infra/shim"
	"github.com/bkozora/serverless-aws-batch-orka/internal/infra/ui"
	"github.com/bkozora/serverless-aws-batch-orka/internal/usecase/compile"
	"github.com/bkozora/serverless-aws-batch-orka/internal/usecase/image"
	"github.com/bkozora/serverless-aws-batch-orka/internal/usecase/pipeline"
)

// sessionLevel selects which collaborators a command needs.
type sessionLevel int

const (
	levelCompile sessionLevel = iota
	levelBuild
	levelRemote
)

type session struct {
	dctx     *deployment.Context
	pipeline *pipeline.Pipeline
	ui       ui.UserInterface
	closers  []io.Closer
}

func (s *session) Close() {
	for _, c := range s.closers {
		_ = c.Close()
	}
}

func openSession(ctx context.Context, cli CLI, deps Dependencies, uiOut io.Writer, level sessionLevel) (*session, error) {
	emojiEnabled, err := resolveEmojiEnabled(uiOut, cli)
	if err != nil {
		return nil, err
	}
	out := ui.NewConsoleUI(uiOut, emojiEnabled)

	dctx, cloud, err := loadDeployment(ctx, cli, deps)
	if err != nil {
		return nil, err
	}

	writer := deps.Artifacts
	if writer == nil {
		writer = shim.NewWriter()
	}
	s := &session{
		dctx: dctx,
		ui:   out,
		pipeline: &pipeline.Pipeline{
			Compiler: compile.NewCompiler(writer, out),
			UI:       out,
		},
	}
	if level < levelBuild {
		return s, nil
	}

	cmdRunner := deps.Runner
	if cmdRunner == nil {
		cmdRunner = runner.NewExecRunner()
	}
	manager := image.NewManager(cmdRunner, nil, nil, out)
	s.pipeline.Images = manager
	if level < levelRemote {
		return s, nil
	}

	if err := attachRemote(ctx, s, manager, cloud, deps); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// loadDeployment resolves the service file, the account id, and the deployment context.
func loadDeployment(ctx context.Context, cli CLI, deps Dependencies) (*deployment.Context, Cloud, error) {
	getwd := deps.Getwd
	if getwd == nil {
		getwd = os.Getwd
	}
	cwd, err := getwd()
	if err != nil {
		return nil, nil, err
	}
	path, err := config.FindServiceFile(cwd, cli.Config)
	if err != nil {
		return nil, nil, err
	}
	svc, err := config.LoadFile(path, config.Options{
		Stage:     cli.Stage,
		Region:    cli.Region,
		AccountID: cli.AccountID,
	})
	if err != nil {
		return nil, nil, err
	}

	newCloud := deps.Cloud
	if newCloud == nil {
		newCloud = NewAWSCloud
	}
	cloud := newCloud(svc.Provider.Region)

	accountID := svc.Provider.AccountID
	if accountID == "" {
		resolver, err := cloud.Account(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve account id: %w", err)
		}
		if accountID, err = resolver.AccountID(ctx); err != nil {
			return nil, nil, fmt.Errorf("resolve account id: %w", err)
		}
		svc.Provider.AccountID = accountID
	}

	resolver := naming.New(svc.Name, svc.Provider.Stage, svc.Provider.Region, accountID)
	return deployment.New(svc, resolver, filepath.Dir(path), config.LogRegion()), cloud, nil
}

func attachRemote(ctx context.Context, s *session, manager *image.Manager, cloud Cloud, deps Dependencies) error {
	if cloud == nil {
		return errCloudNotConfigured
	}
	reg, err := cloud.Registry(ctx)
	if err != nil {
		return err
	}
	manager.Registry = reg

	newLocal := deps.Local
	if newLocal == nil {
		newLocal = NewDockerLocalImages
	}
	local, closer, err := newLocal()
	if err != nil {
		return err
	}
	if local == nil {
		return errLocalNotConfigured
	}
	manager.Local = local
	if closer != nil {
		s.closers = append(s.closers, closer)
	}

	svc := s.dctx.Service
	if bucket := svc.Provider.DeploymentBucket; bucket != "" {
		store, err := cloud.ArtifactStore(ctx, bucket, artifacts.Prefix(svc.Name, svc.Provider.Stage))
		if err != nil {
			return err
		}
		s.pipeline.Artifacts = store
	}
	if svc.Batch != nil && svc.Batch.DeploymentTable != "" {
		ledger, err := cloud.History(ctx, svc.Batch.DeploymentTable)
		if err != nil {
			return err
		}
		s.pipeline.History = ledger
	}
	return nil
}
