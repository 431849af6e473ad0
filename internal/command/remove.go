// Where: internal/command/remove.go
// What: remove command.
// Why: Deleting registry images is irreversible, so it is gated on confirmation.
package command

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/bkozora/serverless-aws-batch-orka/internal/infra/interaction"
	"github.com/bkozora/serverless-aws-batch-orka/internal/usecase/image"
)

func runRemove(cli CLI, deps Dependencies, out io.Writer) int {
	ctx := context.Background()
	s, err := openSession(ctx, cli, deps, out, levelRemote)
	if err != nil {
		return exitWithError(out, err)
	}
	defer s.Close()

	stdin := deps.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}
	prompter := deps.Prompter
	if prompter == nil {
		prompter = interaction.HuhPrompter{}
	}
	title := fmt.Sprintf("Delete every image in ECR repository %q?", s.dctx.Naming.ECRRepositoryName())
	confirmed, err := interaction.Confirm(prompter, stdin, cli.Remove.Yes, title)
	if err != nil {
		return exitWithError(out, err)
	}
	if !confirmed {
		s.ui.Info("Remove cancelled")
		return 0
	}

	opts := image.RemoveOptions{PruneLocal: cli.Remove.PruneLocal}
	if err := s.pipeline.BeforeRemove(ctx, s.dctx, opts); err != nil {
		return exitWithError(out, err)
	}
	s.ui.Success("Remove complete")
	return 0
}
