// Where: cmd/batchorka/cli.go
// What: CLI dependency wiring.
// Why: Centralize construction for testability.
package main

import (
	"os"

	"github.com/bkozora/serverless-aws-batch-orka/internal/command"
	"github.com/bkozora/serverless-aws-batch-orka/internal/infra/interaction"
	"github.com/bkozora/serverless-aws-batch-orka/internal/infra/runner"
	"github.com/bkozora/serverless-aws-batch-orka/internal/infra/shim"
)

var getwd = os.Getwd

// buildDependencies constructs the runtime dependencies. AWS and Docker clients
// are created lazily by the commands that need them.
func buildDependencies() command.Dependencies {
	return command.Dependencies{
		Out:       os.Stdout,
		ErrOut:    os.Stderr,
		Stdin:     os.Stdin,
		Prompter:  interaction.HuhPrompter{},
		Getwd:     getwd,
		Runner:    runner.NewExecRunner(),
		Cloud:     command.NewAWSCloud,
		Local:     command.NewDockerLocalImages,
		Artifacts: shim.NewWriter(),
	}
}
