// Where: cmd/batchorka/main.go
// What: CLI entrypoint.
// Why: Execute batchorka commands with production dependencies.
package main

import (
	"os"

	"github.com/bkozora/serverless-aws-batch-orka/internal/command"
)

func main() {
	os.Exit(command.Run(os.Args[1:], buildDependencies()))
}
