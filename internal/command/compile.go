// Where: internal/command/compile.go
// What: compile command.
// Why: Print the generated resources without touching docker or the registry.
package command

import (
	"context"
	"fmt"
	"io"

	sigsyaml "sigs.k8s.io/yaml"

	"github.com/bkozora/serverless-aws-batch-orka/internal/usecase/pipeline"
)

// runCompile prints compiled resources to out; progress goes to ErrOut so the
// document stays pipeable.
func runCompile(cli CLI, deps Dependencies, out io.Writer) int {
	ctx := context.Background()
	s, err := openSession(ctx, cli, deps, deps.ErrOut, levelCompile)
	if err != nil {
		return exitWithError(out, err)
	}
	defer s.Close()

	if err := s.pipeline.AfterInit(ctx, s.dctx); err != nil {
		return exitWithError(out, err)
	}
	if err := s.pipeline.BeforeCompile(ctx, s.dctx); err != nil {
		return exitWithError(out, err)
	}

	rendered, err := renderTemplate(s.dctx.Resources, cli.Compile.Format)
	if err != nil {
		return exitWithError(out, err)
	}
	writeString(out, string(rendered))
	return 0
}

func renderTemplate(v any, format string) ([]byte, error) {
	data, err := pipeline.MarshalIndent(v)
	if err != nil {
		return nil, fmt.Errorf("encode template: %w", err)
	}
	switch format {
	case "", "json":
		return data, nil
	case "yaml":
		converted, err := sigsyaml.JSONToYAML(data)
		if err != nil {
			return nil, fmt.Errorf("convert template to yaml: %w", err)
		}
		return converted, nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}
