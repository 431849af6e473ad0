// Where: internal/command/app.go
// What: CLI entrypoint logic.
// Why: Provide a testable command dispatcher.
package command

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/bkozora/serverless-aws-batch-orka/internal/infra/interaction"
	"github.com/bkozora/serverless-aws-batch-orka/internal/infra/runner"
	"github.com/bkozora/serverless-aws-batch-orka/internal/meta"
	"github.com/bkozora/serverless-aws-batch-orka/internal/usecase/compile"
	"github.com/bkozora/serverless-aws-batch-orka/internal/version"
)

// Dependencies holds all injected dependencies required for CLI command execution.
// Nil fields fall back to the production implementations.
type Dependencies struct {
	Out       io.Writer
	ErrOut    io.Writer
	Stdin     *os.File
	Prompter  interaction.Prompter
	Getwd     func() (string, error)
	Runner    runner.CommandRunner
	Cloud     CloudFactory
	Local     LocalImagesFactory
	Artifacts compile.ArtifactWriter
}

// CLI defines the command-line interface structure parsed by Kong.
type CLI struct {
	Config    string `short:"c" default:"serverless.yml" help:"Path to the service file"`
	Stage     string `short:"s" help:"Deployment stage"`
	Region    string `short:"r" help:"AWS region"`
	AccountID string `name:"account-id" help:"AWS account id (resolved from credentials when omitted)"`
	EnvFile   string `name:"env-file" help:"Path to .env file"`
	Emoji     bool   `name:"emoji" help:"Enable emoji output (default: auto)"`
	NoEmoji   bool   `name:"no-emoji" help:"Disable emoji output"`

	Compile CompileCmd `cmd:"" help:"Compile batch resources and print them. Looks up the account id through STS unless --account-id, BATCHORKA_ACCOUNT_ID or provider.accountId is set"`
	Package PackageCmd `cmd:"" help:"Compile, write build outputs, and build the job image"`
	Deploy  DeployCmd  `cmd:"" help:"Package, then push the image and upload build outputs"`
	Push    PushCmd    `cmd:"" help:"Push the built job image and upload build outputs"`
	Remove  RemoveCmd  `cmd:"" help:"Delete every image from the service repository"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

type (
	CompileCmd struct {
		Format string `short:"f" enum:"json,yaml" default:"json" help:"Output format (json/yaml)"`
	}
	PackageCmd struct{}
	DeployCmd  struct{}
	PushCmd    struct{}
	RemoveCmd  struct {
		Yes        bool `short:"y" help:"Do not ask for confirmation"`
		PruneLocal bool `name:"prune-local" help:"Also remove the local image tag"`
	}
	VersionCmd struct{}
)

// Run is the main entry point for CLI command execution.
// It parses the command-line arguments, identifies the requested command,
// and dispatches to the appropriate handler. Returns 0 on success, 1 on error.
func Run(args []string, deps Dependencies) int {
	out := deps.Out
	if out == nil {
		out = os.Stdout
	}
	if deps.ErrOut == nil {
		deps.ErrOut = os.Stderr
	}
	ui := legacyUI(out)

	if len(args) == 0 {
		return runNoArgs(out)
	}

	cli := CLI{}
	parser, err := kong.New(&cli, kong.Name(meta.AppName), kong.Writers(out, deps.ErrOut))
	if err != nil {
		return exitWithError(out, err)
	}

	ctx, err := parser.Parse(args)
	if err != nil {
		return handleParseError(err, out)
	}

	// Load environment file if provided or if .env exists in current directory
	if cli.EnvFile != "" {
		if err := godotenv.Load(cli.EnvFile); err != nil {
			ui.Warn(fmt.Sprintf("Warning: failed to load env file %s: %v", cli.EnvFile, err))
		}
	} else if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			ui.Warn(fmt.Sprintf("Warning: failed to load .env: %v", err))
		}
	}

	if exitCode, handled := dispatchCommand(ctx.Command(), cli, deps, out); handled {
		return exitCode
	}

	ui.Warn("unknown command")
	return 1
}

type commandHandler func(CLI, Dependencies, io.Writer) int

func dispatchCommand(command string, cli CLI, deps Dependencies, out io.Writer) (int, bool) {
	exactHandlers := map[string]commandHandler{
		"compile": runCompile,
		"package": runPackage,
		"deploy":  runDeploy,
		"push":    runPush,
		"remove":  runRemove,
		"version": func(_ CLI, _ Dependencies, out io.Writer) int { return runVersion(out) },
	}

	if handler, ok := exactHandlers[command]; ok {
		return handler(cli, deps, out), true
	}

	return 1, false
}

// runVersion prints the version information of the CLI.
func runVersion(out io.Writer) int {
	legacyUI(out).Info(version.GetVersion())
	return 0
}

// runNoArgs prints a short usage hint.
func runNoArgs(out io.Writer) int {
	ui := legacyUI(out)
	ui.Info("Usage:")
	ui.Info(fmt.Sprintf("  %s <compile|package|deploy|push|remove> [--config serverless.yml] [--stage <name>] [--region <name>]", meta.AppName))
	ui.Info("")
	ui.Info(fmt.Sprintf("Try: %s --help", meta.AppName))
	return 0
}

// handleParseError provides user-friendly error messages for parse failures.
func handleParseError(err error, out io.Writer) int {
	msg := err.Error()
	if strings.Contains(msg, "expected string value") {
		ui := legacyUI(out)
		switch {
		case strings.Contains(msg, "--config"):
			ui.Warn("`-c/--config` expects a value. Provide the service file path.")
			ui.Info(fmt.Sprintf("Example: %s package -c ./serverless.yml", meta.AppName))
			return 1
		case strings.Contains(msg, "--stage"):
			ui.Warn("`-s/--stage` expects a value. Provide a stage name or omit the flag.")
			ui.Info(fmt.Sprintf("Example: %s deploy -s prod", meta.AppName))
			return 1
		case strings.Contains(msg, "--env-file"):
			ui.Warn("`--env-file` expects a value. Provide a file path.")
			ui.Info(fmt.Sprintf("Example: %s deploy --env-file .env.prod", meta.AppName))
			return 1
		}
	}
	return exitWithError(out, err)
}
