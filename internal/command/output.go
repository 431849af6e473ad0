// Where: internal/command/output.go
// What: Output helpers for command adapters.
// Why: Centralize UserInterface construction and raw output.
package command

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/bkozora/serverless-aws-batch-orka/internal/infra/interaction"
	"github.com/bkozora/serverless-aws-batch-orka/internal/infra/ui"
)

func legacyUI(out io.Writer) ui.UserInterface {
	return ui.NewConsoleUI(out, false)
}

func writeString(out io.Writer, text string) {
	if out == nil || text == "" {
		return
	}
	_, _ = io.WriteString(out, text)
}

func resolveEmojiEnabled(out io.Writer, cli CLI) (bool, error) {
	if cli.Emoji && cli.NoEmoji {
		return false, errors.New("--emoji and --no-emoji cannot be used together")
	}
	if cli.Emoji {
		return true, nil
	}
	if cli.NoEmoji {
		return false, nil
	}
	if strings.TrimSpace(os.Getenv("NO_EMOJI")) != "" {
		return false, nil
	}
	term := strings.ToLower(strings.TrimSpace(os.Getenv("TERM")))
	if term == "dumb" {
		return false, nil
	}
	if file, ok := out.(*os.File); ok {
		return interaction.IsTerminal(file), nil
	}
	return false, nil
}
