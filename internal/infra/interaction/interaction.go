// Where: internal/infra/interaction/interaction.go
// What: Confirmation prompts and TTY detection.
// Why: Destructive commands must ask before acting and refuse silently running in pipelines.
package interaction

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
)

// ErrNonInteractive is returned when confirmation is required but no terminal is attached.
var ErrNonInteractive = errors.New("confirmation required: rerun with --yes in non-interactive mode")

// Prompter asks the user a yes/no question.
type Prompter interface {
	Confirm(title string) (bool, error)
}

// IsTerminal reports whether the file refers to a terminal device.
var IsTerminal = func(file *os.File) bool {
	if file == nil {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

var runConfirmPrompt = func(title string, answer *bool) error {
	return huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(answer).
		Run()
}

// HuhPrompter implements Prompter using the huh TUI library.
type HuhPrompter struct{}

func (HuhPrompter) Confirm(title string) (bool, error) {
	var answer bool
	if err := runConfirmPrompt(title, &answer); err != nil {
		return false, fmt.Errorf("prompt confirm: %w", err)
	}
	return answer, nil
}

// Confirm returns true when assumeYes is set, asks on a terminal, and fails otherwise.
func Confirm(p Prompter, stdin *os.File, assumeYes bool, title string) (bool, error) {
	if assumeYes {
		return true, nil
	}
	if p == nil || !IsTerminal(stdin) {
		return false, ErrNonInteractive
	}
	return p.Confirm(title)
}
