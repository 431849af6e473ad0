// Where: internal/infra/ui/ui.go
// What: User interface port for usecases.
// Why: Provide a single output surface so pipeline stages stay UI-agnostic.
package ui

import (
	"io"
)

// KeyValue is a key/value pair rendered inside a block.
type KeyValue struct {
	Key   string
	Value any
}

// UserInterface exposes high-level output helpers used by usecases.
type UserInterface interface {
	Info(msg string)
	Warn(msg string)
	Success(msg string)
	Block(emoji, title string, rows []KeyValue)
}

// NewConsoleUI returns a UserInterface backed by the console helper.
func NewConsoleUI(out io.Writer, emojiEnabled bool) UserInterface {
	if out == nil {
		out = io.Discard
	}
	return consoleUI{console: NewWithEmoji(out, emojiEnabled)}
}

// Discard returns a UserInterface that drops all output.
func Discard() UserInterface {
	return consoleUI{console: NewWithEmoji(io.Discard, false)}
}

type consoleUI struct {
	console *Console
}

func (c consoleUI) Info(msg string) {
	c.console.Info(msg)
}

func (c consoleUI) Warn(msg string) {
	c.console.Warn(msg)
}

func (c consoleUI) Success(msg string) {
	c.console.Success(msg)
}

func (c consoleUI) Block(emoji, title string, rows []KeyValue) {
	c.console.BlockStart(emoji, title)
	for _, kv := range rows {
		c.console.Item(kv.Key, kv.Value)
	}
	c.console.BlockEnd()
}
