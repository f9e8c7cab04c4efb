package ui

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"
)

// ErrAborted is returned by a LineReader when the user presses Ctrl+C
var ErrAborted = liner.ErrPromptAborted

// LineReader is the input side of the shell
type LineReader interface {
	Prompt(prompt string) (string, error)
	PasswordPrompt(prompt string) (string, error)
	Close() error
}

// terminal reads from the controlling terminal with line editing and history
type terminal struct {
	line        *liner.State
	historyFile string
}

func newTerminal(historyFile string) *terminal {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	t := &terminal{line: line, historyFile: historyFile}
	if historyFile != "" {
		if f, err := os.Open(historyFile); err == nil {
			_, _ = line.ReadHistory(f)
			f.Close()
		}
	}
	return t
}

func (t *terminal) Prompt(prompt string) (string, error) {
	input, err := t.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		t.line.AppendHistory(input)
	}
	return input, nil
}

// PasswordPrompt falls back to a visible prompt when stdout is not a terminal
func (t *terminal) PasswordPrompt(prompt string) (string, error) {
	input, err := t.line.PasswordPrompt(prompt)
	if errors.Is(err, liner.ErrNotTerminalOutput) {
		return t.line.Prompt(prompt)
	}
	return input, err
}

func (t *terminal) Close() error {
	if t.historyFile != "" {
		if f, err := os.OpenFile(t.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			_, _ = t.line.WriteHistory(f)
			f.Close()
		}
	}
	return t.line.Close()
}

// isExit reports whether err ends the shell (Ctrl+C or Ctrl+D)
func isExit(err error) bool {
	return errors.Is(err, ErrAborted) || errors.Is(err, io.EOF)
}
