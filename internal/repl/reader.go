package repl

import (
	"errors"
	"io"

	"github.com/chzyer/readline"
)

// Prompt is shown before each line the operator types.
const Prompt = "GeoNet Pro: "

// ErrInterrupt is returned by a LineReader when the operator presses Ctrl-C.
var ErrInterrupt = errors.New("interrupted")

// LineReader reads one operator line per call. It returns io.EOF at end of
// input and ErrInterrupt on Ctrl-C.
type LineReader interface {
	Readline() (string, error)
	Close() error
}

// TerminalReader is a LineReader with line editing and history.
type TerminalReader struct {
	rl *readline.Instance
}

// NewTerminalReader opens the terminal. historyFile may be empty.
func NewTerminalReader(historyFile string) (*TerminalReader, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          Prompt,
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}
	return &TerminalReader{rl: rl}, nil
}

// Readline implements LineReader.
func (t *TerminalReader) Readline() (string, error) {
	line, err := t.rl.Readline()
	switch {
	case errors.Is(err, readline.ErrInterrupt):
		return "", ErrInterrupt
	case errors.Is(err, io.EOF):
		return "", io.EOF
	}
	return line, err
}

// Stdout returns a writer that does not garble the prompt line.
func (t *TerminalReader) Stdout() io.Writer {
	return t.rl.Stdout()
}

// Close restores the terminal.
func (t *TerminalReader) Close() error {
	return t.rl.Close()
}
