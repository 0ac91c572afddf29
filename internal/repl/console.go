package repl

import (
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"
)

// Console serialises output to the operator. While a turn is pending it
// shows a spinner; writes made meanwhile (tool progress notices) pause the
// spinner so lines are not interleaved with it.
type Console struct {
	mu      sync.Mutex
	w       io.Writer
	spinner *spinner.Spinner
	busy    bool
}

// NewConsole writes to w. The spinner is shown only when animate is set,
// which callers should tie to w being a terminal.
func NewConsole(w io.Writer, animate bool) *Console {
	c := &Console{w: w}
	if animate {
		c.spinner = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	}
	return c
}

// Write implements io.Writer.
func (c *Console) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy && c.spinner != nil {
		c.spinner.Stop()
		defer c.spinner.Start()
	}
	return c.w.Write(p)
}

// Busy starts the spinner with the given label.
func (c *Console) Busy(label string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.busy = true
	if c.spinner != nil {
		c.spinner.Suffix = " " + label
		c.spinner.Start()
	}
}

// Idle stops the spinner.
func (c *Console) Idle() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.busy = false
	if c.spinner != nil {
		c.spinner.Stop()
	}
}
