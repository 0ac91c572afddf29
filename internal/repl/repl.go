package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jaimegago/geoai/internal/config"
	"github.com/jaimegago/geoai/internal/useragent"
)

// ErrExit is returned by a command that ends the session.
var ErrExit = errors.New("exit requested")

// ModelSelectorFunc asks the operator to pick one of options. An empty
// result means the choice was cancelled.
type ModelSelectorFunc func(options []ModelOption, current string) (string, error)

// Option configures a REPL.
type Option func(*REPL)

// WithReader sets the line source. Defaults to a terminal reader.
func WithReader(r LineReader) Option {
	return func(repl *REPL) { repl.reader = r }
}

// WithConsole sets where output goes. Defaults to stdout without spinner.
func WithConsole(c *Console) Option {
	return func(repl *REPL) { repl.console = c }
}

// WithModelSelector replaces the interactive /model picker.
func WithModelSelector(f ModelSelectorFunc) Option {
	return func(repl *REPL) { repl.selectModel = f }
}

// WithLogger sets the REPL's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(repl *REPL) { repl.logger = logger }
}

// REPL implements the Read-Eval-Print-Loop for interactive mode
type REPL struct {
	agent       *useragent.Agent
	config      *config.Config
	session     *useragent.Session
	reader      LineReader
	console     *Console
	selectModel ModelSelectorFunc
	timeout     time.Duration
	logger      *slog.Logger
}

// New creates a new REPL with the given agent and config
func New(a *useragent.Agent, cfg *config.Config, opts ...Option) *REPL {
	session := useragent.NewSession()
	session.MaxMessages = cfg.Agent.MaxMessages

	r := &REPL{
		agent:       a,
		config:      cfg,
		session:     session,
		selectModel: RunModelSelector,
		timeout:     cfg.Agent.TurnTimeout,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.console == nil {
		r.console = NewConsole(os.Stdout, false)
	}
	return r
}

var bannerStyle = lipgloss.NewStyle().Bold(true)

// Run starts the REPL loop. It returns nil when the operator leaves
// (exit/quit, Ctrl-C, Ctrl-D) or ctx is cancelled.
func (r *REPL) Run(ctx context.Context) error {
	if r.reader == nil {
		tr, err := NewTerminalReader("")
		if err != nil {
			return fmt.Errorf("failed to open terminal: %w", err)
		}
		r.reader = tr
	}

	// Closing the reader unblocks a pending Readline when ctx ends.
	closeReader := sync.OnceValue(r.reader.Close)
	stopWatch := context.AfterFunc(ctx, func() { _ = closeReader() })
	defer func() {
		stopWatch()
		_ = closeReader()
	}()

	r.printBanner()

	for {
		if ctx.Err() != nil {
			r.println("Exiting...")
			return nil
		}

		line, err := r.reader.Readline()
		if ctx.Err() != nil {
			r.println("\nExiting...")
			return nil
		}
		if errors.Is(err, ErrInterrupt) || errors.Is(err, io.EOF) {
			r.println("\nExiting...")
			return nil
		}
		if err != nil {
			return fmt.Errorf("error reading input: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		switch strings.ToLower(input) {
		case "exit", "quit":
			r.println("Exiting...")
			return nil
		}

		if strings.HasPrefix(input, "/") {
			if err := r.handleCommand(ctx, input); err != nil {
				if errors.Is(err, ErrExit) {
					r.println("Exiting...")
					return nil
				}
				r.printf("Error: %v\n", err)
			}
			r.println("")
			continue
		}

		if done := r.turn(ctx, line); done {
			return nil
		}
	}
}

// turn sends one prompt and prints the outcome. It reports whether the
// loop should stop.
func (r *REPL) turn(ctx context.Context, prompt string) bool {
	r.console.Busy("Thinking...")
	reply, err := r.agent.SendAndWait(ctx, r.session, prompt, r.timeout)
	r.console.Idle()

	switch {
	case err == nil:
		r.printf("\nAgent: %s\n", reply)
	case errors.Is(err, useragent.ErrTimeout):
		r.printf("An error occurred: %v. Try again or ask something simpler.\n", err)
	case ctx.Err() != nil:
		r.println("\nExiting...")
		return true
	default:
		r.logger.Error("turn_failed", "error", err)
		r.printf("An error occurred: %v\n", err)
	}
	return false
}

func (r *REPL) printBanner() {
	model := r.agent.CurrentModelName()
	if model == "" {
		model = r.config.LLM.Current
	}
	r.println("")
	r.println(bannerStyle.Render(fmt.Sprintf("GeoAI agent initialized (model: %s).", model)))
	r.printf("   Available tools: %s\n", strings.Join(r.agent.ToolNames(), ", "))
	r.println("   Type 'exit' or 'quit' to stop, /help for commands.")
	r.println(strings.Repeat("-", 60))
}

func (r *REPL) printf(format string, args ...any) {
	fmt.Fprintf(r.console, format, args...)
}

func (r *REPL) println(s string) {
	fmt.Fprintln(r.console, s)
}
