package useragent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jaimegago/geoai/internal/llm"
	"github.com/jaimegago/geoai/internal/tools"
)

// DefaultTurnTimeout bounds one SendAndWait call when none is given.
const DefaultTurnTimeout = 120 * time.Second

var (
	// ErrTimeout is returned by SendAndWait when the turn did not finish in time.
	ErrTimeout = errors.New("timed out waiting for the agent")

	// ErrMaxIterations is returned when the model keeps calling tools past
	// the iteration limit.
	ErrMaxIterations = errors.New("max iterations reached without final response")
)

// AdapterFactory creates a new LLM adapter for the given provider and model.
// Used by SwitchModel to hot-swap the underlying LLM without restarting.
type AdapterFactory func(ctx context.Context, provider, model string) (llm.LLMAdapter, error)

// AgentOption configures optional Agent settings.
type AgentOption func(*Agent)

// WithAdapterFactory sets the adapter factory for hot-swapping models.
func WithAdapterFactory(f AdapterFactory) AgentOption {
	return func(a *Agent) { a.adapterFactory = f }
}

// WithCurrentModelName sets the display name of the active model.
func WithCurrentModelName(name string) AgentOption {
	return func(a *Agent) { a.currentModel = name }
}

// WithMaxIterations caps the LLM round trips of one turn.
func WithMaxIterations(n int) AgentOption {
	return func(a *Agent) {
		if n > 0 {
			a.maxIterations = n
		}
	}
}

// WithLogger sets the agent's logger.
func WithLogger(logger *slog.Logger) AgentOption {
	return func(a *Agent) { a.logger = logger }
}

// Agent runs the agentic loop: LLM → tool calls → LLM → ...
type Agent struct {
	mu             sync.RWMutex // protects llm and currentModel
	llm            llm.LLMAdapter
	executor       *tools.Executor
	registry       *tools.Registry
	systemPrompt   string
	maxIterations  int
	adapterFactory AdapterFactory // optional, for hot-swap
	currentModel   string         // display name of active model
	logger         *slog.Logger
}

// NewAgent creates a new agent. Options are applied after defaults.
func NewAgent(llmAdapter llm.LLMAdapter, executor *tools.Executor, registry *tools.Registry, systemPrompt string, opts ...AgentOption) *Agent {
	a := &Agent{
		llm:           llmAdapter,
		executor:      executor,
		registry:      registry,
		systemPrompt:  systemPrompt,
		maxIterations: 10, // Prevent infinite loops
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SwitchModel hot-swaps the LLM adapter to a different provider/model and
// releases the previous one. Requires an AdapterFactory to have been set
// via WithAdapterFactory.
func (a *Agent) SwitchModel(ctx context.Context, provider, model, displayName string) error {
	if a.adapterFactory == nil {
		return fmt.Errorf("no adapter factory configured; cannot switch models")
	}
	newAdapter, err := a.adapterFactory(ctx, provider, model)
	if err != nil {
		return fmt.Errorf("failed to create adapter for %s/%s: %w", provider, model, err)
	}
	a.mu.Lock()
	old := a.llm
	a.llm = newAdapter
	a.currentModel = displayName
	a.mu.Unlock()

	if err := llm.CloseAdapter(old); err != nil {
		a.logger.Warn("failed to close previous LLM adapter", "error", err)
	}
	a.logger.Info("model_switched", "provider", provider, "model", model, "name", displayName)
	return nil
}

// CurrentModelName returns the display name of the active model.
func (a *Agent) CurrentModelName() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.currentModel
}

// ToolNames lists the tools offered to the model.
func (a *Agent) ToolNames() []string {
	all := a.registry.GetAll()
	names := make([]string, len(all))
	for i, t := range all {
		names[i] = t.Name()
	}
	return names
}

// Stats returns call and token counters of the active adapter, when it
// keeps any.
func (a *Agent) Stats() (llm.Stats, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if s, ok := a.llm.(interface{ GetStats() llm.Stats }); ok {
		return s.GetStats(), true
	}
	return llm.Stats{}, false
}

// Close releases the active LLM adapter.
func (a *Agent) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return llm.CloseAdapter(a.llm)
}

// SendAndWait runs one turn and waits for the final answer, giving up after
// timeout (DefaultTurnTimeout when zero). Running out of time yields
// ErrTimeout; the session stays usable for the next turn.
func (a *Agent) SendAndWait(ctx context.Context, session *Session, prompt string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = DefaultTurnTimeout
	}
	turnCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	reply, err := a.Run(turnCtx, session, prompt)
	if err != nil {
		if ctx.Err() == nil && errors.Is(turnCtx.Err(), context.DeadlineExceeded) {
			a.logger.Warn("turn_timeout", "timeout", timeout)
			return "", fmt.Errorf("%w after %s", ErrTimeout, timeout)
		}
		return "", err
	}

	a.logger.Debug("turn_completed",
		"duration_ms", time.Since(start).Milliseconds(),
		"llm_calls", session.RunLLMCalls,
		"tokens", session.RunTokens,
	)
	return reply, nil
}

// Run executes the agentic loop for a user message
// The loop:
// 1. Adds user message to session history
// 2. Calls LLM with system prompt, tools, and conversation history
// 3. If LLM returns tool calls, executes them and loops back to step 2
// 4. If LLM returns no tool calls, returns the final response
func (a *Agent) Run(ctx context.Context, session *Session, userMessage string) (string, error) {
	// Reset per-run token tracking
	session.ResetRunStats()

	// Add user message to history
	session.AddMessage(llm.Message{
		Role:    "user",
		Content: userMessage,
	})

	// Get tool definitions for the LLM
	toolDefs := a.registry.ToDefinitions()

	// Agentic loop
	for i := 0; i < a.maxIterations; i++ {
		// Check context cancellation
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		// Build request with current conversation history
		req := llm.ChatRequest{
			SystemPrompt: a.systemPrompt,
			Messages:     session.Messages,
			Tools:        toolDefs,
		}

		// Call LLM (under read lock so SwitchModel can't swap mid-call)
		a.mu.RLock()
		resp, err := a.llm.Chat(ctx, req)
		a.mu.RUnlock()
		if err != nil {
			return "", fmt.Errorf("llm chat failed: %w", err)
		}

		// Track token usage
		session.AddTokenUsage(resp.Usage)

		// If no tool calls, we have the final response
		if len(resp.ToolCalls) == 0 {
			if resp.Content != "" {
				session.AddMessage(llm.Message{
					Role:    "assistant",
					Content: resp.Content,
				})
			}

			return resp.Content, nil
		}

		// The tool calls must be preserved so the LLM sees them on the next iteration
		session.AddMessage(llm.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		toolCallRequests := make([]tools.ToolCallRequest, len(resp.ToolCalls))
		for i, tc := range resp.ToolCalls {
			toolCallRequests[i] = tools.ToolCallRequest{
				ID:   tc.ID,
				Name: tc.Name,
				Args: tc.Args,
			}
		}

		// Failed tools answer with a sentence like any other result, so the
		// LLM can explain the failure to the user.
		results := a.executor.ExecuteBatch(ctx, toolCallRequests)
		session.AddMessages(a.executor.ResultsToMessages(results))
	}

	return "", fmt.Errorf("%w (%d)", ErrMaxIterations, a.maxIterations)
}
