package tools

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/jaimegago/geoai/internal/llm"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const tracerName = "github.com/jaimegago/geoai/internal/tools"

// Executor executes tool calls from the LLM
type Executor struct {
	registry *Registry
	logger   *slog.Logger
	tracer   trace.Tracer

	mu      sync.Mutex
	schemas map[string]*jsonschema.Resolved
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithExecutorLogger sets the executor's logger.
func WithExecutorLogger(logger *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		e.logger = logger
	}
}

// NewExecutor creates a new tool executor
func NewExecutor(registry *Registry, opts ...ExecutorOption) *Executor {
	e := &Executor{
		registry: registry,
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
		schemas:  make(map[string]*jsonschema.Resolved),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute executes a single tool call. Unknown tools and arguments that do
// not match the tool's schema are answered with an invalid-input result
// without invoking the tool.
func (e *Executor) Execute(ctx context.Context, name string, args map[string]any) llm.ToolResult {
	ctx, span := e.tracer.Start(ctx, "tool.execute", trace.WithAttributes(
		attribute.String("tool.name", name),
	))
	defer span.End()

	result := e.execute(ctx, name, args)

	span.SetAttributes(attribute.String("tool.outcome", result.Outcome.String()))
	e.logger.Debug("tool_executed", "tool", name, "outcome", result.Outcome.String())
	return result
}

func (e *Executor) execute(ctx context.Context, name string, args map[string]any) llm.ToolResult {
	tool, err := e.registry.Get(name)
	if err != nil {
		return llm.Failed(llm.OutcomeInvalidInput, fmt.Sprintf("Invalid input: unknown tool %q.", name))
	}

	resolved, err := e.schemaFor(tool)
	if err != nil {
		// Tools still check their own arguments.
		e.logger.Error("tool_schema_invalid", "tool", name, "error", err)
		return tool.Execute(ctx, args)
	}

	if err := validateArgs(resolved, args); err != nil {
		return llm.Failed(llm.OutcomeInvalidInput, fmt.Sprintf("Invalid input for %s: %v", name, err))
	}

	return tool.Execute(ctx, args)
}

func (e *Executor) schemaFor(tool Tool) (*jsonschema.Resolved, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if resolved, ok := e.schemas[tool.Name()]; ok {
		return resolved, nil
	}
	resolved, err := compileSchema(tool.Parameters())
	if err != nil {
		return nil, err
	}
	e.schemas[tool.Name()] = resolved
	return resolved, nil
}

// ExecuteBatch executes the tool calls of one model turn concurrently.
// Results are returned in call order, one per call; each call's failure is
// carried in its own result.
func (e *Executor) ExecuteBatch(ctx context.Context, calls []ToolCallRequest) []ToolCallResult {
	if len(calls) == 0 {
		return nil
	}

	results := make([]ToolCallResult, len(calls))
	var g errgroup.Group
	for i, call := range calls {
		g.Go(func() error {
			results[i] = ToolCallResult{
				ID:     call.ID,
				Name:   call.Name,
				Result: e.Execute(ctx, call.Name, call.Args),
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// ResultsToMessages converts tool call results to LLM messages
// This formats the results in a way that can be appended to the conversation history
func (e *Executor) ResultsToMessages(results []ToolCallResult) []llm.Message {
	messages := make([]llm.Message, len(results))

	for i, result := range results {
		messages[i] = ResultToMessage(result)
	}

	return messages
}

// ResultToMessage converts a single tool call result to an LLM message
func ResultToMessage(result ToolCallResult) llm.Message {
	return llm.Message{
		Role:         "user", // Tool results are sent as user messages in the conversation
		Content:      result.Result.Content,
		ToolResultID: result.ID,
		ToolName:     result.Name,
		IsError:      result.Result.IsError(),
	}
}

// ToolCallRequest represents a request to execute a tool
type ToolCallRequest struct {
	ID   string
	Name string
	Args map[string]any
}

// ToolCallResult represents the result of executing a tool
type ToolCallResult struct {
	ID     string
	Name   string
	Result llm.ToolResult
}
