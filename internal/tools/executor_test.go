package tools

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jaimegago/geoai/internal/llm"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// placeTool is a mock with the same schema as get_coordinates.
func placeTool(exec func(ctx context.Context, args map[string]any) llm.ToolResult) *mockTool {
	return &mockTool{
		name: "get_coordinates",
		params: llm.ParameterSchema{
			Type: "object",
			Properties: map[string]llm.Property{
				"place_name": {Type: "string", Description: "Place to look up"},
			},
			Required: []string{"place_name"},
		},
		executeFunc: exec,
	}
}

func TestNewExecutor(t *testing.T) {
	registry := NewRegistry()
	executor := NewExecutor(registry)

	if executor == nil {
		t.Fatal("NewExecutor() returned nil")
	}
	if executor.registry != registry {
		t.Error("NewExecutor() did not set registry correctly")
	}
}

func TestExecutor_Execute(t *testing.T) {
	echoPlace := func(ctx context.Context, args map[string]any) llm.ToolResult {
		return llm.OK("looked up " + args["place_name"].(string))
	}

	tests := []struct {
		name        string
		toolName    string
		args        map[string]any
		wantOutcome llm.ToolOutcome
		wantContent string
		wantCalled  bool
	}{
		{
			name:        "valid arguments",
			toolName:    "get_coordinates",
			args:        map[string]any{"place_name": "Bangkok"},
			wantOutcome: llm.OutcomeOK,
			wantContent: "looked up Bangkok",
			wantCalled:  true,
		},
		{
			name:        "unknown tool",
			toolName:    "nonexistent",
			args:        map[string]any{},
			wantOutcome: llm.OutcomeInvalidInput,
			wantContent: `Invalid input: unknown tool "nonexistent".`,
		},
		{
			name:        "missing required field",
			toolName:    "get_coordinates",
			args:        map[string]any{},
			wantOutcome: llm.OutcomeInvalidInput,
			wantContent: "Invalid input for get_coordinates",
		},
		{
			name:        "nil arguments",
			toolName:    "get_coordinates",
			args:        nil,
			wantOutcome: llm.OutcomeInvalidInput,
			wantContent: "Invalid input for get_coordinates",
		},
		{
			name:        "wrong type",
			toolName:    "get_coordinates",
			args:        map[string]any{"place_name": 42},
			wantOutcome: llm.OutcomeInvalidInput,
			wantContent: "Invalid input for get_coordinates",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called bool
			registry := NewRegistry()
			registry.Register(placeTool(func(ctx context.Context, args map[string]any) llm.ToolResult {
				called = true
				return echoPlace(ctx, args)
			}))
			executor := NewExecutor(registry)

			got := executor.Execute(context.Background(), tt.toolName, tt.args)

			if got.Outcome != tt.wantOutcome {
				t.Errorf("Execute() outcome = %v, want %v", got.Outcome, tt.wantOutcome)
			}
			if !strings.HasPrefix(got.Content, tt.wantContent) {
				t.Errorf("Execute() content = %q, want prefix %q", got.Content, tt.wantContent)
			}
			if called != tt.wantCalled {
				t.Errorf("tool called = %v, want %v", called, tt.wantCalled)
			}
		})
	}
}

func TestExecutor_ExecuteBatch(t *testing.T) {
	registry := NewRegistry()
	registry.Register(placeTool(func(ctx context.Context, args map[string]any) llm.ToolResult {
		name := args["place_name"].(string)
		if name == "Atlantis" {
			return llm.Failed(llm.OutcomeNotFound, "Could not find coordinates for Atlantis.")
		}
		return llm.OK(name + " found")
	}))
	executor := NewExecutor(registry)

	calls := []ToolCallRequest{
		{ID: "call-1", Name: "get_coordinates", Args: map[string]any{"place_name": "Paris"}},
		{ID: "call-2", Name: "get_coordinates", Args: map[string]any{"place_name": "Atlantis"}},
		{ID: "call-3", Name: "missing_tool", Args: map[string]any{}},
		{ID: "call-4", Name: "get_coordinates", Args: map[string]any{"place_name": "London"}},
	}

	results := executor.ExecuteBatch(context.Background(), calls)

	if len(results) != len(calls) {
		t.Fatalf("ExecuteBatch() returned %d results, want %d", len(results), len(calls))
	}
	want := []struct {
		outcome llm.ToolOutcome
		content string
	}{
		{llm.OutcomeOK, "Paris found"},
		{llm.OutcomeNotFound, "Could not find coordinates for Atlantis."},
		{llm.OutcomeInvalidInput, `Invalid input: unknown tool "missing_tool".`},
		{llm.OutcomeOK, "London found"},
	}
	for i, r := range results {
		if r.ID != calls[i].ID || r.Name != calls[i].Name {
			t.Errorf("results[%d] = %s/%s, want %s/%s", i, r.ID, r.Name, calls[i].ID, calls[i].Name)
		}
		if r.Result.Outcome != want[i].outcome || r.Result.Content != want[i].content {
			t.Errorf("results[%d] = %+v, want %+v", i, r.Result, want[i])
		}
	}
}

func TestExecutor_ExecuteBatchEmpty(t *testing.T) {
	executor := NewExecutor(NewRegistry())
	if results := executor.ExecuteBatch(context.Background(), nil); len(results) != 0 {
		t.Errorf("ExecuteBatch() returned %d results, want 0", len(results))
	}
}

func TestExecutor_ExecuteBatchRunsConcurrently(t *testing.T) {
	var inFlight, peak atomic.Int32
	registry := NewRegistry()
	registry.Register(placeTool(func(ctx context.Context, args map[string]any) llm.ToolResult {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
		return llm.OK("done")
	}))
	executor := NewExecutor(registry)

	calls := make([]ToolCallRequest, 4)
	for i := range calls {
		calls[i] = ToolCallRequest{ID: string(rune('a' + i)), Name: "get_coordinates", Args: map[string]any{"place_name": "x"}}
	}
	executor.ExecuteBatch(context.Background(), calls)

	if peak.Load() < 2 {
		t.Errorf("peak concurrency = %d, want at least 2", peak.Load())
	}
}

func TestExecutor_ContextCancellation(t *testing.T) {
	registry := NewRegistry()
	registry.Register(placeTool(func(ctx context.Context, args map[string]any) llm.ToolResult {
		<-ctx.Done()
		return llm.Failed(llm.OutcomeServiceUnavailable, "Geocoding service error while looking up x: "+ctx.Err().Error())
	}))

	executor := NewExecutor(registry)
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	got := executor.Execute(ctx, "get_coordinates", map[string]any{"place_name": "x"})
	if got.Outcome != llm.OutcomeServiceUnavailable {
		t.Errorf("Execute() outcome = %v, want service_unavailable", got.Outcome)
	}
	if !strings.Contains(got.Content, "context canceled") {
		t.Errorf("Execute() content = %q", got.Content)
	}
}

func TestResultToMessage(t *testing.T) {
	tests := []struct {
		name        string
		result      ToolCallResult
		wantIsError bool
	}{
		{
			name: "successful result",
			result: ToolCallResult{
				ID:     "call-1",
				Name:   "get_coordinates",
				Result: llm.OK("Bangkok is located at Lat: 13.7563, Lon: 100.5018"),
			},
		},
		{
			name: "not found is not an error",
			result: ToolCallResult{
				ID:     "call-2",
				Name:   "get_coordinates",
				Result: llm.Failed(llm.OutcomeNotFound, "Could not find coordinates for Atlantis."),
			},
		},
		{
			name: "service failure is an error",
			result: ToolCallResult{
				ID:     "call-3",
				Name:   "calculate_distance",
				Result: llm.Failed(llm.OutcomeServiceUnavailable, "Geocoding service error while looking up Paris: status 503"),
			},
			wantIsError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := ResultToMessage(tt.result)

			if msg.Role != "user" {
				t.Errorf("ResultToMessage() role = %s, want user", msg.Role)
			}
			if !msg.IsToolResult() || msg.ToolResultID != tt.result.ID {
				t.Errorf("ResultToMessage() ToolResultID = %q, want %q", msg.ToolResultID, tt.result.ID)
			}
			if msg.ToolName != tt.result.Name {
				t.Errorf("ResultToMessage() ToolName = %q, want %q", msg.ToolName, tt.result.Name)
			}
			if msg.Content != tt.result.Result.Content {
				t.Errorf("ResultToMessage() content = %q", msg.Content)
			}
			if msg.IsError != tt.wantIsError {
				t.Errorf("ResultToMessage() IsError = %v, want %v", msg.IsError, tt.wantIsError)
			}
		})
	}
}

func TestExecutor_ResultsToMessages(t *testing.T) {
	executor := NewExecutor(NewRegistry())
	results := []ToolCallResult{
		{ID: "call-1", Name: "get_coordinates", Result: llm.OK("ok")},
		{ID: "call-2", Name: "reverse_geocode", Result: llm.Failed(llm.OutcomeInvalidInput, "Invalid input: latitude 91 is out of range [-90, 90].")},
	}

	messages := executor.ResultsToMessages(results)

	if len(messages) != 2 {
		t.Fatalf("ResultsToMessages() returned %d messages, want 2", len(messages))
	}
	for i, msg := range messages {
		if msg.ToolResultID != results[i].ID {
			t.Errorf("messages[%d].ToolResultID = %s, want %s", i, msg.ToolResultID, results[i].ID)
		}
	}
	if !messages[1].IsError {
		t.Error("invalid input result should be flagged as error")
	}
}

func TestExecutor_TracesExecution(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	registry := NewRegistry()
	registry.Register(placeTool(func(ctx context.Context, args map[string]any) llm.ToolResult {
		return llm.Failed(llm.OutcomeNotFound, "Could not find coordinates for Atlantis.")
	}))
	executor := NewExecutor(registry)

	executor.Execute(context.Background(), "get_coordinates", map[string]any{"place_name": "Atlantis"})

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(spans))
	}
	if spans[0].Name() != "tool.execute" {
		t.Errorf("span name = %s, want tool.execute", spans[0].Name())
	}
	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsString()
	}
	if attrs["tool.name"] != "get_coordinates" || attrs["tool.outcome"] != "not_found" {
		t.Errorf("span attributes = %v", attrs)
	}
}
