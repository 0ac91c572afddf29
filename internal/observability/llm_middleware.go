package observability

import (
	"context"

	"github.com/jaimegago/geoai/internal/llm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "geoai/llm"

// LLMMiddleware wraps an LLM adapter with a span per call. Metrics are
// recorded by llm.InstrumentedAdapter; the two are meant to be stacked.
type LLMMiddleware struct {
	adapter  llm.LLMAdapter
	provider string
	model    string
	tracer   trace.Tracer
}

// NewLLMMiddleware creates a tracing middleware around adapter.
func NewLLMMiddleware(adapter llm.LLMAdapter, provider, model string) *LLMMiddleware {
	return &LLMMiddleware{
		adapter:  adapter,
		provider: provider,
		model:    model,
		tracer:   Tracer(instrumentationName),
	}
}

// Chat implements llm.LLMAdapter
func (m *LLMMiddleware) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	attrs := append(LLMAttributes(m.provider, m.model),
		attribute.Int("llm.messages.count", len(req.Messages)),
		attribute.Int("llm.tools.count", len(req.Tools)),
	)
	ctx, span := m.tracer.Start(ctx, "llm.chat", trace.WithAttributes(attrs...))
	defer span.End()

	resp, err := m.adapter.Chat(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		return nil, err
	}

	toolNames := make([]string, len(resp.ToolCalls))
	for i, tc := range resp.ToolCalls {
		toolNames[i] = tc.Name
	}
	span.SetAttributes(
		attribute.Int("llm.tokens.input", resp.Usage.InputTokens),
		attribute.Int("llm.tokens.output", resp.Usage.OutputTokens),
		attribute.Int("llm.tokens.total", resp.Usage.TotalTokens),
		attribute.StringSlice("llm.tool_calls", toolNames),
	)
	span.SetStatus(codes.Ok, "")
	return resp, nil
}

// Close releases the wrapped adapter.
func (m *LLMMiddleware) Close() error {
	return llm.CloseAdapter(m.adapter)
}
