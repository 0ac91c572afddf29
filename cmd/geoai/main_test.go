package main

import (
	"context"
	"testing"

	"github.com/jaimegago/geoai/internal/llm"
	"github.com/jaimegago/geoai/internal/tools"
	"github.com/jaimegago/geoai/internal/useragent"
)

type closeCountingLLM struct {
	closes int
}

func (m *closeCountingLLM) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	return &llm.ChatResponse{Content: "ok"}, nil
}

func (m *closeCountingLLM) Close() error {
	m.closes++
	return nil
}

func newTestAgent(adapter llm.LLMAdapter, opts ...useragent.AgentOption) *useragent.Agent {
	registry := tools.NewRegistry()
	return useragent.NewAgent(adapter, tools.NewExecutor(registry), registry, "", opts...)
}

func TestLLMClient_ClosesAdapterBeforeAgentExists(t *testing.T) {
	adapter := &closeCountingLLM{}
	client := &llmClient{adapter: adapter}

	if err := client.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if adapter.closes != 1 {
		t.Errorf("adapter closed %d times, want 1", adapter.closes)
	}
}

func TestLLMClient_AgentOwnsAdapterOnceAttached(t *testing.T) {
	first := &closeCountingLLM{}
	second := &closeCountingLLM{}
	factory := func(ctx context.Context, provider, model string) (llm.LLMAdapter, error) {
		return second, nil
	}

	client := &llmClient{adapter: first}
	client.agent = newTestAgent(first, useragent.WithAdapterFactory(factory))

	if err := client.agent.SwitchModel(context.Background(), "claude", "claude-sonnet", "claude-sonnet"); err != nil {
		t.Fatalf("SwitchModel() error = %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if first.closes != 1 {
		t.Errorf("original adapter closed %d times, want 1", first.closes)
	}
	if second.closes != 1 {
		t.Errorf("switched-to adapter closed %d times, want 1", second.closes)
	}
}
