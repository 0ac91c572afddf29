package llm

import (
	"context"
	"io"
)

// LLMAdapter is the interface for AI providers (Claude, Gemini, OpenAI).
// The agent loop only depends on this interface, so providers can be swapped
// at runtime.
type LLMAdapter interface {
	// Chat sends a chat request and returns a response
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// CloseAdapter releases the adapter's resources when it holds any. Adapters
// that own a client connection (Gemini) implement io.Closer.
func CloseAdapter(a LLMAdapter) error {
	if c, ok := a.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// ChatRequest represents a request to the LLM
type ChatRequest struct {
	SystemPrompt string
	Messages     []Message
	Tools        []ToolDefinition
	MaxTokens    int
}

// ChatResponse represents a response from the LLM
type ChatResponse struct {
	Content   string
	ToolCalls []ToolCall
	Usage     TokenUsage
}

// Message represents a message in the conversation
type Message struct {
	Role         string     // "user", "assistant"
	Content      string     // Text content
	ToolCalls    []ToolCall // For assistant messages: the tool calls made
	ToolResultID string     // For tool result messages: references the tool call ID
	ToolName     string     // For tool result messages: the tool name (needed by Gemini)
	IsError      bool       // For tool result messages: whether the result is an error
}

// IsToolResult reports whether the message carries the result of a tool call.
func (m Message) IsToolResult() bool {
	return m.ToolResultID != ""
}

// ToolDefinition describes a tool available to the LLM
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  ParameterSchema
}

// ParameterSchema defines the structure of tool parameters
type ParameterSchema struct {
	Type       string
	Properties map[string]Property
	Required   []string
}

// Property defines a single parameter property
type Property struct {
	Type        string
	Description string
	Items       *Property // For array types: describes array items
}

// ToMap renders the schema as a JSON-schema style map, the shape most
// provider SDKs accept for function parameters.
func (s ParameterSchema) ToMap() map[string]any {
	props := make(map[string]any, len(s.Properties))
	for name, p := range s.Properties {
		props[name] = p.toMap()
	}
	typ := s.Type
	if typ == "" {
		typ = "object"
	}
	m := map[string]any{
		"type":       typ,
		"properties": props,
	}
	if len(s.Required) > 0 {
		m["required"] = s.Required
	}
	return m
}

func (p Property) toMap() map[string]any {
	m := map[string]any{"type": p.Type}
	if p.Description != "" {
		m["description"] = p.Description
	}
	if p.Items != nil {
		m["items"] = p.Items.toMap()
	}
	return m
}

// ToolCall represents a tool call from the LLM
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// TokenUsage tracks token consumption
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
