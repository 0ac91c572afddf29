package tools

import (
	"context"

	"github.com/jaimegago/geoai/internal/llm"
)

// Tool represents an executable tool that the LLM can call
type Tool interface {
	// Name returns the tool's name
	Name() string

	// Description returns a description for the LLM
	Description() string

	// Parameters returns the parameter schema
	Parameters() llm.ParameterSchema

	// Execute runs the tool with arguments that already passed schema
	// validation. It always answers with a sentence; failures are reported
	// through the result's Outcome, never as a Go error.
	Execute(ctx context.Context, args map[string]any) llm.ToolResult
}
