package claude

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/jaimegago/geoai/internal/llm"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-sonnet-4-20250514"

// Client implements the LLMAdapter interface using Anthropic's Claude API
type Client struct {
	client anthropic.Client
	model  string
}

// APIError wraps an Anthropic API error with its HTTP status.
type APIError struct {
	Code int
	Err  error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("anthropic API error (code %d): %v", e.Code, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// APICode returns the HTTP status returned by the API.
func (e *APIError) APICode() int {
	return e.Code
}

// APIMessage returns the error text reported by the API.
func (e *APIError) APIMessage() string {
	return e.Err.Error()
}

// NewClient creates a new Claude client
// API key is read from ANTHROPIC_API_KEY environment variable
func NewClient(model string, opts ...option.RequestOption) (*Client, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
	}

	client := anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)

	if model == "" {
		model = DefaultModel
	}

	return &Client{
		client: client,
		model:  model,
	}, nil
}

// Chat sends a chat request and returns a response
func (c *Client) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	messages := c.convertMessages(req.Messages)

	var tools []anthropic.ToolUnionParam
	if len(req.Tools) > 0 {
		tools = make([]anthropic.ToolUnionParam, 0, len(req.Tools))
		for _, tool := range req.Tools {
			tools = append(tools, c.convertToolDefinition(tool))
		}
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(maxTokens),
		Messages:  messages,
	}

	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{
				Text: req.SystemPrompt,
			},
		}
	}

	if len(tools) > 0 {
		params.Tools = tools
	}

	response, err := c.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return nil, &APIError{Code: apiErr.StatusCode, Err: err}
		}
		return nil, fmt.Errorf("anthropic API call failed: %w", err)
	}

	return c.convertResponse(response), nil
}

// convertMessages maps the conversation onto Anthropic content blocks.
// Consecutive tool results are folded into a single user turn, since every
// tool_use of one assistant turn must be answered in the next user turn.
func (c *Client) convertMessages(history []llm.Message) []anthropic.MessageParam {
	messages := make([]anthropic.MessageParam, 0, len(history))
	var pending []anthropic.ContentBlockParamUnion

	flush := func() {
		if len(pending) > 0 {
			messages = append(messages, anthropic.NewUserMessage(pending...))
			pending = nil
		}
	}

	for _, msg := range history {
		if msg.IsToolResult() {
			pending = append(pending, anthropic.NewToolResultBlock(msg.ToolResultID, msg.Content, msg.IsError))
			continue
		}
		flush()

		switch msg.Role {
		case "assistant":
			blocks := make([]anthropic.ContentBlockParamUnion, 0, len(msg.ToolCalls)+1)
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, tc.Args, tc.Name))
			}
			if len(blocks) == 0 {
				continue
			}
			messages = append(messages, anthropic.NewAssistantMessage(blocks...))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	flush()

	return messages
}

// convertToolDefinition converts our tool definition to Anthropic format
func (c *Client) convertToolDefinition(tool llm.ToolDefinition) anthropic.ToolUnionParam {
	schema := tool.Parameters.ToMap()

	inputSchema := anthropic.ToolInputSchemaParam{
		Properties: schema["properties"],
	}
	if len(tool.Parameters.Required) > 0 {
		inputSchema.Required = tool.Parameters.Required
	}

	return anthropic.ToolUnionParam{
		OfTool: &anthropic.ToolParam{
			Name:        tool.Name,
			Description: anthropic.String(tool.Description),
			InputSchema: inputSchema,
		},
	}
}

// convertResponse converts Anthropic response to our response format
func (c *Client) convertResponse(response *anthropic.Message) *llm.ChatResponse {
	result := &llm.ChatResponse{
		Usage: llm.TokenUsage{
			InputTokens:  int(response.Usage.InputTokens),
			OutputTokens: int(response.Usage.OutputTokens),
			TotalTokens:  int(response.Usage.InputTokens + response.Usage.OutputTokens),
		},
	}

	for _, block := range response.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			result.Content += b.Text
		case anthropic.ToolUseBlock:
			args := make(map[string]any)
			if err := json.Unmarshal(b.Input, &args); err == nil {
				result.ToolCalls = append(result.ToolCalls, llm.ToolCall{
					ID:   b.ID,
					Name: b.Name,
					Args: args,
				})
			}
		}
	}

	return result
}
