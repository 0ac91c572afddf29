package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/jaimegago/geoai/internal/llm"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-5-mini"

// Client implements the LLMAdapter interface using the OpenAI chat
// completions API. Compatible servers work through OPENAI_BASE_URL.
type Client struct {
	client openai.Client
	model  string
}

// APIError wraps an OpenAI API error with its HTTP status.
type APIError struct {
	Code    int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("openai API error (code %d): %s", e.Code, e.Message)
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
	return e.Message
}

// NewClient creates a new OpenAI client.
// API key is read from OPENAI_API_KEY environment variable
func NewClient(model string, opts ...option.RequestOption) (*Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	if model == "" {
		model = DefaultModel
	}

	return &Client{
		client: openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...),
		model:  model,
	}, nil
}

// Chat sends a chat request and returns a response
func (c *Client) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	params := openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: convertMessages(req.SystemPrompt, req.Messages),
	}
	if tools := convertTools(req.Tools); len(tools) > 0 {
		params.Tools = tools
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return nil, &APIError{Code: apiErr.StatusCode, Message: apiErr.Message, Err: err}
		}
		return nil, fmt.Errorf("openai API call failed: %w", err)
	}

	return convertResponse(resp), nil
}

func convertMessages(systemPrompt string, messages []llm.Message) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	if systemPrompt != "" {
		msgs = append(msgs, openai.SystemMessage(systemPrompt))
	}

	for _, m := range messages {
		switch {
		case m.IsToolResult():
			msgs = append(msgs, openai.ToolMessage(m.Content, m.ToolResultID))
		case m.Role == "assistant" && len(m.ToolCalls) > 0:
			toolCalls := make([]openai.ChatCompletionMessageToolCallParam, len(m.ToolCalls))
			for i, tc := range m.ToolCalls {
				args, err := json.Marshal(tc.Args)
				if err != nil {
					args = []byte("{}")
				}
				toolCalls[i] = openai.ChatCompletionMessageToolCallParam{
					ID: tc.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: string(args),
					},
				}
			}
			asst := openai.ChatCompletionAssistantMessageParam{ToolCalls: toolCalls}
			if m.Content != "" {
				asst.Content.OfString = openai.String(m.Content)
			}
			msgs = append(msgs, openai.ChatCompletionMessageParamUnion{OfAssistant: &asst})
		case m.Role == "assistant":
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}
	return msgs
}

func convertTools(tools []llm.ToolDefinition) []openai.ChatCompletionToolParam {
	if len(tools) == 0 {
		return nil
	}
	result := make([]openai.ChatCompletionToolParam, len(tools))
	for i, t := range tools {
		result[i] = openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  openai.FunctionParameters(t.Parameters.ToMap()),
			},
		}
	}
	return result
}

func convertResponse(resp *openai.ChatCompletion) *llm.ChatResponse {
	result := &llm.ChatResponse{
		Usage: llm.TokenUsage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:  int(resp.Usage.TotalTokens),
		},
	}

	if len(resp.Choices) == 0 {
		return result
	}

	msg := resp.Choices[0].Message
	result.Content = msg.Content
	for _, tc := range msg.ToolCalls {
		args := make(map[string]any)
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				// Let the executor report the bad payload back to the model.
				args = map[string]any{}
			}
		}
		result.ToolCalls = append(result.ToolCalls, llm.ToolCall{
			ID:   tc.ID,
			Name: tc.Function.Name,
			Args: args,
		})
	}

	return result
}
