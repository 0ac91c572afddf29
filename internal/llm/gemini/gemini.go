package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"github.com/jaimegago/geoai/internal/llm"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.0-flash"

// Client implements the LLMAdapter interface using Google's Gemini API
type Client struct {
	client *genai.Client
	model  string
}

// APIError represents an error from the Gemini API with structured details
type APIError struct {
	Code    int    // HTTP status code
	Message string // Raw API error message
	Err     error  // Enhanced error with user-friendly message
}

func (e *APIError) Error() string {
	return e.Err.Error()
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// APICode returns the HTTP status code from the API
func (e *APIError) APICode() int {
	return e.Code
}

// APIMessage returns the raw error message from the API
func (e *APIError) APIMessage() string {
	return e.Message
}

// NewClient creates a new Gemini client
// API key is read from GEMINI_API_KEY or GOOGLE_API_KEY environment variable
func NewClient(ctx context.Context, model string) (*Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY or GOOGLE_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

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
	model := c.client.GenerativeModel(c.model)

	if req.SystemPrompt != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{
				genai.Text(req.SystemPrompt),
			},
		}
	}

	if len(req.Tools) > 0 {
		tools := make([]*genai.Tool, 0, len(req.Tools))
		for _, tool := range req.Tools {
			tools = append(tools, c.convertToolDefinition(tool))
		}
		model.Tools = tools
	}

	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}

	history, last := splitHistory(convertMessages(req.Messages))

	chat := model.StartChat()
	chat.History = history

	resp, err := chat.SendMessage(ctx, last...)
	if err != nil {
		return nil, c.enhanceError(ctx, err)
	}

	return c.convertResponse(resp), nil
}

// convertMessages maps the conversation onto Gemini contents. Function
// responses answering one model turn are grouped into a single user content.
func convertMessages(messages []llm.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	var pending []genai.Part

	flush := func() {
		if len(pending) > 0 {
			contents = append(contents, &genai.Content{Role: "user", Parts: pending})
			pending = nil
		}
	}

	for _, msg := range messages {
		if msg.IsToolResult() {
			var response map[string]any
			if err := json.Unmarshal([]byte(msg.Content), &response); err != nil {
				response = map[string]any{"result": msg.Content}
			}
			pending = append(pending, genai.FunctionResponse{
				Name:     msg.ToolName,
				Response: response,
			})
			continue
		}
		flush()

		if msg.Role == "assistant" {
			var parts []genai.Part
			if msg.Content != "" {
				parts = append(parts, genai.Text(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				parts = append(parts, genai.FunctionCall{
					Name: tc.Name,
					Args: tc.Args,
				})
			}
			if len(parts) > 0 {
				contents = append(contents, &genai.Content{Role: "model", Parts: parts})
			}
			continue
		}

		contents = append(contents, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(msg.Content)}})
	}
	flush()

	return contents
}

// splitHistory separates the trailing user content, which SendMessage sends,
// from the preceding history.
func splitHistory(contents []*genai.Content) ([]*genai.Content, []genai.Part) {
	if n := len(contents); n > 0 && contents[n-1].Role == "user" {
		return contents[:n-1], contents[n-1].Parts
	}
	return contents, []genai.Part{genai.Text("")}
}

// convertToolDefinition converts our tool definition to Gemini format
func (c *Client) convertToolDefinition(tool llm.ToolDefinition) *genai.Tool {
	properties := make(map[string]*genai.Schema, len(tool.Parameters.Properties))
	for name, prop := range tool.Parameters.Properties {
		properties[name] = &genai.Schema{
			Type:        schemaType(prop.Type),
			Description: prop.Description,
		}
	}

	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters: &genai.Schema{
					Type:       genai.TypeObject,
					Properties: properties,
					Required:   tool.Parameters.Required,
				},
			},
		},
	}
}

func schemaType(t string) genai.Type {
	switch t {
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

// convertResponse converts Gemini response to our response format
func (c *Client) convertResponse(resp *genai.GenerateContentResponse) *llm.ChatResponse {
	result := &llm.ChatResponse{}
	if resp.UsageMetadata != nil {
		result.Usage = llm.TokenUsage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:  int(resp.UsageMetadata.TotalTokenCount),
		}
	}

	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}

		for _, part := range candidate.Content.Parts {
			switch v := part.(type) {
			case genai.Text:
				result.Content += string(v)
			case genai.FunctionCall:
				args := make(map[string]any, len(v.Args))
				for k, val := range v.Args {
					args[k] = val
				}

				// Gemini has no call IDs; tool results are matched by name.
				result.ToolCalls = append(result.ToolCalls, llm.ToolCall{
					ID:   "call_" + uuid.NewString(),
					Name: v.Name,
					Args: args,
				})
			}
		}
	}

	return result
}

// enhanceError provides better error messages for common API errors
// Returns *APIError with structured details for logging
func (c *Client) enhanceError(ctx context.Context, err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("gemini API call failed: %w", err)
	}

	var enhancedErr error
	switch apiErr.Code {
	case 404:
		hint := ""
		if !strings.HasPrefix(c.model, "gemini") {
			hint = fmt.Sprintf("\n\nNote: '%s' does not look like a Gemini model name.", c.model)
		}
		available := c.listAvailableModels(ctx)
		if len(available) == 0 {
			available = []string{DefaultModel}
		}
		enhancedErr = fmt.Errorf("model '%s' not found for Gemini provider.%s\n\nAvailable models:\n  - %s\n\nUpdate your config file or use:\n  export GEOAI_LLM_MODEL=%s",
			c.model, hint, strings.Join(available, "\n  - "), available[0])
	case 400:
		enhancedErr = fmt.Errorf("invalid request to Gemini API: %s", apiErr.Message)
	case 403:
		enhancedErr = fmt.Errorf("authentication failed with Gemini API: %s\n\nCheck that your GEMINI_API_KEY is valid.", apiErr.Message)
	case 429:
		enhancedErr = fmt.Errorf("rate limit exceeded for Gemini API: %s\n\nWait a few minutes, or switch models with /model.", apiErr.Message)
	default:
		enhancedErr = fmt.Errorf("Gemini API error (%d): %s", apiErr.Code, apiErr.Message)
	}

	return &APIError{
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Err:     enhancedErr,
	}
}

// listAvailableModels fetches up to ten models that support generateContent.
func (c *Client) listAvailableModels(ctx context.Context) []string {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	iter := c.client.ListModels(ctx)
	var models []string

	for len(models) < 10 {
		model, err := iter.Next()
		if err != nil {
			break
		}
		if model == nil || !strings.HasPrefix(model.Name, "models/") {
			continue
		}
		for _, method := range model.SupportedGenerationMethods {
			if method == "generateContent" {
				models = append(models, strings.TrimPrefix(model.Name, "models/"))
				break
			}
		}
	}

	return models
}

// Close closes the Gemini client
func (c *Client) Close() error {
	return c.client.Close()
}
