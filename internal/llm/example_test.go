package llm_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jaimegago/geoai/internal/llm"
	"github.com/jaimegago/geoai/internal/llm/claude"
	"github.com/jaimegago/geoai/internal/llm/gemini"
	"github.com/jaimegago/geoai/internal/llm/openai"
)

var getCoordinates = llm.ToolDefinition{
	Name:        "get_coordinates",
	Description: "Get the latitude and longitude of a specific city or place name.",
	Parameters: llm.ParameterSchema{
		Type: "object",
		Properties: map[string]llm.Property{
			"place_name": {
				Type:        "string",
				Description: "The name of the city or place (e.g., 'Bangkok')",
			},
		},
		Required: []string{"place_name"},
	},
}

// The same request works against every provider; only the adapter changes.
func Example_providerAgnostic() {
	ctx := context.Background()

	var adapters []llm.LLMAdapter
	if os.Getenv("OPENAI_API_KEY") != "" {
		if c, err := openai.NewClient(""); err == nil {
			adapters = append(adapters, c)
		}
	}
	if os.Getenv("ANTHROPIC_API_KEY") != "" {
		if c, err := claude.NewClient(""); err == nil {
			adapters = append(adapters, c)
		}
	}
	if os.Getenv("GEMINI_API_KEY") != "" {
		if c, err := gemini.NewClient(ctx, ""); err == nil {
			defer c.Close()
			adapters = append(adapters, c)
		}
	}

	for _, adapter := range adapters {
		resp, err := adapter.Chat(ctx, llm.ChatRequest{
			SystemPrompt: "You are a helpful geography assistant",
			Messages:     []llm.Message{{Role: "user", Content: "Where is Bangkok?"}},
			Tools:        []llm.ToolDefinition{getCoordinates},
		})
		if err != nil {
			fmt.Printf("chat error: %v\n", err)
			continue
		}
		for _, tc := range resp.ToolCalls {
			fmt.Printf("model wants %s(%v)\n", tc.Name, tc.Args)
		}
	}
}

func ExampleParameterSchema_ToMap() {
	schema, _ := json.Marshal(getCoordinates.Parameters.ToMap())
	fmt.Println(string(schema))
	// Output: {"properties":{"place_name":{"description":"The name of the city or place (e.g., 'Bangkok')","type":"string"}},"required":["place_name"],"type":"object"}
}
