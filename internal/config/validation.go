package config

import (
	"fmt"
	"os"
	"strings"
)

// providerKeys lists, per provider, the environment variables that can hold
// its API key. Any one of them is enough.
var providerKeys = map[string][]string{
	"openai": {"OPENAI_API_KEY"},
	"claude": {"ANTHROPIC_API_KEY"},
	"gemini": {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
}

// ValidateAPIKeys validates that required API keys are set for the given model configuration.
func ValidateAPIKeys(mc ModelConfig) error {
	keys, ok := providerKeys[mc.Provider]
	if !ok {
		return fmt.Errorf("unsupported LLM provider: %s", mc.Provider)
	}
	for _, k := range keys {
		if os.Getenv(k) != "" {
			return nil
		}
	}
	return fmt.Errorf("%s environment variable is required for %s provider", strings.Join(keys, " or "), mc.Provider)
}

// ValidateAPIKeysWithUserMessage validates API keys and returns a user-friendly error message.
// This is suitable for CLI output where we want to show detailed setup instructions.
func ValidateAPIKeysWithUserMessage(mc ModelConfig) error {
	const supported = "Currently supported LLMs:\n" +
		"  - OpenAI - requires OPENAI_API_KEY\n" +
		"  - Claude (Anthropic) - requires ANTHROPIC_API_KEY\n" +
		"  - Gemini (Google) - requires GEMINI_API_KEY or GOOGLE_API_KEY"

	keys, ok := providerKeys[mc.Provider]
	if !ok {
		return fmt.Errorf("You need to connect GeoAI to an LLM.\n\n%s\n\nConfigured provider '%s' is not supported.", supported, mc.Provider)
	}

	if err := ValidateAPIKeys(mc); err != nil {
		return fmt.Errorf("You need to connect GeoAI to an LLM.\n\n%s is configured but %s is not set.\n\n%s\n\nTo use %s:\n  export %s=your-api-key-here\n\nKeys can also be placed in a .env file in the working directory.",
			mc.Provider, strings.Join(keys, " / "), supported, mc.Provider, keys[0])
	}
	return nil
}
