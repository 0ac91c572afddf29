package tools

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/jaimegago/geoai/internal/llm"
)

// compileSchema turns a tool's parameter schema into a resolved JSON schema
// that tool-call arguments can be checked against.
func compileSchema(params llm.ParameterSchema) (*jsonschema.Resolved, error) {
	raw, err := json.Marshal(params.ToMap())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal parameter schema: %w", err)
	}

	var schema jsonschema.Schema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, fmt.Errorf("failed to unmarshal parameter schema: %w", err)
	}

	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve parameter schema: %w", err)
	}
	return resolved, nil
}

// validateArgs checks args against the tool's schema. A nil args map is
// treated as an empty object.
func validateArgs(resolved *jsonschema.Resolved, args map[string]any) error {
	if args == nil {
		args = map[string]any{}
	}
	// Round-trip through JSON so numbers arrive as float64 whatever the
	// provider SDK decoded them as.
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("arguments are not valid JSON: %w", err)
	}
	var instance map[string]any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return fmt.Errorf("arguments are not a JSON object: %w", err)
	}
	return resolved.Validate(instance)
}
