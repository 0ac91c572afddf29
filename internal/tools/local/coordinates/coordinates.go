package coordinates

import (
	"context"
	"fmt"

	"github.com/jaimegago/geoai/internal/geo"
	"github.com/jaimegago/geoai/internal/llm"
	"github.com/jaimegago/geoai/internal/tools/local"
)

// Tool resolves a place name to latitude and longitude.
type Tool struct {
	geocoder local.Geocoder
	progress *local.Progress
}

// NewTool creates a new get_coordinates tool
func NewTool(geocoder local.Geocoder, progress *local.Progress) *Tool {
	return &Tool{geocoder: geocoder, progress: progress}
}

// Name returns the tool's name
func (t *Tool) Name() string {
	return "get_coordinates"
}

// Description returns a description for the LLM
func (t *Tool) Description() string {
	return "Get the latitude and longitude of a specific city or place name."
}

// Parameters returns the parameter schema
func (t *Tool) Parameters() llm.ParameterSchema {
	return llm.ParameterSchema{
		Type: "object",
		Properties: map[string]llm.Property{
			"place_name": {
				Type:        "string",
				Description: "The name of the city or place (e.g., 'Bangkok')",
			},
		},
		Required: []string{"place_name"},
	}
}

// Execute runs the lookup
func (t *Tool) Execute(ctx context.Context, args map[string]any) llm.ToolResult {
	name := local.StringArg(args, "place_name")
	if name == "" {
		return llm.Failed(llm.OutcomeInvalidInput, "Invalid input: place name must not be empty.")
	}

	t.progress.Notify("Fetching coordinates for: %s...", name)

	place, err := t.geocoder.Forward(ctx, name)
	if err != nil {
		return local.LookupFailed(name, err)
	}
	if !place.Found() {
		return llm.Failed(llm.OutcomeNotFound, fmt.Sprintf("Could not find coordinates for %s.", name))
	}

	c := place.Coordinates()
	return llm.OK(fmt.Sprintf("%s is located at Lat: %s, Lon: %s",
		name, geo.FormatDegrees(c.Lat()), geo.FormatDegrees(c.Lon())))
}
