package reversegeocode

import (
	"context"
	"fmt"

	"github.com/jaimegago/geoai/internal/geo"
	"github.com/jaimegago/geoai/internal/llm"
	"github.com/jaimegago/geoai/internal/tools/local"
)

// Tool finds the address at a latitude/longitude.
type Tool struct {
	geocoder local.Geocoder
	progress *local.Progress
}

// NewTool creates a new reverse_geocode tool
func NewTool(geocoder local.Geocoder, progress *local.Progress) *Tool {
	return &Tool{geocoder: geocoder, progress: progress}
}

// Name returns the tool's name
func (t *Tool) Name() string {
	return "reverse_geocode"
}

// Description returns a description for the LLM
func (t *Tool) Description() string {
	return "Get the location name and address from latitude and longitude coordinates."
}

// Parameters returns the parameter schema
func (t *Tool) Parameters() llm.ParameterSchema {
	return llm.ParameterSchema{
		Type: "object",
		Properties: map[string]llm.Property{
			"latitude": {
				Type:        "number",
				Description: "Latitude coordinate (e.g., 13.7563)",
			},
			"longitude": {
				Type:        "number",
				Description: "Longitude coordinate (e.g., 100.5018)",
			},
		},
		Required: []string{"latitude", "longitude"},
	}
}

// Execute runs the lookup
func (t *Tool) Execute(ctx context.Context, args map[string]any) llm.ToolResult {
	lat, ok := local.FloatArg(args, "latitude")
	if !ok {
		return llm.Failed(llm.OutcomeInvalidInput, "Invalid input: latitude must be a number.")
	}
	lon, ok := local.FloatArg(args, "longitude")
	if !ok {
		return llm.Failed(llm.OutcomeInvalidInput, "Invalid input: longitude must be a number.")
	}

	coords, err := geo.NewCoordinates(lat, lon)
	if err != nil {
		return local.InvalidInput(err)
	}

	t.progress.Notify("Finding location for coordinates: %s...", coords)

	place, err := t.geocoder.Reverse(ctx, coords)
	if err != nil {
		return local.LookupFailed(coords.String(), err)
	}
	if !place.Found() {
		return llm.Failed(llm.OutcomeNotFound, fmt.Sprintf("No location found for coordinates %s.", coords))
	}

	return llm.OK(fmt.Sprintf("Coordinates %s correspond to: %s", coords, place.Name()))
}
