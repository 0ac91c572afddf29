package distance

import (
	"context"
	"fmt"

	"github.com/jaimegago/geoai/internal/geo"
	"github.com/jaimegago/geoai/internal/llm"
	"github.com/jaimegago/geoai/internal/tools/local"
)

// Tool geocodes two places and reports the great-circle distance between them.
type Tool struct {
	geocoder local.Geocoder
	progress *local.Progress
}

// NewTool creates a new calculate_distance tool. The two lookups run one
// after the other; pacing them is the geocoder's job (see
// local.PacedGeocoder).
func NewTool(geocoder local.Geocoder, progress *local.Progress) *Tool {
	return &Tool{geocoder: geocoder, progress: progress}
}

// Name returns the tool's name
func (t *Tool) Name() string {
	return "calculate_distance"
}

// Description returns a description for the LLM
func (t *Tool) Description() string {
	return "Calculate the distance between two locations in kilometers and miles."
}

// Parameters returns the parameter schema
func (t *Tool) Parameters() llm.ParameterSchema {
	return llm.ParameterSchema{
		Type: "object",
		Properties: map[string]llm.Property{
			"location1": {
				Type:        "string",
				Description: "First location name (e.g., 'Paris')",
			},
			"location2": {
				Type:        "string",
				Description: "Second location name (e.g., 'London')",
			},
		},
		Required: []string{"location1", "location2"},
	}
}

// Execute runs both lookups and the distance calculation
func (t *Tool) Execute(ctx context.Context, args map[string]any) llm.ToolResult {
	name1 := local.StringArg(args, "location1")
	name2 := local.StringArg(args, "location2")
	if name1 == "" || name2 == "" {
		return llm.Failed(llm.OutcomeInvalidInput, "Invalid input: both location names must be non-empty.")
	}

	t.progress.Notify("Calculating distance between %s and %s...", name1, name2)

	var places [2]geo.Place
	for i, name := range []string{name1, name2} {
		place, err := t.geocoder.Forward(ctx, name)
		if err != nil {
			return local.LookupFailed(name, err)
		}
		if !place.Found() {
			return llm.Failed(llm.OutcomeNotFound, fmt.Sprintf("Could not find location: %s", name))
		}
		places[i] = place
	}

	d := geo.DistanceBetween(places[0].Coordinates(), places[1].Coordinates())
	return llm.OK(fmt.Sprintf("Distance between %s and %s: %.2f km (%.2f miles)",
		name1, name2, d.Kilometers(), d.Miles()))
}
