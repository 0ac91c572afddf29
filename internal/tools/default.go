package tools

import (
	"io"
	"log/slog"
	"time"

	"github.com/jaimegago/geoai/internal/tools/local"
	"github.com/jaimegago/geoai/internal/tools/local/coordinates"
	"github.com/jaimegago/geoai/internal/tools/local/distance"
	"github.com/jaimegago/geoai/internal/tools/local/reversegeocode"
)

// DefaultOptions tunes the default geocoding tools.
type DefaultOptions struct {
	// MinRequestInterval is the minimum gap between any two geocoder
	// requests made by the registered tools, across concurrent calls.
	MinRequestInterval time.Duration
	Logger             *slog.Logger
}

// NewDefaultRegistry creates a registry with the geocoding tools registered.
// All tools share one paced view of geocoder. Progress notices are written
// to progress.
func NewDefaultRegistry(geocoder local.Geocoder, progress io.Writer, opts DefaultOptions) *Registry {
	notices := local.NewProgress(progress, opts.Logger)
	registry := NewRegistry()

	geocoder = local.NewPacedGeocoder(geocoder, opts.MinRequestInterval)

	registry.Register(coordinates.NewTool(geocoder, notices))
	registry.Register(distance.NewTool(geocoder, notices))
	registry.Register(reversegeocode.NewTool(geocoder, notices))

	return registry
}
