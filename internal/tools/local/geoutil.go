// Package local holds helpers shared by the geocoding tools in its
// subpackages.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/jaimegago/geoai/internal/geo"
	"github.com/jaimegago/geoai/internal/llm"
)

// Geocoder is the lookup surface the tools need. *geocode.Client satisfies it.
type Geocoder interface {
	Forward(ctx context.Context, placeName string) (geo.Place, error)
	Reverse(ctx context.Context, coords geo.Coordinates) (geo.Place, error)
}

// Progress reports what a tool is doing while the operator waits.
type Progress struct {
	w      io.Writer
	logger *slog.Logger
}

// NewProgress writes notices to w (discarded when nil) and logs them at
// debug level.
func NewProgress(w io.Writer, logger *slog.Logger) *Progress {
	if w == nil {
		w = io.Discard
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Progress{w: w, logger: logger}
}

// Notify prints one indented "[Tool]" line.
func (p *Progress) Notify(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(p.w, "   [Tool] %s\n", msg)
	p.logger.Debug("tool_progress", "message", msg)
}

// StringArg returns args[key] trimmed, or "" when absent or not a string.
func StringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return strings.TrimSpace(s)
}

// FloatArg returns args[key] as a float64. Provider SDKs decode JSON numbers
// differently, so several numeric types are accepted.
func FloatArg(args map[string]any, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// InvalidInput renders an input error as a sentence for the model.
func InvalidInput(err error) llm.ToolResult {
	msg := strings.TrimPrefix(err.Error(), geo.ErrInvalidInput.Error()+": ")
	return llm.Failed(llm.OutcomeInvalidInput, "Invalid input: "+strings.TrimSuffix(msg, ".")+".")
}

// LookupFailed renders a failed lookup of subject. Input errors and service
// errors are told apart so the model knows whether retrying could help.
func LookupFailed(subject string, err error) llm.ToolResult {
	if errors.Is(err, geo.ErrInvalidInput) {
		return InvalidInput(err)
	}
	return llm.Failed(llm.OutcomeServiceUnavailable,
		fmt.Sprintf("Geocoding service error while looking up %s: %v", subject, err))
}
