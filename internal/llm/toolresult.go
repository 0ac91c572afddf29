package llm

// ToolOutcome classifies how a tool invocation ended. The model never sees
// the outcome directly, only the text; it exists so callers (the executor,
// tracing, tests) can tell failures apart without parsing sentences.
type ToolOutcome int

const (
	OutcomeOK ToolOutcome = iota
	OutcomeInvalidInput
	OutcomeNotFound
	OutcomeServiceUnavailable
)

// String returns the outcome name used in logs and span attributes.
func (o ToolOutcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeInvalidInput:
		return "invalid_input"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeServiceUnavailable:
		return "service_unavailable"
	default:
		return "unknown"
	}
}

// ToolResult is what every tool returns: a sentence for the model, always.
// Failures are reported through Content like successes, never as errors.
type ToolResult struct {
	Content string
	Outcome ToolOutcome
}

// OK builds a successful result.
func OK(content string) ToolResult {
	return ToolResult{Content: content, Outcome: OutcomeOK}
}

// Failed builds a result for the given failure outcome.
func Failed(outcome ToolOutcome, content string) ToolResult {
	return ToolResult{Content: content, Outcome: outcome}
}

// IsError reports whether the result describes a fault. NotFound is an
// ordinary answer ("no such place") and is not flagged.
func (r ToolResult) IsError() bool {
	return r.Outcome == OutcomeInvalidInput || r.Outcome == OutcomeServiceUnavailable
}
