package useragent

import (
	"github.com/google/uuid"
	"github.com/jaimegago/geoai/internal/llm"
)

// Session holds the conversation history for an agentic interaction
type Session struct {
	ID       string
	Messages []llm.Message

	// Token usage tracking
	TotalInputTokens  int
	TotalOutputTokens int
	TotalTokens       int

	// Per-run token tracking (reset at start of each Run)
	RunInputTokens  int
	RunOutputTokens int
	RunTokens       int
	RunLLMCalls     int

	// MaxMessages limits conversation history size to prevent unbounded growth
	// When 0, no limit is applied.
	MaxMessages int
}

// NewSession creates a new session with empty conversation history
func NewSession() *Session {
	return &Session{
		ID:       uuid.NewString(),
		Messages: make([]llm.Message, 0),
	}
}

// AddMessage adds a message to the conversation history.
// If MaxMessages is set and exceeded, older messages are pruned while
// preserving the most recent messages for context.
func (s *Session) AddMessage(message llm.Message) {
	s.Messages = append(s.Messages, message)
	s.prune()
}

// AddMessages adds multiple messages to the conversation history
func (s *Session) AddMessages(messages []llm.Message) {
	s.Messages = append(s.Messages, messages...)
	s.prune()
}

func (s *Session) prune() {
	if s.MaxMessages <= 0 || len(s.Messages) <= s.MaxMessages {
		return
	}

	// Keep the most recent MaxMessages/2 messages
	keepCount := s.MaxMessages / 2
	if keepCount < 10 {
		keepCount = 10 // Always keep at least 10 messages for context
	}
	if keepCount > len(s.Messages) {
		keepCount = len(s.Messages)
	}
	kept := s.Messages[len(s.Messages)-keepCount:]

	// History must start at a user prompt: a leading tool result or
	// assistant turn would reference calls that were pruned.
	for len(kept) > 1 && (kept[0].Role != "user" || kept[0].IsToolResult()) {
		kept = kept[1:]
	}
	s.Messages = append([]llm.Message(nil), kept...)
}

// Clear clears the conversation history
func (s *Session) Clear() {
	s.Messages = make([]llm.Message, 0)
}

// ResetRunStats resets per-run token tracking (called at start of each Run)
func (s *Session) ResetRunStats() {
	s.RunInputTokens = 0
	s.RunOutputTokens = 0
	s.RunTokens = 0
	s.RunLLMCalls = 0
}

// AddTokenUsage adds token usage from an LLM response
func (s *Session) AddTokenUsage(usage llm.TokenUsage) {
	// Update per-run stats
	s.RunInputTokens += usage.InputTokens
	s.RunOutputTokens += usage.OutputTokens
	s.RunTokens += usage.TotalTokens
	s.RunLLMCalls++

	// Update total session stats
	s.TotalInputTokens += usage.InputTokens
	s.TotalOutputTokens += usage.OutputTokens
	s.TotalTokens += usage.TotalTokens
}
