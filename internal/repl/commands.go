package repl

import (
	"context"
	"fmt"
	"strings"
)

// handleCommand processes REPL commands starting with /
func (r *REPL) handleCommand(ctx context.Context, input string) error {
	cmd := strings.TrimPrefix(input, "/")
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return nil
	}

	switch strings.ToLower(parts[0]) {
	case "model":
		return r.handleModelCommand(ctx)
	case "stats":
		return r.handleStatsCommand()
	case "clear":
		r.session.Clear()
		r.println("Conversation cleared.")
		return nil
	case "help":
		return r.handleHelpCommand()
	case "exit", "quit":
		return ErrExit
	default:
		return fmt.Errorf("unknown command: /%s. Type /help for available commands", parts[0])
	}
}

// handleModelCommand shows an interactive model selector and switches models
func (r *REPL) handleModelCommand(ctx context.Context) error {
	names := r.config.LLM.ModelNames()
	current := r.config.LLM.Current

	if len(names) == 0 {
		r.println("No models configured in config.yaml")
		return nil
	}

	if len(names) == 1 {
		r.printf("Only one model configured: %s\n", current)
		return nil
	}

	options := make([]ModelOption, len(names))
	for i, name := range names {
		mc := r.config.LLM.Available[name]
		options[i] = ModelOption{Key: name, Provider: mc.Provider, Model: mc.Model}
	}

	selected, err := r.selectModel(options, current)
	if err != nil {
		return fmt.Errorf("failed to run selector: %w", err)
	}

	if selected == "" {
		r.println("Cancelled")
		return nil
	}

	if selected == current {
		r.printf("Already using %s\n", current)
		return nil
	}

	modelCfg, ok := r.config.LLM.Available[selected]
	if !ok {
		return fmt.Errorf("model %s not found in config", selected)
	}

	if err := r.agent.SwitchModel(ctx, modelCfg.Provider, modelCfg.Model, selected); err != nil {
		return fmt.Errorf("failed to switch model: %w", err)
	}

	r.config.LLM.Current = selected

	r.printf("\nSwitched to %s (%s/%s)\n", selected, modelCfg.Provider, modelCfg.Model)
	return nil
}

// handleStatsCommand prints token usage for the conversation and the
// active model.
func (r *REPL) handleStatsCommand() error {
	s := r.session
	r.printf("Conversation: %d messages, %d tokens (%d in / %d out)\n",
		len(s.Messages), s.TotalTokens, s.TotalInputTokens, s.TotalOutputTokens)
	r.printf("Last turn:    %d LLM calls, %d tokens\n", s.RunLLMCalls, s.RunTokens)

	if stats, ok := r.agent.Stats(); ok {
		r.printf("Model %s: %d calls, %d errors, %d tool calls, %d tokens\n",
			r.agent.CurrentModelName(), stats.TotalCalls, stats.TotalErrors, stats.TotalToolCalls, stats.TotalTokens)
	}
	return nil
}

// handleHelpCommand displays available commands
func (r *REPL) handleHelpCommand() error {
	help := `Available commands:
  /model    - Switch LLM model
  /stats    - Show token usage
  /clear    - Forget the conversation so far
  /help     - Show this help
  /exit     - Exit (or type exit, quit, or press Ctrl+D)
`
	r.printf("%s", help)
	return nil
}
