package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jaimegago/geoai/internal/config"
	"github.com/jaimegago/geoai/internal/geocode"
	"github.com/jaimegago/geoai/internal/llm"
	"github.com/jaimegago/geoai/internal/llmfactory"
	"github.com/jaimegago/geoai/internal/logging"
	"github.com/jaimegago/geoai/internal/observability"
	"github.com/jaimegago/geoai/internal/repl"
	"github.com/jaimegago/geoai/internal/tools"
	"github.com/jaimegago/geoai/internal/useragent"
	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
)

func main() {
	os.Exit(run())
}

func run() int {
	// A missing .env is normal.
	_ = godotenv.Load()

	cfg, err := config.Load(config.DefaultPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	logger, closeLog := logging.SetupLoggerWithFile(cfg.Logging.Level, cfg.Logging.File)
	defer closeLog()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, observability.DefaultConfig(), logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up telemetry: %v\n", err)
		return 1
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	modelCfg, err := cfg.LLM.CurrentModel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		return 1
	}
	if err := config.ValidateAPIKeysWithUserMessage(modelCfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	newAdapter := func(ctx context.Context, provider, model string) (llm.LLMAdapter, error) {
		base, err := llmfactory.NewAdapter(ctx, config.ModelConfig{Provider: provider, Model: model})
		if err != nil {
			return nil, err
		}
		traced := observability.NewLLMMiddleware(base, provider, model)
		return llm.NewInstrumentedAdapter(traced, logger, provider, model), nil
	}

	adapter, err := newAdapter(ctx, modelCfg.Provider, modelCfg.Model)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create LLM client: %v\n", err)
		return 1
	}
	client := &llmClient{adapter: adapter}
	defer func() {
		fmt.Println("Stopping client...")
		if err := client.Close(); err != nil {
			logger.Warn("failed to close LLM client", "error", err)
		}
	}()

	geocoder, err := geocode.New(geocode.Config{
		BaseURL:   cfg.Geocoder.BaseURL,
		UserAgent: cfg.Geocoder.UserAgent,
		Timeout:   cfg.Geocoder.Timeout,
		Language:  cfg.Geocoder.Language,
	}, geocode.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid geocoder config: %v\n", err)
		return 1
	}

	reader, err := repl.NewTerminalReader(historyFile())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open terminal: %v\n", err)
		return 1
	}
	console := repl.NewConsole(reader.Stdout(), isatty.IsTerminal(os.Stdout.Fd()))

	registry := tools.NewDefaultRegistry(geocoder, console, tools.DefaultOptions{
		MinRequestInterval: cfg.Geocoder.MinRequestInterval,
		Logger:             logger,
	})
	executor := tools.NewExecutor(registry, tools.WithExecutorLogger(logger))

	agent := useragent.NewAgent(adapter, executor, registry, cfg.Agent.SystemPrompt,
		useragent.WithAdapterFactory(newAdapter),
		useragent.WithCurrentModelName(cfg.LLM.Current),
		useragent.WithMaxIterations(cfg.Agent.MaxIterations),
		useragent.WithLogger(logger),
	)
	client.agent = agent

	logger.Info("geoai starting", "model", cfg.LLM.Current, "provider", modelCfg.Provider, "geocoder", cfg.Geocoder.BaseURL)

	r := repl.New(agent, cfg,
		repl.WithReader(reader),
		repl.WithConsole(console),
		repl.WithLogger(logger),
	)
	if err := r.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// llmClient releases the LLM adapter on every exit path. Until the agent
// exists it owns the adapter directly; afterwards the agent does, since
// /model may have replaced the adapter it started with.
type llmClient struct {
	adapter llm.LLMAdapter
	agent   *useragent.Agent
}

func (c *llmClient) Close() error {
	if c.agent != nil {
		return c.agent.Close()
	}
	return llm.CloseAdapter(c.adapter)
}

// historyFile keeps readline history next to the config file.
func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	dir := filepath.Join(home, ".geoai")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ""
	}
	return filepath.Join(dir, "history")
}
