package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	serviceName    = "geoai"
	serviceVersion = "0.1.0"
)

// Config holds OpenTelemetry configuration
type Config struct {
	Enabled bool

	// Tracing
	TracesEnabled  bool
	TracesExporter string // "stdout", "otlp", "none"
	OTLPEndpoint   string // For OTLP exporter

	// Metrics
	MetricsEnabled  bool
	MetricsExporter string // "prometheus", "none"
	MetricsPort     int    // Port serving /metrics; 0 disables the endpoint
}

// DefaultConfig returns OpenTelemetry configuration from OTEL_* variables.
// Telemetry is off unless OTEL_ENABLED is set, so the interactive prompt
// stays clean by default.
func DefaultConfig() Config {
	return Config{
		Enabled:         getEnvBool("OTEL_ENABLED", false),
		TracesEnabled:   getEnvBool("OTEL_TRACES_ENABLED", true),
		TracesExporter:  getEnv("OTEL_TRACES_EXPORTER", "otlp"),
		OTLPEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		MetricsEnabled:  getEnvBool("OTEL_METRICS_ENABLED", true),
		MetricsExporter: getEnv("OTEL_METRICS_EXPORTER", "prometheus"),
		MetricsPort:     getEnvInt("OTEL_METRICS_PORT", 9464),
	}
}

// Setup initializes OpenTelemetry with the given configuration and returns
// a shutdown function that flushes exporters.
func Setup(ctx context.Context, cfg Config, logger *slog.Logger) (func(context.Context) error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.Enabled {
		logger.Debug("opentelemetry disabled")
		return func(context.Context) error { return nil }, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	var shutdowns []func(context.Context) error

	if cfg.TracesEnabled {
		fn, err := setupTracing(ctx, cfg, res)
		if err != nil {
			return nil, fmt.Errorf("failed to setup tracing: %w", err)
		}
		shutdowns = append(shutdowns, fn)
	}

	if cfg.MetricsEnabled {
		fn, err := setupMetrics(cfg, res, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to setup metrics: %w", err)
		}
		shutdowns = append(shutdowns, fn)
	}

	logger.Info("opentelemetry enabled",
		"traces_exporter", cfg.TracesExporter,
		"metrics_exporter", cfg.MetricsExporter,
	)

	return func(ctx context.Context) error {
		var errs []error
		for _, fn := range shutdowns {
			if err := fn(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}, nil
}

func setupTracing(ctx context.Context, cfg Config, res *resource.Resource) (func(context.Context) error, error) {
	var exporter sdktrace.SpanExporter
	var err error

	switch cfg.TracesExporter {
	case "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "otlp":
		client := otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlptracegrpc.WithInsecure(),
		)
		exporter, err = otlptrace.New(ctx, client)
	case "none":
		return func(context.Context) error { return nil }, nil
	default:
		return nil, fmt.Errorf("unknown traces exporter: %s", cfg.TracesExporter)
	}

	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

func setupMetrics(cfg Config, res *resource.Resource, logger *slog.Logger) (func(context.Context) error, error) {
	var reader sdkmetric.Reader
	var err error

	switch cfg.MetricsExporter {
	case "prometheus":
		reader, err = prometheus.New()
	case "none":
		return func(context.Context) error { return nil }, nil
	default:
		return nil, fmt.Errorf("unknown metrics exporter: %s", cfg.MetricsExporter)
	}

	if err != nil {
		return nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	if cfg.MetricsExporter != "prometheus" || cfg.MetricsPort == 0 {
		return mp.Shutdown, nil
	}

	srv, err := serveMetrics(cfg.MetricsPort, logger)
	if err != nil {
		_ = mp.Shutdown(context.Background())
		return nil, err
	}

	return func(ctx context.Context) error {
		return errors.Join(srv.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}

// serveMetrics exposes the default Prometheus registry, which the OTel
// prometheus exporter registers with, on :port/metrics.
func serveMetrics(port int, logger *slog.Logger) (*http.Server, error) {
	ln, err := net.Listen("tcp", ":"+strconv.Itoa(port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen for metrics on port %d: %w", port, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	logger.Info("serving metrics", "addr", ln.Addr().String())
	return srv, nil
}

// Tracer returns a tracer for the given name
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// Meter returns a meter for the given name
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// LLMAttributes are the span attributes shared by LLM operations.
func LLMAttributes(provider, model string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("llm.provider", provider),
		attribute.String("llm.model", model),
		attribute.String("service.name", serviceName),
	}
}
