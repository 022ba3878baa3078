// Package telemetry wires slog and tracing to whatever sinks are configured.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"fridgefeast/internal/cache"
	"fridgefeast/internal/config"
	"fridgefeast/internal/logsink"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Shutdown flushes and closes every sink Setup opened.
type Shutdown func(context.Context) error

// Setup installs the default slog logger. Stdout JSON is always on; OTLP and
// the append blob sink are added when configured.
func Setup(ctx context.Context, cfg *config.Config) (*slog.Logger, Shutdown, error) {
	return setup(ctx, cfg, os.Stdout)
}

func setup(ctx context.Context, cfg *config.Config, stdout io.Writer) (*slog.Logger, Shutdown, error) {
	handlers := []slog.Handler{slog.NewJSONHandler(stdout, &slog.HandlerOptions{Level: slog.LevelInfo})}
	var closers []Shutdown
	shutdown := func(ctx context.Context) error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i](ctx))
		}
		return errors.Join(errs...)
	}

	if cfg.Telemetry.Enabled() {
		h, closer, err := otlp(ctx, cfg.Telemetry)
		if err != nil {
			_ = shutdown(ctx)
			return nil, nil, err
		}
		handlers = append(handlers, h)
		closers = append(closers, closer)
	}

	if cfg.LogSink.Enabled() {
		client, err := cache.NewBlobClient(cfg.Azure)
		if err != nil {
			_ = shutdown(ctx)
			return nil, nil, fmt.Errorf("failed to create log sink client: %w", err)
		}
		sink, err := logsink.New(ctx, client, logsink.Config{
			Container: cfg.LogSink.Container,
			BlobName:  cfg.LogSink.BlobName,
		})
		if err != nil {
			_ = shutdown(ctx)
			return nil, nil, fmt.Errorf("failed to create log sink: %w", err)
		}
		handlers = append(handlers, sink)
		closers = append(closers, func(context.Context) error { return sink.Close() })
	}

	logger := slog.New(fanout(handlers...))
	slog.SetDefault(logger)
	return logger, shutdown, nil
}

func fanout(handlers ...slog.Handler) slog.Handler {
	if len(handlers) == 1 {
		return handlers[0]
	}
	return slog.NewMultiHandler(handlers...)
}

func otlp(ctx context.Context, cfg config.TelemetryConfig) (slog.Handler, Shutdown, error) {
	res := resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName))

	logExporter, err := otlploghttp.New(ctx, otlploghttp.WithEndpointURL(cfg.OTLPEndpoint))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create otlp log exporter: %w", err)
	}
	loggerProvider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
		sdklog.WithResource(res),
	)
	global.SetLoggerProvider(loggerProvider)

	traceExporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.OTLPEndpoint))
	if err != nil {
		_ = loggerProvider.Shutdown(ctx)
		return nil, nil, fmt.Errorf("failed to create otlp trace exporter: %w", err)
	}
	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)

	shutdown := func(ctx context.Context) error {
		return errors.Join(tracerProvider.Shutdown(ctx), loggerProvider.Shutdown(ctx))
	}
	return otelslog.NewHandler(cfg.ServiceName, otelslog.WithLoggerProvider(loggerProvider)), shutdown, nil
}
