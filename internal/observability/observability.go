// Package observability configures process-wide structured logging.
//
// Instrument installs the slog default handler (text or JSON on stderr) and,
// when OTEL_LOGS_EXPORTER is set, bridges log records to an OpenTelemetry
// log exporter so unattended runs can ship diagnostics to a collector.
package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const instrumentationName = "github.com/qbotools/qboauth"

// loggerProvider is retained for flushing at shutdown.
var loggerProvider *sdklog.LoggerProvider

// Instrument installs the process-wide slog default handler. format is "text"
// or "json". Exported telemetry is controlled by the OTEL_LOGS_EXPORTER
// environment variable: "otlp"/"otlp-http", "otlp-grpc", "stdout", or unset
// for local-only logging.
func Instrument(level slog.Level, format string) error {
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	exporter, err := newExporter(context.Background())
	if err != nil {
		return fmt.Errorf("creating log exporter: %w", err)
	}
	if exporter != nil {
		provider := sdklog.NewLoggerProvider(
			sdklog.WithProcessor(
				minsev.NewLogProcessor(sdklog.NewBatchProcessor(exporter), severity(level)),
			),
		)
		loggerProvider = provider
		handler = fanoutHandler{
			handler,
			otelslog.NewHandler(instrumentationName, otelslog.WithLoggerProvider(provider)),
		}
	}

	slog.SetDefault(slog.New(handler))
	return nil
}

// Shutdown flushes any pending exported log records.
func Shutdown(ctx context.Context) error {
	if loggerProvider == nil {
		return nil
	}
	return loggerProvider.Shutdown(ctx)
}

// newExporter selects a log exporter from OTEL_LOGS_EXPORTER. Returns nil
// when no export is requested.
func newExporter(ctx context.Context) (sdklog.Exporter, error) {
	switch name := os.Getenv("OTEL_LOGS_EXPORTER"); name {
	case "", "none":
		return nil, nil
	case "otlp", "otlp-http":
		return otlploghttp.New(ctx)
	case "otlp-grpc":
		return otlploggrpc.New(ctx)
	case "stdout":
		return stdoutlog.New()
	default:
		return nil, fmt.Errorf("unsupported OTEL_LOGS_EXPORTER value %q", name)
	}
}

// severity maps a slog level onto the minimum exported severity.
func severity(level slog.Level) minsev.Severity {
	switch {
	case level <= slog.LevelDebug:
		return minsev.SeverityDebug
	case level <= slog.LevelInfo:
		return minsev.SeverityInfo
	case level <= slog.LevelWarn:
		return minsev.SeverityWarn
	default:
		return minsev.SeverityError
	}
}

// fanoutHandler duplicates records to every wrapped handler.
type fanoutHandler []slog.Handler

// Compile-time check that fanoutHandler implements slog.Handler.
var _ slog.Handler = (fanoutHandler)(nil)

func (f fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, h := range f {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanoutHandler, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanoutHandler) WithGroup(name string) slog.Handler {
	out := make(fanoutHandler, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
