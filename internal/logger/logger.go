package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Type alias for slog.Level for easier usage
type Level = slog.Level

const (
	LevelTrace   = slog.Level(-8)
	LevelDebug   = slog.LevelDebug // -4
	LevelInfo    = slog.LevelInfo  // 0
	LevelWarning = slog.LevelWarn  // 4
	LevelError   = slog.LevelError // 8
	LevelFatal   = slog.Level(12)  // 12
)

var (
	Logger          = slog.Default()
	errorSampleRate atomic.Int32
	sampleSeq       atomic.Int64
	programLevel    = new(slog.LevelVar)
	shutdownFuncs   []func(context.Context) error // OTEL providers, if enabled
)

// Counters are incremented regardless of sampling
var (
	TotalErrors   atomic.Int64
	TotalWarnings atomic.Int64
)

func init() {
	errorSampleRate.Store(1)
}

// Config controls logger setup
type Config struct {
	// Level is a level name understood by ParseLevel (default INFO)
	Level string

	// ErrorSampleRate logs 1 out of every N warnings/errors. 0 or 1 logs all.
	ErrorSampleRate int

	// OTELEnabled exports logs and traces over OTLP/gRPC instead of writing JSON
	OTELEnabled bool
	ServiceName string

	// Out receives JSON logs (default os.Stdout)
	Out io.Writer
}

// ConfigFromEnv reads LOG_LEVEL, ERROR_SAMPLE_RATE, OTEL_ENABLED and OTEL_SERVICE_NAME
func ConfigFromEnv() Config {
	cfg := Config{
		Level:       os.Getenv("LOG_LEVEL"),
		OTELEnabled: strings.ToLower(os.Getenv("OTEL_ENABLED")) == "true",
		ServiceName: os.Getenv("OTEL_SERVICE_NAME"),
	}
	if rate, err := strconv.Atoi(os.Getenv("ERROR_SAMPLE_RATE")); err == nil && rate > 0 {
		cfg.ErrorSampleRate = rate
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "linkrules"
	}
	return cfg
}

// Setup installs the process logger. Call it once at program start.
func Setup(cfg Config) error {
	level := LevelInfo
	if cfg.Level != "" {
		parsed, err := ParseLevel(cfg.Level)
		if err != nil {
			return err
		}
		level = parsed
	}
	programLevel.Set(level)

	rate := cfg.ErrorSampleRate
	if rate < 1 {
		rate = 1
	}
	errorSampleRate.Store(int32(rate))
	sampleSeq.Store(0)

	if cfg.OTELEnabled {
		ctx := context.Background()
		shutdown, err := setupOTELLogging(ctx, cfg.ServiceName)
		if err != nil {
			// Fall back to JSON handler if OTEL setup fails
			setupJSONLogging(cfg.Out)
			Logger.Warn("OTEL log export unavailable, using JSON", "error", err)
		} else {
			shutdownFuncs = append(shutdownFuncs, shutdown)
		}

		shutdown, err = setupOTELTracing(ctx, cfg.ServiceName)
		if err != nil {
			Logger.Warn("OTEL trace export unavailable, spans are dropped", "error", err)
			return nil
		}
		shutdownFuncs = append(shutdownFuncs, shutdown)
		return nil
	}

	setupJSONLogging(cfg.Out)
	return nil
}

// setupJSONLogging configures JSON logging to out
func setupJSONLogging(out io.Writer) {
	if out == nil {
		out = os.Stdout
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: programLevel})
	Logger = slog.New(&samplingHandler{handler: handler})
	slog.SetDefault(Logger)
}

// setupOTELLogging configures OpenTelemetry logging
func setupOTELLogging(ctx context.Context, serviceName string) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := otlploggrpc.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	loggerProvider := sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	)

	// Bridge slog → OTel, filtered by programLevel
	handler := &levelHandler{
		level:   programLevel,
		handler: otelslog.NewHandler(serviceName, otelslog.WithLoggerProvider(loggerProvider)),
	}

	Logger = slog.New(&samplingHandler{handler: handler})
	slog.SetDefault(Logger)

	return loggerProvider.Shutdown, nil
}

// levelHandler wraps a handler to filter by level
type levelHandler struct {
	level   slog.Leveler
	handler slog.Handler
}

func (h *levelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *levelHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.handler.Handle(ctx, r)
}

func (h *levelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelHandler{level: h.level, handler: h.handler.WithAttrs(attrs)}
}

func (h *levelHandler) WithGroup(name string) slog.Handler {
	return &levelHandler{level: h.level, handler: h.handler.WithGroup(name)}
}

// samplingHandler counts every warning and error, then passes on only
// 1 out of every errorSampleRate of them. Fatal records are never dropped.
type samplingHandler struct {
	handler slog.Handler
}

func (h *samplingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *samplingHandler) Handle(ctx context.Context, r slog.Record) error {
	switch {
	case r.Level >= LevelFatal:
		return h.handler.Handle(ctx, r)
	case r.Level >= LevelError:
		TotalErrors.Add(1)
	case r.Level >= LevelWarning:
		TotalWarnings.Add(1)
	default:
		return h.handler.Handle(ctx, r)
	}

	if !shouldSample() {
		return nil
	}
	return h.handler.Handle(ctx, r)
}

func (h *samplingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &samplingHandler{handler: h.handler.WithAttrs(attrs)}
}

func (h *samplingHandler) WithGroup(name string) slog.Handler {
	return &samplingHandler{handler: h.handler.WithGroup(name)}
}

// Shutdown flushes the OTEL exporters, if any
func Shutdown(ctx context.Context) error {
	var errs []error
	for _, fn := range shutdownFuncs {
		errs = append(errs, fn(ctx))
	}
	shutdownFuncs = nil
	return errors.Join(errs...)
}

// SetLevel sets the minimum log level
func SetLevel(level slog.Level) {
	programLevel.Set(level)
}

// GetLevel returns the current minimum log level
func GetLevel() slog.Level {
	return programLevel.Level()
}

// ParseLevel converts a string level name to slog.Level
func ParseLevel(levelStr string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "TRACE":
		return LevelTrace, nil
	case "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarning, nil
	case "ERROR":
		return LevelError, nil
	case "FATAL":
		return LevelFatal, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level: %s", levelStr)
	}
}

// With returns a child logger carrying args, e.g. a component name
func With(args ...any) *slog.Logger {
	return Logger.With(args...)
}

// shouldSample returns true for the first of every errorSampleRate calls
func shouldSample() bool {
	rate := int64(errorSampleRate.Load())
	if rate <= 1 {
		return true
	}
	return (sampleSeq.Add(1)-1)%rate == 0
}

// Trace logs a trace-level message
func Trace(msg string, args ...any) {
	Logger.Log(context.Background(), LevelTrace, msg, args...)
}

// Debug logs a debug-level message
func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

// Info logs an info-level message
func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

// Warn logs a warning, subject to sampling
func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}

// Error logs an error, subject to sampling
func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}

// Fatal logs a fatal-level message and exits
func Fatal(msg string, args ...any) {
	Logger.Log(context.Background(), LevelFatal, msg, args...)
	_ = Shutdown(context.Background())
	os.Exit(1)
}
