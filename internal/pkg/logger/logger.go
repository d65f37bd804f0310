// internal/pkg/logger/logger.go
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ContextKey represents keys for context values
type ContextKey string

const (
	ContextKeyRequestID     ContextKey = "request_id"
	ContextKeyTraceID       ContextKey = "trace_id"
	ContextKeyClientIP      ContextKey = "client_ip"
	ContextKeyUserAgent     ContextKey = "user_agent"
	ContextKeyMethod        ContextKey = "method"
	ContextKeyPath          ContextKey = "path"
	ContextKeyProductID     ContextKey = "product_id"
	ContextKeyReservationID ContextKey = "reservation_id"
	ContextKeyTaskID        ContextKey = "task_id"
	ContextKeyTaskType      ContextKey = "task_type"
)

// OutputConfig describes an additional log destination
type OutputConfig struct {
	Type   string `json:"type"` // file
	Level  string `json:"level"`
	Path   string `json:"path"`
	Format string `json:"format"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level          string         `json:"level"`
	Format         string         `json:"format"` // json, text, pretty
	Output         string         `json:"output"` // stdout, stderr, file:<path>
	AddSource      bool           `json:"add_source"`
	SampleRate     float64        `json:"sample_rate"`
	EnableSampling bool           `json:"enable_sampling"`
	Environment    string         `json:"environment"`
	ServiceName    string         `json:"service_name"`
	ServiceVersion string         `json:"service_version"`
	Outputs        []OutputConfig `json:"outputs"`

	// Writer overrides Output when set
	Writer io.Writer `json:"-"`
}

// Logger wraps slog.Logger with context-aware helpers
type Logger struct {
	*slog.Logger
	config *LogConfig
}

// SetupLogger builds the process logger and installs it as the slog default
func SetupLogger(level, format string) *Logger {
	l := NewLogger(&LogConfig{
		Level:          level,
		Format:         format,
		Output:         "stdout",
		AddSource:      strings.EqualFold(level, "debug"),
		ServiceName:    os.Getenv("APP_NAME"),
		ServiceVersion: os.Getenv("APP_VERSION"),
		Environment:    os.Getenv("APP_ENV"),
	})
	slog.SetDefault(l.Logger)
	return l
}

// NewLogger creates a logger from config; a nil config gives JSON at info level on stdout
func NewLogger(config *LogConfig) *Logger {
	if config == nil {
		config = &LogConfig{Level: "info", Format: "json", Output: "stdout"}
	}

	opts := &slog.HandlerOptions{
		Level:     ParseLevel(config.Level),
		AddSource: config.AddSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			return replaceAttr(config, groups, a)
		},
	}

	writer := config.Writer
	if writer == nil {
		writer = getWriter(config.Output)
	}

	handlers := []slog.Handler{baseHandler(config.Format, writer, opts)}
	for _, output := range config.Outputs {
		if h := createOutputHandler(output); h != nil {
			handlers = append(handlers, h)
		}
	}

	var handler slog.Handler = handlers[0]
	if len(handlers) > 1 {
		handler = NewMultiHandler(handlers...)
	}

	handler = NewContextHandler(handler, defaultContextKeys())
	if config.EnableSampling && config.SampleRate > 0 && config.SampleRate < 1.0 {
		handler = NewSamplingHandler(handler, config.SampleRate)
	}
	handler = NewSanitizationHandler(handler)

	var attrs []slog.Attr
	if config.ServiceName != "" {
		attrs = append(attrs, slog.String("service", config.ServiceName))
	}
	if config.ServiceVersion != "" {
		attrs = append(attrs, slog.String("version", config.ServiceVersion))
	}
	if config.Environment != "" {
		attrs = append(attrs, slog.String("env", config.Environment))
	}
	if len(attrs) > 0 {
		handler = handler.WithAttrs(attrs)
	}

	return &Logger{
		Logger: slog.New(handler),
		config: config,
	}
}

func baseHandler(format string, w io.Writer, opts *slog.HandlerOptions) slog.Handler {
	switch format {
	case "text":
		return slog.NewTextHandler(w, opts)
	case "pretty":
		return NewPrettyTextHandler(w, opts)
	default:
		return slog.NewJSONHandler(w, opts)
	}
}

// ParseLevel maps a level name to a slog level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getWriter(output string) io.Writer {
	switch {
	case output == "stderr":
		return os.Stderr
	case strings.HasPrefix(output, "file:"):
		if f, err := openLogFile(strings.TrimPrefix(output, "file:")); err == nil {
			return f
		}
		return os.Stdout
	default:
		return os.Stdout
	}
}

func openLogFile(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

func createOutputHandler(output OutputConfig) slog.Handler {
	if output.Type != "file" || output.Path == "" {
		return nil
	}
	f, err := openLogFile(output.Path)
	if err != nil {
		return nil
	}
	return baseHandler(output.Format, f, &slog.HandlerOptions{Level: ParseLevel(output.Level)})
}

func defaultContextKeys() []ContextKey {
	return []ContextKey{
		ContextKeyRequestID,
		ContextKeyTraceID,
		ContextKeyClientIP,
		ContextKeyUserAgent,
		ContextKeyMethod,
		ContextKeyPath,
		ContextKeyProductID,
		ContextKeyReservationID,
		ContextKeyTaskID,
		ContextKeyTaskType,
	}
}

func extractContextAttrs(ctx context.Context, keys []ContextKey) []slog.Attr {
	var attrs []slog.Attr

	for _, key := range keys {
		val := ctx.Value(key)
		if val == nil {
			continue
		}
		name := string(key)
		switch v := val.(type) {
		case string:
			if v != "" {
				attrs = append(attrs, slog.String(name, v))
			}
		case int:
			attrs = append(attrs, slog.Int(name, v))
		case int64:
			attrs = append(attrs, slog.Int64(name, v))
		case time.Duration:
			attrs = append(attrs, slog.Duration(name, v))
		case uuid.UUID:
			attrs = append(attrs, slog.String(name, v.String()))
		default:
			attrs = append(attrs, slog.Any(name, v))
		}
	}

	return attrs
}

func replaceAttr(config *LogConfig, _ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		if t, ok := a.Value.Any().(time.Time); ok {
			a.Value = slog.StringValue(t.Format(time.RFC3339Nano))
		}
	}

	if a.Key == slog.LevelKey && config.Format == "json" {
		a.Key = "severity"
	}

	if strings.HasSuffix(a.Key, "_ms") {
		if d, ok := a.Value.Any().(time.Duration); ok {
			a.Value = slog.Float64Value(float64(d.Milliseconds()))
		}
	}

	return a
}

// WithValue stores a logging field in ctx
func WithValue(ctx context.Context, key ContextKey, val any) context.Context {
	return context.WithValue(ctx, key, val)
}

