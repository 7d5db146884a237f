// Package logger provides structured logging for Blobnom.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Logger is the application logging interface.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	WithContext(ctx context.Context) Logger
}

// Config holds logger configuration.
type Config struct {
	// Level is the minimum level: debug, info, warn, error.
	Level string
	// Format selects the output encoding: json (default) or text.
	Format string
	// Output defaults to os.Stderr.
	Output io.Writer
	// AddSource includes the caller position in every record.
	AddSource bool
}

// DefaultConfig returns the production defaults: info-level JSON on
// stderr.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "json", Output: os.Stderr}
}

// levelNames maps config strings to slog levels. Unknown names fall
// back to info.
var levelNames = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// processLevel is shared by every logger built here, so SetLevel
// reaches loggers already handed out.
var processLevel = new(slog.LevelVar)

// stdLogger is the slog-backed Logger. The bound context feeds request
// and connection IDs into every record.
type stdLogger struct {
	sl  *slog.Logger
	ctx context.Context
}

// New builds a logger and points the process level at cfg.Level.
func New(cfg Config) (Logger, error) {
	processLevel.Set(parseLevel(cfg.Level))
	return &stdLogger{
		sl:  slog.New(newHandler(cfg)),
		ctx: context.Background(),
	}, nil
}

// newHandler builds the slog handler for cfg with redaction installed.
func newHandler(cfg Config) slog.Handler {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     processLevel,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			return redactSensitive(a)
		},
	}

	if f := strings.ToLower(cfg.Format); f == "text" || f == "console" {
		return slog.NewTextHandler(out, opts)
	}
	return slog.NewJSONHandler(out, opts)
}

// SetLevel adjusts the process level at runtime. The config watcher
// uses this to apply log.level changes without a restart.
func SetLevel(level string) {
	processLevel.Set(parseLevel(level))
}

// GetLevel reports the current process level.
func GetLevel() string {
	return strings.ToLower(processLevel.Level().String())
}

func parseLevel(level string) slog.Level {
	if lvl, ok := levelNames[strings.ToLower(level)]; ok {
		return lvl
	}
	return slog.LevelInfo
}

func (l *stdLogger) Debug(msg string, args ...any) {
	l.sl.DebugContext(l.ctx, msg, args...)
}

func (l *stdLogger) Info(msg string, args ...any) {
	l.sl.InfoContext(l.ctx, msg, args...)
}

func (l *stdLogger) Warn(msg string, args ...any) {
	l.sl.WarnContext(l.ctx, msg, args...)
}

func (l *stdLogger) Error(msg string, args ...any) {
	l.sl.ErrorContext(l.ctx, msg, args...)
}

// With returns a logger appending args to every record.
func (l *stdLogger) With(args ...any) Logger {
	return &stdLogger{sl: l.sl.With(args...), ctx: l.ctx}
}

// WithContext returns a logger bound to ctx.
func (l *stdLogger) WithContext(ctx context.Context) Logger {
	return &stdLogger{sl: l.sl, ctx: ctx}
}

// defaultLogger is the process-wide logger until SetDefault replaces
// it.
var defaultLogger atomic.Pointer[stdLogger]

func init() {
	defaultLogger.Store(&stdLogger{
		sl:  slog.New(newHandler(DefaultConfig())),
		ctx: context.Background(),
	})
}

// SetDefault installs l as the process default and aligns log/slog's
// own default with it, so code taking *slog.Logger logs through the
// same handler and redaction.
func SetDefault(l Logger) {
	if sl, ok := l.(*stdLogger); ok {
		defaultLogger.Store(sl)
		slog.SetDefault(sl.sl)
	}
}

// Default returns the process default logger.
func Default() Logger {
	return defaultLogger.Load()
}

// Slog returns the default logger's *slog.Logger for components that
// take the standard library type directly.
func Slog() *slog.Logger {
	return defaultLogger.Load().sl
}
