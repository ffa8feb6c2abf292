// Package logger wraps log/slog with a process-wide logger shared by the
// daemon and its subsystems. It adds a human-readable text format for
// terminals, a JSON format for log shippers, and request-scoped field
// propagation through context (see RequestContext).
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// Output format names accepted by Config.Format.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config controls the process-wide logger.
type Config struct {
	// Level is the minimum severity to emit: debug, info, warn or error.
	Level string

	// Format selects the line encoding, FormatText or FormatJSON.
	Format string

	// Output is the destination: "stdout", "stderr" or a file path.
	Output string
}

// minLevel gates all logging. It lives in a slog.LevelVar so level changes
// never require rebuilding the handler.
var minLevel slog.LevelVar

var (
	mu  sync.RWMutex
	log *slog.Logger
)

func init() {
	minLevel.Set(slog.LevelInfo)
	log = slog.New(newTextHandler(os.Stdout, &minLevel, isTerminal(os.Stdout)))
}

// Init configures the logger from cfg. Output files are opened append-only
// and never colored; color on stdout and stderr depends on whether they are
// terminals.
func Init(cfg Config) error {
	w, color, err := openOutput(cfg.Output)
	if err != nil {
		return err
	}

	lv, _ := levelFromString(cfg.Level)

	mu.Lock()
	defer mu.Unlock()
	minLevel.Set(lv)
	log = slog.New(buildHandler(w, cfg.Format, color))
	return nil
}

// InitWithWriter points the logger at an arbitrary writer without color.
// Tests use it to capture output.
func InitWithWriter(w io.Writer, cfg Config) {
	lv, _ := levelFromString(cfg.Level)

	mu.Lock()
	defer mu.Unlock()
	minLevel.Set(lv)
	log = slog.New(buildHandler(w, cfg.Format, false))
}

func buildHandler(w io.Writer, format string, color bool) slog.Handler {
	if strings.EqualFold(strings.TrimSpace(format), FormatJSON) {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: &minLevel})
	}
	return newTextHandler(w, &minLevel, color)
}

func openOutput(output string) (io.Writer, bool, error) {
	switch strings.ToLower(strings.TrimSpace(output)) {
	case "", "stdout":
		return os.Stdout, isTerminal(os.Stdout), nil
	case "stderr":
		return os.Stderr, isTerminal(os.Stderr), nil
	}

	f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, false, fmt.Errorf("open log output %s: %w", output, err)
	}
	return f, false, nil
}

// levelFromString maps a config level name to a slog level. Unknown names
// report false and fall back to info.
func levelFromString(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "", "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// enabled is the cheap front gate: arguments to the logging functions are
// still evaluated by the caller, but attribute conversion and handler
// dispatch are skipped for suppressed levels.
func enabled(l slog.Level) bool {
	return l >= minLevel.Level()
}

// Debug logs a message at DEBUG level.
func Debug(msg string, args ...any) {
	if enabled(slog.LevelDebug) {
		current().Debug(msg, args...)
	}
}

// Info logs a message at INFO level.
func Info(msg string, args ...any) {
	if enabled(slog.LevelInfo) {
		current().Info(msg, args...)
	}
}

// Warn logs a message at WARN level.
func Warn(msg string, args ...any) {
	if enabled(slog.LevelWarn) {
		current().Warn(msg, args...)
	}
}

// Error logs a message at ERROR level.
func Error(msg string, args ...any) {
	if enabled(slog.LevelError) {
		current().Error(msg, args...)
	}
}

// DebugCtx logs at DEBUG level with the request fields carried by ctx.
func DebugCtx(ctx context.Context, msg string, args ...any) {
	if enabled(slog.LevelDebug) {
		current().DebugContext(ctx, msg, withRequestFields(ctx, args)...)
	}
}

// InfoCtx logs at INFO level with the request fields carried by ctx.
func InfoCtx(ctx context.Context, msg string, args ...any) {
	if enabled(slog.LevelInfo) {
		current().InfoContext(ctx, msg, withRequestFields(ctx, args)...)
	}
}

// WarnCtx logs at WARN level with the request fields carried by ctx.
func WarnCtx(ctx context.Context, msg string, args ...any) {
	if enabled(slog.LevelWarn) {
		current().WarnContext(ctx, msg, withRequestFields(ctx, args)...)
	}
}

// ErrorCtx logs at ERROR level with the request fields carried by ctx.
func ErrorCtx(ctx context.Context, msg string, args ...any) {
	if enabled(slog.LevelError) {
		current().ErrorContext(ctx, msg, withRequestFields(ctx, args)...)
	}
}

// Duration returns the milliseconds elapsed since start, for duration_ms
// fields and metrics observations.
func Duration(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
