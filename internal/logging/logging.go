// Package logging sets up the application loggers: structured JSON to
// stdout, plus rotated per-service file loggers.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	structuredLogger *slog.Logger
	initOnce         sync.Once
	levelVar         slog.LevelVar
)

// Init initializes the logging system. Safe to call more than once;
// only the first call takes effect.
func Init(debug bool) {
	initOnce.Do(func() {
		if debug {
			levelVar.Set(slog.LevelDebug)
		} else {
			levelVar.Set(slog.LevelInfo)
		}

		structuredHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: &levelVar,
		})
		structuredLogger = slog.New(structuredHandler)
		slog.SetDefault(structuredLogger)
	})
}

// SetLevel sets the minimum logging level for the structured logger.
func SetLevel(level slog.Level) {
	levelVar.Set(level)
}

// Structured returns the structured (JSON) logger instance.
func Structured() *slog.Logger {
	if structuredLogger == nil {
		Init(false)
	}
	return structuredLogger
}

// ForService returns a logger with the service name pre-populated,
// so log aggregation can filter by originating subsystem.
func ForService(serviceName string) *slog.Logger {
	return Structured().With("service", serviceName)
}

// NewFileLogger creates a slog.Logger writing JSON logs to the given
// file path, rotated by lumberjack. It returns the logger and a close
// function that must be called on shutdown.
func NewFileLogger(filePath, serviceName string, level slog.Leveler) (*slog.Logger, func() error, error) {
	// lumberjack does not create directories
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, err
		}
	}

	logWriter := &lumberjack.Logger{
		Filename:   filePath,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	handler := slog.NewJSONHandler(logWriter, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler).With("service", serviceName)

	closeFunc := func() error {
		return logWriter.Close()
	}
	return logger, closeFunc, nil
}

// SetOutput redirects the structured logger, used by tests to capture
// or silence log output.
func SetOutput(w io.Writer) {
	structuredLogger = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: &levelVar}))
	slog.SetDefault(structuredLogger)
}
