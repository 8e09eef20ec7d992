package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Option adjusts the logger configuration before it is built.
type Option func(*zap.Config) error

// WithLevel sets the minimum enabled level, e.g. "debug" or "warn".
func WithLevel(level string) Option {
	return func(cfg *zap.Config) error {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("parse log level: %w", err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
		return nil
	}
}

// WithConsole switches to human-readable console output. Used by the one-shot
// CLI commands where the JSON stream would clutter a terminal.
func WithConsole() Option {
	return func(cfg *zap.Config) error {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		cfg.DisableStacktrace = true
		return nil
	}
}

// New creates a production-ready structured logger configured for JSON output
// on stderr, so stdout stays free for command results.
func New(opts ...Option) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.StacktraceKey = "stacktrace"
	cfg.DisableStacktrace = false
	cfg.OutputPaths = []string{"stderr"}

	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
