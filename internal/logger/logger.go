// Package logger builds the zap logger shared by vitals components.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects level and destination.
type Options struct {
	// Level is a zap level name: debug, info, warn, error.
	Level string
	// File receives log output when set.
	File string
	// Console also writes to stderr. Off while the TUI owns the terminal.
	Console bool
}

// New builds a logger for opts. With no File and no Console it returns a
// no-op logger.
func New(opts Options) (*zap.Logger, error) {
	var paths []string
	if opts.Console {
		paths = append(paths, "stderr")
	}
	if opts.File != "" {
		paths = append(paths, opts.File)
	}
	if len(paths) == 0 {
		return zap.NewNop(), nil
	}

	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
	}

	cfg := zap.Config{
		Level:            level,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      paths,
		ErrorOutputPaths: []string{"stderr"},
	}
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")

	return cfg.Build()
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
