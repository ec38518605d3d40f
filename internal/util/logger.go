// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	globalLogger *zap.Logger
	loggerMu     sync.RWMutex
)

// LogOptions controls how InitLogger builds the process logger.
type LogOptions struct {
	// Environment is "production" (JSON, sampled) or anything else (console).
	Environment string
	// Level is debug, info, warn or error.
	Level string
	// Format is "json" or "console"; empty keeps the environment default.
	Format string
	// OutputPaths are zap sink URLs or file paths. Defaults to stderr.
	OutputPaths []string
}

// InitLogger builds the global logger and installs it with zap.ReplaceGlobals.
// Calling it again replaces the previous logger.
func InitLogger(opts LogOptions) (*zap.Logger, error) {
	var cfg zap.Config
	if opts.Environment == "production" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.DisableStacktrace = true
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(ParseLogLevel(opts.Level))

	switch opts.Format {
	case "json":
		cfg.Encoding = "json"
	case "console":
		cfg.Encoding = "console"
	}

	cfg.OutputPaths = []string{"stderr"}
	if len(opts.OutputPaths) > 0 {
		cfg.OutputPaths = opts.OutputPaths
	}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := cfg.Build(zap.AddCaller())
	if err != nil {
		return nil, err
	}

	loggerMu.Lock()
	globalLogger = logger
	loggerMu.Unlock()
	zap.ReplaceGlobals(logger)
	return logger, nil
}

// Logger returns the global logger, or a no-op logger before InitLogger.
func Logger() *zap.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	if globalLogger == nil {
		return zap.NewNop()
	}
	return globalLogger
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// SyncLogger flushes buffered entries of the global logger.
func SyncLogger() {
	loggerMu.RLock()
	l := globalLogger
	loggerMu.RUnlock()
	if l != nil {
		_ = l.Sync()
	}
}

// ParseLogLevel maps a level name to a zapcore.Level, defaulting to info.
func ParseLogLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
