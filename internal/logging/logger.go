// Package logging provides categorized zap logging for riskmonitor.
// Each subsystem logs under its own named logger so output can be
// filtered per category.
package logging

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/subsystem.
type Category string

const (
	CategoryBoot       Category = "boot"       // Startup and shutdown
	CategoryServer     Category = "server"     // HTTP API
	CategoryStore      Category = "store"      // SQLite store operations
	CategoryAgents     Category = "agents"     // Agent pipeline stages
	CategoryLLM        Category = "llm"        // Gemini API calls
	CategoryFeeds      Category = "feeds"      // Live feed clients
	CategoryScheduler  Category = "scheduler"  // Background workers
	CategoryWeather    Category = "weather"    // Weather monitoring
	CategoryEmbedding  Category = "embedding"  // Embedding engine
	CategoryMonitoring Category = "monitoring" // Metrics and health
)

var (
	root      *zap.Logger
	loggers   = make(map[Category]*zap.Logger)
	loggersMu sync.RWMutex
)

// Initialize builds the root logger. Call once at startup. Level is one of
// debug, info, warn, error; unknown values fall back to info.
func Initialize(level string) error {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	switch level {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	logger, err := cfg.Build(zap.AddCallerSkip(0))
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	loggersMu.Lock()
	defer loggersMu.Unlock()
	root = logger
	loggers = make(map[Category]*zap.Logger)
	return nil
}

// Get returns the logger for a category, creating it on first use. Safe to
// call before Initialize: a no-op logger is returned until the root exists.
func Get(category Category) *zap.Logger {
	loggersMu.RLock()
	if l, ok := loggers[category]; ok {
		loggersMu.RUnlock()
		return l
	}
	loggersMu.RUnlock()

	loggersMu.Lock()
	defer loggersMu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}
	if root == nil {
		return zap.NewNop()
	}
	l := root.Named(string(category))
	loggers[category] = l
	return l
}

// Sync flushes buffered log entries.
func Sync() {
	loggersMu.RLock()
	defer loggersMu.RUnlock()
	if root != nil {
		_ = root.Sync()
	}
}

// =============================================================================
// TIMING HELPERS
// =============================================================================

// Timer measures operation duration.
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation.
func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, op: operation, start: time.Now()}
}

// Stop ends the timer and logs the duration at debug level.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("operation completed",
		zap.String("op", t.op), zap.Duration("elapsed", elapsed))
	return elapsed
}

// StopWithThreshold logs a warning if the duration exceeds the threshold.
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warn("slow operation",
			zap.String("op", t.op),
			zap.Duration("elapsed", elapsed),
			zap.Duration("threshold", threshold))
	} else {
		Get(t.category).Debug("operation completed",
			zap.String("op", t.op), zap.Duration("elapsed", elapsed))
	}
	return elapsed
}

// =============================================================================
// REQUEST TRACING
// =============================================================================

// WithRequestID returns a request-scoped logger carrying a correlation id.
func WithRequestID(category Category, requestID string) *zap.Logger {
	return Get(category).With(zap.String("request_id", requestID))
}
