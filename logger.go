package diffmap

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with diffmap-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithSamples adds a sample-count field to the logger.
func (l *Logger) WithSamples(n int) *Logger {
	return &Logger{
		Logger: l.Logger.With("samples", n),
	}
}

// WithNeighbors adds a neighbor-count field to the logger.
func (l *Logger) WithNeighbors(k int) *Logger {
	return &Logger{
		Logger: l.Logger.With("n_neighbors", k),
	}
}

// WithComponents adds a component-count field to the logger.
func (l *Logger) WithComponents(c int) *Logger {
	return &Logger{
		Logger: l.Logger.With("n_components", c),
	}
}

// LogNeighborSearch logs the neighbor graph stage.
func (l *Logger) LogNeighborSearch(ctx context.Context, samples, k int, approximate bool, d time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "neighbor search failed",
			"samples", samples,
			"k", k,
			"approximate", approximate,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "neighbor search completed",
			"samples", samples,
			"k", k,
			"approximate", approximate,
			"duration", d,
		)
	}
}

// LogKernel logs the kernel and operator construction stage.
func (l *Logger) LogKernel(ctx context.Context, nnz int, alpha float64, d time.Duration) {
	l.DebugContext(ctx, "diffusion operator built",
		"nnz", nnz,
		"alpha", alpha,
		"duration", d,
	)
}

// LogEigen logs the eigendecomposition stage.
func (l *Logger) LogEigen(ctx context.Context, components int, d time.Duration, err error) {
	if err != nil {
		l.WarnContext(ctx, "eigendecomposition degraded",
			"n_components", components,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "eigendecomposition completed",
			"n_components", components,
			"duration", d,
		)
	}
}

// LogSelection logs the automatic component selection.
func (l *Logger) LogSelection(ctx context.Context, m int, sensitivity float64) {
	l.InfoContext(ctx, "selected diffusion components",
		"m", m,
		"sensitivity", sensitivity,
	)
}
