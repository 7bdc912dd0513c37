package logging

import (
	"context"
	"io"
	"os"

	"github.com/hashicorp/go-hclog"

	"github.com/Domenick1991/seatbooking/config"
)

type ctxKey struct{}

// New builds the root logger for a process.
func New(name string, cfg config.LogConfig) hclog.Logger {
	return NewWithOutput(name, cfg, os.Stderr)
}

func NewWithOutput(name string, cfg config.LogConfig, w io.Writer) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      hclog.LevelFromString(cfg.Level),
		JSONFormat: cfg.JSON,
		Output:     w,
	})
}

// WithContext stores a request-scoped logger in ctx.
func WithContext(ctx context.Context, logger hclog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the logger stored in ctx, or fallback when there is none.
func FromContext(ctx context.Context, fallback hclog.Logger) hclog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(hclog.Logger); ok && l != nil {
		return l
	}
	if fallback == nil {
		return hclog.NewNullLogger()
	}
	return fallback
}
