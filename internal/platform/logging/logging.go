package logging

import (
	"context"
	"fmt"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap logger. format is "json" (production encoder) or
// "console" (development encoder).
func New(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}

	var cfg zap.Config
	switch format {
	case "", "json":
		cfg = zap.NewProductionConfig()
	case "console":
		cfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

// WithRequest tags l with the chi request id carried by ctx, if any.
func WithRequest(ctx context.Context, l *zap.Logger) *zap.Logger {
	if rid := middleware.GetReqID(ctx); rid != "" {
		return l.With(zap.String("request_id", rid))
	}
	return l
}
