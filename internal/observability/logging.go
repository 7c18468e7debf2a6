// Package observability constructs the room server's structured logger.
package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kmorita/daifugo/internal/config"
)

// NewLogger builds a zap logger for the configured level and format.
// Format "json" selects zap's production preset, "console" the
// development preset; both emit ISO 8601 timestamps.
func NewLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var base zap.Config
	switch cfg.Format {
	case "json":
		base = zap.NewProductionConfig()
	case "console":
		base = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}
	base.Level = zap.NewAtomicLevelAt(level)
	base.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := base.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}
