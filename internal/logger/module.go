package logger

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/checkout/internal/config"
)

const serviceName = "checkout"

// Module provides the service logger at the configured level.
var Module = fx.Provide(newServiceLogger)

func newServiceLogger(cfg *config.Config) *slog.Logger {
	return withService(New(cfg.LogLevel))
}

func withService(l *slog.Logger) *slog.Logger {
	return l.With(slog.String("service", serviceName))
}
