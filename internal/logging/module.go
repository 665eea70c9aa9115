package logging

import (
	"context"

	"github.com/tech-arch1tect/vault-importer/config"

	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(NewLoggerFromConfig),
	fx.Invoke(RegisterLoggerShutdown),
)

func NewLoggerFromConfig(cfg *config.Config) (*Logger, error) {
	return NewLogger(cfg.LogLevel)
}

func RegisterLoggerShutdown(lc fx.Lifecycle, logger *Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = logger.Sync()
			return nil
		},
	})
}
