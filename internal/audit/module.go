package audit

import (
	"context"

	"github.com/tech-arch1tect/vault-importer/config"
	"github.com/tech-arch1tect/vault-importer/internal/logging"

	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(NewServiceFromConfig),
	fx.Invoke(RegisterShutdown),
)

func NewServiceFromConfig(cfg *config.Config, logger *logging.Logger) (*Service, error) {
	maxSizeBytes := int64(cfg.AuditLogSizeLimitMB) * 1024 * 1024
	return NewService(
		cfg.AuditLogEnabled,
		cfg.AuditLogFilePath,
		maxSizeBytes,
		logger,
	)
}

func RegisterShutdown(lc fx.Lifecycle, service *Service) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return service.Close()
		},
	})
}
