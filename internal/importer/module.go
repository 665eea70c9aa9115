package importer

import (
	"github.com/tech-arch1tect/vault-importer/config"
	"github.com/tech-arch1tect/vault-importer/internal/logging"
	"github.com/tech-arch1tect/vault-importer/internal/preferences"

	"go.uber.org/fx"
)

// Module expects a Notifier to be provided by the caller; it receives every
// notice of every HTTP-triggered import.
var Module = fx.Options(
	fx.Provide(NewService),
	fx.Provide(NewHandlerFromConfig),
)

func NewHandlerFromConfig(cfg *config.Config, service *Service, store *preferences.Store, notifier Notifier, logger *logging.Logger) *Handler {
	return NewHandler(service, store, notifier, cfg.MaxArchiveBytes(), logger)
}
