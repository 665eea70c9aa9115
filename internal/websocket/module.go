package websocket

import (
	"github.com/tech-arch1tect/vault-importer/config"
	"github.com/tech-arch1tect/vault-importer/internal/logging"

	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(func(logger *logging.Logger) *Hub {
		return NewHub(logger)
	}),
	fx.Provide(func(hub *Hub, cfg *config.Config, logger *logging.Logger) *Handler {
		return NewHandler(hub, cfg.AccessToken, logger)
	}),
)
