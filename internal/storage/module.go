package storage

import (
	"github.com/tech-arch1tect/vault-importer/config"
	"github.com/tech-arch1tect/vault-importer/internal/logging"

	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(NewVaultFromConfig),
	fx.Provide(func(v *Vault) Backend { return v }),
)

func NewVaultFromConfig(cfg *config.Config, logger *logging.Logger) (*Vault, error) {
	return NewLocalVault(cfg.VaultLocation, cfg.VaultConfigDir, logger)
}
