package preferences

import (
	"context"

	"github.com/tech-arch1tect/vault-importer/config"
	"github.com/tech-arch1tect/vault-importer/internal/logging"

	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(NewStoreFromConfig),
	fx.Provide(NewHandler),
	fx.Invoke(RegisterWatcher),
)

func NewStoreFromConfig(cfg *config.Config, logger *logging.Logger) (*Store, error) {
	return NewStore(cfg.PreferencesFile, logger)
}

func RegisterWatcher(lc fx.Lifecycle, store *Store) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return store.Start()
		},
		OnStop: func(ctx context.Context) error {
			store.Stop()
			return nil
		},
	})
}
