package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/tech-arch1tect/vault-importer/config"
	"github.com/tech-arch1tect/vault-importer/internal/audit"
	"github.com/tech-arch1tect/vault-importer/internal/auth"
	"github.com/tech-arch1tect/vault-importer/internal/health"
	"github.com/tech-arch1tect/vault-importer/internal/importer"
	"github.com/tech-arch1tect/vault-importer/internal/logging"
	"github.com/tech-arch1tect/vault-importer/internal/preferences"
	"github.com/tech-arch1tect/vault-importer/internal/storage"
	"github.com/tech-arch1tect/vault-importer/internal/websocket"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "vault-importer",
	Short: "Import ZIP archives of notes into a vault",
	Long: `vault-importer unpacks ZIP archives into a notes vault. Notes and images
keep their folder structure under the import folder, style sheets go to the
vault's snippets folder and existing files are kept unless overwriting is
enabled.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the import HTTP API",
	Run: func(cmd *cobra.Command, args []string) {
		runServer()
	},
}

func main() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(newImportCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

func runServer() {
	fx.New(
		config.Module,
		logging.Module,
		audit.Module,
		storage.Module,
		preferences.Module,
		websocket.Module,
		importer.Module,
		health.Module,
		fx.Provide(NewHubNotifier),
		fx.Provide(func(s *importer.Service) health.ImportStatus { return s }),
		fx.Provide(NewEcho),
		fx.Invoke(RegisterRoutes),
		fx.Invoke(StartServer),
		fx.Invoke(StartWebSocketHub),
	).Run()
}

func NewEcho(logger *logging.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(logging.RequestMiddleware(logger.Named("http")))
	e.Use(echomiddleware.Recover())
	return e
}

func RegisterRoutes(
	e *echo.Echo,
	cfg *config.Config,
	logger *logging.Logger,
	importHandler *importer.Handler,
	preferencesHandler *preferences.Handler,
	healthHandler *health.Handler,
	wsHandler *websocket.Handler,
) {
	api := e.Group("/api")
	api.Use(auth.TokenMiddleware(cfg.AccessToken, logger))

	api.GET("/health", healthHandler.Health)
	api.GET("/preferences", preferencesHandler.Get)
	api.POST("/imports", importHandler.Import)

	e.GET("/ws/notices", wsHandler.HandleNotices)
}

// NewHubNotifier forwards import notices to every websocket client.
func NewHubNotifier(hub *websocket.Hub) importer.Notifier {
	return importer.NotifierFunc(func(n importer.Notice) {
		hub.BroadcastNotice(websocket.NoticeEvent{
			BaseMessage: websocket.BaseMessage{Timestamp: n.Timestamp},
			RunID:       n.RunID,
			Level:       string(n.Level),
			Message:     n.Message,
			Entry:       n.Entry,
			Status:      string(n.Status),
			Final:       n.Final,
		})
	})
}

func StartWebSocketHub(lc fx.Lifecycle, hub *websocket.Hub) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go hub.Run()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			hub.Stop()
			return nil
		},
	})
}

func StartServer(lc fx.Lifecycle, e *echo.Echo, cfg *config.Config, logger *logging.Logger, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info("Server starting",
					zap.String("port", cfg.Port),
					zap.String("vault_location", cfg.VaultLocation))
				if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("Server failed to start", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return e.Shutdown(ctx)
		},
	})
}
