package websocket

import (
	"github.com/tech-arch1tect/vault-importer/internal/auth"
	"github.com/tech-arch1tect/vault-importer/internal/logging"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	hub         *Hub
	accessToken string
	logger      *logging.Logger
}

func NewHandler(hub *Hub, accessToken string, logger *logging.Logger) *Handler {
	return &Handler{
		hub:         hub,
		accessToken: accessToken,
		logger:      logger,
	}
}

// HandleNotices streams import notices to an authenticated client.
func (h *Handler) HandleNotices(c echo.Context) error {
	ok, err := auth.Authenticate(c, h.accessToken, h.logger)
	if !ok {
		return err
	}
	return h.hub.ServeWebSocket(c)
}
