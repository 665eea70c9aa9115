package preferences

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

type Response struct {
	Path        string      `json:"path"`
	Preferences Preferences `json:"preferences"`
}

func (h *Handler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, Response{
		Path:        h.store.Path(),
		Preferences: h.store.Snapshot(),
	})
}
