package health

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ImportStatus reports whether an import is currently running.
type ImportStatus interface {
	Running() bool
}

type Handler struct {
	imports ImportStatus
}

func NewHandler(imports ImportStatus) *Handler {
	return &Handler{imports: imports}
}

type Response struct {
	Status        string `json:"status"`
	ImportRunning bool   `json:"import_running"`
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, Response{
		Status:        "healthy",
		ImportRunning: h.imports != nil && h.imports.Running(),
	})
}
