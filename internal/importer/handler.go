package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/tech-arch1tect/vault-importer/internal/common"
	"github.com/tech-arch1tect/vault-importer/internal/logging"
	"github.com/tech-arch1tect/vault-importer/internal/preferences"
	"github.com/tech-arch1tect/vault-importer/internal/validation"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	FormFieldArchive    = "archive"
	FormFieldImportPath = "import_path"
	FormFieldOverwrite  = "overwrite"

	// multipartOverhead allows for form fields and boundaries on top of the
	// archive itself.
	multipartOverhead = 1 << 20
)

type PreferencesSource interface {
	Snapshot() preferences.Preferences
}

type Handler struct {
	service         *Service
	preferences     PreferencesSource
	notifier        Notifier
	maxArchiveBytes int64
	logger          *logging.Logger
}

func NewHandler(service *Service, prefs PreferencesSource, notifier Notifier, maxArchiveBytes int64, logger *logging.Logger) *Handler {
	return &Handler{
		service:         service,
		preferences:     prefs,
		notifier:        notifier,
		maxArchiveBytes: maxArchiveBytes,
		logger:          logger.With(zap.String("handler", "importer")),
	}
}

type requestError struct {
	status  int
	code    string
	message string
}

func (e *requestError) send(c echo.Context) error {
	return common.SendErrorCode(c, e.status, e.code, e.message)
}

// Import accepts a multipart upload and runs it through the importer. A
// client sending Accept: text/event-stream receives every notice as it is
// produced followed by the summary; anyone else gets the summary as JSON.
func (h *Handler) Import(c echo.Context) error {
	if h.maxArchiveBytes > 0 {
		c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, h.maxArchiveBytes+multipartOverhead)
	}

	data, cfg, reqErr := h.parseRequest(c)
	if reqErr != nil {
		h.logger.Warn("import request rejected",
			zap.String("request_id", logging.RequestID(c)),
			zap.String("code", reqErr.code),
			zap.String("reason", reqErr.message))
		return reqErr.send(c)
	}

	ctx := WithSource(c.Request().Context(), c.RealIP())

	if strings.Contains(c.Request().Header.Get(echo.HeaderAccept), "text/event-stream") {
		return h.stream(ctx, c, data, cfg)
	}

	summary, err := h.service.Import(ctx, data, cfg, h.notifier)
	if err != nil {
		status, code := errorStatus(err)
		return common.SendErrorCode(c, status, code, err.Error())
	}

	return common.SendSuccess(c, summary)
}

func (h *Handler) stream(ctx context.Context, c echo.Context, data []byte, cfg Config) error {
	// Best effort: a request racing past this check has already committed the
	// stream and receives an IMPORT_IN_PROGRESS error event instead.
	if h.service.Running() {
		return common.SendErrorCode(c, http.StatusConflict, common.CodeImportInProgress, ErrImportInProgress.Error())
	}

	c.Response().Header().Set("Content-Type", "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().WriteHeader(http.StatusOK)

	writer := NewStreamWriter(c.Response())
	summary, err := h.service.Import(ctx, data, cfg, Notifiers{h.notifier, writer})
	if err != nil {
		_, code := errorStatus(err)
		writer.WriteError(code, err.Error())
	}
	if summary != nil {
		writer.WriteSummary(summary)
	}
	return nil
}

func (h *Handler) parseRequest(c echo.Context) ([]byte, Config, *requestError) {
	fileHeader, err := c.FormFile(FormFieldArchive)
	if err != nil {
		if tooLarge(err) {
			return nil, Config{}, h.tooLarge()
		}
		return nil, Config{}, &requestError{
			status:  http.StatusBadRequest,
			code:    common.CodeMissingArchive,
			message: fmt.Sprintf("multipart field %q is required", FormFieldArchive),
		}
	}

	if h.maxArchiveBytes > 0 && fileHeader.Size > h.maxArchiveBytes {
		return nil, Config{}, h.tooLarge()
	}

	prefs := h.preferences.Snapshot()
	importPath := prefs.ImportPath
	overwrite := prefs.OverwriteFiles

	if form, err := c.MultipartForm(); err == nil {
		if values, ok := form.Value[FormFieldImportPath]; ok && len(values) > 0 {
			importPath = values[0]
		}
		if values, ok := form.Value[FormFieldOverwrite]; ok && len(values) > 0 {
			overwrite, err = strconv.ParseBool(values[0])
			if err != nil {
				return nil, Config{}, &requestError{
					status:  http.StatusBadRequest,
					code:    common.CodeInvalidRequest,
					message: fmt.Sprintf("invalid %s value %q", FormFieldOverwrite, values[0]),
				}
			}
		}
	}

	if err := validation.ValidateImportPath(importPath); err != nil {
		return nil, Config{}, &requestError{
			status:  http.StatusBadRequest,
			code:    common.CodeInvalidRequest,
			message: fmt.Sprintf("invalid import path: %v", err),
		}
	}

	src, err := fileHeader.Open()
	if err != nil {
		return nil, Config{}, &requestError{
			status:  http.StatusBadRequest,
			code:    common.CodeInvalidRequest,
			message: fmt.Sprintf("failed to read archive: %v", err),
		}
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		if tooLarge(err) {
			return nil, Config{}, h.tooLarge()
		}
		return nil, Config{}, &requestError{
			status:  http.StatusBadRequest,
			code:    common.CodeInvalidRequest,
			message: fmt.Sprintf("failed to read archive: %v", err),
		}
	}

	return data, NewConfig(importPath, overwrite, h.service.ConfigDir()), nil
}

func (h *Handler) tooLarge() *requestError {
	return &requestError{
		status:  http.StatusRequestEntityTooLarge,
		code:    common.CodeArchiveTooLarge,
		message: fmt.Sprintf("archive exceeds %d bytes", h.maxArchiveBytes),
	}
}

func tooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr)
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrImportInProgress):
		return http.StatusConflict, common.CodeImportInProgress
	case IsDecodeError(err):
		return http.StatusUnprocessableEntity, common.CodeDecodeError
	default:
		return http.StatusInternalServerError, common.CodeImportError
	}
}
