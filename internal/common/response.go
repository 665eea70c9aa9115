package common

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeMissingArchive   = "MISSING_ARCHIVE"
	CodeArchiveTooLarge  = "ARCHIVE_TOO_LARGE"
	CodeDecodeError      = "DECODE_ERROR"
	CodeImportInProgress = "IMPORT_IN_PROGRESS"
	CodeImportError      = "IMPORT_ERROR"
	CodeUnauthorized     = "UNAUTHORIZED"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func SendSuccess(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, data)
}

func SendError(c echo.Context, statusCode int, message string) error {
	return c.JSON(statusCode, ErrorResponse{Error: message})
}

func SendErrorCode(c echo.Context, statusCode int, code, message string) error {
	return c.JSON(statusCode, ErrorResponse{Error: message, Code: code})
}

func SendBadRequest(c echo.Context, code, message string) error {
	return SendErrorCode(c, http.StatusBadRequest, code, message)
}

func SendUnauthorized(c echo.Context, message string) error {
	return SendErrorCode(c, http.StatusUnauthorized, CodeUnauthorized, message)
}

func SendInternalError(c echo.Context, message string) error {
	return SendError(c, http.StatusInternalServerError, message)
}
