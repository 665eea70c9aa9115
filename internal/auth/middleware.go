package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/tech-arch1tect/vault-importer/internal/common"
	"github.com/tech-arch1tect/vault-importer/internal/logging"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	AuthStatusContextKey    = "auth_status"
	AuthErrorContextKey     = "auth_error"
	AuthTokenHashContextKey = "auth_token_hash"
)

var (
	ErrTokenNotConfigured = errors.New("access token not configured")
	ErrMissingHeader      = errors.New("authorization header required")
	ErrBearerRequired     = errors.New("bearer token required")
	ErrInvalidToken       = errors.New("invalid token")
)

// ValidateBearer checks an Authorization header value against the configured
// access token and returns the presented token.
func ValidateBearer(header, accessToken string) (string, error) {
	if accessToken == "" {
		return "", ErrTokenNotConfigured
	}
	if header == "" {
		return "", ErrMissingHeader
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return "", ErrBearerRequired
	}

	token := strings.TrimPrefix(header, "Bearer ")
	if subtle.ConstantTimeCompare([]byte(token), []byte(accessToken)) != 1 {
		return token, ErrInvalidToken
	}
	return token, nil
}

// Authenticate validates the request's bearer token, records the result on
// the echo context and writes the error response on failure. It returns
// false when the request must not proceed.
func Authenticate(c echo.Context, accessToken string, logger *logging.Logger) (bool, error) {
	sourceIP := c.RealIP()

	token, err := ValidateBearer(c.Request().Header.Get("Authorization"), accessToken)
	if err != nil {
		SetAuthFailure(c, err.Error())
		logger.Warn("Authentication failed",
			zap.String("auth_status", "failed"),
			zap.String("source_ip", sourceIP),
			zap.String("reason", err.Error()),
			zap.String("token_hash", HashToken(token)))

		if errors.Is(err, ErrTokenNotConfigured) {
			return false, common.SendInternalError(c, err.Error())
		}
		return false, common.SendUnauthorized(c, err.Error())
	}

	SetAuthSuccess(c, token)
	logger.Debug("Authentication successful",
		zap.String("auth_status", "success"),
		zap.String("source_ip", sourceIP),
		zap.String("token_hash", HashToken(token)))
	return true, nil
}

func TokenMiddleware(accessToken string, logger *logging.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ok, err := Authenticate(c, accessToken, logger)
			if !ok {
				return err
			}
			return next(c)
		}
	}
}

func SetAuthSuccess(c echo.Context, token string) {
	c.Set(AuthStatusContextKey, "success")
	if token != "" {
		c.Set(AuthTokenHashContextKey, HashToken(token))
	}
}

func SetAuthFailure(c echo.Context, reason string) {
	c.Set(AuthStatusContextKey, "failed")
	c.Set(AuthErrorContextKey, reason)
}

func HashToken(token string) string {
	if token == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])[:16]
}
