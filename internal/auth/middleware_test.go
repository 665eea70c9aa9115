package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tech-arch1tect/vault-importer/internal/logging"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateBearer(t *testing.T) {
	tests := []struct {
		name        string
		header      string
		accessToken string
		wantErr     error
	}{
		{name: "valid", header: "Bearer secret", accessToken: "secret"},
		{name: "not configured", header: "Bearer secret", accessToken: "", wantErr: ErrTokenNotConfigured},
		{name: "missing header", header: "", accessToken: "secret", wantErr: ErrMissingHeader},
		{name: "basic scheme", header: "Basic c2VjcmV0", accessToken: "secret", wantErr: ErrBearerRequired},
		{name: "wrong token", header: "Bearer nope", accessToken: "secret", wantErr: ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateBearer(tt.header, tt.accessToken)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTokenMiddleware(t *testing.T) {
	e := echo.New()
	handler := TokenMiddleware("secret", logging.NewNop())(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	t.Run("accepts valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("Authorization", "Bearer secret")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		require.NoError(t, handler(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "success", c.Get(AuthStatusContextKey))
		assert.Equal(t, HashToken("secret"), c.Get(AuthTokenHashContextKey))
	})

	t.Run("rejects invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("Authorization", "Bearer wrong")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		require.NoError(t, handler(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
		assert.Equal(t, "failed", c.Get(AuthStatusContextKey))
	})

	t.Run("fails closed without configured token", func(t *testing.T) {
		unconfigured := TokenMiddleware("", logging.NewNop())(func(c echo.Context) error {
			return c.String(http.StatusOK, "ok")
		})
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("Authorization", "Bearer secret")
		rec := httptest.NewRecorder()

		require.NoError(t, unconfigured(e.NewContext(req, rec)))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestHashToken(t *testing.T) {
	assert.Empty(t, HashToken(""))
	assert.Len(t, HashToken("secret"), 16)
	assert.Equal(t, HashToken("secret"), HashToken("secret"))
}
