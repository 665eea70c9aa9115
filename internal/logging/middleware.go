package logging

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const RequestIDHeader = "X-Request-ID"

const requestIDContextKey = "request_id"

// RequestMiddleware tags every request with an X-Request-ID and writes one
// access log line once the handler returns.
func RequestMiddleware(logger *Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			requestID := c.Request().Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.New().String()
				c.Request().Header.Set(RequestIDHeader, requestID)
			}
			c.Response().Header().Set(RequestIDHeader, requestID)
			c.Set(requestIDContextKey, requestID)

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			path := c.Request().URL.Path
			if path == "/api/health" {
				return nil
			}

			fields := []zap.Field{
				zap.String("request_id", requestID),
				zap.String("method", c.Request().Method),
				zap.String("path", path),
				zap.String("source_ip", c.RealIP()),
				zap.Int("status_code", c.Response().Status),
				zap.Int64("response_size", c.Response().Size),
				zap.Float64("latency_ms", float64(time.Since(start).Microseconds())/1000.0),
			}
			if err != nil {
				fields = append(fields, zap.Error(err))
				logger.Warn("request failed", fields...)
				return nil
			}

			logger.Info("request handled", fields...)
			return nil
		}
	}
}

func RequestID(c echo.Context) string {
	if id, ok := c.Get(requestIDContextKey).(string); ok {
		return id
	}
	return c.Request().Header.Get(RequestIDHeader)
}
