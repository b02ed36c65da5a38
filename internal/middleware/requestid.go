package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/suteetoe/ekklesia/pkg/logger"
	"go.uber.org/zap"
)

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Request().Header.Get(echo.HeaderXRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
			c.Request().Header.Set(echo.HeaderXRequestID, requestID)
		}

		// Add request ID to response header
		c.Response().Header().Set(echo.HeaderXRequestID, requestID)

		// Request-scoped logger for handlers (echo context) and services (request context)
		ctxLogger := logger.GetLogger().With(zap.String("request_id", requestID))
		c.Set(logger.EchoKey, ctxLogger)
		c.SetRequest(c.Request().WithContext(logger.WithContext(c.Request().Context(), ctxLogger)))

		return next(c)
	}
}
