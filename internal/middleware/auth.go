package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/ekklesia/internal/auth"
	"github.com/suteetoe/ekklesia/pkg/logger"
	"go.uber.org/zap"
)

const principalKey = "principal"

// AuthMiddleware rejects requests without a valid session and stores the caller in the context
func AuthMiddleware(provider auth.Provider) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			principal, err := provider.CurrentUser(c.Request())
			if err != nil {
				return err
			}
			if principal == nil {
				log.Warn("Unauthenticated request", zap.String("path", c.Request().URL.Path))
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized"})
			}

			c.Set(principalKey, principal)

			ctxLogger := log.With(zap.String("user_id", principal.User.ID))
			c.Set(logger.EchoKey, ctxLogger)
			c.SetRequest(c.Request().WithContext(logger.WithContext(c.Request().Context(), ctxLogger)))

			return next(c)
		}
	}
}

// Principal returns the caller stored by AuthMiddleware
func Principal(c echo.Context) *auth.Principal {
	principal, _ := c.Get(principalKey).(*auth.Principal)
	return principal
}

// UserID returns the authenticated user's id, empty outside AuthMiddleware
func UserID(c echo.Context) string {
	if principal := Principal(c); principal != nil {
		return principal.User.ID
	}
	return ""
}
