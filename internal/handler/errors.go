package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/ekklesia/internal/apperr"
	"github.com/suteetoe/ekklesia/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrorHandler renders every error returned by handlers and middleware as JSON.
// Outside production, 500 responses carry the error message and stack trace.
func ErrorHandler(production bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := errorResponse(err, c, production)
		if status >= http.StatusInternalServerError {
			logger.FromEcho(c).Error("Request failed",
				zap.String("path", c.Request().URL.Path),
				zap.Error(err))
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, body)
		}
		if writeErr != nil {
			logger.FromEcho(c).Error("Failed to write error response", zap.Error(writeErr))
		}
	}
}

func errorResponse(err error, c echo.Context, production bool) (int, echo.Map) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		switch appErr.Kind {
		case apperr.KindInternal:
			return http.StatusInternalServerError, internalBody(err, production)
		case apperr.KindValidation:
			details := appErr.Details
			if details == nil {
				details = []apperr.Detail{}
			}
			return appErr.Kind.Status(), echo.Map{"error": appErr.Message, "details": details}
		default:
			return appErr.Kind.Status(), echo.Map{"error": appErr.Message}
		}
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErrorResponse(httpErr, c)
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, echo.Map{"error": "Not found", "message": "Resource not found"}
	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, gorm.ErrForeignKeyViolated):
		return http.StatusConflict, echo.Map{
			"error":   "Data conflict",
			"message": "The request could not be processed due to a data conflict",
		}
	}

	return http.StatusInternalServerError, internalBody(err, production)
}

func httpErrorResponse(httpErr *echo.HTTPError, c echo.Context) (int, echo.Map) {
	switch httpErr.Code {
	case http.StatusNotFound:
		return httpErr.Code, echo.Map{
			"error":   "Not found",
			"message": fmt.Sprintf("Route %s %s not found", c.Request().Method, c.Request().URL.Path),
		}
	case http.StatusBadRequest:
		return httpErr.Code, echo.Map{"error": "Invalid request body", "message": fmt.Sprint(httpErr.Message)}
	case http.StatusUnauthorized:
		return httpErr.Code, echo.Map{"error": "Unauthorized"}
	case http.StatusTooManyRequests:
		return httpErr.Code, echo.Map{"error": "Too many requests, please try again later"}
	default:
		return httpErr.Code, echo.Map{"error": http.StatusText(httpErr.Code)}
	}
}

func internalBody(err error, production bool) echo.Map {
	if production {
		return echo.Map{"error": "Internal server error"}
	}
	return echo.Map{
		"error":   "Internal server error",
		"message": err.Error(),
		"stack":   apperr.Stack(err),
	}
}
