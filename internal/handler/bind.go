package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/ekklesia/internal/apperr"
)

// bindJSON decodes the request body into req and runs the registered validator
func bindJSON(c echo.Context, req interface{}) error {
	if err := decodeJSON(c, req); err != nil {
		return err
	}
	return c.Validate(req)
}

func decodeJSON(c echo.Context, dest interface{}) error {
	if err := c.Echo().JSONSerializer.Deserialize(c, dest); err != nil {
		// Oversized bodies keep their own status
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) && httpErr.Code != http.StatusBadRequest {
			return err
		}
		return apperr.Validation("Invalid request body", apperr.Detail{
			Message: "Request body must be valid JSON",
			Code:    "invalid_type",
		})
	}
	return nil
}
