package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health reports that the process is up; it never touches the database
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
