package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/ekklesia/prometheus"
)

// MetricsMiddleware adds prometheus metrics to track HTTP requests
func MetricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		err := next(c)

		// Route template keeps label cardinality bounded; unmatched paths share one label
		path := c.Path()
		if path == "" {
			path = "unmatched"
		}

		prometheus.ObserveHTTPRequest(
			c.Request().Method,
			path,
			strconv.Itoa(c.Response().Status),
			time.Since(start),
		)

		return err
	}
}
