package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/parkspace/parking-client/internal/pkg/metrics"
)

// Metrics records request count and latency per route template.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// Write the error response now so the recorded status is final.
				// The handler skips committed responses when err bubbles up.
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			code := strconv.Itoa(c.Response().Status)
			metrics.ServerRequestsTotal.WithLabelValues(c.Request().Method, route, code).Inc()
			metrics.ServerRequestDuration.WithLabelValues(c.Request().Method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
