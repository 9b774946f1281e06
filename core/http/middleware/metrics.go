package middleware

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mudler/LocalSRS/core/services"
)

// MetricsAPIMiddleware observes the duration of every API call on the
// shared metrics service, keyed by method and route pattern.
func MetricsAPIMiddleware(metrics *services.LocalSRSMetricsService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Path()
			if metrics == nil || shouldSkipMetrics(path) {
				return next(c)
			}
			start := time.Now()
			err := next(c)
			metrics.ObserveAPICall(c.Request().Method, path, time.Since(start).Seconds())
			return err
		}
	}
}

func shouldSkipMetrics(path string) bool {
	if path == "/" {
		return true
	}
	for _, prefix := range []string{"/static/", "/swagger/", "/metrics", "/healthz", "/readyz", "/favicon"} {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
