package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/kennedy-ak/mooibanana-project/internal/platform/version"
	"github.com/labstack/echo/v4"
)

const (
	startupProbeTimeout   = 2 * time.Second
	readinessProbeTimeout = 5 * time.Second
)

// HealthCheck is a named dependency probe, e.g. a Postgres ping.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

func (s *Server) registerHealthRoutes() {
	s.echo.GET("/health/startup", s.probe(startupProbeTimeout))
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.probe(readinessProbeTimeout))
	s.echo.GET("/version", s.handleVersion)
}

func (s *Server) handleLiveness(c echo.Context) error {
	return sendJSON(c, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.startTime).Seconds(),
	})
}

// probe runs the health checks in order and reports the first failure.
func (s *Server) probe(timeout time.Duration) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
		defer cancel()

		for _, hc := range s.healthChecks {
			if err := hc.Check(ctx); err != nil {
				return sendJSON(c, http.StatusServiceUnavailable, map[string]any{
					"status":       "unhealthy",
					"failed_check": hc.Name,
					"error":        err.Error(),
				})
			}
		}
		return sendJSON(c, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func (s *Server) handleVersion(c echo.Context) error {
	return sendJSON(c, http.StatusOK, version.Get())
}
