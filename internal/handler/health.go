package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/grupotelles/comercial/internal/middleware"
	"github.com/grupotelles/comercial/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// HealthCheckTimeout bounds the dependency probes of one /status call.
const HealthCheckTimeout = 5 * time.Second

// HealthResponse is the body of /status.
type HealthResponse struct {
	Status      string                        `json:"status"`
	Surface     string                        `json:"surface"`
	Timestamp   time.Time                     `json:"timestamp"`
	Environment string                        `json:"environment"`
	Checks      map[string]server.CheckResult `json:"checks"`
}

// HealthHandler reports whether the process and its dependencies are up.
type HealthHandler struct {
	Handler
}

func NewHealthHandler(s *server.Server) *HealthHandler {
	return &HealthHandler{
		Handler: NewHandler(s),
	}
}

// CheckHealth returns 200 when every database answers and 503 otherwise.
// Redis only degrades the dashboard to in-memory sessions, so its failure
// is reported without failing the check.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()
	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	ctx, cancel := context.WithTimeout(c.Request().Context(), HealthCheckTimeout)
	defer cancel()

	checks := h.server.Check(ctx)
	response := HealthResponse{
		Status:      "healthy",
		Surface:     string(h.server.Surface),
		Timestamp:   time.Now().UTC(),
		Environment: h.server.Config.Primary.Env,
		Checks:      checks,
	}

	for name, res := range checks {
		if res.Healthy() {
			continue
		}
		logger.Error().Str("check", name).Str("error", res.Error).Msg("health check failed")
		if strings.HasPrefix(name, "database:") {
			response.Status = "unhealthy"
		}
	}

	if response.Status != "healthy" {
		logger.Warn().Dur("total_duration", time.Since(start)).Msg("health check failed")
		h.server.LoggerService.RecordEvent("HealthCheckError", map[string]interface{}{
			"check_type":        "overall",
			"surface":           response.Surface,
			"total_duration_ms": time.Since(start).Milliseconds(),
		})
		return c.JSON(http.StatusServiceUnavailable, response)
	}

	logger.Debug().Dur("total_duration", time.Since(start)).Msg("health check passed")
	if err := c.JSON(http.StatusOK, response); err != nil {
		return errors.Wrap(err, "write health response")
	}
	return nil
}
