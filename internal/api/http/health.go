package http

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Check probes one dependency; nil means up.
type Check func(ctx context.Context) error

type HealthHandler struct {
	serviceName string
	version     string
	checks      map[string]Check
	timeout     time.Duration
}

func NewHealthHandler(serviceName, version string, checks map[string]Check) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		checks:      checks,
		timeout:     time.Second,
	}
}

// HealthCheck always answers 200; a failing dependency turns the status to "degraded".
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	status := "healthy"
	results := make(map[string]string, len(h.checks))

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
		err := h.checks[name](ctx)
		cancel()
		if err != nil {
			results[name] = "down"
			status = "degraded"
			continue
		}
		results[name] = "up"
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Service:   h.serviceName,
		Version:   h.version,
		Checks:    results,
	})
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)
}
