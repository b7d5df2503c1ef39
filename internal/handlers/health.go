package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// HealthStats exposes the counters reported by /health
type HealthStats interface {
	CachedTenants() int
	QueueDepth() int
	Sessions() int
}

// HealthHandler handles health check requests
type HealthHandler struct {
	Version string
	Storage string
	stats   HealthStats
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version, storage string, stats HealthStats) *HealthHandler {
	return &HealthHandler{
		Version: version,
		Storage: storage,
		stats:   stats,
	}
}

// Check returns the health status of the service
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":         "OK",
		"service":        "DriverBot Backend",
		"version":        h.Version,
		"storage":        h.Storage,
		"cached_tenants": h.stats.CachedTenants(),
		"queue_depth":    h.stats.QueueDepth(),
		"sessions":       h.stats.Sessions(),
	})
}
