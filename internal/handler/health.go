package handler

import (
	"context"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Check reports whether one dependency is usable
type Check func(ctx context.Context) error

// HealthHandler handles health check endpoints
type HealthHandler struct {
	checks    map[string]Check
	version   string
	startTime time.Time
	timeout   time.Duration
}

// NewHealthHandler creates a new health handler. checks are run by the
// health and readiness probes; the liveness probe runs none.
func NewHealthHandler(version string, checks map[string]Check) *HealthHandler {
	return &HealthHandler{
		checks:    checks,
		version:   version,
		startTime: time.Now(),
		timeout:   5 * time.Second,
	}
}

// HealthStatus represents health check status
type HealthStatus struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Uptime    string            `json:"uptime"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// Healthz handles the plain text health check, answering "OK"
func (h *HealthHandler) Healthz(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString("OK")
}

// Health handles GET /health
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	status := HealthStatus{
		Status:    "healthy",
		Version:   h.version,
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    make(map[string]string, len(h.checks)),
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			status.Status = "unhealthy"
			status.Checks[name] = "unhealthy: " + err.Error()
		} else {
			status.Checks[name] = "healthy"
		}
	}

	statusCode := fiber.StatusOK
	if status.Status != "healthy" {
		statusCode = fiber.StatusServiceUnavailable
	}

	return c.Status(statusCode).JSON(status)
}

// Liveness handles GET /livez - basic liveness probe
func (h *HealthHandler) Liveness(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "alive",
	})
}

// Readiness handles GET /readyz - readiness probe
func (h *HealthHandler) Readiness(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "not ready",
				"reason": name + " unavailable",
			})
		}
	}

	return c.JSON(fiber.Map{
		"status": "ready",
	})
}

// Version handles GET /version
func (h *HealthHandler) Version(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"version": h.version,
		"uptime":  time.Since(h.startTime).String(),
	})
}

// RegisterRoutes registers health check routes. healthPath serves the
// plain text check.
func (h *HealthHandler) RegisterRoutes(router fiber.Router, healthPath string) {
	router.Get(healthPath, h.Healthz)
	router.Get("/health", h.Health)
	router.Get("/livez", h.Liveness)
	router.Get("/readyz", h.Readiness)
	router.Get("/version", h.Version)
}
