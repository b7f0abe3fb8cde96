// Package http provides the webhook and observability HTTP surface.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/finbuddy/chat-relay/internal/ratelimit"
	"github.com/finbuddy/chat-relay/internal/service"
	"github.com/finbuddy/chat-relay/internal/store"
)

// Handler handles HTTP requests.
type Handler struct {
	service     *service.Service
	limiter     *ratelimit.Limiter
	store       store.Store
	gatherer    prometheus.Gatherer
	verifyToken string
	logger      *slog.Logger
}

// NewHandler creates a new handler.
func NewHandler(svc *service.Service, limiter *ratelimit.Limiter, st store.Store, gatherer prometheus.Gatherer, verifyToken string, logger *slog.Logger) *Handler {
	return &Handler{
		service:     svc,
		limiter:     limiter,
		store:       st,
		gatherer:    gatherer,
		verifyToken: verifyToken,
		logger:      logger,
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/webhook", h.Verify)
	e.POST("/webhook", h.Inbound)

	e.GET("/health", h.Health)
	e.GET("/stats", h.Stats)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
}

// Verify answers Meta's webhook verification challenge.
// GET /webhook?hub.mode=subscribe&hub.challenge=...&hub.verify_token=...
func (h *Handler) Verify(c echo.Context) error {
	mode := c.QueryParam("hub.mode")
	challenge := c.QueryParam("hub.challenge")
	token := c.QueryParam("hub.verify_token")

	if mode == "subscribe" && token == h.verifyToken {
		return c.String(http.StatusOK, challenge)
	}
	return c.JSON(http.StatusForbidden, map[string]string{"error": "verification failed"})
}

// Health reports process and Redis health.
// GET /health
func (h *Handler) Health(c echo.Context) error {
	redisStatus := "healthy"
	status := "healthy"
	if err := h.store.Ping(c.Request().Context()); err != nil {
		redisStatus = "unhealthy"
		status = "degraded"
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"services": map[string]string{
			"redis": redisStatus,
		},
	})
}

// Stats reports approximate session and rate-limit key counts.
// GET /stats
func (h *Handler) Stats(c echo.Context) error {
	ctx := c.Request().Context()

	sessions, err := h.store.CountKeys(ctx, "session:")
	if err != nil {
		h.logger.Error("getting stats failed", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "unable to retrieve stats"})
	}
	rateLimited, err := h.store.CountKeys(ctx, "rate_limit:")
	if err != nil {
		h.logger.Error("getting stats failed", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "unable to retrieve stats"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"active_sessions":    sessions,
		"rate_limited_users": rateLimited,
		"timestamp":          time.Now().UTC().Format(time.RFC3339),
	})
}
