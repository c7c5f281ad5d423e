package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger is satisfied by *pgxpool.Pool and by a small adapter over the
// redis client.
type Pinger interface {
	Ping(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type HealthHandler struct {
	deps   map[string]Pinger
	logger *zap.Logger
}

// NewHealthHandler checks each named dependency. A nil map reports healthy.
func NewHealthHandler(deps map[string]Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		deps:   deps,
		logger: logger.Named("HealthHandler"),
	}
}

func (h *HealthHandler) Check(c *gin.Context) {
	statuses := gin.H{}
	healthy := true

	for name, dep := range h.deps {
		status := "ok"
		if err := dep.Ping(c.Request.Context()); err != nil {
			status = "error"
			healthy = false
			h.logger.Error("Health check: dependency ping failed", zap.String("dependency", name), zap.Error(err))
		}
		statuses[name] = status
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":       "unhealthy",
			"dependencies": statuses,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"dependencies": statuses,
	})
}
