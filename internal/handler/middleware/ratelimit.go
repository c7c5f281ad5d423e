package middleware

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/makkenzo/apikey-dashboard/internal/ierr"
	"go.uber.org/zap"
)

type RateLimiter interface {
	Allow(ctx context.Context, subject string) (bool, time.Duration, error)
}

// RateLimitMiddleware limits requests per client IP under scope. Limiter
// failures let the request through.
func RateLimitMiddleware(limiter RateLimiter, scope string, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("RateLimit")
	return func(c *gin.Context) {
		allowed, retryAfter, err := limiter.Allow(c.Request.Context(), scope+":"+c.ClientIP())
		if err != nil {
			log.Warn("Rate limiter unavailable, allowing request", zap.Error(err))
			c.Next()
			return
		}
		if !allowed {
			seconds := int(math.Ceil(retryAfter.Seconds()))
			c.Header("Retry-After", strconv.Itoa(seconds))
			log.Info("Rate limit exceeded", zap.String("scope", scope), zap.String("client_ip", c.ClientIP()))
			_ = c.Error(ierr.ErrRateLimited)
			c.Abort()
			return
		}
		c.Next()
	}
}
