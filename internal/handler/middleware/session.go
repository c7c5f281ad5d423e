package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/makkenzo/apikey-dashboard/internal/ierr"
	"github.com/makkenzo/apikey-dashboard/internal/service"
	"go.uber.org/zap"
)

const (
	authorizationHeader     = "Authorization"
	bearerPrefix            = "Bearer "
	sessionClaimsContextKey = "sessionClaims"
	userIDContextKey        = "userID"
)

// SessionToken reads the session token from the cookie, falling back to an
// Authorization bearer header.
func SessionToken(c *gin.Context, cookieName string) string {
	if token, err := c.Cookie(cookieName); err == nil && token != "" {
		return token
	}
	return BearerToken(c)
}

func BearerToken(c *gin.Context) string {
	authHeader := c.GetHeader(authorizationHeader)
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))
}

// RequireSession rejects requests without a valid session before any
// handler runs.
func RequireSession(authService *service.AuthService, cookieName string, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("SessionMiddleware")
	return func(c *gin.Context) {
		tokenString := SessionToken(c, cookieName)
		if tokenString == "" {
			log.Debug("Session token is missing")
			_ = c.Error(fmt.Errorf("%w: %w", ierr.ErrUnauthorized, ierr.ErrMissingSession))
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(c.Request.Context(), tokenString)
		if err != nil {
			log.Debug("Session validation failed", zap.Error(err))
			_ = c.Error(err)
			c.Abort()
			return
		}

		setSession(c, claims)
		c.Next()
	}
}

// LoadSession attaches the session when one is present and valid but never
// rejects the request.
func LoadSession(authService *service.AuthService, cookieName string, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("SessionMiddleware")
	return func(c *gin.Context) {
		if tokenString := SessionToken(c, cookieName); tokenString != "" {
			claims, err := authService.ValidateToken(c.Request.Context(), tokenString)
			if err == nil {
				setSession(c, claims)
			} else {
				log.Debug("Ignoring invalid session", zap.Error(err))
			}
		}
		c.Next()
	}
}

func setSession(c *gin.Context, claims *service.SessionClaims) {
	userID, _ := claims.UserID()
	c.Set(sessionClaimsContextKey, claims)
	c.Set(userIDContextKey, userID)
}

func GetSessionClaims(c *gin.Context) *service.SessionClaims {
	value, exists := c.Get(sessionClaimsContextKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*service.SessionClaims)
	if !ok {
		return nil
	}
	return claims
}

// GetUserID returns the caller's account id set by the session middleware.
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(userIDContextKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}
