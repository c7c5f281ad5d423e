package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/makkenzo/apikey-dashboard/internal/config"
	"github.com/makkenzo/apikey-dashboard/internal/handler/dto"
	"github.com/makkenzo/apikey-dashboard/internal/handler/middleware"
	"github.com/makkenzo/apikey-dashboard/internal/service"
	"go.uber.org/zap"
)

type AuthHandler struct {
	service *service.AuthService
	session config.SessionConfig
	logger  *zap.Logger
}

func NewAuthHandler(service *service.AuthService, session config.SessionConfig, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		session: session,
		logger:  logger.Named("AuthHandler"),
	}
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind signup request", zap.Error(err))
		_ = c.Error(bindError(err))
		return
	}

	u, err := h.service.Signup(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, dto.SessionResponse{UserID: u.ID, Email: u.Email})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind login request", zap.Error(err))
		_ = c.Error(bindError(err))
		return
	}

	token, expiresAt, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Info("Login failed", zap.Error(err))
		_ = c.Error(err)
		return
	}

	claims, err := h.service.ValidateToken(c.Request.Context(), token)
	if err != nil {
		_ = c.Error(err)
		return
	}
	userID, _ := claims.UserID()

	h.setSessionCookie(c, token, time.Until(expiresAt))
	c.JSON(http.StatusOK, dto.SessionResponse{UserID: userID, Email: claims.Email, ExpiresAt: &expiresAt})
}

// Logout revokes the current session, if any, and always clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	if claims := middleware.GetSessionClaims(c); claims != nil {
		if err := h.service.Logout(c.Request.Context(), claims); err != nil {
			h.logger.Warn("Failed to revoke session on logout", zap.Error(err))
		}
	}

	h.setSessionCookie(c, "", -1)
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) Session(c *gin.Context) {
	claims := middleware.GetSessionClaims(c)
	userID, ok := requireUser(c)
	if !ok || claims == nil {
		return
	}

	resp := dto.SessionResponse{UserID: userID, Email: claims.Email}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = &claims.ExpiresAt.Time
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, value string, maxAge time.Duration) {
	seconds := int(maxAge.Seconds())
	if maxAge < 0 {
		seconds = -1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.session.CookieName, value, seconds, "/", "", h.session.SecureCookie, true)
}
