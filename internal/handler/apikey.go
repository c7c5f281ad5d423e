package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/makkenzo/apikey-dashboard/internal/handler/dto"
	"github.com/makkenzo/apikey-dashboard/internal/handler/middleware"
	"github.com/makkenzo/apikey-dashboard/internal/ierr"
	"github.com/makkenzo/apikey-dashboard/internal/service"
	"go.uber.org/zap"
)

type APIKeyHandler struct {
	service *service.APIKeyService
	logger  *zap.Logger
}

func NewAPIKeyHandler(service *service.APIKeyService, logger *zap.Logger) *APIKeyHandler {
	return &APIKeyHandler{
		service: service,
		logger:  logger.Named("APIKeyHandler"),
	}
}

func (h *APIKeyHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	keys, err := h.service.ListAPIKeys(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Service failed to list api keys", zap.Error(err))
		_ = c.Error(err)
		return
	}

	resp := make([]*dto.APIKeyResponse, len(keys))
	for i, k := range keys {
		resp[i] = dto.NewAPIKeyResponse(k)
	}

	h.logger.Debug("API Keys listed successfully via handler", zap.Int("count", len(resp)))
	c.JSON(http.StatusOK, resp)
}

func (h *APIKeyHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req dto.CreateAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind create api key request", zap.Error(err))
		_ = c.Error(bindError(err))
		return
	}

	created, err := h.service.CreateAPIKey(c.Request.Context(), userID, req.Name)
	if err != nil {
		h.logger.Error("Service failed to create api key", zap.Error(err))
		_ = c.Error(err)
		return
	}

	h.logger.Info("API Key created via handler", zap.String("id", created.ID.String()))
	c.JSON(http.StatusOK, dto.NewAPIKeyResponse(created))
}

func (h *APIKeyHandler) Rename(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	id, ok := parseKeyID(c, h.logger)
	if !ok {
		return
	}

	var req dto.RenameAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind rename api key request", zap.String("id", id.String()), zap.Error(err))
		_ = c.Error(bindError(err))
		return
	}

	updated, err := h.service.RenameAPIKey(c.Request.Context(), id, userID, req.Name)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.logger.Info("API Key renamed via handler", zap.String("id", id.String()))
	c.JSON(http.StatusOK, dto.NewAPIKeyResponse(updated))
}

func (h *APIKeyHandler) Delete(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	id, ok := parseKeyID(c, h.logger)
	if !ok {
		return
	}

	if err := h.service.DeleteAPIKey(c.Request.Context(), id, userID); err != nil {
		_ = c.Error(err)
		return
	}

	h.logger.Info("API Key deleted successfully via handler", zap.String("id", id.String()))
	c.Status(http.StatusNoContent)
}

func requireUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		_ = c.Error(fmt.Errorf("%w: %w", ierr.ErrUnauthorized, ierr.ErrMissingSession))
		return uuid.Nil, false
	}
	return userID, true
}

func parseKeyID(c *gin.Context, logger *zap.Logger) (uuid.UUID, bool) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		logger.Warn("Invalid UUID format for api key id", zap.String("id_param", idStr), zap.Error(err))
		_ = c.Error(fmt.Errorf("%w: invalid api key id format", ierr.ErrValidation))
		return uuid.Nil, false
	}
	return id, true
}
