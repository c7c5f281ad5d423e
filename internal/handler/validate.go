package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/makkenzo/apikey-dashboard/internal/handler/dto"
	"github.com/makkenzo/apikey-dashboard/internal/handler/middleware"
	"github.com/makkenzo/apikey-dashboard/internal/service"
	"go.uber.org/zap"
)

const validatedMessage = "API key validated."

type ValidateHandler struct {
	validator service.KeyValidator
	logger    *zap.Logger
}

func NewValidateHandler(validator service.KeyValidator, logger *zap.Logger) *ValidateHandler {
	return &ValidateHandler{
		validator: validator,
		logger:    logger.Named("ValidateHandler"),
	}
}

// Validate takes the key from an Authorization bearer header, or from the
// JSON body when no bearer header is present.
func (h *ValidateHandler) Validate(c *gin.Context) {
	key := middleware.BearerToken(c)
	if key == "" {
		var req dto.ValidateKeyRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			h.logger.Warn("Failed to bind validate request", zap.Error(err))
			_ = c.Error(bindError(err))
			return
		}
		key = strings.TrimSpace(req.Key)
	}

	if err := h.validator.Validate(c.Request.Context(), key); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.ValidateKeyResponse{Message: validatedMessage})
}
