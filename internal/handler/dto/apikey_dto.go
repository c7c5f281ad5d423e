package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/makkenzo/apikey-dashboard/internal/domain/apikey"
)

type CreateAPIKeyRequest struct {
	Name string `json:"name" binding:"required,notblank,max=100"`
}

// RenameAPIKeyRequest accepts only the name. Other fields in the body,
// including key, are ignored.
type RenameAPIKeyRequest struct {
	Name string `json:"name" binding:"required,notblank,max=100"`
}

type APIKeyResponse struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	Name       string     `json:"name"`
	Key        string     `json:"key"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

func NewAPIKeyResponse(k *apikey.APIKey) *APIKeyResponse {
	return &APIKeyResponse{
		ID:         k.ID,
		UserID:     k.UserID,
		Name:       k.Name,
		Key:        k.Key,
		CreatedAt:  k.CreatedAt,
		LastUsedAt: k.LastUsedAt,
	}
}

type ValidateKeyRequest struct {
	Key string `json:"key"`
}

type ValidateKeyResponse struct {
	Message string `json:"message"`
}
