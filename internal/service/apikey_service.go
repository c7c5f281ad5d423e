package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/makkenzo/apikey-dashboard/internal/domain/apikey"
	"github.com/makkenzo/apikey-dashboard/internal/ierr"
	"github.com/makkenzo/apikey-dashboard/internal/metrics"
	"go.uber.org/zap"
)

// maxKeyAttempts bounds regeneration when a generated key collides with an
// existing one.
const maxKeyAttempts = 3

type APIKeyService struct {
	repo     apikey.Repository
	cache    KeyCache
	generate func() (string, error)
	now      func() time.Time
	logger   *zap.Logger
}

// NewAPIKeyService wires the key management operations. cache may be nil.
func NewAPIKeyService(repo apikey.Repository, cache KeyCache, generate func() (string, error), logger *zap.Logger) *APIKeyService {
	return &APIKeyService{
		repo:     repo,
		cache:    cache,
		generate: generate,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger.Named("APIKeyService"),
	}
}

func (s *APIKeyService) ListAPIKeys(ctx context.Context, userID uuid.UUID) ([]*apikey.APIKey, error) {
	s.logger.Debug("Listing API keys", zap.String("user_id", userID.String()))
	keys, err := s.repo.ListByUser(ctx, userID)
	metrics.KeyOperations.WithLabelValues("list", metrics.Outcome(err)).Inc()
	if err != nil {
		s.logger.Error("Failed to list api keys from repository", zap.Error(err))
		return nil, fmt.Errorf("repository error listing api keys: %w", err)
	}

	s.logger.Debug("API keys listed successfully", zap.Int("count", len(keys)))
	return keys, nil
}

func (s *APIKeyService) CreateAPIKey(ctx context.Context, userID uuid.UUID, name string) (*apikey.APIKey, error) {
	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}

	var created *apikey.APIKey
	for attempt := 1; attempt <= maxKeyAttempts; attempt++ {
		key, genErr := s.generate()
		if genErr != nil {
			s.logger.Error("Failed to generate api key", zap.Error(genErr))
			err = fmt.Errorf("%w: failed generating key: %v", ierr.ErrInternalServer, genErr)
			break
		}

		created, err = s.repo.Create(ctx, &apikey.APIKey{
			UserID:    userID,
			Name:      name,
			Key:       key,
			CreatedAt: s.now(),
		})
		if !errors.Is(err, apikey.ErrDuplicateAPIKey) {
			break
		}
		s.logger.Warn("Generated api key collided with an existing key, regenerating", zap.Int("attempt", attempt))
	}
	metrics.KeyOperations.WithLabelValues("create", metrics.Outcome(err)).Inc()
	if err != nil {
		s.logger.Error("Failed to save new api key", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, fmt.Errorf("repository error creating api key: %w", err)
	}

	s.logger.Info("API key created successfully", zap.String("id", created.ID.String()), zap.String("user_id", userID.String()))
	return created, nil
}

func (s *APIKeyService) RenameAPIKey(ctx context.Context, id, userID uuid.UUID, name string) (*apikey.APIKey, error) {
	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateName(ctx, id, userID, name)
	metrics.KeyOperations.WithLabelValues("rename", metrics.Outcome(err)).Inc()
	if err != nil {
		if errors.Is(err, apikey.ErrAPIKeyNotFound) {
			s.logger.Info("Rename rejected, key not owned by caller", zap.String("id", id.String()), zap.String("user_id", userID.String()))
			return nil, fmt.Errorf("%w: %w", ierr.ErrUnauthorized, ierr.ErrNotOwner)
		}
		s.logger.Error("Failed to rename api key via repository", zap.String("id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("repository error renaming api key %s: %w", id, err)
	}

	s.logger.Info("API key renamed successfully", zap.String("id", id.String()))
	return updated, nil
}

func (s *APIKeyService) DeleteAPIKey(ctx context.Context, id, userID uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, id, userID)
	metrics.KeyOperations.WithLabelValues("delete", metrics.Outcome(err)).Inc()
	if err != nil {
		if errors.Is(err, apikey.ErrAPIKeyNotFound) {
			s.logger.Info("Delete rejected, key not owned by caller", zap.String("id", id.String()), zap.String("user_id", userID.String()))
			return fmt.Errorf("%w: %w", ierr.ErrUnauthorized, ierr.ErrNotOwner)
		}
		s.logger.Error("Failed to delete api key via repository", zap.String("id", id.String()), zap.Error(err))
		return fmt.Errorf("repository error deleting api key %s: %w", id, err)
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, deleted.Key); err != nil {
			s.logger.Warn("Failed to evict deleted api key from cache", zap.String("id", id.String()), zap.Error(err))
		}
	}

	s.logger.Info("API key deleted successfully", zap.String("id", id.String()))
	return nil
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", ierr.ErrValidation)
	}
	if utf8.RuneCountInString(name) > apikey.NameMaxLength {
		return "", fmt.Errorf("%w: name must be at most %d characters", ierr.ErrValidation, apikey.NameMaxLength)
	}
	return name, nil
}
