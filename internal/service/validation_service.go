package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/makkenzo/apikey-dashboard/internal/domain/apikey"
	"github.com/makkenzo/apikey-dashboard/internal/ierr"
	"github.com/makkenzo/apikey-dashboard/internal/metrics"
	"go.uber.org/zap"
)

const (
	ModeStore  = "store"
	ModeStatic = "static"
)

// KeyValidator decides whether a presented bearer key is acceptable.
// Rejections wrap ierr.ErrUnauthorized, an empty key wraps ierr.ErrValidation.
type KeyValidator interface {
	Validate(ctx context.Context, key string) error
}

// StoreValidator accepts any key that exists in the key store, regardless of
// which account owns it.
type StoreValidator struct {
	repo   apikey.Repository
	cache  KeyCache
	usage  UsageRecorder
	now    func() time.Time
	logger *zap.Logger
}

// NewStoreValidator builds the canonical validator. cache and usage may be nil.
func NewStoreValidator(repo apikey.Repository, cache KeyCache, usage UsageRecorder, logger *zap.Logger) *StoreValidator {
	return &StoreValidator{
		repo:   repo,
		cache:  cache,
		usage:  usage,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger.Named("StoreValidator"),
	}
}

var _ KeyValidator = (*StoreValidator)(nil)

func (v *StoreValidator) Validate(ctx context.Context, key string) error {
	if key == "" {
		metrics.KeyValidations.WithLabelValues(ModeStore, metrics.ResultMissing).Inc()
		return fmt.Errorf("%w: %w", ierr.ErrValidation, ierr.ErrMissingKey)
	}

	record := v.cached(ctx, key)
	if record == nil {
		found, err := v.repo.FindByKey(ctx, key)
		if err != nil {
			if errors.Is(err, apikey.ErrAPIKeyNotFound) {
				metrics.KeyValidations.WithLabelValues(ModeStore, metrics.ResultInvalid).Inc()
				v.logger.Info("Rejected unknown api key")
				return fmt.Errorf("%w: %w", ierr.ErrUnauthorized, ierr.ErrInvalidKey)
			}
			metrics.KeyValidations.WithLabelValues(ModeStore, metrics.ResultError).Inc()
			v.logger.Error("Failed to look up api key", zap.Error(err))
			return fmt.Errorf("repository error validating api key: %w", err)
		}
		record = found

		if v.cache != nil {
			if err := v.cache.Set(ctx, record); err != nil {
				v.logger.Warn("Failed to cache validated api key", zap.String("key_id", record.ID.String()), zap.Error(err))
			}
		}
	}

	if v.usage != nil {
		if err := v.usage.RecordUse(ctx, record.ID, v.now()); err != nil {
			v.logger.Warn("Failed to record api key usage", zap.String("key_id", record.ID.String()), zap.Error(err))
		}
	}

	metrics.KeyValidations.WithLabelValues(ModeStore, metrics.ResultValid).Inc()
	v.logger.Info("API key validated successfully", zap.String("key_id", record.ID.String()))
	return nil
}

func (v *StoreValidator) cached(ctx context.Context, key string) *apikey.APIKey {
	if v.cache == nil {
		return nil
	}
	record, err := v.cache.Get(ctx, key)
	if err != nil {
		v.logger.Warn("Key cache lookup failed, falling back to store", zap.Error(err))
		return nil
	}
	return record
}

// StaticSecretValidator compares keys with a single configured secret.
type StaticSecretValidator struct {
	secret []byte
	logger *zap.Logger
}

func NewStaticSecretValidator(secret string, logger *zap.Logger) (*StaticSecretValidator, error) {
	if secret == "" {
		return nil, errors.New("static validation secret must not be empty")
	}
	return &StaticSecretValidator{
		secret: []byte(secret),
		logger: logger.Named("StaticSecretValidator"),
	}, nil
}

var _ KeyValidator = (*StaticSecretValidator)(nil)

func (v *StaticSecretValidator) Validate(ctx context.Context, key string) error {
	if key == "" {
		metrics.KeyValidations.WithLabelValues(ModeStatic, metrics.ResultMissing).Inc()
		return fmt.Errorf("%w: %w", ierr.ErrValidation, ierr.ErrMissingKey)
	}
	if subtle.ConstantTimeCompare([]byte(key), v.secret) != 1 {
		metrics.KeyValidations.WithLabelValues(ModeStatic, metrics.ResultInvalid).Inc()
		v.logger.Info("Rejected key against static secret")
		return fmt.Errorf("%w: %w", ierr.ErrUnauthorized, ierr.ErrInvalidKey)
	}
	metrics.KeyValidations.WithLabelValues(ModeStatic, metrics.ResultValid).Inc()
	return nil
}
