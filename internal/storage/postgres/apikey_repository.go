package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/makkenzo/apikey-dashboard/internal/domain/apikey"
	"go.uber.org/zap"
)

const apiKeyColumns = `id, user_id, name, key, created_at, last_used_at`

type APIKeyRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewAPIKeyRepository(db *pgxpool.Pool, logger *zap.Logger) *APIKeyRepository {
	return &APIKeyRepository{
		db:     db,
		logger: logger.Named("APIKeyRepository"),
	}
}

var _ apikey.Repository = (*APIKeyRepository)(nil)

func (r *APIKeyRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*apikey.APIKey, error) {
	query := `
		SELECT ` + apiKeyColumns + `
		FROM api_keys
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to query api keys", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, fmt.Errorf("db error listing api keys: %w", err)
	}
	defer rows.Close()

	keys := make([]*apikey.APIKey, 0)
	for rows.Next() {
		key, err := scanAPIKey(rows)
		if err != nil {
			r.logger.Error("Failed to scan api key row during list", zap.Error(err))
			return nil, fmt.Errorf("db scan error listing api keys: %w", err)
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating api key rows", zap.Error(err))
		return nil, fmt.Errorf("db iteration error listing api keys: %w", err)
	}

	return keys, nil
}

func (r *APIKeyRepository) Create(ctx context.Context, key *apikey.APIKey) (*apikey.APIKey, error) {
	query := `
		INSERT INTO api_keys (user_id, name, key, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + apiKeyColumns

	createdAt := key.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	created, err := scanAPIKey(r.db.QueryRow(ctx, query, key.UserID, key.Name, key.Key, createdAt))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			r.logger.Warn("Failed to create API key due to unique constraint violation",
				zap.String("constraint", pgErr.ConstraintName),
				zap.String("user_id", key.UserID.String()),
			)
			return nil, fmt.Errorf("%w (%s)", apikey.ErrDuplicateAPIKey, pgErr.ConstraintName)
		}
		r.logger.Error("Failed to create api key in database", zap.Error(err))
		return nil, fmt.Errorf("db error creating api key: %w", err)
	}

	r.logger.Info("API key created successfully", zap.String("id", created.ID.String()), zap.String("user_id", created.UserID.String()))
	return created, nil
}

func (r *APIKeyRepository) UpdateName(ctx context.Context, id, userID uuid.UUID, name string) (*apikey.APIKey, error) {
	query := `
		UPDATE api_keys SET name = $1
		WHERE id = $2 AND user_id = $3
		RETURNING ` + apiKeyColumns

	updated, err := scanAPIKey(r.db.QueryRow(ctx, query, name, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("No api key matched rename", zap.String("id", id.String()), zap.String("user_id", userID.String()))
			return nil, apikey.ErrAPIKeyNotFound
		}
		r.logger.Error("Failed to rename api key", zap.String("id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("db error renaming api key: %w", err)
	}
	return updated, nil
}

func (r *APIKeyRepository) Delete(ctx context.Context, id, userID uuid.UUID) (*apikey.APIKey, error) {
	query := `
		DELETE FROM api_keys
		WHERE id = $1 AND user_id = $2
		RETURNING ` + apiKeyColumns

	deleted, err := scanAPIKey(r.db.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("No api key matched delete", zap.String("id", id.String()), zap.String("user_id", userID.String()))
			return nil, apikey.ErrAPIKeyNotFound
		}
		r.logger.Error("Failed to delete api key", zap.String("id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("db error deleting api key: %w", err)
	}
	return deleted, nil
}

func (r *APIKeyRepository) FindByKey(ctx context.Context, key string) (*apikey.APIKey, error) {
	query := `
		SELECT ` + apiKeyColumns + `
		FROM api_keys
		WHERE key = $1
	`
	found, err := scanAPIKey(r.db.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apikey.ErrAPIKeyNotFound
		}
		r.logger.Error("Failed to find api key by value", zap.Error(err))
		return nil, fmt.Errorf("db error finding api key: %w", err)
	}
	return found, nil
}

func (r *APIKeyRepository) UpdateLastUsed(ctx context.Context, id uuid.UUID, lastUsed time.Time) error {
	query := `UPDATE api_keys SET last_used_at = $1 WHERE id = $2`
	cmdTag, err := r.db.Exec(ctx, query, lastUsed, id)
	if err != nil {
		r.logger.Error("Failed to update api key last_used_at", zap.String("id", id.String()), zap.Error(err))
		return fmt.Errorf("db error updating last used time: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.Warn("API key not found when updating last_used_at", zap.String("id", id.String()))
	}
	return nil
}

func scanAPIKey(row pgx.Row) (*apikey.APIKey, error) {
	var key apikey.APIKey
	err := row.Scan(
		&key.ID,
		&key.UserID,
		&key.Name,
		&key.Key,
		&key.CreatedAt,
		&key.LastUsedAt,
	)
	if err != nil {
		return nil, err
	}
	return &key, nil
}
