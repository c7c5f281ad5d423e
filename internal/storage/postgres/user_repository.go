package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/makkenzo/apikey-dashboard/internal/domain/user"
	"go.uber.org/zap"
)

type UserRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewUserRepository(db *pgxpool.Pool, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger.Named("UserRepository"),
	}
}

var _ user.Repository = (*UserRepository)(nil)

func (r *UserRepository) Create(ctx context.Context, u *user.User) (*user.User, error) {
	query := `
		INSERT INTO users (email, password_hash)
		VALUES ($1, $2)
		RETURNING id, email, password_hash, created_at
	`
	var created user.User
	err := r.db.QueryRow(ctx, query, strings.ToLower(u.Email), u.PasswordHash).
		Scan(&created.ID, &created.Email, &created.PasswordHash, &created.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			r.logger.Info("Signup attempted with registered email", zap.String("constraint", pgErr.ConstraintName))
			return nil, user.ErrDuplicateEmail
		}
		r.logger.Error("Failed to create user", zap.Error(err))
		return nil, fmt.Errorf("db error creating user: %w", err)
	}
	return &created, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `SELECT id, email, password_hash, created_at FROM users WHERE email = $1`
	return r.findOne(ctx, query, strings.ToLower(email))
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	query := `SELECT id, email, password_hash, created_at FROM users WHERE id = $1`
	return r.findOne(ctx, query, id)
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg any) (*user.User, error) {
	var u user.User
	err := r.db.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrUserNotFound
		}
		r.logger.Error("Failed to query user", zap.Error(err))
		return nil, fmt.Errorf("db error finding user: %w", err)
	}
	return &u, nil
}
