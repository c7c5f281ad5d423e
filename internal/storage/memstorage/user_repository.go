package memstorage

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/makkenzo/apikey-dashboard/internal/domain/user"
)

type UserRepository struct {
	mu      sync.RWMutex
	byEmail map[string]*user.User
	byID    map[uuid.UUID]*user.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byEmail: make(map[string]*user.User),
		byID:    make(map[uuid.UUID]*user.User),
	}
}

var _ user.Repository = (*UserRepository)(nil)

func (r *UserRepository) Create(ctx context.Context, u *user.User) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := strings.ToLower(u.Email)
	if _, ok := r.byEmail[email]; ok {
		return nil, user.ErrDuplicateEmail
	}

	created := &user.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    time.Now().UTC(),
	}
	r.byEmail[email] = created
	r.byID[created.ID] = created

	userCopy := *created
	return &userCopy, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, user.ErrUserNotFound
	}

	userCopy := *u
	return &userCopy, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}

	userCopy := *u
	return &userCopy, nil
}
