package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/makkenzo/apikey-dashboard/internal/config"
	"github.com/makkenzo/apikey-dashboard/internal/domain/user"
	"github.com/makkenzo/apikey-dashboard/internal/ierr"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	sessionIssuer     = "apikey-dashboard"
	minPasswordLength = 8
	maxPasswordLength = 72
)

type SessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// UserID returns the account id carried in the token subject.
func (c *SessionClaims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

type AuthService struct {
	users    user.Repository
	denylist SessionDenylist
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger

	// dummyHash keeps login timing similar for unknown emails.
	dummyHash []byte
}

func NewAuthService(users user.Repository, denylist SessionDenylist, cfg *config.SessionConfig, logger *zap.Logger) (*AuthService, error) {
	if len(cfg.JWTSecret) == 0 {
		return nil, errors.New("session jwt secret is required")
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("prepare password hasher: %w", err)
	}

	return &AuthService{
		users:     users,
		denylist:  denylist,
		secret:    []byte(cfg.JWTSecret),
		ttl:       cfg.TTL,
		now:       time.Now,
		logger:    logger.Named("AuthService"),
		dummyHash: dummy,
	}, nil
}

func (s *AuthService) Signup(ctx context.Context, email, password string) (*user.User, error) {
	created, err := RegisterUser(ctx, s.users, email, password)
	if err != nil {
		if !errors.Is(err, ierr.ErrValidation) && !errors.Is(err, ierr.ErrConflict) {
			s.logger.Error("Failed to create user", zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("User signed up", zap.String("user_id", created.ID.String()))
	return created, nil
}

// RegisterUser validates the credentials and stores a new account with a
// bcrypt password hash. Emails are stored lowercased.
func RegisterUser(ctx context.Context, users user.Repository, email, password string) (*user.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: a valid email is required", ierr.ErrValidation)
	}
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return nil, fmt.Errorf("%w: password must be between %d and %d characters", ierr.ErrValidation, minPasswordLength, maxPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("%w: failed hashing password", ierr.ErrInternalServer)
	}

	created, err := users.Create(ctx, &user.User{Email: email, PasswordHash: string(hash)})
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, fmt.Errorf("%w: email already registered", ierr.ErrConflict)
		}
		return nil, fmt.Errorf("repository error creating user: %w", err)
	}
	return created, nil
}

// Login checks the credentials and returns a signed session token with its
// expiry.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	u, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return "", time.Time{}, ierr.ErrInvalidCredentials
		}
		s.logger.Error("Failed to look up user for login", zap.Error(err))
		return "", time.Time{}, fmt.Errorf("repository error during login: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", time.Time{}, ierr.ErrInvalidCredentials
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := SessionClaims{
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    sessionIssuer,
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		s.logger.Error("Failed to sign session token", zap.Error(err))
		return "", time.Time{}, fmt.Errorf("%w: failed signing session", ierr.ErrInternalServer)
	}

	s.logger.Info("User logged in", zap.String("user_id", u.ID.String()))
	return token, expiresAt, nil
}

func (s *AuthService) ValidateToken(ctx context.Context, rawToken string) (*SessionClaims, error) {
	var claims SessionClaims
	_, err := jwt.ParseWithClaims(rawToken, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		s.logger.Debug("Session token rejected", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ierr.ErrInvalidToken, err)
	}

	if _, err := claims.UserID(); err != nil {
		return nil, fmt.Errorf("%w: subject is not a user id", ierr.ErrInvalidToken)
	}

	if s.denylist != nil && claims.ID != "" {
		revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
		if err != nil {
			s.logger.Error("Failed to check session denylist", zap.Error(err))
			return nil, fmt.Errorf("session denylist check: %w", err)
		}
		if revoked {
			return nil, ierr.ErrTokenRevoked
		}
	}

	return &claims, nil
}

// Logout revokes the session until its natural expiry.
func (s *AuthService) Logout(ctx context.Context, claims *SessionClaims) error {
	if s.denylist == nil || claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.denylist.Revoke(ctx, claims.ID, ttl); err != nil {
		s.logger.Error("Failed to revoke session", zap.String("subject", claims.Subject), zap.Error(err))
		return fmt.Errorf("revoke session: %w", err)
	}
	s.logger.Info("Session revoked", zap.String("subject", claims.Subject))
	return nil
}
