package ierr

import "errors"

var (
	ErrValidation     = errors.New("validation failed")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource conflict")
	ErrRateLimited    = errors.New("rate limit exceeded")
	ErrInternalServer = errors.New("internal server error")

	ErrMissingSession     = errors.New("no session found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrTokenRevoked       = errors.New("session has been revoked")

	ErrMissingKey = errors.New("key is required")
	ErrInvalidKey = errors.New("invalid api key")
	ErrNotOwner   = errors.New("api key not found for this account")
)
