package handler

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/makkenzo/apikey-dashboard/internal/ierr"
)

// bindError keeps validator errors intact for per-field details and turns
// everything else (malformed or empty JSON) into a validation error.
func bindError(err error) error {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return err
	}
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: request body is required", ierr.ErrValidation)
	}
	return fmt.Errorf("%w: malformed request body: %v", ierr.ErrValidation, err)
}
