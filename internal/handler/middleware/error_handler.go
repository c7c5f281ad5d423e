package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/makkenzo/apikey-dashboard/internal/handler/dto"
	"github.com/makkenzo/apikey-dashboard/internal/ierr"
	"go.uber.org/zap"
)

func ErrorHandlerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("ErrorHandler")
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		status := http.StatusInternalServerError
		errResponse := dto.APIErrorResponse{
			Code:    "INTERNAL_ERROR",
			Message: "An unexpected error occurred.",
		}

		var ve validator.ValidationErrors

		if errors.As(err, &ve) {
			status = http.StatusBadRequest
			errResponse.Code = "VALIDATION_ERROR"
			errResponse.Message = "Input validation failed."
			errResponse.Details = buildValidationErrors(ve)
		} else {
			switch {
			case errors.Is(err, ierr.ErrValidation):
				status = http.StatusBadRequest
				errResponse.Code = "VALIDATION_ERROR"
				errResponse.Message = err.Error()
			case errors.Is(err, ierr.ErrUnauthorized), errors.Is(err, ierr.ErrInvalidCredentials),
				errors.Is(err, ierr.ErrInvalidToken), errors.Is(err, ierr.ErrTokenRevoked):
				status = http.StatusUnauthorized
				errResponse.Code = "UNAUTHENTICATED"
				errResponse.Message = unauthorizedMessage(err)
			case errors.Is(err, ierr.ErrForbidden):
				status = http.StatusForbidden
				errResponse.Code = "FORBIDDEN"
				errResponse.Message = "Access denied."
			case errors.Is(err, ierr.ErrNotFound):
				status = http.StatusNotFound
				errResponse.Code = "NOT_FOUND"
				errResponse.Message = "The requested resource was not found."
			case errors.Is(err, ierr.ErrConflict):
				status = http.StatusConflict
				errResponse.Code = "CONFLICT"
				errResponse.Message = err.Error()
			case errors.Is(err, ierr.ErrRateLimited):
				status = http.StatusTooManyRequests
				errResponse.Code = "RATE_LIMITED"
				errResponse.Message = "Too many requests, slow down."
			}
		}

		if status >= http.StatusInternalServerError {
			log.Error("Request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		} else {
			log.Debug("Request rejected", zap.String("path", c.Request.URL.Path), zap.Int("status", status), zap.Error(err))
		}

		c.AbortWithStatusJSON(status, errResponse)
	}
}

func unauthorizedMessage(err error) string {
	switch {
	case errors.Is(err, ierr.ErrInvalidCredentials):
		return "Invalid email or password."
	case errors.Is(err, ierr.ErrMissingSession):
		return "No session found."
	case errors.Is(err, ierr.ErrInvalidKey):
		return "Invalid API key."
	case errors.Is(err, ierr.ErrNotOwner):
		return "API key not found for this account."
	default:
		return "Authentication required or failed."
	}
}

func buildValidationErrors(ve validator.ValidationErrors) []dto.FieldError {
	details := make([]dto.FieldError, len(ve))
	for i, fe := range ve {
		details[i] = dto.FieldError{
			Field:   fe.Field(),
			Message: getValidationErrorMsg(fe),
		}
	}
	return details
}

func getValidationErrorMsg(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("Field '%s' is required", fe.Field())
	case "email":
		return fmt.Sprintf("Field '%s' must be a valid email address", fe.Field())
	case "min":
		return fmt.Sprintf("Field '%s' must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("Field '%s' must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("Field '%s' failed validation on the '%s' tag", fe.Field(), fe.Tag())
	}
}
