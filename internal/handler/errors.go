package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prperemyshlev/spotlight-api/internal/domain"
	"github.com/prperemyshlev/spotlight-api/internal/dto"
)

const (
	codeValidation = "VALIDATION_ERROR"
	codeInternal   = "INTERNAL_ERROR"
)

func statusForKind(kind domain.Kind) int {
	switch kind {
	case domain.KindBadRequest:
		return http.StatusBadRequest
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// respondError renders a domain error with its code, or a generic 500 for anything else.
// Unexpected errors are attached to the context for the logging middleware.
func respondError(c *gin.Context, err error) {
	var domainErr *domain.Error
	if errors.As(err, &domainErr) {
		status := statusForKind(domainErr.Kind)
		c.AbortWithStatusJSON(status, dto.ErrorResponse{
			StatusCode: status,
			Code:       domainErr.Code,
			Error:      http.StatusText(status),
			Message:    domainErr.Message,
		})
		return
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{
		StatusCode: http.StatusInternalServerError,
		Code:       codeInternal,
		Error:      http.StatusText(http.StatusInternalServerError),
		Message:    "An unexpected error occurred",
	})
}

// respondValidationError renders a binding failure as 422 with one detail per field
func respondValidationError(c *gin.Context, err error) {
	var details []string

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			details = append(details, validationMessage(fe))
		}
	} else {
		details = []string{"request body is malformed"}
	}

	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, dto.ErrorResponse{
		StatusCode: http.StatusUnprocessableEntity,
		Code:       codeValidation,
		Error:      http.StatusText(http.StatusUnprocessableEntity),
		Message:    "Validation failed",
		Details:    details,
	})
}
