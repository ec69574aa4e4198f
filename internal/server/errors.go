package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	expensedomain "github.com/smallbiznis/ledgerline/internal/expense/domain"
	invoicedomain "github.com/smallbiznis/ledgerline/internal/invoice/domain"
	"github.com/smallbiznis/ledgerline/internal/recurrence"
	"github.com/smallbiznis/ledgerline/internal/settlement"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	switch {
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, settlement.ErrInvalidTransition):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "invalid status transition",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, invoicedomain.ErrMissingCustomer),
		errors.Is(err, invoicedomain.ErrMissingCurrency),
		errors.Is(err, expensedomain.ErrMissingVendor),
		errors.Is(err, expensedomain.ErrMissingCategory),
		errors.Is(err, expensedomain.ErrMissingCurrency),
		errors.Is(err, recurrence.ErrInvalidFrequency),
		errors.Is(err, recurrence.ErrInvalidDocumentKind),
		errors.Is(err, recurrence.ErrExpiryConflict),
		errors.Is(err, recurrence.ErrMissingExpiry),
		errors.Is(err, recurrence.ErrMissingStartOn),
		errors.Is(err, recurrence.ErrBaseDocumentMissing),
		errors.Is(err, settlement.ErrInvalidStatus):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, invoicedomain.ErrInvoiceNotFound),
		errors.Is(err, expensedomain.ErrExpenseNotFound),
		errors.Is(err, recurrence.ErrScheduleNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}
