package services

import (
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/mintsurvey/survey-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrForbidden        = errors.New("forbidden - insufficient permissions")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")
	ErrBadRequest       = errors.New("bad request")

	// Submission specific errors
	ErrInvalidPayload     = errors.New("invalid payload")
	ErrVerificationFailed = errors.New("verification failed")
	ErrPersistence        = errors.New("submission failed")
	ErrUnsupportedFormat  = errors.New("unsupported export format")

	// Session specific errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionConflict = errors.New("session state does not allow this action")
)

// VerificationFailedDetails is the details text of a rejected token.
const VerificationFailedDetails = "reCAPTCHA verification failed"

// ===== CUSTOM ERROR TYPES =====

type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// PayloadError describes why a submission body was rejected. Details is the
// single line returned to the client.
type PayloadError struct {
	Details string           `json:"details"`
	Fields  ValidationErrors `json:"fields,omitempty"`
}

func (pe *PayloadError) Error() string {
	return fmt.Sprintf("invalid payload: %s", pe.Details)
}

func (pe *PayloadError) Unwrap() error { return ErrInvalidPayload }

// NewMissingFieldsError reports required fields that are absent or blank.
func NewMissingFieldsError(fields []string) *PayloadError {
	errs := make(ValidationErrors, 0, len(fields))
	for _, f := range fields {
		errs = append(errs, *apperrors.NewValidationErrorWithRule(f, "is required", "required", nil))
	}
	return &PayloadError{
		Details: "Missing or empty required fields: " + strings.Join(fields, ", "),
		Fields:  errs,
	}
}

// PersistenceError is a storage failure while saving a submission.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("submission failed: %v", e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

// ===== ERROR HELPERS =====

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrSessionNotFound)
}

func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden)
}

// IsValidation checks if error represents a validation failure.
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) || errors.Is(err, ErrInvalidPayload) || errors.Is(err, ErrBadRequest) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

func IsVerification(err error) bool {
	return errors.Is(err, ErrVerificationFailed)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrSessionConflict)
}

func IsPersistence(err error) bool {
	return errors.Is(err, ErrPersistence)
}
