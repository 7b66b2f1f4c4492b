package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

// NewIllegalTransition signals a state-machine violation, e.g. resolving an
// already-resolved task.
func NewIllegalTransition(message string) error {
	return NewDomainError("ILLEGAL_TRANSITION", message, http.StatusConflict, nil)
}

// NewInUse signals a delete refused because dependents exist.
func NewInUse(message string, details map[string]any) error {
	return NewDomainError("IN_USE", message, http.StatusConflict, details)
}

// NewInvalidToken signals an unknown verification token.
func NewInvalidToken() error {
	return NewDomainError("INVALID_TOKEN", "verification token is not valid", http.StatusBadRequest, nil)
}

// NewAlreadyConsumed signals a verification token that was already spent.
func NewAlreadyConsumed() error {
	return NewDomainError("ALREADY_CONSUMED", "verification token already consumed", http.StatusConflict, nil)
}

// NewUnknownVisitor signals a sign-in for an unregistered hardware id while
// auto-provisioning is disabled.
func NewUnknownVisitor(hardwareID string) error {
	return NewDomainError("UNKNOWN_VISITOR", "visitor is not registered", http.StatusNotFound,
		map[string]any{"hardware_id": hardwareID})
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError. Storage-layer
// identifiers never reach the caller.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}
