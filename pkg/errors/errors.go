package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Status  int                    `json:"status"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrPreconditionFailed = New("PRECONDITION_FAILED", http.StatusPreconditionFailed, "precondition failed")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrPersistence        = New("PERSISTENCE_ERROR", http.StatusInternalServerError, "datastore failure")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// Workflow guard codes surfaced to API clients. The strings are part of the
// API contract and must not be renamed.
const (
	CodeVerificationsOrdonnateurManquantes  = "VERIFICATIONS_ORDONNATEUR_MANQUANTES"
	CodeVerificationsOrdonnateurNonValidees = "VERIFICATIONS_ORDONNATEUR_NON_VALIDEES"
	CodeControlesObligatoiresManquants      = "CONTROLES_OBLIGATOIRES_MANQUANTS"
	CodeTransitionInvalide                  = "TRANSITION_INVALIDE"
)

// PreconditionWithCode builds a PreconditionFailed error carrying a workflow code.
func PreconditionWithCode(code, message string) *Error {
	return New(code, http.StatusPreconditionFailed, message)
}

// MissingItems builds a ValidationError naming the obligatory checklist items
// absent from a recorder payload.
func MissingItems(items []string) *Error {
	err := New(CodeControlesObligatoiresManquants, http.StatusBadRequest,
		fmt.Sprintf("missing obligatory checklist items: %s", strings.Join(items, ", ")))
	err.Details = map[string]interface{}{"missingItems": items}
	return err
}

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
