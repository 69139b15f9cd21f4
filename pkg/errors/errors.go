package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an analytics failure. Only two conditions abort a
// computation; everything degenerate-but-valid yields empty results instead.
type Kind string

const (
	KindInvalidInput     Kind = "invalid_input"
	KindInsufficientData Kind = "insufficient_data"
)

type AppError struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

func NewAppError(kind Kind, message string, details ...string) *AppError {
	detail := strings.Join(details, ", ")
	return &AppError{
		Kind:    kind,
		Message: message,
		Details: detail,
	}
}

// NewInvalidInput marks malformed or out-of-range construction data.
// Raised at construction time, never deferred.
func NewInvalidInput(message string, details ...string) *AppError {
	return NewAppError(KindInvalidInput, message, details...)
}

// NewInsufficientData marks an observation count below the computation's
// minimum. Callers may treat it as "skip this entity".
func NewInsufficientData(message string, details ...string) *AppError {
	return NewAppError(KindInsufficientData, message, details...)
}

func IsInvalidInput(err error) bool {
	return isKind(err, KindInvalidInput)
}

func IsInsufficientData(err error) bool {
	return isKind(err, KindInsufficientData)
}

func isKind(err error, kind Kind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}
