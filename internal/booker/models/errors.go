package models

import (
	"strings"

	dErrors "bookerregistry/pkg/domain-errors"
)

// ViolationCode names one failed visitor request rule.
type ViolationCode string

const (
	ViolationPrisonerNotFound      ViolationCode = "PRISONER_NOT_FOUND_FOR_BOOKER"
	ViolationMaxInProgressRequests ViolationCode = "MAX_IN_PROGRESS_REQUESTS_REACHED"
	ViolationRequestAlreadyExists  ViolationCode = "REQUEST_ALREADY_EXISTS"
	ViolationVisitorAlreadyExists  ViolationCode = "VISITOR_ALREADY_EXISTS"
)

// ValidationError carries every rule a visitor request broke, in rule order.
// It unwraps to a CodeValidation domain error.
type ValidationError struct {
	Codes []ViolationCode
}

// NewValidationError wraps the violation codes.
func NewValidationError(codes []ViolationCode) *ValidationError {
	return &ValidationError{Codes: codes}
}

func (e *ValidationError) Error() string {
	return "visitor request failed validation: " + strings.Join(e.Violations(), ", ")
}

// Violations returns the codes as strings for transport.
func (e *ValidationError) Violations() []string {
	out := make([]string, len(e.Codes))
	for i, c := range e.Codes {
		out[i] = string(c)
	}
	return out
}

func (e *ValidationError) Unwrap() error {
	return dErrors.New(dErrors.CodeValidation, "visitor request failed validation")
}

// Has reports whether code is among the violations.
func (e *ValidationError) Has(code ViolationCode) bool {
	for _, c := range e.Codes {
		if c == code {
			return true
		}
	}
	return false
}
