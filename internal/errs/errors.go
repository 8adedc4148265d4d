// Package errs defines the error kinds returned by the decision engine.
//
// Every kind is a struct carrying a message and matches its sentinel through
// errors.Is, so callers can branch on the kind without string matching:
//
//	if errors.Is(err, errs.ErrValidation) { ... }
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// #region sentinels
var (
	ErrFormat       = errors.New("invalid decision tree format")
	ErrValidation   = errors.New("invalid context")
	ErrNullDecision = errors.New("null decision")
	ErrReduction    = errors.New("unable to reduce decision rules")
	ErrTime         = errors.New("invalid time")
)

// #endregion sentinels

// #region format-error
// FormatError reports a malformed or unsupported envelope, or an unknown operator.
type FormatError struct {
	Message string
}

func (e *FormatError) Error() string {
	return "Invalid decision tree format, " + e.Message
}

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// Formatf builds a FormatError.
func Formatf(format string, args ...any) error {
	return &FormatError{Message: fmt.Sprintf(format, args...)}
}

// #endregion format-error

// #region validation-error
// ValidationError lists every problem found in a context. Missing properties come
// first, then ill-typed ones.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "Unable to take decision, the given context is not valid: " + strings.Join(e.Problems, ", ") + "."
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// #endregion validation-error

// #region null-decision-error
// NullDecisionError means the tree cannot produce a value for the context: a leaf
// without a value, an empty aggregation or a context that matches no rule.
type NullDecisionError struct {
	Message string
}

func (e *NullDecisionError) Error() string {
	return "Unable to take decision: " + e.Message
}

func (e *NullDecisionError) Is(target error) bool { return target == ErrNullDecision }

// NullDecisionf builds a NullDecisionError.
func NullDecisionf(format string, args ...any) error {
	return &NullDecisionError{Message: fmt.Sprintf(format, args...)}
}

// #endregion null-decision-error

// #region reduction-error
// ReductionError reports predicates on one property that cannot be merged.
type ReductionError struct {
	Property string
	Message  string
}

func (e *ReductionError) Error() string {
	if e.Property == "" {
		return "Unable to reduce decision rules: " + e.Message
	}
	return fmt.Sprintf("Unable to reduce decision rules on '%s': %s", e.Property, e.Message)
}

func (e *ReductionError) Is(target error) bool { return target == ErrReduction }

// #endregion reduction-error

// #region time-error
// TimeError reports an unusable timestamp or timezone.
type TimeError struct {
	Message string
}

func (e *TimeError) Error() string {
	return "Unable to instantiate Time: " + e.Message
}

func (e *TimeError) Is(target error) bool { return target == ErrTime }

// Timef builds a TimeError.
func Timef(format string, args ...any) error {
	return &TimeError{Message: fmt.Sprintf(format, args...)}
}

// #endregion time-error
