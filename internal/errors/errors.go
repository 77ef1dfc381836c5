package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies engine errors by how they propagate: integrity and
// configuration errors abort the run; coverage gaps are contained to the
// affected date or security and flow downstream as explicit missing values.
type ErrorType string

const (
	ErrorTypeIntegrity     ErrorType = "integrity"
	ErrorTypeCoverage      ErrorType = "coverage"
	ErrorTypeConfiguration ErrorType = "configuration"
	ErrorTypeValidation    ErrorType = "validation"
)

// EngineError is the structured error carried through the pipeline.
type EngineError struct {
	Type    ErrorType              `json:"type"`
	Op      string                 `json:"op,omitempty"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e == nil {
		return "unknown engine error"
	}
	if e.Op != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Type, e.Op, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause.
func (e *EngineError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Fatal reports whether the error must abort the run.
func (e *EngineError) Fatal() bool {
	return e != nil && e.Type != ErrorTypeCoverage
}

// WithContext attaches a key-value pair for logs and reports.
func (e *EngineError) WithContext(key string, value interface{}) *EngineError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewIntegrityError reports malformed or duplicate keys in an input table.
// Fatal: surfaced immediately, no recovery.
func NewIntegrityError(op, message string) *EngineError {
	return &EngineError{
		Type:    ErrorTypeIntegrity,
		Op:      op,
		Message: message,
	}
}

// NewCoverageGap reports a local data gap: a security-month without a usable
// accounting record, an empty reference subpopulation, a portfolio with zero
// eligible weight. Non-fatal; the affected slot becomes a missing value and
// the gap is counted by the validator.
func NewCoverageGap(op, message string) *EngineError {
	return &EngineError{
		Type:    ErrorTypeCoverage,
		Op:      op,
		Message: message,
	}
}

// NewConfigurationError reports an invalid configuration. Fatal at startup.
func NewConfigurationError(field, message string) *EngineError {
	return &EngineError{
		Type:    ErrorTypeConfiguration,
		Message: message,
		Context: map[string]interface{}{"field": field},
	}
}

// NewValidationError reports an inconsistency found while checking produced
// output (as opposed to input integrity).
func NewValidationError(op, message string) *EngineError {
	return &EngineError{
		Type:    ErrorTypeValidation,
		Op:      op,
		Message: message,
	}
}

// WrapError attaches a cause to a typed engine error.
func WrapError(errType ErrorType, op, message string, cause error) *EngineError {
	return &EngineError{
		Type:    errType,
		Op:      op,
		Message: message,
		Cause:   cause,
	}
}

// GetErrorType extracts the ErrorType from an error chain, or "" when the
// chain holds no EngineError.
func GetErrorType(err error) ErrorType {
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr.Type
	}
	return ""
}

// IsIntegrity reports whether the error chain holds an integrity error.
func IsIntegrity(err error) bool {
	return GetErrorType(err) == ErrorTypeIntegrity
}

// IsCoverageGap reports whether the error chain holds a coverage gap.
func IsCoverageGap(err error) bool {
	return GetErrorType(err) == ErrorTypeCoverage
}

// IsConfiguration reports whether the error chain holds a configuration error.
func IsConfiguration(err error) bool {
	return GetErrorType(err) == ErrorTypeConfiguration
}

// IsFatal reports whether the error chain requires aborting the run.
// Coverage gaps are the only recoverable type; unclassified errors are
// treated as fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr.Fatal()
	}
	return true
}

// ErrorList collects non-fatal errors encountered during a pass so callers
// can keep going and report once.
type ErrorList struct {
	Errors []*EngineError `json:"errors"`
}

// Add appends an error to the list. Nil errors are ignored.
func (l *ErrorList) Add(err *EngineError) {
	if err != nil {
		l.Errors = append(l.Errors, err)
	}
}

// HasErrors reports whether anything was collected.
func (l *ErrorList) HasErrors() bool {
	return len(l.Errors) > 0
}

// CoverageGaps returns only the coverage-gap entries.
func (l *ErrorList) CoverageGaps() []*EngineError {
	var gaps []*EngineError
	for _, e := range l.Errors {
		if e.Type == ErrorTypeCoverage {
			gaps = append(gaps, e)
		}
	}
	return gaps
}

// Error implements the error interface over the whole list.
func (l *ErrorList) Error() string {
	switch len(l.Errors) {
	case 0:
		return "no errors"
	case 1:
		return l.Errors[0].Error()
	default:
		return fmt.Sprintf("%s (and %d more)", l.Errors[0].Error(), len(l.Errors)-1)
	}
}
