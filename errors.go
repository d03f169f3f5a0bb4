package sqldict

import (
	"errors"
	"fmt"
)

var (
	ErrNoSources            = errors.New("no sources found")
	ErrMissingStatementText = errors.New("statement is incomplete (no statement_text)")
	ErrMissingParameterName = errors.New("parameter has no name")
	ErrUnknownParamType     = errors.New("unknown param_type")
	ErrUnknownDataType      = errors.New("unknown data_type")
	ErrInvalidRegex         = errors.New("invalid regex")

	ErrNotInteger      = errors.New("not an integer")
	ErrNotFloat        = errors.New("not a float")
	ErrPatternMismatch = errors.New("does not match pattern")
	ErrDateFormat      = errors.New("not a date")

	ErrNoPlaceholder        = errors.New("no placeholder in statement text")
	ErrSubstitutionNotFound = errors.New("not found in statement text")
)

// LoadError is returned when a declarative source, or a statement record within it, cannot be loaded
type LoadError struct {
	// Source is the source id (file path) being loaded
	Source string
	// Statement is the statement name (empty when the whole source failed)
	Statement string
	Err       error
}

func (e *LoadError) Error() string {
	if e.Statement == "" {
		return fmt.Sprintf("loading %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("statement %s in %s: %v", e.Statement, e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// ValidationErrorKind identifies why a parameter assignment was rejected
type ValidationErrorKind int

const (
	TypeErrorKind ValidationErrorKind = iota + 1
	PatternMismatchKind
	FormatErrorKind
)

// ValidationError is returned when a value cannot be assigned to a parameter
//
// The parameter's previous value is always left unchanged
type ValidationError struct {
	Parameter string
	Input     string
	// Expected is the expected format or pattern, for display
	Expected string
	Kind     ValidationErrorKind
	Err      error
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case PatternMismatchKind:
		return fmt.Sprintf("'%s' does not match pattern for %s: %s", e.Input, e.Parameter, e.Expected)
	case FormatErrorKind:
		return fmt.Sprintf("unable to assign '%s' to date parameter %s, expect %s", e.Input, e.Parameter, e.Expected)
	default:
		return fmt.Sprintf("attempt to assign '%s' to %s parameter %s: %v", e.Input, e.Expected, e.Parameter, e.Err)
	}
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ExpansionError is returned when parameter values cannot be plugged into statement text
type ExpansionError struct {
	Statement string
	Parameter string
	Err       error
}

func (e *ExpansionError) Error() string {
	if errors.Is(e.Err, ErrSubstitutionNotFound) {
		return fmt.Sprintf("statement %s: @%s %v", e.Statement, e.Parameter, e.Err)
	}
	return fmt.Sprintf("statement %s: %v for parameter %s", e.Statement, e.Err, e.Parameter)
}

func (e *ExpansionError) Unwrap() error {
	return e.Err
}
