package sqldict

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the fixed layout for DATE parameter input and rendering
const DateLayout = "2006-01-02"

var errNilValue = errors.New("nil value")

// ParameterDeclaration is the static declaration of a statement parameter
type ParameterDeclaration struct {
	Name        string
	ParamType   ParamType
	DataType    DataType
	Description string
	// Regex, if set, is the pattern a STRING value must contain a match of.
	// It uses Go's RE2 syntax, so lookaround and backreferences don't compile
	// and the record declaring them fails to load with ErrInvalidRegex
	Regex   string
	pattern *regexp.Regexp
}

// NewParameter creates a new, unset, parameter instance from the declaration
func (d ParameterDeclaration) NewParameter() *Parameter {
	return &Parameter{ParameterDeclaration: d}
}

func (d *ParameterDeclaration) compilePattern() error {
	if d.Regex == "" || d.DataType != String {
		return nil
	}
	rx, err := regexp.Compile(d.Regex)
	if err != nil {
		return fmt.Errorf("%w for parameter %s: %v", ErrInvalidRegex, d.Name, err)
	}
	d.pattern = rx
	return nil
}

// Parameter is a per-use, typed, value slot derived from a ParameterDeclaration
//
// A Parameter is not safe for concurrent use and must not be shared between executions
type Parameter struct {
	ParameterDeclaration
	value any
}

// IsSet returns whether a value has been assigned
func (p *Parameter) IsSet() bool {
	return p.value != nil
}

// Value returns the assigned value (int64, float64, string or time.Time), or nil if unset
func (p *Parameter) Value() any {
	return p.value
}

// Clear returns the parameter to the unset state
func (p *Parameter) Clear() {
	p.value = nil
}

// Assign converts raw input according to the declared data type and sets it as the value
//
// On error (always a *ValidationError) the previous value, including unset, is unchanged
func (p *Parameter) Assign(raw string) error {
	v, err := p.convert(raw)
	if err != nil {
		return err
	}
	p.value = v
	return nil
}

// MustAssign is the same as Assign, except panics on error
func (p *Parameter) MustAssign(raw string) *Parameter {
	if err := p.Assign(raw); err != nil {
		panic(err)
	}
	return p
}

// AssignValue assigns an already typed value
//
// Strings are treated as raw input (see Assign), time.Time is accepted for DATE parameters,
// Go integer types for INT and FLOAT parameters, float types for FLOAT (and for INT when integral)
// and json.Number for either
func (p *Parameter) AssignValue(v any) error {
	if s, ok := v.(string); ok {
		return p.Assign(s)
	} else if v == nil {
		return p.typeError("<nil>", errNilValue)
	}
	var cv any
	var err error
	switch p.DataType {
	case Int:
		cv, err = p.intValue(v)
	case Float:
		cv, err = p.floatValue(v)
	case Date:
		switch tv := v.(type) {
		case time.Time:
			cv = tv
		case *time.Time:
			if tv == nil {
				err = p.formatError("<nil>")
			} else {
				cv = *tv
			}
		default:
			err = p.formatError(fmt.Sprint(v))
		}
	default:
		return p.Assign(fmt.Sprint(v))
	}
	if err != nil {
		return err
	}
	p.value = cv
	return nil
}

func (p *Parameter) intValue(v any) (any, error) {
	switch tv := v.(type) {
	case int:
		return int64(tv), nil
	case int8:
		return int64(tv), nil
	case int16:
		return int64(tv), nil
	case int32:
		return int64(tv), nil
	case int64:
		return tv, nil
	case uint:
		if uint64(tv) <= math.MaxInt64 {
			return int64(tv), nil
		}
	case uint8:
		return int64(tv), nil
	case uint16:
		return int64(tv), nil
	case uint32:
		return int64(tv), nil
	case uint64:
		if tv <= math.MaxInt64 {
			return int64(tv), nil
		}
	case float32:
		if i, ok := integralFloat(float64(tv)); ok {
			return i, nil
		}
	case float64:
		if i, ok := integralFloat(tv); ok {
			return i, nil
		}
	case json.Number:
		if i, err := tv.Int64(); err == nil {
			return i, nil
		}
	}
	return nil, p.typeError(fmt.Sprint(v), ErrNotInteger)
}

func integralFloat(f float64) (int64, bool) {
	if f != math.Trunc(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

func (p *Parameter) floatValue(v any) (any, error) {
	switch tv := v.(type) {
	case float32:
		return float64(tv), nil
	case float64:
		if !math.IsNaN(tv) && !math.IsInf(tv, 0) {
			return tv, nil
		}
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		if i, err := strconv.ParseFloat(fmt.Sprint(tv), 64); err == nil {
			return i, nil
		}
	case json.Number:
		if f, err := tv.Float64(); err == nil {
			return f, nil
		}
	}
	return nil, p.typeError(fmt.Sprint(v), ErrNotFloat)
}

func (p *Parameter) convert(raw string) (any, error) {
	switch p.DataType {
	case Int:
		i, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, p.typeError(raw, ErrNotInteger)
		}
		return i, nil
	case Float:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, p.typeError(raw, ErrNotFloat)
		}
		return f, nil
	case Date:
		d, err := time.Parse(DateLayout, raw)
		if err != nil {
			return nil, p.formatError(raw)
		}
		return d, nil
	case String:
		if p.Regex != "" {
			if p.pattern == nil {
				if err := p.compilePattern(); err != nil {
					return nil, &ValidationError{Parameter: p.Name, Input: raw, Expected: p.Regex, Kind: PatternMismatchKind, Err: err}
				}
			}
			if !p.pattern.MatchString(raw) {
				return nil, &ValidationError{Parameter: p.Name, Input: raw, Expected: p.Regex, Kind: PatternMismatchKind, Err: ErrPatternMismatch}
			}
		}
		return raw, nil
	}
	return nil, p.typeError(raw, fmt.Errorf("unsupported data type %s", p.DataType))
}

func (p *Parameter) typeError(raw string, err error) error {
	return &ValidationError{
		Parameter: p.Name,
		Input:     raw,
		Expected:  p.DataType.expectedFormat(),
		Kind:      TypeErrorKind,
		Err:       err,
	}
}

func (p *Parameter) formatError(raw string) error {
	return &ValidationError{
		Parameter: p.Name,
		Input:     raw,
		Expected:  Date.expectedFormat(),
		Kind:      FormatErrorKind,
		Err:       ErrDateFormat,
	}
}

// Render returns the value as it is to be plugged into statement text
//
// Unset renders as an empty string, INT and FLOAT in plain form, STRING and DATE single-quoted
// (no escaping of quotes within the value is performed)
func (p *Parameter) Render() string {
	switch v := p.value.(type) {
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		return "'" + v + "'"
	case time.Time:
		return "'" + v.Format(DateLayout) + "'"
	}
	return fmt.Sprint(p.value)
}

// String returns the parameter name, followed by ` = <rendered value>` when set
func (p *Parameter) String() string {
	if !p.IsSet() {
		return p.Name
	}
	return p.Name + " = " + p.Render()
}

// FirstUnset returns the first parameter, in declared order, that has no value (and its index)
//
// Returns nil, -1 when all parameters are set
func FirstUnset(params []*Parameter) (*Parameter, int) {
	for i, p := range params {
		if !p.IsSet() {
			return p, i
		}
	}
	return nil, -1
}
