package sqldict

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParamType determines how a parameter value is substituted into statement text
type ParamType int

const (
	// Marker parameters replace the leftmost remaining `?` in the statement text
	Marker ParamType = iota + 1
	// Substitute parameters replace every occurrence of `@name` in the statement text
	Substitute
)

var paramTypeNames = map[ParamType]string{
	Marker:     "MARKER",
	Substitute: "SUBSTITUTE",
}

func (t ParamType) String() string {
	if s, ok := paramTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("ParamType(%d)", int(t))
}

// ParseParamType parses a param type name (case-insensitive, e.g. "marker" or "SUBSTITUTE")
func ParseParamType(s string) (ParamType, error) {
	up := strings.ToUpper(s)
	for t, name := range paramTypeNames {
		if name == up {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: '%s'", ErrUnknownParamType, s)
}

// UnmarshalJSON implements json.Unmarshaler
func (t *ParamType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	pt, err := ParseParamType(s)
	if err != nil {
		return err
	}
	*t = pt
	return nil
}

// MarshalJSON implements json.Marshaler
func (t ParamType) MarshalJSON() ([]byte, error) {
	return json.Marshal(strings.ToLower(t.String()))
}

// DataType is the declared semantic type of a parameter value
type DataType int

const (
	Int DataType = iota + 1
	String
	Float
	Date
)

var dataTypeNames = map[DataType]string{
	Int:    "INT",
	String: "STRING",
	Float:  "FLOAT",
	Date:   "DATE",
}

func (t DataType) String() string {
	if s, ok := dataTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("DataType(%d)", int(t))
}

// ParseDataType parses a data type name (case-insensitive, e.g. "int", "String", "DATE")
func ParseDataType(s string) (DataType, error) {
	up := strings.ToUpper(s)
	for t, name := range dataTypeNames {
		if name == up {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: '%s'", ErrUnknownDataType, s)
}

// UnmarshalJSON implements json.Unmarshaler
func (t *DataType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	dt, err := ParseDataType(s)
	if err != nil {
		return err
	}
	*t = dt
	return nil
}

// MarshalJSON implements json.Marshaler
func (t DataType) MarshalJSON() ([]byte, error) {
	return json.Marshal(strings.ToLower(t.String()))
}

// expectedFormat describes, for users, what input a data type accepts
func (t DataType) expectedFormat() string {
	switch t {
	case Int:
		return "integer"
	case Float:
		return "float"
	case Date:
		return "yyyy-mm-dd"
	default:
		return "string"
	}
}
