package sqldict

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Record is the raw declarative form of a statement, as found in a source file
//
// Example (json):
//
//	{
//	  "statement_text": ["SELECT * FROM employees", "WHERE emp_no = ?"],
//	  "description": ["Find an employee by number"],
//	  "parameters": [
//	    {"name": "emp_no", "param_type": "marker", "data_type": "int"}
//	  ]
//	}
type Record struct {
	StatementText []string          `json:"statement_text"`
	Description   []string          `json:"description,omitempty"`
	Parameters    []ParameterRecord `json:"parameters,omitempty"`
}

// ParameterRecord is the raw declarative form of a statement parameter
type ParameterRecord struct {
	Name        string `json:"name"`
	ParamType   string `json:"param_type"`
	DataType    string `json:"data_type"`
	Description string `json:"description,omitempty"`
	Regex       string `json:"regex,omitempty"`
}

// Statement is an immutable statement definition - template text, optional description and
// ordered parameter declarations - loaded from a declarative source
//
// Use NewStatement to create one (or obtain via LoadAll, Find or a Registry)
type Statement struct {
	sourceID       string
	name           string
	text           string
	description    string
	hasDescription bool
	declarations   []ParameterDeclaration
}

// NewStatement creates a statement definition from its raw record
//
// Returns a *LoadError if the record has no statement text, or any parameter record
// is incomplete or has an unknown param/data type
func NewStatement(sourceID string, name string, rec Record) (*Statement, error) {
	loadErr := func(err error) error {
		return &LoadError{Source: sourceID, Statement: name, Err: err}
	}
	text := strings.Join(rec.StatementText, "\n")
	if text == "" {
		return nil, loadErr(ErrMissingStatementText)
	}
	result := &Statement{
		sourceID:     sourceID,
		name:         name,
		text:         text,
		declarations: make([]ParameterDeclaration, 0, len(rec.Parameters)),
	}
	if rec.Description != nil {
		result.hasDescription = true
		result.description = strings.Join(rec.Description, "\n")
	}
	for i, pr := range rec.Parameters {
		decl, err := pr.declaration()
		if err != nil {
			return nil, loadErr(fmt.Errorf("parameter [%d]: %w", i+1, err))
		}
		result.declarations = append(result.declarations, decl)
	}
	return result, nil
}

// MustNewStatement is the same as NewStatement, except panics on error
func MustNewStatement(sourceID string, name string, rec Record) *Statement {
	s, err := NewStatement(sourceID, name, rec)
	if err != nil {
		panic(err)
	}
	return s
}

func (pr ParameterRecord) declaration() (ParameterDeclaration, error) {
	if pr.Name == "" {
		return ParameterDeclaration{}, ErrMissingParameterName
	}
	pt, err := ParseParamType(pr.ParamType)
	if err != nil {
		return ParameterDeclaration{}, fmt.Errorf("%s: %w", pr.Name, err)
	}
	dt, err := ParseDataType(pr.DataType)
	if err != nil {
		return ParameterDeclaration{}, fmt.Errorf("%s: %w", pr.Name, err)
	}
	result := ParameterDeclaration{
		Name:        pr.Name,
		ParamType:   pt,
		DataType:    dt,
		Description: pr.Description,
		Regex:       pr.Regex,
	}
	if err := result.compilePattern(); err != nil {
		return ParameterDeclaration{}, err
	}
	return result, nil
}

// Name returns the statement name
func (s *Statement) Name() string {
	return s.name
}

// SourceID returns the id (file path) of the source the statement was loaded from
func (s *Statement) SourceID() string {
	return s.sourceID
}

// SourceFile returns the base file name of the source the statement was loaded from
func (s *Statement) SourceFile() string {
	return filepath.Base(s.sourceID)
}

// Text returns the (unexpanded) statement template text
func (s *Statement) Text() string {
	return s.text
}

// Description returns the statement description and whether it has one
func (s *Statement) Description() (string, bool) {
	return s.description, s.hasDescription
}

// Declarations returns a copy of the statement's parameter declarations, in declared order
func (s *Statement) Declarations() []ParameterDeclaration {
	result := make([]ParameterDeclaration, len(s.declarations))
	copy(result, s.declarations)
	return result
}

// NewParameters creates fresh, unset, parameter instances for one use of the statement
//
// The result is in declared order and is never shared with other callers
func (s *Statement) NewParameters() []*Parameter {
	result := make([]*Parameter, len(s.declarations))
	for i, d := range s.declarations {
		result[i] = d.NewParameter()
	}
	return result
}

func (s *Statement) String() string {
	return fmt.Sprintf("%s (%s)", s.name, s.SourceFile())
}
