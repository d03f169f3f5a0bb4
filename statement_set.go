package sqldict

import (
	"errors"
	"fmt"
	"reflect"
)

const sqlTag = "sql"

// NewStatementSet builds a set of statements for the given struct type T from the registry
//
// Exported fields of type *sqldict.Statement are set to the statement named by the field tag 'sql'
// (nested structs are also populated)
//
// Example:
//
//	type EmployeeStatements struct {
//	  ByNumber *sqldict.Statement `sql:"employee_by_number"`
//	  Hired    *sqldict.Statement `sql:"employees_hired_since"`
//	}
//	set, err := sqldict.NewStatementSet[EmployeeStatements](registry)
//
// It is an error if a named statement is not found, or is defined in more than one source.
// The sources are read once for the whole set
func NewStatementSet[T any](reg *Registry) (*T, error) {
	var chk T
	if reflect.TypeOf(chk).Kind() != reflect.Struct {
		return nil, errors.New("not a struct")
	}
	all, err := reg.LoadAll()
	if all == nil {
		return nil, err
	}
	r := new(T)
	if err := setStatementFields(reflect.ValueOf(r).Elem(), all); err != nil {
		return nil, err
	}
	return r, nil
}

// MustCreateStatementSet is the same as NewStatementSet except that it panics on error
func MustCreateStatementSet[T any](reg *Registry) *T {
	r, err := NewStatementSet[T](reg)
	if err != nil {
		panic(err)
	}
	return r
}

var stt = reflect.TypeOf((*Statement)(nil))

func setStatementFields(rv reflect.Value, all map[string][]*Statement) error {
	rvt := rv.Type()
	for i := 0; i < rv.NumField(); i++ {
		fld := rv.Field(i)
		if ft := rvt.Field(i); ft.IsExported() {
			if fld.Type() == stt {
				name, ok := ft.Tag.Lookup(sqlTag)
				if !ok || name == "" {
					return fmt.Errorf("field '%s' does not have '%s' tag", ft.Name, sqlTag)
				}
				switch stmts := all[name]; len(stmts) {
				case 0:
					return fmt.Errorf("field '%s': statement '%s' not found", ft.Name, name)
				case 1:
					fld.Set(reflect.ValueOf(stmts[0]))
				default:
					return fmt.Errorf("field '%s': statement '%s' is defined in %d sources", ft.Name, name, len(stmts))
				}
			} else if fld.Kind() == reflect.Struct {
				sub := reflect.New(fld.Type()).Elem()
				if err := setStatementFields(sub, all); err == nil {
					fld.Set(sub)
				} else {
					return err
				}
			}
		}
	}
	return nil
}
