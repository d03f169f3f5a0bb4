package sqldict

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
)

func getOptions(options ...any) (SourceOption, []WarnOption, error) {
	opt := DefaultsOption
	warners := make([]WarnOption, 0)
	for _, o := range options {
		if o != nil {
			o1, ok1 := o.(SourceOption)
			o2, ok2 := o.(WarnOption)
			if !ok1 && !ok2 {
				if f, ok := o.(func(source string, msg string)); ok {
					warners = append(warners, WarnFunc(f))
					continue
				}
				return nil, nil, errors.New("invalid option")
			}
			if ok1 {
				opt = o1
			}
			if ok2 {
				warners = append(warners, o2)
			}
		}
	}
	return opt, warners, nil
}

// AssignAll assigns values to parameters by name
//
// args can be any of map[string]any, map[string]string (or any other map with string keys),
// sql.NamedArg, *sql.NamedArg or a struct (which is marshalled to a json object to obtain names and values).
// Each value is assigned using Parameter.AssignValue - so the same validation applies as for interactive input.
//
// Assignment is all or nothing: if any name is unknown or any value is rejected, no parameter is changed
func AssignAll(params []*Parameter, args ...any) error {
	values, err := mappedArgs(args...)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	staged := make(map[*Parameter]Parameter, len(names))
	errs := make([]error, 0)
	for _, name := range names {
		found := false
		for _, p := range params {
			if p.Name != name {
				continue
			}
			found = true
			trial, ok := staged[p]
			if !ok {
				trial = *p
			}
			if err := trial.AssignValue(values[name]); err != nil {
				errs = append(errs, err)
			} else {
				staged[p] = trial
			}
		}
		if !found {
			errs = append(errs, fmt.Errorf("unknown parameter '%s'", name))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	for p, trial := range staged {
		p.value = trial.value
	}
	return nil
}

func mappedArgs(args ...any) (map[string]any, error) {
	result := map[string]any{}
	for _, arg := range args {
		if arg != nil {
			switch targ := arg.(type) {
			case map[string]any:
				for k, v := range targ {
					result[k] = v
				}
			case map[string]string:
				for k, v := range targ {
					result[k] = v
				}
			case *sql.NamedArg:
				result[targ.Name] = targ.Value
			case sql.NamedArg:
				result[targ.Name] = targ.Value
			default:
				if vo := reflect.ValueOf(arg); vo.Kind() == reflect.Map {
					// it's a map, but not a map[string]any...
					iter := vo.MapRange()
					for iter.Next() {
						if k, ok := iter.Key().Interface().(string); ok {
							result[k] = iter.Value().Interface()
						} else {
							return nil, errors.New("invalid map - keys must be string")
						}
					}
				} else {
					// not a type aware of - try marshaling and then unmarshalling to a map...
					data, err := json.Marshal(arg)
					if err != nil {
						return nil, err
					}
					dec := json.NewDecoder(bytes.NewReader(data))
					dec.UseNumber()
					var jm map[string]any
					if err := dec.Decode(&jm); err != nil {
						return nil, err
					}
					for k, v := range jm {
						result[k] = v
					}
				}
			}
		}
	}
	return result, nil
}
