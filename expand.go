package sqldict

import (
	"strings"
)

const (
	markerTag     = "?"
	substituteTag = "@"
)

// Expand plugs the parameter values into the statement text, producing the executable statement
//
// Parameters are applied in the order given (normally declared order) and unset parameters are skipped.
// A Marker parameter replaces the leftmost `?` and it is an error if there is none left.
// A Substitute parameter replaces every `@name`, with the quotes of a quoted rendering stripped, and it
// is an error if there are none.
//
// Errors are always an *ExpansionError and no partial text is returned
func (s *Statement) Expand(params []*Parameter) (string, error) {
	result := s.text
	for _, p := range params {
		if p == nil || !p.IsSet() {
			continue
		}
		switch p.ParamType {
		case Marker:
			at := strings.Index(result, markerTag)
			if at == -1 {
				return "", &ExpansionError{Statement: s.name, Parameter: p.Name, Err: ErrNoPlaceholder}
			}
			result = result[:at] + p.Render() + result[at+len(markerTag):]
		case Substitute:
			tag := substituteTag + p.Name
			if !strings.Contains(result, tag) {
				return "", &ExpansionError{Statement: s.name, Parameter: p.Name, Err: ErrSubstitutionNotFound}
			}
			result = strings.ReplaceAll(result, tag, unquoted(p.Render()))
		}
	}
	return result, nil
}

// MustExpand is the same as Expand, except panics on error
func (s *Statement) MustExpand(params []*Parameter) string {
	result, err := s.Expand(params)
	if err != nil {
		panic(err)
	}
	return result
}

// unquoted strips one leading and one trailing quote from a quoted rendering
func unquoted(rendered string) string {
	if len(rendered) >= 2 && strings.HasPrefix(rendered, "'") {
		return rendered[1 : len(rendered)-1]
	}
	return rendered
}
