package sqldict

// DefaultSourcePattern is the default glob for declarative source files in a source directory
var DefaultSourcePattern = "*.json"

// SourceOption is an option that can be passed to NewRegistry, LoadAll or Find
// and determines which files in the source directory are declarative sources
type SourceOption interface {
	// SourcePattern returns the (non-recursive) glob pattern matched against file names
	SourcePattern() string
}

// WarnOption is an option that can be passed to NewRegistry, LoadAll or Find
// to receive non-fatal load warnings (e.g. a source without a 'statements' member being skipped)
//
// If no WarnOption is provided, warnings are logged
type WarnOption interface {
	Warn(source string, msg string)
}

// WarnFunc adapts a func to a WarnOption
type WarnFunc func(source string, msg string)

func (f WarnFunc) Warn(source string, msg string) {
	f(source, msg)
}

var (
	JsonSourcesOption SourceOption = _JsonSourcesOption // option to use *.json files as sources
	DefaultsOption    SourceOption = _DefaultsOption    // option to use files matching DefaultSourcePattern as sources
)

var (
	_JsonSourcesOption = &sourceOption{
		pattern: "*.json",
	}
	_DefaultsOption = &defaultOption{}
)

// SourcePattern creates a SourceOption for the given glob pattern
func SourcePattern(pattern string) SourceOption {
	return &sourceOption{pattern: pattern}
}

type sourceOption struct {
	pattern string
}

func (o *sourceOption) SourcePattern() string {
	return o.pattern
}

type defaultOption struct {
}

func (d *defaultOption) SourcePattern() string {
	return DefaultSourcePattern
}
