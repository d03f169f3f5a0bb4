package sqldict

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/go-andiamo/sqldict/internal/log"
)

const statementsMember = "statements"

// Registry aggregates the statement definitions of all the declarative sources in a directory
//
// Sources are re-read on every LoadAll / Find / Get - nothing is cached, so edits to the source
// files are always seen by the next call. A Registry holds no mutable state and is safe for
// concurrent use
type Registry struct {
	dir     string
	source  SourceOption
	warners []WarnOption
}

// NewRegistry creates a new Registry for the given source directory
//
// options can be any SourceOption or WarnOption
func NewRegistry(dir string, options ...any) (*Registry, error) {
	source, warners, err := getOptions(options...)
	if err != nil {
		return nil, err
	}
	return &Registry{
		dir:     dir,
		source:  source,
		warners: warners,
	}, nil
}

// MustCreateRegistry is the same as NewRegistry, except panics on error
func MustCreateRegistry(dir string, options ...any) *Registry {
	r, err := NewRegistry(dir, options...)
	if err != nil {
		panic(err)
	}
	return r
}

// Dir returns the source directory
func (r *Registry) Dir() string {
	return r.dir
}

// LoadAll reads every source file in the directory and returns all statement definitions indexed by name
//
// A name defined in more than one source has all its definitions retained, in source discovery order.
//
// It is an error if there are no source files, or a source file cannot be read or parsed. A source without
// a 'statements' member is skipped with a warning. A statement record that cannot be loaded is left out of
// the result and its *LoadError is returned (joined with any others) alongside the otherwise complete result
func (r *Registry) LoadAll() (map[string][]*Statement, error) {
	paths, err := r.sourcePaths()
	if err != nil {
		return nil, err
	}
	result := map[string][]*Statement{}
	recordErrs := make([]error, 0)
	for _, path := range paths {
		stmts, errs, err := r.loadSource(path)
		if err != nil {
			return nil, err
		}
		recordErrs = append(recordErrs, errs...)
		for _, stmt := range stmts {
			result[stmt.name] = append(result[stmt.name], stmt)
		}
	}
	log.Debug(log.CatRegistry, "loaded statements", "dir", r.dir, "sources", len(paths), "names", len(result))
	return result, errors.Join(recordErrs...)
}

// Find returns all statement definitions whose name contains a match of the regular expression pattern
// (an empty pattern matches all), sorted by name
//
// Definitions with the same name retain source discovery order. No matches is an empty result, not an error
func (r *Registry) Find(pattern string) ([]*Statement, error) {
	rx, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern '%s': %w", pattern, err)
	}
	all, err := r.LoadAll()
	if all == nil {
		return nil, err
	}
	names := make([]string, 0, len(all))
	for name := range all {
		if rx.MatchString(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	result := make([]*Statement, 0, len(names))
	for _, name := range names {
		result = append(result, all[name]...)
	}
	return result, err
}

// Get returns all statement definitions with exactly the given name (in source discovery order)
func (r *Registry) Get(name string) ([]*Statement, error) {
	all, err := r.LoadAll()
	if all == nil {
		return nil, err
	}
	return all[name], err
}

func (r *Registry) sourcePaths() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(r.dir, r.source.SourcePattern()))
	if err != nil {
		return nil, &LoadError{Source: r.dir, Err: err}
	}
	paths := make([]string, 0, len(matches))
	for _, path := range matches {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			paths = append(paths, path)
		}
	}
	if len(paths) == 0 {
		return nil, &LoadError{Source: r.dir, Err: ErrNoSources}
	}
	return paths, nil
}

func (r *Registry) loadSource(path string) ([]*Statement, []error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, &LoadError{Source: path, Err: err}
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return nil, nil, &LoadError{Source: path, Err: err}
		}
		// valid json, but not an object
	}
	raw, ok := doc[statementsMember]
	if !ok {
		r.warn(path, fmt.Sprintf("no '%s' member found in %s: skipped", statementsMember, path))
		return nil, nil, nil
	}
	var records map[string]json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, nil, &LoadError{Source: path, Err: err}
	}
	names := make([]string, 0, len(records))
	for name := range records {
		names = append(names, name)
	}
	sort.Strings(names)
	stmts := make([]*Statement, 0, len(names))
	errs := make([]error, 0)
	for _, name := range names {
		var rec Record
		if err := json.Unmarshal(records[name], &rec); err != nil {
			errs = append(errs, &LoadError{Source: path, Statement: name, Err: err})
			continue
		}
		stmt, err := NewStatement(path, name, rec)
		if err != nil {
			log.Warn(log.CatRegistry, "statement not loaded", "source", path, "statement", name, "error", err)
			errs = append(errs, err)
			continue
		}
		stmts = append(stmts, stmt)
	}
	return stmts, errs, nil
}

func (r *Registry) warn(source string, msg string) {
	if len(r.warners) == 0 {
		log.Warn(log.CatRegistry, msg)
		return
	}
	for _, w := range r.warners {
		w.Warn(source, msg)
	}
}

// LoadAll reads every source file in dir and returns all statement definitions indexed by name
//
// See Registry.LoadAll
func LoadAll(dir string, options ...any) (map[string][]*Statement, error) {
	r, err := NewRegistry(dir, options...)
	if err != nil {
		return nil, err
	}
	return r.LoadAll()
}

// Find returns all statement definitions in the sources in dir whose name contains a match of pattern, sorted by name
//
// See Registry.Find
func Find(pattern string, dir string, options ...any) ([]*Statement, error) {
	r, err := NewRegistry(dir, options...)
	if err != nil {
		return nil, err
	}
	return r.Find(pattern)
}
