// Package shell implements the interactive statement explorer.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/gertd/go-pluralize"
	"github.com/go-andiamo/sqldict"
	"github.com/go-andiamo/sqldict/internal/config"
	"github.com/go-andiamo/sqldict/internal/dbconn"
	"github.com/go-andiamo/sqldict/internal/grid"
	"github.com/go-andiamo/sqldict/internal/log"
)

const menu = `
    d dbname    Connect to a database
    x [pattern] Select and execute a statement. If more than one
                statement name contains the pattern, or the pattern
                is omitted, you will be presented with a list
                of statements to choose from.
    c           Show or modify the config settings
Enter an option code or nothing to quit: `

var (
	connectPattern = regexp.MustCompile(`^d\s+(\S+)`)
	executePattern = regexp.MustCompile(`^x\s+(\S+)`)
)

// errQuit ends the session (input exhausted).
var errQuit = errors.New("quit")

// Session holds the explorer state: configuration, connections and the terminal.
type Session struct {
	cfg          config.Config
	configPath   string
	conns        *dbconn.Registry
	in           Prompter
	out          io.Writer
	styles       grid.Styles
	plural       *pluralize.Client
	configPrompt bool
	styled       bool
}

// Option configures a Session.
type Option func(s *Session)

// WithOutput sets the destination for session output (default os.Stdout).
func WithOutput(w io.Writer) Option {
	return func(s *Session) {
		s.out = w
	}
}

// WithStyles sets the terminal styles.
func WithStyles(styles grid.Styles) Option {
	return func(s *Session) {
		s.styles = styles
		s.styled = true
	}
}

// WithConfigPath sets where modified config settings are saved (not saved when empty).
func WithConfigPath(path string) Option {
	return func(s *Session) {
		s.configPath = path
	}
}

// WithConfigPrompt shows the config settings, offering to modify them, when the session starts.
func WithConfigPrompt(enabled bool) Option {
	return func(s *Session) {
		s.configPrompt = enabled
	}
}

// New creates a session.
func New(cfg config.Config, conns *dbconn.Registry, in Prompter, options ...Option) *Session {
	s := &Session{
		cfg:    cfg,
		conns:  conns,
		in:     in,
		out:    os.Stdout,
		plural: pluralize.NewClient(),
	}
	for _, o := range options {
		o(s)
	}
	if !s.styled {
		s.styles = grid.NewStyles(s.out, nil)
	}
	return s
}

// Config returns the session's current configuration.
func (s *Session) Config() config.Config {
	return s.cfg
}

// Run loops reading commands until an empty command or end of input.
func (s *Session) Run(ctx context.Context) error {
	err := s.run(ctx)
	if errors.Is(err, errQuit) {
		return nil
	}
	return err
}

func (s *Session) run(ctx context.Context) error {
	if s.configPrompt {
		if err := s.cmdConfig(); err != nil {
			return err
		}
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		response, err := s.ask("\n" + s.styles.Header.Render("Options:") + menu)
		if err != nil {
			return err
		}
		response = strings.TrimSpace(response)
		switch {
		case response == "":
			return nil
		case strings.HasPrefix(response, "d"):
			if _, err := s.connect(ctx, response); err != nil {
				return err
			}
		case strings.HasPrefix(response, "x"):
			if err := s.cmdExecute(ctx, response); err != nil {
				return err
			}
		case strings.HasPrefix(response, "c"):
			if err := s.cmdConfig(); err != nil {
				return err
			}
		}
	}
}

// ask prints all but the last line of text and prompts with the last line.
// End of input becomes errQuit.
func (s *Session) ask(text string) (string, error) {
	label := text
	if i := strings.LastIndexByte(text, '\n'); i >= 0 {
		_, _ = fmt.Fprintln(s.out, text[:i])
		label = text[i+1:]
	}
	line, err := s.in.Prompt(label)
	if errors.Is(err, io.EOF) {
		return "", errQuit
	}
	return line, err
}

func (s *Session) fail(format string, args ...any) {
	_, _ = fmt.Fprintln(s.out, grid.Paint(s.styles.Red, fmt.Sprintf(format, args...)))
}

func (s *Session) success(format string, args ...any) {
	_, _ = fmt.Fprintln(s.out, grid.Paint(s.styles.Green, fmt.Sprintf(format, args...)))
}

// connect connects to the database named in the command ("d dbname"), or prompts
// for a name when response is empty. Returns whether a connection was made.
func (s *Session) connect(ctx context.Context, response string) (bool, error) {
	var database string
	if response == "" {
		name, err := s.ask("Enter a database name: ")
		if err != nil {
			return false, err
		}
		if database = strings.TrimSpace(name); database == "" {
			return false, nil
		}
	} else {
		m := connectPattern.FindStringSubmatch(response)
		if m == nil {
			return false, nil
		}
		database = m[1]
	}
	if _, err := s.conns.Connect(ctx, database); err != nil {
		s.fail("Error connecting to %s: %v", database, err)
		return false, nil
	}
	s.success("Connected to %s", database)
	return true, nil
}

func (s *Session) cmdExecute(ctx context.Context, response string) error {
	stmt, err := s.chooseStatement(response)
	if err != nil || stmt == nil {
		return err
	}
	params, err := s.parameterSettings(stmt)
	if err != nil || params == nil {
		return err
	}
	text, err := stmt.Expand(params)
	if err != nil {
		s.fail("Error generating SQL: %v", err)
		return nil
	}
	confirmed, err := s.confirm(stmt, text)
	if err != nil || !confirmed {
		return err
	}
	if s.conns.Current() == nil {
		_, _ = fmt.Fprintln(s.out, "You are not currently connected to a database.")
		ok, err := s.connect(ctx, "")
		if err != nil || !ok {
			return err
		}
	}
	s.execute(ctx, stmt, text)
	return nil
}

func (s *Session) chooseStatement(response string) (*sqldict.Statement, error) {
	pattern := ""
	if m := executePattern.FindStringSubmatch(response); m != nil {
		pattern = m[1]
	}
	stmts, err := sqldict.Find(pattern, s.cfg.SQLDir, sqldict.WarnFunc(func(source string, msg string) {
		_, _ = fmt.Fprintln(s.out, grid.Paint(s.styles.Warn, msg))
	}))
	if err != nil {
		if stmts == nil {
			s.fail("Error loading statements: %v", err)
			return nil, nil
		}
		log.Warn(log.CatShell, "Some statements not loaded", "dir", s.cfg.SQLDir, "error", err)
		_, _ = fmt.Fprintln(s.out, grid.Paint(s.styles.Warn, err.Error()))
	}
	switch len(stmts) {
	case 0:
		s.fail("No statements match '%s'", pattern)
		return nil, nil
	case 1:
		return stmts[0], nil
	}
	var sb strings.Builder
	sb.WriteString("\n" + s.styles.Header.Render(fmt.Sprintf("%d statements found:", len(stmts))))
	for i, stmt := range stmts {
		fmt.Fprintf(&sb, "\n   %-3d: %s  (%s)", i+1, stmt.Name(), stmt.SourceFile())
		if desc, ok := stmt.Description(); ok {
			for _, line := range strings.Split(desc, "\n") {
				sb.WriteString("\n        " + s.styles.Gray.Render(line))
			}
		}
	}
	sb.WriteString("\nEnter a statement number, or nothing to quit: ")
	for {
		response, err := s.ask(sb.String())
		if err != nil {
			return nil, err
		}
		if response == "" {
			return nil, nil
		}
		if n, err := strconv.Atoi(strings.TrimSpace(response)); err == nil && n >= 1 && n <= len(stmts) {
			return stmts[n-1], nil
		}
		s.fail("'%s' is not a valid statement number", response)
	}
}

// parameterSettings loops until every parameter is set, the user executes with the current
// values ('x') or cancels (nil result).
func (s *Session) parameterSettings(stmt *sqldict.Statement) ([]*sqldict.Parameter, error) {
	params := stmt.NewParameters()
	for {
		next, _ := sqldict.FirstUnset(params)
		if next == nil {
			return params, nil
		}
		var sb strings.Builder
		sb.WriteString("\n" + s.styles.Header.Render(fmt.Sprintf("%s takes %s:", stmt.Name(),
			s.plural.Pluralize("parameter", len(params), true))))
		for i, p := range params {
			fmt.Fprintf(&sb, "\n   %-2d: %s", i+1, p)
		}
		fmt.Fprintf(&sb, "\nEnter %s: a parameter number, 'x' to execute, or nothing to quit: ", s.styles.Green.Render(next.Name))
		response, err := s.ask(sb.String())
		if err != nil {
			return nil, err
		}
		switch {
		case response == "":
			return nil, nil
		case strings.TrimSpace(response) == "x":
			return params, nil
		}
		target, value := next, response
		if n, err := strconv.Atoi(strings.TrimSpace(response)); err == nil && n >= 1 && n <= len(params) {
			target = params[n-1]
			if value, err = s.ask(fmt.Sprintf("Enter a value for %s: ", target.Name)); err != nil {
				return nil, err
			}
		}
		if err := target.Assign(value); err != nil {
			s.fail("%v", err)
		}
	}
}

func (s *Session) confirm(stmt *sqldict.Statement, text string) (bool, error) {
	heading := "Ready to execute " + stmt.Name()
	if conn := s.conns.Current(); conn != nil {
		heading += " on " + conn.Database()
	}
	prompt := "\n" + s.styles.Header.Render(heading+":") + "\n\n" + grid.Paint(s.styles.Green, text) +
		"\n\nEnter 'y' to execute, nothing to quit: "
	for {
		response, err := s.ask(prompt)
		if err != nil {
			return false, err
		}
		switch strings.TrimSpace(response) {
		case "":
			return false, nil
		case "y":
			return true, nil
		}
	}
}

func (s *Session) execute(ctx context.Context, stmt *sqldict.Statement, text string) {
	conn := s.conns.Current()
	result, err := conn.Execute(ctx, text)
	if err != nil {
		s.fail("Error executing %s: %v", stmt.Name(), err)
		return
	}
	if len(result.Rows) > 0 {
		_ = grid.Print(s.out, result.Rows, s.styles)
	}
	s.success("%s", result.Summary())
}

func (s *Session) cmdConfig() error {
	var sb strings.Builder
	sb.WriteString("\n" + s.styles.Header.Render("Current config settings are:"))
	for _, f := range config.Fields(s.cfg) {
		fmt.Fprintf(&sb, "\n  %s = %s", f.Key, displayValue(f))
	}
	sb.WriteString("\nEnter 'm' to modify these settings: ")
	response, err := s.ask(sb.String())
	if err != nil || strings.TrimSpace(response) != "m" {
		return err
	}
	next := s.cfg
	for i, f := range config.Fields(s.cfg) {
		for {
			current := displayValue(config.Fields(next)[i])
			response, err := s.ask(fmt.Sprintf("%s (currently %s) : ", f.Key, current))
			if err != nil {
				return err
			}
			if response = strings.TrimSpace(response); response == "" {
				break
			}
			if err := config.Set(&next, f.Key, response); err != nil {
				s.fail("%s is not a valid value for %s: %v", response, f.Key, err)
				continue
			}
			break
		}
	}
	s.cfg = next
	s.conns.SetConfig(next)
	if s.configPath != "" {
		if err := config.Save(s.configPath, next); err != nil {
			s.fail("Error saving config: %v", err)
		}
	}
	return nil
}

func displayValue(f config.Field) string {
	if f.Key == "password" && f.Value != "" {
		return "********"
	}
	if f.Value == "" {
		return "None"
	}
	return f.Value
}
