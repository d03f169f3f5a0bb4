package main

import (
	"fmt"
	"strings"

	"github.com/go-andiamo/sqldict"
	"github.com/spf13/cobra"
)

func newRenderCmd(a *app) *cobra.Command {
	var params []string
	cmd := &cobra.Command{
		Use:   "render <name>",
		Short: "Print a statement's text with parameter values plugged in",
		Long: `Assign the given parameter values to the named statement and print the
expanded statement text. Nothing is executed.

Examples:
  sqldict render employee_by_number --param emp_no=10001
  sqldict render employees_hired_since -p since=1999-01-01 -p n=10`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, text, err := a.expand(cmd, args[0], params)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "parameter value as name=value (repeatable)")
	return cmd
}

// statement returns the single definition of name.
func (a *app) statement(cmd *cobra.Command, name string) (*sqldict.Statement, error) {
	reg, err := a.registry(cmd)
	if err != nil {
		return nil, err
	}
	stmts, err := reg.Get(name)
	switch len(stmts) {
	case 0:
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("statement %q not found", name)
	case 1:
		return stmts[0], nil
	}
	return nil, fmt.Errorf("statement %q is defined in %d sources", name, len(stmts))
}

// expand assigns the name=value params to the named statement and expands it.
// Parameters left unset are reported on stderr.
func (a *app) expand(cmd *cobra.Command, name string, params []string) (*sqldict.Statement, string, error) {
	stmt, err := a.statement(cmd, name)
	if err != nil {
		return nil, "", err
	}
	values, err := parseParams(params)
	if err != nil {
		return nil, "", err
	}
	instances := stmt.NewParameters()
	if err := sqldict.AssignAll(instances, values); err != nil {
		return nil, "", err
	}
	for _, p := range instances {
		if !p.IsSet() {
			cmd.PrintErrf("parameter %s is not set\n", p.Name)
		}
	}
	text, err := stmt.Expand(instances)
	if err != nil {
		return nil, "", err
	}
	return stmt, text, nil
}

func parseParams(params []string) (map[string]string, error) {
	result := make(map[string]string, len(params))
	for _, p := range params {
		name, value, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid parameter %q (expected name=value)", p)
		}
		result[strings.TrimSpace(name)] = value
	}
	return result, nil
}
