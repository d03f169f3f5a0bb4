package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-andiamo/sqldict/internal/dbconn"
	"github.com/go-andiamo/sqldict/internal/grid"
	"github.com/spf13/cobra"
)

func newExecCmd(a *app) *cobra.Command {
	var (
		params   []string
		database string
		yes      bool
		commit   bool
	)
	cmd := &cobra.Command{
		Use:   "exec <name>",
		Short: "Execute a statement against a database",
		Long: `Assign the given parameter values to the named statement, show the expanded
text and, once confirmed, execute it against the database.

With autocommit off the statement runs in a transaction that is rolled back,
unless --commit is given.

Examples:
  sqldict exec employee_by_number -p emp_no=10001 --db employees
  sqldict exec purge_departments --db scratch --yes --commit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stmt, text, err := a.expand(cmd, args[0], params)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			styles := a.styles(out)
			if !yes {
				_, _ = fmt.Fprintf(out, "%s\n\n%s\n\n", styles.Header.Render("Ready to execute "+stmt.Name()+" on "+database+":"), text)
				ok, err := a.confirm()
				if err != nil {
					return err
				}
				if !ok {
					_, _ = fmt.Fprintln(out, "Not executed")
					return nil
				}
			}
			conns := a.connections()
			defer func() {
				_ = conns.Close()
			}()
			conn, err := conns.Connect(cmd.Context(), database)
			if err != nil {
				return err
			}
			var result *dbconn.Result
			if commit {
				result, err = conn.ExecuteTx(cmd.Context(), text, true)
			} else {
				result, err = conn.Execute(cmd.Context(), text)
			}
			if err != nil {
				return fmt.Errorf("executing %s: %w", stmt.Name(), err)
			}
			printResult(out, result, styles)
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "parameter value as name=value (repeatable)")
	cmd.Flags().StringVar(&database, "db", "", "database name (file path for sqlite and duckdb)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "execute without asking for confirmation")
	cmd.Flags().BoolVar(&commit, "commit", false, "commit the statement even when autocommit is off")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}

func (a *app) confirm() (bool, error) {
	p, closeTerminal, err := a.terminal()
	if err != nil {
		return false, err
	}
	defer closeTerminal()
	response, err := p.Prompt("Enter 'y' to execute, nothing to quit: ")
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	return strings.TrimSpace(response) == "y", nil
}

func printResult(w io.Writer, result *dbconn.Result, styles grid.Styles) {
	if len(result.Rows) > 0 {
		_ = grid.Print(w, result.Rows, styles)
	}
	_, _ = fmt.Fprintln(w, styles.Green.Render(result.Summary()))
}
