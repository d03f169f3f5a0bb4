package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-andiamo/sqldict"
	"github.com/go-andiamo/sqldict/internal/grid"
	"github.com/muesli/reflow/truncate"
	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list [pattern]",
		Short: "List the statements whose name matches a pattern",
		Long: `List the statements whose name contains a match of the regular expression
pattern (all statements when omitted), sorted by name.

Examples:
  sqldict list
  sqldict list employee
  sqldict list '^dept_'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry(cmd)
			if err != nil {
				return err
			}
			pattern := optionalArg(args)
			stmts, err := reg.Find(pattern)
			if stmts == nil {
				return err
			}
			if err != nil {
				cmd.PrintErrln(err)
			}
			out := cmd.OutOrStdout()
			printStatements(out, stmts, pattern, a.styles(out))
			return nil
		},
	}
}

const maxDescriptionWidth = 60

func optionalArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func printStatements(w io.Writer, stmts []*sqldict.Statement, pattern string, styles grid.Styles) {
	if len(stmts) == 0 {
		_, _ = fmt.Fprintf(w, "No statements match '%s'\n", pattern)
		return
	}
	rows := [][]any{{"name", "source", "parameters", "description"}}
	for _, stmt := range stmts {
		desc, _ := stmt.Description()
		desc, _, _ = strings.Cut(desc, "\n")
		desc = truncate.StringWithTail(desc, maxDescriptionWidth, "...")
		decls := stmt.Declarations()
		params := make([]string, len(decls))
		for i, d := range decls {
			params[i] = d.Name
		}
		rows = append(rows, []any{stmt.Name(), stmt.SourceFile(), strings.Join(params, ", "), desc})
	}
	_ = grid.Print(w, rows, styles)
}
