package main

import (
	"fmt"
	"strings"

	"github.com/go-andiamo/sqldict"
	"github.com/go-andiamo/sqldict/internal/grid"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"
)

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show a statement's text and parameters",
		Long: `Show the definition of the named statement: source file, description, template
text and declared parameters. A name defined in more than one source shows every definition.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry(cmd)
			if err != nil {
				return err
			}
			stmts, err := reg.Get(args[0])
			if len(stmts) == 0 {
				if err != nil {
					return err
				}
				return fmt.Errorf("statement %q not found", args[0])
			}
			out := cmd.OutOrStdout()
			styles := a.styles(out)
			for i, stmt := range stmts {
				if i > 0 {
					_, _ = fmt.Fprintln(out)
				}
				_, _ = fmt.Fprintf(out, "%s  (%s)\n", styles.Header.Render(stmt.Name()), stmt.SourceFile())
				if desc, ok := stmt.Description(); ok {
					for _, line := range strings.Split(wordwrap.String(desc, descriptionWrap), "\n") {
						_, _ = fmt.Fprintln(out, "    "+styles.Gray.Render(line))
					}
				}
				_, _ = fmt.Fprintln(out)
				for _, line := range strings.Split(stmt.Text(), "\n") {
					_, _ = fmt.Fprintln(out, "    "+line)
				}
				if decls := stmt.Declarations(); len(decls) > 0 {
					_ = grid.Print(out, declarationRows(decls), styles)
				}
			}
			return nil
		},
	}
}

const descriptionWrap = 76

func declarationRows(decls []sqldict.ParameterDeclaration) [][]any {
	rows := [][]any{{"parameter", "param_type", "data_type", "regex", "description"}}
	for _, d := range decls {
		rows = append(rows, []any{d.Name, d.ParamType.String(), d.DataType.String(), d.Regex, d.Description})
	}
	return rows
}
