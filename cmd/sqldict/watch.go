package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-andiamo/sqldict/internal/watcher"
	"github.com/spf13/cobra"
)

func newWatchCmd(a *app) *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch [pattern]",
		Short: "List matching statements again whenever a source changes",
		Long: `Watch the sql_dir for changes to statement sources and, after each change,
report the statements matching pattern that were added, removed or changed,
then list them again. Runs until interrupted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry(cmd)
			if err != nil {
				return err
			}
			cfg := watcher.DefaultConfig(a.cfg.SQLDir)
			cfg.DebounceDur = debounce
			w, err := watcher.New(cfg)
			if err != nil {
				return err
			}
			changes, err := w.Start()
			if err != nil {
				return err
			}
			defer func() {
				_ = w.Stop()
			}()

			pattern := optionalArg(args)
			out := cmd.OutOrStdout()
			styles := a.styles(out)
			var last map[string]string
			list := func() {
				stmts, err := reg.Find(pattern)
				if err != nil {
					cmd.PrintErrln(err)
				}
				if stmts == nil {
					return
				}
				current := snapshot(stmts)
				if last != nil {
					report := describeChanges(last, current, styles)
					if len(report) == 0 {
						report = []string{"  no statement changes"}
					}
					_, _ = fmt.Fprintln(out, strings.Join(report, "\n"))
				}
				last = current
				printStatements(out, stmts, pattern, styles)
			}
			list()
			for {
				select {
				case <-cmd.Context().Done():
					return nil
				case <-changes:
					_, _ = fmt.Fprintf(out, "\n%s\n", styles.Header.Render("Sources changed "+time.Now().Format(time.TimeOnly)))
					list()
				}
			}
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", watcher.DefaultConfig("").DebounceDur, "quiet period before listing again")
	return cmd
}
