package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-andiamo/sqldict"
	"github.com/go-andiamo/sqldict/internal/config"
	"github.com/go-andiamo/sqldict/internal/dbconn"
	"github.com/go-andiamo/sqldict/internal/grid"
	"github.com/go-andiamo/sqldict/internal/log"
	"github.com/go-andiamo/sqldict/internal/shell"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const localConfigFile = ".sqldict.yaml"

// app holds the state of one command invocation.
type app struct {
	cfgFile    string
	debug      bool
	logFile    string
	noColor    bool
	setup      bool
	cfg        config.Config
	configPath string
	closeLog   func()
	// opener and prompter replace sql.Open and the terminal (tests)
	opener   dbconn.Opener
	prompter shell.Prompter
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "sqldict",
		Short: "Explore and execute the statements of a SQL dictionary",
		Long: `sqldict reads named, parameterized SQL statements from the json sources in a
directory (sql_dir) and lets you pick one, supply its parameters and execute it.

Without a subcommand an interactive session is started.`,
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: a.initialize,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.closeLog != nil {
				a.closeLog()
				a.closeLog = nil
			}
		},
		RunE: a.runShell,
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&a.cfgFile, "config", "c", "",
		"config file (default: ./"+localConfigFile+", then ~/.config/sqldict/config.yaml)")
	pf.BoolVar(&a.debug, "debug", false, "log debug messages (to stderr unless --log-file is given)")
	pf.StringVar(&a.logFile, "log-file", "", "append log messages to this file")
	pf.BoolVar(&a.noColor, "no-color", false, "disable coloured output")
	pf.String("sql-dir", "", "directory containing the statement sources (overrides sql_dir)")
	pf.String("driver", "", "database driver: "+strings.Join(config.Drivers, ", ")+" (overrides driver)")
	root.Flags().BoolVar(&a.setup, "setup", false, "show the config settings, offering to modify them, before starting")

	root.AddCommand(
		newListCmd(a),
		newShowCmd(a),
		newRenderCmd(a),
		newExecCmd(a),
		newWatchCmd(a),
		newConfigCmd(a),
	)
	return root
}

func (a *app) initialize(cmd *cobra.Command, args []string) error {
	if err := a.initLogging(cmd); err != nil {
		return err
	}
	return a.initConfig(cmd)
}

func (a *app) initLogging(cmd *cobra.Command) error {
	switch {
	case a.logFile != "":
		closeLog, err := log.Init(a.logFile)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		a.closeLog = closeLog
	case a.debug:
		log.SetOutput(cmd.ErrOrStderr())
	default:
		return nil
	}
	if a.debug {
		log.SetMinLevel(log.LevelDebug)
	} else {
		log.SetMinLevel(log.LevelInfo)
	}
	return nil
}

func (a *app) logging() bool {
	return a.debug || a.logFile != ""
}

func (a *app) initConfig(cmd *cobra.Command) error {
	v := viper.New()
	config.SetDefaults(v)
	v.SetEnvPrefix("SQLDICT")
	v.AutomaticEnv()
	_ = v.BindPFlag("sql_dir", cmd.Flags().Lookup("sql-dir"))
	_ = v.BindPFlag("driver", cmd.Flags().Lookup("driver"))

	// Config lookup order:
	// 1. --config
	// 2. ./.sqldict.yaml
	// 3. ~/.config/sqldict/config.yaml (written with defaults when missing)
	path := a.cfgFile
	if path == "" {
		if _, err := os.Stat(localConfigFile); err == nil {
			path = localConfigFile
		} else {
			path = config.DefaultConfigPath()
			if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
				if err := config.WriteDefaultConfig(path); err != nil {
					log.Warn(log.CatConfig, "Default config not written", "path", path, "error", err)
				}
			}
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("reading config %s: %w", path, err)
		}
		log.Debug(log.CatConfig, "No config file, using defaults", "path", path)
	}
	a.configPath = path

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

func (a *app) styles(w io.Writer) grid.Styles {
	if a.noColor {
		return grid.Plain()
	}
	return grid.NewStyles(w, nil)
}

func (a *app) connections() *dbconn.Registry {
	options := make([]dbconn.Option, 0, 2)
	if a.opener != nil {
		options = append(options, dbconn.WithOpener(a.opener))
	}
	if a.logging() {
		options = append(options, dbconn.WithObserver(dbconn.AuditObserver{}))
	}
	return dbconn.NewRegistry(a.cfg, options...)
}

func (a *app) terminal() (shell.Prompter, func(), error) {
	if a.prompter != nil {
		return a.prompter, func() {}, nil
	}
	history := filepath.Join(filepath.Dir(config.DefaultConfigPath()), "history")
	p, err := shell.NewReadlinePrompter(history)
	if err != nil {
		return nil, nil, fmt.Errorf("starting terminal: %w", err)
	}
	return p, func() { _ = p.Close() }, nil
}

// registry creates a statement registry whose skip warnings go to stderr.
func (a *app) registry(cmd *cobra.Command) (*sqldict.Registry, error) {
	return sqldict.NewRegistry(a.cfg.SQLDir, sqldict.WarnFunc(func(source string, msg string) {
		cmd.PrintErrln(msg)
	}))
}

func (a *app) runShell(cmd *cobra.Command, args []string) error {
	p, closeTerminal, err := a.terminal()
	if err != nil {
		return err
	}
	defer closeTerminal()
	conns := a.connections()
	defer func() {
		_ = conns.Close()
	}()
	out := cmd.OutOrStdout()
	s := shell.New(a.cfg, conns, p,
		shell.WithOutput(out),
		shell.WithStyles(a.styles(out)),
		shell.WithConfigPath(a.configPath),
		shell.WithConfigPrompt(a.setup),
	)
	return s.Run(cmd.Context())
}
