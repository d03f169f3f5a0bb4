// Package config provides configuration types, defaults, and persistence for sqldict.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/go-andiamo/sqldict/internal/log"
	"github.com/spf13/viper"
)

// Config holds the connection and source settings used by the explorer.
type Config struct {
	Driver     string `mapstructure:"driver"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Autocommit bool   `mapstructure:"autocommit"`
	SQLDir     string `mapstructure:"sql_dir"`
	DSN        string `mapstructure:"dsn"` // overrides the driver/user/host/port dsn when set
}

// Keys lists the configuration keys in display order.
var Keys = []string{"driver", "user", "password", "host", "port", "autocommit", "sql_dir", "dsn"}

// Drivers lists the supported driver names.
var Drivers = []string{"mysql", "postgres", "sqlite", "duckdb"}

// Field is one configuration key with its current value formatted for display.
type Field struct {
	Key   string
	Value string
}

// Defaults returns a Config with the default values.
func Defaults() Config {
	return Config{
		Driver:     "mysql",
		User:       "root",
		Host:       "127.0.0.1",
		Port:       3306,
		Autocommit: true,
		SQLDir:     "../sql",
	}
}

// SetDefaults registers the default values with v.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("driver", d.Driver)
	v.SetDefault("user", d.User)
	v.SetDefault("password", d.Password)
	v.SetDefault("host", d.Host)
	v.SetDefault("port", d.Port)
	v.SetDefault("autocommit", d.Autocommit)
	v.SetDefault("sql_dir", d.SQLDir)
	v.SetDefault("dsn", d.DSN)
}

// Load unmarshals and validates the configuration held by v.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	log.Debug(log.CatConfig, "Loaded config", "file", v.ConfigFileUsed(), "driver", cfg.Driver, "sql_dir", cfg.SQLDir)
	return cfg, nil
}

// Validate checks the configuration for unsupported values.
func Validate(cfg Config) error {
	if !slices.Contains(Drivers, cfg.Driver) {
		return fmt.Errorf("driver: unsupported driver %q (expected one of %s)", cfg.Driver, strings.Join(Drivers, ", "))
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("port: %d out of range", cfg.Port)
	}
	return nil
}

// Fields returns the configuration as key/value pairs in display order.
func Fields(cfg Config) []Field {
	return []Field{
		{Key: "driver", Value: cfg.Driver},
		{Key: "user", Value: cfg.User},
		{Key: "password", Value: cfg.Password},
		{Key: "host", Value: cfg.Host},
		{Key: "port", Value: strconv.Itoa(cfg.Port)},
		{Key: "autocommit", Value: strconv.FormatBool(cfg.Autocommit)},
		{Key: "sql_dir", Value: cfg.SQLDir},
		{Key: "dsn", Value: cfg.DSN},
	}
}

// Set assigns raw input to the named key, coercing it to the key's type.
// Bool keys are true when the input starts with "t" (so "t", "true" and "True" all enable).
func Set(cfg *Config, key string, raw string) error {
	next := *cfg
	switch key {
	case "driver":
		next.Driver = raw
	case "user":
		next.User = raw
	case "password":
		next.Password = raw
	case "host":
		next.Host = raw
	case "port":
		port, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("port: %q is not an integer", raw)
		}
		next.Port = port
	case "autocommit":
		next.Autocommit = strings.HasPrefix(strings.ToLower(strings.TrimSpace(raw)), "t")
	case "sql_dir":
		next.SQLDir = raw
	case "dsn":
		next.DSN = raw
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	if err := Validate(next); err != nil {
		return err
	}
	*cfg = next
	return nil
}

// DefaultConfigPath returns the user config file path (~/.config/sqldict/config.yaml).
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "sqldict", "config.yaml")
	}
	return filepath.Join(home, ".config", "sqldict", "config.yaml")
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# sqldict configuration

# Database driver: mysql, postgres, sqlite or duckdb
driver: mysql

# Connection settings (ignored by sqlite/duckdb, which use the database name as a file path)
user: root
password: ""
host: 127.0.0.1
port: 3306

# When false, statements run in a transaction that is rolled back
autocommit: true

# Directory holding the json statement sources
sql_dir: ../sql

# Full driver dsn, overrides the settings above when set
# dsn: "root:secret@tcp(db.internal:3306)/employees"
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
