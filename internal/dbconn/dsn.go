package dbconn

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-andiamo/sqldict/internal/config"
	"github.com/go-sql-driver/mysql"
)

const defaultPostgresPort = 5432

// ResolveDSN returns the database/sql driver name and dsn for connecting to the named database.
// An explicit cfg.DSN is used as is; sqlite and duckdb treat the database name as a file path.
func ResolveDSN(cfg config.Config, database string) (driverName string, dsn string, err error) {
	drv := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if drv == "" {
		drv = "mysql"
	}
	if drv == "duckdb" && !duckdbEnabled {
		return "", "", fmt.Errorf("duckdb support not compiled in (build with -tags duckdb)")
	}
	if cfg.DSN != "" {
		if name := mapDriver(drv); name != "" {
			return name, cfg.DSN, nil
		}
		return "", "", fmt.Errorf("unsupported driver: %s", drv)
	}

	switch drv {
	case "mysql":
		mc := mysql.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(defaultIfEmpty(cfg.Host, "127.0.0.1"), strconv.Itoa(cfg.Port))
		mc.DBName = database
		return "mysql", mc.FormatDSN(), nil
	case "postgres":
		port := cfg.Port
		if port == 0 {
			port = defaultPostgresPort
		}
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(cfg.User, cfg.Password),
			Host:     net.JoinHostPort(defaultIfEmpty(cfg.Host, "127.0.0.1"), strconv.Itoa(port)),
			Path:     "/" + database,
			RawQuery: "sslmode=disable",
		}
		return "pgx", u.String(), nil
	case "sqlite":
		return "sqlite", defaultIfEmpty(database, ":memory:"), nil
	case "duckdb":
		return "duckdb", database, nil
	default:
		return "", "", fmt.Errorf("unsupported driver: %s", drv)
	}
}

func mapDriver(d string) string {
	switch d {
	case "postgres":
		return "pgx"
	case "mysql", "sqlite", "duckdb":
		return d
	}
	return ""
}

func defaultIfEmpty(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// SanitizeDSN masks the password in a dsn for display.
func SanitizeDSN(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.Scheme != "" && u.User != nil {
		return u.Redacted()
	}
	if mc, err := mysql.ParseDSN(dsn); err == nil && mc.Passwd != "" {
		mc.Passwd = "xxxxx"
		return mc.FormatDSN()
	}
	return dsn
}
