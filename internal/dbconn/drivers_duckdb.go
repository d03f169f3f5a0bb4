//go:build duckdb

package dbconn

import (
	_ "github.com/marcboeker/go-duckdb" // driver name "duckdb"
)

func init() {
	duckdbEnabled = true
}
