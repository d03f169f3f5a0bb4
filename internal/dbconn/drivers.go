package dbconn

import (
	_ "github.com/jackc/pgx/v5/stdlib" // driver name "pgx" (postgres)
	_ "modernc.org/sqlite"             // driver name "sqlite"
)

// duckdbEnabled is set when the binary is built with the duckdb tag (go-duckdb needs cgo).
var duckdbEnabled = false
