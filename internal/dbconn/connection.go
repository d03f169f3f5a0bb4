package dbconn

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-andiamo/sqldict/internal/log"
	"github.com/google/uuid"
)

var ErrNotConnected = errors.New("not connected")

// rowKeywords are the leading keywords of statements that return rows.
var rowKeywords = map[string]bool{
	"SELECT":   true,
	"WITH":     true,
	"SHOW":     true,
	"DESCRIBE": true,
	"DESC":     true,
	"EXPLAIN":  true,
	"PRAGMA":   true,
	"VALUES":   true,
	"TABLE":    true,
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Connection is an open connection to one named database.
type Connection struct {
	db         *sql.DB
	driver     string
	dsn        string
	database   string
	autocommit bool
	observers  []Observer
}

// Database returns the database name the connection was opened for.
func (c *Connection) Database() string {
	return c.database
}

// Driver returns the database/sql driver name.
func (c *Connection) Driver() string {
	return c.driver
}

// DSN returns the dsn with any password masked.
func (c *Connection) DSN() string {
	return SanitizeDSN(c.dsn)
}

// Autocommit reports whether statements are committed as they execute.
func (c *Connection) Autocommit() bool {
	return c.autocommit
}

// Execute runs the expanded statement text.
// When autocommit is off the statement runs in a transaction that is rolled back.
func (c *Connection) Execute(ctx context.Context, text string) (*Result, error) {
	if c.autocommit {
		return c.execute(ctx, text, nil, false)
	}
	return c.ExecuteTx(ctx, text, false)
}

// ExecuteTx runs the statement in a transaction, committing it when commit is true
// and rolling it back otherwise.
func (c *Connection) ExecuteTx(ctx context.Context, text string, commit bool) (*Result, error) {
	if c.db == nil {
		return nil, ErrNotConnected
	}
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return c.execute(ctx, text, tx, commit)
}

func (c *Connection) execute(ctx context.Context, text string, tx *sql.Tx, commit bool) (*Result, error) {
	if c.db == nil {
		return nil, ErrNotConnected
	}
	var q queryer = c.db
	if tx != nil {
		q = tx
	}
	result := &Result{Handle: uuid.New()}
	start := time.Now()
	var err error
	if ReturnsRows(text) {
		err = scanRows(ctx, q, text, result)
	} else {
		var res sql.Result
		if res, err = q.ExecContext(ctx, text); err == nil {
			// drivers that cannot report a count leave it at zero
			result.RowsAffected, _ = res.RowsAffected()
		}
	}
	result.Elapsed = time.Since(start)
	c.notify(Event{
		Handle:       result.Handle,
		Kind:         EventExecute,
		Database:     c.database,
		Statement:    text,
		Elapsed:      result.Elapsed,
		RowsAffected: result.RowsAffected,
		RowsReturned: result.RowsReturned,
		Err:          err,
	})
	if tx != nil {
		if txErr := c.finish(tx, result, commit && err == nil); txErr != nil && err == nil {
			err = txErr
		}
	}
	if err != nil {
		log.ErrorErr(log.CatDB, "Statement failed", err, "database", c.database, "handle", result.Handle)
		return nil, err
	}
	log.Debug(log.CatDB, "Statement executed", "database", c.database, "handle", result.Handle,
		"elapsed", result.Elapsed, "rows_affected", result.RowsAffected, "rows_returned", result.RowsReturned)
	return result, nil
}

func (c *Connection) finish(tx *sql.Tx, result *Result, commit bool) error {
	start := time.Now()
	kind := EventRollback
	var err error
	if commit {
		kind = EventCommit
		err = tx.Commit()
	} else {
		err = tx.Rollback()
		result.RolledBack = err == nil
	}
	c.notify(Event{
		Handle:   result.Handle,
		Kind:     kind,
		Database: c.database,
		Elapsed:  time.Since(start),
		Err:      err,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", kind, err)
	}
	return nil
}

func (c *Connection) notify(e Event) {
	for _, o := range c.observers {
		o.OnEvent(e)
	}
}

// Close closes the underlying database handle.
func (c *Connection) Close() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

func scanRows(ctx context.Context, q queryer, text string, result *Result) error {
	rows, err := q.QueryContext(ctx, text)
	if err != nil {
		return err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("reading columns: %w", err)
	}
	header := make([]any, len(columns))
	for i, col := range columns {
		header[i] = col
	}
	dbTypes := make([]string, len(columns))
	if types, err := rows.ColumnTypes(); err == nil && len(types) == len(columns) {
		for i, ct := range types {
			dbTypes[i] = strings.ToUpper(ct.DatabaseTypeName())
		}
	}
	result.Rows = append(result.Rows, header)

	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("scanning row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = typedText(string(b), dbTypes[i])
			}
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	result.RowsReturned = len(result.Rows) - 1
	return nil
}

// typedText converts the text form of numeric columns (as sent by text protocol drivers)
// to a number. DECIMAL values become json.Number so no precision is lost.
func typedText(s string, dbType string) any {
	switch dbType {
	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "INTEGER", "BIGINT", "INT2", "INT4", "INT8",
		"UNSIGNED TINYINT", "UNSIGNED SMALLINT", "UNSIGNED MEDIUMINT", "UNSIGNED INT", "UNSIGNED BIGINT":
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i
		}
	case "FLOAT", "DOUBLE", "REAL", "FLOAT4", "FLOAT8":
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	case "DECIMAL", "NUMERIC":
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			return json.Number(s)
		}
	}
	return s
}

// ReturnsRows reports whether the statement is expected to return rows, judged by its
// leading keyword (comments and opening parentheses are skipped) or a RETURNING clause.
func ReturnsRows(text string) bool {
	kw := leadingKeyword(text)
	if rowKeywords[kw] {
		return true
	}
	for _, f := range strings.FieldsFunc(strings.ToUpper(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '_'
	}) {
		if f == "RETURNING" {
			return true
		}
	}
	return false
}

func leadingKeyword(text string) string {
	s := text
	for {
		s = strings.TrimLeftFunc(s, func(r rune) bool {
			return unicode.IsSpace(r) || r == '('
		})
		switch {
		case strings.HasPrefix(s, "--"):
			if i := strings.IndexByte(s, '\n'); i >= 0 {
				s = s[i+1:]
				continue
			}
			return ""
		case strings.HasPrefix(s, "/*"):
			if i := strings.Index(s, "*/"); i >= 0 {
				s = s[i+2:]
				continue
			}
			return ""
		}
		end := strings.IndexFunc(s, func(r rune) bool {
			return !unicode.IsLetter(r)
		})
		if end == -1 {
			end = len(s)
		}
		return strings.ToUpper(s[:end])
	}
}
