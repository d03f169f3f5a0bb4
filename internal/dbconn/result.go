package dbconn

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Result is the outcome of executing one statement.
//
// For row returning statements Rows[0] holds the column names and the data rows follow;
// RowsReturned counts the data rows only. For other statements Rows is empty and
// RowsAffected holds the driver reported count.
type Result struct {
	Handle       uuid.UUID
	RowsReturned int
	RowsAffected int64
	Rows         [][]any
	Elapsed      time.Duration
	// RolledBack is set when the statement ran in a transaction that was rolled back.
	RolledBack bool
}

// Summary returns the timing line shown after execution.
func (r *Result) Summary() string {
	s := fmt.Sprintf("%.3f sec. Rows affected %d, rows returned %d", r.Elapsed.Seconds(), r.RowsAffected, r.RowsReturned)
	if r.RolledBack {
		s += " (rolled back, autocommit is off)"
	}
	return s
}

// Columns returns the column names (nil for statements that return no rows).
func (r *Result) Columns() []string {
	if len(r.Rows) == 0 {
		return nil
	}
	cols := make([]string, len(r.Rows[0]))
	for i, c := range r.Rows[0] {
		cols[i] = fmt.Sprint(c)
	}
	return cols
}

// Data returns the data rows, without the header.
func (r *Result) Data() [][]any {
	if len(r.Rows) < 2 {
		return nil
	}
	return r.Rows[1:]
}

// AssertRowsAffected returns an error unless exactly n rows were affected.
func (r *Result) AssertRowsAffected(n int64) error {
	if r.RowsAffected != n {
		return fmt.Errorf("expected %d rows affected, got %d", n, r.RowsAffected)
	}
	return nil
}

// AssertRowsReturned returns an error unless exactly n rows were returned.
func (r *Result) AssertRowsReturned(n int) error {
	if r.RowsReturned != n {
		return fmt.Errorf("expected %d rows returned, got %d", n, r.RowsReturned)
	}
	return nil
}
