package dbconn

import (
	"time"

	"github.com/go-andiamo/sqldict/internal/log"
	"github.com/google/uuid"
)

// EventKind identifies what happened to an execution.
type EventKind int

const (
	EventExecute EventKind = iota + 1
	EventCommit
	EventRollback
)

func (k EventKind) String() string {
	switch k {
	case EventExecute:
		return "execute"
	case EventCommit:
		return "commit"
	case EventRollback:
		return "rollback"
	}
	return "unknown"
}

// Event describes one step of a statement execution.
type Event struct {
	Handle       uuid.UUID
	Kind         EventKind
	Database     string
	Statement    string
	Elapsed      time.Duration
	RowsAffected int64
	RowsReturned int
	Err          error
}

// Observer receives execution events. OnEvent is called synchronously.
type Observer interface {
	OnEvent(e Event)
}

// ObserverFunc adapts a func to an Observer.
type ObserverFunc func(e Event)

func (f ObserverFunc) OnEvent(e Event) {
	f(e)
}

// AuditObserver records every execution event in the log.
type AuditObserver struct{}

func (AuditObserver) OnEvent(e Event) {
	fields := []any{
		"event", e.Kind,
		"handle", e.Handle,
		"database", e.Database,
		"elapsed", e.Elapsed,
	}
	if e.Kind == EventExecute {
		fields = append(fields, "rows_affected", e.RowsAffected, "rows_returned", e.RowsReturned, "statement", e.Statement)
	}
	if e.Err != nil {
		log.ErrorErr(log.CatDB, "audit", e.Err, fields...)
		return
	}
	log.Info(log.CatDB, "audit", fields...)
}
