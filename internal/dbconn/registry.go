package dbconn

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/go-andiamo/sqldict/internal/config"
	"github.com/go-andiamo/sqldict/internal/log"
)

// Opener opens a database handle for a driver name and dsn (sql.Open by default).
type Opener func(driverName string, dsn string) (*sql.DB, error)

// Option configures a Registry.
type Option func(r *Registry)

// WithOpener replaces sql.Open (tests pass a sqlmock opener).
func WithOpener(opener Opener) Option {
	return func(r *Registry) {
		r.opener = opener
	}
}

// WithObserver adds an observer that receives the events of every connection.
func WithObserver(o Observer) Option {
	return func(r *Registry) {
		r.observers = append(r.observers, o)
	}
}

// Registry caches one connection per database name and tracks the current one.
type Registry struct {
	mu        sync.Mutex
	cfg       config.Config
	opener    Opener
	observers []Observer
	conns     map[string]*Connection
	current   *Connection
}

// NewRegistry creates a connection registry for the given configuration.
func NewRegistry(cfg config.Config, options ...Option) *Registry {
	r := &Registry{
		cfg:    cfg,
		opener: sql.Open,
		conns:  map[string]*Connection{},
	}
	for _, o := range options {
		o(r)
	}
	return r
}

// SetConfig replaces the configuration used for connections opened from now on.
func (r *Registry) SetConfig(cfg config.Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg = cfg
}

// Connect returns the cached connection for database, opening it if needed, and makes it current.
func (r *Registry) Connect(ctx context.Context, database string) (*Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if conn, ok := r.conns[database]; ok {
		r.current = conn
		return conn, nil
	}
	driverName, dsn, err := ResolveDSN(r.cfg, database)
	if err != nil {
		return nil, err
	}
	db, err := r.opener(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", database, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		log.ErrorErr(log.CatDB, "Connect failed", err, "database", database, "dsn", SanitizeDSN(dsn))
		return nil, fmt.Errorf("connect %s: %w", database, err)
	}
	conn := &Connection{
		db:         db,
		driver:     driverName,
		dsn:        dsn,
		database:   database,
		autocommit: r.cfg.Autocommit,
		observers:  r.observers,
	}
	r.conns[database] = conn
	r.current = conn
	log.Info(log.CatDB, "Connected", "database", database, "driver", driverName, "dsn", SanitizeDSN(dsn))
	return conn, nil
}

// Current returns the most recently connected connection, or nil.
func (r *Registry) Current() *Connection {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Databases returns the names of the cached connections, sorted.
func (r *Registry) Databases() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.conns))
	for name := range r.conns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close closes every cached connection.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	errs := make([]error, 0)
	for name, conn := range r.conns {
		if err := conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}
	r.conns = map[string]*Connection{}
	r.current = nil
	return errors.Join(errs...)
}
