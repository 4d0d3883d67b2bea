// Package database builds the Postgres access handles used by the service.
//
// Open never touches the network: the returned handle resolves its endpoint
// and connection string on first use, so a missing or malformed DATABASE_URL
// shows up as an error from the first query instead of at startup.
package database

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/jmoiron/sqlx"
)

// DB pairs the raw SQL handle with its sqlx query binding.
// Both share one lifetime; closing either closes both.
type DB struct {
	SQL   *sql.DB
	Query *sqlx.DB

	config Config
}

// Option customizes the HTTP transport of a handle.
type Option func(*httpConnector)

// WithHTTPClient replaces the client used to reach the SQL endpoint.
func WithHTTPClient(client *http.Client) Option {
	return func(c *httpConnector) {
		if client != nil {
			c.client = client
		}
	}
}

// Open constructs a lazy handle over the SQL-over-HTTP transport.
// cfg is copied; it must be fully resolved before the call.
func Open(cfg Config, connString string, opts ...Option) *DB {
	connector := newHTTPConnector(cfg, connString)
	for _, opt := range opts {
		if opt != nil {
			opt(connector)
		}
	}

	sqlDB := sql.OpenDB(connector)
	return &DB{
		SQL:    sqlDB,
		Query:  sqlx.NewDb(sqlDB, "postgres"),
		config: cfg,
	}
}

// Config returns the settings the handle was built with.
func (db *DB) Config() Config {
	return db.config
}

// Ping runs a trivial statement against the endpoint.
func (db *DB) Ping(ctx context.Context) error {
	return db.SQL.PingContext(ctx)
}

// Close releases idle resources held by the handle.
func (db *DB) Close() error {
	return db.SQL.Close()
}
