// Package database wraps the Postgres pool used for Stockwarp records.
package database

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

type Conn struct {
	pool *pgxpool.Pool
}

type Row interface {
	Scan(dest ...any) error
}

type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Close()
	Err() error
}

var ErrNoRows = pgx.ErrNoRows

// ConnectionURL builds a Postgres URL from the project environment variables.
func ConnectionURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		os.Getenv("DB_USERNAME"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_HOST"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_NAME"),
	)
}

// Connect connects to the Postgres database with the project environment variables.
func Connect(ctx context.Context) (*Conn, error) {
	pool, err := pgxpool.Connect(ctx, ConnectionURL())

	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()

		return nil, err
	}

	return &Conn{pool: pool}, nil
}

// Close closes a database connection.
func (conn *Conn) Close() {
	conn.pool.Close()
}

// Exec executes a database query.
func (conn *Conn) Exec(ctx context.Context, sql string, arguments ...any) error {
	_, err := conn.pool.Exec(ctx, sql, arguments...)

	return err
}

// Query executes a database query.
func (conn *Conn) Query(ctx context.Context, sql string, arguments ...any) (Rows, error) {
	return conn.pool.Query(ctx, sql, arguments...)
}

// QueryRow executes a database query returning Row data.
func (conn *Conn) QueryRow(ctx context.Context, sql string, arguments ...any) Row {
	return conn.pool.QueryRow(ctx, sql, arguments...)
}

// Queryable defines an interface for a connection.
type Queryable interface {
	Exec(ctx context.Context, sql string, arguments ...any) error
	Query(ctx context.Context, sql string, arguments ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, arguments ...any) Row
}
