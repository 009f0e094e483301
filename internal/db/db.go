// Package db holds the pgx connection surface shared by the repository and
// the embedded schema migrations.
package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

// Exec runs a statement using the underlying DBTX.
func (q *Queries) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, sql, args...)
}

// QueryRow runs a single-row query using the underlying DBTX.
func (q *Queries) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return q.db.QueryRow(ctx, sql, args...)
}

// Query runs a multi-row query using the underlying DBTX.
func (q *Queries) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return q.db.Query(ctx, sql, args...)
}
