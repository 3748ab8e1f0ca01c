// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GymTracker Contributors

// Package postgres stores GymTracker users in PostgreSQL.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"
)

// DB is the subset of *pgxpool.Pool the repository and transactor use.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// querier executes statements on either the pool or an open transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

// txFromContext returns the transaction stored by InTransaction, if any.
func txFromContext(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	return tx, ok
}

// Transactor implements auth.Transactor. It stores the active pgx.Tx in
// context so that UserRepository calls made through that context join it.
type Transactor struct {
	db DB
}

// NewTransactor creates a Transactor over db, normally a *pgxpool.Pool.
func NewTransactor(db DB) *Transactor {
	return &Transactor{db: db}
}

// InTransaction runs fn as one credential unit of work. Repository calls
// made with the context passed to fn share a single pgx.Tx, so a user's row
// lock and every write made under it commit together. Any error from fn
// discards all of them.
func (t *Transactor) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, nested := txFromContext(ctx); nested {
		return oops.Code("TX_NESTED").
			With("operation", "begin credential transaction").
			Errorf("credential transaction already open")
	}

	tx, err := t.db.Begin(ctx)
	if err != nil {
		return oops.Code("TX_BEGIN_FAILED").
			With("operation", "begin credential transaction").
			Wrap(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op once committed

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return oops.Code("TX_COMMIT_FAILED").
			With("operation", "commit credential transaction").
			Wrap(err)
	}
	return nil
}
