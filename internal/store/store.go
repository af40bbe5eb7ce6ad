// Package store persists tenants, subscriptions and workspace resources.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/01moynul/projectforge-golang/internal/database"
	"github.com/jmoiron/sqlx"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrSubscriptionNotActive = errors.New("subscription is not active")
)

// Store runs queries either on the pool or inside a transaction.
type Store struct {
	db      *sqlx.DB // nil when bound to a transaction
	q       sqlx.ExtContext
	dialect database.Dialect
}

func New(db *sqlx.DB, dialect database.Dialect) *Store {
	return &Store{db: db, q: db, dialect: dialect}
}

// WithTx runs fn inside one transaction. Nested calls reuse the outer one.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	if s.db == nil {
		return fn(s)
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	if err := fn(&Store{q: tx, dialect: s.dialect}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// forUpdate is the row-lock suffix for SELECTs inside a transaction.
// SQLite has a single writer so it needs none.
func (s *Store) forUpdate() string {
	if s.dialect == database.MySQL {
		return " FOR UPDATE"
	}
	return ""
}

func toUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func fromUnix(v int64) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.Unix(v, 0).UTC()
}
