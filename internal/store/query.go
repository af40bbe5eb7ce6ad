package store

import (
	"context"

	"github.com/jmoiron/sqlx"
)

func sqlxGet(ctx context.Context, s *Store, dest any, query string, args ...any) error {
	return sqlx.GetContext(ctx, s.q, dest, query, args...)
}

func sqlxSelect(ctx context.Context, s *Store, dest any, query string, args ...any) error {
	return sqlx.SelectContext(ctx, s.q, dest, query, args...)
}
