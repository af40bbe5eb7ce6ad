// Package storetest opens migrated SQLite stores for tests.
package storetest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/01moynul/projectforge-golang/internal/database"
	"github.com/01moynul/projectforge-golang/internal/models"
	"github.com/01moynul/projectforge-golang/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// New returns a store on a fresh database in t.TempDir().
func New(t testing.TB) *store.Store {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db, database.SQLite))
	return store.New(db, database.SQLite)
}

// SeedAdmin inserts a tenant with the given counters and no subscription.
func SeedAdmin(t testing.TB, st *store.Store, ent models.Entitlement) *models.Admin {
	t.Helper()
	a := &models.Admin{
		ID:           uuid.NewString(),
		Email:        uuid.NewString() + "@example.com",
		FullName:     "Test Admin",
		PasswordHash: "hash",
		Entitlement:  ent,
	}
	require.NoError(t, st.CreateAdmin(context.Background(), a))
	return a
}
