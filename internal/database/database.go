package database

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/01moynul/projectforge-golang/internal/config"
	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// Dialect selects the SQL flavour for DDL and upserts.
type Dialect string

const (
	MySQL  Dialect = "mysql"
	SQLite Dialect = "sqlite"
)

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know by default.
	sqlx.BindDriver(string(SQLite), sqlx.QUESTION)
}

// OpenDB initializes and returns the primary connection pool.
func OpenDB(cfg config.DatabaseConfig) (*sqlx.DB, Dialect, error) {
	dialect := Dialect(cfg.Driver)
	switch dialect {
	case MySQL:
		db, err := OpenDBWithDSN(string(MySQL), cfg.DSN, cfg.MaxOpenConns, cfg.MaxIdleConns)
		return db, dialect, err
	case SQLite:
		db, err := OpenSQLite(cfg.DSN)
		return db, dialect, err
	default:
		return nil, "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// OpenDBWithDSN creates and configures a pool for any driver and DSN.
func OpenDBWithDSN(driver, dsn string, maxOpen, maxIdle int) (*sqlx.DB, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	log.Info().Str("driver", driver).Msg("Database connection pool established")
	return db, nil
}

// OpenSQLite opens a file-backed SQLite database. A single connection keeps
// writers serialized.
func OpenSQLite(path string) (*sqlx.DB, error) {
	dsn := path
	if !strings.Contains(path, "?") {
		dsn = path + "?" + url.Values{
			"_pragma": []string{
				"busy_timeout(30000)",
				"journal_mode(WAL)",
				"foreign_keys(ON)",
			},
		}.Encode()
	}
	db, err := OpenDBWithDSN(string(SQLite), dsn, 1, 1)
	if err != nil {
		return nil, err
	}
	db.SetConnMaxLifetime(0)
	return db, nil
}
