package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Times are stored as unix seconds so both dialects scan them the same way.
var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS admins (
		id                       VARCHAR(36) PRIMARY KEY,
		email                    VARCHAR(255) NOT NULL UNIQUE,
		full_name                VARCHAR(255) NOT NULL DEFAULT '',
		company_name             VARCHAR(255) NULL,
		password_hash            VARCHAR(255) NOT NULL,
		subscription_id          VARCHAR(36) NULL,
		remaining_project_limit  INT NOT NULL DEFAULT 0,
		remaining_employee_limit INT NOT NULL DEFAULT 0,
		remaining_document_limit INT NOT NULL DEFAULT 0,
		remaining_research_limit INT NOT NULL DEFAULT 0,
		daily_research_limit     INT NOT NULL DEFAULT 0,
		last_limit_reset_date    BIGINT NOT NULL DEFAULT 0,
		created_at               BIGINT NOT NULL,
		updated_at               BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS subscriptions (
		id                  VARCHAR(36) PRIMARY KEY,
		admin_id            VARCHAR(36) NOT NULL UNIQUE,
		plan_id             VARCHAR(64) NOT NULL,
		status              VARCHAR(32) NOT NULL,
		billing_cycle       VARCHAR(16) NOT NULL DEFAULT '',
		start_date          BIGINT NOT NULL,
		end_date            BIGINT NOT NULL,
		external_order_id   VARCHAR(128) NULL,
		external_payment_id VARCHAR(128) NULL,
		created_at          BIGINT NOT NULL,
		updated_at          BIGINT NOT NULL,
		INDEX idx_subscriptions_external_order (external_order_id)
	)`,
	`CREATE TABLE IF NOT EXISTS subscription_events (
		id              VARCHAR(36) PRIMARY KEY,
		subscription_id VARCHAR(36) NOT NULL,
		admin_id        VARCHAR(36) NOT NULL,
		plan_id         VARCHAR(64) NOT NULL,
		status          VARCHAR(32) NOT NULL,
		source          VARCHAR(64) NOT NULL,
		detail          TEXT NULL,
		created_at      BIGINT NOT NULL,
		INDEX idx_subscription_events_admin (admin_id, created_at)
	)`,
	`CREATE TABLE IF NOT EXISTS employees (
		id            VARCHAR(36) PRIMARY KEY,
		admin_id      VARCHAR(36) NOT NULL,
		full_name     VARCHAR(255) NOT NULL,
		email         VARCHAR(255) NOT NULL,
		job_title     VARCHAR(255) NOT NULL DEFAULT '',
		password_hash VARCHAR(255) NOT NULL,
		created_at    BIGINT NOT NULL,
		UNIQUE KEY ux_employees_admin_email (admin_id, email)
	)`,
	`CREATE TABLE IF NOT EXISTS projects (
		id          VARCHAR(36) PRIMARY KEY,
		admin_id    VARCHAR(36) NOT NULL,
		name        VARCHAR(255) NOT NULL,
		slug        VARCHAR(255) NOT NULL,
		description TEXT NULL,
		created_at  BIGINT NOT NULL,
		UNIQUE KEY ux_projects_admin_slug (admin_id, slug)
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id          VARCHAR(36) PRIMARY KEY,
		admin_id    VARCHAR(36) NOT NULL,
		project_id  VARCHAR(36) NOT NULL,
		title       VARCHAR(255) NOT NULL,
		status      VARCHAR(32) NOT NULL,
		assignee_id VARCHAR(36) NULL,
		created_at  BIGINT NOT NULL,
		INDEX idx_tasks_project (project_id)
	)`,
	`CREATE TABLE IF NOT EXISTS documents (
		id         VARCHAR(36) PRIMARY KEY,
		admin_id   VARCHAR(36) NOT NULL,
		project_id VARCHAR(36) NULL,
		title      VARCHAR(255) NOT NULL,
		content    LONGTEXT NULL,
		created_at BIGINT NOT NULL,
		INDEX idx_documents_admin (admin_id)
	)`,
	`CREATE TABLE IF NOT EXISTS research (
		id          VARCHAR(36) PRIMARY KEY,
		admin_id    VARCHAR(36) NOT NULL,
		query_text  TEXT NOT NULL,
		result      LONGTEXT NULL,
		tokens_used INT NOT NULL DEFAULT 0,
		created_at  BIGINT NOT NULL,
		INDEX idx_research_admin (admin_id)
	)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS admins (
		id                       TEXT PRIMARY KEY,
		email                    TEXT NOT NULL UNIQUE,
		full_name                TEXT NOT NULL DEFAULT '',
		company_name             TEXT,
		password_hash            TEXT NOT NULL,
		subscription_id          TEXT,
		remaining_project_limit  INTEGER NOT NULL DEFAULT 0,
		remaining_employee_limit INTEGER NOT NULL DEFAULT 0,
		remaining_document_limit INTEGER NOT NULL DEFAULT 0,
		remaining_research_limit INTEGER NOT NULL DEFAULT 0,
		daily_research_limit     INTEGER NOT NULL DEFAULT 0,
		last_limit_reset_date    INTEGER NOT NULL DEFAULT 0,
		created_at               INTEGER NOT NULL,
		updated_at               INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS subscriptions (
		id                  TEXT PRIMARY KEY,
		admin_id            TEXT NOT NULL UNIQUE,
		plan_id             TEXT NOT NULL,
		status              TEXT NOT NULL,
		billing_cycle       TEXT NOT NULL DEFAULT '',
		start_date          INTEGER NOT NULL,
		end_date            INTEGER NOT NULL,
		external_order_id   TEXT,
		external_payment_id TEXT,
		created_at          INTEGER NOT NULL,
		updated_at          INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_subscriptions_external_order ON subscriptions(external_order_id)`,
	`CREATE TABLE IF NOT EXISTS subscription_events (
		id              TEXT PRIMARY KEY,
		subscription_id TEXT NOT NULL,
		admin_id        TEXT NOT NULL,
		plan_id         TEXT NOT NULL,
		status          TEXT NOT NULL,
		source          TEXT NOT NULL,
		detail          TEXT,
		created_at      INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_subscription_events_admin ON subscription_events(admin_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS employees (
		id            TEXT PRIMARY KEY,
		admin_id      TEXT NOT NULL,
		full_name     TEXT NOT NULL,
		email         TEXT NOT NULL,
		job_title     TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		created_at    INTEGER NOT NULL,
		UNIQUE (admin_id, email)
	)`,
	`CREATE TABLE IF NOT EXISTS projects (
		id          TEXT PRIMARY KEY,
		admin_id    TEXT NOT NULL,
		name        TEXT NOT NULL,
		slug        TEXT NOT NULL,
		description TEXT,
		created_at  INTEGER NOT NULL,
		UNIQUE (admin_id, slug)
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id          TEXT PRIMARY KEY,
		admin_id    TEXT NOT NULL,
		project_id  TEXT NOT NULL,
		title       TEXT NOT NULL,
		status      TEXT NOT NULL,
		assignee_id TEXT,
		created_at  INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id)`,
	`CREATE TABLE IF NOT EXISTS documents (
		id         TEXT PRIMARY KEY,
		admin_id   TEXT NOT NULL,
		project_id TEXT,
		title      TEXT NOT NULL,
		content    TEXT,
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_documents_admin ON documents(admin_id)`,
	`CREATE TABLE IF NOT EXISTS research (
		id          TEXT PRIMARY KEY,
		admin_id    TEXT NOT NULL,
		query_text  TEXT NOT NULL,
		result      TEXT,
		tokens_used INTEGER NOT NULL DEFAULT 0,
		created_at  INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_research_admin ON research(admin_id)`,
}

// Migrate creates every table if it does not exist yet. Statements run one
// at a time because the MySQL driver rejects multi-statement Exec by default.
func Migrate(ctx context.Context, db *sqlx.DB, dialect Dialect) error {
	stmts := mysqlSchema
	if dialect == SQLite {
		stmts = sqliteSchema
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
