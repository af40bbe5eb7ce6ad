package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/01moynul/projectforge-golang/internal/models"
)

// Counter names one of the remaining-limit columns on admins.
type Counter string

const (
	CounterProjects  Counter = "remaining_project_limit"
	CounterEmployees Counter = "remaining_employee_limit"
	CounterDocuments Counter = "remaining_document_limit"
	CounterResearch  Counter = "remaining_research_limit"
)

func (c Counter) valid() bool {
	switch c {
	case CounterProjects, CounterEmployees, CounterDocuments, CounterResearch:
		return true
	}
	return false
}

type adminRow struct {
	ID                     string  `db:"id"`
	Email                  string  `db:"email"`
	FullName               string  `db:"full_name"`
	CompanyName            *string `db:"company_name"`
	PasswordHash           string  `db:"password_hash"`
	SubscriptionID         *string `db:"subscription_id"`
	RemainingProjectLimit  int     `db:"remaining_project_limit"`
	RemainingEmployeeLimit int     `db:"remaining_employee_limit"`
	RemainingDocumentLimit int     `db:"remaining_document_limit"`
	RemainingResearchLimit int     `db:"remaining_research_limit"`
	DailyResearchLimit     int     `db:"daily_research_limit"`
	LastLimitResetDate     int64   `db:"last_limit_reset_date"`
	CreatedAt              int64   `db:"created_at"`
	UpdatedAt              int64   `db:"updated_at"`
}

func (r adminRow) model() *models.Admin {
	return &models.Admin{
		ID:             r.ID,
		Email:          r.Email,
		FullName:       r.FullName,
		CompanyName:    r.CompanyName,
		PasswordHash:   r.PasswordHash,
		SubscriptionID: r.SubscriptionID,
		Entitlement: models.Entitlement{
			RemainingProjectLimit:  r.RemainingProjectLimit,
			RemainingEmployeeLimit: r.RemainingEmployeeLimit,
			RemainingDocumentLimit: r.RemainingDocumentLimit,
			RemainingResearchLimit: r.RemainingResearchLimit,
			DailyResearchLimit:     r.DailyResearchLimit,
			LastLimitResetDate:     fromUnix(r.LastLimitResetDate),
		},
		CreatedAt: fromUnix(r.CreatedAt),
		UpdatedAt: fromUnix(r.UpdatedAt),
	}
}

const adminColumns = `id, email, full_name, company_name, password_hash, subscription_id,
	remaining_project_limit, remaining_employee_limit, remaining_document_limit,
	remaining_research_limit, daily_research_limit, last_limit_reset_date,
	created_at, updated_at`

// CreateAdmin inserts a new tenant record.
func (s *Store) CreateAdmin(ctx context.Context, a *models.Admin) error {
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO admins (`+adminColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Email, a.FullName, a.CompanyName, a.PasswordHash, a.SubscriptionID,
		a.RemainingProjectLimit, a.RemainingEmployeeLimit, a.RemainingDocumentLimit,
		a.RemainingResearchLimit, a.DailyResearchLimit, toUnix(a.LastLimitResetDate),
		toUnix(a.CreatedAt), toUnix(a.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}

// GetAdmin loads a tenant by id.
func (s *Store) GetAdmin(ctx context.Context, id string) (*models.Admin, error) {
	return s.getAdmin(ctx, "id = ?", id)
}

// GetAdminByEmail loads a tenant by login email.
func (s *Store) GetAdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	return s.getAdmin(ctx, "email = ?", email)
}

func (s *Store) getAdmin(ctx context.Context, where string, arg any) (*models.Admin, error) {
	var row adminRow
	err := sqlxGet(ctx, s, &row, `SELECT `+adminColumns+` FROM admins WHERE `+where, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get admin: %w", err)
	}
	return row.model(), nil
}

// SetEntitlement overwrites every counter on the tenant.
func (s *Store) SetEntitlement(ctx context.Context, adminID string, ent models.Entitlement) error {
	_, err := s.q.ExecContext(ctx, `
		UPDATE admins SET
			remaining_project_limit = ?,
			remaining_employee_limit = ?,
			remaining_document_limit = ?,
			remaining_research_limit = ?,
			daily_research_limit = ?,
			last_limit_reset_date = ?,
			updated_at = ?
		WHERE id = ?`,
		ent.RemainingProjectLimit, ent.RemainingEmployeeLimit, ent.RemainingDocumentLimit,
		ent.RemainingResearchLimit, ent.DailyResearchLimit, toUnix(ent.LastLimitResetDate),
		time.Now().UTC().Unix(), adminID,
	)
	if err != nil {
		return fmt.Errorf("set entitlement: %w", err)
	}
	return nil
}

// GrantEntitlementIfActive writes ent only while subscriptionID is still
// active. The status read and the write happen in one transaction with the
// subscription row locked.
func (s *Store) GrantEntitlementIfActive(ctx context.Context, adminID, subscriptionID string, ent models.Entitlement) error {
	return s.WithTx(ctx, func(tx *Store) error {
		var status string
		err := sqlxGet(ctx, tx, &status,
			`SELECT status FROM subscriptions WHERE id = ? AND admin_id = ?`+tx.forUpdate(),
			subscriptionID, adminID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lock subscription: %w", err)
		}
		if models.SubscriptionStatus(status) != models.StatusActive {
			return ErrSubscriptionNotActive
		}
		return tx.SetEntitlement(ctx, adminID, ent)
	})
}

// SetAdminSubscription updates the back-reference only.
func (s *Store) SetAdminSubscription(ctx context.Context, adminID, subscriptionID string) error {
	_, err := s.q.ExecContext(ctx,
		`UPDATE admins SET subscription_id = ?, updated_at = ? WHERE id = ?`,
		subscriptionID, time.Now().UTC().Unix(), adminID)
	if err != nil {
		return fmt.Errorf("set admin subscription: %w", err)
	}
	return nil
}

// DecrementLimit lowers one counter by one, never below zero. It reports
// whether a decrement happened.
func (s *Store) DecrementLimit(ctx context.Context, adminID string, c Counter) (bool, error) {
	if !c.valid() {
		return false, fmt.Errorf("unknown counter %q", c)
	}
	col := string(c)
	res, err := s.q.ExecContext(ctx,
		`UPDATE admins SET `+col+` = `+col+` - 1, updated_at = ? WHERE id = ? AND `+col+` > 0`,
		time.Now().UTC().Unix(), adminID)
	if err != nil {
		return false, fmt.Errorf("decrement %s: %w", col, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("decrement %s: %w", col, err)
	}
	return n > 0, nil
}

// ResetDailyResearch restores the research counter once per day boundary.
// It is a no-op when the tenant was already reset at or after startOfDay.
func (s *Store) ResetDailyResearch(ctx context.Context, adminID string, startOfDay, now time.Time) (bool, error) {
	res, err := s.q.ExecContext(ctx, `
		UPDATE admins SET
			remaining_research_limit = daily_research_limit,
			last_limit_reset_date = ?,
			updated_at = ?
		WHERE id = ? AND last_limit_reset_date < ?`,
		now.Unix(), now.Unix(), adminID, startOfDay.Unix())
	if err != nil {
		return false, fmt.Errorf("reset daily research: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reset daily research: %w", err)
	}
	return n > 0, nil
}

// ResetAllDailyResearch is ResetDailyResearch for every tenant.
func (s *Store) ResetAllDailyResearch(ctx context.Context, startOfDay, now time.Time) (int64, error) {
	res, err := s.q.ExecContext(ctx, `
		UPDATE admins SET
			remaining_research_limit = daily_research_limit,
			last_limit_reset_date = ?,
			updated_at = ?
		WHERE last_limit_reset_date < ?`,
		now.Unix(), now.Unix(), startOfDay.Unix())
	if err != nil {
		return 0, fmt.Errorf("reset all daily research: %w", err)
	}
	return res.RowsAffected()
}
