package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/01moynul/projectforge-golang/internal/database"
	"github.com/01moynul/projectforge-golang/internal/models"
	"github.com/google/uuid"
)

type subscriptionRow struct {
	ID                string  `db:"id"`
	AdminID           string  `db:"admin_id"`
	PlanID            string  `db:"plan_id"`
	Status            string  `db:"status"`
	BillingCycle      string  `db:"billing_cycle"`
	StartDate         int64   `db:"start_date"`
	EndDate           int64   `db:"end_date"`
	ExternalOrderID   *string `db:"external_order_id"`
	ExternalPaymentID *string `db:"external_payment_id"`
	CreatedAt         int64   `db:"created_at"`
	UpdatedAt         int64   `db:"updated_at"`
}

func (r subscriptionRow) model() *models.Subscription {
	return &models.Subscription{
		ID:                r.ID,
		AdminID:           r.AdminID,
		PlanID:            r.PlanID,
		Status:            models.SubscriptionStatus(r.Status),
		BillingCycle:      models.BillingCycle(r.BillingCycle),
		StartDate:         fromUnix(r.StartDate),
		EndDate:           fromUnix(r.EndDate),
		ExternalOrderID:   r.ExternalOrderID,
		ExternalPaymentID: r.ExternalPaymentID,
		CreatedAt:         fromUnix(r.CreatedAt),
		UpdatedAt:         fromUnix(r.UpdatedAt),
	}
}

const subscriptionColumns = `id, admin_id, plan_id, status, billing_cycle, start_date, end_date,
	external_order_id, external_payment_id, created_at, updated_at`

// upsertSubscriptionSQL keeps the existing row id on conflict so the admin's
// back-reference stays valid.
func upsertSubscriptionSQL(d database.Dialect) string {
	insert := `INSERT INTO subscriptions (` + subscriptionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if d == database.MySQL {
		return insert + `
		ON DUPLICATE KEY UPDATE
			plan_id = VALUES(plan_id),
			status = VALUES(status),
			billing_cycle = VALUES(billing_cycle),
			start_date = VALUES(start_date),
			end_date = VALUES(end_date),
			external_order_id = VALUES(external_order_id),
			external_payment_id = VALUES(external_payment_id),
			updated_at = VALUES(updated_at)`
	}
	return insert + `
		ON CONFLICT(admin_id) DO UPDATE SET
			plan_id = excluded.plan_id,
			status = excluded.status,
			billing_cycle = excluded.billing_cycle,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			external_order_id = excluded.external_order_id,
			external_payment_id = excluded.external_payment_id,
			updated_at = excluded.updated_at`
}

// UpsertSubscription writes the tenant's single subscription row and returns
// it as stored. sub.ID is ignored; a new row gets a fresh id and an existing
// row keeps its own.
func (s *Store) UpsertSubscription(ctx context.Context, sub *models.Subscription) (*models.Subscription, error) {
	now := time.Now().UTC().Unix()
	_, err := s.q.ExecContext(ctx, upsertSubscriptionSQL(s.dialect),
		uuid.NewString(), sub.AdminID, sub.PlanID, string(sub.Status), string(sub.BillingCycle),
		toUnix(sub.StartDate), toUnix(sub.EndDate),
		sub.ExternalOrderID, sub.ExternalPaymentID, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert subscription: %w", err)
	}
	return s.GetSubscriptionByAdmin(ctx, sub.AdminID)
}

// GetSubscription loads a subscription by its local id.
func (s *Store) GetSubscription(ctx context.Context, id string) (*models.Subscription, error) {
	return s.getSubscription(ctx, "id = ?", id)
}

// GetSubscriptionByAdmin loads the tenant's subscription.
func (s *Store) GetSubscriptionByAdmin(ctx context.Context, adminID string) (*models.Subscription, error) {
	return s.getSubscription(ctx, "admin_id = ?", adminID)
}

// GetSubscriptionByExternalOrder resolves a gateway subscription id.
func (s *Store) GetSubscriptionByExternalOrder(ctx context.Context, externalOrderID string) (*models.Subscription, error) {
	return s.getSubscription(ctx, "external_order_id = ?", externalOrderID)
}

func (s *Store) getSubscription(ctx context.Context, where string, arg any) (*models.Subscription, error) {
	var row subscriptionRow
	err := sqlxGet(ctx, s, &row, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE `+where, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return row.model(), nil
}

// UpdateSubscriptionStatus changes only the status column.
func (s *Store) UpdateSubscriptionStatus(ctx context.Context, id string, status models.SubscriptionStatus) error {
	_, err := s.q.ExecContext(ctx,
		`UPDATE subscriptions SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC().Unix(), id)
	if err != nil {
		return fmt.Errorf("update subscription status: %w", err)
	}
	return nil
}

// MarkSubscriptionPaid records the captured payment and activates the row.
func (s *Store) MarkSubscriptionPaid(ctx context.Context, id, paymentID string) error {
	_, err := s.q.ExecContext(ctx,
		`UPDATE subscriptions SET external_payment_id = ?, status = ?, updated_at = ? WHERE id = ?`,
		paymentID, string(models.StatusActive), time.Now().UTC().Unix(), id)
	if err != nil {
		return fmt.Errorf("mark subscription paid: %w", err)
	}
	return nil
}
