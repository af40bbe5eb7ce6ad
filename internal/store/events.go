package store

import (
	"context"
	"fmt"
	"time"

	"github.com/01moynul/projectforge-golang/internal/models"
	"github.com/google/uuid"
)

type eventRow struct {
	ID             string `db:"id"`
	SubscriptionID string `db:"subscription_id"`
	AdminID        string `db:"admin_id"`
	PlanID         string `db:"plan_id"`
	Status         string `db:"status"`
	Source         string `db:"source"`
	Detail         string `db:"detail"`
	CreatedAt      int64  `db:"created_at"`
}

// RecordSubscriptionEvent appends one audit row. Event times are kept in
// nanoseconds so rows written in the same second still sort.
func (s *Store) RecordSubscriptionEvent(ctx context.Context, ev *models.SubscriptionEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO subscription_events (id, subscription_id, admin_id, plan_id, status, source, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.SubscriptionID, ev.AdminID, ev.PlanID, string(ev.Status), ev.Source, ev.Detail,
		ev.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("record subscription event: %w", err)
	}
	return nil
}

// ListSubscriptionEvents returns the tenant's audit trail, oldest first.
func (s *Store) ListSubscriptionEvents(ctx context.Context, adminID string) ([]models.SubscriptionEvent, error) {
	var rows []eventRow
	err := sqlxSelect(ctx, s, &rows, `
		SELECT id, subscription_id, admin_id, plan_id, status, source, COALESCE(detail, '') AS detail, created_at
		FROM subscription_events WHERE admin_id = ? ORDER BY created_at, id`, adminID)
	if err != nil {
		return nil, fmt.Errorf("list subscription events: %w", err)
	}
	events := make([]models.SubscriptionEvent, 0, len(rows))
	for _, r := range rows {
		events = append(events, models.SubscriptionEvent{
			ID:             r.ID,
			SubscriptionID: r.SubscriptionID,
			AdminID:        r.AdminID,
			PlanID:         r.PlanID,
			Status:         models.SubscriptionStatus(r.Status),
			Source:         r.Source,
			Detail:         r.Detail,
			CreatedAt:      time.Unix(0, r.CreatedAt).UTC(),
		})
	}
	return events, nil
}
