package billing

import (
	"context"
	"errors"

	"github.com/01moynul/projectforge-golang/internal/models"
	"github.com/01moynul/projectforge-golang/internal/store"
)

// Status is the tenant's billing state as shown on the dashboard.
type Status struct {
	Plan         models.Plan          `json:"plan"`
	Subscription *models.Subscription `json:"subscription"`
	Entitlement  models.Entitlement   `json:"entitlement"`
}

func (m *Manager) Status(ctx context.Context, adminID string) (*Status, error) {
	admin, err := m.store.GetAdmin(ctx, adminID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	sub, err := m.store.GetSubscriptionByAdmin(ctx, adminID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	plan := m.catalog.Free()
	if sub != nil {
		if p, ok := m.catalog.Find(sub.PlanID); ok {
			plan = p
		}
	}
	return &Status{Plan: plan, Subscription: sub, Entitlement: admin.Entitlement}, nil
}

// Events returns the tenant's subscription audit trail.
func (m *Manager) Events(ctx context.Context, adminID string) ([]models.SubscriptionEvent, error) {
	return m.store.ListSubscriptionEvents(ctx, adminID)
}
