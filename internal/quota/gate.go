// Package quota gates resource creation on the tenant's remaining limits.
package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/01moynul/projectforge-golang/internal/metrics"
	"github.com/01moynul/projectforge-golang/internal/models"
	"github.com/01moynul/projectforge-golang/internal/plans"
	"github.com/01moynul/projectforge-golang/internal/store"
	"github.com/rs/zerolog/log"
)

var (
	ErrQuotaExceeded       = errors.New("quota exceeded")
	ErrSubscriptionPending = errors.New("subscription payment pending")
	ErrAdminNotFound       = errors.New("admin not found")
	ErrUnknownKind         = errors.New("unknown resource kind")
)

// Kind is a resource type that can be created under a tenant.
type Kind string

const (
	KindEmployee Kind = "employee"
	KindProject  Kind = "project"
	KindDocument Kind = "document"
	KindResearch Kind = "research"
	KindTask     Kind = "task" // no plan limit
)

var counters = map[Kind]store.Counter{
	KindEmployee: store.CounterEmployees,
	KindProject:  store.CounterProjects,
	KindDocument: store.CounterDocuments,
	KindResearch: store.CounterResearch,
}

func exempt(k Kind) bool { return k == KindTask }

type Gate struct {
	store   *store.Store
	catalog *plans.Catalog
	now     func() time.Time
}

func NewGate(st *store.Store, catalog *plans.Catalog) *Gate {
	return &Gate{store: st, catalog: catalog, now: func() time.Time { return time.Now().UTC() }}
}

// StartOfDay is the UTC day boundary research counters reset on.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Check returns nil when the tenant may create one more resource of kind.
func (g *Gate) Check(ctx context.Context, adminID string, kind Kind) error {
	if exempt(kind) {
		return nil
	}
	counter, ok := counters[kind]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	admin, err := g.store.GetAdmin(ctx, adminID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAdminNotFound
		}
		return fmt.Errorf("load admin: %w", err)
	}

	if kind == KindResearch {
		if err := g.resetResearchIfDue(ctx, admin); err != nil {
			return err
		}
	}

	sub, err := g.subscription(ctx, adminID)
	if err != nil {
		return err
	}
	if sub != nil && sub.PlanID != models.FreePlanID &&
		(sub.Status == models.StatusPending || sub.Status == models.StatusCancelled) {
		return g.deny(kind, ErrSubscriptionPending, "pending")
	}

	if remaining(admin.Entitlement, counter) <= 0 {
		return g.deny(kind, ErrQuotaExceeded, "exhausted")
	}
	return nil
}

// Consume records one successful creation. Unlimited plans are only
// unlimited while their subscription is active.
func (g *Gate) Consume(ctx context.Context, adminID string, kind Kind) error {
	if exempt(kind) {
		return nil
	}
	counter, ok := counters[kind]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	sub, err := g.subscription(ctx, adminID)
	if err != nil {
		return err
	}
	if sub != nil && sub.Status == models.StatusActive {
		if plan, ok := g.catalog.Find(sub.PlanID); ok && plan.Unlimited {
			return nil
		}
	}

	decremented, err := g.store.DecrementLimit(ctx, adminID, counter)
	if err != nil {
		return err
	}
	if !decremented {
		log.Warn().Str("admin_id", adminID).Str("resource", string(kind)).Msg("Counter already at zero after creation")
	}
	return nil
}

// ResetDailyResearch restores the research counter if the tenant has not
// been reset since the start of today.
func (g *Gate) ResetDailyResearch(ctx context.Context, adminID string) (bool, error) {
	now := g.now()
	reset, err := g.store.ResetDailyResearch(ctx, adminID, StartOfDay(now), now)
	if err != nil {
		return false, err
	}
	if reset {
		metrics.QuotaResetsTotal.Inc()
	}
	return reset, nil
}

func (g *Gate) resetResearchIfDue(ctx context.Context, admin *models.Admin) error {
	if !admin.LastLimitResetDate.Before(StartOfDay(g.now())) {
		return nil
	}
	reset, err := g.ResetDailyResearch(ctx, admin.ID)
	if err != nil {
		return err
	}
	if reset {
		admin.RemainingResearchLimit = admin.DailyResearchLimit
	}
	return nil
}

func (g *Gate) subscription(ctx context.Context, adminID string) (*models.Subscription, error) {
	sub, err := g.store.GetSubscriptionByAdmin(ctx, adminID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load subscription: %w", err)
	}
	return sub, nil
}

func (g *Gate) deny(kind Kind, err error, reason string) error {
	metrics.QuotaDenialsTotal.WithLabelValues(string(kind), reason).Inc()
	return fmt.Errorf("%w: %s", err, kind)
}

func remaining(e models.Entitlement, c store.Counter) int {
	switch c {
	case store.CounterProjects:
		return e.RemainingProjectLimit
	case store.CounterEmployees:
		return e.RemainingEmployeeLimit
	case store.CounterDocuments:
		return e.RemainingDocumentLimit
	case store.CounterResearch:
		return e.RemainingResearchLimit
	}
	return 0
}
