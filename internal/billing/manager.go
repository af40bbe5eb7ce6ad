// Package billing owns the subscription lifecycle and is the only writer of
// subscription rows and tenant entitlement counters.
package billing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/01moynul/projectforge-golang/internal/metrics"
	"github.com/01moynul/projectforge-golang/internal/models"
	"github.com/01moynul/projectforge-golang/internal/payments"
	"github.com/01moynul/projectforge-golang/internal/plans"
	"github.com/01moynul/projectforge-golang/internal/store"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidBillingCycle   = errors.New("invalid billing cycle")
	ErrPlanNotFound          = errors.New("plan not found")
	ErrAdminNotFound         = errors.New("admin not found")
	ErrSubscriptionNotFound  = errors.New("subscription not found")
	ErrSubscriptionNotActive = errors.New("subscription is not active")
)

// Free subscriptions never expire in practice.
const freePlanLifetime = 100

// Result is what lifecycle operations hand back to the HTTP layer.
type Result struct {
	Success        bool   `json:"success"`
	SubscriptionID string `json:"subscriptionId,omitempty"`
	PaymentLink    string `json:"paymentLink,omitempty"`
	Message        string `json:"message,omitempty"`
	Error          string `json:"error,omitempty"`
	Err            error  `json:"-"`
}

func failure(err error, msg string) Result {
	return Result{Success: false, Error: msg, Err: err}
}

type Options struct {
	Currency   string
	StartDelay time.Duration
}

type Manager struct {
	store   *store.Store
	catalog *plans.Catalog
	gateway payments.Gateway
	opts    Options
	now     func() time.Time

	gatewayPlans sync.Map // "<plan>:<cycle>" -> gateway plan id
}

func NewManager(st *store.Store, catalog *plans.Catalog, gw payments.Gateway, opts Options) *Manager {
	if opts.Currency == "" {
		opts.Currency = "INR"
	}
	return &Manager{
		store:   st,
		catalog: catalog,
		gateway: gw,
		opts:    opts,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreateSubscription starts a plan change for the tenant. Paid plans end up
// pending until the gateway reports a captured payment.
func (m *Manager) CreateSubscription(ctx context.Context, planID string, cycle models.BillingCycle, adminID string, notes map[string]string) Result {
	res := m.createSubscription(ctx, planID, cycle, adminID, notes)
	observe("create", res)
	return res
}

func (m *Manager) createSubscription(ctx context.Context, planID string, cycle models.BillingCycle, adminID string, notes map[string]string) Result {
	// 1. --- Validate input; nothing is written on failure ---
	if !cycle.Valid() {
		return failure(ErrInvalidBillingCycle, fmt.Sprintf("Invalid billing cycle: %s", cycle))
	}
	plan, ok := m.catalog.Find(planID)
	if !ok {
		return failure(ErrPlanNotFound, fmt.Sprintf("Plan not found: %s", planID))
	}
	if _, err := m.store.GetAdmin(ctx, adminID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return failure(ErrAdminNotFound, fmt.Sprintf("Admin not found: %s", adminID))
		}
		return m.internalFailure(err, "load admin", adminID, planID)
	}

	// 2. --- Free plan needs no gateway ---
	if plan.IsFree() {
		sub, err := m.MigrateToFreePlan(ctx, adminID, "api:create")
		if err != nil {
			return m.internalFailure(err, "migrate to free plan", adminID, planID)
		}
		return Result{Success: true, SubscriptionID: sub.ID, Message: "Switched to the free plan"}
	}

	// 3. --- Re-assert free limits and retire any previous gateway order ---
	current, err := m.store.GetSubscriptionByAdmin(ctx, adminID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return m.internalFailure(err, "load subscription", adminID, planID)
	}
	if current == nil || current.Status != models.StatusActive || current.PlanID == models.FreePlanID {
		if err := m.EnforceFreeLimits(ctx, adminID); err != nil {
			return m.internalFailure(err, "enforce free limits", adminID, planID)
		}
	}
	if current != nil && current.ExternalOrderID != nil && *current.ExternalOrderID != "" &&
		current.Status != models.StatusCancelled {
		m.cancelRemote(ctx, current)
	}

	// 4. --- Create the subscription at the gateway ---
	gatewayPlanID, err := m.gatewayPlanID(ctx, plan, cycle)
	if err != nil {
		log.Error().Err(err).Str("admin_id", adminID).Str("plan_id", planID).Msg("Could not resolve gateway plan")
		return failure(err, "Failed to create subscription at payment gateway")
	}
	now := m.now()
	gwSub, err := m.gateway.CreateSubscription(ctx, payments.SubscriptionRequest{
		PlanID:         gatewayPlanID,
		CustomerNotify: true,
		Quantity:       1,
		TotalCount:     cycle.TotalCount(),
		StartAt:        now.Add(m.opts.StartDelay),
		Notes:          subscriptionNotes(adminID, plan, cycle, notes),
	})
	if err != nil {
		log.Error().Err(err).Str("admin_id", adminID).Str("plan_id", planID).Msg("Gateway subscription creation failed")
		return failure(err, "Failed to create subscription at payment gateway")
	}

	// 5. --- Persist locally; entitlement stays at free limits ---
	externalID := gwSub.ID
	var saved *models.Subscription
	err = m.store.WithTx(ctx, func(tx *store.Store) error {
		var err error
		saved, err = tx.UpsertSubscription(ctx, &models.Subscription{
			AdminID:         adminID,
			PlanID:          plan.ID,
			Status:          models.StatusPending,
			BillingCycle:    cycle,
			StartDate:       now,
			EndDate:         cycle.EndDate(now),
			ExternalOrderID: &externalID,
		})
		if err != nil {
			return err
		}
		// A pending row never keeps paid counters, including a switch away
		// from an active paid plan.
		if err := capAtFreeLimits(ctx, tx, m.catalog.Free(), adminID); err != nil {
			return err
		}
		if err := tx.SetAdminSubscription(ctx, adminID, saved.ID); err != nil {
			return err
		}
		return recordEvent(ctx, tx, saved, "api:create", "gateway subscription "+externalID)
	})
	if err != nil {
		// The gateway already holds a subscription we have no record of.
		log.Error().Err(err).
			Str("admin_id", adminID).
			Str("plan_id", planID).
			Str("external_order_id", externalID).
			Msg("Local write failed after gateway subscription was created; reconcile manually")
		return failure(err, "Failed to save subscription")
	}

	log.Info().Str("admin_id", adminID).Str("plan_id", planID).Str("subscription_id", saved.ID).
		Str("external_order_id", externalID).Msg("Subscription created, awaiting payment")
	return Result{
		Success:        true,
		SubscriptionID: saved.ID,
		PaymentLink:    gwSub.ShortURL,
		Message:        "Subscription created, complete payment to activate",
	}
}

// CancelSubscription cancels locally no matter what the gateway says, then
// returns the tenant to the free plan.
func (m *Manager) CancelSubscription(ctx context.Context, subscriptionID string) Result {
	res := m.cancelSubscription(ctx, subscriptionID)
	observe("cancel", res)
	return res
}

func (m *Manager) cancelSubscription(ctx context.Context, subscriptionID string) Result {
	sub, err := m.store.GetSubscription(ctx, subscriptionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return failure(ErrSubscriptionNotFound, fmt.Sprintf("Subscription not found: %s", subscriptionID))
		}
		return m.internalFailure(err, "load subscription", "", "")
	}

	if sub.ExternalOrderID != nil && *sub.ExternalOrderID != "" {
		m.cancelRemote(ctx, sub)
	}

	if err := m.SetStatus(ctx, sub, models.StatusCancelled, "api:cancel"); err != nil {
		return m.internalFailure(err, "cancel subscription", sub.AdminID, sub.PlanID)
	}
	if _, err := m.MigrateToFreePlan(ctx, sub.AdminID, "api:cancel"); err != nil {
		return m.internalFailure(err, "migrate to free plan", sub.AdminID, sub.PlanID)
	}

	return Result{Success: true, SubscriptionID: sub.ID, Message: "Subscription cancelled, moved to the free plan"}
}

// SignUp stores a new tenant and starts it on the free plan in one
// transaction, so no tenant exists without a subscription.
func (m *Manager) SignUp(ctx context.Context, admin *models.Admin) (*models.Subscription, error) {
	var sub *models.Subscription
	err := m.store.WithTx(ctx, func(tx *store.Store) error {
		if err := tx.CreateAdmin(ctx, admin); err != nil {
			return err
		}
		var err error
		sub, err = m.migrateToFree(ctx, tx, admin.ID, "signup")
		return err
	})
	if err != nil {
		metrics.LifecycleOperationsTotal.WithLabelValues("signup", "error").Inc()
		return nil, fmt.Errorf("sign up %s: %w", admin.Email, err)
	}
	metrics.LifecycleOperationsTotal.WithLabelValues("signup", "success").Inc()
	return sub, nil
}

// MigrateToFreePlan puts the tenant on free/active with free limits. It is
// safe to call on a tenant that is already free.
func (m *Manager) MigrateToFreePlan(ctx context.Context, adminID, source string) (*models.Subscription, error) {
	var sub *models.Subscription
	err := m.store.WithTx(ctx, func(tx *store.Store) error {
		var err error
		sub, err = m.migrateToFree(ctx, tx, adminID, source)
		return err
	})
	if err != nil {
		metrics.LifecycleOperationsTotal.WithLabelValues("migrate_free", "error").Inc()
		return nil, fmt.Errorf("migrate %s to free plan: %w", adminID, err)
	}
	metrics.LifecycleOperationsTotal.WithLabelValues("migrate_free", "success").Inc()
	return sub, nil
}

func (m *Manager) migrateToFree(ctx context.Context, tx *store.Store, adminID, source string) (*models.Subscription, error) {
	free := m.catalog.Free()
	now := m.now()

	sub, err := tx.UpsertSubscription(ctx, &models.Subscription{
		AdminID:   adminID,
		PlanID:    free.ID,
		Status:    models.StatusActive,
		StartDate: now,
		EndDate:   now.AddDate(freePlanLifetime, 0, 0),
	})
	if err != nil {
		return nil, err
	}
	if err := tx.SetEntitlement(ctx, adminID, free.Entitlement(now)); err != nil {
		return nil, err
	}
	if err := tx.SetAdminSubscription(ctx, adminID, sub.ID); err != nil {
		return nil, err
	}
	return sub, recordEvent(ctx, tx, sub, source, "")
}

// UpdateAdminLimits grants the plan's limits. It is the only path that
// raises a tenant to paid entitlement, and it refuses unless the
// subscription is active at write time.
func (m *Manager) UpdateAdminLimits(ctx context.Context, adminID string, plan models.Plan, subscriptionID string) error {
	ent := plan.Entitlement(m.now())
	ent.DailyResearchLimit = plans.DailyResearchLimit(plan.ID)

	err := m.store.GrantEntitlementIfActive(ctx, adminID, subscriptionID, ent)
	switch {
	case errors.Is(err, store.ErrSubscriptionNotActive):
		log.Warn().Str("admin_id", adminID).Str("subscription_id", subscriptionID).Str("plan_id", plan.ID).
			Msg("Refusing to grant paid limits to a non-active subscription")
		return ErrSubscriptionNotActive
	case errors.Is(err, store.ErrNotFound):
		return ErrSubscriptionNotFound
	case err != nil:
		return fmt.Errorf("grant limits: %w", err)
	}
	metrics.LifecycleOperationsTotal.WithLabelValues("grant_limits", "success").Inc()
	return nil
}

// EnforceFreeLimits lowers any counter above the free plan's limit.
func (m *Manager) EnforceFreeLimits(ctx context.Context, adminID string) error {
	return capAtFreeLimits(ctx, m.store, m.catalog.Free(), adminID)
}

func capAtFreeLimits(ctx context.Context, st *store.Store, free models.Plan, adminID string) error {
	admin, err := st.GetAdmin(ctx, adminID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAdminNotFound
		}
		return err
	}
	capped, changed := admin.Entitlement.CappedAt(free)
	if !changed {
		return nil
	}
	log.Warn().Str("admin_id", adminID).Msg("Entitlement above free limits without an active paid plan; resetting")
	return st.SetEntitlement(ctx, adminID, capped)
}

// MarkPaid records a captured payment and activates the subscription.
func (m *Manager) MarkPaid(ctx context.Context, sub *models.Subscription, paymentID, source string) error {
	return m.store.WithTx(ctx, func(tx *store.Store) error {
		if err := tx.MarkSubscriptionPaid(ctx, sub.ID, paymentID); err != nil {
			return err
		}
		sub.Status = models.StatusActive
		sub.ExternalPaymentID = &paymentID
		return recordEvent(ctx, tx, sub, source, "payment "+paymentID)
	})
}

// SetStatus moves the subscription to status and records the transition.
func (m *Manager) SetStatus(ctx context.Context, sub *models.Subscription, status models.SubscriptionStatus, source string) error {
	return m.store.WithTx(ctx, func(tx *store.Store) error {
		if err := tx.UpdateSubscriptionStatus(ctx, sub.ID, status); err != nil {
			return err
		}
		sub.Status = status
		return recordEvent(ctx, tx, sub, source, "")
	})
}

// FindByExternalOrder resolves a gateway subscription id to the local row.
func (m *Manager) FindByExternalOrder(ctx context.Context, externalID string) (*models.Subscription, error) {
	sub, err := m.store.GetSubscriptionByExternalOrder(ctx, externalID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSubscriptionNotFound
	}
	return sub, err
}

// Subscription loads a subscription by local id.
func (m *Manager) Subscription(ctx context.Context, id string) (*models.Subscription, error) {
	sub, err := m.store.GetSubscription(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSubscriptionNotFound
	}
	return sub, err
}

func (m *Manager) cancelRemote(ctx context.Context, sub *models.Subscription) {
	externalID := *sub.ExternalOrderID
	res, err := m.gateway.CancelSubscription(ctx, externalID)
	logger := log.With().
		Str("admin_id", sub.AdminID).
		Str("subscription_id", sub.ID).
		Str("external_order_id", externalID).
		Logger()
	if err != nil {
		logger.Warn().Err(err).Msg("Gateway cancellation failed; continuing with local state")
		return
	}
	if res.Status != "cancelled" {
		logger.Warn().Str("gateway_status", res.Status).Msg("Gateway did not confirm cancellation")
	}
}

func (m *Manager) gatewayPlanID(ctx context.Context, plan models.Plan, cycle models.BillingCycle) (string, error) {
	if id := plan.GatewayPlanID(cycle); id != "" {
		return id, nil
	}
	key := plan.ID + ":" + string(cycle)
	if id, ok := m.gatewayPlans.Load(key); ok {
		return id.(string), nil
	}

	amount := minorUnits(plan.Price(cycle))
	if cycle == models.BillingYearly {
		// Rounded down: twelve installments never exceed the yearly price.
		amount /= int64(cycle.TotalCount())
	}
	id, err := m.gateway.CreatePlan(ctx, payments.PlanRequest{
		Name:     fmt.Sprintf("%s (%s)", plan.Name, cycle),
		Period:   "monthly",
		Interval: 1,
		Amount:   amount,
		Currency: m.opts.Currency,
		Notes:    map[string]string{"planId": plan.ID, "billingCycle": string(cycle)},
	})
	if err != nil {
		return "", err
	}
	m.gatewayPlans.Store(key, id)
	return id, nil
}

func (m *Manager) internalFailure(err error, op, adminID, planID string) Result {
	log.Error().Err(err).Str("admin_id", adminID).Str("plan_id", planID).Msgf("Lifecycle step failed: %s", op)
	return failure(err, "Internal error, please try again")
}

func subscriptionNotes(adminID string, plan models.Plan, cycle models.BillingCycle, extra map[string]string) map[string]string {
	notes := make(map[string]string, len(extra)+4)
	for k, v := range extra {
		notes[k] = v
	}
	notes["adminId"] = adminID
	notes["planId"] = plan.ID
	notes["planName"] = plan.Name
	notes["billingCycle"] = string(cycle)
	return notes
}

func minorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func recordEvent(ctx context.Context, st *store.Store, sub *models.Subscription, source, detail string) error {
	return st.RecordSubscriptionEvent(ctx, &models.SubscriptionEvent{
		SubscriptionID: sub.ID,
		AdminID:        sub.AdminID,
		PlanID:         sub.PlanID,
		Status:         sub.Status,
		Source:         source,
		Detail:         detail,
	})
}

func observe(op string, res Result) {
	outcome := "success"
	if !res.Success {
		outcome = "failure"
	}
	metrics.LifecycleOperationsTotal.WithLabelValues(op, outcome).Inc()
}
