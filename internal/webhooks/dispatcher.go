// Package webhooks verifies payment gateway notifications and turns them
// into subscription lifecycle transitions.
package webhooks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/01moynul/projectforge-golang/internal/billing"
	"github.com/01moynul/projectforge-golang/internal/metrics"
	"github.com/01moynul/projectforge-golang/internal/models"
	"github.com/01moynul/projectforge-golang/internal/plans"
	"github.com/rs/zerolog/log"
)

var (
	ErrMissingSignature     = errors.New("missing signature or body")
	ErrWebhookNotConfigured = errors.New("webhook secret not configured")
	ErrInvalidSignature     = errors.New("invalid signature")
	ErrMalformedPayload     = errors.New("malformed payload")
	ErrNoSubscription       = errors.New("payment is not tied to a subscription")
	ErrUnknownPlan          = errors.New("subscription references an unknown plan")
)

// Verifier checks a webhook signature against the shared secret.
type Verifier interface {
	VerifyWebhookSignature(body []byte, signature, secret string) bool
}

// Lifecycle is the part of the billing manager the dispatcher drives.
type Lifecycle interface {
	FindByExternalOrder(ctx context.Context, externalID string) (*models.Subscription, error)
	MarkPaid(ctx context.Context, sub *models.Subscription, paymentID, source string) error
	SetStatus(ctx context.Context, sub *models.Subscription, status models.SubscriptionStatus, source string) error
	UpdateAdminLimits(ctx context.Context, adminID string, plan models.Plan, subscriptionID string) error
	EnforceFreeLimits(ctx context.Context, adminID string) error
	MigrateToFreePlan(ctx context.Context, adminID, source string) (*models.Subscription, error)
}

// Result is the outcome of one delivery, ready for the HTTP layer.
type Result struct {
	Status    int
	Event     string
	Message   string
	Duplicate bool
	Err       error
}

type Dispatcher struct {
	secret    string
	verifier  Verifier
	lifecycle Lifecycle
	catalog   *plans.Catalog
	ledger    Ledger
}

func NewDispatcher(secret string, verifier Verifier, lifecycle Lifecycle, catalog *plans.Catalog, ledger Ledger) *Dispatcher {
	return &Dispatcher{
		secret:    secret,
		verifier:  verifier,
		lifecycle: lifecycle,
		catalog:   catalog,
		ledger:    ledger,
	}
}

// HandleWebhook validates and applies one delivery. deliveryID is the
// gateway's event id header and may be empty.
func (d *Dispatcher) HandleWebhook(ctx context.Context, body []byte, signature, deliveryID string) (res Result) {
	start := time.Now()
	res.Event = "unknown"
	defer func() {
		metrics.WebhookRequestsTotal.WithLabelValues(res.Event, strconv.Itoa(res.Status)).Inc()
		metrics.WebhookDuration.WithLabelValues(res.Event).Observe(time.Since(start).Seconds())
	}()

	// 1. --- Fail closed before looking at the payload ---
	if len(body) == 0 || strings.TrimSpace(signature) == "" {
		return reject(http.StatusBadRequest, ErrMissingSignature, res.Event)
	}
	if strings.TrimSpace(d.secret) == "" {
		log.Error().Msg("Webhook secret not configured; rejecting delivery")
		return reject(http.StatusInternalServerError, ErrWebhookNotConfigured, res.Event)
	}
	if !d.verifier.VerifyWebhookSignature(body, signature, d.secret) {
		log.Warn().Str("delivery_id", deliveryID).Msg("Webhook signature verification failed")
		return reject(http.StatusBadRequest, ErrInvalidSignature, res.Event)
	}

	// 2. --- Decode ---
	ev, err := Decode(body)
	if err != nil {
		log.Warn().Err(err).Str("delivery_id", deliveryID).Msg("Webhook payload could not be decoded")
		return reject(http.StatusBadRequest, ErrMalformedPayload, res.Event)
	}
	res.Event = ev.Name()

	if _, ok := ev.(Unknown); ok {
		log.Info().Str("type", ev.Name()).Str("delivery_id", deliveryID).Msg("Webhook ignored (unhandled type)")
		res.Status = http.StatusOK
		res.Message = "ignored"
		return res
	}

	// 3. --- Deduplicate ---
	key := deliveryID
	if key == "" {
		key = ev.key()
	}
	claimed, err := d.ledger.Claim(ctx, key)
	if err != nil {
		log.Error().Err(err).Str("type", ev.Name()).Msg("Webhook ledger unavailable")
		return reject(http.StatusInternalServerError, err, res.Event)
	}
	if !claimed {
		log.Info().Str("type", ev.Name()).Str("key", key).Msg("Duplicate webhook delivery acknowledged")
		res.Status = http.StatusOK
		res.Message = "duplicate"
		res.Duplicate = true
		return res
	}

	// 4. --- Dispatch ---
	if err := d.dispatch(ctx, ev); err != nil {
		if relErr := d.ledger.Release(ctx, key); relErr != nil {
			log.Error().Err(relErr).Str("key", key).Msg("Could not release webhook claim")
		}
		log.Error().Err(err).Str("type", ev.Name()).Str("delivery_id", deliveryID).Msg("Webhook processing failed")
		return reject(http.StatusInternalServerError, err, res.Event)
	}

	res.Status = http.StatusOK
	res.Message = "processed"
	return res
}

func reject(status int, err error, event string) Result {
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "processing failed"
		if errors.Is(err, ErrWebhookNotConfigured) {
			msg = "configuration error"
		}
	}
	return Result{Status: status, Event: event, Message: msg, Err: err}
}

func (d *Dispatcher) dispatch(ctx context.Context, ev Event) error {
	switch e := ev.(type) {
	case PaymentCaptured:
		return d.paymentCaptured(ctx, e)
	case SubscriptionActivated:
		return d.subscriptionActivated(ctx, e)
	case SubscriptionCancelled:
		return d.subscriptionCancelled(ctx, e)
	default:
		return nil
	}
}

// staleOrder acknowledges a status event for a gateway order no local row
// refers to any more, e.g. the echo of our own cancel or a replaced order.
// Only payment.captured is retried when its subscription is missing.
func staleOrder(event, externalID string) {
	log.Info().Str("type", event).Str("external_order_id", externalID).Msg("Webhook for a stale gateway order; acknowledging")
}

// paymentCaptured is the only event that grants paid entitlement.
func (d *Dispatcher) paymentCaptured(ctx context.Context, e PaymentCaptured) error {
	if e.SubscriptionID == "" {
		return fmt.Errorf("payment %s: %w", e.PaymentID, ErrNoSubscription)
	}
	sub, err := d.lifecycle.FindByExternalOrder(ctx, e.SubscriptionID)
	if err != nil {
		return fmt.Errorf("payment %s for %s: %w", e.PaymentID, e.SubscriptionID, err)
	}
	if sub.PlanID == models.FreePlanID {
		log.Info().Str("subscription_id", sub.ID).Msg("Payment captured for free plan subscription; ignoring")
		return nil
	}
	plan, ok := d.catalog.Find(sub.PlanID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlan, sub.PlanID)
	}

	if err := d.lifecycle.MarkPaid(ctx, sub, e.PaymentID, "webhook:"+e.Name()); err != nil {
		return err
	}
	if err := d.lifecycle.UpdateAdminLimits(ctx, sub.AdminID, plan, sub.ID); err != nil {
		return err
	}

	log.Info().
		Str("admin_id", sub.AdminID).
		Str("subscription_id", sub.ID).
		Str("plan_id", plan.ID).
		Str("payment_id", e.PaymentID).
		Msg("Payment captured, paid limits granted")
	return nil
}

// subscriptionActivated never grants entitlement; payment may not have cleared.
func (d *Dispatcher) subscriptionActivated(ctx context.Context, e SubscriptionActivated) error {
	sub, err := d.lifecycle.FindByExternalOrder(ctx, e.SubscriptionID)
	if errors.Is(err, billing.ErrSubscriptionNotFound) {
		staleOrder(e.Name(), e.SubscriptionID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("activation for %s: %w", e.SubscriptionID, err)
	}
	if sub.PlanID == models.FreePlanID {
		return nil
	}
	if sub.Status == models.StatusActive && sub.PaymentCaptured() {
		// Capture arrived first; keep the paid state.
		log.Info().Str("subscription_id", sub.ID).Msg("Activation after captured payment; nothing to do")
		return nil
	}

	if err := d.lifecycle.SetStatus(ctx, sub, models.StatusPendingPayment, "webhook:"+e.Name()); err != nil {
		return err
	}
	return d.lifecycle.EnforceFreeLimits(ctx, sub.AdminID)
}

func (d *Dispatcher) subscriptionCancelled(ctx context.Context, e SubscriptionCancelled) error {
	sub, err := d.lifecycle.FindByExternalOrder(ctx, e.SubscriptionID)
	if errors.Is(err, billing.ErrSubscriptionNotFound) {
		staleOrder(e.Name(), e.SubscriptionID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("cancellation for %s: %w", e.SubscriptionID, err)
	}
	source := "webhook:" + e.Name()
	if err := d.lifecycle.SetStatus(ctx, sub, models.StatusCancelled, source); err != nil {
		return err
	}
	if _, err := d.lifecycle.MigrateToFreePlan(ctx, sub.AdminID, source); err != nil {
		return err
	}
	log.Info().Str("admin_id", sub.AdminID).Str("subscription_id", sub.ID).Msg("Subscription cancelled by gateway")
	return nil
}
