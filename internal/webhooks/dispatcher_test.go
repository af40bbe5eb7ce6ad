package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/01moynul/projectforge-golang/internal/billing"
	"github.com/01moynul/projectforge-golang/internal/models"
	"github.com/01moynul/projectforge-golang/internal/payments"
	"github.com/01moynul/projectforge-golang/internal/plans"
	"github.com/01moynul/projectforge-golang/internal/store"
	"github.com/01moynul/projectforge-golang/internal/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test"

type fixture struct {
	st         *store.Store
	manager    *billing.Manager
	dispatcher *Dispatcher
	adminID    string
	subID      string
}

// cancelGateway confirms every cancellation; nothing else is called by these tests.
type cancelGateway struct{ payments.Gateway }

func (cancelGateway) CancelSubscription(_ context.Context, id string) (*payments.CancelResult, error) {
	return &payments.CancelResult{ID: id, Status: "cancelled"}, nil
}

// newFixture sets up a tenant that has just asked for the pro plan and is
// waiting on gateway subscription order_123.
func newFixture(t *testing.T, secret string) *fixture {
	t.Helper()
	ctx := context.Background()
	st := storetest.New(t)
	catalog := plans.Default()
	manager := billing.NewManager(st, catalog, cancelGateway{}, billing.Options{})

	admin := storetest.SeedAdmin(t, st, models.Entitlement{})
	_, err := manager.MigrateToFreePlan(ctx, admin.ID, "signup")
	require.NoError(t, err)

	order := "order_123"
	now := time.Now().UTC()
	sub, err := st.UpsertSubscription(ctx, &models.Subscription{
		AdminID: admin.ID, PlanID: "pro", Status: models.StatusPending, BillingCycle: models.BillingMonthly,
		StartDate: now, EndDate: now.AddDate(0, 1, 0), ExternalOrderID: &order,
	})
	require.NoError(t, err)
	require.NoError(t, st.SetAdminSubscription(ctx, admin.ID, sub.ID))

	return &fixture{
		st:         st,
		manager:    manager,
		dispatcher: NewDispatcher(secret, &payments.Razorpay{}, manager, catalog, NewMemoryLedger(time.Hour)),
		adminID:    admin.ID,
		subID:      sub.ID,
	}
}

func (f *fixture) deliver(t *testing.T, body, deliveryID string) Result {
	t.Helper()
	return f.dispatcher.HandleWebhook(context.Background(), []byte(body), sign(body, testSecret), deliveryID)
}

func (f *fixture) admin(t *testing.T) *models.Admin {
	t.Helper()
	a, err := f.st.GetAdmin(context.Background(), f.adminID)
	require.NoError(t, err)
	return a
}

func (f *fixture) subscription(t *testing.T) *models.Subscription {
	t.Helper()
	s, err := f.st.GetSubscriptionByAdmin(context.Background(), f.adminID)
	require.NoError(t, err)
	return s
}

func sign(body, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func capturedBody(paymentID, subscriptionID string) string {
	return fmt.Sprintf(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":%q,"subscription_id":%q,"amount":149900}}}}`,
		paymentID, subscriptionID)
}

func subscriptionBody(event, subscriptionID string) string {
	return fmt.Sprintf(`{"event":%q,"payload":{"subscription":{"entity":{"id":%q,"status":"active"}}}}`,
		event, subscriptionID)
}

func freeLimits() models.Entitlement {
	return plans.Default().Free().Entitlement(time.Time{})
}

func TestPaymentCapturedGrantsPlanLimits(t *testing.T) {
	f := newFixture(t, testSecret)

	res := f.deliver(t, capturedBody("pay_1", "order_123"), "evt_1")
	require.Equal(t, http.StatusOK, res.Status, res.Message)
	assert.Equal(t, "payment.captured", res.Event)

	sub := f.subscription(t)
	assert.Equal(t, models.StatusActive, sub.Status)
	require.NotNil(t, sub.ExternalPaymentID)
	assert.Equal(t, "pay_1", *sub.ExternalPaymentID)

	pro, _ := plans.Default().Find("pro")
	a := f.admin(t)
	assert.Equal(t, pro.ProjectLimit, a.RemainingProjectLimit)
	assert.Equal(t, pro.EmployeeLimit, a.RemainingEmployeeLimit)
	assert.Equal(t, pro.DocumentLimit, a.RemainingDocumentLimit)
	assert.Equal(t, 1000, a.DailyResearchLimit)
}

func TestDuplicateDeliveryIsAcknowledgedWithoutSideEffects(t *testing.T) {
	f := newFixture(t, testSecret)
	ctx := context.Background()

	require.Equal(t, http.StatusOK, f.deliver(t, capturedBody("pay_1", "order_123"), "evt_1").Status)
	before, err := f.st.ListSubscriptionEvents(ctx, f.adminID)
	require.NoError(t, err)
	_, err = f.st.DecrementLimit(ctx, f.adminID, store.CounterProjects)
	require.NoError(t, err)

	res := f.deliver(t, capturedBody("pay_1", "order_123"), "evt_1")
	assert.Equal(t, http.StatusOK, res.Status)
	assert.True(t, res.Duplicate)

	after, err := f.st.ListSubscriptionEvents(ctx, f.adminID)
	require.NoError(t, err)
	assert.Len(t, after, len(before))

	pro, _ := plans.Default().Find("pro")
	assert.Equal(t, pro.ProjectLimit-1, f.admin(t).RemainingProjectLimit)
}

func TestDuplicateWithoutDeliveryIDUsesPaymentID(t *testing.T) {
	f := newFixture(t, testSecret)

	require.Equal(t, http.StatusOK, f.deliver(t, capturedBody("pay_1", "order_123"), "").Status)
	res := f.deliver(t, capturedBody("pay_1", "order_123"), "")
	assert.True(t, res.Duplicate)
}

func TestSubscriptionCancelledMigratesToFree(t *testing.T) {
	f := newFixture(t, testSecret)
	require.Equal(t, http.StatusOK, f.deliver(t, capturedBody("pay_1", "order_123"), "evt_1").Status)

	res := f.deliver(t, subscriptionBody("subscription.cancelled", "order_123"), "evt_2")
	require.Equal(t, http.StatusOK, res.Status, res.Message)

	sub := f.subscription(t)
	assert.Equal(t, models.FreePlanID, sub.PlanID)
	assert.Equal(t, models.StatusActive, sub.Status)
	assert.True(t, f.admin(t).Entitlement.EqualLimits(freeLimits()))

	events, err := f.st.ListSubscriptionEvents(context.Background(), f.adminID)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(events), 2)
	assert.Equal(t, models.StatusCancelled, events[len(events)-2].Status)
	assert.Equal(t, "webhook:subscription.cancelled", events[len(events)-2].Source)
}

func TestSubscriptionActivatedDoesNotGrant(t *testing.T) {
	f := newFixture(t, testSecret)
	ctx := context.Background()
	// Simulate an earlier erroneous elevation.
	require.NoError(t, f.st.SetEntitlement(ctx, f.adminID, models.Entitlement{
		RemainingProjectLimit: 50, RemainingEmployeeLimit: 50, RemainingDocumentLimit: 500,
		RemainingResearchLimit: 1000, DailyResearchLimit: 1000,
	}))

	res := f.deliver(t, subscriptionBody("subscription.activated", "order_123"), "evt_a")
	require.Equal(t, http.StatusOK, res.Status, res.Message)

	assert.Equal(t, models.StatusPendingPayment, f.subscription(t).Status)
	assert.True(t, f.admin(t).Entitlement.EqualLimits(freeLimits()))
}

func TestActivationAfterCaptureKeepsPaidState(t *testing.T) {
	f := newFixture(t, testSecret)
	require.Equal(t, http.StatusOK, f.deliver(t, capturedBody("pay_1", "order_123"), "evt_1").Status)

	res := f.deliver(t, subscriptionBody("subscription.activated", "order_123"), "evt_2")
	require.Equal(t, http.StatusOK, res.Status)

	assert.Equal(t, models.StatusActive, f.subscription(t).Status)
	pro, _ := plans.Default().Find("pro")
	assert.Equal(t, pro.ProjectLimit, f.admin(t).RemainingProjectLimit)
}

func TestRejectedDeliveriesNeverMutate(t *testing.T) {
	body := capturedBody("pay_1", "order_123")
	tests := []struct {
		name      string
		secret    string
		body      string
		signature string
		status    int
		err       error
	}{
		{"bad signature", testSecret, body, sign(body, "attacker"), http.StatusBadRequest, ErrInvalidSignature},
		{"missing signature", testSecret, body, "", http.StatusBadRequest, ErrMissingSignature},
		{"missing body", testSecret, "", "abc", http.StatusBadRequest, ErrMissingSignature},
		{"no secret configured", "", body, sign(body, ""), http.StatusInternalServerError, ErrWebhookNotConfigured},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, tc.secret)
			res := f.dispatcher.HandleWebhook(context.Background(), []byte(tc.body), tc.signature, "evt_1")
			assert.Equal(t, tc.status, res.Status)
			assert.ErrorIs(t, res.Err, tc.err)

			assert.Equal(t, models.StatusPending, f.subscription(t).Status)
			assert.True(t, f.admin(t).Entitlement.EqualLimits(freeLimits()))
		})
	}
}

func TestMissingSecretReportsConfigurationError(t *testing.T) {
	f := newFixture(t, "")
	body := capturedBody("pay_1", "order_123")
	res := f.dispatcher.HandleWebhook(context.Background(), []byte(body), "sig", "")
	assert.Equal(t, "configuration error", res.Message)
}

func TestUnknownEventIsNoOp(t *testing.T) {
	f := newFixture(t, testSecret)
	ctx := context.Background()
	before, err := f.st.ListSubscriptionEvents(ctx, f.adminID)
	require.NoError(t, err)

	res := f.deliver(t, `{"event":"invoice.paid","payload":{"invoice":{"entity":{"id":"inv_1"}}}}`, "evt_x")
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "invoice.paid", res.Event)

	after, err := f.st.ListSubscriptionEvents(ctx, f.adminID)
	require.NoError(t, err)
	assert.Len(t, after, len(before))
	assert.Equal(t, models.StatusPending, f.subscription(t).Status)
}

func TestCaptureForUnknownSubscriptionFailsAndCanBeRetried(t *testing.T) {
	f := newFixture(t, testSecret)

	res := f.deliver(t, capturedBody("pay_9", "order_missing"), "evt_9")
	assert.Equal(t, http.StatusInternalServerError, res.Status)
	assert.ErrorIs(t, res.Err, billing.ErrSubscriptionNotFound)
	assert.True(t, f.admin(t).Entitlement.EqualLimits(freeLimits()))

	// The claim was released, so the retry is processed rather than deduplicated.
	res = f.deliver(t, capturedBody("pay_9", "order_missing"), "evt_9")
	assert.Equal(t, http.StatusInternalServerError, res.Status)
	assert.False(t, res.Duplicate)
}

func TestCaptureWithoutSubscriptionID(t *testing.T) {
	f := newFixture(t, testSecret)

	res := f.deliver(t, `{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1"}}}}`, "")
	assert.Equal(t, http.StatusInternalServerError, res.Status)
	assert.ErrorIs(t, res.Err, ErrNoSubscription)
}

func TestMalformedPayload(t *testing.T) {
	f := newFixture(t, testSecret)
	res := f.deliver(t, `{"event":`, "")
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.ErrorIs(t, res.Err, ErrMalformedPayload)
}

func TestCancelEchoForOwnCancellationIsAcknowledged(t *testing.T) {
	f := newFixture(t, testSecret)
	ctx := context.Background()
	require.Equal(t, http.StatusOK, f.deliver(t, capturedBody("pay_1", "order_123"), "evt_1").Status)

	res := f.manager.CancelSubscription(ctx, f.subID)
	require.True(t, res.Success, res.Error)
	before, err := f.st.ListSubscriptionEvents(ctx, f.adminID)
	require.NoError(t, err)

	// The gateway reports the cancellation we asked for, possibly more than once.
	for i := 0; i < 3; i++ {
		res := f.deliver(t, subscriptionBody("subscription.cancelled", "order_123"), fmt.Sprintf("evt_echo_%d", i))
		assert.Equal(t, http.StatusOK, res.Status, res.Message)
		assert.NoError(t, res.Err)
	}

	after, err := f.st.ListSubscriptionEvents(ctx, f.adminID)
	require.NoError(t, err)
	assert.Len(t, after, len(before))
	sub := f.subscription(t)
	assert.Equal(t, models.FreePlanID, sub.PlanID)
	assert.Equal(t, models.StatusActive, sub.Status)
}

func TestActivationForReplacedOrderIsAcknowledged(t *testing.T) {
	f := newFixture(t, testSecret)

	res := f.deliver(t, subscriptionBody("subscription.activated", "order_replaced"), "evt_old")
	assert.Equal(t, http.StatusOK, res.Status, res.Message)
	assert.NoError(t, res.Err)
	assert.Equal(t, models.StatusPending, f.subscription(t).Status)
}

func TestCaptureWithoutPaymentIDIsMalformed(t *testing.T) {
	f := newFixture(t, testSecret)
	body := `{"event":"payment.captured","payload":{"payment":{"entity":{"subscription_id":"order_123"}}}}`

	res := f.deliver(t, body, "")
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.ErrorIs(t, res.Err, ErrMalformedPayload)

	sub := f.subscription(t)
	assert.Equal(t, models.StatusPending, sub.Status)
	assert.Nil(t, sub.ExternalPaymentID)
	assert.True(t, f.admin(t).Entitlement.EqualLimits(freeLimits()))
}
