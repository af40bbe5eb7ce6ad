package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubscriptions struct {
	created   map[string]interface{}
	cancelled string
	reply     map[string]interface{}
	err       error
	block     chan struct{}
}

func (f *fakeSubscriptions) Create(data map[string]interface{}, _ map[string]string) (map[string]interface{}, error) {
	if f.block != nil {
		<-f.block
	}
	f.created = data
	return f.reply, f.err
}

func (f *fakeSubscriptions) Cancel(id string, _ map[string]interface{}, _ map[string]string) (map[string]interface{}, error) {
	if f.block != nil {
		<-f.block
	}
	f.cancelled = id
	return f.reply, f.err
}

type fakePlans struct {
	created map[string]interface{}
}

func (f *fakePlans) Create(data map[string]interface{}, _ map[string]string) (map[string]interface{}, error) {
	f.created = data
	return map[string]interface{}{"id": "plan_abc"}, nil
}

func sign(body, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestCreateSubscriptionSendsGatewayFields(t *testing.T) {
	subs := &fakeSubscriptions{reply: map[string]interface{}{
		"id": "sub_123", "status": "created", "short_url": "https://rzp.io/i/abc",
	}}
	gw := &Razorpay{subscriptions: subs, timeout: time.Second}

	start := time.Unix(1_800_000_000, 0)
	got, err := gw.CreateSubscription(context.Background(), SubscriptionRequest{
		PlanID: "plan_pro", CustomerNotify: true, Quantity: 1, TotalCount: 12,
		StartAt: start, Notes: map[string]string{"adminId": "a1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "sub_123", got.ID)
	assert.Equal(t, "https://rzp.io/i/abc", got.ShortURL)

	assert.Equal(t, "plan_pro", subs.created["plan_id"])
	assert.Equal(t, 1, subs.created["customer_notify"])
	assert.Equal(t, 12, subs.created["total_count"])
	assert.Equal(t, start.Unix(), subs.created["start_at"])
	assert.Equal(t, map[string]string{"adminId": "a1"}, subs.created["notes"])
}

func TestCreateSubscriptionWrapsSDKError(t *testing.T) {
	gw := &Razorpay{subscriptions: &fakeSubscriptions{err: errors.New("bad request")}, timeout: time.Second}

	_, err := gw.CreateSubscription(context.Background(), SubscriptionRequest{PlanID: "p"})
	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "create_subscription", gwErr.Op)
}

func TestCancelSubscriptionTimesOut(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	gw := &Razorpay{subscriptions: &fakeSubscriptions{block: block}, timeout: 20 * time.Millisecond}

	_, err := gw.CancelSubscription(context.Background(), "sub_123")
	assert.ErrorIs(t, err, ErrGatewayTimeout)
}

func TestCancelSubscriptionReturnsStatus(t *testing.T) {
	subs := &fakeSubscriptions{reply: map[string]interface{}{"id": "sub_123", "status": "cancelled"}}
	gw := &Razorpay{subscriptions: subs, timeout: time.Second}

	res, err := gw.CancelSubscription(context.Background(), "sub_123")
	require.NoError(t, err)
	assert.Equal(t, "cancelled", res.Status)
	assert.Equal(t, "sub_123", subs.cancelled)
}

func TestCreatePlan(t *testing.T) {
	plans := &fakePlans{}
	gw := &Razorpay{plans: plans, timeout: time.Second}

	id, err := gw.CreatePlan(context.Background(), PlanRequest{
		Name: "Pro (monthly)", Period: "monthly", Interval: 1, Amount: 149900, Currency: "INR",
	})
	require.NoError(t, err)
	assert.Equal(t, "plan_abc", id)

	item := plans.created["item"].(map[string]interface{})
	assert.Equal(t, int64(149900), item["amount"])
	assert.Equal(t, "INR", item["currency"])
}

func TestVerifyWebhookSignature(t *testing.T) {
	gw := &Razorpay{}
	body := `{"event":"payment.captured"}`

	assert.True(t, gw.VerifyWebhookSignature([]byte(body), sign(body, "whsec"), "whsec"))
	assert.False(t, gw.VerifyWebhookSignature([]byte(body), sign(body, "other"), "whsec"))
	assert.False(t, gw.VerifyWebhookSignature([]byte(body), "", "whsec"))
	assert.False(t, gw.VerifyWebhookSignature([]byte(body), sign(body, ""), ""))
	assert.False(t, gw.VerifyWebhookSignature(nil, "abc", "whsec"))
}
