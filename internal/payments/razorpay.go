package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/01moynul/projectforge-golang/internal/config"
	"github.com/01moynul/projectforge-golang/internal/metrics"
	"github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"
)

// The SDK resources we call, narrowed so tests can swap them.
type subscriptionAPI interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
	Cancel(subscriptionID string, data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

type planAPI interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// Razorpay implements Gateway on top of razorpay-go.
type Razorpay struct {
	subscriptions subscriptionAPI
	plans         planAPI
	timeout       time.Duration
}

func NewRazorpay(cfg config.RazorpayConfig) *Razorpay {
	client := razorpay.NewClient(cfg.KeyID, cfg.KeySecret)
	return &Razorpay{
		subscriptions: client.Subscription,
		plans:         client.Plan,
		timeout:       cfg.Timeout,
	}
}

func (r *Razorpay) CreatePlan(ctx context.Context, req PlanRequest) (string, error) {
	data := map[string]interface{}{
		"period":   req.Period,
		"interval": req.Interval,
		"item": map[string]interface{}{
			"name":     req.Name,
			"amount":   req.Amount,
			"currency": req.Currency,
		},
	}
	if len(req.Notes) > 0 {
		data["notes"] = req.Notes
	}
	body, err := r.call(ctx, "create_plan", func() (map[string]interface{}, error) {
		return r.plans.Create(data, nil)
	})
	if err != nil {
		return "", err
	}
	id := stringField(body, "id")
	if id == "" {
		return "", &GatewayError{Op: "create_plan", Err: errors.New("response has no plan id")}
	}
	return id, nil
}

func (r *Razorpay) CreateSubscription(ctx context.Context, req SubscriptionRequest) (*GatewaySubscription, error) {
	notify := 0
	if req.CustomerNotify {
		notify = 1
	}
	data := map[string]interface{}{
		"plan_id":         req.PlanID,
		"customer_notify": notify,
		"quantity":        req.Quantity,
		"total_count":     req.TotalCount,
		"start_at":        req.StartAt.Unix(),
		"notes":           req.Notes,
	}
	body, err := r.call(ctx, "create_subscription", func() (map[string]interface{}, error) {
		return r.subscriptions.Create(data, nil)
	})
	if err != nil {
		return nil, err
	}
	sub := &GatewaySubscription{
		ID:       stringField(body, "id"),
		Status:   stringField(body, "status"),
		ShortURL: stringField(body, "short_url"),
	}
	if sub.ID == "" {
		return nil, &GatewayError{Op: "create_subscription", Err: errors.New("response has no subscription id")}
	}
	return sub, nil
}

func (r *Razorpay) CancelSubscription(ctx context.Context, externalID string) (*CancelResult, error) {
	body, err := r.call(ctx, "cancel_subscription", func() (map[string]interface{}, error) {
		return r.subscriptions.Cancel(externalID, map[string]interface{}{"cancel_at_cycle_end": 0}, nil)
	})
	if err != nil {
		return nil, err
	}
	return &CancelResult{ID: stringField(body, "id"), Status: stringField(body, "status")}, nil
}

// VerifyWebhookSignature checks the HMAC-SHA256 hex signature of body.
func (r *Razorpay) VerifyWebhookSignature(body []byte, signature, secret string) bool {
	if len(body) == 0 || signature == "" || secret == "" {
		return false
	}
	return utils.VerifyWebhookSignature(string(body), signature, secret)
}

// call runs one blocking SDK request under the configured timeout. The SDK
// takes no context, so a timed-out request is abandoned, not aborted.
func (r *Razorpay) call(ctx context.Context, op string, fn func() (map[string]interface{}, error)) (map[string]interface{}, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	type reply struct {
		body map[string]interface{}
		err  error
	}
	done := make(chan reply, 1)
	go func() {
		body, err := fn()
		done <- reply{body: body, err: err}
	}()

	select {
	case <-ctx.Done():
		metrics.GatewayCallsTotal.WithLabelValues(op, "timeout").Inc()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &GatewayError{Op: op, Err: ErrGatewayTimeout}
		}
		return nil, &GatewayError{Op: op, Err: ctx.Err()}
	case rep := <-done:
		if rep.err != nil {
			metrics.GatewayCallsTotal.WithLabelValues(op, "error").Inc()
			return nil, &GatewayError{Op: op, Err: rep.err}
		}
		metrics.GatewayCallsTotal.WithLabelValues(op, "success").Inc()
		return rep.body, nil
	}
}

func stringField(m map[string]interface{}, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
