// Package payments wraps the external payment processor.
package payments

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrGatewayTimeout = errors.New("payment gateway timed out")

// GatewayError is returned for any failed remote call.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// PlanRequest describes a recurring plan to create at the gateway.
// Amount is in the currency's minor unit (paise for INR).
type PlanRequest struct {
	Name     string
	Period   string // daily, weekly, monthly, yearly
	Interval int
	Amount   int64
	Currency string
	Notes    map[string]string
}

// SubscriptionRequest mirrors the gateway's create-subscription body.
type SubscriptionRequest struct {
	PlanID         string
	CustomerNotify bool
	Quantity       int
	TotalCount     int
	StartAt        time.Time
	Notes          map[string]string
}

// GatewaySubscription is the part of the gateway reply we keep.
type GatewaySubscription struct {
	ID       string
	Status   string
	ShortURL string
}

type CancelResult struct {
	ID     string
	Status string
}

// Gateway is the payment processor as seen by the billing and webhook code.
type Gateway interface {
	CreatePlan(ctx context.Context, req PlanRequest) (string, error)
	CreateSubscription(ctx context.Context, req SubscriptionRequest) (*GatewaySubscription, error)
	CancelSubscription(ctx context.Context, externalID string) (*CancelResult, error)
	VerifyWebhookSignature(body []byte, signature, secret string) bool
}
