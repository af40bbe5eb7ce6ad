package webhooks

import (
	"encoding/json"
	"fmt"
)

// Event is one decoded gateway notification. The set of implementations is
// closed; anything we do not handle decodes to Unknown.
type Event interface {
	Name() string
	key() string
}

type PaymentCaptured struct {
	PaymentID      string
	SubscriptionID string
}

type SubscriptionActivated struct {
	SubscriptionID string
}

type SubscriptionCancelled struct {
	SubscriptionID string
}

type Unknown struct {
	Type    string
	Payload json.RawMessage
}

func (PaymentCaptured) Name() string       { return "payment.captured" }
func (SubscriptionActivated) Name() string { return "subscription.activated" }
func (SubscriptionCancelled) Name() string { return "subscription.cancelled" }
func (u Unknown) Name() string             { return u.Type }

func (e PaymentCaptured) key() string       { return e.Name() + ":" + e.PaymentID }
func (e SubscriptionActivated) key() string { return e.Name() + ":" + e.SubscriptionID }
func (e SubscriptionCancelled) key() string { return e.Name() + ":" + e.SubscriptionID }
func (u Unknown) key() string               { return "" }

type envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

type entityPayload struct {
	Payment *struct {
		Entity struct {
			ID             string `json:"id"`
			SubscriptionID string `json:"subscription_id"`
		} `json:"entity"`
	} `json:"payment"`
	Subscription *struct {
		Entity struct {
			ID string `json:"id"`
		} `json:"entity"`
	} `json:"subscription"`
}

// Decode parses a raw webhook body into a typed event.
func Decode(body []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode webhook envelope: %w", err)
	}
	if env.Event == "" {
		return nil, fmt.Errorf("decode webhook envelope: missing event name")
	}

	switch env.Event {
	case "payment.captured", "subscription.activated", "subscription.cancelled":
	default:
		return Unknown{Type: env.Event, Payload: env.Payload}, nil
	}

	var p entityPayload
	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", env.Event, err)
		}
	}
	if env.Event == "payment.captured" {
		// The subscription id is read from the payment only; the dispatcher
		// rejects a payment without one.
		if p.Payment == nil || p.Payment.Entity.ID == "" {
			return nil, fmt.Errorf("decode %s payload: missing payment id", env.Event)
		}
		return PaymentCaptured{
			PaymentID:      p.Payment.Entity.ID,
			SubscriptionID: p.Payment.Entity.SubscriptionID,
		}, nil
	}

	subscriptionID := ""
	if p.Subscription != nil {
		subscriptionID = p.Subscription.Entity.ID
	}
	switch env.Event {
	case "subscription.activated":
		return SubscriptionActivated{SubscriptionID: subscriptionID}, nil
	default:
		return SubscriptionCancelled{SubscriptionID: subscriptionID}, nil
	}
}
