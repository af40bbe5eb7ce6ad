package models

import "time"

// SubscriptionStatus is the lifecycle state of a tenant's subscription.
type SubscriptionStatus string

const (
	StatusPending        SubscriptionStatus = "pending"
	StatusPendingPayment SubscriptionStatus = "pending_payment"
	StatusActive         SubscriptionStatus = "active"
	StatusCancelled      SubscriptionStatus = "cancelled"
)

// Subscription defines the model for the 'subscriptions' table.
// There is at most one row per admin.
type Subscription struct {
	ID                string             `json:"id"`
	AdminID           string             `json:"adminId"`
	PlanID            string             `json:"planId"`
	Status            SubscriptionStatus `json:"status"`
	BillingCycle      BillingCycle       `json:"billingCycle"`
	StartDate         time.Time          `json:"startDate"`
	EndDate           time.Time          `json:"endDate"`
	ExternalOrderID   *string            `json:"externalOrderId,omitempty"`   // gateway subscription id
	ExternalPaymentID *string            `json:"externalPaymentId,omitempty"` // gateway payment id
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`
}

// IsPaidActive reports whether the subscription is an active paid plan.
func (s *Subscription) IsPaidActive() bool {
	return s != nil && s.Status == StatusActive && s.PlanID != FreePlanID
}

// PaymentCaptured reports whether a gateway payment has been recorded.
func (s *Subscription) PaymentCaptured() bool {
	return s != nil && s.ExternalPaymentID != nil && *s.ExternalPaymentID != ""
}

// SubscriptionEvent is one row of the append-only 'subscription_events' table.
type SubscriptionEvent struct {
	ID             string             `json:"id"`
	SubscriptionID string             `json:"subscriptionId"`
	AdminID        string             `json:"adminId"`
	PlanID         string             `json:"planId"`
	Status         SubscriptionStatus `json:"status"`
	Source         string             `json:"source"` // e.g. api, webhook:payment.captured
	Detail         string             `json:"detail,omitempty"`
	CreatedAt      time.Time          `json:"createdAt"`
}
