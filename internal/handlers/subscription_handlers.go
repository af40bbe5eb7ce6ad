package handlers

import (
	"errors"
	"net/http"

	"github.com/01moynul/projectforge-golang/internal/billing"
	"github.com/01moynul/projectforge-golang/internal/models"
	"github.com/01moynul/projectforge-golang/internal/payments"
	"github.com/gin-gonic/gin"
)

// GetSubscriptionPlans lists the catalog (public).
func (h *Handlers) GetSubscriptionPlans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"plans": h.Catalog.All()})
}

// GetMySubscription returns plan, subscription and remaining limits.
func (h *Handlers) GetMySubscription(c *gin.Context) {
	status, err := h.Billing.Status(c.Request.Context(), currentAdmin(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// GetMySubscriptionEvents returns the subscription audit trail.
func (h *Handlers) GetMySubscriptionEvents(c *gin.Context) {
	events, err := h.Billing.Events(c.Request.Context(), currentAdmin(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

type CreateSubscriptionInput struct {
	PlanID       string            `json:"planId" binding:"required"`
	BillingCycle string            `json:"billingCycle" binding:"required,billing_cycle"`
	Notes        map[string]string `json:"notes"`
}

// CreateSubscription starts a plan change. Paid plans return a payment link.
func (h *Handlers) CreateSubscription(c *gin.Context) {
	var input CreateSubscriptionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res := h.Billing.CreateSubscription(c.Request.Context(), input.PlanID,
		models.BillingCycle(input.BillingCycle), currentAdmin(c), input.Notes)
	c.JSON(resultStatus(res), res)
}

// CancelSubscription cancels the caller's own subscription.
func (h *Handlers) CancelSubscription(c *gin.Context) {
	ctx := c.Request.Context()
	sub, err := h.Billing.Subscription(ctx, c.Param("id"))
	if errors.Is(err, billing.ErrSubscriptionNotFound) || (err == nil && sub.AdminID != currentAdmin(c)) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found"})
		return
	}
	if err != nil {
		writeServiceError(c, err)
		return
	}

	res := h.Billing.CancelSubscription(ctx, sub.ID)
	c.JSON(resultStatus(res), res)
}

func resultStatus(res billing.Result) int {
	if res.Success {
		return http.StatusOK
	}
	var gwErr *payments.GatewayError
	switch {
	case errors.Is(res.Err, billing.ErrInvalidBillingCycle), errors.Is(res.Err, billing.ErrPlanNotFound):
		return http.StatusBadRequest
	case errors.Is(res.Err, billing.ErrAdminNotFound), errors.Is(res.Err, billing.ErrSubscriptionNotFound):
		return http.StatusNotFound
	case errors.As(res.Err, &gwErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
