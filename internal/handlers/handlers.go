package handlers

import (
	"errors"
	"net/http"

	"github.com/01moynul/projectforge-golang/internal/auth"
	"github.com/01moynul/projectforge-golang/internal/billing"
	"github.com/01moynul/projectforge-golang/internal/middleware"
	"github.com/01moynul/projectforge-golang/internal/plans"
	"github.com/01moynul/projectforge-golang/internal/quota"
	"github.com/01moynul/projectforge-golang/internal/research"
	"github.com/01moynul/projectforge-golang/internal/resources"
	"github.com/01moynul/projectforge-golang/internal/store"
	"github.com/01moynul/projectforge-golang/internal/webhooks"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	Store     *store.Store
	Catalog   *plans.Catalog
	Billing   *billing.Manager
	Webhooks  *webhooks.Dispatcher
	Resources *resources.Service
	Tokens    *auth.TokenService
}

// currentAdmin returns the id the auth middleware stored.
func currentAdmin(c *gin.Context) string {
	return c.GetString(middleware.AdminIDKey)
}

// writeServiceError maps domain errors to HTTP responses.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, quota.ErrQuotaExceeded):
		c.JSON(http.StatusForbidden, gin.H{"error": "Plan limit reached, upgrade your plan to create more"})
	case errors.Is(err, quota.ErrSubscriptionPending):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "Subscription payment is pending"})
	case errors.Is(err, quota.ErrAdminNotFound), errors.Is(err, billing.ErrAdminNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Admin not found"})
	case errors.Is(err, resources.ErrProjectNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
	case errors.Is(err, resources.ErrEmployeeExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, research.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Research is not available"})
	default:
		log.Error().Err(err).Str("admin_id", currentAdmin(c)).Str("path", c.FullPath()).Msg("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
