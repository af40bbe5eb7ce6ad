package handlers

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterValidators(t *testing.T) {
	require.NoError(t, RegisterValidators())
	require.NoError(t, RegisterValidators(), "second call reuses the first registration")

	assert.NoError(t, binding.Validator.ValidateStruct(&CreateSubscriptionInput{PlanID: "pro", BillingCycle: "yearly"}))
	assert.Error(t, binding.Validator.ValidateStruct(&CreateSubscriptionInput{PlanID: "pro", BillingCycle: "weekly"}))
}
