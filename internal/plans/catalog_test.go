package plans

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/01moynul/projectforge-golang/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogHasOneFreePlan(t *testing.T) {
	c := Default()

	free := c.Free()
	assert.Equal(t, models.FreePlanID, free.ID)
	assert.False(t, free.Unlimited)

	pro, ok := c.Find("pro")
	require.True(t, ok)
	assert.True(t, pro.Unlimited)

	_, ok = c.Find("platinum")
	assert.False(t, ok)

	all := c.All()
	require.Len(t, all, 3)
	assert.Equal(t, "free", all[0].ID)
	assert.Equal(t, "enterprise", all[2].ID)
}

func TestNewRejectsInvalidCatalogs(t *testing.T) {
	cases := map[string][]models.Plan{
		"no free plan":   {{ID: "pro"}},
		"two free plans": {{ID: "free"}, {ID: "free"}},
		"empty id":       {{ID: "free"}, {ID: ""}},
		"negative limit": {{ID: "free", ProjectLimit: -1}},
		"negative price": {{ID: "free"}, {ID: "pro", MonthlyPrice: -5}},
	}
	for name, plans := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := New(plans)
			assert.Error(t, err)
		})
	}
}

func TestDailyResearchLimit(t *testing.T) {
	assert.Equal(t, 3, DailyResearchLimit("free"))
	assert.Equal(t, 1000, DailyResearchLimit("pro"))
	assert.Equal(t, 5000, DailyResearchLimit("enterprise"))
	assert.Equal(t, 3, DailyResearchLimit("something-else"))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plans.yaml")
	body := `
plans:
  - id: free
    name: Free
    projectLimit: 1
    employeeLimit: 2
    documentLimit: 3
    researchLimit: 3
    dailyResearchLimit: 3
  - id: team
    name: Team
    monthlyPrice: 10
    yearlyPrice: 100
    projectLimit: 10
    gatewayMonthlyPlanId: plan_team_m
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	c, err := LoadFile(path)
	require.NoError(t, err)

	team, ok := c.Find("team")
	require.True(t, ok)
	assert.Equal(t, 10.0, team.Price(models.BillingMonthly))
	assert.Equal(t, 100.0, team.Price(models.BillingYearly))
	assert.Equal(t, "plan_team_m", team.GatewayPlanID(models.BillingMonthly))
	assert.Empty(t, team.GatewayPlanID(models.BillingYearly))
	assert.Equal(t, 1, c.Free().ProjectLimit)
}

func TestBillingCycleArithmetic(t *testing.T) {
	start := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, 1, models.BillingMonthly.TotalCount())
	assert.Equal(t, 12, models.BillingYearly.TotalCount())
	assert.Equal(t, start.AddDate(0, 1, 0), models.BillingMonthly.EndDate(start))
	assert.Equal(t, start.AddDate(1, 0, 0), models.BillingYearly.EndDate(start))
	assert.False(t, models.BillingCycle("weekly").Valid())
}

func TestEntitlementCappedAtFreePlan(t *testing.T) {
	free := Default().Free()
	pro, _ := Default().Find("pro")

	ent := pro.Entitlement(time.Now())
	capped, changed := ent.CappedAt(free)
	assert.True(t, changed)
	assert.True(t, capped.EqualLimits(free.Entitlement(time.Now())))

	_, changed = free.Entitlement(time.Now()).CappedAt(free)
	assert.False(t, changed)
}
