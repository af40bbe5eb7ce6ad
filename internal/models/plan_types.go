package models

import "time"

// FreePlanID is the universal fallback plan every tenant can return to.
const FreePlanID = "free"

// BillingCycle is how often a paid plan is charged.
type BillingCycle string

const (
	BillingMonthly BillingCycle = "monthly"
	BillingYearly  BillingCycle = "yearly"
)

// Valid reports whether the cycle is one we can bill.
func (b BillingCycle) Valid() bool {
	return b == BillingMonthly || b == BillingYearly
}

// EndDate returns the end of one billing period starting at start.
func (b BillingCycle) EndDate(start time.Time) time.Time {
	if b == BillingYearly {
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(0, 1, 0)
}

// TotalCount is the number of charges the gateway makes for the cycle.
func (b BillingCycle) TotalCount() int {
	if b == BillingYearly {
		return 12
	}
	return 1
}

// Plan defines one catalog entry (price and resource limits).
type Plan struct {
	ID                 string  `json:"id" yaml:"id"`
	Name               string  `json:"name" yaml:"name"`
	MonthlyPrice       float64 `json:"monthlyPrice" yaml:"monthlyPrice"`
	YearlyPrice        float64 `json:"yearlyPrice" yaml:"yearlyPrice"`
	EmployeeLimit      int     `json:"employeeLimit" yaml:"employeeLimit"`
	DocumentLimit      int     `json:"documentLimit" yaml:"documentLimit"`
	ProjectLimit       int     `json:"projectLimit" yaml:"projectLimit"`
	ResearchLimit      int     `json:"researchLimit" yaml:"researchLimit"`
	DailyResearchLimit int     `json:"dailyResearchLimit" yaml:"dailyResearchLimit"`

	// Unlimited plans skip the decrement after a resource is created.
	Unlimited bool `json:"unlimited" yaml:"unlimited"`

	// Pre-created gateway plans. When empty a gateway plan is created on demand.
	GatewayMonthlyPlanID string `json:"-" yaml:"gatewayMonthlyPlanId"`
	GatewayYearlyPlanID  string `json:"-" yaml:"gatewayYearlyPlanId"`
}

// IsFree reports whether this is the fallback plan.
func (p Plan) IsFree() bool {
	return p.ID == FreePlanID
}

// Price returns the plan price for the billing cycle.
func (p Plan) Price(cycle BillingCycle) float64 {
	if cycle == BillingYearly {
		return p.YearlyPrice
	}
	return p.MonthlyPrice
}

// GatewayPlanID returns the configured gateway plan for the cycle, if any.
func (p Plan) GatewayPlanID(cycle BillingCycle) string {
	if cycle == BillingYearly {
		return p.GatewayYearlyPlanID
	}
	return p.GatewayMonthlyPlanID
}

// Entitlement returns the plan's limits as fresh counters.
func (p Plan) Entitlement(now time.Time) Entitlement {
	return Entitlement{
		RemainingProjectLimit:  p.ProjectLimit,
		RemainingEmployeeLimit: p.EmployeeLimit,
		RemainingDocumentLimit: p.DocumentLimit,
		RemainingResearchLimit: p.ResearchLimit,
		DailyResearchLimit:     p.DailyResearchLimit,
		LastLimitResetDate:     now,
	}
}
