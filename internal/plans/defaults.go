package plans

import "github.com/01moynul/projectforge-golang/internal/models"

// Prices are in INR.
var defaultPlans = []models.Plan{
	{
		ID:                 models.FreePlanID,
		Name:               "Free",
		EmployeeLimit:      5,
		DocumentLimit:      10,
		ProjectLimit:       3,
		ResearchLimit:      3,
		DailyResearchLimit: 3,
	},
	{
		ID:                 "pro",
		Name:               "Pro",
		MonthlyPrice:       1499,
		YearlyPrice:        14990,
		EmployeeLimit:      50,
		DocumentLimit:      500,
		ProjectLimit:       50,
		ResearchLimit:      1000,
		DailyResearchLimit: 1000,
		Unlimited:          true,
	},
	{
		ID:                 "enterprise",
		Name:               "Enterprise",
		MonthlyPrice:       4999,
		YearlyPrice:        49990,
		EmployeeLimit:      500,
		DocumentLimit:      5000,
		ProjectLimit:       500,
		ResearchLimit:      5000,
		DailyResearchLimit: 5000,
		Unlimited:          true,
	},
}
