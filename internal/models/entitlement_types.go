package models

import "time"

// Entitlement holds the remaining-usage counters embedded on the admin record.
type Entitlement struct {
	RemainingProjectLimit  int       `json:"remainingProjectLimit"`
	RemainingEmployeeLimit int       `json:"remainingEmployeeLimit"`
	RemainingDocumentLimit int       `json:"remainingDocumentLimit"`
	RemainingResearchLimit int       `json:"remainingResearchLimit"`
	DailyResearchLimit     int       `json:"dailyResearchLimit"`
	LastLimitResetDate     time.Time `json:"lastLimitResetDate"`
}

// CappedAt returns a copy with every counter lowered to at most the plan's limits.
// The second return value reports whether anything changed.
func (e Entitlement) CappedAt(p Plan) (Entitlement, bool) {
	changed := false
	capField := func(v *int, limit int) {
		if *v > limit {
			*v = limit
			changed = true
		}
	}
	capField(&e.RemainingProjectLimit, p.ProjectLimit)
	capField(&e.RemainingEmployeeLimit, p.EmployeeLimit)
	capField(&e.RemainingDocumentLimit, p.DocumentLimit)
	capField(&e.RemainingResearchLimit, p.ResearchLimit)
	capField(&e.DailyResearchLimit, p.DailyResearchLimit)
	return e, changed
}

// EqualLimits compares the counters, ignoring the reset date.
func (e Entitlement) EqualLimits(o Entitlement) bool {
	return e.RemainingProjectLimit == o.RemainingProjectLimit &&
		e.RemainingEmployeeLimit == o.RemainingEmployeeLimit &&
		e.RemainingDocumentLimit == o.RemainingDocumentLimit &&
		e.RemainingResearchLimit == o.RemainingResearchLimit &&
		e.DailyResearchLimit == o.DailyResearchLimit
}
