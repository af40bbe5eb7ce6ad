// Package plans holds the read-only plan catalog.
package plans

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/01moynul/projectforge-golang/internal/models"
	"gopkg.in/yaml.v3"
)

var ErrNoFreePlan = errors.New("catalog must contain exactly one free plan")

// Catalog is an immutable set of plans keyed by id.
type Catalog struct {
	byID map[string]models.Plan
	free models.Plan
}

// New validates plans and builds a catalog from them.
func New(plans []models.Plan) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]models.Plan, len(plans))}
	freeCount := 0
	for _, p := range plans {
		if p.ID == "" {
			return nil, errors.New("plan id is required")
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate plan id %q", p.ID)
		}
		if p.EmployeeLimit < 0 || p.DocumentLimit < 0 || p.ProjectLimit < 0 ||
			p.ResearchLimit < 0 || p.DailyResearchLimit < 0 {
			return nil, fmt.Errorf("plan %q has a negative limit", p.ID)
		}
		if p.MonthlyPrice < 0 || p.YearlyPrice < 0 {
			return nil, fmt.Errorf("plan %q has a negative price", p.ID)
		}
		if p.IsFree() {
			freeCount++
			c.free = p
		}
		c.byID[p.ID] = p
	}
	if freeCount != 1 {
		return nil, ErrNoFreePlan
	}
	return c, nil
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(defaultPlans)
	if err != nil {
		panic(err)
	}
	return c
}

// LoadFile reads a YAML list of plans from path.
func LoadFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan catalog: %w", err)
	}
	var file struct {
		Plans []models.Plan `yaml:"plans"`
	}
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode plan catalog: %w", err)
	}
	return New(file.Plans)
}

// Find looks up a plan by id.
func (c *Catalog) Find(id string) (models.Plan, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// Free returns the fallback plan.
func (c *Catalog) Free() models.Plan {
	return c.free
}

// All returns every plan, cheapest first.
func (c *Catalog) All() []models.Plan {
	out := make([]models.Plan, 0, len(c.byID))
	for _, p := range c.byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MonthlyPrice == out[j].MonthlyPrice {
			return out[i].ID < out[j].ID
		}
		return out[i].MonthlyPrice < out[j].MonthlyPrice
	})
	return out
}

// DailyResearchLimit is the per-day research allowance for a plan id.
func DailyResearchLimit(planID string) int {
	switch planID {
	case "free":
		return 3
	case "pro":
		return 1000
	case "enterprise":
		return 5000
	default:
		return 3
	}
}
