// Package catalog serves the diet-plan meal catalog.
package catalog

import (
	"context"
	"math"
	"strings"

	"wellness/internal/domain"
)

// Categories in catalog display order.
var Categories = []string{"Breakfast", "Lunch", "Snacks", "Dinner", "Desert", "Salad", "Juice", "Soup"}

// Meal is one catalog entry.
type Meal struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Position    int    `gorm:"not null;index" json:"-"`
	Title       string `gorm:"not null;uniqueIndex" json:"title"`
	Category    string `gorm:"not null;index" json:"category"`
	CookMinutes int    `gorm:"not null" json:"time"`
	Kcal        int    `gorm:"not null" json:"kcal"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

func (Meal) TableName() string { return "catalog_meals" }

// Range is an inclusive calorie window. Max is +Inf for open ranges.
type Range struct {
	Label string
	Min   float64
	Max   float64
}

// Ranges are the calorie windows offered by the filter.
var Ranges = []Range{
	{Label: "0-500", Min: 0, Max: 500},
	{Label: "500-1000", Min: 500, Max: 1000},
	{Label: "800-2000", Min: 800, Max: 2000},
	{Label: "2000+", Min: 2000, Max: math.Inf(1)},
}

// Filter selects meals by category, cooking time and calorie range.
type Filter struct {
	Category    string
	MaxCookTime int
	Range       Range
}

const (
	defaultCategory = "Breakfast"
	defaultCookTime = 20
	defaultRange    = "0-500"
)

// ParseFilter validates raw filter input. Empty values take the screen
// defaults: Breakfast, 20 minutes, 0-500 kcal.
func ParseFilter(category string, maxCook int, rangeLabel string) (Filter, error) {
	f := Filter{MaxCookTime: maxCook}
	category = strings.TrimSpace(category)
	if category == "" {
		category = defaultCategory
	}
	for _, c := range Categories {
		if strings.EqualFold(c, category) {
			f.Category = c
		}
	}
	if f.Category == "" {
		return Filter{}, domain.Invalid("category", "must be one of %s", strings.Join(Categories, ", "))
	}
	if f.MaxCookTime == 0 {
		f.MaxCookTime = defaultCookTime
	}
	if f.MaxCookTime < 0 {
		return Filter{}, domain.Invalid("time", "must be positive")
	}
	r, ok := LookupRange(rangeLabel)
	if !ok {
		return Filter{}, domain.Invalid("calories", "unknown range %q", rangeLabel)
	}
	f.Range = r
	return f, nil
}

// LookupRange finds a range by label. An empty label selects 0-500.
func LookupRange(label string) (Range, bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		label = defaultRange
	}
	for _, r := range Ranges {
		if r.Label == label {
			return r, true
		}
	}
	return Range{}, false
}

// Matches reports whether m passes f.
func (f Filter) Matches(m Meal) bool {
	kcal := float64(m.Kcal)
	return m.Category == f.Category &&
		m.CookMinutes <= f.MaxCookTime &&
		kcal >= f.Range.Min && kcal <= f.Range.Max
}

// Result is the filtered list plus its first entry.
type Result struct {
	Meals []Meal `json:"meals"`
	Best  *Meal  `json:"bestMeal,omitempty"`
}

func newResult(meals []Meal) *Result {
	if meals == nil {
		meals = []Meal{}
	}
	res := &Result{Meals: meals}
	if len(meals) > 0 {
		best := meals[0]
		res.Best = &best
	}
	return res
}

// Catalog filters meals in catalog order.
type Catalog interface {
	Filter(ctx context.Context, f Filter) (*Result, error)
}

// StaticCatalog filters an in-memory list.
type StaticCatalog struct {
	meals []Meal
}

func NewStaticCatalog(meals []Meal) *StaticCatalog {
	return &StaticCatalog{meals: meals}
}

func (c *StaticCatalog) Filter(_ context.Context, f Filter) (*Result, error) {
	var out []Meal
	for _, m := range c.meals {
		if f.Matches(m) {
			out = append(out, m)
		}
	}
	return newResult(out), nil
}
