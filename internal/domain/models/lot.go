package models

import "time"

const dateLayout = "2006-01-02"

// Lot is a pen-group of animals fed as a unit through the feeding cycle.
type Lot struct {
	ID                   string    `json:"id"`
	Code                 string    `json:"code"`
	Headcount            int       `json:"headcount"`
	EntryWeightKg        float64   `json:"entry_weight_kg"`
	ProjectedADG         float64   `json:"projected_adg"`
	PlannedDurationDays  int       `json:"planned_duration_days"`
	CurrentIntakePerHead float64   `json:"current_intake_per_head"`
	EntryDate            time.Time `json:"entry_date"`
	Active               bool      `json:"active"`
}

// DaysOnFeed returns the feeding-cycle day that date falls on; the entry date is day 1.
func (l Lot) DaysOnFeed(date time.Time) int {
	entry := DateOnly(l.EntryDate)
	return int(DateOnly(date).Sub(entry).Hours()/24) + 1
}

// DietIngredient is one component of a diet's as-fed composition.
type DietIngredient struct {
	IngredientID     string  `json:"ingredient_id"`
	Name             string  `json:"name"`
	InclusionPercent float64 `json:"inclusion_percent"`
}

// Diet is a ration formula.
type Diet struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	DryMatterPercent float64          `json:"dry_matter_percent"`
	CostPerKgAsFed   float64          `json:"cost_per_kg_as_fed"`
	Ingredients      []DietIngredient `json:"ingredients"`
}

// DietPeriod assigns a diet to an inclusive day range of a lot's feeding cycle.
type DietPeriod struct {
	LotID                           string  `json:"lot_id"`
	StartDay                        int     `json:"start_day"`
	EndDay                          int     `json:"end_day"`
	DietID                          string  `json:"diet_id"`
	TargetIntakePercentOfBodyweight float64 `json:"target_intake_percent_of_bodyweight"`
}

// Days is the number of days covered by the period.
func (p DietPeriod) Days() int { return p.EndDay - p.StartDay + 1 }

// Covers reports whether day falls inside the period.
func (p DietPeriod) Covers(day int) bool { return day >= p.StartDay && day <= p.EndDay }

// Ingredient is the stock position of one feed ingredient.
type Ingredient struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	AvailableKg float64 `json:"available_kg"`
}

// StockDraw is the quantity of one ingredient a batch consumes.
type StockDraw struct {
	IngredientID string  `json:"ingredient_id"`
	Name         string  `json:"name"`
	QuantityKg   float64 `json:"quantity_kg"`
}

// StockMovement records an inventory deduction made by a concluded batch.
type StockMovement struct {
	ID           string    `json:"id"`
	BatchID      string    `json:"batch_id"`
	IngredientID string    `json:"ingredient_id"`
	QuantityKg   float64   `json:"quantity_kg"`
	CreatedAt    time.Time `json:"created_at"`
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a reference date as YYYY-MM-DD.
func FormatDate(t time.Time) string { return t.Format(dateLayout) }

// ParseDate parses a YYYY-MM-DD reference date.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, NewValidationError("date", "expected YYYY-MM-DD, got %q", value)
	}
	return t, nil
}
