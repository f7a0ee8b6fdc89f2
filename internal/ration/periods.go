package ration

import (
	"sort"

	"github.com/mamadbah2/feedlot/internal/domain/models"
)

// DayRation is the projected ration of one feeding-cycle day.
type DayRation struct {
	Day             int     `json:"day"`
	PeriodIndex     int     `json:"period_index"`
	DietID          string  `json:"diet_id"`
	WeightKg        float64 `json:"weight_kg"`
	DryMatterKgHead float64 `json:"dry_matter_kg_head"`
	AsFedKgHead     float64 `json:"as_fed_kg_head"`
	DryMatterKgLot  float64 `json:"dry_matter_kg_lot"`
	AsFedKgLot      float64 `json:"as_fed_kg_lot"`
	CostLot         float64 `json:"cost_lot"`
}

// PeriodTotals sums the daily rations of one diet period.
type PeriodTotals struct {
	Period          models.DietPeriod `json:"period"`
	DietName        string            `json:"diet_name"`
	Days            int               `json:"days"`
	DryMatterKgHead float64           `json:"dry_matter_kg_head"`
	AsFedKgHead     float64           `json:"as_fed_kg_head"`
	DryMatterKgLot  float64           `json:"dry_matter_kg_lot"`
	AsFedKgLot      float64           `json:"as_fed_kg_lot"`
	CostLot         float64           `json:"cost_lot"`
}

// Projection is the full-cycle ration plan of a lot.
type Projection struct {
	LotID          string         `json:"lot_id"`
	Headcount      int            `json:"headcount"`
	Days           []DayRation    `json:"days"`
	Periods        []PeriodTotals `json:"periods"`
	DryMatterKgLot float64        `json:"dry_matter_kg_lot"`
	AsFedKgLot     float64        `json:"as_fed_kg_lot"`
	CostLot        float64        `json:"cost_lot"`
}

// ValidateLot checks the lot fields the planner depends on.
func ValidateLot(lot models.Lot) error {
	switch {
	case lot.Headcount <= 0:
		return models.NewValidationError("headcount", "must be positive, got %d", lot.Headcount)
	case lot.EntryWeightKg <= 0:
		return models.NewValidationError("entry_weight_kg", "must be positive, got %.2f", lot.EntryWeightKg)
	case lot.PlannedDurationDays < 1:
		return models.NewValidationError("planned_duration_days", "must be >= 1, got %d", lot.PlannedDurationDays)
	}
	last, _ := WeightOnDay(lot.EntryWeightKg, lot.ProjectedADG, lot.PlannedDurationDays)
	if last <= 0 {
		return models.NewValidationError("projected_adg", "weight reaches %.2f kg by day %d", last, lot.PlannedDurationDays)
	}
	return nil
}

// ValidateCoverage checks that periods partition [1, plannedDuration] with no
// gaps or overlaps. Periods may be supplied in any order.
func ValidateCoverage(periods []models.DietPeriod, plannedDuration int) error {
	if len(periods) == 0 {
		return models.NewValidationError("periods", "coverage mismatch: no periods defined")
	}

	sorted := sortedPeriods(periods)
	if sorted[0].StartDay != 1 {
		return models.NewValidationError("periods", "coverage mismatch: first period starts on day %d, expected 1", sorted[0].StartDay)
	}

	span := 0
	for i, p := range sorted {
		if p.EndDay < p.StartDay {
			return models.NewValidationError("periods", "coverage mismatch: period %d-%d ends before it starts", p.StartDay, p.EndDay)
		}
		if p.TargetIntakePercentOfBodyweight <= 0 {
			return models.NewValidationError("periods", "period %d-%d needs a positive intake target", p.StartDay, p.EndDay)
		}
		if i > 0 && p.StartDay != sorted[i-1].EndDay+1 {
			return models.NewValidationError("periods", "coverage mismatch: period starting day %d does not follow day %d", p.StartDay, sorted[i-1].EndDay)
		}
		span += p.Days()
	}

	if span != plannedDuration {
		return models.NewValidationError("periods", "coverage mismatch: periods cover %d days, lot is planned for %d", span, plannedDuration)
	}
	return nil
}

// Project computes per-day, per-period and whole-cycle rations for a lot.
func Project(lot models.Lot, periods []models.DietPeriod, diets map[string]models.Diet) (*Projection, error) {
	if err := ValidateLot(lot); err != nil {
		return nil, err
	}
	if err := ValidateCoverage(periods, lot.PlannedDurationDays); err != nil {
		return nil, err
	}

	curve := CurveForLot(lot)
	proj := &Projection{
		LotID:     lot.ID,
		Headcount: lot.Headcount,
		Days:      make([]DayRation, 0, lot.PlannedDurationDays),
	}

	for idx, period := range sortedPeriods(periods) {
		diet, err := dietFor(period, diets)
		if err != nil {
			return nil, err
		}

		totals := PeriodTotals{Period: period, DietName: diet.Name, Days: period.Days()}
		days, err := curve.Days(period.StartDay, period.EndDay)
		if err != nil {
			return nil, err
		}
		for day, weight := range days {
			row := dayRation(lot, period, diet, idx, day, weight)
			totals.DryMatterKgHead += row.DryMatterKgHead
			totals.AsFedKgHead += row.AsFedKgHead
			totals.DryMatterKgLot += row.DryMatterKgLot
			totals.AsFedKgLot += row.AsFedKgLot
			totals.CostLot += row.CostLot
			proj.Days = append(proj.Days, row)
		}

		proj.DryMatterKgLot += totals.DryMatterKgLot
		proj.AsFedKgLot += totals.AsFedKgLot
		proj.CostLot += totals.CostLot
		proj.Periods = append(proj.Periods, totals)
	}

	return proj, nil
}

// RationForDay computes the baseline ration of a single feeding-cycle day.
func RationForDay(lot models.Lot, periods []models.DietPeriod, diets map[string]models.Diet, day int) (DayRation, error) {
	if err := ValidateLot(lot); err != nil {
		return DayRation{}, err
	}
	if err := ValidateCoverage(periods, lot.PlannedDurationDays); err != nil {
		return DayRation{}, err
	}
	if day < 1 || day > lot.PlannedDurationDays {
		return DayRation{}, models.NewValidationError("day", "day %d outside feeding cycle 1-%d", day, lot.PlannedDurationDays)
	}

	for idx, period := range sortedPeriods(periods) {
		if !period.Covers(day) {
			continue
		}
		diet, err := dietFor(period, diets)
		if err != nil {
			return DayRation{}, err
		}
		weight, err := CurveForLot(lot).On(day)
		if err != nil {
			return DayRation{}, err
		}
		return dayRation(lot, period, diet, idx, day, weight), nil
	}

	return DayRation{}, models.NewNotFoundError("diet period", lot.ID)
}

func dayRation(lot models.Lot, period models.DietPeriod, diet models.Diet, idx, day int, weight float64) DayRation {
	dm := weight * period.TargetIntakePercentOfBodyweight / 100
	asFed := dm / (diet.DryMatterPercent / 100)
	head := float64(lot.Headcount)
	return DayRation{
		Day:             day,
		PeriodIndex:     idx,
		DietID:          diet.ID,
		WeightKg:        weight,
		DryMatterKgHead: dm,
		AsFedKgHead:     asFed,
		DryMatterKgLot:  dm * head,
		AsFedKgLot:      asFed * head,
		CostLot:         asFed * head * diet.CostPerKgAsFed,
	}
}

func dietFor(period models.DietPeriod, diets map[string]models.Diet) (models.Diet, error) {
	diet, ok := diets[period.DietID]
	if !ok {
		return models.Diet{}, models.NewNotFoundError("diet", period.DietID)
	}
	if diet.DryMatterPercent <= 0 {
		return models.Diet{}, models.NewValidationError("dry_matter_percent", "diet %s has dry matter %.2f%%", diet.ID, diet.DryMatterPercent)
	}
	return diet, nil
}

func sortedPeriods(periods []models.DietPeriod) []models.DietPeriod {
	sorted := make([]models.DietPeriod, len(periods))
	copy(sorted, periods)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].StartDay < sorted[j].StartDay })
	return sorted
}
