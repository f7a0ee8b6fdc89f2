package ration

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/mamadbah2/feedlot/internal/domain/models"
)

func testLot() models.Lot {
	return models.Lot{
		ID:                  "lot-1",
		Headcount:           100,
		EntryWeightKg:       350,
		ProjectedADG:        1.5,
		PlannedDurationDays: 90,
	}
}

func testDiets() map[string]models.Diet {
	return map[string]models.Diet{
		"adapt":  {ID: "adapt", Name: "Adaptation", DryMatterPercent: 60, CostPerKgAsFed: 0.8},
		"growth": {ID: "growth", Name: "Growth", DryMatterPercent: 65, CostPerKgAsFed: 0.9},
		"finish": {ID: "finish", Name: "Finishing", DryMatterPercent: 70, CostPerKgAsFed: 1.1},
	}
}

func testPeriods() []models.DietPeriod {
	return []models.DietPeriod{
		{LotID: "lot-1", StartDay: 1, EndDay: 20, DietID: "adapt", TargetIntakePercentOfBodyweight: 2.0},
		{LotID: "lot-1", StartDay: 21, EndDay: 60, DietID: "growth", TargetIntakePercentOfBodyweight: 2.3},
		{LotID: "lot-1", StartDay: 61, EndDay: 90, DietID: "finish", TargetIntakePercentOfBodyweight: 2.5},
	}
}

func TestValidateCoverage(t *testing.T) {
	shortLast := testPeriods()
	shortLast[2].EndDay = 89

	gap := testPeriods()
	gap[1].StartDay = 22

	overlap := testPeriods()
	overlap[1].StartDay = 20

	lateStart := testPeriods()
	lateStart[0].StartDay = 2

	tests := []struct {
		name    string
		periods []models.DietPeriod
		wantErr bool
	}{
		{"full coverage", testPeriods(), false},
		{"unordered input", []models.DietPeriod{testPeriods()[2], testPeriods()[0], testPeriods()[1]}, false},
		{"last period short by one day", shortLast, true},
		{"gap between periods", gap, true},
		{"overlapping periods", overlap, true},
		{"does not start on day one", lateStart, true},
		{"no periods", nil, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateCoverage(tc.periods, 90)
			if !tc.wantErr {
				if err != nil {
					t.Fatalf("Expected periods to be accepted, got %v", err)
				}
				span := 0
				for _, p := range tc.periods {
					span += p.EndDay - p.StartDay + 1
				}
				if span != 90 {
					t.Errorf("Expected accepted periods to span 90 days, got %d", span)
				}
				return
			}
			if !errors.Is(err, models.ErrValidation) {
				t.Fatalf("Expected validation error, got %v", err)
			}
			if !strings.Contains(err.Error(), "coverage mismatch") {
				t.Errorf("Expected coverage mismatch message, got %q", err.Error())
			}
		})
	}
}

func TestProject_Totals(t *testing.T) {
	lot := testLot()
	proj, err := Project(lot, testPeriods(), testDiets())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(proj.Days) != 90 {
		t.Fatalf("Expected 90 daily rows, got %d", len(proj.Days))
	}
	if len(proj.Periods) != 3 {
		t.Fatalf("Expected 3 period totals, got %d", len(proj.Periods))
	}

	day10 := proj.Days[9]
	if math.Abs(day10.WeightKg-363.5) > 1e-9 {
		t.Errorf("Expected day 10 weight 363.5, got %.3f", day10.WeightKg)
	}
	expectedDM := 363.5 * 0.02
	if math.Abs(day10.DryMatterKgHead-expectedDM) > 1e-9 {
		t.Errorf("Expected day 10 dry matter %.4f, got %.4f", expectedDM, day10.DryMatterKgHead)
	}
	if math.Abs(day10.AsFedKgHead-expectedDM/0.6) > 1e-9 {
		t.Errorf("Expected day 10 as-fed %.4f, got %.4f", expectedDM/0.6, day10.AsFedKgHead)
	}
	if math.Abs(day10.AsFedKgLot-day10.AsFedKgHead*100) > 1e-9 {
		t.Errorf("Expected lot as-fed to be headcount times per head")
	}

	var sumDays, sumAsFed float64
	for _, p := range proj.Periods {
		sumDays += float64(p.Days)
		sumAsFed += p.AsFedKgLot
		if math.Abs(p.AsFedKgLot-p.AsFedKgHead*100) > 1e-6 {
			t.Errorf("Expected period %s lot total to equal per-head total times headcount", p.DietName)
		}
	}
	if sumDays != 90 {
		t.Errorf("Expected period days to sum to 90, got %.0f", sumDays)
	}
	if math.Abs(sumAsFed-proj.AsFedKgLot) > 1e-6 {
		t.Errorf("Expected cycle as-fed %.3f to equal sum of periods %.3f", proj.AsFedKgLot, sumAsFed)
	}
	if proj.Days[60].DietID != "finish" || proj.Days[59].DietID != "growth" {
		t.Errorf("Expected diet switch between day 60 and 61, got %s and %s", proj.Days[59].DietID, proj.Days[60].DietID)
	}
}

func TestProject_Rejections(t *testing.T) {
	diets := testDiets()
	diets["adapt"] = models.Diet{ID: "adapt", DryMatterPercent: 0}

	if _, err := Project(testLot(), testPeriods(), diets); !errors.Is(err, models.ErrValidation) {
		t.Errorf("Expected validation error for zero dry matter, got %v", err)
	}

	missing := testDiets()
	delete(missing, "finish")
	if _, err := Project(testLot(), testPeriods(), missing); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected not found error for unknown diet, got %v", err)
	}

	lot := testLot()
	lot.Headcount = 0
	if _, err := Project(lot, testPeriods(), testDiets()); !errors.Is(err, models.ErrValidation) {
		t.Errorf("Expected validation error for empty lot, got %v", err)
	}

	shrinking := testLot()
	shrinking.ProjectedADG = -5
	if _, err := Project(shrinking, testPeriods(), testDiets()); !errors.Is(err, models.ErrValidation) {
		t.Errorf("Expected validation error when weight goes negative, got %v", err)
	}
}

func TestRationForDay(t *testing.T) {
	lot := testLot()
	got, err := RationForDay(lot, testPeriods(), testDiets(), 61)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got.DietID != "finish" || got.PeriodIndex != 2 {
		t.Errorf("Expected finishing diet in period 2, got %s in %d", got.DietID, got.PeriodIndex)
	}
	weight := 350 + 1.5*60
	if math.Abs(got.AsFedKgLot-weight*0.025/0.7*100) > 1e-9 {
		t.Errorf("Expected lot as-fed %.3f, got %.3f", weight*0.025/0.7*100, got.AsFedKgLot)
	}

	if _, err := RationForDay(lot, testPeriods(), testDiets(), 91); !errors.Is(err, models.ErrValidation) {
		t.Errorf("Expected validation error past the cycle, got %v", err)
	}
}
