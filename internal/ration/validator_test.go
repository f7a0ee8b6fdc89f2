package ration

import (
	"testing"
	"time"

	"github.com/mamadbah2/feedlot/internal/domain/models"
)

var validateDate = time.Date(2026, 3, 30, 0, 0, 0, 0, time.UTC)

// daily dates scores on the days right before validateDate, newest first.
func daily(scores ...int) []models.DayScore {
	out := make([]models.DayScore, len(scores))
	for i, s := range scores {
		out[i] = models.DayScore{Date: validateDate.AddDate(0, 0, -(i + 1)), Score: s}
	}
	return out
}

func TestValidateReading(t *testing.T) {
	cfg := DefaultValidatorConfig()

	gapped := []models.DayScore{
		{Date: validateDate.AddDate(0, 0, -7), Score: -4},
		{Date: validateDate.AddDate(0, 0, -14), Score: -4},
	}
	missingYesterday := []models.DayScore{
		{Date: validateDate.AddDate(0, 0, -2), Score: -4},
		{Date: validateDate.AddDate(0, 0, -3), Score: -4},
	}

	tests := []struct {
		name    string
		current int
		prior   []models.DayScore
		alerts  []string
	}{
		{"first reading", 4, nil, nil},
		{"steady", 1, daily(0, 1), nil},
		{"large jump", -3, daily(2), []string{"jumped"}},
		{"jump at threshold", 3, daily(0), nil},
		{"extreme repeated", -4, daily(-4, -4), []string{"repeated"}},
		{"extreme not yet repeated", -4, daily(-4, 0), nil},
		{"extreme with jump", 4, daily(0, 4), []string{"jumped"}},
		{"non extreme repeat", 2, daily(2, 2, 2), nil},
		{"extreme repeated across gaps", -4, gapped, nil},
		{"extreme repeated without yesterday", -4, missingYesterday, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ValidateReading(cfg, validateDate, tc.current, tc.prior)
			if len(got) != len(tc.alerts) {
				t.Fatalf("Expected %d alerts, got %v", len(tc.alerts), got)
			}
			for _, fragment := range tc.alerts {
				if !hasAlert(got, fragment) {
					t.Errorf("Expected alert containing %q, got %v", fragment, got)
				}
			}
		})
	}
}
