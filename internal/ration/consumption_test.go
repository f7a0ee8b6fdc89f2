package ration

import (
	"errors"
	"testing"

	"github.com/mamadbah2/feedlot/internal/domain/models"
)

func TestProjectConsumption_IncreaseForLot(t *testing.T) {
	got, err := ProjectConsumption(DefaultProjectorConfig(), 8.0, 5, 100)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	checks := []struct {
		name     string
		got      float64
		expected float64
	}{
		{"new per head", got.NewPerHead, 8.4},
		{"delta per head", got.DeltaPerHead, 0.4},
		{"total previous", got.TotalPrevious, 800},
		{"total new", got.TotalNew, 840},
		{"total delta", got.TotalDelta, 40},
	}
	for _, c := range checks {
		if c.got != c.expected {
			t.Errorf("Expected %s %.3f, got %.3f", c.name, c.expected, c.got)
		}
	}
	if len(got.Alerts) != 0 {
		t.Errorf("Expected no alerts, got %v", got.Alerts)
	}
}

func TestProjectConsumption_IsDeterministic(t *testing.T) {
	cfg := DefaultProjectorConfig()
	a, _ := ProjectConsumption(cfg, 9.3, -7.5, 137)
	b, _ := ProjectConsumption(cfg, 9.3, -7.5, 137)
	if a.NewPerHead != b.NewPerHead || a.DeltaPerHead != b.DeltaPerHead || a.TotalNew != b.TotalNew || a.TotalDelta != b.TotalDelta {
		t.Errorf("Expected identical projections, got %+v and %+v", a, b)
	}
}

func TestProjectConsumption_LargeDropAndFloor(t *testing.T) {
	got, err := ProjectConsumption(DefaultProjectorConfig(), 10, -60, 50)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got.NewPerHead != 4 {
		t.Errorf("Expected 4 kg per head after a 60%% cut, got %.3f", got.NewPerHead)
	}
	if !hasAlert(got.Alerts, "drops") {
		t.Errorf("Expected large drop alert, got %v", got.Alerts)
	}

	floored, err := ProjectConsumption(DefaultProjectorConfig(), 10, -150, 50)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if floored.NewPerHead != 0 || floored.TotalDelta != -500 {
		t.Errorf("Expected intake floored at zero, got %+v", floored)
	}
}

func TestProjectConsumption_RejectsBadInput(t *testing.T) {
	if _, err := ProjectConsumption(DefaultProjectorConfig(), -1, 5, 10); !errors.Is(err, models.ErrValidation) {
		t.Errorf("Expected validation error for negative intake, got %v", err)
	}
	if _, err := ProjectConsumption(DefaultProjectorConfig(), 8, 5, 0); !errors.Is(err, models.ErrValidation) {
		t.Errorf("Expected validation error for empty lot, got %v", err)
	}
}
