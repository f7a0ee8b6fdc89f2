package ration

import (
	"fmt"

	"github.com/mamadbah2/feedlot/internal/domain/models"
)

// ProjectorConfig holds the advisory threshold of the consumption projector.
type ProjectorConfig struct {
	// LargeDropPercent flags single-step intake drops above this share of the previous intake.
	LargeDropPercent float64
}

// DefaultProjectorConfig returns the projector threshold used when nothing is configured.
func DefaultProjectorConfig() ProjectorConfig {
	return ProjectorConfig{LargeDropPercent: 50}
}

// Consumption is the intake of a lot before and after applying an adjustment.
type Consumption struct {
	PreviousPerHead float64  `json:"previous_per_head"`
	NewPerHead      float64  `json:"new_per_head"`
	DeltaPerHead    float64  `json:"delta_per_head"`
	TotalPrevious   float64  `json:"total_previous"`
	TotalNew        float64  `json:"total_new"`
	TotalDelta      float64  `json:"total_delta"`
	Alerts          []string `json:"alerts"`
}

// ProjectConsumption applies adjustmentPercent to the previous per-head intake.
// Values are rounded to grams.
func ProjectConsumption(cfg ProjectorConfig, previousPerHead, adjustmentPercent float64, headcount int) (Consumption, error) {
	if previousPerHead < 0 {
		return Consumption{}, models.NewValidationError("previous_intake_per_head", "must not be negative, got %.3f", previousPerHead)
	}
	if headcount <= 0 {
		return Consumption{}, models.NewValidationError("headcount", "must be positive, got %d", headcount)
	}

	newPerHead := max(0, previousPerHead*(1+adjustmentPercent/100))
	head := float64(headcount)

	c := Consumption{
		PreviousPerHead: round3(previousPerHead),
		NewPerHead:      round3(newPerHead),
		DeltaPerHead:    round3(newPerHead - previousPerHead),
		TotalPrevious:   round3(previousPerHead * head),
		TotalNew:        round3(newPerHead * head),
		TotalDelta:      round3((newPerHead - previousPerHead) * head),
		Alerts:          []string{},
	}

	if previousPerHead > 0 && cfg.LargeDropPercent > 0 {
		drop := (previousPerHead - newPerHead) / previousPerHead * 100
		if drop > cfg.LargeDropPercent {
			c.Alerts = append(c.Alerts, fmt.Sprintf("intake drops %.1f%% in one step (%.3f -> %.3f kg/head), confirm before feeding", drop, previousPerHead, newPerHead))
		}
	}

	return c, nil
}
