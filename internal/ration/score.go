package ration

import (
	"fmt"
	"math"

	"github.com/mamadbah2/feedlot/internal/domain/models"
)

const (
	maxScore = 4
	minScore = -4
)

// scoreTable maps bunk status (rows) and morning behavior (columns) to a base
// score. Scores fall monotonically with more leftovers and calmer animals.
var scoreTable = [models.BunkStatusCount][models.MorningBehaviorCount]int{
	models.BunkLicked:         {4, 3, 2, 1},
	models.BunkClean:          {3, 2, 1, 0},
	models.BunkFewLeftovers:   {1, 1, 0, -1},
	models.BunkLeftovers:      {0, -1, -2, -3},
	models.BunkHeavyLeftovers: {-1, -2, -3, -4},
}

// ScoreConfig tunes how a bunk score turns into a ration adjustment.
type ScoreConfig struct {
	// StepPercent is the adjustment applied per score point in the finishing phase.
	StepPercent float64
	// AdaptationDamping scales adaptation-phase adjustments.
	AdaptationDamping float64
	// AdaptationDeadBand is the absolute score that adaptation-phase readings ignore.
	AdaptationDeadBand int
	// EarlyDaysThreshold is the days-on-feed below which EarlyDaysDamping applies.
	EarlyDaysThreshold int
	EarlyDaysDamping   float64
	// MaxAdjustmentPercent bounds the adjustment in both directions.
	MaxAdjustmentPercent float64
}

// DefaultScoreConfig returns the scoring parameters used when nothing is configured.
func DefaultScoreConfig() ScoreConfig {
	return ScoreConfig{
		StepPercent:          2.5,
		AdaptationDamping:    0.5,
		AdaptationDeadBand:   1,
		EarlyDaysThreshold:   14,
		EarlyDaysDamping:     0.5,
		MaxAdjustmentPercent: 15,
	}
}

// ScoreInput is one lot's bunk observation set for a reference date.
type ScoreInput struct {
	Phase      models.DietPhase
	Night      *models.NightReading
	Behavior   models.MorningBehavior
	BunkStatus models.BunkStatus
	DaysOnFeed int
}

// ScoreResult is the outcome of scoring a bunk observation.
type ScoreResult struct {
	Score             int      `json:"score"`
	AdjustmentPercent float64  `json:"adjustment_percent"`
	Alerts            []string `json:"alerts"`
}

// BaseScore looks up the table score for a status and behavior pair.
func BaseScore(status models.BunkStatus, behavior models.MorningBehavior) int {
	return scoreTable[status][behavior]
}

// Score converts bunk observations into a score and a clamped ration adjustment.
func Score(cfg ScoreConfig, in ScoreInput) (ScoreResult, error) {
	if err := validateScoreInput(in); err != nil {
		return ScoreResult{}, err
	}

	score := BaseScore(in.BunkStatus, in.Behavior) + nightModifier(in.Night)
	score = min(max(score, minScore), maxScore)

	result := ScoreResult{Score: score, Alerts: []string{}}

	var raw float64
	switch in.Phase {
	case models.PhaseFinishing:
		raw = float64(score) * cfg.StepPercent
	case models.PhaseAdaptation:
		if abs(score) > cfg.AdaptationDeadBand {
			raw = float64(score) * cfg.StepPercent * cfg.AdaptationDamping
		}
	}
	if in.DaysOnFeed < cfg.EarlyDaysThreshold {
		raw *= cfg.EarlyDaysDamping
	}

	adjustment := raw
	if cfg.MaxAdjustmentPercent > 0 {
		adjustment = math.Max(-cfg.MaxAdjustmentPercent, math.Min(cfg.MaxAdjustmentPercent, raw))
	}
	result.AdjustmentPercent = Round2(adjustment)
	if adjustment == 0 {
		// avoid -0 leaking into persisted readings
		result.AdjustmentPercent = 0
	}

	result.Alerts = append(result.Alerts, observationAlerts(in)...)
	if adjustment != raw {
		result.Alerts = append(result.Alerts, fmt.Sprintf("adjustment limited to %+.2f%% (computed %+.2f%%)", adjustment, raw))
	}

	return result, nil
}

func validateScoreInput(in ScoreInput) error {
	switch {
	case !in.Phase.Valid():
		return models.NewValidationError("diet_phase", "invalid value %d", in.Phase)
	case !in.Behavior.Valid():
		return models.NewValidationError("morning_behavior", "invalid value %d", in.Behavior)
	case !in.BunkStatus.Valid():
		return models.NewValidationError("bunk_status", "invalid value %d", in.BunkStatus)
	case in.Night != nil && !in.Night.Valid():
		return models.NewValidationError("night_reading", "invalid value %d", *in.Night)
	case in.DaysOnFeed < 0:
		return models.NewValidationError("days_on_feed", "must not be negative, got %d", in.DaysOnFeed)
	}
	return nil
}

func nightModifier(night *models.NightReading) int {
	if night == nil {
		return 0
	}
	switch *night {
	case models.NightEmpty:
		return 1
	case models.NightFull:
		return -1
	default:
		return 0
	}
}

func observationAlerts(in ScoreInput) []string {
	var alerts []string

	heavy := in.BunkStatus == models.BunkLeftovers || in.BunkStatus == models.BunkHeavyLeftovers
	calm := in.Behavior == models.BehaviorStandingCalm || in.Behavior == models.BehaviorLyingCalm
	if heavy && calm {
		alerts = append(alerts, fmt.Sprintf("overfeeding risk: bunk %s with animals %s", in.BunkStatus, in.Behavior))
	}

	hungry := in.Behavior == models.BehaviorHungry || in.Behavior == models.BehaviorAnxious
	if in.BunkStatus == models.BunkLicked && hungry {
		alerts = append(alerts, fmt.Sprintf("possible underfeeding: bunk %s with animals %s", in.BunkStatus, in.Behavior))
	}

	if in.Night != nil {
		switch {
		case *in.Night == models.NightEmpty && in.BunkStatus == models.BunkHeavyLeftovers:
			alerts = append(alerts, "inconsistent readings: bunk empty at night but heavy leftovers in the morning")
		case *in.Night == models.NightFull && in.BunkStatus == models.BunkLicked:
			alerts = append(alerts, "inconsistent readings: bunk full at night but licked clean in the morning")
		}
	}

	return alerts
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
