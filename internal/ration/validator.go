package ration

import (
	"fmt"
	"time"

	"github.com/mamadbah2/feedlot/internal/domain/models"
)

// ValidatorConfig tunes the advisory checks run over a lot's score history.
type ValidatorConfig struct {
	MaxDailyDelta      int
	ExtremeRepeatDays  int
	ExtremeScoreAbsMin int
}

// DefaultValidatorConfig returns the validator thresholds used when nothing is configured.
func DefaultValidatorConfig() ValidatorConfig {
	return ValidatorConfig{
		MaxDailyDelta:      3,
		ExtremeRepeatDays:  3,
		ExtremeScoreAbsMin: maxScore,
	}
}

// ValidateReading returns advisory alerts for the score of date given the
// lot's prior dated scores, most recent first. It never fails.
func ValidateReading(cfg ValidatorConfig, date time.Time, current int, prior []models.DayScore) []string {
	var alerts []string
	if len(prior) == 0 {
		return alerts
	}

	if delta := current - prior[0].Score; cfg.MaxDailyDelta > 0 && abs(delta) > cfg.MaxDailyDelta {
		alerts = append(alerts, fmt.Sprintf("score jumped from %d to %d since the previous reading, check the observation", prior[0].Score, current))
	}

	if cfg.ExtremeRepeatDays > 1 && abs(current) >= cfg.ExtremeScoreAbsMin && len(prior) >= cfg.ExtremeRepeatDays-1 {
		day := models.DateOnly(date)
		repeated := true
		// the run breaks on a different score or a missing day
		for i, p := range prior[:cfg.ExtremeRepeatDays-1] {
			if p.Score != current || !models.DateOnly(p.Date).Equal(day.AddDate(0, 0, -(i+1))) {
				repeated = false
				break
			}
		}
		if repeated {
			alerts = append(alerts, fmt.Sprintf("extreme score %d repeated for %d consecutive days, possible observation error", current, cfg.ExtremeRepeatDays))
		}
	}

	return alerts
}
