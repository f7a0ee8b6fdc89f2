// Package ration holds the pure calculators of the ration engine: weight
// curve, period planning, bunk scoring, reading validation, consumption
// projection and feeding schedules. Nothing here performs I/O or keeps state.
package ration

import (
	"iter"

	"github.com/mamadbah2/feedlot/internal/domain/models"
)

// WeightOnDay projects live weight on a feeding-cycle day; day 1 is the entry day.
func WeightOnDay(entryWeight, adg float64, day int) (float64, error) {
	if day < 1 {
		return 0, models.NewValidationError("day", "must be >= 1, got %d", day)
	}
	return entryWeight + adg*float64(day-1), nil
}

// WeightCurve is the linear live-weight projection of a lot.
type WeightCurve struct {
	EntryWeight float64
	ADG         float64
}

// CurveForLot builds the weight curve of a lot.
func CurveForLot(lot models.Lot) WeightCurve {
	return WeightCurve{EntryWeight: lot.EntryWeightKg, ADG: lot.ProjectedADG}
}

// On returns the projected weight on day.
func (c WeightCurve) On(day int) (float64, error) {
	return WeightOnDay(c.EntryWeight, c.ADG, day)
}

// Days yields (day, weight) pairs for the inclusive range [from, to]. The
// sequence is lazy and may be ranged over any number of times.
func (c WeightCurve) Days(from, to int) (iter.Seq2[int, float64], error) {
	if from < 1 {
		return nil, models.NewValidationError("day", "must be >= 1, got %d", from)
	}
	if to < from {
		return nil, models.NewValidationError("day", "range end %d before start %d", to, from)
	}
	return func(yield func(int, float64) bool) {
		for day := from; day <= to; day++ {
			if !yield(day, c.EntryWeight+c.ADG*float64(day-1)) {
				return
			}
		}
	}, nil
}
