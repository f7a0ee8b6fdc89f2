package ration

import (
	"math"
	"sort"
	"strconv"

	"github.com/mamadbah2/feedlot/internal/domain/models"
)

// DefaultEventTimes are the delivery times of a schedule built from scratch.
var DefaultEventTimes = []models.TimeOfDay{6 * 60, 11 * 60, 16 * 60}

// Schedule is a day's split of a total ration into feeding events. Every
// operation returns a new Schedule; the receiver is never modified. Edits
// may leave the percent sum away from 100 until Validate is called.
type Schedule struct {
	TotalKg float64               `json:"total_kg"`
	Events  []models.FeedingEvent `json:"events"`
}

// SplitEvenly divides 100% into n shares with two decimals; the last share
// absorbs the rounding remainder (33.33/33.33/33.34).
func SplitEvenly(n int) []float64 {
	if n <= 0 {
		return nil
	}
	share := math.Floor(10000/float64(n)) / 100
	shares := make([]float64, n)
	for i := range n - 1 {
		shares[i] = share
	}
	shares[n-1] = Round2(100 - share*float64(n-1))
	return shares
}

// DefaultSchedule builds the three-event schedule with a near-even split.
func DefaultSchedule(totalKg float64) (Schedule, error) {
	shares := SplitEvenly(len(DefaultEventTimes))
	events := make([]models.FeedingEvent, len(DefaultEventTimes))
	for i, at := range DefaultEventTimes {
		events[i] = models.FeedingEvent{Time: at, Percent: shares[i]}
	}
	return NewSchedule(totalKg, events)
}

// NewSchedule orders events by time and computes their quantities.
func NewSchedule(totalKg float64, events []models.FeedingEvent) (Schedule, error) {
	if totalKg < 0 || math.IsNaN(totalKg) {
		return Schedule{}, models.NewValidationError("total_kg", "must not be negative, got %.2f", totalKg)
	}
	if len(events) == 0 {
		return Schedule{}, models.NewValidationError("events", "schedule needs at least one event")
	}
	for _, e := range events {
		if err := checkPercent(e.Percent); err != nil {
			return Schedule{}, err
		}
	}
	s := Schedule{TotalKg: totalKg, Events: cloneEvents(events)}
	s.normalize()
	return s, nil
}

// CarryForward copies a prior plan's event times and percents onto a new total.
func CarryForward(prev models.FeedingPlan, totalKg float64) (Schedule, error) {
	events := make([]models.FeedingEvent, len(prev.Events))
	for i, e := range prev.Events {
		events[i] = models.FeedingEvent{Time: e.Time, Percent: e.Percent}
	}
	return NewSchedule(totalKg, events)
}

// AddEvent inserts an event at the given time.
func (s Schedule) AddEvent(at models.TimeOfDay, percent float64) (Schedule, error) {
	if err := checkPercent(percent); err != nil {
		return Schedule{}, err
	}
	next := s.clone()
	next.Events = append(next.Events, models.FeedingEvent{Time: at, Percent: percent})
	next.normalize()
	return next, nil
}

// RemoveEvent deletes the event with the given order. The last remaining
// event cannot be removed.
func (s Schedule) RemoveEvent(order int) (Schedule, error) {
	idx, err := s.indexOf(order)
	if err != nil {
		return Schedule{}, err
	}
	if len(s.Events) == 1 {
		return Schedule{}, models.NewValidationError("events", "cannot remove the last feeding event")
	}
	next := s.clone()
	next.Events = append(next.Events[:idx], next.Events[idx+1:]...)
	next.normalize()
	return next, nil
}

// UpdatePercent changes the share of one event.
func (s Schedule) UpdatePercent(order int, percent float64) (Schedule, error) {
	idx, err := s.indexOf(order)
	if err != nil {
		return Schedule{}, err
	}
	if err := checkPercent(percent); err != nil {
		return Schedule{}, err
	}
	next := s.clone()
	next.Events[idx].Percent = percent
	next.normalize()
	return next, nil
}

// UpdateTime moves one event to another time of day.
func (s Schedule) UpdateTime(order int, at models.TimeOfDay) (Schedule, error) {
	idx, err := s.indexOf(order)
	if err != nil {
		return Schedule{}, err
	}
	next := s.clone()
	next.Events[idx].Time = at
	next.normalize()
	return next, nil
}

// WithTotal rescales every event quantity to a new daily total.
func (s Schedule) WithTotal(totalKg float64) (Schedule, error) {
	return NewSchedule(totalKg, s.Events)
}

// PercentSum is the sum of all event shares.
func (s Schedule) PercentSum() float64 {
	var sum float64
	for _, e := range s.Events {
		sum += e.Percent
	}
	return sum
}

// Validate is the accept check run before a schedule is persisted.
func (s Schedule) Validate() error {
	if len(s.Events) == 0 {
		return models.NewValidationError("events", "schedule needs at least one event")
	}
	if sum := s.PercentSum(); math.Abs(sum-100) > percentTolerance {
		return models.NewValidationError("events", "percentages sum to %.2f, expected 100", sum)
	}
	for i := 1; i < len(s.Events); i++ {
		if s.Events[i].Time == s.Events[i-1].Time {
			return models.NewValidationError("events", "two feeding events scheduled at %s", s.Events[i].Time)
		}
	}
	return nil
}

func (s *Schedule) normalize() {
	sort.SliceStable(s.Events, func(i, j int) bool { return s.Events[i].Time < s.Events[j].Time })
	for i := range s.Events {
		s.Events[i].Order = i + 1
		s.Events[i].QuantityKg = Round2(s.Events[i].Percent / 100 * s.TotalKg)
	}
}

func (s Schedule) clone() Schedule {
	return Schedule{TotalKg: s.TotalKg, Events: cloneEvents(s.Events)}
}

func (s Schedule) indexOf(order int) (int, error) {
	for i, e := range s.Events {
		if e.Order == order {
			return i, nil
		}
	}
	return 0, models.NewNotFoundError("feeding event", strconv.Itoa(order))
}

func checkPercent(p float64) error {
	if p < 0 || p > 100 || math.IsNaN(p) {
		return models.NewValidationError("percent", "must be between 0 and 100, got %.2f", p)
	}
	return nil
}

func cloneEvents(events []models.FeedingEvent) []models.FeedingEvent {
	out := make([]models.FeedingEvent, len(events))
	copy(out, events)
	return out
}
