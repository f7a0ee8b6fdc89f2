package models

import (
	"fmt"
	"time"
)

// TimeOfDay is a wall-clock time expressed in minutes after midnight.
type TimeOfDay int

// NewTimeOfDay builds a TimeOfDay from hours and minutes.
func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, NewValidationError("time", "invalid time %02d:%02d", hour, minute)
	}
	return TimeOfDay(hour*60 + minute), nil
}

// ParseTimeOfDay parses an "HH:MM" value.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(value, "%d:%d", &hour, &minute); err != nil || len(value) != 5 {
		return 0, NewValidationError("time", "expected HH:MM, got %q", value)
	}
	return NewTimeOfDay(hour, minute)
}

func (t TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60) }

func (t TimeOfDay) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *TimeOfDay) UnmarshalText(text []byte) error {
	v, err := ParseTimeOfDay(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ReadingType selects which ration drives a feeding plan's adjusted quantity.
type ReadingType int

const (
	// ReadingBaseline uses the period planner's projected ration only.
	ReadingBaseline ReadingType = iota
	// ReadingBunk uses the intake projected from the day's bunk reading.
	ReadingBunk

	readingTypeCount
)

var readingTypeNames = [readingTypeCount]string{
	ReadingBaseline: "baseline",
	ReadingBunk:     "bunk",
}

func (r ReadingType) String() string { return enumName(readingTypeNames[:], int(r)) }

// ParseReadingType resolves "baseline" or "bunk".
func ParseReadingType(value string) (ReadingType, error) {
	idx, err := parseEnum("reading_type", readingTypeNames[:], value)
	return ReadingType(idx), err
}

func (r ReadingType) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *ReadingType) UnmarshalText(text []byte) error {
	v, err := ParseReadingType(string(text))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// FeedingEvent is one delivery (trato) within a day's plan.
type FeedingEvent struct {
	Order      int       `json:"order"`
	Time       TimeOfDay `json:"time"`
	Percent    float64   `json:"percent"`
	QuantityKg float64   `json:"quantity_kg"`
}

// FeedingPlan is the daily delivery schedule of a lot.
type FeedingPlan struct {
	ID                 string         `json:"id"`
	LotID              string         `json:"lot_id"`
	Date               time.Time      `json:"date"`
	WagonID            string         `json:"wagon_id"`
	DietID             string         `json:"diet_id"`
	DaysOnFeed         int            `json:"days_on_feed"`
	ReadingType        ReadingType    `json:"reading_type"`
	BaseQuantityKg     float64        `json:"base_quantity_kg"`
	AdjustedQuantityKg float64        `json:"adjusted_quantity_kg"`
	Events             []FeedingEvent `json:"events"`
	Alerts             []string       `json:"alerts,omitempty"`
	UpdatedAt          time.Time      `json:"updated_at"`
}
