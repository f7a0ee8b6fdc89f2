package models

import "time"

// DietPhase is the stage of the feeding cycle the lot is in.
type DietPhase int

const (
	PhaseAdaptation DietPhase = iota
	PhaseFinishing

	dietPhaseCount
)

var dietPhaseNames = [dietPhaseCount]string{
	PhaseAdaptation: "adaptacao",
	PhaseFinishing:  "terminacao",
}

func (p DietPhase) String() string { return enumName(dietPhaseNames[:], int(p)) }

// Valid reports whether p is one of the declared phases.
func (p DietPhase) Valid() bool { return p >= 0 && p < dietPhaseCount }

// ParseDietPhase resolves a phase code such as "adaptacao".
func ParseDietPhase(value string) (DietPhase, error) {
	idx, err := parseEnum("diet_phase", dietPhaseNames[:], value)
	return DietPhase(idx), err
}

func (p DietPhase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *DietPhase) UnmarshalText(text []byte) error {
	v, err := ParseDietPhase(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// NightReading is the evening bunk check recorded the day before the morning reading.
type NightReading int

const (
	NightEmpty NightReading = iota
	NightNormal
	NightFull

	nightReadingCount
)

var nightReadingNames = [nightReadingCount]string{
	NightEmpty:  "vazio",
	NightNormal: "normal",
	NightFull:   "cheio",
}

func (n NightReading) String() string { return enumName(nightReadingNames[:], int(n)) }

// Valid reports whether n is one of the declared night readings.
func (n NightReading) Valid() bool { return n >= 0 && n < nightReadingCount }

// ParseNightReading resolves a night reading code such as "vazio".
func ParseNightReading(value string) (NightReading, error) {
	idx, err := parseEnum("night_reading", nightReadingNames[:], value)
	return NightReading(idx), err
}

func (n NightReading) MarshalText() ([]byte, error) { return []byte(n.String()), nil }

func (n *NightReading) UnmarshalText(text []byte) error {
	v, err := ParseNightReading(string(text))
	if err != nil {
		return err
	}
	*n = v
	return nil
}

// MorningBehavior ranks the herd at the bunk from strongest hunger signal to calmest.
type MorningBehavior int

const (
	BehaviorHungry MorningBehavior = iota
	BehaviorAnxious
	BehaviorStandingCalm
	BehaviorLyingCalm

	// MorningBehaviorCount is the number of declared behaviors.
	MorningBehaviorCount
)

var morningBehaviorNames = [MorningBehaviorCount]string{
	BehaviorHungry:       "famintos",
	BehaviorAnxious:      "ansiosos",
	BehaviorStandingCalm: "em_pe_tranquilos",
	BehaviorLyingCalm:    "deitados_calmos",
}

func (b MorningBehavior) String() string { return enumName(morningBehaviorNames[:], int(b)) }

// Valid reports whether b is one of the declared behaviors.
func (b MorningBehavior) Valid() bool { return b >= 0 && b < MorningBehaviorCount }

// ParseMorningBehavior resolves a behavior code such as "deitados_calmos".
func ParseMorningBehavior(value string) (MorningBehavior, error) {
	idx, err := parseEnum("morning_behavior", morningBehaviorNames[:], value)
	return MorningBehavior(idx), err
}

func (b MorningBehavior) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

func (b *MorningBehavior) UnmarshalText(text []byte) error {
	v, err := ParseMorningBehavior(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// BunkStatus ranks the morning bunk from licked clean to heavy leftovers.
type BunkStatus int

const (
	BunkLicked BunkStatus = iota
	BunkClean
	BunkFewLeftovers
	BunkLeftovers
	BunkHeavyLeftovers

	// BunkStatusCount is the number of declared bunk statuses.
	BunkStatusCount
)

var bunkStatusNames = [BunkStatusCount]string{
	BunkLicked:         "lambido",
	BunkClean:          "limpo",
	BunkFewLeftovers:   "poucas_sobras",
	BunkLeftovers:      "sobras",
	BunkHeavyLeftovers: "muitas_sobras",
}

func (s BunkStatus) String() string { return enumName(bunkStatusNames[:], int(s)) }

// Valid reports whether s is one of the declared statuses.
func (s BunkStatus) Valid() bool { return s >= 0 && s < BunkStatusCount }

// ParseBunkStatus resolves a bunk status code such as "muitas_sobras".
func ParseBunkStatus(value string) (BunkStatus, error) {
	idx, err := parseEnum("bunk_status", bunkStatusNames[:], value)
	return BunkStatus(idx), err
}

func (s BunkStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *BunkStatus) UnmarshalText(text []byte) error {
	v, err := ParseBunkStatus(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// BunkReading is the night/morning bunk observation of a lot for one reference date.
// The night half is optional; the reading is complete once the morning half is scored.
type BunkReading struct {
	ID            string        `json:"id"`
	LotID         string        `json:"lot_id"`
	ReferenceDate time.Time     `json:"reference_date"`
	NightReading  *NightReading `json:"night_reading,omitempty"`
	NightAt       *time.Time    `json:"night_at,omitempty"`

	Completed       bool            `json:"completed"`
	DietPhase       DietPhase       `json:"diet_phase"`
	DaysOnFeed      int             `json:"days_on_feed"`
	MorningBehavior MorningBehavior `json:"morning_behavior"`
	BunkStatus      BunkStatus      `json:"bunk_status"`
	MorningAt       *time.Time      `json:"morning_at,omitempty"`

	Score             int     `json:"score"`
	AdjustmentPercent float64 `json:"adjustment_percent"`

	PreviousIntakePerHead float64 `json:"previous_intake_per_head"`
	NewIntakePerHead      float64 `json:"new_intake_per_head"`
	DeltaPerHead          float64 `json:"delta_per_head"`
	Headcount             int     `json:"headcount"`
	TotalPrevious         float64 `json:"total_previous"`
	TotalNew              float64 `json:"total_new"`
	TotalDelta            float64 `json:"total_delta"`

	Alerts    []string  `json:"alerts"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DayScore is the score of a complete reading on its reference date.
type DayScore struct {
	Date  time.Time `json:"date"`
	Score int       `json:"score"`
}
