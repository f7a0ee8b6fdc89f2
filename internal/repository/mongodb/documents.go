package mongodb

import (
	"time"

	"github.com/mamadbah2/feedlot/internal/domain/models"
)

// Documents keep categorical fields as their textual codes so the collections
// stay readable from the shell.

type lotDocument struct {
	ID                   string    `bson:"_id"`
	Code                 string    `bson:"code"`
	Headcount            int       `bson:"headcount"`
	EntryWeightKg        float64   `bson:"entry_weight_kg"`
	ProjectedADG         float64   `bson:"projected_adg"`
	PlannedDurationDays  int       `bson:"planned_duration_days"`
	CurrentIntakePerHead float64   `bson:"current_intake_per_head"`
	EntryDate            time.Time `bson:"entry_date"`
	Active               bool      `bson:"active"`
}

func (d lotDocument) toModel() models.Lot {
	return models.Lot{
		ID:                   d.ID,
		Code:                 d.Code,
		Headcount:            d.Headcount,
		EntryWeightKg:        d.EntryWeightKg,
		ProjectedADG:         d.ProjectedADG,
		PlannedDurationDays:  d.PlannedDurationDays,
		CurrentIntakePerHead: d.CurrentIntakePerHead,
		EntryDate:            d.EntryDate.UTC(),
		Active:               d.Active,
	}
}

func lotFromModel(l models.Lot) lotDocument {
	return lotDocument{
		ID:                   l.ID,
		Code:                 l.Code,
		Headcount:            l.Headcount,
		EntryWeightKg:        l.EntryWeightKg,
		ProjectedADG:         l.ProjectedADG,
		PlannedDurationDays:  l.PlannedDurationDays,
		CurrentIntakePerHead: l.CurrentIntakePerHead,
		EntryDate:            models.DateOnly(l.EntryDate),
		Active:               l.Active,
	}
}

type dietIngredientDocument struct {
	IngredientID     string  `bson:"ingredient_id"`
	Name             string  `bson:"name"`
	InclusionPercent float64 `bson:"inclusion_percent"`
}

type dietDocument struct {
	ID               string                   `bson:"_id"`
	Name             string                   `bson:"name"`
	DryMatterPercent float64                  `bson:"dry_matter_percent"`
	CostPerKgAsFed   float64                  `bson:"cost_per_kg_as_fed"`
	Ingredients      []dietIngredientDocument `bson:"ingredients"`
}

func (d dietDocument) toModel() models.Diet {
	diet := models.Diet{
		ID:               d.ID,
		Name:             d.Name,
		DryMatterPercent: d.DryMatterPercent,
		CostPerKgAsFed:   d.CostPerKgAsFed,
	}
	for _, ing := range d.Ingredients {
		diet.Ingredients = append(diet.Ingredients, models.DietIngredient(ing))
	}
	return diet
}

func dietFromModel(d models.Diet) dietDocument {
	doc := dietDocument{
		ID:               d.ID,
		Name:             d.Name,
		DryMatterPercent: d.DryMatterPercent,
		CostPerKgAsFed:   d.CostPerKgAsFed,
	}
	for _, ing := range d.Ingredients {
		doc.Ingredients = append(doc.Ingredients, dietIngredientDocument(ing))
	}
	return doc
}

type periodDocument struct {
	LotID                           string  `bson:"lot_id"`
	StartDay                        int     `bson:"start_day"`
	EndDay                          int     `bson:"end_day"`
	DietID                          string  `bson:"diet_id"`
	TargetIntakePercentOfBodyweight float64 `bson:"target_intake_percent_of_bodyweight"`
}

type readingDocument struct {
	ID              string     `bson:"_id"`
	LotID           string     `bson:"lot_id"`
	ReferenceDate   time.Time  `bson:"reference_date"`
	NightReading    string     `bson:"night_reading,omitempty"`
	NightAt         *time.Time `bson:"night_at,omitempty"`
	Completed       bool       `bson:"completed"`
	DietPhase       string     `bson:"diet_phase,omitempty"`
	DaysOnFeed      int        `bson:"days_on_feed"`
	MorningBehavior string     `bson:"morning_behavior,omitempty"`
	BunkStatus      string     `bson:"bunk_status,omitempty"`
	MorningAt       *time.Time `bson:"morning_at,omitempty"`

	Score             int     `bson:"score"`
	AdjustmentPercent float64 `bson:"adjustment_percent"`

	PreviousIntakePerHead float64 `bson:"previous_intake_per_head"`
	NewIntakePerHead      float64 `bson:"new_intake_per_head"`
	DeltaPerHead          float64 `bson:"delta_per_head"`
	Headcount             int     `bson:"headcount"`
	TotalPrevious         float64 `bson:"total_previous"`
	TotalNew              float64 `bson:"total_new"`
	TotalDelta            float64 `bson:"total_delta"`

	Alerts    []string  `bson:"alerts"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (d readingDocument) toModel() (models.BunkReading, error) {
	r := models.BunkReading{
		ID:                    d.ID,
		LotID:                 d.LotID,
		ReferenceDate:         d.ReferenceDate.UTC(),
		NightAt:               d.NightAt,
		Completed:             d.Completed,
		DaysOnFeed:            d.DaysOnFeed,
		MorningAt:             d.MorningAt,
		Score:                 d.Score,
		AdjustmentPercent:     d.AdjustmentPercent,
		PreviousIntakePerHead: d.PreviousIntakePerHead,
		NewIntakePerHead:      d.NewIntakePerHead,
		DeltaPerHead:          d.DeltaPerHead,
		Headcount:             d.Headcount,
		TotalPrevious:         d.TotalPrevious,
		TotalNew:              d.TotalNew,
		TotalDelta:            d.TotalDelta,
		Alerts:                append([]string{}, d.Alerts...),
		UpdatedAt:             d.UpdatedAt,
	}

	if d.NightReading != "" {
		night, err := models.ParseNightReading(d.NightReading)
		if err != nil {
			return models.BunkReading{}, err
		}
		r.NightReading = &night
	}

	if d.Completed {
		var err error
		if r.DietPhase, err = models.ParseDietPhase(d.DietPhase); err != nil {
			return models.BunkReading{}, err
		}
		if r.MorningBehavior, err = models.ParseMorningBehavior(d.MorningBehavior); err != nil {
			return models.BunkReading{}, err
		}
		if r.BunkStatus, err = models.ParseBunkStatus(d.BunkStatus); err != nil {
			return models.BunkReading{}, err
		}
	}

	return r, nil
}

type eventDocument struct {
	Order      int     `bson:"order"`
	Time       string  `bson:"time"`
	Percent    float64 `bson:"percent"`
	QuantityKg float64 `bson:"quantity_kg"`
}

type planDocument struct {
	ID                 string          `bson:"_id"`
	LotID              string          `bson:"lot_id"`
	Date               time.Time       `bson:"date"`
	WagonID            string          `bson:"wagon_id"`
	DietID             string          `bson:"diet_id"`
	DaysOnFeed         int             `bson:"days_on_feed"`
	ReadingType        string          `bson:"reading_type"`
	BaseQuantityKg     float64         `bson:"base_quantity_kg"`
	AdjustedQuantityKg float64         `bson:"adjusted_quantity_kg"`
	Events             []eventDocument `bson:"events"`
	Alerts             []string        `bson:"alerts,omitempty"`
	UpdatedAt          time.Time       `bson:"updated_at"`
}

func (d planDocument) toModel() (models.FeedingPlan, error) {
	readingType, err := models.ParseReadingType(d.ReadingType)
	if err != nil {
		return models.FeedingPlan{}, err
	}

	p := models.FeedingPlan{
		ID:                 d.ID,
		LotID:              d.LotID,
		Date:               d.Date.UTC(),
		WagonID:            d.WagonID,
		DietID:             d.DietID,
		DaysOnFeed:         d.DaysOnFeed,
		ReadingType:        readingType,
		BaseQuantityKg:     d.BaseQuantityKg,
		AdjustedQuantityKg: d.AdjustedQuantityKg,
		Alerts:             d.Alerts,
		UpdatedAt:          d.UpdatedAt,
	}
	for _, e := range d.Events {
		at, err := models.ParseTimeOfDay(e.Time)
		if err != nil {
			return models.FeedingPlan{}, err
		}
		p.Events = append(p.Events, models.FeedingEvent{Order: e.Order, Time: at, Percent: e.Percent, QuantityKg: e.QuantityKg})
	}
	return p, nil
}

func eventsFromModel(events []models.FeedingEvent) []eventDocument {
	out := make([]eventDocument, 0, len(events))
	for _, e := range events {
		out = append(out, eventDocument{Order: e.Order, Time: e.Time.String(), Percent: e.Percent, QuantityKg: e.QuantityKg})
	}
	return out
}

type batchDocument struct {
	ID          string     `bson:"_id"`
	Code        string     `bson:"code"`
	DietID      string     `bson:"diet_id"`
	WagonID     string     `bson:"wagon_id"`
	LotID       string     `bson:"lot_id,omitempty"`
	QuantityKg  float64    `bson:"quantity_kg"`
	At          time.Time  `bson:"at"`
	PlanDate    *time.Time `bson:"plan_date,omitempty"`
	PlanEvent   int        `bson:"plan_event,omitempty"`
	Status      string     `bson:"status"`
	Active      bool       `bson:"active"`
	CompletedAt *time.Time `bson:"completed_at,omitempty"`
	CancelledAt *time.Time `bson:"cancelled_at,omitempty"`
}

func (d batchDocument) toModel() (models.Batch, error) {
	status, err := models.ParseBatchStatus(d.Status)
	if err != nil {
		return models.Batch{}, err
	}
	return models.Batch{
		ID:          d.ID,
		Code:        d.Code,
		DietID:      d.DietID,
		WagonID:     d.WagonID,
		LotID:       d.LotID,
		QuantityKg:  d.QuantityKg,
		At:          d.At.UTC(),
		PlanEvent:   d.PlanEvent,
		Status:      status,
		CompletedAt: d.CompletedAt,
		CancelledAt: d.CancelledAt,
	}, nil
}

func batchFromModel(b models.Batch) batchDocument {
	doc := batchDocument{
		ID:          b.ID,
		Code:        b.Code,
		DietID:      b.DietID,
		WagonID:     b.WagonID,
		LotID:       b.LotID,
		QuantityKg:  b.QuantityKg,
		At:          b.At,
		PlanEvent:   b.PlanEvent,
		Status:      b.Status.String(),
		Active:      b.Status != models.BatchCancelled,
		CompletedAt: b.CompletedAt,
		CancelledAt: b.CancelledAt,
	}
	if b.PlanEvent > 0 {
		day := models.DateOnly(b.At)
		doc.PlanDate = &day
	}
	return doc
}

type ingredientDocument struct {
	ID          string  `bson:"_id"`
	Name        string  `bson:"name"`
	AvailableKg float64 `bson:"available_kg"`
}

type movementDocument struct {
	ID           string    `bson:"_id"`
	BatchID      string    `bson:"batch_id"`
	IngredientID string    `bson:"ingredient_id"`
	QuantityKg   float64   `bson:"quantity_kg"`
	CreatedAt    time.Time `bson:"created_at"`
}
