// Package readings runs the night/morning bunk reading lifecycle: scoring,
// history validation and intake projection.
package readings

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/feedlot/internal/config"
	"github.com/mamadbah2/feedlot/internal/domain/models"
	"github.com/mamadbah2/feedlot/internal/ration"
	"github.com/mamadbah2/feedlot/internal/repository"
	"github.com/mamadbah2/feedlot/internal/service/whatsapp"
)

// MorningInput carries the morning observation of a lot. DaysOnFeed falls
// back to the lot's entry date when left empty. PreviousIntakePerHead falls
// back to the intake in force on the reading's date.
type MorningInput struct {
	LotID                 string                 `json:"-"`
	Date                  time.Time              `json:"-"`
	DietPhase             models.DietPhase       `json:"diet_phase"`
	DaysOnFeed            int                    `json:"days_on_feed"`
	Behavior              models.MorningBehavior `json:"morning_behavior"`
	BunkStatus            models.BunkStatus      `json:"bunk_status"`
	PreviousIntakePerHead *float64               `json:"previous_intake_per_head"`
}

// Service registers and corrects bunk readings.
type Service struct {
	lots     repository.LotRepository
	readings repository.ReadingRepository
	notifier whatsapp.Notifier
	engine   config.EngineConfig
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires a new readings service instance.
func NewService(lots repository.LotRepository, readings repository.ReadingRepository, notifier whatsapp.Notifier, engine config.EngineConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = whatsapp.NewNopService(logger)
	}
	return &Service{
		lots:     lots,
		readings: readings,
		notifier: notifier,
		engine:   engine,
		logger:   logger,
		now:      time.Now,
	}
}

// RegisterNightReading records the evening bunk observation for the reading
// of the given reference date.
func (s *Service) RegisterNightReading(ctx context.Context, lotID string, date time.Time, night models.NightReading) (models.BunkReading, error) {
	if !night.Valid() {
		return models.BunkReading{}, models.NewValidationError("night_reading", "invalid value %d", night)
	}
	if _, err := s.lots.GetLot(ctx, lotID); err != nil {
		return models.BunkReading{}, err
	}

	at := s.now().UTC()
	reading, err := s.readings.UpsertNightReading(ctx, models.BunkReading{
		LotID:         lotID,
		ReferenceDate: models.DateOnly(date),
		NightReading:  &night,
		NightAt:       &at,
	})
	if err != nil {
		return models.BunkReading{}, err
	}

	s.logger.Info("night reading registered",
		zap.String("lot_id", lotID),
		zap.String("date", models.FormatDate(date)),
		zap.String("night_reading", night.String()))
	return reading, nil
}

// RegisterMorningReading completes the reading of a date. It fails with a
// StateError when the reading is already complete.
func (s *Service) RegisterMorningReading(ctx context.Context, in MorningInput) (models.BunkReading, error) {
	return s.morning(ctx, in, false)
}

// CorrectMorningReading recomputes an already complete reading from corrected
// observations.
func (s *Service) CorrectMorningReading(ctx context.Context, in MorningInput) (models.BunkReading, error) {
	current, err := s.readings.GetReading(ctx, in.LotID, in.Date)
	if err != nil {
		return models.BunkReading{}, err
	}
	if !current.Completed {
		return models.BunkReading{}, &models.StateError{
			Entity: "bunk reading",
			Key:    in.LotID + "@" + models.FormatDate(in.Date),
			State:  "incomplete",
			Action: "correct",
		}
	}
	return s.morning(ctx, in, true)
}

// GetReading returns the reading of a lot for a date.
func (s *Service) GetReading(ctx context.Context, lotID string, date time.Time) (models.BunkReading, error) {
	return s.readings.GetReading(ctx, lotID, date)
}

// ListReadings returns a lot's readings between two dates, inclusive.
func (s *Service) ListReadings(ctx context.Context, lotID string, from, to time.Time) ([]models.BunkReading, error) {
	if to.Before(from) {
		return nil, models.NewValidationError("to", "must not be before from")
	}
	if _, err := s.lots.GetLot(ctx, lotID); err != nil {
		return nil, err
	}
	return s.readings.ListReadings(ctx, lotID, from, to)
}

func (s *Service) morning(ctx context.Context, in MorningInput, overwrite bool) (models.BunkReading, error) {
	lot, err := s.lots.GetLot(ctx, in.LotID)
	if err != nil {
		return models.BunkReading{}, err
	}
	date := models.DateOnly(in.Date)

	var night *models.NightReading
	existing, err := s.readings.GetReading(ctx, lot.ID, date)
	switch {
	case errors.Is(err, models.ErrNotFound):
	case err != nil:
		return models.BunkReading{}, err
	case existing.Completed && !overwrite:
		return models.BunkReading{}, &models.StateError{
			Entity: "bunk reading",
			Key:    lot.ID + "@" + models.FormatDate(date),
			State:  "complete",
			Action: "overwrite",
		}
	default:
		night = existing.NightReading
	}

	later, err := s.nextCompleted(ctx, lot, date)
	if err != nil {
		return models.BunkReading{}, err
	}
	previous := lot.CurrentIntakePerHead
	switch {
	case existing.Completed:
		previous = existing.PreviousIntakePerHead
	case later != nil:
		previous = later.PreviousIntakePerHead
	}
	if in.PreviousIntakePerHead != nil {
		previous = *in.PreviousIntakePerHead
	}

	reading, err := s.compute(ctx, lot, date, night, previous, in)
	if err != nil {
		return models.BunkReading{}, err
	}

	stored, err := s.readings.CompleteReading(ctx, reading, overwrite)
	if err != nil {
		return models.BunkReading{}, err
	}

	// Only the most recent complete reading sets the lot's intake.
	if later == nil {
		if err := s.lots.UpdateCurrentIntake(ctx, lot.ID, stored.NewIntakePerHead); err != nil {
			return models.BunkReading{}, err
		}
	}
	s.report(ctx, lot, stored)
	return stored, nil
}

func (s *Service) compute(ctx context.Context, lot models.Lot, date time.Time, night *models.NightReading, previous float64, in MorningInput) (models.BunkReading, error) {
	days := in.DaysOnFeed
	if days == 0 {
		days = lot.DaysOnFeed(date)
	}
	if days < 1 {
		return models.BunkReading{}, models.NewValidationError("days_on_feed", "date %s is before lot entry", models.FormatDate(date))
	}

	score, err := ration.Score(s.engine.Score, ration.ScoreInput{
		Phase:      in.DietPhase,
		Night:      night,
		Behavior:   in.Behavior,
		BunkStatus: in.BunkStatus,
		DaysOnFeed: days,
	})
	if err != nil {
		return models.BunkReading{}, err
	}

	consumption, err := ration.ProjectConsumption(s.engine.Projector, previous, score.AdjustmentPercent, lot.Headcount)
	if err != nil {
		return models.BunkReading{}, err
	}

	prior, err := s.readings.RecentScores(ctx, lot.ID, date, max(s.engine.Validator.ExtremeRepeatDays, 1))
	if err != nil {
		return models.BunkReading{}, err
	}

	alerts := append([]string{}, score.Alerts...)
	alerts = append(alerts, ration.ValidateReading(s.engine.Validator, date, score.Score, prior)...)
	alerts = append(alerts, consumption.Alerts...)

	at := s.now().UTC()
	return models.BunkReading{
		LotID:                 lot.ID,
		ReferenceDate:         date,
		NightReading:          night,
		Completed:             true,
		DietPhase:             in.DietPhase,
		DaysOnFeed:            days,
		MorningBehavior:       in.Behavior,
		BunkStatus:            in.BunkStatus,
		MorningAt:             &at,
		Score:                 score.Score,
		AdjustmentPercent:     score.AdjustmentPercent,
		PreviousIntakePerHead: consumption.PreviousPerHead,
		NewIntakePerHead:      consumption.NewPerHead,
		DeltaPerHead:          consumption.DeltaPerHead,
		Headcount:             lot.Headcount,
		TotalPrevious:         consumption.TotalPrevious,
		TotalNew:              consumption.TotalNew,
		TotalDelta:            consumption.TotalDelta,
		Alerts:                alerts,
	}, nil
}

// nextCompleted returns the earliest complete reading after date, or nil
// when date holds the lot's latest reading.
func (s *Service) nextCompleted(ctx context.Context, lot models.Lot, date time.Time) (*models.BunkReading, error) {
	until := s.now().UTC().AddDate(0, 0, 1)
	if horizon := date.AddDate(0, 0, max(lot.PlannedDurationDays, 1)); horizon.After(until) {
		until = horizon
	}
	later, err := s.readings.ListReadings(ctx, lot.ID, date.AddDate(0, 0, 1), until)
	if err != nil {
		return nil, err
	}
	for _, r := range later {
		if r.Completed {
			return &r, nil
		}
	}
	return nil, nil
}

func (s *Service) report(ctx context.Context, lot models.Lot, r models.BunkReading) {
	fields := []zap.Field{
		zap.String("lot_id", lot.ID),
		zap.String("date", models.FormatDate(r.ReferenceDate)),
		zap.Int("score", r.Score),
		zap.Float64("adjustment_percent", r.AdjustmentPercent),
		zap.Float64("new_intake_per_head", r.NewIntakePerHead),
	}
	s.logger.Info("morning reading completed", fields...)

	if len(r.Alerts) == 0 {
		return
	}
	for _, alert := range r.Alerts {
		s.logger.Warn("reading alert", zap.String("lot_id", lot.ID), zap.String("date", models.FormatDate(r.ReferenceDate)), zap.String("alert", alert))
	}

	label := lot.Code
	if label == "" {
		label = lot.ID
	}
	if err := s.notifier.Notify(ctx, whatsapp.ReadingAlertMessage(label, r)); err != nil {
		s.logger.Error("failed to notify reading alerts", zap.String("lot_id", lot.ID), zap.Error(err))
	}
}
