// Package feeding builds and persists the daily feeding plans of the lots.
package feeding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/feedlot/internal/domain/models"
	"github.com/mamadbah2/feedlot/internal/ration"
	"github.com/mamadbah2/feedlot/internal/repository"
	"github.com/mamadbah2/feedlot/internal/repository/sheets"
)

// PlanOverride replaces the carried-forward wagon and events of a plan.
// Empty fields keep the carried values.
type PlanOverride struct {
	WagonID string                `json:"wagon_id"`
	Events  []models.FeedingEvent `json:"events"`
}

// Service builds feeding plans from the period planner and bunk readings.
type Service struct {
	lots     repository.LotRepository
	readings repository.ReadingRepository
	plans    repository.PlanRepository
	journal  sheets.Journal
	logger   *zap.Logger
}

// NewService wires a new feeding service instance.
func NewService(lots repository.LotRepository, readings repository.ReadingRepository, plans repository.PlanRepository, journal sheets.Journal, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if journal == nil {
		journal = sheets.NopJournal{}
	}
	return &Service{
		lots:     lots,
		readings: readings,
		plans:    plans,
		journal:  journal,
		logger:   logger,
	}
}

// BuildFeedingPlan computes and stores the plan of a lot for date. The
// schedule comes from override when it has events, otherwise from the plan
// already stored for date, then the most recent prior plan, then the default
// three-event split.
func (s *Service) BuildFeedingPlan(ctx context.Context, lotID string, date time.Time, readingType models.ReadingType, override *PlanOverride) (models.FeedingPlan, error) {
	date = models.DateOnly(date)
	lot, periods, diets, err := s.rationInputs(ctx, lotID)
	if err != nil {
		return models.FeedingPlan{}, err
	}

	day := lot.DaysOnFeed(date)
	baseline, err := ration.RationForDay(lot, periods, diets, day)
	if err != nil {
		return models.FeedingPlan{}, err
	}

	plan := models.FeedingPlan{
		LotID:          lot.ID,
		Date:           date,
		DietID:         baseline.DietID,
		DaysOnFeed:     day,
		ReadingType:    readingType,
		BaseQuantityKg: ration.Round2(baseline.AsFedKgLot),
	}
	plan.AdjustedQuantityKg = plan.BaseQuantityKg

	switch readingType {
	case models.ReadingBaseline:
	case models.ReadingBunk:
		reading, err := s.readings.GetReading(ctx, lot.ID, date)
		switch {
		case err == nil && reading.Completed:
			plan.AdjustedQuantityKg = ration.Round2(reading.TotalNew)
		case err == nil, errors.Is(err, models.ErrNotFound):
			plan.Alerts = append(plan.Alerts, fmt.Sprintf("no complete bunk reading for %s, using baseline ration", models.FormatDate(date)))
		default:
			return models.FeedingPlan{}, err
		}
	default:
		return models.FeedingPlan{}, models.NewValidationError("reading_type", "invalid value %d", readingType)
	}

	schedule, wagon, err := s.schedule(ctx, lot.ID, date, plan.AdjustedQuantityKg, override)
	if err != nil {
		return models.FeedingPlan{}, err
	}
	plan.WagonID = wagon
	plan.Events = schedule.Events

	return s.store(ctx, plan)
}

// SaveFeedingPlan replaces the wagon and events of a lot's plan for date after
// checking that the event percents sum to 100. A missing plan is built from
// the baseline ration first.
func (s *Service) SaveFeedingPlan(ctx context.Context, lotID string, date time.Time, wagonID string, events []models.FeedingEvent) (models.FeedingPlan, error) {
	if len(events) == 0 {
		return models.FeedingPlan{}, models.NewValidationError("events", "plan needs at least one event")
	}

	current, err := s.plans.GetPlan(ctx, lotID, date)
	if errors.Is(err, models.ErrNotFound) {
		return s.BuildFeedingPlan(ctx, lotID, date, models.ReadingBaseline, &PlanOverride{WagonID: wagonID, Events: events})
	}
	if err != nil {
		return models.FeedingPlan{}, err
	}

	schedule, err := ration.NewSchedule(current.AdjustedQuantityKg, events)
	if err != nil {
		return models.FeedingPlan{}, err
	}
	if err := schedule.Validate(); err != nil {
		return models.FeedingPlan{}, err
	}

	if wagonID != "" {
		current.WagonID = wagonID
	}
	current.Events = schedule.Events
	return s.store(ctx, current)
}

// GetFeedingPlan returns the plan of a lot for a date.
func (s *Service) GetFeedingPlan(ctx context.Context, lotID string, date time.Time) (models.FeedingPlan, error) {
	return s.plans.GetPlan(ctx, lotID, date)
}

// ProjectRation returns the whole-cycle ration projection of a lot.
func (s *Service) ProjectRation(ctx context.Context, lotID string) (*ration.Projection, error) {
	lot, periods, diets, err := s.rationInputs(ctx, lotID)
	if err != nil {
		return nil, err
	}
	return ration.Project(lot, periods, diets)
}

// GenerateDailyPlans builds a baseline plan for every active lot that has no
// plan for date yet. It returns how many plans were created. Failures of one
// lot do not stop the others.
func (s *Service) GenerateDailyPlans(ctx context.Context, date time.Time) (int, error) {
	lots, err := s.lots.ListActiveLots(ctx)
	if err != nil {
		return 0, err
	}

	var (
		created int
		errs    []error
	)
	for _, lot := range lots {
		if day := lot.DaysOnFeed(date); day < 1 || day > lot.PlannedDurationDays {
			continue
		}
		_, err := s.plans.GetPlan(ctx, lot.ID, date)
		if err == nil {
			continue
		}
		if !errors.Is(err, models.ErrNotFound) {
			errs = append(errs, fmt.Errorf("lot %s: %w", lot.ID, err))
			continue
		}
		if _, err := s.BuildFeedingPlan(ctx, lot.ID, date, models.ReadingBaseline, nil); err != nil {
			s.logger.Error("failed to build daily plan", zap.String("lot_id", lot.ID), zap.Error(err))
			errs = append(errs, fmt.Errorf("lot %s: %w", lot.ID, err))
			continue
		}
		created++
	}
	return created, errors.Join(errs...)
}

func (s *Service) schedule(ctx context.Context, lotID string, date time.Time, totalKg float64, override *PlanOverride) (ration.Schedule, string, error) {
	var wagon string
	if override != nil {
		wagon = override.WagonID
	}

	var (
		schedule ration.Schedule
		err      error
	)
	switch {
	case override != nil && len(override.Events) > 0:
		schedule, err = ration.NewSchedule(totalKg, override.Events)
	default:
		source, found, srcErr := s.scheduleSource(ctx, lotID, date)
		if srcErr != nil {
			return ration.Schedule{}, "", srcErr
		}
		if found {
			schedule, err = ration.CarryForward(source, totalKg)
			if wagon == "" {
				wagon = source.WagonID
			}
		} else {
			schedule, err = ration.DefaultSchedule(totalKg)
		}
	}
	if err != nil {
		return ration.Schedule{}, "", err
	}
	if err := schedule.Validate(); err != nil {
		return ration.Schedule{}, "", err
	}
	return schedule, wagon, nil
}

// scheduleSource picks the plan whose events a rebuild rescales: the plan
// already stored for date, else the most recent earlier one.
func (s *Service) scheduleSource(ctx context.Context, lotID string, date time.Time) (models.FeedingPlan, bool, error) {
	current, err := s.plans.GetPlan(ctx, lotID, date)
	switch {
	case err == nil && len(current.Events) > 0:
		return current, true, nil
	case err != nil && !errors.Is(err, models.ErrNotFound):
		return models.FeedingPlan{}, false, err
	}

	prev, err := s.plans.LatestPlanBefore(ctx, lotID, date)
	switch {
	case err == nil:
		return prev, len(prev.Events) > 0, nil
	case errors.Is(err, models.ErrNotFound):
		return models.FeedingPlan{}, false, nil
	default:
		return models.FeedingPlan{}, false, err
	}
}

func (s *Service) store(ctx context.Context, plan models.FeedingPlan) (models.FeedingPlan, error) {
	saved, err := s.plans.SavePlan(ctx, plan)
	if err != nil {
		return models.FeedingPlan{}, err
	}

	s.logger.Info("feeding plan saved",
		zap.String("lot_id", saved.LotID),
		zap.String("date", models.FormatDate(saved.Date)),
		zap.String("reading_type", saved.ReadingType.String()),
		zap.Float64("adjusted_quantity_kg", saved.AdjustedQuantityKg),
		zap.Int("events", len(saved.Events)))
	for _, alert := range saved.Alerts {
		s.logger.Warn("feeding plan alert", zap.String("lot_id", saved.LotID), zap.String("alert", alert))
	}

	if err := s.journal.RecordFeedingPlan(ctx, saved); err != nil {
		s.logger.Error("failed to journal feeding plan", zap.String("plan_id", saved.ID), zap.Error(err))
	}
	return saved, nil
}

func (s *Service) rationInputs(ctx context.Context, lotID string) (models.Lot, []models.DietPeriod, map[string]models.Diet, error) {
	lot, err := s.lots.GetLot(ctx, lotID)
	if err != nil {
		return models.Lot{}, nil, nil, err
	}
	periods, err := s.lots.ListDietPeriods(ctx, lotID)
	if err != nil {
		return models.Lot{}, nil, nil, err
	}

	diets := make(map[string]models.Diet, len(periods))
	for _, p := range periods {
		if _, ok := diets[p.DietID]; ok {
			continue
		}
		diet, err := s.lots.GetDiet(ctx, p.DietID)
		if err != nil {
			return models.Lot{}, nil, nil, err
		}
		diets[p.DietID] = diet
	}
	return lot, periods, diets, nil
}
