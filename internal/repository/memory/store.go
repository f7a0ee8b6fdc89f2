// Package memory provides a mutex-guarded in-memory Store used by tests and
// by the memory store driver.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mamadbah2/feedlot/internal/domain/models"
	"github.com/mamadbah2/feedlot/internal/repository"
)

type dayKey struct {
	lotID string
	date  time.Time
}

// Store keeps every entity in maps guarded by a single lock.
type Store struct {
	mu          sync.RWMutex
	lots        map[string]models.Lot
	diets       map[string]models.Diet
	periods     map[string][]models.DietPeriod
	readings    map[dayKey]models.BunkReading
	plans       map[dayKey]models.FeedingPlan
	batches     map[string]models.Batch
	ingredients map[string]models.Ingredient
	movements   []models.StockMovement
	now         func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		lots:        make(map[string]models.Lot),
		diets:       make(map[string]models.Diet),
		periods:     make(map[string][]models.DietPeriod),
		readings:    make(map[dayKey]models.BunkReading),
		plans:       make(map[dayKey]models.FeedingPlan),
		batches:     make(map[string]models.Batch),
		ingredients: make(map[string]models.Ingredient),
		now:         time.Now,
	}
}

// Verify interface compliance
var _ repository.Store = (*Store)(nil)

func key(lotID string, date time.Time) dayKey {
	return dayKey{lotID: lotID, date: models.DateOnly(date)}
}

// Close is a no-op.
func (s *Store) Close(context.Context) error { return nil }

// PutLot inserts or replaces a lot.
func (s *Store) PutLot(_ context.Context, lot models.Lot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lots[lot.ID] = lot
	return nil
}

// PutDiet inserts or replaces a diet.
func (s *Store) PutDiet(_ context.Context, diet models.Diet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	diet.Ingredients = append([]models.DietIngredient(nil), diet.Ingredients...)
	s.diets[diet.ID] = diet
	return nil
}

// ReplaceDietPeriods swaps the periods of a lot.
func (s *Store) ReplaceDietPeriods(_ context.Context, lotID string, periods []models.DietPeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.periods[lotID] = append([]models.DietPeriod(nil), periods...)
	return nil
}

// PutIngredient inserts or replaces an ingredient stock position.
func (s *Store) PutIngredient(_ context.Context, ing models.Ingredient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ingredients[ing.ID] = ing
	return nil
}

// GetLot returns a lot by id.
func (s *Store) GetLot(_ context.Context, id string) (models.Lot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lot, ok := s.lots[id]
	if !ok {
		return models.Lot{}, models.NewNotFoundError("lot", id)
	}
	return lot, nil
}

// ListActiveLots returns active lots ordered by id.
func (s *Store) ListActiveLots(context.Context) ([]models.Lot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Lot
	for _, lot := range s.lots {
		if lot.Active {
			out = append(out, lot)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpdateCurrentIntake stores the latest per-head intake of a lot.
func (s *Store) UpdateCurrentIntake(_ context.Context, lotID string, perHead float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lot, ok := s.lots[lotID]
	if !ok {
		return models.NewNotFoundError("lot", lotID)
	}
	lot.CurrentIntakePerHead = perHead
	s.lots[lotID] = lot
	return nil
}

// GetDiet returns a diet by id.
func (s *Store) GetDiet(_ context.Context, id string) (models.Diet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	diet, ok := s.diets[id]
	if !ok {
		return models.Diet{}, models.NewNotFoundError("diet", id)
	}
	return diet, nil
}

// ListDietPeriods returns the periods of a lot ordered by start day.
func (s *Store) ListDietPeriods(_ context.Context, lotID string) ([]models.DietPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	periods, ok := s.periods[lotID]
	if !ok || len(periods) == 0 {
		return nil, models.NewNotFoundError("diet periods", lotID)
	}
	out := append([]models.DietPeriod(nil), periods...)
	sort.Slice(out, func(i, j int) bool { return out[i].StartDay < out[j].StartDay })
	return out, nil
}

// GetReading returns the reading of a lot for a date.
func (s *Store) GetReading(_ context.Context, lotID string, date time.Time) (models.BunkReading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.readings[key(lotID, date)]
	if !ok {
		return models.BunkReading{}, models.NewNotFoundError("bunk reading", lotID+"@"+models.FormatDate(date))
	}
	return cloneReading(r), nil
}

// UpsertNightReading writes the night half of a reading.
func (s *Store) UpsertNightReading(_ context.Context, reading models.BunkReading) (models.BunkReading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(reading.LotID, reading.ReferenceDate)
	current, exists := s.readings[k]
	if exists && current.Completed {
		return models.BunkReading{}, readingCompleteError(current)
	}
	if !exists {
		current = models.BunkReading{ID: uuid.NewString(), LotID: reading.LotID, ReferenceDate: k.date, Alerts: []string{}}
	}
	current.NightReading = reading.NightReading
	current.NightAt = reading.NightAt
	current.UpdatedAt = s.now().UTC()
	s.readings[k] = current
	return cloneReading(current), nil
}

// CompleteReading writes the morning half of a reading, keeping its night half.
func (s *Store) CompleteReading(_ context.Context, reading models.BunkReading, overwrite bool) (models.BunkReading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(reading.LotID, reading.ReferenceDate)
	current, exists := s.readings[k]
	if exists && current.Completed && !overwrite {
		return models.BunkReading{}, readingCompleteError(current)
	}

	next := cloneReading(reading)
	next.ReferenceDate = k.date
	next.Completed = true
	next.UpdatedAt = s.now().UTC()
	if exists {
		next.ID = current.ID
		next.NightReading = current.NightReading
		next.NightAt = current.NightAt
	} else if next.ID == "" {
		next.ID = uuid.NewString()
	}
	s.readings[k] = next
	return cloneReading(next), nil
}

// RecentScores returns dated scores of complete readings before a date, newest first.
func (s *Store) RecentScores(_ context.Context, lotID string, before time.Time, limit int) ([]models.DayScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := models.DateOnly(before)
	var prior []models.BunkReading
	for k, r := range s.readings {
		if k.lotID == lotID && r.Completed && k.date.Before(cutoff) {
			prior = append(prior, r)
		}
	}
	sort.Slice(prior, func(i, j int) bool { return prior[i].ReferenceDate.After(prior[j].ReferenceDate) })

	scores := make([]models.DayScore, 0, limit)
	for i := 0; i < len(prior) && i < limit; i++ {
		scores = append(scores, models.DayScore{Date: prior[i].ReferenceDate, Score: prior[i].Score})
	}
	return scores, nil
}

// ListReadings returns a lot's readings in the inclusive date range, oldest first.
func (s *Store) ListReadings(_ context.Context, lotID string, from, to time.Time) ([]models.BunkReading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start, end := models.DateOnly(from), models.DateOnly(to)
	var out []models.BunkReading
	for k, r := range s.readings {
		if k.lotID == lotID && !k.date.Before(start) && !k.date.After(end) {
			out = append(out, cloneReading(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReferenceDate.Before(out[j].ReferenceDate) })
	return out, nil
}

// ListReadingsByDate returns every lot's reading for a date ordered by lot.
func (s *Store) ListReadingsByDate(_ context.Context, date time.Time) ([]models.BunkReading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	day := models.DateOnly(date)
	var out []models.BunkReading
	for k, r := range s.readings {
		if k.date.Equal(day) {
			out = append(out, cloneReading(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LotID < out[j].LotID })
	return out, nil
}

// GetPlan returns the plan of a lot for a date.
func (s *Store) GetPlan(_ context.Context, lotID string, date time.Time) (models.FeedingPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plans[key(lotID, date)]
	if !ok {
		return models.FeedingPlan{}, models.NewNotFoundError("feeding plan", lotID+"@"+models.FormatDate(date))
	}
	return clonePlan(p), nil
}

// LatestPlanBefore returns the most recent plan of a lot strictly before date.
func (s *Store) LatestPlanBefore(_ context.Context, lotID string, date time.Time) (models.FeedingPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := models.DateOnly(date)
	var (
		best  models.FeedingPlan
		found bool
	)
	for k, p := range s.plans {
		if k.lotID != lotID || !k.date.Before(cutoff) {
			continue
		}
		if !found || k.date.After(best.Date) {
			best, found = p, true
		}
	}
	if !found {
		return models.FeedingPlan{}, models.NewNotFoundError("feeding plan", lotID+" before "+models.FormatDate(date))
	}
	return clonePlan(best), nil
}

// SavePlan upserts a plan by (lot, date), keeping the id of an existing plan.
func (s *Store) SavePlan(_ context.Context, plan models.FeedingPlan) (models.FeedingPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(plan.LotID, plan.Date)
	next := clonePlan(plan)
	next.Date = k.date
	next.UpdatedAt = s.now().UTC()
	if current, ok := s.plans[k]; ok {
		next.ID = current.ID
	} else if next.ID == "" {
		next.ID = uuid.NewString()
	}
	s.plans[k] = next
	return clonePlan(next), nil
}

// CreateBatch inserts a new batch.
func (s *Store) CreateBatch(_ context.Context, batch models.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.batches[batch.ID]; exists {
		return fmt.Errorf("batch id %s: %w", batch.ID, repository.ErrDuplicate)
	}
	day := models.DateOnly(batch.At)
	for _, b := range s.batches {
		if batch.Code != "" && b.Code == batch.Code {
			return fmt.Errorf("batch code %s: %w", batch.Code, repository.ErrDuplicate)
		}
		if batch.PlanEvent > 0 && b.PlanEvent == batch.PlanEvent && b.LotID == batch.LotID &&
			b.Status != models.BatchCancelled && models.DateOnly(b.At).Equal(day) {
			return models.PlanSlotTaken(batch.LotID, day)
		}
	}
	s.batches[batch.ID] = batch
	return nil
}

// GetBatch returns a batch by id.
func (s *Store) GetBatch(_ context.Context, id string) (models.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.batches[id]
	if !ok {
		return models.Batch{}, models.NewNotFoundError("batch", id)
	}
	return b, nil
}

// ListBatchesByDate returns the batches prepared on a date ordered by time.
func (s *Store) ListBatchesByDate(_ context.Context, date time.Time) ([]models.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	day := models.DateOnly(date)
	var out []models.Batch
	for _, b := range s.batches {
		if models.DateOnly(b.At).Equal(day) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out, nil
}

// CancelBatch moves a preparing batch to CANCELADA.
func (s *Store) CancelBatch(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.preparingBatch(id, "cancel")
	if err != nil {
		return err
	}
	b.Status = models.BatchCancelled
	b.CancelledAt = &at
	s.batches[id] = b
	return nil
}

// CompleteBatch concludes a preparing batch and deducts its draws under one lock.
func (s *Store) CompleteBatch(_ context.Context, id string, draws []models.StockDraw, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.preparingBatch(id, "approve")
	if err != nil {
		return err
	}

	var shortages []models.Shortage
	for _, d := range draws {
		ing := s.ingredients[d.IngredientID]
		if ing.AvailableKg+1e-9 < d.QuantityKg {
			shortages = append(shortages, models.Shortage{
				IngredientID: d.IngredientID,
				Name:         d.Name,
				RequiredKg:   d.QuantityKg,
				AvailableKg:  ing.AvailableKg,
				ShortfallKg:  math.Round((d.QuantityKg-ing.AvailableKg)*1000) / 1000,
			})
		}
	}
	if len(shortages) > 0 {
		return &models.StockError{BatchID: id, Shortages: shortages}
	}

	for _, d := range draws {
		ing := s.ingredients[d.IngredientID]
		ing.AvailableKg -= d.QuantityKg
		s.ingredients[d.IngredientID] = ing
		s.movements = append(s.movements, models.StockMovement{
			ID:           uuid.NewString(),
			BatchID:      id,
			IngredientID: d.IngredientID,
			QuantityKg:   -d.QuantityKg,
			CreatedAt:    at,
		})
	}
	b.Status = models.BatchConcluded
	b.CompletedAt = &at
	s.batches[id] = b
	return nil
}

// AvailableStock returns the stock of an ingredient.
func (s *Store) AvailableStock(_ context.Context, ingredientID string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ing, ok := s.ingredients[ingredientID]
	if !ok {
		return 0, models.NewNotFoundError("ingredient", ingredientID)
	}
	return ing.AvailableKg, nil
}

// Movements returns the stock movements recorded so far.
func (s *Store) Movements() []models.StockMovement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.StockMovement(nil), s.movements...)
}

func (s *Store) preparingBatch(id, action string) (models.Batch, error) {
	b, ok := s.batches[id]
	if !ok {
		return models.Batch{}, models.NewNotFoundError("batch", id)
	}
	if b.Status != models.BatchPreparing {
		return models.Batch{}, &models.StateError{Entity: "batch", Key: id, State: b.Status.String(), Action: action}
	}
	return b, nil
}

func readingCompleteError(r models.BunkReading) error {
	return &models.StateError{
		Entity: "bunk reading",
		Key:    r.LotID + "@" + models.FormatDate(r.ReferenceDate),
		State:  "complete",
		Action: "overwrite",
	}
}

func cloneReading(r models.BunkReading) models.BunkReading {
	r.Alerts = append([]string{}, r.Alerts...)
	return r
}

func clonePlan(p models.FeedingPlan) models.FeedingPlan {
	p.Events = append([]models.FeedingEvent(nil), p.Events...)
	p.Alerts = append([]string(nil), p.Alerts...)
	return p
}
