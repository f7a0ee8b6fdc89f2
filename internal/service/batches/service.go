// Package batches manages feed batches from preparation to conclusion or
// cancellation, drawing ingredient stock on approval.
package batches

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/feedlot/internal/domain/models"
	"github.com/mamadbah2/feedlot/internal/repository"
	"github.com/mamadbah2/feedlot/internal/repository/sheets"
	"github.com/mamadbah2/feedlot/internal/service/whatsapp"
)

var (
	hundred          = decimal.NewFromInt(100)
	inclusionEpsilon = decimal.NewFromFloat(0.01)
)

// codeAttempts bounds how many codes CreateBatch draws before giving up on
// repeated collisions.
const codeAttempts = 5

// NewBatch describes a batch to prepare.
type NewBatch struct {
	DietID     string    `json:"diet_id"`
	WagonID    string    `json:"wagon_id"`
	LotID      string    `json:"lot_id"`
	QuantityKg float64   `json:"quantity_kg"`
	At         time.Time `json:"at"`
	PlanEvent  int       `json:"-"`
}

// Service runs the batch lifecycle.
type Service struct {
	lots     repository.LotRepository
	plans    repository.PlanRepository
	batches  repository.BatchRepository
	stock    repository.InventoryRepository
	notifier whatsapp.Notifier
	journal  sheets.Journal
	logger   *zap.Logger
	now      func() time.Time
	code     func(time.Time) string
}

// NewService wires a new batch service instance.
func NewService(lots repository.LotRepository, plans repository.PlanRepository, batches repository.BatchRepository, stock repository.InventoryRepository, notifier whatsapp.Notifier, journal sheets.Journal, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = whatsapp.NewNopService(logger)
	}
	if journal == nil {
		journal = sheets.NopJournal{}
	}
	return &Service{
		lots:     lots,
		plans:    plans,
		batches:  batches,
		stock:    stock,
		notifier: notifier,
		journal:  journal,
		logger:   logger,
		now:      time.Now,
		code:     batchCode,
	}
}

// CreateBatch registers a batch in PREPARANDO.
func (s *Service) CreateBatch(ctx context.Context, in NewBatch) (models.Batch, error) {
	if in.DietID == "" {
		return models.Batch{}, models.NewValidationError("diet_id", "is required")
	}
	if in.QuantityKg <= 0 {
		return models.Batch{}, models.NewValidationError("quantity_kg", "must be positive, got %.2f", in.QuantityKg)
	}
	if _, err := s.lots.GetDiet(ctx, in.DietID); err != nil {
		return models.Batch{}, err
	}

	at := in.At
	if at.IsZero() {
		at = s.now()
	}
	at = at.UTC()

	batch := models.Batch{
		DietID:     in.DietID,
		WagonID:    in.WagonID,
		LotID:      in.LotID,
		QuantityKg: in.QuantityKg,
		At:         at,
		PlanEvent:  in.PlanEvent,
		Status:     models.BatchPreparing,
	}
	for attempt := 1; ; attempt++ {
		batch.ID = uuid.NewString()
		batch.Code = s.code(at)
		err := s.batches.CreateBatch(ctx, batch)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrDuplicate) || attempt == codeAttempts {
			return models.Batch{}, err
		}
		s.logger.Warn("batch code collision, drawing a new code", zap.String("code", batch.Code), zap.Int("attempt", attempt))
	}

	s.logger.Info("batch created",
		zap.String("batch_id", batch.ID),
		zap.String("code", batch.Code),
		zap.String("diet_id", batch.DietID),
		zap.Float64("quantity_kg", batch.QuantityKg))
	return batch, nil
}

// PrepareBatchesForPlan creates one batch per event of a lot's plan for date,
// using the event quantity and the plan's diet. The store holds one active
// batch per plan event, so of two concurrent calls only one prepares.
func (s *Service) PrepareBatchesForPlan(ctx context.Context, lotID string, date time.Time) ([]models.Batch, error) {
	date = models.DateOnly(date)
	plan, err := s.plans.GetPlan(ctx, lotID, date)
	if err != nil {
		return nil, err
	}

	existing, err := s.batches.ListBatchesByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	for _, b := range existing {
		if b.LotID == lotID && b.Status != models.BatchCancelled {
			return nil, models.PlanSlotTaken(lotID, date)
		}
	}

	dietID := plan.DietID
	if dietID == "" {
		if dietID, err = s.dietOnDay(ctx, lotID, plan.DaysOnFeed); err != nil {
			return nil, err
		}
	}

	var created []models.Batch
	for _, e := range plan.Events {
		if e.QuantityKg <= 0 {
			continue
		}
		batch, err := s.CreateBatch(ctx, NewBatch{
			DietID:     dietID,
			WagonID:    plan.WagonID,
			LotID:      lotID,
			QuantityKg: e.QuantityKg,
			At:         date.Add(time.Duration(e.Time) * time.Minute),
			PlanEvent:  e.Order,
		})
		if err != nil {
			return created, err
		}
		created = append(created, batch)
	}
	return created, nil
}

// ApproveBatch concludes a preparing batch and deducts its ingredients from
// stock. When any ingredient is short the batch stays in PREPARANDO and a
// StockError listing every shortage is returned.
func (s *Service) ApproveBatch(ctx context.Context, id string) (models.Batch, error) {
	batch, err := s.batches.GetBatch(ctx, id)
	if err != nil {
		return models.Batch{}, err
	}
	if batch.Status.Terminal() {
		return models.Batch{}, &models.StateError{Entity: "batch", Key: id, State: batch.Status.String(), Action: "approve"}
	}

	diet, err := s.lots.GetDiet(ctx, batch.DietID)
	if err != nil {
		return models.Batch{}, err
	}
	draws, err := Requirements(diet, batch.QuantityKg)
	if err != nil {
		return models.Batch{}, err
	}

	shortages, err := s.shortages(ctx, draws)
	if err != nil {
		return models.Batch{}, err
	}
	if len(shortages) > 0 {
		return models.Batch{}, s.reportShortage(ctx, batch, &models.StockError{BatchID: id, Shortages: shortages})
	}

	if err := s.batches.CompleteBatch(ctx, id, draws, s.now().UTC()); err != nil {
		var stockErr *models.StockError
		if errors.As(err, &stockErr) {
			return models.Batch{}, s.reportShortage(ctx, batch, stockErr)
		}
		return models.Batch{}, err
	}

	concluded, err := s.batches.GetBatch(ctx, id)
	if err != nil {
		return models.Batch{}, err
	}
	s.logger.Info("batch concluded", zap.String("batch_id", id), zap.String("code", concluded.Code), zap.Int("ingredients", len(draws)))
	s.record(ctx, concluded)
	return concluded, nil
}

// CancelBatch moves a preparing batch to CANCELADA without touching stock.
func (s *Service) CancelBatch(ctx context.Context, id string) (models.Batch, error) {
	batch, err := s.batches.GetBatch(ctx, id)
	if err != nil {
		return models.Batch{}, err
	}
	if batch.Status.Terminal() {
		return models.Batch{}, &models.StateError{Entity: "batch", Key: id, State: batch.Status.String(), Action: "cancel"}
	}

	if err := s.batches.CancelBatch(ctx, id, s.now().UTC()); err != nil {
		return models.Batch{}, err
	}

	cancelled, err := s.batches.GetBatch(ctx, id)
	if err != nil {
		return models.Batch{}, err
	}
	s.logger.Info("batch cancelled", zap.String("batch_id", id), zap.String("code", cancelled.Code))
	s.record(ctx, cancelled)
	return cancelled, nil
}

// GetBatch returns a batch by id.
func (s *Service) GetBatch(ctx context.Context, id string) (models.Batch, error) {
	return s.batches.GetBatch(ctx, id)
}

// ListBatches returns the batches prepared on date.
func (s *Service) ListBatches(ctx context.Context, date time.Time) ([]models.Batch, error) {
	return s.batches.ListBatchesByDate(ctx, date)
}

// Requirements splits a batch quantity into per-ingredient draws from the
// diet's as-fed inclusion percentages.
func Requirements(diet models.Diet, quantityKg float64) ([]models.StockDraw, error) {
	if len(diet.Ingredients) == 0 {
		return nil, models.NewValidationError("ingredients", "diet %s has no ingredients", diet.ID)
	}

	total := decimal.Zero
	for _, ing := range diet.Ingredients {
		if ing.InclusionPercent <= 0 {
			return nil, models.NewValidationError("inclusion_percent", "ingredient %s of diet %s must be positive", ing.IngredientID, diet.ID)
		}
		total = total.Add(decimal.NewFromFloat(ing.InclusionPercent))
	}
	if total.Sub(hundred).Abs().GreaterThan(inclusionEpsilon) {
		return nil, models.NewValidationError("ingredients", "inclusions of diet %s sum to %s%%, expected 100", diet.ID, total.StringFixed(2))
	}

	qty := decimal.NewFromFloat(quantityKg)
	draws := make([]models.StockDraw, 0, len(diet.Ingredients))
	for _, ing := range diet.Ingredients {
		need := qty.Mul(decimal.NewFromFloat(ing.InclusionPercent)).Div(hundred).Round(3)
		draws = append(draws, models.StockDraw{
			IngredientID: ing.IngredientID,
			Name:         ing.Name,
			QuantityKg:   need.InexactFloat64(),
		})
	}
	return draws, nil
}

func (s *Service) shortages(ctx context.Context, draws []models.StockDraw) ([]models.Shortage, error) {
	var out []models.Shortage
	for _, d := range draws {
		available, err := s.stock.AvailableStock(ctx, d.IngredientID)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		need := decimal.NewFromFloat(d.QuantityKg)
		have := decimal.NewFromFloat(available)
		if have.LessThan(need) {
			out = append(out, models.Shortage{
				IngredientID: d.IngredientID,
				Name:         d.Name,
				RequiredKg:   d.QuantityKg,
				AvailableKg:  available,
				ShortfallKg:  need.Sub(have).Round(3).InexactFloat64(),
			})
		}
	}
	return out, nil
}

func (s *Service) dietOnDay(ctx context.Context, lotID string, day int) (string, error) {
	periods, err := s.lots.ListDietPeriods(ctx, lotID)
	if err != nil {
		return "", err
	}
	for _, p := range periods {
		if p.Covers(day) {
			return p.DietID, nil
		}
	}
	return "", models.NewNotFoundError("diet period", fmt.Sprintf("%s day %d", lotID, day))
}

func (s *Service) reportShortage(ctx context.Context, batch models.Batch, stockErr *models.StockError) error {
	for _, sh := range stockErr.Shortages {
		s.logger.Warn("batch stock shortage",
			zap.String("batch_id", batch.ID),
			zap.String("ingredient_id", sh.IngredientID),
			zap.Float64("shortfall_kg", sh.ShortfallKg))
	}
	if err := s.notifier.Notify(ctx, whatsapp.ShortageMessage(batch, stockErr)); err != nil {
		s.logger.Error("failed to notify stock shortage", zap.String("batch_id", batch.ID), zap.Error(err))
	}
	return stockErr
}

func (s *Service) record(ctx context.Context, batch models.Batch) {
	if err := s.journal.RecordBatch(ctx, batch); err != nil {
		s.logger.Error("failed to journal batch", zap.String("batch_id", batch.ID), zap.Error(err))
	}
}

// batchCode renders BAT-YYYYMMDD-XXXXXX with a random suffix.
func batchCode(at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("BAT-%s-%s", at.Format("20060102"), suffix)
}
