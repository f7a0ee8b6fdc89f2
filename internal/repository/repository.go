// Package repository declares the persistence contracts of the ration engine.
// Implementations live in the mongodb and memory subpackages.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/mamadbah2/feedlot/internal/domain/models"
)

// ErrDuplicate reports a write rejected by a unique id or code.
var ErrDuplicate = errors.New("duplicate key")

// LotRepository reads the lots, diets and diet periods owned by the tenancy model.
type LotRepository interface {
	GetLot(ctx context.Context, id string) (models.Lot, error)
	ListActiveLots(ctx context.Context) ([]models.Lot, error)
	UpdateCurrentIntake(ctx context.Context, lotID string, perHead float64) error
	GetDiet(ctx context.Context, id string) (models.Diet, error)
	ListDietPeriods(ctx context.Context, lotID string) ([]models.DietPeriod, error)
}

// ReadingRepository stores bunk readings keyed by (lot, reference date).
type ReadingRepository interface {
	GetReading(ctx context.Context, lotID string, date time.Time) (models.BunkReading, error)
	// UpsertNightReading writes only the night half. It fails with a StateError
	// when the reading for that key is already complete.
	UpsertNightReading(ctx context.Context, reading models.BunkReading) (models.BunkReading, error)
	// CompleteReading writes the morning half. Unless overwrite is set it fails
	// with a StateError when the reading is already complete.
	CompleteReading(ctx context.Context, reading models.BunkReading, overwrite bool) (models.BunkReading, error)
	// RecentScores returns the dated scores of complete readings before date, most recent first.
	RecentScores(ctx context.Context, lotID string, before time.Time, limit int) ([]models.DayScore, error)
	ListReadings(ctx context.Context, lotID string, from, to time.Time) ([]models.BunkReading, error)
	ListReadingsByDate(ctx context.Context, date time.Time) ([]models.BunkReading, error)
}

// PlanRepository stores feeding plans keyed by (lot, date).
type PlanRepository interface {
	GetPlan(ctx context.Context, lotID string, date time.Time) (models.FeedingPlan, error)
	LatestPlanBefore(ctx context.Context, lotID string, date time.Time) (models.FeedingPlan, error)
	SavePlan(ctx context.Context, plan models.FeedingPlan) (models.FeedingPlan, error)
}

// BatchRepository stores feed batches and applies their terminal transitions.
type BatchRepository interface {
	CreateBatch(ctx context.Context, batch models.Batch) error
	GetBatch(ctx context.Context, id string) (models.Batch, error)
	ListBatchesByDate(ctx context.Context, date time.Time) ([]models.Batch, error)
	// CancelBatch moves a PREPARANDO batch to CANCELADA.
	CancelBatch(ctx context.Context, id string, at time.Time) error
	// CompleteBatch moves a PREPARANDO batch to CONCLUIDA and deducts every draw
	// from stock as one atomic step. On any shortage nothing is applied and a
	// StockError listing all deficient ingredients is returned.
	CompleteBatch(ctx context.Context, id string, draws []models.StockDraw, at time.Time) error
}

// InventoryRepository exposes ingredient stock positions.
type InventoryRepository interface {
	AvailableStock(ctx context.Context, ingredientID string) (float64, error)
}

// Store bundles every repository a running service needs.
type Store interface {
	LotRepository
	ReadingRepository
	PlanRepository
	BatchRepository
	InventoryRepository
	Seeder
	Close(ctx context.Context) error
}
