package mongodb

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/feedlot/internal/domain/models"
	"github.com/mamadbah2/feedlot/internal/repository"
)

// CreateBatch inserts a new batch.
func (r *MongoDBRepository) CreateBatch(ctx context.Context, batch models.Batch) error {
	if _, err := r.collection(batchesCollection).InsertOne(ctx, batchFromModel(batch)); err != nil {
		switch {
		case mongo.IsDuplicateKeyError(err) && strings.Contains(err.Error(), planSlotIndex):
			return models.PlanSlotTaken(batch.LotID, batch.At)
		case mongo.IsDuplicateKeyError(err):
			return fmt.Errorf("batch %s (%s): %w", batch.ID, batch.Code, repository.ErrDuplicate)
		}
		return fmt.Errorf("failed to insert batch: %w", err)
	}
	return nil
}

// GetBatch returns a batch by id.
func (r *MongoDBRepository) GetBatch(ctx context.Context, id string) (models.Batch, error) {
	var doc batchDocument
	err := r.collection(batchesCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if isNoDocuments(err) {
		return models.Batch{}, models.NewNotFoundError("batch", id)
	}
	if err != nil {
		return models.Batch{}, fmt.Errorf("failed to load batch %s: %w", id, err)
	}
	return doc.toModel()
}

// ListBatchesByDate returns the batches prepared on a date ordered by time.
func (r *MongoDBRepository) ListBatchesByDate(ctx context.Context, date time.Time) ([]models.Batch, error) {
	day := models.DateOnly(date)
	filter := bson.M{"at": bson.M{"$gte": day, "$lt": day.AddDate(0, 0, 1)}}

	cursor, err := r.collection(batchesCollection).Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query batches: %w", err)
	}
	var docs []batchDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode batches: %w", err)
	}

	batches := make([]models.Batch, 0, len(docs))
	for _, d := range docs {
		b, err := d.toModel()
		if err != nil {
			return nil, fmt.Errorf("batch %s: %w", d.ID, err)
		}
		batches = append(batches, b)
	}
	return batches, nil
}

// CancelBatch moves a preparing batch to CANCELADA.
func (r *MongoDBRepository) CancelBatch(ctx context.Context, id string, at time.Time) error {
	filter := bson.M{"_id": id, "status": models.BatchPreparing.String()}
	update := bson.M{"$set": bson.M{"status": models.BatchCancelled.String(), "active": false, "cancelled_at": at}}

	res, err := r.collection(batchesCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to cancel batch %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return r.transitionError(ctx, id, "cancel")
	}
	return nil
}

// CompleteBatch concludes a preparing batch and deducts its draws in one
// transaction. The status flip is a compare-and-set, so of two concurrent
// approvals only one commits.
func (r *MongoDBRepository) CompleteBatch(ctx context.Context, id string, draws []models.StockDraw, at time.Time) error {
	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		filter := bson.M{"_id": id, "status": models.BatchPreparing.String()}
		update := bson.M{"$set": bson.M{"status": models.BatchConcluded.String(), "completed_at": at}}
		res, err := r.collection(batchesCollection).UpdateOne(sc, filter, update)
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 0 {
			return nil, r.transitionError(sc, id, "approve")
		}

		if shortages, err := r.shortages(sc, draws); err != nil {
			return nil, err
		} else if len(shortages) > 0 {
			return nil, &models.StockError{BatchID: id, Shortages: shortages}
		}

		movements := make([]interface{}, 0, len(draws))
		for _, d := range draws {
			res, err := r.collection(ingredientsCollection).UpdateOne(sc,
				bson.M{"_id": d.IngredientID, "available_kg": bson.M{"$gte": d.QuantityKg}},
				bson.M{"$inc": bson.M{"available_kg": -d.QuantityKg}},
			)
			if err != nil {
				return nil, err
			}
			if res.MatchedCount == 0 {
				// Stock moved between the check and the deduction.
				shortages, err := r.shortages(sc, draws)
				if err != nil {
					return nil, err
				}
				return nil, &models.StockError{BatchID: id, Shortages: shortages}
			}
			movements = append(movements, movementDocument{
				ID:           uuid.NewString(),
				BatchID:      id,
				IngredientID: d.IngredientID,
				QuantityKg:   -d.QuantityKg,
				CreatedAt:    at,
			})
		}
		if len(movements) > 0 {
			if _, err := r.collection(movementsCollection).InsertMany(sc, movements); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		var stockErr *models.StockError
		var stateErr *models.StateError
		if errors.As(err, &stockErr) || errors.As(err, &stateErr) || errors.Is(err, models.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to complete batch %s: %w", id, err)
	}

	r.logger.Debug("batch concluded", zap.String("batch_id", id), zap.Int("draws", len(draws)))
	return nil
}

func (r *MongoDBRepository) shortages(ctx context.Context, draws []models.StockDraw) ([]models.Shortage, error) {
	var out []models.Shortage
	for _, d := range draws {
		var doc ingredientDocument
		err := r.collection(ingredientsCollection).FindOne(ctx, bson.M{"_id": d.IngredientID}).Decode(&doc)
		if err != nil && !isNoDocuments(err) {
			return nil, err
		}
		if doc.AvailableKg+1e-9 < d.QuantityKg {
			out = append(out, models.Shortage{
				IngredientID: d.IngredientID,
				Name:         d.Name,
				RequiredKg:   d.QuantityKg,
				AvailableKg:  doc.AvailableKg,
				ShortfallKg:  math.Round((d.QuantityKg-doc.AvailableKg)*1000) / 1000,
			})
		}
	}
	return out, nil
}

func (r *MongoDBRepository) transitionError(ctx context.Context, id, action string) error {
	current, err := r.GetBatch(ctx, id)
	if err != nil {
		return err
	}
	return &models.StateError{Entity: "batch", Key: id, State: current.Status.String(), Action: action}
}
