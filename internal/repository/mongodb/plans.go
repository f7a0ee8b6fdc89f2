package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/feedlot/internal/domain/models"
)

// GetPlan returns the plan of a lot for a date.
func (r *MongoDBRepository) GetPlan(ctx context.Context, lotID string, date time.Time) (models.FeedingPlan, error) {
	filter := bson.M{"lot_id": lotID, "date": models.DateOnly(date)}
	return r.findPlan(ctx, filter, nil, lotID+"@"+models.FormatDate(date))
}

// LatestPlanBefore returns the most recent plan of a lot strictly before date.
func (r *MongoDBRepository) LatestPlanBefore(ctx context.Context, lotID string, date time.Time) (models.FeedingPlan, error) {
	filter := bson.M{"lot_id": lotID, "date": bson.M{"$lt": models.DateOnly(date)}}
	opts := options.FindOne().SetSort(bson.D{{Key: "date", Value: -1}})
	return r.findPlan(ctx, filter, opts, lotID+" before "+models.FormatDate(date))
}

// SavePlan upserts a plan by (lot, date). An existing plan keeps its id.
func (r *MongoDBRepository) SavePlan(ctx context.Context, plan models.FeedingPlan) (models.FeedingPlan, error) {
	date := models.DateOnly(plan.Date)
	id := plan.ID
	if id == "" {
		id = uuid.NewString()
	}

	update := bson.M{
		"$set": bson.M{
			"wagon_id":             plan.WagonID,
			"diet_id":              plan.DietID,
			"days_on_feed":         plan.DaysOnFeed,
			"reading_type":         plan.ReadingType.String(),
			"base_quantity_kg":     plan.BaseQuantityKg,
			"adjusted_quantity_kg": plan.AdjustedQuantityKg,
			"events":               eventsFromModel(plan.Events),
			"alerts":               plan.Alerts,
			"updated_at":           r.now().UTC(),
		},
		"$setOnInsert": bson.M{"_id": id},
	}

	filter := bson.M{"lot_id": plan.LotID, "date": date}
	if _, err := r.collection(plansCollection).UpdateOne(ctx, filter, update, upsert()); err != nil {
		return models.FeedingPlan{}, fmt.Errorf("failed to save feeding plan: %w", err)
	}
	return r.GetPlan(ctx, plan.LotID, date)
}

func (r *MongoDBRepository) findPlan(ctx context.Context, filter bson.M, opts *options.FindOneOptions, key string) (models.FeedingPlan, error) {
	var doc planDocument
	var err error
	if opts != nil {
		err = r.collection(plansCollection).FindOne(ctx, filter, opts).Decode(&doc)
	} else {
		err = r.collection(plansCollection).FindOne(ctx, filter).Decode(&doc)
	}
	if isNoDocuments(err) {
		return models.FeedingPlan{}, models.NewNotFoundError("feeding plan", key)
	}
	if err != nil {
		return models.FeedingPlan{}, fmt.Errorf("failed to load feeding plan: %w", err)
	}
	return doc.toModel()
}
