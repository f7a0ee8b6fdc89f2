package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/feedlot/internal/domain/models"
)

// GetReading returns the reading of a lot for a date.
func (r *MongoDBRepository) GetReading(ctx context.Context, lotID string, date time.Time) (models.BunkReading, error) {
	var doc readingDocument
	err := r.collection(readingsCollection).FindOne(ctx, readingKey(lotID, date)).Decode(&doc)
	if isNoDocuments(err) {
		return models.BunkReading{}, models.NewNotFoundError("bunk reading", lotID+"@"+models.FormatDate(date))
	}
	if err != nil {
		return models.BunkReading{}, fmt.Errorf("failed to load bunk reading: %w", err)
	}
	return doc.toModel()
}

// UpsertNightReading writes the night half. A complete reading does not match
// the filter, so the upsert collides with the unique (lot_id, reference_date)
// index and is reported as a StateError.
func (r *MongoDBRepository) UpsertNightReading(ctx context.Context, reading models.BunkReading) (models.BunkReading, error) {
	if reading.NightReading == nil {
		return models.BunkReading{}, models.NewValidationError("night_reading", "is required")
	}

	filter := readingKey(reading.LotID, reading.ReferenceDate)
	filter["completed"] = bson.M{"$ne": true}

	update := bson.M{
		"$set": bson.M{
			"night_reading": reading.NightReading.String(),
			"night_at":      reading.NightAt,
			"updated_at":    r.now().UTC(),
		},
		"$setOnInsert": bson.M{
			"_id":       uuid.NewString(),
			"completed": false,
			"alerts":    []string{},
		},
	}

	if _, err := r.collection(readingsCollection).UpdateOne(ctx, filter, update, upsert()); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.BunkReading{}, readingCompleteError(reading)
		}
		return models.BunkReading{}, fmt.Errorf("failed to upsert night reading: %w", err)
	}
	return r.GetReading(ctx, reading.LotID, reading.ReferenceDate)
}

// CompleteReading writes the morning half, leaving the night fields untouched.
func (r *MongoDBRepository) CompleteReading(ctx context.Context, reading models.BunkReading, overwrite bool) (models.BunkReading, error) {
	filter := readingKey(reading.LotID, reading.ReferenceDate)
	if !overwrite {
		filter["completed"] = bson.M{"$ne": true}
	}

	alerts := reading.Alerts
	if alerts == nil {
		alerts = []string{}
	}

	update := bson.M{
		"$set": bson.M{
			"completed":                true,
			"diet_phase":               reading.DietPhase.String(),
			"days_on_feed":             reading.DaysOnFeed,
			"morning_behavior":         reading.MorningBehavior.String(),
			"bunk_status":              reading.BunkStatus.String(),
			"morning_at":               reading.MorningAt,
			"score":                    reading.Score,
			"adjustment_percent":       reading.AdjustmentPercent,
			"previous_intake_per_head": reading.PreviousIntakePerHead,
			"new_intake_per_head":      reading.NewIntakePerHead,
			"delta_per_head":           reading.DeltaPerHead,
			"headcount":                reading.Headcount,
			"total_previous":           reading.TotalPrevious,
			"total_new":                reading.TotalNew,
			"total_delta":              reading.TotalDelta,
			"alerts":                   alerts,
			"updated_at":               r.now().UTC(),
		},
		"$setOnInsert": bson.M{"_id": uuid.NewString()},
	}

	if _, err := r.collection(readingsCollection).UpdateOne(ctx, filter, update, upsert()); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.BunkReading{}, readingCompleteError(reading)
		}
		return models.BunkReading{}, fmt.Errorf("failed to complete bunk reading: %w", err)
	}
	return r.GetReading(ctx, reading.LotID, reading.ReferenceDate)
}

// RecentScores returns dated scores of complete readings before a date, newest first.
func (r *MongoDBRepository) RecentScores(ctx context.Context, lotID string, before time.Time, limit int) ([]models.DayScore, error) {
	filter := bson.M{
		"lot_id":         lotID,
		"completed":      true,
		"reference_date": bson.M{"$lt": models.DateOnly(before)},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "reference_date", Value: -1}}).
		SetLimit(int64(limit)).
		SetProjection(bson.M{"score": 1, "reference_date": 1})

	cursor, err := r.collection(readingsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent scores: %w", err)
	}
	var docs []struct {
		Score         int       `bson:"score"`
		ReferenceDate time.Time `bson:"reference_date"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode recent scores: %w", err)
	}

	scores := make([]models.DayScore, 0, len(docs))
	for _, d := range docs {
		scores = append(scores, models.DayScore{Date: models.DateOnly(d.ReferenceDate), Score: d.Score})
	}
	return scores, nil
}

// ListReadings returns a lot's readings in the inclusive date range, oldest first.
func (r *MongoDBRepository) ListReadings(ctx context.Context, lotID string, from, to time.Time) ([]models.BunkReading, error) {
	filter := bson.M{
		"lot_id":         lotID,
		"reference_date": bson.M{"$gte": models.DateOnly(from), "$lte": models.DateOnly(to)},
	}
	return r.findReadings(ctx, filter, bson.D{{Key: "reference_date", Value: 1}})
}

// ListReadingsByDate returns every lot's reading for a date ordered by lot.
func (r *MongoDBRepository) ListReadingsByDate(ctx context.Context, date time.Time) ([]models.BunkReading, error) {
	return r.findReadings(ctx, bson.M{"reference_date": models.DateOnly(date)}, bson.D{{Key: "lot_id", Value: 1}})
}

func (r *MongoDBRepository) findReadings(ctx context.Context, filter bson.M, sort bson.D) ([]models.BunkReading, error) {
	cursor, err := r.collection(readingsCollection).Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("failed to query bunk readings: %w", err)
	}
	var docs []readingDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode bunk readings: %w", err)
	}

	readings := make([]models.BunkReading, 0, len(docs))
	for _, d := range docs {
		reading, err := d.toModel()
		if err != nil {
			return nil, fmt.Errorf("bunk reading %s: %w", d.ID, err)
		}
		readings = append(readings, reading)
	}
	return readings, nil
}

func readingKey(lotID string, date time.Time) bson.M {
	return bson.M{"lot_id": lotID, "reference_date": models.DateOnly(date)}
}

func readingCompleteError(r models.BunkReading) error {
	return &models.StateError{
		Entity: "bunk reading",
		Key:    r.LotID + "@" + models.FormatDate(r.ReferenceDate),
		State:  "complete",
		Action: "overwrite",
	}
}
