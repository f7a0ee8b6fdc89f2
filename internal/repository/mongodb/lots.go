package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/feedlot/internal/domain/models"
)

// GetLot returns a lot by id.
func (r *MongoDBRepository) GetLot(ctx context.Context, id string) (models.Lot, error) {
	var doc lotDocument
	err := r.collection(lotsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if isNoDocuments(err) {
		return models.Lot{}, models.NewNotFoundError("lot", id)
	}
	if err != nil {
		return models.Lot{}, fmt.Errorf("failed to load lot %s: %w", id, err)
	}
	return doc.toModel(), nil
}

// ListActiveLots returns every active lot ordered by id.
func (r *MongoDBRepository) ListActiveLots(ctx context.Context) ([]models.Lot, error) {
	cursor, err := r.collection(lotsCollection).Find(ctx, bson.M{"active": true}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list active lots: %w", err)
	}
	var docs []lotDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode lots: %w", err)
	}

	lots := make([]models.Lot, 0, len(docs))
	for _, d := range docs {
		lots = append(lots, d.toModel())
	}
	return lots, nil
}

// UpdateCurrentIntake stores the latest per-head intake of a lot.
func (r *MongoDBRepository) UpdateCurrentIntake(ctx context.Context, lotID string, perHead float64) error {
	res, err := r.collection(lotsCollection).UpdateOne(ctx, bson.M{"_id": lotID}, bson.M{"$set": bson.M{"current_intake_per_head": perHead}})
	if err != nil {
		return fmt.Errorf("failed to update intake of lot %s: %w", lotID, err)
	}
	if res.MatchedCount == 0 {
		return models.NewNotFoundError("lot", lotID)
	}
	return nil
}

// GetDiet returns a diet by id.
func (r *MongoDBRepository) GetDiet(ctx context.Context, id string) (models.Diet, error) {
	var doc dietDocument
	err := r.collection(dietsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if isNoDocuments(err) {
		return models.Diet{}, models.NewNotFoundError("diet", id)
	}
	if err != nil {
		return models.Diet{}, fmt.Errorf("failed to load diet %s: %w", id, err)
	}
	return doc.toModel(), nil
}

// ListDietPeriods returns the periods of a lot ordered by start day.
func (r *MongoDBRepository) ListDietPeriods(ctx context.Context, lotID string) ([]models.DietPeriod, error) {
	cursor, err := r.collection(periodsCollection).Find(ctx, bson.M{"lot_id": lotID}, options.Find().SetSort(bson.D{{Key: "start_day", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list periods of lot %s: %w", lotID, err)
	}
	var docs []periodDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode periods: %w", err)
	}
	if len(docs) == 0 {
		return nil, models.NewNotFoundError("diet periods", lotID)
	}

	periods := make([]models.DietPeriod, 0, len(docs))
	for _, d := range docs {
		periods = append(periods, models.DietPeriod(d))
	}
	return periods, nil
}

// PutLot inserts or replaces a lot.
func (r *MongoDBRepository) PutLot(ctx context.Context, lot models.Lot) error {
	_, err := r.collection(lotsCollection).ReplaceOne(ctx, bson.M{"_id": lot.ID}, lotFromModel(lot), options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save lot %s: %w", lot.ID, err)
	}
	return nil
}

// PutDiet inserts or replaces a diet.
func (r *MongoDBRepository) PutDiet(ctx context.Context, diet models.Diet) error {
	_, err := r.collection(dietsCollection).ReplaceOne(ctx, bson.M{"_id": diet.ID}, dietFromModel(diet), options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save diet %s: %w", diet.ID, err)
	}
	return nil
}

// ReplaceDietPeriods swaps the periods of a lot inside a transaction.
func (r *MongoDBRepository) ReplaceDietPeriods(ctx context.Context, lotID string, periods []models.DietPeriod) error {
	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		coll := r.collection(periodsCollection)
		if _, err := coll.DeleteMany(sc, bson.M{"lot_id": lotID}); err != nil {
			return nil, err
		}
		if len(periods) == 0 {
			return nil, nil
		}
		docs := make([]interface{}, 0, len(periods))
		for _, p := range periods {
			p.LotID = lotID
			docs = append(docs, periodDocument(p))
		}
		_, err := coll.InsertMany(sc, docs)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("failed to replace periods of lot %s: %w", lotID, err)
	}
	return nil
}

// PutIngredient inserts or replaces an ingredient stock position.
func (r *MongoDBRepository) PutIngredient(ctx context.Context, ing models.Ingredient) error {
	doc := ingredientDocument{ID: ing.ID, Name: ing.Name, AvailableKg: ing.AvailableKg}
	_, err := r.collection(ingredientsCollection).ReplaceOne(ctx, bson.M{"_id": ing.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save ingredient %s: %w", ing.ID, err)
	}
	return nil
}

// AvailableStock returns the stock of an ingredient.
func (r *MongoDBRepository) AvailableStock(ctx context.Context, ingredientID string) (float64, error) {
	var doc ingredientDocument
	err := r.collection(ingredientsCollection).FindOne(ctx, bson.M{"_id": ingredientID}).Decode(&doc)
	if isNoDocuments(err) {
		return 0, models.NewNotFoundError("ingredient", ingredientID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load ingredient %s: %w", ingredientID, err)
	}
	return doc.AvailableKg, nil
}
