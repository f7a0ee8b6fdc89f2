package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/feedlot/internal/repository"
)

const (
	lotsCollection        = "lots"
	dietsCollection       = "diets"
	periodsCollection     = "diet_periods"
	readingsCollection    = "bunk_readings"
	plansCollection       = "feeding_plans"
	batchesCollection     = "batches"
	ingredientsCollection = "ingredients"
	movementsCollection   = "stock_movements"

	// planSlotIndex keeps one active batch per lot, plan date and event.
	planSlotIndex = "plan_slot"
)

// MongoDBRepository implements repository.Store on top of MongoDB. Batch
// approval uses multi-document transactions, so the server must run as a
// replica set.
type MongoDBRepository struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
	now    func() time.Time
}

// Verify interface compliance
var _ repository.Store = (*MongoDBRepository)(nil)

// NewMongoDBRepository connects, pings and ensures the unique indexes the engine relies on.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string, logger *zap.Logger) (*MongoDBRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	r := &MongoDBRepository{
		client: client,
		db:     client.Database(dbName),
		logger: logger,
		now:    time.Now,
	}

	if err := r.ensureIndexes(ctx); err != nil {
		return nil, err
	}

	logger.Info("mongodb repository ready", zap.String("database", dbName))
	return r, nil
}

func (r *MongoDBRepository) ensureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	indexes := map[string][]mongo.IndexModel{
		readingsCollection: {
			{Keys: bson.D{{Key: "lot_id", Value: 1}, {Key: "reference_date", Value: 1}}, Options: unique},
		},
		plansCollection: {
			{Keys: bson.D{{Key: "lot_id", Value: 1}, {Key: "date", Value: 1}}, Options: unique},
		},
		periodsCollection: {
			{Keys: bson.D{{Key: "lot_id", Value: 1}, {Key: "start_day", Value: 1}}, Options: unique},
		},
		batchesCollection: {
			{Keys: bson.D{{Key: "at", Value: 1}}},
			{Keys: bson.D{{Key: "code", Value: 1}}, Options: unique},
			{
				Keys: bson.D{{Key: "lot_id", Value: 1}, {Key: "plan_date", Value: 1}, {Key: "plan_event", Value: 1}},
				Options: options.Index().
					SetName(planSlotIndex).
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"plan_event": bson.M{"$gt": 0}, "active": true}),
			},
		},
	}

	for name, specs := range indexes {
		if _, err := r.db.Collection(name).Indexes().CreateMany(ctx, specs); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}

func (r *MongoDBRepository) collection(name string) *mongo.Collection {
	return r.db.Collection(name)
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

func upsert() *options.UpdateOptions {
	return options.Update().SetUpsert(true)
}
