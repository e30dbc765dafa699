package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ClearDemo removes demo data from the procurement database
func ClearDemo(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	logger.Info("Starting demo data cleanup...")

	client, dbName, err := connect(ctx, config)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	logger.Info("Connected to MongoDB")

	db := client.Database(dbName)
	if err := clearProcurementDemo(ctx, db, logger); err != nil {
		return fmt.Errorf("clear procurement demo: %w", err)
	}

	return nil
}

func clearProcurementDemo(ctx context.Context, db *mongo.Database, logger apt.Logger) error {
	logger.Info("Clearing procurement demo data...")

	// Delete demo items
	itemsCollection := db.Collection("items")
	itemsResult, err := itemsCollection.DeleteMany(ctx, bson.M{"created_by": "seed:demo"})
	if err != nil {
		return fmt.Errorf("delete demo items: %w", err)
	}
	logger.Info("Deleted demo items", "count", itemsResult.DeletedCount)

	// Delete demo purchase orders
	ordersCollection := db.Collection("purchase_orders")
	ordersResult, err := ordersCollection.DeleteMany(ctx, bson.M{"created_by": "seed:demo"})
	if err != nil {
		return fmt.Errorf("delete demo purchase orders: %w", err)
	}
	logger.Info("Deleted demo purchase orders", "count", ordersResult.DeletedCount)

	// Clear seed tracker
	seedsCollection := db.Collection("_seeds")
	trackerResult, err := seedsCollection.DeleteOne(ctx, bson.M{"_id": "2026-08-20_demo_procurement_v1"})
	if err != nil {
		return fmt.Errorf("delete procurement seed tracker: %w", err)
	}
	logger.Info("Cleared procurement seed tracker", "deleted", trackerResult.DeletedCount)

	return nil
}
