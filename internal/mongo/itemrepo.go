package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/atelierhq/atelier/internal/procurement"
)

type ItemRepo struct {
	collection *mongo.Collection
}

func NewItemRepo(db *mongo.Database) *ItemRepo {
	return &ItemRepo{
		collection: db.Collection("items"),
	}
}

func (r *ItemRepo) Create(ctx context.Context, item *procurement.Item) error {
	if item == nil {
		return fmt.Errorf("item is nil")
	}

	if _, err := r.collection.InsertOne(ctx, item); err != nil {
		return fmt.Errorf("cannot create item: %w", err)
	}

	return nil
}

func (r *ItemRepo) Get(ctx context.Context, id uuid.UUID) (*procurement.Item, error) {
	var item procurement.Item
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&item)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get item: %w", err)
	}
	return &item, nil
}

func (r *ItemRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*procurement.Item, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"project_id": projectID})
	if err != nil {
		return nil, fmt.Errorf("cannot list items by project: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*procurement.Item
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode items: %w", err)
	}

	return result, nil
}

func (r *ItemRepo) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*procurement.Item, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"order_id": orderID})
	if err != nil {
		return nil, fmt.Errorf("cannot list items by order: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*procurement.Item
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode items: %w", err)
	}

	return result, nil
}

func (r *ItemRepo) Save(ctx context.Context, item *procurement.Item) error {
	if item == nil {
		return fmt.Errorf("item is nil")
	}

	filter := bson.M{"_id": item.ID}
	update := bson.M{"$set": item}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("cannot update item: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("item not found")
	}

	return nil
}

// SetOwnership updates only the ownership fields of the item row. Claims set
// the owner reference, releases unset it; either way the write is a single
// document update that commits independently of any other reconciliation
// write.
func (r *ItemRepo) SetOwnership(ctx context.Context, id uuid.UUID, orderID *uuid.UUID, fulfillment string) error {
	set := bson.M{
		"fulfillment_status": fulfillment,
		"updated_at":         time.Now(),
	}

	update := bson.M{"$set": set}
	if orderID != nil {
		set["order_id"] = *orderID
	} else {
		update["$unset"] = bson.M{"order_id": ""}
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("cannot update item ownership: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("item not found")
	}

	return nil
}

func (r *ItemRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("cannot delete item: %w", err)
	}

	if result.DeletedCount == 0 {
		return fmt.Errorf("item not found")
	}

	return nil
}
