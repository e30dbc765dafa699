package mongo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/atelierhq/atelier/internal/procurement"
)

type OrderRepo struct {
	collection *mongo.Collection
}

func NewOrderRepo(db *mongo.Database) *OrderRepo {
	return &OrderRepo{
		collection: db.Collection("purchase_orders"),
	}
}

func (r *OrderRepo) Create(ctx context.Context, o *procurement.PurchaseOrder) error {
	if o == nil {
		return fmt.Errorf("purchase order is nil")
	}

	if _, err := r.collection.InsertOne(ctx, o); err != nil {
		return fmt.Errorf("cannot create purchase order: %w", err)
	}

	return nil
}

func (r *OrderRepo) Get(ctx context.Context, id uuid.UUID) (*procurement.PurchaseOrder, error) {
	var o procurement.PurchaseOrder
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&o)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get purchase order: %w", err)
	}
	return &o, nil
}

func (r *OrderRepo) List(ctx context.Context) ([]*procurement.PurchaseOrder, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("cannot list purchase orders: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*procurement.PurchaseOrder
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode purchase orders: %w", err)
	}

	return result, nil
}

func (r *OrderRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*procurement.PurchaseOrder, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"project_id": projectID})
	if err != nil {
		return nil, fmt.Errorf("cannot list purchase orders by project: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*procurement.PurchaseOrder
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode purchase orders: %w", err)
	}

	return result, nil
}

func (r *OrderRepo) ListByStatus(ctx context.Context, status string) ([]*procurement.PurchaseOrder, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"status": status})
	if err != nil {
		return nil, fmt.Errorf("cannot list purchase orders by status: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*procurement.PurchaseOrder
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode purchase orders: %w", err)
	}

	return result, nil
}

func (r *OrderRepo) Save(ctx context.Context, o *procurement.PurchaseOrder) error {
	if o == nil {
		return fmt.Errorf("purchase order is nil")
	}

	filter := bson.M{"_id": o.ID}
	update := bson.M{"$set": o}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("cannot update purchase order: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("purchase order not found")
	}

	return nil
}

func (r *OrderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("cannot delete purchase order: %w", err)
	}

	if result.DeletedCount == 0 {
		return fmt.Errorf("purchase order not found")
	}

	return nil
}
