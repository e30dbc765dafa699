package procurement

import (
	"context"

	"github.com/google/uuid"
)

type OrderRepo interface {
	Create(ctx context.Context, order *PurchaseOrder) error
	Get(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)
	List(ctx context.Context) ([]*PurchaseOrder, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*PurchaseOrder, error)
	ListByStatus(ctx context.Context, status string) ([]*PurchaseOrder, error)
	Save(ctx context.Context, order *PurchaseOrder) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type ItemRepo interface {
	Create(ctx context.Context, item *Item) error
	Get(ctx context.Context, id uuid.UUID) (*Item, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*Item, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*Item, error)
	Save(ctx context.Context, item *Item) error
	// SetOwnership writes only the ownership and fulfillment fields of the
	// item row. Every reconciliation write goes through here so each one is
	// an independent, separately-committed store operation.
	SetOwnership(ctx context.Context, id uuid.UUID, orderID *uuid.UUID, fulfillment string) error
	Delete(ctx context.Context, id uuid.UUID) error
}
