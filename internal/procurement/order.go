package procurement

import (
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

// Purchase order lifecycle statuses. Cancelled is terminal: a cancelled
// order keeps its row as a historical record but can never transition or be
// edited again.
const (
	OrderStatusDraft     = "draft"
	OrderStatusSent      = "sent"
	OrderStatusConfirmed = "confirmed"
	OrderStatusReceived  = "received"
	OrderStatusCancelled = "cancelled"
)

// PurchaseOrder groups project items by supplier. Membership is never stored
// on the order; it is always derived by querying items for their owner
// reference, so the two representations cannot diverge.
type PurchaseOrder struct {
	ID           uuid.UUID  `json:"id" bson:"_id"`
	ProjectID    uuid.UUID  `json:"project_id" bson:"project_id"`
	SupplierID   uuid.UUID  `json:"supplier_id" bson:"supplier_id"`
	Number       string     `json:"number" bson:"number"`
	Status       string     `json:"status" bson:"status"`
	OrderDate    *time.Time `json:"order_date,omitempty" bson:"order_date,omitempty"`
	DeliveryDate *time.Time `json:"delivery_date,omitempty" bson:"delivery_date,omitempty"`
	Notes        string     `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt    time.Time  `json:"created_at" bson:"created_at"`
	CreatedBy    string     `json:"created_by" bson:"created_by"`
	UpdatedAt    time.Time  `json:"updated_at" bson:"updated_at"`
	UpdatedBy    string     `json:"updated_by" bson:"updated_by"`
}

func (o *PurchaseOrder) GetID() uuid.UUID {
	return o.ID
}

func (o *PurchaseOrder) ResourceType() string {
	return "purchase-order"
}

func (o *PurchaseOrder) SetID(id uuid.UUID) {
	o.ID = id
}

func NewPurchaseOrder() *PurchaseOrder {
	return &PurchaseOrder{
		ID:     apt.GenerateNewID(),
		Status: OrderStatusDraft,
	}
}

func (o *PurchaseOrder) EnsureID() {
	if o.ID == uuid.Nil {
		o.ID = apt.GenerateNewID()
	}
}

func (o *PurchaseOrder) BeforeCreate() {
	o.EnsureID()
	o.CreatedAt = time.Now()
	o.UpdatedAt = time.Now()
}

func (o *PurchaseOrder) BeforeUpdate() {
	o.UpdatedAt = time.Now()
}

func (o *PurchaseOrder) MarkAsSent() {
	o.Status = OrderStatusSent
	o.UpdatedAt = time.Now()
}

func (o *PurchaseOrder) MarkAsConfirmed() {
	o.Status = OrderStatusConfirmed
	o.UpdatedAt = time.Now()
}

func (o *PurchaseOrder) MarkAsReceived() {
	o.Status = OrderStatusReceived
	o.UpdatedAt = time.Now()
}

func (o *PurchaseOrder) Cancel() {
	o.Status = OrderStatusCancelled
	o.UpdatedAt = time.Now()
}

// IsCancelled reports whether the order reached its terminal state.
func (o *PurchaseOrder) IsCancelled() bool {
	return o.Status == OrderStatusCancelled
}

// ValidOrderStatus reports whether s is one of the known lifecycle statuses.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusDraft, OrderStatusSent, OrderStatusConfirmed, OrderStatusReceived, OrderStatusCancelled:
		return true
	}
	return false
}

// FulfillmentStatusFor maps an order status to the fulfillment status its
// member items must carry. Draft and sent orders have not committed anything
// to the supplier yet, so their items stay pending.
func FulfillmentStatusFor(orderStatus string) string {
	switch orderStatus {
	case OrderStatusConfirmed:
		return ItemStatusOrdered
	case OrderStatusReceived:
		return ItemStatusReceived
	default:
		return ItemStatusPending
	}
}
