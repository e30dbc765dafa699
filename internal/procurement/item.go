package procurement

import (
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

// Fulfillment statuses an item can carry. The value is derived from the
// owning order's status and maintained by the reconciliation engine; it is
// not independently authoritative.
const (
	ItemStatusPending  = "pending"
	ItemStatusOrdered  = "ordered"
	ItemStatusReceived = "received"
)

type Item struct {
	ID                uuid.UUID  `json:"id" bson:"_id"`
	ProjectID         uuid.UUID  `json:"project_id" bson:"project_id"`
	SupplierID        uuid.UUID  `json:"supplier_id" bson:"supplier_id"`
	OrderID           *uuid.UUID `json:"order_id,omitempty" bson:"order_id,omitempty"`
	Name              string     `json:"name" bson:"name"`
	Reference         string     `json:"reference,omitempty" bson:"reference,omitempty"`
	Quantity          int        `json:"quantity" bson:"quantity"`
	UnitCost          float64    `json:"unit_cost" bson:"unit_cost"`
	FulfillmentStatus string     `json:"fulfillment_status" bson:"fulfillment_status"`
	Excluded          bool       `json:"excluded" bson:"excluded"`
	CreatedAt         time.Time  `json:"created_at" bson:"created_at"`
	CreatedBy         string     `json:"created_by" bson:"created_by"`
	UpdatedAt         time.Time  `json:"updated_at" bson:"updated_at"`
	UpdatedBy         string     `json:"updated_by" bson:"updated_by"`
}

func (i *Item) GetID() uuid.UUID {
	return i.ID
}

func (i *Item) ResourceType() string {
	return "item"
}

func (i *Item) SetID(id uuid.UUID) {
	i.ID = id
}

func NewItem() *Item {
	return &Item{
		ID:                apt.GenerateNewID(),
		FulfillmentStatus: ItemStatusPending,
	}
}

func (i *Item) EnsureID() {
	if i.ID == uuid.Nil {
		i.ID = apt.GenerateNewID()
	}
}

func (i *Item) BeforeCreate() {
	i.EnsureID()
	i.CreatedAt = time.Now()
	i.UpdatedAt = time.Now()
}

func (i *Item) BeforeUpdate() {
	i.UpdatedAt = time.Now()
}

// Claim assigns the item to an order and mirrors the order's status.
func (i *Item) Claim(orderID uuid.UUID, fulfillment string) {
	id := orderID
	i.OrderID = &id
	i.FulfillmentStatus = fulfillment
	i.UpdatedAt = time.Now()
}

// Release clears ownership and returns the item to pending.
func (i *Item) Release() {
	i.OrderID = nil
	i.FulfillmentStatus = ItemStatusPending
	i.UpdatedAt = time.Now()
}

// OwnedBy reports whether the item is currently claimed by the given order.
func (i *Item) OwnedBy(orderID uuid.UUID) bool {
	return i.OrderID != nil && *i.OrderID == orderID
}

// Total is the claimed cost of the line: quantity times unit cost.
func (i *Item) Total() float64 {
	return float64(i.Quantity) * i.UnitCost
}
