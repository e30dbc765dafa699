package pkg

import "time"

const (
	// SupplierStatusTopic delivers authoritative status changes for suppliers.
	SupplierStatusTopic = "suppliers.status"
	// ProcurementOrdersTopic groups purchase order lifecycle events.
	ProcurementOrdersTopic = "procurement.orders"
	// ProcurementItemsTopic carries item ownership changes produced by
	// reconciliation, for budgeting and reporting consumers.
	ProcurementItemsTopic = "procurement.items"

	// EventSupplierStatusChanged identifies a supplier status change payload.
	EventSupplierStatusChanged = "supplier.status.changed"
	// EventOrderSaved identifies a created or edited purchase order.
	EventOrderSaved = "procurement.order.saved"
	// EventOrderCancelled identifies a cancelled purchase order.
	EventOrderCancelled = "procurement.order.cancelled"
	// EventOrderDeleted identifies a deleted purchase order.
	EventOrderDeleted = "procurement.order.deleted"
	// EventItemsReconciled identifies a batch of item ownership changes.
	EventItemsReconciled = "procurement.items.reconciled"
)

// SupplierStatusEvent captures the minimal information the procurement
// service needs to reason about a supplier's availability.
type SupplierStatusEvent struct {
	EventType      string    `json:"event_type"`
	SupplierID     string    `json:"supplier_id"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	Source         string    `json:"source,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// PurchaseOrderEvent announces an order lifecycle event together with the
// item ids whose ownership changed as part of it.
type PurchaseOrderEvent struct {
	EventType      string    `json:"event_type"`
	OccurredAt     time.Time `json:"occurred_at"`
	OrderID        string    `json:"order_id"`
	ProjectID      string    `json:"project_id"`
	SupplierID     string    `json:"supplier_id"`
	Status         string    `json:"status,omitempty"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	ChangedItemIDs []string  `json:"changed_item_ids,omitempty"`
}

// ItemReconciliationEvent carries the per-item result of a reconciliation,
// one entry per changed item.
type ItemReconciliationEvent struct {
	EventType  string                   `json:"event_type"`
	OccurredAt time.Time                `json:"occurred_at"`
	ProjectID  string                   `json:"project_id"`
	OrderID    string                   `json:"order_id,omitempty"`
	Changes    []ItemReconciliationNote `json:"changes"`
}

// ItemReconciliationNote is one item's new ownership state.
type ItemReconciliationNote struct {
	ItemID            string `json:"item_id"`
	OrderID           string `json:"order_id,omitempty"`
	FulfillmentStatus string `json:"fulfillment_status"`
}
