package procurement

import (
	"testing"

	"github.com/google/uuid"
)

func TestNewPurchaseOrder(t *testing.T) {
	order := NewPurchaseOrder()
	if order.ID == uuid.Nil {
		t.Error("NewPurchaseOrder() should assign an id")
	}
	if order.Status != OrderStatusDraft {
		t.Errorf("new order status = %q, want %q", order.Status, OrderStatusDraft)
	}
}

func TestPurchaseOrderStatusTransitions(t *testing.T) {
	order := NewPurchaseOrder()

	order.MarkAsSent()
	if order.Status != OrderStatusSent {
		t.Errorf("status = %q, want %q", order.Status, OrderStatusSent)
	}

	order.MarkAsConfirmed()
	if order.Status != OrderStatusConfirmed {
		t.Errorf("status = %q, want %q", order.Status, OrderStatusConfirmed)
	}

	order.MarkAsReceived()
	if order.Status != OrderStatusReceived {
		t.Errorf("status = %q, want %q", order.Status, OrderStatusReceived)
	}

	order.Cancel()
	if !order.IsCancelled() {
		t.Error("cancelled order should report IsCancelled()")
	}
}

func TestValidOrderStatus(t *testing.T) {
	for _, s := range []string{OrderStatusDraft, OrderStatusSent, OrderStatusConfirmed, OrderStatusReceived, OrderStatusCancelled} {
		if !ValidOrderStatus(s) {
			t.Errorf("ValidOrderStatus(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"", "archived", "Draft", "pending"} {
		if ValidOrderStatus(s) {
			t.Errorf("ValidOrderStatus(%q) = true, want false", s)
		}
	}
}

func TestFulfillmentStatusFor(t *testing.T) {
	tests := []struct {
		orderStatus string
		want        string
	}{
		{OrderStatusDraft, ItemStatusPending},
		{OrderStatusSent, ItemStatusPending},
		{OrderStatusConfirmed, ItemStatusOrdered},
		{OrderStatusReceived, ItemStatusReceived},
		{OrderStatusCancelled, ItemStatusPending},
	}
	for _, tt := range tests {
		if got := FulfillmentStatusFor(tt.orderStatus); got != tt.want {
			t.Errorf("FulfillmentStatusFor(%q) = %q, want %q", tt.orderStatus, got, tt.want)
		}
	}
}
