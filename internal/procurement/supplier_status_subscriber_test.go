package procurement

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/appetiteclub/apt/events"
	"github.com/google/uuid"

	"github.com/atelierhq/atelier/pkg"
)

func TestSupplierStatusSubscriberStart(t *testing.T) {
	t.Run("subscribesToStatusTopic", func(t *testing.T) {
		cache := NewSupplierStateCache(nil, nil)
		sub := NewMockSubscriber()

		var gotTopic string
		sub.SubscribeFunc = func(ctx context.Context, topic string, handler events.HandlerFunc) error {
			gotTopic = topic
			return nil
		}

		s := NewSupplierStatusSubscriber(sub, cache, nil)
		if err := s.Start(context.Background()); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		if gotTopic != pkg.SupplierStatusTopic {
			t.Errorf("subscribed topic = %q, want %q", gotTopic, pkg.SupplierStatusTopic)
		}
	})

	t.Run("nilSubscriberFails", func(t *testing.T) {
		s := NewSupplierStatusSubscriber(nil, NewSupplierStateCache(nil, nil), nil)
		if err := s.Start(context.Background()); err == nil {
			t.Error("Start() without a subscriber should fail")
		}
	})
}

func TestSupplierStatusSubscriberHandleEvent(t *testing.T) {
	cache := NewSupplierStateCache(nil, nil)
	s := NewSupplierStatusSubscriber(NewMockSubscriber(), cache, nil)
	supplierID := uuid.New()

	t.Run("updatesCache", func(t *testing.T) {
		msg, _ := json.Marshal(pkg.SupplierStatusEvent{
			SupplierID: supplierID.String(),
			Status:     "suspended",
		})
		if err := s.handleEvent(context.Background(), msg); err != nil {
			t.Fatalf("handleEvent() error = %v", err)
		}
		if status, ok := cache.Get(supplierID); !ok || status != "suspended" {
			t.Errorf("cache entry = (%q, %v), want (suspended, true)", status, ok)
		}
	})

	t.Run("malformedPayloadIgnored", func(t *testing.T) {
		if err := s.handleEvent(context.Background(), []byte("{not json")); err != nil {
			t.Errorf("handleEvent() should swallow malformed payloads, got %v", err)
		}
	})

	t.Run("invalidSupplierIDIgnored", func(t *testing.T) {
		msg, _ := json.Marshal(pkg.SupplierStatusEvent{SupplierID: "nope", Status: "active"})
		if err := s.handleEvent(context.Background(), msg); err != nil {
			t.Errorf("handleEvent() should skip invalid ids, got %v", err)
		}
	})
}
