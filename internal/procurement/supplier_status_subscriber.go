package procurement

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/google/uuid"

	"github.com/atelierhq/atelier/pkg"
)

type SupplierStatusSubscriber struct {
	subscriber events.Subscriber
	cache      *SupplierStateCache
	logger     apt.Logger
}

func NewSupplierStatusSubscriber(sub events.Subscriber, cache *SupplierStateCache, logger apt.Logger) *SupplierStatusSubscriber {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &SupplierStatusSubscriber{
		subscriber: sub,
		cache:      cache,
		logger:     logger,
	}
}

func (s *SupplierStatusSubscriber) Start(ctx context.Context) error {
	s.logger.Info("starting supplier status subscriber", "topic", pkg.SupplierStatusTopic)
	if s.cache != nil {
		if err := s.cache.Warm(ctx); err != nil {
			s.logger.Info("supplier cache warmup failed", "error", err)
		}
	}
	if s.subscriber == nil {
		return fmt.Errorf("supplier status subscriber not configured")
	}
	return s.subscriber.Subscribe(ctx, pkg.SupplierStatusTopic, s.handleEvent)
}

func (s *SupplierStatusSubscriber) handleEvent(ctx context.Context, msg []byte) error {
	var event pkg.SupplierStatusEvent
	if err := json.Unmarshal(msg, &event); err != nil {
		s.logger.Info("invalid supplier status event", "error", err)
		return nil
	}

	id, err := uuid.Parse(event.SupplierID)
	if err != nil {
		s.logger.Info("invalid supplier id in event", "supplier_id", event.SupplierID)
		return nil
	}

	s.cache.Set(id, event.Status)
	s.logger.Debug("supplier status updated", "supplier_id", id.String(), "status", event.Status)
	return nil
}
