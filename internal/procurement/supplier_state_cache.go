package procurement

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

// SupplierStateCache caches supplier status as mastered by the catalog
// service. Entries are warmed at startup, refreshed on miss, and kept
// current by the supplier status subscriber.
type SupplierStateCache struct {
	mu     sync.RWMutex
	state  map[uuid.UUID]string
	client *apt.ServiceClient
	logger apt.Logger
}

func NewSupplierStateCache(client *apt.ServiceClient, logger apt.Logger) *SupplierStateCache {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &SupplierStateCache{
		state:  make(map[uuid.UUID]string),
		client: client,
		logger: logger,
	}
}

func (c *SupplierStateCache) Warm(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	resp, err := c.client.List(ctx, "suppliers")
	if err != nil {
		return fmt.Errorf("failed to list suppliers: %w", err)
	}
	return c.ingestCollection(resp.Data)
}

func (c *SupplierStateCache) Ensure(ctx context.Context, id uuid.UUID) (string, error) {
	if id == uuid.Nil {
		return "", fmt.Errorf("invalid supplier id")
	}
	if status, ok := c.Get(id); ok {
		return status, nil
	}
	return c.Refresh(ctx, id)
}

func (c *SupplierStateCache) Refresh(ctx context.Context, id uuid.UUID) (string, error) {
	if c.client == nil {
		return "", fmt.Errorf("supplier cache uninitialized")
	}
	resp, err := c.client.Get(ctx, "suppliers", id.String())
	if err != nil {
		return "", fmt.Errorf("failed to fetch supplier %s: %w", id, err)
	}
	var dto supplierStateDTO
	if err := rehydrate(resp.Data, &dto); err != nil {
		return "", fmt.Errorf("failed to decode supplier %s: %w", id, err)
	}
	idValue, parseErr := uuid.Parse(dto.ID)
	if parseErr != nil {
		return "", fmt.Errorf("invalid supplier id %s", dto.ID)
	}
	c.Set(idValue, dto.Status)
	return dto.Status, nil
}

func (c *SupplierStateCache) Get(id uuid.UUID) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	status, ok := c.state[id]
	return status, ok
}

func (c *SupplierStateCache) Set(id uuid.UUID, status string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state[id] = status
}

func (c *SupplierStateCache) ingestCollection(data interface{}) error {
	var records []supplierStateDTO
	if err := rehydrate(data, &records); err != nil {
		return err
	}
	for _, record := range records {
		id, err := uuid.Parse(record.ID)
		if err != nil {
			c.logger.Debug("skipping invalid supplier id", "supplier_id", record.ID)
			continue
		}
		c.Set(id, record.Status)
	}
	return nil
}

type supplierStateDTO struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func rehydrate(data interface{}, out interface{}) error {
	bytes, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, out)
}
