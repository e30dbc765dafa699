package procurement

import (
	"context"
	"fmt"
	"sync"

	"github.com/appetiteclub/apt/events"
	"github.com/google/uuid"
)

// MockPublisher is a mock implementation of events.Publisher for testing
type MockPublisher struct {
	mu          sync.Mutex
	Published   []PublishedMsg
	PublishFunc func(ctx context.Context, topic string, msg []byte) error
}

type PublishedMsg struct {
	Topic   string
	Payload []byte
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, topic, msg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Published = append(m.Published, PublishedMsg{Topic: topic, Payload: msg})
	return nil
}

// MockSubscriber is a mock implementation of events.Subscriber for testing
type MockSubscriber struct {
	SubscribeFunc func(ctx context.Context, topic string, handler events.HandlerFunc) error
}

func NewMockSubscriber() *MockSubscriber {
	return &MockSubscriber{}
}

func (m *MockSubscriber) Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error {
	if m.SubscribeFunc != nil {
		return m.SubscribeFunc(ctx, topic, handler)
	}
	return nil
}

// MockOrderRepo is a mock implementation of OrderRepo for testing
type MockOrderRepo struct {
	mu         sync.RWMutex
	orders     map[uuid.UUID]*PurchaseOrder
	CreateFunc func(ctx context.Context, order *PurchaseOrder) error
	GetFunc    func(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)
	SaveFunc   func(ctx context.Context, order *PurchaseOrder) error
	DeleteFunc func(ctx context.Context, id uuid.UUID) error
}

func NewMockOrderRepo() *MockOrderRepo {
	return &MockOrderRepo{
		orders: make(map[uuid.UUID]*PurchaseOrder),
	}
}

func (m *MockOrderRepo) Create(ctx context.Context, order *PurchaseOrder) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, order)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *order
	m.orders[order.ID] = &clone
	return nil
}

func (m *MockOrderRepo) Get(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	clone := *order
	return &clone, nil
}

func (m *MockOrderRepo) List(ctx context.Context) ([]*PurchaseOrder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*PurchaseOrder
	for _, o := range m.orders {
		clone := *o
		result = append(result, &clone)
	}
	return result, nil
}

func (m *MockOrderRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*PurchaseOrder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*PurchaseOrder
	for _, o := range m.orders {
		if o.ProjectID == projectID {
			clone := *o
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (m *MockOrderRepo) ListByStatus(ctx context.Context, status string) ([]*PurchaseOrder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*PurchaseOrder
	for _, o := range m.orders {
		if o.Status == status {
			clone := *o
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (m *MockOrderRepo) Save(ctx context.Context, order *PurchaseOrder) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, order)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[order.ID]; !ok {
		return fmt.Errorf("purchase order not found")
	}
	clone := *order
	m.orders[order.ID] = &clone
	return nil
}

func (m *MockOrderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[id]; !ok {
		return fmt.Errorf("purchase order not found")
	}
	delete(m.orders, id)
	return nil
}

// Stored returns the stored order without copy-on-read, for assertions.
func (m *MockOrderRepo) Stored(id uuid.UUID) *PurchaseOrder {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.orders[id]
}

// OwnershipWrite records one SetOwnership call in issue order.
type OwnershipWrite struct {
	ItemID      uuid.UUID
	OrderID     *uuid.UUID
	Fulfillment string
}

// MockItemRepo is a mock implementation of ItemRepo for testing
type MockItemRepo struct {
	mu               sync.RWMutex
	items            map[uuid.UUID]*Item
	Writes           []OwnershipWrite
	CreateFunc       func(ctx context.Context, item *Item) error
	GetFunc          func(ctx context.Context, id uuid.UUID) (*Item, error)
	ListByOrderFunc  func(ctx context.Context, orderID uuid.UUID) ([]*Item, error)
	SaveFunc         func(ctx context.Context, item *Item) error
	SetOwnershipFunc func(ctx context.Context, id uuid.UUID, orderID *uuid.UUID, fulfillment string) error
	DeleteFunc       func(ctx context.Context, id uuid.UUID) error
}

func NewMockItemRepo() *MockItemRepo {
	return &MockItemRepo{
		items: make(map[uuid.UUID]*Item),
	}
}

func (m *MockItemRepo) Create(ctx context.Context, item *Item) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, item)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *item
	m.items[item.ID] = &clone
	return nil
}

func (m *MockItemRepo) Get(ctx context.Context, id uuid.UUID) (*Item, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	clone := *item
	return &clone, nil
}

func (m *MockItemRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*Item
	for _, item := range m.items {
		if item.ProjectID == projectID {
			clone := *item
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (m *MockItemRepo) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*Item, error) {
	if m.ListByOrderFunc != nil {
		return m.ListByOrderFunc(ctx, orderID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*Item
	for _, item := range m.items {
		if item.OrderID != nil && *item.OrderID == orderID {
			clone := *item
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (m *MockItemRepo) Save(ctx context.Context, item *Item) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, item)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[item.ID]; !ok {
		return fmt.Errorf("item not found")
	}
	clone := *item
	m.items[item.ID] = &clone
	return nil
}

func (m *MockItemRepo) SetOwnership(ctx context.Context, id uuid.UUID, orderID *uuid.UUID, fulfillment string) error {
	if m.SetOwnershipFunc != nil {
		return m.SetOwnershipFunc(ctx, id, orderID, fulfillment)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return fmt.Errorf("item not found")
	}
	if orderID != nil {
		owner := *orderID
		item.OrderID = &owner
	} else {
		item.OrderID = nil
	}
	item.FulfillmentStatus = fulfillment
	m.Writes = append(m.Writes, OwnershipWrite{ItemID: id, OrderID: item.OrderID, Fulfillment: fulfillment})
	return nil
}

func (m *MockItemRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return fmt.Errorf("item not found")
	}
	delete(m.items, id)
	return nil
}

// Stored returns the stored item without copy-on-read, for assertions.
func (m *MockItemRepo) Stored(id uuid.UUID) *Item {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.items[id]
}

// MockLocker is a mock implementation of OrderLocker for testing
type MockLocker struct {
	mu             sync.Mutex
	held           map[uuid.UUID]string
	TryAcquireFunc func(ctx context.Context, orderID uuid.UUID) (string, bool, error)
	IsHeldFunc     func(ctx context.Context, orderID uuid.UUID) (bool, error)
}

func NewMockLocker() *MockLocker {
	return &MockLocker{held: make(map[uuid.UUID]string)}
}

func (m *MockLocker) TryAcquire(ctx context.Context, orderID uuid.UUID) (string, bool, error) {
	if m.TryAcquireFunc != nil {
		return m.TryAcquireFunc(ctx, orderID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.held[orderID]; ok {
		return "", false, nil
	}
	token := uuid.NewString()
	m.held[orderID] = token
	return token, true, nil
}

func (m *MockLocker) Release(ctx context.Context, orderID uuid.UUID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[orderID] == token {
		delete(m.held, orderID)
	}
	return nil
}

func (m *MockLocker) IsHeld(ctx context.Context, orderID uuid.UUID) (bool, error) {
	if m.IsHeldFunc != nil {
		return m.IsHeldFunc(ctx, orderID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.held[orderID]
	return ok, nil
}

// Hold marks an order as locked by someone else.
func (m *MockLocker) Hold(orderID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.held[orderID] = "external"
}
