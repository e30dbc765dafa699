package procurement

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

// OrderLocker is a best-effort guard against two saves reconciling the same
// order at once. It narrows the race window; it is not mutual exclusion, and
// a nil locker disables it entirely.
type OrderLocker interface {
	TryAcquire(ctx context.Context, orderID uuid.UUID) (token string, ok bool, err error)
	Release(ctx context.Context, orderID uuid.UUID, token string) error
	IsHeld(ctx context.Context, orderID uuid.UUID) (bool, error)
}

// Engine keeps a project's items consistent with the purchase orders that
// claim them. It is a stateless service over the two repos: every call
// re-derives membership from the store, so a retry after a partial failure
// always starts from the persisted truth rather than a caller-held snapshot.
//
// The store offers no transaction spanning the order and item collections.
// Every transition is a sequence of independent writes, ordered so that an
// interruption leaves items released rather than double-claimed, and the
// Repair pass converges whatever is left.
type Engine struct {
	orderRepo OrderRepo
	itemRepo  ItemRepo
	locker    OrderLocker
	logger    apt.Logger
}

func NewEngine(orderRepo OrderRepo, itemRepo ItemRepo, locker OrderLocker, logger apt.Logger) *Engine {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Engine{
		orderRepo: orderRepo,
		itemRepo:  itemRepo,
		locker:    locker,
		logger:    logger,
	}
}

// SaveInput carries one order lifecycle event: creation when OrderID is nil,
// edit otherwise. MemberIDs is the caller-selected membership; it is ignored
// for cancellations, which always release the previous full membership.
type SaveInput struct {
	OrderID      *uuid.UUID
	ProjectID    uuid.UUID
	SupplierID   uuid.UUID
	Number       string
	Status       string
	OrderDate    *time.Time
	DeliveryDate *time.Time
	Notes        string
	MemberIDs    []uuid.UUID
}

// SaveResult is the persisted order plus every item whose ownership or
// fulfillment status changed during reconciliation.
type SaveResult struct {
	Order          *PurchaseOrder
	ChangedItems   []*Item
	PreviousStatus string
}

// DeleteResult reports the removed order and the items it released.
type DeleteResult struct {
	Order         *PurchaseOrder
	ReleasedItems []*Item
}

// Save validates the requested transition, persists the order row, and then
// fans the membership change out to the item rows.
//
// Write order is fixed: order row first (the intended status must be durable
// before item writes begin, so a crash leaves the repair pass able to finish
// the job), then releases, then claims, then restatements. Releasing before
// claiming keeps two concurrent saves from both holding an item during the
// overlap window.
func (e *Engine) Save(ctx context.Context, in SaveInput) (*SaveResult, error) {
	if !ValidOrderStatus(in.Status) {
		return nil, rejectf("status", "unknown status %q", in.Status)
	}

	isNew := in.OrderID == nil
	cancelling := in.Status == OrderStatusCancelled

	var order *PurchaseOrder
	previousStatus := ""

	if isNew {
		if cancelling {
			return nil, rejectf("status", "a new order cannot be created cancelled")
		}
		if in.ProjectID == uuid.Nil {
			return nil, rejectf("project_id", "project_id is required")
		}
		if in.SupplierID == uuid.Nil {
			return nil, rejectf("supplier_id", "supplier_id is required")
		}
		order = NewPurchaseOrder()
		order.ProjectID = in.ProjectID
		order.SupplierID = in.SupplierID
	} else {
		stored, err := e.orderRepo.Get(ctx, *in.OrderID)
		if err != nil {
			return nil, fmt.Errorf("cannot load purchase order: %w", err)
		}
		if stored == nil {
			return nil, ErrOrderNotFound
		}
		if stored.IsCancelled() {
			return nil, rejectf("status", "order %s is cancelled and cannot be edited", stored.ID)
		}
		order = stored
		previousStatus = stored.Status
	}

	members := dedupeIDs(in.MemberIDs)

	var memberItems map[uuid.UUID]*Item
	if !cancelling {
		if len(members) == 0 {
			return nil, rejectf("member_ids", "an order must claim at least one item")
		}
		var err error
		memberItems, err = e.validateMembers(ctx, order, members)
		if err != nil {
			return nil, err
		}
	}

	if !isNew && e.locker != nil {
		token, ok, err := e.locker.TryAcquire(ctx, order.ID)
		if err != nil {
			e.logger.Debug("order lock unavailable, proceeding without it", "order_id", order.ID.String(), "error", err)
		} else if !ok {
			return nil, ErrSaveInFlight
		} else {
			defer func() {
				if relErr := e.locker.Release(ctx, order.ID, token); relErr != nil {
					e.logger.Debug("cannot release order lock", "order_id", order.ID.String(), "error", relErr)
				}
			}()
		}
	}

	previous, err := e.previousMembers(ctx, order.ID, isNew)
	if err != nil {
		return nil, err
	}

	e.applyOrderFields(order, in)
	e.applyStatus(order, in.Status)

	if isNew {
		order.BeforeCreate()
		if err := e.orderRepo.Create(ctx, order); err != nil {
			return nil, fmt.Errorf("cannot create purchase order: %w", err)
		}
	} else {
		order.BeforeUpdate()
		if err := e.orderRepo.Save(ctx, order); err != nil {
			return nil, fmt.Errorf("cannot persist purchase order: %w", err)
		}
	}

	desired := map[uuid.UUID]bool{}
	if !cancelling {
		for _, id := range members {
			desired[id] = true
		}
	}

	var changed []*Item

	// Releases. On cancellation desired is empty, so the full previous
	// membership is released here.
	for _, it := range previous {
		if desired[it.ID] {
			continue
		}
		released, err := e.releaseItem(ctx, it.ID, order.ID)
		if err != nil {
			return nil, err
		}
		if released != nil {
			changed = append(changed, released)
		}
	}

	if cancelling {
		e.logger.Info("purchase order cancelled", "order_id", order.ID.String(), "released_items", len(changed))
		return &SaveResult{Order: order, ChangedItems: changed, PreviousStatus: previousStatus}, nil
	}

	fulfillment := FulfillmentStatusFor(order.Status)
	prevSet := map[uuid.UUID]bool{}
	for _, it := range previous {
		prevSet[it.ID] = true
	}

	// Claims, then restatements.
	for _, id := range members {
		if prevSet[id] {
			continue
		}
		it := memberItems[id]
		it.Claim(order.ID, fulfillment)
		if err := e.itemRepo.SetOwnership(ctx, it.ID, it.OrderID, it.FulfillmentStatus); err != nil {
			return nil, fmt.Errorf("cannot claim item %s: %w", it.ID, err)
		}
		changed = append(changed, it)
	}

	for _, it := range previous {
		if !desired[it.ID] {
			continue
		}
		if it.FulfillmentStatus == fulfillment && it.OwnedBy(order.ID) {
			continue
		}
		it.Claim(order.ID, fulfillment)
		if err := e.itemRepo.SetOwnership(ctx, it.ID, it.OrderID, it.FulfillmentStatus); err != nil {
			return nil, fmt.Errorf("cannot restate item %s: %w", it.ID, err)
		}
		changed = append(changed, it)
	}

	e.logger.Info("purchase order reconciled",
		"order_id", order.ID.String(),
		"status", order.Status,
		"members", len(members),
		"changed_items", len(changed),
	)

	return &SaveResult{Order: order, ChangedItems: changed, PreviousStatus: previousStatus}, nil
}

// Delete releases the order's membership and then removes the order row.
// Items go first so that an interruption leaves only an orphaned order row
// with no owned items, which is harmless, rather than items referencing a
// row that no longer exists. Deleting a cancelled order is allowed; it owns
// nothing by then.
func (e *Engine) Delete(ctx context.Context, orderID uuid.UUID) (*DeleteResult, error) {
	order, err := e.orderRepo.Get(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("cannot load purchase order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	if e.locker != nil {
		token, ok, lockErr := e.locker.TryAcquire(ctx, orderID)
		if lockErr != nil {
			e.logger.Debug("order lock unavailable, proceeding without it", "order_id", orderID.String(), "error", lockErr)
		} else if !ok {
			return nil, ErrSaveInFlight
		} else {
			defer func() {
				if relErr := e.locker.Release(ctx, orderID, token); relErr != nil {
					e.logger.Debug("cannot release order lock", "order_id", orderID.String(), "error", relErr)
				}
			}()
		}
	}

	previous, err := e.itemRepo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("cannot derive order membership: %w", err)
	}

	var released []*Item
	for _, it := range previous {
		rel, err := e.releaseItem(ctx, it.ID, orderID)
		if err != nil {
			return nil, err
		}
		if rel != nil {
			released = append(released, rel)
		}
	}

	if err := e.orderRepo.Delete(ctx, orderID); err != nil {
		return nil, fmt.Errorf("cannot delete purchase order: %w", err)
	}

	e.logger.Info("purchase order deleted", "order_id", orderID.String(), "released_items", len(released))
	return &DeleteResult{Order: order, ReleasedItems: released}, nil
}

// releaseItem clears ownership on one item, unless a different active order
// holds it by the time the write is issued. Under the single-owner schema
// that situation is unreachable, but concurrent edits can produce it through
// a lost update, so the re-check stays as a safety net.
//
// Returns the updated item, or nil when nothing was written.
func (e *Engine) releaseItem(ctx context.Context, itemID, releasingOrderID uuid.UUID) (*Item, error) {
	it, err := e.itemRepo.Get(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("cannot reload item %s: %w", itemID, err)
	}
	if it == nil {
		return nil, nil
	}

	if it.OrderID != nil && *it.OrderID != releasingOrderID {
		active, err := e.orderActive(ctx, *it.OrderID)
		if err != nil {
			return nil, err
		}
		if active {
			// Another live order claimed it in the meantime; leave it alone.
			e.logger.Info("skipping release, item claimed elsewhere",
				"item_id", it.ID.String(),
				"owner_order_id", it.OrderID.String(),
				"releasing_order_id", releasingOrderID.String(),
			)
			return nil, nil
		}
	}

	if it.OrderID == nil && it.FulfillmentStatus == ItemStatusPending {
		return nil, nil
	}

	it.Release()
	if err := e.itemRepo.SetOwnership(ctx, it.ID, nil, ItemStatusPending); err != nil {
		return nil, fmt.Errorf("cannot release item %s: %w", it.ID, err)
	}
	return it, nil
}

// validateMembers re-validates the caller-selected membership against the
// current store state. The candidate list came from an eligibility query
// that may be stale, so every id is checked again here before any write.
func (e *Engine) validateMembers(ctx context.Context, order *PurchaseOrder, members []uuid.UUID) (map[uuid.UUID]*Item, error) {
	items := make(map[uuid.UUID]*Item, len(members))
	owners := map[uuid.UUID]*PurchaseOrder{}

	for _, id := range members {
		it, err := e.itemRepo.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("cannot load item %s: %w", id, err)
		}
		if it == nil {
			return nil, rejectItem("member_ids", id, "item does not exist")
		}
		if it.ProjectID != order.ProjectID {
			return nil, rejectItem("member_ids", id, "item belongs to a different project")
		}
		if it.Excluded {
			return nil, rejectItem("member_ids", id, "item is excluded from ordering")
		}
		if it.OrderID != nil && *it.OrderID != order.ID {
			owner, ok := owners[*it.OrderID]
			if !ok {
				var err error
				owner, err = e.orderRepo.Get(ctx, *it.OrderID)
				if err != nil {
					return nil, fmt.Errorf("cannot load owning order %s: %w", it.OrderID, err)
				}
				owners[*it.OrderID] = owner
			}
			if owner != nil && !owner.IsCancelled() {
				return nil, rejectItem("member_ids", id, "item is claimed by another active order")
			}
		}
		items[id] = it
	}

	return items, nil
}

// previousMembers derives current membership from the item store. Membership
// is never read from the order row; the item side is the single source.
func (e *Engine) previousMembers(ctx context.Context, orderID uuid.UUID, isNew bool) ([]*Item, error) {
	if isNew {
		return nil, nil
	}
	previous, err := e.itemRepo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("cannot derive order membership: %w", err)
	}
	return previous, nil
}

func (e *Engine) applyOrderFields(order *PurchaseOrder, in SaveInput) {
	if in.Number != "" {
		order.Number = in.Number
	}
	if in.SupplierID != uuid.Nil {
		order.SupplierID = in.SupplierID
	}
	if in.OrderDate != nil {
		order.OrderDate = in.OrderDate
	}
	if in.DeliveryDate != nil {
		order.DeliveryDate = in.DeliveryDate
	}
	if in.Notes != "" {
		order.Notes = in.Notes
	}
}

func (e *Engine) applyStatus(order *PurchaseOrder, status string) {
	switch status {
	case OrderStatusSent:
		order.MarkAsSent()
	case OrderStatusConfirmed:
		order.MarkAsConfirmed()
	case OrderStatusReceived:
		order.MarkAsReceived()
	case OrderStatusCancelled:
		order.Cancel()
	default:
		order.Status = OrderStatusDraft
		order.UpdatedAt = time.Now()
	}
}

func (e *Engine) orderActive(ctx context.Context, orderID uuid.UUID) (bool, error) {
	owner, err := e.orderRepo.Get(ctx, orderID)
	if err != nil {
		return false, fmt.Errorf("cannot load owning order %s: %w", orderID, err)
	}
	return owner != nil && !owner.IsCancelled(), nil
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
