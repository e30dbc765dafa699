package procurement

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Repair walks every item of a project and restores the ownership
// invariants: no item may point at a cancelled or missing order, an excluded
// item may not be owned at all, an unowned item is pending, and an owned
// item mirrors its order's status.
//
// This pass is what makes the absence of a cross-collection transaction
// tolerable: any abandoned half of a Save or Delete is fully resolved the
// next time it runs. It is idempotent; on a consistent project it writes
// nothing.
func (e *Engine) Repair(ctx context.Context, projectID uuid.UUID) ([]*Item, error) {
	items, err := e.itemRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("cannot list project items: %w", err)
	}

	orders := map[uuid.UUID]*PurchaseOrder{}
	var repaired []*Item

	for _, it := range items {
		if it.OrderID == nil {
			if it.FulfillmentStatus == ItemStatusPending {
				continue
			}
			// Unowned items are always pending.
			if err := e.repairRelease(ctx, it); err != nil {
				return repaired, err
			}
			repaired = append(repaired, it)
			continue
		}

		if it.Excluded {
			// Excluded items never hold an owner reference.
			if err := e.repairRelease(ctx, it); err != nil {
				return repaired, err
			}
			repaired = append(repaired, it)
			continue
		}

		owner, ok := orders[*it.OrderID]
		if !ok {
			owner, err = e.orderRepo.Get(ctx, *it.OrderID)
			if err != nil {
				return repaired, fmt.Errorf("cannot load owning order %s: %w", it.OrderID, err)
			}
			orders[*it.OrderID] = owner
		}

		if owner == nil || owner.IsCancelled() {
			if e.saveInFlight(ctx, *it.OrderID) {
				// A concurrent save declared itself on this order; let it
				// finish rather than racing its writes.
				continue
			}
			if err := e.repairRelease(ctx, it); err != nil {
				return repaired, err
			}
			repaired = append(repaired, it)
			continue
		}

		if mirror := FulfillmentStatusFor(owner.Status); it.FulfillmentStatus != mirror {
			it.Claim(owner.ID, mirror)
			if err := e.itemRepo.SetOwnership(ctx, it.ID, it.OrderID, it.FulfillmentStatus); err != nil {
				return repaired, fmt.Errorf("cannot restate item %s: %w", it.ID, err)
			}
			repaired = append(repaired, it)
		}
	}

	if len(repaired) > 0 {
		e.logger.Info("repair pass corrected items", "project_id", projectID.String(), "repaired", len(repaired))
	}

	return repaired, nil
}

func (e *Engine) repairRelease(ctx context.Context, it *Item) error {
	it.Release()
	if err := e.itemRepo.SetOwnership(ctx, it.ID, nil, ItemStatusPending); err != nil {
		return fmt.Errorf("cannot release item %s: %w", it.ID, err)
	}
	return nil
}

func (e *Engine) saveInFlight(ctx context.Context, orderID uuid.UUID) bool {
	if e.locker == nil {
		return false
	}
	held, err := e.locker.IsHeld(ctx, orderID)
	if err != nil {
		e.logger.Debug("cannot check order lock", "order_id", orderID.String(), "error", err)
		return false
	}
	return held
}
