package procurement

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// EligibleItems lists the project items a new or edited order for the given
// supplier may claim: not excluded, matching the supplier, and either
// unowned, owned by the order being edited, or owned by an order that is
// cancelled or gone.
//
// The result is advisory. Anything can change between listing and saving,
// so Save re-validates every selected id against the store before writing.
func (e *Engine) EligibleItems(ctx context.Context, projectID, supplierID uuid.UUID, editingOrderID *uuid.UUID) ([]*Item, error) {
	items, err := e.itemRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("cannot list project items: %w", err)
	}

	orders := map[uuid.UUID]*PurchaseOrder{}
	var eligible []*Item

	for _, it := range items {
		if it.Excluded {
			continue
		}
		if it.SupplierID != supplierID {
			continue
		}
		if it.OrderID == nil {
			eligible = append(eligible, it)
			continue
		}
		if editingOrderID != nil && *it.OrderID == *editingOrderID {
			eligible = append(eligible, it)
			continue
		}

		owner, ok := orders[*it.OrderID]
		if !ok {
			owner, err = e.orderRepo.Get(ctx, *it.OrderID)
			if err != nil {
				return nil, fmt.Errorf("cannot load owning order %s: %w", it.OrderID, err)
			}
			orders[*it.OrderID] = owner
		}
		if owner == nil || owner.IsCancelled() {
			eligible = append(eligible, it)
		}
	}

	return eligible, nil
}
