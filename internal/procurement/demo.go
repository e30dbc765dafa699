package procurement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/seed"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

const procurementDemoSeedApplication = "procurement_demo"

// Demo entities use fixed ids so reseeding against an existing database
// stays idempotent and other services can reference them.
var (
	demoProjectID     = uuid.MustParse("7f3c2a10-5b7e-4f7d-9c2e-4a1d8b6f0301")
	demoSupplierWood  = uuid.MustParse("7f3c2a10-5b7e-4f7d-9c2e-4a1d8b6f0302")
	demoSupplierMetal = uuid.MustParse("7f3c2a10-5b7e-4f7d-9c2e-4a1d8b6f0303")
)

// ApplyDemoSeeds creates a demo project with items and purchase orders in
// representative reconciliation states.
func ApplyDemoSeeds(ctx context.Context, repos Repos, db *mongo.Database, logger apt.Logger) error {
	if db == nil {
		return errors.New("database is required for demo seeding")
	}

	demoSeeds := buildDemoProcurementSeeds(repos, logger)
	if len(demoSeeds) == 0 {
		logger.Info("No demo procurement seeds to apply")
		return nil
	}

	tracker := seed.NewMongoTracker(db)

	logger.Info("Applying demo procurement seeds")
	if err := seed.Apply(ctx, tracker, demoSeeds, procurementDemoSeedApplication); err != nil {
		return err
	}
	logger.Info("Demo procurement seeds applied successfully")
	return nil
}

func buildDemoProcurementSeeds(repos Repos, logger apt.Logger) []seed.Seed {
	return []seed.Seed{
		{
			ID:          "2026-08-20_demo_procurement_v1",
			Description: "Create a demo project with items across claim states",
			Run: func(ctx context.Context) error {
				return seedDemoProcurement(ctx, repos, logger)
			},
		},
	}
}

func seedDemoProcurement(ctx context.Context, repos Repos, logger apt.Logger) error {
	now := time.Now()

	items := []*Item{
		createDemoItem(demoSupplierWood, "Oak worktop 200x90", "OAK-200-90", 2, 340.00, false),
		createDemoItem(demoSupplierWood, "Birch plywood sheet 18mm", "BIR-18", 12, 42.50, false),
		createDemoItem(demoSupplierWood, "Walnut veneer roll", "WAL-V01", 3, 88.00, false),
		createDemoItem(demoSupplierMetal, "Steel frame leg set", "STL-LEG-4", 6, 55.00, false),
		createDemoItem(demoSupplierMetal, "Brass drawer handle", "BRS-H12", 24, 7.80, false),
		createDemoItem(demoSupplierMetal, "Sample hinge, discontinued", "HNG-X", 1, 3.20, true),
	}

	for _, it := range items {
		if err := repos.ItemRepo.Create(ctx, it); err != nil {
			return fmt.Errorf("create demo item %s: %w", it.Name, err)
		}
	}

	// A confirmed order claiming the first two wood items.
	confirmed := NewPurchaseOrder()
	confirmed.ProjectID = demoProjectID
	confirmed.SupplierID = demoSupplierWood
	confirmed.Number = "PO-2026-0001"
	confirmed.Status = OrderStatusConfirmed
	confirmed.OrderDate = &now
	confirmed.CreatedBy = "seed:demo"
	confirmed.UpdatedBy = "seed:demo"
	confirmed.BeforeCreate()
	if err := repos.OrderRepo.Create(ctx, confirmed); err != nil {
		return fmt.Errorf("create demo order %s: %w", confirmed.Number, err)
	}

	for _, it := range items[:2] {
		if err := repos.ItemRepo.SetOwnership(ctx, it.ID, &confirmed.ID, ItemStatusOrdered); err != nil {
			return fmt.Errorf("claim demo item %s: %w", it.Name, err)
		}
	}

	// A draft order holding one metal item.
	draft := NewPurchaseOrder()
	draft.ProjectID = demoProjectID
	draft.SupplierID = demoSupplierMetal
	draft.Number = "PO-2026-0002"
	draft.CreatedBy = "seed:demo"
	draft.UpdatedBy = "seed:demo"
	draft.BeforeCreate()
	if err := repos.OrderRepo.Create(ctx, draft); err != nil {
		return fmt.Errorf("create demo order %s: %w", draft.Number, err)
	}

	if err := repos.ItemRepo.SetOwnership(ctx, items[3].ID, &draft.ID, ItemStatusPending); err != nil {
		return fmt.Errorf("claim demo item %s: %w", items[3].Name, err)
	}

	logger.Info("Demo procurement data created", "items", len(items), "orders", 2)
	return nil
}

func createDemoItem(supplierID uuid.UUID, name, reference string, quantity int, unitCost float64, excluded bool) *Item {
	item := NewItem()
	item.ProjectID = demoProjectID
	item.SupplierID = supplierID
	item.Name = name
	item.Reference = reference
	item.Quantity = quantity
	item.UnitCost = unitCost
	item.Excluded = excluded
	item.CreatedBy = "seed:demo"
	item.UpdatedBy = "seed:demo"
	item.BeforeCreate()
	return item
}

// DemoSeedingFunc returns a lifecycle OnStart-compatible function for demo seeding.
func DemoSeedingFunc(seedCtx context.Context, repos Repos, db *mongo.Database, logger apt.Logger) func(ctx context.Context) error {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}

	return func(ctx context.Context) error {
		logger.Info("Starting demo procurement seeding in background")
		go func() {
			if err := ApplyDemoSeeds(seedCtx, repos, db, logger); err != nil && !errors.Is(err, context.Canceled) {
				logger.Errorf("Demo procurement seeds failed: %v", err)
			} else if err == nil {
				logger.Info("Demo procurement seeding completed successfully")
			}
		}()
		return nil
	}
}
