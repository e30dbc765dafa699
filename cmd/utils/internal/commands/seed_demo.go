package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"

	atmongo "github.com/atelierhq/atelier/internal/mongo"
	"github.com/atelierhq/atelier/internal/procurement"
)

// SeedDemo applies demo seeding to the procurement database. The seed tracker
// keeps it idempotent, so running it against an already seeded database is a
// no-op.
func SeedDemo(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	logger.Info("Starting demo seeding process...")

	client, dbName, err := connect(ctx, config)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	logger.Info("Connected to MongoDB")

	db := client.Database(dbName)
	repos := procurement.Repos{
		OrderRepo: atmongo.NewOrderRepo(db),
		ItemRepo:  atmongo.NewItemRepo(db),
	}

	if err := procurement.ApplyDemoSeeds(ctx, repos, db, logger); err != nil {
		return fmt.Errorf("seed procurement demo: %w", err)
	}

	return nil
}
