package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/offthechainak/hourbank/pkg/core/model"
	"github.com/offthechainak/hourbank/pkg/db"
)

// SeedResult summarises what a seeding run wrote.
type SeedResult struct {
	VolunteersSeeded int
	ItemsSeeded      int
}

var seedVolunteers = []model.Volunteer{
	{Name: "Alice Johnson", Email: "alice@example.com", Hours: 42, Phone: "555-0101",
		Privacy: model.PrivacySettings{ShowPhone: true, ShowSocial: true}},
	{Name: "Bob Williams", Email: "bob@example.com", Hours: 28, Phone: "555-0102",
		Privacy: model.PrivacySettings{ShowPhone: false, ShowSocial: true}},
	{Name: "Charlie Brown", Email: "charlie@example.com", Hours: 55, Phone: "555-0103",
		Privacy: model.PrivacySettings{ShowPhone: true, ShowSocial: false}},
	{Name: "Diana Miller", Email: "diana@example.com", Hours: 19, Phone: "555-0104", IsAdmin: true,
		Privacy: model.PrivacySettings{ShowPhone: true, ShowSocial: true}},
}

var seedItems = []model.StoreItem{
	{ID: "tshirt", Name: "Branded T-Shirt", Cost: 5},
	{ID: "mug", Name: "Coffee Mug", Cost: 3},
	{ID: "tote", Name: "Tote Bag", Cost: 4},
	{ID: "cap", Name: "Baseball Cap", Cost: 4},
}

// SeedDatabase bootstraps sample volunteers and store items. It is a
// one-time helper, not a runtime path: collections that already hold data are
// skipped, and everything queued goes in a single batch commit.
func SeedDatabase(ctx context.Context, database *db.DB, logger *zap.Logger) (*SeedResult, error) {
	logger.Info("Starting database seed")

	result := &SeedResult{}
	var writes []db.Write

	existing, err := database.ListVolunteers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check volunteers collection: %w", err)
	}
	if len(existing) == 0 {
		for i := range seedVolunteers {
			v := seedVolunteers[i]
			v.ID = slugify(v.Name)
			writes = append(writes, db.Write{
				Collection: db.CollectionVolunteers,
				ID:         v.ID,
				Op:         db.OpCreate,
				Fields:     db.VolunteerFields(&v),
			})
		}
		result.VolunteersSeeded = len(seedVolunteers)
		logger.Info("Volunteers queued for seeding", zap.Int("count", len(seedVolunteers)))
	} else {
		logger.Info("Volunteers collection is not empty, skipping seed")
	}

	items, err := database.ListStoreItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check store items collection: %w", err)
	}
	if len(items) == 0 {
		for i := range seedItems {
			writes = append(writes, db.Write{
				Collection: db.CollectionStoreItems,
				ID:         seedItems[i].ID,
				Op:         db.OpCreate,
				Fields:     db.StoreItemFields(&seedItems[i]),
			})
		}
		result.ItemsSeeded = len(seedItems)
		logger.Info("Store items queued for seeding", zap.Int("count", len(seedItems)))
	} else {
		logger.Info("Store items collection is not empty, skipping seed")
	}

	if len(writes) == 0 {
		logger.Info("Nothing to seed")
		return result, nil
	}

	if err := database.Store().BatchCommit(ctx, writes); err != nil {
		return nil, fmt.Errorf("failed to commit seed batch: %w", err)
	}

	logger.Info("Database seeded successfully",
		zap.Int("volunteers", result.VolunteersSeeded),
		zap.Int("items", result.ItemsSeeded))

	return result, nil
}
