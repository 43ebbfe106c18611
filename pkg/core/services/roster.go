package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/offthechainak/hourbank/pkg/core/model"
	"github.com/offthechainak/hourbank/pkg/db"
)

// CreateVolunteer registers a new volunteer account. An opening balance may
// be set by admins entering historical hours; it is quarter-hour rounded like
// any manual entry. The assigned ID is returned and never reused.
func CreateVolunteer(ctx context.Context, database *db.DB, logger *zap.Logger, volunteer *model.Volunteer) (string, error) {
	if strings.TrimSpace(volunteer.Name) == "" || strings.TrimSpace(volunteer.Email) == "" {
		return "", fmt.Errorf("volunteer name and email are required: %w", ErrValidation)
	}
	if volunteer.Hours < 0 {
		return "", fmt.Errorf("opening balance cannot be negative: %w", ErrValidation)
	}

	if volunteer.ID == "" {
		volunteer.ID = uuid.New().String()
	}
	if volunteer.Hours > 0 {
		volunteer.Hours = RoundUpQuarterHour(volunteer.Hours)
	}

	if err := database.CreateVolunteer(ctx, volunteer); err != nil {
		return "", err
	}

	logger.Info("Volunteer created",
		zap.String("volunteer_id", volunteer.ID),
		zap.String("name", volunteer.Name),
		zap.Float64("opening_hours", volunteer.Hours))

	return volunteer.ID, nil
}

// UpdateProfile applies a volunteer's own profile edits. Only contact and
// privacy fields can change this way; balance and session state are owned by
// the ledger and clock engine.
func UpdateProfile(ctx context.Context, database *db.DB, logger *zap.Logger, volunteerID string, profile *model.Volunteer) error {
	if strings.TrimSpace(profile.Name) == "" || strings.TrimSpace(profile.Email) == "" {
		return fmt.Errorf("volunteer name and email are required: %w", ErrValidation)
	}

	fields := map[string]any{
		"name":      profile.Name,
		"email":     profile.Email,
		"phone":     profile.Phone,
		"twitter":   profile.Twitter,
		"facebook":  profile.Facebook,
		"instagram": profile.Instagram,
		"privacySettings": map[string]any{
			"showPhone":  profile.Privacy.ShowPhone,
			"showSocial": profile.Privacy.ShowSocial,
		},
	}
	if err := database.UpdateVolunteerFields(ctx, volunteerID, fields); err != nil {
		return err
	}

	logger.Info("Profile updated", zap.String("volunteer_id", volunteerID))
	return nil
}

// AddStoreItem adds a reward item. The ID is slugified from the name, so
// re-adding "Coffee Mug" overwrites the existing coffee-mug item rather than
// duplicating it.
func AddStoreItem(ctx context.Context, database *db.DB, logger *zap.Logger, name string, cost float64) (*model.StoreItem, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("item name is required: %w", ErrValidation)
	}
	if cost <= 0 {
		return nil, fmt.Errorf("item cost must be positive, got %v: %w", cost, ErrValidation)
	}

	item := &model.StoreItem{
		ID:   slugify(name),
		Name: name,
		Cost: cost,
	}
	if err := database.PutStoreItem(ctx, item); err != nil {
		return nil, err
	}

	logger.Info("Store item added",
		zap.String("item_id", item.ID),
		zap.Float64("cost", cost))

	return item, nil
}

func slugify(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(name))), "-")
}
