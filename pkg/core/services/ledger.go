package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/offthechainak/hourbank/internal/metrics"
	"github.com/offthechainak/hourbank/pkg/core/model"
	"github.com/offthechainak/hourbank/pkg/db"
)

// RoundUpQuarterHour rounds a manually entered amount up to the nearest
// quarter hour: 2.1 -> 2.25, 2.0 -> 2.0, 0.01 -> 0.25. Manual entries never
// credit finer than 15-minute increments; session-derived credits are exempt
// and keep full precision.
func RoundUpQuarterHour(hours float64) float64 {
	return math.Ceil(hours*4) / 4
}

// GrantHours applies a manual admin credit to the volunteer's balance and
// writes the matching adjustment receipt in the same commit. The amount is
// quarter-hour rounded before crediting; the credited amount is returned.
//
// Rejects non-finite or non-positive amounts with ErrValidation before
// touching the store.
func GrantHours(ctx context.Context, database *db.DB, logger *zap.Logger, volunteerID string, hours float64) (float64, error) {
	if math.IsNaN(hours) || math.IsInf(hours, 0) || hours <= 0 {
		return 0, fmt.Errorf("grant amount must be a positive number, got %v: %w", hours, ErrValidation)
	}

	credited := RoundUpQuarterHour(hours)
	adjustment := &model.Adjustment{
		ID:          uuid.New().String(),
		VolunteerID: volunteerID,
		Hours:       credited,
		Reason:      model.AdjustmentReasonManual,
		Date:        timeNow().UTC(),
	}

	err := database.Store().RunTransaction(ctx, func(tx db.Tx) error {
		volunteerDoc, err := tx.Get(db.CollectionVolunteers, volunteerID)
		if err != nil {
			return fmt.Errorf("failed to get volunteer %s: %w", volunteerID, err)
		}
		volunteer := db.DecodeVolunteer(volunteerDoc)

		tx.Write(db.Write{
			Collection: db.CollectionAdjustments,
			ID:         adjustment.ID,
			Op:         db.OpCreate,
			Fields:     db.AdjustmentFields(adjustment),
		})
		tx.Write(db.Write{
			Collection: db.CollectionVolunteers,
			ID:         volunteerID,
			Op:         db.OpUpdate,
			Fields:     map[string]any{"hours": volunteer.Hours + credited},
		})
		return nil
	})
	if err != nil {
		return 0, err
	}

	metrics.HoursCredited.Add(credited)
	logger.Info("Manual hours granted",
		zap.String("volunteer_id", volunteerID),
		zap.Float64("requested", hours),
		zap.Float64("credited", credited))

	return credited, nil
}

// Redeem exchanges accrued hours for a store item. The volunteer's balance
// and the item price are re-read inside the transaction, the sufficiency
// check runs against that fresh balance, and the transaction receipt plus the
// deduction commit together or not at all.
//
// idempotencyKey, when non-empty, becomes the receipt's document ID: a retry
// of the same logical redemption finds the existing receipt and returns it
// without deducting again. An empty key gets a generated ID and no replay
// protection.
//
// Fails with ErrInsufficientBalance when hours < cost; the balance is left
// untouched and no receipt is written.
func Redeem(ctx context.Context, database *db.DB, logger *zap.Logger, volunteerID, itemID, idempotencyKey string) (*model.Transaction, error) {
	transactionID := idempotencyKey
	if transactionID == "" {
		transactionID = uuid.New().String()
	}

	var (
		receipt *model.Transaction
		replay  bool
	)

	err := database.Store().RunTransaction(ctx, func(tx db.Tx) error {
		receipt = nil
		replay = false

		if idempotencyKey != "" {
			existing, err := tx.Get(db.CollectionTransactions, transactionID)
			switch {
			case err == nil:
				receipt = db.DecodeTransaction(existing)
				replay = true
				return nil
			case !errors.Is(err, db.ErrNotFound):
				// A failed lookup is not proof of a first attempt.
				return fmt.Errorf("failed to check for prior redemption %s: %w", transactionID, err)
			}
		}

		volunteerDoc, err := tx.Get(db.CollectionVolunteers, volunteerID)
		if err != nil {
			return fmt.Errorf("failed to get volunteer %s: %w", volunteerID, err)
		}
		volunteer := db.DecodeVolunteer(volunteerDoc)

		itemDoc, err := tx.Get(db.CollectionStoreItems, itemID)
		if err != nil {
			return fmt.Errorf("failed to get store item %s: %w", itemID, err)
		}
		item := db.DecodeStoreItem(itemDoc)

		if volunteer.Hours < item.Cost {
			return fmt.Errorf("volunteer %s has %.2f hours, item %s costs %.2f: %w",
				volunteerID, volunteer.Hours, itemID, item.Cost, ErrInsufficientBalance)
		}

		receipt = &model.Transaction{
			ID:            transactionID,
			VolunteerID:   volunteerID,
			ItemID:        itemID,
			HoursDeducted: item.Cost,
			Date:          timeNow().UTC(),
		}

		tx.Write(db.Write{
			Collection: db.CollectionTransactions,
			ID:         transactionID,
			Op:         db.OpCreate,
			Fields:     db.TransactionFields(receipt),
		})
		tx.Write(db.Write{
			Collection: db.CollectionVolunteers,
			ID:         volunteerID,
			Op:         db.OpUpdate,
			Fields:     map[string]any{"hours": volunteer.Hours - item.Cost},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if replay {
		logger.Info("Redemption replayed, no second deduction",
			zap.String("transaction_id", transactionID),
			zap.String("volunteer_id", volunteerID))
		return receipt, nil
	}

	metrics.Redemptions.Inc()
	metrics.HoursRedeemed.Add(receipt.HoursDeducted)
	logger.Info("Item redeemed",
		zap.String("transaction_id", transactionID),
		zap.String("volunteer_id", volunteerID),
		zap.String("item_id", itemID),
		zap.Float64("hours_deducted", receipt.HoursDeducted))

	return receipt, nil
}
