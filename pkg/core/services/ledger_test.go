package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/offthechainak/hourbank/pkg/core/model"
	"github.com/offthechainak/hourbank/pkg/db"
)

func addItem(t *testing.T, database *db.DB, id string, cost float64) {
	t.Helper()
	err := database.PutStoreItem(context.Background(), &model.StoreItem{
		ID:   id,
		Name: "Item " + id,
		Cost: cost,
	})
	require.NoError(t, err)
}

func TestRoundUpQuarterHour(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{2.1, 2.25},
		{2.0, 2.0},
		{0.01, 0.25},
		{0.25, 0.25},
		{3.76, 4.0},
		{1.26, 1.5},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, RoundUpQuarterHour(tt.in), "input %v", tt.in)
	}
}

func TestGrantHours_RoundsUpAndRecordsAdjustment(t *testing.T) {
	database, _ := newTestDB(t)
	ctx := context.Background()
	addVolunteer(t, database, "vol-1", 10)

	credited, err := GrantHours(ctx, database, zap.NewNop(), "vol-1", 2.1)
	require.NoError(t, err)
	assert.Equal(t, 2.25, credited)

	volunteer, err := database.GetVolunteer(ctx, "vol-1")
	require.NoError(t, err)
	assert.Equal(t, 12.25, volunteer.Hours)

	adjustments, err := database.ListAdjustments(ctx, "vol-1")
	require.NoError(t, err)
	require.Len(t, adjustments, 1)
	assert.Equal(t, 2.25, adjustments[0].Hours)
	assert.Equal(t, model.AdjustmentReasonManual, adjustments[0].Reason)
}

func TestGrantHours_WholeAmountNotRounded(t *testing.T) {
	database, _ := newTestDB(t)
	ctx := context.Background()
	addVolunteer(t, database, "vol-1", 0)

	credited, err := GrantHours(ctx, database, zap.NewNop(), "vol-1", 2.0)
	require.NoError(t, err)
	assert.Equal(t, 2.0, credited)
}

func TestGrantHours_RejectsBadAmounts(t *testing.T) {
	database, _ := newTestDB(t)
	ctx := context.Background()
	addVolunteer(t, database, "vol-1", 5)

	for _, amount := range []float64{0, -1.5, math.NaN(), math.Inf(1)} {
		_, err := GrantHours(ctx, database, zap.NewNop(), "vol-1", amount)
		assert.ErrorIs(t, err, ErrValidation, "amount %v", amount)
	}

	// Nothing was written
	volunteer, err := database.GetVolunteer(ctx, "vol-1")
	require.NoError(t, err)
	assert.Equal(t, 5.0, volunteer.Hours)
	adjustments, err := database.ListAdjustments(ctx, "vol-1")
	require.NoError(t, err)
	assert.Empty(t, adjustments)
}

func TestGrantHours_VolunteerNotFound(t *testing.T) {
	database, _ := newTestDB(t)

	_, err := GrantHours(context.Background(), database, zap.NewNop(), "missing", 1.0)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestRedeem_DeductsAndWritesReceipt(t *testing.T) {
	database, _ := newTestDB(t)
	ctx := context.Background()
	addVolunteer(t, database, "vol-1", 10)
	addItem(t, database, "tote", 4)

	receipt, err := Redeem(ctx, database, zap.NewNop(), "vol-1", "tote", "")
	require.NoError(t, err)
	assert.Equal(t, 4.0, receipt.HoursDeducted)
	assert.Equal(t, "vol-1", receipt.VolunteerID)
	assert.Equal(t, "tote", receipt.ItemID)

	volunteer, err := database.GetVolunteer(ctx, "vol-1")
	require.NoError(t, err)
	assert.Equal(t, 6.0, volunteer.Hours)

	transactions, err := database.ListTransactions(ctx, "vol-1")
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.Equal(t, receipt.ID, transactions[0].ID)
}

func TestRedeem_InsufficientBalance(t *testing.T) {
	database, _ := newTestDB(t)
	ctx := context.Background()
	addVolunteer(t, database, "vol-1", 3)
	addItem(t, database, "tshirt", 5)

	_, err := Redeem(ctx, database, zap.NewNop(), "vol-1", "tshirt", "")
	require.ErrorIs(t, err, ErrInsufficientBalance)

	// Balance untouched, no receipt written
	volunteer, err := database.GetVolunteer(ctx, "vol-1")
	require.NoError(t, err)
	assert.Equal(t, 3.0, volunteer.Hours)
	transactions, err := database.ListTransactions(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, transactions)
}

func TestRedeem_ExactBalanceGoesToZero(t *testing.T) {
	database, _ := newTestDB(t)
	ctx := context.Background()
	addVolunteer(t, database, "vol-1", 4)
	addItem(t, database, "tote", 4)

	_, err := Redeem(ctx, database, zap.NewNop(), "vol-1", "tote", "")
	require.NoError(t, err)

	volunteer, err := database.GetVolunteer(ctx, "vol-1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, volunteer.Hours)
}

func TestRedeem_ItemNotFound(t *testing.T) {
	database, _ := newTestDB(t)
	addVolunteer(t, database, "vol-1", 10)

	_, err := Redeem(context.Background(), database, zap.NewNop(), "vol-1", "missing", "")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestRedeem_IdempotentReplayDeductsOnce(t *testing.T) {
	database, _ := newTestDB(t)
	ctx := context.Background()
	addVolunteer(t, database, "vol-1", 10)
	addItem(t, database, "mug", 3)

	first, err := Redeem(ctx, database, zap.NewNop(), "vol-1", "mug", "client-key-1")
	require.NoError(t, err)

	second, err := Redeem(ctx, database, zap.NewNop(), "vol-1", "mug", "client-key-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.HoursDeducted, second.HoursDeducted)

	volunteer, err := database.GetVolunteer(ctx, "vol-1")
	require.NoError(t, err)
	assert.Equal(t, 7.0, volunteer.Hours)

	transactions, err := database.ListTransactions(ctx, "vol-1")
	require.NoError(t, err)
	assert.Len(t, transactions, 1)
}

// receiptLookupFailingStore fails reads of the transactions collection inside
// a transaction and delegates everything else to the wrapped store.
type receiptLookupFailingStore struct {
	db.Store
}

func (s *receiptLookupFailingStore) RunTransaction(ctx context.Context, fn func(db.Tx) error) error {
	return s.Store.RunTransaction(ctx, func(tx db.Tx) error {
		return fn(&receiptLookupFailingTx{Tx: tx})
	})
}

type receiptLookupFailingTx struct {
	db.Tx
}

func (t *receiptLookupFailingTx) Get(collection, id string) (*db.Document, error) {
	if collection == db.CollectionTransactions {
		return nil, fmt.Errorf("transactions backend offline: %w", db.ErrUnavailable)
	}
	return t.Tx.Get(collection, id)
}

func TestRedeem_ReplayCheckFailureIsSurfaced(t *testing.T) {
	database, store := newTestDB(t)
	ctx := context.Background()
	addVolunteer(t, database, "vol-1", 10)
	addItem(t, database, "mug", 4)

	// An unanswerable prior-receipt lookup must not pass for a first
	// attempt; the redemption fails and nothing is deducted.
	flaky := db.NewDB(&receiptLookupFailingStore{Store: store})
	_, err := Redeem(ctx, flaky, zap.NewNop(), "vol-1", "mug", "order-1")
	assert.ErrorIs(t, err, db.ErrUnavailable)

	volunteer, err := database.GetVolunteer(ctx, "vol-1")
	require.NoError(t, err)
	assert.Equal(t, 10.0, volunteer.Hours)

	transactions, err := database.ListTransactions(ctx, "vol-1")
	require.NoError(t, err)
	assert.Empty(t, transactions)
}

func TestRedeem_SequentialRedemptionsBothLand(t *testing.T) {
	database, _ := newTestDB(t)
	ctx := context.Background()
	addVolunteer(t, database, "vol-1", 10)
	addItem(t, database, "tote", 4)

	// The balance is re-read inside each commit, so the second redemption
	// sees the first one's deduction instead of overwriting it.
	_, err := Redeem(ctx, database, zap.NewNop(), "vol-1", "tote", "")
	require.NoError(t, err)
	_, err = Redeem(ctx, database, zap.NewNop(), "vol-1", "tote", "")
	require.NoError(t, err)

	volunteer, err := database.GetVolunteer(ctx, "vol-1")
	require.NoError(t, err)
	assert.Equal(t, 2.0, volunteer.Hours)

	transactions, err := database.ListTransactions(ctx, "vol-1")
	require.NoError(t, err)
	assert.Len(t, transactions, 2)
}

func TestRedeem_FailedCommitLeavesNoPartialState(t *testing.T) {
	database, store := newTestDB(t)
	ctx := context.Background()
	addVolunteer(t, database, "vol-1", 10)
	addItem(t, database, "tote", 4)

	rejected := errors.New("write rejected")
	store.FailNextCommit(rejected)
	_, err := Redeem(ctx, database, zap.NewNop(), "vol-1", "tote", "")
	require.ErrorIs(t, err, rejected)

	// Either both of receipt and deduction are visible or neither; here neither
	volunteer, err := database.GetVolunteer(ctx, "vol-1")
	require.NoError(t, err)
	assert.Equal(t, 10.0, volunteer.Hours)
	transactions, err := database.ListTransactions(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, transactions)
}

func TestBalanceNeverGoesNegative(t *testing.T) {
	database, _ := newTestDB(t)
	ctx := context.Background()
	addVolunteer(t, database, "vol-1", 9)
	addItem(t, database, "tote", 4)

	for i := 0; i < 5; i++ {
		_, err := Redeem(ctx, database, zap.NewNop(), "vol-1", "tote", "")
		volunteer, verr := database.GetVolunteer(ctx, "vol-1")
		require.NoError(t, verr)
		assert.GreaterOrEqual(t, volunteer.Hours, 0.0)
		if err != nil {
			assert.ErrorIs(t, err, ErrInsufficientBalance)
		}
	}

	volunteer, err := database.GetVolunteer(ctx, "vol-1")
	require.NoError(t, err)
	assert.Equal(t, 1.0, volunteer.Hours)
}
