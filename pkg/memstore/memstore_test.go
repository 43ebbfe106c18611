package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/offthechainak/hourbank/pkg/db"
)

func TestGet_NotFound(t *testing.T) {
	store := New()
	_, err := store.Get(context.Background(), db.CollectionVolunteers, "missing")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestPut_MergesFields(t *testing.T) {
	store := New()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, db.CollectionVolunteers, "vol-1", map[string]any{
		"name":  "Alice",
		"hours": 10.0,
	}))
	require.NoError(t, store.Put(ctx, db.CollectionVolunteers, "vol-1", map[string]any{
		"hours": 12.5,
	}))

	doc, err := store.Get(ctx, db.CollectionVolunteers, "vol-1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", doc.Fields["name"])
	assert.Equal(t, 12.5, doc.Fields["hours"])
}

func TestGet_ReturnsCopy(t *testing.T) {
	store := New()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, db.CollectionVolunteers, "vol-1", map[string]any{"hours": 1.0}))

	doc, err := store.Get(ctx, db.CollectionVolunteers, "vol-1")
	require.NoError(t, err)
	doc.Fields["hours"] = 999.0

	fresh, err := store.Get(ctx, db.CollectionVolunteers, "vol-1")
	require.NoError(t, err)
	assert.Equal(t, 1.0, fresh.Fields["hours"])
}

func TestBatchCommit_CreateConflict(t *testing.T) {
	store := New()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, db.CollectionTransactions, "txn-1", map[string]any{"itemId": "mug"}))

	err := store.BatchCommit(ctx, []db.Write{
		{Collection: db.CollectionTransactions, ID: "txn-1", Op: db.OpCreate, Fields: map[string]any{"itemId": "mug"}},
	})
	assert.ErrorIs(t, err, db.ErrConflict)
}

func TestBatchCommit_AllOrNothing(t *testing.T) {
	store := New()
	ctx := context.Background()

	// Second write references a missing document, so the first must not land
	err := store.BatchCommit(ctx, []db.Write{
		{Collection: db.CollectionTransactions, ID: "txn-1", Op: db.OpCreate, Fields: map[string]any{"itemId": "mug"}},
		{Collection: db.CollectionVolunteers, ID: "missing", Op: db.OpUpdate, Fields: map[string]any{"hours": 5.0}},
	})
	require.ErrorIs(t, err, db.ErrNotFound)

	_, err = store.Get(ctx, db.CollectionTransactions, "txn-1")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestFailNextCommit_NoPartialState(t *testing.T) {
	store := New()
	ctx := context.Background()
	boom := errors.New("write rejected")

	require.NoError(t, store.Put(ctx, db.CollectionVolunteers, "vol-1", map[string]any{"hours": 10.0}))

	store.FailNextCommit(boom)
	err := store.BatchCommit(ctx, []db.Write{
		{Collection: db.CollectionTransactions, ID: "txn-1", Op: db.OpCreate, Fields: map[string]any{"hoursDeducted": 4.0}},
		{Collection: db.CollectionVolunteers, ID: "vol-1", Op: db.OpUpdate, Fields: map[string]any{"hours": 6.0}},
	})
	require.ErrorIs(t, err, boom)

	// Neither the receipt nor the balance change is visible
	_, err = store.Get(ctx, db.CollectionTransactions, "txn-1")
	assert.ErrorIs(t, err, db.ErrNotFound)
	doc, err := store.Get(ctx, db.CollectionVolunteers, "vol-1")
	require.NoError(t, err)
	assert.Equal(t, 10.0, doc.Fields["hours"])

	// The injected failure is one-shot
	require.NoError(t, store.BatchCommit(ctx, []db.Write{
		{Collection: db.CollectionVolunteers, ID: "vol-1", Op: db.OpUpdate, Fields: map[string]any{"hours": 6.0}},
	}))
}

func TestRunTransaction_ReadThenWrite(t *testing.T) {
	store := New()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, db.CollectionVolunteers, "vol-1", map[string]any{"hours": 10.0}))

	err := store.RunTransaction(ctx, func(tx db.Tx) error {
		doc, err := tx.Get(db.CollectionVolunteers, "vol-1")
		if err != nil {
			return err
		}
		hours := doc.Fields["hours"].(float64)
		tx.Write(db.Write{
			Collection: db.CollectionVolunteers,
			ID:         "vol-1",
			Op:         db.OpUpdate,
			Fields:     map[string]any{"hours": hours - 4.0},
		})
		return nil
	})
	require.NoError(t, err)

	doc, err := store.Get(ctx, db.CollectionVolunteers, "vol-1")
	require.NoError(t, err)
	assert.Equal(t, 6.0, doc.Fields["hours"])
}

func TestRunTransaction_FnErrorDiscardsWrites(t *testing.T) {
	store := New()
	ctx := context.Background()
	boom := errors.New("precondition failed")

	err := store.RunTransaction(ctx, func(tx db.Tx) error {
		tx.Write(db.Write{
			Collection: db.CollectionVolunteers,
			ID:         "vol-1",
			Op:         db.OpSet,
			Fields:     map[string]any{"hours": 1.0},
		})
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = store.Get(ctx, db.CollectionVolunteers, "vol-1")
	assert.ErrorIs(t, err, db.ErrNotFound)
}
