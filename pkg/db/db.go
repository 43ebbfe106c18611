package db

import (
	"context"
	"fmt"
	"sort"

	"github.com/offthechainak/hourbank/pkg/core/model"
)

// DB is the typed access layer over a document Store backend. Any backend
// implementing Store (Firestore, Postgres, memstore) plugs in here.
type DB struct {
	store Store
}

// NewDB creates the typed layer over a store backend.
func NewDB(store Store) *DB {
	return &DB{store: store}
}

// Store exposes the raw backend for transactional service code.
func (d *DB) Store() Store {
	return d.store
}

// GetVolunteer retrieves one volunteer by ID.
func (d *DB) GetVolunteer(ctx context.Context, id string) (*model.Volunteer, error) {
	doc, err := d.store.Get(ctx, CollectionVolunteers, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get volunteer %s: %w", id, err)
	}
	return decodeVolunteer(doc), nil
}

// ListVolunteers retrieves all volunteers, sorted by name.
func (d *DB) ListVolunteers(ctx context.Context) ([]model.Volunteer, error) {
	docs, err := d.store.ListAll(ctx, CollectionVolunteers)
	if err != nil {
		return nil, fmt.Errorf("failed to list volunteers: %w", err)
	}
	volunteers := make([]model.Volunteer, 0, len(docs))
	for i := range docs {
		volunteers = append(volunteers, *decodeVolunteer(&docs[i]))
	}
	sort.Slice(volunteers, func(i, j int) bool {
		return volunteers[i].Name < volunteers[j].Name
	})
	return volunteers, nil
}

// CreateVolunteer writes a new volunteer document. Fails with ErrConflict
// when the ID is already taken; IDs are never reused.
func (d *DB) CreateVolunteer(ctx context.Context, v *model.Volunteer) error {
	err := d.store.BatchCommit(ctx, []Write{{
		Collection: CollectionVolunteers,
		ID:         v.ID,
		Op:         OpCreate,
		Fields:     VolunteerFields(v),
	}})
	if err != nil {
		return fmt.Errorf("failed to create volunteer %s: %w", v.ID, err)
	}
	return nil
}

// UpdateVolunteerFields applies a partial update to a volunteer document.
func (d *DB) UpdateVolunteerFields(ctx context.Context, id string, fields map[string]any) error {
	err := d.store.BatchCommit(ctx, []Write{{
		Collection: CollectionVolunteers,
		ID:         id,
		Op:         OpUpdate,
		Fields:     fields,
	}})
	if err != nil {
		return fmt.Errorf("failed to update volunteer %s: %w", id, err)
	}
	return nil
}

// GetClockEvent retrieves one clock event by ID.
func (d *DB) GetClockEvent(ctx context.Context, id string) (*model.ClockEvent, error) {
	doc, err := d.store.Get(ctx, CollectionClockEvents, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get clock event %s: %w", id, err)
	}
	return decodeClockEvent(doc), nil
}

// ListClockEvents retrieves a volunteer's clock events, newest first.
func (d *DB) ListClockEvents(ctx context.Context, volunteerID string) ([]model.ClockEvent, error) {
	docs, err := d.store.ListAll(ctx, CollectionClockEvents)
	if err != nil {
		return nil, fmt.Errorf("failed to list clock events: %w", err)
	}
	events := make([]model.ClockEvent, 0)
	for i := range docs {
		e := decodeClockEvent(&docs[i])
		if e.VolunteerID == volunteerID {
			events = append(events, *e)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].StartTime.After(events[j].StartTime)
	})
	return events, nil
}

// GetStoreItem retrieves one store item by ID.
func (d *DB) GetStoreItem(ctx context.Context, id string) (*model.StoreItem, error) {
	doc, err := d.store.Get(ctx, CollectionStoreItems, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get store item %s: %w", id, err)
	}
	return decodeStoreItem(doc), nil
}

// ListStoreItems retrieves all store items, sorted by name.
func (d *DB) ListStoreItems(ctx context.Context) ([]model.StoreItem, error) {
	docs, err := d.store.ListAll(ctx, CollectionStoreItems)
	if err != nil {
		return nil, fmt.Errorf("failed to list store items: %w", err)
	}
	items := make([]model.StoreItem, 0, len(docs))
	for i := range docs {
		items = append(items, *decodeStoreItem(&docs[i]))
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Name < items[j].Name
	})
	return items, nil
}

// PutStoreItem writes a store item document.
func (d *DB) PutStoreItem(ctx context.Context, item *model.StoreItem) error {
	if err := d.store.Put(ctx, CollectionStoreItems, item.ID, StoreItemFields(item)); err != nil {
		return fmt.Errorf("failed to put store item %s: %w", item.ID, err)
	}
	return nil
}

// ListTransactions retrieves redemption receipts, newest first. An empty
// volunteerID returns receipts for all volunteers.
func (d *DB) ListTransactions(ctx context.Context, volunteerID string) ([]model.Transaction, error) {
	docs, err := d.store.ListAll(ctx, CollectionTransactions)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	transactions := make([]model.Transaction, 0, len(docs))
	for i := range docs {
		t := decodeTransaction(&docs[i])
		if volunteerID != "" && t.VolunteerID != volunteerID {
			continue
		}
		transactions = append(transactions, *t)
	}
	sort.Slice(transactions, func(i, j int) bool {
		return transactions[i].Date.After(transactions[j].Date)
	})
	return transactions, nil
}

// ListAdjustments retrieves manual grant receipts, newest first. An empty
// volunteerID returns receipts for all volunteers.
func (d *DB) ListAdjustments(ctx context.Context, volunteerID string) ([]model.Adjustment, error) {
	docs, err := d.store.ListAll(ctx, CollectionAdjustments)
	if err != nil {
		return nil, fmt.Errorf("failed to list adjustments: %w", err)
	}
	adjustments := make([]model.Adjustment, 0, len(docs))
	for i := range docs {
		a := decodeAdjustment(&docs[i])
		if volunteerID != "" && a.VolunteerID != volunteerID {
			continue
		}
		adjustments = append(adjustments, *a)
	}
	sort.Slice(adjustments, func(i, j int) bool {
		return adjustments[i].Date.After(adjustments[j].Date)
	})
	return adjustments, nil
}

// DecodeVolunteer decodes a raw volunteer document. Used by transactional
// service code that reads through Tx.
func DecodeVolunteer(doc *Document) *model.Volunteer { return decodeVolunteer(doc) }

// DecodeClockEvent decodes a raw clock event document.
func DecodeClockEvent(doc *Document) *model.ClockEvent { return decodeClockEvent(doc) }

// DecodeTransaction decodes a raw transaction document.
func DecodeTransaction(doc *Document) *model.Transaction { return decodeTransaction(doc) }

// DecodeStoreItem decodes a raw store item document.
func DecodeStoreItem(doc *Document) *model.StoreItem { return decodeStoreItem(doc) }
