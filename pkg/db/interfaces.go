package db

import (
	"context"
	"errors"
)

// Collection names in the document store.
const (
	CollectionVolunteers   = "volunteers"
	CollectionClockEvents  = "clockEvents"
	CollectionTransactions = "transactions"
	CollectionAdjustments  = "adjustments"
	CollectionStoreItems   = "storeItems"
)

// Store-level error taxonomy. Backends translate their native failures into
// these so callers can discriminate with errors.Is.
var (
	// ErrNotFound means the referenced document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrConflict means a create hit an existing document.
	ErrConflict = errors.New("document already exists")
	// ErrUnavailable means the store is unreachable or rejected the write.
	ErrUnavailable = errors.New("store unavailable")
)

// Document is one record from the store.
type Document struct {
	ID     string
	Fields map[string]any
}

// WriteOp selects how a Write is applied.
type WriteOp int

const (
	// OpCreate fails with ErrConflict if the document already exists.
	OpCreate WriteOp = iota
	// OpSet merges fields into the document, creating it if absent.
	OpSet
	// OpUpdate merges fields and fails with ErrNotFound if the document
	// is absent.
	OpUpdate
)

// Write is one element of an atomic batch.
type Write struct {
	Collection string
	ID         string
	Op         WriteOp
	Fields     map[string]any
}

// Store is the document-store collaborator the core runs against. All
// multi-document invariants (clock event + volunteer pointer, transaction +
// balance) go through BatchCommit or RunTransaction, never through
// one-at-a-time puts.
type Store interface {
	Get(ctx context.Context, collection, id string) (*Document, error)
	Put(ctx context.Context, collection, id string, fields map[string]any) error
	ListAll(ctx context.Context, collection string) ([]Document, error)

	// BatchCommit applies all writes or none of them.
	BatchCommit(ctx context.Context, writes []Write) error

	// RunTransaction runs fn as a serializable read-modify-write unit.
	// Reads inside fn observe committed state; buffered writes commit
	// together or not at all.
	RunTransaction(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the view of the store inside RunTransaction.
type Tx interface {
	Get(collection, id string) (*Document, error)
	Write(w Write)
}
