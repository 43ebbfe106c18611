// Package firestore implements the document store contract on Cloud
// Firestore. The client is constructed once at process start and injected;
// pointing it at the emulator is done through the client library's standard
// FIRESTORE_EMULATOR_HOST variable, not through conditionals here.
package firestore

import (
	"context"
	"fmt"

	cf "cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/offthechainak/hourbank/pkg/db"
)

// Store provides document operations backed by Cloud Firestore.
type Store struct {
	client *cf.Client
}

// New connects to the project's Firestore database. credentialsFile may be
// empty, in which case application default credentials (or the emulator)
// apply.
func New(ctx context.Context, projectID, credentialsFile string) (*Store, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := cf.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return &Store{client: client}, nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

// Get retrieves one document.
func (s *Store) Get(ctx context.Context, collection, id string) (*db.Document, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		return nil, translate(fmt.Sprintf("get %s/%s", collection, id), err)
	}
	return &db.Document{ID: snap.Ref.ID, Fields: snap.Data()}, nil
}

// Put merges fields into the document, creating it if absent.
func (s *Store) Put(ctx context.Context, collection, id string, fields map[string]any) error {
	_, err := s.client.Collection(collection).Doc(id).Set(ctx, fields, cf.MergeAll)
	if err != nil {
		return translate(fmt.Sprintf("put %s/%s", collection, id), err)
	}
	return nil
}

// ListAll retrieves every document in the collection.
func (s *Store) ListAll(ctx context.Context, collection string) ([]db.Document, error) {
	iter := s.client.Collection(collection).Documents(ctx)
	defer iter.Stop()

	var docs []db.Document
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, translate(fmt.Sprintf("list %s", collection), err)
		}
		docs = append(docs, db.Document{ID: snap.Ref.ID, Fields: snap.Data()})
	}
	return docs, nil
}

// BatchCommit applies the writes in one Firestore transaction, so they land
// together or not at all.
func (s *Store) BatchCommit(ctx context.Context, writes []db.Write) error {
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *cf.Transaction) error {
		return s.flush(tx, writes)
	})
	if err != nil {
		return translate("batch commit", err)
	}
	return nil
}

// RunTransaction exposes Firestore's serializable transactions. Writes from
// fn are buffered and flushed after it returns, which keeps Firestore's
// reads-before-writes ordering regardless of how fn interleaves them.
func (s *Store) RunTransaction(ctx context.Context, fn func(tx db.Tx) error) error {
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *cf.Transaction) error {
		adapter := &fsTx{store: s, tx: tx}
		if err := fn(adapter); err != nil {
			return err
		}
		return s.flush(tx, adapter.writes)
	})
	// fn errors carry their own taxonomy; only translate transport codes
	return translate("transaction", err)
}

// flush issues buffered writes into the transaction. Update existence checks
// run first so every read still precedes every write.
func (s *Store) flush(tx *cf.Transaction, writes []db.Write) error {
	for _, w := range writes {
		if w.Op != db.OpUpdate {
			continue
		}
		ref := s.client.Collection(w.Collection).Doc(w.ID)
		if _, err := tx.Get(ref); err != nil {
			return translate(fmt.Sprintf("update %s/%s", w.Collection, w.ID), err)
		}
	}

	for _, w := range writes {
		ref := s.client.Collection(w.Collection).Doc(w.ID)
		var err error
		switch w.Op {
		case db.OpCreate:
			err = tx.Create(ref, w.Fields)
		default:
			err = tx.Set(ref, w.Fields, cf.MergeAll)
		}
		if err != nil {
			return translate(fmt.Sprintf("write %s/%s", w.Collection, w.ID), err)
		}
	}
	return nil
}

type fsTx struct {
	store  *Store
	tx     *cf.Transaction
	writes []db.Write
}

func (t *fsTx) Get(collection, id string) (*db.Document, error) {
	snap, err := t.tx.Get(t.store.client.Collection(collection).Doc(id))
	if err != nil {
		return nil, translate(fmt.Sprintf("get %s/%s", collection, id), err)
	}
	return &db.Document{ID: snap.Ref.ID, Fields: snap.Data()}, nil
}

func (t *fsTx) Write(w db.Write) {
	t.writes = append(t.writes, w)
}

// translate maps grpc status codes onto the store error taxonomy and leaves
// everything else (including service-level errors surfaced out of
// RunTransaction) untouched.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.NotFound:
		return fmt.Errorf("firestore %s: %w", op, db.ErrNotFound)
	case codes.AlreadyExists:
		return fmt.Errorf("firestore %s: %w", op, db.ErrConflict)
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted:
		return fmt.Errorf("firestore %s: %v: %w", op, err, db.ErrUnavailable)
	default:
		return err
	}
}
