package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/offthechainak/hourbank/pkg/db"
)

// uniqueViolation is the postgres error code raised when a create hits an
// existing (collection, id) pair.
const uniqueViolation = "23505"

// querier covers the pool and a transaction so write statements are shared.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Get retrieves one document.
func (d *DB) Get(ctx context.Context, collection, id string) (*db.Document, error) {
	return getDocument(ctx, d.pool, collection, id, false)
}

func getDocument(ctx context.Context, q querier, collection, id string, forUpdate bool) (*db.Document, error) {
	query := `SELECT fields FROM documents WHERE collection = $1 AND id = $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var fields map[string]any
	err := q.QueryRow(ctx, query, collection, id).Scan(&fields)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, db.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document %s/%s: %v: %w", collection, id, err, db.ErrUnavailable)
	}
	return &db.Document{ID: id, Fields: fields}, nil
}

// Put merges fields into the document, creating it if absent.
func (d *DB) Put(ctx context.Context, collection, id string, fields map[string]any) error {
	return applyWrite(ctx, d.pool, db.Write{Collection: collection, ID: id, Op: db.OpSet, Fields: fields})
}

// ListAll retrieves every document in the collection.
func (d *DB) ListAll(ctx context.Context, collection string) ([]db.Document, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, fields FROM documents WHERE collection = $1
	`, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection %s: %v: %w", collection, err, db.ErrUnavailable)
	}
	defer rows.Close()

	var docs []db.Document
	for rows.Next() {
		var doc db.Document
		if err := rows.Scan(&doc.ID, &doc.Fields); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating collection %s: %v: %w", collection, err, db.ErrUnavailable)
	}
	return docs, nil
}

// BatchCommit applies all writes inside one transaction.
func (d *DB) BatchCommit(ctx context.Context, writes []db.Write) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v: %w", err, db.ErrUnavailable)
	}
	defer tx.Rollback(ctx)

	for _, w := range writes {
		if err := applyWrite(ctx, tx, w); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit batch: %v: %w", err, db.ErrUnavailable)
	}
	return nil
}

// RunTransaction runs fn in a serializable transaction. Reads through the tx
// lock their rows, buffered writes flush before commit.
func (d *DB) RunTransaction(ctx context.Context, fn func(tx db.Tx) error) error {
	tx, err := d.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v: %w", err, db.ErrUnavailable)
	}
	defer tx.Rollback(ctx)

	adapter := &pgTx{ctx: ctx, tx: tx}
	if err := fn(adapter); err != nil {
		return err
	}

	for _, w := range adapter.writes {
		if err := applyWrite(ctx, tx, w); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %v: %w", err, db.ErrUnavailable)
	}
	return nil
}

func applyWrite(ctx context.Context, q querier, w db.Write) error {
	switch w.Op {
	case db.OpCreate:
		_, err := q.Exec(ctx, `
			INSERT INTO documents (collection, id, fields)
			VALUES ($1, $2, $3)
		`, w.Collection, w.ID, w.Fields)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%s/%s: %w", w.Collection, w.ID, db.ErrConflict)
		}
		if err != nil {
			return fmt.Errorf("failed to create %s/%s: %v: %w", w.Collection, w.ID, err, db.ErrUnavailable)
		}

	case db.OpSet:
		_, err := q.Exec(ctx, `
			INSERT INTO documents (collection, id, fields)
			VALUES ($1, $2, $3)
			ON CONFLICT (collection, id)
			DO UPDATE SET fields = documents.fields || EXCLUDED.fields, updated_at = NOW()
		`, w.Collection, w.ID, w.Fields)
		if err != nil {
			return fmt.Errorf("failed to set %s/%s: %v: %w", w.Collection, w.ID, err, db.ErrUnavailable)
		}

	case db.OpUpdate:
		tag, err := q.Exec(ctx, `
			UPDATE documents
			SET fields = fields || $3, updated_at = NOW()
			WHERE collection = $1 AND id = $2
		`, w.Collection, w.ID, w.Fields)
		if err != nil {
			return fmt.Errorf("failed to update %s/%s: %v: %w", w.Collection, w.ID, err, db.ErrUnavailable)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%s/%s: %w", w.Collection, w.ID, db.ErrNotFound)
		}
	}
	return nil
}

type pgTx struct {
	ctx    context.Context
	tx     pgx.Tx
	writes []db.Write
}

func (t *pgTx) Get(collection, id string) (*db.Document, error) {
	return getDocument(t.ctx, t.tx, collection, id, true)
}

func (t *pgTx) Write(w db.Write) {
	t.writes = append(t.writes, w)
}
