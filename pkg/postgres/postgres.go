// Package postgres implements the document store contract on PostgreSQL,
// with one jsonb-backed documents table standing in for the collections.
package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB provides document operations using PostgreSQL.
type DB struct {
	pool *pgxpool.Pool
}

// NewDB creates a new PostgreSQL connection pool and verifies it.
func NewDB(ctx context.Context, connString string) (*DB, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool.
func (d *DB) Close() {
	d.pool.Close()
}

// RunMigrations brings the schema up to date from the embedded migration
// files. Each pending file runs in its own transaction together with the
// schema_migrations row that marks it applied, so a failed migration leaves
// no half-applied schema and reruns pick up where they stopped.
func (d *DB) RunMigrations(ctx context.Context) error {
	_, err := d.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	pending, err := d.pendingMigrations(ctx)
	if err != nil {
		return err
	}
	for _, filename := range pending {
		if err := d.applyMigration(ctx, filename); err != nil {
			return err
		}
	}
	return nil
}

// pendingMigrations lists the embedded .sql files not yet recorded in
// schema_migrations, in lexical order. Files are applied in the order they
// are named, so new migrations must sort after every applied one.
func (d *DB) pendingMigrations(ctx context.Context) ([]string, error) {
	applied := make(map[string]bool)
	rows, err := d.pool.Query(ctx, `SELECT filename FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var filename string
		if err := rows.Scan(&filename); err != nil {
			return nil, fmt.Errorf("failed to scan migration filename: %w", err)
		}
		applied[filename] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list applied migrations: %w", err)
	}

	paths, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}
	sort.Strings(paths)

	var pending []string
	for _, path := range paths {
		if name := strings.TrimPrefix(path, "migrations/"); !applied[name] {
			pending = append(pending, name)
		}
	}
	return pending, nil
}

func (d *DB) applyMigration(ctx context.Context, filename string) error {
	content, err := fs.ReadFile(migrationsFS, "migrations/"+filename)
	if err != nil {
		return fmt.Errorf("failed to read migration %s: %w", filename, err)
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for %s: %w", filename, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, string(content)); err != nil {
		return fmt.Errorf("failed to execute migration %s: %w", filename, err)
	}
	if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (filename) VALUES ($1)`, filename); err != nil {
		return fmt.Errorf("failed to record migration %s: %w", filename, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit migration %s: %w", filename, err)
	}
	return nil
}
