package store

import (
	"context"
	"fmt"
)

type migration struct {
	name string
	sql  string
}

// migrations are applied in order, each at most once. Append only.
var migrations = []migration{
	{
		name: "0001_users_notes",
		sql: `
		CREATE TABLE IF NOT EXISTS users (
			user_id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			account_note_id BLOB,
			created_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS notes (
			id BLOB PRIMARY KEY CHECK (length(id) = 32),
			value BLOB NOT NULL CHECK (length(value) <= 1024),
			created_at INTEGER NOT NULL,
			author_id TEXT NOT NULL REFERENCES users(user_id)
		);

		CREATE INDEX IF NOT EXISTS idx_notes_author ON notes(author_id, created_at);
		CREATE INDEX IF NOT EXISTS idx_users_account_note ON users(account_note_id);
		`,
	},
	{
		name: "0002_associations",
		sql: `
		CREATE TABLE IF NOT EXISTS associations (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			kind TEXT NOT NULL,
			from_id BLOB NOT NULL REFERENCES notes(id),
			to_id BLOB NOT NULL REFERENCES notes(id),
			created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_associations_from ON associations(from_id);
		CREATE INDEX IF NOT EXISTS idx_associations_to ON associations(to_id);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_associations_single_version
			ON associations(from_id) WHERE kind = 'version';
		`,
	},
	{
		name: "0003_single_next",
		sql: `
		CREATE UNIQUE INDEX IF NOT EXISTS idx_associations_single_next
			ON associations(from_id) WHERE kind = 'next';
		`,
	},
	{
		name: "0004_follows",
		sql: `
		CREATE TABLE IF NOT EXISTS follows (
			follower_id TEXT NOT NULL REFERENCES users(user_id),
			followee_id TEXT NOT NULL REFERENCES users(user_id),
			created_at INTEGER NOT NULL,
			PRIMARY KEY (follower_id, followee_id),
			CHECK (follower_id <> followee_id)
		);

		CREATE INDEX IF NOT EXISTS idx_follows_followee ON follows(followee_id, created_at);
		`,
	},
}

// migrate creates the bookkeeping table and applies pending migrations,
// each inside its own transaction.
func (s *SQLiteStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name TEXT PRIMARY KEY,
			applied_at INTEGER NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	for _, m := range migrations {
		applied, err := s.migrationApplied(ctx, m.name)
		if err != nil {
			return err
		}
		if applied {
			continue
		}
		if err := s.applyMigration(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) migrationApplied(ctx context.Context, name string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM schema_migrations WHERE name = ?", name).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check migration %s: %w", name, err)
	}
	return count > 0, nil
}

func (s *SQLiteStore) applyMigration(ctx context.Context, m migration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration %s: %w", m.name, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.sql); err != nil {
		return fmt.Errorf("failed to apply migration %s: %w", m.name, err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (name, applied_at) VALUES (?, ?)",
		m.name, s.now().UnixNano()); err != nil {
		return fmt.Errorf("failed to record migration %s: %w", m.name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %s: %w", m.name, err)
	}
	return nil
}

// AppliedMigrations returns the names of applied migrations in order.
func (s *SQLiteStore) AppliedMigrations(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM schema_migrations ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan migration: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating migrations: %w", err)
	}
	return names, nil
}
