package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// DefaultDriver is the database/sql driver name used by Open.
const DefaultDriver = "sqlite"

// DBTX is the statement surface shared by *sql.DB and *sql.Tx. Stores run
// every statement through it so the same code serves both plain reads and
// transactional writes.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStore owns the database handle and hands out stores bound to it.
type SQLiteStore struct {
	db    *sql.DB
	now   func() time.Time
	notes *NoteStore
	assoc *AssociationStore
	accts *AccountStore
	flws  *FollowStore
}

// Open opens (or creates) a SQLite database with the pure-Go driver.
// The dbPath can be a file path or ":memory:" for an in-memory database.
func Open(dbPath string) (*SQLiteStore, error) {
	return OpenWithDriver(DefaultDriver, dbPath)
}

// OpenWithDriver opens the database with any registered SQLite driver and
// applies pending migrations.
func OpenWithDriver(driverName, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer; a single connection also keeps ":memory:"
	// databases alive and shared across every caller.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db, now: func() time.Time { return time.Now().UTC() }}
	s.notes = &NoteStore{db: db, now: s.clock}
	s.assoc = &AssociationStore{db: db, now: s.clock}
	s.accts = &AccountStore{db: db, now: s.clock}
	s.flws = &FollowStore{db: db, now: s.clock}

	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) clock() time.Time {
	return s.now()
}

// SetClock replaces the time source used for created_at. Intended for tests.
func (s *SQLiteStore) SetClock(now func() time.Time) {
	s.now = now
}

// Notes returns the note store bound to the database.
func (s *SQLiteStore) Notes() *NoteStore { return s.notes }

// Associations returns the association store bound to the database.
func (s *SQLiteStore) Associations() *AssociationStore { return s.assoc }

// Accounts returns the account store bound to the database.
func (s *SQLiteStore) Accounts() *AccountStore { return s.accts }

// Follows returns the follow store bound to the database.
func (s *SQLiteStore) Follows() *FollowStore { return s.flws }

// DB returns the underlying database connection for advanced operations.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// Tx groups the stores bound to one open transaction.
type Tx struct {
	tx           *sql.Tx
	Notes        *NoteStore
	Associations *AssociationStore
	Accounts     *AccountStore
	Follows      *FollowStore
}

// WithTx runs fn inside one transaction. The transaction commits only if fn
// returns nil; any error, or a panic, rolls back every write fn made.
func (s *SQLiteStore) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin transaction", err)
	}
	defer sqlTx.Rollback() // Rollback if not committed

	tx := &Tx{
		tx:           sqlTx,
		Notes:        &NoteStore{db: sqlTx, now: s.clock},
		Associations: &AssociationStore{db: sqlTx, now: s.clock},
		Accounts:     &AccountStore{db: sqlTx, now: s.clock},
		Follows:      &FollowStore{db: sqlTx, now: s.clock},
	}
	if err := fn(tx); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return storageErr("commit transaction", err)
	}
	return nil
}

// NoteCount returns the total number of notes.
func (s *SQLiteStore) NoteCount(ctx context.Context) (int64, error) {
	return s.notes.Count(ctx)
}

// AssociationCount returns the total number of associations.
func (s *SQLiteStore) AssociationCount(ctx context.Context) (int64, error) {
	return s.assoc.Count(ctx)
}

// FollowCount returns the total number of follow relations.
func (s *SQLiteStore) FollowCount(ctx context.Context) (int64, error) {
	return s.flws.Count(ctx)
}

// Close releases database resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
