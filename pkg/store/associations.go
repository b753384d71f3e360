package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AssociationStore creates and reads typed edges between notes.
type AssociationStore struct {
	db  DBTX
	now func() time.Time
}

// NewAssociationStore binds an association store to db.
func NewAssociationStore(db DBTX) *AssociationStore {
	return &AssociationStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// singleEdgeKinds may leave a note at most once. Inserts of these kinds are
// conditional so concurrent writers cannot both succeed.
var singleEdgeKinds = map[string]error{
	KindVersion: ErrVersionConflict,
	KindNext:    ErrNextConflict,
}

// Create inserts an association and returns the stored row.
//
// For "version" and "next" the insert is conditional on no edge of the same
// kind already leaving from; if one exists nothing is written and
// ErrVersionConflict (or ErrNextConflict) is returned. Identical edges of
// other kinds are not de-duplicated.
func (s *AssociationStore) Create(ctx context.Context, kind string, from, to NoteID) (*Association, error) {
	if !IsValidKind(kind) {
		return nil, fmt.Errorf("%w: unknown association kind %q", ErrInvalidInput, kind)
	}

	assoc := &Association{
		ID:        uuid.New(),
		Kind:      kind,
		FromID:    from,
		ToID:      to,
		CreatedAt: s.now(),
	}

	conflict, single := singleEdgeKinds[kind]

	var row *sql.Row
	if single {
		row = s.db.QueryRowContext(ctx, `
			INSERT INTO associations (id, kind, from_id, to_id, created_at)
			SELECT ?, ?, ?, ?, ?
			WHERE NOT EXISTS (SELECT 1 FROM associations WHERE kind = ? AND from_id = ?)
			RETURNING seq`,
			assoc.ID.String(), kind, from, to, assoc.CreatedAt.UnixNano(),
			kind, from,
		)
	} else {
		row = s.db.QueryRowContext(ctx, `
			INSERT INTO associations (id, kind, from_id, to_id, created_at)
			VALUES (?, ?, ?, ?, ?)
			RETURNING seq`,
			assoc.ID.String(), kind, from, to, assoc.CreatedAt.UnixNano(),
		)
	}

	err := row.Scan(&assoc.Seq)
	switch {
	case err == nil:
		return assoc, nil
	case single && errors.Is(err, sql.ErrNoRows):
		return nil, conflict
	case single && isUniqueViolation(err):
		// The partial unique index caught a writer the NOT EXISTS check missed.
		return nil, conflict
	default:
		return nil, storageErr("insert association", err)
	}
}

// ListTouching returns all associations where id is either endpoint,
// newest first.
func (s *AssociationStore) ListTouching(ctx context.Context, id NoteID) ([]Association, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, kind, from_id, to_id, created_at
		FROM associations
		WHERE from_id = ? OR to_id = ?
		ORDER BY created_at DESC, seq DESC`,
		id, id,
	)
	if err != nil {
		return nil, storageErr("list associations", err)
	}
	defer rows.Close()

	var out []Association
	for rows.Next() {
		var (
			a         Association
			rawID     string
			createdAt int64
		)
		if err := rows.Scan(&a.Seq, &rawID, &a.Kind, &a.FromID, &a.ToID, &createdAt); err != nil {
			return nil, storageErr("scan association", err)
		}
		if a.ID, err = uuid.Parse(rawID); err != nil {
			return nil, storageErr("scan association", err)
		}
		a.CreatedAt = time.Unix(0, createdAt).UTC()
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate associations", err)
	}
	return out, nil
}

// Count returns the total number of associations.
func (s *AssociationStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM associations").Scan(&count); err != nil {
		return 0, storageErr("count associations", err)
	}
	return count, nil
}

// isUniqueViolation matches the constraint error text both SQLite drivers
// produce; neither exposes a shared typed error.
func isUniqueViolation(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
