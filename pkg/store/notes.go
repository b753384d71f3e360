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

// findManyBatch bounds the number of ids bound into one IN list.
const findManyBatch = 500

// NoteStore creates and reads note rows. Notes are never updated or deleted.
type NoteStore struct {
	db  DBTX
	now func() time.Time
}

// NewNoteStore binds a note store to db, which may be a *sql.DB or *sql.Tx.
func NewNoteStore(db DBTX) *NoteStore {
	return &NoteStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Create inserts a note. CreatedAt is set by the store when zero.
func (s *NoteStore) Create(ctx context.Context, note *Note) error {
	if note.ID.IsZero() {
		return fmt.Errorf("%w: note id required", ErrInvalidInput)
	}
	if len(note.Value) > MaxNoteValueBytes {
		return fmt.Errorf("%w: note value exceeds %d bytes", ErrInvalidInput, MaxNoteValueBytes)
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = s.now()
	}
	if note.Value == nil {
		note.Value = []byte{}
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO notes (id, value, created_at, author_id) VALUES (?, ?, ?, ?)",
		note.ID,
		note.Value,
		note.CreatedAt.UnixNano(),
		note.AuthorID.String(),
	)
	if err != nil {
		return storageErr("insert note", err)
	}
	return nil
}

// Find retrieves a note by id. Returns ErrNotFound if it does not exist.
func (s *NoteStore) Find(ctx context.Context, id NoteID) (*Note, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, value, created_at, author_id FROM notes WHERE id = ?", id)

	note, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("note %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, storageErr("get note", err)
	}
	return note, nil
}

// FindMany loads every note in ids that exists. Missing ids are skipped and
// the result order is unspecified.
func (s *NoteStore) FindMany(ctx context.Context, ids []NoteID) ([]Note, error) {
	notes := make([]Note, 0, len(ids))
	for start := 0; start < len(ids); start += findManyBatch {
		end := min(start+findManyBatch, len(ids))
		batch := ids[start:end]

		placeholders := make([]string, len(batch))
		args := make([]any, len(batch))
		for i, id := range batch {
			placeholders[i] = "?"
			args[i] = id
		}

		query := fmt.Sprintf("SELECT id, value, created_at, author_id FROM notes WHERE id IN (%s)",
			strings.Join(placeholders, ","))

		found, err := s.queryNotes(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		notes = append(notes, found...)
	}
	return notes, nil
}

// List returns notes matching filter, newest first.
func (s *NoteStore) List(ctx context.Context, filter NoteFilter) ([]Note, error) {
	query := "SELECT n.id, n.value, n.created_at, n.author_id FROM notes n WHERE 1=1"
	return s.listFiltered(ctx, query, nil, filter)
}

// Feed returns notes written by the users follower follows, newest first,
// narrowed by filter. Account bootstrap notes are never part of a feed.
func (s *NoteStore) Feed(ctx context.Context, follower uuid.UUID, filter NoteFilter) ([]Note, error) {
	query := `SELECT n.id, n.value, n.created_at, n.author_id
		FROM notes n
		JOIN follows f ON f.followee_id = n.author_id
		WHERE f.follower_id = ?` + notAccountNote
	return s.listFiltered(ctx, query, []any{follower.String()}, filter)
}

// Random returns up to limit notes sampled uniformly, excluding account
// bootstrap notes.
func (s *NoteStore) Random(ctx context.Context, limit int) ([]Note, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", ErrInvalidInput)
	}
	query := "SELECT n.id, n.value, n.created_at, n.author_id FROM notes n WHERE 1=1" +
		notAccountNote + " ORDER BY RANDOM() LIMIT ?"
	return s.queryNotes(ctx, query, limit)
}

const notAccountNote = `
		AND n.id NOT IN (SELECT account_note_id FROM users WHERE account_note_id IS NOT NULL)`

// listFiltered appends the filter conditions, ordering and limit to query,
// which must select from notes aliased as n and end in a WHERE clause.
func (s *NoteStore) listFiltered(ctx context.Context, query string, args []any, filter NoteFilter) ([]Note, error) {
	if filter.Author != nil {
		query += " AND n.author_id = ?"
		args = append(args, filter.Author.String())
	}
	if filter.From != nil {
		query += " AND n.created_at >= ?"
		args = append(args, filter.From.UnixNano())
	}
	if filter.To != nil {
		query += " AND n.created_at <= ?"
		args = append(args, filter.To.UnixNano())
	}
	query += " ORDER BY n.created_at DESC, n.rowid DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	return s.queryNotes(ctx, query, args...)
}

// Count returns the total number of notes.
func (s *NoteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM notes").Scan(&count); err != nil {
		return 0, storageErr("count notes", err)
	}
	return count, nil
}

func (s *NoteStore) queryNotes(ctx context.Context, query string, args ...any) ([]Note, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("query notes", err)
	}
	defer rows.Close()

	var notes []Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, storageErr("scan note", err)
		}
		notes = append(notes, *note)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate notes", err)
	}
	return notes, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*Note, error) {
	var (
		note      Note
		createdAt int64
		author    string
	)
	if err := row.Scan(&note.ID, &note.Value, &createdAt, &author); err != nil {
		return nil, err
	}
	authorID, err := uuid.Parse(author)
	if err != nil {
		return nil, fmt.Errorf("invalid author id %q: %w", author, err)
	}
	note.AuthorID = authorID
	note.CreatedAt = time.Unix(0, createdAt).UTC()
	return &note, nil
}
