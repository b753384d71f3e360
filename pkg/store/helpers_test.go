package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err, "failed to create test store")
	t.Cleanup(func() { s.Close() })
	return s
}

// steppingClock returns a clock that advances one millisecond per call so
// created_at ordering is deterministic.
func steppingClock() func() time.Time {
	t := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Millisecond)
		return t
	}
}

func createUser(t *testing.T, s *SQLiteStore, email string) *User {
	t.Helper()
	u, err := s.Accounts().Create(context.Background(), email)
	require.NoError(t, err)
	return u
}

func createNote(t *testing.T, s *SQLiteStore, author uuid.UUID, value string) NoteID {
	t.Helper()
	id, err := NewNoteID()
	require.NoError(t, err)
	require.NoError(t, s.Notes().Create(context.Background(), &Note{ID: id, Value: []byte(value), AuthorID: author}))
	return id
}
