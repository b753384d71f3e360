package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssociationCreate(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	user := createUser(t, s, "ada@example.com")
	a := createNote(t, s, user.ID, "a")
	b := createNote(t, s, user.ID, "b")

	assoc, err := s.Associations().Create(ctx, KindReply, a, b)
	require.NoError(t, err)
	assert.Equal(t, KindReply, assoc.Kind)
	assert.Equal(t, a, assoc.FromID)
	assert.Equal(t, b, assoc.ToID)
	assert.NotZero(t, assoc.Seq)
	assert.False(t, assoc.CreatedAt.IsZero())

	listed, err := s.Associations().ListTouching(ctx, a)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, *assoc, listed[0])
}

func TestAssociationCreateUnknownKind(t *testing.T) {
	s := setupTestStore(t)
	user := createUser(t, s, "ada@example.com")
	a := createNote(t, s, user.ID, "a")
	b := createNote(t, s, user.ID, "b")

	_, err := s.Associations().Create(context.Background(), "likes", a, b)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAssociationCreateMissingNote(t *testing.T) {
	s := setupTestStore(t)
	user := createUser(t, s, "ada@example.com")
	a := createNote(t, s, user.ID, "a")
	missing, _ := NewNoteID()

	_, err := s.Associations().Create(context.Background(), KindLink, a, missing)
	assert.ErrorIs(t, err, ErrStorage, "referential integrity is owned by the schema")
}

func TestAssociationVersionConflict(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	user := createUser(t, s, "ada@example.com")
	a := createNote(t, s, user.ID, "a")
	b := createNote(t, s, user.ID, "b")
	c := createNote(t, s, user.ID, "c")

	_, err := s.Associations().Create(ctx, KindVersion, a, b)
	require.NoError(t, err)

	_, err = s.Associations().Create(ctx, KindVersion, a, c)
	assert.ErrorIs(t, err, ErrVersionConflict)

	edges, err := s.Associations().ListTouching(ctx, c)
	require.NoError(t, err)
	assert.Empty(t, edges, "no A->C edge may exist")

	// A different source may still be versioned.
	_, err = s.Associations().Create(ctx, KindVersion, b, c)
	assert.NoError(t, err)
}

func TestAssociationNextConflict(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	user := createUser(t, s, "ada@example.com")
	a := createNote(t, s, user.ID, "a")
	b := createNote(t, s, user.ID, "b")
	c := createNote(t, s, user.ID, "c")

	_, err := s.Associations().Create(ctx, KindNext, a, b)
	require.NoError(t, err)

	_, err = s.Associations().Create(ctx, KindNext, a, c)
	assert.ErrorIs(t, err, ErrNextConflict)

	// prev edges are not constrained.
	_, err = s.Associations().Create(ctx, KindPrev, a, c)
	assert.NoError(t, err)
	_, err = s.Associations().Create(ctx, KindPrev, a, b)
	assert.NoError(t, err)
}

func TestAssociationDuplicatesAllowed(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	user := createUser(t, s, "ada@example.com")
	a := createNote(t, s, user.ID, "a")
	b := createNote(t, s, user.ID, "b")

	first, err := s.Associations().Create(ctx, KindLink, a, b)
	require.NoError(t, err)
	second, err := s.Associations().Create(ctx, KindLink, a, b)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Greater(t, second.Seq, first.Seq)

	count, err := s.AssociationCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestListTouchingExact(t *testing.T) {
	s := setupTestStore(t)
	s.SetClock(steppingClock())
	ctx := context.Background()
	user := createUser(t, s, "ada@example.com")
	a := createNote(t, s, user.ID, "a")
	b := createNote(t, s, user.ID, "b")
	c := createNote(t, s, user.ID, "c")
	d := createNote(t, s, user.ID, "d")

	ab, err := s.Associations().Create(ctx, KindNext, a, b)
	require.NoError(t, err)
	ca, err := s.Associations().Create(ctx, KindReply, c, a)
	require.NoError(t, err)
	_, err = s.Associations().Create(ctx, KindLink, c, d)
	require.NoError(t, err)

	edges, err := s.Associations().ListTouching(ctx, a)
	require.NoError(t, err)
	require.Len(t, edges, 2)
	assert.Equal(t, ca.ID, edges[0].ID, "newest first")
	assert.Equal(t, ab.ID, edges[1].ID)

	for _, e := range edges {
		assert.True(t, e.FromID == a || e.ToID == a)
	}

	edges, err = s.Associations().ListTouching(ctx, d)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, c, edges[0].Other(d))
}

func TestListTouchingSameInstantUsesSeq(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	user := createUser(t, s, "ada@example.com")
	a := createNote(t, s, user.ID, "a")
	b := createNote(t, s, user.ID, "b")

	frozen := steppingClock()()
	s.SetClock(func() time.Time { return frozen })

	first, err := s.Associations().Create(ctx, KindLink, a, b)
	require.NoError(t, err)
	second, err := s.Associations().Create(ctx, KindQuote, a, b)
	require.NoError(t, err)

	edges, err := s.Associations().ListTouching(ctx, a)
	require.NoError(t, err)
	require.Len(t, edges, 2)
	assert.Equal(t, second.ID, edges[0].ID)
	assert.Equal(t, first.ID, edges[1].ID)
	assert.True(t, first.Before(*second))
}
