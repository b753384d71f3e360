package chain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dan-solli/notegraph/pkg/store"
)

type fixture struct {
	db      *store.SQLiteStore
	builder *Builder
	agg     *Aggregator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &fixture{
		db:      db,
		builder: NewBuilder(db),
		agg:     NewAggregator(db.Notes(), db.Associations()),
	}
}

func (f *fixture) account(t *testing.T, email string) *store.User {
	t.Helper()
	user, err := f.builder.CreateAccount(context.Background(), email)
	require.NoError(t, err)
	return user
}

func (f *fixture) post(t *testing.T, user *store.User, segments ...string) *Created {
	t.Helper()
	values := make([][]byte, len(segments))
	for i, s := range segments {
		values[i] = []byte(s)
	}
	created, _, err := f.builder.CreateChain(context.Background(), values, user.ID, *user.AccountNoteID)
	require.NoError(t, err)
	return created
}

func (f *fixture) link(t *testing.T, kind string, from, to store.NoteID) *store.Association {
	t.Helper()
	assoc, err := f.db.Associations().Create(context.Background(), kind, from, to)
	require.NoError(t, err)
	return assoc
}

func TestFetchRelated_DuplicateEdgesAppearTwice(t *testing.T) {
	f := newFixture(t)
	ada := f.account(t, "ada@example.com")
	a := f.post(t, ada, "a").Root.ID
	b := f.post(t, ada, "b").Root.ID

	first := f.link(t, store.KindLink, a, b)
	second := f.link(t, store.KindLink, a, b)

	related, err := f.agg.FetchRelated(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, a, related.Center.ID)

	var linkIDs []string
	for _, r := range related.Related {
		if r.Association.Kind == store.KindLink {
			assert.Equal(t, b, r.Note.ID)
			linkIDs = append(linkIDs, r.Association.ID.String())
		}
	}
	assert.ElementsMatch(t, []string{first.ID.String(), second.ID.String()}, linkIDs)
}

func TestFetchRelated_CrossAuthorFilter(t *testing.T) {
	f := newFixture(t)
	ada := f.account(t, "ada@example.com")
	bob := f.account(t, "bob@example.com")
	a := f.post(t, ada, "a").Root.ID
	b := f.post(t, bob, "b").Root.ID

	f.link(t, store.KindParent, b, a)
	f.link(t, store.KindReply, b, a)
	f.link(t, store.KindQuote, a, b)

	related, err := f.agg.FetchRelated(context.Background(), a)
	require.NoError(t, err)

	kinds := map[string]int{}
	for _, r := range related.Related {
		kinds[r.Association.Kind]++
	}
	assert.Equal(t, map[string]int{store.KindReply: 1, store.KindQuote: 1, store.KindAuthor: 1}, kinds)
}

func TestFetchRelated_NewestFirst(t *testing.T) {
	f := newFixture(t)
	ada := f.account(t, "ada@example.com")
	a := f.post(t, ada, "a").Root.ID
	b := f.post(t, ada, "b").Root.ID
	c := f.post(t, ada, "c").Root.ID

	f.link(t, store.KindLink, a, b)
	f.link(t, store.KindChild, c, a)

	related, err := f.agg.FetchRelated(context.Background(), a)
	require.NoError(t, err)
	require.Len(t, related.Related, 3)
	assert.Equal(t, c, related.Related[0].Note.ID)
	assert.Equal(t, b, related.Related[1].Note.ID)
	assert.Equal(t, *ada.AccountNoteID, related.Related[2].Note.ID)
}

func TestFetchRelated_MissingCenter(t *testing.T) {
	f := newFixture(t)
	id, _ := store.NewNoteID()

	_, err := f.agg.FetchRelated(context.Background(), id)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestFetchChain_Isolated(t *testing.T) {
	f := newFixture(t)
	ada := f.account(t, "ada@example.com")
	a := f.post(t, ada, "alone").Root

	c, err := f.agg.FetchChain(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, c.Center.ID)
	assert.Empty(t, c.Prev)
	assert.Empty(t, c.Next)
}

func TestFetchChain_Orders(t *testing.T) {
	f := newFixture(t)
	ada := f.account(t, "ada@example.com")
	created := f.post(t, ada, "s1", "s2", "s3", "s4")
	s := created.Segments

	c, err := f.agg.FetchChain(context.Background(), s[2])
	require.NoError(t, err)

	var prev, next []store.NoteID
	for _, n := range c.Prev {
		prev = append(prev, n.ID)
	}
	for _, n := range c.Next {
		next = append(next, n.ID)
	}
	assert.Equal(t, []store.NoteID{s[0], s[1]}, prev, "oldest first")
	assert.Equal(t, []store.NoteID{s[3]}, next)
}

func TestFetchChain_StopsAtAuthorBoundary(t *testing.T) {
	f := newFixture(t)
	ada := f.account(t, "ada@example.com")
	bob := f.account(t, "bob@example.com")
	adaChain := f.post(t, ada, "a1", "a2")
	bobNote := f.post(t, bob, "b1").Root.ID
	tail := f.post(t, ada, "a3").Root.ID

	// a2 -> b1 -> a3: the walk crosses into bob's note, the chain does not.
	f.link(t, store.KindNext, adaChain.Segments[1], bobNote)
	f.link(t, store.KindNext, bobNote, tail)

	c, err := f.agg.FetchChain(context.Background(), adaChain.Segments[0])
	require.NoError(t, err)
	require.Len(t, c.Next, 1)
	assert.Equal(t, adaChain.Segments[1], c.Next[0].ID)

	c, err = f.agg.FetchChain(context.Background(), tail)
	require.NoError(t, err)
	assert.Empty(t, c.Prev)
}
