package chain

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dan-solli/notegraph/pkg/store"
)

// crossAuthorKinds may connect notes of different authors and still be
// shown as related.
var crossAuthorKinds = map[string]bool{
	store.KindLink:  true,
	store.KindReply: true,
	store.KindQuote: true,
}

// AllowsCrossAuthor reports whether kind may link notes of different authors.
func AllowsCrossAuthor(kind string) bool {
	return crossAuthorKinds[kind]
}

// RelatedEntry pairs one association with the note at its other end.
type RelatedEntry struct {
	Association store.Association `json:"association"`
	Note        store.Note        `json:"note"`
}

// Related is a note and everything connected to it.
type Related struct {
	Center  store.Note     `json:"center"`
	Related []RelatedEntry `json:"related"`
}

// Chain is a note with the segments before and after it.
// Prev runs oldest to nearest; Next runs nearest to farthest.
type Chain struct {
	Center store.Note   `json:"center"`
	Prev   []store.Note `json:"prev"`
	Next   []store.Note `json:"next"`
}

// Aggregator loads notes together with their neighbourhood.
type Aggregator struct {
	notes  store.NoteReader
	edges  store.AssociationLister
	walker *Walker
}

// NewAggregator creates an aggregator over the given readers.
func NewAggregator(notes store.NoteReader, edges store.AssociationLister) *Aggregator {
	return &Aggregator{
		notes:  notes,
		edges:  edges,
		walker: NewWalker(edges),
	}
}

// FetchRelated loads the note id and every note connected to it by any
// association, newest association first. Associations whose other note
// cannot be loaded are dropped. Notes by other authors are kept only when
// the association kind allows crossing authors.
func (a *Aggregator) FetchRelated(ctx context.Context, id store.NoteID) (*Related, error) {
	center, err := a.notes.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	assocs, err := a.edges.ListTouching(ctx, center.ID)
	if err != nil {
		return nil, err
	}

	seen := make(map[store.NoteID]bool, len(assocs))
	otherIDs := make([]store.NoteID, 0, len(assocs))
	for _, assoc := range assocs {
		other := assoc.Other(center.ID)
		if !seen[other] {
			seen[other] = true
			otherIDs = append(otherIDs, other)
		}
	}

	byID, err := a.loadNotes(ctx, otherIDs)
	if err != nil {
		return nil, err
	}

	related := make([]RelatedEntry, 0, len(assocs))
	for _, assoc := range assocs {
		note, ok := byID[assoc.Other(center.ID)]
		if !ok {
			continue
		}
		if note.AuthorID != center.AuthorID && !AllowsCrossAuthor(assoc.Kind) {
			continue
		}
		related = append(related, RelatedEntry{Association: assoc, Note: note})
	}

	return &Related{Center: *center, Related: related}, nil
}

// FetchChain loads the note id and the chain segments on both sides of it.
// Each side stops at the first segment written by a different author.
func (a *Aggregator) FetchChain(ctx context.Context, id store.NoteID) (*Chain, error) {
	center, err := a.notes.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	var prevIDs, nextIDs []store.NoteID
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		prevIDs, err = a.walker.Walk(gctx, center.ID, Prev)
		return err
	})
	g.Go(func() error {
		var err error
		nextIDs, err = a.walker.Walk(gctx, center.ID, Next)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byID, err := a.loadNotes(ctx, append(append([]store.NoteID{}, prevIDs...), nextIDs...))
	if err != nil {
		return nil, err
	}

	prev := sameAuthorRun(prevIDs, byID, center.AuthorID)
	for i, j := 0, len(prev)-1; i < j; i, j = i+1, j-1 {
		prev[i], prev[j] = prev[j], prev[i]
	}

	return &Chain{
		Center: *center,
		Prev:   prev,
		Next:   sameAuthorRun(nextIDs, byID, center.AuthorID),
	}, nil
}

// sameAuthorRun returns the notes for ids, in order, up to the first one
// that is missing or written by someone other than author.
func sameAuthorRun(ids []store.NoteID, byID map[store.NoteID]store.Note, author uuid.UUID) []store.Note {
	out := make([]store.Note, 0, len(ids))
	for _, id := range ids {
		note, ok := byID[id]
		if !ok || note.AuthorID != author {
			break
		}
		out = append(out, note)
	}
	return out
}

func (a *Aggregator) loadNotes(ctx context.Context, ids []store.NoteID) (map[store.NoteID]store.Note, error) {
	byID := make(map[store.NoteID]store.Note, len(ids))
	if len(ids) == 0 {
		return byID, nil
	}
	notes, err := a.notes.FindMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, note := range notes {
		byID[note.ID] = note
	}
	return byID, nil
}
