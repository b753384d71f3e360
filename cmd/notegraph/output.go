package main

import (
	"encoding/json"
	"io"
	"time"
	"unicode/utf8"

	"github.com/dan-solli/notegraph/pkg/chain"
	"github.com/dan-solli/notegraph/pkg/store"
)

// noteView renders note values as text when they are valid UTF-8.
type noteView struct {
	ID        store.NoteID `json:"id"`
	Value     string       `json:"value,omitempty"`
	RawValue  []byte       `json:"raw_value,omitempty"`
	AuthorID  string       `json:"author_id"`
	CreatedAt time.Time    `json:"created_at"`
}

func viewNote(n store.Note) noteView {
	v := noteView{ID: n.ID, AuthorID: n.AuthorID.String(), CreatedAt: n.CreatedAt}
	if utf8.Valid(n.Value) {
		v.Value = string(n.Value)
	} else {
		v.RawValue = n.Value
	}
	return v
}

func viewNotes(notes []store.Note) []noteView {
	out := make([]noteView, len(notes))
	for i, n := range notes {
		out[i] = viewNote(n)
	}
	return out
}

type createdView struct {
	Root     noteView       `json:"root"`
	Segments []store.NoteID `json:"segments"`
	Head     *store.NoteID  `json:"head,omitempty"`
}

func viewCreated(c *chain.Created) createdView {
	return createdView{Root: viewNote(c.Root), Segments: c.Segments, Head: c.Head}
}

type relatedEntryView struct {
	Association store.Association `json:"association"`
	Note        noteView          `json:"note"`
}

type relatedView struct {
	Center  noteView           `json:"center"`
	Related []relatedEntryView `json:"related"`
}

func viewRelated(r *chain.Related) relatedView {
	out := relatedView{Center: viewNote(r.Center), Related: make([]relatedEntryView, len(r.Related))}
	for i, e := range r.Related {
		out.Related[i] = relatedEntryView{Association: e.Association, Note: viewNote(e.Note)}
	}
	return out
}

type chainView struct {
	Center noteView   `json:"center"`
	Prev   []noteView `json:"prev"`
	Next   []noteView `json:"next"`
}

func viewChain(c *chain.Chain) chainView {
	return chainView{Center: viewNote(c.Center), Prev: viewNotes(c.Prev), Next: viewNotes(c.Next)}
}

func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
