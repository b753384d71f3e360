// Package chain reconstructs segment chains, aggregates related notes and
// builds new chains and versions transactionally.
package chain

import (
	"context"

	"github.com/dan-solli/notegraph/pkg/store"
)

// Direction selects which side of a note a walk explores.
type Direction int

const (
	// Prev walks toward the head of the chain.
	Prev Direction = iota
	// Next walks toward the tail of the chain.
	Next
)

func (d Direction) String() string {
	if d == Prev {
		return "prev"
	}
	return "next"
}

// Walker follows next/prev associations one hop at a time.
type Walker struct {
	edges store.AssociationLister
}

// NewWalker creates a walker reading edges from edges.
func NewWalker(edges store.AssociationLister) *Walker {
	return &Walker{edges: edges}
}

// Walk returns the ids reached from start in direction dir, nearest first.
// The walk ends at a note without a matching edge or when it would revisit
// an id, so malformed (cyclic) chains terminate. The result never contains
// start or duplicates.
func (w *Walker) Walk(ctx context.Context, start store.NoteID, dir Direction) ([]store.NoteID, error) {
	var chain []store.NoteID
	seen := map[store.NoteID]bool{start: true}
	current := start

	for {
		edges, err := w.edges.ListTouching(ctx, current)
		if err != nil {
			return nil, err
		}

		next, ok := SelectNeighbor(edges, current, dir)
		if !ok || seen[next] {
			break
		}

		seen[next] = true
		chain = append(chain, next)
		current = next
	}

	return chain, nil
}

// SelectNeighbor picks the neighbor of current in direction dir from edges.
// When several edges qualify the oldest-created one wins, independent of
// the order of edges.
func SelectNeighbor(edges []store.Association, current store.NoteID, dir Direction) (store.NoteID, bool) {
	var (
		best  store.Association
		found bool
	)
	for _, e := range edges {
		if _, ok := neighbor(e, current, dir); !ok {
			continue
		}
		if !found || e.Before(best) {
			best = e
			found = true
		}
	}
	if !found {
		return store.NoteID{}, false
	}
	return neighbor(best, current, dir)
}

// neighbor resolves the id e points to from current in direction dir.
//
// Prev: prev edges leaving current, or next edges arriving at current.
// Next: next edges leaving current, or prev edges arriving at current.
func neighbor(e store.Association, current store.NoteID, dir Direction) (store.NoteID, bool) {
	forward, backward := store.KindNext, store.KindPrev
	if dir == Prev {
		forward, backward = store.KindPrev, store.KindNext
	}

	switch {
	case e.Kind == forward && e.FromID == current:
		return e.ToID, true
	case e.Kind == backward && e.ToID == current:
		return e.FromID, true
	default:
		return store.NoteID{}, false
	}
}
