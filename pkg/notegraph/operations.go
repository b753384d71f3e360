package notegraph

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dan-solli/notegraph/pkg/chain"
	"github.com/dan-solli/notegraph/pkg/store"
)

// Operation names used in metrics, traces and logs.
const (
	OpCreateAccount    = "create_account"
	OpPostNote         = "post_note"
	OpPostVersion      = "post_version"
	OpAssociate        = "associate"
	OpGetNote          = "get_note"
	OpListNotes        = "list_notes"
	OpListAssociations = "list_associations"
	OpRelated          = "related"
	OpChain            = "chain"
)

// userKinds are the association kinds a user may create directly. "author"
// edges are written only when a chain is created.
var userKinds = map[string]bool{
	store.KindLink:    true,
	store.KindReply:   true,
	store.KindQuote:   true,
	store.KindParent:  true,
	store.KindChild:   true,
	store.KindNext:    true,
	store.KindPrev:    true,
	store.KindVersion: true,
}

// CreateAccount registers a user together with the bootstrap note that
// anchors every chain they write.
func (g *NoteGraph) CreateAccount(ctx context.Context, email string) (user *store.User, err error) {
	o := g.observe(OpCreateAccount, true)
	defer func() { g.finish(ctx, o, err) }()

	user, err = g.builder.CreateAccount(ctx, email)
	if err != nil {
		return nil, err
	}
	o.ids = map[string]any{
		"user_id":      user.ID.String(),
		"account_note": user.AccountNoteID.String(),
	}
	return user, nil
}

// PostNote splits text into segments and writes them as a new chain
// authored by userID.
func (g *NoteGraph) PostNote(ctx context.Context, userID uuid.UUID, text string) (created *chain.Created, err error) {
	o := g.observe(OpPostNote, true)
	o.ids = map[string]any{"user_id": userID.String()}
	defer func() { g.finish(ctx, o, err) }()

	user, err := g.accountOf(ctx, userID)
	if err != nil {
		return nil, err
	}

	created, o.trace, err = g.builder.CreateChain(ctx, g.chunker.Segments(text), user.ID, *user.AccountNoteID)
	if err != nil {
		return nil, err
	}
	o.ids["root"] = created.Root.ID.String()
	o.ids["segments"] = len(created.Segments)
	return created, nil
}

// PostVersion writes text as a new chain that supersedes the chain
// containing target. Only the author of target may version it.
func (g *NoteGraph) PostVersion(ctx context.Context, userID uuid.UUID, target store.NoteID, text string) (created *chain.Created, err error) {
	o := g.observe(OpPostVersion, true)
	o.ids = map[string]any{"user_id": userID.String(), "target": target.String()}
	defer func() { g.finish(ctx, o, err) }()

	user, err := g.accountOf(ctx, userID)
	if err != nil {
		return nil, err
	}

	note, err := g.store.Notes().Find(ctx, target)
	if err != nil {
		return nil, err
	}
	if note.AuthorID != user.ID {
		return nil, fmt.Errorf("%w: note %s belongs to another author", ErrForbidden, target)
	}

	created, o.trace, err = g.builder.CreateVersionChain(ctx, target, g.chunker.Segments(text), user.ID, *user.AccountNoteID)
	if err != nil {
		return nil, err
	}
	o.ids["root"] = created.Root.ID.String()
	o.ids["head"] = created.Head.String()
	o.ids["segments"] = len(created.Segments)
	return created, nil
}

// Associate creates a kind edge from -> to on behalf of userID.
//
// The kind is trimmed and lowercased and must be one of the user kinds.
// from must be owned by the user and may not be their account note; a
// version edge may not point at it either. Kinds other than link, reply and
// quote may only join notes of the same author.
func (g *NoteGraph) Associate(ctx context.Context, userID uuid.UUID, kind string, from, to store.NoteID) (assoc *store.Association, err error) {
	o := g.observe(OpAssociate, true)
	o.ids = map[string]any{"user_id": userID.String(), "from": from.String(), "to": to.String()}
	defer func() { g.finish(ctx, o, err) }()

	kind, err = NormalizeKind(kind)
	if err != nil {
		return nil, err
	}
	o.ids["kind"] = kind
	if from == to {
		return nil, fmt.Errorf("%w: a note cannot be associated with itself", store.ErrInvalidInput)
	}

	user, err := g.accountOf(ctx, userID)
	if err != nil {
		return nil, err
	}

	fromNote, err := g.store.Notes().Find(ctx, from)
	if err != nil {
		return nil, err
	}
	toNote, err := g.store.Notes().Find(ctx, to)
	if err != nil {
		return nil, err
	}

	if fromNote.AuthorID != user.ID {
		return nil, fmt.Errorf("%w: note %s belongs to another author", ErrForbidden, from)
	}
	if from == *user.AccountNoteID {
		return nil, chain.ErrAccountNoteLocked
	}
	if kind == store.KindVersion && to == *user.AccountNoteID {
		return nil, chain.ErrAccountNoteLocked
	}
	if fromNote.AuthorID != toNote.AuthorID && !chain.AllowsCrossAuthor(kind) {
		return nil, fmt.Errorf("%w: %q cannot join notes of different authors", store.ErrInvalidInput, kind)
	}

	assoc, err = g.store.Associations().Create(ctx, kind, from, to)
	if err != nil {
		return nil, err
	}
	o.ids["association"] = assoc.ID.String()
	return assoc, nil
}

// NormalizeKind trims and lowercases kind and checks it is a single known
// token a user may create.
func NormalizeKind(kind string) (string, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind == "" || strings.ContainsFunc(kind, isSpace) {
		return "", fmt.Errorf("%w: association kind must be a single word", store.ErrInvalidInput)
	}
	if !userKinds[kind] {
		return "", fmt.Errorf("%w: unknown association kind %q", store.ErrInvalidInput, kind)
	}
	return kind, nil
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// GetNote returns a single note.
func (g *NoteGraph) GetNote(ctx context.Context, id store.NoteID) (note *store.Note, err error) {
	o := g.observe(OpGetNote, false)
	defer func() { g.finish(ctx, o, err) }()

	return g.store.Notes().Find(ctx, id)
}

// ListNotes returns notes matching filter, newest first.
func (g *NoteGraph) ListNotes(ctx context.Context, filter store.NoteFilter) (notes []store.Note, err error) {
	o := g.observe(OpListNotes, false)
	defer func() { g.finish(ctx, o, err) }()

	return g.store.Notes().List(ctx, filter)
}

// ListAssociations returns every association touching id, newest first.
func (g *NoteGraph) ListAssociations(ctx context.Context, id store.NoteID) (assocs []store.Association, err error) {
	o := g.observe(OpListAssociations, false)
	defer func() { g.finish(ctx, o, err) }()

	if _, err = g.store.Notes().Find(ctx, id); err != nil {
		return nil, err
	}
	return g.store.Associations().ListTouching(ctx, id)
}

// Related returns id and the notes connected to it that are visible from it.
func (g *NoteGraph) Related(ctx context.Context, id store.NoteID) (related *chain.Related, err error) {
	o := g.observe(OpRelated, false)
	defer func() { g.finish(ctx, o, err) }()

	return g.related.FetchRelated(ctx, id)
}

// Chain returns id with the segments before and after it by the same author.
func (g *NoteGraph) Chain(ctx context.Context, id store.NoteID) (c *chain.Chain, err error) {
	o := g.observe(OpChain, false)
	defer func() { g.finish(ctx, o, err) }()

	return g.related.FetchChain(ctx, id)
}

// accountOf loads a user that has a bootstrap note.
func (g *NoteGraph) accountOf(ctx context.Context, userID uuid.UUID) (*store.User, error) {
	user, err := g.store.Accounts().Find(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.AccountNoteID == nil {
		return nil, fmt.Errorf("%w: user %s has no account note", store.ErrInvalidInput, userID)
	}
	return user, nil
}
