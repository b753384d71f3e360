package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dan-solli/notegraph/pkg/store"
	"github.com/dan-solli/notegraph/pkg/trace"
)

// ErrAccountNoteLocked is returned when a version is requested for an
// account bootstrap note.
var ErrAccountNoteLocked = fmt.Errorf("%w: account note locked", store.ErrInvalidInput)

// TxRunner runs a function inside one store transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *store.Tx) error) error
}

// Created describes a newly written chain.
type Created struct {
	Root     store.Note     `json:"root"`
	Segments []store.NoteID `json:"segments"`
	Head     *store.NoteID  `json:"head,omitempty"` // set for versions
}

// Builder writes chains and versions, each in exactly one transaction.
type Builder struct {
	db    TxRunner
	newID func() (store.NoteID, error)
}

// NewBuilder creates a builder over db using random note ids.
func NewBuilder(db TxRunner) *Builder {
	return &Builder{db: db, newID: store.NewNoteID}
}

// WithIDSource replaces the note id generator.
func (b *Builder) WithIDSource(newID func() (store.NoteID, error)) *Builder {
	b.newID = newID
	return b
}

// CreateChain writes one note per segment. The first segment is anchored to
// the account by an "author" association from accountNoteID; every later
// segment is linked from its predecessor by a "next" association. Either
// every note and edge is committed or none is.
//
// The returned trace holds the stages that ran, including the failed one
// when err is non-nil.
func (b *Builder) CreateChain(ctx context.Context, segments [][]byte, author uuid.UUID, accountNoteID store.NoteID) (*Created, *trace.OperationTrace, error) {
	tr := trace.New()
	if err := validateSegments(segments); err != nil {
		return nil, tr, err
	}

	var (
		created     *Created
		commitStart time.Time
	)
	err := b.db.WithTx(ctx, func(tx *store.Tx) error {
		var err error
		created, err = b.createSegments(ctx, tx, tr, segments, author, accountNoteID)
		commitStart = time.Now()
		return err
	})
	if err != nil {
		return nil, tr, err
	}
	recordCommit(tr, commitStart)

	return created, tr, nil
}

// CreateVersionChain writes a new chain and marks it as the version of the
// head of target's chain.
//
// Stages run in one transaction: resolve the head by walking prev edges
// from target, refuse account bootstrap heads, write the segments, then
// link head -> root with a "version" association. A head that already has a
// version yields store.ErrVersionConflict and nothing is committed.
func (b *Builder) CreateVersionChain(ctx context.Context, target store.NoteID, segments [][]byte, author uuid.UUID, accountNoteID store.NoteID) (*Created, *trace.OperationTrace, error) {
	tr := trace.New()
	if err := validateSegments(segments); err != nil {
		return nil, tr, err
	}

	var (
		created     *Created
		head        store.NoteID
		commitStart time.Time
	)
	err := b.db.WithTx(ctx, func(tx *store.Tx) error {
		timer := tr.Start(trace.StageResolveHead)
		h, hops, err := resolveHead(ctx, tx, target)
		timer.Finish(err, map[string]int64{"hops": int64(hops)})
		if err != nil {
			return err
		}
		head = h

		timer = tr.Start(trace.StageCheckLock)
		err = checkLock(ctx, tx, head, accountNoteID)
		timer.Finish(err, nil)
		if err != nil {
			return err
		}

		created, err = b.createSegments(ctx, tx, tr, segments, author, accountNoteID)
		if err != nil {
			return err
		}

		timer = tr.Start(trace.StageLinkVersion)
		_, err = tx.Associations.Create(ctx, store.KindVersion, head, created.Root.ID)
		timer.Finish(err, nil)
		if err != nil {
			return err
		}

		commitStart = time.Now()
		return nil
	})
	if err != nil {
		return nil, tr, err
	}
	recordCommit(tr, commitStart)

	created.Head = &head
	return created, tr, nil
}

// CreateAccount registers a user and writes the account bootstrap note in
// one transaction.
func (b *Builder) CreateAccount(ctx context.Context, email string) (*store.User, error) {
	var user *store.User
	err := b.db.WithTx(ctx, func(tx *store.Tx) error {
		u, err := tx.Accounts.Create(ctx, email)
		if err != nil {
			return err
		}

		id, err := b.newID()
		if err != nil {
			return err
		}
		note := &store.Note{ID: id, Value: []byte(u.Email), AuthorID: u.ID}
		if err := tx.Notes.Create(ctx, note); err != nil {
			return err
		}
		if err := tx.Accounts.SetAccountNote(ctx, u.ID, id); err != nil {
			return err
		}

		u.AccountNoteID = &id
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (b *Builder) createSegments(ctx context.Context, tx *store.Tx, tr *trace.OperationTrace, segments [][]byte, author uuid.UUID, accountNoteID store.NoteID) (*Created, error) {
	timer := tr.Start(trace.StageCreateSegments)
	created, err := b.writeSegments(ctx, tx, segments, author, accountNoteID)
	timer.Finish(err, map[string]int64{"segments": int64(len(segments))})
	return created, err
}

func (b *Builder) writeSegments(ctx context.Context, tx *store.Tx, segments [][]byte, author uuid.UUID, accountNoteID store.NoteID) (*Created, error) {
	created := &Created{Segments: make([]store.NoteID, 0, len(segments))}

	for i, segment := range segments {
		id, err := b.newID()
		if err != nil {
			return nil, err
		}
		note := &store.Note{ID: id, Value: segment, AuthorID: author}
		if err := tx.Notes.Create(ctx, note); err != nil {
			return nil, err
		}

		if i == 0 {
			if _, err := tx.Associations.Create(ctx, store.KindAuthor, accountNoteID, id); err != nil {
				return nil, err
			}
			created.Root = *note
		} else {
			prev := created.Segments[i-1]
			if _, err := tx.Associations.Create(ctx, store.KindNext, prev, id); err != nil {
				return nil, err
			}
		}
		created.Segments = append(created.Segments, id)
	}

	return created, nil
}

// resolveHead walks prev edges from target to the first segment of its
// chain. It returns the head and the number of hops taken.
func resolveHead(ctx context.Context, tx *store.Tx, target store.NoteID) (store.NoteID, int, error) {
	if _, err := tx.Notes.Find(ctx, target); err != nil {
		return store.NoteID{}, 0, err
	}
	prev, err := NewWalker(tx.Associations).Walk(ctx, target, Prev)
	if err != nil {
		return store.NoteID{}, 0, err
	}
	if len(prev) == 0 {
		return target, 0, nil
	}
	return prev[len(prev)-1], len(prev), nil
}

func checkLock(ctx context.Context, tx *store.Tx, head, accountNoteID store.NoteID) error {
	if head == accountNoteID {
		return ErrAccountNoteLocked
	}
	locked, err := tx.Accounts.IsAccountNote(ctx, head)
	if err != nil {
		return err
	}
	if locked {
		return ErrAccountNoteLocked
	}
	return nil
}

func validateSegments(segments [][]byte) error {
	if len(segments) == 0 {
		return fmt.Errorf("%w: at least one segment required", store.ErrInvalidInput)
	}
	for i, segment := range segments {
		if len(segment) > store.MaxNoteValueBytes {
			return fmt.Errorf("%w: segment %d exceeds %d bytes", store.ErrInvalidInput, i, store.MaxNoteValueBytes)
		}
	}
	return nil
}

func recordCommit(tr *trace.OperationTrace, start time.Time) {
	tr.StartAt(trace.StageCommit, start).Finish(nil, nil)
}
