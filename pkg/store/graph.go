// Package store provides SQLite-backed storage for notes and the typed
// associations that link them.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Association kinds understood by the store.
const (
	KindNext    = "next"
	KindPrev    = "prev"
	KindVersion = "version"
	KindReply   = "reply"
	KindQuote   = "quote"
	KindLink    = "link"
	KindParent  = "parent"
	KindChild   = "child"
	KindAuthor  = "author"
)

// MaxNoteValueBytes is the largest value a single note may hold.
const MaxNoteValueBytes = 1024

var validKinds = map[string]bool{
	KindNext:    true,
	KindPrev:    true,
	KindVersion: true,
	KindReply:   true,
	KindQuote:   true,
	KindLink:    true,
	KindParent:  true,
	KindChild:   true,
	KindAuthor:  true,
}

// IsValidKind reports whether kind is an association kind the store accepts.
func IsValidKind(kind string) bool {
	return validKinds[kind]
}

// Note is an immutable content unit.
type Note struct {
	ID        NoteID    `json:"id"`
	Value     []byte    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	AuthorID  uuid.UUID `json:"author_id"`
}

// Association is a typed directed edge between two notes.
// Seq is the insertion sequence assigned by the store; it breaks ties
// between associations created within the same clock tick.
type Association struct {
	ID        uuid.UUID `json:"id"`
	Seq       int64     `json:"-"`
	Kind      string    `json:"kind"`
	FromID    NoteID    `json:"from_id"`
	ToID      NoteID    `json:"to_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Other returns the endpoint of a that is not id.
func (a Association) Other(id NoteID) NoteID {
	if a.FromID == id {
		return a.ToID
	}
	return a.FromID
}

// Before reports whether a was created before b.
func (a Association) Before(b Association) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.Seq < b.Seq
}

// User is an account that authors notes. AccountNoteID is the bootstrap
// note created with the account; it is nil only while the account is being
// created.
type User struct {
	ID            uuid.UUID `json:"user_id"`
	Email         string    `json:"email"`
	AccountNoteID *NoteID   `json:"account_note_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// NoteFilter narrows List. Zero values mean "no constraint".
type NoteFilter struct {
	Author *uuid.UUID
	From   *time.Time
	To     *time.Time
	Limit  int
}

// NoteReader reads notes.
type NoteReader interface {
	// Find returns the note or ErrNotFound.
	Find(ctx context.Context, id NoteID) (*Note, error)

	// FindMany returns the notes that exist among ids, in no particular order.
	FindMany(ctx context.Context, ids []NoteID) ([]Note, error)
}

// AssociationLister lists edges touching a note.
type AssociationLister interface {
	// ListTouching returns every association where id is either endpoint,
	// newest first.
	ListTouching(ctx context.Context, id NoteID) ([]Association, error)
}

// ErrNotFound indicates that a referenced note or user does not exist.
var ErrNotFound = errors.New("not found")

// ErrVersionConflict indicates that a version association already exists
// for the source note.
var ErrVersionConflict = errors.New("version association already exists")

// ErrNextConflict indicates that the source note already has a successor.
var ErrNextConflict = errors.New("next association already exists")

// ErrInvalidInput indicates a request rejected before any write.
var ErrInvalidInput = errors.New("invalid input")

// ErrStorage matches every *StorageError.
var ErrStorage = errors.New("storage failure")

// StorageError wraps a failure reported by the database.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrStorage) true for any StorageError.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
