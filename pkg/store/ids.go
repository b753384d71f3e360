package store

import (
	"crypto/rand"
	"database/sql/driver"
	"encoding/base32"
	"fmt"
	"strings"
)

// NoteIDSize is the byte length of a note identifier.
const NoteIDSize = 32

// NoteIDTextLen is the length of the text form of a NoteID.
const NoteIDTextLen = 52

var idEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NoteID is an opaque 32-byte note identifier. Its text form is lowercase
// unpadded base32.
type NoteID [NoteIDSize]byte

// NewNoteID returns a fresh random identifier.
func NewNoteID() (NoteID, error) {
	var id NoteID
	if _, err := rand.Read(id[:]); err != nil {
		return NoteID{}, fmt.Errorf("failed to generate note id: %w", err)
	}
	return id, nil
}

// ParseNoteID decodes the text form produced by NoteID.String.
func ParseNoteID(s string) (NoteID, error) {
	var id NoteID
	if len(s) != NoteIDTextLen {
		return id, fmt.Errorf("%w: note id must be %d characters", ErrInvalidInput, NoteIDTextLen)
	}
	for _, c := range s {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '2' && c <= '7') {
			return id, fmt.Errorf("%w: note id contains %q", ErrInvalidInput, c)
		}
	}
	b, err := idEncoding.DecodeString(strings.ToUpper(s))
	if err != nil || len(b) != NoteIDSize {
		return id, fmt.Errorf("%w: malformed note id", ErrInvalidInput)
	}
	// The decoder ignores the unused low bits of the last character.
	if !strings.EqualFold(idEncoding.EncodeToString(b), s) {
		return id, fmt.Errorf("%w: non-canonical note id", ErrInvalidInput)
	}
	copy(id[:], b)
	return id, nil
}

func (id NoteID) String() string {
	return strings.ToLower(idEncoding.EncodeToString(id[:]))
}

// IsZero reports whether id is the all-zero identifier.
func (id NoteID) IsZero() bool {
	return id == NoteID{}
}

// Value stores the id as a 32-byte blob.
func (id NoteID) Value() (driver.Value, error) {
	return id[:], nil
}

// Scan reads a 32-byte blob.
func (id *NoteID) Scan(src any) error {
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("note id: unsupported type %T", src)
	}
	if len(b) != NoteIDSize {
		return fmt.Errorf("note id: expected %d bytes, got %d", NoteIDSize, len(b))
	}
	copy(id[:], b)
	return nil
}

func (id NoteID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *NoteID) UnmarshalText(text []byte) error {
	parsed, err := ParseNoteID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
