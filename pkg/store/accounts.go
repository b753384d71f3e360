package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AccountStore manages the users that author notes.
type AccountStore struct {
	db  DBTX
	now func() time.Time
}

// NewAccountStore binds an account store to db.
func NewAccountStore(db DBTX) *AccountStore {
	return &AccountStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Create inserts a new user without a bootstrap note.
func (s *AccountStore) Create(ctx context.Context, email string) (*User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email required", ErrInvalidInput)
	}

	user := &User{
		ID:        uuid.New(),
		Email:     email,
		CreatedAt: s.now(),
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (user_id, email, created_at) VALUES (?, ?, ?)",
		user.ID.String(), user.Email, user.CreatedAt.UnixNano(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: email %q already registered", ErrInvalidInput, email)
		}
		return nil, storageErr("insert user", err)
	}
	return user, nil
}

// SetAccountNote records the bootstrap note of a user.
func (s *AccountStore) SetAccountNote(ctx context.Context, userID uuid.UUID, noteID NoteID) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE users SET account_note_id = ? WHERE user_id = ?", noteID, userID.String())
	if err != nil {
		return storageErr("set account note", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return storageErr("set account note", err)
	}
	if n == 0 {
		return fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	return nil
}

// Find returns a user by id or ErrNotFound.
func (s *AccountStore) Find(ctx context.Context, userID uuid.UUID) (*User, error) {
	return s.findOne(ctx, "user_id = ?", userID.String())
}

// FindByEmail returns a user by email or ErrNotFound.
func (s *AccountStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	return s.findOne(ctx, "email = ?", strings.TrimSpace(email))
}

// IsAccountNote reports whether id is any user's bootstrap note.
func (s *AccountStore) IsAccountNote(ctx context.Context, id NoteID) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE account_note_id = ?", id).Scan(&count)
	if err != nil {
		return false, storageErr("check account note", err)
	}
	return count > 0, nil
}

func (s *AccountStore) findOne(ctx context.Context, where string, arg any) (*User, error) {
	var (
		user      User
		rawID     string
		noteID    []byte
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT user_id, email, account_note_id, created_at FROM users WHERE "+where, arg,
	).Scan(&rawID, &user.Email, &noteID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user: %w", ErrNotFound)
	}
	if err != nil {
		return nil, storageErr("get user", err)
	}

	if user.ID, err = uuid.Parse(rawID); err != nil {
		return nil, storageErr("get user", err)
	}
	if noteID != nil {
		var id NoteID
		if err := id.Scan(noteID); err != nil {
			return nil, storageErr("get user", err)
		}
		user.AccountNoteID = &id
	}
	user.CreatedAt = time.Unix(0, createdAt).UTC()
	return &user, nil
}
