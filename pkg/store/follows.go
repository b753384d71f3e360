package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrAlreadyFollowing indicates the follow relation already exists.
var ErrAlreadyFollowing = errors.New("already following")

// UserProfile is the public view of a user.
type UserProfile struct {
	ID    uuid.UUID `json:"user_id"`
	Email string    `json:"email"`
}

// Follow is a directed subscription from one user to another.
type Follow struct {
	Follower  UserProfile `json:"follower"`
	Followee  UserProfile `json:"followee"`
	CreatedAt time.Time   `json:"created_at"`
}

// FollowEdge is one row of a followers or following listing.
type FollowEdge struct {
	User      UserProfile `json:"user"`
	CreatedAt time.Time   `json:"created_at"`
}

// FollowStore manages follow relations between users.
type FollowStore struct {
	db  DBTX
	now func() time.Time
}

// NewFollowStore binds a follow store to db.
func NewFollowStore(db DBTX) *FollowStore {
	return &FollowStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Create records that follower follows followee and returns the creation
// time. An existing relation is left untouched and ErrAlreadyFollowing is
// returned.
func (s *FollowStore) Create(ctx context.Context, follower, followee uuid.UUID) (time.Time, error) {
	if follower == followee {
		return time.Time{}, fmt.Errorf("%w: cannot follow self", ErrInvalidInput)
	}

	var createdAt int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO follows (follower_id, followee_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (follower_id, followee_id) DO NOTHING
		RETURNING created_at`,
		follower.String(), followee.String(), s.now().UnixNano(),
	).Scan(&createdAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return time.Time{}, ErrAlreadyFollowing
	case err != nil:
		return time.Time{}, storageErr("insert follow", err)
	}
	return time.Unix(0, createdAt).UTC(), nil
}

// Delete removes the relation. Returns ErrNotFound if it did not exist.
func (s *FollowStore) Delete(ctx context.Context, follower, followee uuid.UUID) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM follows WHERE follower_id = ? AND followee_id = ?",
		follower.String(), followee.String())
	if err != nil {
		return storageErr("delete follow", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return storageErr("delete follow", err)
	}
	if n == 0 {
		return fmt.Errorf("follow: %w", ErrNotFound)
	}
	return nil
}

// ListFollowers returns the users following userID, newest first.
func (s *FollowStore) ListFollowers(ctx context.Context, userID uuid.UUID) ([]FollowEdge, error) {
	return s.listEdges(ctx, `
		SELECT u.user_id, u.email, f.created_at
		FROM follows f
		JOIN users u ON u.user_id = f.follower_id
		WHERE f.followee_id = ?
		ORDER BY f.created_at DESC, f.rowid DESC`, userID)
}

// ListFollowing returns the users userID follows, newest first.
func (s *FollowStore) ListFollowing(ctx context.Context, userID uuid.UUID) ([]FollowEdge, error) {
	return s.listEdges(ctx, `
		SELECT u.user_id, u.email, f.created_at
		FROM follows f
		JOIN users u ON u.user_id = f.followee_id
		WHERE f.follower_id = ?
		ORDER BY f.created_at DESC, f.rowid DESC`, userID)
}

// Count returns the total number of follow relations.
func (s *FollowStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM follows").Scan(&count); err != nil {
		return 0, storageErr("count follows", err)
	}
	return count, nil
}

func (s *FollowStore) listEdges(ctx context.Context, query string, userID uuid.UUID) ([]FollowEdge, error) {
	rows, err := s.db.QueryContext(ctx, query, userID.String())
	if err != nil {
		return nil, storageErr("list follows", err)
	}
	defer rows.Close()

	edges := make([]FollowEdge, 0)
	for rows.Next() {
		var (
			edge      FollowEdge
			rawID     string
			createdAt int64
		)
		if err := rows.Scan(&rawID, &edge.User.Email, &createdAt); err != nil {
			return nil, storageErr("scan follow", err)
		}
		if edge.User.ID, err = uuid.Parse(rawID); err != nil {
			return nil, storageErr("scan follow", err)
		}
		edge.CreatedAt = time.Unix(0, createdAt).UTC()
		edges = append(edges, edge)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate follows", err)
	}
	return edges, nil
}
