package notegraph

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dan-solli/notegraph/pkg/store"
)

// Operation names for the social operations.
const (
	OpFollow        = "follow"
	OpUnfollow      = "unfollow"
	OpListFollowers = "list_followers"
	OpListFollowing = "list_following"
	OpFeed          = "feed"
	OpRandomNotes   = "random_notes"
)

// Feed and random sampling limits. A zero limit selects the default.
const (
	DefaultFeedLimit   = 50
	MaxFeedLimit       = 200
	DefaultRandomLimit = 9
	MaxRandomLimit     = 30
)

// FeedQuery narrows a feed to a time window and a number of notes.
type FeedQuery struct {
	From  *time.Time
	To    *time.Time
	Limit int
}

// Follow makes follower follow followee. Following oneself is invalid input,
// an unknown followee is not found and an existing follow is a conflict.
func (g *NoteGraph) Follow(ctx context.Context, follower, followee uuid.UUID) (follow *store.Follow, err error) {
	o := g.observe(OpFollow, true)
	o.ids = map[string]any{"user_id": follower.String(), "followee_id": followee.String()}
	defer func() { g.finish(ctx, o, err) }()

	if follower == followee {
		return nil, fmt.Errorf("%w: cannot follow self", store.ErrInvalidInput)
	}
	from, err := g.store.Accounts().Find(ctx, follower)
	if err != nil {
		return nil, err
	}
	to, err := g.store.Accounts().Find(ctx, followee)
	if err != nil {
		return nil, err
	}

	createdAt, err := g.store.Follows().Create(ctx, follower, followee)
	if err != nil {
		return nil, err
	}
	return &store.Follow{
		Follower:  store.UserProfile{ID: from.ID, Email: from.Email},
		Followee:  store.UserProfile{ID: to.ID, Email: to.Email},
		CreatedAt: createdAt,
	}, nil
}

// Unfollow removes a follow. Returns ErrNotFound when follower did not
// follow followee.
func (g *NoteGraph) Unfollow(ctx context.Context, follower, followee uuid.UUID) (err error) {
	o := g.observe(OpUnfollow, true)
	o.ids = map[string]any{"user_id": follower.String(), "followee_id": followee.String()}
	defer func() { g.finish(ctx, o, err) }()

	if follower == followee {
		return fmt.Errorf("%w: cannot unfollow self", store.ErrInvalidInput)
	}
	return g.store.Follows().Delete(ctx, follower, followee)
}

// Followers lists the users following userID, newest first.
func (g *NoteGraph) Followers(ctx context.Context, userID uuid.UUID) (edges []store.FollowEdge, err error) {
	o := g.observe(OpListFollowers, false)
	defer func() { g.finish(ctx, o, err) }()

	if _, err = g.store.Accounts().Find(ctx, userID); err != nil {
		return nil, err
	}
	return g.store.Follows().ListFollowers(ctx, userID)
}

// Following lists the users userID follows, newest first.
func (g *NoteGraph) Following(ctx context.Context, userID uuid.UUID) (edges []store.FollowEdge, err error) {
	o := g.observe(OpListFollowing, false)
	defer func() { g.finish(ctx, o, err) }()

	if _, err = g.store.Accounts().Find(ctx, userID); err != nil {
		return nil, err
	}
	return g.store.Follows().ListFollowing(ctx, userID)
}

// Feed returns the newest notes by the users userID follows.
func (g *NoteGraph) Feed(ctx context.Context, userID uuid.UUID, q FeedQuery) (notes []store.Note, err error) {
	o := g.observe(OpFeed, false)
	defer func() { g.finish(ctx, o, err) }()

	limit, err := checkLimit(q.Limit, DefaultFeedLimit, MaxFeedLimit)
	if err != nil {
		return nil, err
	}
	if q.From != nil && q.To != nil && q.From.After(*q.To) {
		return nil, fmt.Errorf("%w: from is after to", store.ErrInvalidInput)
	}
	if _, err = g.store.Accounts().Find(ctx, userID); err != nil {
		return nil, err
	}
	return g.store.Notes().Feed(ctx, userID, store.NoteFilter{From: q.From, To: q.To, Limit: limit})
}

// RandomNotes samples up to limit notes from every author.
func (g *NoteGraph) RandomNotes(ctx context.Context, limit int) (notes []store.Note, err error) {
	o := g.observe(OpRandomNotes, false)
	defer func() { g.finish(ctx, o, err) }()

	limit, err = checkLimit(limit, DefaultRandomLimit, MaxRandomLimit)
	if err != nil {
		return nil, err
	}
	return g.store.Notes().Random(ctx, limit)
}

func checkLimit(limit, defaultLimit, maxLimit int) (int, error) {
	switch {
	case limit == 0:
		return defaultLimit, nil
	case limit < 0:
		return 0, fmt.Errorf("%w: limit must be positive", store.ErrInvalidInput)
	case limit > maxLimit:
		return 0, fmt.Errorf("%w: limit exceeds maximum of %d", store.ErrInvalidInput, maxLimit)
	}
	return limit, nil
}
