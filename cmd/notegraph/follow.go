package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dan-solli/notegraph/pkg/notegraph"
)

func newFollowCmd(opts *options) *cobra.Command {
	var as string
	cmd := &cobra.Command{
		Use:   "follow --as USER TARGET",
		Short: "Follow another user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := opts.open()
			if err != nil {
				return err
			}
			defer g.Close()

			follower, err := resolveUser(cmd, g, as)
			if err != nil {
				return err
			}
			followee, err := resolveUser(cmd, g, args[0])
			if err != nil {
				return err
			}

			follow, err := g.Follow(cmd.Context(), follower, followee)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), follow)
		},
	}
	cmd.Flags().StringVar(&as, "as", "", "Acting user (id or email)")
	cmd.MarkFlagRequired("as")
	return cmd
}

func newUnfollowCmd(opts *options) *cobra.Command {
	var as string
	cmd := &cobra.Command{
		Use:   "unfollow --as USER TARGET",
		Short: "Stop following a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := opts.open()
			if err != nil {
				return err
			}
			defer g.Close()

			follower, err := resolveUser(cmd, g, as)
			if err != nil {
				return err
			}
			followee, err := resolveUser(cmd, g, args[0])
			if err != nil {
				return err
			}

			if err := g.Unfollow(cmd.Context(), follower, followee); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "unfollowed %s\n", args[0])
			return err
		},
	}
	cmd.Flags().StringVar(&as, "as", "", "Acting user (id or email)")
	cmd.MarkFlagRequired("as")
	return cmd
}

func newFollowersCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "followers USER",
		Short: "List the users following USER",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := opts.open()
			if err != nil {
				return err
			}
			defer g.Close()

			userID, err := resolveUser(cmd, g, args[0])
			if err != nil {
				return err
			}
			edges, err := g.Followers(cmd.Context(), userID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), edges)
		},
	}
}

func newFollowingCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "following USER",
		Short: "List the users USER follows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := opts.open()
			if err != nil {
				return err
			}
			defer g.Close()

			userID, err := resolveUser(cmd, g, args[0])
			if err != nil {
				return err
			}
			edges, err := g.Following(cmd.Context(), userID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), edges)
		},
	}
}

func newFeedCmd(opts *options) *cobra.Command {
	var (
		as    string
		since time.Duration
		limit int
	)
	cmd := &cobra.Command{
		Use:   "feed --as USER",
		Short: "Show the newest notes by the users USER follows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := opts.open()
			if err != nil {
				return err
			}
			defer g.Close()

			userID, err := resolveUser(cmd, g, as)
			if err != nil {
				return err
			}
			q := notegraph.FeedQuery{Limit: limit}
			if since > 0 {
				from := time.Now().Add(-since)
				q.From = &from
			}

			notes, err := g.Feed(cmd.Context(), userID, q)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), viewNotes(notes))
		},
	}
	cmd.Flags().StringVar(&as, "as", "", "Acting user (id or email)")
	cmd.Flags().DurationVar(&since, "since", 0, "Only notes newer than this duration")
	cmd.Flags().IntVar(&limit, "limit", notegraph.DefaultFeedLimit, "Maximum number of notes")
	cmd.MarkFlagRequired("as")
	return cmd
}

func newNoteRandomCmd(opts *options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "random",
		Short: "Show a random sample of notes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := opts.open()
			if err != nil {
				return err
			}
			defer g.Close()

			notes, err := g.RandomNotes(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), viewNotes(notes))
		},
	}
	cmd.Flags().IntVar(&limit, "limit", notegraph.DefaultRandomLimit, "Maximum number of notes")
	return cmd
}
