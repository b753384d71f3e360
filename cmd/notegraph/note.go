package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dan-solli/notegraph/pkg/store"
)

func newNoteCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note",
		Short: "Post, version and read notes",
	}
	cmd.AddCommand(
		newNotePostCmd(opts),
		newNoteVersionCmd(opts),
		newNoteShowCmd(opts),
		newNoteChainCmd(opts),
		newNoteRelatedCmd(opts),
		newNoteListCmd(opts),
		newNoteRandomCmd(opts),
	)
	return cmd
}

// readText joins args, or reads stdin when the only argument is "-".
func readText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	return strings.Join(args, " "), nil
}

func newNotePostCmd(opts *options) *cobra.Command {
	var as string
	cmd := &cobra.Command{
		Use:   "post --as USER TEXT...",
		Short: "Post a note; long text becomes a chain of segments",
		Long:  `Post a note. Use "-" as the only argument to read the text from stdin.`,
		Args:  cobra.MinimumNArgs(1),
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
			text, err := readText(cmd, args)
			if err != nil {
				return err
			}

			created, err := g.PostNote(cmd.Context(), userID, text)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), viewCreated(created))
		},
	}
	cmd.Flags().StringVar(&as, "as", "", "Acting user (id or email)")
	cmd.MarkFlagRequired("as")
	return cmd
}

func newNoteVersionCmd(opts *options) *cobra.Command {
	var as string
	cmd := &cobra.Command{
		Use:   "version --as USER ID TEXT...",
		Short: "Supersede the chain containing ID with new text",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := parseNoteID(args[0])
			if err != nil {
				return err
			}

			g, err := opts.open()
			if err != nil {
				return err
			}
			defer g.Close()

			userID, err := resolveUser(cmd, g, as)
			if err != nil {
				return err
			}
			text, err := readText(cmd, args[1:])
			if err != nil {
				return err
			}

			created, err := g.PostVersion(cmd.Context(), userID, target, text)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), viewCreated(created))
		},
	}
	cmd.Flags().StringVar(&as, "as", "", "Acting user (id or email)")
	cmd.MarkFlagRequired("as")
	return cmd
}

func newNoteShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a single note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseNoteID(args[0])
			if err != nil {
				return err
			}
			g, err := opts.open()
			if err != nil {
				return err
			}
			defer g.Close()

			note, err := g.GetNote(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), viewNote(*note))
		},
	}
}

func newNoteChainCmd(opts *options) *cobra.Command {
	var textOnly bool
	cmd := &cobra.Command{
		Use:   "chain ID",
		Short: "Show the segments around a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseNoteID(args[0])
			if err != nil {
				return err
			}
			g, err := opts.open()
			if err != nil {
				return err
			}
			defer g.Close()

			c, err := g.Chain(cmd.Context(), id)
			if err != nil {
				return err
			}
			if textOnly {
				var b strings.Builder
				for _, n := range c.Prev {
					b.Write(n.Value)
				}
				b.Write(c.Center.Value)
				for _, n := range c.Next {
					b.Write(n.Value)
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), b.String())
				return err
			}
			return printJSON(cmd.OutOrStdout(), viewChain(c))
		},
	}
	cmd.Flags().BoolVar(&textOnly, "text", false, "Print the reassembled text instead of JSON")
	return cmd
}

func newNoteRelatedCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "related ID",
		Short: "Show the notes connected to a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseNoteID(args[0])
			if err != nil {
				return err
			}
			g, err := opts.open()
			if err != nil {
				return err
			}
			defer g.Close()

			related, err := g.Related(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), viewRelated(related))
		},
	}
}

func newNoteListCmd(opts *options) *cobra.Command {
	var (
		author string
		since  time.Duration
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := opts.open()
			if err != nil {
				return err
			}
			defer g.Close()

			filter := store.NoteFilter{Limit: limit}
			if author != "" {
				userID, err := resolveUser(cmd, g, author)
				if err != nil {
					return err
				}
				filter.Author = &userID
			}
			if since > 0 {
				from := time.Now().Add(-since)
				filter.From = &from
			}

			notes, err := g.ListNotes(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), viewNotes(notes))
		},
	}
	cmd.Flags().StringVar(&author, "author", "", "Only notes by this user (id or email)")
	cmd.Flags().DurationVar(&since, "since", 0, "Only notes newer than this duration")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of notes (0 for all)")
	return cmd
}
