package main

import (
	"github.com/spf13/cobra"
)

func newLinkCmd(opts *options) *cobra.Command {
	var as string
	cmd := &cobra.Command{
		Use:   "link --as USER KIND FROM TO",
		Short: "Associate two notes",
		Long: `Create a KIND association from FROM to TO.
KIND is one of link, reply, quote, parent, child, next, prev or version.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseNoteID(args[1])
			if err != nil {
				return err
			}
			to, err := parseNoteID(args[2])
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

			assoc, err := g.Associate(cmd.Context(), userID, args[0], from, to)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), assoc)
		},
	}
	cmd.Flags().StringVar(&as, "as", "", "Acting user (id or email)")
	cmd.MarkFlagRequired("as")
	return cmd
}

func newEdgesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "edges ID",
		Short: "List every association touching a note, newest first",
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

			assocs, err := g.ListAssociations(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), assocs)
		},
	}
}

func newStatsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show note and association counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := opts.open()
			if err != nil {
				return err
			}
			defer g.Close()

			stats, err := g.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stats)
		},
	}
}
