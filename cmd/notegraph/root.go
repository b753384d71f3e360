package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dan-solli/notegraph/pkg/notegraph"
	"github.com/dan-solli/notegraph/pkg/store"
)

// options are the persistent flags shared by every command.
type options struct {
	dbPath     string
	configPath string
	tracePath  string
	verbose    bool

	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "notegraph",
		Short: "Authored notes linked into chains, versions and threads",
		Long: `notegraph stores short notes in SQLite and links them with typed associations.
Long texts are split into chains of segments; a chain can be superseded by a new version.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if opts.verbose {
				level = slog.LevelDebug
			}
			opts.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		},
	}

	cmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "SQLite database path (default notegraph.db)")
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file")
	cmd.PersistentFlags().StringVar(&opts.tracePath, "trace", "", "Append operation traces to this JSON Lines file")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(
		newAccountCmd(opts),
		newNoteCmd(opts),
		newLinkCmd(opts),
		newEdgesCmd(opts),
		newFollowCmd(opts),
		newUnfollowCmd(opts),
		newFollowersCmd(opts),
		newFollowingCmd(opts),
		newFeedCmd(opts),
		newStatsCmd(opts),
	)
	return cmd
}

// open builds a NoteGraph from the config file, environment and flags, in
// increasing order of precedence.
func (o *options) open() (*notegraph.NoteGraph, error) {
	cfg, err := notegraph.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.dbPath != "" {
		cfg.DBPath = o.dbPath
	}
	if o.tracePath != "" {
		cfg.TracePath = o.tracePath
	}

	g, err := notegraph.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open notegraph: %w", err)
	}
	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return g.WithLogger(logger), nil
}

// resolveUser accepts a user id or an email address.
func resolveUser(cmd *cobra.Command, g *notegraph.NoteGraph, ref string) (uuid.UUID, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return id, nil
	}
	user, err := g.Store().Accounts().FindByEmail(cmd.Context(), ref)
	if err != nil {
		return uuid.Nil, fmt.Errorf("unknown user %q: %w", ref, err)
	}
	return user.ID, nil
}

func parseNoteID(s string) (store.NoteID, error) {
	id, err := store.ParseNoteID(s)
	if err != nil {
		return store.NoteID{}, fmt.Errorf("note id %q: %w", s, err)
	}
	return id, nil
}
