package main

import (
	"github.com/spf13/cobra"
)

func newAccountCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "create EMAIL",
		Short: "Register an account and its bootstrap note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := opts.open()
			if err != nil {
				return err
			}
			defer g.Close()

			user, err := g.CreateAccount(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), user)
		},
	})

	return cmd
}
