package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newAuthCmd creates the auth parent command.
func newAuthCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Inspect registry authentication",
	}
	cmd.AddCommand(newAuthCheckCmd(flags))
	return cmd
}

// newAuthCheckCmd creates "auth check <registry>".
func newAuthCheckCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check <registry>",
		Short: "Authenticate against a registry and report whether it is accepted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := buildClient(flags, args[0])

			if err := client.Authenticate(ctx, nil); err != nil {
				return fmt.Errorf("authenticate: %w", err)
			}

			ok, err := client.IsAuth(ctx)
			if err != nil {
				return fmt.Errorf("is-auth: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "authorized: %v\n", ok)
			return nil
		},
	}
}
