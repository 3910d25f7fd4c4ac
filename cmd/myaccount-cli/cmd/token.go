package cmd

import (
	"fmt"

	"github.com/dangun/myaccount/internal/domain"
	"github.com/spf13/cobra"
)

func newTokenCmd(a *app) *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the stored access token",
	}

	setCmd := &cobra.Command{
		Use:   "set <access-token>",
		Short: "Store the access token obtained at sign in",
		Long: `Store the access token obtained at sign in.

A new sign in starts a new session, so session flags are cleared.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.tokens().Set(cmd.Context(), domain.AccessTokenKey, args[0]); err != nil {
				return err
			}
			if err := a.session().Truncate(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Access token stored.")
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Forget the stored access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.tokens().Remove(cmd.Context(), domain.AccessTokenKey); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Access token removed.")
			return nil
		},
	}

	tokenCmd.AddCommand(setCmd, clearCmd)
	return tokenCmd
}
