package cmd

import (
	"context"
	"errors"

	"github.com/dangun/myaccount/internal/domain"
	"github.com/dangun/myaccount/internal/mypage"
	"github.com/dangun/myaccount/internal/terminal"
	"github.com/spf13/cobra"
)

// runFlow opens a page, runs the access guard and then flow. Notices have
// already been printed when an error is returned.
func (a *app) runFlow(ctx context.Context, confirmer mypage.Confirmer, prepare func(*terminal.Page), flow func(*mypage.Controller, context.Context) error) error {
	page := terminal.NewPage(a.out)
	if prepare != nil {
		prepare(page)
	}
	ctrl, err := a.controller(page, confirmer)
	if err != nil {
		return err
	}
	if !ctrl.Guard(ctx) {
		return domain.ErrUnauthenticated
	}
	return flow(ctrl, ctx)
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show your account details",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			page := terminal.NewPage(a.out)
			ctrl, err := a.controller(page, nil)
			if err != nil {
				return err
			}
			if err := ctrl.Open(cmd.Context()); err != nil {
				return err
			}
			page.Render()
			return nil
		},
	}
}

func newUpdateProfileCmd(a *app) *cobra.Command {
	var nickname string
	cmd := &cobra.Command{
		Use:   "update-profile",
		Short: "Change your nickname",
		Long: `Change your nickname.

A successful change ends the session: you are logged out and need to sign in
again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runFlow(cmd.Context(), nil, func(p *terminal.Page) {
				p.SetValue(mypage.FieldNickname, nickname)
			}, (*mypage.Controller).UpdateProfile)
		},
	}
	cmd.Flags().StringVar(&nickname, "nickname", "", "the new nickname")
	_ = cmd.MarkFlagRequired("nickname")
	return cmd
}

func newUpdateAddressCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update-address",
		Short: "Change your address",
		Long: `Change your address.

The current address is loaded first; only the parts given as flags change.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var page *terminal.Page
			return a.runFlow(cmd.Context(), nil, func(p *terminal.Page) { page = p },
				func(ctrl *mypage.Controller, ctx context.Context) error {
					if err := ctrl.LoadProfile(ctx); err != nil {
						return err
					}
					for flag, field := range map[string]mypage.Field{
						"street":  mypage.FieldStreet,
						"detail":  mypage.FieldDetail,
						"zipcode": mypage.FieldZipcode,
					} {
						if cmd.Flags().Changed(flag) {
							v, _ := cmd.Flags().GetString(flag)
							page.SetValue(field, v)
						}
					}
					return ctrl.UpdateAddress(ctx)
				})
		},
	}
	cmd.Flags().String("street", "", "street")
	cmd.Flags().String("detail", "", "address detail")
	cmd.Flags().String("zipcode", "", "zip code")
	cmd.MarkFlagsOneRequired("street", "detail", "zipcode")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete your account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := terminal.NewPrompt(a.in, a.out, yes)
			err := a.runFlow(cmd.Context(), prompt, nil, (*mypage.Controller).DeleteAccount)
			if errors.Is(err, domain.ErrNotConfirmed) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newMyPostsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "my-posts",
		Short: "Open the board listing filtered to your posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runFlow(cmd.Context(), nil, nil, (*mypage.Controller).ViewMyPosts)
		},
	}
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget the access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runFlow(cmd.Context(), nil, nil, (*mypage.Controller).Reauthenticate)
		},
	}
}
