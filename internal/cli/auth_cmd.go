// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeranaias/queryosity-tui/internal/api"
	"github.com/jeranaias/queryosity-tui/internal/session"
)

// =============================================================================
// REGISTER
// =============================================================================

func (a *App) registerCmd() *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, pass, err := a.credentials("register", username)
			if err != nil {
				return err
			}
			ctx, cancel := interruptible(cmd.Context())
			defer cancel()

			resp, err := a.Client.Register(ctx, user, pass)
			if err != nil {
				return NewCommandError("register", "request failed", err)
			}
			if resp.Msg == "" {
				return rejected("register", string(resp.Detail), "Registration failed.")
			}
			fmt.Fprintln(a.Out, SuccessStyle.Render(resp.Msg))
			fmt.Fprintln(a.Out, DimStyle.Render("Run 'queryosity login' to sign in."))
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "account name (prompted when omitted)")
	return cmd
}

// =============================================================================
// LOGIN / LOGOUT
// =============================================================================

func (a *App) loginCmd() *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, pass, err := a.credentials("login", username)
			if err != nil {
				return err
			}
			ctx, cancel := interruptible(cmd.Context())
			defer cancel()

			resp, err := a.Client.Login(ctx, user, pass)
			if api.IsLoginFailed(err) {
				return fmt.Errorf("invalid username or password: %w", err)
			}
			if err != nil {
				return NewCommandError("login", "request failed", err)
			}
			if resp.AccessToken == "" {
				return fmt.Errorf("invalid username or password: %w", api.ErrLoginFailed)
			}

			claims, err := session.Validate(resp.AccessToken, a.Now())
			if err != nil {
				return NewCommandError("login", "server returned an unusable credential", err)
			}
			if err := a.Store.Save(resp.AccessToken); err != nil {
				return NewCommandError("login", "cannot store credential", err)
			}

			fmt.Fprintf(a.Out, "%s %s\n", SuccessStyle.Render("Logged in as"), claims.Subject)
			if claims.HasExpiry {
				fmt.Fprintln(a.Out, DimStyle.Render("Session expires in "+session.FormatDuration(claims.Remaining(a.Now()))))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "account name (prompted when omitted)")
	return cmd
}

func (a *App) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.Store.Clear(); err != nil {
				return NewCommandError("logout", "cannot clear credential", err)
			}
			fmt.Fprintln(a.Out, "Logged out.")
			return nil
		},
	}
}

// =============================================================================
// WHOAMI
// =============================================================================

func (a *App) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user and session expiry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, claims, err := a.requireSession()
			if err != nil {
				return err
			}
			fmt.Fprintf(a.Out, "%s%s\n", LabelStyle.Render("User"), ValueStyle.Render(claims.Subject))
			fmt.Fprintf(a.Out, "%s%s\n", LabelStyle.Render("Server"), ValueStyle.Render(a.Client.BaseURL()))
			expiry := "never"
			if claims.HasExpiry {
				expiry = fmt.Sprintf("in %s (%s)", session.FormatDuration(claims.Remaining(a.Now())),
					claims.ExpiresAt.Local().Format("2006-01-02 15:04"))
			}
			fmt.Fprintf(a.Out, "%s%s\n", LabelStyle.Render("Expires"), ValueStyle.Render(expiry))
			return nil
		},
	}
}
