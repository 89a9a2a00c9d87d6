// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/jeranaias/queryosity-tui/internal/model"
	"github.com/jeranaias/queryosity-tui/internal/session"
)

// =============================================================================
// COMMANDS
// =============================================================================

func (a *App) askCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>...",
		Short: "Ask a single question about your documents",
		Example: `  queryosity ask "What is in my document?"
  queryosity ask summarize the second report`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, claims, err := a.requireSession()
			if err != nil {
				return err
			}
			ctx, cancel := interruptible(cmd.Context())
			defer cancel()
			return a.ask(ctx, strings.Join(args, " "), token, claims)
		},
	}
}

func (a *App) clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the server-side conversation history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, claims, err := a.requireSession()
			if err != nil {
				return err
			}
			ctx, cancel := interruptible(cmd.Context())
			defer cancel()
			return a.clearHistory(ctx, token, claims)
		},
	}
}

// =============================================================================
// OPERATIONS
// =============================================================================

// ask sends the question verbatim and prints the answer.
func (a *App) ask(ctx context.Context, question, token string, claims *session.Claims) error {
	resp, err := a.Client.PostQuery(ctx, question, claims.Subject, token)
	if err != nil {
		return NewCommandError("ask", model.ApologyText, err)
	}
	if !resp.HasAnswer() {
		return rejected("ask", string(resp.Detail), model.ApologyText)
	}
	fmt.Fprintln(a.Out, a.renderAnswer(*resp.Answer))
	return nil
}

// clearHistory forgets the server-side history for the signed-in user.
func (a *App) clearHistory(ctx context.Context, token string, claims *session.Claims) error {
	ack, err := a.Client.ClearHistory(ctx, claims.Subject, token)
	if err != nil {
		return NewCommandError("clear", "request failed", err)
	}
	if ack.Result == "" && ack.Detail != "" {
		return rejected("clear", string(ack.Detail), "")
	}
	fmt.Fprintln(a.Out, SuccessStyle.Render(model.ClearedText))
	return nil
}

// renderAnswer formats markdown for a terminal and leaves it untouched
// everywhere else.
func (a *App) renderAnswer(text string) string {
	if !isTerminal(a.Out) {
		return text
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(a.wrapWidth()),
	)
	if err != nil {
		return text
	}
	out, err := renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

func (a *App) wrapWidth() int {
	if a.Config != nil && a.Config.UI.WordWrap > 0 {
		return a.Config.UI.WordWrap
	}
	return GetTerminalWidth() - 4
}
