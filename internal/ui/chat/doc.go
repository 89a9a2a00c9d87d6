// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view for the TUI.
//
// The view shows the user's documents in a sidebar and the conversation with
// the backend in a scrolling viewport. Every action (upload, delete, send,
// clear) marks the view pending, runs its API calls in a command and applies
// the result when it arrives.
//
// # Ordering
//
// Each action is stamped with a generation number. Results from an older
// generation are dropped, so the last issued action wins. File listings carry
// their own generation so a slow mount listing cannot replace a newer one.
// Esc cancels the in-flight request and bumps the generation.
//
// # Failures
//
// A failed query becomes an apology in the transcript. Other failures go to
// the Notifier (slog by default) and, with Options.ShowErrors, also flash in
// the status bar.
//
// # Key Types
//
//   - Model: Bubble Tea model for the view
//   - Backend: The API calls the view makes
//   - Session: Credential and identity the view acts for
//   - Notifier: Sink for failures not shown inline
//
// # Usage
//
//	view := chat.New(client, chat.Session{Token: tok, UserID: sub}, theme, chat.Options{})
//	cmd := view.Init()
//	// on unmount:
//	view.Close()
package chat
