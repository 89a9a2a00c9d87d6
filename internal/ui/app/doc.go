// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app provides the root Bubble Tea model.
//
// The root model owns the session credential. It shows the auth form while
// signed out and the chat view while signed in, rebuilding the view on every
// transition. Every time the held credential changes it is decoded and
// checked for expiry; a credential that fails the check is cleared and the
// user is sent back to the auth form.
//
// # Key Types
//
//   - Model: The root model
//   - State: Which view is mounted
//   - Client: The backend calls both views need
//
// # Usage
//
//	root := app.New(store, client, theme, app.Options{Watcher: w})
//	p := tea.NewProgram(root, tea.WithAltScreen())
//	_, err := p.Run()
package app
