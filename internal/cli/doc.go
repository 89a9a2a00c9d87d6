// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the queryosity command line.
//
// Running queryosity without a subcommand starts the terminal UI. The
// subcommands expose the same backend operations for scripts and quick use
// and share the stored session with the UI.
//
// # Key Types
//
//   - App: Shared state for one invocation (config, client, session store)
//   - CommandError: Error annotated with the command that failed
//
// # Commands Overview
//
// Interface:
//   - tui: Full-screen UI (also the default)
//
// Session:
//   - register, login, logout, whoami
//
// Documents:
//   - files, upload, delete
//
// Conversation:
//   - ask: Single question
//   - chat: Line-based interactive session
//   - clear: Forget the server-side history
//
// Settings:
//   - config show, config path, config init
//
// # Usage
//
//	os.Exit(cli.Execute())
package cli
