// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides reusable UI components for the queryosity TUI.

Each component is a plain struct with setters and a View method, styled
through a shared *styles.Theme. Components hold no network state; the views
in ui/auth and ui/chat own them and feed them data.

# Display Components

Header (header.go) - Brand, signed-in user and credential expiry.
StatusBar (statusbar.go) - Busy state, notices and keyboard shortcuts.
MessageBubble (message.go) - User text shown literally, bot text as markdown.
FileList (filelist.go) - Selectable list of uploaded documents.
MarkdownRenderer (markdown.go) - Width-aware glamour renderer.

# Feedback

Toast (toast.go) - Auto-dismissing notice shown in the status bar.

# Usage

	theme := styles.NewTheme("auto")
	md := components.NewMarkdownRenderer(theme.GlamourStyle(), 0)
	bubble := components.NewMessageBubble(msg, theme, md)
	bubble.SetWidth(80)
	view := bubble.View()
*/
package components
