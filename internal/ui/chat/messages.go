// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view for the TUI.
//
// This file defines the Bubble Tea message types used by the chat view.
// Messages are organized into the following categories:
//   - Scoping: Binds results to the view instance that issued them
//   - Files: Listing results and upload/delete outcomes
//   - Conversation: Query answers and history clearing
//
// Every result carries the generation it was issued under; results from an
// older generation are dropped.
package chat

import (
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/queryosity-tui/internal/api"
	"github.com/jeranaias/queryosity-tui/internal/model"
)

// =============================================================================
// SCOPING
// =============================================================================

var viewSeq atomic.Int64

// scopedMsg wraps a result with the ID of the view that issued it. A view
// rebuilt after logout starts its generations again, so results addressed
// to an earlier instance must not reach it.
type scopedMsg struct {
	view int64
	msg  tea.Msg
}

func scoped(view int64, cmd tea.Cmd) tea.Cmd {
	return func() tea.Msg {
		return scopedMsg{view: view, msg: cmd()}
	}
}

// =============================================================================
// FILE MESSAGES
// =============================================================================

// fileOp names a document operation.
type fileOp string

const (
	opUpload fileOp = "upload"
	opDelete fileOp = "delete"
	opList   fileOp = "list files"
	opQuery  fileOp = "query"
	opClear  fileOp = "clear history"
)

// filesLoadedMsg carries a file listing.
type filesLoadedMsg struct {
	ListGen int
	Files   []model.FileRecord
	Err     error
}

// fileOpResultMsg carries the outcome of an upload or delete and the
// listing fetched right after it.
type fileOpResultMsg struct {
	Gen     int
	ListGen int
	Op      fileOp
	Target  string
	Ack     *api.Ack
	OpErr   error
	Files   []model.FileRecord
	ListErr error
}

// =============================================================================
// CONVERSATION MESSAGES
// =============================================================================

// queryResultMsg carries the answer to the user message MsgID.
type queryResultMsg struct {
	Gen   int
	MsgID string
	Resp  *api.QueryResponse
	Err   error
}

// clearResultMsg carries the outcome of a history clear.
type clearResultMsg struct {
	Gen int
	Ack *api.Ack
	Err error
}
