// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/queryosity-tui/internal/model"
)

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// listFiles fetches the listing. A response without a files field yields an
// empty list.
func listFiles(ctx context.Context, b Backend, token string) ([]model.FileRecord, error) {
	resp, err := b.ListFiles(ctx, token)
	if err != nil {
		return nil, err
	}
	if resp == nil || resp.Files == nil {
		return []model.FileRecord{}, nil
	}
	return resp.Files, nil
}

// fetchFilesCmd loads the file list.
func fetchFilesCmd(ctx context.Context, b Backend, token string, listGen int) tea.Cmd {
	return func() tea.Msg {
		files, err := listFiles(ctx, b, token)
		return filesLoadedMsg{ListGen: listGen, Files: files, Err: err}
	}
}

// fileOpCmd runs an upload or delete on ctx and then re-fetches the listing
// on listCtx, whether or not the operation succeeded. listCtx outlives a
// cancelled operation so the list still reflects the server.
func fileOpCmd(ctx, listCtx context.Context, b Backend, token string, op fileOp, target string, gen, listGen int) tea.Cmd {
	return func() tea.Msg {
		msg := fileOpResultMsg{Gen: gen, ListGen: listGen, Op: op, Target: target}
		switch op {
		case opUpload:
			msg.Ack, msg.OpErr = b.UploadFile(ctx, target, token)
		case opDelete:
			msg.Ack, msg.OpErr = b.DeleteFile(ctx, target, token)
		}
		msg.Files, msg.ListErr = listFiles(listCtx, b, token)
		return msg
	}
}

// queryCmd posts the question for the user message msgID.
func queryCmd(ctx context.Context, b Backend, question, userID, token string, gen int, msgID string) tea.Cmd {
	return func() tea.Msg {
		resp, err := b.PostQuery(ctx, question, userID, token)
		return queryResultMsg{Gen: gen, MsgID: msgID, Resp: resp, Err: err}
	}
}

// clearCmd asks the backend to forget the conversation.
func clearCmd(ctx context.Context, b Backend, userID, token string, gen int) tea.Cmd {
	return func() tea.Msg {
		ack, err := b.ClearHistory(ctx, userID, token)
		return clearResultMsg{Gen: gen, Ack: ack, Err: err}
	}
}
