// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/queryosity-tui/internal/model"
	"github.com/jeranaias/queryosity-tui/internal/ui/chat"
	"github.com/jeranaias/queryosity-tui/internal/util"
)

// =============================================================================
// COMMANDS
// =============================================================================

func (a *App) filesCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "files",
		Aliases: []string{"ls"},
		Short:   "List uploaded documents",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, _, err := a.requireSession()
			if err != nil {
				return err
			}
			ctx, cancel := interruptible(cmd.Context())
			defer cancel()
			return a.printFiles(ctx, token)
		},
	}
}

func (a *App) uploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <path>...",
		Short: "Upload PDF or text documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, _, err := a.requireSession()
			if err != nil {
				return err
			}
			ctx, cancel := interruptible(cmd.Context())
			defer cancel()

			for _, path := range args {
				if err := a.upload(ctx, path, token); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func (a *App) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <name>",
		Aliases: []string{"rm"},
		Short:   "Delete an uploaded document",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, _, err := a.requireSession()
			if err != nil {
				return err
			}
			ctx, cancel := interruptible(cmd.Context())
			defer cancel()
			return a.remove(ctx, args[0], token)
		},
	}
}

// =============================================================================
// OPERATIONS
// =============================================================================

// printFiles lists the user's documents, one per line.
func (a *App) printFiles(ctx context.Context, token string) error {
	resp, err := a.Client.ListFiles(ctx, token)
	if err != nil {
		return NewCommandError("files", "request failed", err)
	}
	if len(resp.Files) == 0 && resp.Detail != "" {
		return rejected("files", string(resp.Detail), "")
	}
	if len(resp.Files) == 0 {
		fmt.Fprintln(a.Out, DimStyle.Render("No files uploaded yet."))
		return nil
	}
	for _, name := range model.DisplayNames(resp.Files) {
		fmt.Fprintln(a.Out, util.SingleLine(name))
	}
	return nil
}

// upload sends one document.
func (a *App) upload(ctx context.Context, path, token string) error {
	if !allowedUpload(path) {
		return &CommandError{
			Command: "upload",
			Reason:  fmt.Sprintf("%s: only %s files can be uploaded", path, strings.Join(chat.AllowedUploadTypes, ", ")),
		}
	}
	if info, err := os.Stat(path); err != nil {
		return NewCommandError("upload", "cannot read file", err)
	} else if info.IsDir() {
		return &CommandError{Command: "upload", Reason: path + " is a directory"}
	}

	ack, err := a.Client.UploadFile(ctx, path, token)
	if err != nil {
		return NewCommandError("upload", filepath.Base(path), err)
	}
	if !ack.Success {
		return rejected("upload", ack.Message(), filepath.Base(path)+" was not accepted")
	}
	msg := ack.Message()
	if msg == "" {
		msg = filepath.Base(path) + " uploaded"
	}
	fmt.Fprintln(a.Out, SuccessStyle.Render(msg))
	return nil
}

// remove deletes one document by display name.
func (a *App) remove(ctx context.Context, name, token string) error {
	ack, err := a.Client.DeleteFile(ctx, name, token)
	if err != nil {
		return NewCommandError("delete", name, err)
	}
	if ack.Result == "" {
		return rejected("delete", string(ack.Detail), name+" was not deleted")
	}
	fmt.Fprintln(a.Out, SuccessStyle.Render(string(ack.Result)))
	return nil
}

func allowedUpload(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, t := range chat.AllowedUploadTypes {
		if ext == t {
			return true
		}
	}
	return false
}
