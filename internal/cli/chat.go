// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/jeranaias/queryosity-tui/internal/api"
	"github.com/jeranaias/queryosity-tui/internal/config"
	"github.com/jeranaias/queryosity-tui/internal/model"
	"github.com/jeranaias/queryosity-tui/internal/session"
	"github.com/jeranaias/queryosity-tui/internal/util"
)

// =============================================================================
// LINE INPUT
// =============================================================================

// lineReader is the prompt source of the chat REPL.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(line string)
	Close() error
}

// errAborted ends the REPL on Ctrl+C or end of input.
var errAborted = errors.New("aborted")

// linerReader reads with line editing and persistent history.
type linerReader struct {
	line        *liner.State
	historyFile string
}

func newLinerReader() *linerReader {
	r := &linerReader{line: liner.NewLiner()}
	r.line.SetCtrlCAborts(true)
	r.line.SetMultiLineMode(true)

	if dir, err := config.ConfigDir(); err == nil {
		r.historyFile = filepath.Join(dir, "chat_history")
		if f, err := os.Open(r.historyFile); err == nil {
			r.line.ReadHistory(f)
			f.Close()
		}
	}
	return r
}

func (r *linerReader) Prompt(prompt string) (string, error) {
	s, err := r.line.Prompt(prompt)
	if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
		return "", errAborted
	}
	return s, err
}

func (r *linerReader) AppendHistory(line string) {
	r.line.AppendHistory(line)
}

func (r *linerReader) Close() error {
	if r.historyFile != "" {
		var buf bytes.Buffer
		if _, err := r.line.WriteHistory(&buf); err == nil {
			_ = util.WriteFileAtomic(r.historyFile, buf.Bytes(), 0600, 0700)
		}
	}
	return r.line.Close()
}

// plainReader reads lines from a non-terminal input.
type plainReader struct {
	app *App
}

func (r plainReader) Prompt(prompt string) (string, error) {
	fmt.Fprint(r.app.Out, prompt)
	line, err := r.app.readLine()
	if errors.Is(err, io.EOF) {
		return "", errAborted
	}
	return line, err
}

func (plainReader) AppendHistory(string) {}
func (plainReader) Close() error         { return nil }

// =============================================================================
// CHAT COMMAND
// =============================================================================

func (a *App) chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Line-based chat for terminals without full-screen support",
		Long: `Start a line-based conversation about your documents.

Type a question and press Enter. Commands:
  /files            list uploaded documents
  /upload <path>    upload a document
  /delete <name>    delete a document
  /clear            clear the conversation history
  /help             show this help
  /quit             leave (also Ctrl+C or Ctrl+D)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, claims, err := a.requireSession()
			if err != nil {
				return err
			}
			var reader lineReader = plainReader{app: a}
			if isTerminal(a.In) {
				reader = newLinerReader()
			}
			defer reader.Close()
			return a.repl(cmd.Context(), reader, token, claims)
		},
	}
}

// repl runs the prompt loop until the user quits or the session expires.
func (a *App) repl(ctx context.Context, reader lineReader, token string, claims *session.Claims) error {
	fmt.Fprintln(a.Out, TitleStyle.Render(model.WelcomeText))
	fmt.Fprintln(a.Out, DimStyle.Render("Type /help for commands."))

	prompt := claims.Subject + "> "
	for {
		if claims.Expired(a.Now()) {
			_ = a.Store.Clear()
			return ErrSessionExpired
		}

		line, err := reader.Prompt(prompt)
		if errors.Is(err, errAborted) {
			fmt.Fprintln(a.Out)
			return nil
		}
		if err != nil {
			return err
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		reader.AppendHistory(input)

		if strings.HasPrefix(input, "/") {
			quit, err := a.slashCommand(ctx, input, token, claims)
			if err != nil {
				DisplayError(a.Err, err)
			}
			if quit {
				return nil
			}
			continue
		}

		reqCtx, cancel := interruptible(ctx)
		err = a.ask(reqCtx, line, token, claims)
		cancel()
		switch {
		case api.IsCanceled(err):
			fmt.Fprintln(a.Out, DimStyle.Render("Canceled."))
		case err != nil:
			a.Logger.Warn("query failed", "error", err)
			fmt.Fprintln(a.Out, WarningStyle.Render(model.ApologyText))
		}
	}
}

// slashCommand runs one REPL command and reports whether to quit.
func (a *App) slashCommand(ctx context.Context, input, token string, claims *session.Claims) (bool, error) {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	reqCtx, cancel := interruptible(ctx)
	defer cancel()

	switch name {
	case "/quit", "/exit", "/q":
		return true, nil
	case "/help", "/?":
		a.printChatHelp()
		return false, nil
	case "/files", "/ls":
		return false, a.printFiles(reqCtx, token)
	case "/upload":
		if arg == "" {
			return false, &CommandError{Command: "upload", Reason: "usage: /upload <path>"}
		}
		return false, a.thenList(reqCtx, token, a.upload(reqCtx, arg, token))
	case "/delete", "/rm":
		if arg == "" {
			return false, &CommandError{Command: "delete", Reason: "usage: /delete <name>"}
		}
		return false, a.thenList(reqCtx, token, a.remove(reqCtx, arg, token))
	case "/clear":
		return false, a.clearHistory(reqCtx, token, claims)
	default:
		return false, &CommandError{Command: name, Reason: "unknown command; type /help"}
	}
}

// thenList reports opErr and prints the listing whatever the outcome, the
// way the full-screen view refreshes after every file operation.
func (a *App) thenList(ctx context.Context, token string, opErr error) error {
	if opErr != nil {
		DisplayError(a.Err, opErr)
	}
	listCtx := ctx
	if ctx.Err() != nil {
		listCtx = context.Background()
	}
	return a.printFiles(listCtx, token)
}

func (a *App) printChatHelp() {
	rows := [][2]string{
		{"/files", "list uploaded documents"},
		{"/upload <path>", "upload a PDF or text file"},
		{"/delete <name>", "delete a document"},
		{"/clear", "clear the conversation history"},
		{"/quit", "leave the chat"},
	}
	for _, r := range rows {
		fmt.Fprintf(a.Out, "  %s %s\n", util.PadRight(r[0], 16), DimStyle.Render(r[1]))
	}
}
