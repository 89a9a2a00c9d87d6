// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/queryosity-tui/internal/session"
	"github.com/jeranaias/queryosity-tui/internal/ui/app"
	"github.com/jeranaias/queryosity-tui/internal/ui/chat"
	"github.com/jeranaias/queryosity-tui/internal/ui/styles"
)

// watchDebounce collapses the burst of events one atomic write produces.
const watchDebounce = 150 * time.Millisecond

// runTUI starts the full-screen interface.
func (a *App) runTUI(ctx context.Context) error {
	if !isTerminal(a.In) || !isTerminal(a.Out) {
		return &CommandError{
			Command: "queryosity",
			Reason:  "the interactive UI needs a terminal; use 'queryosity chat' or the other subcommands",
		}
	}

	cfg := a.Config
	opts := app.Options{
		Chat: chat.Options{
			Notifier:       chat.SlogNotifier{Logger: a.Logger},
			ShowErrors:     cfg.UI.ShowErrors,
			ShowTimestamps: cfg.UI.ShowTimestamps,
			WordWrap:       cfg.UI.WordWrap,
		},
		Now: a.Now,
	}
	if wd, err := os.Getwd(); err == nil {
		opts.Chat.StartDir = wd
	}

	if w := a.watchSession(); w != nil {
		defer w.Close()
		opts.Watcher = w
	}

	root := app.New(a.Store, a.Client, styles.NewTheme(cfg.UI.Theme), opts)
	defer root.Close()

	a.Logger.Info("starting ui", "state", root.State().String())
	p := tea.NewProgram(root, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("ui: %w", err)
	}
	return nil
}

// watchSession watches the credential file when the store is file backed.
// The sqlite backend is not watched.
func (a *App) watchSession() *session.Watcher {
	fs, ok := a.Store.Storage().(*session.FileStorage)
	if !ok || !a.Config.Session.Watch {
		return nil
	}
	w, err := session.NewWatcher(fs.Path(), watchDebounce)
	if err != nil {
		a.Logger.Warn("session watcher disabled", "error", err)
		return nil
	}
	return w
}
