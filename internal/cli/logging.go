// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jeranaias/queryosity-tui/internal/config"
)

// newLogger builds the process logger. The UI writes to the log file so
// nothing lands on the alternate screen; other commands log warnings to
// stderr, or everything with verbose.
func newLogger(cfg *config.Config, stderr io.Writer, verbose, tui bool) (*slog.Logger, io.Closer, error) {
	level := parseLevel(cfg.Log.Level)

	if !tui {
		if verbose {
			level = slog.LevelDebug
		} else if level < slog.LevelWarn {
			level = slog.LevelWarn
		}
		h := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})
		return slog.New(h), nil, nil
	}

	path, err := cfg.LogPath()
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	if verbose {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})
	return slog.New(h), f, nil
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
