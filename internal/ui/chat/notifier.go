// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import "log/slog"

// Notifier receives failures that the chat view does not show inline.
type Notifier interface {
	Notify(op string, err error)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(op string, err error)

// Notify calls f.
func (f NotifierFunc) Notify(op string, err error) { f(op, err) }

// SlogNotifier logs failures at warn level.
type SlogNotifier struct {
	Logger *slog.Logger
}

// Notify logs err.
func (n SlogNotifier) Notify(op string, err error) {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("chat operation failed", "op", op, "error", err)
}
