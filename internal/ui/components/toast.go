// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// TOAST TYPES
// =============================================================================

// ToastKind represents the type of toast notification.
type ToastKind int

const (
	ToastKindStatus ToastKind = iota
	ToastKindError
	ToastKindSuccess
)

// DefaultToastDuration is the auto-dismiss duration for status toasts.
const DefaultToastDuration = 4 * time.Second

// ErrorToastDuration is the auto-dismiss duration for error toasts.
const ErrorToastDuration = 8 * time.Second

var toastSeq atomic.Int64

// Toast is a short-lived notice shown in the status bar.
type Toast struct {
	ID       int64
	Message  string
	Kind     ToastKind
	Duration time.Duration
}

// NewErrorToast creates an error toast.
func NewErrorToast(message string) Toast {
	return Toast{ID: toastSeq.Add(1), Message: message, Kind: ToastKindError, Duration: ErrorToastDuration}
}

// NewSuccessToast creates a success toast.
func NewSuccessToast(message string) Toast {
	return Toast{ID: toastSeq.Add(1), Message: message, Kind: ToastKindSuccess, Duration: DefaultToastDuration}
}

// NewStatusToast creates an informational toast.
func NewStatusToast(message string) Toast {
	return Toast{ID: toastSeq.Add(1), Message: message, Kind: ToastKindStatus, Duration: DefaultToastDuration}
}

// ToastDismissMsg asks the owner to remove the toast with ID.
type ToastDismissMsg struct {
	ID int64
}

// DismissCmd schedules the toast's removal.
func (t Toast) DismissCmd() tea.Cmd {
	id := t.ID
	return tea.Tick(t.Duration, func(time.Time) tea.Msg {
		return ToastDismissMsg{ID: id}
	})
}
