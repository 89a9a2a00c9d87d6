// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/queryosity-tui/internal/ui/styles"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// Status represents the current view status.
type Status int

const (
	StatusReady Status = iota
	StatusBusy
	StatusPicking
)

// String returns the display string for the status.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusBusy:
		return "Working..."
	case StatusPicking:
		return "Choose a file"
	default:
		return "Unknown"
	}
}

// Shortcut is one key hint.
type Shortcut struct {
	Key  string
	Desc string
}

// StatusBar is the bottom line of the chat view.
type StatusBar struct {
	Status    Status
	Spinner   string
	Toast     *Toast
	Shortcuts []Shortcut
	Width     int
	theme     *styles.Theme
}

// NewStatusBar creates a new StatusBar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{theme: theme, Width: 80}
}

// SetWidth sets the bar width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// ShowToast displays t until ClearToast is called with its ID.
func (s *StatusBar) ShowToast(t Toast) {
	s.Toast = &t
}

// ClearToast removes the toast if it is still the one with id.
func (s *StatusBar) ClearToast(id int64) {
	if s.Toast != nil && s.Toast.ID == id {
		s.Toast = nil
	}
}

// View renders the status bar.
func (s *StatusBar) View() string {
	var left string
	switch s.Status {
	case StatusBusy:
		left = s.theme.Spinner.Render(s.Spinner) + " " + s.Status.String()
	default:
		left = s.Status.String()
	}

	if s.Toast != nil {
		left += "  " + s.renderToast()
	}

	hints := make([]string, 0, len(s.Shortcuts))
	for _, sc := range s.Shortcuts {
		hints = append(hints, s.theme.ShortcutKey.Render(sc.Key)+" "+s.theme.ShortcutDesc.Render(sc.Desc))
	}
	right := strings.Join(hints, "  ")

	inner := maxInt(s.Width-s.theme.StatusBar.GetHorizontalPadding(), 0)
	// Drop hints from the end until everything fits.
	for len(hints) > 0 && lipgloss.Width(left)+1+lipgloss.Width(right) > inner {
		hints = hints[:len(hints)-1]
		right = strings.Join(hints, "  ")
	}

	gap := inner - lipgloss.Width(left) - lipgloss.Width(right)
	return s.theme.StatusBar.Width(s.Width).Render(left + spaces(gap) + right)
}

func (s *StatusBar) renderToast() string {
	switch s.Toast.Kind {
	case ToastKindError:
		return styles.RenderError(s.Toast.Message)
	case ToastKindSuccess:
		return styles.RenderSuccess(s.Toast.Message)
	default:
		return styles.RenderInfo(s.Toast.Message)
	}
}
