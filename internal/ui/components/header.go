// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/queryosity-tui/internal/ui/styles"
)

// =============================================================================
// HEADER COMPONENT
// =============================================================================

// Header is the top bar: brand on the left, session on the right.
type Header struct {
	Username  string
	ExpiresIn string
	Width     int
	theme     *styles.Theme
}

// NewHeader creates a new Header.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{theme: theme, Width: 80}
}

// SetWidth sets the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// SetSession sets the signed-in user and the time left on the credential.
// An empty expiresIn hides the expiry.
func (h *Header) SetSession(username, expiresIn string) {
	h.Username = username
	h.ExpiresIn = expiresIn
}

// View renders the header.
func (h *Header) View() string {
	left := h.theme.HeaderBrand.Render("Queryosity") + " " +
		h.theme.HeaderSubtitle.Render("ask your documents")

	right := ""
	if h.Username != "" {
		right = h.theme.FieldLabel.Render("signed in as ") + h.theme.FieldFocused.Render(h.Username)
		if h.ExpiresIn != "" {
			right += h.theme.Timestamp.Render(" (expires in " + h.ExpiresIn + ")")
		}
	}

	// Width includes the horizontal padding.
	inner := maxInt(h.Width-h.theme.Header.GetHorizontalPadding(), 0)
	gap := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		// Drop the session part on narrow terminals.
		return h.theme.Header.Width(h.Width).Render(left)
	}
	return h.theme.Header.Width(h.Width).Render(left + spaces(gap) + right)
}

func spaces(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}
