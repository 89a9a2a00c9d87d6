// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// =============================================================================
// MARKDOWN RENDERER
// =============================================================================

// MarkdownRenderer renders bot answers with glamour. The underlying
// renderer is rebuilt only when the wrap width changes.
type MarkdownRenderer struct {
	style     string
	fixedWrap int

	width    int
	renderer *glamour.TermRenderer
}

// NewMarkdownRenderer creates a renderer. style is a glamour standard style
// name ("dark", "light", "notty") or "auto". A fixedWrap of 0 wraps at the
// width passed to Render.
func NewMarkdownRenderer(style string, fixedWrap int) *MarkdownRenderer {
	return &MarkdownRenderer{style: style, fixedWrap: fixedWrap}
}

// Render renders md for the given width. It falls back to the raw text if
// glamour fails.
func (r *MarkdownRenderer) Render(md string, width int) string {
	if r.fixedWrap > 0 {
		width = r.fixedWrap
	}
	if width < 20 {
		width = 20
	}

	if r.renderer == nil || r.width != width {
		opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
		if r.style == "" || r.style == "auto" {
			opts = append(opts, glamour.WithAutoStyle())
		} else {
			opts = append(opts, glamour.WithStandardStyle(r.style))
		}
		tr, err := glamour.NewTermRenderer(opts...)
		if err != nil {
			return md
		}
		r.renderer = tr
		r.width = width
	}

	out, err := r.renderer.Render(md)
	if err != nil {
		return md
	}
	return strings.Trim(out, "\n")
}
