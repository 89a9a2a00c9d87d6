// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/queryosity-tui/internal/session"
	"github.com/jeranaias/queryosity-tui/internal/ui/components"
)

// =============================================================================
// LAYOUT
// =============================================================================

// resize recomputes every region for a width x height terminal.
func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.theme.SetSize(width, height)

	m.header.SetWidth(width)
	m.statusBar.SetWidth(width)

	bodyHeight := height - lipgloss.Height(m.header.View()) - lipgloss.Height(m.statusBar.View())
	if bodyHeight < 3 {
		bodyHeight = 3
	}

	sidebar := m.theme.SidebarWidth()
	if sidebar > 0 {
		m.files.SetSize(
			sidebar-m.theme.Sidebar.GetHorizontalFrameSize(),
			bodyHeight-m.theme.Sidebar.GetVerticalFrameSize(),
		)
	}
	mainWidth := width - sidebar

	frame := m.theme.InputContainer.GetHorizontalFrameSize()
	m.input.Width = maxInt(mainWidth-frame-lipgloss.Width(m.input.Prompt)-1, 1)
	inputHeight := 1 + m.theme.InputContainer.GetVerticalFrameSize()

	m.viewport.Width = mainWidth
	m.viewport.Height = maxInt(bodyHeight-inputHeight, 1)
	m.picker.Height = maxInt(m.viewport.Height-2, 1)

	m.refresh()
}

// refresh re-renders the transcript and scrolls to the newest entry.
func (m *Model) refresh() {
	m.viewport.SetContent(components.RenderTranscript(
		m.transcript,
		m.viewport.Width,
		m.opts.ShowTimestamps,
		m.theme,
		m.md,
	))
	m.viewport.GotoBottom()
}

// =============================================================================
// VIEW
// =============================================================================

// View implements tea.Model.
func (m Model) View() string {
	t := m.theme

	expires := ""
	if !m.session.ExpiresAt.IsZero() {
		expires = session.FormatDuration(m.session.ExpiresAt.Sub(m.opts.Now()))
	}
	m.header.SetSession(m.session.UserID, expires)

	m.statusBar.Spinner = m.spinner.View()

	sidebar := t.SidebarWidth()
	mainWidth := m.width - sidebar

	var main string
	if m.picking {
		title := t.SidebarTitle.Render("Upload a document (.pdf, .txt)")
		main = lipgloss.NewStyle().
			Width(mainWidth).
			Height(m.viewport.Height).
			Render(lipgloss.JoinVertical(lipgloss.Left, title, m.picker.CurrentDirectory, m.picker.View()))
	} else {
		main = m.viewport.View()
	}

	inputBox := t.InputContainer.
		Width(maxInt(mainWidth-t.InputContainer.GetHorizontalBorderSize(), 1)).
		Render(m.input.View())

	body := lipgloss.JoinVertical(lipgloss.Left, main, inputBox)
	if sidebar > 0 {
		side := t.Sidebar.
			Width(sidebar - t.Sidebar.GetHorizontalBorderSize()).
			Height(maxInt(lipgloss.Height(body)-t.Sidebar.GetVerticalBorderSize(), 1)).
			Render(m.files.View())
		body = lipgloss.JoinHorizontal(lipgloss.Top, side, body)
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.header.View(), body, m.statusBar.View())
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
