// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/queryosity-tui/internal/model"
	"github.com/jeranaias/queryosity-tui/internal/ui/styles"
)

// =============================================================================
// MESSAGE BUBBLE COMPONENT
// =============================================================================

// MessageBubble renders one transcript entry. User text is shown exactly as
// typed; bot text is rendered as markdown.
type MessageBubble struct {
	Message       *model.Message
	Width         int
	ShowTimestamp bool
	theme         *styles.Theme
	md            *MarkdownRenderer
}

// NewMessageBubble creates a new MessageBubble.
func NewMessageBubble(msg *model.Message, theme *styles.Theme, md *MarkdownRenderer) *MessageBubble {
	if msg == nil {
		msg = model.NewBotMessage("")
	}
	return &MessageBubble{
		Message:       msg,
		Width:         80,
		ShowTimestamp: true,
		theme:         theme,
		md:            md,
	}
}

// SetWidth sets the bubble width.
func (b *MessageBubble) SetWidth(width int) {
	b.Width = width
}

// View renders the message bubble.
func (b *MessageBubble) View() string {
	if b.Message.IsUser() {
		return b.renderUser()
	}
	return b.renderBot()
}

// ==========================================================================
// USER BUBBLE - right-aligned, literal text
// ==========================================================================

func (b *MessageBubble) renderUser() string {
	maxContent := maxInt(b.Width-12, 20)
	content := wordWrap(b.Message.Text, maxContent)
	contentWidth := minInt(maxLineWidth(content)+2, maxInt(b.Width-8, 10))

	bubble := b.theme.UserBubble.Width(contentWidth).Render(content)

	parts := []string{b.theme.Timestamp.Render(model.RoleUser.DisplayName())}
	switch b.Message.State {
	case model.StatePending:
		parts = append(parts, b.theme.PendingMark.Render(styles.StatusIndicators.Pending))
	case model.StateFailed:
		parts = append(parts, b.theme.FailedMark.Render(styles.StatusIndicators.Error+" not answered"))
	}
	if ts := b.timestamp(); ts != "" {
		parts = append(parts, ts)
	}
	header := strings.Join(parts, " ")

	block := lipgloss.JoinVertical(lipgloss.Right, header, bubble)
	return lipgloss.PlaceHorizontal(b.Width, lipgloss.Right, block)
}

// ==========================================================================
// BOT BUBBLE - left-aligned, markdown
// ==========================================================================

func (b *MessageBubble) renderBot() string {
	inner := maxInt(b.Width-8, 20)

	content := b.Message.Text
	if b.md != nil {
		content = b.md.Render(content, inner)
	} else {
		content = wordWrap(content, inner)
	}

	bubble := b.theme.BotBubble.Render(content)

	header := b.theme.RoleLabel.Render(model.RoleBot.DisplayName())
	if ts := b.timestamp(); ts != "" {
		header += " " + ts
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, bubble)
}

func (b *MessageBubble) timestamp() string {
	if !b.ShowTimestamp || b.Message.Timestamp.IsZero() {
		return ""
	}
	return b.theme.Timestamp.Render(b.Message.Timestamp.Format("3:04 PM"))
}

// RenderTranscript renders every message separated by a blank line.
func RenderTranscript(t *model.Transcript, width int, showTimestamps bool, theme *styles.Theme, md *MarkdownRenderer) string {
	if t == nil {
		return ""
	}
	views := make([]string, 0, t.Len())
	for _, msg := range t.Messages {
		bubble := NewMessageBubble(msg, theme, md)
		bubble.SetWidth(width)
		bubble.ShowTimestamp = showTimestamps
		views = append(views, bubble.View())
	}
	return strings.Join(views, "\n\n")
}
