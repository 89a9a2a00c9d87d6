// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// EXPIRY TICK
// =============================================================================

// ExpiryMsg fires when the credential it names reaches its exp.
type ExpiryMsg struct {
	Token string
	Time  time.Time
}

// ExpiryCmd schedules an ExpiryMsg just after the credential's exp. It
// returns nil for credentials without an expiry.
func ExpiryCmd(token string, c *Claims, now time.Time) tea.Cmd {
	if c == nil || !c.HasExpiry {
		return nil
	}
	d := c.ExpiresAt.Sub(now) + time.Millisecond
	if d < time.Millisecond {
		d = time.Millisecond
	}
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return ExpiryMsg{Token: token, Time: t}
	})
}

// =============================================================================
// FORMATTING
// =============================================================================

// FormatDuration returns a human-readable duration string.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d >= time.Hour {
		hours := int(d.Hours())
		mins := int(d.Minutes()) % 60
		if mins == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	if secs == 0 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%dm %ds", mins, secs)
}
