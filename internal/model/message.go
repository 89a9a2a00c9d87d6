// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for transcripts, messages and files.
package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleBot:
		return "Queryosity"
	default:
		return string(r)
	}
}

// =============================================================================
// STATE TYPE
// =============================================================================

// State tracks a message through its request lifecycle. A user message
// starts Pending and ends Resolved or Failed; bot messages are always
// Resolved.
type State int

const (
	StatePending State = iota
	StateResolved
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateResolved:
		return "resolved"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single transcript entry.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	State     State     `json:"state"`
	Timestamp time.Time `json:"timestamp"`
}

// NewUserMessage creates a pending user message.
func NewUserMessage(text string) *Message {
	return &Message{
		ID:        generateID(),
		Role:      RoleUser,
		Text:      text,
		State:     StatePending,
		Timestamp: time.Now(),
	}
}

// NewBotMessage creates a resolved bot message.
func NewBotMessage(text string) *Message {
	return &Message{
		ID:        generateID(),
		Role:      RoleBot,
		Text:      text,
		State:     StateResolved,
		Timestamp: time.Now(),
	}
}

// IsUser reports whether the user authored the message.
func (m *Message) IsUser() bool {
	return m.Role == RoleUser
}

// IsPending reports whether the message still awaits its answer.
func (m *Message) IsPending() bool {
	return m.State == StatePending
}

// Resolve marks the message as answered.
func (m *Message) Resolve() {
	m.State = StateResolved
}

// Fail marks the message as unanswered.
func (m *Message) Fail() {
	m.State = StateFailed
}

func generateID() string {
	return "msg_" + uuid.NewString()
}
