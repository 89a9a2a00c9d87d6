// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// Fixed transcript texts shown by the chat view.
const (
	WelcomeText = "Welcome to Queryosity Ask me anything about your uploaded documents."
	ApologyText = "⚠️ Sorry, I couldn’t get a response. Please try again."
	ClearedText = "🧹 Chat history cleared. Ask something new!"
)

// =============================================================================
// TRANSCRIPT TYPE
// =============================================================================

// Transcript is the ordered message list of one chat session. Entries are
// only appended; Reset replaces the whole list.
type Transcript struct {
	Messages []*Message
}

// NewTranscript creates a transcript seeded with one bot message.
func NewTranscript(seed string) *Transcript {
	t := &Transcript{}
	t.Reset(seed)
	return t
}

// Append adds a message to the end of the transcript.
func (t *Transcript) Append(msg *Message) {
	t.Messages = append(t.Messages, msg)
}

// AppendUser appends a pending user message and returns it.
func (t *Transcript) AppendUser(text string) *Message {
	msg := NewUserMessage(text)
	t.Append(msg)
	return msg
}

// AppendBot appends a bot message and returns it.
func (t *Transcript) AppendBot(text string) *Message {
	msg := NewBotMessage(text)
	t.Append(msg)
	return msg
}

// Reset replaces the transcript with a single bot message.
func (t *Transcript) Reset(text string) {
	t.Messages = []*Message{NewBotMessage(text)}
}

// Find returns the message with the given ID, or nil.
func (t *Transcript) Find(id string) *Message {
	for _, msg := range t.Messages {
		if msg.ID == id {
			return msg
		}
	}
	return nil
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	return len(t.Messages)
}

// Last returns the most recent message, or nil when empty.
func (t *Transcript) Last() *Message {
	if len(t.Messages) == 0 {
		return nil
	}
	return t.Messages[len(t.Messages)-1]
}

// Pending returns the messages still awaiting an answer.
func (t *Transcript) Pending() []*Message {
	var out []*Message
	for _, msg := range t.Messages {
		if msg.IsPending() {
			out = append(out, msg)
		}
	}
	return out
}

// FailPending marks every pending message as failed.
func (t *Transcript) FailPending() {
	for _, msg := range t.Messages {
		if msg.IsPending() {
			msg.Fail()
		}
	}
}

// Texts returns the message texts in order.
func (t *Transcript) Texts() []string {
	out := make([]string, len(t.Messages))
	for i, msg := range t.Messages {
		out[i] = msg.Text
	}
	return out
}
