// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for transcripts, messages and files.
//
// This package defines the domain types shared by the API client, the
// chat view and the command line.
//
// # Key Types
//
//   - Transcript: Ordered, append-only list of messages for one session
//   - Message: Single entry with role, text, state and timestamp
//   - State: Request lifecycle of a user message (pending, resolved, failed)
//   - FileRecord: Uploaded document as listed by the backend
//
// # Usage
//
// Start a transcript and record an exchange:
//
//	t := model.NewTranscript(model.WelcomeText)
//	q := t.AppendUser("What is in my document?")
//	q.Resolve()
//	t.AppendBot("It contains X.")
package model
