// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the queryosity packages.
//
// # Key Functions
//
// File Operations:
//   - WriteFileAtomic: crash-safe file writing with fsync and rename
//
// Display:
//   - Truncate: cell-width aware truncation with an ellipsis
//   - PadRight: pad a string to a terminal cell width
//
// # Usage
//
//	// Persist the credential file so a crash never leaves half a document
//	err := util.WriteFileAtomic(path, data, 0600, 0700)
//
//	// Fit a document name into the sidebar
//	name := util.Truncate(record.DisplayName(), 24)
package util
