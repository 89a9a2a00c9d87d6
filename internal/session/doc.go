// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session persists and validates the login credential.
//
// The credential is a signed bearer token issued by the backend. This
// package stores it under a single key in an injected Storage, decodes its
// payload for the username and expiry, and lets the UI react when it
// expires or changes on disk.
//
// # Key Types
//
//   - Store: Load, Save and Clear the credential
//   - Storage: Key/value backend (FileStorage, SQLiteStorage, MemoryStorage)
//   - Claims: Subject and expiry decoded from the token payload
//   - Watcher: fsnotify watcher on the credential file
//   - ExpiryMsg / StorageChangedMsg: Bubble Tea messages
//
// # Usage
//
//	storage, err := session.OpenStorage(session.BackendFile, path)
//	if err != nil {
//	    return err
//	}
//	store := session.NewStore(storage)
//	token, claims, err := store.LoadValid(time.Now())
//	if errors.Is(err, session.ErrTokenExpired) {
//	    // show the login form
//	}
//
// # Expiry
//
// A credential whose exp, in milliseconds, is earlier than the current time
// is expired. A credential without exp is treated as unexpired.
package session
