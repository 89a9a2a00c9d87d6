// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth provides the login and registration form.
//
// The form has two modes. Register creates an account and switches to login
// mode on success. Login obtains a credential and reports it with
// LoggedInMsg; persisting it is the caller's job.
//
// # Key Types
//
//   - Model: Bubble Tea model for the form
//   - Authenticator: The two backend calls the form needs
//   - LoggedInMsg: Emitted with the new credential
//
// # Usage
//
//	form := auth.New(client, theme)
//	// in the parent Update:
//	case auth.LoggedInMsg:
//	    return m.login(msg.Token)
package auth
