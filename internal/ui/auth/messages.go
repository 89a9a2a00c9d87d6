// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"sync/atomic"

	"github.com/jeranaias/queryosity-tui/internal/api"
)

var formSeq atomic.Int64

// LoggedInMsg carries a freshly issued credential to the parent model.
type LoggedInMsg struct {
	Token string
}

// registerResultMsg is the outcome of a registration request.
type registerResultMsg struct {
	form int64
	gen  int
	resp *api.RegisterResponse
	err  error
}

// loginResultMsg is the outcome of a login request.
type loginResultMsg struct {
	form int64
	gen  int
	resp *api.LoginResponse
	err  error
}
