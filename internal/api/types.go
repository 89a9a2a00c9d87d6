// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/jeranaias/queryosity-tui/internal/model"
)

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// RegisterResponse is the body of POST /register. Msg is set on success,
// Detail on rejection.
type RegisterResponse struct {
	Msg    string `json:"msg,omitempty"`
	Detail Detail `json:"detail,omitempty"`
}

// LoginResponse is the body of a successful POST /login.
type LoginResponse struct {
	AccessToken string `json:"access_token,omitempty"`
	TokenType   string `json:"token_type,omitempty"`
}

// FilesResponse is the body of GET /files.
type FilesResponse struct {
	Files  []model.FileRecord `json:"files"`
	Detail Detail             `json:"detail,omitempty"`
}

// Ack is the body of the upload, delete and clear endpoints.
type Ack struct {
	Success bool   `json:"success,omitempty"`
	Detail  Detail `json:"detail,omitempty"`
	Result  Detail `json:"result,omitempty"`
}

// Message returns the most descriptive text the backend sent.
func (a Ack) Message() string {
	if a.Result != "" {
		return string(a.Result)
	}
	return string(a.Detail)
}

// QueryResponse is the body of POST /chat. Answer is nil when the backend
// sent no answer field.
type QueryResponse struct {
	Answer *string `json:"answer,omitempty"`
	Detail Detail  `json:"detail,omitempty"`
}

// HasAnswer reports whether the response carries an answer.
func (q QueryResponse) HasAnswer() bool {
	return q.Answer != nil
}

// =============================================================================
// DETAIL
// =============================================================================

// Detail is a human-readable message field that tolerates the shapes the
// backend emits: a plain string, a validation error array, or any other JSON.
type Detail string

// UnmarshalJSON flattens the supported shapes to text.
func (d *Detail) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*d = ""
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = Detail(s)
		return nil
	case data[0] == '[':
		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(data, &items); err == nil {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if it.Msg != "" {
					msgs = append(msgs, it.Msg)
				}
			}
			if len(msgs) > 0 {
				*d = Detail(strings.Join(msgs, "; "))
				return nil
			}
		}
	}

	*d = Detail(data)
	return nil
}
