// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the Queryosity backend.
//
// The client is a stateless facade over the seven backend endpoints. Every
// request body is a multipart form; authenticated calls carry the bearer
// token passed by the caller.
//
// # Error Policy
//
// Only Login fails on a non-success status. The other calls decode whatever
// body the backend returned and leave the verdict to the caller; they fail
// only when the request could not be made or the body is not JSON.
//
// # Key Types
//
//   - Client: HTTP client for the backend
//   - ClientError: Typed error with ErrorType for handling
//   - QueryResponse: Answer to a question (Answer is nil when absent)
//   - Ack: Upload, delete and clear acknowledgement
//   - Detail: Backend message tolerant of string, array and object forms
//
// # Usage
//
//	client := api.NewClientWithConfig(&api.ClientConfig{
//	    BaseURL: "http://127.0.0.1:8000",
//	})
//	files, err := client.ListFiles(ctx, token)
//	if err != nil {
//	    return err
//	}
//	for _, f := range files.Files {
//	    fmt.Println(f.DisplayName())
//	}
package api
