// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captured records what the fake backend received.
type captured struct {
	method   string
	path     string
	auth     string
	reqID    string
	fields   map[string]string
	fileName string
	fileData string
}

func newBackend(t *testing.T, status int, body string) (*Client, *captured) {
	t.Helper()
	got := &captured{fields: map[string]string{}}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.Path
		got.auth = r.Header.Get("Authorization")
		got.reqID = r.Header.Get("X-Request-ID")

		if r.Method == http.MethodPost {
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("ParseMultipartForm: %v", err)
			}
			for k, v := range r.MultipartForm.Value {
				got.fields[k] = v[0]
			}
			if fhs := r.MultipartForm.File["file"]; len(fhs) > 0 {
				got.fileName = fhs[0].Filename
				if f, err := fhs[0].Open(); err == nil {
					data, _ := io.ReadAll(f)
					f.Close()
					got.fileData = string(data)
				}
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	return NewClientWithConfig(&ClientConfig{BaseURL: srv.URL + "/"}), got
}

// =============================================================================
// AUTH
// =============================================================================

func TestRegister_SendsCredentials(t *testing.T) {
	client, got := newBackend(t, http.StatusOK, `{"msg":"User registered successfully"}`)

	resp, err := client.Register(context.Background(), "alice", "pw")
	require.NoError(t, err)

	assert.Equal(t, "User registered successfully", resp.Msg)
	assert.Equal(t, "/register", got.path)
	assert.Equal(t, "alice", got.fields["username"])
	assert.Equal(t, "pw", got.fields["password"])
	assert.Empty(t, got.auth, "register is unauthenticated")
	assert.NotEmpty(t, got.reqID)
}

func TestRegister_RejectionIsNotAnError(t *testing.T) {
	client, _ := newBackend(t, http.StatusBadRequest, `{"detail":"Username already registered"}`)

	resp, err := client.Register(context.Background(), "alice", "pw")
	require.NoError(t, err)
	assert.Empty(t, resp.Msg)
	assert.Equal(t, Detail("Username already registered"), resp.Detail)
}

func TestLogin_Success(t *testing.T) {
	client, got := newBackend(t, http.StatusOK, `{"access_token":"a.b.c","token_type":"bearer"}`)

	resp, err := client.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, "a.b.c", resp.AccessToken)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, "/login", got.path)
}

func TestLogin_RejectsNonSuccess(t *testing.T) {
	client, _ := newBackend(t, http.StatusUnauthorized, `{"detail":"Invalid credentials"}`)

	resp, err := client.Login(context.Background(), "alice", "bad")
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, IsLoginFailed(err))

	var ce *ClientError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, http.StatusUnauthorized, ce.StatusCode)
}

func TestLogin_SuccessWithoutToken(t *testing.T) {
	client, _ := newBackend(t, http.StatusOK, `{}`)

	resp, err := client.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)
	assert.Empty(t, resp.AccessToken)
}

// =============================================================================
// FILES
// =============================================================================

func TestListFiles_MixedRecordForms(t *testing.T) {
	client, got := newBackend(t, http.StatusOK,
		`{"files":["plain.txt",{"owner":"alice","original_filename":"report.pdf","stored_path":"u/1.pdf"}]}`)

	resp, err := client.ListFiles(context.Background(), "tok")
	require.NoError(t, err)

	require.Len(t, resp.Files, 2)
	assert.Equal(t, "plain.txt", resp.Files[0].DisplayName())
	assert.Equal(t, "report.pdf", resp.Files[1].DisplayName())
	assert.Equal(t, http.MethodGet, got.method)
	assert.Equal(t, "Bearer tok", got.auth)
}

func TestListFiles_ErrorStatusStillDecoded(t *testing.T) {
	client, _ := newBackend(t, http.StatusUnauthorized, `{"detail":"Could not validate credentials"}`)

	resp, err := client.ListFiles(context.Background(), "stale")
	require.NoError(t, err)
	assert.Empty(t, resp.Files)
	assert.Equal(t, Detail("Could not validate credentials"), resp.Detail)
}

func TestUploadFile_SendsFilePart(t *testing.T) {
	client, got := newBackend(t, http.StatusOK, `{"success":true,"detail":"notes.txt uploaded"}`)

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0600))

	ack, err := client.UploadFile(context.Background(), path, "tok")
	require.NoError(t, err)

	assert.True(t, ack.Success)
	assert.Equal(t, "notes.txt uploaded", ack.Message())
	assert.Equal(t, "/upload", got.path)
	assert.Equal(t, "notes.txt", got.fileName)
	assert.Equal(t, "hello world", got.fileData)
	assert.Equal(t, "Bearer tok", got.auth)
}

func TestUploadFile_MissingFile(t *testing.T) {
	client, _ := newBackend(t, http.StatusOK, `{}`)

	_, err := client.UploadFile(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"), "tok")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestDeleteFile_SendsName(t *testing.T) {
	client, got := newBackend(t, http.StatusOK, `{"result":"'report.pdf' deleted."}`)

	ack, err := client.DeleteFile(context.Background(), "report.pdf", "tok")
	require.NoError(t, err)
	assert.Equal(t, "'report.pdf' deleted.", ack.Message())
	assert.Equal(t, "report.pdf", got.fields["file_name"])
}

// =============================================================================
// CHAT
// =============================================================================

func TestPostQuery_Answer(t *testing.T) {
	client, got := newBackend(t, http.StatusOK, `{"answer":"It contains X."}`)

	resp, err := client.PostQuery(context.Background(), "What is in my document?", "alice", "tok")
	require.NoError(t, err)

	require.True(t, resp.HasAnswer())
	assert.Equal(t, "It contains X.", *resp.Answer)
	assert.Equal(t, "What is in my document?", got.fields["question"])
	assert.Equal(t, "alice", got.fields["user_id"])
	assert.Equal(t, "Bearer tok", got.auth)
}

func TestPostQuery_NoAnswerField(t *testing.T) {
	client, _ := newBackend(t, http.StatusInternalServerError, `{"detail":"boom"}`)

	resp, err := client.PostQuery(context.Background(), "q", "alice", "tok")
	require.NoError(t, err)
	assert.False(t, resp.HasAnswer())
}

func TestPostQuery_UndecodableBody(t *testing.T) {
	client, _ := newBackend(t, http.StatusBadGateway, `<html>bad gateway</html>`)

	_, err := client.PostQuery(context.Background(), "q", "alice", "tok")
	require.Error(t, err)
	assert.True(t, IsInvalidResponse(err))
}

func TestClearHistory_SendsUser(t *testing.T) {
	client, got := newBackend(t, http.StatusOK, `{"result":"Chat history cleared : alice"}`)

	ack, err := client.ClearHistory(context.Background(), "alice", "tok")
	require.NoError(t, err)
	assert.Equal(t, "Chat history cleared : alice", ack.Message())
	assert.Equal(t, "/clear", got.path)
	assert.Equal(t, "alice", got.fields["user_id"])
}

// =============================================================================
// TRANSPORT ERRORS
// =============================================================================

func TestTransport_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: url})
	_, err := client.ListFiles(context.Background(), "tok")
	require.Error(t, err)
	assert.True(t, IsConnection(err))
}

func TestTransport_Canceled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := client.PostQuery(ctx, "q", "alice", "tok")
	require.Error(t, err)
	assert.True(t, IsCanceled(err))
}

func TestTransport_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.ListFiles(ctx, "tok")
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
}

func TestRateLimit_ContextCanceledWhileWaiting(t *testing.T) {
	client, _ := newBackend(t, http.StatusOK, `{"files":[]}`)
	client = NewClientWithConfig(&ClientConfig{BaseURL: client.BaseURL(), RateLimit: 0.001})

	_, err := client.ListFiles(context.Background(), "tok")
	require.NoError(t, err, "first request uses the burst")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.ListFiles(ctx, "tok")
	require.Error(t, err)
	assert.True(t, IsCanceled(err))
}

// =============================================================================
// DETAIL
// =============================================================================

func TestDetail_Shapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want Detail
	}{
		{"string", `{"detail":"nope"}`, "nope"},
		{"validation array", `{"detail":[{"loc":["body","username"],"msg":"field required"},{"msg":"too short"}]}`, "field required; too short"},
		{"object", `{"detail":{"code":7}}`, `{"code":7}`},
		{"null", `{"detail":null}`, ""},
		{"number", `{"detail":42}`, "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newBackend(t, http.StatusBadRequest, tt.body)
			resp, err := client.Register(context.Background(), "u", "p")
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.Detail)
		})
	}
}
