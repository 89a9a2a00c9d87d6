// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/queryosity-tui/internal/api"
	"github.com/jeranaias/queryosity-tui/internal/config"
	"github.com/jeranaias/queryosity-tui/internal/model"
	"github.com/jeranaias/queryosity-tui/internal/session"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func signed(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

// backend is a minimal Queryosity server.
type backend struct {
	t     *testing.T
	token string

	mu        sync.Mutex
	files     []string
	questions []string
	cleared   []string
}

func newBackend(t *testing.T) (*backend, *httptest.Server) {
	b := &backend{t: t, token: signed(t, "alice", time.Now().Add(time.Hour))}
	mux := http.NewServeMux()

	reply := func(w http.ResponseWriter, status int, body any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}
	authorized := func(w http.ResponseWriter, r *http.Request) bool {
		if r.Header.Get("Authorization") != "Bearer "+b.token {
			reply(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
			return false
		}
		return true
	}
	form := func(r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
		}
	}

	mux.HandleFunc("/register", func(w http.ResponseWriter, r *http.Request) {
		form(r)
		if r.FormValue("username") == "taken" {
			reply(w, http.StatusBadRequest, map[string]string{"detail": "Username already registered"})
			return
		}
		reply(w, http.StatusOK, map[string]string{"msg": "User registered successfully"})
	})
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		form(r)
		if r.FormValue("username") != "alice" || r.FormValue("password") != "pw" {
			reply(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid credentials"})
			return
		}
		reply(w, http.StatusOK, map[string]string{"access_token": b.token, "token_type": "bearer"})
	})
	mux.HandleFunc("/files", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		reply(w, http.StatusOK, map[string]any{"files": append([]string{}, b.files...)})
	})
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		form(r)
		_, fh, err := r.FormFile("file")
		if err != nil {
			reply(w, http.StatusBadRequest, map[string]string{"detail": "no file"})
			return
		}
		b.mu.Lock()
		b.files = append(b.files, fh.Filename)
		b.mu.Unlock()
		reply(w, http.StatusOK, map[string]any{"success": true, "detail": fh.Filename + " uploaded"})
	})
	mux.HandleFunc("/delete", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		form(r)
		name := r.FormValue("file_name")
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, f := range b.files {
			if f == name {
				b.files = append(b.files[:i], b.files[i+1:]...)
				reply(w, http.StatusOK, map[string]string{"result": fmt.Sprintf("'%s' deleted.", name)})
				return
			}
		}
		reply(w, http.StatusNotFound, map[string]string{"detail": "File not found"})
	})
	mux.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		form(r)
		b.mu.Lock()
		b.questions = append(b.questions, r.FormValue("question"))
		b.mu.Unlock()
		reply(w, http.StatusOK, map[string]string{"answer": "It contains **X**."})
	})
	mux.HandleFunc("/clear", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		form(r)
		b.mu.Lock()
		b.cleared = append(b.cleared, r.FormValue("user_id"))
		b.mu.Unlock()
		reply(w, http.StatusOK, map[string]string{"result": "Chat history cleared : " + r.FormValue("user_id")})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return b, srv
}

// env is one isolated configuration directory and backend.
type env struct {
	t   *testing.T
	dir string
	srv *httptest.Server
	be  *backend
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("QUERYOSITY_HOME", dir)
	t.Setenv("QUERYOSITY_BASE_URL", "")
	t.Setenv("QUERYOSITY_SESSION_BACKEND", "")
	t.Setenv("QUERYOSITY_SESSION_PATH", "")
	config.ResetGlobalForTesting()

	be, srv := newBackend(t)
	return &env{t: t, dir: dir, srv: srv, be: be}
}

type result struct {
	code   int
	stdout string
	stderr string
}

// run executes one invocation with stdin.
func (e *env) run(stdin string, args ...string) result {
	var out, errOut bytes.Buffer
	a := &App{
		In:  strings.NewReader(stdin),
		Out: &out,
		Err: &errOut,
		Now: time.Now,
	}
	code := a.Run(append([]string{"--base-url", e.srv.URL}, args...))
	return result{code: code, stdout: out.String(), stderr: errOut.String()}
}

func (e *env) storedToken() string {
	e.t.Helper()
	v, ok, err := session.NewFileStorage(filepath.Join(e.dir, "credentials.json")).Get(session.TokenKey)
	require.NoError(e.t, err)
	if !ok {
		return ""
	}
	return v
}

func (e *env) storeToken(token string) {
	e.t.Helper()
	require.NoError(e.t, session.NewFileStorage(filepath.Join(e.dir, "credentials.json")).Set(session.TokenKey, token))
}

// =============================================================================
// SESSION COMMANDS
// =============================================================================

func TestLoginWhoamiLogout(t *testing.T) {
	e := newEnv(t)

	res := e.run("pw\n", "login", "-u", "alice")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Logged in as alice")
	assert.Contains(t, res.stdout, "expires in")
	assert.Equal(t, e.be.token, e.storedToken())

	res = e.run("", "whoami")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "alice")
	assert.Contains(t, res.stdout, e.srv.URL)

	res = e.run("", "logout")
	require.Equal(t, ExitSuccess, res.code)
	assert.Empty(t, e.storedToken())

	res = e.run("", "whoami")
	assert.Equal(t, ExitAuthError, res.code)
	assert.Contains(t, res.stderr, "not logged in")
}

func TestLogin_PromptsForUsername(t *testing.T) {
	e := newEnv(t)

	res := e.run("alice\npw\n", "login")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stderr, "Username:")
	assert.Contains(t, res.stderr, "Password:")
}

func TestLogin_InvalidCredentials(t *testing.T) {
	e := newEnv(t)

	res := e.run("wrong\n", "login", "-u", "alice")
	assert.Equal(t, ExitAuthError, res.code)
	assert.Contains(t, res.stderr, "invalid username or password")
	assert.Empty(t, e.storedToken())
}

func TestLogin_BlankPassword(t *testing.T) {
	e := newEnv(t)

	res := e.run("\n", "login", "-u", "alice")
	assert.Equal(t, ExitGeneralError, res.code)
	assert.Contains(t, res.stderr, "username and password are required")
}

func TestRegister(t *testing.T) {
	e := newEnv(t)

	res := e.run("pw\n", "register", "-u", "bob")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "User registered successfully")

	res = e.run("pw\n", "register", "-u", "taken")
	assert.Equal(t, ExitGeneralError, res.code)
	assert.Contains(t, res.stderr, "Username already registered")
}

func TestExpiredCredentialIsCleared(t *testing.T) {
	e := newEnv(t)
	e.storeToken(signed(t, "alice", time.Now().Add(-time.Minute)))

	res := e.run("", "files")
	assert.Equal(t, ExitAuthError, res.code)
	assert.Contains(t, res.stderr, "session expired")
	assert.Empty(t, e.storedToken())
}

// =============================================================================
// DOCUMENT COMMANDS
// =============================================================================

func TestFiles_UploadListDelete(t *testing.T) {
	e := newEnv(t)
	e.storeToken(e.be.token)

	res := e.run("", "files")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "No files uploaded yet.")

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0600))

	res = e.run("", "upload", path)
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "notes.txt uploaded")

	res = e.run("", "files")
	require.Equal(t, ExitSuccess, res.code)
	assert.Equal(t, "notes.txt\n", res.stdout)

	res = e.run("", "delete", "notes.txt")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "'notes.txt' deleted.")

	res = e.run("", "delete", "notes.txt")
	assert.Equal(t, ExitGeneralError, res.code)
	assert.Contains(t, res.stderr, "File not found")
}

func TestUpload_RejectsOtherTypes(t *testing.T) {
	e := newEnv(t)
	e.storeToken(e.be.token)

	path := filepath.Join(t.TempDir(), "sheet.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0600))

	res := e.run("", "upload", path)
	assert.Equal(t, ExitGeneralError, res.code)
	assert.Contains(t, res.stderr, ".pdf, .txt")
	assert.Empty(t, e.be.files)
}

func TestFiles_RequiresLogin(t *testing.T) {
	e := newEnv(t)

	res := e.run("", "files")
	assert.Equal(t, ExitAuthError, res.code)
	assert.Contains(t, res.stderr, "[ERROR]")
}

// =============================================================================
// CONVERSATION COMMANDS
// =============================================================================

func TestAsk_PrintsAnswer(t *testing.T) {
	e := newEnv(t)
	e.storeToken(e.be.token)

	res := e.run("", "ask", "What", "is", "in", "my", "document?")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Equal(t, "It contains **X**.\n", res.stdout, "non-terminal output is left as markdown")
	assert.Equal(t, []string{"What is in my document?"}, e.be.questions)
}

func TestClear(t *testing.T) {
	e := newEnv(t)
	e.storeToken(e.be.token)

	res := e.run("", "clear")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, model.ClearedText)
	assert.Equal(t, []string{"alice"}, e.be.cleared)
}

func TestChat_Script(t *testing.T) {
	e := newEnv(t)
	e.storeToken(e.be.token)
	e.be.files = []string{"report.pdf"}

	script := strings.Join([]string{
		"  What is in my document?  ",
		"",
		"/files",
		"/bogus",
		"/clear",
		"/quit",
		"never sent",
	}, "\n") + "\n"

	res := e.run(script, "chat")
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	assert.Contains(t, res.stdout, model.WelcomeText)
	assert.Contains(t, res.stdout, "alice> ")
	assert.Contains(t, res.stdout, "It contains **X**.")
	assert.Contains(t, res.stdout, "report.pdf")
	assert.Contains(t, res.stderr, "unknown command")
	assert.Equal(t, []string{"  What is in my document?  "}, e.be.questions, "questions are sent as typed")
	assert.Equal(t, []string{"alice"}, e.be.cleared)
}

func TestChat_EndOfInputQuits(t *testing.T) {
	e := newEnv(t)
	e.storeToken(e.be.token)

	res := e.run("hello", "chat")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Equal(t, []string{"hello"}, e.be.questions)
}

func TestChat_FailedFileCommandsStillList(t *testing.T) {
	e := newEnv(t)
	e.storeToken(e.be.token)
	e.be.files = []string{"report.pdf"}

	sheet := filepath.Join(t.TempDir(), "sheet.xlsx")
	require.NoError(t, os.WriteFile(sheet, []byte("x"), 0600))

	res := e.run("/delete nope.pdf\n/upload "+sheet+"\n/quit\n", "chat")
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	assert.Contains(t, res.stderr, "File not found")
	assert.Contains(t, res.stderr, ".pdf, .txt")
	assert.Equal(t, 2, strings.Count(res.stdout, "report.pdf"), "listing printed after each failure")
}

func TestChat_CanceledQueryIsNotAnApology(t *testing.T) {
	e := newEnv(t)

	var out, errOut bytes.Buffer
	a := &App{
		In:     strings.NewReader("What is in my document?\n/quit\n"),
		Out:    &out,
		Err:    &errOut,
		Now:    time.Now,
		Client: api.NewClientWithConfig(&api.ClientConfig{BaseURL: e.srv.URL}),
		Store:  session.NewStore(session.NewMemoryStorage()),
		Logger: slog.New(slog.NewTextHandler(&errOut, nil)),
	}
	claims, err := session.Validate(e.be.token, time.Now())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, a.repl(ctx, plainReader{app: a}, e.be.token, claims))

	assert.Contains(t, out.String(), "Canceled.")
	assert.NotContains(t, out.String(), model.ApologyText)
	assert.Empty(t, e.be.questions)
}

// =============================================================================
// CONFIG COMMAND
// =============================================================================

func TestConfigCommand(t *testing.T) {
	e := newEnv(t)
	path := filepath.Join(e.dir, "config.toml")

	res := e.run("", "config", "path")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Equal(t, path+"\n", res.stdout)

	res = e.run("", "config", "init")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# queryosity configuration file")

	res = e.run("", "config", "init")
	assert.Equal(t, ExitGeneralError, res.code)
	assert.Contains(t, res.stderr, "already exists")

	res = e.run("", "config", "init", "--force")
	assert.Equal(t, ExitSuccess, res.code, res.stderr)

	res = e.run("", "config", "show")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, fmt.Sprintf("base_url = %q", e.srv.URL), "flag override is shown")
	assert.Contains(t, res.stdout, `backend = "file"`)
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

func TestRoot_NeedsTerminal(t *testing.T) {
	e := newEnv(t)

	res := e.run("")
	assert.Equal(t, ExitGeneralError, res.code)
	assert.Contains(t, res.stderr, "needs a terminal")
}

func TestWatchSession_FileBackendOnly(t *testing.T) {
	dir := t.TempDir()
	a := &App{Config: config.Default(), Logger: slog.Default()}

	a.Store = session.NewStore(session.NewFileStorage(filepath.Join(dir, "credentials.json")))
	w := a.watchSession()
	require.NotNil(t, w)
	require.NoError(t, w.Close())

	a.Config.Session.Watch = false
	assert.Nil(t, a.watchSession())

	a.Config.Session.Watch = true
	a.Store = session.NewStore(session.NewMemoryStorage())
	assert.Nil(t, a.watchSession())
}

func TestRoot_UnknownCommand(t *testing.T) {
	e := newEnv(t)

	res := e.run("", "frobnicate")
	assert.Equal(t, ExitUsageError, res.code)
}

func TestRoot_InvalidBaseURL(t *testing.T) {
	newEnv(t)

	var errOut bytes.Buffer
	a := &App{In: strings.NewReader(""), Out: &bytes.Buffer{}, Err: &errOut, Now: time.Now}
	code := a.Run([]string{"--base-url", "ftp://nowhere", "whoami"})
	assert.Equal(t, ExitConfigError, code)
	assert.Contains(t, errOut.String(), "server.base_url")
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"not logged in", ErrNotLoggedIn, ExitAuthError},
		{"expired", fmt.Errorf("wrap: %w", ErrSessionExpired), ExitAuthError},
		{"login failed", fmt.Errorf("x: %w", api.ErrLoginFailed), ExitAuthError},
		{"connection", NewCommandError("files", "request failed", api.ErrConnection), ExitNetworkError},
		{"timeout", api.ErrTimeout, ExitTimeoutError},
		{"unreadable reply", fmt.Errorf("ask: %w", api.ErrInvalidResponse), ExitNetworkError},
		{"config", config.ValidateErrors{{Field: "ui.theme", Message: "bad"}}, ExitConfigError},
		{"other", errors.New("boom"), ExitGeneralError},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("ExitCode(%s) = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestCommandError(t *testing.T) {
	err := NewCommandError("upload", "notes.txt", api.ErrConnection)
	assert.Equal(t, "upload failed: notes.txt: "+api.ErrConnection.Error(), err.Error())
	assert.ErrorIs(t, err, api.ErrConnection)
}
