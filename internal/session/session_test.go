// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

// rawToken builds a token around an arbitrary payload.
func rawToken(payload string) string {
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`)) + "." +
		enc.EncodeToString([]byte(payload)) + ".c2ln"
}

// =============================================================================
// CLAIMS TESTS
// =============================================================================

func TestParseClaims_SubjectAndExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signToken(t, jwt.MapClaims{"sub": "alice", "exp": exp.Unix()})

	c, err := ParseClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", c.Subject)
	assert.True(t, c.HasExpiry)
	assert.True(t, c.ExpiresAt.Equal(exp))
}

func TestParseClaims_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"two segments", "abc.def"},
		{"payload not json", rawToken("{{{")},
		{"exp is a string", rawToken(`{"sub":"alice","exp":"tomorrow"}`)},
		{"sub is a number", rawToken(`{"sub":42}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseClaims(tt.token)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedToken)
		})
	}
}

func TestParseClaims_Empty(t *testing.T) {
	_, err := ParseClaims("")
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestValidate_Expiry(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	tests := []struct {
		name    string
		payload string
		wantErr error
	}{
		{"future", `{"sub":"a","exp":1700000060}`, nil},
		{"exactly now", `{"sub":"a","exp":1700000000}`, nil},
		{"one second ago", `{"sub":"a","exp":1699999999}`, ErrTokenExpired},
		{"no exp", `{"sub":"a"}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(rawToken(tt.payload), now)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClaims_Remaining(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	c := &Claims{ExpiresAt: now.Add(90 * time.Second), HasExpiry: true}

	assert.Equal(t, 90*time.Second, c.Remaining(now))
	assert.Equal(t, time.Duration(0), c.Remaining(now.Add(time.Hour)))
	assert.Equal(t, time.Duration(0), (&Claims{}).Remaining(now))
}

// =============================================================================
// STORAGE TESTS
// =============================================================================

func backends(t *testing.T) map[string]Storage {
	t.Helper()
	dir := t.TempDir()

	sqlite, err := NewSQLiteStorage(filepath.Join(dir, "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Storage{
		"memory": NewMemoryStorage(),
		"file":   NewFileStorage(filepath.Join(dir, "credentials.json")),
		"sqlite": sqlite,
	}
}

func TestStore_LoadSaveClear(t *testing.T) {
	for name, storage := range backends(t) {
		t.Run(name, func(t *testing.T) {
			store := NewStore(storage)

			token, err := store.Load()
			require.NoError(t, err)
			assert.Empty(t, token, "fresh store is empty")

			require.NoError(t, store.Save("first"))
			require.NoError(t, store.Save("second"))
			token, err = store.Load()
			require.NoError(t, err)
			assert.Equal(t, "second", token)

			v, ok, err := storage.Get(TokenKey)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "second", v)

			require.NoError(t, store.Clear())
			require.NoError(t, store.Clear(), "clearing twice is fine")
			token, err = store.Load()
			require.NoError(t, err)
			assert.Empty(t, token)
		})
	}
}

func TestStore_LoadValidClearsExpired(t *testing.T) {
	store := NewStore(NewMemoryStorage())
	require.NoError(t, store.Save(rawToken(`{"sub":"alice","exp":1000}`)))

	_, _, err := store.LoadValid(time.Unix(2000, 0))
	assert.ErrorIs(t, err, ErrTokenExpired)

	token, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, token, "expired credential removed from storage")
}

func TestStore_LoadValidClearsMalformed(t *testing.T) {
	store := NewStore(NewMemoryStorage())
	require.NoError(t, store.Save("garbage"))

	_, _, err := store.LoadValid(time.Now())
	assert.ErrorIs(t, err, ErrMalformedToken)

	token, _ := store.Load()
	assert.Empty(t, token)
}

func TestStore_LoadValidEmpty(t *testing.T) {
	store := NewStore(NewMemoryStorage())
	_, _, err := store.LoadValid(time.Now())
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestFileStorage_Permissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits not enforced on windows")
	}
	path := filepath.Join(t.TempDir(), "nested", "credentials.json")
	fs := NewFileStorage(path)
	require.NoError(t, fs.Set(TokenKey, "secret"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileStorage_CorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0600))
	fs := NewFileStorage(path)

	_, _, err := fs.Get(TokenKey)
	assert.Error(t, err)

	require.NoError(t, fs.Set(TokenKey, "fresh"))
	v, ok, err := fs.Get(TokenKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "fresh", v)
}

func TestOpenStorage(t *testing.T) {
	dir := t.TempDir()

	s, err := OpenStorage(BackendFile, filepath.Join(dir, "c.json"))
	require.NoError(t, err)
	assert.IsType(t, &FileStorage{}, s)
	assert.NoError(t, CloseStorage(s))

	s, err = OpenStorage(BackendSQLite, filepath.Join(dir, "s.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStorage{}, s)
	assert.NoError(t, CloseStorage(s))

	_, err = OpenStorage("etcd", "")
	assert.Error(t, err)
}

// =============================================================================
// WATCHER TESTS
// =============================================================================

func TestWatcher_ReportsExternalChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	w, err := NewWatcher(path, 20*time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	other := NewFileStorage(path)
	require.NoError(t, other.Set(TokenKey, "from-another-terminal"))

	select {
	case _, ok := <-w.Changes():
		assert.True(t, ok)
	case <-time.After(3 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestWatcher_IgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(filepath.Join(dir, "credentials.json"), 20*time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("x"), 0600))

	select {
	case <-w.Changes():
		t.Fatal("sibling change reported")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_CloseEndsWait(t *testing.T) {
	w, err := NewWatcher(filepath.Join(t.TempDir(), "credentials.json"), time.Millisecond)
	require.NoError(t, err)

	cmd := WaitForChange(w)
	done := make(chan any, 1)
	go func() { done <- cmd() }()

	require.NoError(t, w.Close())
	select {
	case msg := <-done:
		assert.Nil(t, msg)
	case <-time.After(3 * time.Second):
		t.Fatal("WaitForChange did not return after Close")
	}
}

// =============================================================================
// EXPIRY TESTS
// =============================================================================

func TestExpiryCmd(t *testing.T) {
	assert.Nil(t, ExpiryCmd("tok", &Claims{}, time.Now()), "no exp, no tick")
	assert.Nil(t, ExpiryCmd("tok", nil, time.Now()))

	now := time.Now()
	cmd := ExpiryCmd("tok", &Claims{ExpiresAt: now.Add(-time.Second), HasExpiry: true}, now)
	require.NotNil(t, cmd)

	msg, ok := cmd().(ExpiryMsg)
	require.True(t, ok)
	assert.Equal(t, "tok", msg.Token)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "30s"},
		{5 * time.Minute, "5m"},
		{5*time.Minute + 30*time.Second, "5m 30s"},
		{2 * time.Hour, "2h"},
		{2*time.Hour + 15*time.Minute, "2h 15m"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestErrorsAreDistinct(t *testing.T) {
	assert.False(t, errors.Is(ErrTokenExpired, ErrMalformedToken))
}
