// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/queryosity-tui/internal/api"
	"github.com/jeranaias/queryosity-tui/internal/ui/styles"
)

type fakeAuth struct {
	mu        sync.Mutex
	registers int
	logins    int
	lastUser  string
	lastPass  string

	registerResp *api.RegisterResponse
	registerErr  error
	loginResp    *api.LoginResponse
	loginErr     error
}

func (f *fakeAuth) Register(_ context.Context, user, pass string) (*api.RegisterResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registers++
	f.lastUser, f.lastPass = user, pass
	return f.registerResp, f.registerErr
}

func (f *fakeAuth) Login(_ context.Context, user, pass string) (*api.LoginResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logins++
	f.lastUser, f.lastPass = user, pass
	return f.loginResp, f.loginErr
}

// run executes cmd and returns every non-spinner message it produced.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	switch msg := msg.(type) {
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, run(c)...)
		}
		return out
	case spinner.TickMsg, nil:
		return nil
	default:
		return []tea.Msg{msg}
	}
}

func press(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

func typeText(m Model, s string) Model {
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

func filled(client Authenticator) Model {
	m := New(client, styles.NewTheme("dark"))
	m = typeText(m, "alice")
	m, _ = m.Update(press(tea.KeyTab))
	return typeText(m, "secret")
}

// submit presses enter and feeds every resulting message back into the form.
func submit(t *testing.T, m Model) (Model, []tea.Msg) {
	t.Helper()
	m, cmd := m.Update(press(tea.KeyEnter))
	var out []tea.Msg
	for _, msg := range run(cmd) {
		var next tea.Cmd
		m, next = m.Update(msg)
		out = append(out, run(next)...)
	}
	return m, out
}

func TestNew_StartsInLoginMode(t *testing.T) {
	m := New(&fakeAuth{}, styles.NewTheme("dark"))
	assert.Equal(t, ModeLogin, m.Mode())
	assert.Empty(t, m.Error())
	assert.Empty(t, m.Success())
	assert.Contains(t, m.View(), "Login")
}

func TestFields_CollectInput(t *testing.T) {
	fake := &fakeAuth{loginResp: &api.LoginResponse{AccessToken: "a.b.c"}}
	m := filled(fake)
	_, _ = submit(t, m)

	assert.Equal(t, "alice", fake.lastUser)
	assert.Equal(t, "secret", fake.lastPass)
	assert.NotContains(t, m.View(), "secret", "password is masked")
}

func TestFields_UsernameSentAsTyped(t *testing.T) {
	fake := &fakeAuth{loginResp: &api.LoginResponse{AccessToken: "a.b.c"}}
	m := New(fake, styles.NewTheme("dark"))
	m = typeText(m, " alice ")
	m, _ = m.Update(press(tea.KeyTab))
	m = typeText(m, "secret")
	_, _ = submit(t, m)

	assert.Equal(t, " alice ", fake.lastUser)
}

func TestSubmit_WhitespaceUsernameIsBlank(t *testing.T) {
	fake := &fakeAuth{}
	m := New(fake, styles.NewTheme("dark"))
	m = typeText(m, "   ")
	m, _ = m.Update(press(tea.KeyTab))
	m = typeText(m, "secret")

	m, cmd := m.Update(press(tea.KeyEnter))
	assert.Nil(t, cmd)
	assert.Equal(t, MissingFieldText, m.Error())
	assert.Equal(t, 0, fake.logins)
}

func TestSwitchMode_ClearsMessages(t *testing.T) {
	fake := &fakeAuth{loginErr: errors.New("boom")}
	m, _ := submit(t, filled(fake))
	require.NotEmpty(t, m.Error())

	m, _ = m.Update(press(tea.KeyCtrlT))
	assert.Equal(t, ModeRegister, m.Mode())
	assert.Empty(t, m.Error())
	assert.Empty(t, m.Success())

	m, _ = m.Update(press(tea.KeyCtrlT))
	assert.Equal(t, ModeLogin, m.Mode())
}

func TestRegister_Success(t *testing.T) {
	fake := &fakeAuth{registerResp: &api.RegisterResponse{Msg: "User registered successfully"}}
	m := filled(fake)
	m, _ = m.Update(press(tea.KeyCtrlT))

	m, msgs := submit(t, m)
	assert.Empty(t, msgs)
	assert.Equal(t, 1, fake.registers)
	assert.Equal(t, ModeLogin, m.Mode())
	assert.Equal(t, RegisteredText, m.Success())
	assert.Empty(t, m.Error())
	assert.False(t, m.InFlight())
}

func TestRegister_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		resp    *api.RegisterResponse
		err     error
		wantErr string
	}{
		{"detail", &api.RegisterResponse{Detail: "Username already registered"}, nil, "Username already registered"},
		{"no detail", &api.RegisterResponse{}, nil, RegisterFailText},
		{"transport", nil, errors.New("connection refused"), GenericErrorText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := filled(&fakeAuth{registerResp: tt.resp, registerErr: tt.err})
			m, _ = m.Update(press(tea.KeyCtrlT))

			m, _ = submit(t, m)
			assert.Equal(t, ModeRegister, m.Mode(), "stays in register mode")
			assert.Equal(t, tt.wantErr, m.Error())
			assert.Empty(t, m.Success())
		})
	}
}

func TestLogin_EmitsCredential(t *testing.T) {
	fake := &fakeAuth{loginResp: &api.LoginResponse{AccessToken: "a.b.c", TokenType: "bearer"}}

	m, msgs := submit(t, filled(fake))
	require.Len(t, msgs, 1)
	assert.Equal(t, LoggedInMsg{Token: "a.b.c"}, msgs[0])
	assert.Empty(t, m.Error())
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name    string
		resp    *api.LoginResponse
		err     error
		wantErr string
	}{
		{"no token", &api.LoginResponse{}, nil, InvalidCredsText},
		{"rejected", nil, &api.ClientError{Type: api.ErrTypeLoginFailed, StatusCode: 401}, GenericErrorText},
		{"unreachable", nil, api.ErrConnection, GenericErrorText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, msgs := submit(t, filled(&fakeAuth{loginResp: tt.resp, loginErr: tt.err}))
			assert.Empty(t, msgs, "no credential emitted")
			assert.Equal(t, tt.wantErr, m.Error())
		})
	}
}

func TestSubmit_ClearsPreviousMessages(t *testing.T) {
	fake := &fakeAuth{loginErr: errors.New("boom")}
	m, _ := submit(t, filled(fake))
	require.Equal(t, GenericErrorText, m.Error())

	m, _ = m.Update(press(tea.KeyEnter))
	assert.Empty(t, m.Error(), "cleared when the new request starts")
	assert.True(t, m.InFlight())
}

func TestSubmit_IgnoredWhileInFlight(t *testing.T) {
	fake := &fakeAuth{loginResp: &api.LoginResponse{AccessToken: "t"}}
	m := filled(fake)

	m, first := m.Update(press(tea.KeyEnter))
	require.NotNil(t, first)
	_, second := m.Update(press(tea.KeyEnter))
	assert.Nil(t, second)
}

func TestSubmit_RequiresBothFields(t *testing.T) {
	fake := &fakeAuth{}
	m := New(fake, styles.NewTheme("dark"))
	m = typeText(m, "alice")

	m, cmd := m.Update(press(tea.KeyEnter))
	assert.Nil(t, cmd)
	assert.Equal(t, MissingFieldText, m.Error())
	assert.Equal(t, 0, fake.logins)
}

func TestStaleResultIgnored(t *testing.T) {
	m := filled(&fakeAuth{})
	m, _ = m.Update(press(tea.KeyEnter))

	m, cmd := m.Update(loginResultMsg{form: m.id, gen: m.gen - 1, resp: &api.LoginResponse{AccessToken: "old"}})
	assert.Nil(t, cmd)
	assert.True(t, m.InFlight())
}

func TestResultFromOtherFormIgnored(t *testing.T) {
	fake := &fakeAuth{loginResp: &api.LoginResponse{AccessToken: "t"}}
	old := filled(fake)
	_, cmd := old.Update(press(tea.KeyEnter))
	msgs := run(cmd)
	require.Len(t, msgs, 1)

	// A rebuilt form starts its generations again.
	fresh := filled(fake)
	fresh, _ = fresh.Update(press(tea.KeyEnter))
	fresh, next := fresh.Update(msgs[0])
	assert.Nil(t, next)
	assert.True(t, fresh.InFlight())
}
