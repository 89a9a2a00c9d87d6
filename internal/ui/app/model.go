// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"errors"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/queryosity-tui/internal/session"
	"github.com/jeranaias/queryosity-tui/internal/ui/auth"
	"github.com/jeranaias/queryosity-tui/internal/ui/chat"
	"github.com/jeranaias/queryosity-tui/internal/ui/styles"
)

// =============================================================================
// APPLICATION MODEL
// =============================================================================

// State represents which view is mounted.
type State int

const (
	StateAuth State = iota // Login / registration form
	StateChat              // Document chat
)

func (s State) String() string {
	if s == StateChat {
		return "chat"
	}
	return "auth"
}

// Client is the backend surface used by both views.
type Client interface {
	auth.Authenticator
	chat.Backend
}

// Options configure the root model.
type Options struct {
	// Chat is passed to every chat view the model builds.
	Chat chat.Options

	// Watcher, when set, reports external edits of the credential file.
	Watcher *session.Watcher

	// Now is the clock used for expiry checks. Defaults to time.Now.
	Now func() time.Time
}

var (
	keyQuit   = key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("C-c", "quit"))
	keyLogout = key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("C-l", "logout"))
)

// Model is the root Bubble Tea model.
type Model struct {
	state State
	theme *styles.Theme

	width  int
	height int

	store  *session.Store
	client Client
	opts   Options

	// The held credential and its decoded claims. Both are empty while
	// signed out.
	token  string
	claims *session.Claims

	authView auth.Model
	chatView chat.Model

	startCmd tea.Cmd
}

// New creates the root model and restores any stored credential.
func New(store *session.Store, client Client, theme *styles.Theme, opts Options) *Model {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Chat.Now == nil {
		opts.Chat.Now = opts.Now
	}

	m := &Model{
		theme:  theme,
		store:  store,
		client: client,
		opts:   opts,
	}
	m.startCmd = m.restore()
	return m
}

// State returns the mounted view.
func (m *Model) State() State { return m.state }

// Token returns the held credential, or "" when signed out.
func (m *Model) Token() string { return m.token }

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.startCmd, session.WaitForChange(m.opts.Watcher))
}

// Close cancels the requests of the mounted view.
func (m *Model) Close() {
	m.authView.Close()
	m.chatView.Close()
}

// =============================================================================
// SESSION TRANSITIONS
// =============================================================================

// restore loads the stored credential on startup.
func (m *Model) restore() tea.Cmd {
	token, claims, err := m.store.LoadValid(m.opts.Now())
	switch {
	case err == nil:
		m.token, m.claims = token, claims
		return m.mountChat()
	case errors.Is(err, session.ErrNoToken):
	case errors.Is(err, session.ErrTokenExpired), errors.Is(err, session.ErrMalformedToken):
		slog.Info("stored credential discarded", "reason", err)
	default:
		slog.Warn("failed to read stored credential", "error", err)
	}
	return m.mountAuth()
}

// login persists a freshly issued credential and mounts the chat view.
func (m *Model) login(token string) tea.Cmd {
	if err := m.store.Save(token); err != nil {
		slog.Error("failed to persist credential", "error", err)
	}
	return m.hold(token)
}

// hold adopts token as the current credential after checking it.
func (m *Model) hold(token string) tea.Cmd {
	claims, err := session.Validate(token, m.opts.Now())
	if err != nil {
		slog.Info("credential rejected", "reason", err)
		return m.logout()
	}
	m.token, m.claims = token, claims
	return m.mountChat()
}

// logout clears the credential everywhere and mounts the auth form.
func (m *Model) logout() tea.Cmd {
	if err := m.store.Clear(); err != nil {
		slog.Error("failed to clear credential", "error", err)
	}
	m.token, m.claims = "", nil
	return m.mountAuth()
}

func (m *Model) mountChat() tea.Cmd {
	m.Close()

	sess := chat.Session{Token: m.token, UserID: m.claims.Subject}
	if m.claims.HasExpiry {
		sess.ExpiresAt = m.claims.ExpiresAt
	}
	m.chatView = chat.New(m.client, sess, m.theme, m.opts.Chat)
	if m.width > 0 && m.height > 0 {
		m.chatView, _ = m.chatView.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
	}
	m.state = StateChat

	return tea.Batch(
		m.chatView.Init(),
		session.ExpiryCmd(m.token, m.claims, m.opts.Now()),
	)
}

func (m *Model) mountAuth() tea.Cmd {
	m.Close()

	m.authView = auth.New(m.client, m.theme)
	if m.width > 0 && m.height > 0 {
		m.authView = m.authView.SetSize(m.width, m.height)
	}
	m.state = StateAuth
	return m.authView.Init()
}

// =============================================================================
// UPDATE
// =============================================================================

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.theme.SetSize(msg.Width, msg.Height)
		return m.forward(msg)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keyQuit):
			m.Close()
			return m, tea.Quit
		case key.Matches(msg, keyLogout) && m.state == StateChat:
			return m, m.logout()
		}
		return m.forward(msg)

	case auth.LoggedInMsg:
		return m, m.login(msg.Token)

	case session.ExpiryMsg:
		return m, m.handleExpiry(msg)

	case session.StorageChangedMsg:
		cmd := m.handleStorageChanged()
		return m, tea.Batch(cmd, session.WaitForChange(m.opts.Watcher))
	}

	return m.forward(msg)
}

func (m *Model) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.state {
	case StateChat:
		m.chatView, cmd = m.chatView.Update(msg)
	default:
		m.authView, cmd = m.authView.Update(msg)
	}
	return m, cmd
}

// handleExpiry re-checks the credential the tick was scheduled for.
func (m *Model) handleExpiry(msg session.ExpiryMsg) tea.Cmd {
	if m.token == "" || msg.Token != m.token {
		return nil
	}
	claims, err := session.Validate(m.token, m.opts.Now())
	if err != nil {
		slog.Info("session expired", "reason", err)
		return m.logout()
	}
	// Ticks can fire early; schedule another.
	return session.ExpiryCmd(m.token, claims, m.opts.Now())
}

// handleStorageChanged applies a credential written by another process.
func (m *Model) handleStorageChanged() tea.Cmd {
	token, err := m.store.Load()
	if err != nil {
		slog.Warn("failed to reload credential", "error", err)
		return nil
	}
	if token == m.token {
		return nil
	}
	if token == "" {
		slog.Info("credential removed externally")
		return m.logout()
	}
	slog.Info("credential replaced externally")
	return m.hold(token)
}

// =============================================================================
// VIEW
// =============================================================================

// View implements tea.Model.
func (m *Model) View() string {
	if m.state == StateChat {
		return m.chatView.View()
	}
	return m.authView.View()
}
