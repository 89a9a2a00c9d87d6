// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/queryosity-tui/internal/api"
	"github.com/jeranaias/queryosity-tui/internal/ui/styles"
)

// User-facing outcome strings.
const (
	RegisteredText   = "Registration successful! Please log in."
	RegisterFailText = "Registration failed."
	InvalidCredsText = "Invalid credentials."
	GenericErrorText = "An error occurred. Please try again."
	MissingFieldText = "Please enter a username and password."
)

// Mode selects between logging in and registering.
type Mode int

const (
	ModeLogin Mode = iota
	ModeRegister
)

func (m Mode) String() string {
	if m == ModeRegister {
		return "Register"
	}
	return "Login"
}

// Authenticator is the part of the API client the form uses.
type Authenticator interface {
	Register(ctx context.Context, username, password string) (*api.RegisterResponse, error)
	Login(ctx context.Context, username, password string) (*api.LoginResponse, error)
}

const (
	focusUsername = iota
	focusPassword
	focusCount
)

// =============================================================================
// MODEL
// =============================================================================

// Model is the login/registration form.
type Model struct {
	client Authenticator
	theme  *styles.Theme
	keys   KeyMap

	username textinput.Model
	password textinput.Model
	focus    int

	mode       Mode
	errMsg     string
	successMsg string

	id       int64
	inFlight bool
	gen      int
	spinner  spinner.Model

	ctx    context.Context
	cancel context.CancelFunc

	width  int
	height int
}

// New creates the form in login mode.
func New(client Authenticator, theme *styles.Theme) Model {
	user := textinput.New()
	user.Placeholder = "username"
	user.Prompt = "> "
	user.CharLimit = 128
	user.Focus()

	pass := textinput.New()
	pass.Placeholder = "password"
	pass.Prompt = "> "
	pass.CharLimit = 256
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'

	sp := spinner.New()
	sp.Spinner = styles.LineSpinner.Bubble()
	sp.Style = theme.Spinner

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		id:       formSeq.Add(1),
		client:   client,
		theme:    theme,
		keys:     DefaultKeyMap(),
		username: user,
		password: pass,
		spinner:  sp,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Close cancels any in-flight request. Call it when the form is unmounted.
func (m Model) Close() {
	if m.cancel != nil {
		m.cancel()
	}
}

// Mode returns the current mode.
func (m Model) Mode() Mode { return m.mode }

// Error returns the current error string.
func (m Model) Error() string { return m.errMsg }

// Success returns the current success string.
func (m Model) Success() string { return m.successMsg }

// InFlight reports whether a request is outstanding.
func (m Model) InFlight() bool { return m.inFlight }

// SetSize sets the available area.
func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	return m
}

// =============================================================================
// UPDATE
// =============================================================================

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.SetSize(msg.Width, msg.Height), nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Submit):
			return m.submit()
		case key.Matches(msg, m.keys.SwitchMode):
			return m.switchMode(), nil
		case key.Matches(msg, m.keys.Next):
			return m.setFocus((m.focus + 1) % focusCount), nil
		case key.Matches(msg, m.keys.Prev):
			return m.setFocus((m.focus + focusCount - 1) % focusCount), nil
		}
		// Fields stay editable while a request is in flight.
		return m.updateInputs(msg)

	case registerResultMsg:
		return m.handleRegister(msg), nil

	case loginResultMsg:
		return m.handleLogin(msg)

	case spinner.TickMsg:
		if !m.inFlight {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m.updateInputs(msg)
}

func (m Model) updateInputs(msg tea.Msg) (Model, tea.Cmd) {
	var c1, c2 tea.Cmd
	m.username, c1 = m.username.Update(msg)
	m.password, c2 = m.password.Update(msg)
	return m, tea.Batch(c1, c2)
}

func (m Model) setFocus(i int) Model {
	m.focus = i
	if i == focusUsername {
		m.username.Focus()
		m.password.Blur()
	} else {
		m.password.Focus()
		m.username.Blur()
	}
	return m
}

func (m Model) switchMode() Model {
	if m.mode == ModeLogin {
		m.mode = ModeRegister
	} else {
		m.mode = ModeLogin
	}
	m.errMsg = ""
	m.successMsg = ""
	return m
}

func (m Model) submit() (Model, tea.Cmd) {
	if m.inFlight {
		return m, nil
	}

	m.errMsg = ""
	m.successMsg = ""

	user := m.username.Value()
	pass := m.password.Value()
	if strings.TrimSpace(user) == "" || pass == "" {
		m.errMsg = MissingFieldText
		return m, nil
	}

	m.inFlight = true
	m.gen++
	form, gen := m.id, m.gen
	ctx := m.ctx
	client := m.client

	var req tea.Cmd
	if m.mode == ModeRegister {
		req = func() tea.Msg {
			resp, err := client.Register(ctx, user, pass)
			return registerResultMsg{form: form, gen: gen, resp: resp, err: err}
		}
	} else {
		req = func() tea.Msg {
			resp, err := client.Login(ctx, user, pass)
			return loginResultMsg{form: form, gen: gen, resp: resp, err: err}
		}
	}
	return m, tea.Batch(req, m.spinner.Tick)
}

func (m Model) handleRegister(msg registerResultMsg) Model {
	if msg.form != m.id || msg.gen != m.gen {
		return m
	}
	m.inFlight = false

	switch {
	case msg.err != nil:
		slog.Warn("registration request failed", "error", msg.err)
		m.errMsg = GenericErrorText
	case msg.resp != nil && msg.resp.Msg != "":
		m.mode = ModeLogin
		m.successMsg = RegisteredText
	case msg.resp != nil && msg.resp.Detail != "":
		m.errMsg = string(msg.resp.Detail)
	default:
		m.errMsg = RegisterFailText
	}
	return m
}

func (m Model) handleLogin(msg loginResultMsg) (Model, tea.Cmd) {
	if msg.form != m.id || msg.gen != m.gen {
		return m, nil
	}
	m.inFlight = false

	switch {
	case msg.err != nil:
		slog.Warn("login request failed", "error", msg.err)
		m.errMsg = GenericErrorText
		return m, nil
	case msg.resp == nil || msg.resp.AccessToken == "":
		m.errMsg = InvalidCredsText
		return m, nil
	}

	token := msg.resp.AccessToken
	m.password.SetValue("")
	return m, func() tea.Msg { return LoggedInMsg{Token: token} }
}

// =============================================================================
// VIEW
// =============================================================================

// View implements tea.Model.
func (m Model) View() string {
	t := m.theme

	label := func(text string, focused bool) string {
		if focused {
			return t.FieldFocused.Render(text)
		}
		return t.FieldLabel.Render(text)
	}

	lines := []string{
		t.FormTitle.Render("Queryosity " + m.mode.String()),
		label("Username", m.focus == focusUsername),
		m.username.View(),
		"",
		label("Password", m.focus == focusPassword),
		m.password.View(),
		"",
	}

	button := t.Button.Render(m.mode.String())
	if m.inFlight {
		button = t.ButtonActive.Render(m.spinner.View() + " " + m.mode.String())
	}
	lines = append(lines, button)

	if m.errMsg != "" {
		lines = append(lines, "", styles.RenderError(m.errMsg))
	}
	if m.successMsg != "" {
		lines = append(lines, "", styles.RenderSuccess(m.successMsg))
	}

	other := ModeRegister
	if m.mode == ModeRegister {
		other = ModeLogin
	}
	hints := []string{
		t.ShortcutKey.Render("enter") + " " + t.ShortcutDesc.Render("submit"),
		t.ShortcutKey.Render("tab") + " " + t.ShortcutDesc.Render("next field"),
		t.ShortcutKey.Render("ctrl+t") + " " + t.ShortcutDesc.Render("switch to "+other.String()),
		t.ShortcutKey.Render("ctrl+c") + " " + t.ShortcutDesc.Render("quit"),
	}
	lines = append(lines, "", strings.Join(hints, "  "))

	box := t.FormBox.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
