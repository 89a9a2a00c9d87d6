// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/queryosity-tui/internal/api"
	"github.com/jeranaias/queryosity-tui/internal/model"
	"github.com/jeranaias/queryosity-tui/internal/ui/components"
	"github.com/jeranaias/queryosity-tui/internal/ui/styles"
)

// AllowedUploadTypes are the extensions offered by the file picker.
var AllowedUploadTypes = []string{".pdf", ".txt"}

// Backend is the part of the API client the chat view uses.
type Backend interface {
	ListFiles(ctx context.Context, token string) (*api.FilesResponse, error)
	UploadFile(ctx context.Context, path, token string) (*api.Ack, error)
	DeleteFile(ctx context.Context, name, token string) (*api.Ack, error)
	PostQuery(ctx context.Context, question, userID, token string) (*api.QueryResponse, error)
	ClearHistory(ctx context.Context, userID, token string) (*api.Ack, error)
}

// Session is the signed-in identity the view acts for.
type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time // zero when the credential has no expiry
}

// Options tune the view. The zero value is usable.
type Options struct {
	Notifier       Notifier
	ShowErrors     bool
	ShowTimestamps bool
	WordWrap       int
	StartDir       string
	Now            func() time.Time
}

type focusArea int

const (
	focusInput focusArea = iota
	focusFiles
)

// =============================================================================
// MODEL
// =============================================================================

// Model is the chat view: file sidebar, transcript and input line.
type Model struct {
	backend  Backend
	session  Session
	theme    *styles.Theme
	keys     KeyMap
	notifier Notifier
	opts     Options

	transcript *model.Transcript
	files      *components.FileList
	header     *components.Header
	statusBar  *components.StatusBar
	md         *components.MarkdownRenderer

	viewport viewport.Model
	input    textinput.Model
	picker   filepicker.Model
	spinner  spinner.Model

	id      int64
	focus   focusArea
	picking bool

	// pending is set while an action is in flight; gen and listGen
	// identify the newest action and listing.
	pending bool
	gen     int
	listGen int

	ctx       context.Context
	stop      context.CancelFunc
	cancelMgr *cancelManager

	width  int
	height int
}

// New creates the chat view for sess.
func New(backend Backend, sess Session, theme *styles.Theme, opts Options) Model {
	if opts.Notifier == nil {
		opts.Notifier = SlogNotifier{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.StartDir == "" {
		if wd, err := os.Getwd(); err == nil {
			opts.StartDir = wd
		} else {
			opts.StartDir = "."
		}
	}

	input := textinput.New()
	input.Placeholder = "Ask a question..."
	input.Prompt = "> "
	input.CharLimit = 4000
	input.Focus()

	picker := filepicker.New()
	picker.AllowedTypes = AllowedUploadTypes
	picker.CurrentDirectory = opts.StartDir
	picker.AutoHeight = false
	// Esc closes the picker instead of walking up a directory.
	picker.KeyMap.Back = key.NewBinding(key.WithKeys("h", "backspace", "left"), key.WithHelp("h", "back"))

	sp := spinner.New()
	sp.Spinner = styles.DotsSpinner.Bubble()
	sp.Style = theme.Spinner

	keys := DefaultKeyMap()
	status := components.NewStatusBar(theme)
	status.Shortcuts = keys.shortcuts()

	ctx, stop := context.WithCancel(context.Background())

	m := Model{
		id:         viewSeq.Add(1),
		backend:    backend,
		session:    sess,
		theme:      theme,
		keys:       keys,
		notifier:   opts.Notifier,
		opts:       opts,
		transcript: model.NewTranscript(model.WelcomeText),
		files:      components.NewFileList(theme),
		header:     components.NewHeader(theme),
		statusBar:  status,
		md:         components.NewMarkdownRenderer(theme.GlamourStyle(), opts.WordWrap),
		viewport:   viewport.New(80, 20),
		input:      input,
		picker:     picker,
		spinner:    sp,
		ctx:        ctx,
		stop:       stop,
		cancelMgr:  newCancelManager(),
		listGen:    1, // the mount listing
	}
	m.resize(80, 24)
	return m
}

// Init implements tea.Model. It issues the mount listing.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		scoped(m.id, fetchFilesCmd(m.ctx, m.backend, m.session.Token, m.listGen)),
	)
}

// Close cancels every request the view started. Call it on unmount.
func (m Model) Close() {
	if m.cancelMgr != nil {
		m.cancelMgr.cancel()
	}
	if m.stop != nil {
		m.stop()
	}
}

// Transcript returns the conversation shown in the view.
func (m Model) Transcript() *model.Transcript { return m.transcript }

// Files returns the file list as last loaded.
func (m Model) Files() []model.FileRecord { return m.files.Files }

// Pending reports whether an action is in flight.
func (m Model) Pending() bool { return m.pending }

// Session returns the identity the view acts for.
func (m Model) Session() Session { return m.session }

// =============================================================================
// UPDATE
// =============================================================================

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case scopedMsg:
		if msg.view != m.id {
			return m, nil
		}
		return m.Update(msg.msg)

	case tea.KeyMsg:
		if m.picking {
			return m.handlePickerKey(msg)
		}
		return m.handleKey(msg)

	case filesLoadedMsg:
		return m.handleFilesLoaded(msg)

	case fileOpResultMsg:
		return m.handleFileOpResult(msg)

	case queryResultMsg:
		return m.handleQueryResult(msg)

	case clearResultMsg:
		return m.handleClearResult(msg)

	case components.ToastDismissMsg:
		m.statusBar.ClearToast(msg.ID)
		return m, nil

	case spinner.TickMsg:
		if !m.pending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	// Directory reads and cursor blinks.
	var pickerCmd, inputCmd tea.Cmd
	m.picker, pickerCmd = m.picker.Update(msg)
	m.input, inputCmd = m.input.Update(msg)
	return m, tea.Batch(pickerCmd, inputCmd)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		return m.cancelAction()
	case key.Matches(msg, m.keys.Upload):
		return m.openPicker()
	case key.Matches(msg, m.keys.Delete):
		return m.deleteSelected()
	case key.Matches(msg, m.keys.Clear):
		return m.clearHistory()
	case key.Matches(msg, m.keys.FocusFiles):
		m.toggleFocus()
		return m, nil
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	if m.focus == focusFiles {
		switch {
		case key.Matches(msg, m.keys.Home):
			m.viewport.GotoTop()
		case key.Matches(msg, m.keys.End):
			m.viewport.GotoBottom()
		case key.Matches(msg, m.keys.Up):
			m.files.MoveUp()
		case key.Matches(msg, m.keys.Down):
			m.files.MoveDown()
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Send):
		return m.send()
	case key.Matches(msg, m.keys.Up):
		m.viewport.LineUp(1)
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.viewport.LineDown(1)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handlePickerKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Cancel) || key.Matches(msg, m.keys.Upload) {
		m.picking = false
		m.statusBar.Status = m.idleStatus()
		return m, nil
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	if ok, path := m.picker.DidSelectFile(msg); ok {
		m.picking = false
		m.statusBar.Status = m.idleStatus()
		next, uploadCmd := m.upload(path)
		return next, tea.Batch(cmd, uploadCmd)
	}
	if ok, path := m.picker.DidSelectDisabledFile(msg); ok {
		return m, tea.Batch(cmd, m.flash(components.NewStatusToast(filepath.Base(path)+" is not a .pdf or .txt file")))
	}
	return m, cmd
}

func (m *Model) toggleFocus() {
	if m.focus == focusInput {
		m.focus = focusFiles
		m.files.Focused = true
		m.input.Blur()
		return
	}
	m.focus = focusInput
	m.files.Focused = false
	m.input.Focus()
}

// =============================================================================
// ACTIONS
// =============================================================================

// begin marks a new action in flight and returns its generation and context.
func (m *Model) begin() (int, context.Context) {
	m.pending = true
	m.gen++
	m.statusBar.Status = components.StatusBusy
	return m.gen, m.requestContext()
}

// finish clears the in-flight state of the current action.
func (m *Model) finish() {
	m.pending = false
	m.cancelMgr.done()
	m.statusBar.Status = m.idleStatus()
}

func (m Model) idleStatus() components.Status {
	if m.pending {
		return components.StatusBusy
	}
	if m.picking {
		return components.StatusPicking
	}
	return components.StatusReady
}

func (m Model) send() (Model, tea.Cmd) {
	text := m.input.Value()
	if strings.TrimSpace(text) == "" || m.pending {
		return m, nil
	}

	userMsg := m.transcript.AppendUser(text)
	m.input.SetValue("")
	gen, ctx := m.begin()
	m.refresh()

	return m, tea.Batch(
		scoped(m.id, queryCmd(ctx, m.backend, text, m.session.UserID, m.session.Token, gen, userMsg.ID)),
		m.spinner.Tick,
	)
}

func (m Model) openPicker() (Model, tea.Cmd) {
	if m.pending {
		return m, nil
	}
	m.picking = true
	m.statusBar.Status = components.StatusPicking
	return m, m.picker.Init()
}

func (m Model) upload(path string) (Model, tea.Cmd) {
	// The picker forgets its selection so the same file can be chosen again.
	m.picker.Path = ""
	if path == "" || m.pending {
		return m, nil
	}

	gen, ctx := m.begin()
	m.listGen++
	return m, tea.Batch(
		scoped(m.id, fileOpCmd(ctx, m.ctx, m.backend, m.session.Token, opUpload, path, gen, m.listGen)),
		m.spinner.Tick,
	)
}

func (m Model) deleteSelected() (Model, tea.Cmd) {
	name, ok := m.files.SelectedName()
	if !ok || m.pending {
		return m, nil
	}

	gen, ctx := m.begin()
	m.listGen++
	return m, tea.Batch(
		scoped(m.id, fileOpCmd(ctx, m.ctx, m.backend, m.session.Token, opDelete, name, gen, m.listGen)),
		m.spinner.Tick,
	)
}

func (m Model) clearHistory() (Model, tea.Cmd) {
	if m.pending {
		return m, nil
	}
	gen, ctx := m.begin()
	return m, tea.Batch(
		scoped(m.id, clearCmd(ctx, m.backend, m.session.UserID, m.session.Token, gen)),
		m.spinner.Tick,
	)
}

// cancelAction abandons the in-flight action. Its result, if it still
// arrives, belongs to an older generation and is dropped.
func (m Model) cancelAction() (Model, tea.Cmd) {
	if !m.pending {
		return m, nil
	}
	m.cancelRequest()
	m.gen++
	m.finish()
	m.transcript.FailPending()
	m.refresh()
	return m, m.flash(components.NewStatusToast("Request canceled"))
}

// =============================================================================
// RESULTS
// =============================================================================

func (m Model) handleFilesLoaded(msg filesLoadedMsg) (Model, tea.Cmd) {
	if msg.ListGen != m.listGen {
		return m, nil
	}
	if msg.Err != nil {
		return m, m.report(opList, msg.Err)
	}
	m.files.SetFiles(msg.Files)
	return m, nil
}

func (m Model) handleFileOpResult(msg fileOpResultMsg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	if msg.ListGen == m.listGen {
		if msg.ListErr != nil {
			cmds = append(cmds, m.report(opList, msg.ListErr))
		} else {
			m.files.SetFiles(msg.Files)
		}
	}

	if msg.Gen != m.gen {
		return m, tea.Batch(cmds...)
	}
	m.finish()

	switch {
	case msg.OpErr != nil:
		cmds = append(cmds, m.report(msg.Op, msg.OpErr))
	case msg.Ack == nil:
	case msg.Op == opUpload && !msg.Ack.Success:
		cmds = append(cmds, m.report(msg.Op, ackError(msg.Ack, "upload rejected")))
	case msg.Op == opDelete && msg.Ack.Result == "" && msg.Ack.Detail != "":
		cmds = append(cmds, m.report(msg.Op, ackError(msg.Ack, "delete rejected")))
	default:
		text := msg.Ack.Message()
		if text == "" {
			text = filepath.Base(msg.Target) + ": " + string(msg.Op) + " done"
		}
		cmds = append(cmds, m.flash(components.NewSuccessToast(text)))
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleQueryResult(msg queryResultMsg) (Model, tea.Cmd) {
	if msg.Gen != m.gen {
		return m, nil
	}
	m.finish()

	userMsg := m.transcript.Find(msg.MsgID)
	if msg.Err == nil && msg.Resp != nil && msg.Resp.HasAnswer() {
		if userMsg != nil {
			userMsg.Resolve()
		}
		m.transcript.AppendBot(*msg.Resp.Answer)
	} else {
		if userMsg != nil {
			userMsg.Fail()
		}
		m.transcript.AppendBot(model.ApologyText)
		slog.Warn("query failed", "error", queryError(msg))
	}
	m.refresh()
	return m, nil
}

func (m Model) handleClearResult(msg clearResultMsg) (Model, tea.Cmd) {
	if msg.Gen != m.gen {
		return m, nil
	}
	m.finish()

	if msg.Err != nil {
		return m, m.report(opClear, msg.Err)
	}
	m.transcript.Reset(model.ClearedText)
	m.refresh()
	return m, nil
}

// report hands err to the notifier and, when enabled, flashes it.
func (m *Model) report(op fileOp, err error) tea.Cmd {
	m.notifier.Notify(string(op), err)
	if !m.opts.ShowErrors {
		return nil
	}
	return m.flash(components.NewErrorToast(string(op) + " failed: " + err.Error()))
}

func (m *Model) flash(t components.Toast) tea.Cmd {
	m.statusBar.ShowToast(t)
	return t.DismissCmd()
}

func ackError(ack *api.Ack, fallback string) error {
	if text := ack.Message(); text != "" {
		return errors.New(text)
	}
	return errors.New(fallback)
}

func queryError(msg queryResultMsg) error {
	switch {
	case msg.Err != nil:
		return msg.Err
	case msg.Resp != nil && msg.Resp.Detail != "":
		return errors.New(string(msg.Resp.Detail))
	default:
		return errors.New("response has no answer")
	}
}
