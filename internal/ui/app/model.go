// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/jeranaias/sentinel-tui/internal/api"
	"github.com/jeranaias/sentinel-tui/internal/config"
	"github.com/jeranaias/sentinel-tui/internal/correlation"
	"github.com/jeranaias/sentinel-tui/internal/dashboard"
	"github.com/jeranaias/sentinel-tui/internal/session"
	"github.com/jeranaias/sentinel-tui/internal/ui/components"
	"github.com/jeranaias/sentinel-tui/internal/ui/styles"
	"github.com/jeranaias/sentinel-tui/internal/util"
)

// =============================================================================
// SCREENS
// =============================================================================

// Screen identifies what the body of the window shows.
type Screen int

const (
	// ScreenChecking is shown while a stored token is being validated.
	ScreenChecking Screen = iota
	ScreenLanding
	ScreenLogin
	ScreenSignup
	ScreenOverview
	ScreenInvestigate
	ScreenUpload
)

// Protected reports whether the screen requires an authenticated session.
func (s Screen) Protected() bool {
	return s >= ScreenOverview
}

func (s Screen) String() string {
	switch s {
	case ScreenChecking:
		return "checking"
	case ScreenLanding:
		return "landing"
	case ScreenLogin:
		return "login"
	case ScreenSignup:
		return "signup"
	case ScreenOverview:
		return "overview"
	case ScreenInvestigate:
		return "investigate"
	case ScreenUpload:
		return "upload"
	default:
		return "unknown"
	}
}

var tabScreens = []Screen{ScreenOverview, ScreenInvestigate, ScreenUpload}

// =============================================================================
// MODEL
// =============================================================================

// Backend is the part of the API the screens use. *api.Client implements it.
type Backend interface {
	dashboard.Source
	correlation.Fetcher
	UploadLogs(ctx context.Context, name string, r io.Reader, clearExisting bool) (*api.MessageResponse, error)
	ClearEvents(ctx context.Context) (*api.MessageResponse, error)
}

// Options wires a Model.
type Options struct {
	Session *session.Manager
	Backend Backend
	Config  *config.Config
	Theme   *styles.Theme
	Logger  *zap.Logger
}

// Model is the root Bubble Tea model. Protected screens are routed through
// session.Guard on every update and render.
type Model struct {
	theme   *styles.Theme
	keys    KeyMap
	session *session.Manager
	backend Backend
	corr    *correlation.Controller
	logger  *zap.Logger

	cfg         *config.Config
	dashOpts    dashboard.Options
	showPayload bool

	screen     Screen
	lastStatus session.Status
	width      int
	height     int
	spinner    spinner.Model

	status    string
	statusErr bool

	form   authForm
	upload uploadForm

	overview        *dashboard.Overview
	overviewLoading bool
	overviewGen     uint64

	cursor int
	table  components.Table
}

// New creates the root model. The initial screen is the overview; until the
// session resolves it renders as ScreenChecking or ScreenLanding.
func New(opts Options) *Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme(cfg.UI.Theme)
	}
	logger := util.OrNop(opts.Logger).Named("ui")

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	m := &Model{
		theme:   theme,
		keys:    DefaultKeyMap(),
		session: opts.Session,
		backend: opts.Backend,
		corr:    correlation.NewController(opts.Backend, opts.Logger),
		logger:  logger,
		cfg:     cfg,
		dashOpts: dashboard.Options{
			Events:     api.EventQuery{Limit: cfg.Events.Limit},
			TopIPLimit: cfg.Events.TopIPLimit,
		},
		showPayload: cfg.UI.ShowPayload,
		screen:      ScreenOverview,
		lastStatus:  opts.Session.State().Status,
		spinner:     sp,
		form:        newAuthForm(theme),
		upload:      newUploadForm(theme),
		table:       newEventTable(),
	}
	return m
}

// Init validates the stored session and starts the spinner.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		session.InitCmd(m.session),
		m.spinner.Tick,
		textinput.Blink,
	)
}

// Screen returns the screen the user actually sees after routing.
func (m *Model) Screen() Screen {
	return m.activeScreen()
}

// Selection returns the current investigation.
func (m *Model) Selection() correlation.Selection {
	return m.corr.Selection()
}

// activeScreen applies the route guard to the requested screen.
func (m *Model) activeScreen() Screen {
	if !m.screen.Protected() {
		return m.screen
	}
	switch session.Guard(m.session.State()) {
	case session.AccessWait:
		return ScreenChecking
	case session.AccessRedirect:
		return ScreenLanding
	}
	return m.screen
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.theme.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case session.StateMsg:
		return m, m.applySession(msg.State)

	case session.AuthErrorMsg:
		m.form.fail(api.UserMessage(msg.Err))
		return m, nil

	case overviewLoadedMsg:
		return m, m.applyOverview(msg)

	case correlation.ExplanationMsg:
		if m.corr.Update(msg) {
			m.expired(msg.Err)
		}
		return m, nil

	case correlation.StorylineMsg:
		if m.corr.Update(msg) {
			m.expired(msg.Err)
		}
		return m, nil

	case UploadDoneMsg:
		return m, m.applyUpload(msg)

	case ClearDoneMsg:
		return m, m.applyClear(msg)

	case ConfigReloadedMsg:
		m.applyConfig(msg)
		return m, nil
	}

	return m, m.updateInputs(msg)
}

// applySession reconciles the screen with the manager's current state.
// Transition messages can arrive out of order, so the payload only
// signals that something changed.
func (m *Model) applySession(session.State) tea.Cmd {
	s := m.session.State()
	prev := m.lastStatus
	m.lastStatus = s.Status

	switch session.Guard(s) {
	case session.AccessAllow:
		m.form.reset()
		if !m.screen.Protected() {
			m.screen = ScreenOverview
		}
		if prev != session.Authenticated {
			m.logger.Info("session ready", zap.String("user", s.Username()))
			m.setStatus("Signed in as "+s.Username(), false)
		}
		if m.overview == nil && !m.overviewLoading {
			return m.loadOverview()
		}

	case session.AccessRedirect:
		if m.screen.Protected() {
			m.screen = ScreenLanding
		}
		if prev == session.Authenticated {
			m.resetData()
			m.setStatus("Logged out", false)
		}
	}
	return nil
}

// expired logs out when err says the server rejected the token.
func (m *Model) expired(err error) bool {
	if err == nil || !m.session.Invalidate(err) {
		return false
	}
	m.applySession(m.session.State())
	m.setStatus("Session expired; please log in again", true)
	return true
}

func (m *Model) resetData() {
	m.corr.Reset()
	m.overview = nil
	m.overviewLoading = false
	m.overviewGen++
	m.cursor = 0
	m.table.Offset = 0
	m.upload.reset()
}

// loadOverview starts a fresh overview load. Results of earlier loads still
// in flight are dropped.
func (m *Model) loadOverview() tea.Cmd {
	m.overviewGen++
	gen := m.overviewGen
	m.overviewLoading = true
	load := dashboard.LoadCmd(m.backend, m.dashOpts, m.logger)
	return func() tea.Msg {
		msg, _ := load().(dashboard.OverviewMsg)
		return overviewLoadedMsg{gen: gen, overview: msg.Overview}
	}
}

func (m *Model) applyOverview(msg overviewLoadedMsg) tea.Cmd {
	if msg.gen != m.overviewGen || msg.overview == nil {
		return nil
	}
	m.overviewLoading = false
	m.overview = msg.overview
	if n := len(m.overview.Events); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
	if err := m.overview.FirstErr(); err != nil {
		if m.expired(err) {
			return nil
		}
		if m.overview.Failed() {
			m.setStatus(api.UserMessage(err), true)
		}
	}
	return nil
}

func (m *Model) applyConfig(msg ConfigReloadedMsg) {
	if msg.Config == nil {
		m.logger.Warn("config reload failed", zap.Error(msg.Err))
		m.setStatus("Config reload failed: "+msg.Err.Error(), true)
		return
	}
	cfg := msg.Config
	m.dashOpts.Events.Limit = cfg.Events.Limit
	m.dashOpts.TopIPLimit = cfg.Events.TopIPLimit
	m.showPayload = cfg.UI.ShowPayload

	status := "Configuration reloaded"
	if cfg.Server.BaseURL != m.cfg.Server.BaseURL {
		status += "; restart to use " + cfg.Server.BaseURL
	}
	m.cfg = cfg
	m.logger.Info("config reloaded")
	m.setStatus(status, false)
}

func (m *Model) setStatus(msg string, isErr bool) {
	m.status = msg
	m.statusErr = isErr
}

// =============================================================================
// KEYS
// =============================================================================

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		return m, tea.Quit
	}

	switch m.activeScreen() {
	case ScreenChecking:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		return m, nil
	case ScreenLanding:
		return m.handleLandingKey(msg)
	case ScreenLogin, ScreenSignup:
		return m.handleFormKey(msg)
	case ScreenUpload:
		return m.handleUploadKey(msg)
	}

	// Overview and investigation share navigation.
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Overview):
		return m, m.switchTo(ScreenOverview)
	case key.Matches(msg, m.keys.Investigate):
		return m, m.switchTo(ScreenInvestigate)
	case key.Matches(msg, m.keys.Upload):
		return m, m.switchTo(ScreenUpload)
	case key.Matches(msg, m.keys.NextTab):
		return m, m.switchTo(m.nextTab())
	case key.Matches(msg, m.keys.Refresh):
		m.setStatus("Refreshing...", false)
		return m, m.loadOverview()
	case key.Matches(msg, m.keys.Logout):
		return m, session.LogoutCmd(m.session)
	}

	if m.screen == ScreenInvestigate {
		return m.handleInvestigateKey(msg)
	}
	return m, nil
}

func (m *Model) nextTab() Screen {
	for i, s := range tabScreens {
		if s == m.screen {
			return tabScreens[(i+1)%len(tabScreens)]
		}
	}
	return ScreenOverview
}

func (m *Model) switchTo(s Screen) tea.Cmd {
	if m.screen == ScreenInvestigate && s != ScreenInvestigate {
		m.corr.Reset()
	}
	m.screen = s
	m.setStatus("", false)
	if s == ScreenUpload {
		return m.upload.focus()
	}
	m.upload.blur()
	return nil
}

// updateInputs forwards non-key messages (cursor blink) to the focused input.
func (m *Model) updateInputs(msg tea.Msg) tea.Cmd {
	switch m.activeScreen() {
	case ScreenLogin, ScreenSignup:
		return m.form.update(msg)
	case ScreenUpload:
		return m.upload.update(msg)
	}
	return nil
}

// =============================================================================
// UPLOAD COMMANDS
// =============================================================================

func uploadCmd(backend Backend, path string, clearExisting bool) tea.Cmd {
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return UploadDoneMsg{Name: path, Err: err}
		}
		defer f.Close()

		resp, err := backend.UploadLogs(context.Background(), path, f, clearExisting)
		if err != nil {
			return UploadDoneMsg{Name: path, Err: err}
		}
		return UploadDoneMsg{Name: path, Message: resp.Message}
	}
}

func clearCmd(backend Backend) tea.Cmd {
	return func() tea.Msg {
		resp, err := backend.ClearEvents(context.Background())
		if err != nil {
			return ClearDoneMsg{Err: err}
		}
		return ClearDoneMsg{Message: resp.Message}
	}
}

func (m *Model) applyUpload(msg UploadDoneMsg) tea.Cmd {
	replaced := !m.upload.keepExisting
	m.upload.busy = false
	if msg.Err != nil {
		if m.expired(msg.Err) {
			return nil
		}
		m.upload.err = api.UserMessage(msg.Err)
		m.logger.Info("upload failed", zap.Error(msg.Err))
		return nil
	}
	m.upload.done(msg.Message)
	m.logger.Info("upload complete", zap.String("message", msg.Message), zap.Bool("replaced", replaced))
	if replaced {
		m.corr.Reset()
		m.cursor = 0
	}
	return m.loadOverview()
}

func (m *Model) applyClear(msg ClearDoneMsg) tea.Cmd {
	m.upload.busy = false
	m.upload.confirmClear = false
	if msg.Err != nil {
		if m.expired(msg.Err) {
			return nil
		}
		m.upload.err = api.UserMessage(msg.Err)
		return nil
	}
	m.upload.done(msg.Message)
	m.corr.Reset()
	m.cursor = 0
	return m.loadOverview()
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the model.
func (m *Model) View() string {
	width := m.width
	if width <= 0 {
		width = 80
	}
	height := m.height
	if height <= 0 {
		height = 24
	}

	screen := m.activeScreen()
	state := m.session.State()

	header := components.Header{
		Brand: "SENTINEL",
		User:  state.Username(),
		Width: width,
	}
	if screen.Protected() {
		header.Tabs = []string{"1 Overview", "2 Investigate", "3 Upload"}
		for i, s := range tabScreens {
			if s == screen {
				header.Active = i
			}
		}
	}

	bodyHeight := height - 2
	var body string
	var keys []key.Binding
	switch screen {
	case ScreenChecking:
		body = m.viewChecking(width, bodyHeight)
	case ScreenLanding:
		body = m.viewLanding(width, bodyHeight)
		keys = m.keys.LandingHelp()
	case ScreenLogin, ScreenSignup:
		body = m.viewForm(screen, width, bodyHeight)
		keys = m.keys.FormHelp()
	case ScreenOverview:
		body = m.viewOverview(width, bodyHeight)
		keys = m.keys.OverviewHelp()
	case ScreenInvestigate:
		body = m.viewInvestigate(width, bodyHeight)
		keys = m.keys.InvestigateHelp()
	case ScreenUpload:
		body = m.viewUpload(width, bodyHeight)
		keys = m.keys.UploadHelp()
	}

	bar := components.StatusBar{
		Message: m.status,
		IsError: m.statusErr,
		Keys:    keys,
		Width:   width,
	}

	body = lipgloss.NewStyle().Width(width).Height(bodyHeight).MaxHeight(bodyHeight).Render(body)
	return lipgloss.JoinVertical(lipgloss.Left, header.Render(m.theme), body, bar.Render(m.theme))
}
