// Package app contains the root application model.
package app

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/clientflow/clientflow/internal/clients"
	"github.com/clientflow/clientflow/internal/keys"
	"github.com/clientflow/clientflow/internal/log"
	"github.com/clientflow/clientflow/internal/mode"
	"github.com/clientflow/clientflow/internal/mode/clientform"
	"github.com/clientflow/clientflow/internal/mode/clientlist"
	"github.com/clientflow/clientflow/internal/mode/login"
	"github.com/clientflow/clientflow/internal/pubsub"
	"github.com/clientflow/clientflow/internal/registry"
	"github.com/clientflow/clientflow/internal/session"
	"github.com/clientflow/clientflow/internal/ui/help"
	"github.com/clientflow/clientflow/internal/ui/logoverlay"
	"github.com/clientflow/clientflow/internal/ui/styles"
	"github.com/clientflow/clientflow/internal/ui/toaster"
	"github.com/clientflow/clientflow/internal/watcher"
)

// ZoneLogout is the bubblezone id of the header's logout link.
const ZoneLogout = "header-logout"

// MsgSignedOutElsewhere is shown when another process ended the session.
const MsgSignedOutElsewhere = "You were signed out."

const headerHeight = 2 // one line plus the bottom border

type signedOutMsg struct {
	err error
}

// Model is the root application state.
type Model struct {
	// Mode management
	currentMode mode.AppMode
	login       login.Model
	list        clientlist.Model
	form        clientform.Model

	services mode.Services
	session  session.Session

	width  int
	height int

	// Centralized toaster - owned by app, not individual screens
	toaster toaster.Model
	help    help.Model

	debugMode    bool
	logOverlay   logoverlay.Model
	logListenCmd tea.Cmd

	startCmd tea.Cmd

	listenCancel context.CancelFunc

	// Registry changes, re-rendered by the list
	storeListener *pubsub.ContinuousListener[registry.Change]

	// Storage watcher for sign-outs made by other processes
	watcherHandle   *watcher.Watcher
	watcherListener *pubsub.ContinuousListener[watcher.Change]
}

// New creates the root model. The persisted session decides the first
// screen. debugMode enables the log overlay (Ctrl+X toggle).
func New(services mode.Services, debugMode bool) Model {
	ctx, cancel := context.WithCancel(context.Background())

	var storeListener *pubsub.ContinuousListener[registry.Change]
	if services.Store != nil {
		storeListener = pubsub.NewContinuousListener(ctx, services.Store.Broker())
	}

	var (
		watcherHandle   *watcher.Watcher
		watcherListener *pubsub.ContinuousListener[watcher.Change]
	)
	if cfg := services.Config; cfg != nil && cfg.Session.Watch && cfg.Session.Path != "" {
		w, err := watcher.New(watcher.DefaultConfig(cfg.Session.Path))
		if err == nil {
			if err := w.Start(); err == nil {
				watcherHandle = w
				watcherListener = pubsub.NewContinuousListener(ctx, w.Broker())
			} else {
				_ = w.Stop()
			}
		}
		if err != nil {
			log.Warn(log.CatWatcher, "Session watcher unavailable", "error", err)
		}
	}

	markdownStyle := ""
	if services.Config != nil {
		markdownStyle = services.Config.UI.MarkdownStyle
	}

	overlay := logoverlay.New()
	var logListenCmd tea.Cmd
	if debugMode {
		logListenCmd = overlay.StartListening()
	}

	m := Model{
		currentMode:     mode.ModeLogin,
		login:           login.New(services),
		list:            clientlist.New(services),
		services:        services,
		toaster:         toaster.New(),
		help:            help.New(markdownStyle),
		debugMode:       debugMode,
		logOverlay:      overlay,
		logListenCmd:    logListenCmd,
		listenCancel:    cancel,
		storeListener:   storeListener,
		watcherHandle:   watcherHandle,
		watcherListener: watcherListener,
	}

	m.session = m.restore()
	if m.session.Authenticated() {
		m.currentMode = mode.ModeClients
		m.list, m.startCmd = m.list.Enter()
	} else {
		m.startCmd = m.login.Init()
	}
	return m
}

// Init starts the first screen and the event listeners.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.startCmd, m.storeListener.Listen(), m.watcherListener.Listen()}
	if m.logListenCmd != nil {
		cmds = append(cmds, m.logListenCmd)
	}
	return tea.Batch(cmds...)
}

// Mode returns the screen currently shown.
func (m Model) Mode() mode.AppMode { return m.currentMode }

// Session returns the current authentication state.
func (m Model) Session() session.Session { return m.session }

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.SetSize(msg.Width, msg.Height)
		m.logOverlay.SetSize(msg.Width, msg.Height)
		return m.resize(), nil

	case tea.MouseMsg:
		if m.logOverlay.Visible() {
			var cmd tea.Cmd
			m.logOverlay, cmd = m.logOverlay.Update(msg)
			return m, cmd
		}
		if m.help.Visible() {
			return m, nil
		}
		if m.showHeader() && msg.Action == tea.MouseActionRelease && msg.Button == tea.MouseButtonLeft {
			if z := zone.Get(ZoneLogout); z != nil && z.InBounds(msg) {
				return m, m.logout()
			}
		}

	case log.LogEvent:
		var cmd tea.Cmd
		m.logOverlay, cmd = m.logOverlay.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if key.Matches(msg, keys.Global.Quit) {
			return m, tea.Quit
		}
		if m.debugMode && key.Matches(msg, keys.Global.LogViewer) {
			m.logOverlay.Toggle()
			return m, nil
		}
		if m.logOverlay.Visible() {
			var cmd tea.Cmd
			m.logOverlay, cmd = m.logOverlay.Update(msg)
			return m, cmd
		}
		if m.help.Visible() {
			var cmd tea.Cmd
			m.help, cmd = m.help.Update(msg)
			return m, cmd
		}
		if m.session.Authenticated() && key.Matches(msg, keys.Global.Logout) {
			return m, m.logout()
		}
		// text inputs take "?" on the other screens
		if m.currentMode == mode.ModeClients && !m.list.Confirming() && key.Matches(msg, keys.Global.Help) {
			m.help.Toggle()
			return m, nil
		}

	case mode.SignedInMsg:
		log.Info(log.CatMode, "Switching mode", "from", m.currentMode, "to", mode.ModeClients)
		m.session = msg.Session
		return m.showClients()

	case mode.SignOutMsg:
		return m, m.logout()

	case signedOutMsg:
		if msg.err != nil {
			log.ErrorErr(log.CatSession, "Logout failed", msg.err)
			return m, mode.Toast("Could not sign out: "+msg.err.Error(), toaster.StyleError)
		}
		return m.signedOut(), nil

	case mode.ShowClientsMsg:
		if !m.session.Authenticated() {
			return m.signedOut(), nil
		}
		log.Info(log.CatMode, "Switching mode", "from", m.currentMode, "to", mode.ModeClients)
		return m.showClients()

	case mode.ShowFormMsg:
		if !m.session.Authenticated() {
			return m.signedOut(), nil
		}
		log.Info(log.CatMode, "Switching mode", "from", m.currentMode, "to", mode.ModeForm, "id", msg.ID)
		return m.showForm(msg.ID)

	case pubsub.Event[registry.Change]:
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, tea.Batch(cmd, m.storeListener.Listen())

	case pubsub.Event[watcher.Change]:
		return m.handleStorageChanged()

	case mode.ShowToastMsg:
		var cmd tea.Cmd
		m.toaster, cmd = m.toaster.Show(msg.Message, msg.Style)
		return m, cmd

	case toaster.DismissMsg:
		m.toaster = m.toaster.Dismiss(msg)
		return m, nil

	case help.CloseMsg:
		m.help.Hide()
		return m, nil

	case logoverlay.CloseMsg:
		m.logOverlay.Hide()
		return m, nil
	}

	// Delegate everything else to the active screen
	var cmd tea.Cmd
	switch m.currentMode {
	case mode.ModeLogin:
		m.login, cmd = m.login.Update(msg)
	case mode.ModeClients:
		m.list, cmd = m.list.Update(msg)
	case mode.ModeForm:
		m.form, cmd = m.form.Update(msg)
	}
	return m, cmd
}

func (m Model) showClients() (tea.Model, tea.Cmd) {
	if m.currentMode == mode.ModeForm {
		m.form.Close()
	}
	m.currentMode = mode.ModeClients
	m = m.resize()
	var cmd tea.Cmd
	m.list, cmd = m.list.Enter()
	return m, cmd
}

func (m Model) showForm(id clients.ID) (tea.Model, tea.Cmd) {
	if m.currentMode == mode.ModeForm {
		m.form.Close()
	}
	var cmd tea.Cmd
	m.form, cmd = clientform.New(m.services, id)
	m.currentMode = mode.ModeForm
	return m.resize(), cmd
}

// signedOut drops the session and shows the login screen.
func (m Model) signedOut() Model {
	if m.currentMode == mode.ModeForm {
		m.form.Close()
	}
	if m.currentMode != mode.ModeLogin {
		log.Info(log.CatMode, "Switching mode", "from", m.currentMode, "to", mode.ModeLogin)
	}
	m.session = session.Session{}
	m.currentMode = mode.ModeLogin
	m.help.Hide()
	m.login = m.login.Reset()
	return m.resize()
}

func (m Model) logout() tea.Cmd {
	sessions := m.services.Sessions
	return func() tea.Msg {
		if sessions == nil {
			return signedOutMsg{}
		}
		return signedOutMsg{err: sessions.Logout(context.Background())}
	}
}

// handleStorageChanged re-reads the session after another process wrote
// local storage, following a sign-in or sign-out made there.
func (m Model) handleStorageChanged() (tea.Model, tea.Cmd) {
	listen := m.watcherListener.Listen()
	s := m.restore()

	switch {
	case !s.Authenticated() && m.session.Authenticated():
		log.Info(log.CatSession, "Session cleared by another process")
		m = m.signedOut()
		return m, tea.Batch(listen, mode.Toast(MsgSignedOutElsewhere, toaster.StyleInfo))

	case s.Authenticated() && m.currentMode == mode.ModeLogin && !m.login.Submitting():
		log.Info(log.CatSession, "Session restored from storage")
		m.session = s
		model, cmd := m.showClients()
		return model, tea.Batch(listen, cmd)
	}
	return m, listen
}

func (m Model) restore() session.Session {
	if m.services.Sessions == nil {
		return session.Session{}
	}
	s, err := m.services.Sessions.Restore(context.Background())
	if err != nil {
		log.ErrorErr(log.CatSession, "Restoring session failed", err)
		return session.Session{}
	}
	return s
}

func (m Model) showHeader() bool {
	if !m.session.Authenticated() || m.currentMode == mode.ModeLogin {
		return false
	}
	return m.services.Config == nil || m.services.Config.UI.ShowHeader
}

// resize hands every screen the space left under the header.
func (m Model) resize() Model {
	h := m.height
	if m.showHeader() {
		h = max(h-headerHeight, 0)
	}
	m.login = m.login.SetSize(m.width, m.height)
	m.list = m.list.SetSize(m.width, h)
	m.form = m.form.SetSize(m.width, h)
	return m
}

// View implements tea.Model.
func (m Model) View() string {
	var view string
	switch m.currentMode {
	case mode.ModeClients:
		view = m.list.View()
	case mode.ModeForm:
		view = m.form.View()
	default:
		view = m.login.View()
	}

	if m.showHeader() {
		view = lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), view)
	}

	if m.toaster.Visible() {
		view = m.toaster.Overlay(view, m.width, m.height)
	}
	if m.help.Visible() {
		view = m.help.Overlay(view)
	}
	if m.debugMode && m.logOverlay.Visible() {
		view = m.logOverlay.Overlay(view)
	}

	return zone.Scan(view)
}

func (m Model) renderHeader() string {
	brand := styles.BrandStyle.Render("ClientFlow CRM")

	email := m.session.User.Email
	var user string
	if email != "" {
		user = styles.AvatarStyle.Render(styles.Initial(email)) + " " +
			lipgloss.NewStyle().Foreground(styles.TextSecondaryColor).Render(email) + "  "
	}
	logout := zone.Mark(ZoneLogout, styles.HintStyle.Render("Logout (ctrl+l)"))
	right := user + logout

	inner := max(m.width-2, 0) // HeaderStyle padding
	gap := max(inner-lipgloss.Width(brand)-lipgloss.Width(right), 1)
	return styles.HeaderStyle.Width(m.width).Render(brand + strings.Repeat(" ", gap) + right)
}

// Close releases resources held by the application.
func (m *Model) Close() error {
	m.logOverlay.StopListening()

	if m.currentMode == mode.ModeForm {
		m.form.Close()
	}

	if m.listenCancel != nil {
		m.listenCancel()
	}

	if m.watcherHandle != nil {
		if err := m.watcherHandle.Stop(); err != nil {
			return err
		}
	}
	return nil
}
