// Package login implements the sign-in screen.
package login

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/clientflow/clientflow/internal/keys"
	"github.com/clientflow/clientflow/internal/log"
	"github.com/clientflow/clientflow/internal/mode"
	"github.com/clientflow/clientflow/internal/session"
	"github.com/clientflow/clientflow/internal/ui/styles"
	"github.com/clientflow/clientflow/internal/ui/toaster"
)

// Texts shown by the screen.
const (
	MsgInvalidCredentials = "Invalid credentials. Please try again."
	MsgEmailRequired      = "Email is required"
	MsgPasswordRequired   = "Password is required"

	brandTitle   = "ClientFlow CRM"
	brandTagline = "Manage your clients efficiently with a modern and powerful interface."
)

// ZoneSubmit is the bubblezone id of the Sign In button.
const ZoneSubmit = "login-submit"

const (
	focusEmail = iota
	focusPassword
	focusSubmit
	focusCount
)

const (
	formWidth = 44
	// side-by-side layout below this width stacks the brand panel on top
	splitWidth = 90
)

type resultMsg struct {
	session session.Session
	err     error
}

// Model is the login screen state.
type Model struct {
	services mode.Services

	email    textinput.Model
	password textinput.Model
	focus    int

	emailErr    string
	passwordErr string

	showPassword bool
	submitting   bool

	width  int
	height int
}

// New creates the login screen with the email field focused.
func New(services mode.Services) Model {
	email := textinput.New()
	email.Prompt = ""
	email.Placeholder = "you@company.com"
	email.Width = formWidth - 4
	email.Focus()

	password := textinput.New()
	password.Prompt = ""
	password.Placeholder = "Password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.Width = formWidth - 4

	return Model{
		services: services,
		email:    email,
		password: password,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	return m
}

// Reset clears the inputs, used when the session ends.
func (m Model) Reset() Model {
	m.email.SetValue("")
	m.password.SetValue("")
	m.emailErr, m.passwordErr = "", ""
	m.submitting = false
	return m.setFocus(focusEmail)
}

// Submitting reports whether a login attempt is in flight.
func (m Model) Submitting() bool { return m.submitting }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case resultMsg:
		m.submitting = false
		if msg.err != nil {
			if errors.Is(msg.err, session.ErrInvalidCredentials) {
				return m, mode.Toast(MsgInvalidCredentials, toaster.StyleError)
			}
			log.ErrorErr(log.CatSession, "Login failed", msg.err)
			return m, mode.Toast("Could not sign in: "+msg.err.Error(), toaster.StyleError)
		}
		s := msg.session
		return m.Reset(), mode.Navigate(mode.SignedInMsg{Session: s})

	case tea.MouseMsg:
		if m.submitting || msg.Action != tea.MouseActionRelease || msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		if z := zone.Get(ZoneSubmit); z != nil && z.InBounds(msg) {
			return m.submit()
		}
		return m, nil

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch {
		case key.Matches(msg, keys.Login.TogglePassword):
			m.showPassword = !m.showPassword
			if m.showPassword {
				m.password.EchoMode = textinput.EchoNormal
			} else {
				m.password.EchoMode = textinput.EchoPassword
			}
			return m, nil
		case key.Matches(msg, keys.Login.Submit):
			if m.focus == focusEmail {
				return m.setFocus(focusPassword), nil
			}
			return m.submit()
		case key.Matches(msg, keys.Login.Next):
			return m.setFocus((m.focus + 1) % focusCount), nil
		case key.Matches(msg, keys.Login.Prev):
			return m.setFocus((m.focus + focusCount - 1) % focusCount), nil
		}
	}

	var cmd tea.Cmd
	switch m.focus {
	case focusEmail:
		m.email, cmd = m.email.Update(msg)
		if _, ok := msg.(tea.KeyMsg); ok && m.email.Value() != "" {
			m.emailErr = ""
		}
	case focusPassword:
		m.password, cmd = m.password.Update(msg)
		if _, ok := msg.(tea.KeyMsg); ok && m.password.Value() != "" {
			m.passwordErr = ""
		}
	}
	return m, cmd
}

func (m Model) setFocus(f int) Model {
	m.focus = f
	m.email.Blur()
	m.password.Blur()
	switch f {
	case focusEmail:
		m.email.Focus()
	case focusPassword:
		m.password.Focus()
	}
	return m
}

// submit checks presence of both fields, then hands the credentials to the
// session manager off the update loop.
func (m Model) submit() (Model, tea.Cmd) {
	email := m.email.Value()
	password := m.password.Value()

	m.emailErr, m.passwordErr = "", ""
	if strings.TrimSpace(email) == "" {
		m.emailErr = MsgEmailRequired
	}
	if password == "" {
		m.passwordErr = MsgPasswordRequired
	}
	if m.emailErr != "" {
		return m.setFocus(focusEmail), nil
	}
	if m.passwordErr != "" {
		return m.setFocus(focusPassword), nil
	}

	m.submitting = true
	sessions := m.services.Sessions
	ctx, cancel := m.services.RemoteContext()
	return m, func() tea.Msg {
		defer cancel()
		s, err := sessions.Login(ctx, email, password)
		return resultMsg{session: s, err: err}
	}
}

func (m Model) View() string {
	form := m.renderForm()
	brand := m.renderBrand()

	var body string
	if m.width >= splitWidth {
		body = lipgloss.JoinHorizontal(lipgloss.Center, brand, "    ", form)
	} else {
		body = lipgloss.JoinVertical(lipgloss.Center, brand, "", form)
	}
	if m.width == 0 || m.height == 0 {
		return body
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
}

func (m Model) renderBrand() string {
	title := styles.BrandStyle.Render(brandTitle)
	tagline := lipgloss.NewStyle().Foreground(styles.TextSecondaryColor).
		Width(36).Align(lipgloss.Center).Render(brandTagline)
	return lipgloss.JoinVertical(lipgloss.Center, title, "", tagline)
}

func (m Model) renderForm() string {
	passwordHint := "ctrl+t show"
	if m.showPassword {
		passwordHint = "ctrl+t hide"
	}

	label := "Sign In"
	if m.submitting {
		label = "Signing in..."
	}
	button := styles.Button(styles.ButtonPrimary, m.focus == focusSubmit, m.submitting).Render(label)

	rows := []string{
		lipgloss.NewStyle().Width(formWidth).Align(lipgloss.Center).Render(styles.TitleStyle.Render("Sign In")),
		"",
		styles.RenderField(m.email.View(), "Email", "", m.emailErr, formWidth, m.focus == focusEmail),
		styles.RenderField(m.password.View(), "Password", passwordHint, m.passwordErr, formWidth, m.focus == focusPassword),
		"",
		lipgloss.NewStyle().Width(formWidth).Align(lipgloss.Center).Render(zone.Mark(ZoneSubmit, button)),
		"",
		lipgloss.NewStyle().Width(formWidth).Align(lipgloss.Center).
			Render(styles.HintStyle.Render("Don't have an account? Contact the administrator")),
	}
	return strings.Join(rows, "\n")
}
