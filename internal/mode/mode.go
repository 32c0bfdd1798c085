// Package mode defines the screens of the application, the services they
// share and the messages they use to talk to the root model.
package mode

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/clientflow/clientflow/internal/clients"
	"github.com/clientflow/clientflow/internal/config"
	"github.com/clientflow/clientflow/internal/lookup"
	"github.com/clientflow/clientflow/internal/registry"
	"github.com/clientflow/clientflow/internal/session"
	"github.com/clientflow/clientflow/internal/ui/toaster"
)

// AppMode identifies the screen currently shown.
type AppMode int

const (
	ModeLogin AppMode = iota
	ModeClients
	ModeForm
)

func (m AppMode) String() string {
	switch m {
	case ModeClients:
		return "clients"
	case ModeForm:
		return "form"
	default:
		return "login"
	}
}

// Services contains shared dependencies injected into the screens.
type Services struct {
	Store      *registry.Store
	Resolver   lookup.Resolver
	Sessions   *session.Manager
	Config     *config.Config
	ConfigPath string
}

// RemoteContext returns a context for one registry call. Registry calls are
// not tied to the screen that started them, so the only bound is the
// configured API timeout.
func (s Services) RemoteContext() (context.Context, context.CancelFunc) {
	if s.Config != nil && s.Config.API.Timeout > 0 {
		return context.WithTimeout(context.Background(), s.Config.API.Timeout)
	}
	return context.WithCancel(context.Background())
}

// ShowToastMsg asks the root model to show a toast.
type ShowToastMsg struct {
	Message string
	Style   toaster.Style
}

// Toast returns a command emitting ShowToastMsg.
func Toast(message string, style toaster.Style) tea.Cmd {
	return func() tea.Msg {
		return ShowToastMsg{Message: message, Style: style}
	}
}

// SignedInMsg is sent by the login screen after a successful login.
type SignedInMsg struct {
	Session session.Session
}

// SignOutMsg asks the root model to end the session.
type SignOutMsg struct{}

// ShowClientsMsg navigates to the client list.
type ShowClientsMsg struct{}

// ShowFormMsg navigates to the client form. An empty ID opens a blank form
// for a new client.
type ShowFormMsg struct {
	ID clients.ID
}

// Navigate returns a command emitting msg.
func Navigate(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}
