// Package toaster provides the notification toast overlay.
package toaster

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/clientflow/clientflow/internal/ui/overlay"
	"github.com/clientflow/clientflow/internal/ui/styles"
)

// DefaultDuration is how long a toast stays up.
const DefaultDuration = 4 * time.Second

const maxWidth = 60

// Style determines the visual appearance of the toast.
type Style int

const (
	StyleSuccess Style = iota
	StyleError
	StyleInfo
	StyleWarn
)

// Model holds the toaster state. Each Show stamps a new id so a dismissal
// scheduled for an earlier toast cannot hide a newer one.
type Model struct {
	message string
	style   Style
	visible bool
	id      int
}

func New() Model {
	return Model{}
}

// Show displays message and returns the command that dismisses it after
// DefaultDuration.
func (m Model) Show(message string, style Style) (Model, tea.Cmd) {
	m.id++
	m.message = message
	m.style = style
	m.visible = true
	return m, ScheduleDismiss(m.id, DefaultDuration)
}

// Dismiss hides the toast if msg belongs to the one currently shown.
func (m Model) Dismiss(msg DismissMsg) Model {
	if msg.ID != m.id {
		return m
	}
	return m.Hide()
}

func (m Model) Hide() Model {
	m.visible = false
	m.message = ""
	return m
}

func (m Model) Visible() bool {
	return m.visible
}

// Message returns the text of the visible toast.
func (m Model) Message() string {
	return m.message
}

// Style returns the style of the visible toast.
func (m Model) Style() Style {
	return m.style
}

// View renders the toast box.
func (m Model) View() string {
	if !m.visible || m.message == "" {
		return ""
	}

	box := lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder())

	var icon string
	switch m.style {
	case StyleError:
		box = box.BorderForeground(styles.StatusErrorColor)
		icon = "✗ "
	case StyleInfo:
		box = box.BorderForeground(styles.StatusInfoColor)
		icon = "i "
	case StyleWarn:
		box = box.BorderForeground(styles.StatusWarningColor)
		icon = "! "
	default:
		box = box.BorderForeground(styles.StatusSuccessColor)
		icon = "✓ "
	}

	return box.Render(styles.Wrap(icon+m.message, maxWidth))
}

// Overlay renders the toast near the bottom edge of bg.
func (m Model) Overlay(bg string, width, height int) string {
	if !m.visible || m.message == "" {
		return bg
	}
	return overlay.Place(overlay.Config{
		Width:    width,
		Height:   height,
		Position: overlay.Bottom,
		PadY:     1,
	}, m.View(), bg)
}

// DismissMsg asks the toaster to hide toast ID.
type DismissMsg struct {
	ID int
}

// ScheduleDismiss returns a command that dismisses toast id after d.
func ScheduleDismiss(id int, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return DismissMsg{ID: id}
	})
}
