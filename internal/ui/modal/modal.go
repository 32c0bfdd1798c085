// Package modal provides the confirmation dialog.
package modal

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/clientflow/clientflow/internal/ui/overlay"
	"github.com/clientflow/clientflow/internal/ui/styles"
)

// Zone ids of the buttons, registered with the global bubblezone manager.
const (
	ZoneConfirm = "modal-confirm"
	ZoneCancel  = "modal-cancel"
)

const defaultWidth = 50

// Config controls modal appearance.
type Config struct {
	Title        string
	Message      string
	ConfirmLabel string // default "Confirm"
	Variant      styles.ButtonVariant
	Width        int
}

// ConfirmMsg is sent when the user confirms. Tag echoes the value passed to
// New so callers can tell dialogs apart.
type ConfirmMsg struct {
	Tag string
}

// CancelMsg is sent on esc or the Cancel button.
type CancelMsg struct {
	Tag string
}

type button int

const (
	buttonConfirm button = iota
	buttonCancel
)

// Model is the dialog state.
type Model struct {
	config  Config
	tag     string
	focused button
	width   int
	height  int
}

// New creates a dialog. Cancel has the initial focus so a stray enter does
// not confirm a destructive action.
func New(tag string, cfg Config) Model {
	if cfg.ConfirmLabel == "" {
		cfg.ConfirmLabel = "Confirm"
	}
	if cfg.Width <= 0 {
		cfg.Width = defaultWidth
	}
	focused := buttonConfirm
	if cfg.Variant == styles.ButtonDanger {
		focused = buttonCancel
	}
	return Model{config: cfg, tag: tag, focused: focused}
}

// Tag returns the value passed to New.
func (m Model) Tag() string { return m.tag }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "shift+tab", "left", "right", "h", "l":
			if m.focused == buttonConfirm {
				m.focused = buttonCancel
			} else {
				m.focused = buttonConfirm
			}
		case "y":
			return m, m.confirm()
		case "n", "esc":
			return m, m.cancel()
		case "enter":
			if m.focused == buttonConfirm {
				return m, m.confirm()
			}
			return m, m.cancel()
		}

	case tea.MouseMsg:
		if msg.Action != tea.MouseActionRelease || msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		if z := zone.Get(ZoneConfirm); z != nil && z.InBounds(msg) {
			return m, m.confirm()
		}
		if z := zone.Get(ZoneCancel); z != nil && z.InBounds(msg) {
			return m, m.cancel()
		}

	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
	}
	return m, nil
}

func (m Model) confirm() tea.Cmd {
	tag := m.tag
	return func() tea.Msg { return ConfirmMsg{Tag: tag} }
}

func (m Model) cancel() tea.Cmd {
	tag := m.tag
	return func() tea.Msg { return CancelMsg{Tag: tag} }
}

// View renders the dialog box.
func (m Model) View() string {
	width := max(m.config.Width, lipgloss.Width(m.config.Title)+2)

	title := lipgloss.NewStyle().Bold(true).Foreground(styles.OverlayTitleColor).PaddingLeft(1).
		Render(m.config.Title)
	divider := lipgloss.NewStyle().Foreground(styles.OverlayBorderColor).Render(strings.Repeat("─", width))

	var body strings.Builder
	if m.config.Message != "" {
		body.WriteString(lipgloss.NewStyle().Foreground(styles.TextPrimaryColor).
			Render(styles.Wrap(m.config.Message, width-2)))
		body.WriteString("\n\n")
	}

	confirm := styles.Button(m.config.Variant, m.focused == buttonConfirm, false).Render(m.config.ConfirmLabel)
	cancel := styles.Button(styles.ButtonSecondary, m.focused == buttonCancel, false).Render("Cancel")
	body.WriteString(zone.Mark(ZoneConfirm, confirm) + "  " + zone.Mark(ZoneCancel, cancel))

	content := title + "\n" + divider + "\n" + lipgloss.NewStyle().Padding(1, 1).Render(body.String())

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.OverlayBorderColor).
		Width(width).
		Render(content)
}

// Overlay renders the dialog centered on bg.
func (m Model) Overlay(bg string) string {
	return overlay.Place(overlay.Config{
		Width:    m.width,
		Height:   m.height,
		Position: overlay.Center,
	}, m.View(), bg)
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
