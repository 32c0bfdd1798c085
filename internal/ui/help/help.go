// Package help contains the key help overlay.
package help

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/clientflow/clientflow/internal/keys"
	"github.com/clientflow/clientflow/internal/log"
	"github.com/clientflow/clientflow/internal/ui/overlay"
	"github.com/clientflow/clientflow/internal/ui/styles"
)

const contentWidth = 56

// CloseMsg is sent when the overlay closes itself.
type CloseMsg struct{}

// Model holds the help overlay state.
type Model struct {
	visible  bool
	style    string
	rendered string
	width    int
	height   int
}

// New creates a hidden overlay. style is the glamour style ("dark", "light").
func New(style string) Model {
	return Model{style: style}
}

// Markdown builds the help document from the key map.
func Markdown() string {
	var b strings.Builder
	b.WriteString("# ClientFlow CRM\n")
	for _, s := range keys.HelpSections() {
		fmt.Fprintf(&b, "\n## %s\n\n| Key | Action |\n| --- | --- |\n", s.Title)
		for _, k := range s.Bindings {
			h := k.Help()
			fmt.Fprintf(&b, "| `%s` | %s |\n", h.Key, h.Desc)
		}
	}
	return b.String()
}

func (m *Model) render() {
	if m.rendered != "" {
		return
	}
	md := Markdown()
	r, err := newRenderer(contentWidth, m.style)
	if err != nil {
		log.ErrorErr(log.CatUI, "Creating help renderer", err)
		m.rendered = md
		return
	}
	out, err := r.Render(md)
	if err != nil {
		log.ErrorErr(log.CatUI, "Rendering help", err)
		m.rendered = md
		return
	}
	m.rendered = strings.TrimRight(out, "\n")
}

func (m *Model) Toggle() {
	m.visible = !m.visible
	if m.visible {
		m.render()
	}
}

func (m *Model) Hide() { m.visible = false }

func (m Model) Visible() bool { return m.visible }

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Update closes the overlay on ?, esc or q and swallows every other key.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.visible {
		return m, nil
	}
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "?", "esc", "q":
			m.visible = false
			return m, func() tea.Msg { return CloseMsg{} }
		}
	}
	return m, nil
}

func (m Model) View() string {
	if !m.visible {
		return ""
	}
	footer := styles.HintStyle.Render("Press ? or esc to close")
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.OverlayBorderColor).
		Padding(0, 2).
		Render(m.rendered + "\n\n" + footer)
}

// Overlay renders the help box centered on bg.
func (m Model) Overlay(bg string) string {
	if !m.visible {
		return bg
	}
	return overlay.Place(overlay.Config{
		Width:    m.width,
		Height:   m.height,
		Position: overlay.Center,
	}, m.View(), bg)
}
