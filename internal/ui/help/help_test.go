package help

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"
)

func TestMarkdown_ListsSections(t *testing.T) {
	md := Markdown()
	for _, want := range []string{"## Clients", "## Client form", "## Login", "## General", "`ctrl+l`", "delete client"} {
		require.Contains(t, md, want)
	}
}

func TestToggle_RendersOnce(t *testing.T) {
	m := New("dark")
	require.False(t, m.Visible())
	require.Empty(t, m.View())

	m.Toggle()
	require.True(t, m.Visible())
	view := ansi.Strip(m.View())
	require.Contains(t, view, "ClientFlow CRM")
	require.Contains(t, view, "add client")
	require.Contains(t, view, "Press ? or esc to close")

	first := m.rendered
	m.Toggle()
	m.Toggle()
	require.Equal(t, first, m.rendered)
}

func TestUpdate_ClosesOnEsc(t *testing.T) {
	m := New("light")
	m.Toggle()

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	require.True(t, m.Visible())
	require.Nil(t, cmd)

	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.False(t, m.Visible())
	require.Equal(t, CloseMsg{}, cmd())
}

func TestOverlay(t *testing.T) {
	m := New("dark")
	require.Equal(t, "bg", m.Overlay("bg"))

	m.SetSize(100, 60)
	m.Toggle()
	require.Contains(t, m.Overlay(""), "Press ? or esc to close")
}
