package modal

import (
	"os"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
	"github.com/stretchr/testify/require"

	"github.com/clientflow/clientflow/internal/ui/styles"
)

func TestMain(m *testing.M) {
	zone.NewGlobal()
	os.Exit(m.Run())
}

func deleteDialog() Model {
	return New("delete:7", Config{
		Title:        "Delete Client",
		Message:      "Are you sure you want to delete this client?",
		ConfirmLabel: "Delete",
		Variant:      styles.ButtonDanger,
	})
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func run(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	require.NotNil(t, cmd)
	return cmd()
}

func TestDangerDialog_EnterCancelsByDefault(t *testing.T) {
	m := deleteDialog()
	_, cmd := m.Update(key("enter"))
	require.Equal(t, CancelMsg{Tag: "delete:7"}, run(t, cmd))
}

func TestDialog_TabThenEnterConfirms(t *testing.T) {
	m := deleteDialog()
	m, _ = m.Update(key("tab"))
	_, cmd := m.Update(key("enter"))
	require.Equal(t, ConfirmMsg{Tag: "delete:7"}, run(t, cmd))
}

func TestDialog_Shortcuts(t *testing.T) {
	m := deleteDialog()

	_, cmd := m.Update(key("y"))
	require.Equal(t, ConfirmMsg{Tag: "delete:7"}, run(t, cmd))

	_, cmd = m.Update(key("n"))
	require.Equal(t, CancelMsg{Tag: "delete:7"}, run(t, cmd))

	_, cmd = m.Update(key("esc"))
	require.Equal(t, CancelMsg{Tag: "delete:7"}, run(t, cmd))
}

func TestPrimaryDialog_EnterConfirms(t *testing.T) {
	m := New("x", Config{Title: "Sign out"})
	_, cmd := m.Update(key("enter"))
	require.Equal(t, ConfirmMsg{Tag: "x"}, run(t, cmd))
}

func TestView(t *testing.T) {
	view := zone.Scan(deleteDialog().View())
	require.Contains(t, view, "Delete Client")
	require.Contains(t, view, "Are you sure you want to delete this client?")
	require.Contains(t, view, "Delete")
	require.Contains(t, view, "Cancel")
}

func TestOverlay_Centers(t *testing.T) {
	m := deleteDialog()
	m.SetSize(80, 24)
	out := zone.Scan(m.Overlay(""))
	require.Contains(t, out, "Delete Client")
	require.Equal(t, "delete:7", m.Tag())
}
