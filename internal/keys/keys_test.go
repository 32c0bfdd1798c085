package keys

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

func TestKeyAssignments(t *testing.T) {
	tests := []struct {
		name     string
		binding  key.Binding
		expected []string
	}{
		{"quit", Global.Quit, []string{"ctrl+c"}},
		{"logout", Global.Logout, []string{"ctrl+l"}},
		{"log viewer", Global.LogViewer, []string{"ctrl+x"}},
		{"add", List.Add, []string{"a", "n"}},
		{"edit", List.Edit, []string{"enter", "e"}},
		{"delete", List.Delete, []string{"d", "delete"}},
		{"refresh", List.Refresh, []string{"r"}},
		{"save", Form.Submit, []string{"ctrl+s"}},
		{"back", Form.Back, []string{"esc"}},
		{"password visibility", Login.TogglePassword, []string{"ctrl+t"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.binding.Keys())
		})
	}
}

func TestMatches(t *testing.T) {
	require.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyCtrlL}, Global.Logout))
	require.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")}, List.Delete))
	require.False(t, key.Matches(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")}, List.Delete))
}

func TestHelpSections_AllBindingsDocumented(t *testing.T) {
	sections := HelpSections()
	require.NotEmpty(t, sections)
	for _, s := range sections {
		require.NotEmpty(t, s.Title)
		for _, b := range s.Bindings {
			require.NotEmpty(t, b.Help().Key, "section %s", s.Title)
			require.NotEmpty(t, b.Help().Desc, "section %s", s.Title)
		}
	}
}
