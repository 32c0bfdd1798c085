package logoverlay

import (
	"io"
	"os"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/clientflow/clientflow/internal/log"
)

func TestMain(m *testing.M) {
	log.InitWriter(io.Discard)
	code := m.Run()
	log.Reset()
	os.Exit(code)
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+x":
		return tea.KeyMsg{Type: tea.KeyCtrlX}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNew(t *testing.T) {
	m := New()
	require.False(t, m.Visible())
	require.Empty(t, m.View())
	require.Equal(t, log.LevelDebug, m.minLevel)
}

func TestToggle(t *testing.T) {
	m := NewWithSize(100, 40)
	m.Toggle()
	require.True(t, m.Visible())
	m.Toggle()
	require.False(t, m.Visible())
}

func TestUpdate_IgnoresKeysWhenHidden(t *testing.T) {
	m := NewWithSize(100, 40)
	m, cmd := m.Update(keyMsg("e"))
	require.Nil(t, cmd)
	require.Equal(t, log.LevelDebug, m.minLevel)
}

func TestUpdate_FilterKeys(t *testing.T) {
	tests := []struct {
		key   string
		level log.Level
	}{
		{"i", log.LevelInfo},
		{"w", log.LevelWarn},
		{"e", log.LevelError},
		{"d", log.LevelDebug},
	}
	m := NewWithSize(100, 40)
	m.Show()
	for _, tt := range tests {
		m, _ = m.Update(keyMsg(tt.key))
		require.Equal(t, tt.level, m.minLevel, "key %s", tt.key)
	}
}

func TestUpdate_Close(t *testing.T) {
	for _, k := range []string{"esc", "ctrl+x"} {
		m := NewWithSize(100, 40)
		m.Show()
		m, cmd := m.Update(keyMsg(k))
		require.False(t, m.Visible())
		require.Equal(t, CloseMsg{}, cmd())
	}
}

func TestView_FiltersByLevel(t *testing.T) {
	log.ClearBuffer()
	log.Debug(log.CatLookup, "Issuing lookup", "code", "01310930")
	log.Error(log.CatAPI, "Request failed", "url", "http://localhost:4000/clients")

	m := NewWithSize(140, 40)
	m.Show()
	view := m.View()
	require.Contains(t, view, "Issuing lookup")
	require.Contains(t, view, "Request failed")
	require.Contains(t, view, "[c] Clear")

	m, _ = m.Update(keyMsg("e"))
	view = m.View()
	require.NotContains(t, view, "Issuing lookup")
	require.Contains(t, view, "Request failed")
}

func TestView_ClearShowsEmptyState(t *testing.T) {
	log.Info(log.CatUI, "something")
	m := NewWithSize(100, 40)
	m.Show()
	m, _ = m.Update(keyMsg("c"))
	require.Contains(t, m.View(), "No logs to display")
}

func TestListening_ReceivesEntries(t *testing.T) {
	m := NewWithSize(100, 40)
	cmd := m.StartListening()
	require.NotNil(t, cmd)
	defer m.StopListening()

	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	log.Warn(log.CatWatcher, "storage changed")

	select {
	case msg := <-done:
		ev, ok := msg.(log.LogEvent)
		require.True(t, ok)
		require.True(t, strings.Contains(ev.Payload, "storage changed"))
		_, next := m.Update(msg)
		require.NotNil(t, next)
	case <-time.After(time.Second):
		require.FailNow(t, "no log event")
	}
}

func TestLevelOf(t *testing.T) {
	require.Equal(t, log.LevelWarn, levelOf("2026-01-02T10:45:00 [WARN] [cache] miss"))
	require.Equal(t, log.LevelError, levelOf("untagged"))
}
