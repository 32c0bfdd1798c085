package app

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	zone "github.com/lrstanley/bubblezone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clientflow/clientflow/internal/mode"
	"github.com/clientflow/clientflow/internal/pubsub"
	"github.com/clientflow/clientflow/internal/registry"
	"github.com/clientflow/clientflow/internal/session"
	"github.com/clientflow/clientflow/internal/testutil"
	"github.com/clientflow/clientflow/internal/ui/toaster"
	"github.com/clientflow/clientflow/internal/watcher"
)

func TestMain(m *testing.M) {
	zone.NewGlobal()
	os.Exit(m.Run())
}

// createTestModel builds the root model over a mock API with two clients.
// signedIn persists a session first, as a previous run would have.
func createTestModel(t *testing.T, signedIn bool) (Model, *testutil.Env) {
	t.Helper()
	env := testutil.NewBuilder(t).WithStandardClients().Build()
	if signedIn {
		_, err := env.Sessions.Login(context.Background(), session.AdminEmail, session.AdminPassword)
		require.NoError(t, err)
	}
	m := New(env.Services(), false)
	t.Cleanup(func() { _ = m.Close() })

	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model), env
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestApp_StartsOnLoginWithoutSession(t *testing.T) {
	m, _ := createTestModel(t, false)
	assert.Equal(t, mode.ModeLogin, m.Mode())
	assert.False(t, m.Session().Authenticated())
	assert.Contains(t, m.View(), "Sign In")
	assert.NotContains(t, m.View(), "Logout")
}

func TestApp_RestoresPersistedSession(t *testing.T) {
	m, _ := createTestModel(t, true)
	require.Equal(t, mode.ModeClients, m.Mode())
	require.Equal(t, session.AdminEmail, m.Session().User.Email)
	require.NotNil(t, m.Init())

	view := m.View()
	assert.Contains(t, view, session.AdminEmail)
	assert.Contains(t, view, "Logout")
}

func TestApp_SignInShowsClients(t *testing.T) {
	m, env := createTestModel(t, false)
	s, err := env.Sessions.Login(context.Background(), session.AdminEmail, session.AdminPassword)
	require.NoError(t, err)

	m, cmd := update(t, m, mode.SignedInMsg{Session: s})
	require.Equal(t, mode.ModeClients, m.Mode())
	require.NotNil(t, cmd)

	m, _ = update(t, m, cmd())
	view := m.View()
	assert.Contains(t, view, "Clients (2)")
	assert.Contains(t, view, "Bruno Lima")
}

func TestApp_NavigationRequiresSession(t *testing.T) {
	m, _ := createTestModel(t, false)

	m, _ = update(t, m, mode.ShowFormMsg{})
	assert.Equal(t, mode.ModeLogin, m.Mode())

	m, _ = update(t, m, mode.ShowClientsMsg{})
	assert.Equal(t, mode.ModeLogin, m.Mode())
}

func TestApp_FormRoundTrip(t *testing.T) {
	m, _ := createTestModel(t, true)
	m, _ = update(t, m, m.startCmd())

	m, _ = update(t, m, mode.ShowFormMsg{ID: "1"})
	require.Equal(t, mode.ModeForm, m.Mode())
	assert.Contains(t, m.View(), "Edit Client")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	assert.Equal(t, mode.ModeClients, m.Mode())
}

func TestApp_LogoutClearsSession(t *testing.T) {
	m, env := createTestModel(t, true)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())

	assert.Equal(t, mode.ModeLogin, m.Mode())
	assert.False(t, m.Session().Authenticated())

	s, err := env.Sessions.Restore(context.Background())
	require.NoError(t, err)
	assert.False(t, s.Authenticated())
}

func TestApp_HelpOnlyOnClientList(t *testing.T) {
	m, _ := createTestModel(t, true)
	m, _ = update(t, m, m.startCmd())

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	require.True(t, m.help.Visible())

	// keys go to the overlay while it is open
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	require.Nil(t, cmd)
	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	require.False(t, m.help.Visible())

	m, _ = update(t, m, mode.ShowFormMsg{})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	assert.False(t, m.help.Visible())
	assert.Equal(t, "?", m.form.Draft().Name)
}

func TestApp_ToastDismissal(t *testing.T) {
	m, _ := createTestModel(t, true)

	m, cmd := update(t, m, mode.ShowToastMsg{Message: "first", Style: toaster.StyleInfo})
	require.NotNil(t, cmd)
	m, _ = update(t, m, mode.ShowToastMsg{Message: "second", Style: toaster.StyleInfo})
	assert.Contains(t, m.View(), "second")

	// the first toast's timer must not hide the second
	m, _ = update(t, m, toaster.DismissMsg{ID: 1})
	assert.True(t, m.toaster.Visible())
	m, _ = update(t, m, toaster.DismissMsg{ID: 2})
	assert.False(t, m.toaster.Visible())
}

func TestApp_StoreEventsRefreshList(t *testing.T) {
	m, env := createTestModel(t, true)
	m, _ = update(t, m, m.startCmd())
	require.Len(t, m.list.Rows(), 2)

	_, err := env.Store.Create(context.Background(), testutil.Input(testutil.Name("Carla")))
	require.NoError(t, err)

	m, cmd := update(t, m, pubsub.Event[registry.Change]{Type: pubsub.CreatedEvent})
	require.NotNil(t, cmd, "listener must be re-armed")
	assert.Len(t, m.list.Rows(), 3)
}

func TestApp_StorageChangeFollowsSignOutElsewhere(t *testing.T) {
	m, env := createTestModel(t, true)
	require.NoError(t, env.Sessions.Logout(context.Background()))

	m, cmd := update(t, m, pubsub.Event[watcher.Change]{Type: pubsub.UpdatedEvent})
	assert.Equal(t, mode.ModeLogin, m.Mode())
	require.NotNil(t, cmd)

	// no watcher is running here, so the toast is the only command
	toast, ok := cmd().(mode.ShowToastMsg)
	require.True(t, ok)
	assert.Equal(t, MsgSignedOutElsewhere, toast.Message)
}

func TestApp_LoginFlow(t *testing.T) {
	m, _ := createTestModel(t, false)

	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(120, 40))
	tm.Type(session.AdminEmail)
	tm.Send(tea.KeyMsg{Type: tea.KeyTab})
	tm.Type(session.AdminPassword)
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return bytes.Contains(out, []byte("Clients (2)")) && bytes.Contains(out, []byte("Ana"))
	}, teatest.WithDuration(5*time.Second))

	require.NoError(t, tm.Quit())
	final := tm.FinalModel(t, teatest.WithFinalTimeout(2*time.Second)).(Model)
	assert.Equal(t, mode.ModeClients, final.Mode())
	assert.Equal(t, session.AdminEmail, final.Session().User.Email)
}
