// Package clientlist implements the client table screen: listing, opening
// the form for a new or existing client, and deleting with confirmation.
package clientlist

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/clientflow/clientflow/internal/clients"
	"github.com/clientflow/clientflow/internal/keys"
	"github.com/clientflow/clientflow/internal/log"
	"github.com/clientflow/clientflow/internal/mode"
	"github.com/clientflow/clientflow/internal/pubsub"
	"github.com/clientflow/clientflow/internal/registry"
	"github.com/clientflow/clientflow/internal/ui/modal"
	"github.com/clientflow/clientflow/internal/ui/styles"
	"github.com/clientflow/clientflow/internal/ui/table"
	"github.com/clientflow/clientflow/internal/ui/toaster"
)

// Texts shown by the screen.
const (
	MsgLoading       = "Loading clients..."
	MsgEmpty         = `No clients found. Press "a" to add one.`
	MsgConfirmDelete = "Are you sure you want to delete this client?"
	MsgDeleted       = "Client deleted successfully!"
)

// ZoneAdd is the bubblezone id of the Add Client button.
const ZoneAdd = "clients-add"

const deleteTag = "delete-client"

type listedMsg struct {
	err error
}

// Model is the client list state.
type Model struct {
	services mode.Services
	table    table.Model[clients.Client]

	loading       bool
	confirming    bool
	modal         modal.Model
	pendingDelete clients.ID

	width  int
	height int
}

func New(services mode.Services) Model {
	tbl := table.New(table.Config[clients.Client]{
		EmptyMessage: MsgEmpty,
		Columns: []table.Column[clients.Client]{
			{Header: "Name", MinWidth: 12, Render: func(c clients.Client) string { return c.Name }},
			{Header: "Email", MinWidth: 16, Render: func(c clients.Client) string { return c.Email }},
			{Header: "Phone", Width: 18, Render: func(c clients.Client) string { return c.Phone }},
			{Header: "City", Width: 18, Render: func(c clients.Client) string { return c.City }},
		},
		RowZoneID: func(_ int, c clients.Client) string { return "client-row-" + c.ID.String() },
	})
	m := Model{services: services, table: tbl}
	return m.refreshRows()
}

// Enter is called each time the screen is shown. It renders whatever the
// store already holds and fetches the collection again.
func (m Model) Enter() (Model, tea.Cmd) {
	m.confirming = false
	m = m.refreshRows()
	return m.fetch()
}

func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	m.table = m.table.SetSize(width, m.tableHeight())
	m.modal.SetSize(width, height)
	return m
}

// Loading reports whether the first fetch is still running.
func (m Model) Loading() bool { return m.loading }

// Confirming reports whether the delete dialog is open.
func (m Model) Confirming() bool { return m.confirming }

// Rows returns the rows currently rendered.
func (m Model) Rows() []clients.Client { return m.table.Rows() }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case listedMsg:
		m.loading = false
		m = m.refreshRows()
		if msg.err != nil {
			return m, mode.Toast("Failed to load clients: "+msg.err.Error(), toaster.StyleError)
		}
		return m, nil

	case pubsub.Event[registry.Change]:
		return m.refreshRows(), nil

	case modal.ConfirmMsg:
		if msg.Tag != deleteTag || !m.confirming {
			return m, nil
		}
		m.confirming = false
		return m, m.delete(m.pendingDelete)

	case modal.CancelMsg:
		if msg.Tag == deleteTag {
			m.confirming = false
			m.pendingDelete = ""
		}
		return m, nil
	}

	if m.confirming {
		var cmd tea.Cmd
		m.modal, cmd = m.modal.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		return m.handleMouse(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.List.Up):
		m.table = m.table.MoveUp()
	case key.Matches(msg, keys.List.Down):
		m.table = m.table.MoveDown()
	case key.Matches(msg, keys.List.Top):
		m.table = m.table.Top()
	case key.Matches(msg, keys.List.Bottom):
		m.table = m.table.Bottom()
	case key.Matches(msg, keys.List.Add):
		return m, mode.Navigate(mode.ShowFormMsg{})
	case key.Matches(msg, keys.List.Edit):
		if c, ok := m.table.Selected(); ok {
			return m, mode.Navigate(mode.ShowFormMsg{ID: c.ID})
		}
	case key.Matches(msg, keys.List.Delete):
		if c, ok := m.table.Selected(); ok {
			return m.confirmDelete(c), nil
		}
	case key.Matches(msg, keys.List.Refresh):
		return m.fetch()
	}
	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) (Model, tea.Cmd) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.table = m.table.MoveUp()
		return m, nil
	case tea.MouseButtonWheelDown:
		m.table = m.table.MoveDown()
		return m, nil
	}
	if msg.Action != tea.MouseActionRelease || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	if z := zone.Get(ZoneAdd); z != nil && z.InBounds(msg) {
		return m, mode.Navigate(mode.ShowFormMsg{})
	}
	if i, ok := m.table.RowAt(msg); ok {
		// a click selects, a click on the selected row opens it
		if i == m.table.Cursor() {
			c, _ := m.table.Selected()
			return m, mode.Navigate(mode.ShowFormMsg{ID: c.ID})
		}
		m.table = m.table.SetCursor(i)
	}
	return m, nil
}

func (m Model) confirmDelete(c clients.Client) Model {
	m.pendingDelete = c.ID
	m.confirming = true
	m.modal = modal.New(deleteTag, modal.Config{
		Title:        "Delete " + c.Name,
		Message:      MsgConfirmDelete,
		ConfirmLabel: "Delete",
		Variant:      styles.ButtonDanger,
	})
	m.modal.SetSize(m.width, m.height)
	return m
}

func (m Model) fetch() (Model, tea.Cmd) {
	store := m.services.Store
	if store == nil {
		return m, nil
	}
	m.loading = !store.Loaded()
	ctx, cancel := m.services.RemoteContext()
	return m, func() tea.Msg {
		defer cancel()
		_, err := store.List(ctx)
		return listedMsg{err: err}
	}
}

// delete reports its outcome as a toast. Rows follow the store change event.
func (m Model) delete(id clients.ID) tea.Cmd {
	store := m.services.Store
	ctx, cancel := m.services.RemoteContext()
	return func() tea.Msg {
		defer cancel()
		if err := store.Delete(ctx, id); err != nil {
			log.ErrorErr(log.CatMode, "Delete failed", err, "id", id)
			return mode.ShowToastMsg{Message: "Failed to delete client: " + err.Error(), Style: toaster.StyleError}
		}
		return mode.ShowToastMsg{Message: MsgDeleted, Style: toaster.StyleSuccess}
	}
}

// refreshRows copies the store snapshot into the table, keeping the cursor
// on the same record when it is still there.
func (m Model) refreshRows() Model {
	if m.services.Store == nil {
		return m
	}
	selected, hadSelection := m.table.Selected()
	rows := m.services.Store.Snapshot()
	m.table = m.table.SetRows(rows)
	if hadSelection {
		for i, c := range rows {
			if c.ID == selected.ID {
				m.table = m.table.SetCursor(i)
				break
			}
		}
	}
	return m
}

// the title bar and the key hint take one line each
func (m Model) tableHeight() int {
	return max(m.height-2, 0)
}

func (m Model) View() string {
	var body string
	if m.loading {
		body = lipgloss.NewStyle().Width(m.width).Height(m.tableHeight()).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(styles.TextSecondaryColor).Render(MsgLoading)
	} else {
		body = m.table.View()
	}

	view := strings.Join([]string{m.renderTitleBar(), body, m.renderHint()}, "\n")
	if m.confirming {
		view = m.modal.Overlay(view)
	}
	return view
}

func (m Model) renderTitleBar() string {
	title := styles.TitleStyle.Render(fmt.Sprintf("Clients (%d)", len(m.table.Rows())))
	button := zone.Mark(ZoneAdd, styles.Button(styles.ButtonPrimary, false, false).Render("Add Client"))
	gap := max(m.width-lipgloss.Width(title)-lipgloss.Width(button)-2, 1)
	return " " + title + strings.Repeat(" ", gap) + button
}

func (m Model) renderHint() string {
	return styles.HintStyle.Render(" a add · enter edit · d delete · r reload · ? help")
}
