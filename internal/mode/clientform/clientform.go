// Package clientform implements the add/edit client screen.
//
// The form owns one lookup.Bridge for its lifetime. Every edit of the ZIP
// field goes through Bridge.Change; the bridge's SettledMsg and ResultMsg come
// back through Update, and a ResultMsg is applied only if the bridge accepts
// it. Close cancels whatever lookup is still pending, so a result that arrives
// after the form is gone never writes into it.
package clientform

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/clientflow/clientflow/internal/clients"
	"github.com/clientflow/clientflow/internal/keys"
	"github.com/clientflow/clientflow/internal/log"
	"github.com/clientflow/clientflow/internal/lookup"
	"github.com/clientflow/clientflow/internal/mode"
	"github.com/clientflow/clientflow/internal/ui/styles"
	"github.com/clientflow/clientflow/internal/ui/toaster"
)

// Texts shown by the screen.
const (
	TitleNew      = "Add New Client"
	TitleEdit     = "Edit Client"
	LabelCreate   = "Add Client"
	LabelUpdate   = "Update Client"
	MsgLoading    = "Loading clients..."
	MsgNotFound   = "Client not found."
	MsgCreated    = "Client added successfully!"
	MsgUpdated    = "Client updated successfully!"
	HintZip       = "Only Brazilian ZIP codes (8 digits) are accepted"
	msgLookingUp  = "Looking up address..."
	labelBackList = "Back to Clients List"
)

// Zone ids of the clickable parts.
const (
	ZoneSubmit = "form-submit"
	ZoneBack   = "form-back"
	zoneField  = "form-field-"
)

const (
	maxFormWidth = 100
	// two columns of fields from this width on
	twoColumnWidth = 90
)

type loadedMsg struct {
	err error
}

type savedMsg struct {
	client clients.Client
	err    error
}

// Model is the form state.
type Model struct {
	services mode.Services
	id       clients.ID
	editing  bool

	inputs  []textinput.Model // one per clients.Fields entry
	focus   int               // len(inputs) is the submit button
	invalid *clients.ValidationError

	bridge  *lookup.Bridge
	spinner spinner.Model

	loading  bool
	loadErr  error
	notFound bool
	saving   bool

	width  int
	height int
}

// New opens the form for the client with id, or a blank form when id is
// empty. The returned command loads the registry when it has not been
// fetched yet.
func New(services mode.Services, id clients.ID) (Model, tea.Cmd) {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = lipgloss.NewStyle().Foreground(styles.SpinnerColor)

	m := Model{
		services: services,
		id:       id,
		editing:  id != "",
		inputs:   make([]textinput.Model, len(clients.Fields)),
		spinner:  sp,
	}
	for i, field := range clients.Fields {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = clients.Label(field)
		m.inputs[i] = in
	}

	if services.Store != nil && !services.Store.Loaded() {
		m.loading = true
		return m, m.load()
	}
	return m.populate(), textinput.Blink
}

// Editing reports whether the form edits an existing record.
func (m Model) Editing() bool { return m.editing }

// Saving reports whether a submission is in flight.
func (m Model) Saving() bool { return m.saving }

// LookupLoading reports whether a ZIP lookup is in flight.
func (m Model) LookupLoading() bool { return m.bridge != nil && m.bridge.Loading() }

// Draft returns the current field values.
func (m Model) Draft() clients.Input {
	in := clients.Input{}
	for i, field := range clients.Fields {
		in = in.Set(field, m.inputs[i].Value())
	}
	return in
}

// Close cancels any pending lookup. Call it when the form goes away.
func (m Model) Close() {
	if m.bridge != nil {
		m.bridge.Close()
	}
}

func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	w := m.fieldWidth() - 4
	for i := range m.inputs {
		m.inputs[i].Width = w
	}
	if i := fieldIndex(clients.FieldZip); i >= 0 && i < len(m.inputs) {
		m.inputs[i].Width = max(w-lipgloss.Width(msgLookingUp)-3, 8)
	}
	return m
}

// populate fills the inputs once the registry is available and creates the
// bridge with the edited record's ZIP as its original value.
func (m Model) populate() Model {
	draft := clients.NewInput()
	if m.editing {
		var (
			c  clients.Client
			ok bool
		)
		if m.services.Store != nil {
			c, ok = m.services.Store.Find(m.id.String())
		}
		if !ok {
			log.Warn(log.CatMode, "Edit target not in registry", "id", m.id)
			m.notFound = true
			return m
		}
		draft = c.Input()
	}
	for i, field := range clients.Fields {
		m.inputs[i].SetValue(draft.Get(field))
	}

	var opts []lookup.BridgeOption
	if cfg := m.services.Config; cfg != nil {
		opts = append(opts, lookup.WithQuietPeriod(cfg.Lookup.Debounce), lookup.WithTimeout(cfg.Lookup.Timeout))
	}
	original := ""
	if m.editing {
		original = draft.Zip
	}
	m.bridge = lookup.NewBridge(m.services.Resolver, original, opts...)
	return m.setFocus(0)
}

func (m Model) load() tea.Cmd {
	store := m.services.Store
	ctx, cancel := m.services.RemoteContext()
	return func() tea.Msg {
		defer cancel()
		_, err := store.List(ctx)
		return loadedMsg{err: err}
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if !m.loading {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.loadErr = msg.err
			return m, mode.Toast("Failed to load clients: "+msg.err.Error(), toaster.StyleError)
		}
		return m.populate(), textinput.Blink

	case savedMsg:
		m.saving = false
		if msg.err != nil {
			var verr *clients.ValidationError
			if errors.As(msg.err, &verr) {
				m.invalid = verr
				return m, nil
			}
			log.ErrorErr(log.CatMode, "Saving client failed", msg.err, "id", m.id)
			return m, mode.Toast("Failed to save client: "+msg.err.Error(), toaster.StyleError)
		}
		m.Close()
		text := MsgCreated
		if m.editing {
			text = MsgUpdated
		}
		return m, tea.Batch(mode.Toast(text, toaster.StyleSuccess), mode.Navigate(mode.ShowClientsMsg{}))

	case lookup.SettledMsg:
		if m.bridge == nil {
			return m, nil
		}
		cmd := m.bridge.Settle(msg)
		if cmd == nil {
			return m, nil
		}
		return m, tea.Batch(cmd, m.spinner.Tick)

	case lookup.ResultMsg:
		if m.bridge == nil || !m.bridge.Complete(msg) {
			return m, nil
		}
		return m.applyLookup(msg)

	case spinner.TickMsg:
		if !m.LookupLoading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) applyLookup(msg lookup.ResultMsg) (Model, tea.Cmd) {
	draft := msg.Apply(m.Draft())
	for _, field := range []string{clients.FieldAddress, clients.FieldCity, clients.FieldState} {
		i := fieldIndex(field)
		m.inputs[i].SetValue(draft.Get(field))
		if draft.Get(field) != "" {
			m.clearError(field)
		}
	}
	if text := msg.Message(); text != "" {
		return m, mode.Toast(text, toaster.StyleError)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.saving {
		return m, nil
	}
	if m.loading || m.notFound || m.loadErr != nil {
		if key.Matches(msg, keys.Form.Back) || msg.Type == tea.KeyEnter {
			return m.back()
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Form.Back):
		return m.back()
	case key.Matches(msg, keys.Form.Submit):
		return m.submit()
	case key.Matches(msg, keys.Form.Next):
		return m.setFocus((m.focus + 1) % (len(m.inputs) + 1)), nil
	case key.Matches(msg, keys.Form.Prev):
		return m.setFocus((m.focus + len(m.inputs)) % (len(m.inputs) + 1)), nil
	case msg.Type == tea.KeyEnter:
		if m.focus == len(m.inputs) {
			return m.submit()
		}
		return m.setFocus(m.focus + 1), nil
	}

	if m.focus >= len(m.inputs) {
		return m, nil
	}
	return m.updateInput(msg)
}

// updateInput forwards msg to the focused input and tells the bridge when
// the ZIP changed.
func (m Model) updateInput(msg tea.Msg) (Model, tea.Cmd) {
	field := clients.Fields[m.focus]
	before := m.inputs[m.focus].Value()

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	after := m.inputs[m.focus].Value()
	if after == before {
		return m, cmd
	}
	if after != "" {
		m.clearError(field)
	}
	if field == clients.FieldZip && m.bridge != nil {
		cmd = tea.Batch(cmd, m.bridge.Change(after))
	}
	return m, cmd
}

func (m Model) handleMouse(msg tea.MouseMsg) (Model, tea.Cmd) {
	if m.saving || msg.Action != tea.MouseActionRelease || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	if z := zone.Get(ZoneBack); z != nil && z.InBounds(msg) {
		return m.back()
	}
	if m.loading || m.notFound || m.loadErr != nil {
		return m, nil
	}
	if z := zone.Get(ZoneSubmit); z != nil && z.InBounds(msg) {
		return m.submit()
	}
	for i, field := range clients.Fields {
		if z := zone.Get(zoneField + field); z != nil && z.InBounds(msg) {
			return m.setFocus(i), nil
		}
	}
	return m, nil
}

func (m Model) back() (Model, tea.Cmd) {
	m.Close()
	return m, mode.Navigate(mode.ShowClientsMsg{})
}

// submit validates presence of every field before anything goes out. The
// form stays in the saving state until savedMsg arrives.
func (m Model) submit() (Model, tea.Cmd) {
	draft := m.Draft()
	if err := draft.Validate(); err != nil {
		var verr *clients.ValidationError
		if errors.As(err, &verr) {
			m.invalid = verr
			for i, field := range clients.Fields {
				if verr.Message(field) != "" {
					return m.setFocus(i), nil
				}
			}
		}
		return m, nil
	}

	m.invalid = nil
	m.saving = true
	store := m.services.Store
	id, editing := m.id, m.editing
	ctx, cancel := m.services.RemoteContext()
	return m, func() tea.Msg {
		defer cancel()
		var (
			c   clients.Client
			err error
		)
		if editing {
			c, err = store.Update(ctx, id, draft)
		} else {
			c, err = store.Create(ctx, draft)
		}
		return savedMsg{client: c, err: err}
	}
}

func (m Model) setFocus(i int) Model {
	m.focus = i
	for j := range m.inputs {
		if j == i {
			m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
	return m
}

func (m *Model) clearError(field string) {
	if m.invalid != nil {
		delete(m.invalid.Fields, field)
	}
}

func fieldIndex(field string) int {
	for i, f := range clients.Fields {
		if f == field {
			return i
		}
	}
	return -1
}

func (m Model) formWidth() int {
	return max(min(m.width-4, maxFormWidth), 30)
}

func (m Model) twoColumns() bool {
	return m.width >= twoColumnWidth
}

func (m Model) fieldWidth() int {
	if m.twoColumns() {
		return (m.formWidth() - 2) / 2
	}
	return m.formWidth()
}

func (m Model) View() string {
	var body string
	switch {
	case m.loading:
		body = lipgloss.NewStyle().Foreground(styles.TextSecondaryColor).Render(MsgLoading)
	case m.loadErr != nil:
		body = m.renderMessage("Failed to load clients.")
	case m.notFound:
		body = m.renderMessage(MsgNotFound)
	default:
		body = m.renderForm()
	}
	if m.width == 0 || m.height == 0 {
		return body
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Top, body)
}

func (m Model) renderMessage(text string) string {
	msg := lipgloss.NewStyle().Foreground(styles.StatusErrorColor).Bold(true).Render(text)
	button := zone.Mark(ZoneBack, styles.Button(styles.ButtonPrimary, true, false).Render(labelBackList))
	return lipgloss.JoinVertical(lipgloss.Center, "", msg, "", button)
}

func (m Model) renderForm() string {
	width := m.formWidth()

	back := zone.Mark(ZoneBack, lipgloss.NewStyle().Foreground(styles.BrandColor).Bold(true).Render("← Back"))
	title := TitleNew
	if m.editing {
		title = TitleEdit
	}
	header := lipgloss.JoinVertical(lipgloss.Left,
		back,
		lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render(styles.BrandStyle.Render(title)),
	)

	fields := make([]string, len(clients.Fields))
	for i, field := range clients.Fields {
		fields[i] = zone.Mark(zoneField+field, m.renderField(i, field))
	}

	var grid string
	if m.twoColumns() {
		half := (len(fields) + 1) / 2
		left := strings.Join(fields[:half], "\n")
		right := strings.Join(fields[half:], "\n")
		grid = lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right)
	} else {
		grid = strings.Join(fields, "\n")
	}

	label := LabelCreate
	if m.editing {
		label = LabelUpdate
	}
	if m.saving {
		label = "Saving..."
	}
	button := styles.Button(styles.ButtonPrimary, m.focus == len(m.inputs), m.saving).Render(label)
	footer := lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render(zone.Mark(ZoneSubmit, button))
	hint := styles.HintStyle.Render("tab next · shift+tab previous · ctrl+s save · esc back")

	return strings.Join([]string{header, "", grid, "", footer, hint}, "\n")
}

func (m Model) renderField(i int, field string) string {
	input := m.inputs[i].View()
	helper := ""
	if field == clients.FieldZip {
		helper = HintZip
		if m.LookupLoading() {
			input += " " + m.spinner.View() + styles.HintStyle.Render(msgLookingUp)
		}
	}

	errMsg := m.invalid.Message(field)
	out := styles.RenderField(input, clients.Label(field)+" *", "", errMsg, m.fieldWidth(), m.focus == i)
	if errMsg == "" && helper != "" {
		out += "\n" + styles.HintStyle.Render(styles.Wrap(" "+helper, m.fieldWidth()))
	}
	return out
}
