// Package table renders a bordered, config-driven table with a cursor.
//
// The caller supplies columns with a Render callback per cell and the rows;
// the table handles column widths, truncation, the selection highlight, a
// scrolling window that keeps the cursor visible, and bubblezone marks so a
// mouse click can be mapped back to a row:
//
//	tbl := table.New(table.Config[clients.Client]{
//	    Columns: []table.Column[clients.Client]{
//	        {Header: "Name", MinWidth: 12, Render: func(c clients.Client) string { return c.Name }},
//	    },
//	    RowZoneID: func(i int, _ clients.Client) string { return fmt.Sprintf("row-%d", i) },
//	})
//	tbl = tbl.SetRows(rows).SetSize(80, 20)
package table

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/clientflow/clientflow/internal/ui/styles"
)

// Column describes one column. Width fixes the column; otherwise it shares
// the remaining space with the other flexible columns, never below MinWidth.
type Column[T any] struct {
	Header   string
	Width    int
	MinWidth int
	Render   func(row T) string
}

// Config is the full table configuration.
type Config[T any] struct {
	Columns      []Column[T]
	Title        string
	EmptyMessage string
	// RowZoneID returns the bubblezone id of a row, or "" for none.
	RowZoneID func(index int, row T) string
}

// Model holds rows, cursor and scroll state.
type Model[T any] struct {
	config Config[T]
	rows   []T
	cursor int
	offset int
	width  int
	height int
}

func New[T any](cfg Config[T]) Model[T] {
	if cfg.EmptyMessage == "" {
		cfg.EmptyMessage = "No data"
	}
	return Model[T]{config: cfg}
}

// SetRows replaces the rows and clamps the cursor into range.
func (m Model[T]) SetRows(rows []T) Model[T] {
	m.rows = rows
	m.cursor = clamp(m.cursor, 0, len(rows)-1)
	m.offset = m.visibleOffset()
	return m
}

func (m Model[T]) SetSize(width, height int) Model[T] {
	m.width = width
	m.height = height
	m.offset = m.visibleOffset()
	return m
}

func (m Model[T]) Rows() []T { return m.rows }

func (m Model[T]) Cursor() int { return m.cursor }

// Selected returns the row under the cursor.
func (m Model[T]) Selected() (T, bool) {
	var zero T
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return zero, false
	}
	return m.rows[m.cursor], true
}

// SetCursor moves the cursor to i, clamped into range.
func (m Model[T]) SetCursor(i int) Model[T] {
	m.cursor = clamp(i, 0, len(m.rows)-1)
	m.offset = m.visibleOffset()
	return m
}

func (m Model[T]) MoveUp() Model[T]   { return m.SetCursor(m.cursor - 1) }
func (m Model[T]) MoveDown() Model[T] { return m.SetCursor(m.cursor + 1) }
func (m Model[T]) Top() Model[T]      { return m.SetCursor(0) }
func (m Model[T]) Bottom() Model[T]   { return m.SetCursor(len(m.rows) - 1) }

// RowAt returns the index of the row a mouse event landed on.
func (m Model[T]) RowAt(msg tea.MouseMsg) (int, bool) {
	if m.config.RowZoneID == nil {
		return 0, false
	}
	for i := m.offset; i < min(len(m.rows), m.offset+m.pageSize()); i++ {
		id := m.config.RowZoneID(i, m.rows[i])
		if z := zone.Get(id); id != "" && z != nil && z.InBounds(msg) {
			return i, true
		}
	}
	return 0, false
}

// pageSize is the number of data rows that fit inside the border below the
// header.
func (m Model[T]) pageSize() int {
	return max(m.height-3, 1)
}

func (m Model[T]) visibleOffset() int {
	page := m.pageSize()
	off := m.offset
	if m.cursor < off {
		off = m.cursor
	}
	if m.cursor >= off+page {
		off = m.cursor - page + 1
	}
	return clamp(off, 0, max(len(m.rows)-page, 0))
}

// View renders the table at its configured size.
func (m Model[T]) View() string {
	if m.width <= 2 || m.height <= 2 {
		return ""
	}
	inner := m.width - 2
	widths := columnWidths(m.config.Columns, inner)

	lines := []string{styles.HintStyle.Render(m.renderCells(widths, func(c Column[T]) string { return c.Header }))}
	if len(m.rows) == 0 {
		empty := lipgloss.NewStyle().Foreground(styles.TextMutedColor).Italic(true).
			Width(inner).Align(lipgloss.Center).Render(m.config.EmptyMessage)
		lines = append(lines, "", empty)
	}

	end := min(len(m.rows), m.offset+m.pageSize())
	for i := m.offset; i < end; i++ {
		row := m.rows[i]
		line := m.renderCells(widths, func(c Column[T]) string { return c.Render(row) })
		if i == m.cursor {
			line = lipgloss.NewStyle().Background(styles.SelectedRowBgColor).Bold(true).Render(styles.PadRight(line, inner))
		}
		if m.config.RowZoneID != nil {
			if id := m.config.RowZoneID(i, row); id != "" {
				line = zone.Mark(id, line)
			}
		}
		lines = append(lines, line)
	}

	for len(lines) < m.height-2 {
		lines = append(lines, "")
	}

	return styles.RenderFormSection(lines, m.config.Title, "", m.width, false, styles.BorderFocusColor)
}

func (m Model[T]) renderCells(widths []int, cell func(Column[T]) string) string {
	parts := make([]string, len(m.config.Columns))
	for i, col := range m.config.Columns {
		parts[i] = styles.PadRight(cell(col), widths[i])
	}
	return strings.Join(parts, " ")
}

// columnWidths gives fixed columns their width and splits what is left
// evenly among flexible ones.
func columnWidths[T any](cols []Column[T], total int) []int {
	widths := make([]int, len(cols))
	remaining := total - max(len(cols)-1, 0)
	var flex []int
	for i, c := range cols {
		if c.Width > 0 {
			widths[i] = c.Width
			remaining -= c.Width
			continue
		}
		flex = append(flex, i)
	}
	if len(flex) == 0 {
		return widths
	}
	share := max(remaining/len(flex), 0)
	extra := max(remaining-share*len(flex), 0)
	for n, i := range flex {
		w := share
		if n < extra {
			w++
		}
		widths[i] = max(w, cols[i].MinWidth)
	}
	return widths
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return max(lo, min(v, hi))
}
