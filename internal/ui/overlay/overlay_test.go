package overlay

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func screen(w, h int, fill string) string {
	rows := make([]string, h)
	for i := range rows {
		rows[i] = strings.Repeat(fill, w)
	}
	return strings.Join(rows, "\n")
}

func TestPlace_Positions(t *testing.T) {
	tests := []struct {
		name    string
		pos     Position
		padY    int
		wantRow int
	}{
		{"center", Center, 0, 2},
		{"top", Top, 0, 0},
		{"top padded", Top, 1, 1},
		{"bottom", Bottom, 0, 4},
		{"bottom padded", Bottom, 1, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Place(Config{Width: 5, Height: 5, Position: tt.pos, PadY: tt.padY}, "X", screen(5, 5, "."))
			lines := strings.Split(got, "\n")
			require.Len(t, lines, 5)
			for i, line := range lines {
				if i == tt.wantRow {
					assert.Equal(t, "..X..", line)
				} else {
					assert.Equal(t, ".....", line)
				}
			}
		})
	}
}

func TestPlace_PadsShortBackground(t *testing.T) {
	got := Place(Config{Width: 6, Height: 4, Position: Bottom}, "ok", "header")
	lines := strings.Split(got, "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "header", lines[0])
	assert.Equal(t, "  ok  ", lines[3])
}

func TestPlace_ForegroundWiderThanScreen(t *testing.T) {
	got := Place(Config{Width: 3, Height: 3, Position: Center}, "XXXXX", screen(3, 3, "."))
	lines := strings.Split(got, "\n")
	assert.Equal(t, "XXXXX", lines[1])
}

func TestPlace_KeepsStyledBackground(t *testing.T) {
	bg := lipgloss.NewStyle().Bold(true).Render("..........")
	got := Place(Config{Width: 10, Height: 1, Position: Top}, "XX", bg)
	assert.Equal(t, 10, lipgloss.Width(got))
	assert.Contains(t, got, "XX")
}
