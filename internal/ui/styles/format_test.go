package styles

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/require"
)

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		width    int
		expected string
	}{
		{"fits", "Ana", 10, "Ana"},
		{"exact", "Ana Maria", 9, "Ana Maria"},
		{"truncated", "Avenida Paulista", 10, "Avenida..."},
		{"tiny width", "Avenida", 2, ".."},
		{"zero width", "Avenida", 0, ""},
		{"accented", "São Paulo, SP", 8, "São P..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateString(tt.in, tt.width)
			require.Equal(t, tt.expected, got)
			require.LessOrEqual(t, runewidth.StringWidth(got), max(tt.width, 0))
		})
	}
}

func TestPadRight(t *testing.T) {
	require.Equal(t, "Ana   ", PadRight("Ana", 6))
	require.Equal(t, "Ana...", PadRight("Ana Maria", 6))
}

func TestWrap(t *testing.T) {
	got := Wrap("Are you sure you want to delete this client?", 20)
	for _, line := range strings.Split(got, "\n") {
		require.LessOrEqual(t, len(line), 20)
	}
	require.Equal(t, "unchanged", Wrap("unchanged", 0))
}

func TestInitial(t *testing.T) {
	require.Equal(t, "A", Initial("admin@user.com"))
	require.Equal(t, "É", Initial("émile"))
	require.Equal(t, "?", Initial(""))
}
