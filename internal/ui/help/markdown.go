package help

import (
	"github.com/charmbracelet/glamour"
)

// noMarginStyle drops glamour's document margins so the box controls padding.
const noMarginStyle = `{
	"document": {
		"margin": 0,
		"block_prefix": "",
		"block_suffix": ""
	}
}`

// newRenderer builds a glamour renderer for style ("dark" or "light").
// A fixed style path avoids glamour's auto style, which queries the terminal
// and leaks the response into the input stream.
func newRenderer(width int, style string) (*glamour.TermRenderer, error) {
	if style == "" {
		style = "dark"
	}
	return glamour.NewTermRenderer(
		glamour.WithStylePath(style),
		glamour.WithStylesFromJSONBytes([]byte(noMarginStyle)),
		glamour.WithWordWrap(width),
	)
}
