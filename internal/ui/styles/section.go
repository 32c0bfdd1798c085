package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	borderTopLeft     = "╭"
	borderTopRight    = "╮"
	borderBottomLeft  = "╰"
	borderBottomRight = "╯"
	borderHorizontal  = "─"
	borderVertical    = "│"
)

// RenderFormSection renders content inside a rounded border with the title
// and optional hint inlined in the top edge:
//
//	╭─ Title (hint) ─────╮
//	│content             │
//	╰────────────────────╯
//
// focused switches the border and title to focusColor.
func RenderFormSection(content []string, title, hint string, width int, focused bool, focusColor lipgloss.TerminalColor) string {
	var edge lipgloss.TerminalColor = BorderDefaultColor
	if focused {
		edge = focusColor
	}
	borderStyle := lipgloss.NewStyle().Foreground(edge)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(edge)

	inner := max(width-2, 1)

	var top string
	if title == "" {
		top = borderStyle.Render(borderTopLeft + strings.Repeat(borderHorizontal, inner) + borderTopRight)
	} else {
		label := title
		if hint != "" {
			label += " (" + hint + ")"
		}
		rest := max(inner-lipgloss.Width(label)-3, 0)
		top = borderStyle.Render(borderTopLeft+borderHorizontal+" ") + titleStyle.Render(title)
		if hint != "" {
			top += " " + HintStyle.Render("("+hint+")")
		}
		top += borderStyle.Render(" " + strings.Repeat(borderHorizontal, rest) + borderTopRight)
	}

	lines := make([]string, 0, len(content)+2)
	lines = append(lines, top)
	for _, row := range content {
		pad := max(inner-lipgloss.Width(row), 0)
		lines = append(lines, borderStyle.Render(borderVertical)+row+strings.Repeat(" ", pad)+borderStyle.Render(borderVertical))
	}
	lines = append(lines, borderStyle.Render(borderBottomLeft+strings.Repeat(borderHorizontal, inner)+borderBottomRight))
	return strings.Join(lines, "\n")
}

// RenderField renders one form input as a section with its validation error,
// if any, on the line below.
func RenderField(input, label, hint, errMsg string, width int, focused bool) string {
	section := RenderFormSection([]string{input}, label, hint, width, focused, BorderFocusColor)
	if errMsg == "" {
		return section
	}
	return section + "\n" + FieldErrorStyle.Render(" "+errMsg)
}
