package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

// Palette is the set of styles Lines uses.
type Palette struct {
	Normal    lipgloss.Style
	Completed lipgloss.Style
	Selected  lipgloss.Style
	Meta      lipgloss.Style
	Empty     lipgloss.Style
}

func NewPalette(dark bool) Palette {
	fg, muted, selBg, selFg := lipgloss.Color("235"), lipgloss.Color("244"), lipgloss.Color("#e9e9e9"), lipgloss.Color("235")
	if dark {
		fg, muted, selBg, selFg = lipgloss.Color("252"), lipgloss.Color("243"), lipgloss.Color("#262626"), lipgloss.Color("255")
	}
	return Palette{
		Normal:    lipgloss.NewStyle().Foreground(fg),
		Completed: lipgloss.NewStyle().Foreground(muted).Strikethrough(true),
		Selected:  lipgloss.NewStyle().Foreground(selFg).Background(selBg).Bold(true),
		Meta:      lipgloss.NewStyle().Foreground(muted),
		Empty:     lipgloss.NewStyle().Foreground(muted).Italic(true),
	}
}

// Plain returns one unstyled line per row: "[x] Milk ×2 · dairy".
func Plain(r Row) string {
	box := "[ ]"
	if r.Item.Completed {
		box = "[x]"
	}
	return fmt.Sprintf("%s %s ×%d · %s", box, r.Item.Name, r.Item.Quantity, r.Item.Category)
}

// Lines renders v for a terminal of the given width. selected is the row index to highlight
// (-1 for none).
func Lines(v View, width int, p Palette, selected int) []string {
	if width < 4 {
		width = 4
	}
	if v.Empty {
		return []string{p.Empty.Render(xansi.Truncate(v.EmptyMessage, width, "…"))}
	}
	out := make([]string, 0, len(v.Rows))
	for i, r := range v.Rows {
		line := xansi.Truncate(Plain(r), width, "…")
		if w := xansi.StringWidth(line); w < width {
			line += strings.Repeat(" ", width-w)
		}
		style := p.Normal
		if r.Item.Completed {
			style = p.Completed
		}
		if i == selected {
			style = p.Selected
		}
		out = append(out, style.Render(line))
	}
	return out
}
