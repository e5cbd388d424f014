package publish

import (
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
)

var (
	termRendererMu sync.Mutex
	// Keyed by style + wrap width. WithAutoStyle is avoided because it queries the terminal.
	termRenderers = map[string]*glamour.TermRenderer{}
)

// RenderTerminal renders markdown for a terminal. On any renderer error the source is returned.
func RenderTerminal(md string, width int, dark bool) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	if width < 10 {
		width = 10
	}
	style := styles.LightStyle
	if dark {
		style = styles.DarkStyle
	}
	key := style + ":" + strconv.Itoa(width)

	termRendererMu.Lock()
	r := termRenderers[key]
	termRendererMu.Unlock()

	if r == nil {
		rr, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return md
		}
		termRendererMu.Lock()
		if existing := termRenderers[key]; existing != nil {
			r = existing
		} else {
			termRenderers[key] = rr
			r = rr
		}
		termRendererMu.Unlock()
	}

	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}
