package tui

import (
	"fmt"
	"strings"

	"grocery-cli/internal/model"
	"grocery-cli/internal/view"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

func (m appModel) View() string {
	if m.mode == modePrint {
		hint := styleMuted().Render("g: group by category · ↑/↓: scroll · esc: back")
		return m.printer.View() + "\n" + hint
	}

	var b strings.Builder
	b.WriteString(m.headerLine())
	b.WriteString("\n")
	b.WriteString(m.filterLine())
	b.WriteString("\n\n")

	lines := view.Lines(m.view, m.width, m.pal, m.cursor)
	end := m.offset + m.listHeight()
	if end > len(lines) {
		end = len(lines)
	}
	start := m.offset
	if start > end {
		start = end
	}
	for _, ln := range lines[start:end] {
		b.WriteString(ln)
		b.WriteString("\n")
	}
	for i := end - start; i < m.listHeight(); i++ {
		b.WriteString("\n")
	}

	st := m.sess.Engine.Stats()
	b.WriteString(styleMuted().Render(fmt.Sprintf("Total: %d · Active: %d · Completed: %d", st.Total, st.Active, st.Completed)))
	b.WriteString("\n")
	b.WriteString(m.bottomLine())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m appModel) headerLine() string {
	left := styleTitle().Render("Grocery List")
	net := "● online"
	if !m.online {
		net = "○ offline"
	}
	if ep := m.sess.Endpoint(); ep != "" {
		net += " · " + xansi.Truncate(ep, 24, "…")
	} else {
		net += " · local only"
	}
	right := styleMuted().Render(net)
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m appModel) filterLine() string {
	q := m.sess.Engine.Query()
	tabs := make([]string, 0, 3)
	for _, f := range []model.Filter{model.FilterAll, model.FilterActive, model.FilterCompleted} {
		label := strings.ToUpper(string(f[:1])) + string(f[1:])
		if q.Filter == f {
			tabs = append(tabs, styleActiveTab().Render(label))
		} else {
			tabs = append(tabs, styleTab().Render(label))
		}
	}
	line := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	var extra []string
	if q.Search != "" {
		extra = append(extra, "search: "+q.Search)
	}
	if q.Category != "" {
		extra = append(extra, "category: "+string(q.Category))
	}
	if len(extra) > 0 {
		line += "  " + styleMuted().Render(strings.Join(extra, " · "))
	}
	return line
}

// bottomLine is the prompt, the confirmation question, or the current toast.
func (m appModel) bottomLine() string {
	switch m.mode {
	case modeInput:
		if m.flow != nil {
			return m.flow.input.View()
		}
	case modeConfirm:
		if m.confirm != nil {
			return styleToast("error").Render(m.confirm.prompt + " (y/n)")
		}
	}
	if m.toast.Text == "" {
		return ""
	}
	return styleToast(string(m.toast.Kind)).Render(xansi.Truncate(m.toast.Text, m.width-2, "…"))
}
