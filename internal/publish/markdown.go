package publish

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"grocery-cli/internal/model"
)

type RenderOptions struct {
	// Title is the top heading; "Grocery List" when empty.
	Title string
	// ByCategory groups items under one heading per category, in menu order.
	ByCategory bool
}

// RenderChecklist renders items as a GFM task list, keeping the given order.
func RenderChecklist(items []model.Item, opt RenderOptions) string {
	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	title := strings.TrimSpace(opt.Title)
	if title == "" {
		title = "Grocery List"
	}
	writeLn("# " + title)
	writeLn("")

	if len(items) == 0 {
		writeLn("_Nothing to buy._")
		return buf.String()
	}

	if !opt.ByCategory {
		for _, it := range items {
			writeLn(checklistLine(it, true))
		}
		return buf.String()
	}

	groups := map[model.Category][]model.Item{}
	for _, it := range items {
		groups[it.Category] = append(groups[it.Category], it)
	}
	order := model.Categories()
	// Categories outside the menu follow, in first-seen order.
	known := map[model.Category]bool{}
	for _, c := range order {
		known[c] = true
	}
	for _, it := range items {
		if !known[it.Category] {
			known[it.Category] = true
			order = append(order, it.Category)
		}
	}
	for _, c := range order {
		g := groups[c]
		if len(g) == 0 {
			continue
		}
		writeLn("## " + titleCase(string(c)))
		writeLn("")
		for _, it := range g {
			writeLn(checklistLine(it, false))
		}
		writeLn("")
	}
	return strings.TrimRight(buf.String(), "\n") + "\n"
}

func checklistLine(it model.Item, withCategory bool) string {
	box := "[ ]"
	if it.Completed {
		box = "[x]"
	}
	line := fmt.Sprintf("- %s %s ×%d", box, escapeMarkdown(it.Name), it.Quantity)
	if withCategory {
		line += " · " + string(it.Category)
	}
	return line
}

var mdEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
	">", `\>`,
	"#", `\#`,
)

func escapeMarkdown(s string) string {
	return mdEscaper.Replace(s)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	r, n := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[n:]
}
