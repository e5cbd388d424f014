// Package view turns the collection and the engine's query into display rows.
//
// Render is pure: it never reorders and never owns state. HTML and Lines format a View for the
// web page and the terminal.
package view

import (
	"strconv"
	"strings"

	"grocery-cli/internal/model"
)

const EmptyMessage = "No items found. Add some groceries to your list!"

// Row is one visible item plus its display fields. Name is HTML-escaped.
type Row struct {
	Item     model.Item `json:"item"`
	Name     string     `json:"name"`
	Quantity string     `json:"quantity"`
	Category string     `json:"category"`
}

type View struct {
	Rows         []Row       `json:"rows"`
	Empty        bool        `json:"empty"`
	EmptyMessage string      `json:"emptyMessage,omitempty"`
	Query        model.Query `json:"query"`
}

// Render returns the rows passing q, in the order given.
func Render(items []model.Item, q model.Query) View {
	rows := make([]Row, 0, len(items))
	for _, it := range items {
		if !q.Match(it) {
			continue
		}
		rows = append(rows, Row{
			Item:     it,
			Name:     EscapeHTML(it.Name),
			Quantity: strconv.Itoa(it.Quantity),
			Category: EscapeHTML(string(it.Category)),
		})
	}
	v := View{Rows: rows, Query: q}
	if len(rows) == 0 {
		v.Empty = true
		v.EmptyMessage = EmptyMessage
	}
	return v
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// EscapeHTML escapes the five characters that matter inside markup and attributes.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}
