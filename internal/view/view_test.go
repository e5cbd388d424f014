package view

import (
	"strings"
	"testing"

	xansi "github.com/charmbracelet/x/ansi"

	"grocery-cli/internal/model"
)

func sample() []model.Item {
	return []model.Item{
		{ID: "1", Name: "Milk", Quantity: 2, Category: model.CategoryDairy},
		{ID: "2", Name: "Eggs", Quantity: 12, Category: model.CategoryDairy, Completed: true},
		{ID: "3", Name: `<script>alert("x")</script> & 'co'`, Quantity: 1, Category: model.CategoryOther},
	}
}

func rowNames(v View) []string {
	var out []string
	for _, r := range v.Rows {
		out = append(out, r.Item.Name)
	}
	return out
}

func TestRender_PreservesOrderAndFilters(t *testing.T) {
	t.Parallel()

	v := Render(sample(), model.Query{Filter: model.FilterAll})
	if len(v.Rows) != 3 || v.Empty {
		t.Fatalf("unexpected view: %+v", v)
	}
	if v.Rows[0].Item.ID != "1" || v.Rows[2].Item.ID != "3" {
		t.Fatalf("renderer reordered rows")
	}

	v = Render(sample()[:2], model.Query{Filter: model.FilterActive})
	if got := rowNames(v); len(got) != 1 || got[0] != "Milk" {
		t.Fatalf("active: %v", got)
	}
	v = Render(sample()[:2], model.Query{Filter: model.FilterCompleted, Search: "egg"})
	if got := rowNames(v); len(got) != 1 || got[0] != "Eggs" {
		t.Fatalf("completed+egg: %v", got)
	}
}

func TestRender_EmptyMarker(t *testing.T) {
	t.Parallel()

	v := Render(sample(), model.Query{Filter: model.FilterAll, Search: "z"})
	if !v.Empty || v.EmptyMessage != EmptyMessage || len(v.Rows) != 0 {
		t.Fatalf("expected empty marker, got %+v", v)
	}
}

func TestEscapeHTML(t *testing.T) {
	t.Parallel()

	got := EscapeHTML(`<a href="x">Tom & Jerry's</a>`)
	want := "&lt;a href=&quot;x&quot;&gt;Tom &amp; Jerry&#039;s&lt;/a&gt;"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
	v := Render(sample(), model.Query{Filter: model.FilterAll})
	if strings.Contains(v.Rows[2].Name, "<") {
		t.Fatalf("row name not escaped: %q", v.Rows[2].Name)
	}
}

func TestHTML_EscapesNames(t *testing.T) {
	t.Parallel()

	out, err := HTML(Render(sample(), model.Query{Filter: model.FilterAll}))
	if err != nil {
		t.Fatalf("HTML: %v", err)
	}
	if !strings.HasPrefix(out, `<ul id="grocery-list"`) {
		t.Fatalf("missing list root: %s", out)
	}
	if strings.Contains(out, "<script>") {
		t.Fatalf("user text was not escaped:\n%s", out)
	}
	if !strings.Contains(out, `class="grocery-item completed" id="item-2"`) {
		t.Fatalf("completed row missing:\n%s", out)
	}
	if !strings.Contains(out, "/items/1/toggle") {
		t.Fatalf("toggle action missing:\n%s", out)
	}

	out, err = HTML(Render(nil, model.Query{Filter: model.FilterAll}))
	if err != nil {
		t.Fatalf("HTML empty: %v", err)
	}
	if !strings.Contains(out, EmptyMessage) {
		t.Fatalf("empty message missing:\n%s", out)
	}
}

func TestLines(t *testing.T) {
	t.Parallel()

	v := Render(sample()[:2], model.Query{Filter: model.FilterAll})
	lines := Lines(v, 12, NewPalette(true), 0)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	for _, l := range lines {
		if w := xansi.StringWidth(l); w != 12 {
			t.Fatalf("line width %d != 12: %q", w, l)
		}
	}
	if got := xansi.Strip(lines[1]); !strings.HasPrefix(got, "[x] Eggs") {
		t.Fatalf("unexpected completed line: %q", got)
	}

	empty := Lines(Render(nil, model.Query{}), 80, NewPalette(false), -1)
	if len(empty) != 1 || !strings.Contains(xansi.Strip(empty[0]), "No items found") {
		t.Fatalf("unexpected empty lines: %v", empty)
	}
}
