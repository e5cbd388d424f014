package view

import (
	"bytes"
	"html/template"
)

// The list markup patched into #grocery-list by the web shell. html/template escapes Item.Name,
// so the pre-escaped Row.Name is not used here.
var listTmpl = template.Must(template.New("list").Parse(`<ul id="grocery-list" class="grocery-list">
{{- if .Empty}}
  <li class="empty-state">{{.EmptyMessage}}</li>
{{- else}}
{{- range .Rows}}
  <li class="grocery-item{{if .Item.Completed}} completed{{end}}" id="item-{{.Item.ID}}" data-category="{{.Item.Category}}">
    <form method="post" action="/items/{{.Item.ID}}/toggle" class="inline">
      <button type="submit" class="check" data-on:click__prevent="@post('/items/{{.Item.ID}}/toggle')" aria-label="toggle">{{if .Item.Completed}}&#10003;{{else}}&nbsp;{{end}}</button>
    </form>
    <span class="name">{{.Item.Name}}</span>
    <span class="qty">&times;{{.Quantity}}</span>
    <span class="category">{{.Item.Category}}</span>
    <form method="post" action="/items/{{.Item.ID}}/edit" class="inline edit">
      <input type="text" name="name" value="{{.Item.Name}}" aria-label="name">
      <button type="submit">Save</button>
    </form>
    <form method="post" action="/items/{{.Item.ID}}/delete" class="inline" onsubmit="return confirm('Are you sure you want to delete this item?')">
      <input type="hidden" name="confirm" value="yes">
      <button type="submit" class="delete" aria-label="delete">&times;</button>
    </form>
  </li>
{{- end}}
{{- end}}
</ul>`))

// HTML renders v as the #grocery-list element.
func HTML(v View) (string, error) {
	var buf bytes.Buffer
	if err := listTmpl.Execute(&buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}
