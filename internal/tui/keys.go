package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Toggle    key.Binding
	Add       key.Binding
	Edit      key.Binding
	Delete    key.Binding
	QtyUp     key.Binding
	QtyDown   key.Binding
	Move      key.Binding
	ClearDone key.Binding
	ClearAll  key.Binding
	All       key.Binding
	Active    key.Binding
	Completed key.Binding
	Search    key.Binding
	Category  key.Binding
	Sync      key.Binding
	Connect   key.Binding
	Theme     key.Binding
	Print     key.Binding
	Export    key.Binding
	Import    key.Binding
	Copy      key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up:        key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		Down:      key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		Toggle:    key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "toggle")),
		Add:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Edit:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "rename")),
		Delete:    key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		QtyUp:     key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "qty +1")),
		QtyDown:   key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "qty -1")),
		Move:      key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "set category")),
		ClearDone: key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "clear completed")),
		ClearAll:  key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "clear all")),
		All:       key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "all")),
		Active:    key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "active")),
		Completed: key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "completed")),
		Search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Category:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "category filter")),
		Sync:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sync")),
		Connect:   key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "connect")),
		Theme:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "theme")),
		Print:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "print view")),
		Export:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "export")),
		Import:    key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "import")),
		Copy:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy checklist")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.Toggle, k.Delete, k.Search, k.Sync, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle, k.Add, k.Edit, k.Delete},
		{k.QtyUp, k.QtyDown, k.Move, k.ClearDone, k.ClearAll},
		{k.All, k.Active, k.Completed, k.Search, k.Category},
		{k.Sync, k.Connect, k.Theme, k.Print, k.Export, k.Import, k.Copy},
		{k.Help, k.Quit},
	}
}
