package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"grocery-cli/internal/grocery"
	"grocery-cli/internal/model"
	"grocery-cli/internal/publish"
	"grocery-cli/internal/session"
	"grocery-cli/internal/status"
	"grocery-cli/internal/store"
	"grocery-cli/internal/view"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	toastTTL         = 3 * time.Second
	onlineCheckEvery = 30 * time.Second
	defaultWidth     = 80
	defaultHeight    = 24
	// header, filter bar, blank, stats, toast, help
	chromeLines = 6
)

type mode int

const (
	modeList mode = iota
	modeInput
	modeConfirm
	modePrint
)

type flowKind int

const (
	flowAdd flowKind = iota
	flowEdit
	flowMove
	flowSearch
	flowConnect
	flowImport
)

// inputFlow is one prompt sequence. Adding an item asks for the name, then the quantity,
// then the category.
type inputFlow struct {
	kind  flowKind
	step  int
	input textinput.Model
	id    model.ItemID
	name  string
	qty   int
}

type confirmState struct {
	prompt string
	run    func(m *appModel) tea.Cmd
}

type (
	statusMsg       status.Message
	changedMsg      struct{}
	toastExpiredMsg struct{ seq int }
	onlineTickMsg   struct{}
	onlineMsg       struct{ online bool }
	syncDoneMsg     struct{ err error }
	connectDoneMsg  struct{ err error }
)

type Options struct {
	// ExportDir is where the export key writes grocery-list.json (default: working directory).
	ExportDir string
	// Clipboard replaces the system clipboard (tests).
	Clipboard func(string) error
	// NoOnlineCheck disables the periodic online probe.
	NoOnlineCheck bool
}

type appModel struct {
	ctx  context.Context
	sess *session.Session
	opts Options
	keys keyMap
	help help.Model

	width  int
	height int
	dark   bool
	pal    view.Palette

	view   view.View
	cursor int
	offset int

	mode       mode
	flow       *inputFlow
	confirm    *confirmState
	printer    viewport.Model
	byCategory bool

	toast    status.Message
	toastSeq int
	online   bool
}

func newAppModel(ctx context.Context, sess *session.Session, dark bool, opts Options) appModel {
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}
	h := help.New()
	h.ShortSeparator = " · "
	m := appModel{
		ctx:    ctx,
		sess:   sess,
		opts:   opts,
		keys:   newKeyMap(),
		help:   h,
		width:  defaultWidth,
		height: defaultHeight,
		dark:   dark,
		pal:    view.NewPalette(dark),
		online: sess.Monitor.Online(),
	}
	m.refresh()
	return m
}

func (m appModel) Init() tea.Cmd {
	if m.opts.NoOnlineCheck {
		return m.openSync()
	}
	return tea.Batch(m.openSync(), tickOnline())
}

func tickOnline() tea.Cmd {
	return tea.Tick(onlineCheckEvery, func(time.Time) tea.Msg { return onlineTickMsg{} })
}

// openSync runs the first online check and then requests one sync so the list shows what other
// devices wrote. The request is silent when not connected or offline.
func (m appModel) openSync() tea.Cmd {
	sess, ctx, check := m.sess, m.ctx, !m.opts.NoOnlineCheck
	return func() tea.Msg {
		online := sess.Monitor.Online()
		if check {
			online = sess.CheckOnline(ctx)
		}
		sess.Syncer().Trigger()
		return onlineMsg{online: online}
	}
}

func (m appModel) checkOnline() tea.Cmd {
	sess, ctx := m.sess, m.ctx
	return func() tea.Msg { return onlineMsg{online: sess.CheckOnline(ctx)} }
}

// refresh re-renders the rows from the engine and keeps the cursor on a row.
func (m *appModel) refresh() {
	m.view = view.Render(m.sess.Engine.Items(), m.sess.Engine.Query())
	if n := len(m.view.Rows); m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.scrollToCursor()
}

func (m *appModel) listHeight() int {
	h := m.height - chromeLines
	if h < 1 {
		h = 1
	}
	return h
}

func (m *appModel) scrollToCursor() {
	h := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m *appModel) selected() (model.Item, bool) {
	if m.view.Empty || m.cursor < 0 || m.cursor >= len(m.view.Rows) {
		return model.Item{}, false
	}
	return m.view.Rows[m.cursor].Item, true
}

func (m *appModel) setToast(msg status.Message) tea.Cmd {
	m.toastSeq++
	seq := m.toastSeq
	m.toast = msg
	return tea.Tick(toastTTL, func(time.Time) tea.Msg { return toastExpiredMsg{seq: seq} })
}

// do runs a local mutation. Validation failures already produced a toast through the session;
// anything else is shown here.
func (m *appModel) do(fn func(ctx context.Context) error) tea.Cmd {
	err := fn(m.ctx)
	m.refresh()
	if err != nil && !grocery.IsValidation(err) {
		return m.setToast(status.Message{Text: err.Error(), Kind: status.Error})
	}
	return nil
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.printer.Width = msg.Width
		m.printer.Height = msg.Height - 2
		m.scrollToCursor()
		if m.mode == modePrint {
			m.renderPrint()
		}
		return m, nil

	case statusMsg:
		cmd := m.setToast(status.Message(msg))
		return m, cmd

	case toastExpiredMsg:
		if msg.seq == m.toastSeq {
			m.toast = status.Message{}
		}
		return m, nil

	case changedMsg:
		m.refresh()
		if m.mode == modePrint {
			m.renderPrint()
		}
		return m, nil

	case onlineTickMsg:
		return m, tea.Batch(m.checkOnline(), tickOnline())

	case onlineMsg:
		m.online = msg.online
		return m, nil

	case syncDoneMsg:
		m.online = m.sess.Monitor.Online()
		m.refresh()
		return m, nil

	case connectDoneMsg:
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeInput:
			return m.updateInput(msg)
		case modeConfirm:
			return m.updateConfirm(msg)
		case modePrint:
			return m.updatePrint(msg)
		default:
			return m.updateList(msg)
		}
	}

	var cmd tea.Cmd
	switch {
	case m.mode == modePrint:
		m.printer, cmd = m.printer.Update(msg)
	case m.mode == modeInput && m.flow != nil:
		m.flow.input, cmd = m.flow.input.Update(msg)
	}
	return m, cmd
}

func (m appModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		return m, tea.Quit

	case key.Matches(msg, k.Up):
		if m.cursor > 0 {
			m.cursor--
			m.scrollToCursor()
		}
	case key.Matches(msg, k.Down):
		if m.cursor < len(m.view.Rows)-1 {
			m.cursor++
			m.scrollToCursor()
		}

	case key.Matches(msg, k.Toggle):
		if it, ok := m.selected(); ok {
			cmd := m.do(func(ctx context.Context) error {
				_, _, err := m.sess.Engine.Toggle(ctx, it.ID)
				return err
			})
			return m, cmd
		}
	case key.Matches(msg, k.QtyUp), key.Matches(msg, k.QtyDown):
		if it, ok := m.selected(); ok {
			delta := 1
			if key.Matches(msg, k.QtyDown) {
				delta = -1
			}
			cmd := m.do(func(ctx context.Context) error {
				_, _, err := m.sess.Engine.SetQuantity(ctx, it.ID, it.Quantity+delta)
				return err
			})
			return m, cmd
		}

	case key.Matches(msg, k.Add):
		cmd := m.startFlow(flowAdd, "Item name", "")
		return m, cmd
	case key.Matches(msg, k.Edit):
		if it, ok := m.selected(); ok {
			cmd := m.startFlow(flowEdit, "Rename", it.Name)
			m.flow.id = it.ID
			return m, cmd
		}
	case key.Matches(msg, k.Move):
		if it, ok := m.selected(); ok {
			cmd := m.startFlow(flowMove, "Category", string(it.Category))
			m.flow.id = it.ID
			m.flow.input.SetSuggestions(categoryNames())
			return m, cmd
		}
	case key.Matches(msg, k.Search):
		cmd := m.startFlow(flowSearch, "Search", m.sess.Engine.Query().Search)
		return m, cmd
	case key.Matches(msg, k.Connect):
		cmd := m.startFlow(flowConnect, "Endpoint id or URL", m.sess.Endpoint())
		return m, cmd
	case key.Matches(msg, k.Import):
		cmd := m.startFlow(flowImport, "Import file", m.exportPath())
		return m, cmd

	case key.Matches(msg, k.Delete):
		if it, ok := m.selected(); ok {
			m.ask(grocery.ConfirmDelete, func(m *appModel) tea.Cmd {
				return m.do(func(ctx context.Context) error {
					_, err := m.sess.Engine.Delete(ctx, it.ID, true)
					return err
				})
			})
		}
	case key.Matches(msg, k.ClearDone):
		m.ask(grocery.ConfirmClearCompleted, func(m *appModel) tea.Cmd {
			return m.do(func(ctx context.Context) error {
				_, err := m.sess.Engine.ClearCompleted(ctx, true)
				return err
			})
		})
	case key.Matches(msg, k.ClearAll):
		m.ask(grocery.ConfirmClearAll, func(m *appModel) tea.Cmd {
			return m.do(func(ctx context.Context) error {
				_, err := m.sess.Engine.ClearAll(ctx, true)
				return err
			})
		})

	case key.Matches(msg, k.All):
		_ = m.sess.Engine.SetFilter(string(model.FilterAll))
		m.refresh()
	case key.Matches(msg, k.Active):
		_ = m.sess.Engine.SetFilter(string(model.FilterActive))
		m.refresh()
	case key.Matches(msg, k.Completed):
		_ = m.sess.Engine.SetFilter(string(model.FilterCompleted))
		m.refresh()
	case key.Matches(msg, k.Category):
		m.sess.Engine.SetCategory(string(nextCategory(m.sess.Engine.Query().Category)))
		m.refresh()

	case key.Matches(msg, k.Sync):
		sess, ctx := m.sess, m.ctx
		return m, func() tea.Msg {
			_, err := sess.Syncer().SyncNow(ctx)
			return syncDoneMsg{err: err}
		}
	case key.Matches(msg, k.Theme):
		next := m.sess.Theme(m.ctx).Toggle()
		if err := m.sess.SetTheme(m.ctx, next); err != nil {
			cmd := m.setToast(status.Message{Text: err.Error(), Kind: status.Error})
			return m, cmd
		}
		m.dark = applyThemePreference(next)
		m.pal = view.NewPalette(m.dark)
	case key.Matches(msg, k.Print):
		m.mode = modePrint
		m.printer = viewport.New(m.width, m.height-2)
		m.renderPrint()
	case key.Matches(msg, k.Export):
		cmd := m.export()
		return m, cmd
	case key.Matches(msg, k.Copy):
		md := publish.RenderChecklist(m.sess.Engine.Visible(), publish.RenderOptions{})
		if err := m.opts.Clipboard(md); err != nil {
			cmd := m.setToast(status.Message{Text: "Clipboard unavailable: " + err.Error(), Kind: status.Error})
			return m, cmd
		}
		cmd := m.setToast(status.Message{Text: "Checklist copied to clipboard", Kind: status.Success})
		return m, cmd
	case key.Matches(msg, k.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m *appModel) ask(prompt string, run func(m *appModel) tea.Cmd) {
	m.mode = modeConfirm
	m.confirm = &confirmState{prompt: prompt, run: run}
}

func (m appModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		c := m.confirm
		m.mode, m.confirm = modeList, nil
		if c != nil {
			cmd := c.run(&m)
			return m, cmd
		}
	case "n", "N", "esc", "q", "ctrl+c":
		m.mode, m.confirm = modeList, nil
	}
	return m, nil
}

func (m *appModel) startFlow(kind flowKind, placeholder, value string) tea.Cmd {
	in := textinput.New()
	in.Placeholder = placeholder
	in.Prompt = placeholder + ": "
	in.ShowSuggestions = true
	in.SetValue(value)
	in.CursorEnd()
	m.flow = &inputFlow{kind: kind, input: in}
	m.mode = modeInput
	return m.flow.input.Focus()
}

func (m appModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.flow
	switch msg.String() {
	case "esc", "ctrl+c":
		if f.kind == flowSearch {
			m.sess.Engine.SetSearch("")
			m.refresh()
		}
		m.mode, m.flow = modeList, nil
		return m, nil
	case "enter":
		return m.submitInput()
	}

	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	if f.kind == flowSearch {
		m.sess.Engine.SetSearch(f.input.Value())
		m.refresh()
	}
	return m, cmd
}

func (m appModel) submitInput() (tea.Model, tea.Cmd) {
	f := m.flow
	val := strings.TrimSpace(f.input.Value())
	done := func() { m.mode, m.flow = modeList, nil }

	switch f.kind {
	case flowAdd:
		switch f.step {
		case 0:
			if val == "" {
				// Same rule as the engine: reject and keep asking.
				_, err := m.sess.Engine.Add(m.ctx, "", 1, "")
				cmd := m.doneWith(err)
				return m, cmd
			}
			f.name, f.step = val, 1
			f.input.Prompt = "Quantity: "
			f.input.Placeholder = "1"
			f.input.SetValue("1")
			f.input.CursorEnd()
			return m, nil
		case 1:
			n, err := strconv.Atoi(val)
			if err != nil {
				n = 1
			}
			f.qty, f.step = n, 2
			f.input.Prompt = "Category: "
			f.input.Placeholder = string(model.CategoryOther)
			f.input.SetValue("")
			f.input.SetSuggestions(categoryNames())
			return m, nil
		default:
			done()
			cmd := m.do(func(ctx context.Context) error {
				_, err := m.sess.Engine.Add(ctx, f.name, f.qty, val)
				return err
			})
			return m, cmd
		}
	case flowEdit:
		done()
		cmd := m.do(func(ctx context.Context) error {
			_, _, err := m.sess.Engine.Edit(ctx, f.id, val)
			return err
		})
		return m, cmd
	case flowMove:
		done()
		cmd := m.do(func(ctx context.Context) error {
			_, _, err := m.sess.Engine.SetItemCategory(ctx, f.id, val)
			return err
		})
		return m, cmd
	case flowSearch:
		done()
		return m, nil
	case flowConnect:
		done()
		backend := store.BackendScript
		if strings.HasPrefix(val, "http://") || strings.HasPrefix(val, "https://") {
			backend = store.BackendRecords
		}
		sess, ctx := m.sess, m.ctx
		return m, func() tea.Msg {
			return connectDoneMsg{err: sess.Connect(ctx, val, backend)}
		}
	case flowImport:
		done()
		raw, err := os.ReadFile(val)
		if err != nil {
			cmd := m.setToast(status.Message{Text: err.Error(), Kind: status.Error})
			return m, cmd
		}
		cmd := m.do(func(ctx context.Context) error {
			_, err := m.sess.Engine.Import(ctx, raw)
			return err
		})
		return m, cmd
	}
	done()
	return m, nil
}

// doneWith shows err unless the session already announced it.
func (m *appModel) doneWith(err error) tea.Cmd {
	if err != nil && !grocery.IsValidation(err) {
		return m.setToast(status.Message{Text: err.Error(), Kind: status.Error})
	}
	return nil
}

func (m *appModel) exportPath() string {
	dir := strings.TrimSpace(m.opts.ExportDir)
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, grocery.ExportFileName)
}

func (m *appModel) export() tea.Cmd {
	b, err := m.sess.Engine.Export()
	if err == nil {
		err = store.WriteFile(m.exportPath(), b)
	}
	if err != nil {
		return m.setToast(status.Message{Text: "Export failed: " + err.Error(), Kind: status.Error})
	}
	return m.setToast(status.Message{Text: fmt.Sprintf("Exported %d items to %s", len(m.sess.Engine.Items()), m.exportPath()), Kind: status.Success})
}

func (m *appModel) renderPrint() {
	md := publish.RenderChecklist(m.sess.Engine.Visible(), publish.RenderOptions{ByCategory: m.byCategory})
	m.printer.SetContent(publish.RenderTerminal(md, m.width-2, m.dark))
}

func (m appModel) updatePrint(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "p":
		m.mode = modeList
		return m, nil
	case "g":
		m.byCategory = !m.byCategory
		m.renderPrint()
		return m, nil
	}
	var cmd tea.Cmd
	m.printer, cmd = m.printer.Update(msg)
	return m, cmd
}

func categoryNames() []string {
	cats := model.Categories()
	out := make([]string, 0, len(cats))
	for _, c := range cats {
		out = append(out, string(c))
	}
	return out
}

// nextCategory cycles "" -> produce -> ... -> other -> "".
func nextCategory(cur model.Category) model.Category {
	cats := model.Categories()
	if cur == "" {
		return cats[0]
	}
	for i, c := range cats {
		if c == cur && i+1 < len(cats) {
			return cats[i+1]
		}
	}
	return ""
}
