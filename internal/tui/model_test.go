package tui

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"grocery-cli/internal/model"
	"grocery-cli/internal/session"
	"grocery-cli/internal/status"
	"grocery-cli/internal/store"

	tea "github.com/charmbracelet/bubbletea"
)

func newTestModel(t *testing.T) (appModel, *session.Session, *status.Recorder) {
	t.Helper()
	rec := &status.Recorder{}
	sess, err := session.Open(context.Background(), session.Options{
		Dir:     t.TempDir(),
		Notify:  rec.Func(),
		Offline: true,
	})
	if err != nil {
		t.Fatalf("session.Open: %v", err)
	}
	m := newAppModel(context.Background(), sess, false, Options{
		ExportDir:     t.TempDir(),
		NoOnlineCheck: true,
		Clipboard:     func(string) error { return nil },
	})
	return m, sess, rec
}

func press(t *testing.T, m appModel, keys ...string) appModel {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case " ":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(appModel)
	}
	return m
}

func typeText(t *testing.T, m appModel, s string) appModel {
	t.Helper()
	for _, r := range s {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(appModel)
	}
	return m
}

func clearInput(m appModel) appModel {
	m.flow.input.SetValue("")
	return m
}

func TestAddFlowAsksNameQuantityCategory(t *testing.T) {
	m, sess, rec := newTestModel(t)

	m = press(t, m, "a")
	if m.mode != modeInput {
		t.Fatalf("expected input mode")
	}
	m = typeText(t, m, "Milk")
	m = press(t, m, "enter")
	m = clearInput(m)
	m = typeText(t, m, "2")
	m = press(t, m, "enter")
	m = typeText(t, m, "dairy")
	m = press(t, m, "enter")

	if m.mode != modeList {
		t.Fatalf("expected list mode, got %v", m.mode)
	}
	items := sess.Engine.Items()
	if len(items) != 1 {
		t.Fatalf("items=%+v", items)
	}
	if items[0].Name != "Milk" || items[0].Quantity != 2 || items[0].Category != model.CategoryDairy {
		t.Fatalf("item=%+v", items[0])
	}
	if last, _ := rec.Last(); last.Text != "Item added successfully" {
		t.Fatalf("last status=%+v", last)
	}
	if !strings.Contains(m.View(), "Milk") {
		t.Fatalf("view does not show the item:\n%s", m.View())
	}
}

func TestAddEmptyNameStaysInPrompt(t *testing.T) {
	m, sess, rec := newTestModel(t)
	m = press(t, m, "a", "enter")
	if m.mode != modeInput {
		t.Fatalf("expected to stay in the prompt")
	}
	if len(sess.Engine.Items()) != 0 {
		t.Fatalf("no item expected")
	}
	if last, _ := rec.Last(); last.Text != "Please enter an item name" || last.Kind != status.Error {
		t.Fatalf("last status=%+v", last)
	}
}

func TestToggleAndFilterKeys(t *testing.T) {
	m, sess, _ := newTestModel(t)
	ctx := context.Background()
	_, _ = sess.Engine.Add(ctx, "Eggs", 1, "dairy")
	_, _ = sess.Engine.Add(ctx, "Bread", 1, "bakery")
	m.refresh()

	// Cursor starts on the newest item (Bread).
	m = press(t, m, " ")
	bread := sess.Engine.Items()[0]
	if bread.Name != "Bread" || !bread.Completed {
		t.Fatalf("expected Bread completed: %+v", bread)
	}

	m = press(t, m, "2")
	if len(m.view.Rows) != 1 || m.view.Rows[0].Item.Name != "Eggs" {
		t.Fatalf("active filter rows=%+v", m.view.Rows)
	}
	m = press(t, m, "3")
	if len(m.view.Rows) != 1 || m.view.Rows[0].Item.Name != "Bread" {
		t.Fatalf("completed filter rows=%+v", m.view.Rows)
	}
	m = press(t, m, "1")
	if len(m.view.Rows) != 2 {
		t.Fatalf("all filter rows=%+v", m.view.Rows)
	}
}

func TestDeleteAsksForConfirmation(t *testing.T) {
	m, sess, _ := newTestModel(t)
	_, _ = sess.Engine.Add(context.Background(), "Soap", 1, "household")
	m.refresh()

	m = press(t, m, "d")
	if m.mode != modeConfirm {
		t.Fatalf("expected confirm mode")
	}
	m = press(t, m, "n")
	if len(sess.Engine.Items()) != 1 {
		t.Fatalf("declined delete removed the item")
	}

	m = press(t, m, "d", "y")
	if len(sess.Engine.Items()) != 0 {
		t.Fatalf("confirmed delete kept the item")
	}
	if !strings.Contains(m.View(), "No items found") {
		t.Fatalf("expected empty state:\n%s", m.View())
	}
}

func TestSearchIsLiveAndEscClears(t *testing.T) {
	m, sess, _ := newTestModel(t)
	ctx := context.Background()
	_, _ = sess.Engine.Add(ctx, "Milk", 1, "dairy")
	_, _ = sess.Engine.Add(ctx, "Eggs", 1, "dairy")
	m.refresh()

	m = press(t, m, "/")
	m = typeText(t, m, "mil")
	if len(m.view.Rows) != 1 || m.view.Rows[0].Item.Name != "Milk" {
		t.Fatalf("search rows=%+v", m.view.Rows)
	}
	m = press(t, m, "esc")
	if sess.Engine.Query().Search != "" || len(m.view.Rows) != 2 {
		t.Fatalf("esc did not clear search: %+v", sess.Engine.Query())
	}
}

func TestQuantityKeysNeverGoBelowOne(t *testing.T) {
	m, sess, _ := newTestModel(t)
	_, _ = sess.Engine.Add(context.Background(), "Limes", 1, "produce")
	m.refresh()

	m = press(t, m, "+", "+")
	if q := sess.Engine.Items()[0].Quantity; q != 3 {
		t.Fatalf("quantity=%d", q)
	}
	m = press(t, m, "-", "-", "-", "-")
	if q := sess.Engine.Items()[0].Quantity; q != 1 {
		t.Fatalf("quantity=%d", q)
	}
	_ = m
}

func TestCategoryFilterCycles(t *testing.T) {
	if got := nextCategory(""); got != model.CategoryProduce {
		t.Fatalf("first=%q", got)
	}
	if got := nextCategory(model.CategoryOther); got != "" {
		t.Fatalf("after last=%q", got)
	}
	if got := nextCategory(model.CategoryDairy); got != model.CategoryMeat {
		t.Fatalf("after dairy=%q", got)
	}
}

func TestExportWritesFile(t *testing.T) {
	m, sess, _ := newTestModel(t)
	_, _ = sess.Engine.Add(context.Background(), "Rice", 1, "pantry")
	m.refresh()

	m = press(t, m, "x")
	b, err := os.ReadFile(filepath.Join(m.opts.ExportDir, "grocery-list.json"))
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(b), `"name": "Rice"`) {
		t.Fatalf("export=%s", b)
	}
	if m.toast.Kind != status.Success {
		t.Fatalf("toast=%+v", m.toast)
	}
}

func TestToastExpiresOnlyForLatest(t *testing.T) {
	m, _, _ := newTestModel(t)
	next, _ := m.Update(statusMsg{Text: "one", Kind: status.Info})
	m = next.(appModel)
	next, _ = m.Update(statusMsg{Text: "two", Kind: status.Info})
	m = next.(appModel)

	next, _ = m.Update(toastExpiredMsg{seq: 1})
	m = next.(appModel)
	if m.toast.Text != "two" {
		t.Fatalf("stale expiry cleared the toast: %+v", m.toast)
	}
	next, _ = m.Update(toastExpiredMsg{seq: 2})
	m = next.(appModel)
	if m.toast.Text != "" {
		t.Fatalf("toast not cleared: %+v", m.toast)
	}
}

func TestChangedMsgPicksUpExternalWrites(t *testing.T) {
	m, sess, _ := newTestModel(t)
	_, _ = sess.Engine.Add(context.Background(), "Butter", 1, "dairy")
	next, _ := m.Update(changedMsg{})
	m = next.(appModel)
	if len(m.view.Rows) != 1 {
		t.Fatalf("rows=%+v", m.view.Rows)
	}
}

func TestInitSyncsConnectedList(t *testing.T) {
	pushes := make(chan struct{}, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			pushes <- struct{}{}
		}
		_, _ = io.WriteString(w, `{"items":[]}`)
	}))
	defer srv.Close()

	ctx := context.Background()
	cfg := &store.GlobalConfig{Remote: store.RemoteConfig{ScriptBaseURL: srv.URL}}
	sess, err := session.Open(ctx, session.Options{Dir: t.TempDir(), Config: cfg})
	if err != nil {
		t.Fatalf("session.Open: %v", err)
	}
	if err := sess.Connect(ctx, "dep", ""); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	m := newAppModel(ctx, sess, false, Options{ExportDir: t.TempDir(), NoOnlineCheck: true})

	cmd := m.Init()
	if cmd == nil {
		t.Fatalf("expected a startup command")
	}
	if msg, ok := cmd().(onlineMsg); !ok || !msg.online {
		t.Fatalf("expected online status, got %#v", msg)
	}
	select {
	case <-pushes:
	case <-time.After(2 * time.Second):
		t.Fatalf("opening a connected list should sync")
	}
}

func TestInitWithoutEndpointStaysLocal(t *testing.T) {
	m, _, rec := newTestModel(t)
	if msg, ok := m.Init()().(onlineMsg); !ok || msg.online {
		t.Fatalf("expected offline status, got %#v", msg)
	}
	if len(rec.Messages) != 0 {
		t.Fatalf("gated startup sync must be silent, got %+v", rec.Messages)
	}
}
