package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"grocery-cli/internal/model"
	"grocery-cli/internal/store"
)

func runCLI(t *testing.T, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()

	cmd := NewRootCmd()

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)

	e := cmd.Execute()
	return outBuf.Bytes(), errBuf.Bytes(), e
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Meta  map[string]any  `json:"meta"`
	Hints []string        `json:"_hints"`
}

// mustRun runs the CLI against dir and decodes the envelope.
func mustRun(t *testing.T, dir string, args ...string) envelope {
	t.Helper()
	out, errOut, err := runCLI(t, append([]string{"--dir", dir}, args...))
	if err != nil {
		t.Fatalf("%v: %v\nstderr:\n%s", args, err, string(errOut))
	}
	var env envelope
	if err := json.Unmarshal(out, &env); err != nil {
		t.Fatalf("%v: decode output: %v\nraw:\n%s", args, err, string(out))
	}
	return env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode %s: %v", string(raw), err)
	}
	return v
}

func setupCLI(t *testing.T) string {
	t.Helper()
	t.Setenv("GROCERY_CONFIG_DIR", t.TempDir())
	t.Setenv("GROCERY_DIR", "")
	t.Setenv("GROCERY_LIST", "")
	t.Setenv("GROCERY_FORMAT", "")
	return t.TempDir()
}

func messagesOf(env envelope) []string {
	raw, _ := env.Meta["messages"].([]any)
	out := []string{}
	for _, m := range raw {
		obj, _ := m.(map[string]any)
		if s, _ := obj["text"].(string); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func TestCLI_AddListToggle(t *testing.T) {
	dir := setupCLI(t)

	milk := decode[model.Item](t, mustRun(t, dir, "add", "Whole", "milk", "--qty", "2", "--category", "Dairy").Data)
	if milk.Name != "Whole milk" || milk.Quantity != 2 || milk.Category != model.CategoryDairy || milk.Completed {
		t.Fatalf("unexpected item: %+v", milk)
	}
	bread := decode[model.Item](t, mustRun(t, dir, "add", "Bread", "--qty", "0").Data)
	if bread.Quantity != 1 || bread.Category != model.CategoryOther {
		t.Fatalf("expected defaults, got %+v", bread)
	}

	list := mustRun(t, dir, "list")
	items := decode[[]model.Item](t, list.Data)
	if len(items) != 2 || items[0].ID != bread.ID || items[1].ID != milk.ID {
		t.Fatalf("expected newest first, got %+v", items)
	}

	toggled := mustRun(t, dir, "toggle", milk.ID.String())
	if it := decode[model.Item](t, toggled.Data); !it.Completed {
		t.Fatalf("expected completed, got %+v", it)
	}
	if toggled.Meta["changed"] != true {
		t.Fatalf("expected changed=true, got %v", toggled.Meta)
	}

	active := decode[[]model.Item](t, mustRun(t, dir, "list", "--filter", "active").Data)
	if len(active) != 1 || active[0].ID != bread.ID {
		t.Fatalf("expected only bread active, got %+v", active)
	}
	done := decode[[]model.Item](t, mustRun(t, dir, "list", "--filter", "completed").Data)
	if len(done) != 1 || done[0].ID != milk.ID {
		t.Fatalf("expected only milk completed, got %+v", done)
	}
	found := decode[[]model.Item](t, mustRun(t, dir, "list", "--search", "MILK").Data)
	if len(found) != 1 || found[0].ID != milk.ID {
		t.Fatalf("expected case-insensitive search hit, got %+v", found)
	}

	stats := decode[map[string]int](t, mustRun(t, dir, "stats").Data)
	if stats["total"] != 2 || stats["active"] != 1 || stats["completed"] != 1 {
		t.Fatalf("unexpected stats: %v", stats)
	}
}

func TestCLI_AddEmptyNameFails(t *testing.T) {
	dir := setupCLI(t)
	_, stderr, err := runCLI(t, []string{"--dir", dir, "add", "   "})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(string(stderr), "Please enter an item name") {
		t.Fatalf("expected validation message, got %q", string(stderr))
	}
}

func TestCLI_ListEmptyMessage(t *testing.T) {
	dir := setupCLI(t)
	env := mustRun(t, dir, "list")
	if got := decode[[]model.Item](t, env.Data); len(got) != 0 {
		t.Fatalf("expected empty list, got %+v", got)
	}
	if env.Meta["emptyMessage"] != "No items found. Add some groceries to your list!" {
		t.Fatalf("unexpected meta: %v", env.Meta)
	}
}

func TestCLI_EditQuantityCategory(t *testing.T) {
	dir := setupCLI(t)
	it := decode[model.Item](t, mustRun(t, dir, "add", "Apples").Data)

	edited := decode[model.Item](t, mustRun(t, dir, "edit", it.ID.String(), "Green", "apples").Data)
	if edited.Name != "Green apples" {
		t.Fatalf("expected renamed item, got %+v", edited)
	}
	qty := decode[model.Item](t, mustRun(t, dir, "qty", it.ID.String(), "0").Data)
	if qty.Quantity != 1 {
		t.Fatalf("expected quantity floor of 1, got %+v", qty)
	}
	moved := decode[model.Item](t, mustRun(t, dir, "category", it.ID.String(), "produce").Data)
	if moved.Category != model.CategoryProduce {
		t.Fatalf("expected produce, got %+v", moved)
	}

	if _, _, err := runCLI(t, []string{"--dir", dir, "qty", it.ID.String(), "lots"}); err == nil {
		t.Fatalf("expected non-numeric quantity to fail")
	}
	_, stderr, err := runCLI(t, []string{"--dir", dir, "toggle", "missing-id"})
	if err == nil || !strings.Contains(string(stderr), "item not found: missing-id") {
		t.Fatalf("expected not-found, got err=%v stderr=%q", err, string(stderr))
	}
}

func TestCLI_DeleteRequiresYes(t *testing.T) {
	dir := setupCLI(t)
	it := decode[model.Item](t, mustRun(t, dir, "add", "Eggs").Data)

	env := mustRun(t, dir, "delete", it.ID.String())
	res := decode[map[string]any](t, env.Data)
	if res["deleted"] != false {
		t.Fatalf("expected deleted=false without --yes, got %v", res)
	}
	if len(env.Hints) == 0 || !strings.Contains(env.Hints[0], "--yes") {
		t.Fatalf("expected --yes hint, got %v", env.Hints)
	}
	if got := decode[[]model.Item](t, mustRun(t, dir, "list").Data); len(got) != 1 {
		t.Fatalf("expected item kept, got %+v", got)
	}

	res = decode[map[string]any](t, mustRun(t, dir, "delete", it.ID.String(), "--yes").Data)
	if res["deleted"] != true {
		t.Fatalf("expected deleted=true, got %v", res)
	}
	if got := decode[[]model.Item](t, mustRun(t, dir, "list").Data); len(got) != 0 {
		t.Fatalf("expected empty list, got %+v", got)
	}
}

func TestCLI_ClearCompletedAndClear(t *testing.T) {
	dir := setupCLI(t)
	a := decode[model.Item](t, mustRun(t, dir, "add", "A").Data)
	mustRun(t, dir, "add", "B")
	mustRun(t, dir, "toggle", a.ID.String())

	if res := decode[map[string]int](t, mustRun(t, dir, "clear-completed").Data); res["removed"] != 0 {
		t.Fatalf("expected nothing removed without --yes, got %v", res)
	}
	if res := decode[map[string]int](t, mustRun(t, dir, "clear-completed", "--yes").Data); res["removed"] != 1 {
		t.Fatalf("expected 1 removed, got %v", res)
	}
	if res := decode[map[string]int](t, mustRun(t, dir, "clear", "-y").Data); res["removed"] != 1 {
		t.Fatalf("expected 1 removed, got %v", res)
	}
	if got := decode[[]model.Item](t, mustRun(t, dir, "list").Data); len(got) != 0 {
		t.Fatalf("expected empty list, got %+v", got)
	}
}

func TestCLI_ExportImportRoundTrip(t *testing.T) {
	src := setupCLI(t)
	mustRun(t, src, "add", "Coffee", "--category", "beverages")
	mustRun(t, src, "add", "Soap", "--category", "household")

	outPath := filepath.Join(t.TempDir(), "export.json")
	exp := decode[map[string]any](t, mustRun(t, src, "export", "--out", outPath).Data)
	if exp["items"] != float64(2) {
		t.Fatalf("unexpected export result: %v", exp)
	}
	raw, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	var exported []model.Item
	if err := json.Unmarshal(raw, &exported); err != nil || len(exported) != 2 {
		t.Fatalf("expected a JSON array of 2 items, got err=%v raw=%s", err, string(raw))
	}

	dst := t.TempDir()
	env := mustRun(t, dst, "import", outPath)
	if res := decode[map[string]int](t, env.Data); res["imported"] != 2 || res["total"] != 2 {
		t.Fatalf("unexpected import result: %v", res)
	}
	if msgs := messagesOf(env); len(msgs) == 0 || msgs[len(msgs)-1] != "Imported 2 new items" {
		t.Fatalf("unexpected messages: %v", msgs)
	}

	// Same file again: every id already exists.
	if res := decode[map[string]int](t, mustRun(t, dst, "import", outPath).Data); res["imported"] != 0 || res["total"] != 2 {
		t.Fatalf("expected duplicate ids skipped, got %v", res)
	}
}

func TestCLI_ImportRejectsNonArray(t *testing.T) {
	dir := setupCLI(t)
	mustRun(t, dir, "add", "Keep")

	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte(`{"items":[]}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, stderr, err := runCLI(t, []string{"--dir", dir, "import", bad})
	if err == nil || !strings.Contains(string(stderr), "Invalid file format") {
		t.Fatalf("expected invalid format, got err=%v stderr=%q", err, string(stderr))
	}
	if got := decode[[]model.Item](t, mustRun(t, dir, "list").Data); len(got) != 1 {
		t.Fatalf("expected list untouched, got %+v", got)
	}

	_, _, err = runCLI(t, []string{"--dir", dir, "import", filepath.Join(t.TempDir(), "nope.json")})
	if err == nil {
		t.Fatalf("expected missing file to fail")
	}
}

func TestCLI_EventsRecordsMutations(t *testing.T) {
	dir := setupCLI(t)
	it := decode[model.Item](t, mustRun(t, dir, "add", "Rice").Data)
	mustRun(t, dir, "toggle", it.ID.String())

	evs := decode[[]model.Event](t, mustRun(t, dir, "events").Data)
	if len(evs) != 2 {
		t.Fatalf("expected 2 events, got %+v", evs)
	}
	if evs[0].Type != "item.toggle" || evs[1].Type != "item.add" {
		t.Fatalf("expected newest first, got %q then %q", evs[0].Type, evs[1].Type)
	}
	if evs[0].EntityID != it.ID.String() {
		t.Fatalf("unexpected entity id %q", evs[0].EntityID)
	}

	if got := decode[[]model.Event](t, mustRun(t, dir, "events", "--limit", "1").Data); len(got) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(got))
	}
}

func TestCLI_ThemePersists(t *testing.T) {
	dir := setupCLI(t)
	if got := decode[map[string]string](t, mustRun(t, dir, "theme").Data); got["theme"] != "light" {
		t.Fatalf("expected light default, got %v", got)
	}
	if got := decode[map[string]string](t, mustRun(t, dir, "theme", "toggle").Data); got["theme"] != "dark" {
		t.Fatalf("expected dark after toggle, got %v", got)
	}
	if got := decode[map[string]string](t, mustRun(t, dir, "theme").Data); got["theme"] != "dark" {
		t.Fatalf("expected dark to persist, got %v", got)
	}
	if _, _, err := runCLI(t, []string{"--dir", dir, "theme", "sepia"}); err == nil {
		t.Fatalf("expected unknown theme to fail")
	}
}

func TestCLI_ListsUseSwitchesCurrentList(t *testing.T) {
	setupCLI(t)

	out, errOut, err := runCLI(t, []string{"lists", "use", "party"})
	if err != nil {
		t.Fatalf("lists use: %v\n%s", err, string(errOut))
	}
	var env envelope
	if err := json.Unmarshal(out, &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := decode[map[string]string](t, env.Data); got["current"] != "party" {
		t.Fatalf("unexpected result: %v", got)
	}

	if _, errOut, err := runCLI(t, []string{"add", "Chips"}); err != nil {
		t.Fatalf("add: %v\n%s", err, string(errOut))
	}
	partyDir, err := store.ListDir("party")
	if err != nil {
		t.Fatalf("ListDir: %v", err)
	}
	if _, err := os.Stat(filepath.Join(partyDir, store.SQLiteFileName)); err != nil {
		t.Fatalf("expected party list to be written: %v", err)
	}

	out, _, err = runCLI(t, []string{"lists"})
	if err != nil {
		t.Fatalf("lists: %v", err)
	}
	if err := json.Unmarshal(out, &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	lists := decode[map[string]any](t, env.Data)
	if lists["current"] != "party" {
		t.Fatalf("unexpected lists output: %v", lists)
	}
}

func TestCLI_PrintRaw(t *testing.T) {
	dir := setupCLI(t)
	it := decode[model.Item](t, mustRun(t, dir, "add", "Oats", "--qty", "2", "--category", "pantry").Data)
	mustRun(t, dir, "add", "Juice", "--category", "beverages")
	mustRun(t, dir, "toggle", it.ID.String())

	out, _, err := runCLI(t, []string{"--dir", dir, "print", "--raw", "--by-category"})
	if err != nil {
		t.Fatalf("print: %v", err)
	}
	md := string(out)
	if !strings.Contains(md, "- [x] Oats") || !strings.Contains(md, "- [ ] Juice") {
		t.Fatalf("expected task list items, got:\n%s", md)
	}
	if !strings.Contains(md, "Beverages") || !strings.Contains(md, "Pantry") {
		t.Fatalf("expected category headings, got:\n%s", md)
	}

	out, _, err = runCLI(t, []string{"--dir", dir, "print", "--raw", "--filter", "active"})
	if err != nil {
		t.Fatalf("print active: %v", err)
	}
	if strings.Contains(string(out), "Oats") {
		t.Fatalf("expected completed item filtered out, got:\n%s", string(out))
	}
}

func TestCLI_SyncWithoutEndpointFails(t *testing.T) {
	dir := setupCLI(t)
	_, stderr, err := runCLI(t, []string{"--dir", dir, "sync"})
	if err == nil {
		t.Fatalf("expected sync without endpoint to fail")
	}
	if len(stderr) == 0 {
		t.Fatalf("expected an error on stderr")
	}

	info := decode[map[string]any](t, mustRun(t, dir, "remote", "show").Data)
	if info["connected"] != false {
		t.Fatalf("expected disconnected, got %v", info)
	}
}

type fakeScript struct {
	mu     sync.Mutex
	items  []model.Item
	pushes int
}

func (f *fakeScript) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch r.Method {
	case http.MethodPost:
		var body struct {
			Action string       `json:"action"`
			Items  []model.Item `json:"items"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.items = body.Items
		f.pushes++
	case http.MethodHead:
		return
	}
	items := f.items
	if items == nil {
		items = []model.Item{}
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"items": items})
}

func TestCLI_ConnectedListPushesAfterMutation(t *testing.T) {
	dir := setupCLI(t)
	fake := &fakeScript{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	if err := store.SaveConfig(&store.GlobalConfig{Remote: store.RemoteConfig{ScriptBaseURL: srv.URL}}); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	info := decode[map[string]any](t, mustRun(t, dir, "remote", "connect", "deploy-123").Data)
	if info["connected"] != true || info["endpoint"] != "deploy-123" {
		t.Fatalf("unexpected remote info: %v", info)
	}

	mustRun(t, dir, "add", "Butter")
	fake.mu.Lock()
	pushed := append([]model.Item(nil), fake.items...)
	pushes := fake.pushes
	fake.mu.Unlock()
	if pushes != 1 || len(pushed) != 1 || pushed[0].Name != "Butter" {
		t.Fatalf("expected one push carrying Butter, got pushes=%d items=%+v", pushes, pushed)
	}

	res := decode[map[string]any](t, mustRun(t, dir, "sync").Data)
	if res["replaced"] != false || res["count"] != float64(1) {
		t.Fatalf("unexpected sync result: %v", res)
	}

	mustRun(t, dir, "remote", "disconnect")
	if _, _, err := runCLI(t, []string{"--dir", dir, "sync"}); err == nil {
		t.Fatalf("expected sync after disconnect to fail")
	}
}

func TestCLI_EDNFormat(t *testing.T) {
	dir := setupCLI(t)
	out, _, err := runCLI(t, []string{"--dir", dir, "--format", "edn", "stats"})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	s := string(out)
	if !strings.Contains(s, ":data") || !strings.Contains(s, ":total 0") {
		t.Fatalf("expected EDN envelope, got %q", s)
	}
}

func TestCLI_Docs(t *testing.T) {
	dir := setupCLI(t)
	topics := decode[map[string][]string](t, mustRun(t, dir, "docs").Data)
	if len(topics["topics"]) == 0 {
		t.Fatalf("expected topics, got %v", topics)
	}
	out, _, err := runCLI(t, []string{"docs", "sync", "--raw"})
	if err != nil {
		t.Fatalf("docs sync: %v", err)
	}
	if !strings.HasPrefix(string(out), "# Sync") {
		t.Fatalf("unexpected docs body: %q", string(out))
	}
	if _, _, err := runCLI(t, []string{"docs", "nope"}); err == nil {
		t.Fatalf("expected unknown topic to fail")
	}
}
