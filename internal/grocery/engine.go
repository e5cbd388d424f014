// Package grocery owns the canonical grocery collection.
//
// Every mutating operation persists the whole collection before it returns; when the write
// fails the in-memory collection is left as it was. Change listeners run after the write, and a
// background sync is requested last.
package grocery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"grocery-cli/internal/logging"
	"grocery-cli/internal/model"
	"grocery-cli/internal/status"
)

// Store is the durable side of the engine.
type Store interface {
	LoadItems(ctx context.Context) ([]model.Item, error)
	SaveItems(ctx context.Context, items []model.Item) error
	AppendEvent(ctx context.Context, typ, entityID string, payload any) error
}

// Trigger requests an asynchronous sync. Implementations must not block.
type Trigger interface {
	Trigger()
}

type Options struct {
	// Store may be nil for a memory-only engine.
	Store  Store
	Notify status.Func
	Logger *slog.Logger
	// Now is the clock; time.Now when nil.
	Now func() time.Time
}

type Engine struct {
	mu    sync.Mutex
	store Store
	items []model.Item
	query model.Query
	// version moves on every change to items.
	version uint64

	notify status.Func
	log    *slog.Logger
	now    func() time.Time

	sync      Trigger
	listeners []func()
}

// Stats are the counters shown under the list.
type Stats struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
}

// Open builds an engine and loads the persisted collection.
func Open(ctx context.Context, opts Options) (*Engine, error) {
	e := New(opts)
	if e.store == nil {
		return e, nil
	}
	items, err := e.store.LoadItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	e.items = items
	return e, nil
}

// New builds an empty engine without touching the store.
func New(opts Options) *Engine {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		store:  opts.Store,
		items:  []model.Item{},
		query:  model.Query{Filter: model.FilterAll},
		notify: status.Or(opts.Notify),
		log:    logging.Or(opts.Logger),
		now:    now,
	}
}

// AttachSyncer wires the background sync. Passing nil detaches it.
func (e *Engine) AttachSyncer(t Trigger) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sync = t
}

// OnChange registers fn to run after every change to the collection or the query.
func (e *Engine) OnChange(fn func()) {
	if fn == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, fn)
}

// SetNotify swaps the status sink; shells that start after the engine use it.
func (e *Engine) SetNotify(f status.Func) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notify = status.Or(f)
}

func (e *Engine) stamp() time.Time {
	return e.now().UTC().Truncate(time.Millisecond)
}

// touch returns the next updatedAt for an item last updated at prev. It always moves forward.
func (e *Engine) touch(prev time.Time) time.Time {
	t := e.stamp()
	if !t.After(prev) {
		t = prev.Add(time.Millisecond)
	}
	return t
}

type change struct {
	typ      string
	entityID string
	payload  any
	sync     bool
	msg      string
}

// commitLocked persists next and swaps it in. On error the current collection is kept.
func (e *Engine) commitLocked(ctx context.Context, next []model.Item, c change) error {
	if e.store != nil {
		if err := e.store.SaveItems(ctx, next); err != nil {
			e.log.Error("persist failed", "op", c.typ, "err", err)
			return fmt.Errorf("persist items: %w", err)
		}
		_ = e.store.AppendEvent(ctx, c.typ, c.entityID, c.payload)
	}
	e.items = next
	e.version++
	e.log.Debug("collection changed", "op", c.typ, "id", c.entityID, "items", len(next))
	return nil
}

// after runs outside the lock: listeners first, then the status message, then the sync request.
func (e *Engine) after(c change) {
	e.mu.Lock()
	listeners := append([]func(){}, e.listeners...)
	notify := e.notify
	trigger := e.sync
	e.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
	if c.msg != "" {
		notify(c.msg, status.Success)
	}
	if c.sync && trigger != nil {
		trigger.Trigger()
	}
}

func (e *Engine) reject(msg string) error {
	e.mu.Lock()
	notify := e.notify
	e.mu.Unlock()
	notify(msg, status.Error)
	return &ValidationError{Msg: msg}
}

func (e *Engine) indexLocked(id model.ItemID) int {
	for i := range e.items {
		if e.items[i].ID == id {
			return i
		}
	}
	return -1
}

// Add inserts a new item at the front of the collection.
func (e *Engine) Add(ctx context.Context, name string, quantity int, category string) (model.Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Item{}, e.reject(MsgNameRequired)
	}

	e.mu.Lock()
	now := e.stamp()
	it := model.Item{
		ID:        model.NewItemID(),
		Name:      name,
		Quantity:  model.NormalizeQuantity(quantity),
		Category:  model.NormalizeCategory(category),
		Completed: false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for e.indexLocked(it.ID) >= 0 {
		it.ID = model.NewItemID()
	}
	next := make([]model.Item, 0, len(e.items)+1)
	next = append(next, it)
	next = append(next, e.items...)
	c := change{typ: "item.add", entityID: it.ID.String(), payload: it, sync: true, msg: "Item added successfully"}
	err := e.commitLocked(ctx, next, c)
	e.mu.Unlock()
	if err != nil {
		return model.Item{}, err
	}
	e.after(c)
	return it, nil
}

// update applies fn to the item with id. A false return from fn means "nothing to do".
func (e *Engine) update(ctx context.Context, id model.ItemID, typ string, fn func(*model.Item) (any, bool)) (model.Item, bool, error) {
	e.mu.Lock()
	i := e.indexLocked(id)
	if i < 0 {
		e.mu.Unlock()
		return model.Item{}, false, nil
	}
	next := model.CloneItems(e.items)
	payload, ok := fn(&next[i])
	if !ok {
		e.mu.Unlock()
		return e.items[i], false, nil
	}
	next[i].UpdatedAt = e.touch(e.items[i].UpdatedAt)
	c := change{typ: typ, entityID: id.String(), payload: payload, sync: true}
	err := e.commitLocked(ctx, next, c)
	it := next[i]
	e.mu.Unlock()
	if err != nil {
		return model.Item{}, false, err
	}
	e.after(c)
	return it, true, nil
}

// Toggle flips the completed flag. An absent id is a no-op.
func (e *Engine) Toggle(ctx context.Context, id model.ItemID) (model.Item, bool, error) {
	return e.update(ctx, id, "item.toggle", func(it *model.Item) (any, bool) {
		it.Completed = !it.Completed
		return map[string]any{"completed": it.Completed}, true
	})
}

// Edit renames an item. Absent ids and blank names are no-ops; any other edit, even to the
// same name, refreshes updatedAt.
func (e *Engine) Edit(ctx context.Context, id model.ItemID, name string) (model.Item, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Item{}, false, nil
	}
	return e.update(ctx, id, "item.edit", func(it *model.Item) (any, bool) {
		from := it.Name
		it.Name = name
		return map[string]any{"from": from, "to": name}, true
	})
}

// SetQuantity changes an item's quantity (values below 1 become 1).
func (e *Engine) SetQuantity(ctx context.Context, id model.ItemID, quantity int) (model.Item, bool, error) {
	quantity = model.NormalizeQuantity(quantity)
	return e.update(ctx, id, "item.quantity", func(it *model.Item) (any, bool) {
		if it.Quantity == quantity {
			return nil, false
		}
		it.Quantity = quantity
		return map[string]any{"quantity": quantity}, true
	})
}

// SetItemCategory moves an item to another category.
func (e *Engine) SetItemCategory(ctx context.Context, id model.ItemID, category string) (model.Item, bool, error) {
	cat := model.NormalizeCategory(category)
	return e.update(ctx, id, "item.category", func(it *model.Item) (any, bool) {
		if it.Category == cat {
			return nil, false
		}
		it.Category = cat
		return map[string]any{"category": cat}, true
	})
}

// Delete removes an item once the user confirmed. Declined or absent is a no-op.
func (e *Engine) Delete(ctx context.Context, id model.ItemID, confirmed bool) (bool, error) {
	if !confirmed {
		return false, nil
	}
	e.mu.Lock()
	i := e.indexLocked(id)
	if i < 0 {
		e.mu.Unlock()
		return false, nil
	}
	next := make([]model.Item, 0, len(e.items)-1)
	next = append(next, e.items[:i]...)
	next = append(next, e.items[i+1:]...)
	c := change{typ: "item.delete", entityID: id.String(), payload: map[string]any{"name": e.items[i].Name}, sync: true}
	err := e.commitLocked(ctx, next, c)
	e.mu.Unlock()
	if err != nil {
		return false, err
	}
	e.after(c)
	return true, nil
}

// ClearCompleted removes every completed item and returns how many went.
func (e *Engine) ClearCompleted(ctx context.Context, confirmed bool) (int, error) {
	return e.removeWhere(ctx, confirmed, "items.clear_completed", func(it model.Item) bool { return it.Completed })
}

// ClearAll empties the collection.
func (e *Engine) ClearAll(ctx context.Context, confirmed bool) (int, error) {
	return e.removeWhere(ctx, confirmed, "items.clear_all", func(model.Item) bool { return true })
}

func (e *Engine) removeWhere(ctx context.Context, confirmed bool, typ string, drop func(model.Item) bool) (int, error) {
	if !confirmed {
		return 0, nil
	}
	e.mu.Lock()
	next := make([]model.Item, 0, len(e.items))
	for _, it := range e.items {
		if !drop(it) {
			next = append(next, it)
		}
	}
	removed := len(e.items) - len(next)
	if removed == 0 {
		e.mu.Unlock()
		return 0, nil
	}
	c := change{typ: typ, payload: map[string]any{"removed": removed}, sync: true}
	err := e.commitLocked(ctx, next, c)
	e.mu.Unlock()
	if err != nil {
		return 0, err
	}
	e.after(c)
	return removed, nil
}

// ReplaceIf swaps the whole collection, as a sync does when the server holds newer data. It is
// guarded by the version from Snapshot: when the collection changed since then nothing is
// written and false is returned. It does not request another sync.
func (e *Engine) ReplaceIf(ctx context.Context, version uint64, items []model.Item, reason string) (bool, error) {
	if reason == "" {
		reason = "items.replace"
	}
	e.mu.Lock()
	if e.version != version {
		e.mu.Unlock()
		e.log.Debug("replace skipped", "op", reason, "want", version)
		return false, nil
	}
	next := model.CloneItems(items)
	c := change{typ: reason, payload: map[string]any{"count": len(next)}}
	err := e.commitLocked(ctx, next, c)
	e.mu.Unlock()
	if err != nil {
		return false, err
	}
	e.after(c)
	return true, nil
}

// Reload re-reads the store, picking up writes made by another process.
func (e *Engine) Reload(ctx context.Context) error {
	if e.store == nil {
		return nil
	}
	items, err := e.store.LoadItems(ctx)
	if err != nil {
		return fmt.Errorf("load items: %w", err)
	}
	e.mu.Lock()
	e.items = items
	e.version++
	e.mu.Unlock()
	e.after(change{})
	return nil
}

// SetFilter changes the status filter. Only the next render is affected.
func (e *Engine) SetFilter(f string) error {
	filter, ok := model.ParseFilter(f)
	if !ok {
		return &ValidationError{Msg: MsgInvalidFilter}
	}
	e.setQuery(func(q *model.Query) { q.Filter = filter })
	return nil
}

func (e *Engine) SetSearch(q string) {
	e.setQuery(func(qq *model.Query) { qq.Search = q })
}

// SetCategory narrows the view to one category; "" shows every category.
func (e *Engine) SetCategory(c string) {
	cat := model.Category("")
	if strings.TrimSpace(c) != "" {
		cat = model.NormalizeCategory(c)
	}
	e.setQuery(func(q *model.Query) { q.Category = cat })
}

func (e *Engine) setQuery(fn func(*model.Query)) {
	e.mu.Lock()
	fn(&e.query)
	e.mu.Unlock()
	e.after(change{})
}

func (e *Engine) Query() model.Query {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.query
}

// Items returns a copy of the collection, newest first.
func (e *Engine) Items() []model.Item {
	e.mu.Lock()
	defer e.mu.Unlock()
	return model.CloneItems(e.items)
}

// Snapshot returns a copy of the collection and its current version.
func (e *Engine) Snapshot() ([]model.Item, uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return model.CloneItems(e.items), e.version
}

// Visible returns the items passing the current query, in collection order.
func (e *Engine) Visible() []model.Item {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]model.Item, 0, len(e.items))
	for _, it := range e.items {
		if e.query.Match(it) {
			out = append(out, it)
		}
	}
	return out
}

func (e *Engine) Find(id model.ItemID) (model.Item, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i := e.indexLocked(id); i >= 0 {
		return e.items[i], true
	}
	return model.Item{}, false
}

func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := Stats{Total: len(e.items)}
	for _, it := range e.items {
		if it.Completed {
			s.Completed++
		}
	}
	s.Active = s.Total - s.Completed
	return s
}
