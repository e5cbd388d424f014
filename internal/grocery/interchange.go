package grocery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"grocery-cli/internal/model"
)

// ExportFileName is the default name for exported collections.
const ExportFileName = "grocery-list.json"

// Export serializes the whole collection as an indented JSON array.
func (e *Engine) Export() ([]byte, error) {
	items := e.Items()
	b, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

type importRecord struct {
	ID        model.ItemID    `json:"id"`
	Name      *string         `json:"name"`
	Quantity  json.RawMessage `json:"quantity"`
	Category  string          `json:"category"`
	Completed json.RawMessage `json:"completed"`
	CreatedAt string          `json:"createdAt"`
	UpdatedAt string          `json:"updatedAt"`
}

// parseImport validates raw and converts it to items. Missing ids get fresh ones.
func parseImport(raw []byte, now time.Time) ([]model.Item, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, err
	}
	if elems == nil {
		return nil, fmt.Errorf("not an array")
	}
	out := make([]model.Item, 0, len(elems))
	for i, el := range elems {
		el = bytes.TrimSpace(el)
		if len(el) == 0 || el[0] != '{' {
			return nil, fmt.Errorf("record %d: not an object", i)
		}
		var rec importRecord
		if err := json.Unmarshal(el, &rec); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if rec.Name == nil || strings.TrimSpace(*rec.Name) == "" {
			return nil, fmt.Errorf("record %d: missing name", i)
		}
		id := rec.ID
		if id == "" {
			id = model.NewItemID()
		}
		created := parseTime(rec.CreatedAt, now)
		updated := parseTime(rec.UpdatedAt, created)
		out = append(out, model.Item{
			ID:        id,
			Name:      strings.TrimSpace(*rec.Name),
			Quantity:  parseQuantity(rec.Quantity),
			Category:  model.NormalizeCategory(rec.Category),
			Completed: bytes.Equal(bytes.TrimSpace(rec.Completed), []byte("true")),
			CreatedAt: created,
			UpdatedAt: updated,
		})
	}
	return out, nil
}

func parseTime(s string, fallback time.Time) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fallback
	}
	return t.UTC()
}

// parseQuantity accepts numbers and numeric strings; anything else is 1.
func parseQuantity(raw json.RawMessage) int {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 1
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return model.NormalizeQuantity(int(f))
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return model.NormalizeQuantity(n)
		}
	}
	return 1
}

// Import appends the records whose ids are not already present and returns how many were
// added. Existing items are never overwritten.
func (e *Engine) Import(ctx context.Context, raw []byte) (int, error) {
	recs, err := parseImport(raw, e.stamp())
	if err != nil {
		e.log.Debug("import rejected", "err", err)
		return 0, e.reject(MsgInvalidImport)
	}

	e.mu.Lock()
	seen := make(map[model.ItemID]bool, len(e.items)+len(recs))
	for _, it := range e.items {
		seen[it.ID] = true
	}
	next := model.CloneItems(e.items)
	added := 0
	for _, it := range recs {
		if seen[it.ID] {
			continue
		}
		seen[it.ID] = true
		next = append(next, it)
		added++
	}
	c := change{
		typ:     "items.import",
		payload: map[string]any{"added": added, "records": len(recs)},
		sync:    added > 0,
		msg:     fmt.Sprintf("Imported %d new items", added),
	}
	if added > 0 {
		if err := e.commitLocked(ctx, next, c); err != nil {
			e.mu.Unlock()
			return 0, err
		}
	}
	e.mu.Unlock()
	e.after(c)
	return added, nil
}
