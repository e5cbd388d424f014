package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ItemID is the client-assigned item identifier.
//
// New ids are UUIDv4 strings. Files exported by older versions of the app used
// millisecond timestamps encoded as JSON numbers; those decode to their decimal string
// so de-duplication keeps working across both schemes.
type ItemID string

func NewItemID() ItemID {
	return ItemID(uuid.NewString())
}

func (id ItemID) String() string { return string(id) }

func (id *ItemID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ItemID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.New("item id must be a string or number")
	}
	*id = ItemID(n.String())
	return nil
}

type Category string

const (
	CategoryProduce   Category = "produce"
	CategoryDairy     Category = "dairy"
	CategoryMeat      Category = "meat"
	CategoryBakery    Category = "bakery"
	CategoryFrozen    Category = "frozen"
	CategoryPantry    Category = "pantry"
	CategoryBeverages Category = "beverages"
	CategoryHousehold Category = "household"
	CategoryOther     Category = "other"
)

// Categories is the fixed menu offered by the shells. Categories outside the menu are kept
// as-is; the set is open-ended.
func Categories() []Category {
	return []Category{
		CategoryProduce,
		CategoryDairy,
		CategoryMeat,
		CategoryBakery,
		CategoryFrozen,
		CategoryPantry,
		CategoryBeverages,
		CategoryHousehold,
		CategoryOther,
	}
}

func NormalizeCategory(c string) Category {
	c = strings.ToLower(strings.TrimSpace(c))
	if c == "" {
		return CategoryOther
	}
	return Category(c)
}

func NormalizeQuantity(q int) int {
	if q <= 0 {
		return 1
	}
	return q
}

type Item struct {
	ID        ItemID    `json:"id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	Category  Category  `json:"category"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

func ParseFilter(s string) (Filter, bool) {
	switch Filter(strings.ToLower(strings.TrimSpace(s))) {
	case "", FilterAll:
		return FilterAll, true
	case FilterActive:
		return FilterActive, true
	case FilterCompleted:
		return FilterCompleted, true
	default:
		return "", false
	}
}

// Visible reports whether it passes the filter, the case-insensitive name search and the
// optional category narrowing.
func Visible(it Item, f Filter, search string, category Category) bool {
	switch f {
	case FilterActive:
		if it.Completed {
			return false
		}
	case FilterCompleted:
		if !it.Completed {
			return false
		}
	}
	if q := strings.ToLower(search); q != "" && !strings.Contains(strings.ToLower(it.Name), q) {
		return false
	}
	if category != "" && it.Category != category {
		return false
	}
	return true
}

// Query is the engine's view state: status filter, name search and category narrowing.
type Query struct {
	Filter   Filter   `json:"filter"`
	Search   string   `json:"search,omitempty"`
	Category Category `json:"category,omitempty"`
}

func (q Query) Match(it Item) bool {
	return Visible(it, q.Filter, q.Search, q.Category)
}

// LatestUpdate returns the newest UpdatedAt in items (zero time when empty).
func LatestUpdate(items []Item) time.Time {
	var latest time.Time
	for _, it := range items {
		if it.UpdatedAt.After(latest) {
			latest = it.UpdatedAt
		}
	}
	return latest
}

func CloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

type Event struct {
	ID       string    `json:"id"`
	TS       time.Time `json:"ts"`
	Type     string    `json:"type"`
	EntityID string    `json:"entityId"`
	Payload  any       `json:"payload"`
}
