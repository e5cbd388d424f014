package remote

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"grocery-cli/internal/model"
)

const (
	DefaultCollection = "grocery_items"
	recordsPerPage    = 200
)

type RecordsOptions struct {
	// BaseURL of the record-collection server, e.g. http://127.0.0.1:8090.
	BaseURL    string
	Collection string
	// Token is sent verbatim in the Authorization header when set.
	Token      string
	HTTPClient *http.Client
}

// RecordsClient talks to a record-collection API (list/create/update/delete on
// /api/collections/<collection>/records). Backend record ids stay private to the adapter;
// items are matched through the itemId field.
type RecordsClient struct {
	base       string
	collection string
	token      string
	hc         *http.Client
}

type record struct {
	ID        string         `json:"id,omitempty"`
	ItemID    model.ItemID   `json:"itemId"`
	Name      string         `json:"name"`
	Quantity  int            `json:"quantity"`
	Category  model.Category `json:"category"`
	Completed bool           `json:"completed"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

type recordList struct {
	Page       int      `json:"page"`
	PerPage    int      `json:"perPage"`
	TotalPages int      `json:"totalPages"`
	TotalItems int      `json:"totalItems"`
	Items      []record `json:"items"`
}

func NewRecordsClient(opts RecordsOptions) (*RecordsClient, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, ErrNoEndpoint
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.New("invalid records base url: " + base)
	}
	coll := strings.TrimSpace(opts.Collection)
	if coll == "" {
		coll = DefaultCollection
	}
	return &RecordsClient{
		base:       base,
		collection: coll,
		token:      strings.TrimSpace(opts.Token),
		hc:         defaultHTTPClient(opts.HTTPClient),
	}, nil
}

func (c *RecordsClient) recordsURL() string {
	return c.base + "/api/collections/" + url.PathEscape(c.collection) + "/records"
}

func (c *RecordsClient) headers() map[string]string {
	return map[string]string{"Authorization": c.token}
}

func (c *RecordsClient) list(ctx context.Context) ([]record, error) {
	out := []record{}
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("sort", "-created")
		q.Set("page", strconv.Itoa(page))
		q.Set("perPage", strconv.Itoa(recordsPerPage))

		var resp recordList
		if err := doJSON(ctx, c.hc, "list", http.MethodGet, c.recordsURL()+"?"+q.Encode(), c.headers(), nil, &resp); err != nil {
			return nil, err
		}
		out = append(out, resp.Items...)
		if len(resp.Items) == 0 || resp.TotalPages <= page {
			return out, nil
		}
	}
}

func (r record) item() model.Item {
	id := r.ItemID
	if id == "" {
		// Rows written by other clients only have the backend id.
		id = model.ItemID(r.ID)
	}
	return model.Item{
		ID:        id,
		Name:      r.Name,
		Quantity:  model.NormalizeQuantity(r.Quantity),
		Category:  model.NormalizeCategory(string(r.Category)),
		Completed: r.Completed,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func recordFor(it model.Item) record {
	return record{
		ItemID:    it.ID,
		Name:      it.Name,
		Quantity:  it.Quantity,
		Category:  it.Category,
		Completed: it.Completed,
		CreatedAt: it.CreatedAt,
		UpdatedAt: it.UpdatedAt,
	}
}

func sameContent(a record, it model.Item) bool {
	return a.Name == it.Name &&
		a.Quantity == it.Quantity &&
		a.Category == it.Category &&
		a.Completed == it.Completed &&
		a.UpdatedAt.Equal(it.UpdatedAt)
}

func (c *RecordsClient) FetchAll(ctx context.Context) ([]model.Item, error) {
	recs, err := c.list(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Item, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.item())
	}
	return checkItems("list", out)
}

// PushAll lists the collection first. When the server already holds newer data it writes
// nothing and returns the server collection. Otherwise it creates/updates every local item,
// deletes records that are no longer local, and returns nil.
func (c *RecordsClient) PushAll(ctx context.Context, items []model.Item) ([]model.Item, error) {
	recs, err := c.list(ctx)
	if err != nil {
		return nil, err
	}
	server := make([]model.Item, 0, len(recs))
	for _, r := range recs {
		server = append(server, r.item())
	}
	if server, err = checkItems("list", server); err != nil {
		return nil, err
	}
	if len(server) > 0 && model.LatestUpdate(server).After(model.LatestUpdate(items)) {
		return server, nil
	}

	byItem := make(map[model.ItemID]record, len(recs))
	for _, r := range recs {
		byItem[r.item().ID] = r
	}

	keep := make(map[string]bool, len(items))
	// Oldest first so the server's "-created" order matches the local newest-first order.
	for i := len(items) - 1; i >= 0; i-- {
		it := items[i]
		if r, ok := byItem[it.ID]; ok {
			keep[r.ID] = true
			if sameContent(r, it) {
				continue
			}
			if err := doJSON(ctx, c.hc, "update", http.MethodPatch, c.recordsURL()+"/"+url.PathEscape(r.ID), c.headers(), recordFor(it), nil); err != nil {
				return nil, err
			}
			continue
		}
		if err := doJSON(ctx, c.hc, "create", http.MethodPost, c.recordsURL(), c.headers(), recordFor(it), nil); err != nil {
			return nil, err
		}
	}

	for _, r := range recs {
		if keep[r.ID] || r.ID == "" {
			continue
		}
		if err := doJSON(ctx, c.hc, "delete", http.MethodDelete, c.recordsURL()+"/"+url.PathEscape(r.ID), c.headers(), nil, nil); err != nil {
			return nil, err
		}
	}
	return nil, nil
}
