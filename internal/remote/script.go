package remote

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"grocery-cli/internal/model"
)

const DefaultScriptBaseURL = "https://script.google.com"

type ScriptOptions struct {
	// BaseURL of the script host; DefaultScriptBaseURL when empty.
	BaseURL string
	// EndpointID is the deployment identifier the user configured.
	EndpointID string
	HTTPClient *http.Client
}

// ScriptClient talks to a spreadsheet-backed script deployment:
//
//	GET  <base>/macros/s/<id>/exec?action=getItems      -> {"items": [...]}
//	POST <base>/macros/s/<id>/exec {"action":"syncItems","items":[...]} -> {"items": [...]}
type ScriptClient struct {
	base string
	id   string
	hc   *http.Client
}

type scriptPayload struct {
	Action string       `json:"action"`
	Items  []model.Item `json:"items"`
}

type scriptResponse struct {
	Items []model.Item `json:"items"`
}

func NewScriptClient(opts ScriptOptions) (*ScriptClient, error) {
	id := strings.TrimSpace(opts.EndpointID)
	if id == "" {
		return nil, ErrNoEndpoint
	}
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultScriptBaseURL
	}
	if _, err := url.Parse(base); err != nil {
		return nil, errors.New("invalid script base url: " + err.Error())
	}
	return &ScriptClient{base: base, id: id, hc: defaultHTTPClient(opts.HTTPClient)}, nil
}

func (c *ScriptClient) execURL() string {
	return c.base + "/macros/s/" + url.PathEscape(c.id) + "/exec"
}

func (c *ScriptClient) FetchAll(ctx context.Context) ([]model.Item, error) {
	var out scriptResponse
	if err := doJSON(ctx, c.hc, "getItems", http.MethodGet, c.execURL()+"?action=getItems", nil, nil, &out); err != nil {
		return nil, err
	}
	if out.Items == nil {
		return []model.Item{}, nil
	}
	return checkItems("getItems", out.Items)
}

func (c *ScriptClient) PushAll(ctx context.Context, items []model.Item) ([]model.Item, error) {
	if items == nil {
		items = []model.Item{}
	}
	var out scriptResponse
	body := scriptPayload{Action: "syncItems", Items: items}
	if err := doJSON(ctx, c.hc, "syncItems", http.MethodPost, c.execURL(), nil, body, &out); err != nil {
		return nil, err
	}
	return checkItems("syncItems", out.Items)
}
