// Package remote mirrors the local grocery list to a remote store of record.
//
// Two adapters implement Client: ScriptClient talks to a spreadsheet-backed script endpoint,
// RecordsClient to a record-collection API. Both use plain request/response JSON over HTTP
// and report every failure as a *RemoteError; nothing is sent "fire and forget".
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"grocery-cli/internal/model"
)

// Client is one remote collaborator.
type Client interface {
	// FetchAll returns the server's collection.
	FetchAll(ctx context.Context) ([]model.Item, error)
	// PushAll sends the local collection. A non-empty result is the server's collection and
	// is reconciled against local; nil means the server has nothing newer to report.
	PushAll(ctx context.Context, items []model.Item) ([]model.Item, error)
}

var (
	ErrOffline    = errors.New("offline")
	ErrNoEndpoint = errors.New("no remote endpoint configured")
)

// ConnectivityError means a sync was not attempted.
type ConnectivityError struct {
	Err error
}

func (e *ConnectivityError) Error() string { return "sync skipped: " + e.Err.Error() }
func (e *ConnectivityError) Unwrap() error { return e.Err }

// RemoteError is any failure talking to the remote: transport error, non-2xx status,
// or a response body that does not decode.
type RemoteError struct {
	Op     string
	Status int
	Err    error
}

func (e *RemoteError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("remote %s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("remote %s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

const defaultTimeout = 30 * time.Second

// checkItems normalizes a collection received from the server and rejects one that would break
// the local invariants: every item needs a unique, non-empty id and a non-blank name.
// Quantities below 1 become 1 and categories are normalized as on local edits.
func checkItems(op string, items []model.Item) ([]model.Item, error) {
	if items == nil {
		return nil, nil
	}
	out := make([]model.Item, 0, len(items))
	seen := make(map[model.ItemID]bool, len(items))
	for i, it := range items {
		if strings.TrimSpace(it.ID.String()) == "" {
			return nil, &RemoteError{Op: op, Err: fmt.Errorf("item %d: missing id", i)}
		}
		if seen[it.ID] {
			return nil, &RemoteError{Op: op, Err: fmt.Errorf("item %d: duplicate id %q", i, it.ID)}
		}
		seen[it.ID] = true
		it.Name = strings.TrimSpace(it.Name)
		if it.Name == "" {
			return nil, &RemoteError{Op: op, Err: fmt.Errorf("item %d (%s): empty name", i, it.ID)}
		}
		it.Quantity = model.NormalizeQuantity(it.Quantity)
		it.Category = model.NormalizeCategory(string(it.Category))
		out = append(out, it)
	}
	return out, nil
}

func defaultHTTPClient(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return &http.Client{Timeout: defaultTimeout}
}

// doJSON sends an optional JSON body and decodes a JSON response into out (when non-nil).
func doJSON(ctx context.Context, hc *http.Client, op, method, url string, headers map[string]string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return &RemoteError{Op: op, Err: err}
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return &RemoteError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		if strings.TrimSpace(v) != "" {
			req.Header.Set(k, v)
		}
	}

	resp, err := hc.Do(req)
	if err != nil {
		return &RemoteError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return &RemoteError{Op: op, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(respBody))
		if len(msg) > 200 {
			msg = msg[:200]
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &RemoteError{Op: op, Status: resp.StatusCode, Err: errors.New(msg)}
	}
	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &RemoteError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
