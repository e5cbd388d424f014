package remote

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Config selects and configures one adapter.
type Config struct {
	// Backend is "script" (default) or "records".
	Backend string
	// Endpoint is the user's endpoint identifier: the script deployment id, or the base URL
	// of the record-collection server.
	Endpoint string

	ScriptBaseURL string
	Collection    string
	Token         string
	Timeout       time.Duration
	HTTPClient    *http.Client
}

// New builds the adapter named by cfg.Backend.
func New(cfg Config) (Client, error) {
	hc := cfg.HTTPClient
	if hc == nil && cfg.Timeout > 0 {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "script":
		c, err := NewScriptClient(ScriptOptions{BaseURL: cfg.ScriptBaseURL, EndpointID: cfg.Endpoint, HTTPClient: hc})
		if err != nil {
			return nil, err
		}
		return c, nil
	case "records":
		c, err := NewRecordsClient(RecordsOptions{BaseURL: cfg.Endpoint, Collection: cfg.Collection, Token: cfg.Token, HTTPClient: hc})
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown backend: %s", cfg.Backend)
	}
}

// ProbeURL returns the URL a Monitor should HEAD to decide whether the endpoint's host is
// reachable.
func ProbeURL(cfg Config) string {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "records":
		return strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/") + "/api/health"
	default:
		base := strings.TrimRight(strings.TrimSpace(cfg.ScriptBaseURL), "/")
		if base == "" {
			base = DefaultScriptBaseURL
		}
		return base
	}
}
