package remote

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"grocery-cli/internal/status"
)

// Monitor tracks whether the client believes it is online.
type Monitor struct {
	online atomic.Bool
	notify status.Func
	hc     *http.Client
}

func NewMonitor(online bool, notify status.Func) *Monitor {
	m := &Monitor{
		notify: status.Or(notify),
		hc:     &http.Client{Timeout: 5 * time.Second},
	}
	m.online.Store(online)
	return m
}

func (m *Monitor) Online() bool {
	if m == nil {
		return true
	}
	return m.online.Load()
}

// SetOnline records a network-state change and announces transitions.
func (m *Monitor) SetOnline(online bool) {
	if m == nil {
		return
	}
	if m.online.Swap(online) == online {
		return
	}
	if online {
		m.notify("Back online. Sync available.", status.Info)
	} else {
		m.notify("You are offline. Changes will sync when back online.", status.Error)
	}
}

// Check probes target with a HEAD request and updates the online state: any HTTP response
// counts as online, a transport error as offline.
func (m *Monitor) Check(ctx context.Context, target string) bool {
	if m == nil {
		return true
	}
	target = strings.TrimSpace(target)
	if target == "" {
		return m.Online()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return m.Online()
	}
	resp, err := m.hc.Do(req)
	if err != nil {
		m.SetOnline(false)
		return false
	}
	_ = resp.Body.Close()
	m.SetOnline(true)
	return true
}
