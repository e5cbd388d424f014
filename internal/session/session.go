// Package session assembles one open grocery list: its store, the engine over it, and the
// remote syncer wired to the engine. Each shell builds exactly one Session at startup.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"grocery-cli/internal/grocery"
	"grocery-cli/internal/logging"
	"grocery-cli/internal/remote"
	"grocery-cli/internal/status"
	"grocery-cli/internal/store"
)

type Options struct {
	Dir    string
	Config *store.GlobalConfig
	Notify status.Func
	Logger *slog.Logger
	// Offline starts the monitor in the offline state.
	Offline bool
	// Now overrides the engine clock (tests).
	Now func() time.Time
}

type Session struct {
	Store   store.Store
	Engine  *grocery.Engine
	Monitor *remote.Monitor

	cfg    store.GlobalConfig
	log    *slog.Logger
	notify *notifier

	mu       sync.Mutex
	endpoint string
	backend  store.Backend
	syncer   *remote.Syncer
}

// notifier lets shells swap the status sink after the session is built.
type notifier struct {
	mu sync.Mutex
	f  status.Func
}

func (n *notifier) send(msg string, kind status.Kind) {
	n.mu.Lock()
	f := n.f
	n.mu.Unlock()
	f(msg, kind)
}

func (n *notifier) set(f status.Func) {
	n.mu.Lock()
	n.f = status.Or(f)
	n.mu.Unlock()
}

func Open(ctx context.Context, opts Options) (*Session, error) {
	if strings.TrimSpace(opts.Dir) == "" {
		return nil, errors.New("session: dir is empty")
	}
	st := store.Store{Dir: opts.Dir}
	if err := st.Ensure(); err != nil {
		return nil, err
	}
	cfg := store.GlobalConfig{}
	if opts.Config != nil {
		cfg = *opts.Config
	}
	log := logging.Or(opts.Logger)
	n := &notifier{f: status.Or(opts.Notify)}

	eng, err := grocery.Open(ctx, grocery.Options{Store: st, Notify: n.send, Logger: log, Now: opts.Now})
	if err != nil {
		return nil, err
	}
	endpoint, err := st.Endpoint(ctx)
	if err != nil {
		return nil, fmt.Errorf("read endpoint: %w", err)
	}
	backend, err := st.Backend(ctx)
	if err != nil {
		return nil, fmt.Errorf("read backend: %w", err)
	}

	s := &Session{
		Store:    st,
		Engine:   eng,
		Monitor:  remote.NewMonitor(!opts.Offline, n.send),
		cfg:      cfg,
		log:      log,
		notify:   n,
		endpoint: endpoint,
		backend:  backend,
	}
	s.rebuildSyncer()
	return s, nil
}

// SetNotify routes status messages to f from now on.
func (s *Session) SetNotify(f status.Func) {
	s.notify.set(f)
}

// Notify sends a status message through the session's sink.
func (s *Session) Notify(msg string, kind status.Kind) {
	s.notify.send(msg, kind)
}

func (s *Session) Logger() *slog.Logger { return s.log }

func (s *Session) timeout() time.Duration {
	if s.cfg.Remote.TimeoutSeconds > 0 {
		return time.Duration(s.cfg.Remote.TimeoutSeconds) * time.Second
	}
	return 0
}

// remoteConfig describes the adapter for endpoint/backend. Caller holds s.mu or owns the values.
func (s *Session) remoteConfig(endpoint string, backend store.Backend) remote.Config {
	return remote.Config{
		Backend:       string(backend),
		Endpoint:      endpoint,
		ScriptBaseURL: s.cfg.Remote.ScriptBaseURL,
		Collection:    s.cfg.Remote.Collection,
		Token:         s.cfg.Remote.Token,
		Timeout:       s.timeout(),
	}
}

func (s *Session) rebuildSyncer() {
	s.mu.Lock()
	endpoint, backend := s.endpoint, s.backend
	s.mu.Unlock()

	var client remote.Client
	if endpoint != "" {
		c, err := remote.New(s.remoteConfig(endpoint, backend))
		if err != nil {
			s.log.Warn("remote disabled", "backend", backend, "err", err)
		} else {
			client = c
		}
	}
	sy := remote.NewSyncer(remote.SyncerOpts{
		Client:     client,
		Collection: s.Engine,
		Monitor:    s.Monitor,
		Endpoint:   s.Endpoint,
		Notify:     s.notify.send,
		Logger:     s.log,
		Timeout:    s.timeout(),
	})

	s.mu.Lock()
	s.syncer = sy
	s.mu.Unlock()
	s.Engine.AttachSyncer(sy)
}

func (s *Session) Syncer() *remote.Syncer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncer
}

// Endpoint is the configured endpoint identifier ("" when not connected).
func (s *Session) Endpoint() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endpoint
}

func (s *Session) Backend() store.Backend {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend
}

// RemoteInfo is what `remote show` reports.
type RemoteInfo struct {
	Backend   store.Backend `json:"backend"`
	Endpoint  string        `json:"endpoint"`
	Connected bool          `json:"connected"`
	Online    bool          `json:"online"`
	ProbeURL  string        `json:"probeUrl,omitempty"`
}

func (s *Session) RemoteInfo() RemoteInfo {
	s.mu.Lock()
	endpoint, backend := s.endpoint, s.backend
	s.mu.Unlock()
	info := RemoteInfo{Backend: backend, Endpoint: endpoint, Connected: endpoint != "", Online: s.Monitor.Online()}
	if endpoint != "" {
		info.ProbeURL = remote.ProbeURL(s.remoteConfig(endpoint, backend))
	}
	return info
}

// Connect probes endpoint with a read request and, when it answers, stores it as the list's
// endpoint. A failed probe leaves the previous configuration in place.
func (s *Session) Connect(ctx context.Context, endpoint string, backend store.Backend) error {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		s.notify.send("Please enter an endpoint id", status.Error)
		return &grocery.ValidationError{Msg: "Please enter an endpoint id"}
	}
	if backend == "" {
		backend = store.BackendScript
	}
	client, err := remote.New(s.remoteConfig(endpoint, backend))
	if err != nil {
		return err
	}
	probe := remote.NewSyncer(remote.SyncerOpts{
		Client:   client,
		Endpoint: func() string { return endpoint },
		Notify:   s.notify.send,
		Logger:   s.log,
		Timeout:  s.timeout(),
	})
	if err := probe.Probe(ctx); err != nil {
		return err
	}

	if err := s.Store.SetEndpoint(ctx, endpoint); err != nil {
		return err
	}
	if err := s.Store.SetBackend(ctx, backend); err != nil {
		return err
	}
	_ = s.Store.AppendEvent(ctx, "remote.connect", "", map[string]any{"backend": backend, "endpoint": endpoint})

	s.mu.Lock()
	s.endpoint, s.backend = endpoint, backend
	s.mu.Unlock()
	s.rebuildSyncer()
	s.log.Info("remote connected", "backend", backend)
	return nil
}

// Disconnect forgets the endpoint; the list keeps working locally.
func (s *Session) Disconnect(ctx context.Context) error {
	if err := s.Store.SetEndpoint(ctx, ""); err != nil {
		return err
	}
	_ = s.Store.AppendEvent(ctx, "remote.disconnect", "", nil)
	s.mu.Lock()
	s.endpoint = ""
	s.mu.Unlock()
	s.rebuildSyncer()
	return nil
}

// CheckOnline refreshes the monitor with a HEAD probe against the remote host. Without an
// endpoint there is nothing to probe and the state is left alone.
func (s *Session) CheckOnline(ctx context.Context) bool {
	info := s.RemoteInfo()
	if info.ProbeURL == "" {
		return s.Monitor.Online()
	}
	return s.Monitor.Check(ctx, info.ProbeURL)
}

// Theme and SetTheme proxy the stored preference.
func (s *Session) Theme(ctx context.Context) store.Theme {
	t, err := s.Store.Theme(ctx)
	if err != nil {
		s.log.Warn("read theme", "err", err)
	}
	return t
}

func (s *Session) SetTheme(ctx context.Context, t store.Theme) error {
	return s.Store.SetTheme(ctx, t)
}
