package remote

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"grocery-cli/internal/logging"
	"grocery-cli/internal/model"
	"grocery-cli/internal/status"
)

// Collection is the local side of a sync: the list engine.
//
// Snapshot returns the items together with a version that moves on every change.
// ReplaceIf swaps in items only while the collection is still at that version and reports
// whether it did.
type Collection interface {
	Snapshot() ([]model.Item, uint64)
	ReplaceIf(ctx context.Context, version uint64, items []model.Item, reason string) (bool, error)
}

type Result struct {
	// Replaced is true when the server held newer data and local was overwritten.
	Replaced bool      `json:"replaced"`
	Count    int       `json:"count"`
	At       time.Time `json:"at"`
}

type SyncerOpts struct {
	Client     Client
	Collection Collection
	Monitor    *Monitor
	// Endpoint reports the configured endpoint identifier; "" disables sync.
	Endpoint func() string
	Notify   status.Func
	Logger   *slog.Logger
	Timeout  time.Duration
	// OnDone is called after every background attempt started by Trigger.
	OnDone func(Result, error)
}

// Syncer runs at most one sync at a time. Trigger requests coalesce into a single pending
// run while an attempt is in flight.
type Syncer struct {
	client   Client
	coll     Collection
	monitor  *Monitor
	endpoint func() string
	notify   status.Func
	log      *slog.Logger
	timeout  time.Duration
	onDone   func(Result, error)

	// runMu is held for the duration of one attempt.
	runMu sync.Mutex

	mu      sync.Mutex
	running bool
	pending bool
}

func NewSyncer(opts SyncerOpts) *Syncer {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	endpoint := opts.Endpoint
	if endpoint == nil {
		endpoint = func() string { return "" }
	}
	return &Syncer{
		client:   opts.Client,
		coll:     opts.Collection,
		monitor:  opts.Monitor,
		endpoint: endpoint,
		notify:   status.Or(opts.Notify),
		log:      logging.Or(opts.Logger),
		timeout:  timeout,
		onDone:   opts.OnDone,
	}
}

// Ready reports why a sync cannot run, or nil.
func (s *Syncer) Ready() error {
	if s == nil || s.client == nil || strings.TrimSpace(s.endpoint()) == "" {
		return &ConnectivityError{Err: ErrNoEndpoint}
	}
	if !s.monitor.Online() {
		return &ConnectivityError{Err: ErrOffline}
	}
	return nil
}

// Trigger starts a background sync when the gate is open. It never blocks and never reports
// gating as an error; a closed gate simply means local-only mode.
func (s *Syncer) Trigger() {
	if s.Ready() != nil {
		return
	}
	s.mu.Lock()
	if s.running {
		s.pending = true
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	go s.loop()
}

func (s *Syncer) loop() {
	for {
		res, err := s.attempt(context.Background())
		if s.onDone != nil {
			s.onDone(res, err)
		}

		s.mu.Lock()
		if !s.pending {
			s.running = false
			s.mu.Unlock()
			return
		}
		s.pending = false
		s.mu.Unlock()
	}
}

// SyncNow runs one sync and waits for it. Gating problems come back as *ConnectivityError
// and are announced like the explicit "sync" button does.
func (s *Syncer) SyncNow(ctx context.Context) (Result, error) {
	if err := s.Ready(); err != nil {
		s.announceGate(err)
		return Result{}, err
	}
	return s.attempt(ctx)
}

func (s *Syncer) announceGate(err error) {
	if s == nil {
		return
	}
	if errors.Is(err, ErrOffline) {
		s.notify("Cannot sync while offline", status.Error)
		return
	}
	s.notify("Please connect to a remote endpoint first", status.Error)
}

func (s *Syncer) attempt(ctx context.Context) (Result, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	local, version := s.coll.Snapshot()
	s.notify("Syncing...", status.Info)
	s.log.Debug("sync start", "items", len(local), "version", version)

	server, err := s.client.PushAll(ctx, local)
	if err == nil {
		server, err = checkItems("decode", server)
	}
	if err != nil {
		s.log.Warn("sync failed", "err", err)
		s.notify("Sync failed. Please try again.", status.Error)
		return Result{}, err
	}

	merged, replaced := Reconcile(local, server)
	if replaced {
		applied, err := s.coll.ReplaceIf(ctx, version, merged, "sync.replace")
		if err != nil {
			s.log.Warn("sync apply failed", "err", err)
			s.notify("Sync failed. Please try again.", status.Error)
			return Result{}, err
		}
		if !applied {
			s.stale()
			return Result{Count: len(local), At: time.Now().UTC()}, nil
		}
		s.log.Info("sync replaced local collection", "items", len(merged), "serverLatest", model.LatestUpdate(server))
		s.notify("Data synced from server", status.Success)
		return Result{Replaced: true, Count: len(merged), At: time.Now().UTC()}, nil
	}
	s.log.Debug("sync pushed local collection", "items", len(local))
	s.notify("Data synced to server", status.Success)
	return Result{Replaced: false, Count: len(local), At: time.Now().UTC()}, nil
}

// stale handles a server answer that arrived after the local collection moved on. The answer
// is dropped and another run reconciles against the current collection.
func (s *Syncer) stale() {
	s.log.Info("sync result dropped, local collection changed during the request")
	s.Trigger()
}

// Pull fetches the server collection and adopts it when it is newer than local.
func (s *Syncer) Pull(ctx context.Context) (Result, error) {
	if err := s.Ready(); err != nil {
		s.announceGate(err)
		return Result{}, err
	}
	s.runMu.Lock()
	defer s.runMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	local, version := s.coll.Snapshot()
	server, err := s.client.FetchAll(ctx)
	if err == nil {
		server, err = checkItems("decode", server)
	}
	if err != nil {
		s.log.Warn("pull failed", "err", err)
		s.notify("Sync failed - using local data", status.Error)
		return Result{}, err
	}
	merged, replaced := Reconcile(local, server)
	if replaced {
		applied, err := s.coll.ReplaceIf(ctx, version, merged, "sync.pull")
		if err != nil {
			s.notify("Sync failed - using local data", status.Error)
			return Result{}, err
		}
		if !applied {
			s.stale()
			return Result{Count: len(local), At: time.Now().UTC()}, nil
		}
	}
	s.notify("Synced", status.Success)
	return Result{Replaced: replaced, Count: len(merged), At: time.Now().UTC()}, nil
}

// Probe checks that the endpoint answers a read request.
func (s *Syncer) Probe(ctx context.Context) error {
	if s == nil || s.client == nil {
		return &ConnectivityError{Err: ErrNoEndpoint}
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.notify("Testing connection...", status.Info)
	if _, err := s.client.FetchAll(ctx); err != nil {
		s.notify("Connection failed. Please check your connection and endpoint id.", status.Error)
		return err
	}
	s.notify("Successfully connected!", status.Success)
	return nil
}
