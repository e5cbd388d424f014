package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"grocery-cli/internal/model"

	_ "modernc.org/sqlite"
)

const (
	SQLiteFileName = "grocery.sqlite"

	KeyItems    = "groceryItems"
	KeyEndpoint = "sheetId"
	KeyTheme    = "theme"
	KeyBackend  = "backend"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Backend selects which remote adapter an endpoint identifier belongs to.
type Backend string

const (
	BackendScript  Backend = "script"
	BackendRecords Backend = "records"
)

func ParseBackend(s string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(s))) {
	case "", BackendScript:
		return BackendScript, nil
	case BackendRecords:
		return BackendRecords, nil
	default:
		return "", fmt.Errorf("unknown backend: %s (expected script|records)", s)
	}
}

// Store is the durable local key/value store for one grocery list.
//
// Every call opens the SQLite file, does its work and closes it again, so the CLI, the TUI
// and the web shell can share one list directory.
type Store struct {
	Dir string
}

func (s Store) Ensure() error {
	return os.MkdirAll(s.Dir, 0o755)
}

func (s Store) sqlitePath() string {
	return filepath.Join(s.Dir, SQLiteFileName)
}

func (s Store) openSQLite(ctx context.Context) (*sql.DB, error) {
	if strings.TrimSpace(s.Dir) == "" {
		return nil, errors.New("store: dir is empty")
	}
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", s.sqlitePath())
	if err != nil {
		return nil, err
	}
	// WAL enables one writer + many readers; busy_timeout avoids "database is locked" between processes.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func migrateSQLite(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			event_id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			payload_json TEXT NOT NULL,
			created_at_unixms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_created ON events(created_at_unixms);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the value stored under key. ok is false when the key is absent.
func (s Store) Get(ctx context.Context, key string) (value string, ok bool, err error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return "", false, err
	}
	defer db.Close()

	err = db.QueryRowContext(ctx, `SELECT v FROM kv WHERE k = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s Store) Set(ctx context.Context, key, value string) error {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.ExecContext(ctx, `INSERT OR REPLACE INTO kv(k, v, updated_at_unixms) VALUES(?, ?, ?)`,
		key, value, time.Now().UTC().UnixMilli())
	return err
}

func (s Store) Delete(ctx context.Context, key string) error {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.ExecContext(ctx, `DELETE FROM kv WHERE k = ?`, key)
	return err
}

// LoadItems returns the persisted collection, or an empty slice when nothing was saved yet.
func (s Store) LoadItems(ctx context.Context) ([]model.Item, error) {
	raw, ok, err := s.Get(ctx, KeyItems)
	if err != nil {
		return nil, err
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return []model.Item{}, nil
	}
	var items []model.Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", KeyItems, err)
	}
	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}

func (s Store) SaveItems(ctx context.Context, items []model.Item) error {
	if items == nil {
		items = []model.Item{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return s.Set(ctx, KeyItems, string(b))
}

func (s Store) Endpoint(ctx context.Context) (string, error) {
	v, _, err := s.Get(ctx, KeyEndpoint)
	return strings.TrimSpace(v), err
}

func (s Store) SetEndpoint(ctx context.Context, endpoint string) error {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return s.Delete(ctx, KeyEndpoint)
	}
	return s.Set(ctx, KeyEndpoint, endpoint)
}

func (s Store) Backend(ctx context.Context) (Backend, error) {
	v, _, err := s.Get(ctx, KeyBackend)
	if err != nil {
		return "", err
	}
	return ParseBackend(v)
}

func (s Store) SetBackend(ctx context.Context, b Backend) error {
	return s.Set(ctx, KeyBackend, string(b))
}

// Theme returns the saved theme, defaulting to light.
func (s Store) Theme(ctx context.Context) (Theme, error) {
	v, _, err := s.Get(ctx, KeyTheme)
	if err != nil {
		return ThemeLight, err
	}
	if Theme(strings.TrimSpace(v)) == ThemeDark {
		return ThemeDark, nil
	}
	return ThemeLight, nil
}

func (s Store) SetTheme(ctx context.Context, t Theme) error {
	if t != ThemeDark {
		t = ThemeLight
	}
	return s.Set(ctx, KeyTheme, string(t))
}

func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}
