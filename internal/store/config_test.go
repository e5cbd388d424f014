package store

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig_SaveLoad_UsesOverrideDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GROCERY_CONFIG_DIR", dir)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load missing config: %v", err)
	}
	if cfg.CurrentList != "" {
		t.Fatalf("expected empty config, got %+v", cfg)
	}

	cfg.CurrentList = "weekly"
	cfg.Remote.RecordsURL = "http://127.0.0.1:8090"
	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "config.json")); err != nil {
		t.Fatalf("expected config.json: %v", err)
	}

	got, err := LoadConfig()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.CurrentList != "weekly" || got.Remote.RecordsURL != "http://127.0.0.1:8090" {
		t.Fatalf("unexpected config: %+v", got)
	}
}

func TestListDirAndNames(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GROCERY_CONFIG_DIR", dir)

	if _, err := ListDir("../escape"); err == nil {
		t.Fatalf("expected error for path separator")
	}
	if _, err := ListDir("  "); err == nil {
		t.Fatalf("expected error for empty name")
	}

	for _, name := range []string{"weekly", "bbq"} {
		d, err := ListDir(name)
		if err != nil {
			t.Fatalf("list dir: %v", err)
		}
		if err := (Store{Dir: d}).Ensure(); err != nil {
			t.Fatalf("ensure: %v", err)
		}
	}
	names, err := ListNames()
	if err != nil {
		t.Fatalf("names: %v", err)
	}
	if len(names) != 2 || names[0] != "bbq" || names[1] != "weekly" {
		t.Fatalf("unexpected names: %v", names)
	}
}

func TestWriteFile_CreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "grocery-list.json")
	if err := WriteFile(path, []byte("[]\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil || string(b) != "[]\n" {
		t.Fatalf("read back %q err=%v", string(b), err)
	}
}
