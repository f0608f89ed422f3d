package db

import (
	"os"
	"path/filepath"
	"testing"
)

func writeMigrations(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func TestLoadMigrations_SortedByVersion(t *testing.T) {
	dir := writeMigrations(t, map[string]string{
		"010_postings.sql":  "SELECT 10;",
		"002_consent.sql":   "SELECT 2;",
		"001_core.sql":      "SELECT 1;",
		"005_inventory.sql": "SELECT 5;",
	})

	migrations, err := NewMigrator(nil, dir).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}
	want := []int{1, 2, 5, 10}
	if len(migrations) != len(want) {
		t.Fatalf("expected %d migrations, got %d", len(want), len(migrations))
	}
	for i, v := range want {
		if migrations[i].Version != v {
			t.Errorf("position %d: expected version %d, got %d", i, v, migrations[i].Version)
		}
	}
	if migrations[0].SQL != "SELECT 1;" {
		t.Errorf("unexpected SQL content: %s", migrations[0].SQL)
	}
}

func TestLoadMigrations_SkipsNonMigrations(t *testing.T) {
	dir := writeMigrations(t, map[string]string{
		"001_core.sql": "SELECT 1;",
		"README.md":    "docs",
		"seed.sql":     "SELECT 0;",
		"abc_x.sql":    "SELECT 0;",
	})
	if err := os.Mkdir(filepath.Join(dir, "002_dir.sql"), 0o755); err != nil {
		t.Fatal(err)
	}

	migrations, err := NewMigrator(nil, dir).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}
	if len(migrations) != 1 {
		t.Fatalf("expected 1 migration, got %d", len(migrations))
	}
}

func TestLoadMigrations_DuplicateVersion(t *testing.T) {
	dir := writeMigrations(t, map[string]string{
		"001_core.sql":  "SELECT 1;",
		"001_other.sql": "SELECT 1;",
	})
	if _, err := NewMigrator(nil, dir).LoadMigrations(); err == nil {
		t.Error("expected error for duplicate versions")
	}
}

func TestLoadMigrations_MissingDir(t *testing.T) {
	if _, err := NewMigrator(nil, filepath.Join(t.TempDir(), "nope")).LoadMigrations(); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestRepositoryMigrations_Load(t *testing.T) {
	migrations, err := NewMigrator(nil, filepath.Join("..", "..", "..", "migrations")).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}
	if len(migrations) == 0 {
		t.Fatal("expected repository migrations to be present")
	}
	for i, m := range migrations {
		if m.Version != i+1 {
			t.Errorf("expected contiguous versions, got %d at position %d", m.Version, i)
		}
	}
}
