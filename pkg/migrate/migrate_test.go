package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestMigrationsDirIsValid(t *testing.T) {
	if err := ValidateDir("migrations"); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestMigrationsCreateCoreTables(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	var all strings.Builder
	for _, f := range files {
		b, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		all.Write(b)
	}
	content := all.String()

	for _, sub := range []string{
		"CREATE TABLE IF NOT EXISTS users",
		"CREATE TABLE IF NOT EXISTS supermarkets",
		"CREATE TABLE IF NOT EXISTS categories",
		"parent_category_id uuid REFERENCES categories (id)",
		"version integer NOT NULL DEFAULT 1",
		"CREATE TABLE IF NOT EXISTS items",
		"category_id uuid REFERENCES categories (id) ON DELETE SET NULL",
		"CREATE TABLE IF NOT EXISTS item_quantity_offers",
		"payment_methods text[]",
	} {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2026, 4, 1, 8, 30, 0, 0, time.UTC)

	path, err := createSQLMigration(dir, " Add Item Tags! ", at)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if filepath.Base(path) != "20260401083000_add_item_tags.sql" {
		t.Fatalf("unexpected filename %s", filepath.Base(path))
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("generated migration should validate: %v", err)
	}
	if _, err := createSQLMigration(dir, "add item tags", at); err == nil {
		t.Fatal("expected error for existing migration")
	}
	if _, err := createSQLMigration(dir, "!!!", at); err == nil {
		t.Fatal("expected error for empty sanitized name")
	}
}

func TestValidateDirRejectsBadFiles(t *testing.T) {
	cases := map[string]string{
		"badname.sql":                 "-- +goose Up\n-- +goose Down\n",
		"20260101000000_no_down.sql":  "-- +goose Up\nSELECT 1;\n",
		"20260101000000_reversed.sql": "-- +goose Down\n-- +goose Up\n",
	}
	for name, body := range cases {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if err := ValidateDir(dir); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}

	dir := t.TempDir()
	for _, name := range []string{"20260101000000_a.sql", "20260101000000_b.sql"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := ValidateDir(dir); err == nil {
		t.Fatal("expected duplicate version error")
	}
}

func TestParseVersion(t *testing.T) {
	if v, err := parseVersion("20260301090000"); err != nil || v != 20260301090000 {
		t.Fatalf("got %d, %v", v, err)
	}
	for _, bad := range []string{"2026", "2026030109000x"} {
		if _, err := parseVersion(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
