package migrate

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"
)

func TestEmbeddedMigrationsValidate(t *testing.T) {
	if err := ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations: %v", err)
	}

	files, err := fs.Glob(embedded, "migrations/*.sql")
	if err != nil {
		t.Fatalf("glob embedded: %v", err)
	}
	onDisk, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	if err != nil {
		t.Fatalf("glob disk: %v", err)
	}
	if len(files) != len(onDisk) || len(files) == 0 {
		t.Fatalf("embedded migrations (%d) out of sync with disk (%d)", len(files), len(onDisk))
	}
}

func TestCartItemsMigrationEnforcesOneLinePerProduct(t *testing.T) {
	content := readMigration(t, "*_create_cart_items_table.sql")
	checks := []string{
		"CREATE TABLE IF NOT EXISTS cart_items",
		"quantity integer NOT NULL CHECK (quantity > 0)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_cart_items_user_product ON cart_items (user_id, product_id)",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCatalogMigrationContainsStatuses(t *testing.T) {
	content := readMigration(t, "*_create_catalog_tables.sql")
	for _, sub := range []string{
		"CREATE TABLE IF NOT EXISTS categories",
		"CREATE TABLE IF NOT EXISTS products",
		"CHECK (status IN ('activo', 'inactivo', 'agotado'))",
	} {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	if err := ValidateDir(dir); err == nil {
		t.Fatal("expected error for empty migrations dir")
	}
	if err := os.WriteFile(filepath.Join(dir, "bad-name.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := ValidateDir(dir); err == nil {
		t.Fatal("expected invalid filename error")
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Product Reviews!")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasSuffix(path, "_add_product_reviews.sql") {
		t.Fatalf("unexpected filename %s", path)
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("created migration should validate: %v", err)
	}
}

func TestValidateSections(t *testing.T) {
	good := "-- +goose Up\nSELECT 1;\n-- +goose Down\nSELECT 1;\n"
	cases := map[string]fstest.MapFS{
		"missing down": {
			"20250101000000_a.sql": {Data: []byte("-- +goose Up\nSELECT 1;\n")},
		},
		"down first": {
			"20250101000000_a.sql": {Data: []byte("-- +goose Down\n-- +goose Up\n")},
		},
		"duplicate version": {
			"20250101000000_a.sql": {Data: []byte(good)},
			"20250101000000_b.sql": {Data: []byte(good)},
		},
	}
	for name, fsys := range cases {
		if err := Validate(fsys); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}

	ok := fstest.MapFS{
		"20250101000000_a.sql": {Data: []byte(good)},
		"README.md":            {Data: []byte("ignored")},
	}
	if err := Validate(ok); err != nil {
		t.Fatalf("expected valid set, got %v", err)
	}
}

func TestCreateRefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	path, err := createAt(dir, "add_reviews", at)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if filepath.Base(path) != "20250601080000_add_reviews.sql" {
		t.Fatalf("unexpected filename %s", path)
	}
	if _, err := createAt(dir, "add reviews", at); err == nil {
		t.Fatal("expected collision error")
	}
	if _, err := createAt(dir, "!!!", at); err == nil {
		t.Fatal("expected error for unusable name")
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %s", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
