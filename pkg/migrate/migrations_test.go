package migrate

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/multierr"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := fs.Glob(Migrations, "migrations/*_"+suffix+".sql")
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected one %s migration, found %d", suffix, len(matches))
	}
	data, err := fs.ReadFile(Migrations, matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestEmbeddedMigrationsValidate(t *testing.T) {
	if err := ValidateDir(""); err != nil {
		t.Fatalf("embedded migrations invalid: %v", err)
	}
}

func TestQuotationMigrationEnforcesOneResponsePerDistributor(t *testing.T) {
	content := readMigration(t, "create_quotations")
	checks := []string{
		"CONSTRAINT ux_quotation_responses_request_distributor UNIQUE (quotation_request_id, distributor_id)",
		"CHECK (unit_price > 0)",
		"CHECK (delivery_days BETWEEN 1 AND 365)",
		"DROP TABLE IF EXISTS quotation_responses",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCatalogMigrationGuardsStock(t *testing.T) {
	content := readMigration(t, "create_catalog")
	checks := []string{
		"CREATE TABLE IF NOT EXISTS distributor_inventories",
		"CHECK (stock >= 0)",
		"CONSTRAINT ux_distributor_inventories_pair UNIQUE (distributor_id, product_id)",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOrdersMigrationLinksQuotationResponseOnce(t *testing.T) {
	content := readMigration(t, "create_orders")
	if !strings.Contains(content, "CONSTRAINT ux_orders_quotation_response UNIQUE (quotation_response_id)") {
		t.Fatalf("orders must reference a quotation response at most once")
	}
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "001_bad.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := ValidateDir(dir); err == nil {
		t.Fatalf("expected invalid filename to fail validation")
	}
}

func TestCreateSQLMigrationThenValidate(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Product Index")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasSuffix(path, "_add_product_index.sql") {
		t.Fatalf("unexpected path %q", path)
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("validate generated migration: %v", err)
	}
}

func TestCreateSQLMigrationBumpsPastNewestVersion(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "29990101000000_future.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	path, err := createSQLMigration(dir, "  Stock -- reservations!! ", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if filepath.Base(path) != "29990101000001_stock_reservations.sql" {
		t.Fatalf("unexpected file %q", filepath.Base(path))
	}
	if _, err := createSQLMigration(dir, "***", time.Now()); err == nil {
		t.Fatalf("expected empty slug to fail")
	}
}

func TestValidateDirReportsEveryProblem(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"20260101000000_swapped.sql":   "-- +goose Down\n-- +goose Up\n",
		"20260101000000_duplicate.sql": "-- +goose Up\n-- +goose Down\n",
		"20260102000000_no_down.sql":   "-- +goose Up\n",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	err := ValidateDir(dir)
	if err == nil {
		t.Fatal("expected validation errors")
	}
	if got := len(multierr.Errors(err)); got != 3 {
		t.Fatalf("expected 3 problems, got %d: %v", got, err)
	}
}

func TestSourceServesEmbeddedMigrationsAtRoot(t *testing.T) {
	fsys, err := source("")
	if err != nil {
		t.Fatalf("source: %v", err)
	}
	matches, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(matches) == 0 {
		t.Fatal("expected embedded migrations at the root of the source")
	}
}

func TestRunRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	if err := Run(ctx, nil, "", "up", io.Discard); err == nil {
		t.Fatal("expected missing db to fail")
	}
	if err := MigrateToVersion(ctx, nil, "", "yesterday", io.Discard); err == nil || !strings.Contains(err.Error(), "invalid version") {
		t.Fatalf("expected invalid version error, got %v", err)
	}
}
