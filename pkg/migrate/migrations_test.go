package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/angelmondragon/gigmarket-backend/pkg/migrate"
)

func TestMigrationsDirIsValid(t *testing.T) {
	require.NoError(t, migrate.ValidateDir("migrations"))
}

func TestLedgerMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_wallets_and_ledger.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS wallets",
		"user_id uuid NOT NULL UNIQUE",
		"CHECK (balance_cents >= 0)",
		"CHECK (amount_cents > 0)",
		"reference text UNIQUE",
		"DROP TABLE IF EXISTS ledger_entries",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOrdersMigrationGuardsRatingInvariant(t *testing.T) {
	content := readMigration(t, "*_create_listings_and_orders.sql")

	checks := []string{
		"CHECK (NOT rated OR (rating IS NOT NULL AND status = 'completed'))",
		"CHECK ((completed_at IS NOT NULL) = (status = 'completed'))",
		"CHECK (rating BETWEEN 1 AND 5)",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Payout Batches")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(path, "_add_payout_batches.sql"))
	require.NoError(t, migrate.ValidateDir(dir))

	_, err = migrate.CreateSQLMigration(dir, "!!!")
	require.Error(t, err)
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "create_things.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	require.Error(t, migrate.ValidateDir(dir))
}

func TestValidateDirRequiresDownToDropCreatedTables(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "20260401000000_create_payout_batches.sql", `-- +goose Up
CREATE TABLE IF NOT EXISTS payout_batches (id uuid PRIMARY KEY);
-- +goose Down
SELECT 1;
`)
	err := migrate.ValidateDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "payout_batches")
}

func TestValidateDirRejectsErasingLedgerHistory(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "20260401000000_reset_ledger.sql", `-- +goose Up
DELETE FROM ledger_entries WHERE status = 'failed';
-- +goose Down
SELECT 1;
`)
	err := migrate.ValidateDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "erases ledger_entries")
}

func TestValidateDirReportsEveryProblem(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "create_things.sql", "-- +goose Up\n-- +goose Down\n")
	writeMigration(t, dir, "20260401000000_truncate_ledger.sql", "-- +goose Up\nTRUNCATE ledger_entries;\n-- +goose Down\n")
	writeMigration(t, dir, "20260401000001_no_down.sql", "-- +goose Up\nSELECT 1;\n")

	err := migrate.ValidateDir(dir)
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 3)
}

func writeMigration(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	return string(data)
}
