package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/lib/pq" // registers the "postgres" driver
)

// PostgresDSNEnv names the environment variable holding the DSN of a disposable test database.
const PostgresDSNEnv = "KITTIES_TEST_POSTGRES_DSN"

// PostgresDSN returns the test database DSN or skips the test if none is configured.
func PostgresDSN(t *testing.T) string {
	t.Helper()

	dsn := os.Getenv(PostgresDSNEnv)
	if dsn == "" {
		t.Skipf("%s is not set, skipping PostgreSQL test", PostgresDSNEnv)
	}

	return dsn
}

// CleanupPostgresTables drops the given tables when the test finishes.
func CleanupPostgresTables(t *testing.T, dsn string, tables ...string) {
	t.Helper()

	t.Cleanup(func() {
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			t.Logf("opening cleanup connection failed: %v", err)
			return
		}
		defer func() { _ = db.Close() }()

		for _, table := range tables {
			if _, err := db.ExecContext(context.Background(), "DROP TABLE IF EXISTS "+table); err != nil {
				t.Logf("dropping table %s failed: %v", table, err)
			}
		}
	})
}
