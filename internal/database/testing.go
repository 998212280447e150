package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TestDatabaseURLEnv names the DSN used by integration tests
const TestDatabaseURLEnv = "RACE_EDGE_TEST_DATABASE_URL"

// SetupTestDB connects to the integration database, skipping the test when
// none is configured.
func SetupTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := os.Getenv(TestDatabaseURLEnv)
	if dsn == "" {
		t.Skipf("integration test - set %s to run", TestDatabaseURLEnv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("failed to create test database connection: %v", err)
	}
	db := &DB{pool: pool}

	if err := db.Ping(ctx); err != nil {
		pool.Close()
		t.Fatalf("failed to ping test database: %v", err)
	}
	if err := db.EnsureSchema(ctx); err != nil {
		pool.Close()
		t.Fatalf("failed to apply schema: %v", err)
	}

	return db
}

// TeardownTestDB removes test rows and closes the connection
func TeardownTestDB(t *testing.T, db *DB) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.pool.Exec(ctx, "TRUNCATE decisions"); err != nil {
		t.Logf("warning: failed to truncate decisions: %v", err)
	}
	db.Close()
}
