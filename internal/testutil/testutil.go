package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dishom/opsboard/internal/domain/metric"
	"github.com/dishom/opsboard/internal/pkg/logger"
	"github.com/dishom/opsboard/internal/repository/postgres"
	"github.com/dishom/opsboard/migrations"
)

// NewTestDB creates an in-memory SQLite database with the engine schema
// applied through the real migration path.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	if err := postgres.RunMigrations(db, migrations.FS()); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// domainTableDDL holds the optional domain tables some deployments
// carry next to the engine schema.
var domainTableDDL = map[string]string{
	"users": `CREATE TABLE users (
		id INTEGER PRIMARY KEY,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		last_login TEXT,
		date_joined TEXT NOT NULL
	)`,
	"payments": `CREATE TABLE payments (
		id INTEGER PRIMARY KEY,
		status TEXT NOT NULL,
		amount REAL NOT NULL,
		timestamp TEXT NOT NULL
	)`,
	"enrollments": `CREATE TABLE enrollments (
		id INTEGER PRIMARY KEY,
		status TEXT NOT NULL,
		flagged BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	"live_viewers": `CREATE TABLE live_viewers (
		id INTEGER PRIMARY KEY,
		viewer_count INTEGER NOT NULL,
		timestamp TEXT NOT NULL
	)`,
	"sessions": `CREATE TABLE sessions (
		id INTEGER PRIMARY KEY,
		user_id INTEGER NOT NULL,
		created_at TEXT NOT NULL
	)`,
}

// CreateDomainTables adds the named optional domain tables to a test
// database.
func CreateDomainTables(t *testing.T, db *sql.DB, tables ...string) {
	t.Helper()
	for _, table := range tables {
		ddl, ok := domainTableDDL[table]
		if !ok {
			t.Fatalf("no DDL for domain table %q", table)
		}
		if _, err := db.Exec(ddl); err != nil {
			t.Fatalf("Failed to create table %s: %v", table, err)
		}
	}
}

// NewTestLogger returns a logger that stays quiet during tests.
func NewTestLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "console"})
}

// FakeSource is a scriptable metric source for tests.
type FakeSource struct {
	MetricName string
	Value      float64
	Err        error
	Delay      time.Duration
	Calls      int
}

func (f *FakeSource) Name() string { return f.MetricName }

func (f *FakeSource) Query(ctx context.Context, start, end time.Time) (float64, error) {
	f.Calls++
	if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	if f.Err != nil {
		return 0, f.Err
	}
	return f.Value, nil
}

var _ metric.Source = (*FakeSource)(nil)
