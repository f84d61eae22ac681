package db

import (
	"database/sql"
	"testing"
)

// NewTestDB returns an in-memory database with the schema applied. It is
// closed when the test ends.
func NewTestDB(t testing.TB) *sql.DB {
	t.Helper()

	database, err := Open(MemoryPath)
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := EnsureSchema(database); err != nil {
		t.Fatalf("applying schema to test database: %v", err)
	}
	return database
}
