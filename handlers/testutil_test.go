package handlers

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/rmbastos/atadesk/db"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenDatabase failed: %v", err)
	}
	return database
}
