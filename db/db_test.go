package db

import (
	"path/filepath"
	"testing"
)

func TestOpenDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := OpenDatabase(dbPath)
	if err != nil {
		t.Fatalf("OpenDatabase failed: %v", err)
	}
	defer db.Close()

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table'").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to query tables: %v", err)
	}
	if count < 8 {
		t.Errorf("Expected at least 8 tables, got %d", count)
	}

	// Foreign keys must be on: cascades and the supplier guard depend on it
	var fk int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("Failed to query foreign_keys pragma: %v", err)
	}
	if fk != 1 {
		t.Error("Expected foreign_keys pragma to be enabled")
	}

	var mode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("Failed to query journal mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("Expected WAL mode, got %s", mode)
	}
}

func TestOpenDatabaseSeedsDefaultAlertDays(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	value, err := GetParam(db, ParamAlertDays)
	if err != nil {
		t.Fatalf("GetParam failed: %v", err)
	}
	if value != "60" {
		t.Errorf("Expected default alert_days '60', got %q", value)
	}
}

func TestOpenDatabaseReinitialization(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := OpenDatabase(dbPath)
	if err != nil {
		t.Fatalf("Initial OpenDatabase failed: %v", err)
	}

	// Custom config must survive reopening; the seed is INSERT OR IGNORE
	if err := SetParam(db, ParamAlertDays, "30"); err != nil {
		t.Fatalf("SetParam failed: %v", err)
	}
	db.Close()

	db, err = OpenDatabase(dbPath)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer db.Close()

	value, err := GetParam(db, ParamAlertDays)
	if err != nil {
		t.Fatalf("GetParam failed: %v", err)
	}
	if value != "30" {
		t.Errorf("Expected alert_days '30' to survive reopen, got %q", value)
	}
}
