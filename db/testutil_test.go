package db

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/rmbastos/atadesk/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := OpenDatabase(dbPath)
	if err != nil {
		t.Fatalf("OpenDatabase failed: %v", err)
	}
	return db
}

func createTestSupplier(t *testing.T, db *sql.DB, name string) *models.Supplier {
	t.Helper()

	supplier := &models.Supplier{Name: name}
	if err := CreateSupplier(db, supplier); err != nil {
		t.Fatalf("CreateSupplier failed: %v", err)
	}
	return supplier
}

func createTestAta(t *testing.T, db *sql.DB, number string, supplier *models.Supplier) *models.Ata {
	t.Helper()

	ata := &models.Ata{
		Number:      number,
		Description: "Test procurement",
		SupplierID:  supplier.ID,
		StartDate:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := CreateAta(db, ata, nil, nil); err != nil {
		t.Fatalf("CreateAta failed: %v", err)
	}
	return ata
}
