// ABOUTME: Tests for search document maintenance and substring queries
// ABOUTME: Covers items_text ordering, staleness after deletes, and reindex recovery
package db

import (
	"errors"
	"testing"
	"time"

	"github.com/rmbastos/atadesk/models"
)

func TestSearchDocBuiltOnCreate(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	supplier := createTestSupplier(t, db, "Papelaria Alfa")

	ata := &models.Ata{
		Number:      "001/2024",
		Description: "Paper supply",
		SupplierID:  supplier.ID,
		StartDate:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	items := []models.AtaItem{
		{Description: "A4 paper", Quantity: 100, UnitPriceCents: 2500},
		{Description: "Envelopes", Quantity: 50, UnitPriceCents: 1000},
	}
	if err := CreateAta(db, ata, items, nil); err != nil {
		t.Fatalf("CreateAta failed: %v", err)
	}

	doc, err := GetSearchDoc(db, ata.ID)
	if err != nil {
		t.Fatalf("GetSearchDoc failed: %v", err)
	}
	if doc.Number != "001/2024" {
		t.Errorf("Expected number in doc, got %q", doc.Number)
	}
	if doc.SupplierName != "Papelaria Alfa" {
		t.Errorf("Expected supplier name in doc, got %q", doc.SupplierName)
	}
	if doc.ItemsText != "A4 paper Envelopes" {
		t.Errorf("Expected items joined in insertion order, got %q", doc.ItemsText)
	}
}

func TestSearchDocUpdatedOnItemDelete(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	supplier := createTestSupplier(t, db, "Papelaria Beta")
	ata := createTestAta(t, db, "002/2024", supplier)

	first := &models.AtaItem{AtaID: ata.ID, Description: "A4 paper", Quantity: 10, UnitPriceCents: 2500}
	second := &models.AtaItem{AtaID: ata.ID, Description: "Envelopes", Quantity: 5, UnitPriceCents: 1000}
	if err := AddAtaItem(db, first); err != nil {
		t.Fatalf("AddAtaItem failed: %v", err)
	}
	if err := AddAtaItem(db, second); err != nil {
		t.Fatalf("AddAtaItem failed: %v", err)
	}

	if err := DeleteAtaItem(db, first.ID); err != nil {
		t.Fatalf("DeleteAtaItem failed: %v", err)
	}

	doc, err := GetSearchDoc(db, ata.ID)
	if err != nil {
		t.Fatalf("GetSearchDoc failed: %v", err)
	}
	if doc.ItemsText != "Envelopes" {
		t.Errorf("Expected deleted item gone from items_text, got %q", doc.ItemsText)
	}
}

func TestSearchAtas(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	supplier := createTestSupplier(t, db, "Gráfica Delta")

	ata := &models.Ata{
		Number:      "003/2024",
		Description: "Printing services",
		SupplierID:  supplier.ID,
		StartDate:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	items := []models.AtaItem{{Description: "Banner vinyl", Quantity: 20, UnitPriceCents: 8000}}
	if err := CreateAta(db, ata, items, nil); err != nil {
		t.Fatalf("CreateAta failed: %v", err)
	}
	createTestAta(t, db, "004/2024", supplier)

	cases := []struct {
		term string
		want int
	}{
		{"003/2024", 1},   // number
		{"printing", 1},   // description, case-insensitive
		{"delta", 2},      // supplier name, both atas
		{"vinyl", 1},      // item description
		{"nonexistent", 0},
	}

	for _, tc := range cases {
		found, err := SearchAtas(db, tc.term, 10)
		if err != nil {
			t.Fatalf("SearchAtas(%q) failed: %v", tc.term, err)
		}
		if len(found) != tc.want {
			t.Errorf("SearchAtas(%q): expected %d results, got %d", tc.term, tc.want, len(found))
		}
	}
}

func TestFindAtasWithSearch(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	supplier := createTestSupplier(t, db, "Mix Ltda")

	soon := &models.Ata{
		Number:      "005/2024",
		Description: "Cleaning supplies",
		SupplierID:  supplier.ID,
		StartDate:   time.Now().AddDate(-1, 0, 0),
		EndDate:     time.Now().AddDate(0, 0, 20),
	}
	if err := CreateAta(db, soon, nil, nil); err != nil {
		t.Fatalf("CreateAta failed: %v", err)
	}

	active := &models.Ata{
		Number:      "006/2024",
		Description: "Cleaning equipment",
		SupplierID:  supplier.ID,
		StartDate:   time.Now().AddDate(-1, 0, 0),
		EndDate:     time.Now().AddDate(1, 0, 0),
	}
	if err := CreateAta(db, active, nil, nil); err != nil {
		t.Fatalf("CreateAta failed: %v", err)
	}

	// Search and status combine: only the expiring "cleaning" ata matches
	found, err := FindAtas(db, FindAtasOptions{
		Search: "cleaning",
		Status: models.StatusExpiringSoon,
	})
	if err != nil {
		t.Fatalf("FindAtas failed: %v", err)
	}
	if len(found) != 1 || found[0].Number != "005/2024" {
		t.Errorf("Expected only the expiring cleaning ata, got %+v", found)
	}
}

func TestReindexRecoversFromExternalEdits(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	supplier := createTestSupplier(t, db, "Recovery Ltda")
	ata := createTestAta(t, db, "007/2024", supplier)

	item := &models.AtaItem{AtaID: ata.ID, Description: "Ledger books", Quantity: 4, UnitPriceCents: 2000}
	if err := AddAtaItem(db, item); err != nil {
		t.Fatalf("AddAtaItem failed: %v", err)
	}

	// Corrupt both derived states the way a raw sqlite3 session would
	if _, err := db.Exec(`UPDATE atas SET total_cents = 999999 WHERE id = ?`, ata.ID.String()); err != nil {
		t.Fatalf("Failed to corrupt total: %v", err)
	}
	if _, err := db.Exec(`DELETE FROM ata_search WHERE ata_id = ?`, ata.ID.String()); err != nil {
		t.Fatalf("Failed to drop search doc: %v", err)
	}

	if _, err := GetSearchDoc(db, ata.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected missing doc before reindex, got %v", err)
	}

	if err := Reindex(db); err != nil {
		t.Fatalf("Reindex failed: %v", err)
	}

	found, err := GetAta(db, ata.ID)
	if err != nil {
		t.Fatalf("GetAta failed: %v", err)
	}
	if found.TotalCents != 8000 {
		t.Errorf("Expected total restored to 8000, got %d", found.TotalCents)
	}

	doc, err := GetSearchDoc(db, ata.ID)
	if err != nil {
		t.Fatalf("GetSearchDoc failed after reindex: %v", err)
	}
	if doc.ItemsText != "Ledger books" {
		t.Errorf("Expected rebuilt items_text, got %q", doc.ItemsText)
	}
}
