// ABOUTME: Tests for supplier and supplier contact operations
// ABOUTME: Covers contact cascade and the referenced-supplier delete guard
package db

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rmbastos/atadesk/models"
)

func TestCreateSupplier(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	supplier := &models.Supplier{
		Name: "JIIJ Comércio",
		CNPJ: "12345678000190",
	}

	if err := CreateSupplier(db, supplier); err != nil {
		t.Fatalf("CreateSupplier failed: %v", err)
	}

	if supplier.ID == uuid.Nil {
		t.Error("Supplier ID was not set")
	}

	found, err := GetSupplier(db, supplier.ID)
	if err != nil {
		t.Fatalf("GetSupplier failed: %v", err)
	}
	if found.Name != "JIIJ Comércio" || found.CNPJ != "12345678000190" {
		t.Errorf("Supplier fields mismatch: %+v", found)
	}
}

func TestCreateSupplierRequiresName(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	err := CreateSupplier(db, &models.Supplier{Name: "  "})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation, got %v", err)
	}
}

func TestGetSupplierNotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	_, err := GetSupplier(db, uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestFindSupplierByCNPJ(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	supplier := &models.Supplier{Name: "Alfa Ltda", CNPJ: "11222333000144"}
	if err := CreateSupplier(db, supplier); err != nil {
		t.Fatalf("CreateSupplier failed: %v", err)
	}

	found, err := FindSupplierByCNPJ(db, "11222333000144")
	if err != nil {
		t.Fatalf("FindSupplierByCNPJ failed: %v", err)
	}
	if found == nil || found.ID != supplier.ID {
		t.Errorf("Expected to find supplier %s, got %+v", supplier.ID, found)
	}

	missing, err := FindSupplierByCNPJ(db, "00000000000000")
	if err != nil {
		t.Fatalf("FindSupplierByCNPJ failed: %v", err)
	}
	if missing != nil {
		t.Error("Expected nil for unknown CNPJ")
	}
}

func TestDeleteSupplierCascadesContacts(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	supplier := createTestSupplier(t, db, "Beta Ltda")

	contact := &models.SupplierContact{
		SupplierID: supplier.ID,
		Type:       models.ContactEmail,
		Value:      "contato@beta.com",
	}
	if err := AddSupplierContact(db, contact); err != nil {
		t.Fatalf("AddSupplierContact failed: %v", err)
	}

	if err := DeleteSupplier(db, supplier.ID); err != nil {
		t.Fatalf("DeleteSupplier failed: %v", err)
	}

	contacts, err := ListSupplierContacts(db, supplier.ID)
	if err != nil {
		t.Fatalf("ListSupplierContacts failed: %v", err)
	}
	if len(contacts) != 0 {
		t.Errorf("Expected contacts to cascade, found %d", len(contacts))
	}
}

func TestDeleteSupplierWithAtasFails(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	supplier := createTestSupplier(t, db, "Gamma Ltda")
	ata := createTestAta(t, db, "100/2024", supplier)

	err := DeleteSupplier(db, supplier.ID)
	if !errors.Is(err, ErrReferentialIntegrity) {
		t.Fatalf("Expected ErrReferentialIntegrity, got %v", err)
	}

	// Both rows must be untouched by the rejected delete
	if _, err := GetSupplier(db, supplier.ID); err != nil {
		t.Errorf("Supplier should still exist: %v", err)
	}
	if _, err := GetAta(db, ata.ID); err != nil {
		t.Errorf("Ata should still exist: %v", err)
	}
}

func TestUpdateSupplierRefreshesSearchDocs(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	supplier := createTestSupplier(t, db, "Old Name Ltda")
	ata := createTestAta(t, db, "200/2024", supplier)

	supplier.Name = "New Name Ltda"
	if err := UpdateSupplier(db, supplier); err != nil {
		t.Fatalf("UpdateSupplier failed: %v", err)
	}

	doc, err := GetSearchDoc(db, ata.ID)
	if err != nil {
		t.Fatalf("GetSearchDoc failed: %v", err)
	}
	if doc.SupplierName != "New Name Ltda" {
		t.Errorf("Expected search doc supplier name to refresh, got %q", doc.SupplierName)
	}
}

func TestFindSuppliers(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	createTestSupplier(t, db, "Papelaria Central")
	createTestSupplier(t, db, "TI Solutions")

	found, err := FindSuppliers(db, "papelaria", 10)
	if err != nil {
		t.Fatalf("FindSuppliers failed: %v", err)
	}
	if len(found) != 1 || found[0].Name != "Papelaria Central" {
		t.Errorf("Expected one match for 'papelaria', got %+v", found)
	}

	all, err := FindSuppliers(db, "", 10)
	if err != nil {
		t.Fatalf("FindSuppliers failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected 2 suppliers, got %d", len(all))
	}
}
