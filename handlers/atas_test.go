// ABOUTME: Tests for ata MCP tool handlers
// ABOUTME: Validates tool input/output, supplier auto-creation, and item tools
package handlers

import (
	"context"
	"strings"
	"testing"

	"github.com/rmbastos/atadesk/db"
)

func TestCreateAtaTool(t *testing.T) {
	database := setupTestDB(t)
	defer database.Close()

	handler := NewAtaHandlers(database)

	input := CreateAtaInput{
		Number:       "001/2024",
		Description:  "Registro de preços para material de expediente",
		SupplierName: "Papelaria Central",
		SupplierCNPJ: "12345678000190",
		StartDate:    "2024-01-01",
		EndDate:      "2025-01-01",
		Items: []AtaItemInput{
			{Description: "Papel A4", Quantity: 100, UnitPriceCents: 2390},
		},
	}

	_, output, err := handler.CreateAta(context.Background(), nil, input)
	if err != nil {
		t.Fatalf("CreateAta failed: %v", err)
	}

	if output.ID == "" {
		t.Error("ID was not set")
	}
	if output.Number != "001/2024" {
		t.Errorf("Expected number 001/2024, got %s", output.Number)
	}
	if output.TotalCents != 239000 {
		t.Errorf("Expected total 239000, got %d", output.TotalCents)
	}
	if output.Total != "R$ 2.390,00" {
		t.Errorf("Expected formatted total, got %s", output.Total)
	}
	if output.SupplierName != "Papelaria Central" {
		t.Errorf("Expected supplier name in output, got %s", output.SupplierName)
	}

	// Supplier was auto-created
	supplier, err := db.FindSupplierByCNPJ(database, "12345678000190")
	if err != nil {
		t.Fatalf("FindSupplierByCNPJ failed: %v", err)
	}
	if supplier == nil {
		t.Fatal("Expected supplier created from supplier_name")
	}
}

func TestCreateAtaToolReusesSupplier(t *testing.T) {
	database := setupTestDB(t)
	defer database.Close()

	handler := NewAtaHandlers(database)

	first := CreateAtaInput{
		Number: "001/2024", Description: "Primeira", SupplierName: "Fornecedor X",
		StartDate: "2024-01-01", EndDate: "2025-01-01",
	}
	_, out1, err := handler.CreateAta(context.Background(), nil, first)
	if err != nil {
		t.Fatalf("CreateAta failed: %v", err)
	}

	second := CreateAtaInput{
		Number: "002/2024", Description: "Segunda", SupplierName: "Fornecedor X",
		StartDate: "2024-01-01", EndDate: "2025-01-01",
	}
	_, out2, err := handler.CreateAta(context.Background(), nil, second)
	if err != nil {
		t.Fatalf("CreateAta failed: %v", err)
	}

	if out1.SupplierID != out2.SupplierID {
		t.Error("Expected both atas linked to the same supplier")
	}
}

func TestCreateAtaToolValidation(t *testing.T) {
	database := setupTestDB(t)
	defer database.Close()

	handler := NewAtaHandlers(database)

	cases := []struct {
		name  string
		input CreateAtaInput
		want  string
	}{
		{
			"missing number",
			CreateAtaInput{Description: "x", SupplierName: "y", StartDate: "2024-01-01", EndDate: "2025-01-01"},
			"number is required",
		},
		{
			"missing supplier",
			CreateAtaInput{Number: "1/2024", Description: "x", StartDate: "2024-01-01", EndDate: "2025-01-01"},
			"supplier_name is required",
		},
		{
			"bad date",
			CreateAtaInput{Number: "1/2024", Description: "x", SupplierName: "y", StartDate: "01/01/2024", EndDate: "2025-01-01"},
			"invalid start_date",
		},
		{
			"end before start",
			CreateAtaInput{Number: "1/2024", Description: "x", SupplierName: "y", StartDate: "2025-01-01", EndDate: "2024-01-01"},
			"end date",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := handler.CreateAta(context.Background(), nil, tc.input)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestUpdateAtaTool(t *testing.T) {
	database := setupTestDB(t)
	defer database.Close()

	handler := NewAtaHandlers(database)

	_, created, err := handler.CreateAta(context.Background(), nil, CreateAtaInput{
		Number: "001/2024", Description: "Antes", SupplierName: "Fornecedor",
		StartDate: "2024-01-01", EndDate: "2025-01-01",
	})
	if err != nil {
		t.Fatalf("CreateAta failed: %v", err)
	}

	_, updated, err := handler.UpdateAta(context.Background(), nil, UpdateAtaInput{
		ID:          created.ID,
		Description: "Depois",
		EndDate:     "2026-01-01",
	})
	if err != nil {
		t.Fatalf("UpdateAta failed: %v", err)
	}
	if updated.Description != "Depois" || updated.EndDate != "2026-01-01" {
		t.Errorf("Update not applied: %+v", updated)
	}
	// Untouched fields survive
	if updated.Number != "001/2024" {
		t.Errorf("Expected number preserved, got %s", updated.Number)
	}
}

func TestAtaItemTools(t *testing.T) {
	database := setupTestDB(t)
	defer database.Close()

	handler := NewAtaHandlers(database)

	_, ata, err := handler.CreateAta(context.Background(), nil, CreateAtaInput{
		Number: "001/2024", Description: "Itens", SupplierName: "Fornecedor",
		StartDate: "2024-01-01", EndDate: "2025-01-01",
	})
	if err != nil {
		t.Fatalf("CreateAta failed: %v", err)
	}

	_, item, err := handler.AddAtaItem(context.Background(), nil, AddAtaItemInput{
		AtaID: ata.ID, Description: "Cadeira", Quantity: 3, UnitPriceCents: 15000,
	})
	if err != nil {
		t.Fatalf("AddAtaItem failed: %v", err)
	}
	if item.SubtotalCents != 45000 {
		t.Errorf("Expected subtotal 45000, got %d", item.SubtotalCents)
	}
	if item.Subtotal != "R$ 450,00" {
		t.Errorf("Expected formatted subtotal, got %s", item.Subtotal)
	}

	newQty := int64(5)
	_, updated, err := handler.UpdateAtaItem(context.Background(), nil, UpdateAtaItemInput{
		ID: item.ID, Quantity: &newQty,
	})
	if err != nil {
		t.Fatalf("UpdateAtaItem failed: %v", err)
	}
	if updated.SubtotalCents != 75000 {
		t.Errorf("Expected subtotal 75000, got %d", updated.SubtotalCents)
	}

	_, del, err := handler.DeleteAtaItem(context.Background(), nil, DeleteAtaItemInput{ID: item.ID})
	if err != nil {
		t.Fatalf("DeleteAtaItem failed: %v", err)
	}
	if !del.Deleted {
		t.Error("Expected item deleted")
	}
}

func TestDeleteAtaTool(t *testing.T) {
	database := setupTestDB(t)
	defer database.Close()

	handler := NewAtaHandlers(database)

	_, ata, err := handler.CreateAta(context.Background(), nil, CreateAtaInput{
		Number: "001/2024", Description: "Para apagar", SupplierName: "Fornecedor",
		StartDate: "2024-01-01", EndDate: "2025-01-01",
	})
	if err != nil {
		t.Fatalf("CreateAta failed: %v", err)
	}

	_, out, err := handler.DeleteAta(context.Background(), nil, DeleteAtaInput{ID: ata.ID})
	if err != nil {
		t.Fatalf("DeleteAta failed: %v", err)
	}
	if !out.Deleted {
		t.Error("Expected ata deleted")
	}

	_, _, err = handler.DeleteAta(context.Background(), nil, DeleteAtaInput{ID: ata.ID})
	if err == nil {
		t.Error("Expected error deleting twice")
	}
}
