package pncp

import (
	"testing"

	"github.com/google/uuid"
	"github.com/rmbastos/atadesk/models"
)

func TestMatchSupplierByCNPJ(t *testing.T) {
	existing := []models.Supplier{
		{ID: uuid.New(), Name: "Alfa Ltda", CNPJ: "12345678000190"},
		{ID: uuid.New(), Name: "Beta SA", CNPJ: "99887766000155"},
	}

	matcher := NewSupplierMatcher(existing)

	match, found := matcher.FindMatch("12345678000190", "")
	if !found {
		t.Fatal("expected to find match by CNPJ")
	}
	if match.Name != "Alfa Ltda" {
		t.Errorf("expected Alfa Ltda, got %s", match.Name)
	}

	// Formatted CNPJ matches the stored digits
	match, found = matcher.FindMatch("12.345.678/0001-90", "")
	if !found || match.Name != "Alfa Ltda" {
		t.Error("expected formatted CNPJ to match")
	}

	_, found = matcher.FindMatch("00000000000000", "")
	if found {
		t.Error("expected no match for unknown CNPJ")
	}
}

func TestMatchSupplierByName(t *testing.T) {
	existing := []models.Supplier{
		{ID: uuid.New(), Name: "Papelaria  Central Ltda"},
	}

	matcher := NewSupplierMatcher(existing)

	// Case and inner whitespace are normalized
	_, found := matcher.FindMatch("", "papelaria central LTDA")
	if !found {
		t.Error("expected name match despite case and spacing")
	}

	_, found = matcher.FindMatch("", "Outra Empresa")
	if found {
		t.Error("expected no match for unknown name")
	}
}

func TestAddSupplierPreventsDuplicates(t *testing.T) {
	matcher := NewSupplierMatcher(nil)

	created := &models.Supplier{ID: uuid.New(), Name: "Nova Ltda", CNPJ: "11222333000144"}
	matcher.AddSupplier(created)

	match, found := matcher.FindMatch("11222333000144", "")
	if !found || match.ID != created.ID {
		t.Error("expected freshly added supplier to match")
	}
}

func TestNormalizeCNPJ(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"12.345.678/0001-90", "12345678000190"},
		{"12345678000190", "12345678000190"},
		{"", ""},
		{"abc", ""},
	}

	for _, tt := range tests {
		if got := NormalizeCNPJ(tt.input); got != tt.expected {
			t.Errorf("NormalizeCNPJ(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
