// ABOUTME: Importer tests against a stub PNCP server and a real database
// ABOUTME: Covers filtering, supplier dedup, idempotent re-runs, and conversion
package pncp

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rmbastos/atadesk/db"
	"github.com/rmbastos/atadesk/models"
)

func setupImportDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "import.db"))
	if err != nil {
		t.Fatalf("OpenDatabase failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

// stubServer answers the publication feed and the items endpoint for one
// fixed procurement.
func stubServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/publicacao", func(w http.ResponseWriter, r *http.Request) {
		var rec Contratacao
		rec.NumeroControlePNCP = "12345678000190-1-000042/2024"
		rec.ObjetoCompra = "Registro de preços para material de expediente"
		rec.ModalidadeID = 6
		rec.DataPublicacaoPncp = "2024-03-15T10:30:00"
		rec.OrgaoEntidade.CNPJ = "12345678000190"
		rec.OrgaoEntidade.RazaoSocial = "Prefeitura Municipal de Exemplo"
		json.NewEncoder(w).Encode(pageResponse{TotalPaginas: 1, Data: []Contratacao{rec}})
	})
	mux.HandleFunc("/orgaos/", func(w http.ResponseWriter, r *http.Request) {
		items := []map[string]any{
			{"numeroItem": 1, "descricao": "Papel A4 75g", "quantidade": 500.0, "valorUnitarioEstimado": 23.9},
			{"numeroItem": 2, "descricao": "Caneta azul", "quantidade": 0.5, "valorUnitarioEstimado": 1.2},
		}
		json.NewEncoder(w).Encode(items)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func importClient(server *httptest.Server) *Client {
	cfg := testConfig(server.URL + "/publicacao")
	cfg.ItemsURL = server.URL + "/orgaos/%s/compras/%d/%d/itens"
	return NewClient(cfg, nil)
}

func marchWindow() ImportOptions {
	return ImportOptions{
		From: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
	}
}

func TestImportCreatesAtaAndSupplier(t *testing.T) {
	database := setupImportDB(t)
	server := stubServer(t)

	importer, err := NewImporter(database, importClient(server))
	if err != nil {
		t.Fatalf("NewImporter failed: %v", err)
	}

	summary, err := importer.Run(context.Background(), marchWindow())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Imported != 1 || summary.Failed != 0 {
		t.Fatalf("Expected 1 import, got %+v", summary)
	}

	supplier, err := db.FindSupplierByCNPJ(database, "12345678000190")
	if err != nil {
		t.Fatalf("FindSupplierByCNPJ failed: %v", err)
	}
	if supplier == nil || supplier.Name != "Prefeitura Municipal de Exemplo" {
		t.Fatalf("Expected supplier created from contracting body, got %+v", supplier)
	}

	ata, err := db.GetAtaByNumber(database, "12345678000190-1-000042/2024")
	if err != nil {
		t.Fatalf("GetAtaByNumber failed: %v", err)
	}
	if ata.SupplierID != supplier.ID {
		t.Error("Ata not linked to the created supplier")
	}
	if ata.StartDate.Year() != 2024 || ata.StartDate.Month() != time.March {
		t.Errorf("Expected start date from publication, got %s", ata.StartDate)
	}
	if !ata.EndDate.Equal(ata.StartDate.AddDate(1, 0, 0)) {
		t.Errorf("Expected one-year validity, got %s..%s", ata.StartDate, ata.EndDate)
	}

	items, err := db.ListAtaItems(database, ata.ID)
	if err != nil {
		t.Fatalf("ListAtaItems failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}
	// 23.9 reais -> 2390 centavos; fractional quantity rounds up to 1
	if items[0].UnitPriceCents != 2390 || items[0].Quantity != 500 {
		t.Errorf("First item converted wrong: %+v", items[0])
	}
	if items[1].Quantity != 1 {
		t.Errorf("Fractional quantity should clamp to 1, got %d", items[1].Quantity)
	}

	record, err := db.FindImport(database, db.ImportSourcePNCP, "12345678000190-1-000042/2024")
	if err != nil {
		t.Fatalf("FindImport failed: %v", err)
	}
	if record == nil || record.EntityID != ata.ID {
		t.Errorf("Expected import record for the ata, got %+v", record)
	}
}

func TestImportIsIdempotent(t *testing.T) {
	database := setupImportDB(t)
	server := stubServer(t)

	importer, err := NewImporter(database, importClient(server))
	if err != nil {
		t.Fatalf("NewImporter failed: %v", err)
	}

	if _, err := importer.Run(context.Background(), marchWindow()); err != nil {
		t.Fatalf("First run failed: %v", err)
	}

	summary, err := importer.Run(context.Background(), marchWindow())
	if err != nil {
		t.Fatalf("Second run failed: %v", err)
	}
	if summary.Imported != 0 || summary.Skipped != 1 {
		t.Errorf("Expected second run to skip, got %+v", summary)
	}

	atas, err := db.FindAtas(database, db.FindAtasOptions{})
	if err != nil {
		t.Fatalf("FindAtas failed: %v", err)
	}
	if len(atas) != 1 {
		t.Errorf("Expected exactly one ata after two runs, got %d", len(atas))
	}
}

func TestImportObjectFilter(t *testing.T) {
	database := setupImportDB(t)
	server := stubServer(t)

	importer, err := NewImporter(database, importClient(server))
	if err != nil {
		t.Fatalf("NewImporter failed: %v", err)
	}

	opts := marchWindow()
	opts.ObjectTerm = "obras de engenharia"
	summary, err := importer.Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Fetched != 1 || summary.Matched != 0 || summary.Imported != 0 {
		t.Errorf("Expected object filter to reject the record, got %+v", summary)
	}

	opts.ObjectTerm = "MATERIAL DE EXPEDIENTE"
	summary, err = importer.Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Imported != 1 {
		t.Errorf("Expected case-insensitive object match, got %+v", summary)
	}
}

func TestImportItemTerms(t *testing.T) {
	database := setupImportDB(t)
	server := stubServer(t)

	importer, err := NewImporter(database, importClient(server))
	if err != nil {
		t.Fatalf("NewImporter failed: %v", err)
	}

	opts := marchWindow()
	opts.ItemTerms = []string{"papel"}
	summary, err := importer.Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Imported != 1 {
		t.Fatalf("Expected import with matching item term, got %+v", summary)
	}

	ata, err := db.GetAtaByNumber(database, "12345678000190-1-000042/2024")
	if err != nil {
		t.Fatalf("GetAtaByNumber failed: %v", err)
	}
	items, err := db.ListAtaItems(database, ata.ID)
	if err != nil {
		t.Fatalf("ListAtaItems failed: %v", err)
	}
	if len(items) != 1 || items[0].Description != "Papel A4 75g" {
		t.Errorf("Expected only the matching item kept, got %+v", items)
	}
}

func TestImportReusesExistingSupplier(t *testing.T) {
	database := setupImportDB(t)
	server := stubServer(t)

	existing := &models.Supplier{Name: "Prefeitura Antiga", CNPJ: "12345678000190"}
	if err := db.CreateSupplier(database, existing); err != nil {
		t.Fatalf("CreateSupplier failed: %v", err)
	}

	importer, err := NewImporter(database, importClient(server))
	if err != nil {
		t.Fatalf("NewImporter failed: %v", err)
	}

	if _, err := importer.Run(context.Background(), marchWindow()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	suppliers, err := db.FindSuppliers(database, "", 100)
	if err != nil {
		t.Fatalf("FindSuppliers failed: %v", err)
	}
	if len(suppliers) != 1 {
		t.Fatalf("Expected supplier reuse, got %d suppliers", len(suppliers))
	}

	ata, err := db.GetAtaByNumber(database, "12345678000190-1-000042/2024")
	if err != nil {
		t.Fatalf("GetAtaByNumber failed: %v", err)
	}
	if ata.SupplierID != existing.ID {
		t.Error("Expected ata linked to the pre-existing supplier")
	}
}

func TestQuantityFromNumber(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
	}{
		{"500", 500},
		{"2.6", 3},
		{"0.5", 1},
		{"0", 1},
		{"-3", 1},
		{"not-a-number", 1},
	}

	for _, tt := range tests {
		if got := quantityFromNumber(json.Number(tt.input)); got != tt.expected {
			t.Errorf("quantityFromNumber(%q) = %d, want %d", tt.input, got, tt.expected)
		}
	}
}
