// ABOUTME: PNCP procurement importer
// ABOUTME: Fetches publications, filters by term, and registers atas with items
package pncp

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rmbastos/atadesk/db"
	"github.com/rmbastos/atadesk/models"
)

// Importer pulls procurement records from PNCP and registers them as atas,
// creating suppliers from the contracting body as needed.
type Importer struct {
	db      *sql.DB
	client  *Client
	matcher *SupplierMatcher
}

// ImportOptions narrows an import run.
type ImportOptions struct {
	From        time.Time
	To          time.Time
	Modalidades []int    // defaults to pregão eletrônico
	ObjectTerm  string   // substring filter on objetoCompra
	ItemTerms   []string // keep only items matching any term; empty keeps all
}

// ImportSummary reports what a run did.
type ImportSummary struct {
	Fetched  int // publication records seen
	Matched  int // records passing the object filter
	Imported int // atas created
	Skipped  int // already imported or duplicate
	Failed   int // records that errored
}

func NewImporter(database *sql.DB, client *Client) (*Importer, error) {
	// Load all existing suppliers for matching once, not per record
	suppliers, err := db.FindSuppliers(database, "", 20000)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing suppliers: %w", err)
	}

	return &Importer{
		db:      database,
		client:  client,
		matcher: NewSupplierMatcher(suppliers),
	}, nil
}

// Run executes an import over the option window, one calendar month at a
// time. Failures on individual records are counted, not fatal.
func (imp *Importer) Run(ctx context.Context, opts ImportOptions) (*ImportSummary, error) {
	modalidades := opts.Modalidades
	if len(modalidades) == 0 {
		modalidades = []int{6}
	}

	windows, err := SplitMonthly(opts.From, opts.To)
	if err != nil {
		return nil, err
	}

	summary := &ImportSummary{}
	objectTerm := strings.ToLower(strings.TrimSpace(opts.ObjectTerm))

	for _, w := range windows {
		for _, modalidade := range modalidades {
			records, err := imp.client.FetchContratacoes(ctx, w, modalidade)
			if err != nil {
				return summary, fmt.Errorf("failed to fetch %s window: %w",
					w.From.Format("2006-01"), err)
			}
			summary.Fetched += len(records)

			for i := range records {
				if objectTerm != "" &&
					!strings.Contains(strings.ToLower(records[i].ObjetoCompra), objectTerm) {
					continue
				}
				summary.Matched++

				if err := imp.importRecord(ctx, &records[i], opts.ItemTerms, summary); err != nil {
					fmt.Printf("  ✗ Failed to import %s: %v\n", records[i].NumeroControlePNCP, err)
					summary.Failed++
				}
			}
			fmt.Printf("  → %s mod=%d: %d fetched, %d matched so far\n",
				w.From.Format("2006-01"), modalidade, len(records), summary.Matched)
		}
	}

	return summary, nil
}

func (imp *Importer) importRecord(ctx context.Context, rec *Contratacao, itemTerms []string, summary *ImportSummary) error {
	if rec.NumeroControlePNCP == "" {
		return errors.New("record has no control number")
	}

	// Already imported in a previous run
	existing, err := db.FindImport(imp.db, db.ImportSourcePNCP, rec.NumeroControlePNCP)
	if err != nil {
		return err
	}
	if existing != nil {
		summary.Skipped++
		return nil
	}

	cn, err := ParseControlNumber(rec.NumeroControlePNCP)
	if err != nil {
		return err
	}

	items, err := imp.client.FetchItems(ctx, cn)
	if err != nil {
		return fmt.Errorf("failed to fetch items: %w", err)
	}

	ataItems := convertItems(items, itemTerms)
	if len(itemTerms) > 0 && len(ataItems) == 0 {
		// Nothing of interest in this procurement
		summary.Skipped++
		return nil
	}

	supplier, err := imp.findOrCreateSupplier(rec.OrgaoEntidade.CNPJ, rec.OrgaoEntidade.RazaoSocial)
	if err != nil {
		return fmt.Errorf("failed to resolve supplier: %w", err)
	}

	start := parsePublicationDate(rec.DataPublicacaoPncp)
	ata := &models.Ata{
		Number:      rec.NumeroControlePNCP,
		Description: rec.ObjetoCompra,
		SupplierID:  supplier.ID,
		StartDate:   start,
		// Registration contracts run for one year unless amended
		EndDate: start.AddDate(1, 0, 0),
	}

	if err := db.CreateAta(imp.db, ata, ataItems, nil); err != nil {
		// A duplicate number means another run already registered it
		if errors.Is(err, db.ErrConstraint) {
			summary.Skipped++
			return nil
		}
		return err
	}

	if err := db.RecordImport(imp.db, &db.ImportRecord{
		Source:     db.ImportSourcePNCP,
		SourceID:   rec.NumeroControlePNCP,
		EntityType: db.ImportEntityAta,
		EntityID:   ata.ID,
	}); err != nil {
		return fmt.Errorf("failed to record import: %w", err)
	}

	summary.Imported++
	return nil
}

func (imp *Importer) findOrCreateSupplier(cnpj, name string) (*models.Supplier, error) {
	if name == "" {
		name = "Órgão " + NormalizeCNPJ(cnpj)
	}

	if supplier, found := imp.matcher.FindMatch(cnpj, name); found {
		return supplier, nil
	}

	// Matcher only covers what was loaded at startup; check the database
	// before creating
	if normalized := NormalizeCNPJ(cnpj); normalized != "" {
		supplier, err := db.FindSupplierByCNPJ(imp.db, normalized)
		if err != nil {
			return nil, err
		}
		if supplier != nil {
			imp.matcher.AddSupplier(supplier)
			return supplier, nil
		}
	}

	supplier := &models.Supplier{
		Name: name,
		CNPJ: NormalizeCNPJ(cnpj),
	}
	if err := db.CreateSupplier(imp.db, supplier); err != nil {
		return nil, err
	}

	imp.matcher.AddSupplier(supplier)
	return supplier, nil
}

// convertItems maps API item lines to ata items, dropping lines that match
// none of the terms when terms are given.
func convertItems(items []Item, terms []string) []models.AtaItem {
	var lowered []string
	for _, t := range terms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			lowered = append(lowered, t)
		}
	}

	var out []models.AtaItem
	for i := range items {
		desc := strings.TrimSpace(items[i].Descricao)
		if desc == "" {
			continue
		}
		if len(lowered) > 0 && !matchesAny(strings.ToLower(desc), lowered) {
			continue
		}

		price, err := models.CentsFromDecimalString(items[i].ValorUnitarioEstimado.String())
		if err != nil || price < 0 {
			price = 0
		}

		out = append(out, models.AtaItem{
			Description:    desc,
			Quantity:       quantityFromNumber(items[i].Quantidade),
			UnitPriceCents: price,
		})
	}
	return out
}

func matchesAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// quantityFromNumber rounds a fractional API quantity to a whole count,
// never below one.
func quantityFromNumber(n json.Number) int64 {
	f, err := n.Float64()
	if err != nil || f < 1 {
		return 1
	}
	q := int64(f + 0.5)
	if q < 1 {
		return 1
	}
	return q
}

// parsePublicationDate handles the API's timestamp format with and without
// a time component. Unparseable dates fall back to today.
func parsePublicationDate(s string) time.Time {
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Now().Truncate(24 * time.Hour)
}
