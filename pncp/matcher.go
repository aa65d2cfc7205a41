// ABOUTME: Supplier deduplication for imports
// ABOUTME: Finds existing suppliers by CNPJ or normalized name to prevent duplicates
package pncp

import (
	"strings"

	"github.com/rmbastos/atadesk/models"
)

type SupplierMatcher struct {
	byCNPJ map[string]*models.Supplier
	byName map[string]*models.Supplier
}

// NewSupplierMatcher creates a matcher from existing suppliers.
func NewSupplierMatcher(suppliers []models.Supplier) *SupplierMatcher {
	m := &SupplierMatcher{
		byCNPJ: make(map[string]*models.Supplier),
		byName: make(map[string]*models.Supplier),
	}

	for i := range suppliers {
		if cnpj := NormalizeCNPJ(suppliers[i].CNPJ); cnpj != "" {
			m.byCNPJ[cnpj] = &suppliers[i]
		}
		if name := normalizeName(suppliers[i].Name); name != "" {
			m.byName[name] = &suppliers[i]
		}
	}

	return m
}

// FindMatch looks for an existing supplier, preferring the CNPJ and falling
// back to the normalized name.
func (m *SupplierMatcher) FindMatch(cnpj, name string) (*models.Supplier, bool) {
	if normalized := NormalizeCNPJ(cnpj); normalized != "" {
		if supplier, found := m.byCNPJ[normalized]; found {
			return supplier, true
		}
	}

	if normalized := normalizeName(name); normalized != "" {
		if supplier, found := m.byName[normalized]; found {
			return supplier, true
		}
	}

	return nil, false
}

// AddSupplier adds a newly created supplier to the matcher to prevent
// duplicates within the same import session.
func (m *SupplierMatcher) AddSupplier(supplier *models.Supplier) {
	if cnpj := NormalizeCNPJ(supplier.CNPJ); cnpj != "" {
		m.byCNPJ[cnpj] = supplier
	}
	if name := normalizeName(supplier.Name); name != "" {
		m.byName[name] = supplier
	}
}

// NormalizeCNPJ strips formatting so "12.345.678/0001-90" and
// "12345678000190" compare equal.
func NormalizeCNPJ(cnpj string) string {
	var b strings.Builder
	for _, r := range cnpj {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
