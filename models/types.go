// ABOUTME: Data models for price-registration contract entities
// ABOUTME: Defines Supplier, Ata, AtaItem, contact point, and attachment structs
package models

import (
	"time"

	"github.com/google/uuid"
)

type Supplier struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CNPJ      string    `json:"cnpj,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SupplierContact struct {
	ID         uuid.UUID `json:"id"`
	SupplierID uuid.UUID `json:"supplier_id"`
	Type       string    `json:"type"`
	Value      string    `json:"value"`
	Label      string    `json:"label,omitempty"`
}

// Ata is a price-registration contract binding a supplier to a set of
// priced line items over a validity window. TotalCents is maintained by
// the store as the sum of item subtotals and is never set by callers.
type Ata struct {
	ID          uuid.UUID `json:"id"`
	Number      string    `json:"number"`
	RefCode     string    `json:"ref_code,omitempty"`
	Description string    `json:"description"`
	SupplierID  uuid.UUID `json:"supplier_id"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	TotalCents  int64     `json:"total_cents"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type AtaItem struct {
	ID             uuid.UUID `json:"id"`
	AtaID          uuid.UUID `json:"ata_id"`
	Description    string    `json:"description"`
	Quantity       int64     `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
}

// SubtotalCents is always derived from quantity and unit price. Keeping
// it off the stored row prevents the value from drifting.
func (i *AtaItem) SubtotalCents() int64 {
	return i.Quantity * i.UnitPriceCents
}

type AtaContact struct {
	ID    uuid.UUID `json:"id"`
	AtaID uuid.UUID `json:"ata_id"`
	Type  string    `json:"type"`
	Value string    `json:"value"`
	Label string    `json:"label,omitempty"`
}

// Attachment records document metadata only. Byte storage lives in an
// external file store; Path points into it.
type Attachment struct {
	ID        uuid.UUID `json:"id"`
	AtaID     uuid.UUID `json:"ata_id"`
	Kind      string    `json:"kind,omitempty"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Hash      string    `json:"hash,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SearchDoc is the denormalized per-ata document kept in sync with the
// normalized rows for substring search.
type SearchDoc struct {
	AtaID        uuid.UUID `json:"ata_id"`
	Number       string    `json:"number"`
	Description  string    `json:"description"`
	SupplierName string    `json:"supplier_name"`
	ItemsText    string    `json:"items_text"`
}

// AtaDetail is the full read view of an ata with its related rows.
type AtaDetail struct {
	Ata
	Supplier    Supplier     `json:"supplier"`
	Items       []AtaItem    `json:"items"`
	Contacts    []AtaContact `json:"contacts"`
	Attachments []Attachment `json:"attachments"`
}

// Contact type constants.
const (
	ContactPhone = "telefone"
	ContactEmail = "email"
)
