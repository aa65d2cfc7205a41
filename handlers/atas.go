// ABOUTME: Ata MCP tool handlers
// ABOUTME: Implements register_ata, update_ata, delete_ata, and item tools
package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rmbastos/atadesk/db"
	"github.com/rmbastos/atadesk/models"
)

type AtaHandlers struct {
	db *sql.DB
}

func NewAtaHandlers(database *sql.DB) *AtaHandlers {
	return &AtaHandlers{db: database}
}

type AtaItemInput struct {
	Description    string `json:"description" jsonschema:"Item description (required)"`
	Quantity       int64  `json:"quantity" jsonschema:"Quantity, must be positive"`
	UnitPriceCents int64  `json:"unit_price_cents" jsonschema:"Unit price in centavos"`
}

type CreateAtaInput struct {
	Number       string         `json:"number" jsonschema:"Ata number, e.g. 015/2024 (required, unique)"`
	RefCode      string         `json:"ref_code,omitempty" jsonschema:"Administrative process reference, e.g. SEI number"`
	Description  string         `json:"description" jsonschema:"Contract object description (required)"`
	SupplierName string         `json:"supplier_name" jsonschema:"Supplier name (required, created if not found)"`
	SupplierCNPJ string         `json:"supplier_cnpj,omitempty" jsonschema:"Supplier CNPJ, used to match an existing supplier"`
	StartDate    string         `json:"start_date" jsonschema:"Validity start in YYYY-MM-DD (required)"`
	EndDate      string         `json:"end_date" jsonschema:"Validity end in YYYY-MM-DD (required)"`
	Items        []AtaItemInput `json:"items,omitempty" jsonschema:"Initial item list"`
}

type AtaItemOutput struct {
	ID             string `json:"id"`
	Description    string `json:"description"`
	Quantity       int64  `json:"quantity"`
	UnitPrice      string `json:"unit_price"`
	Subtotal       string `json:"subtotal"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	SubtotalCents  int64  `json:"subtotal_cents"`
}

type AtaOutput struct {
	ID           string `json:"id"`
	Number       string `json:"number"`
	RefCode      string `json:"ref_code,omitempty"`
	Description  string `json:"description"`
	SupplierID   string `json:"supplier_id"`
	SupplierName string `json:"supplier_name,omitempty"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	Status       string `json:"status"`
	Total        string `json:"total"`
	TotalCents   int64  `json:"total_cents"`
}

func (h *AtaHandlers) ataToOutput(a *models.Ata, supplierName string) AtaOutput {
	status := models.ResolveStatus(a.EndDate, time.Now(), db.AlertDays(h.db))
	return AtaOutput{
		ID:           a.ID.String(),
		Number:       a.Number,
		RefCode:      a.RefCode,
		Description:  a.Description,
		SupplierID:   a.SupplierID.String(),
		SupplierName: supplierName,
		StartDate:    a.StartDate.Format("2006-01-02"),
		EndDate:      a.EndDate.Format("2006-01-02"),
		Status:       string(status),
		Total:        models.FormatCentavos(a.TotalCents),
		TotalCents:   a.TotalCents,
	}
}

func itemToOutput(i *models.AtaItem) AtaItemOutput {
	return AtaItemOutput{
		ID:             i.ID.String(),
		Description:    i.Description,
		Quantity:       i.Quantity,
		UnitPrice:      models.FormatCentavos(i.UnitPriceCents),
		Subtotal:       models.FormatCentavos(i.SubtotalCents()),
		UnitPriceCents: i.UnitPriceCents,
		SubtotalCents:  i.SubtotalCents(),
	}
}

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s (use YYYY-MM-DD): %w", field, err)
	}
	return t, nil
}

func (h *AtaHandlers) CreateAta(_ context.Context, request *mcp.CallToolRequest, input CreateAtaInput) (*mcp.CallToolResult, AtaOutput, error) {
	if input.Number == "" {
		return nil, AtaOutput{}, fmt.Errorf("number is required")
	}
	if input.Description == "" {
		return nil, AtaOutput{}, fmt.Errorf("description is required")
	}
	if input.SupplierName == "" {
		return nil, AtaOutput{}, fmt.Errorf("supplier_name is required")
	}

	startDate, err := parseDate("start_date", input.StartDate)
	if err != nil {
		return nil, AtaOutput{}, err
	}
	endDate, err := parseDate("end_date", input.EndDate)
	if err != nil {
		return nil, AtaOutput{}, err
	}

	supplier, err := h.findOrCreateSupplier(input.SupplierName, input.SupplierCNPJ)
	if err != nil {
		return nil, AtaOutput{}, err
	}

	items := make([]models.AtaItem, len(input.Items))
	for i, in := range input.Items {
		items[i] = models.AtaItem{
			Description:    in.Description,
			Quantity:       in.Quantity,
			UnitPriceCents: in.UnitPriceCents,
		}
	}

	ata := &models.Ata{
		Number:      input.Number,
		RefCode:     input.RefCode,
		Description: input.Description,
		SupplierID:  supplier.ID,
		StartDate:   startDate,
		EndDate:     endDate,
	}
	if err := db.CreateAta(h.db, ata, items, nil); err != nil {
		return nil, AtaOutput{}, fmt.Errorf("failed to create ata: %w", err)
	}

	return nil, h.ataToOutput(ata, supplier.Name), nil
}

func (h *AtaHandlers) findOrCreateSupplier(name, cnpj string) (*models.Supplier, error) {
	if cnpj != "" {
		supplier, err := db.FindSupplierByCNPJ(h.db, cnpj)
		if err != nil {
			return nil, fmt.Errorf("failed to lookup supplier: %w", err)
		}
		if supplier != nil {
			return supplier, nil
		}
	}

	supplier, err := db.FindSupplierByName(h.db, name)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup supplier: %w", err)
	}
	if supplier != nil {
		return supplier, nil
	}

	supplier = &models.Supplier{Name: name, CNPJ: cnpj}
	if err := db.CreateSupplier(h.db, supplier); err != nil {
		return nil, fmt.Errorf("failed to create supplier: %w", err)
	}
	return supplier, nil
}

type UpdateAtaInput struct {
	ID          string `json:"id" jsonschema:"Ata ID (required)"`
	Number      string `json:"number,omitempty" jsonschema:"Updated ata number"`
	RefCode     string `json:"ref_code,omitempty" jsonschema:"Updated reference code"`
	Description string `json:"description,omitempty" jsonschema:"Updated description"`
	StartDate   string `json:"start_date,omitempty" jsonschema:"Updated validity start in YYYY-MM-DD"`
	EndDate     string `json:"end_date,omitempty" jsonschema:"Updated validity end in YYYY-MM-DD"`
}

func (h *AtaHandlers) UpdateAta(_ context.Context, request *mcp.CallToolRequest, input UpdateAtaInput) (*mcp.CallToolResult, AtaOutput, error) {
	if input.ID == "" {
		return nil, AtaOutput{}, fmt.Errorf("id is required")
	}

	ataID, err := uuid.Parse(input.ID)
	if err != nil {
		return nil, AtaOutput{}, fmt.Errorf("invalid id: %w", err)
	}

	ata, err := db.GetAta(h.db, ataID)
	if err != nil {
		return nil, AtaOutput{}, fmt.Errorf("failed to get ata: %w", err)
	}

	if input.Number != "" {
		ata.Number = input.Number
	}
	if input.RefCode != "" {
		ata.RefCode = input.RefCode
	}
	if input.Description != "" {
		ata.Description = input.Description
	}
	if input.StartDate != "" {
		if ata.StartDate, err = parseDate("start_date", input.StartDate); err != nil {
			return nil, AtaOutput{}, err
		}
	}
	if input.EndDate != "" {
		if ata.EndDate, err = parseDate("end_date", input.EndDate); err != nil {
			return nil, AtaOutput{}, err
		}
	}

	if err := db.UpdateAta(h.db, ata); err != nil {
		return nil, AtaOutput{}, fmt.Errorf("failed to update ata: %w", err)
	}

	return nil, h.ataToOutput(ata, ""), nil
}

type DeleteAtaInput struct {
	ID string `json:"id" jsonschema:"Ata ID (required)"`
}

func (h *AtaHandlers) DeleteAta(_ context.Context, request *mcp.CallToolRequest, input DeleteAtaInput) (*mcp.CallToolResult, DeleteOutput, error) {
	if input.ID == "" {
		return nil, DeleteOutput{}, fmt.Errorf("id is required")
	}

	ataID, err := uuid.Parse(input.ID)
	if err != nil {
		return nil, DeleteOutput{}, fmt.Errorf("invalid id: %w", err)
	}

	if err := db.DeleteAta(h.db, ataID); err != nil {
		return nil, DeleteOutput{}, fmt.Errorf("failed to delete ata: %w", err)
	}

	return nil, DeleteOutput{Deleted: true}, nil
}

type AddAtaItemInput struct {
	AtaID          string `json:"ata_id" jsonschema:"Ata ID (required)"`
	Description    string `json:"description" jsonschema:"Item description (required)"`
	Quantity       int64  `json:"quantity" jsonschema:"Quantity, must be positive"`
	UnitPriceCents int64  `json:"unit_price_cents" jsonschema:"Unit price in centavos"`
}

func (h *AtaHandlers) AddAtaItem(_ context.Context, request *mcp.CallToolRequest, input AddAtaItemInput) (*mcp.CallToolResult, AtaItemOutput, error) {
	if input.AtaID == "" {
		return nil, AtaItemOutput{}, fmt.Errorf("ata_id is required")
	}

	ataID, err := uuid.Parse(input.AtaID)
	if err != nil {
		return nil, AtaItemOutput{}, fmt.Errorf("invalid ata_id: %w", err)
	}

	item := &models.AtaItem{
		AtaID:          ataID,
		Description:    input.Description,
		Quantity:       input.Quantity,
		UnitPriceCents: input.UnitPriceCents,
	}
	if err := db.AddAtaItem(h.db, item); err != nil {
		return nil, AtaItemOutput{}, fmt.Errorf("failed to add item: %w", err)
	}

	return nil, itemToOutput(item), nil
}

type UpdateAtaItemInput struct {
	ID             string `json:"id" jsonschema:"Item ID (required)"`
	Description    string `json:"description,omitempty" jsonschema:"Updated description"`
	Quantity       *int64 `json:"quantity,omitempty" jsonschema:"Updated quantity"`
	UnitPriceCents *int64 `json:"unit_price_cents,omitempty" jsonschema:"Updated unit price in centavos"`
}

func (h *AtaHandlers) UpdateAtaItem(_ context.Context, request *mcp.CallToolRequest, input UpdateAtaItemInput) (*mcp.CallToolResult, AtaItemOutput, error) {
	if input.ID == "" {
		return nil, AtaItemOutput{}, fmt.Errorf("id is required")
	}

	itemID, err := uuid.Parse(input.ID)
	if err != nil {
		return nil, AtaItemOutput{}, fmt.Errorf("invalid id: %w", err)
	}

	item, err := db.GetAtaItem(h.db, itemID)
	if err != nil {
		return nil, AtaItemOutput{}, fmt.Errorf("failed to get item: %w", err)
	}

	if input.Description != "" {
		item.Description = input.Description
	}
	if input.Quantity != nil {
		item.Quantity = *input.Quantity
	}
	if input.UnitPriceCents != nil {
		item.UnitPriceCents = *input.UnitPriceCents
	}

	if err := db.UpdateAtaItem(h.db, item); err != nil {
		return nil, AtaItemOutput{}, fmt.Errorf("failed to update item: %w", err)
	}

	return nil, itemToOutput(item), nil
}

type DeleteAtaItemInput struct {
	ID string `json:"id" jsonschema:"Item ID (required)"`
}

func (h *AtaHandlers) DeleteAtaItem(_ context.Context, request *mcp.CallToolRequest, input DeleteAtaItemInput) (*mcp.CallToolResult, DeleteOutput, error) {
	if input.ID == "" {
		return nil, DeleteOutput{}, fmt.Errorf("id is required")
	}

	itemID, err := uuid.Parse(input.ID)
	if err != nil {
		return nil, DeleteOutput{}, fmt.Errorf("invalid id: %w", err)
	}

	if err := db.DeleteAtaItem(h.db, itemID); err != nil {
		return nil, DeleteOutput{}, fmt.Errorf("failed to delete item: %w", err)
	}

	return nil, DeleteOutput{Deleted: true}, nil
}

type AddAttachmentInput struct {
	AtaID string `json:"ata_id" jsonschema:"Ata ID (required)"`
	Kind  string `json:"kind,omitempty" jsonschema:"Attachment kind, e.g. edital, contrato"`
	Name  string `json:"name" jsonschema:"Display name (required)"`
	Path  string `json:"path" jsonschema:"Filesystem path or URL (required)"`
	Hash  string `json:"hash,omitempty" jsonschema:"Content hash for integrity checks"`
}

type AttachmentOutput struct {
	ID   string `json:"id"`
	Kind string `json:"kind,omitempty"`
	Name string `json:"name"`
	Path string `json:"path"`
}

func (h *AtaHandlers) AddAttachment(_ context.Context, request *mcp.CallToolRequest, input AddAttachmentInput) (*mcp.CallToolResult, AttachmentOutput, error) {
	if input.AtaID == "" {
		return nil, AttachmentOutput{}, fmt.Errorf("ata_id is required")
	}

	ataID, err := uuid.Parse(input.AtaID)
	if err != nil {
		return nil, AttachmentOutput{}, fmt.Errorf("invalid ata_id: %w", err)
	}

	attachment := &models.Attachment{
		AtaID: ataID,
		Kind:  input.Kind,
		Name:  input.Name,
		Path:  input.Path,
		Hash:  input.Hash,
	}
	if err := db.AddAttachment(h.db, attachment); err != nil {
		return nil, AttachmentOutput{}, fmt.Errorf("failed to add attachment: %w", err)
	}

	return nil, AttachmentOutput{
		ID:   attachment.ID.String(),
		Kind: attachment.Kind,
		Name: attachment.Name,
		Path: attachment.Path,
	}, nil
}
