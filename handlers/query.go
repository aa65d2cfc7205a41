// ABOUTME: Read-side MCP tool handlers
// ABOUTME: Implements query_atas, get_ata, and the expiration report
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

type QueryHandlers struct {
	db *sql.DB
}

func NewQueryHandlers(database *sql.DB) *QueryHandlers {
	return &QueryHandlers{db: database}
}

type QueryAtasInput struct {
	Search     string `json:"search,omitempty" jsonschema:"Substring matched against number, description, supplier name, and item text"`
	SupplierID string `json:"supplier_id,omitempty" jsonschema:"Limit to one supplier"`
	Status     string `json:"status,omitempty" jsonschema:"Filter by status: active, expiring_soon, expired"`
	Limit      int    `json:"limit,omitempty" jsonschema:"Maximum results (default 50)"`
}

type QueryAtasOutput struct {
	Results []AtaOutput `json:"results"`
	Count   int         `json:"count"`
}

func (h *QueryHandlers) QueryAtas(_ context.Context, request *mcp.CallToolRequest, input QueryAtasInput) (*mcp.CallToolResult, QueryAtasOutput, error) {
	opts := db.FindAtasOptions{
		Search: input.Search,
		Limit:  input.Limit,
	}

	if input.Status != "" {
		status := models.Status(input.Status)
		if !models.ValidStatus(status) {
			return nil, QueryAtasOutput{}, fmt.Errorf("invalid status: %s (valid: active, expiring_soon, expired)", input.Status)
		}
		opts.Status = status
	}

	if input.SupplierID != "" {
		supplierID, err := uuid.Parse(input.SupplierID)
		if err != nil {
			return nil, QueryAtasOutput{}, fmt.Errorf("invalid supplier_id: %w", err)
		}
		opts.SupplierID = &supplierID
	}

	atas, err := db.FindAtas(h.db, opts)
	if err != nil {
		return nil, QueryAtasOutput{}, fmt.Errorf("failed to find atas: %w", err)
	}

	alertDays := db.AlertDays(h.db)
	now := time.Now()

	results := make([]AtaOutput, len(atas))
	for i := range atas {
		a := &atas[i]
		results[i] = AtaOutput{
			ID:          a.ID.String(),
			Number:      a.Number,
			RefCode:     a.RefCode,
			Description: a.Description,
			SupplierID:  a.SupplierID.String(),
			StartDate:   a.StartDate.Format("2006-01-02"),
			EndDate:     a.EndDate.Format("2006-01-02"),
			Status:      string(models.ResolveStatus(a.EndDate, now, alertDays)),
			Total:       models.FormatCentavos(a.TotalCents),
			TotalCents:  a.TotalCents,
		}
	}

	return &mcp.CallToolResult{}, QueryAtasOutput{Results: results, Count: len(results)}, nil
}

type GetAtaInput struct {
	ID     string `json:"id,omitempty" jsonschema:"Ata ID"`
	Number string `json:"number,omitempty" jsonschema:"Ata number, used when id is not given"`
}

type AtaDetailOutput struct {
	AtaOutput
	Supplier    SupplierOutput     `json:"supplier"`
	Items       []AtaItemOutput    `json:"items"`
	Contacts    []ContactOutput    `json:"contacts,omitempty"`
	Attachments []AttachmentOutput `json:"attachments,omitempty"`
}

func (h *QueryHandlers) GetAta(_ context.Context, request *mcp.CallToolRequest, input GetAtaInput) (*mcp.CallToolResult, AtaDetailOutput, error) {
	var ataID uuid.UUID

	switch {
	case input.ID != "":
		id, err := uuid.Parse(input.ID)
		if err != nil {
			return nil, AtaDetailOutput{}, fmt.Errorf("invalid id: %w", err)
		}
		ataID = id
	case input.Number != "":
		ata, err := db.GetAtaByNumber(h.db, input.Number)
		if err != nil {
			return nil, AtaDetailOutput{}, fmt.Errorf("failed to get ata: %w", err)
		}
		ataID = ata.ID
	default:
		return nil, AtaDetailOutput{}, fmt.Errorf("id or number is required")
	}

	detail, err := db.GetAtaDetail(h.db, ataID)
	if err != nil {
		return nil, AtaDetailOutput{}, fmt.Errorf("failed to get ata: %w", err)
	}

	out := AtaDetailOutput{
		Supplier: supplierToOutput(&detail.Supplier),
	}
	out.AtaOutput = AtaOutput{
		ID:           detail.ID.String(),
		Number:       detail.Number,
		RefCode:      detail.RefCode,
		Description:  detail.Description,
		SupplierID:   detail.SupplierID.String(),
		SupplierName: detail.Supplier.Name,
		StartDate:    detail.StartDate.Format("2006-01-02"),
		EndDate:      detail.EndDate.Format("2006-01-02"),
		Status:       string(models.ResolveStatus(detail.EndDate, time.Now(), db.AlertDays(h.db))),
		Total:        models.FormatCentavos(detail.TotalCents),
		TotalCents:   detail.TotalCents,
	}

	out.Items = make([]AtaItemOutput, len(detail.Items))
	for i := range detail.Items {
		out.Items[i] = itemToOutput(&detail.Items[i])
	}
	for i := range detail.Contacts {
		out.Contacts = append(out.Contacts, ContactOutput{
			ID:    detail.Contacts[i].ID.String(),
			Type:  detail.Contacts[i].Type,
			Value: detail.Contacts[i].Value,
			Label: detail.Contacts[i].Label,
		})
	}
	for i := range detail.Attachments {
		out.Attachments = append(out.Attachments, AttachmentOutput{
			ID:   detail.Attachments[i].ID.String(),
			Kind: detail.Attachments[i].Kind,
			Name: detail.Attachments[i].Name,
			Path: detail.Attachments[i].Path,
		})
	}

	return nil, out, nil
}

type QuerySuppliersInput struct {
	Search string `json:"search,omitempty" jsonschema:"Substring matched against name and CNPJ"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum results (default 50)"`
}

type QuerySuppliersOutput struct {
	Results []SupplierOutput `json:"results"`
	Count   int              `json:"count"`
}

func (h *QueryHandlers) QuerySuppliers(_ context.Context, request *mcp.CallToolRequest, input QuerySuppliersInput) (*mcp.CallToolResult, QuerySuppliersOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 50
	}

	suppliers, err := db.FindSuppliers(h.db, input.Search, limit)
	if err != nil {
		return nil, QuerySuppliersOutput{}, fmt.Errorf("failed to find suppliers: %w", err)
	}

	results := make([]SupplierOutput, len(suppliers))
	for i := range suppliers {
		results[i] = supplierToOutput(&suppliers[i])
	}

	return &mcp.CallToolResult{}, QuerySuppliersOutput{Results: results, Count: len(results)}, nil
}
