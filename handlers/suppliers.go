// ABOUTME: Supplier MCP tool handlers
// ABOUTME: Implements create_supplier, update_supplier, delete_supplier, and contact tools
package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rmbastos/atadesk/db"
	"github.com/rmbastos/atadesk/models"
)

type SupplierHandlers struct {
	db *sql.DB
}

func NewSupplierHandlers(database *sql.DB) *SupplierHandlers {
	return &SupplierHandlers{db: database}
}

type CreateSupplierInput struct {
	Name  string `json:"name" jsonschema:"Supplier name (required)"`
	CNPJ  string `json:"cnpj,omitempty" jsonschema:"Supplier CNPJ, digits only or formatted"`
	Notes string `json:"notes,omitempty" jsonschema:"Free-form notes"`
}

type SupplierOutput struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CNPJ      string `json:"cnpj,omitempty"`
	Notes     string `json:"notes,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func supplierToOutput(s *models.Supplier) SupplierOutput {
	return SupplierOutput{
		ID:        s.ID.String(),
		Name:      s.Name,
		CNPJ:      s.CNPJ,
		Notes:     s.Notes,
		CreatedAt: s.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: s.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (h *SupplierHandlers) CreateSupplier(_ context.Context, request *mcp.CallToolRequest, input CreateSupplierInput) (*mcp.CallToolResult, SupplierOutput, error) {
	if input.Name == "" {
		return nil, SupplierOutput{}, fmt.Errorf("name is required")
	}

	supplier := &models.Supplier{
		Name:  input.Name,
		CNPJ:  input.CNPJ,
		Notes: input.Notes,
	}
	if err := db.CreateSupplier(h.db, supplier); err != nil {
		return nil, SupplierOutput{}, fmt.Errorf("failed to create supplier: %w", err)
	}

	return nil, supplierToOutput(supplier), nil
}

type UpdateSupplierInput struct {
	ID    string `json:"id" jsonschema:"Supplier ID (required)"`
	Name  string `json:"name,omitempty" jsonschema:"Updated supplier name"`
	CNPJ  string `json:"cnpj,omitempty" jsonschema:"Updated CNPJ"`
	Notes string `json:"notes,omitempty" jsonschema:"Updated notes"`
}

func (h *SupplierHandlers) UpdateSupplier(_ context.Context, request *mcp.CallToolRequest, input UpdateSupplierInput) (*mcp.CallToolResult, SupplierOutput, error) {
	if input.ID == "" {
		return nil, SupplierOutput{}, fmt.Errorf("id is required")
	}

	supplierID, err := uuid.Parse(input.ID)
	if err != nil {
		return nil, SupplierOutput{}, fmt.Errorf("invalid id: %w", err)
	}

	supplier, err := db.GetSupplier(h.db, supplierID)
	if err != nil {
		return nil, SupplierOutput{}, fmt.Errorf("failed to get supplier: %w", err)
	}

	if input.Name != "" {
		supplier.Name = input.Name
	}
	if input.CNPJ != "" {
		supplier.CNPJ = input.CNPJ
	}
	if input.Notes != "" {
		supplier.Notes = input.Notes
	}

	if err := db.UpdateSupplier(h.db, supplier); err != nil {
		return nil, SupplierOutput{}, fmt.Errorf("failed to update supplier: %w", err)
	}

	return nil, supplierToOutput(supplier), nil
}

type DeleteSupplierInput struct {
	ID string `json:"id" jsonschema:"Supplier ID (required)"`
}

type DeleteOutput struct {
	Deleted bool   `json:"deleted"`
	Message string `json:"message,omitempty"`
}

func (h *SupplierHandlers) DeleteSupplier(_ context.Context, request *mcp.CallToolRequest, input DeleteSupplierInput) (*mcp.CallToolResult, DeleteOutput, error) {
	if input.ID == "" {
		return nil, DeleteOutput{}, fmt.Errorf("id is required")
	}

	supplierID, err := uuid.Parse(input.ID)
	if err != nil {
		return nil, DeleteOutput{}, fmt.Errorf("invalid id: %w", err)
	}

	if err := db.DeleteSupplier(h.db, supplierID); err != nil {
		if errors.Is(err, db.ErrReferentialIntegrity) {
			return nil, DeleteOutput{
				Deleted: false,
				Message: "supplier still has registered atas; delete or reassign them first",
			}, nil
		}
		return nil, DeleteOutput{}, fmt.Errorf("failed to delete supplier: %w", err)
	}

	return nil, DeleteOutput{Deleted: true}, nil
}

type AddSupplierContactInput struct {
	SupplierID string `json:"supplier_id" jsonschema:"Supplier ID (required)"`
	Type       string `json:"type" jsonschema:"Contact type: telefone or email"`
	Value      string `json:"value" jsonschema:"Contact value (required)"`
	Label      string `json:"label,omitempty" jsonschema:"Optional label, e.g. Comercial"`
}

type ContactOutput struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Value string `json:"value"`
	Label string `json:"label,omitempty"`
}

func (h *SupplierHandlers) AddSupplierContact(_ context.Context, request *mcp.CallToolRequest, input AddSupplierContactInput) (*mcp.CallToolResult, ContactOutput, error) {
	if input.SupplierID == "" {
		return nil, ContactOutput{}, fmt.Errorf("supplier_id is required")
	}
	if input.Value == "" {
		return nil, ContactOutput{}, fmt.Errorf("value is required")
	}
	if input.Type != models.ContactPhone && input.Type != models.ContactEmail {
		return nil, ContactOutput{}, fmt.Errorf("invalid type: %s (valid: telefone, email)", input.Type)
	}

	supplierID, err := uuid.Parse(input.SupplierID)
	if err != nil {
		return nil, ContactOutput{}, fmt.Errorf("invalid supplier_id: %w", err)
	}

	contact := &models.SupplierContact{
		SupplierID: supplierID,
		Type:       input.Type,
		Value:      input.Value,
		Label:      input.Label,
	}
	if err := db.AddSupplierContact(h.db, contact); err != nil {
		return nil, ContactOutput{}, fmt.Errorf("failed to add contact: %w", err)
	}

	return nil, ContactOutput{
		ID:    contact.ID.String(),
		Type:  contact.Type,
		Value: contact.Value,
		Label: contact.Label,
	}, nil
}
