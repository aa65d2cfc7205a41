// ABOUTME: MCP server subcommand
// ABOUTME: Exposes the ata registry as MCP tools over stdio
package cli

import (
	"context"
	"database/sql"
	"log"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rmbastos/atadesk/handlers"
)

// MCPCommand starts the MCP server on stdio.
func MCPCommand(db *sql.DB) error {
	log.Println("Starting atadesk MCP server...")

	supplierHandlers := handlers.NewSupplierHandlers(db)
	ataHandlers := handlers.NewAtaHandlers(db)
	queryHandlers := handlers.NewQueryHandlers(db)
	configHandlers := handlers.NewConfigHandlers(db)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "atadesk",
		Version: "0.1.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_supplier",
		Description: "Register a new supplier",
	}, supplierHandlers.CreateSupplier)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_supplier",
		Description: "Update an existing supplier's information",
	}, supplierHandlers.UpdateSupplier)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_supplier",
		Description: "Delete a supplier that no ata references",
	}, supplierHandlers.DeleteSupplier)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_supplier_contact",
		Description: "Add a phone or email contact point to a supplier",
	}, supplierHandlers.AddSupplierContact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "register_ata",
		Description: "Register a price-registration contract with its supplier and items",
	}, ataHandlers.CreateAta)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_ata",
		Description: "Update an ata's number, description, reference, or validity dates",
	}, ataHandlers.UpdateAta)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_ata",
		Description: "Delete an ata together with its items, contacts, and attachments",
	}, ataHandlers.DeleteAta)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_ata_item",
		Description: "Add an item to an ata; the total updates automatically",
	}, ataHandlers.AddAtaItem)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_ata_item",
		Description: "Update an item's description, quantity, or unit price",
	}, ataHandlers.UpdateAtaItem)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_ata_item",
		Description: "Remove an item from an ata; the total updates automatically",
	}, ataHandlers.DeleteAtaItem)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_attachment",
		Description: "Attach a document reference to an ata",
	}, ataHandlers.AddAttachment)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_atas",
		Description: "Search atas by text, supplier, or lifecycle status (active, expiring_soon, expired)",
	}, queryHandlers.QueryAtas)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_ata",
		Description: "Get one ata in full detail, including items, contacts, and attachments",
	}, queryHandlers.GetAta)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_suppliers",
		Description: "Search suppliers by name or CNPJ",
	}, queryHandlers.QuerySuppliers)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_alert_days",
		Description: "Get the expiring-soon alert window in days",
	}, configHandlers.GetAlertDays)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_alert_days",
		Description: "Set the expiring-soon alert window in days",
	}, configHandlers.SetAlertDays)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "reindex",
		Description: "Rebuild all search documents and totals from the normalized rows",
	}, configHandlers.Reindex)

	ctx := context.Background()
	return server.Run(ctx, &mcp.StdioTransport{})
}
