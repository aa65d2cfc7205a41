// ABOUTME: Supplier CLI commands
// ABOUTME: Human-friendly commands for managing suppliers and their contacts
package cli

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/rmbastos/atadesk/db"
	"github.com/rmbastos/atadesk/models"
)

// AddSupplierCommand adds a new supplier.
func AddSupplierCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("add-supplier", flag.ExitOnError)
	name := fs.String("name", "", "Supplier name (required)")
	cnpj := fs.String("cnpj", "", "Supplier CNPJ")
	notes := fs.String("notes", "", "Notes about the supplier")
	_ = fs.Parse(args)

	if *name == "" {
		return fmt.Errorf("--name is required")
	}

	supplier := &models.Supplier{Name: *name, CNPJ: *cnpj, Notes: *notes}
	if err := db.CreateSupplier(database, supplier); err != nil {
		return fmt.Errorf("failed to create supplier: %w", err)
	}

	fmt.Printf("✓ Supplier created: %s (ID: %s)\n", supplier.Name, supplier.ID)
	return nil
}

// ListSuppliersCommand lists suppliers.
func ListSuppliersCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("list-suppliers", flag.ExitOnError)
	query := fs.String("query", "", "Search by name or CNPJ")
	limit := fs.Int("limit", 50, "Maximum results")
	_ = fs.Parse(args)

	suppliers, err := db.FindSuppliers(database, *query, *limit)
	if err != nil {
		return fmt.Errorf("failed to find suppliers: %w", err)
	}

	if len(suppliers) == 0 {
		fmt.Println("No suppliers found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tCNPJ\tID")
	_, _ = fmt.Fprintln(w, "----\t----\t--")
	for _, s := range suppliers {
		cnpj := s.CNPJ
		if cnpj == "" {
			cnpj = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", s.Name, cnpj, s.ID.String()[:8])
	}
	return w.Flush()
}

// UpdateSupplierCommand updates an existing supplier. Flags must come
// before the supplier ID.
func UpdateSupplierCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("update-supplier", flag.ExitOnError)
	name := fs.String("name", "", "Supplier name")
	cnpj := fs.String("cnpj", "", "Supplier CNPJ")
	notes := fs.String("notes", "", "Notes about the supplier")
	_ = fs.Parse(args)

	if fs.NArg() == 0 {
		return fmt.Errorf("usage: update-supplier [flags] <id>")
	}

	id, err := uuid.Parse(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("invalid supplier ID: %w", err)
	}

	supplier, err := db.GetSupplier(database, id)
	if err != nil {
		return err
	}

	if *name != "" {
		supplier.Name = *name
	}
	if *cnpj != "" {
		supplier.CNPJ = *cnpj
	}
	if *notes != "" {
		supplier.Notes = *notes
	}

	if err := db.UpdateSupplier(database, supplier); err != nil {
		return fmt.Errorf("failed to update supplier: %w", err)
	}

	fmt.Printf("✓ Supplier updated: %s\n", supplier.Name)
	return nil
}

// DeleteSupplierCommand removes a supplier that no ata references.
func DeleteSupplierCommand(database *sql.DB, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: delete-supplier <id>")
	}

	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid supplier ID: %w", err)
	}

	if err := db.DeleteSupplier(database, id); err != nil {
		if errors.Is(err, db.ErrReferentialIntegrity) {
			return fmt.Errorf("supplier still has registered atas; delete or reassign them first")
		}
		return fmt.Errorf("failed to delete supplier: %w", err)
	}

	fmt.Printf("✓ Supplier deleted: %s\n", id)
	return nil
}

// AddSupplierContactCommand adds a contact point to a supplier.
func AddSupplierContactCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("add-supplier-contact", flag.ExitOnError)
	supplierID := fs.String("supplier", "", "Supplier ID (required)")
	contactType := fs.String("type", "", "Contact type: telefone or email (required)")
	value := fs.String("value", "", "Contact value (required)")
	label := fs.String("label", "", "Optional label")
	_ = fs.Parse(args)

	if *supplierID == "" || *contactType == "" || *value == "" {
		return fmt.Errorf("--supplier, --type, and --value are required")
	}
	if *contactType != models.ContactPhone && *contactType != models.ContactEmail {
		return fmt.Errorf("invalid --type: %s (valid: telefone, email)", *contactType)
	}

	id, err := uuid.Parse(*supplierID)
	if err != nil {
		return fmt.Errorf("invalid supplier ID: %w", err)
	}

	contact := &models.SupplierContact{
		SupplierID: id,
		Type:       *contactType,
		Value:      *value,
		Label:      *label,
	}
	if err := db.AddSupplierContact(database, contact); err != nil {
		return fmt.Errorf("failed to add contact: %w", err)
	}

	fmt.Printf("✓ Contact added: %s %s\n", contact.Type, contact.Value)
	return nil
}
