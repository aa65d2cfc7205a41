// ABOUTME: Ata CLI commands
// ABOUTME: Human-friendly commands for registering and listing atas
package cli

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/rmbastos/atadesk/db"
	"github.com/rmbastos/atadesk/models"
)

// AddAtaCommand registers a new ata.
func AddAtaCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("add-ata", flag.ExitOnError)
	number := fs.String("number", "", "Ata number, e.g. 015/2024 (required)")
	refCode := fs.String("ref", "", "Administrative reference code")
	description := fs.String("description", "", "Contract object (required)")
	supplier := fs.String("supplier", "", "Supplier name (required, created if missing)")
	cnpj := fs.String("cnpj", "", "Supplier CNPJ")
	start := fs.String("start", "", "Validity start YYYY-MM-DD (required)")
	end := fs.String("end", "", "Validity end YYYY-MM-DD (required)")
	_ = fs.Parse(args)

	if *number == "" {
		return fmt.Errorf("--number is required")
	}
	if *description == "" {
		return fmt.Errorf("--description is required")
	}
	if *supplier == "" {
		return fmt.Errorf("--supplier is required")
	}

	startDate, err := time.Parse("2006-01-02", *start)
	if err != nil {
		return fmt.Errorf("invalid --start (use YYYY-MM-DD): %w", err)
	}
	endDate, err := time.Parse("2006-01-02", *end)
	if err != nil {
		return fmt.Errorf("invalid --end (use YYYY-MM-DD): %w", err)
	}

	// Find or create supplier
	existing, err := db.FindSupplierByName(database, *supplier)
	if err != nil {
		return fmt.Errorf("failed to lookup supplier: %w", err)
	}
	if existing == nil {
		existing = &models.Supplier{Name: *supplier, CNPJ: *cnpj}
		if err := db.CreateSupplier(database, existing); err != nil {
			return fmt.Errorf("failed to create supplier: %w", err)
		}
	}

	ata := &models.Ata{
		Number:      *number,
		RefCode:     *refCode,
		Description: *description,
		SupplierID:  existing.ID,
		StartDate:   startDate,
		EndDate:     endDate,
	}
	if err := db.CreateAta(database, ata, nil, nil); err != nil {
		return fmt.Errorf("failed to create ata: %w", err)
	}

	fmt.Printf("✓ Ata registered: %s (ID: %s)\n", ata.Number, ata.ID)
	fmt.Printf("  Supplier: %s\n", existing.Name)
	fmt.Printf("  Validity: %s to %s\n", ata.StartDate.Format("2006-01-02"), ata.EndDate.Format("2006-01-02"))
	return nil
}

// ListAtasCommand lists atas with resolved status.
func ListAtasCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("list-atas", flag.ExitOnError)
	search := fs.String("query", "", "Search number, description, supplier, and item text")
	status := fs.String("status", "", "Filter by status (active, expiring_soon, expired)")
	limit := fs.Int("limit", 50, "Maximum results")
	_ = fs.Parse(args)

	opts := db.FindAtasOptions{Search: *search, Limit: *limit}
	if *status != "" {
		s := models.Status(*status)
		if !models.ValidStatus(s) {
			return fmt.Errorf("invalid --status: %s (valid: active, expiring_soon, expired)", *status)
		}
		opts.Status = s
	}

	atas, err := db.FindAtas(database, opts)
	if err != nil {
		return fmt.Errorf("failed to find atas: %w", err)
	}

	if len(atas) == 0 {
		fmt.Println("No atas found")
		return nil
	}

	alertDays := db.AlertDays(database)
	now := time.Now()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NUMBER\tDESCRIPTION\tEND DATE\tSTATUS\tTOTAL\tID")
	_, _ = fmt.Fprintln(w, "------\t-----------\t--------\t------\t-----\t--")

	for _, ata := range atas {
		desc := ata.Description
		if len(desc) > 40 {
			desc = desc[:37] + "..."
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			ata.Number, desc, ata.EndDate.Format("2006-01-02"),
			models.ResolveStatus(ata.EndDate, now, alertDays),
			models.FormatCentavos(ata.TotalCents), ata.ID.String()[:8])
	}
	return w.Flush()
}

// ShowAtaCommand prints one ata in full.
func ShowAtaCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("show-ata", flag.ExitOnError)
	number := fs.String("number", "", "Lookup by ata number instead of ID")
	_ = fs.Parse(args)

	var ata *models.Ata
	var err error

	switch {
	case *number != "":
		ata, err = db.GetAtaByNumber(database, *number)
	case fs.NArg() > 0:
		var id uuid.UUID
		if id, err = uuid.Parse(fs.Arg(0)); err != nil {
			return fmt.Errorf("invalid ata ID: %w", err)
		}
		ata, err = db.GetAta(database, id)
	default:
		return fmt.Errorf("usage: show-ata <id> or show-ata --number <number>")
	}
	if err != nil {
		return err
	}

	detail, err := db.GetAtaDetail(database, ata.ID)
	if err != nil {
		return err
	}

	status := models.ResolveStatus(detail.EndDate, time.Now(), db.AlertDays(database))

	fmt.Printf("Ata %s (%s)\n", detail.Number, status)
	if detail.RefCode != "" {
		fmt.Printf("  Reference: %s\n", detail.RefCode)
	}
	fmt.Printf("  Object: %s\n", detail.Description)
	fmt.Printf("  Supplier: %s", detail.Supplier.Name)
	if detail.Supplier.CNPJ != "" {
		fmt.Printf(" (CNPJ %s)", detail.Supplier.CNPJ)
	}
	fmt.Println()
	fmt.Printf("  Validity: %s to %s\n",
		detail.StartDate.Format("2006-01-02"), detail.EndDate.Format("2006-01-02"))
	fmt.Printf("  Total: %s\n", models.FormatCentavos(detail.TotalCents))

	if len(detail.Items) > 0 {
		fmt.Println("\n  Items:")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "  \tDESCRIPTION\tQTY\tUNIT PRICE\tSUBTOTAL")
		for i := range detail.Items {
			item := &detail.Items[i]
			_, _ = fmt.Fprintf(w, "  \t%s\t%d\t%s\t%s\n",
				item.Description, item.Quantity,
				models.FormatCentavos(item.UnitPriceCents),
				models.FormatCentavos(item.SubtotalCents()))
		}
		_ = w.Flush()
	}

	for i := range detail.Contacts {
		fmt.Printf("  Contact: %s %s", detail.Contacts[i].Type, detail.Contacts[i].Value)
		if detail.Contacts[i].Label != "" {
			fmt.Printf(" (%s)", detail.Contacts[i].Label)
		}
		fmt.Println()
	}
	for i := range detail.Attachments {
		fmt.Printf("  Attachment: %s -> %s\n", detail.Attachments[i].Name, detail.Attachments[i].Path)
	}

	return nil
}

// AddAtaItemCommand adds one item to an existing ata.
func AddAtaItemCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("add-item", flag.ExitOnError)
	ataNumber := fs.String("ata", "", "Ata number (required)")
	description := fs.String("description", "", "Item description (required)")
	quantity := fs.Int64("qty", 0, "Quantity (required, positive)")
	price := fs.String("price", "", "Unit price, e.g. 23,90 or 2390 centavos with --cents")
	cents := fs.Bool("cents", false, "Treat --price as integer centavos")
	_ = fs.Parse(args)

	if *ataNumber == "" {
		return fmt.Errorf("--ata is required")
	}
	if *description == "" {
		return fmt.Errorf("--description is required")
	}

	var unitPrice int64
	var err error
	if *cents {
		if _, err := fmt.Sscanf(*price, "%d", &unitPrice); err != nil {
			return fmt.Errorf("invalid --price: %w", err)
		}
	} else {
		if unitPrice, err = models.ParseCentavos(*price); err != nil {
			return fmt.Errorf("invalid --price: %w", err)
		}
	}

	ata, err := db.GetAtaByNumber(database, *ataNumber)
	if err != nil {
		return err
	}

	item := &models.AtaItem{
		AtaID:          ata.ID,
		Description:    *description,
		Quantity:       *quantity,
		UnitPriceCents: unitPrice,
	}
	if err := db.AddAtaItem(database, item); err != nil {
		return fmt.Errorf("failed to add item: %w", err)
	}

	updated, err := db.GetAta(database, ata.ID)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Item added to %s: %s\n", ata.Number, item.Description)
	fmt.Printf("  Subtotal: %s\n", models.FormatCentavos(item.SubtotalCents()))
	fmt.Printf("  Ata total: %s\n", models.FormatCentavos(updated.TotalCents))
	return nil
}

// DeleteAtaCommand removes an ata and everything attached to it.
func DeleteAtaCommand(database *sql.DB, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: delete-ata <id>")
	}

	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid ata ID: %w", err)
	}

	if err := db.DeleteAta(database, id); err != nil {
		return fmt.Errorf("failed to delete ata: %w", err)
	}

	fmt.Printf("✓ Ata deleted: %s\n", id)
	return nil
}
