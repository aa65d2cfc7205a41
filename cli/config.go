// ABOUTME: Configuration CLI commands
// ABOUTME: Manages the alert window and the reindex recovery operation
package cli

import (
	"database/sql"
	"flag"
	"fmt"
	"strconv"

	"github.com/rmbastos/atadesk/db"
)

// AlertDaysCommand shows or sets the expiring-soon window.
func AlertDaysCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("alert-days", flag.ExitOnError)
	set := fs.Int("set", -1, "Set the alert window in days")
	_ = fs.Parse(args)

	if *set >= 0 {
		if err := db.SetParam(database, db.ParamAlertDays, strconv.Itoa(*set)); err != nil {
			return fmt.Errorf("failed to save alert days: %w", err)
		}
		fmt.Printf("✓ Alert window set to %d days\n", *set)
		return nil
	}

	fmt.Printf("Alert window: %d days\n", db.AlertDays(database))
	return nil
}

// ReindexCommand rebuilds every search document and total from the
// normalized rows.
func ReindexCommand(database *sql.DB, args []string) error {
	if err := db.Reindex(database); err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}
	fmt.Println("✓ Search index and totals rebuilt")
	return nil
}
