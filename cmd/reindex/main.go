// ABOUTME: Standalone recovery utility for derived state.
// ABOUTME: Rebuilds search documents and totals after external database edits.

package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/rmbastos/atadesk/db"
)

func main() {
	dbPath := flag.String("db", "", "Path to database file (required)")
	dryRun := flag.Bool("dry-run", false, "Report inconsistencies without making changes")
	backup := flag.Bool("backup", true, "Create backup before rebuilding")
	flag.Parse()

	if *dbPath == "" {
		log.Fatal("Error: -db flag is required")
	}

	if err := run(*dbPath, *dryRun, *backup); err != nil {
		log.Fatalf("Reindex failed: %v", err)
	}
}

func run(dbPath string, dryRun, createBackup bool) error {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return fmt.Errorf("database file does not exist: %s", dbPath)
	}

	if createBackup && !dryRun {
		backupPath := fmt.Sprintf("%s.backup.%s", dbPath, time.Now().Format("20060102-150405"))
		log.Printf("Creating backup: %s", backupPath)

		input, err := os.ReadFile(dbPath)
		if err != nil {
			return fmt.Errorf("failed to read database: %w", err)
		}
		if err := os.WriteFile(backupPath, input, 0644); err != nil {
			return fmt.Errorf("failed to create backup: %w", err)
		}
	}

	database, err := db.OpenDatabase(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = database.Close() }()

	if dryRun {
		stale, missing, err := inspect(database)
		if err != nil {
			return err
		}
		log.Printf("Dry run: %d atas with stale totals, %d missing search documents", stale, missing)
		if stale == 0 && missing == 0 {
			log.Println("Derived state is consistent; nothing to do")
		}
		return nil
	}

	if err := db.Reindex(database); err != nil {
		return err
	}

	log.Println("Search documents and totals rebuilt successfully")
	return nil
}

// inspect counts atas whose stored total disagrees with the item sum and
// atas without a search document.
func inspect(database *sql.DB) (stale, missing int, err error) {
	err = database.QueryRow(`
		SELECT COUNT(*) FROM atas a
		WHERE a.total_cents != COALESCE(
			(SELECT SUM(quantity * unit_price_cents) FROM ata_items WHERE ata_id = a.id), 0)
	`).Scan(&stale)
	if err != nil {
		return 0, 0, err
	}

	err = database.QueryRow(`
		SELECT COUNT(*) FROM atas a
		WHERE NOT EXISTS (SELECT 1 FROM ata_search d WHERE d.ata_id = a.id)
	`).Scan(&missing)
	if err != nil {
		return 0, 0, err
	}

	return stale, missing, nil
}
