// ABOUTME: Entry point for the atadesk MCP server and CLI
// ABOUTME: Routes to MCP server or management commands based on arguments
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/rmbastos/atadesk/cli"
	"github.com/rmbastos/atadesk/db"
)

const version = "0.1.0"

func main() {
	showVersion := flag.Bool("version", false, "Show version and exit")
	dbPath := flag.String("db-path", "", "Database path (default: ~/.local/share/atadesk/atadesk.db)")
	initOnly := flag.Bool("init", false, "Initialize database and exit")

	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("atadesk version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	command := args[0]
	commandArgs := args[1:]

	switch command {
	case "mcp":
		database, err := db.OpenDatabase(getDatabasePath(*dbPath))
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer database.Close()

		if err := cli.MCPCommand(database); err != nil {
			log.Fatalf("MCP server failed: %v", err)
		}

	case "ata":
		finalDBPath := getDatabasePath(*dbPath)
		database, err := db.OpenDatabase(finalDBPath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer database.Close()

		log.Printf("atadesk database: %s", finalDBPath)

		if *initOnly {
			log.Println("Database initialized successfully")
			os.Exit(0)
		}

		if len(commandArgs) == 0 {
			fmt.Println("Error: ata requires a subcommand")
			printUsage()
			os.Exit(1)
		}

		subcommand := commandArgs[0]
		subArgs := commandArgs[1:]

		switch subcommand {
		// Supplier commands
		case "add-supplier":
			if err := cli.AddSupplierCommand(database, subArgs); err != nil {
				log.Fatalf("Error: %v", err)
			}
		case "list-suppliers":
			if err := cli.ListSuppliersCommand(database, subArgs); err != nil {
				log.Fatalf("Error: %v", err)
			}
		case "update-supplier":
			if err := cli.UpdateSupplierCommand(database, subArgs); err != nil {
				log.Fatalf("Error: %v", err)
			}
		case "delete-supplier":
			if err := cli.DeleteSupplierCommand(database, subArgs); err != nil {
				log.Fatalf("Error: %v", err)
			}
		case "add-supplier-contact":
			if err := cli.AddSupplierContactCommand(database, subArgs); err != nil {
				log.Fatalf("Error: %v", err)
			}

		// Ata commands
		case "add":
			if err := cli.AddAtaCommand(database, subArgs); err != nil {
				log.Fatalf("Error: %v", err)
			}
		case "list":
			if err := cli.ListAtasCommand(database, subArgs); err != nil {
				log.Fatalf("Error: %v", err)
			}
		case "show":
			if err := cli.ShowAtaCommand(database, subArgs); err != nil {
				log.Fatalf("Error: %v", err)
			}
		case "add-item":
			if err := cli.AddAtaItemCommand(database, subArgs); err != nil {
				log.Fatalf("Error: %v", err)
			}
		case "delete":
			if err := cli.DeleteAtaCommand(database, subArgs); err != nil {
				log.Fatalf("Error: %v", err)
			}

		// Maintenance commands
		case "alert-days":
			if err := cli.AlertDaysCommand(database, subArgs); err != nil {
				log.Fatalf("Error: %v", err)
			}
		case "reindex":
			if err := cli.ReindexCommand(database, subArgs); err != nil {
				log.Fatalf("Error: %v", err)
			}
		case "import-pncp":
			if err := cli.ImportPNCPCommand(database, subArgs); err != nil {
				log.Fatalf("Error: %v", err)
			}

		default:
			fmt.Printf("Unknown ata command: %s\n\n", subcommand)
			printUsage()
			os.Exit(1)
		}

	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func getDatabasePath(dbPath string) string {
	if dbPath != "" {
		return dbPath
	}
	return filepath.Join(xdg.DataHome, "atadesk", "atadesk.db")
}

func printUsage() {
	fmt.Printf(`atadesk v%s - Price-registration contract registry

USAGE:
  atadesk [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --db-path <path>       Database path (default: ~/.local/share/atadesk/atadesk.db)
  --init                 Initialize database and exit (use with 'ata')

COMMANDS:
  mcp                    Start MCP server for assistant integration
  ata                    Contract registry commands

ATA COMMANDS:
  atadesk ata add           Register a new ata
    --number <number>         Ata number, e.g. 015/2024 (required)
    --description <text>      Contract object (required)
    --supplier <name>         Supplier name (required, created if missing)
    --cnpj <cnpj>             Supplier CNPJ
    --ref <code>              Administrative reference code
    --start <date>            Validity start YYYY-MM-DD (required)
    --end <date>              Validity end YYYY-MM-DD (required)

  atadesk ata list          List atas with status
    --query <text>            Search number, description, supplier, items
    --status <status>         Filter: active, expiring_soon, expired
    --limit <n>               Max results (default: 50)

  atadesk ata show <id>     Show one ata in full
    --number <number>         Lookup by number instead of ID

  atadesk ata add-item      Add an item to an ata
    --ata <number>            Ata number (required)
    --description <text>      Item description (required)
    --qty <n>                 Quantity (required)
    --price <value>           Unit price, e.g. 23,90

  atadesk ata delete <id>   Delete an ata and everything attached

  atadesk ata add-supplier / list-suppliers / update-supplier / delete-supplier
  atadesk ata add-supplier-contact

  atadesk ata alert-days [--set <n>]   Show or set the expiring-soon window
  atadesk ata reindex                  Rebuild search documents and totals
  atadesk ata import-pncp              Import publications from the PNCP API
    --from <date> --to <date>            Publication window (required)
    --object <term>                      Filter on the contract object
    --items <terms>                      Item term filter, ';' separated
    --modalidades <codes>                Modality codes, ';' separated (default 6)

MCP SERVER:
  atadesk mcp            Start MCP server on stdio
`, version)
}
