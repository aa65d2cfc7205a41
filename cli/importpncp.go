// ABOUTME: PNCP import CLI command
// ABOUTME: Pulls procurement publications from PNCP and registers them as atas
package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rmbastos/atadesk/pncp"
)

// ImportPNCPCommand fetches procurement records from the PNCP public API
// and registers them locally. PNCP_* settings load from the environment,
// with a .env file honored when present.
func ImportPNCPCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("import-pncp", flag.ExitOnError)
	from := fs.String("from", "", "Publication window start YYYY-MM-DD (required)")
	to := fs.String("to", "", "Publication window end YYYY-MM-DD (required)")
	object := fs.String("object", "", "Keep only records whose object contains this term")
	items := fs.String("items", "", "Keep only items matching any term, separated by ';'")
	modalidades := fs.String("modalidades", "6", "Modality codes separated by ';' (default pregão eletrônico)")
	noCache := fs.Bool("no-cache", false, "Skip the response cache")
	_ = fs.Parse(args)

	if *from == "" || *to == "" {
		return fmt.Errorf("--from and --to are required")
	}

	fromDate, err := time.Parse("2006-01-02", *from)
	if err != nil {
		return fmt.Errorf("invalid --from (use YYYY-MM-DD): %w", err)
	}
	toDate, err := time.Parse("2006-01-02", *to)
	if err != nil {
		return fmt.Errorf("invalid --to (use YYYY-MM-DD): %w", err)
	}

	mods, err := parseModalidades(*modalidades)
	if err != nil {
		return err
	}

	// Not having a .env file is fine; the defaults cover everything
	_ = godotenv.Load()
	cfg := pncp.ConfigFromEnv()

	var cache *pncp.Cache
	if !*noCache {
		cache, err = pncp.OpenCache(cfg.CacheDir)
		if err != nil {
			fmt.Printf("warning: cache unavailable, fetching everything: %v\n", err)
		} else {
			defer cache.Close()
		}
	}

	client := pncp.NewClient(cfg, cache)
	importer, err := pncp.NewImporter(database, client)
	if err != nil {
		return err
	}

	opts := pncp.ImportOptions{
		From:        fromDate,
		To:          toDate,
		Modalidades: mods,
		ObjectTerm:  *object,
		ItemTerms:   splitTerms(*items),
	}

	fmt.Printf("Importing PNCP publications %s to %s...\n", *from, *to)
	summary, err := importer.Run(context.Background(), opts)
	if err != nil {
		return err
	}

	fmt.Printf("\n✓ Fetched %d publication records\n", summary.Fetched)
	fmt.Printf("  ✓ %d matched the object filter\n", summary.Matched)
	fmt.Printf("  ✓ %d atas imported\n", summary.Imported)
	if summary.Skipped > 0 {
		fmt.Printf("  ✓ %d skipped (already imported)\n", summary.Skipped)
	}
	if summary.Failed > 0 {
		fmt.Printf("  ✗ %d failed\n", summary.Failed)
	}
	return nil
}

func parseModalidades(raw string) ([]int, error) {
	var mods []int
	seen := map[int]bool{}
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		code, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid modality code %q", part)
		}
		if _, known := pncp.Modalidades[code]; !known {
			return nil, fmt.Errorf("unknown modality code %d", code)
		}
		if !seen[code] {
			seen[code] = true
			mods = append(mods, code)
		}
	}
	if len(mods) == 0 {
		mods = []int{6}
	}
	return mods, nil
}

func splitTerms(raw string) []string {
	var terms []string
	for _, part := range strings.Split(raw, ";") {
		if part = strings.TrimSpace(part); part != "" {
			terms = append(terms, part)
		}
	}
	return terms
}
