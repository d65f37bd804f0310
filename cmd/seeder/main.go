// cmd/seeder/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/stockledger/internal/adapters/db"
	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/pkg/config"
	"github.com/ammerola/stockledger/internal/pkg/logger"
)

// Seeder loads initial stock records from a spreadsheet. Run it before the API
// starts: the running ledger does not see rows written behind its back.
func main() {
	var (
		sheetFile = flag.String("file", "./stock.xlsx", "Excel file with product_id, on_hand, minimum, maximum, location columns")
		logLevel  = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		dryRun    = flag.Bool("dry-run", false, "Preview changes without modifying database")
		overwrite = flag.Bool("overwrite", false, "Replace records that already exist")
	)
	flag.Parse()

	log := logger.SetupLogger(*logLevel, "json").Logger

	file, err := xlsx.OpenFile(*sheetFile)
	if err != nil {
		log.Error("failed to open spreadsheet", slog.String("file", *sheetFile), slog.String("error", err.Error()))
		os.Exit(1)
	}

	records, problems, err := parseStockSheet(file, time.Now().UTC())
	if err != nil {
		log.Error("failed to read spreadsheet", slog.String("error", err.Error()))
		os.Exit(1)
	}
	for _, p := range problems {
		fmt.Printf("WARNING: %s\n", p)
	}

	if *dryRun {
		printSummary(records, nil, problems)
		fmt.Println("\n[DRY RUN] No changes were made to the database")
		return
	}

	cfg, err := config.Load(log)
	if err != nil {
		log.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()
	database, err := db.NewDatabase(ctx, &db.Config{
		Host:           cfg.Database.Host,
		Port:           cfg.Database.Port,
		User:           cfg.Database.User,
		Password:       cfg.Database.Password,
		Database:       cfg.Database.Name,
		SSLMode:        cfg.Database.SSLMode,
		MaxConnections: 2,
		MinConnections: 1,
		ConnectTimeout: cfg.Database.ConnectTimeout,
	}, log)
	if err != nil {
		log.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.Close()

	repo := db.NewStockRepository(database, log)

	var skipped []string
	if !*overwrite {
		records, skipped, err = dropExisting(ctx, repo, records)
		if err != nil {
			log.Error("failed to check existing records", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	if err := repo.SaveBatch(ctx, records); err != nil {
		log.Error("failed to save stock records", slog.String("error", err.Error()))
		os.Exit(1)
	}

	printSummary(records, skipped, problems)
	log.Info("seed operation completed",
		slog.Int("records_saved", len(records)),
		slog.Int("records_skipped", len(skipped)),
		slog.Int("rows_rejected", len(problems)))
}

func dropExisting(ctx context.Context, repo *db.StockRepository, records []domain.StockRecord) ([]domain.StockRecord, []string, error) {
	kept := records[:0]
	var skipped []string
	for _, rec := range records {
		existing, err := repo.Load(ctx, rec.ProductID)
		if err != nil {
			return nil, nil, err
		}
		if existing != nil {
			skipped = append(skipped, rec.ProductID)
			continue
		}
		kept = append(kept, rec)
	}
	return kept, skipped, nil
}

func printSummary(records []domain.StockRecord, skipped, problems []string) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("SEEDING SUMMARY")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Records to save: %d\n", len(records))

	byLocation := make(map[string]int64)
	for _, rec := range records {
		byLocation[rec.Location] += rec.OnHand
	}
	for location, units := range byLocation {
		if location == "" {
			location = "(none)"
		}
		fmt.Printf("  - %s: %d units\n", location, units)
	}

	if len(skipped) > 0 {
		fmt.Printf("\nAlready present, skipped (%d): %s\n", len(skipped), strings.Join(skipped, ", "))
	}
	if len(problems) > 0 {
		fmt.Printf("\nRejected rows: %d\n", len(problems))
	}
}
