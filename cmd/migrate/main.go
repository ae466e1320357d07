package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/Mzhdi/Nounou-sub000/config"
	"github.com/Mzhdi/Nounou-sub000/pkg/logger"
	"github.com/Mzhdi/Nounou-sub000/services"
)

const usage = `usage: migrate <command>

commands:
  migrate              run the legacy migration (backup + transform)
  dry-run              transform and validate only, no backup, no writes
  analyze              classify legacy records without writing
  rollback <backup>    restore the legacy table from a backup
  cleanup [days]       drop backup tables older than N days (default 30)
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	appLog, err := logger.New(os.Getenv("APP_ENV"))
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer appLog.Sync()

	config.InitDB()
	catalog := services.NewCatalogService(config.DB)
	calc := services.NewNutritionCalculator(catalog, appLog)
	svc := services.NewMigrationService(config.DB, calc, appLog)
	ctx := context.Background()

	switch os.Args[1] {
	case "migrate", "dry-run":
		dryRun := os.Args[1] == "dry-run"
		stats, err := svc.Run(ctx, dryRun)
		if err != nil {
			appLog.Fatal("migration failed", "err", err)
		}
		fmt.Printf("state=%s processed=%d migrated=%d errors=%d skipped=%d backup=%s\n",
			stats.State, stats.TotalProcessed, stats.SuccessfullyMigrated,
			stats.Errors, stats.Skipped, stats.Backup)

	case "analyze":
		report, err := svc.Analyze(ctx)
		if err != nil {
			appLog.Fatal("analysis failed", "err", err)
		}
		fmt.Printf("total=%d food=%d recipe=%d hybrid=%d no_reference=%d\n",
			report.Total, report.FoodOnly, report.RecipeOnly, report.Hybrid, report.NoReference)

	case "rollback":
		if len(os.Args) < 3 {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		restored, err := svc.Rollback(ctx, os.Args[2])
		if err != nil {
			appLog.Fatal("rollback failed", "err", err)
		}
		fmt.Printf("restored %d legacy records\n", restored)

	case "cleanup":
		days := 30
		if len(os.Args) > 2 {
			if d, err := strconv.Atoi(os.Args[2]); err == nil {
				days = d
			}
		}
		dropped, err := svc.Cleanup(ctx, days)
		if err != nil {
			appLog.Fatal("cleanup failed", "err", err)
		}
		fmt.Printf("dropped %d backup tables\n", dropped)

	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}
