package services

import (
	"context"
	"errors"
	"testing"

	"github.com/Mzhdi/Nounou-sub000/models"
)

// seedLegacy installs one row of each migration class: plain food, plain
// recipe, hybrid (both references), no reference, and an invalid amount.
func (s *testStack) seedLegacy(t *testing.T) {
	t.Helper()
	rows := []models.LegacyMealLog{
		{UserID: 1, FoodID: "food-apple", FoodName: "Apple", Amount: 150, Unit: "g", MealType: "lunch", LoggedAt: mar1},
		{UserID: 1, RecipeID: "recipe-soup", ServingSize: 2, TotalServings: 4, MealType: "dinner", LoggedAt: mar1},
		{UserID: 1, FoodID: "food-apple", RecipeID: "recipe-soup", ServingSize: 1, TotalServings: 4, MealType: "dinner", LoggedAt: mar2},
		{UserID: 1, MealType: "snack", LoggedAt: mar2},
		{UserID: 1, FoodID: "food-apple", Amount: -50, Unit: "g", MealType: "lunch", LoggedAt: mar2},
	}
	for i := range rows {
		if err := s.db.Create(&rows[i]).Error; err != nil {
			t.Fatalf("seed legacy row %d: %v", i, err)
		}
	}
}

func TestMigrationDryRunWritesNothing(t *testing.T) {
	s := newTestStack(t)
	s.seedCatalog(t)
	s.seedLegacy(t)
	ctx := context.Background()

	stats, err := s.migration.Run(ctx, true)
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}

	if stats.TotalProcessed != 5 || stats.SuccessfullyMigrated != 3 || stats.Skipped != 1 || stats.Errors != 1 {
		t.Fatalf("stats = %+v, want 5 processed / 3 migrated / 1 skipped / 1 error", stats)
	}
	if stats.Backup != "" {
		t.Fatalf("dry run took a backup: %s", stats.Backup)
	}
	if s.migration.State() != StateNotStarted {
		t.Fatalf("state = %s, want not_started after dry run", s.migration.State())
	}

	var count int64
	s.db.Model(&models.ConsumptionEntry{}).Count(&count)
	if count != 0 {
		t.Fatalf("entries written during dry run: %d", count)
	}
}

func TestMigrationRunReconciles(t *testing.T) {
	s := newTestStack(t)
	s.seedCatalog(t)
	s.seedLegacy(t)
	ctx := context.Background()

	stats, err := s.migration.Run(ctx, false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if got := stats.SuccessfullyMigrated + stats.Errors + stats.Skipped; got != stats.TotalProcessed {
		t.Fatalf("reconciliation broken: %d migrated + %d errors + %d skipped != %d processed",
			stats.SuccessfullyMigrated, stats.Errors, stats.Skipped, stats.TotalProcessed)
	}
	if stats.SuccessfullyMigrated != 3 || stats.Skipped != 1 || stats.Errors != 1 {
		t.Fatalf("stats = %+v, want 3 migrated / 1 skipped / 1 error", stats)
	}
	if s.migration.State() != StateMigrated {
		t.Fatalf("state = %s, want migrated", s.migration.State())
	}

	// backup exists and holds a full copy of the source
	if stats.Backup == "" || !backupNameRe.MatchString(stats.Backup) {
		t.Fatalf("backup name = %q, want timestamped backup table", stats.Backup)
	}
	if !s.db.Migrator().HasTable(stats.Backup) {
		t.Fatalf("backup table %s missing", stats.Backup)
	}
	var backupCount int64
	s.db.Table(stats.Backup).Count(&backupCount)
	if backupCount != 5 {
		t.Fatalf("backup rows = %d, want 5", backupCount)
	}

	var entries []models.ConsumptionEntry
	if err := s.db.Order("id").Find(&entries).Error; err != nil {
		t.Fatalf("load entries: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}

	// plain food row keeps its amount
	if entries[0].Item.ItemType != models.ItemTypeFood || entries[0].Nutrition.Calories != 78 {
		t.Fatalf("food entry = %+v, want 150 g apple at 78 kcal", entries[0])
	}
	// plain recipe row: 2 servings of the soup
	if entries[1].Item.ItemType != models.ItemTypeRecipe || entries[1].Nutrition.Calories != 800 {
		t.Fatalf("recipe entry = %+v, want 2 servings at 800 kcal", entries[1])
	}
	// hybrid row migrates as a recipe entry
	if entries[2].Item.ItemType != models.ItemTypeRecipe || entries[2].Item.ItemID != "recipe-soup" {
		t.Fatalf("hybrid entry = %+v, want recipe", entries[2])
	}

	log := entries[0].VersionLog()
	if len(log) != 1 || log[0].Action != "migrated" || log[0].Reason == "" {
		t.Fatalf("version log = %+v, want migrated record referencing the legacy id", log)
	}
}

func TestMigrationRefusesSecondRun(t *testing.T) {
	s := newTestStack(t)
	s.seedCatalog(t)
	s.seedLegacy(t)
	ctx := context.Background()

	if _, err := s.migration.Run(ctx, false); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, err := s.migration.Run(ctx, false); !IsValidation(err) {
		t.Fatalf("second run: %v, want ValidationError", err)
	}
}

func TestMigrationAnalyze(t *testing.T) {
	s := newTestStack(t)
	s.seedCatalog(t)
	s.seedLegacy(t)

	a, err := s.migration.Analyze(context.Background())
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	want := MigrationAnalysis{Total: 5, FoodOnly: 2, RecipeOnly: 1, Hybrid: 1, NoReference: 1}
	if *a != want {
		t.Fatalf("analysis = %+v, want %+v", *a, want)
	}
}

func TestRollbackRestoresLegacyTable(t *testing.T) {
	s := newTestStack(t)
	s.seedCatalog(t)
	s.seedLegacy(t)
	ctx := context.Background()

	stats, err := s.migration.Run(ctx, false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	// damage the live table after migration
	if err := s.db.Exec("DELETE FROM legacy_meal_logs").Error; err != nil {
		t.Fatalf("clear live table: %v", err)
	}

	restored, err := s.migration.Rollback(ctx, stats.Backup)
	if err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if restored != 5 {
		t.Fatalf("restored = %d, want 5", restored)
	}
	if s.migration.State() != StateBackedUp {
		t.Fatalf("state = %s, want backed_up after rollback", s.migration.State())
	}

	var count int64
	s.db.Model(&models.LegacyMealLog{}).Count(&count)
	if count != 5 {
		t.Fatalf("legacy rows = %d, want 5", count)
	}
}

func TestRollbackValidatesBackupName(t *testing.T) {
	s := newTestStack(t)
	ctx := context.Background()

	if _, err := s.migration.Rollback(ctx, "legacy_meal_logs; DROP TABLE users"); !IsValidation(err) {
		t.Fatalf("hostile name: %v, want ValidationError", err)
	}
	if _, err := s.migration.Rollback(ctx, "legacy_meal_logs_backup_20240101000000_deadbeef"); !IsNotFound(err) {
		t.Fatalf("missing table: %v, want NotFoundError", err)
	}
}

func TestCleanupDropsOnlyExpiredBackups(t *testing.T) {
	s := newTestStack(t)
	s.seedCatalog(t)
	s.seedLegacy(t)
	ctx := context.Background()

	stats, err := s.migration.Run(ctx, false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	old := "legacy_meal_logs_backup_20200101000000_abcdef12"
	if err := s.db.Exec("CREATE TABLE " + old + " AS SELECT * FROM legacy_meal_logs").Error; err != nil {
		t.Fatalf("create old backup: %v", err)
	}

	dropped, err := s.migration.Cleanup(ctx, 30)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if dropped != 1 {
		t.Fatalf("dropped = %d, want 1", dropped)
	}
	if s.db.Migrator().HasTable(old) {
		t.Fatalf("expired backup %s still present", old)
	}
	if !s.db.Migrator().HasTable(stats.Backup) {
		t.Fatalf("fresh backup %s was dropped", stats.Backup)
	}
}

func TestMigrationHonorsContextCancellation(t *testing.T) {
	s := newTestStack(t)
	s.seedCatalog(t)
	s.seedLegacy(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.migration.Run(ctx, true)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled run: %v, want context.Canceled", err)
	}
}
