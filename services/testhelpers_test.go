package services

import (
	"fmt"
	"testing"

	"github.com/Mzhdi/Nounou-sub000/models"
	"github.com/Mzhdi/Nounou-sub000/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.FoodItem{},
		&models.Recipe{},
		&models.ConsumptionEntry{},
		&models.DailySummary{},
		&models.DailyGoal{},
		&models.ActivityLog{},
		&models.LegacyMealLog{},
	)
	if err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

type testStack struct {
	db        *gorm.DB
	catalog   *CatalogService
	calc      *NutritionCalculator
	goals     *GoalService
	summaries *SummaryService
	activity  *ActivityLogService
	entries   *EntryService
	migration *MigrationService
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()
	db := openTestDB(t)
	log := logger.Nop()

	catalog := NewCatalogService(db)
	calc := NewNutritionCalculator(catalog, log)
	goals := NewGoalService(db)
	summaries := NewSummaryService(db, goals, log)
	activity := NewActivityLogService(db, log)
	entries := NewEntryService(db, calc, summaries, activity, log)
	migration := NewMigrationService(db, calc, log)

	return &testStack{
		db:        db,
		catalog:   catalog,
		calc:      calc,
		goals:     goals,
		summaries: summaries,
		activity:  activity,
		entries:   entries,
		migration: migration,
	}
}

// seedCatalog installs the reference items shared by the service tests:
// apple at 52 kcal / 0.3 g protein per 100 g, and a 4-serving soup recipe
// at 400 kcal per serving.
func (s *testStack) seedCatalog(t *testing.T) {
	t.Helper()
	apple := models.FoodItem{
		CatalogID: "food-apple",
		Label:     "Apple",
		Per100g:   models.Nutrition{Calories: 52, Protein: 0.3, Carbs: 14, Fat: 0.2, Fiber: 2.4, Sugar: 10.4},
	}
	if err := s.db.Create(&apple).Error; err != nil {
		t.Fatalf("seed food: %v", err)
	}
	soup := models.Recipe{
		CatalogID:     "recipe-soup",
		Title:         "Lentil Soup",
		TotalServings: 4,
		PerServing:    models.Nutrition{Calories: 400, Protein: 18, Carbs: 50, Fat: 12},
	}
	if err := s.db.Create(&soup).Error; err != nil {
		t.Fatalf("seed recipe: %v", err)
	}
}

func f64(v float64) *float64 { return &v }

func str(v string) *string { return &v }
