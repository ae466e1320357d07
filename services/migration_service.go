package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Mzhdi/Nounou-sub000/models"
	"github.com/Mzhdi/Nounou-sub000/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MigrationState is the saga position of a migration run. Rollback is
// only valid from StateMigrated back to StateBackedUp; modeling the
// states explicitly keeps the preconditions checkable instead of spread
// across ad hoc flags.
type MigrationState string

const (
	StateNotStarted MigrationState = "not_started"
	StateBackedUp   MigrationState = "backed_up"
	StateMigrated   MigrationState = "migrated"
)

const backupPrefix = "legacy_meal_logs_backup_"

var backupNameRe = regexp.MustCompile(`^legacy_meal_logs_backup_[0-9]{14}_[0-9a-f]{8}$`)

type MigrationStats struct {
	TotalProcessed       int            `json:"total_processed"`
	SuccessfullyMigrated int            `json:"successfully_migrated"`
	Errors               int            `json:"errors"`
	Skipped              int            `json:"skipped"`
	Backup               string         `json:"backup,omitempty"`
	State                MigrationState `json:"state"`
	DryRun               bool           `json:"dry_run"`
}

type MigrationAnalysis struct {
	Total       int `json:"total"`
	FoodOnly    int `json:"food_only"`
	RecipeOnly  int `json:"recipe_only"`
	Hybrid      int `json:"hybrid"` // both references; migrates as recipe
	NoReference int `json:"no_reference"`
}

// MigrationService converts legacy meal logs into unified consumption
// entries in fixed-size batches, behind a verified backup. It runs as a
// single sequential loop; batches are never parallelized so memory stays
// bounded and the progress log stays ordered.
type MigrationService struct {
	db        *gorm.DB
	calc      *NutritionCalculator
	log       *logger.Logger
	batchSize int
	state     MigrationState
	backup    string
}

func NewMigrationService(db *gorm.DB, calc *NutritionCalculator, log *logger.Logger) *MigrationService {
	return &MigrationService{
		db:        db,
		calc:      calc,
		log:       log,
		batchSize: 500,
		state:     StateNotStarted,
	}
}

func (m *MigrationService) State() MigrationState { return m.state }

// Run executes the migration. With dryRun the records are transformed
// and validated but nothing is backed up or written.
func (m *MigrationService) Run(ctx context.Context, dryRun bool) (*MigrationStats, error) {
	stats := &MigrationStats{State: m.state, DryRun: dryRun}

	if !dryRun {
		if m.state != StateNotStarted {
			return nil, &ValidationError{Field: "migration", Message: "already ran in this process; roll back first"}
		}
		backup, err := m.backupLegacy(ctx)
		if err != nil {
			return nil, err
		}
		m.state = StateBackedUp
		m.backup = backup
		stats.Backup = backup
		stats.State = m.state
		m.log.Info("legacy table backed up", "backup", backup)
	}

	var lastID uint
	for {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		var batch []models.LegacyMealLog
		err := m.db.WithContext(ctx).
			Where("id > ?", lastID).
			Order("id").
			Limit(m.batchSize).
			Find(&batch).Error
		if err != nil {
			return stats, &DatabaseError{Op: "migration.read_batch", Err: err}
		}
		if len(batch) == 0 {
			break
		}
		lastID = batch[len(batch)-1].ID

		var entries []*models.ConsumptionEntry
		for _, rec := range batch {
			stats.TotalProcessed++
			entry, err := m.transform(ctx, rec)
			if err != nil {
				if errors.Is(err, ErrNoReference) {
					stats.Skipped++
					continue
				}
				stats.Errors++
				m.log.Warn("legacy record failed to transform", "legacy_id", rec.ID, "err", err)
				continue
			}
			entries = append(entries, entry)
		}

		if dryRun {
			stats.SuccessfullyMigrated += len(entries)
			continue
		}

		migrated, failed := m.writeBatch(ctx, entries)
		stats.SuccessfullyMigrated += migrated
		stats.Errors += failed

		m.log.Info("migrated batch",
			"processed", stats.TotalProcessed,
			"migrated", stats.SuccessfullyMigrated,
			"errors", stats.Errors,
			"skipped", stats.Skipped)
	}

	if !dryRun {
		m.state = StateMigrated
		stats.State = m.state
	}
	return stats, nil
}

// transform classifies and converts one legacy row. Classification uses
// the same priority rule as live ingestion: a recipe reference wins over
// a food reference when both are present.
func (m *MigrationService) transform(ctx context.Context, rec models.LegacyMealLog) (*models.ConsumptionEntry, error) {
	draft, err := NormalizeLegacy(rec)
	if err != nil {
		return nil, err
	}

	res := m.calc.Calculate(ctx, draft)
	entry := &models.ConsumptionEntry{
		UserID:       rec.UserID,
		Item:         draft.Item,
		MealType:     draft.MealType,
		ConsumedAt:   draft.ConsumedAt,
		EntryMethod:  draft.EntryMethod,
		Nutrition:    res.Nutrition,
		Confidence:   res.Confidence,
		QualityScore: res.QualityScore,
		IsVerified:   res.IsVerified,
		Notes:        draft.Notes,
	}
	entry.AppendVersion(models.VersionRecord{
		Action: "migrated",
		Reason: fmt.Sprintf("legacy record %d", rec.ID),
		At:     time.Now(),
	})
	return entry, nil
}

// writeBatch bulk-inserts a batch; on bulk failure it falls back to
// per-record inserts so one bad record never loses the rest.
func (m *MigrationService) writeBatch(ctx context.Context, entries []*models.ConsumptionEntry) (migrated, failed int) {
	if len(entries) == 0 {
		return 0, 0
	}
	if err := m.db.WithContext(ctx).Create(entries).Error; err == nil {
		return len(entries), 0
	}

	m.log.Warn("bulk insert failed, retrying per record", "batch_size", len(entries))
	for _, e := range entries {
		e.ID = 0
		if err := m.db.WithContext(ctx).Create(e).Error; err != nil {
			failed++
			m.log.Warn("record insert failed", "item_id", e.Item.ItemID, "err", err)
		} else {
			migrated++
		}
	}
	return migrated, failed
}

// backupLegacy takes a point-in-time copy of the legacy table under a
// timestamped name and verifies row-count equality before anything is
// written. On verification failure the copy is dropped and the saga
// stays at StateNotStarted.
func (m *MigrationService) backupLegacy(ctx context.Context) (string, error) {
	name := fmt.Sprintf("%s%s_%s",
		backupPrefix,
		time.Now().Format("20060102150405"),
		uuid.NewString()[:8])

	if err := m.db.WithContext(ctx).
		Exec(fmt.Sprintf("CREATE TABLE %s AS SELECT * FROM legacy_meal_logs", name)).Error; err != nil {
		return "", &DatabaseError{Op: "migration.backup", Err: err}
	}

	var sourceCount, backupCount int64
	if err := m.db.WithContext(ctx).Model(&models.LegacyMealLog{}).Count(&sourceCount).Error; err != nil {
		return "", &DatabaseError{Op: "migration.count_source", Err: err}
	}
	if err := m.db.WithContext(ctx).Table(name).Count(&backupCount).Error; err != nil {
		return "", &DatabaseError{Op: "migration.count_backup", Err: err}
	}

	if sourceCount != backupCount {
		_ = m.db.WithContext(ctx).Exec("DROP TABLE " + name).Error
		return "", &BusinessError{
			Op:  "migration.verify_backup",
			Err: fmt.Errorf("backup row count %d does not match source %d", backupCount, sourceCount),
		}
	}
	return name, nil
}

// Analyze classifies every legacy record without transforming or writing
// anything; used to size a migration before running it.
func (m *MigrationService) Analyze(ctx context.Context) (*MigrationAnalysis, error) {
	out := &MigrationAnalysis{}
	var lastID uint
	for {
		var batch []models.LegacyMealLog
		err := m.db.WithContext(ctx).
			Where("id > ?", lastID).
			Order("id").
			Limit(m.batchSize).
			Find(&batch).Error
		if err != nil {
			return nil, &DatabaseError{Op: "migration.analyze", Err: err}
		}
		if len(batch) == 0 {
			break
		}
		lastID = batch[len(batch)-1].ID

		for _, rec := range batch {
			out.Total++
			hasFood := rec.FoodID != ""
			hasRecipe := rec.RecipeID != ""
			switch {
			case hasFood && hasRecipe:
				out.Hybrid++
			case hasRecipe:
				out.RecipeOnly++
			case hasFood:
				out.FoodOnly++
			default:
				out.NoReference++
			}
		}
	}
	return out, nil
}

// Rollback restores the legacy table from the named backup: the live
// table is emptied and refilled from the copy. Returns the restored row
// count. In-process, the saga moves from StateMigrated back to
// StateBackedUp; a fresh process may roll back any existing backup.
func (m *MigrationService) Rollback(ctx context.Context, backupName string) (int64, error) {
	if !backupNameRe.MatchString(backupName) {
		return 0, &ValidationError{Field: "backup_name", Message: "not a recognized backup table name"}
	}
	if m.state != StateMigrated && m.state != StateNotStarted {
		return 0, &ValidationError{Field: "migration", Message: "rollback is only valid after a completed migration"}
	}

	if !m.db.Migrator().HasTable(backupName) {
		return 0, &NotFoundError{Resource: "backup table"}
	}

	var backupCount int64
	if err := m.db.WithContext(ctx).Table(backupName).Count(&backupCount).Error; err != nil {
		return 0, &DatabaseError{Op: "migration.count_backup", Err: err}
	}
	if backupCount == 0 {
		return 0, &BusinessError{Op: "migration.rollback", Err: errors.New("backup table is empty, refusing to restore")}
	}

	if err := m.db.WithContext(ctx).Exec("DELETE FROM legacy_meal_logs").Error; err != nil {
		return 0, &DatabaseError{Op: "migration.clear_live", Err: err}
	}
	if err := m.db.WithContext(ctx).
		Exec(fmt.Sprintf("INSERT INTO legacy_meal_logs SELECT * FROM %s", backupName)).Error; err != nil {
		return 0, &DatabaseError{Op: "migration.restore", Err: err}
	}

	var restored int64
	if err := m.db.WithContext(ctx).Model(&models.LegacyMealLog{}).Count(&restored).Error; err != nil {
		return 0, &DatabaseError{Op: "migration.count_restored", Err: err}
	}

	if m.state == StateMigrated {
		m.state = StateBackedUp
	}
	m.log.Info("legacy table restored from backup", "backup", backupName, "restored", restored)
	return restored, nil
}

// Cleanup drops backup tables older than the given number of days.
func (m *MigrationService) Cleanup(ctx context.Context, days int) (int, error) {
	if days <= 0 {
		days = 30
	}
	cutoff := time.Now().AddDate(0, 0, -days)

	tables, err := m.db.Migrator().GetTables()
	if err != nil {
		return 0, &DatabaseError{Op: "migration.list_tables", Err: err}
	}

	dropped := 0
	for _, table := range tables {
		if !strings.HasPrefix(table, backupPrefix) || !backupNameRe.MatchString(table) {
			continue
		}
		stamp := strings.TrimPrefix(table, backupPrefix)[:14]
		created, err := time.ParseInLocation("20060102150405", stamp, time.Local)
		if err != nil || created.After(cutoff) {
			continue
		}
		if err := m.db.WithContext(ctx).Exec("DROP TABLE " + table).Error; err != nil {
			m.log.Warn("failed to drop backup table", "table", table, "err", err)
			continue
		}
		dropped++
		m.log.Info("dropped old backup table", "table", table)
	}
	return dropped, nil
}
