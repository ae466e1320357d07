package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Mzhdi/Nounou-sub000/models"
	"github.com/Mzhdi/Nounou-sub000/pkg/logger"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SummaryService is the aggregation engine. It is stateless: every
// summary is recomputed in full from active entries, never maintained as
// an incremental delta, so repeated recomputes are idempotent and a
// concurrent recompute can only rewrite the same value.
type SummaryService struct {
	db    *gorm.DB
	goals *GoalService
	log   *logger.Logger
}

func NewSummaryService(db *gorm.DB, goals *GoalService, log *logger.Logger) *SummaryService {
	return &SummaryService{db: db, goals: goals, log: log}
}

// RecomputeDailySummary rebuilds the (userID, date) summary from all
// active entries of that day and upserts it.
func (s *SummaryService) RecomputeDailySummary(ctx context.Context, userID uint, date time.Time) (*models.DailySummary, error) {
	start := dayStart(date)
	end := start.AddDate(0, 0, 1)

	var entries []models.ConsumptionEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND consumed_at >= ? AND consumed_at < ? AND is_deleted = ?",
			userID, start, end, false).
		Find(&entries).Error
	if err != nil {
		return nil, &DatabaseError{Op: "summary.load_entries", Err: err}
	}

	var total models.Nutrition
	breakdown := map[string]models.MealTotals{}
	uniqueItems := map[string]struct{}{}
	for _, e := range entries {
		total = total.Add(e.Nutrition)
		mb := breakdown[e.MealType]
		mb.Calories = round2(mb.Calories + e.Nutrition.Calories)
		mb.Protein = round2(mb.Protein + e.Nutrition.Protein)
		mb.Carbs = round2(mb.Carbs + e.Nutrition.Carbs)
		mb.Fat = round2(mb.Fat + e.Nutrition.Fat)
		mb.Entries++
		breakdown[e.MealType] = mb
		uniqueItems[e.Item.ItemType+":"+e.Item.ItemID] = struct{}{}
	}
	total = total.Round()

	breakdownJSON, err := json.Marshal(breakdown)
	if err != nil {
		return nil, &BusinessError{Op: "summary.encode_breakdown", Err: err}
	}

	var progressJSON datatypes.JSON
	goal, err := s.goals.GetActiveGoal(ctx, userID)
	if err != nil {
		// a missing goal snapshot should not block the recompute
		s.log.Warn("goal lookup failed during recompute", "user_id", userID, "err", err)
	} else if p := ComputeProgress(total, goal); p != nil {
		raw, err := json.Marshal(p)
		if err != nil {
			return nil, &BusinessError{Op: "summary.encode_progress", Err: err}
		}
		progressJSON = datatypes.JSON(raw)
	}

	var summary models.DailySummary
	err = s.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, start).
		First(&summary).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &DatabaseError{Op: "summary.load", Err: err}
	}

	summary.UserID = userID
	summary.Date = start
	summary.Total = total
	summary.MealBreakdown = datatypes.JSON(breakdownJSON)
	summary.EntriesCount = len(entries)
	summary.UniqueFoodsCount = len(uniqueItems)
	summary.Progress = progressJSON
	summary.LastCalculated = time.Now()

	if err := s.db.WithContext(ctx).Save(&summary).Error; err != nil {
		return nil, &DatabaseError{Op: "summary.save", Err: err}
	}
	return &summary, nil
}

// GetDailySummary returns the stored summary, computing it lazily on the
// first access to a day that has none yet.
func (s *SummaryService) GetDailySummary(ctx context.Context, userID uint, date time.Time) (*models.DailySummary, error) {
	start := dayStart(date)
	var summary models.DailySummary
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, start).
		First(&summary).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.RecomputeDailySummary(ctx, userID, start)
		}
		return nil, &DatabaseError{Op: "summary.get", Err: err}
	}
	return &summary, nil
}

// ---------- Range queries ----------

type DayTotal struct {
	Date      string           `json:"date"`
	Nutrition models.Nutrition `json:"nutrition"`
	Entries   int              `json:"entries"`
}

type GroupTotal struct {
	Group     string           `json:"group"` // e.g. 2025-W14 or 2025-03
	Nutrition models.Nutrition `json:"nutrition"`
	Entries   int              `json:"entries"`
	Days      int              `json:"days"`
}

type RangeSummary struct {
	From     string           `json:"from"`
	To       string           `json:"to"`
	Total    models.Nutrition `json:"total"`
	Entries  int              `json:"entries"`
	Days     []DayTotal       `json:"days"`
	Groups   []GroupTotal     `json:"groups,omitempty"`
	Progress *GoalProgress    `json:"progress,omitempty"`
}

// Range computes day-bucketed totals over [from, to] directly from active
// entries, then optionally re-buckets the daily totals into week or month
// groups. Group totals are therefore always the sum of their contained
// daily totals.
func (s *SummaryService) Range(ctx context.Context, userID uint, from, to time.Time, groupBy string) (*RangeSummary, error) {
	from = dayStart(from)
	to = dayStart(to)
	if to.Before(from) {
		return nil, &ValidationError{Field: "date_range", Message: "to must be on or after from"}
	}
	if groupBy != "" && groupBy != "week" && groupBy != "month" {
		return nil, &ValidationError{Field: "group_by", Message: "must be week or month"}
	}

	var entries []models.ConsumptionEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND consumed_at >= ? AND consumed_at < ? AND is_deleted = ?",
			userID, from, to.AddDate(0, 0, 1), false).
		Find(&entries).Error
	if err != nil {
		return nil, &DatabaseError{Op: "summary.range", Err: err}
	}

	byDay := map[string]*DayTotal{}
	for _, e := range entries {
		key := dayStart(e.ConsumedAt).Format("2006-01-02")
		dt, ok := byDay[key]
		if !ok {
			dt = &DayTotal{Date: key}
			byDay[key] = dt
		}
		dt.Nutrition = dt.Nutrition.Add(e.Nutrition)
		dt.Entries++
	}

	out := &RangeSummary{
		From: from.Format("2006-01-02"),
		To:   to.Format("2006-01-02"),
	}
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		dt := DayTotal{Date: key}
		if found, ok := byDay[key]; ok {
			dt = *found
			dt.Nutrition = dt.Nutrition.Round()
		}
		out.Days = append(out.Days, dt)
		out.Total = out.Total.Add(dt.Nutrition)
		out.Entries += dt.Entries
	}
	out.Total = out.Total.Round()

	if groupBy != "" {
		out.Groups = groupDays(out.Days, groupBy)
	}

	goal, err := s.goals.GetActiveGoal(ctx, userID)
	if err == nil {
		out.Progress = ComputeProgress(out.Total, goal)
	}

	return out, nil
}

// RangeForPeriod resolves the named period (week/month/year) ending logic
// used by the dashboard endpoints.
func RangeForPeriod(period string, ref time.Time) (time.Time, time.Time, error) {
	ref = dayStart(ref)
	switch period {
	case "week":
		return startOfWeek(ref), startOfWeek(ref).AddDate(0, 0, 6), nil
	case "month":
		first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
		return first, first.AddDate(0, 1, -1), nil
	case "year":
		first := time.Date(ref.Year(), 1, 1, 0, 0, 0, 0, ref.Location())
		return first, first.AddDate(1, 0, -1), nil
	default:
		return time.Time{}, time.Time{}, &ValidationError{Field: "period", Message: "must be week, month or year"}
	}
}

func groupDays(days []DayTotal, groupBy string) []GroupTotal {
	var groups []GroupTotal
	idx := map[string]int{}
	for _, d := range days {
		t, err := time.Parse("2006-01-02", d.Date)
		if err != nil {
			continue
		}
		var key string
		if groupBy == "week" {
			year, week := t.ISOWeek()
			key = fmt.Sprintf("%d-W%02d", year, week)
		} else {
			key = t.Format("2006-01")
		}
		i, ok := idx[key]
		if !ok {
			groups = append(groups, GroupTotal{Group: key})
			i = len(groups) - 1
			idx[key] = i
		}
		groups[i].Nutrition = groups[i].Nutrition.Add(d.Nutrition)
		groups[i].Entries += d.Entries
		groups[i].Days++
	}
	for i := range groups {
		groups[i].Nutrition = groups[i].Nutrition.Round()
	}
	return groups
}

// ---------- Top items ----------

type TopItem struct {
	ItemType      string  `json:"item_type"`
	ItemID        string  `json:"item_id"`
	TimesConsumed int     `json:"times_consumed"`
	TotalQuantity float64 `json:"total_quantity"`
	TotalCalories float64 `json:"total_calories"`
}

// TopItems ranks active entries by consumption count within the window,
// breaking ties by total quantity descending.
func (s *SummaryService) TopItems(ctx context.Context, userID uint, window string, limit int) ([]TopItem, error) {
	if limit <= 0 {
		limit = 10
	}

	q := s.db.WithContext(ctx).
		Model(&models.ConsumptionEntry{}).
		Select("item_type, item_id, COUNT(*) AS times_consumed, "+
			"SUM(quantity + servings) AS total_quantity, SUM(calories) AS total_calories").
		Where("user_id = ? AND is_deleted = ?", userID, false)

	if window != "all" {
		from, _, err := RangeForPeriod(window, time.Now())
		if err != nil {
			return nil, &ValidationError{Field: "window", Message: "must be week, month, year or all"}
		}
		q = q.Where("consumed_at >= ?", from)
	}

	var rows []TopItem
	err := q.Group("item_type, item_id").
		Order("times_consumed DESC, total_quantity DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, &DatabaseError{Op: "summary.top_items", Err: err}
	}
	return rows, nil
}

// ---------- Trends ----------

type TrendPoint struct {
	Date     string  `json:"date"`
	Value    float64 `json:"value"`
	Smoothed float64 `json:"smoothed"`
}

// Trends returns the day-bucketed series for one metric with a trailing
// moving average applied.
func (s *SummaryService) Trends(ctx context.Context, userID uint, metric string, from, to time.Time, window int) ([]TrendPoint, error) {
	if window <= 0 {
		window = 7
	}
	pick, err := metricSelector(metric)
	if err != nil {
		return nil, err
	}

	rng, err := s.Range(ctx, userID, from, to, "")
	if err != nil {
		return nil, err
	}

	points := make([]TrendPoint, len(rng.Days))
	for i, d := range rng.Days {
		points[i] = TrendPoint{Date: d.Date, Value: pick(d.Nutrition)}
	}
	for i := range points {
		lo := i - window + 1
		if lo < 0 {
			lo = 0
		}
		var sum float64
		for j := lo; j <= i; j++ {
			sum += points[j].Value
		}
		points[i].Smoothed = round2(sum / float64(i-lo+1))
	}
	return points, nil
}

func metricSelector(metric string) (func(models.Nutrition) float64, error) {
	switch metric {
	case "calories":
		return func(n models.Nutrition) float64 { return n.Calories }, nil
	case "protein":
		return func(n models.Nutrition) float64 { return n.Protein }, nil
	case "carbs":
		return func(n models.Nutrition) float64 { return n.Carbs }, nil
	case "fat":
		return func(n models.Nutrition) float64 { return n.Fat }, nil
	case "fiber":
		return func(n models.Nutrition) float64 { return n.Fiber }, nil
	case "sugar":
		return func(n models.Nutrition) float64 { return n.Sugar }, nil
	case "sodium":
		return func(n models.Nutrition) float64 { return n.Sodium }, nil
	default:
		return nil, &ValidationError{Field: "metric", Message: "unknown metric " + metric}
	}
}

// ---------- time helpers ----------

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func startOfWeek(t time.Time) time.Time {
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7
	}
	tt := dayStart(t)
	return tt.AddDate(0, 0, -(wd - 1)) // Monday
}
