package services

import (
	"context"
	"fmt"
	"sort"
	"time"
	"watchtime/internal/models"
	"watchtime/internal/storage/interfaces"
	"watchtime/internal/structures"

	"github.com/coder/quartz"
)

// ReportServiceInterface is the read side. It never writes, so legacy
// records are upgraded in memory only; the engine rewrites them on the next
// update for that day.
type ReportServiceInterface interface {
	Today() string
	Day(ctx context.Context, dayKey string) (*models.DailyRecord, error)
	Range(ctx context.Context, from, to string) (*models.RangeSummary, error)
	Days(ctx context.Context) ([]string, error)
}

type ReportService struct {
	store    interfaces.StoreInterface
	clock    quartz.Clock
	location *time.Location
	maxDays  int
}

func NewReportService(conf *structures.Config, store interfaces.StoreInterface) ReportServiceInterface {
	return NewReportServiceWithClock(conf, store, quartz.NewReal())
}

func NewReportServiceWithClock(conf *structures.Config, store interfaces.StoreInterface, clock quartz.Clock) *ReportService {
	return &ReportService{
		store:    store,
		clock:    clock,
		location: loadLocation(conf.Aggregation.Timezone),
		maxDays:  conf.Aggregation.MaxRangeDays,
	}
}

func (rs *ReportService) Today() string {
	return models.DayKey(rs.clock.Now(), rs.location)
}

func (rs *ReportService) Day(ctx context.Context, dayKey string) (*models.DailyRecord, error) {
	if !models.IsDayKey(dayKey) {
		return nil, fmt.Errorf("%w %q", models.ErrInvalidDayKey, dayKey)
	}
	raw, err := rs.store.Get(ctx, dayKey)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dayKey, err)
	}
	rec, _, err := models.DecodeDailyRecord(raw[dayKey])
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", dayKey, err)
	}
	return rec, nil
}

// Range rolls up every day from..to inclusive. Days without a record count
// as empty.
func (rs *ReportService) Range(ctx context.Context, from, to string) (*models.RangeSummary, error) {
	keys, err := models.DayRange(from, to, rs.maxDays)
	if err != nil {
		return nil, err
	}
	raw, err := rs.store.Get(ctx, keys...)
	if err != nil {
		return nil, fmt.Errorf("read range: %w", err)
	}

	records := make([]*models.DailyRecord, 0, len(keys))
	for _, k := range keys {
		rec, _, err := models.DecodeDailyRecord(raw[k])
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", k, err)
		}
		records = append(records, rec)
	}

	summary := models.Rollup(records)
	summary.From = keys[0]
	summary.To = keys[len(keys)-1]
	return summary, nil
}

// Days lists stored day-keys in ascending order, skipping unrelated keys.
func (rs *ReportService) Days(ctx context.Context) ([]string, error) {
	keys, err := rs.store.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	days := make([]string, 0, len(keys))
	for _, k := range keys {
		if models.IsDayKey(k) {
			days = append(days, k)
		}
	}
	sort.Strings(days)
	return days, nil
}
