package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-dtr/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-dtr/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

type workScheduleRepositoryImpl struct {
	db *database.DB
}

func NewWorkScheduleRepository(db *database.DB) schedule.WorkScheduleRepository {
	return &workScheduleRepositoryImpl{db: db}
}

// GetByID implements schedule.WorkScheduleRepository.
func (w *workScheduleRepositoryImpl) GetByID(ctx context.Context, id string) (schedule.WorkScheduleConfig, error) {
	q := GetQuerier(ctx, w.db)

	query := `
		SELECT id, name, type, start_time, end_time, work_days,
			   break_start_time, break_duration_minutes,
			   core_start_time, core_end_time, flex_start_time, flex_end_time,
			   required_hours_per_day, overtime_threshold_hours,
			   nd_enabled, nd_start_time, nd_end_time, nd_rate_multiplier,
			   grace_period_minutes, COALESCE(timezone, ''),
			   created_at, updated_at
		FROM work_schedules
		WHERE id = $1 AND deleted_at IS NULL
	`

	var (
		cfg                schedule.WorkScheduleConfig
		scheduleType       string
		startTime, endTime pgtype.Time
		workDays           []int32
		breakStart         pgtype.Time
		coreStart, coreEnd pgtype.Time
		flexStart, flexEnd pgtype.Time
		overtimeThreshold  decimal.NullDecimal
		ndStart, ndEnd     pgtype.Time
		ndRate             decimal.NullDecimal
	)

	err := q.QueryRow(ctx, query, id).Scan(
		&cfg.ID, &cfg.Name, &scheduleType, &startTime, &endTime, &workDays,
		&breakStart, &cfg.Break.DurationMinutes,
		&coreStart, &coreEnd, &flexStart, &flexEnd,
		&cfg.RequiredHoursPerDay, &overtimeThreshold,
		&cfg.NightDifferential.Enabled, &ndStart, &ndEnd, &ndRate,
		&cfg.GracePeriodMinutes, &cfg.Timezone,
		&cfg.CreatedAt, &cfg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.WorkScheduleConfig{}, fmt.Errorf("work schedule %s: %w", id, schedule.ErrWorkScheduleNotFound)
		}
		return schedule.WorkScheduleConfig{}, fmt.Errorf("failed to get work schedule: %w", err)
	}

	cfg.Type = schedule.ScheduleType(scheduleType)
	cfg.StartTime = timeOfDay(startTime)
	cfg.EndTime = timeOfDay(endTime)
	cfg.WorkDays = isoWeekdays(workDays)
	cfg.Break.StartTime = timeOfDayPtr(breakStart)
	cfg.CoreHours = timeRange(coreStart, coreEnd)
	cfg.FlexibleWindow = timeRange(flexStart, flexEnd)
	if overtimeThreshold.Valid {
		cfg.OvertimeRules.DailyThresholdHours = overtimeThreshold.Decimal
	}
	cfg.NightDifferential.StartTime = timeOfDay(ndStart)
	cfg.NightDifferential.EndTime = timeOfDay(ndEnd)
	cfg.NightDifferential.RateMultiplier = decimal.NewFromInt(1)
	if ndRate.Valid {
		cfg.NightDifferential.RateMultiplier = ndRate.Decimal
	}

	return cfg, nil
}

func timeOfDay(t pgtype.Time) schedule.TimeOfDay {
	if !t.Valid {
		return 0
	}
	return schedule.TimeOfDay(time.Duration(t.Microseconds) * time.Microsecond)
}

func timeOfDayPtr(t pgtype.Time) *schedule.TimeOfDay {
	if !t.Valid {
		return nil
	}
	tod := timeOfDay(t)
	return &tod
}

func timeRange(start, end pgtype.Time) *schedule.TimeRange {
	if !start.Valid || !end.Valid {
		return nil
	}
	return &schedule.TimeRange{Start: timeOfDay(start), End: timeOfDay(end)}
}

// isoWeekdays maps ISO day numbers (1 = Monday ... 7 = Sunday) to time.Weekday.
func isoWeekdays(days []int32) []time.Weekday {
	out := make([]time.Weekday, 0, len(days))
	for _, d := range days {
		if d < 1 || d > 7 {
			continue
		}
		out = append(out, time.Weekday(d%7))
	}
	return out
}
