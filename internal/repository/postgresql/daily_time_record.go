package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-dtr/internal/domain/dtr"
	"github.com/cmlabs-hris/hris-dtr/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type dailyTimeRecordRepositoryImpl struct {
	db *database.DB
}

func NewDailyTimeRecordRepository(db *database.DB) dtr.DailyTimeRecordRepository {
	return &dailyTimeRecordRepositoryImpl{db: db}
}

// Upsert implements dtr.DailyTimeRecordRepository. A transaction-scoped
// advisory lock on (employee_id, date) serializes writers across processes.
func (r *dailyTimeRecordRepositoryImpl) Upsert(ctx context.Context, record dtr.DailyTimeRecord) error {
	punches, err := json.Marshal(record.Punches)
	if err != nil {
		return fmt.Errorf("failed to encode punches: %w", err)
	}

	key := record.EmployeeID + "|" + record.Date.Format("2006-01-02")

	return WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
			return fmt.Errorf("failed to lock daily time record: %w", err)
		}

		query := `
			INSERT INTO daily_time_records (
				id, employee_id, date, shift_label, first_in, last_out, punches,
				total_work_minutes, late_minutes, undertime_minutes, overtime_minutes,
				night_diff_minutes, night_diff_rate, status, needs_review, review_reason,
				computed_at
			)
			VALUES ($1, $2, $3::date, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW())
			ON CONFLICT (employee_id, date) DO UPDATE SET
				shift_label = EXCLUDED.shift_label,
				first_in = EXCLUDED.first_in,
				last_out = EXCLUDED.last_out,
				punches = EXCLUDED.punches,
				total_work_minutes = EXCLUDED.total_work_minutes,
				late_minutes = EXCLUDED.late_minutes,
				undertime_minutes = EXCLUDED.undertime_minutes,
				overtime_minutes = EXCLUDED.overtime_minutes,
				night_diff_minutes = EXCLUDED.night_diff_minutes,
				night_diff_rate = EXCLUDED.night_diff_rate,
				status = EXCLUDED.status,
				needs_review = EXCLUDED.needs_review,
				review_reason = EXCLUDED.review_reason,
				computed_at = EXCLUDED.computed_at
		`

		_, err := GetQuerier(ctx, r.db).Exec(ctx, query,
			record.ID, record.EmployeeID, record.Date, record.ShiftLabel,
			record.FirstIn, record.LastOut, punches,
			record.TotalWorkMinutes, record.LateMinutes, record.UndertimeMinutes, record.OvertimeMinutes,
			record.NightDiffMinutes, record.NightDiffRate, string(record.Status), record.NeedsReview, record.ReviewReason,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert daily time record: %w", err)
		}
		return nil
	})
}

// GetByEmployeeAndDate implements dtr.DailyTimeRecordRepository.
func (r *dailyTimeRecordRepositoryImpl) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (dtr.DailyTimeRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, date, shift_label, first_in, last_out, punches,
			   total_work_minutes, late_minutes, undertime_minutes, overtime_minutes,
			   night_diff_minutes, night_diff_rate, status, needs_review, review_reason
		FROM daily_time_records
		WHERE employee_id = $1 AND date = $2::date
	`

	var (
		rec     dtr.DailyTimeRecord
		punches []byte
		rate    decimal.NullDecimal
		status  string
	)

	err := q.QueryRow(ctx, query, employeeID, date).Scan(
		&rec.ID, &rec.EmployeeID, &rec.Date, &rec.ShiftLabel, &rec.FirstIn, &rec.LastOut, &punches,
		&rec.TotalWorkMinutes, &rec.LateMinutes, &rec.UndertimeMinutes, &rec.OvertimeMinutes,
		&rec.NightDiffMinutes, &rate, &status, &rec.NeedsReview, &rec.ReviewReason,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dtr.DailyTimeRecord{}, dtr.ErrRecordNotFound
		}
		return dtr.DailyTimeRecord{}, fmt.Errorf("failed to get daily time record: %w", err)
	}

	if err := json.Unmarshal(punches, &rec.Punches); err != nil {
		return dtr.DailyTimeRecord{}, fmt.Errorf("failed to decode punches: %w", err)
	}
	rec.Status = dtr.Status(status)
	if rate.Valid {
		rec.NightDiffRate = rate.Decimal
	}

	return rec, nil
}
