package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-dtr/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

// schema creates the tables the engine reads and writes. Every statement is
// idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS attendance_logs (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		employee_id TEXT NOT NULL,
		punched_at TIMESTAMPTZ NOT NULL,
		direction TEXT CHECK (direction IN ('in', 'out')),
		source_id TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_attendance_logs_employee_punched_at
		ON attendance_logs (employee_id, punched_at)`,
	`CREATE TABLE IF NOT EXISTS work_schedules (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		start_time TIME NOT NULL,
		end_time TIME NOT NULL,
		work_days INT[] NOT NULL DEFAULT '{1,2,3,4,5}',
		break_start_time TIME,
		break_duration_minutes INT NOT NULL DEFAULT 0,
		core_start_time TIME,
		core_end_time TIME,
		flex_start_time TIME,
		flex_end_time TIME,
		required_hours_per_day NUMERIC(5,2),
		overtime_threshold_hours NUMERIC(5,2),
		nd_enabled BOOLEAN NOT NULL DEFAULT FALSE,
		nd_start_time TIME,
		nd_end_time TIME,
		nd_rate_multiplier NUMERIC(5,2),
		grace_period_minutes INT NOT NULL DEFAULT 0,
		timezone TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		deleted_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS employee_schedule_assignments (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		work_schedule_id TEXT NOT NULL REFERENCES work_schedules (id),
		shift_label TEXT,
		start_date DATE NOT NULL,
		end_date DATE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_schedule_assignments_employee_start
		ON employee_schedule_assignments (employee_id, start_date DESC)`,
	`CREATE TABLE IF NOT EXISTS daily_time_records (
		id UUID PRIMARY KEY,
		employee_id TEXT NOT NULL,
		date DATE NOT NULL,
		shift_label TEXT,
		first_in TIMESTAMPTZ,
		last_out TIMESTAMPTZ,
		punches JSONB NOT NULL DEFAULT '[]',
		total_work_minutes INT NOT NULL DEFAULT 0,
		late_minutes INT NOT NULL DEFAULT 0,
		undertime_minutes INT NOT NULL DEFAULT 0,
		overtime_minutes INT NOT NULL DEFAULT 0,
		night_diff_minutes INT NOT NULL DEFAULT 0,
		night_diff_rate NUMERIC(5,2) NOT NULL DEFAULT 0,
		status TEXT NOT NULL CHECK (status IN ('present', 'absent')),
		needs_review BOOLEAN NOT NULL DEFAULT FALSE,
		review_reason TEXT,
		computed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (employee_id, date)
	)`,
}

// Migrate applies the schema inside one transaction.
func Migrate(ctx context.Context, db *database.DB) error {
	return WithTransaction(ctx, db, func(ctx context.Context, tx pgx.Tx) error {
		for i, stmt := range schema {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("migration statement %d: %w", i+1, err)
			}
		}
		return nil
	})
}
