package dtr

import (
	"context"
	"time"

	"github.com/cmlabs-hris/hris-dtr/internal/domain/attendance"
)

// Service computes and stores Daily Time Records.
type Service interface {
	// CalculateForDate recomputes and persists the record for one employee and calendar date.
	// Calls for the same (employee, date) are serialized; the persist step is a blind upsert.
	CalculateForDate(ctx context.Context, employeeID string, date time.Time) (DailyTimeRecord, error)

	// GetRecord returns the stored record without recomputing it.
	GetRecord(ctx context.Context, employeeID string, date time.Time) (DailyTimeRecord, error)

	// Preview runs the punch pipeline for the given punches against the employee's
	// schedule on date. Nothing is read from or written to the stores except the schedule.
	// The boolean reports whether a schedule was found.
	Preview(ctx context.Context, employeeID string, date time.Time, punches []attendance.RawPunch) (ProcessResult, bool, error)
}

// BatchRunner recomputes a range of dates for many employees.
type BatchRunner interface {
	// Run recomputes every date in [from, to]. With no employeeIDs, every employee
	// with an effective assignment on each date is processed.
	Run(ctx context.Context, from, to time.Time, employeeIDs []string) (BatchSummary, error)
}
