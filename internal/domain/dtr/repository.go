package dtr

import (
	"context"
	"time"
)

type DailyTimeRecordRepository interface {
	// Upsert replaces any stored record for (EmployeeID, Date).
	Upsert(ctx context.Context, record DailyTimeRecord) error

	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (DailyTimeRecord, error)
}
