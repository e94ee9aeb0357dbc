package attendance

import (
	"context"
	"time"
)

// LogRepository reads raw punches from attendance-log storage.
type LogRepository interface {
	// ListByEmployeeBetween returns punches with from <= timestamp < to, ordered by timestamp.
	ListByEmployeeBetween(ctx context.Context, employeeID string, from, to time.Time) ([]RawPunch, error)
}
