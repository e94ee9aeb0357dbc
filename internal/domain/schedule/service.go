package schedule

import (
	"context"
	"time"
)

// Resolver maps (employee, date) to the shift that applies on that date.
type Resolver interface {
	// Resolve returns nil without error when no schedule applies.
	Resolve(ctx context.Context, employeeID string, date time.Time) (*ResolvedSchedule, error)
}
