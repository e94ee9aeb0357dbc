package schedule

import (
	"context"
	"time"
)

type WorkScheduleRepository interface {
	GetByID(ctx context.Context, id string) (WorkScheduleConfig, error)
}

type AssignmentRepository interface {
	// ListEffective returns the assignments covering date, most recent StartDate first.
	ListEffective(ctx context.Context, employeeID string, date time.Time) ([]Assignment, error)

	// ListAssignedEmployeeIDs returns every employee with an assignment covering date.
	ListAssignedEmployeeIDs(ctx context.Context, date time.Time) ([]string, error)
}
