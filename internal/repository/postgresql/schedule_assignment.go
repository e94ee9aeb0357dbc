package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-dtr/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-dtr/internal/pkg/database"
)

type scheduleAssignmentRepositoryImpl struct {
	db *database.DB
}

func NewScheduleAssignmentRepository(db *database.DB) schedule.AssignmentRepository {
	return &scheduleAssignmentRepositoryImpl{db: db}
}

// ListEffective implements schedule.AssignmentRepository.
func (s *scheduleAssignmentRepositoryImpl) ListEffective(ctx context.Context, employeeID string, date time.Time) ([]schedule.Assignment, error) {
	q := GetQuerier(ctx, s.db)

	query := `
		SELECT id, employee_id, work_schedule_id, shift_label, start_date, end_date, created_at, updated_at
		FROM employee_schedule_assignments
		WHERE employee_id = $1
		  AND start_date <= $2::date
		  AND (end_date IS NULL OR end_date >= $2::date)
		ORDER BY start_date DESC, id ASC
	`

	rows, err := q.Query(ctx, query, employeeID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedule assignments: %w", err)
	}
	defer rows.Close()

	assignments := make([]schedule.Assignment, 0)
	for rows.Next() {
		var a schedule.Assignment
		if err := rows.Scan(
			&a.ID, &a.EmployeeID, &a.WorkScheduleID, &a.ShiftLabel,
			&a.StartDate, &a.EndDate, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan schedule assignment: %w", err)
		}
		assignments = append(assignments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate schedule assignments: %w", err)
	}

	return assignments, nil
}

// ListAssignedEmployeeIDs implements schedule.AssignmentRepository.
func (s *scheduleAssignmentRepositoryImpl) ListAssignedEmployeeIDs(ctx context.Context, date time.Time) ([]string, error) {
	q := GetQuerier(ctx, s.db)

	query := `
		SELECT DISTINCT employee_id
		FROM employee_schedule_assignments
		WHERE start_date <= $1::date
		  AND (end_date IS NULL OR end_date >= $1::date)
		ORDER BY employee_id
	`

	rows, err := q.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query assigned employees: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan employee id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assigned employees: %w", err)
	}

	return ids, nil
}
