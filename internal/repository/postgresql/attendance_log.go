package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-dtr/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-dtr/internal/pkg/database"
)

type attendanceLogRepositoryImpl struct {
	db *database.DB
}

func NewAttendanceLogRepository(db *database.DB) attendance.LogRepository {
	return &attendanceLogRepositoryImpl{db: db}
}

// ListByEmployeeBetween implements attendance.LogRepository.
func (r *attendanceLogRepositoryImpl) ListByEmployeeBetween(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.RawPunch, error) {
	if !to.After(from) {
		return nil, attendance.ErrInvalidLogWindow
	}

	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, punched_at, COALESCE(direction, ''), COALESCE(source_id, '')
		FROM attendance_logs
		WHERE employee_id = $1
		  AND punched_at >= $2
		  AND punched_at < $3
		ORDER BY punched_at ASC, id ASC
	`

	rows, err := q.Query(ctx, query, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance logs: %w", err)
	}
	defer rows.Close()

	punches := make([]attendance.RawPunch, 0)
	for rows.Next() {
		var (
			p         attendance.RawPunch
			direction string
		)
		if err := rows.Scan(&p.ID, &p.EmployeeID, &p.Timestamp, &direction, &p.SourceID); err != nil {
			return nil, fmt.Errorf("failed to scan attendance log: %w", err)
		}
		p.Direction, err = attendance.ParseDirection(direction)
		if err != nil {
			return nil, fmt.Errorf("attendance log %s: %w", p.ID, err)
		}
		punches = append(punches, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance logs: %w", err)
	}

	return punches, nil
}
