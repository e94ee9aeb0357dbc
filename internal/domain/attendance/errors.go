package attendance

import "errors"

// Attendance log errors
var (
	ErrInvalidDirection = errors.New("invalid punch direction, use 'in' or 'out'")
	ErrInvalidLogWindow = errors.New("attendance log window end must be after start")
)
