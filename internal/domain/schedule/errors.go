package schedule

import "errors"

var (
	// Work Schedule Errors
	ErrWorkScheduleNotFound     = errors.New("work schedule not found")
	ErrInvalidScheduleType      = errors.New("work schedule type must be 'fixed', 'flexible' or 'shifting'")
	ErrInvalidTimeOfDay         = errors.New("invalid time of day, use HH:MM or HH:MM:SS")
	ErrInvalidBreak             = errors.New("invalid break configuration")
	ErrInvalidCoreHours         = errors.New("invalid core hours")
	ErrInvalidNightDifferential = errors.New("invalid night differential window")

	// Employee Schedule Assignment Errors
	ErrAmbiguousAssignment = errors.New("multiple schedule assignments share the same effective date")

	// Validation Errors
	ErrEmployeeIDRequired   = errors.New("employee ID is required")
	ErrDateHasTimeComponent = errors.New("date must be a calendar date without a time component")
)
