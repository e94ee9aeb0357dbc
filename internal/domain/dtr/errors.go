package dtr

import "errors"

var (
	ErrRecordNotFound     = errors.New("daily time record not found")
	ErrEmployeeIDRequired = errors.New("employee ID is required")
	ErrInvalidDateFormat  = errors.New("invalid date format, use YYYY-MM-DD")
	ErrInvalidDateRange   = errors.New("end date must not be before start date")
	ErrDateRangeTooLarge  = errors.New("date range must not exceed 62 days")
)
