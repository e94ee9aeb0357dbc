package schedule

import (
	"time"

	"github.com/cmlabs-hris/hris-dtr/internal/domain/attendance"
	"github.com/shopspring/decimal"
)

type ScheduleType string

const (
	ScheduleTypeFixed    ScheduleType = "fixed"
	ScheduleTypeFlexible ScheduleType = "flexible"
	ScheduleTypeShifting ScheduleType = "shifting"
)

type BreakConfig struct {
	StartTime       *TimeOfDay
	DurationMinutes int
}

type OvertimeRules struct {
	DailyThresholdHours decimal.Decimal
}

// ThresholdMinutes converts the daily threshold to whole minutes.
func (o OvertimeRules) ThresholdMinutes() int {
	return hoursToMinutes(o.DailyThresholdHours)
}

func hoursToMinutes(h decimal.Decimal) int {
	return int(h.Mul(decimal.NewFromInt(60)).IntPart())
}

type NightDifferential struct {
	Enabled        bool
	StartTime      TimeOfDay
	EndTime        TimeOfDay
	RateMultiplier decimal.Decimal
}

func (n NightDifferential) Window() TimeRange {
	return TimeRange{Start: n.StartTime, End: n.EndTime}
}

type WorkScheduleConfig struct {
	ID                  string
	Name                string
	Type                ScheduleType
	StartTime           TimeOfDay
	EndTime             TimeOfDay
	WorkDays            []time.Weekday
	Break               BreakConfig
	CoreHours           *TimeRange
	FlexibleWindow      *TimeRange
	RequiredHoursPerDay decimal.NullDecimal
	OvertimeRules       OvertimeRules
	NightDifferential   NightDifferential
	GracePeriodMinutes  int
	Timezone            string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// CrossesMidnight reports whether the shift ends on the following calendar day.
// A zero-length definition (end == start) is read as a full 24h shift.
func (c WorkScheduleConfig) CrossesMidnight() bool {
	return c.EndTime <= c.StartTime
}

func (c WorkScheduleConfig) WorksOn(day time.Weekday) bool {
	for _, d := range c.WorkDays {
		if d == day {
			return true
		}
	}
	return false
}

// OvertimeThresholdMinutes is the worked time a day must exceed before overtime
// is credited. Without an explicit threshold the required daily hours apply.
func (c WorkScheduleConfig) OvertimeThresholdMinutes() int {
	if c.OvertimeRules.DailyThresholdHours.IsZero() && c.RequiredHoursPerDay.Valid {
		return hoursToMinutes(c.RequiredHoursPerDay.Decimal)
	}
	return c.OvertimeRules.ThresholdMinutes()
}

func (c WorkScheduleConfig) HasBreak() bool {
	return c.Break.StartTime != nil && c.Break.DurationMinutes > 0
}

// Validate checks the fields the resolver relies on.
func (c WorkScheduleConfig) Validate() error {
	switch c.Type {
	case ScheduleTypeFixed, ScheduleTypeFlexible, ScheduleTypeShifting:
	default:
		return ErrInvalidScheduleType
	}
	if !c.StartTime.Valid() || !c.EndTime.Valid() {
		return ErrInvalidTimeOfDay
	}
	if c.Break.DurationMinutes < 0 {
		return ErrInvalidBreak
	}
	if c.Break.StartTime != nil && !c.Break.StartTime.Valid() {
		return ErrInvalidBreak
	}
	if c.CoreHours != nil && (!c.CoreHours.Start.Valid() || !c.CoreHours.End.Valid()) {
		return ErrInvalidCoreHours
	}
	if c.NightDifferential.Enabled && (!c.NightDifferential.StartTime.Valid() || !c.NightDifferential.EndTime.Valid()) {
		return ErrInvalidNightDifferential
	}
	return nil
}

// Assignment links an employee to a work schedule from StartDate onward.
type Assignment struct {
	ID             string
	EmployeeID     string
	WorkScheduleID string
	ShiftLabel     *string
	StartDate      time.Time
	EndDate        *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type EventKind string

const (
	EventShiftStart EventKind = "shift_start"
	EventBreakOut   EventKind = "break_out"
	EventBreakIn    EventKind = "break_in"
	EventShiftEnd   EventKind = "shift_end"
)

// ScheduleEvent is one expected punch of a resolved shift.
type ScheduleEvent struct {
	Timestamp         time.Time            `json:"timestamp"`
	ExpectedDirection attendance.Direction `json:"expected_direction"`
	Kind              EventKind            `json:"kind"`
}

// ResolvedSchedule is a work schedule expanded onto a concrete work date.
type ResolvedSchedule struct {
	EmployeeID string
	Date       time.Time
	Location   *time.Location
	Config     WorkScheduleConfig
	ShiftLabel *string

	// Events are ordered by timestamp. For flexible schedules with core hours
	// the start/end events sit on the core-hours boundaries.
	Events []ScheduleEvent

	// Nominal shift boundaries from StartTime/EndTime.
	ShiftStart time.Time
	ShiftEnd   time.Time

	// Core-hours boundaries, set for flexible schedules that define them.
	CoreStart *time.Time
	CoreEnd   *time.Time

	// FlexLatestStart is the end of the flexible arrival window, when configured.
	FlexLatestStart *time.Time

	CrossesMidnight bool
	// TailCutoff bounds the next-day punches this shift may claim.
	// Zero unless CrossesMidnight.
	TailCutoff time.Time
}

// NextMidnight is 00:00 of the day after the work date.
func (r *ResolvedSchedule) NextMidnight() time.Time {
	return time.Date(r.Date.Year(), r.Date.Month(), r.Date.Day()+1, 0, 0, 0, 0, r.Location)
}

// EventsMidpoint is halfway between the first and last of events, which must
// be ordered and non-empty. It splits the shift for single-punch days.
func EventsMidpoint(events []ScheduleEvent) time.Time {
	first, last := events[0].Timestamp, events[len(events)-1].Timestamp
	return first.Add(last.Sub(first) / 2)
}

// LateReference is the instant after which an arrival counts as late.
func (r *ResolvedSchedule) LateReference() time.Time {
	if r.Config.Type == ScheduleTypeFlexible {
		if r.CoreStart != nil {
			return *r.CoreStart
		}
		if r.FlexLatestStart != nil {
			return *r.FlexLatestStart
		}
	}
	return r.ShiftStart
}

// UndertimeReference is the instant before which a departure counts as undertime.
func (r *ResolvedSchedule) UndertimeReference() time.Time {
	if r.Config.Type == ScheduleTypeFlexible && r.CoreEnd != nil {
		return *r.CoreEnd
	}
	return r.ShiftEnd
}

// FirstEventAt returns the earliest expected punch, or ShiftStart without events.
func (r *ResolvedSchedule) FirstEventAt() time.Time {
	if len(r.Events) > 0 {
		return r.Events[0].Timestamp
	}
	return r.ShiftStart
}
