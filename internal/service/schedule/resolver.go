package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/cmlabs-hris/hris-dtr/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-dtr/internal/domain/schedule"
)

// DefaultOvernightTailGrace is how long after a cross-midnight shift's end
// its late punches are still attributed to it.
const DefaultOvernightTailGrace = 4 * time.Hour

type ResolverOptions struct {
	DefaultLocation    *time.Location
	OvernightTailGrace time.Duration
	Logger             *slog.Logger
}

type resolverImpl struct {
	workScheduleRepo schedule.WorkScheduleRepository
	assignmentRepo   schedule.AssignmentRepository
	defaultLocation  *time.Location
	tailGrace        time.Duration
	logger           *slog.Logger
}

func NewResolver(
	workScheduleRepo schedule.WorkScheduleRepository,
	assignmentRepo schedule.AssignmentRepository,
	opts ResolverOptions,
) schedule.Resolver {
	if opts.DefaultLocation == nil {
		opts.DefaultLocation = time.UTC
	}
	if opts.OvernightTailGrace <= 0 {
		opts.OvernightTailGrace = DefaultOvernightTailGrace
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &resolverImpl{
		workScheduleRepo: workScheduleRepo,
		assignmentRepo:   assignmentRepo,
		defaultLocation:  opts.DefaultLocation,
		tailGrace:        opts.OvernightTailGrace,
		logger:           opts.Logger,
	}
}

// Resolve implements schedule.Resolver.
func (r *resolverImpl) Resolve(ctx context.Context, employeeID string, date time.Time) (*schedule.ResolvedSchedule, error) {
	shift, err := r.resolveDay(ctx, employeeID, date)
	if err != nil || shift == nil {
		return shift, err
	}

	if shift.CrossesMidnight {
		// The next day's own first event bounds what this shift may claim, so a
		// punch can never belong to both days.
		next, err := r.resolveDay(ctx, employeeID, date.AddDate(0, 0, 1))
		if err != nil {
			return nil, err
		}
		shift.TailCutoff = tailCutoff(shift, next, r.tailGrace)
	}

	return shift, nil
}

func (r *resolverImpl) resolveDay(ctx context.Context, employeeID string, date time.Time) (*schedule.ResolvedSchedule, error) {
	if employeeID == "" {
		return nil, schedule.ErrEmployeeIDRequired
	}
	if hasTimeComponent(date) {
		return nil, schedule.ErrDateHasTimeComponent
	}

	assignments, err := r.assignmentRepo.ListEffective(ctx, employeeID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule assignments: %w", err)
	}
	if len(assignments) == 0 {
		return nil, nil
	}

	sort.SliceStable(assignments, func(i, j int) bool {
		return assignments[i].StartDate.After(assignments[j].StartDate)
	})
	if len(assignments) > 1 && sameDate(assignments[0].StartDate, assignments[1].StartDate) {
		return nil, fmt.Errorf("%w: employee %s, effective %s",
			schedule.ErrAmbiguousAssignment, employeeID, assignments[0].StartDate.Format("2006-01-02"))
	}
	assignment := assignments[0]

	cfg, err := r.workScheduleRepo.GetByID(ctx, assignment.WorkScheduleID)
	if err != nil {
		if errors.Is(err, schedule.ErrWorkScheduleNotFound) {
			r.logger.Warn("Assigned work schedule not found, falling back to alternation",
				"employee_id", employeeID,
				"work_schedule_id", assignment.WorkScheduleID)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get work schedule: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		r.logger.Warn("Malformed work schedule, falling back to alternation",
			"employee_id", employeeID,
			"work_schedule_id", cfg.ID,
			"error", err)
		return nil, nil
	}

	loc := r.location(cfg.Timezone)
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	if !cfg.WorksOn(day.Weekday()) {
		return nil, nil
	}

	return ExpandShift(employeeID, day, cfg, assignment.ShiftLabel), nil
}

func (r *resolverImpl) location(name string) *time.Location {
	if name == "" {
		return r.defaultLocation
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		r.logger.Warn("Unknown schedule timezone, using default", "timezone", name, "error", err)
		return r.defaultLocation
	}
	return loc
}

// ExpandShift anchors cfg onto day (local midnight) and builds the ordered event list.
func ExpandShift(employeeID string, day time.Time, cfg schedule.WorkScheduleConfig, shiftLabel *string) *schedule.ResolvedSchedule {
	loc := day.Location()
	crosses := cfg.CrossesMidnight()

	start := cfg.StartTime.On(day, loc)
	endDay := day
	if crosses {
		endDay = day.AddDate(0, 0, 1)
	}
	end := cfg.EndTime.On(endDay, loc)

	resolved := &schedule.ResolvedSchedule{
		EmployeeID:      employeeID,
		Date:            day,
		Location:        loc,
		Config:          cfg,
		ShiftLabel:      shiftLabel,
		ShiftStart:      start,
		ShiftEnd:        end,
		CrossesMidnight: crosses,
	}

	eventStart, eventEnd := start, end
	if cfg.Type == schedule.ScheduleTypeFlexible {
		if cfg.CoreHours != nil {
			coreStart, coreEnd := anchorRange(*cfg.CoreHours, day, cfg.StartTime, crosses)
			resolved.CoreStart = &coreStart
			resolved.CoreEnd = &coreEnd
			eventStart, eventEnd = coreStart, coreEnd
		}
		if cfg.FlexibleWindow != nil {
			latest := anchorClock(cfg.FlexibleWindow.End, day, cfg.StartTime, crosses)
			resolved.FlexLatestStart = &latest
		}
	}

	events := []schedule.ScheduleEvent{{
		Timestamp:         eventStart,
		ExpectedDirection: attendance.DirectionIn,
		Kind:              schedule.EventShiftStart,
	}}

	if cfg.HasBreak() {
		breakOut := anchorClock(*cfg.Break.StartTime, day, cfg.StartTime, crosses)
		breakIn := breakOut.Add(time.Duration(cfg.Break.DurationMinutes) * time.Minute)
		// a break outside the shift window cannot be matched in order
		if breakOut.After(eventStart) && breakIn.Before(eventEnd) {
			events = append(events,
				schedule.ScheduleEvent{Timestamp: breakOut, ExpectedDirection: attendance.DirectionOut, Kind: schedule.EventBreakOut},
				schedule.ScheduleEvent{Timestamp: breakIn, ExpectedDirection: attendance.DirectionIn, Kind: schedule.EventBreakIn},
			)
		}
	}

	events = append(events, schedule.ScheduleEvent{
		Timestamp:         eventEnd,
		ExpectedDirection: attendance.DirectionOut,
		Kind:              schedule.EventShiftEnd,
	})
	resolved.Events = events

	return resolved
}

// anchorClock places a clock time on the work date, or on the next day when the
// shift crosses midnight and the clock time falls before the shift start.
func anchorClock(t schedule.TimeOfDay, day time.Time, shiftStart schedule.TimeOfDay, crosses bool) time.Time {
	if crosses && t < shiftStart {
		return t.On(day.AddDate(0, 0, 1), day.Location())
	}
	return t.On(day, day.Location())
}

func anchorRange(r schedule.TimeRange, day time.Time, shiftStart schedule.TimeOfDay, crosses bool) (time.Time, time.Time) {
	start := anchorClock(r.Start, day, shiftStart, crosses)
	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, day.Location())
	return r.On(startDay, day.Location())
}

func tailCutoff(shift, next *schedule.ResolvedSchedule, grace time.Duration) time.Time {
	cutoff := shift.ShiftEnd.Add(grace)
	if next != nil && next.FirstEventAt().Before(cutoff) {
		cutoff = next.FirstEventAt()
	}
	if midnight := shift.NextMidnight(); cutoff.Before(midnight) {
		cutoff = midnight
	}
	return cutoff
}

func hasTimeComponent(t time.Time) bool {
	return t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0 || t.Nanosecond() != 0
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
