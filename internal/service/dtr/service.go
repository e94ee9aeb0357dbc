package dtr

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-dtr/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-dtr/internal/domain/dtr"
	"github.com/cmlabs-hris/hris-dtr/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-dtr/internal/pkg/keylock"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// recordNamespace seeds the name-based UUIDs of daily time records.
var recordNamespace = uuid.MustParse("3f8e2a6c-1d4b-5e7f-9a0c-2b6d8e4f1a3c")

type dtrServiceImpl struct {
	resolver        schedule.Resolver
	logRepo         attendance.LogRepository
	recordRepo      dtr.DailyTimeRecordRepository
	processor       *PunchProcessor
	calculator      TimeCalculator
	locks           *keylock.Locker
	defaultLocation *time.Location
}

func NewDTRService(
	resolver schedule.Resolver,
	logRepo attendance.LogRepository,
	recordRepo dtr.DailyTimeRecordRepository,
	processor *PunchProcessor,
	locks *keylock.Locker,
	defaultLocation *time.Location,
) dtr.Service {
	if locks == nil {
		locks = keylock.New()
	}
	if defaultLocation == nil {
		defaultLocation = time.UTC
	}
	return &dtrServiceImpl{
		resolver:        resolver,
		logRepo:         logRepo,
		recordRepo:      recordRepo,
		processor:       processor,
		calculator:      NewTimeCalculator(),
		locks:           locks,
		defaultLocation: defaultLocation,
	}
}

// RecordID is the stable identifier of the record for (employeeID, date).
func RecordID(employeeID string, date time.Time) string {
	return uuid.NewSHA1(recordNamespace, []byte(RecordKey(employeeID, date))).String()
}

// RecordKey is the natural key "employeeID|YYYY-MM-DD".
func RecordKey(employeeID string, date time.Time) string {
	return employeeID + "|" + date.Format(dateLayout)
}

// CalculateForDate implements dtr.Service.
func (s *dtrServiceImpl) CalculateForDate(ctx context.Context, employeeID string, date time.Time) (dtr.DailyTimeRecord, error) {
	if employeeID == "" {
		return dtr.DailyTimeRecord{}, dtr.ErrEmployeeIDRequired
	}
	day := calendarDate(date)

	unlock := s.locks.Lock(RecordKey(employeeID, day))
	defer unlock()

	current, err := s.resolver.Resolve(ctx, employeeID, day)
	if err != nil {
		return dtr.DailyTimeRecord{}, fmt.Errorf("failed to resolve schedule: %w", err)
	}
	previous, err := s.resolver.Resolve(ctx, employeeID, day.AddDate(0, 0, -1))
	if err != nil {
		return dtr.DailyTimeRecord{}, fmt.Errorf("failed to resolve previous day schedule: %w", err)
	}
	var beforePrevious *schedule.ResolvedSchedule
	if previous != nil && previous.CrossesMidnight {
		beforePrevious, err = s.resolver.Resolve(ctx, employeeID, day.AddDate(0, 0, -2))
		if err != nil {
			return dtr.DailyTimeRecord{}, fmt.Errorf("failed to resolve schedule two days back: %w", err)
		}
	}

	punches, err := s.collectPunches(ctx, employeeID, day, current, previous, beforePrevious)
	if err != nil {
		return dtr.DailyTimeRecord{}, err
	}

	result := s.processor.Process(punches, current)
	record := s.buildRecord(employeeID, day, current, result)

	if record.NeedsReview {
		slog.Warn("Dropped unmatched punches",
			"employee_id", employeeID,
			"date", day.Format(dateLayout),
			"dropped", result.DroppedCount)
	}

	if err := s.recordRepo.Upsert(ctx, record); err != nil {
		return dtr.DailyTimeRecord{}, fmt.Errorf("failed to save daily time record: %w", err)
	}

	slog.Debug("Computed daily time record",
		"employee_id", employeeID,
		"date", day.Format(dateLayout),
		"status", record.Status,
		"punches", len(record.Punches),
		"total_work_minutes", record.TotalWorkMinutes)

	return record, nil
}

// GetRecord implements dtr.Service.
func (s *dtrServiceImpl) GetRecord(ctx context.Context, employeeID string, date time.Time) (dtr.DailyTimeRecord, error) {
	if employeeID == "" {
		return dtr.DailyTimeRecord{}, dtr.ErrEmployeeIDRequired
	}
	record, err := s.recordRepo.GetByEmployeeAndDate(ctx, employeeID, calendarDate(date))
	if err != nil {
		return dtr.DailyTimeRecord{}, err
	}
	return record, nil
}

// Preview implements dtr.Service.
func (s *dtrServiceImpl) Preview(ctx context.Context, employeeID string, date time.Time, punches []attendance.RawPunch) (dtr.ProcessResult, bool, error) {
	if employeeID == "" {
		return dtr.ProcessResult{}, false, dtr.ErrEmployeeIDRequired
	}
	current, err := s.resolver.Resolve(ctx, employeeID, calendarDate(date))
	if err != nil {
		return dtr.ProcessResult{}, false, fmt.Errorf("failed to resolve schedule: %w", err)
	}
	return s.processor.Process(punches, current), current != nil, nil
}

// collectPunches loads the punches that belong to day. The window opens at
// the previous midnight when yesterday's shift crosses midnight, so that its
// open or closed state can be judged, and closes at today's tail cutoff.
// Punches yesterday's open shift claims are removed, and today's own tail is
// kept only while today's shift is left open at midnight.
func (s *dtrServiceImpl) collectPunches(
	ctx context.Context,
	employeeID string,
	day time.Time,
	current, previous, beforePrevious *schedule.ResolvedSchedule,
) ([]attendance.RawPunch, error) {
	loc := s.defaultLocation
	switch {
	case current != nil:
		loc = current.Location
	case previous != nil:
		loc = previous.Location
	}

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	nextMidnight := dayStart.AddDate(0, 0, 1)

	from, to := dayStart, nextMidnight
	prevCrosses := previous != nil && previous.CrossesMidnight
	if prevCrosses {
		from = previous.Date
	}
	if current != nil && current.CrossesMidnight && current.TailCutoff.After(to) {
		to = current.TailCutoff
	}

	raw, err := s.logRepo.ListByEmployeeBetween(ctx, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance logs: %w", err)
	}

	prevOpen := prevCrosses && s.isUnclosed(shiftHead(raw, previous, beforePrevious))

	own := make([]attendance.RawPunch, 0, len(raw))
	for _, p := range raw {
		if p.Timestamp.Before(dayStart) {
			continue
		}
		if prevOpen && schedule.ClaimsPunch(previous, p) {
			continue
		}
		own = append(own, p)
	}

	if current != nil && current.CrossesMidnight && !s.isUnclosed(shiftHead(raw, current, previous)) {
		own = punchesBetween(own, dayStart, nextMidnight)
	}

	return own, nil
}

// shiftHead returns the punches that decide whether shift is still open at
// its next midnight. The head starts at the shift's own midnight, or where
// prior's tail cutoff ends when prior crosses into the same day, so it never
// overlaps a tail the day before could claim. It depends only on the two
// resolved schedules, so every day computes the same head for a shift.
func shiftHead(punches []attendance.RawPunch, shift, prior *schedule.ResolvedSchedule) []attendance.RawPunch {
	from := shift.Date
	if prior != nil && prior.CrossesMidnight && prior.TailCutoff.After(from) {
		from = prior.TailCutoff
	}
	return punchesBetween(punches, from, shift.NextMidnight())
}

// isUnclosed reports whether a shift's head leaves it open: the last punch is
// an explicit In, or, untagged, it is an odd one out.
func (s *dtrServiceImpl) isUnclosed(head []attendance.RawPunch) bool {
	collapsed := s.processor.CollapseDuplicateScans(head)
	if len(collapsed) == 0 {
		return false
	}
	switch collapsed[len(collapsed)-1].Direction {
	case attendance.DirectionOut:
		return false
	case attendance.DirectionIn:
		return true
	default:
		return len(collapsed)%2 == 1
	}
}

func (s *dtrServiceImpl) buildRecord(employeeID string, day time.Time, current *schedule.ResolvedSchedule, result dtr.ProcessResult) dtr.DailyTimeRecord {
	record := dtr.DailyTimeRecord{
		ID:         RecordID(employeeID, day),
		EmployeeID: employeeID,
		Date:       day,
		Punches:    []dtr.LabeledPunch{},
		Status:     dtr.StatusAbsent,
	}
	if current != nil {
		record.ShiftLabel = current.ShiftLabel
	}

	if len(result.Logs) == 0 {
		return record
	}

	record.Status = dtr.StatusPresent
	record.Punches = result.Logs
	record.FirstIn = result.FirstIn
	record.LastOut = result.LastOut
	record.TotalWorkMinutes = result.TotalWorkMinutes()

	if current != nil {
		if result.FirstIn != nil {
			record.LateMinutes = s.calculator.CalculateLate(*result.FirstIn, current)
		}
		if result.LastOut != nil {
			record.UndertimeMinutes = s.calculator.CalculateUndertime(*result.LastOut, current)
			record.OvertimeMinutes = s.calculator.CalculateOvertime(*result.LastOut, record.TotalWorkMinutes, current)
		}
		record.NightDiffMinutes = s.calculator.CalculateNightDifferential(result.CompletePairs(), current)
		if current.Config.NightDifferential.Enabled {
			record.NightDiffRate = current.Config.NightDifferential.RateMultiplier
		}
	}

	if result.DroppedCount > 0 {
		reason := dtr.DroppedPunchesReason(result.DroppedCount)
		record.NeedsReview = true
		record.ReviewReason = &reason
	}

	return record
}

// punchesBetween returns the punches in [from, to).
func punchesBetween(punches []attendance.RawPunch, from, to time.Time) []attendance.RawPunch {
	out := make([]attendance.RawPunch, 0, len(punches))
	for _, p := range punches {
		if !p.Timestamp.Before(from) && p.Timestamp.Before(to) {
			out = append(out, p)
		}
	}
	return out
}

// calendarDate strips the clock from date, keeping its calendar day.
func calendarDate(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
}
