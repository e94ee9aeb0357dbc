package dtr

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-dtr/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-dtr/internal/domain/dtr"
	"github.com/cmlabs-hris/hris-dtr/internal/domain/schedule"
	schedulesvc "github.com/cmlabs-hris/hris-dtr/internal/service/schedule"
)

type fakeLogRepo struct {
	punches []attendance.RawPunch
}

func (f *fakeLogRepo) ListByEmployeeBetween(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.RawPunch, error) {
	var out []attendance.RawPunch
	for _, p := range f.punches {
		if p.EmployeeID != employeeID || p.Timestamp.Before(from) || !p.Timestamp.Before(to) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

type fakeRecordRepo struct {
	mu      sync.Mutex
	records map[string]dtr.DailyTimeRecord
	upserts int
}

func newFakeRecordRepo() *fakeRecordRepo {
	return &fakeRecordRepo{records: map[string]dtr.DailyTimeRecord{}}
}

func (f *fakeRecordRepo) Upsert(ctx context.Context, record dtr.DailyTimeRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[RecordKey(record.EmployeeID, record.Date)] = record
	f.upserts++
	return nil
}

func (f *fakeRecordRepo) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (dtr.DailyTimeRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[RecordKey(employeeID, date)]
	if !ok {
		return dtr.DailyTimeRecord{}, dtr.ErrRecordNotFound
	}
	return rec, nil
}

type fakeWorkScheduleRepo struct {
	schedules map[string]schedule.WorkScheduleConfig
}

func (f *fakeWorkScheduleRepo) GetByID(ctx context.Context, id string) (schedule.WorkScheduleConfig, error) {
	cfg, ok := f.schedules[id]
	if !ok {
		return schedule.WorkScheduleConfig{}, schedule.ErrWorkScheduleNotFound
	}
	return cfg, nil
}

type fakeAssignmentRepo struct {
	assignments []schedule.Assignment
}

func (f *fakeAssignmentRepo) ListEffective(ctx context.Context, employeeID string, date time.Time) ([]schedule.Assignment, error) {
	var out []schedule.Assignment
	for _, a := range f.assignments {
		if a.EmployeeID == employeeID && !a.StartDate.After(date) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAssignmentRepo) ListAssignedEmployeeIDs(ctx context.Context, date time.Time) ([]string, error) {
	seen := map[string]bool{}
	var ids []string
	for _, a := range f.assignments {
		if !a.StartDate.After(date) && !seen[a.EmployeeID] {
			seen[a.EmployeeID] = true
			ids = append(ids, a.EmployeeID)
		}
	}
	return ids, nil
}

var allWeek = []time.Weekday{
	time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday,
}

func clock(s string) schedule.TimeOfDay {
	t, err := schedule.ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func clockPtr(s string) *schedule.TimeOfDay {
	t := clock(s)
	return &t
}

// officeSchedule is 08:00-17:00 with a 12:00 one-hour break.
func officeSchedule() schedule.WorkScheduleConfig {
	return schedule.WorkScheduleConfig{
		ID:        "ws-office",
		Type:      schedule.ScheduleTypeFixed,
		StartTime: clock("08:00"),
		EndTime:   clock("17:00"),
		WorkDays:  allWeek,
		Break:     schedule.BreakConfig{StartTime: clockPtr("12:00"), DurationMinutes: 60},
	}
}

// eveningSchedule is 17:00-00:00 without a break.
func eveningSchedule() schedule.WorkScheduleConfig {
	return schedule.WorkScheduleConfig{
		ID:        "ws-evening",
		Type:      schedule.ScheduleTypeShifting,
		StartTime: clock("17:00"),
		EndTime:   clock("00:00"),
		WorkDays:  allWeek,
	}
}

func ts(y int, m time.Month, d, hh, mm, ss int) time.Time {
	return time.Date(y, m, d, hh, mm, ss, 0, time.UTC)
}

func onDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func unknownPunches(times ...time.Time) []attendance.RawPunch {
	out := make([]attendance.RawPunch, 0, len(times))
	for _, t := range times {
		out = append(out, attendance.RawPunch{EmployeeID: "emp-1", Timestamp: t})
	}
	return out
}

func expand(cfg schedule.WorkScheduleConfig, d time.Time) *schedule.ResolvedSchedule {
	return schedulesvc.ExpandShift("emp-1", d, cfg, nil)
}

func directions(logs []dtr.LabeledPunch) []attendance.Direction {
	out := make([]attendance.Direction, 0, len(logs))
	for _, l := range logs {
		out = append(out, l.Direction)
	}
	return out
}

func timestamps(punches []attendance.RawPunch) []time.Time {
	out := make([]time.Time, 0, len(punches))
	for _, p := range punches {
		out = append(out, p.Timestamp)
	}
	return out
}

func recordTimestamps(rec dtr.DailyTimeRecord) []time.Time {
	out := make([]time.Time, 0, len(rec.Punches))
	for _, p := range rec.Punches {
		out = append(out, p.Timestamp())
	}
	return out
}
