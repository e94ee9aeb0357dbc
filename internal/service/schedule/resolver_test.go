package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-dtr/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-dtr/internal/domain/schedule"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

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
		if a.EmployeeID != employeeID || a.StartDate.After(date) {
			continue
		}
		if a.EndDate != nil && a.EndDate.Before(date) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAssignmentRepo) ListAssignedEmployeeIDs(ctx context.Context, date time.Time) ([]string, error) {
	seen := map[string]bool{}
	var ids []string
	for _, a := range f.assignments {
		if !seen[a.EmployeeID] {
			seen[a.EmployeeID] = true
			ids = append(ids, a.EmployeeID)
		}
	}
	return ids, nil
}

var everyDay = []time.Weekday{
	time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday,
}

func tod(s string) schedule.TimeOfDay {
	t, err := schedule.ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func todPtr(s string) *schedule.TimeOfDay {
	t := tod(s)
	return &t
}

func dayShift() schedule.WorkScheduleConfig {
	return schedule.WorkScheduleConfig{
		ID:        "ws-day",
		Name:      "Office",
		Type:      schedule.ScheduleTypeFixed,
		StartTime: tod("08:00"),
		EndTime:   tod("17:00"),
		WorkDays:  []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		Break:     schedule.BreakConfig{StartTime: todPtr("12:00"), DurationMinutes: 60},
		OvertimeRules: schedule.OvertimeRules{
			DailyThresholdHours: decimal.NewFromInt(8),
		},
	}
}

func eveningShift() schedule.WorkScheduleConfig {
	return schedule.WorkScheduleConfig{
		ID:        "ws-evening",
		Name:      "Evening",
		Type:      schedule.ScheduleTypeShifting,
		StartTime: tod("17:00"),
		EndTime:   tod("00:00"),
		WorkDays:  everyDay,
	}
}

func newTestResolver(cfgs []schedule.WorkScheduleConfig, assignments []schedule.Assignment, grace time.Duration) schedule.Resolver {
	repo := &fakeWorkScheduleRepo{schedules: map[string]schedule.WorkScheduleConfig{}}
	for _, c := range cfgs {
		repo.schedules[c.ID] = c
	}
	return NewResolver(repo, &fakeAssignmentRepo{assignments: assignments}, ResolverOptions{
		DefaultLocation:    time.UTC,
		OvernightTailGrace: grace,
	})
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func TestResolver_FixedShiftWithBreak(t *testing.T) {
	r := newTestResolver(
		[]schedule.WorkScheduleConfig{dayShift()},
		[]schedule.Assignment{{ID: "a1", EmployeeID: "emp-1", WorkScheduleID: "ws-day", StartDate: date(2025, 1, 1)}},
		0,
	)

	// 2025-02-12 is a Wednesday
	got, err := r.Resolve(context.Background(), "emp-1", date(2025, 2, 12))
	require.NoError(t, err)
	require.NotNil(t, got)

	require.Len(t, got.Events, 4)
	assert.Equal(t, at(2025, 2, 12, 8, 0), got.Events[0].Timestamp)
	assert.Equal(t, schedule.EventShiftStart, got.Events[0].Kind)
	assert.Equal(t, attendance.DirectionIn, got.Events[0].ExpectedDirection)
	assert.Equal(t, at(2025, 2, 12, 12, 0), got.Events[1].Timestamp)
	assert.Equal(t, schedule.EventBreakOut, got.Events[1].Kind)
	assert.Equal(t, attendance.DirectionOut, got.Events[1].ExpectedDirection)
	assert.Equal(t, at(2025, 2, 12, 13, 0), got.Events[2].Timestamp)
	assert.Equal(t, schedule.EventBreakIn, got.Events[2].Kind)
	assert.Equal(t, at(2025, 2, 12, 17, 0), got.Events[3].Timestamp)
	assert.Equal(t, schedule.EventShiftEnd, got.Events[3].Kind)
	assert.False(t, got.CrossesMidnight)
	assert.True(t, got.TailCutoff.IsZero())
}

func TestResolver_NoBreakEvents(t *testing.T) {
	zeroDuration := dayShift()
	zeroDuration.ID = "ws-zero"
	zeroDuration.Break = schedule.BreakConfig{StartTime: todPtr("12:00"), DurationMinutes: 0}

	noStart := dayShift()
	noStart.ID = "ws-nostart"
	noStart.Break = schedule.BreakConfig{DurationMinutes: 60}

	r := newTestResolver(
		[]schedule.WorkScheduleConfig{zeroDuration, noStart},
		[]schedule.Assignment{
			{ID: "a1", EmployeeID: "emp-1", WorkScheduleID: "ws-zero", StartDate: date(2025, 1, 1)},
			{ID: "a2", EmployeeID: "emp-2", WorkScheduleID: "ws-nostart", StartDate: date(2025, 1, 1)},
		},
		0,
	)

	for _, emp := range []string{"emp-1", "emp-2"} {
		got, err := r.Resolve(context.Background(), emp, date(2025, 2, 12))
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Len(t, got.Events, 2, emp)
		assert.Equal(t, schedule.EventShiftStart, got.Events[0].Kind)
		assert.Equal(t, schedule.EventShiftEnd, got.Events[1].Kind)
	}
}

func TestResolver_CrossMidnight(t *testing.T) {
	r := newTestResolver(
		[]schedule.WorkScheduleConfig{eveningShift()},
		[]schedule.Assignment{{ID: "a1", EmployeeID: "emp-1", WorkScheduleID: "ws-evening", StartDate: date(2025, 1, 1)}},
		4*time.Hour,
	)

	got, err := r.Resolve(context.Background(), "emp-1", date(2025, 2, 13))
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.True(t, got.CrossesMidnight)
	assert.Equal(t, at(2025, 2, 13, 17, 0), got.ShiftStart)
	assert.Equal(t, at(2025, 2, 14, 0, 0), got.ShiftEnd)
	assert.Equal(t, at(2025, 2, 14, 4, 0), got.TailCutoff)
	assert.Equal(t, at(2025, 2, 14, 0, 0), got.NextMidnight())
}

func TestResolver_CrossMidnightTailBoundedByNextShift(t *testing.T) {
	night := schedule.WorkScheduleConfig{
		ID:        "ws-night",
		Type:      schedule.ScheduleTypeFixed,
		StartTime: tod("22:00"),
		EndTime:   tod("06:00"),
		WorkDays:  everyDay,
		Break:     schedule.BreakConfig{StartTime: todPtr("02:00"), DurationMinutes: 30},
	}
	r := newTestResolver(
		[]schedule.WorkScheduleConfig{night},
		[]schedule.Assignment{{ID: "a1", EmployeeID: "emp-1", WorkScheduleID: "ws-night", StartDate: date(2025, 1, 1)}},
		20*time.Hour,
	)

	got, err := r.Resolve(context.Background(), "emp-1", date(2025, 3, 3))
	require.NoError(t, err)
	require.NotNil(t, got)

	// grace would reach 02:00 on Mar 5; the next shift's start caps it
	assert.Equal(t, at(2025, 3, 4, 22, 0), got.TailCutoff)

	require.Len(t, got.Events, 4)
	assert.Equal(t, at(2025, 3, 4, 2, 0), got.Events[1].Timestamp)
	assert.Equal(t, at(2025, 3, 4, 2, 30), got.Events[2].Timestamp)
	assert.Equal(t, at(2025, 3, 4, 6, 0), got.Events[3].Timestamp)
}

func TestResolver_FlexibleUsesCoreHours(t *testing.T) {
	flex := schedule.WorkScheduleConfig{
		ID:             "ws-flex",
		Type:           schedule.ScheduleTypeFlexible,
		StartTime:      tod("07:00"),
		EndTime:        tod("19:00"),
		WorkDays:       everyDay,
		CoreHours:      &schedule.TimeRange{Start: tod("10:00"), End: tod("15:00")},
		FlexibleWindow: &schedule.TimeRange{Start: tod("07:00"), End: tod("10:00")},
	}
	r := newTestResolver(
		[]schedule.WorkScheduleConfig{flex},
		[]schedule.Assignment{{ID: "a1", EmployeeID: "emp-1", WorkScheduleID: "ws-flex", StartDate: date(2025, 1, 1)}},
		0,
	)

	got, err := r.Resolve(context.Background(), "emp-1", date(2025, 2, 12))
	require.NoError(t, err)
	require.NotNil(t, got)

	require.Len(t, got.Events, 2)
	assert.Equal(t, at(2025, 2, 12, 10, 0), got.Events[0].Timestamp)
	assert.Equal(t, at(2025, 2, 12, 15, 0), got.Events[1].Timestamp)
	assert.Equal(t, at(2025, 2, 12, 7, 0), got.ShiftStart)
	assert.Equal(t, at(2025, 2, 12, 10, 0), got.LateReference())
	assert.Equal(t, at(2025, 2, 12, 15, 0), got.UndertimeReference())
	require.NotNil(t, got.FlexLatestStart)
	assert.Equal(t, at(2025, 2, 12, 10, 0), *got.FlexLatestStart)
}

func TestResolver_MostRecentAssignmentWins(t *testing.T) {
	label := "B-shift"
	r := newTestResolver(
		[]schedule.WorkScheduleConfig{dayShift(), eveningShift()},
		[]schedule.Assignment{
			{ID: "a1", EmployeeID: "emp-1", WorkScheduleID: "ws-day", StartDate: date(2025, 1, 1)},
			{ID: "a2", EmployeeID: "emp-1", WorkScheduleID: "ws-evening", ShiftLabel: &label, StartDate: date(2025, 2, 1)},
		},
		0,
	)

	got, err := r.Resolve(context.Background(), "emp-1", date(2025, 2, 12))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "ws-evening", got.Config.ID)
	require.NotNil(t, got.ShiftLabel)
	assert.Equal(t, "B-shift", *got.ShiftLabel)

	earlier, err := r.Resolve(context.Background(), "emp-1", date(2025, 1, 15))
	require.NoError(t, err)
	require.NotNil(t, earlier)
	assert.Equal(t, "ws-day", earlier.Config.ID)
}

func TestResolver_AmbiguousAssignment(t *testing.T) {
	r := newTestResolver(
		[]schedule.WorkScheduleConfig{dayShift(), eveningShift()},
		[]schedule.Assignment{
			{ID: "a1", EmployeeID: "emp-1", WorkScheduleID: "ws-day", StartDate: date(2025, 2, 1)},
			{ID: "a2", EmployeeID: "emp-1", WorkScheduleID: "ws-evening", StartDate: date(2025, 2, 1)},
		},
		0,
	)

	_, err := r.Resolve(context.Background(), "emp-1", date(2025, 2, 12))
	assert.ErrorIs(t, err, schedule.ErrAmbiguousAssignment)
}

func TestResolver_NoSchedule(t *testing.T) {
	malformed := dayShift()
	malformed.ID = "ws-bad"
	malformed.Type = "rotating"

	r := newTestResolver(
		[]schedule.WorkScheduleConfig{dayShift(), malformed},
		[]schedule.Assignment{
			{ID: "a1", EmployeeID: "emp-1", WorkScheduleID: "ws-day", StartDate: date(2025, 1, 1)},
			{ID: "a2", EmployeeID: "emp-2", WorkScheduleID: "ws-missing", StartDate: date(2025, 1, 1)},
			{ID: "a3", EmployeeID: "emp-3", WorkScheduleID: "ws-bad", StartDate: date(2025, 1, 1)},
		},
		0,
	)
	ctx := context.Background()

	tests := []struct {
		name       string
		employeeID string
		date       time.Time
	}{
		{"unassigned employee", "emp-9", date(2025, 2, 12)},
		{"before first assignment", "emp-1", date(2024, 12, 31)},
		{"rest day", "emp-1", date(2025, 2, 15)},
		{"missing work schedule", "emp-2", date(2025, 2, 12)},
		{"malformed work schedule", "emp-3", date(2025, 2, 12)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(ctx, tt.employeeID, tt.date)
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestResolver_RejectsTimeComponent(t *testing.T) {
	r := newTestResolver(nil, nil, 0)

	_, err := r.Resolve(context.Background(), "emp-1", at(2025, 2, 12, 8, 30))
	assert.ErrorIs(t, err, schedule.ErrDateHasTimeComponent)

	_, err = r.Resolve(context.Background(), "", date(2025, 2, 12))
	assert.ErrorIs(t, err, schedule.ErrEmployeeIDRequired)
}

func TestResolver_UsesScheduleTimezone(t *testing.T) {
	cfg := dayShift()
	cfg.Timezone = "Asia/Manila"
	r := newTestResolver(
		[]schedule.WorkScheduleConfig{cfg},
		[]schedule.Assignment{{ID: "a1", EmployeeID: "emp-1", WorkScheduleID: "ws-day", StartDate: date(2025, 1, 1)}},
		0,
	)

	got, err := r.Resolve(context.Background(), "emp-1", date(2025, 2, 12))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Asia/Manila", got.ShiftStart.Location().String())
	assert.Equal(t, 8, got.ShiftStart.Hour())
	// 08:00 in Manila is midnight UTC
	assert.True(t, got.ShiftStart.Equal(at(2025, 2, 12, 0, 0)))
}
