package dtr

import (
	"time"

	"github.com/cmlabs-hris/hris-dtr/internal/domain/dtr"
	"github.com/cmlabs-hris/hris-dtr/internal/domain/schedule"
)

// TimeCalculator derives minute metrics for a day. All results are whole
// minutes, truncated, and never negative.
type TimeCalculator struct{}

func NewTimeCalculator() TimeCalculator {
	return TimeCalculator{}
}

// CalculateLate measures firstIn against the late reference of the shift.
// Arrivals inside the grace period count as on time; past it, lateness is
// counted from the reference itself.
func (TimeCalculator) CalculateLate(firstIn time.Time, sched *schedule.ResolvedSchedule) int {
	ref := sched.LateReference()
	graceLimit := ref.Add(time.Duration(sched.Config.GracePeriodMinutes) * time.Minute)
	if !firstIn.After(graceLimit) {
		return 0
	}
	return minutesBetween(ref, firstIn)
}

func (TimeCalculator) CalculateUndertime(lastOut time.Time, sched *schedule.ResolvedSchedule) int {
	return minutesBetween(lastOut, sched.UndertimeReference())
}

// CalculateOvertime credits time past the scheduled end only when the day's
// work exceeds the overtime threshold.
func (TimeCalculator) CalculateOvertime(lastOut time.Time, totalWorkMinutes int, sched *schedule.ResolvedSchedule) int {
	if totalWorkMinutes <= sched.Config.OvertimeThresholdMinutes() {
		return 0
	}
	return minutesBetween(sched.ShiftEnd, lastOut)
}

// CalculateNightDifferential sums the overlap of each complete pair with the
// nightly window. The window is laid on every calendar day a pair touches,
// starting the day before so a window that began the previous evening counts.
func (TimeCalculator) CalculateNightDifferential(pairs []dtr.PunchPair, sched *schedule.ResolvedSchedule) int {
	nd := sched.Config.NightDifferential
	if !nd.Enabled {
		return 0
	}
	window := nd.Window()
	loc := sched.Location
	if loc == nil {
		loc = time.UTC
	}

	var total time.Duration
	for _, p := range pairs {
		if !p.Complete() || !p.Out.After(*p.In) {
			continue
		}
		in, out := p.In.In(loc), p.Out.In(loc)
		day := time.Date(in.Year(), in.Month(), in.Day()-1, 0, 0, 0, 0, loc)
		for !day.After(out) {
			ws, we := window.On(day, loc)
			total += overlap(in, out, ws, we)
			day = day.AddDate(0, 0, 1)
		}
	}

	return int(total / time.Minute)
}

func overlap(aStart, aEnd, bStart, bEnd time.Time) time.Duration {
	start := aStart
	if bStart.After(start) {
		start = bStart
	}
	end := aEnd
	if bEnd.Before(end) {
		end = bEnd
	}
	if !end.After(start) {
		return 0
	}
	return end.Sub(start)
}

// minutesBetween returns the whole minutes from a to b, or 0 when b is not after a.
func minutesBetween(a, b time.Time) int {
	if !b.After(a) {
		return 0
	}
	return int(b.Sub(a) / time.Minute)
}
