package dtr

import (
	"sort"
	"time"

	"github.com/cmlabs-hris/hris-dtr/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-dtr/internal/domain/dtr"
	"github.com/cmlabs-hris/hris-dtr/internal/domain/schedule"
)

// DefaultDuplicateScanWindow is the gap within which repeated untagged scans
// are treated as one.
const DefaultDuplicateScanWindow = 2 * time.Minute

// PunchProcessor turns a noisy punch list into labeled punches and work pairs.
// It holds no mutable state and is safe for concurrent use.
type PunchProcessor struct {
	duplicateWindow time.Duration
}

func NewPunchProcessor(duplicateWindow time.Duration) *PunchProcessor {
	if duplicateWindow <= 0 {
		duplicateWindow = DefaultDuplicateScanWindow
	}
	return &PunchProcessor{duplicateWindow: duplicateWindow}
}

// CollapseDuplicateScans drops untagged punches that land within the duplicate
// window of the last kept untagged punch. Tagged punches are always kept.
func (p *PunchProcessor) CollapseDuplicateScans(punches []attendance.RawPunch) []attendance.RawPunch {
	sorted := sortedPunches(punches)
	kept := make([]attendance.RawPunch, 0, len(sorted))

	var last *time.Time
	for _, punch := range sorted {
		if punch.Direction.IsKnown() {
			kept = append(kept, punch)
			continue
		}
		if last != nil && punch.Timestamp.Sub(*last) <= p.duplicateWindow {
			continue
		}
		ts := punch.Timestamp
		last = &ts
		kept = append(kept, punch)
	}

	return kept
}

// MatchToSchedule labels punches against the expected events of a shift.
//
// Tagged punches keep their direction and consume the nearest free event of
// the same direction. Untagged punches are then matched greedily: for each
// remaining event in order, the nearest punch after the last matched one wins,
// unless it is strictly closer to a later event. Ties go to the earlier punch.
// Punches left over, and punches that would repeat the previous direction, are
// dropped and counted.
func (p *PunchProcessor) MatchToSchedule(punches []attendance.RawPunch, events []schedule.ScheduleEvent) dtr.MatchResult {
	sorted := sortedPunches(punches)
	if len(events) == 0 {
		return dtr.MatchResult{Logs: p.InferDirections(sorted)}
	}

	evs := sortedEvents(events)
	used := make([]bool, len(evs))

	if len(sorted) == 1 && !sorted[0].Direction.IsKnown() {
		return dtr.MatchResult{Logs: []dtr.LabeledPunch{labelSingle(sorted[0], evs)}}
	}

	labeled := make([]dtr.LabeledPunch, 0, len(sorted))
	unknown := make([]attendance.RawPunch, 0, len(sorted))
	for _, punch := range sorted {
		if !punch.Direction.IsKnown() {
			unknown = append(unknown, punch)
			continue
		}
		lp := dtr.LabeledPunch{Punch: punch, Direction: punch.Direction}
		if idx := nearestFreeEvent(punch, evs, used, punch.Direction); idx >= 0 {
			used[idx] = true
			ev := evs[idx]
			lp.MatchedEvent = &ev
		}
		labeled = append(labeled, lp)
	}

	pending := make([]schedule.ScheduleEvent, 0, len(evs))
	for i, ev := range evs {
		if !used[i] {
			pending = append(pending, ev)
		}
	}

	matched := 0
	start := 0
	for ei, ev := range pending {
		ev := ev
		best := -1
		var bestDist time.Duration
		for i := start; i < len(unknown); i++ {
			d := absDuration(unknown[i].Timestamp.Sub(ev.Timestamp))
			if closerToLater(unknown[i].Timestamp, pending[ei+1:], d) {
				continue
			}
			if best < 0 || d < bestDist {
				best, bestDist = i, d
			}
		}
		if best < 0 {
			continue
		}
		labeled = append(labeled, dtr.LabeledPunch{
			Punch:        unknown[best],
			Direction:    ev.ExpectedDirection,
			MatchedEvent: &ev,
		})
		matched++
		start = best + 1
	}

	sort.SliceStable(labeled, func(i, j int) bool {
		return labeled[i].Timestamp().Before(labeled[j].Timestamp())
	})
	logs, repeated := enforceAlternation(labeled)

	return dtr.MatchResult{
		Logs:         logs,
		DroppedCount: len(unknown) - matched + repeated,
	}
}

// InferDirections labels punches by position: In, Out, In, ...
// Used when the employee has no schedule for the day.
func (p *PunchProcessor) InferDirections(punches []attendance.RawPunch) []dtr.LabeledPunch {
	sorted := sortedPunches(punches)
	logs := make([]dtr.LabeledPunch, 0, len(sorted))
	for i, punch := range sorted {
		dir := attendance.DirectionIn
		if i%2 == 1 {
			dir = attendance.DirectionOut
		}
		logs = append(logs, dtr.LabeledPunch{Punch: punch, Direction: dir})
	}
	return logs
}

// Process collapses duplicate scans, labels the punches (against resolved when
// present, by alternation otherwise) and pairs them into work periods.
func (p *PunchProcessor) Process(punches []attendance.RawPunch, resolved *schedule.ResolvedSchedule) dtr.ProcessResult {
	collapsed := p.CollapseDuplicateScans(punches)

	var result dtr.ProcessResult
	if resolved == nil {
		result.Logs = p.InferDirections(collapsed)
	} else {
		m := p.MatchToSchedule(collapsed, resolved.Events)
		result.Logs = m.Logs
		result.DroppedCount = m.DroppedCount
	}

	result.Pairs = pairPunches(result.Logs)
	for i := range result.Logs {
		ts := result.Logs[i].Timestamp()
		switch result.Logs[i].Direction {
		case attendance.DirectionIn:
			if result.FirstIn == nil {
				result.FirstIn = &ts
			}
		case attendance.DirectionOut:
			result.LastOut = &ts
		}
	}

	return result
}

// enforceAlternation removes repeated directions. Of consecutive Ins the first
// is kept, of consecutive Outs the last.
func enforceAlternation(logs []dtr.LabeledPunch) ([]dtr.LabeledPunch, int) {
	kept := make([]dtr.LabeledPunch, 0, len(logs))
	dropped := 0
	for _, lp := range logs {
		n := len(kept)
		if n > 0 && kept[n-1].Direction == lp.Direction {
			dropped++
			if lp.Direction == attendance.DirectionOut {
				kept[n-1] = lp
			}
			continue
		}
		kept = append(kept, lp)
	}
	return kept, dropped
}

func pairPunches(logs []dtr.LabeledPunch) []dtr.PunchPair {
	pairs := make([]dtr.PunchPair, 0, (len(logs)+1)/2)
	var open *time.Time
	for _, lp := range logs {
		ts := lp.Timestamp()
		switch lp.Direction {
		case attendance.DirectionIn:
			if open != nil {
				pairs = append(pairs, dtr.PunchPair{In: open})
			}
			open = &ts
		case attendance.DirectionOut:
			pairs = append(pairs, dtr.PunchPair{In: open, Out: &ts})
			open = nil
		}
	}
	if open != nil {
		pairs = append(pairs, dtr.PunchPair{In: open})
	}
	return pairs
}

// labelSingle handles a day with one untagged punch: In before the middle of
// the shift, Out from the middle on.
func labelSingle(punch attendance.RawPunch, evs []schedule.ScheduleEvent) dtr.LabeledPunch {
	dir := attendance.DirectionOut
	if punch.Timestamp.Before(schedule.EventsMidpoint(evs)) {
		dir = attendance.DirectionIn
	}

	lp := dtr.LabeledPunch{Punch: punch, Direction: dir}
	if idx := nearestFreeEvent(punch, evs, make([]bool, len(evs)), dir); idx >= 0 {
		ev := evs[idx]
		lp.MatchedEvent = &ev
	}
	return lp
}

func nearestFreeEvent(punch attendance.RawPunch, evs []schedule.ScheduleEvent, used []bool, dir attendance.Direction) int {
	best := -1
	var bestDist time.Duration
	for i, ev := range evs {
		if used[i] || ev.ExpectedDirection != dir {
			continue
		}
		d := absDuration(punch.Timestamp.Sub(ev.Timestamp))
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func closerToLater(ts time.Time, later []schedule.ScheduleEvent, d time.Duration) bool {
	for _, ev := range later {
		if absDuration(ts.Sub(ev.Timestamp)) < d {
			return true
		}
	}
	return false
}

func sortedPunches(punches []attendance.RawPunch) []attendance.RawPunch {
	out := make([]attendance.RawPunch, len(punches))
	copy(out, punches)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

func sortedEvents(events []schedule.ScheduleEvent) []schedule.ScheduleEvent {
	out := make([]schedule.ScheduleEvent, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
