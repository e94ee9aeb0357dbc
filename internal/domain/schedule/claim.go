package schedule

import "github.com/cmlabs-hris/hris-dtr/internal/domain/attendance"

// ClaimsPunch reports whether punch lies in the overnight tail of shift: after
// the midnight following the work date and before the shift's tail cutoff.
// Whether the shift was left open is decided by the caller.
func ClaimsPunch(shift *ResolvedSchedule, punch attendance.RawPunch) bool {
	if shift == nil || !shift.CrossesMidnight {
		return false
	}
	ts := punch.Timestamp
	return !ts.Before(shift.NextMidnight()) && ts.Before(shift.TailCutoff)
}
