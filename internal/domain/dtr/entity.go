package dtr

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-dtr/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-dtr/internal/domain/schedule"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
)

// LabeledPunch is a raw punch after direction assignment.
type LabeledPunch struct {
	Punch        attendance.RawPunch     `json:"punch"`
	Direction    attendance.Direction    `json:"direction"`
	MatchedEvent *schedule.ScheduleEvent `json:"matched_event,omitempty"`
}

func (l LabeledPunch) Timestamp() time.Time {
	return l.Punch.Timestamp
}

// PunchPair is one work period. Either side may be missing on an incomplete day.
type PunchPair struct {
	In  *time.Time `json:"in"`
	Out *time.Time `json:"out"`
}

func (p PunchPair) Complete() bool {
	return p.In != nil && p.Out != nil
}

// Minutes returns the truncated length of a complete pair, 0 otherwise.
func (p PunchPair) Minutes() int {
	if !p.Complete() || !p.Out.After(*p.In) {
		return 0
	}
	return int(p.Out.Sub(*p.In) / time.Minute)
}

type MatchResult struct {
	Logs         []LabeledPunch
	DroppedCount int
}

type ProcessResult struct {
	Logs         []LabeledPunch
	Pairs        []PunchPair
	FirstIn      *time.Time
	LastOut      *time.Time
	DroppedCount int
}

// TotalWorkMinutes sums the complete pairs.
func (r ProcessResult) TotalWorkMinutes() int {
	total := 0
	for _, p := range r.Pairs {
		total += p.Minutes()
	}
	return total
}

// CompletePairs returns the pairs that have both an in and an out.
func (r ProcessResult) CompletePairs() []PunchPair {
	pairs := make([]PunchPair, 0, len(r.Pairs))
	for _, p := range r.Pairs {
		if p.Complete() {
			pairs = append(pairs, p)
		}
	}
	return pairs
}

type DailyTimeRecord struct {
	ID               string
	EmployeeID       string
	Date             time.Time
	ShiftLabel       *string
	FirstIn          *time.Time
	LastOut          *time.Time
	Punches          []LabeledPunch
	TotalWorkMinutes int
	LateMinutes      int
	UndertimeMinutes int
	OvertimeMinutes  int
	NightDiffMinutes int
	NightDiffRate    decimal.Decimal
	Status           Status
	NeedsReview      bool
	ReviewReason     *string
}

// DroppedPunchesReason is the review reason recorded when matching drops punches.
func DroppedPunchesReason(n int) string {
	return fmt.Sprintf("%d unmatched punch(es) dropped.", n)
}
