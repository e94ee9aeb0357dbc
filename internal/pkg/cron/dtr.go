package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-dtr/internal/domain/dtr"
)

// DefaultRecalculateSpec runs the nightly recompute at 02:00.
const DefaultRecalculateSpec = "0 2 * * *"

type DTRJobs struct {
	runner   dtr.BatchRunner
	location *time.Location
	lookback int
	now      func() time.Time
}

// NewDTRJobs builds the nightly recompute. tailGrace is the resolver's
// overnight tail grace; it decides how many days back a run must reach so
// that every day is recomputed at least once after its last punch could
// have arrived.
func NewDTRJobs(runner dtr.BatchRunner, location *time.Location, tailGrace time.Duration) *DTRJobs {
	if location == nil {
		location = time.UTC
	}
	return &DTRJobs{
		runner:   runner,
		location: location,
		lookback: settleDays(tailGrace),
		now:      time.Now,
	}
}

// settleDays is how many days pass before a day's punches are final. A shift
// on day D ends by D+2 00:00 at the latest, and may still claim punches for
// tailGrace after that.
func settleDays(tailGrace time.Duration) int {
	if tailGrace < 0 {
		tailGrace = 0
	}
	const day = 24 * time.Hour
	return 2 + int((tailGrace+day-1)/day)
}

func (j *DTRJobs) RegisterJobs(scheduler *Scheduler, spec string) error {
	if spec == "" {
		spec = DefaultRecalculateSpec
	}
	return scheduler.AddJob("recalculate_daily_time_records", spec, j.RecalculateRecentDays)
}

// RecalculateRecentDays recomputes every local calendar day from the oldest
// one whose overnight tail has surely closed up to yesterday, for every
// employee with an effective schedule assignment. The newer days are
// provisional and get recomputed by later runs.
func (j *DTRJobs) RecalculateRecentDays(ctx context.Context) error {
	from, to := j.window()

	slog.Info("Cron: Starting daily time record recalculation",
		"from", from.Format("2006-01-02"),
		"to", to.Format("2006-01-02"))

	summary, err := j.runner.Run(ctx, from, to, nil)
	if err != nil {
		return fmt.Errorf("failed to recalculate daily time records: %w", err)
	}

	slog.Info("Cron: Daily time record recalculation completed",
		"from", from.Format("2006-01-02"),
		"to", to.Format("2006-01-02"),
		"processed", summary.Processed,
		"present", summary.Present,
		"absent", summary.Absent,
		"needs_review", summary.NeedsReview,
		"failed", summary.Failed)

	return nil
}

func (j *DTRJobs) window() (from, to time.Time) {
	local := j.now().In(j.location)
	to = time.Date(local.Year(), local.Month(), local.Day()-1, 0, 0, 0, 0, time.UTC)
	from = to.AddDate(0, 0, 1-j.lookback)
	return from, to
}
