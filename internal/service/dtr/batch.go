package dtr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-dtr/internal/domain/dtr"
	"github.com/cmlabs-hris/hris-dtr/internal/domain/schedule"
	"golang.org/x/sync/errgroup"
)

// DefaultBatchConcurrency bounds how many records a batch computes at once.
const DefaultBatchConcurrency = 8

type batchRecalculator struct {
	service        dtr.Service
	assignmentRepo schedule.AssignmentRepository
	concurrency    int
}

func NewBatchRecalculator(service dtr.Service, assignmentRepo schedule.AssignmentRepository, concurrency int) dtr.BatchRunner {
	if concurrency <= 0 {
		concurrency = DefaultBatchConcurrency
	}
	return &batchRecalculator{
		service:        service,
		assignmentRepo: assignmentRepo,
		concurrency:    concurrency,
	}
}

type batchTask struct {
	employeeID string
	date       time.Time
}

// Run implements dtr.BatchRunner. A failing (employee, date) is recorded in the
// summary and does not stop the rest; only cancellation aborts the batch.
func (b *batchRecalculator) Run(ctx context.Context, from, to time.Time, employeeIDs []string) (dtr.BatchSummary, error) {
	tasks, err := b.plan(ctx, calendarDate(from), calendarDate(to), employeeIDs)
	if err != nil {
		return dtr.BatchSummary{}, err
	}

	var (
		mu      sync.Mutex
		summary dtr.BatchSummary
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for _, task := range tasks {
		task := task
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			record, err := b.service.CalculateForDate(gctx, task.employeeID, task.date)
			if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
				return err
			}

			mu.Lock()
			defer mu.Unlock()

			summary.Processed++
			if err != nil {
				slog.Warn("Failed to recalculate daily time record",
					"employee_id", task.employeeID,
					"date", task.date.Format(dateLayout),
					"error", err)
				summary.Failed++
				summary.Failures = append(summary.Failures, dtr.BatchFailure{
					EmployeeID: task.employeeID,
					Date:       task.date.Format(dateLayout),
					Error:      err.Error(),
				})
				return nil
			}

			switch record.Status {
			case dtr.StatusPresent:
				summary.Present++
			case dtr.StatusAbsent:
				summary.Absent++
			}
			if record.NeedsReview {
				summary.NeedsReview++
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return summary, fmt.Errorf("batch recalculation aborted: %w", err)
	}

	sort.Slice(summary.Failures, func(i, j int) bool {
		a, c := summary.Failures[i], summary.Failures[j]
		if a.Date != c.Date {
			return a.Date < c.Date
		}
		return a.EmployeeID < c.EmployeeID
	})

	slog.Info("Batch recalculation finished",
		"from", from.Format(dateLayout),
		"to", to.Format(dateLayout),
		"processed", summary.Processed,
		"present", summary.Present,
		"absent", summary.Absent,
		"needs_review", summary.NeedsReview,
		"failed", summary.Failed)

	return summary, nil
}

func (b *batchRecalculator) plan(ctx context.Context, from, to time.Time, employeeIDs []string) ([]batchTask, error) {
	if to.Before(from) {
		return nil, dtr.ErrInvalidDateRange
	}

	var tasks []batchTask
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		ids := employeeIDs
		if len(ids) == 0 {
			assigned, err := b.assignmentRepo.ListAssignedEmployeeIDs(ctx, day)
			if err != nil {
				return nil, fmt.Errorf("failed to list assigned employees for %s: %w", day.Format(dateLayout), err)
			}
			ids = assigned
		}
		for _, id := range ids {
			tasks = append(tasks, batchTask{employeeID: id, date: day})
		}
	}
	return tasks, nil
}
