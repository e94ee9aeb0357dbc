package dtr

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-dtr/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-dtr/internal/pkg/validator"
)

// MaxBatchDays caps the date span of one batch request.
const MaxBatchDays = 62

const dateLayout = "2006-01-02"

// ========================================
// REQUEST DTOs
// ========================================

type CalculateRequest struct {
	EmployeeID string    `json:"employee_id"`
	Date       string    `json:"date"`
	ParsedDate time.Time `json:"-"`
}

func (r *CalculateRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: ErrEmployeeIDRequired.Error(),
		})
	}

	date, ok := validator.IsValidDate(r.Date)
	if !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: ErrInvalidDateFormat.Error(),
		})
	}

	if len(errs) > 0 {
		return errs
	}

	r.ParsedDate = date
	return nil
}

type BatchRequest struct {
	EmployeeIDs []string  `json:"employee_ids"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	From        time.Time `json:"-"`
	To          time.Time `json:"-"`
}

func (r *BatchRequest) Validate() error {
	var errs validator.ValidationErrors

	from, fromOK := validator.IsValidDate(r.StartDate)
	if !fromOK {
		errs = append(errs, validator.ValidationError{
			Field:   "start_date",
			Message: ErrInvalidDateFormat.Error(),
		})
	}

	to, toOK := validator.IsValidDate(r.EndDate)
	if !toOK {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: ErrInvalidDateFormat.Error(),
		})
	}

	if fromOK && toOK {
		if to.Before(from) {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: ErrInvalidDateRange.Error(),
			})
		} else if int(to.Sub(from).Hours()/24)+1 > MaxBatchDays {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: ErrDateRangeTooLarge.Error(),
			})
		}
	}

	for i, id := range r.EmployeeIDs {
		if validator.IsEmpty(id) {
			errs = append(errs, validator.ValidationError{
				Field:   fmt.Sprintf("employee_ids[%d]", i),
				Message: ErrEmployeeIDRequired.Error(),
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	r.From = from
	r.To = to
	return nil
}

type PreviewPunch struct {
	Timestamp string `json:"timestamp"`
	Direction string `json:"direction"`
	SourceID  string `json:"source_id"`
}

// PreviewRequest runs the punch pipeline on posted punches without persisting anything.
type PreviewRequest struct {
	EmployeeID string                `json:"employee_id"`
	Date       string                `json:"date"`
	Punches    []PreviewPunch        `json:"punches"`
	ParsedDate time.Time             `json:"-"`
	RawPunches []attendance.RawPunch `json:"-"`
}

func (r *PreviewRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: ErrEmployeeIDRequired.Error(),
		})
	}

	date, ok := validator.IsValidDate(r.Date)
	if !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: ErrInvalidDateFormat.Error(),
		})
	}

	raw := make([]attendance.RawPunch, 0, len(r.Punches))
	for i, p := range r.Punches {
		ts, ok := validator.IsValidDateTime(p.Timestamp)
		if !ok {
			errs = append(errs, validator.ValidationError{
				Field:   fmt.Sprintf("punches[%d].timestamp", i),
				Message: "timestamp must be RFC3339",
			})
			continue
		}
		dir, err := attendance.ParseDirection(p.Direction)
		if err != nil {
			errs = append(errs, validator.ValidationError{
				Field:   fmt.Sprintf("punches[%d].direction", i),
				Message: attendance.ErrInvalidDirection.Error(),
			})
			continue
		}
		raw = append(raw, attendance.RawPunch{
			EmployeeID: r.EmployeeID,
			Timestamp:  ts,
			Direction:  dir,
			SourceID:   p.SourceID,
		})
	}

	if len(errs) > 0 {
		return errs
	}

	r.ParsedDate = date
	r.RawPunches = raw
	return nil
}

// ========================================
// RESPONSE DTOs
// ========================================

type LabeledPunchResponse struct {
	Timestamp    string  `json:"timestamp"`
	Direction    string  `json:"direction"`
	SourceID     string  `json:"source_id,omitempty"`
	MatchedEvent *string `json:"matched_event,omitempty"`
}

type PunchPairResponse struct {
	In      *string `json:"in"`
	Out     *string `json:"out"`
	Minutes int     `json:"minutes"`
}

type DailyTimeRecordResponse struct {
	ID               string                 `json:"id"`
	EmployeeID       string                 `json:"employee_id"`
	Date             string                 `json:"date"`
	ShiftLabel       *string                `json:"shift_label,omitempty"`
	FirstIn          *string                `json:"first_in"`
	LastOut          *string                `json:"last_out"`
	Punches          []LabeledPunchResponse `json:"punches"`
	TotalWorkMinutes int                    `json:"total_work_minutes"`
	LateMinutes      int                    `json:"late_minutes"`
	UndertimeMinutes int                    `json:"undertime_minutes"`
	OvertimeMinutes  int                    `json:"overtime_minutes"`
	NightDiffMinutes int                    `json:"night_diff_minutes"`
	NightDiffRate    string                 `json:"night_diff_rate"`
	Status           string                 `json:"status"`
	NeedsReview      bool                   `json:"needs_review"`
	ReviewReason     *string                `json:"review_reason,omitempty"`
}

type PreviewResponse struct {
	Punches      []LabeledPunchResponse `json:"punches"`
	Pairs        []PunchPairResponse    `json:"pairs"`
	FirstIn      *string                `json:"first_in"`
	LastOut      *string                `json:"last_out"`
	DroppedCount int                    `json:"dropped_count"`
	Scheduled    bool                   `json:"scheduled"`
}

type BatchFailure struct {
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"`
	Error      string `json:"error"`
}

// BatchSummary aggregates the outcome of a batch recalculation.
type BatchSummary struct {
	Processed   int            `json:"processed"`
	Present     int            `json:"present"`
	Absent      int            `json:"absent"`
	NeedsReview int            `json:"needs_review"`
	Failed      int            `json:"failed"`
	Failures    []BatchFailure `json:"failures,omitempty"`
}

// timePtrToString safely converts a *time.Time to a string.
func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	format := t.Format(time.RFC3339)
	return &format
}

func newLabeledPunchResponses(logs []LabeledPunch) []LabeledPunchResponse {
	out := make([]LabeledPunchResponse, 0, len(logs))
	for _, l := range logs {
		resp := LabeledPunchResponse{
			Timestamp: l.Timestamp().Format(time.RFC3339),
			Direction: l.Direction.String(),
			SourceID:  l.Punch.SourceID,
		}
		if l.MatchedEvent != nil {
			kind := string(l.MatchedEvent.Kind)
			resp.MatchedEvent = &kind
		}
		out = append(out, resp)
	}
	return out
}

func NewDailyTimeRecordResponse(rec DailyTimeRecord) DailyTimeRecordResponse {
	return DailyTimeRecordResponse{
		ID:               rec.ID,
		EmployeeID:       rec.EmployeeID,
		Date:             rec.Date.Format(dateLayout),
		ShiftLabel:       rec.ShiftLabel,
		FirstIn:          timePtrToString(rec.FirstIn),
		LastOut:          timePtrToString(rec.LastOut),
		Punches:          newLabeledPunchResponses(rec.Punches),
		TotalWorkMinutes: rec.TotalWorkMinutes,
		LateMinutes:      rec.LateMinutes,
		UndertimeMinutes: rec.UndertimeMinutes,
		OvertimeMinutes:  rec.OvertimeMinutes,
		NightDiffMinutes: rec.NightDiffMinutes,
		NightDiffRate:    rec.NightDiffRate.String(),
		Status:           string(rec.Status),
		NeedsReview:      rec.NeedsReview,
		ReviewReason:     rec.ReviewReason,
	}
}

func NewPreviewResponse(result ProcessResult, scheduled bool) PreviewResponse {
	pairs := make([]PunchPairResponse, 0, len(result.Pairs))
	for _, p := range result.Pairs {
		pairs = append(pairs, PunchPairResponse{
			In:      timePtrToString(p.In),
			Out:     timePtrToString(p.Out),
			Minutes: p.Minutes(),
		})
	}
	return PreviewResponse{
		Punches:      newLabeledPunchResponses(result.Logs),
		Pairs:        pairs,
		FirstIn:      timePtrToString(result.FirstIn),
		LastOut:      timePtrToString(result.LastOut),
		DroppedCount: result.DroppedCount,
		Scheduled:    scheduled,
	}
}
