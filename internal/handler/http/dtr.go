package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/hris-dtr/internal/domain/dtr"
	"github.com/cmlabs-hris/hris-dtr/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type DTRHandler interface {
	Calculate(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Batch(w http.ResponseWriter, r *http.Request)
	Preview(w http.ResponseWriter, r *http.Request)
}

type dtrHandlerImpl struct {
	dtrService  dtr.Service
	batchRunner dtr.BatchRunner
}

func NewDTRHandler(dtrService dtr.Service, batchRunner dtr.BatchRunner) DTRHandler {
	return &dtrHandlerImpl{
		dtrService:  dtrService,
		batchRunner: batchRunner,
	}
}

// Calculate implements DTRHandler.
func (h *dtrHandlerImpl) Calculate(w http.ResponseWriter, r *http.Request) {
	req := dtr.CalculateRequest{
		EmployeeID: chi.URLParam(r, "employeeID"),
		Date:       chi.URLParam(r, "date"),
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	record, err := h.dtrService.CalculateForDate(r.Context(), req.EmployeeID, req.ParsedDate)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Daily time record calculated", dtr.NewDailyTimeRecordResponse(record))
}

// Get implements DTRHandler.
func (h *dtrHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	req := dtr.CalculateRequest{
		EmployeeID: chi.URLParam(r, "employeeID"),
		Date:       chi.URLParam(r, "date"),
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	record, err := h.dtrService.GetRecord(r.Context(), req.EmployeeID, req.ParsedDate)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, dtr.NewDailyTimeRecordResponse(record))
}

// Batch implements DTRHandler.
func (h *dtrHandlerImpl) Batch(w http.ResponseWriter, r *http.Request) {
	var req dtr.BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	summary, err := h.batchRunner.Run(r.Context(), req.From, req.To, req.EmployeeIDs)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Batch recalculation finished", summary)
}

// Preview implements DTRHandler.
func (h *dtrHandlerImpl) Preview(w http.ResponseWriter, r *http.Request) {
	var req dtr.PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, scheduled, err := h.dtrService.Preview(r.Context(), req.EmployeeID, req.ParsedDate, req.RawPunches)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, dtr.NewPreviewResponse(result, scheduled))
}
