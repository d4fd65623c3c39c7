package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"QAChecklist/internal/model"
	"QAChecklist/internal/service"

	"go.uber.org/zap"
)

// SheetHandler добавляет сводки инспекций в таблицу отчётов.
type SheetHandler struct {
	Sheets *service.SheetService
	Logger *zap.SugaredLogger
}

func NewSheetHandler(s *service.SheetService, logger *zap.SugaredLogger) *SheetHandler {
	return &SheetHandler{Sheets: s, Logger: logger}
}

type sheetResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	RowNumber int    `json:"rowNumber,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Submit: POST /api/submit-to-sheets.
func (h *SheetHandler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBody)

	var sum model.SheetsSubmission
	if err := json.NewDecoder(r.Body).Decode(&sum); err != nil {
		h.Logger.Warnw("SubmitToSheets: invalid request body", "error", err)
		writeJSON(w, http.StatusBadRequest, sheetResponse{Message: "Invalid request body", Error: err.Error()})
		return
	}

	row, err := h.Sheets.Append(r.Context(), sum)
	switch {
	case errors.Is(err, service.ErrInvalidSummary):
		writeJSON(w, http.StatusBadRequest, sheetResponse{
			Message: "Missing required fields",
			Error:   "Form ID and Inspector Name are required",
		})
		return
	case errors.Is(err, service.ErrNotConfigured):
		writeJSON(w, http.StatusServiceUnavailable, sheetResponse{
			Message: "Summary sheet not configured",
			Error:   "Please contact your administrator to configure the target spreadsheet",
		})
		return
	case err != nil:
		h.Logger.Errorw("SubmitToSheets: service error", "form_id", sum.FormID, "error", err)
		writeJSON(w, http.StatusInternalServerError, sheetResponse{
			Message: "Failed to submit report to sheet",
			Error:   err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, sheetResponse{
		Success:   true,
		Message:   fmt.Sprintf("Report successfully submitted (Row %d)", row),
		RowNumber: row,
	})
}

// MethodNotAllowed: endpoint принимает только POST.
func (h *SheetHandler) MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Allow", http.MethodPost)
	writeJSON(w, http.StatusMethodNotAllowed, sheetResponse{
		Message: "Method not allowed",
		Error:   "This endpoint only accepts POST requests",
	})
}
