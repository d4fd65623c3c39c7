package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"QAChecklist/internal/service"

	"go.uber.org/zap"
)

// maxFormBody: ограничение тела запроса с формой.
const maxFormBody = 10 << 20

// FormHandler принимает формы инспекций от клиентов.
type FormHandler struct {
	Submissions *service.SubmissionService
	Logger      *zap.SugaredLogger
}

func NewFormHandler(s *service.SubmissionService, logger *zap.SugaredLogger) *FormHandler {
	return &FormHandler{Submissions: s, Logger: logger}
}

type submitFormRequest struct {
	FormID    string          `json:"formId"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

type submitFormResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	FormID       string `json:"formId,omitempty"`
	SubmissionID string `json:"submissionId,omitempty"`
	Timestamp    string `json:"timestamp,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Submit: POST /api/submit-qa-form.
func (h *FormHandler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBody)

	var req submitFormRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Warnw("Submit: invalid request body", "error", err)
		writeJSON(w, http.StatusBadRequest, submitFormResponse{Message: "Invalid request body", Error: err.Error()})
		return
	}

	rc, err := h.Submissions.Submit(r.Context(), service.SubmitInput{
		FormID:    req.FormID,
		Data:      req.Data,
		Timestamp: req.Timestamp,
	})
	switch {
	case errors.Is(err, service.ErrMissingFields):
		writeJSON(w, http.StatusBadRequest, submitFormResponse{Message: "Missing required fields"})
		return
	case errors.Is(err, service.ErrInvalidFormData):
		writeJSON(w, http.StatusBadRequest, submitFormResponse{Message: "Invalid form data structure"})
		return
	case err != nil:
		h.Logger.Errorw("Submit: service error", "form_id", req.FormID, "error", err)
		writeJSON(w, http.StatusInternalServerError, submitFormResponse{Message: "Internal server error", Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, submitFormResponse{
		Success:      true,
		Message:      "QA form submitted successfully",
		FormID:       rc.FormID,
		SubmissionID: rc.SubmissionID,
		Timestamp:    rc.ReceivedAt.Format(time.RFC3339Nano),
	})
}

// Preflight: CORS для браузерного клиента.
func (h *FormHandler) Preflight(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.WriteHeader(http.StatusOK)
}
