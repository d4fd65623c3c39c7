package handlers

import (
	"encoding/json"
	"net/http"

	"QAChecklist/internal/middleware"
	"QAChecklist/internal/service"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type Handler struct {
	Router chi.Router
}

// NewHandler разводящий для хендлеров
func NewHandler(
	submissions *service.SubmissionService,
	sheets *service.SheetService,
	logger *zap.SugaredLogger,
) *Handler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.WithGzip)
	r.Use(middleware.WithLogging)

	formHandler := NewFormHandler(submissions, logger)
	sheetHandler := NewSheetHandler(sheets, logger)

	r.Get("/api/health", Health)

	r.Post("/api/submit-qa-form", formHandler.Submit)
	r.Options("/api/submit-qa-form", formHandler.Preflight)

	r.Post("/api/submit-to-sheets", sheetHandler.Submit)
	r.Get("/api/submit-to-sheets", sheetHandler.MethodNotAllowed)

	return &Handler{Router: r}
}

// Health: проверка доступности для клиента.
func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
