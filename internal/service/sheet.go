package service

import (
	"context"
	"errors"
	"fmt"

	"QAChecklist/internal/model"
	"QAChecklist/internal/report"
	"QAChecklist/internal/repo"

	"go.uber.org/zap"
)

var (
	// ErrNotConfigured: не задан идентификатор таблицы или имя листа.
	ErrNotConfigured = errors.New("summary sheet is not configured")
	// ErrInvalidSummary: в сводке нет formId или имени инспектора.
	ErrInvalidSummary = errors.New("form ID and inspector name are required")
)

// SheetService добавляет сводки инспекций в таблицу отчётов.
type SheetService struct {
	repo          repo.SheetRowRepository
	spreadsheetID string
	sheetName     string
	logger        *zap.SugaredLogger
}

func NewSheetService(r repo.SheetRowRepository, spreadsheetID, sheetName string, logger *zap.SugaredLogger) *SheetService {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &SheetService{repo: r, spreadsheetID: spreadsheetID, sheetName: sheetName, logger: logger}
}

func (s *SheetService) Configured() bool {
	return s.spreadsheetID != "" && s.sheetName != ""
}

// Headers: строка 1 листа.
func (s *SheetService) Headers() []string {
	return report.SheetHeaders
}

// Append форматирует сводку в строку листа и возвращает её номер.
func (s *SheetService) Append(ctx context.Context, sum model.SheetsSubmission) (int, error) {
	if sum.FormID == "" || sum.InspectorInfo.InspectorName == "" {
		return 0, ErrInvalidSummary
	}
	if !s.Configured() {
		return 0, ErrNotConfigured
	}
	row, err := s.repo.Append(ctx, s.spreadsheetID, s.sheetName, sum.FormID, report.FormatRow(sum))
	if err != nil {
		return 0, fmt.Errorf("append summary %s: %w", sum.FormID, err)
	}
	s.logger.Infow("summary appended", "form_id", sum.FormID, "sheet", s.sheetName, "row", row)
	return row, nil
}

// Rows возвращает значения всех строк листа после заголовка.
func (s *SheetService) Rows(ctx context.Context) ([]model.SheetRow, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}
	return s.repo.List(ctx, s.spreadsheetID, s.sheetName)
}
