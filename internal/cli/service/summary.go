package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"QAChecklist/internal/model"
	"QAChecklist/internal/report"

	"go.uber.org/zap"
)

// SummaryClient отправляет сводку инспекции на сервер.
type SummaryClient interface {
	SubmitSummary(ctx context.Context, s model.SheetsSubmission) (int, error)
}

// SummaryService собирает и отправляет сводку по завершённой инспекции.
// Работает мимо очереди отправки: без сети сводка просто не уходит.
type SummaryService struct {
	client SummaryClient
	logger *zap.SugaredLogger
	now    func() time.Time
}

func NewSummaryService(client SummaryClient, logger *zap.SugaredLogger) *SummaryService {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &SummaryService{client: client, logger: logger, now: time.Now}
}

// Build проверяет подписи и собирает сводку из данных формы.
func (s *SummaryService) Build(formID string, data []byte, sig model.Signatures) (model.SheetsSubmission, error) {
	if err := report.ValidateSignatures(sig); err != nil {
		return model.SheetsSubmission{}, err
	}
	var rd model.ReportData
	if err := json.Unmarshal(data, &rd); err != nil {
		return model.SheetsSubmission{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return report.BuildSummary(formID, rd, sig, s.now()), nil
}

// Send собирает сводку и отправляет её. Возвращает номер строки в таблице (0, неизвестен).
func (s *SummaryService) Send(ctx context.Context, formID string, data []byte, sig model.Signatures) (int, error) {
	sub, err := s.Build(formID, data, sig)
	if err != nil {
		return 0, err
	}
	row, err := s.client.SubmitSummary(ctx, sub)
	if err != nil {
		s.logger.Warnw("summary not submitted", "form_id", formID, "error", err)
		return 0, fmt.Errorf("submit summary: %w", err)
	}
	s.logger.Infow("summary submitted", "form_id", formID, "row", row, "overall", sub.OverallStatus)
	return row, nil
}
