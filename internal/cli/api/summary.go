package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"QAChecklist/internal/model"
)

// ErrNotConfigured: на сервере не настроена таблица сводок.
var ErrNotConfigured = errors.New("summary sheet is not configured on server")

type summaryResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	RowNumber int    `json:"rowNumber,omitempty"`
	Error     string `json:"error,omitempty"`
}

// SubmitSummary отправляет сводку инспекции и возвращает номер строки в таблице (0, неизвестен).
func (c *HTTPClient) SubmitSummary(ctx context.Context, s model.SheetsSubmission) (int, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, body, err := PostJSON(ctx, c.Client, endpoint(c.BaseURL, "/api/submit-to-sheets"), s)
	if err != nil {
		return 0, err
	}
	var sr summaryResponse
	_ = json.Unmarshal(body, &sr)
	switch {
	case resp.StatusCode == http.StatusServiceUnavailable:
		return 0, ErrNotConfigured
	case resp.StatusCode < 200 || resp.StatusCode > 299 || !sr.Success:
		msg := sr.Error
		if msg == "" {
			msg = sr.Message
		}
		if msg == "" {
			msg = string(body)
		}
		return 0, fmt.Errorf("summary rejected (status %d): %s", resp.StatusCode, msg)
	}
	return sr.RowNumber, nil
}
