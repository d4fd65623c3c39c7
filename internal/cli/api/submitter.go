package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrDeliveryFailed: форма не принята сервером: сеть, таймаут, не-2xx или success=false.
var ErrDeliveryFailed = errors.New("delivery failed")

// SubmitRequest: тело POST /api/submit-qa-form.
type SubmitRequest struct {
	FormID    string          `json:"formId"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

type SubmitResult struct {
	SubmissionID string
	ServerTime   string
}

// Submitter доставляет снимок формы на сервер.
type Submitter interface {
	Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error)
}

type submitResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	FormID       string `json:"formId"`
	SubmissionID string `json:"submissionId"`
	Timestamp    string `json:"timestamp"`
}

// HTTPClient: клиент серверного API форм.
type HTTPClient struct {
	BaseURL string
	Timeout time.Duration // на один запрос
	Client  *http.Client
}

var _ Submitter = (*HTTPClient)(nil)

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{BaseURL: baseURL, Timeout: timeout, Client: &http.Client{}}
}

func (c *HTTPClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.Timeout)
}

// Submit отправляет форму. Успех, только 2xx с success=true.
func (c *HTTPClient) Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, body, err := PostJSON(ctx, c.Client, endpoint(c.BaseURL, "/api/submit-qa-form"), req)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	var sr submitResponse
	decodeErr := json.Unmarshal(body, &sr)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := sr.Message
		if decodeErr != nil || msg == "" {
			msg = string(body)
		}
		return SubmitResult{}, fmt.Errorf("%w: server status %d: %s", ErrDeliveryFailed, resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return SubmitResult{}, fmt.Errorf("%w: decode response: %w", ErrDeliveryFailed, decodeErr)
	}
	if !sr.Success {
		return SubmitResult{}, fmt.Errorf("%w: %s", ErrDeliveryFailed, sr.Message)
	}
	return SubmitResult{SubmissionID: sr.SubmissionID, ServerTime: sr.Timestamp}, nil
}

// Ping проверяет доступность сервера через /api/health.
func (c *HTTPClient) Ping(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	resp, body, err := GetJSON(ctx, c.Client, endpoint(c.BaseURL, "/api/health"))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
