package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"QAChecklist/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostJSON_SendsPayload_And_TrimsBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var m map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&m))
		assert.Equal(t, float64(1), m["x"]) // JSON number → float64
		_, _ = w.Write([]byte("  {\"ok\":true}\n"))
	}))
	defer ts.Close()

	resp, body, err := PostJSON(context.Background(), nil, ts.URL+"/api", map[string]any{"x": 1})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `{"ok":true}`, string(body))
}

func TestPostJSON_Errors(t *testing.T) {
	// chan в payload вызовет ошибку json.Marshal
	_, _, err := PostJSON(context.Background(), nil, "http://example.invalid", map[string]any{"c": make(chan int)})
	assert.Error(t, err)

	_, _, err = PostJSON(context.Background(), nil, "http://[::1", map[string]any{"a": 1})
	assert.Error(t, err)

	_, _, err = PostJSON(context.Background(), nil, "http://127.0.0.1:1", map[string]any{"a": 1})
	assert.Error(t, err)
}

func TestSubmit_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/submit-qa-form", r.URL.Path)
		var req SubmitRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "f1", req.FormID)
		assert.Equal(t, int64(42), req.Timestamp)
		assert.JSONEq(t, `{"a":1}`, string(req.Data))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true, "message": "ok", "formId": "f1", "submissionId": "s-1", "timestamp": "2026-01-01T00:00:00Z",
		})
	}))
	defer ts.Close()

	c := NewHTTPClient(ts.URL+"/", time.Second)
	res, err := c.Submit(context.Background(), SubmitRequest{FormID: "f1", Data: json.RawMessage(`{"a":1}`), Timestamp: 42})
	require.NoError(t, err)
	assert.Equal(t, "s-1", res.SubmissionID)
	assert.Equal(t, "2026-01-01T00:00:00Z", res.ServerTime)
}

func TestSubmit_Failures(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
		msg     string
	}{
		{"non-2xx with message", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"success":false,"message":"Missing required fields"}`))
		}, "Missing required fields"},
		{"non-2xx plain body", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}, "boom"},
		{"success false", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"success":false,"message":"nope"}`))
		}, "nope"},
		{"bad json", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("{"))
		}, "decode"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := httptest.NewServer(tc.handler)
			defer ts.Close()
			_, err := NewHTTPClient(ts.URL, time.Second).Submit(context.Background(), SubmitRequest{FormID: "f1", Data: json.RawMessage(`{}`)})
			require.ErrorIs(t, err, ErrDeliveryFailed)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}

func TestSubmit_TimeoutAndNetwork(t *testing.T) {
	block := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(block)

	_, err := NewHTTPClient(ts.URL, 50*time.Millisecond).Submit(context.Background(), SubmitRequest{FormID: "f1", Data: json.RawMessage(`{}`)})
	assert.ErrorIs(t, err, ErrDeliveryFailed)

	_, err = NewHTTPClient("http://127.0.0.1:1", time.Second).Submit(context.Background(), SubmitRequest{FormID: "f1", Data: json.RawMessage(`{}`)})
	assert.ErrorIs(t, err, ErrDeliveryFailed)
}

func TestPing(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer ts.Close()
	assert.NoError(t, NewHTTPClient(ts.URL, time.Second).Ping(context.Background()))

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer bad.Close()
	assert.Error(t, NewHTTPClient(bad.URL, time.Second).Ping(context.Background()))
}

func TestSubmitSummary(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var s model.SheetsSubmission
		require.NoError(t, json.NewDecoder(r.Body).Decode(&s))
		switch s.FormID {
		case "ok":
			_, _ = w.Write([]byte(`{"success":true,"message":"saved","rowNumber":7}`))
		case "off":
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"success":false,"message":"not configured"}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"success":false,"message":"Missing required fields","error":"formId"}`))
		}
	}))
	defer ts.Close()
	c := NewHTTPClient(ts.URL, time.Second)

	row, err := c.SubmitSummary(context.Background(), model.SheetsSubmission{FormID: "ok"})
	require.NoError(t, err)
	assert.Equal(t, 7, row)

	_, err = c.SubmitSummary(context.Background(), model.SheetsSubmission{FormID: "off"})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = c.SubmitSummary(context.Background(), model.SheetsSubmission{FormID: "bad"})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "formId"))
}
