package commands

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"QAChecklist/internal/config"
)

// withTempConfig возвращает конфиг клиента, у которого база и резервное хранилище
// лежат во временном каталоге теста. Сеть по умолчанию выключена.
func withTempConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		ServerURL:     "http://127.0.0.1:1",
		ClientDBPath:  filepath.Join(dir, "db", "forms.db"),
		FallbackDir:   filepath.Join(dir, "fallback"),
		Offline:       true,
		LogEnv:        "production",
		SubmitTimeout: time.Second,
		AutosaveDelay: 20 * time.Millisecond,
	}
}

// withStdin подменяет ввод интерактивных команд на время теста.
func withStdin(t *testing.T, s string) {
	t.Helper()
	old := In
	In = strings.NewReader(s)
	t.Cleanup(func() { In = old })
}

// fakeServer: сервер форм, принимающий или отклоняющий отправки.
type fakeServer struct {
	*httptest.Server
	mu       sync.Mutex
	accept   bool
	received []string
	sheets   int
}

func newFakeServer(t *testing.T, accept bool) *fakeServer {
	t.Helper()
	fs := &fakeServer{accept: accept}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.mu.Lock()
		defer fs.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/health":
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		case "/api/submit-qa-form":
			var req struct {
				FormID string `json:"formId"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			if !fs.accept {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"success":false,"message":"unavailable"}`))
				return
			}
			fs.received = append(fs.received, req.FormID)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": true, "message": "ok", "formId": req.FormID, "submissionId": "sub-1",
			})
		case "/api/submit-to-sheets":
			fs.sheets++
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "message": "ok", "rowNumber": fs.sheets + 1})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fakeServer) setAccept(v bool) {
	fs.mu.Lock()
	fs.accept = v
	fs.mu.Unlock()
}

func (fs *fakeServer) receivedForms() []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]string(nil), fs.received...)
}
