package commands

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"QAChecklist/internal/cli/api"
	"QAChecklist/internal/cli/bootstrap"
	"QAChecklist/internal/cli/service"
	"QAChecklist/internal/config"
	"QAChecklist/internal/model"
	"QAChecklist/internal/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, c Command, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	var err error
	out := withStdoutCapture(t, func() { err = c.Run(context.Background(), cfg, args) })
	return out, err
}

func mustRun(t *testing.T, c Command, cfg *config.Config, args ...string) string {
	t.Helper()
	out, err := run(t, c, cfg, args...)
	require.NoError(t, err, out)
	return out
}

// loadTestReport читает форму так же, как это делают команды.
func loadTestReport(t *testing.T, cfg *config.Config, formID string) (model.ReportData, error) {
	t.Helper()
	var rd model.ReportData
	err := withApp(context.Background(), cfg, func(app *bootstrap.App) error {
		var err error
		rd, err = loadReport(context.Background(), app.Storage, formID)
		return err
	})
	return rd, err
}

func TestNewShowForms(t *testing.T) {
	cfg := withTempConfig(t)

	out := mustRun(t, newCmd{}, cfg, "--id", "f1", "--inspector", "Ann", "--facility", "HQ")
	assert.Contains(t, out, "form:  f1")
	assert.Contains(t, out, "areas: ")

	out = mustRun(t, showCmd{}, cfg, "f1")
	assert.Contains(t, out, "status:   draft")
	assert.Contains(t, out, `"inspectorName": "Ann"`)

	out = mustRun(t, formsCmd{}, cfg)
	assert.Contains(t, out, "- f1")
	assert.Contains(t, out, "Всего: 1")

	_, err := run(t, newCmd{}, cfg, "--id", "f1")
	require.Error(t, err)

	_, err = run(t, showCmd{}, cfg, "missing")
	require.ErrorIs(t, err, ErrFormNotFound)

	_, err = run(t, showCmd{}, cfg)
	require.ErrorIs(t, err, ErrUsage)
}

func TestForms_Empty(t *testing.T) {
	cfg := withTempConfig(t)
	out := mustRun(t, formsCmd{}, cfg)
	assert.Contains(t, out, "Нет сохранённых форм")
}

func TestSave_FromStdinOfflineCompletedIsQueued(t *testing.T) {
	cfg := withTempConfig(t)

	withStdin(t, `{"inspectorInfo":{"inspectorName":"Kim"},"areas":[]}`)
	out := mustRun(t, saveCmd{}, cfg, "--completed", "f2", "-")
	assert.Contains(t, out, "Сохранено: f2 (completed)")
	assert.Contains(t, out, "поставлена в очередь")

	out = mustRun(t, pendingCmd{}, cfg)
	assert.Contains(t, out, "form=f2")
	assert.Contains(t, out, "attempts=0/3")
	assert.Contains(t, out, "Всего: 1")

	withStdin(t, `{not json`)
	_, err := run(t, saveCmd{}, cfg, "f2", "-")
	require.ErrorIs(t, err, service.ErrInvalidPayload)

	_, err = run(t, saveCmd{}, cfg, "f2")
	require.ErrorIs(t, err, ErrUsage)
}

func TestSave_FromFileDraftNotQueued(t *testing.T) {
	cfg := withTempConfig(t)
	path := filepath.Join(t.TempDir(), "form.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"areas":[]}`), 0o600))

	out := mustRun(t, saveCmd{}, cfg, "f2", path)
	assert.Contains(t, out, "(draft)")
	assert.NotContains(t, out, "очередь")

	out = mustRun(t, pendingCmd{}, cfg)
	assert.Contains(t, out, "Очередь пуста")
}

func TestSubmit_OfflineThenSync(t *testing.T) {
	srv := newFakeServer(t, true)
	cfg := withTempConfig(t)
	cfg.ServerURL = srv.URL

	mustRun(t, newCmd{}, cfg, "--id", "f3")
	out := mustRun(t, submitCmd{}, cfg, "f3")
	assert.Contains(t, out, "Нет сети")
	assert.Empty(t, srv.receivedForms())

	out = mustRun(t, syncCmd{}, cfg)
	assert.Contains(t, out, "синхронизация отложена, в очереди 1")

	cfg.Offline = false
	out = mustRun(t, syncCmd{}, cfg)
	assert.Contains(t, out, "Доставлено: 1")
	assert.Contains(t, out, "Осталось в очереди: 0")
	assert.Equal(t, []string{"f3"}, srv.receivedForms())

	out = mustRun(t, showCmd{}, cfg, "f3")
	assert.Contains(t, out, "status:   synced")

	out = mustRun(t, syncCmd{}, cfg)
	assert.Contains(t, out, "Очередь пуста")
}

func TestSubmit_ServerFailureQueuesAndRetries(t *testing.T) {
	srv := newFakeServer(t, false)
	cfg := withTempConfig(t)
	cfg.ServerURL = srv.URL
	cfg.Offline = false

	mustRun(t, newCmd{}, cfg, "--id", "f4")
	out, err := run(t, submitCmd{}, cfg, "f4")
	require.ErrorIs(t, err, api.ErrDeliveryFailed)
	assert.Contains(t, out, "Ошибка отправки")
	assert.Contains(t, out, "поставлена в очередь")

	out = mustRun(t, syncCmd{}, cfg)
	assert.Contains(t, out, "повтор позже: 1")

	out = mustRun(t, pendingCmd{}, cfg)
	assert.Contains(t, out, "attempts=1/3")

	srv.setAccept(true)
	out = mustRun(t, syncCmd{}, cfg)
	assert.Contains(t, out, "Доставлено: 1")
	assert.Equal(t, []string{"f4"}, srv.receivedForms())
}

func TestSubmit_OnlineWithSummary(t *testing.T) {
	srv := newFakeServer(t, true)
	cfg := withTempConfig(t)
	cfg.ServerURL = srv.URL
	cfg.Offline = false

	mustRun(t, newCmd{}, cfg, "--id", "f5", "--inspector", "Lee")

	_, err := run(t, submitCmd{}, cfg, "--cleaner-sign", "c", "--cleaner-name", "Max", "f5")
	require.ErrorIs(t, err, report.ErrInspectorSignature)
	assert.Empty(t, srv.receivedForms(), "incomplete signatures must stop submit")

	out := mustRun(t, submitCmd{}, cfg,
		"--inspector-sign", "i", "--cleaner-sign", "c", "--cleaner-name", "Max", "f5")
	assert.Contains(t, out, "Форма доставлена: f5")
	assert.Contains(t, out, "submission: sub-1")
	assert.Contains(t, out, "строка 2")

	_, err = run(t, submitCmd{}, cfg, "missing")
	require.ErrorIs(t, err, ErrFormNotFound)
}

func TestInspect_EditsAndFlushesOnQuit(t *testing.T) {
	cfg := withTempConfig(t)
	mustRun(t, newCmd{}, cfg, "--id", "f6")

	withStdin(t, strings.Join([]string{
		"set restrooms toilets red dirty floor near stalls",
		"info inspector Bob Stone",
		"set nowhere nothing green",
		"bogus",
		"status",
		"quit",
	}, "\n")+"\n")
	out := mustRun(t, inspectCmd{}, cfg, "f6")
	assert.Contains(t, out, "unknown area or item")
	assert.Contains(t, out, `unknown command "bogus"`)
	assert.Contains(t, out, "red=1")

	out = mustRun(t, showCmd{}, cfg, "f6")
	assert.Contains(t, out, "dirty floor near stalls")
	assert.Contains(t, out, `"inspectorName": "Bob Stone"`)
	assert.Contains(t, out, "status:   draft")
}

func TestInspect_SaveCommand(t *testing.T) {
	cfg := withTempConfig(t)
	mustRun(t, newCmd{}, cfg, "--id", "f6")

	withStdin(t, "feedback great job\nsave\n")
	out := mustRun(t, inspectCmd{}, cfg, "f6")
	assert.Contains(t, out, "Черновик сохранён")

	out = mustRun(t, showCmd{}, cfg, "f6")
	assert.Contains(t, out, "great job")
}

func TestApplyInspectLine(t *testing.T) {
	cfg := withTempConfig(t)
	mustRun(t, newCmd{}, cfg, "--id", "f")

	tests := []struct {
		name    string
		line    string
		quit    bool
		changed bool
		wantErr bool
	}{
		{name: "quit", line: "quit", quit: true},
		{name: "win", line: "win spotless lobby", changed: true},
		{name: "set without status", line: "set restrooms toilets", wantErr: true},
		{name: "bad status", line: "set restrooms toilets purple", wantErr: true},
		{name: "unknown info field", line: "info color blue", wantErr: true},
		{name: "empty win", line: "win", wantErr: true},
		{name: "comment", line: "comment restrooms sinks soap is out", changed: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := loadTestReport(t, cfg, "f")
			require.NoError(t, err)
			var quit, changed bool
			withStdoutCapture(t, func() { quit, changed, err = applyInspectLine(&r, tt.line) })
			assert.Equal(t, tt.quit, quit)
			assert.Equal(t, tt.changed, changed)
			assert.Equal(t, tt.wantErr, err != nil, "err=%v", err)
		})
	}
}

func TestPhotos_AddListRemove(t *testing.T) {
	cfg := withTempConfig(t)
	mustRun(t, newCmd{}, cfg, "--id", "f7")
	img := filepath.Join(t.TempDir(), "sink.jpg")
	require.NoError(t, os.WriteFile(img, []byte("jpeg-bytes"), 0o600))

	out := mustRun(t, photoAddCmd{}, cfg, "f7", "restrooms", "sinks", img)
	assert.Contains(t, out, "Фото добавлено")

	rd, err := loadTestReport(t, cfg, "f7")
	require.NoError(t, err)
	require.Len(t, rd.Area("restrooms").Item("sinks").Photos, 1)

	out = mustRun(t, photosCmd{}, cfg, "f7")
	assert.Contains(t, out, "restrooms/sinks")
	assert.Contains(t, out, "Всего: 1")

	out = mustRun(t, photoRmCmd{}, cfg, "f7", "restrooms", "sinks", "0")
	assert.Contains(t, out, "Фото удалено")

	out = mustRun(t, photosCmd{}, cfg, "f7", "restrooms", "sinks")
	assert.Contains(t, out, "Нет фото")

	rd, err = loadTestReport(t, cfg, "f7")
	require.NoError(t, err)
	assert.Empty(t, rd.Area("restrooms").Item("sinks").Photos)

	_, err = run(t, photoAddCmd{}, cfg, "f7", "restrooms", "nope", img)
	require.ErrorIs(t, err, errUnknownTarget)

	_, err = run(t, photoRmCmd{}, cfg, "f7", "restrooms", "sinks", "x")
	require.ErrorIs(t, err, ErrUsage)
}

func TestDeleteAndReset(t *testing.T) {
	cfg := withTempConfig(t)
	mustRun(t, newCmd{}, cfg, "--id", "a")
	mustRun(t, newCmd{}, cfg, "--id", "b")

	out := mustRun(t, deleteCmd{}, cfg, "a")
	assert.Contains(t, out, "Удалено: a")
	out = mustRun(t, formsCmd{}, cfg)
	assert.Contains(t, out, "Всего: 1")

	withStdin(t, "no\n")
	out = mustRun(t, resetCmd{}, cfg)
	assert.Contains(t, out, "Отменено")
	assert.Contains(t, mustRun(t, formsCmd{}, cfg), "Всего: 1")

	withStdin(t, "yes\n")
	out = mustRun(t, resetCmd{}, cfg)
	assert.Contains(t, out, "Все локальные данные удалены")
	assert.Contains(t, mustRun(t, formsCmd{}, cfg), "Нет сохранённых форм")
}

func TestReport_PrintAndJSON(t *testing.T) {
	cfg := withTempConfig(t)
	mustRun(t, newCmd{}, cfg, "--id", "r1", "--inspector", "Ann", "--facility", "HQ")

	out := mustRun(t, reportCmd{}, cfg, "r1")
	assert.Contains(t, out, "inspector: Ann")
	assert.Contains(t, out, "facility:  HQ")
	assert.Contains(t, out, "areas:")

	out = mustRun(t, reportCmd{}, cfg, "--json", "r1")
	assert.Contains(t, out, `"formId": "r1"`)

	_, err := run(t, reportCmd{}, cfg, "--send", "--inspector-sign", "i", "--cleaner-sign", "c", "--cleaner-name", "n", "r1")
	require.Error(t, err, "summary is online-only")

	_, err = run(t, reportCmd{}, cfg, "missing")
	require.ErrorIs(t, err, ErrFormNotFound)
}

func TestUsage_ReportsUsedBytes(t *testing.T) {
	cfg := withTempConfig(t)
	cfg.StorageQuotaMB = 10
	mustRun(t, newCmd{}, cfg, "--id", "u1")

	out := mustRun(t, usageCmd{}, cfg)
	assert.Contains(t, out, "used:")
	assert.Contains(t, out, "quota: 10 MiB")
}

func TestWatch_SyncsQueueOnReconnect(t *testing.T) {
	srv := newFakeServer(t, true)
	cfg := withTempConfig(t)
	cfg.ServerURL = srv.URL

	mustRun(t, newCmd{}, cfg, "--id", "w1")
	mustRun(t, submitCmd{}, cfg, "w1")

	withStdin(t, "# network log\nonline\nflaky\n")
	out := mustRun(t, watchCmd{}, cfg)
	assert.Contains(t, out, "сейчас offline), в очереди 1")
	assert.Contains(t, out, "сеть: online")
	assert.Contains(t, out, `unknown connectivity event "flaky"`)
	assert.Contains(t, out, "Завершено, в очереди 0")
	assert.Equal(t, []string{"w1"}, srv.receivedForms())
}

func TestWatch_RejectsArgs(t *testing.T) {
	_, err := run(t, watchCmd{}, withTempConfig(t), "x")
	require.ErrorIs(t, err, ErrUsage)
}
