package commands

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"QAChecklist/internal/cli/bootstrap"
	cmodel "QAChecklist/internal/cli/model"
	"QAChecklist/internal/cli/service"
	"QAChecklist/internal/config"
	"QAChecklist/internal/model"
)

// ErrFormNotFound: формы с таким идентификатором нет в локальном хранилище.
var ErrFormNotFound = errors.New("form not found")

// withApp открывает клиент на время выполнения fn.
func withApp(ctx context.Context, cfg *config.Config, fn func(app *bootstrap.App) error) error {
	app, done, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer done()
	if app.Storage.IsDegraded() {
		fmt.Fprintln(Out, "! Локальная БД недоступна: используется резервное хранилище (без очереди и фото)")
	}
	return fn(app)
}

// newFlagSet: набор флагов команды без вывода в stderr.
func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// readPayload читает JSON формы из файла или из In, если путь "-".
func readPayload(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(In)
	}
	return os.ReadFile(path)
}

// loadReport читает сохранённую форму и разбирает её данные.
func loadReport(ctx context.Context, st *service.Storage, formID string) (model.ReportData, error) {
	var rd model.ReportData
	data := st.LoadFormData(ctx, formID)
	if data == nil {
		if err := st.LastError(); err != nil {
			return rd, err
		}
		return rd, fmt.Errorf("%w: %s", ErrFormNotFound, formID)
	}
	if err := json.Unmarshal(data, &rd); err != nil {
		return rd, fmt.Errorf("decode form %s: %w", formID, err)
	}
	return rd, nil
}

// saveDraft сохраняет правку формы черновиком. Ошибка сохранения здесь
// возвращается: пользователь CLI должен её увидеть.
func saveDraft(ctx context.Context, st *service.Storage, formID string, rd model.ReportData) error {
	b, err := json.Marshal(rd)
	if err != nil {
		return err
	}
	res, _ := st.SaveFormData(ctx, formID, b, cmodel.FormDraft)
	return res.Err
}

// signatureFlags: подписи для сводки, общие для submit и report.
type signatureFlags struct {
	inspector, cleaner, cleanerName *string
}

func addSignatureFlags(fs *flag.FlagSet) signatureFlags {
	return signatureFlags{
		inspector:   fs.String("inspector-sign", "", "подпись инспектора"),
		cleaner:     fs.String("cleaner-sign", "", "подпись сотрудника клининга"),
		cleanerName: fs.String("cleaner-name", "", "имя сотрудника клининга"),
	}
}

func (s signatureFlags) set() bool {
	return *s.inspector != "" || *s.cleaner != "" || *s.cleanerName != ""
}

func (s signatureFlags) value() model.Signatures {
	return model.Signatures{
		InspectorSignature: *s.inspector,
		CleanerSignature:   *s.cleaner,
		CleanerName:        *s.cleanerName,
	}
}
