package commands

import (
	"context"
	"errors"
	"fmt"

	"QAChecklist/internal/cli/api"
	"QAChecklist/internal/cli/bootstrap"
	cmodel "QAChecklist/internal/cli/model"
	"QAChecklist/internal/config"
)

type submitCmd struct{}

func (submitCmd) Name() string { return "submit" }
func (submitCmd) Description() string {
	return "Завершить форму и отправить на сервер (без сети — в очередь)"
}
func (submitCmd) Usage() string {
	return "submit [--inspector-sign S --cleaner-sign S --cleaner-name N] <form-id>"
}

func (submitCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	fs := newFlagSet("submit")
	sig := addSignatureFlags(fs)
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		return ErrUsage
	}
	formID := fs.Arg(0)

	return withApp(ctx, cfg, func(app *bootstrap.App) error {
		data := app.Storage.LoadFormData(ctx, formID)
		if data == nil {
			return fmt.Errorf("%w: %s", ErrFormNotFound, formID)
		}
		// подписи проверяем до отправки, чтобы не завершать форму с неполной сводкой
		if sig.set() {
			if _, err := app.Summary.Build(formID, data, sig.value()); err != nil {
				return err
			}
		}

		out, err := app.Storage.Submit(ctx, formID, data)
		switch {
		case errors.Is(err, api.ErrDeliveryFailed):
			fmt.Fprintf(Out, "× Ошибка отправки: %v\n", err)
			if out.Queued {
				fmt.Fprintln(Out, "• Форма сохранена и поставлена в очередь, повтор при следующей синхронизации")
			}
			return fmt.Errorf("submit %s: %w", formID, err)
		case err != nil:
			return err
		}

		switch {
		case out.Status == cmodel.FormSynced:
			fmt.Fprintf(Out, "✓ Форма доставлена: %s\n", formID)
			if out.SubmissionID != "" {
				fmt.Fprintf(Out, "  submission: %s\n", out.SubmissionID)
			}
		case out.Queued:
			fmt.Fprintln(Out, "• Нет сети: форма сохранена и поставлена в очередь отправки")
		default:
			fmt.Fprintf(Out, "• Форма сохранена: %s (%s)\n", formID, out.Status)
		}

		if sig.set() && app.Storage.IsOnline() {
			sendSummary(ctx, app, formID, data, sig)
		}
		return nil
	})
}

func sendSummary(ctx context.Context, app *bootstrap.App, formID string, data []byte, sig signatureFlags) {
	row, err := app.Summary.Send(ctx, formID, data, sig.value())
	switch {
	case errors.Is(err, api.ErrNotConfigured):
		fmt.Fprintln(Out, "• Таблица сводок на сервере не настроена")
	case err != nil:
		fmt.Fprintf(Out, "× Сводка не отправлена: %v\n", err)
	case row > 0:
		fmt.Fprintf(Out, "✓ Сводка добавлена в таблицу, строка %d\n", row)
	default:
		fmt.Fprintln(Out, "✓ Сводка отправлена")
	}
}

func init() { RegisterCmd(submitCmd{}) }
