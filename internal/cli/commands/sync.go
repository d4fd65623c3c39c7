package commands

import (
	"context"
	"fmt"

	"QAChecklist/internal/cli/bootstrap"
	"QAChecklist/internal/cli/service"
	"QAChecklist/internal/config"
)

type syncCmd struct{}

func (syncCmd) Name() string { return "sync" }
func (syncCmd) Description() string {
	return "Отправить очередь завершённых форм на сервер"
}
func (syncCmd) Usage() string { return "sync" }

func (syncCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	return withApp(ctx, cfg, func(app *bootstrap.App) error {
		if !app.Storage.IsOnline() {
			fmt.Fprintf(Out, "• Нет сети: синхронизация отложена, в очереди %d\n", app.Storage.GetPendingFormsCount(ctx))
			return nil
		}
		fmt.Fprintln(Out, "→ Синхронизация очереди…")
		res, err := app.Storage.SyncPendingForms(ctx)
		if err != nil {
			fmt.Fprintf(Out, "× Ошибка синхронизации: %v\n", err)
			return nil
		}
		printSyncSummary(res, app.Storage.GetPendingFormsCount(ctx))
		return nil
	})
}

func printSyncSummary(res service.SyncResult, left int) {
	if res.Delivered > 0 {
		fmt.Fprintf(Out, "✓ Доставлено: %d\n", res.Delivered)
	}
	if res.Retried > 0 {
		fmt.Fprintf(Out, "• Не доставлено, повтор позже: %d\n", res.Retried)
	}
	if res.Abandoned > 0 {
		fmt.Fprintf(Out, "! Отброшено после %d попыток: %d\n", service.MaxRetries, res.Abandoned)
	}
	if res.Failed > 0 {
		fmt.Fprintf(Out, "× Ошибки локального хранилища: %d\n", res.Failed)
	}
	if res == (service.SyncResult{}) {
		fmt.Fprintln(Out, "• Очередь пуста")
		return
	}
	fmt.Fprintf(Out, "• Осталось в очереди: %d\n", left)
}

func init() { RegisterCmd(syncCmd{}) }
