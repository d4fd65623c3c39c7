package commands

import (
	"context"
	"fmt"

	"QAChecklist/internal/cli/bootstrap"
	"QAChecklist/internal/config"

	"github.com/dustin/go-humanize"
)

type statusCmd struct{}

func (statusCmd) Name() string { return "status" }
func (statusCmd) Description() string {
	return "Проверить сервер и показать состояние локального хранилища"
}
func (statusCmd) Usage() string { return "status" }

func (statusCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	return withApp(ctx, cfg, func(app *bootstrap.App) error {
		if err := app.Client.Ping(ctx); err != nil {
			fmt.Fprintf(Out, "server:   unreachable (%v)\n", err)
		} else {
			fmt.Fprintf(Out, "server:   ok (%s)\n", cfg.ServerURL)
		}
		conn := "online"
		if !app.Storage.IsOnline() {
			conn = "offline"
		}
		fmt.Fprintf(Out, "network:  %s\n", conn)
		mode := "durable"
		if app.Storage.IsDegraded() {
			mode = "fallback"
		}
		fmt.Fprintf(Out, "storage:  %s\n", mode)
		fmt.Fprintf(Out, "forms:    %d\n", len(app.Storage.GetAllSavedForms(ctx)))
		fmt.Fprintf(Out, "pending:  %d\n", app.Storage.GetPendingFormsCount(ctx))
		if u := app.Storage.StorageUsage(); u.Used > 0 {
			fmt.Fprintf(Out, "used:     %s\n", humanize.IBytes(u.Used))
		}
		if err := app.Storage.LastError(); err != nil {
			fmt.Fprintf(Out, "last error: %v\n", err)
		}
		return nil
	})
}

func init() { RegisterCmd(statusCmd{}) }
