package commands

import (
	"context"
	"fmt"

	"QAChecklist/internal/cli/bootstrap"
	"QAChecklist/internal/config"
)

type deleteCmd struct{}

func (deleteCmd) Name() string        { return "delete" }
func (deleteCmd) Description() string { return "Удалить форму и её фото" }
func (deleteCmd) Usage() string       { return "delete <form-id>" }

func (deleteCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 || args[0] == "" {
		return ErrUsage
	}
	return withApp(ctx, cfg, func(app *bootstrap.App) error {
		if err := app.Storage.DeleteFormData(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(Out, "✓ Удалено: %s\n", args[0])
		return nil
	})
}

func init() { RegisterCmd(deleteCmd{}) }
