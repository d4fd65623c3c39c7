package commands

import (
	"context"
	"fmt"

	"QAChecklist/internal/cli/bootstrap"
	cmodel "QAChecklist/internal/cli/model"
	"QAChecklist/internal/config"
)

type saveCmd struct{}

func (saveCmd) Name() string { return "save" }
func (saveCmd) Description() string {
	return "Сохранить данные формы из JSON-файла (или stdin)"
}
func (saveCmd) Usage() string { return "save [--completed] <form-id> <file.json|->" }

func (saveCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	fs := newFlagSet("save")
	completed := fs.Bool("completed", false, "сохранить как завершённую форму")
	if err := fs.Parse(args); err != nil || fs.NArg() != 2 {
		return ErrUsage
	}
	formID, path := fs.Arg(0), fs.Arg(1)
	data, err := readPayload(path)
	if err != nil {
		return err
	}
	status := cmodel.FormDraft
	if *completed {
		status = cmodel.FormCompleted
	}

	return withApp(ctx, cfg, func(app *bootstrap.App) error {
		res, err := app.Storage.SaveFormData(ctx, formID, data, status)
		if err != nil {
			return err
		}
		if res.Err != nil {
			return res.Err
		}
		fmt.Fprintf(Out, "✓ Сохранено: %s (%s)\n", formID, status)
		if res.Queued {
			fmt.Fprintln(Out, "• Нет сети: форма поставлена в очередь отправки")
		}
		return nil
	})
}

func init() { RegisterCmd(saveCmd{}) }
