package commands

import (
	"context"
	"fmt"

	"QAChecklist/internal/cli/bootstrap"
	"QAChecklist/internal/cli/model/view"
	"QAChecklist/internal/config"

	"github.com/dustin/go-humanize"
)

type formsCmd struct{}

func (formsCmd) Name() string { return "forms" }
func (formsCmd) Description() string {
	return "Показать все сохранённые формы"
}
func (formsCmd) Usage() string { return "forms" }

func (formsCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	return withApp(ctx, cfg, func(app *bootstrap.App) error {
		list := app.Storage.GetAllSavedForms(ctx)
		if err := app.Storage.LastError(); err != nil && len(list) == 0 {
			return err
		}
		if len(list) == 0 {
			fmt.Fprintln(Out, "Нет сохранённых форм")
			return nil
		}
		for _, f := range list {
			r := view.NewFormRow(f)
			fmt.Fprintf(Out, "- %s  status=%s  overall=%s  inspector=%q  facility=%q  modified=%s\n",
				r.FormID, r.Status, r.Overall, r.Inspector, r.Facility, humanize.Time(r.LastModified))
		}
		fmt.Fprintf(Out, "Всего: %d\n", len(list))
		return nil
	})
}

func init() { RegisterCmd(formsCmd{}) }
