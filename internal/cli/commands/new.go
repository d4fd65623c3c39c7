package commands

import (
	"context"
	"fmt"
	"time"

	"QAChecklist/internal/checklist"
	"QAChecklist/internal/cli/bootstrap"
	"QAChecklist/internal/config"
	"QAChecklist/internal/model"

	"github.com/google/uuid"
)

type newCmd struct{}

func (newCmd) Name() string { return "new" }
func (newCmd) Description() string {
	return "Создать черновик инспекции по шаблону чек-листа"
}
func (newCmd) Usage() string {
	return "new [--id ID] [--inspector N] [--facility F] [--shift S] [--team T] [--template file.yaml]"
}

func (newCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	fs := newFlagSet("new")
	id := fs.String("id", "", "идентификатор формы (по умолчанию генерируется)")
	inspector := fs.String("inspector", "", "имя инспектора")
	facility := fs.String("facility", "", "объект")
	date := fs.String("date", time.Now().Format("2006-01-02"), "дата инспекции")
	shift := fs.String("shift", "", "смена")
	team := fs.String("team", "", "бригада клининга")
	tplPath := fs.String("template", "", "YAML-шаблон чек-листа")
	if err := fs.Parse(args); err != nil || fs.NArg() != 0 {
		return ErrUsage
	}

	tpl, err := checklist.Default()
	if *tplPath != "" {
		tpl, err = checklist.Load(*tplPath)
	}
	if err != nil {
		return err
	}

	formID := *id
	if formID == "" {
		formID = "qa-" + uuid.NewString()
	}
	rd := tpl.NewReport(model.InspectorInfo{
		InspectorName: *inspector,
		FacilityName:  *facility,
		Date:          *date,
		Shift:         *shift,
		CleaningTeam:  *team,
	})

	return withApp(ctx, cfg, func(app *bootstrap.App) error {
		if existing := app.Storage.LoadForm(ctx, formID); existing != nil {
			return fmt.Errorf("form %s already exists", formID)
		}
		if err := saveDraft(ctx, app.Storage, formID, rd); err != nil {
			return err
		}
		items := 0
		for _, a := range rd.Areas {
			items += len(a.Items)
		}
		fmt.Fprintln(Out, "Created:")
		fmt.Fprintf(Out, "  form:  %s\n", formID)
		fmt.Fprintf(Out, "  areas: %d\n", len(rd.Areas))
		fmt.Fprintf(Out, "  items: %d\n", items)
		return nil
	})
}

func init() { RegisterCmd(newCmd{}) }
