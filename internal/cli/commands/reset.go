package commands

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"QAChecklist/internal/cli/bootstrap"
	"QAChecklist/internal/config"
)

type resetCmd struct{}

func (resetCmd) Name() string { return "reset" }
func (resetCmd) Description() string {
	return "Удалить все локальные формы, очередь и фото"
}
func (resetCmd) Usage() string { return "reset [--yes]" }

func (resetCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	fs := newFlagSet("reset")
	yes := fs.Bool("yes", false, "не спрашивать подтверждение")
	if err := fs.Parse(args); err != nil || fs.NArg() != 0 {
		return ErrUsage
	}
	return withApp(ctx, cfg, func(app *bootstrap.App) error {
		if !*yes {
			pending := app.Storage.GetPendingFormsCount(ctx)
			if pending > 0 {
				fmt.Fprintf(Out, "! В очереди %d неотправленных форм, они будут потеряны\n", pending)
			}
			fmt.Fprint(Out, "Удалить все локальные данные? [yes/no]: ")
			line, _ := bufio.NewReader(In).ReadString('\n')
			if strings.ToLower(strings.TrimSpace(line)) != "yes" {
				fmt.Fprintln(Out, "• Отменено пользователем")
				return nil
			}
		}
		if err := app.Storage.ClearAllData(ctx); err != nil {
			return err
		}
		fmt.Fprintln(Out, "✓ Все локальные данные удалены")
		return nil
	})
}

func init() { RegisterCmd(resetCmd{}) }
