package commands

import (
	"context"
	"fmt"

	"QAChecklist/internal/cli/bootstrap"
	"QAChecklist/internal/config"

	"github.com/dustin/go-humanize"
)

type usageCmd struct{}

func (usageCmd) Name() string        { return "usage" }
func (usageCmd) Description() string { return "Показать занятое и доступное место" }
func (usageCmd) Usage() string       { return "usage" }

func (usageCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	return withApp(ctx, cfg, func(app *bootstrap.App) error {
		u := app.Storage.StorageUsage()
		if u.Used == 0 && u.Quota == 0 {
			fmt.Fprintln(Out, "Использование хранилища неизвестно")
			return nil
		}
		fmt.Fprintf(Out, "used:  %s\n", humanize.IBytes(u.Used))
		if u.Quota > 0 {
			fmt.Fprintf(Out, "quota: %s (%.1f%%)\n", humanize.IBytes(u.Quota), float64(u.Used)*100/float64(u.Quota))
		} else {
			fmt.Fprintln(Out, "quota: неизвестна")
		}
		return nil
	})
}

func init() { RegisterCmd(usageCmd{}) }
