package commands

import (
	"context"
	"fmt"
	"time"

	"QAChecklist/internal/cli/bootstrap"
	"QAChecklist/internal/cli/service"
	"QAChecklist/internal/config"

	"github.com/dustin/go-humanize"
)

type pendingCmd struct{}

func (pendingCmd) Name() string        { return "pending" }
func (pendingCmd) Description() string { return "Показать очередь отправки" }
func (pendingCmd) Usage() string       { return "pending" }

func (pendingCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	return withApp(ctx, cfg, func(app *bootstrap.App) error {
		list, err := app.Storage.PendingSubmissions(ctx)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Fprintln(Out, "Очередь пуста")
			return nil
		}
		for _, p := range list {
			fmt.Fprintf(Out, "- %s  form=%s  queued=%s  attempts=%d/%d  size=%s\n",
				p.ID, p.FormID, humanize.Time(time.UnixMilli(p.Timestamp)),
				p.RetryCount, service.MaxRetries, humanize.IBytes(uint64(len(p.Data))))
		}
		fmt.Fprintf(Out, "Всего: %d\n", len(list))
		return nil
	})
}

func init() { RegisterCmd(pendingCmd{}) }
