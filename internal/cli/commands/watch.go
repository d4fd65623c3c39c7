package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"QAChecklist/internal/cli/bootstrap"
	"QAChecklist/internal/cli/connectivity"
	"QAChecklist/internal/config"

	"golang.org/x/sync/errgroup"
)

type watchCmd struct{}

func (watchCmd) Name() string { return "watch" }
func (watchCmd) Description() string {
	return "Читать события сети (online/offline) из stdin и синхронизировать очередь при подключении"
}
func (watchCmd) Usage() string { return "watch" }

func (watchCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	return withApp(ctx, cfg, func(app *bootstrap.App) error {
		fmt.Fprintf(Out, "→ Ожидание событий сети (сейчас %s), в очереди %d\n",
			stateName(app.Monitor.Online()), app.Storage.GetPendingFormsCount(ctx))

		transitions, unsubscribe := app.Monitor.Subscribe()
		events := make(chan bool)
		readErr := make(chan error, 1)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			app.Storage.Consume(gctx, transitions)
			return nil
		})
		g.Go(func() error {
			// после закрытия events все события уже применены: закрываем подписку,
			// и Consume дообрабатывает оставшиеся переходы
			app.Monitor.Watch(gctx, events)
			unsubscribe()
			return nil
		})
		// чтение stdin не прерывается контекстом, поэтому вне группы
		go func() {
			defer close(events)
			readErr <- readEvents(gctx, In, events)
		}()

		if err := g.Wait(); err != nil {
			return err
		}
		select {
		case err := <-readErr:
			if err != nil {
				return err
			}
		default:
		}
		fmt.Fprintf(Out, "• Завершено, в очереди %d\n", app.Storage.GetPendingFormsCount(ctx))
		return nil
	})
}

func readEvents(ctx context.Context, r io.Reader, events chan<- bool) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		online, err := connectivity.ParseEvent(line)
		if err != nil {
			fmt.Fprintf(Out, "! %v\n", err)
			continue
		}
		select {
		case events <- online:
			fmt.Fprintf(Out, "• сеть: %s\n", stateName(online))
		case <-ctx.Done():
			return nil
		}
	}
	return sc.Err()
}

func stateName(online bool) string {
	if online {
		return "online"
	}
	return "offline"
}

func init() { RegisterCmd(watchCmd{}) }
