package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"QAChecklist/internal/cli/bootstrap"
	"QAChecklist/internal/config"
)

type showCmd struct{}

func (showCmd) Name() string        { return "show" }
func (showCmd) Description() string { return "Показать сохранённую форму" }
func (showCmd) Usage() string       { return "show <form-id>" }

func (showCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 || args[0] == "" {
		return ErrUsage
	}
	formID := args[0]
	return withApp(ctx, cfg, func(app *bootstrap.App) error {
		f := app.Storage.LoadForm(ctx, formID)
		if f == nil {
			if err := app.Storage.LastError(); err != nil {
				return err
			}
			return fmt.Errorf("%w: %s", ErrFormNotFound, formID)
		}
		fmt.Fprintf(Out, "form:     %s\n", f.FormID)
		fmt.Fprintf(Out, "status:   %s\n", f.Status)
		fmt.Fprintf(Out, "modified: %s\n", time.UnixMilli(f.LastModified).Format(time.RFC3339))
		var buf bytes.Buffer
		if err := json.Indent(&buf, f.Data, "", "  "); err != nil {
			return fmt.Errorf("decode form %s: %w", formID, err)
		}
		fmt.Fprintln(Out, buf.String())
		return nil
	})
}

func init() { RegisterCmd(showCmd{}) }
