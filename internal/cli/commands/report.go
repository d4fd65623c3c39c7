package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"QAChecklist/internal/cli/bootstrap"
	"QAChecklist/internal/config"
	"QAChecklist/internal/model"
	"QAChecklist/internal/report"
)

type reportCmd struct{}

func (reportCmd) Name() string { return "report" }
func (reportCmd) Description() string {
	return "Показать сводку инспекции; --send отправляет её в таблицу отчётов"
}
func (reportCmd) Usage() string {
	return "report [--send --inspector-sign S --cleaner-sign S --cleaner-name N] [--json] <form-id>"
}

func (reportCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	fs := newFlagSet("report")
	send := fs.Bool("send", false, "отправить сводку на сервер")
	asJSON := fs.Bool("json", false, "вывести сводку в JSON")
	sig := addSignatureFlags(fs)
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		return ErrUsage
	}
	formID := fs.Arg(0)

	return withApp(ctx, cfg, func(app *bootstrap.App) error {
		data := app.Storage.LoadFormData(ctx, formID)
		if data == nil {
			return fmt.Errorf("%w: %s", ErrFormNotFound, formID)
		}
		if *send {
			if !app.Storage.IsOnline() {
				return errors.New("нет сети: сводка отправляется только онлайн")
			}
			if _, err := app.Summary.Build(formID, data, sig.value()); err != nil {
				return err
			}
			sendSummary(ctx, app, formID, data, sig)
			return nil
		}

		var rd model.ReportData
		if err := json.Unmarshal(data, &rd); err != nil {
			return fmt.Errorf("decode form %s: %w", formID, err)
		}
		sum := report.BuildSummary(formID, rd, sig.value(), time.Now())
		if *asJSON {
			b, err := json.MarshalIndent(sum, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(Out, string(b))
			return nil
		}
		printSummary(sum)
		return nil
	})
}

func printSummary(s model.SheetsSubmission) {
	fmt.Fprintf(Out, "form:      %s\n", s.FormID)
	fmt.Fprintf(Out, "inspector: %s\n", s.InspectorInfo.InspectorName)
	fmt.Fprintf(Out, "facility:  %s\n", s.InspectorInfo.FacilityName)
	fmt.Fprintf(Out, "overall:   %s (follow-up: %s)\n", s.OverallStatus, report.FollowUpTime(s.OverallStatus))
	fmt.Fprintf(Out, "items:     %d rated in %d areas (green=%d yellow=%d red=%d)\n",
		s.TotalItems, s.TotalAreas, s.StatusCounts.Green, s.StatusCounts.Yellow, s.StatusCounts.Red)
	fmt.Fprintln(Out, "areas:")
	for _, a := range s.AreaBreakdown {
		fmt.Fprintf(Out, "  - %-28s %-6s %d/%d rated\n", a.AreaName, a.Status, a.GreenCount+a.YellowCount+a.RedCount, a.ItemCount)
	}
	printCategory("high priority", s.CategorizedItems.HighPriority)
	printCategory("room to grow", s.CategorizedItems.RoomToGrow)
	printCategory("excellent", s.CategorizedItems.Excellent)
}

func printCategory(title string, items []model.CategorizedItem) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(Out, "%s:\n", title)
	for _, it := range items {
		line := fmt.Sprintf("  - %s: %s", it.Area, it.Item)
		if it.Comments != "" {
			line += " — " + it.Comments
		}
		fmt.Fprintln(Out, line)
	}
}

func init() { RegisterCmd(reportCmd{}) }
