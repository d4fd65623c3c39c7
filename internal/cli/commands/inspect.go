package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"QAChecklist/internal/cli/bootstrap"
	"QAChecklist/internal/cli/service"
	"QAChecklist/internal/config"
	"QAChecklist/internal/model"
	"QAChecklist/internal/report"
)

var (
	errUnknownTarget = errors.New("unknown area or item")
	errBadArgs       = errors.New("wrong arguments (help — список команд)")
)

func findItem(rd *model.ReportData, areaID, itemID string) (*model.InspectionItem, error) {
	a := rd.Area(areaID)
	if a == nil {
		return nil, fmt.Errorf("%w: area %q", errUnknownTarget, areaID)
	}
	it := a.Item(itemID)
	if it == nil {
		return nil, fmt.Errorf("%w: item %q in %q", errUnknownTarget, itemID, areaID)
	}
	return it, nil
}

type inspectCmd struct{}

func (inspectCmd) Name() string { return "inspect" }
func (inspectCmd) Description() string {
	return "Интерактивно заполнить форму (черновик сохраняется автоматически)"
}
func (inspectCmd) Usage() string { return "inspect <form-id>" }

const inspectHelp = `Команды:
  set <area> <item> <green|yellow|red|unset> [comment]
  comment <area> <item> <text>
  info <inspector|facility|date|shift|team> <value>
  win <text>
  feedback <text>
  status
  save
  quit`

func (inspectCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 || args[0] == "" {
		return ErrUsage
	}
	formID := args[0]
	return withApp(ctx, cfg, func(app *bootstrap.App) error {
		rd, err := loadReport(ctx, app.Storage, formID)
		if err != nil {
			return err
		}
		saver := service.NewAutosaver(app.Storage, cfg.AutosaveDelay, app.Logger.Named("autosave"))
		defer saver.Stop()
		// при выходе сохраняем всё, что не успел сохранить таймер
		defer saver.Flush(context.WithoutCancel(ctx))

		fmt.Fprintln(Out, inspectHelp)
		sc := bufio.NewScanner(In)
		for {
			fmt.Fprint(Out, "> ")
			if !sc.Scan() {
				fmt.Fprintln(Out)
				return sc.Err()
			}
			line := strings.TrimSpace(sc.Text())
			if line == "" {
				continue
			}
			quit, changed, err := applyInspectLine(&rd, line)
			switch {
			case quit:
				return nil
			case err != nil:
				fmt.Fprintf(Out, "× %v\n", err)
				continue
			}
			switch {
			case changed:
				b, err := json.Marshal(rd)
				if err != nil {
					return err
				}
				saver.Touch(formID, b)
			case line == "save":
				saver.Flush(ctx)
				if err := app.Storage.LastError(); err != nil {
					fmt.Fprintf(Out, "× Черновик не сохранён: %v\n", err)
				} else {
					fmt.Fprintln(Out, "✓ Черновик сохранён")
				}
			case line == "status":
				overall := report.OverallStatus(rd.Areas)
				c := report.CountStatuses(rd.Areas)
				fmt.Fprintf(Out, "overall=%s follow-up=%s green=%d yellow=%d red=%d\n",
					overall, report.FollowUpTime(overall), c.Green, c.Yellow, c.Red)
			}
		}
	})
}

// applyInspectLine применяет одну команду к форме. changed, форма изменилась.
func applyInspectLine(rd *model.ReportData, line string) (quit, changed bool, err error) {
	fields := strings.Fields(line)
	rest := func(n int) string {
		if len(fields) <= n {
			return ""
		}
		return strings.Join(fields[n:], " ")
	}
	switch fields[0] {
	case "quit", "exit", "q":
		return true, false, nil
	case "save", "status":
		return false, false, nil
	case "help":
		fmt.Fprintln(Out, inspectHelp)
		return false, false, nil
	case "set":
		if len(fields) < 4 {
			return false, false, errBadArgs
		}
		st, ok := model.ParseQAStatus(fields[3])
		if !ok {
			return false, false, fmt.Errorf("unknown status %q", fields[3])
		}
		it, err := findItem(rd, fields[1], fields[2])
		if err != nil {
			return false, false, err
		}
		it.Status = st
		if c := rest(4); c != "" {
			it.Comments = c
		}
		return false, true, nil
	case "comment":
		if len(fields) < 3 {
			return false, false, errBadArgs
		}
		it, err := findItem(rd, fields[1], fields[2])
		if err != nil {
			return false, false, err
		}
		it.Comments = rest(3)
		return false, true, nil
	case "info":
		if len(fields) < 3 {
			return false, false, errBadArgs
		}
		v := rest(2)
		info := &rd.InspectorInfo
		switch fields[1] {
		case "inspector":
			info.InspectorName = v
		case "facility":
			info.FacilityName = v
		case "date":
			info.Date = v
		case "shift":
			info.Shift = v
		case "team":
			info.CleaningTeam = v
		default:
			return false, false, fmt.Errorf("unknown field %q", fields[1])
		}
		return false, true, nil
	case "win":
		text := rest(1)
		if text == "" {
			return false, false, errBadArgs
		}
		// первая пустая запись из шаблона заполняется, остальные добавляются
		if len(rd.Wins) == 1 && rd.Wins[0].Description == "" {
			rd.Wins[0].Description = text
		} else {
			rd.Wins = append(rd.Wins, model.WinsEntry{ID: strconv.Itoa(len(rd.Wins) + 1), Description: text})
		}
		return false, true, nil
	case "feedback":
		rd.CleanerFeedback = rest(1)
		return false, true, nil
	}
	return false, false, fmt.Errorf("unknown command %q (help — список команд)", fields[0])
}

func init() { RegisterCmd(inspectCmd{}) }
