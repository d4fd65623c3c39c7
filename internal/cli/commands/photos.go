package commands

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"

	"QAChecklist/internal/cli/bootstrap"
	"QAChecklist/internal/config"

	"github.com/dustin/go-humanize"
)

type photoAddCmd struct{}

func (photoAddCmd) Name() string        { return "photo-add" }
func (photoAddCmd) Description() string { return "Прикрепить фото к пункту чек-листа" }
func (photoAddCmd) Usage() string       { return "photo-add <form-id> <area> <item> <file>" }

func (photoAddCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 4 {
		return ErrUsage
	}
	formID, areaID, itemID, path := args[0], args[1], args[2], args[3]
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return withApp(ctx, cfg, func(app *bootstrap.App) error {
		rd, err := loadReport(ctx, app.Storage, formID)
		if err != nil {
			return err
		}
		it, err := findItem(&rd, areaID, itemID)
		if err != nil {
			return err
		}
		p, err := app.Storage.AddPhoto(ctx, formID, areaID, itemID, content)
		if err != nil {
			return err
		}
		// в форме храним ссылку на вложение
		it.Photos = append(it.Photos, p.ID)
		if err := saveDraft(ctx, app.Storage, formID, rd); err != nil {
			return err
		}
		fmt.Fprintf(Out, "✓ Фото добавлено: %s (%s)\n", p.ID, humanize.IBytes(uint64(len(content))))
		return nil
	})
}

type photosCmd struct{}

func (photosCmd) Name() string        { return "photos" }
func (photosCmd) Description() string { return "Показать фото формы или пункта" }
func (photosCmd) Usage() string       { return "photos <form-id> [<area> <item>]" }

func (photosCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 && len(args) != 3 {
		return ErrUsage
	}
	formID, areaID, itemID := args[0], "", ""
	if len(args) == 3 {
		areaID, itemID = args[1], args[2]
	}
	return withApp(ctx, cfg, func(app *bootstrap.App) error {
		list, err := app.Storage.ListPhotos(ctx, formID, areaID, itemID)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Fprintln(Out, "Нет фото")
			return nil
		}
		for i, p := range list {
			fmt.Fprintf(Out, "[%d] %s/%s  id=%s  size=%s  taken=%s\n",
				i, p.AreaID, p.ItemID, p.ID, humanize.IBytes(uint64(len(p.Content))),
				humanize.Time(time.UnixMilli(p.Timestamp)))
		}
		fmt.Fprintf(Out, "Всего: %d\n", len(list))
		return nil
	})
}

type photoRmCmd struct{}

func (photoRmCmd) Name() string        { return "photo-rm" }
func (photoRmCmd) Description() string { return "Удалить фото пункта по индексу" }
func (photoRmCmd) Usage() string       { return "photo-rm <form-id> <area> <item> <index>" }

func (photoRmCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 4 {
		return ErrUsage
	}
	formID, areaID, itemID := args[0], args[1], args[2]
	idx, err := strconv.Atoi(args[3])
	if err != nil {
		return ErrUsage
	}
	return withApp(ctx, cfg, func(app *bootstrap.App) error {
		list, err := app.Storage.ListPhotos(ctx, formID, areaID, itemID)
		if err != nil {
			return err
		}
		if err := app.Storage.RemovePhoto(ctx, formID, areaID, itemID, idx); err != nil {
			return err
		}
		removed := list[idx].ID
		// убираем ссылку из формы, если форма ещё есть
		if rd, err := loadReport(ctx, app.Storage, formID); err == nil {
			if it, err := findItem(&rd, areaID, itemID); err == nil {
				it.Photos = slices.DeleteFunc(it.Photos, func(id string) bool { return id == removed })
				if err := saveDraft(ctx, app.Storage, formID, rd); err != nil {
					return err
				}
			}
		}
		fmt.Fprintf(Out, "✓ Фото удалено: %s\n", removed)
		return nil
	})
}

func init() {
	RegisterCmd(photoAddCmd{})
	RegisterCmd(photosCmd{})
	RegisterCmd(photoRmCmd{})
}
