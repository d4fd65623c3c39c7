package repo

import (
	"context"
	"encoding/json"

	"QAChecklist/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SheetRowRepository: таблица сводок инспекций. Строка 1 листа, заголовки,
// поэтому первая добавленная сводка получает номер 2.
type SheetRowRepository interface {
	Append(ctx context.Context, spreadsheetID, sheet, formID string, values []string) (rowNumber int, err error)
	List(ctx context.Context, spreadsheetID, sheet string) ([]model.SheetRow, error)
}

type sheetRowRepo struct {
	db *gorm.DB
}

func NewSheetRowRepository(db *gorm.DB) SheetRowRepository {
	return &sheetRowRepo{db: db}
}

func (r *sheetRowRepo) Append(ctx context.Context, spreadsheetID, sheet, formID string, values []string) (int, error) {
	b, err := json.Marshal(values)
	if err != nil {
		return 0, err
	}
	var row model.SheetRow
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.SheetRow{}).
			Where("spreadsheet_id = ? AND sheet_name = ?", spreadsheetID, sheet).
			Count(&n).Error; err != nil {
			return err
		}
		row = model.SheetRow{
			SpreadsheetID: spreadsheetID,
			SheetName:     sheet,
			RowNumber:     int(n) + 2,
			FormID:        formID,
			Values:        datatypes.JSON(b),
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		return 0, err
	}
	return row.RowNumber, nil
}

func (r *sheetRowRepo) List(ctx context.Context, spreadsheetID, sheet string) ([]model.SheetRow, error) {
	var out []model.SheetRow
	err := r.db.WithContext(ctx).
		Where("spreadsheet_id = ? AND sheet_name = ?", spreadsheetID, sheet).
		Order("row_number ASC").
		Find(&out).Error
	return out, err
}
