package model

import (
	"time"

	"gorm.io/datatypes"
)

// Submission: серверная запись принятой формы инспекции.
// Пара (form_id, client_timestamp) уникальна: повторная доставка того же снимка не создаёт дубликат.
type Submission struct {
	ID              string         `gorm:"primaryKey;type:varchar(36)"`
	FormID          string         `gorm:"not null;uniqueIndex:idx_submission_form_ts"`
	ClientTimestamp int64          `gorm:"not null;uniqueIndex:idx_submission_form_ts"`
	InspectorName   string         `gorm:"index"`
	FacilityName    string         `gorm:"index"`
	Data            datatypes.JSON `gorm:"not null"`

	ReceivedAt time.Time `gorm:"autoCreateTime" json:"received_at"`
}

// SheetRow: строка таблицы сводок. Номер 1 занят строкой заголовков.
type SheetRow struct {
	ID            uint           `gorm:"primaryKey;autoIncrement"`
	SpreadsheetID string         `gorm:"not null;index:idx_sheet_rows_sheet"`
	SheetName     string         `gorm:"not null;index:idx_sheet_rows_sheet"`
	RowNumber     int            `gorm:"not null"`
	FormID        string         `gorm:"not null;index"`
	Values        datatypes.JSON `gorm:"not null"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
