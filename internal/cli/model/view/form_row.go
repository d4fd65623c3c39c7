package view

import (
	"encoding/json"
	"time"

	cmodel "QAChecklist/internal/cli/model"
	"QAChecklist/internal/model"
	"QAChecklist/internal/report"
)

// FormRow: DTO для отображения сохранённой формы в CLI.
type FormRow struct {
	FormID       string
	Status       cmodel.FormStatus
	LastModified time.Time
	Inspector    string
	Facility     string
	Overall      model.QAStatus
	FollowUp     string
	Counts       model.StatusCounts
}

// NewFormRow строит строку отображения. Нечитаемая нагрузка не мешает показать метаданные.
func NewFormRow(f cmodel.SavedForm) FormRow {
	row := FormRow{
		FormID:       f.FormID,
		Status:       f.Status,
		LastModified: time.UnixMilli(f.LastModified),
		Overall:      model.StatusUnset,
		FollowUp:     report.FollowUpTime(model.StatusUnset),
	}
	var data model.ReportData
	if err := json.Unmarshal(f.Data, &data); err != nil {
		return row
	}
	row.Inspector = data.InspectorInfo.InspectorName
	row.Facility = data.InspectorInfo.FacilityName
	row.Overall = report.OverallStatus(data.Areas)
	row.FollowUp = report.FollowUpTime(row.Overall)
	row.Counts = report.CountStatuses(data.Areas)
	return row
}
