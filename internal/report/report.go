// Package report вычисляет итоги инспекции: статусы зон и формы, счётчики,
// распределение пунктов по категориям и сводку для таблицы отчётов.
package report

import (
	"errors"
	"strings"
	"time"

	"QAChecklist/internal/model"
)

var (
	ErrInspectorSignature = errors.New("inspector signature is required")
	ErrCleanerSignature   = errors.New("team member name and signature are required")
)

// worst сворачивает набор оценок: red важнее yellow, yellow важнее green, unset не учитывается.
func worst(statuses []model.QAStatus) model.QAStatus {
	res := model.StatusUnset
	for _, s := range statuses {
		switch s {
		case model.StatusRed:
			return model.StatusRed
		case model.StatusYellow:
			res = model.StatusYellow
		case model.StatusGreen:
			if res == model.StatusUnset {
				res = model.StatusGreen
			}
		}
	}
	return res
}

// AreaStatus: статус зоны по её пунктам.
func AreaStatus(area model.InspectionArea) model.QAStatus {
	statuses := make([]model.QAStatus, 0, len(area.Items))
	for _, it := range area.Items {
		statuses = append(statuses, it.Status)
	}
	return worst(statuses)
}

// OverallStatus: статус формы по статусам зон.
func OverallStatus(areas []model.InspectionArea) model.QAStatus {
	statuses := make([]model.QAStatus, 0, len(areas))
	for _, a := range areas {
		statuses = append(statuses, AreaStatus(a))
	}
	return worst(statuses)
}

func CountStatuses(areas []model.InspectionArea) model.StatusCounts {
	var c model.StatusCounts
	for _, a := range areas {
		for _, it := range a.Items {
			switch it.Status {
			case model.StatusGreen:
				c.Green++
			case model.StatusYellow:
				c.Yellow++
			case model.StatusRed:
				c.Red++
			}
		}
	}
	return c
}

// Categorize раскладывает оценённые пункты: green, excellent, yellow, room to grow,
// red: high priority. Фото прикладываются только к пунктам, требующим внимания.
func Categorize(areas []model.InspectionArea) model.CategorizedItems {
	res := model.CategorizedItems{
		Excellent:    []model.CategorizedItem{},
		RoomToGrow:   []model.CategorizedItem{},
		HighPriority: []model.CategorizedItem{},
	}
	for _, a := range areas {
		for _, it := range a.Items {
			ci := model.CategorizedItem{Area: a.Name, Item: it.Name, Comments: it.Comments}
			switch it.Status {
			case model.StatusGreen:
				res.Excellent = append(res.Excellent, ci)
			case model.StatusYellow:
				ci.Photos = photosOrEmpty(it.Photos)
				res.RoomToGrow = append(res.RoomToGrow, ci)
			case model.StatusRed:
				ci.Photos = photosOrEmpty(it.Photos)
				res.HighPriority = append(res.HighPriority, ci)
			}
		}
	}
	return res
}

func photosOrEmpty(p []string) []string {
	if p == nil {
		return []string{}
	}
	return append([]string(nil), p...)
}

// FollowUpTime: срок повторной проверки для статуса.
func FollowUpTime(status model.QAStatus) string {
	switch status {
	case model.StatusRed:
		return "24 hours"
	case model.StatusYellow:
		return "3 days"
	case model.StatusGreen:
		return "N/A"
	default:
		return "TBD"
	}
}

func Breakdown(areas []model.InspectionArea) []model.AreaBreakdown {
	res := make([]model.AreaBreakdown, 0, len(areas))
	for _, a := range areas {
		c := CountStatuses([]model.InspectionArea{a})
		res = append(res, model.AreaBreakdown{
			AreaName:    a.Name,
			Weight:      a.Weight,
			ItemCount:   len(a.Items),
			GreenCount:  c.Green,
			YellowCount: c.Yellow,
			RedCount:    c.Red,
			Status:      AreaStatus(a),
		})
	}
	return res
}

// ValidateSignatures проверяет подписи перед отправкой сводки.
func ValidateSignatures(sig model.Signatures) error {
	if strings.TrimSpace(sig.InspectorSignature) == "" {
		return ErrInspectorSignature
	}
	if strings.TrimSpace(sig.CleanerSignature) == "" || strings.TrimSpace(sig.CleanerName) == "" {
		return ErrCleanerSignature
	}
	return nil
}

// BuildSummary собирает сводку формы на момент now.
func BuildSummary(formID string, data model.ReportData, sig model.Signatures, now time.Time) model.SheetsSubmission {
	counts := CountStatuses(data.Areas)
	wins := data.Wins
	if wins == nil {
		wins = []model.WinsEntry{}
	}
	return model.SheetsSubmission{
		FormID:              formID,
		SubmissionTimestamp: now.UTC().Format("2006-01-02T15:04:05.000Z"),
		InspectorInfo:       data.InspectorInfo,
		OverallStatus:       OverallStatus(data.Areas),
		StatusCounts:        counts,
		TotalItems:          counts.Green + counts.Yellow + counts.Red,
		TotalAreas:          len(data.Areas),
		Wins:                wins,
		CleanerFeedback:     data.CleanerFeedback,
		Signatures:          sig,
		CategorizedItems:    Categorize(data.Areas),
		AreaBreakdown:       Breakdown(data.Areas),
	}
}
