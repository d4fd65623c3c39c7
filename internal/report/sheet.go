package report

import (
	"fmt"
	"strconv"
	"strings"

	"QAChecklist/internal/model"
)

// SheetHeaders: строка заголовков таблицы сводок; порядок совпадает с FormatRow.
var SheetHeaders = []string{
	"Submission Date",
	"Form ID",
	"Inspector Name",
	"Facility Name",
	"Inspection Date",
	"Shift",
	"Cleaning Team",
	"Overall Status",
	"Total Items",
	"Green Count",
	"Yellow Count",
	"Red Count",
	"Total Areas",
	"Wins Count",
	"Wins Details",
	"Cleaner Feedback",
	"Inspector Signature",
	"Cleaner Name",
	"Cleaner Signature",
	"Excellent Items Count",
	"Room to Grow Count",
	"High Priority Count",
	"Area Breakdown",
	"Excellent Items Details",
	"Room to Grow Details",
	"High Priority Details",
}

const detailsSep = " | "

func itemDetails(items []model.CategorizedItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		s := it.Area + ": " + it.Item
		if it.Comments != "" {
			s += " - " + it.Comments
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, detailsSep)
}

// FormatRow превращает сводку в строку таблицы.
func FormatRow(s model.SheetsSubmission) []string {
	wins := make([]string, 0, len(s.Wins))
	for _, w := range s.Wins {
		if strings.TrimSpace(w.Description) != "" {
			wins = append(wins, w.Description)
		}
	}

	areas := make([]string, 0, len(s.AreaBreakdown))
	for _, a := range s.AreaBreakdown {
		areas = append(areas, fmt.Sprintf("%s: %dG/%dY/%dR (%s)", a.AreaName, a.GreenCount, a.YellowCount, a.RedCount, a.Status))
	}

	return []string{
		s.SubmissionTimestamp,
		s.FormID,
		s.InspectorInfo.InspectorName,
		s.InspectorInfo.FacilityName,
		s.InspectorInfo.Date,
		s.InspectorInfo.Shift,
		s.InspectorInfo.CleaningTeam,
		string(s.OverallStatus),
		strconv.Itoa(s.TotalItems),
		strconv.Itoa(s.StatusCounts.Green),
		strconv.Itoa(s.StatusCounts.Yellow),
		strconv.Itoa(s.StatusCounts.Red),
		strconv.Itoa(s.TotalAreas),
		strconv.Itoa(len(wins)),
		strings.Join(wins, detailsSep),
		s.CleanerFeedback,
		s.Signatures.InspectorSignature,
		s.Signatures.CleanerName,
		s.Signatures.CleanerSignature,
		strconv.Itoa(len(s.CategorizedItems.Excellent)),
		strconv.Itoa(len(s.CategorizedItems.RoomToGrow)),
		strconv.Itoa(len(s.CategorizedItems.HighPriority)),
		strings.Join(areas, detailsSep),
		itemDetails(s.CategorizedItems.Excellent),
		itemDetails(s.CategorizedItems.RoomToGrow),
		itemDetails(s.CategorizedItems.HighPriority),
	}
}
