package model

// QAStatus: оценка пункта чек-листа.
type QAStatus string

const (
	StatusGreen  QAStatus = "green"
	StatusYellow QAStatus = "yellow"
	StatusRed    QAStatus = "red"
	StatusUnset  QAStatus = "unset"
)

// ParseQAStatus распознаёт оценку; пустая строка означает unset.
func ParseQAStatus(s string) (QAStatus, bool) {
	switch QAStatus(s) {
	case StatusGreen, StatusYellow, StatusRed, StatusUnset:
		return QAStatus(s), true
	case "":
		return StatusUnset, true
	}
	return "", false
}

type InspectorInfo struct {
	InspectorName string `json:"inspectorName"`
	FacilityName  string `json:"facilityName"`
	Date          string `json:"date"`
	Shift         string `json:"shift"`
	CleaningTeam  string `json:"cleaningTeam"`
}

type InspectionItem struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Status   QAStatus `json:"status"`
	Comments string   `json:"comments"`
	Photos   []string `json:"photos"`
}

type InspectionArea struct {
	ID     string           `json:"id"`
	Name   string           `json:"name"`
	Weight float64          `json:"weight"`
	Items  []InspectionItem `json:"items"`
}

type WinsEntry struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// ReportData: полезная нагрузка формы инспекции. Хранилище клиента обращается
// с ней как с непрозрачным JSON; разбирают её только отчёт и сервер.
type ReportData struct {
	InspectorInfo   InspectorInfo    `json:"inspectorInfo"`
	Areas           []InspectionArea `json:"areas"`
	Wins            []WinsEntry      `json:"wins"`
	CleanerFeedback string           `json:"cleanerFeedback"`
}

// Area возвращает зону по id.
func (r *ReportData) Area(id string) *InspectionArea {
	for i := range r.Areas {
		if r.Areas[i].ID == id {
			return &r.Areas[i]
		}
	}
	return nil
}

// Item возвращает пункт зоны по id.
func (a *InspectionArea) Item(id string) *InspectionItem {
	for i := range a.Items {
		if a.Items[i].ID == id {
			return &a.Items[i]
		}
	}
	return nil
}
