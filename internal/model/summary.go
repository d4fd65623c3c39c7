package model

type StatusCounts struct {
	Green  int `json:"green"`
	Yellow int `json:"yellow"`
	Red    int `json:"red"`
}

type CategorizedItem struct {
	Area     string   `json:"area"`
	Item     string   `json:"item"`
	Comments string   `json:"comments"`
	Photos   []string `json:"photos,omitempty"`
}

type CategorizedItems struct {
	Excellent    []CategorizedItem `json:"excellent"`
	RoomToGrow   []CategorizedItem `json:"roomToGrow"`
	HighPriority []CategorizedItem `json:"highPriority"`
}

type AreaBreakdown struct {
	AreaName    string   `json:"areaName"`
	Weight      float64  `json:"weight"`
	ItemCount   int      `json:"itemCount"`
	GreenCount  int      `json:"greenCount"`
	YellowCount int      `json:"yellowCount"`
	RedCount    int      `json:"redCount"`
	Status      QAStatus `json:"status"`
}

type Signatures struct {
	InspectorSignature string `json:"inspectorSignature"`
	CleanerSignature   string `json:"cleanerSignature"`
	CleanerName        string `json:"cleanerName"`
}

// SheetsSubmission: сводка инспекции для таблицы отчётов.
type SheetsSubmission struct {
	FormID              string           `json:"formId"`
	SubmissionTimestamp string           `json:"submissionTimestamp"`
	InspectorInfo       InspectorInfo    `json:"inspectorInfo"`
	OverallStatus       QAStatus         `json:"overallStatus"`
	StatusCounts        StatusCounts     `json:"statusCounts"`
	TotalItems          int              `json:"totalItems"`
	TotalAreas          int              `json:"totalAreas"`
	Wins                []WinsEntry      `json:"wins"`
	CleanerFeedback     string           `json:"cleanerFeedback"`
	Signatures          Signatures       `json:"signatures"`
	CategorizedItems    CategorizedItems `json:"categorizedItems"`
	AreaBreakdown       []AreaBreakdown  `json:"areaBreakdown"`
}
