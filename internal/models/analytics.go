package models

// TitleCount is a grievance title submitted more than once.
type TitleCount struct {
	Title string `json:"title"`
	Count int64  `json:"count"`
}

// OfficerStats summarises the workload of a single officer.
type OfficerStats struct {
	OfficerID string `json:"officerId"`
	Name      string `json:"name"`
	Total     int64  `json:"total"`
	Resolved  int64  `json:"resolved"`
}

// Analytics is the admin dashboard summary.
type Analytics struct {
	ByStatus           map[string]int64 `json:"byStatus"`
	ByCategory         map[string]int64 `json:"byCategory"`
	AvgResolutionHours float64          `json:"avgResolutionHours"`
	SLAViolations      int64            `json:"slaViolations"`
	HighPriority       int64            `json:"highPriority"`
	RepeatedTitles     []TitleCount     `json:"repeatedTitles"`
	Officers           []OfficerStats   `json:"officers"`
}

// MaxRepeatedTitles caps the repeated titles list.
const MaxRepeatedTitles = 10
