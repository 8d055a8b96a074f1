package model

import "time"

// ReportData holds the case header fields shown on the investigation report
type ReportData struct {
	CaseNumber     string   `json:"caseNumber"`
	PetitionerName string   `json:"petitionerName"`
	Accused        string   `json:"accused"`
	PoliceStation  string   `json:"policeStation"`
	SHOName        string   `json:"shoName"`
	IncidentDates  []string `json:"incidentDates"`
	PetitionDate   string   `json:"petitionDate"`
}

// ReportType selects how much of the case the report includes
type ReportType string

const (
	ReportSummary   ReportType = "summary"
	ReportDetailed  ReportType = "detailed"
	ReportDashboard ReportType = "dashboard"
)

// Valid reports whether t is a known report type
func (t ReportType) Valid() bool {
	switch t {
	case ReportSummary, ReportDetailed, ReportDashboard:
		return true
	}
	return false
}

// Report is the denormalized case aggregate used for display and export
type Report struct {
	Type        ReportType `json:"type"`
	GeneratedAt time.Time  `json:"generatedAt"`
	Data        ReportData `json:"data"`

	Summary         string          `json:"summary,omitempty"`
	Claims          []Claim         `json:"claims"`
	Evidence        []Evidence      `json:"evidence"`
	Timeline        []TimelineEvent `json:"timeline,omitempty"`
	RiskFactors     []string        `json:"riskFactors,omitempty"`
	Recommendations []string        `json:"recommendations,omitempty"`
	OverallSeverity Severity        `json:"overallSeverity,omitempty"`

	ClaimSummary    ClaimSummary    `json:"claimSummary"`
	EvidenceSummary EvidenceSummary `json:"evidenceSummary"`
	Signals         []Signal        `json:"signals"`
}

// ClaimSummary counts claims
type ClaimSummary struct {
	Total          int            `json:"total"`
	HighConfidence int            `json:"highConfidence"` // confidence of at least 0.8
	BySeverity     map[string]int `json:"bySeverity"`
}

// EvidenceSummary counts evidence by rating
type EvidenceSummary struct {
	Total        int     `json:"total"`
	Good         int     `json:"good"`
	Moderate     int     `json:"moderate"`
	Bad          int     `json:"bad"`
	AverageScore float64 `json:"averageScore"`
}

// Score is the transparent breakdown of an evidence evaluation
type Score struct {
	Overall int                    `json:"overall"` // Rounded mean of the eight sub-scores
	Rating  Rating                 `json:"rating"`
	Data    map[string]interface{} `json:"data,omitempty"` // Inputs and formula
}

// Signal is a diagnostic observation about a case with transparent data
type Signal struct {
	Type        SignalType             `json:"type"`
	Severity    SignalSeverity         `json:"severity"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// SignalType classifies case signals
type SignalType string

const (
	SignalEvidenceCoverage SignalType = "evidence_coverage" // Claims backed by at least one item
	SignalWeakEvidence     SignalType = "weak_evidence"     // Items rated Bad
	SignalLowConfidence    SignalType = "low_confidence"    // Claims below 0.6 confidence
	SignalUrgentClaims     SignalType = "urgent_claims"     // Claims graded urgent
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)
