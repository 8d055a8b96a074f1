package model

// Claim is a single legal allegation extracted from a petition
type Claim struct {
	ID           string   `json:"id"`
	Type         string   `json:"type"`                   // One of the ClaimType labels
	Statement    string   `json:"statement"`              // Quote from the petition
	Paragraph    string   `json:"paragraph"`              // Source paragraph reference, e.g. "¶2"
	Date         string   `json:"date"`                   // DD-MMM-YYYY or "Date not specified"
	Confidence   float64  `json:"confidence"`             // Always within [0,1]
	LegalSection string   `json:"legalSection,omitempty"` // e.g. "Section 351 BNS 2023"
	Severity     Severity `json:"severity"`
}

// ClaimType is the fixed claim taxonomy
type ClaimType string

const (
	ClaimPhysicalAssault     ClaimType = "Physical Assault"     // IPC 351-358
	ClaimPoliceNegligence    ClaimType = "Police Negligence"    // Section 166 BNS 2023
	ClaimProceduralViolation ClaimType = "Procedural Violation" // BNSS 2023
	ClaimPropertyDispute     ClaimType = "Property Dispute"     // IPC 441-462
	ClaimHarassment          ClaimType = "Harassment"           // IPC 354
	ClaimFraud               ClaimType = "Fraud"                // IPC 415-420
	ClaimCorruption          ClaimType = "Corruption"           // Prevention of Corruption Act
	ClaimOther               ClaimType = "Other"
)

// ClaimTypes lists the taxonomy in prompt order
func ClaimTypes() []ClaimType {
	return []ClaimType{
		ClaimPhysicalAssault,
		ClaimPoliceNegligence,
		ClaimProceduralViolation,
		ClaimPropertyDispute,
		ClaimHarassment,
		ClaimFraud,
		ClaimCorruption,
		ClaimOther,
	}
}

// Severity grades how urgent a claim or petition is
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
	SeverityUrgent Severity = "urgent"
)

// Valid reports whether s is one of the known severities
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityUrgent:
		return true
	}
	return false
}

// TimelineEvent is one dated event reconstructed from the petition
type TimelineEvent struct {
	Date  string    `json:"date"`
	Event string    `json:"event"`
	Type  EventType `json:"type"`
}

// EventType classifies timeline events
type EventType string

const (
	EventIncident   EventType = "incident"
	EventProcedural EventType = "procedural"
	EventFiling     EventType = "filing"
)

// PetitionAnalysis is the normalized output of claim extraction
type PetitionAnalysis struct {
	Summary         string          `json:"summary"`
	Claims          []Claim         `json:"claims"`
	Timeline        []TimelineEvent `json:"timeline"`
	RiskFactors     []string        `json:"riskFactors"`
	Recommendations []string        `json:"recommendations"`
	OverallSeverity Severity        `json:"overallSeverity"`
	ProcessingTime  int64           `json:"processingTime"` // milliseconds
}
