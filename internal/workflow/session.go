// Package workflow holds the per-case state an officer builds up while
// processing one petition: file, text, claims, evidence and report header.
// Sessions are plain values passed explicitly; Manager keeps them by id.
package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ppiankov/casedesk/internal/model"
	"github.com/ppiankov/casedesk/internal/score"
)

// Step is the position in the processing flow
type Step int

const (
	StepUpload Step = iota
	StepClaims
	StepEvidence
	StepReport
)

var stepNames = [...]string{"upload", "claims", "evidence", "report"}

func (s Step) String() string {
	if s < StepUpload || s > StepReport {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

var (
	// ErrInvalidStep is returned by SetStep for a step outside the flow
	ErrInvalidStep = errors.New("invalid workflow step")

	// ErrUnknownEvidence is returned by UpdateEvidence for a missing id
	ErrUnknownEvidence = errors.New("unknown evidence")

	// ErrUnknownAction is returned by Apply for an unrecognised action type
	ErrUnknownAction = errors.New("unknown workflow action")
)

// PetitionFile describes the uploaded petition
type PetitionFile struct {
	Name           string `json:"name"`
	MediaType      string `json:"mediaType"`
	Size           int64  `json:"size"`
	PetitionID     string `json:"petitionId,omitempty"`
	PetitionNumber string `json:"petitionNumber,omitempty"`
}

// Session is the working state of one case
type Session struct {
	ID        string    `json:"id"`
	UpdatedAt time.Time `json:"updatedAt"`

	File       *PetitionFile    `json:"petitionFile"`
	Content    string           `json:"petitionContent"`
	Claims     []model.Claim    `json:"claims"`
	Evidence   []model.Evidence `json:"evidence"`
	ReportData model.ReportData `json:"reportData"`
	Step       Step             `json:"currentStep"`

	// Analysis extras kept for the report
	Summary         string                `json:"summary,omitempty"`
	Timeline        []model.TimelineEvent `json:"timeline,omitempty"`
	RiskFactors     []string              `json:"riskFactors,omitempty"`
	Recommendations []string              `json:"recommendations,omitempty"`
	OverallSeverity model.Severity        `json:"overallSeverity,omitempty"`
}

// NewSession returns an empty session
func NewSession(id string) *Session {
	s := &Session{ID: id}
	s.Reset()
	return s
}

// SetPetitionFile records the uploaded file
func (s *Session) SetPetitionFile(f PetitionFile) {
	s.File = &f
}

// SetContent records the petition text
func (s *Session) SetContent(content string) {
	s.Content = content
}

// SetClaims replaces the extracted claims
func (s *Session) SetClaims(claims []model.Claim) {
	s.Claims = append([]model.Claim(nil), claims...)
}

// SetAnalysis stores an analysis result: its claims plus the report extras
func (s *Session) SetAnalysis(a model.PetitionAnalysis) {
	s.SetClaims(a.Claims)
	s.Summary = a.Summary
	s.Timeline = append([]model.TimelineEvent(nil), a.Timeline...)
	s.RiskFactors = append([]string(nil), a.RiskFactors...)
	s.Recommendations = append([]string(nil), a.Recommendations...)
	s.OverallSeverity = a.OverallSeverity
}

// AddEvidence appends one evidence item. Scores are clamped and the
// rating is derived from them, whatever the caller sent.
func (s *Session) AddEvidence(e model.Evidence) {
	e.Scores = score.Clamp(e.Scores)
	e.Rating = score.RatingFor(score.Overall(e.Scores))
	s.Evidence = append(s.Evidence, e)
}

// EvidencePatch is a partial evidence update; nil fields are left alone
type EvidencePatch struct {
	Name    *string          `json:"name,omitempty"`
	Type    *string          `json:"type,omitempty"`
	FileRef *string          `json:"fileRef,omitempty"`
	ClaimID *string          `json:"claimId,omitempty"`
	Issues  *string          `json:"issues,omitempty"`
	Scores  *model.SubScores `json:"metadata,omitempty"`
}

// UpdateEvidence merges patch into the item with the given id. New scores
// re-derive the rating.
func (s *Session) UpdateEvidence(id string, patch EvidencePatch) error {
	for i := range s.Evidence {
		e := &s.Evidence[i]
		if e.ID != id {
			continue
		}
		if patch.Name != nil {
			e.Name = *patch.Name
		}
		if patch.Type != nil {
			e.Type = *patch.Type
		}
		if patch.FileRef != nil {
			e.FileRef = *patch.FileRef
		}
		if patch.ClaimID != nil {
			e.ClaimID = *patch.ClaimID
		}
		if patch.Issues != nil {
			e.Issues = *patch.Issues
		}
		if patch.Scores != nil {
			e.Scores = score.Clamp(*patch.Scores)
			e.Rating = score.RatingFor(score.Overall(e.Scores))
		}
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownEvidence, id)
}

// ReportDataPatch is a partial report header update
type ReportDataPatch struct {
	CaseNumber     *string   `json:"caseNumber,omitempty"`
	PetitionerName *string   `json:"petitionerName,omitempty"`
	Accused        *string   `json:"accused,omitempty"`
	PoliceStation  *string   `json:"policeStation,omitempty"`
	SHOName        *string   `json:"shoName,omitempty"`
	IncidentDates  *[]string `json:"incidentDates,omitempty"`
	PetitionDate   *string   `json:"petitionDate,omitempty"`
}

// SetReportData merges patch into the report header
func (s *Session) SetReportData(patch ReportDataPatch) {
	d := &s.ReportData
	if patch.CaseNumber != nil {
		d.CaseNumber = *patch.CaseNumber
	}
	if patch.PetitionerName != nil {
		d.PetitionerName = *patch.PetitionerName
	}
	if patch.Accused != nil {
		d.Accused = *patch.Accused
	}
	if patch.PoliceStation != nil {
		d.PoliceStation = *patch.PoliceStation
	}
	if patch.SHOName != nil {
		d.SHOName = *patch.SHOName
	}
	if patch.IncidentDates != nil {
		d.IncidentDates = append([]string{}, (*patch.IncidentDates)...)
	}
	if patch.PetitionDate != nil {
		d.PetitionDate = *patch.PetitionDate
	}
}

// SetStep moves the session to step
func (s *Session) SetStep(step Step) error {
	if step < StepUpload || step > StepReport {
		return fmt.Errorf("%w: %d", ErrInvalidStep, int(step))
	}
	s.Step = step
	return nil
}

// Reset returns the session to its initial state, keeping the id
func (s *Session) Reset() {
	*s = Session{
		ID:         s.ID,
		UpdatedAt:  s.UpdatedAt,
		Claims:     []model.Claim{},
		Evidence:   []model.Evidence{},
		ReportData: model.ReportData{IncidentDates: []string{}},
	}
}

// Clone returns a deep copy
func (s *Session) Clone() *Session {
	c := *s
	if s.File != nil {
		f := *s.File
		c.File = &f
	}
	c.Claims = append([]model.Claim{}, s.Claims...)
	c.Evidence = append([]model.Evidence{}, s.Evidence...)
	c.Timeline = append([]model.TimelineEvent(nil), s.Timeline...)
	c.RiskFactors = append([]string(nil), s.RiskFactors...)
	c.Recommendations = append([]string(nil), s.Recommendations...)
	c.ReportData.IncidentDates = append([]string{}, s.ReportData.IncidentDates...)
	return &c
}

// Action types accepted by Apply
const (
	ActionSetPetitionFile = "SET_PETITION_FILE"
	ActionSetContent      = "SET_PETITION_CONTENT"
	ActionSetClaims       = "SET_CLAIMS"
	ActionSetAnalysis     = "SET_ANALYSIS"
	ActionAddEvidence     = "ADD_EVIDENCE"
	ActionUpdateEvidence  = "UPDATE_EVIDENCE"
	ActionSetReportData   = "SET_REPORT_DATA"
	ActionSetStep         = "SET_CURRENT_STEP"
	ActionReset           = "RESET_STATE"
)

// Action is a serialized session operation
type Action struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Apply decodes and runs one action
func (s *Session) Apply(a Action) error {
	switch a.Type {
	case ActionSetPetitionFile:
		var f PetitionFile
		if err := decode(a, &f); err != nil {
			return err
		}
		s.SetPetitionFile(f)
	case ActionSetContent:
		var content string
		if err := decode(a, &content); err != nil {
			return err
		}
		s.SetContent(content)
	case ActionSetClaims:
		var claims []model.Claim
		if err := decode(a, &claims); err != nil {
			return err
		}
		s.SetClaims(claims)
	case ActionSetAnalysis:
		var analysis model.PetitionAnalysis
		if err := decode(a, &analysis); err != nil {
			return err
		}
		s.SetAnalysis(analysis)
	case ActionAddEvidence:
		var e model.Evidence
		if err := decode(a, &e); err != nil {
			return err
		}
		s.AddEvidence(e)
	case ActionUpdateEvidence:
		var p struct {
			ID       string        `json:"id"`
			Evidence EvidencePatch `json:"evidence"`
		}
		if err := decode(a, &p); err != nil {
			return err
		}
		return s.UpdateEvidence(p.ID, p.Evidence)
	case ActionSetReportData:
		var p ReportDataPatch
		if err := decode(a, &p); err != nil {
			return err
		}
		s.SetReportData(p)
	case ActionSetStep:
		var step Step
		if err := decode(a, &step); err != nil {
			return err
		}
		return s.SetStep(step)
	case ActionReset:
		s.Reset()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, a.Type)
	}
	return nil
}

func decode(a Action, v interface{}) error {
	if len(a.Payload) == 0 {
		return fmt.Errorf("%s: missing payload", a.Type)
	}
	if err := json.Unmarshal(a.Payload, v); err != nil {
		return fmt.Errorf("%s: %w", a.Type, err)
	}
	return nil
}
