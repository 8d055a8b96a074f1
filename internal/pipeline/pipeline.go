// Package pipeline runs one petition end to end on the local machine:
// intake, claim extraction, optional evidence grading and the report.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/casedesk/internal/analysis"
	"github.com/ppiankov/casedesk/internal/model"
	"github.com/ppiankov/casedesk/internal/normalize"
	"github.com/ppiankov/casedesk/internal/petition"
	"github.com/ppiankov/casedesk/internal/report"
	"github.com/ppiankov/casedesk/internal/workflow"
)

// Uploader records a petition file
type Uploader interface {
	Upload(ctx context.Context, req petition.UploadRequest) (*petition.UploadResult, error)
}

// Analyzer extracts claims and grades evidence
type Analyzer interface {
	AnalyzePetition(ctx context.Context, req analysis.AnalyzeRequest) (normalize.Result[model.PetitionAnalysis], error)
	EvaluateEvidence(ctx context.Context, req analysis.EvaluateRequest) (normalize.Result[model.EvidenceEvaluation], error)
}

// Pipeline orchestrates one case
type Pipeline struct {
	fetcher  *Fetcher
	uploads  Uploader
	analyzer Analyzer
	logger   *zap.Logger
	now      func() time.Time
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithFetcher sets the fetcher used for URL sources
func WithFetcher(f *Fetcher) Option {
	return func(p *Pipeline) { p.fetcher = f }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithClock sets the clock used for report timestamps
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New creates a pipeline
func New(uploads Uploader, analyzer Analyzer, opts ...Option) *Pipeline {
	p := &Pipeline{
		fetcher:  NewFetcher(30*time.Second, "casedesk", petition.MaxImageSize),
		uploads:  uploads,
		analyzer: analyzer,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Input names the petition and the optional case file
type Input struct {
	// Source is a local path or an http(s) URL
	Source string
	UserID string

	// CaseFile is an optional YAML file with evidence and report header fields
	CaseFile string

	ReportType model.ReportType
}

// CaseFile is the YAML companion to a petition
type CaseFile struct {
	Report   ReportHeader   `yaml:"report"`
	Evidence []EvidenceItem `yaml:"evidence"`
}

// ReportHeader fills the report fields the petition text does not provide
type ReportHeader struct {
	CaseNumber     string   `yaml:"case_number"`
	PetitionerName string   `yaml:"petitioner_name"`
	Accused        string   `yaml:"accused"`
	PoliceStation  string   `yaml:"police_station"`
	SHOName        string   `yaml:"sho_name"`
	IncidentDates  []string `yaml:"incident_dates"`
	PetitionDate   string   `yaml:"petition_date"`
}

// EvidenceItem is one piece of evidence to grade
type EvidenceItem struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	ClaimID     string `yaml:"claim_id"`
	Description string `yaml:"description"`
	FileRef     string `yaml:"file_ref"`
}

// LoadCaseFile reads a case file
func LoadCaseFile(path string) (*CaseFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read case file: %w", err)
	}
	var cf CaseFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse case file: %w", err)
	}
	for i := range cf.Evidence {
		if cf.Evidence[i].ID == "" {
			cf.Evidence[i].ID = fmt.Sprintf("E%d", i+1)
		}
		if cf.Evidence[i].Name == "" {
			cf.Evidence[i].Name = cf.Evidence[i].ID
		}
	}
	return &cf, nil
}

// Outcome is everything one run produced
type Outcome struct {
	Upload   *petition.UploadResult
	Session  *workflow.Session
	Report   model.Report
	Warnings []string
}

// Process runs the whole flow for one petition. Upload and analysis failures
// stop the run; evidence that cannot be graded becomes a warning.
func (p *Pipeline) Process(ctx context.Context, in Input) (*Outcome, error) {
	var cf *CaseFile
	if in.CaseFile != "" {
		var err error
		if cf, err = LoadCaseFile(in.CaseFile); err != nil {
			return nil, err
		}
	}

	name, mediaType, data, err := p.load(ctx, in.Source)
	if err != nil {
		return nil, err
	}

	up, err := p.uploads.Upload(ctx, petition.UploadRequest{
		UserID:    in.UserID,
		FileName:  name,
		MediaType: petition.ResolveType(mediaType, data),
		Data:      data,
	})
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}

	out := &Outcome{Upload: up, Warnings: append([]string(nil), up.Warnings...)}
	session := workflow.NewSession(uuid.NewString())
	out.Session = session

	session.SetPetitionFile(workflow.PetitionFile{
		Name:           up.FileName,
		MediaType:      up.FileType,
		Size:           up.FileSize,
		PetitionID:     up.PetitionID,
		PetitionNumber: up.PetitionNumber,
	})
	session.SetContent(up.Content)

	res, err := p.analyzer.AnalyzePetition(ctx, analysis.AnalyzeRequest{
		PetitionID: up.PetitionID,
		Content:    up.Content,
	})
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}
	if !res.IsOk() {
		return nil, fmt.Errorf("analyze (%s): %w", res.Kind, res.Err)
	}
	session.SetAnalysis(res.Value)
	_ = session.SetStep(workflow.StepClaims)

	if cf != nil {
		p.evaluate(ctx, session, cf.Evidence, out)
		session.SetReportData(cf.Report.patch())
	}

	_ = session.SetStep(workflow.StepReport)
	out.Report = report.Build(session, in.ReportType, p.now().UTC())

	p.logger.Info("petition processed",
		zap.String("petition_number", up.PetitionNumber),
		zap.Int("claims", len(session.Claims)),
		zap.Int("evidence", len(session.Evidence)),
		zap.Int("warnings", len(out.Warnings)))

	return out, nil
}

func (p *Pipeline) evaluate(ctx context.Context, session *workflow.Session, items []EvidenceItem, out *Outcome) {
	if len(items) == 0 {
		return
	}
	_ = session.SetStep(workflow.StepEvidence)

	for _, item := range items {
		res, err := p.analyzer.EvaluateEvidence(ctx, analysis.EvaluateRequest{
			EvidenceID:      item.ID,
			Description:     item.Description,
			EvidenceType:    item.Type,
			ClaimID:         item.ClaimID,
			PetitionContext: session.Summary,
		})
		if err == nil && !res.IsOk() {
			err = res.Err
		}
		if err != nil {
			out.Warnings = append(out.Warnings, fmt.Sprintf("evidence %s not evaluated: %v", item.ID, err))
			p.logger.Warn("evidence evaluation skipped", zap.String("evidence_id", item.ID), zap.Error(err))
			continue
		}

		session.AddEvidence(model.Evidence{
			ID:      item.ID,
			Name:    item.Name,
			Type:    item.Type,
			FileRef: item.FileRef,
			ClaimID: item.ClaimID,
			Rating:  res.Value.Rating,
			Issues:  res.Value.Issues,
			Scores:  res.Value.SubScores,
		})
	}
}

func (h ReportHeader) patch() workflow.ReportDataPatch {
	var patch workflow.ReportDataPatch
	set := func(dst **string, v string) {
		if v != "" {
			*dst = &v
		}
	}
	set(&patch.CaseNumber, h.CaseNumber)
	set(&patch.PetitionerName, h.PetitionerName)
	set(&patch.Accused, h.Accused)
	set(&patch.PoliceStation, h.PoliceStation)
	set(&patch.SHOName, h.SHOName)
	set(&patch.PetitionDate, h.PetitionDate)
	if len(h.IncidentDates) > 0 {
		dates := h.IncidentDates
		patch.IncidentDates = &dates
	}
	return patch
}

func (p *Pipeline) load(ctx context.Context, source string) (name, mediaType string, data []byte, err error) {
	if IsURL(source) {
		res, err := p.fetcher.FetchWithRetry(ctx, source)
		if err != nil {
			return "", "", nil, fmt.Errorf("fetch petition: %w", err)
		}
		return res.FileName, res.MediaType, res.Data, nil
	}

	data, err = os.ReadFile(source)
	if err != nil {
		return "", "", nil, fmt.Errorf("read petition: %w", err)
	}
	return filepath.Base(source), "", data, nil
}

// IsURL reports whether source should be fetched over HTTP
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}
