// Package analysis runs petition claim extraction and evidence evaluation
// against the configured completion provider.
package analysis

import (
	"context"
	"errors"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/ppiankov/casedesk/internal/llm"
	"github.com/ppiankov/casedesk/internal/model"
	"github.com/ppiankov/casedesk/internal/normalize"
	"github.com/ppiankov/casedesk/internal/store"
)

// Petition content bounds, in characters
const (
	MinContentChars = 50
	MaxContentChars = 50000
)

// Completion settings per operation
const (
	analysisTemperature   = 0.3
	analysisMaxTokens     = 3000
	evaluationTemperature = 0.2
	evaluationMaxTokens   = 1500
)

// InputError is a malformed request, reported to the caller verbatim
type InputError struct {
	Message string
}

func (e *InputError) Error() string {
	return e.Message
}

// Messages are the caller-facing failure texts of one operation
type Messages struct {
	Unavailable string
	Empty       string
	Parse       string
}

var (
	// AnalysisMessages describe AnalyzePetition failures
	AnalysisMessages = Messages{
		Unavailable: "AI analysis service temporarily unavailable",
		Empty:       "No analysis generated",
		Parse:       "Failed to parse AI analysis",
	}

	// EvaluationMessages describe EvaluateEvidence failures
	EvaluationMessages = Messages{
		Unavailable: "AI evaluation service temporarily unavailable",
		Empty:       "No evaluation generated",
		Parse:       "Failed to parse AI evaluation",
	}
)

// AnalyzeRequest asks for claim extraction from a petition
type AnalyzeRequest struct {
	PetitionID string `json:"petitionId"`
	Content    string `json:"content"`
}

// EvaluateRequest asks for a quality evaluation of one evidence item
type EvaluateRequest struct {
	EvidenceID      string `json:"evidenceId"`
	Description     string `json:"description"`
	EvidenceType    string `json:"evidenceType"`
	ClaimID         string `json:"claimId"`
	PetitionContext string `json:"petitionContext,omitempty"`
}

// Service wraps a provider with validation, normalization and persistence
type Service struct {
	provider llm.Provider
	store    store.Store
	logger   *zap.Logger
	policy   *bluemonday.Policy
	now      func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithStore persists successful results
func WithStore(st store.Store) Option {
	return func(s *Service) { s.store = st }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides time.Now for processing-time measurement
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates an analysis service. provider may be nil, in which
// case every call fails with llm.ErrNotConfigured.
func NewService(provider llm.Provider, opts ...Option) *Service {
	s := &Service{
		provider: provider,
		logger:   zap.NewNop(),
		policy:   bluemonday.StrictPolicy(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Configured reports whether a provider is available
func (s *Service) Configured() bool {
	return s.provider != nil
}

// AnalyzePetition extracts claims, timeline and recommendations. Input
// problems and a missing provider are returned as errors; provider and
// shape failures come back in the Result.
func (s *Service) AnalyzePetition(ctx context.Context, req AnalyzeRequest) (normalize.Result[model.PetitionAnalysis], error) {
	var none normalize.Result[model.PetitionAnalysis]

	content := s.plain(req.Content)
	if strings.TrimSpace(req.PetitionID) == "" || strings.TrimSpace(content) == "" {
		return none, &InputError{Message: "Missing required fields: petitionId and content"}
	}
	n := utf8.RuneCountInString(content)
	if n < MinContentChars {
		return none, &InputError{Message: "Petition content too short for analysis"}
	}
	if n > MaxContentChars {
		return none, &InputError{Message: "Petition content too long (max 50,000 characters)"}
	}
	if s.provider == nil {
		return none, llm.ErrNotConfigured
	}

	start := s.now()
	resp, err := s.provider.Complete(ctx, llm.CompletionRequest{
		System:      llm.PetitionAnalysisSystem,
		User:        llm.PetitionAnalysisUser(content),
		Temperature: analysisTemperature,
		MaxTokens:   analysisMaxTokens,
		JSON:        true,
	})
	if err != nil {
		if errors.Is(err, llm.ErrNotConfigured) {
			return none, err
		}
		s.logger.Error("petition analysis failed",
			zap.String("petition_id", req.PetitionID),
			zap.String("provider", s.provider.Name()),
			zap.Error(err))
		return normalize.Upstream[model.PetitionAnalysis](err), nil
	}

	result := normalize.Claims(resp.Content, content)
	if !result.IsOk() {
		s.logger.Error("petition analysis unparseable",
			zap.String("petition_id", req.PetitionID),
			zap.Error(result.Err))
		return result, nil
	}
	result.Value.ProcessingTime = s.now().Sub(start).Milliseconds()

	if s.store != nil {
		if err := s.store.SaveAnalysis(ctx, req.PetitionID, &result.Value); err != nil {
			s.logger.Warn("save analysis failed (non-critical)",
				zap.String("petition_id", req.PetitionID),
				zap.Error(err))
		}
	}

	s.logger.Info("petition analyzed",
		zap.String("petition_id", req.PetitionID),
		zap.Int("claims", len(result.Value.Claims)),
		zap.String("severity", string(result.Value.OverallSeverity)),
		zap.Int("tokens", resp.TokensUsed),
		zap.Int64("processing_ms", result.Value.ProcessingTime))

	return result, nil
}

// EvaluateEvidence grades one evidence item on the eight criteria. The
// overall score and rating are always recomputed from the sub-scores.
func (s *Service) EvaluateEvidence(ctx context.Context, req EvaluateRequest) (normalize.Result[model.EvidenceEvaluation], error) {
	var none normalize.Result[model.EvidenceEvaluation]

	description := s.plain(req.Description)
	if strings.TrimSpace(req.EvidenceID) == "" || strings.TrimSpace(description) == "" ||
		strings.TrimSpace(req.EvidenceType) == "" || strings.TrimSpace(req.ClaimID) == "" {
		return none, &InputError{Message: "Missing required fields"}
	}
	if s.provider == nil {
		return none, llm.ErrNotConfigured
	}

	start := s.now()
	resp, err := s.provider.Complete(ctx, llm.CompletionRequest{
		System:      llm.EvidenceEvaluationSystem,
		User:        llm.EvidenceEvaluationUser(req.EvidenceType, description, req.ClaimID, s.plain(req.PetitionContext)),
		Temperature: evaluationTemperature,
		MaxTokens:   evaluationMaxTokens,
		JSON:        true,
	})
	if err != nil {
		if errors.Is(err, llm.ErrNotConfigured) {
			return none, err
		}
		s.logger.Error("evidence evaluation failed",
			zap.String("evidence_id", req.EvidenceID),
			zap.String("provider", s.provider.Name()),
			zap.Error(err))
		return normalize.Upstream[model.EvidenceEvaluation](err), nil
	}

	result := normalize.Evidence(resp.Content)
	if !result.IsOk() {
		s.logger.Error("evidence evaluation unparseable",
			zap.String("evidence_id", req.EvidenceID),
			zap.Error(result.Err))
		return result, nil
	}
	result.Value.ProcessingTime = s.now().Sub(start).Milliseconds()

	if s.store != nil {
		if err := s.store.SaveEvaluation(ctx, req.EvidenceID, &result.Value); err != nil {
			s.logger.Warn("save evaluation failed (non-critical)",
				zap.String("evidence_id", req.EvidenceID),
				zap.Error(err))
		}
	}

	s.logger.Info("evidence evaluated",
		zap.String("evidence_id", req.EvidenceID),
		zap.String("claim_id", req.ClaimID),
		zap.Int("overall", result.Value.OverallScore),
		zap.String("rating", result.Value.Rating.String()))

	return result, nil
}

// plain strips markup from caller text. The policy escapes entities, so they
// are decoded again to keep the prompt readable.
func (s *Service) plain(text string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(text)))
}
