package score

import (
	"fmt"
	"math"

	"github.com/ppiankov/casedesk/internal/model"
)

// Rating thresholds on the 0-100 overall score
const (
	GoodThreshold     = 80
	ModerateThreshold = 60

	// LowConfidence marks claims the report should flag for clarification
	LowConfidence = 0.6
)

// Overall returns the rounded arithmetic mean of the eight sub-scores
func Overall(s model.SubScores) int {
	sum := 0.0
	for _, v := range s.Values() {
		sum += v
	}
	return int(math.Round(sum / model.SubScoreCount))
}

// Clamp bounds every sub-score to [0,100]
func Clamp(s model.SubScores) model.SubScores {
	v := s.Values()
	for i := range v {
		v[i] = math.Max(0, math.Min(100, v[i]))
	}
	return model.SubScoresFromValues(v)
}

// RatingFor maps an overall score to its rating
func RatingFor(overall int) model.Rating {
	switch {
	case overall >= GoodThreshold:
		return model.RatingGood
	case overall >= ModerateThreshold:
		return model.RatingModerate
	default:
		return model.RatingBad
	}
}

// Scorer computes evidence scores and case-level diagnostic signals
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Evaluate scores one evidence item and records the inputs and formula
func (s *Scorer) Evaluate(sub model.SubScores) model.Score {
	overall := Overall(sub)

	inputs := make(map[string]interface{}, model.SubScoreCount)
	names := model.SubScoreNames()
	for i, v := range sub.Values() {
		inputs[names[i]] = v
	}

	return model.Score{
		Overall: overall,
		Rating:  RatingFor(overall),
		Data: map[string]interface{}{
			"subScores":  inputs,
			"formula":    "round(sum(sub_scores) / 8)",
			"thresholds": map[string]int{"good": GoodThreshold, "moderate": ModerateThreshold},
		},
	}
}

// CaseSignals generates diagnostic signals for a case
func (s *Scorer) CaseSignals(claims []model.Claim, evidence []model.Evidence) []model.Signal {
	signals := []model.Signal{s.coverage(claims, evidence)}

	if sig, ok := s.weakEvidence(evidence); ok {
		signals = append(signals, sig)
	}
	if sig, ok := s.lowConfidence(claims); ok {
		signals = append(signals, sig)
	}
	if sig, ok := s.urgentClaims(claims); ok {
		signals = append(signals, sig)
	}

	return signals
}

// coverage reports how many claims have at least one evidence item
func (s *Scorer) coverage(claims []model.Claim, evidence []model.Evidence) model.Signal {
	if len(claims) == 0 {
		return model.Signal{
			Type:        model.SignalEvidenceCoverage,
			Severity:    model.SeverityCritical,
			Description: "No claims extracted",
			Data: map[string]interface{}{
				"claims":   0,
				"evidence": len(evidence),
			},
		}
	}

	backed := make(map[string]bool)
	for _, e := range evidence {
		backed[e.ClaimID] = true
	}

	covered := 0
	var uncovered []string
	for _, c := range claims {
		if backed[c.ID] {
			covered++
		} else {
			uncovered = append(uncovered, c.ID)
		}
	}

	ratio := float64(covered) / float64(len(claims))

	severity := model.SeverityInfo
	if ratio < 0.5 {
		severity = model.SeverityCritical
	} else if ratio < 1.0 {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalEvidenceCoverage,
		Severity:    severity,
		Description: fmt.Sprintf("%d of %d claims backed by evidence", covered, len(claims)),
		Data: map[string]interface{}{
			"claims":    len(claims),
			"covered":   covered,
			"uncovered": uncovered,
			"ratio":     ratio,
			"formula":   "claims_with_evidence / claim_count",
		},
	}
}

func (s *Scorer) weakEvidence(evidence []model.Evidence) (model.Signal, bool) {
	var weak []string
	for _, e := range evidence {
		if e.Rating == model.RatingBad {
			weak = append(weak, e.ID)
		}
	}
	if len(weak) == 0 {
		return model.Signal{}, false
	}

	severity := model.SeverityWarning
	if len(weak)*2 > len(evidence) {
		severity = model.SeverityCritical
	}

	return model.Signal{
		Type:        model.SignalWeakEvidence,
		Severity:    severity,
		Description: fmt.Sprintf("%d of %d evidence items rated Bad", len(weak), len(evidence)),
		Data: map[string]interface{}{
			"bad":      len(weak),
			"total":    len(evidence),
			"evidence": weak,
		},
	}, true
}

func (s *Scorer) lowConfidence(claims []model.Claim) (model.Signal, bool) {
	var low []string
	for _, c := range claims {
		if c.Confidence < LowConfidence {
			low = append(low, c.ID)
		}
	}
	if len(low) == 0 {
		return model.Signal{}, false
	}

	return model.Signal{
		Type:        model.SignalLowConfidence,
		Severity:    model.SeverityWarning,
		Description: fmt.Sprintf("%d claims below %.1f confidence", len(low), LowConfidence),
		Data: map[string]interface{}{
			"claims":    low,
			"threshold": LowConfidence,
		},
	}, true
}

func (s *Scorer) urgentClaims(claims []model.Claim) (model.Signal, bool) {
	var urgent []string
	for _, c := range claims {
		if c.Severity == model.SeverityUrgent {
			urgent = append(urgent, c.ID)
		}
	}
	if len(urgent) == 0 {
		return model.Signal{}, false
	}

	return model.Signal{
		Type:        model.SignalUrgentClaims,
		Severity:    model.SeverityCritical,
		Description: fmt.Sprintf("%d urgent claims require immediate action", len(urgent)),
		Data:        map[string]interface{}{"claims": urgent},
	}, true
}
