package score

import (
	"testing"

	"github.com/ppiankov/casedesk/internal/model"
)

func uniform(v float64) model.SubScores {
	return model.SubScoresFromValues([model.SubScoreCount]float64{v, v, v, v, v, v, v, v})
}

func TestOverall(t *testing.T) {
	tests := []struct {
		name string
		in   model.SubScores
		want int
	}{
		{"all zero", uniform(0), 0},
		{"all hundred", uniform(100), 100},
		{"mixed", model.SubScoresFromValues([8]float64{85, 90, 75, 80, 95, 88, 70, 85}), 84},
		{"rounds half up", model.SubScoresFromValues([8]float64{80, 80, 80, 80, 80, 80, 80, 84}), 81},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overall(tt.in); got != tt.want {
				t.Errorf("Expected overall %d, got %d", tt.want, got)
			}
		})
	}
}

func TestRatingFor_Boundaries(t *testing.T) {
	tests := []struct {
		overall int
		want    model.Rating
	}{
		{100, model.RatingGood},
		{80, model.RatingGood},
		{79, model.RatingModerate},
		{60, model.RatingModerate},
		{59, model.RatingBad},
		{0, model.RatingBad},
	}

	for _, tt := range tests {
		if got := RatingFor(tt.overall); got != tt.want {
			t.Errorf("RatingFor(%d): expected %s, got %s", tt.overall, tt.want, got)
		}
	}
}

func TestScorer_Evaluate(t *testing.T) {
	scorer := NewScorer()

	result := scorer.Evaluate(uniform(65))

	if result.Overall != 65 {
		t.Errorf("Expected overall 65, got %d", result.Overall)
	}
	if result.Rating != model.RatingModerate {
		t.Errorf("Expected Moderate, got %s", result.Rating)
	}
	if _, ok := result.Data["formula"]; !ok {
		t.Error("Expected formula in score data")
	}
	inputs, ok := result.Data["subScores"].(map[string]interface{})
	if !ok || len(inputs) != model.SubScoreCount {
		t.Errorf("Expected %d sub-score inputs, got %v", model.SubScoreCount, result.Data["subScores"])
	}
}

func TestScorer_CaseSignals_NoClaims(t *testing.T) {
	signals := NewScorer().CaseSignals(nil, nil)

	if len(signals) != 1 {
		t.Fatalf("Expected 1 signal, got %d", len(signals))
	}
	if signals[0].Severity != model.SeverityCritical {
		t.Errorf("Expected critical coverage signal, got %s", signals[0].Severity)
	}
}

func TestScorer_CaseSignals(t *testing.T) {
	claims := []model.Claim{
		{ID: "C1", Confidence: 0.9, Severity: model.SeverityUrgent},
		{ID: "C2", Confidence: 0.4, Severity: model.SeverityMedium},
	}
	evidence := []model.Evidence{
		{ID: "E1", ClaimID: "C1", Rating: model.RatingBad},
		{ID: "E2", ClaimID: "C1", Rating: model.RatingGood},
	}

	signals := NewScorer().CaseSignals(claims, evidence)

	byType := make(map[model.SignalType]model.Signal)
	for _, s := range signals {
		byType[s.Type] = s
	}

	coverage, ok := byType[model.SignalEvidenceCoverage]
	if !ok {
		t.Fatal("Expected coverage signal")
	}
	if coverage.Data["covered"] != 1 {
		t.Errorf("Expected 1 covered claim, got %v", coverage.Data["covered"])
	}
	if coverage.Severity != model.SeverityWarning {
		t.Errorf("Expected warning coverage, got %s", coverage.Severity)
	}

	if _, ok := byType[model.SignalWeakEvidence]; !ok {
		t.Error("Expected weak evidence signal")
	}
	if _, ok := byType[model.SignalLowConfidence]; !ok {
		t.Error("Expected low confidence signal")
	}
	if _, ok := byType[model.SignalUrgentClaims]; !ok {
		t.Error("Expected urgent claims signal")
	}
}

func TestScorer_CaseSignals_FullyCovered(t *testing.T) {
	claims := []model.Claim{{ID: "C1", Confidence: 0.8, Severity: model.SeverityHigh}}
	evidence := []model.Evidence{{ID: "E1", ClaimID: "C1", Rating: model.RatingGood}}

	signals := NewScorer().CaseSignals(claims, evidence)

	if len(signals) != 1 {
		t.Fatalf("Expected only the coverage signal, got %d", len(signals))
	}
	if signals[0].Severity != model.SeverityInfo {
		t.Errorf("Expected info severity, got %s", signals[0].Severity)
	}
}

func TestClamp(t *testing.T) {
	in := model.SubScores{Relevance: 1000, Clarity: -20, Completeness: 55, Specificity: 100, Timeliness: 0, Credibility: 101, Metadata: -0.5, ContextMatch: 99.5}
	want := model.SubScores{Relevance: 100, Clarity: 0, Completeness: 55, Specificity: 100, Timeliness: 0, Credibility: 100, Metadata: 0, ContextMatch: 99.5}

	if got := Clamp(in); got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
	if got := Overall(Clamp(uniform(250))); got != 100 {
		t.Errorf("Expected clamped overall 100, got %d", got)
	}
}
