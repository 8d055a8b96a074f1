package normalize

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ppiankov/casedesk/internal/model"
)

func TestDecodeObject(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"plain object", `{"a": 1}`, false},
		{"fenced", "```json\n{\"a\": 1}\n```", false},
		{"prose around", `Here is the analysis: {"a": {"b": 2}} Hope this helps.`, false},
		{"empty", "   ", true},
		{"array", `[1, 2]`, true},
		{"null", `null`, true},
		{"garbage", `not json at all`, true},
		{"unbalanced", `{"a": 1`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, err := DecodeObject(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidShape) {
					t.Errorf("Expected ErrInvalidShape, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if _, ok := obj["a"]; !ok {
				t.Errorf("Expected key a, got %v", obj)
			}
		})
	}
}

func TestClaims_Defaults(t *testing.T) {
	raw := `{"claims": [{}, {"statement": "x"}]}`

	result := Claims(raw, "")
	if !result.IsOk() {
		t.Fatalf("Expected Ok, got %s: %v", result.Kind, result.Err)
	}

	want := []model.Claim{
		{
			ID:           "C1",
			Type:         "Other",
			Paragraph:    "¶1",
			Date:         DefaultDate,
			Confidence:   0.5,
			LegalSection: DefaultLegalSection,
			Severity:     model.SeverityMedium,
		},
		{
			ID:           "C2",
			Type:         "Other",
			Statement:    "x",
			Paragraph:    "¶2",
			Date:         DefaultDate,
			Confidence:   0.5,
			LegalSection: DefaultLegalSection,
			Severity:     model.SeverityMedium,
		},
	}

	if diff := cmp.Diff(want, result.Value.Claims); diff != "" {
		t.Errorf("Claims mismatch (-want +got):\n%s", diff)
	}
	if result.Value.OverallSeverity != model.SeverityMedium {
		t.Errorf("Expected medium overall severity, got %s", result.Value.OverallSeverity)
	}
	if result.Value.RiskFactors == nil || result.Value.Recommendations == nil {
		t.Error("Expected empty, non-nil lists")
	}
}

func TestClaims_ConfidenceClamped(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want float64
	}{
		{"above range", `{"claims": [{"confidence": 1.7}]}`, 1},
		{"below range", `{"claims": [{"confidence": -0.3}]}`, 0},
		{"explicit zero kept", `{"claims": [{"confidence": 0}]}`, 0},
		{"numeric string", `{"claims": [{"confidence": "0.85"}]}`, 0.85},
		{"non-numeric", `{"claims": [{"confidence": "high"}]}`, 0.5},
		{"null", `{"claims": [{"confidence": null}]}`, 0.5},
		{"boolean", `{"claims": [{"confidence": true}]}`, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Claims(tt.raw, "")
			if !result.IsOk() {
				t.Fatalf("Expected Ok, got %v", result.Err)
			}
			got := result.Value.Claims[0].Confidence
			if got != tt.want {
				t.Errorf("Expected confidence %v, got %v", tt.want, got)
			}
		})
	}
}

func TestClaims_ParseErrors(t *testing.T) {
	for _, raw := range []string{
		`{"summary": "no claims"}`,
		`{"claims": "C1"}`,
		`{"claims": {"id": "C1"}}`,
		`I cannot help with that.`,
	} {
		result := Claims(raw, "")
		if result.Kind != ParseError {
			t.Errorf("Expected ParseError for %q, got %s", raw, result.Kind)
		}
		if !errors.Is(result.Err, ErrInvalidShape) {
			t.Errorf("Expected ErrInvalidShape for %q, got %v", raw, result.Err)
		}
	}
}

func TestClaims_FullRecord(t *testing.T) {
	content := "Respected Sir,\n\nOn 12-Jan-2024 my neighbour Ravi attacked me with an iron rod near the temple.\n\nThe SHO refused to register my complaint."
	raw := `{
		"summary": "Assault and refusal to register FIR.",
		"claims": [
			{"id": "C1", "type": "physical assault", "statement": "my neighbour Ravi attacked me with an iron rod", "date": "12-Jan-2024", "confidence": 0.95, "legalSection": "Section 351 BNS 2023", "severity": "HIGH"},
			{"id": "C2", "type": "Dowry Harassment", "statement": "The SHO refused to register my complaint", "paragraph": "¶9", "severity": "critical"}
		],
		"timeline": [
			{"date": "12-Jan-2024", "event": "Assault", "type": "incident"},
			{"date": "13-Jan-2024", "event": "Complaint refused", "type": "administrative"},
			"junk"
		],
		"riskFactors": ["Repeat offender", 7],
		"recommendations": ["Register FIR"],
		"overallSeverity": "urgent"
	}`

	result := Claims(raw, content)
	if !result.IsOk() {
		t.Fatalf("Expected Ok, got %v", result.Err)
	}
	a := result.Value

	if a.Claims[0].Type != string(model.ClaimPhysicalAssault) {
		t.Errorf("Expected canonical claim type, got %q", a.Claims[0].Type)
	}
	if a.Claims[0].Severity != model.SeverityHigh {
		t.Errorf("Expected high severity, got %s", a.Claims[0].Severity)
	}
	if a.Claims[0].Paragraph != "¶2" {
		t.Errorf("Expected located paragraph ¶2, got %s", a.Claims[0].Paragraph)
	}
	if a.Claims[1].Type != string(model.ClaimOther) {
		t.Errorf("Expected unknown type mapped to Other, got %q", a.Claims[1].Type)
	}
	if a.Claims[1].Paragraph != "¶9" {
		t.Errorf("Expected supplied paragraph kept, got %s", a.Claims[1].Paragraph)
	}
	if a.Claims[1].Severity != model.SeverityMedium {
		t.Errorf("Expected unknown severity mapped to medium, got %s", a.Claims[1].Severity)
	}

	wantTimeline := []model.TimelineEvent{
		{Date: "12-Jan-2024", Event: "Assault", Type: model.EventIncident},
		{Date: "13-Jan-2024", Event: "Complaint refused", Type: model.EventIncident},
	}
	if diff := cmp.Diff(wantTimeline, a.Timeline); diff != "" {
		t.Errorf("Timeline mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"Repeat offender", "7"}, a.RiskFactors); diff != "" {
		t.Errorf("Risk factors mismatch (-want +got):\n%s", diff)
	}
	if a.OverallSeverity != model.SeverityUrgent {
		t.Errorf("Expected urgent, got %s", a.OverallSeverity)
	}
}

func TestEvidence_DefaultsAndRecompute(t *testing.T) {
	raw := `{
		"relevance": 85, "clarity": "90", "completeness": 140,
		"specificity": -5, "timeliness": 95, "credibility": 88,
		"overallScore": 99, "rating": "Good",
		"issues": "Blurry timestamp"
	}`

	result := Evidence(raw)
	if !result.IsOk() {
		t.Fatalf("Expected Ok, got %v", result.Err)
	}
	e := result.Value

	want := model.SubScores{
		Relevance:    85,
		Clarity:      90,
		Completeness: 100,
		Specificity:  0,
		Timeliness:   95,
		Credibility:  88,
		Metadata:     50,
		ContextMatch: 50,
	}
	if diff := cmp.Diff(want, e.SubScores); diff != "" {
		t.Errorf("Sub-scores mismatch (-want +got):\n%s", diff)
	}

	// (85+90+100+0+95+88+50+50)/8 = 69.75
	if e.OverallScore != 70 {
		t.Errorf("Expected recomputed overall 70, got %d", e.OverallScore)
	}
	if e.Rating != model.RatingModerate {
		t.Errorf("Expected Moderate, got %s", e.Rating)
	}
	if e.Issues != "Blurry timestamp" {
		t.Errorf("Unexpected issues: %s", e.Issues)
	}
	if diff := cmp.Diff(DefaultRecommendations(), e.Recommendations); diff != "" {
		t.Errorf("Recommendations mismatch (-want +got):\n%s", diff)
	}
}

func TestEvidence_EmptyObject(t *testing.T) {
	result := Evidence(`{}`)
	if !result.IsOk() {
		t.Fatalf("Expected Ok, got %v", result.Err)
	}
	if result.Value.OverallScore != 50 {
		t.Errorf("Expected 50, got %d", result.Value.OverallScore)
	}
	if result.Value.Rating != model.RatingBad {
		t.Errorf("Expected Bad, got %s", result.Value.Rating)
	}
	if result.Value.Issues != DefaultIssues {
		t.Errorf("Expected default issues, got %s", result.Value.Issues)
	}
}

func TestEvidence_RatingAlwaysMatchesOverall(t *testing.T) {
	for _, v := range []int{0, 59, 60, 79, 80, 100} {
		raw := `{"relevance": X, "clarity": X, "completeness": X, "specificity": X, "timeliness": X, "credibility": X, "metadata": X, "contextMatch": X, "rating": "Good"}`
		raw = strings.ReplaceAll(raw, "X", strconv.Itoa(v))

		result := Evidence(raw)
		if result.Value.OverallScore != v {
			t.Errorf("Expected overall %d, got %d", v, result.Value.OverallScore)
		}
		wantRating := model.RatingBad
		if v >= 80 {
			wantRating = model.RatingGood
		} else if v >= 60 {
			wantRating = model.RatingModerate
		}
		if result.Value.Rating != wantRating {
			t.Errorf("Overall %d: expected %s, got %s", v, wantRating, result.Value.Rating)
		}
	}
}

func TestEvidence_ParseError(t *testing.T) {
	result := Evidence("The evidence looks fine.")
	if result.Kind != ParseError {
		t.Errorf("Expected ParseError, got %s", result.Kind)
	}
}

func TestUpstream(t *testing.T) {
	cause := errors.New("503")
	result := Upstream[model.PetitionAnalysis](cause)
	if result.Kind != UpstreamError || !errors.Is(result.Err, cause) {
		t.Errorf("Expected upstream result wrapping cause, got %+v", result)
	}
}
