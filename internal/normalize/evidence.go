package normalize

import (
	"github.com/ppiankov/casedesk/internal/model"
	"github.com/ppiankov/casedesk/internal/score"
)

// Evidence field defaults
const (
	DefaultSubScore = 50
	DefaultIssues   = "No specific issues identified"
)

// DefaultRecommendations is used when the model returns no recommendation list
func DefaultRecommendations() []string {
	return []string{"Review evidence quality and completeness"}
}

// Evidence normalizes an evidence evaluation completion. Supplied overall
// score and rating are ignored and recomputed from the sub-scores.
func Evidence(raw string) Result[model.EvidenceEvaluation] {
	obj, err := DecodeObject(raw)
	if err != nil {
		return Parse[model.EvidenceEvaluation](err)
	}

	var values [model.SubScoreCount]float64
	for i, name := range model.SubScoreNames() {
		v, ok := number(obj[name])
		if !ok {
			v = DefaultSubScore
		}
		values[i] = clamp(v, 0, 100)
	}

	eval := model.EvidenceEvaluation{
		SubScores: model.SubScoresFromValues(values),
		Issues:    text(obj, "issues", DefaultIssues),
	}
	eval.OverallScore = score.Overall(eval.SubScores)
	eval.Rating = score.RatingFor(eval.OverallScore)

	recs, ok := stringList(obj, "recommendations")
	if !ok {
		recs = DefaultRecommendations()
	}
	eval.Recommendations = recs

	return OK(eval)
}
