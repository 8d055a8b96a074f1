// Package report assembles the investigation report for a case and renders
// it as JSON or Markdown.
package report

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/ppiankov/casedesk/internal/model"
	"github.com/ppiankov/casedesk/internal/normalize"
	"github.com/ppiankov/casedesk/internal/score"
	"github.com/ppiankov/casedesk/internal/workflow"
)

// HighConfidence is the claim confidence counted as high
const HighConfidence = 0.8

// Build aggregates a session into a report of the given type. Summary
// reports leave out the evidence list and timeline; dashboard reports keep
// only the counts and signals.
func Build(s *workflow.Session, typ model.ReportType, now time.Time) model.Report {
	if !typ.Valid() {
		typ = model.ReportSummary
	}

	data := s.ReportData
	if len(data.IncidentDates) == 0 {
		data.IncidentDates = IncidentDates(s.Claims, s.Timeline)
	}
	if data.CaseNumber == "" && s.File != nil {
		data.CaseNumber = s.File.PetitionNumber
	}
	if data.IncidentDates == nil {
		data.IncidentDates = []string{}
	}

	evidence := rated(s.Evidence)

	r := model.Report{
		Type:            typ,
		GeneratedAt:     now.UTC(),
		Data:            data,
		Summary:         s.Summary,
		Claims:          []model.Claim{},
		Evidence:        []model.Evidence{},
		OverallSeverity: s.OverallSeverity,
		ClaimSummary:    SummarizeClaims(s.Claims),
		EvidenceSummary: SummarizeEvidence(evidence),
		Signals:         score.NewScorer().CaseSignals(s.Claims, evidence),
	}

	switch typ {
	case model.ReportDetailed:
		r.Claims = append(r.Claims, s.Claims...)
		r.Evidence = evidence
		r.Timeline = append([]model.TimelineEvent(nil), s.Timeline...)
		r.RiskFactors = append([]string(nil), s.RiskFactors...)
		r.Recommendations = append([]string(nil), s.Recommendations...)
	case model.ReportSummary:
		r.Claims = append(r.Claims, s.Claims...)
		r.Recommendations = append([]string(nil), s.Recommendations...)
	case model.ReportDashboard:
		r.RiskFactors = append([]string(nil), s.RiskFactors...)
	}

	return r
}

// rated copies evidence with each rating re-derived from its scores
func rated(evidence []model.Evidence) []model.Evidence {
	out := make([]model.Evidence, len(evidence))
	for i, e := range evidence {
		e.Scores = score.Clamp(e.Scores)
		e.Rating = score.RatingFor(score.Overall(e.Scores))
		out[i] = e
	}
	return out
}

// IncidentDates collects the distinct known dates of claims and incident
// events, in first-seen order
func IncidentDates(claims []model.Claim, timeline []model.TimelineEvent) []string {
	seen := make(map[string]bool)
	dates := []string{}

	add := func(d string) {
		d = strings.TrimSpace(d)
		if d == "" || d == normalize.DefaultDate || seen[d] {
			return
		}
		seen[d] = true
		dates = append(dates, d)
	}

	for _, c := range claims {
		add(c.Date)
	}
	for _, e := range timeline {
		if e.Type == model.EventIncident {
			add(e.Date)
		}
	}
	return dates
}

// SummarizeClaims counts claims by confidence and severity
func SummarizeClaims(claims []model.Claim) model.ClaimSummary {
	sum := model.ClaimSummary{Total: len(claims), BySeverity: map[string]int{}}
	for _, c := range claims {
		if c.Confidence >= HighConfidence {
			sum.HighConfidence++
		}
		sum.BySeverity[string(c.Severity)]++
	}
	return sum
}

// SummarizeEvidence counts evidence by rating and averages the overall
// scores, to one decimal
func SummarizeEvidence(evidence []model.Evidence) model.EvidenceSummary {
	sum := model.EvidenceSummary{Total: len(evidence)}
	if len(evidence) == 0 {
		return sum
	}

	total := 0
	for _, e := range evidence {
		overall := score.Overall(score.Clamp(e.Scores))
		total += overall
		switch score.RatingFor(overall) {
		case model.RatingGood:
			sum.Good++
		case model.RatingModerate:
			sum.Moderate++
		default:
			sum.Bad++
		}
	}
	sum.AverageScore = math.Round(float64(total)/float64(len(evidence))*10) / 10
	return sum
}

// severityOrder lists severities from most to least serious
var severityOrder = []model.Severity{
	model.SeverityUrgent, model.SeverityHigh, model.SeverityMedium, model.SeverityLow,
}

func sortedSeverities(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	rank := make(map[string]int, len(severityOrder))
	for i, s := range severityOrder {
		rank[string(s)] = i
	}
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, iok := rank[keys[i]]
		rj, jok := rank[keys[j]]
		if iok != jok {
			return iok
		}
		if ri != rj {
			return ri < rj
		}
		return keys[i] < keys[j]
	})
	return keys
}
