package normalize

import (
	"fmt"
	"strings"

	"github.com/ppiankov/casedesk/internal/extract"
	"github.com/ppiankov/casedesk/internal/model"
)

// Claim field defaults
const (
	DefaultConfidence   = 0.5
	DefaultDate         = "Date not specified"
	DefaultLegalSection = "To be determined"
)

// Claims normalizes a petition analysis completion. content is the petition
// text the claims were extracted from; it is used to locate claim paragraphs.
func Claims(raw, content string) Result[model.PetitionAnalysis] {
	obj, err := DecodeObject(raw)
	if err != nil {
		return Parse[model.PetitionAnalysis](err)
	}

	items, ok := obj["claims"].([]interface{})
	if !ok {
		return Parse[model.PetitionAnalysis](fmt.Errorf("claims is not an array"))
	}

	analysis := model.PetitionAnalysis{
		Summary:         text(obj, "summary", ""),
		Claims:          make([]model.Claim, 0, len(items)),
		OverallSeverity: severity(obj["overallSeverity"]),
	}

	for i, item := range items {
		fields, _ := item.(map[string]interface{})
		if fields == nil {
			fields = map[string]interface{}{}
		}
		analysis.Claims = append(analysis.Claims, claim(fields, i, content))
	}

	analysis.Timeline = timeline(obj["timeline"])
	analysis.RiskFactors, _ = stringList(obj, "riskFactors")
	analysis.Recommendations, _ = stringList(obj, "recommendations")
	if analysis.RiskFactors == nil {
		analysis.RiskFactors = []string{}
	}
	if analysis.Recommendations == nil {
		analysis.Recommendations = []string{}
	}

	return OK(analysis)
}

func claim(fields map[string]interface{}, i int, content string) model.Claim {
	c := model.Claim{
		ID:           text(fields, "id", fmt.Sprintf("C%d", i+1)),
		Type:         claimType(fields["type"]),
		Statement:    text(fields, "statement", ""),
		Date:         text(fields, "date", DefaultDate),
		LegalSection: text(fields, "legalSection", DefaultLegalSection),
		Severity:     severity(fields["severity"]),
		Confidence:   DefaultConfidence,
	}

	if v, ok := number(fields["confidence"]); ok {
		c.Confidence = v
	}
	c.Confidence = clamp(c.Confidence, 0, 1)

	c.Paragraph = text(fields, "paragraph", "")
	if c.Paragraph == "" {
		if n, ok := extract.LocateParagraph(content, c.Statement); ok {
			c.Paragraph = fmt.Sprintf("¶%d", n)
		} else {
			c.Paragraph = fmt.Sprintf("¶%d", i+1)
		}
	}

	return c
}

// claimType maps a label onto the fixed taxonomy, case-insensitively
func claimType(v interface{}) string {
	label, _ := v.(string)
	label = strings.TrimSpace(label)
	for _, t := range model.ClaimTypes() {
		if strings.EqualFold(label, string(t)) {
			return string(t)
		}
	}
	return string(model.ClaimOther)
}

func severity(v interface{}) model.Severity {
	s, _ := v.(string)
	sev := model.Severity(strings.ToLower(strings.TrimSpace(s)))
	if sev.Valid() {
		return sev
	}
	return model.SeverityMedium
}

func timeline(v interface{}) []model.TimelineEvent {
	items, _ := v.([]interface{})
	events := make([]model.TimelineEvent, 0, len(items))

	for _, item := range items {
		fields, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		event := model.TimelineEvent{
			Date:  text(fields, "date", DefaultDate),
			Event: text(fields, "event", ""),
			Type:  model.EventIncident,
		}
		if t, _ := fields["type"].(string); t != "" {
			switch et := model.EventType(strings.ToLower(t)); et {
			case model.EventIncident, model.EventProcedural, model.EventFiling:
				event.Type = et
			}
		}
		if event.Event == "" {
			continue
		}
		events = append(events, event)
	}

	return events
}
