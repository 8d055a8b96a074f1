package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/casedesk/internal/model"
	"github.com/ppiankov/casedesk/internal/score"
)

// RenderJSON writes the report as indented JSON
func RenderJSON(w io.Writer, r model.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// RenderMarkdown writes the report as a Markdown document
func RenderMarkdown(w io.Writer, r model.Report) error {
	var b strings.Builder

	title := "Investigating Officer Report"
	switch r.Type {
	case model.ReportDetailed:
		title = "Detailed Case Report"
	case model.ReportDashboard:
		title = "Case Dashboard"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "Case No: %s | Generated: %s\n\n", orDash(r.Data.CaseNumber), r.GeneratedAt.Format("02-Jan-2006"))

	b.WriteString("## Case Snapshot\n\n")
	b.WriteString("| Field | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Petitioner | %s |\n", cell(r.Data.PetitionerName))
	fmt.Fprintf(&b, "| Accused | %s |\n", cell(r.Data.Accused))
	fmt.Fprintf(&b, "| Police Station | %s |\n", cell(r.Data.PoliceStation))
	fmt.Fprintf(&b, "| SHO Assigned | %s |\n", cell(r.Data.SHOName))
	fmt.Fprintf(&b, "| Incident Dates | %s |\n", cell(strings.Join(r.Data.IncidentDates, ", ")))
	fmt.Fprintf(&b, "| Petition Date | %s |\n", cell(r.Data.PetitionDate))
	if r.OverallSeverity != "" {
		fmt.Fprintf(&b, "| Overall Severity | %s |\n", r.OverallSeverity)
	}
	b.WriteString("\n")

	if r.Summary != "" && r.Type != model.ReportDashboard {
		fmt.Fprintf(&b, "## Petition Summary\n\n%s\n\n", r.Summary)
	}

	b.WriteString("## At a Glance\n\n")
	fmt.Fprintf(&b, "- Total claims: %d (%d high confidence)\n", r.ClaimSummary.Total, r.ClaimSummary.HighConfidence)
	for _, sev := range sortedSeverities(r.ClaimSummary.BySeverity) {
		fmt.Fprintf(&b, "  - %s: %d\n", orDash(sev), r.ClaimSummary.BySeverity[sev])
	}
	es := r.EvidenceSummary
	fmt.Fprintf(&b, "- Evidence items: %d (Good %d, Moderate %d, Bad %d)\n", es.Total, es.Good, es.Moderate, es.Bad)
	if es.Total > 0 {
		fmt.Fprintf(&b, "- Average evidence quality: %.1f\n", es.AverageScore)
	}
	b.WriteString("\n")

	if len(r.Claims) > 0 {
		b.WriteString("## Extracted Legal Claims\n\n")
		for _, c := range r.Claims {
			fmt.Fprintf(&b, "### %s: %s\n\n", c.ID, c.Type)
			fmt.Fprintf(&b, "> %s\n\n", c.Statement)
			fmt.Fprintf(&b, "- Confidence: %.0f%%\n", c.Confidence*100)
			fmt.Fprintf(&b, "- Severity: %s\n", c.Severity)
			fmt.Fprintf(&b, "- Date: %s\n", c.Date)
			fmt.Fprintf(&b, "- Legal Section: %s\n", c.LegalSection)
			fmt.Fprintf(&b, "- Paragraph: %s\n\n", c.Paragraph)
		}
	}

	if len(r.Timeline) > 0 {
		b.WriteString("## Timeline of Events\n\n")
		for _, e := range r.Timeline {
			fmt.Fprintf(&b, "- **%s** (%s): %s\n", e.Date, e.Type, e.Event)
		}
		b.WriteString("\n")
	}

	if len(r.Evidence) > 0 {
		b.WriteString("## Evidence Quality Assessment\n\n")
		b.WriteString("| ID | Name | Claim | Score | Rating | Issues |\n|---|---|---|---|---|---|\n")
		for _, e := range r.Evidence {
			overall := score.Overall(score.Clamp(e.Scores))
			fmt.Fprintf(&b, "| %s | %s | %s | %d | %s | %s |\n",
				cell(e.ID), cell(e.Name), cell(e.ClaimID), overall, score.RatingFor(overall), cell(e.Issues))
		}
		b.WriteString("\n")
	}

	if len(r.Signals) > 0 {
		b.WriteString("## Case Signals\n\n")
		for _, s := range r.Signals {
			fmt.Fprintf(&b, "- [%s] %s\n", strings.ToUpper(string(s.Severity)), s.Description)
		}
		b.WriteString("\n")
	}

	writeList(&b, "Risk Factors", r.RiskFactors)
	writeList(&b, "Recommended Next Actions", r.Recommendations)

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteFiles renders the report to the given paths; empty paths are skipped
func WriteFiles(r model.Report, jsonPath, mdPath string) error {
	if jsonPath != "" {
		if err := writeFile(jsonPath, func(w io.Writer) error { return RenderJSON(w, r) }); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
	}
	if mdPath != "" {
		if err := writeFile(mdPath, func(w io.Writer) error { return RenderMarkdown(w, r) }); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
	}
	return nil
}

// RenderSummary prints a short console summary
func RenderSummary(w io.Writer, r model.Report) {
	fmt.Fprintf(w, "\nCase %s\n", orDash(r.Data.CaseNumber))
	fmt.Fprintf(w, "  Claims:   %d (%d high confidence)\n", r.ClaimSummary.Total, r.ClaimSummary.HighConfidence)
	fmt.Fprintf(w, "  Evidence: %d (avg %.1f)\n", r.EvidenceSummary.Total, r.EvidenceSummary.AverageScore)
	if r.OverallSeverity != "" {
		fmt.Fprintf(w, "  Severity: %s\n", r.OverallSeverity)
	}
	for _, s := range r.Signals {
		if s.Severity != model.SeverityInfo {
			fmt.Fprintf(w, "  ! %s\n", s.Description)
		}
	}
}

func writeFile(path string, render func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writeList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", heading)
	for i, item := range items {
		fmt.Fprintf(b, "%d. %s\n", i+1, item)
	}
	b.WriteString("\n")
}

// cell escapes pipes so values stay inside their table column
func cell(s string) string {
	return strings.ReplaceAll(orDash(s), "|", "\\|")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
