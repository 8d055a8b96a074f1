package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/casedesk/internal/analysis"
	"github.com/ppiankov/casedesk/internal/model"
	"github.com/ppiankov/casedesk/internal/normalize"
	"github.com/ppiankov/casedesk/internal/petition"
	"github.com/ppiankov/casedesk/internal/store"
	"github.com/ppiankov/casedesk/internal/workflow"
)

const petitionText = `To the Station House Officer,
On 12-Mar-2024 my neighbour assaulted me near the market and threatened my family.
I reported it the next day but no FIR was registered.`

type fakeAnalyzer struct {
	analyzeErr error
	contexts   []string
}

func (f *fakeAnalyzer) AnalyzePetition(_ context.Context, req analysis.AnalyzeRequest) (normalize.Result[model.PetitionAnalysis], error) {
	if f.analyzeErr != nil {
		return normalize.Upstream[model.PetitionAnalysis](f.analyzeErr), nil
	}
	return normalize.OK(model.PetitionAnalysis{
		Summary: "Assault and police inaction reported.",
		Claims: []model.Claim{
			{ID: "C1", Type: "Physical Assault", Date: "12-Mar-2024", Confidence: 0.9, Severity: model.SeverityHigh},
			{ID: "C2", Type: "Police Negligence", Date: "Date not specified", Confidence: 0.6, Severity: model.SeverityMedium},
		},
		Recommendations: []string{"Register FIR"},
		OverallSeverity: model.SeverityHigh,
	}), nil
}

func (f *fakeAnalyzer) EvaluateEvidence(_ context.Context, req analysis.EvaluateRequest) (normalize.Result[model.EvidenceEvaluation], error) {
	f.contexts = append(f.contexts, req.PetitionContext)
	if req.Description == "" {
		return normalize.Result[model.EvidenceEvaluation]{}, &analysis.InputError{Message: "Missing required fields"}
	}
	sub := model.SubScores{Relevance: 90, Clarity: 90, Completeness: 90, Specificity: 90,
		Timeliness: 90, Credibility: 90, Metadata: 90, ContextMatch: 90}
	return normalize.OK(model.EvidenceEvaluation{SubScores: sub, OverallScore: 90, Rating: model.RatingGood, Issues: "None"}), nil
}

func newUploads(t *testing.T) *petition.Service {
	t.Helper()
	st, err := store.OpenSQLite(filepath.Join(t.TempDir(), "cases.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return petition.NewService(st, store.NewDiskBlobStore(t.TempDir()))
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestProcess_LocalFileWithCaseFile(t *testing.T) {
	src := writeFile(t, "petition.txt", petitionText)
	caseFile := writeFile(t, "case.yaml", `
report:
  petitioner_name: Ravi Kumar
  police_station: Guntur Urban
evidence:
  - name: Medical certificate
    type: Document
    claim_id: C1
    description: Hospital certificate listing injuries
  - id: E9
    type: Photo
    claim_id: C1
`)

	analyzer := &fakeAnalyzer{}
	now := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	p := New(newUploads(t), analyzer, WithClock(func() time.Time { return now }))

	out, err := p.Process(context.Background(), Input{
		Source:     src,
		UserID:     "officer-1",
		CaseFile:   caseFile,
		ReportType: model.ReportDetailed,
	})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if out.Session.Step != workflow.StepReport {
		t.Errorf("Expected report step, got %s", out.Session.Step)
	}
	if out.Session.File == nil || out.Session.File.Name != "petition.txt" || out.Session.File.MediaType != petition.TypeText {
		t.Errorf("Unexpected petition file %+v", out.Session.File)
	}
	if len(out.Session.Evidence) != 1 || out.Session.Evidence[0].ID != "E1" || out.Session.Evidence[0].Rating != model.RatingGood {
		t.Errorf("Expected one graded evidence item E1, got %+v", out.Session.Evidence)
	}
	if len(out.Warnings) != 1 || !strings.Contains(out.Warnings[0], "E9") {
		t.Errorf("Expected a warning for E9, got %v", out.Warnings)
	}
	if analyzer.contexts[0] != "Assault and police inaction reported." {
		t.Errorf("Expected analysis summary as evidence context, got %q", analyzer.contexts[0])
	}

	r := out.Report
	if r.Type != model.ReportDetailed || !r.GeneratedAt.Equal(now) {
		t.Errorf("Unexpected report header %s %v", r.Type, r.GeneratedAt)
	}
	if r.Data.CaseNumber != out.Upload.PetitionNumber {
		t.Errorf("Expected case number %s, got %s", out.Upload.PetitionNumber, r.Data.CaseNumber)
	}
	if r.Data.PetitionerName != "Ravi Kumar" || r.Data.PoliceStation != "Guntur Urban" {
		t.Errorf("Expected report header from case file, got %+v", r.Data)
	}
	if len(r.Data.IncidentDates) != 1 || r.Data.IncidentDates[0] != "12-Mar-2024" {
		t.Errorf("Expected incident dates from claims, got %v", r.Data.IncidentDates)
	}
	if len(r.Claims) != 2 {
		t.Errorf("Expected 2 claims, got %d", len(r.Claims))
	}
}

func TestProcess_URLSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = fmt.Fprint(w, petitionText)
	}))
	defer server.Close()

	p := New(newUploads(t), &fakeAnalyzer{})
	out, err := p.Process(context.Background(), Input{Source: server.URL + "/petitions/complaint.txt", UserID: "officer-1"})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if out.Upload.FileName != "complaint.txt" || out.Upload.FileType != petition.TypeText {
		t.Errorf("Expected sniffed text upload, got %s %s", out.Upload.FileName, out.Upload.FileType)
	}
	if out.Report.Type != model.ReportSummary {
		t.Errorf("Expected summary fallback, got %s", out.Report.Type)
	}
}

func TestProcess_AnalysisFailure(t *testing.T) {
	src := writeFile(t, "petition.txt", petitionText)
	p := New(newUploads(t), &fakeAnalyzer{analyzeErr: errors.New("provider down")})

	_, err := p.Process(context.Background(), Input{Source: src, UserID: "officer-1"})
	if err == nil || !strings.Contains(err.Error(), "upstream_error") {
		t.Errorf("Expected upstream analysis error, got %v", err)
	}
}

func TestProcess_UploadRejected(t *testing.T) {
	src := writeFile(t, "empty.txt", "   ")
	p := New(newUploads(t), &fakeAnalyzer{})

	_, err := p.Process(context.Background(), Input{Source: src, UserID: "officer-1"})
	var verr *petition.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestLoadCaseFile_Invalid(t *testing.T) {
	path := writeFile(t, "case.yaml", "evidence: [unclosed")
	if _, err := LoadCaseFile(path); err == nil {
		t.Error("Expected parse error, got nil")
	}
}

func TestIsURL(t *testing.T) {
	if !IsURL("https://example.org/p.pdf") || IsURL("./p.pdf") {
		t.Error("Unexpected IsURL result")
	}
}
