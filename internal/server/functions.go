package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ppiankov/casedesk/internal/analysis"
	"github.com/ppiankov/casedesk/internal/llm"
	"github.com/ppiankov/casedesk/internal/model"
	"github.com/ppiankov/casedesk/internal/normalize"
	"github.com/ppiankov/casedesk/internal/petition"
	"github.com/ppiankov/casedesk/internal/report"
	"github.com/ppiankov/casedesk/internal/status"
	"github.com/ppiankov/casedesk/internal/workflow"
)

// Function names served under /functions/v1
const (
	FnUploadPetition   = "upload-petition"
	FnAnalyzePetition  = "analyze-petition"
	FnEvaluateEvidence = "evaluate-evidence"
	FnTestOpenAI       = "test-openai"
	FnGenerateReport   = "generate-report"
)

func (s *Server) functionHandlers() map[string]gin.HandlerFunc {
	return map[string]gin.HandlerFunc{
		FnUploadPetition:   s.handleUpload,
		FnAnalyzePetition:  s.handleAnalyze,
		FnEvaluateEvidence: s.handleEvaluate,
		FnTestOpenAI:       s.handleTestAI,
		FnGenerateReport:   s.handleGenerateReport,
	}
}

// dispatchFunction answers preflights, rejects non-POST methods and routes
// POSTs to the named function
func (s *Server) dispatchFunction(c *gin.Context) {
	handler, ok := s.functionHandlers()[c.Param("name")]
	if !ok {
		fail(c, http.StatusNotFound, "Function not found", nil)
		return
	}

	switch c.Request.Method {
	case http.MethodOptions:
		c.String(http.StatusOK, "ok")
	case http.MethodPost:
		handler(c)
	default:
		fail(c, http.StatusMethodNotAllowed, "Method not allowed", nil)
	}
}

func (s *Server) handleUpload(c *gin.Context) {
	if s.deps.Uploads == nil {
		fail(c, http.StatusInternalServerError, "Server configuration error", nil)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid form data", nil)
		return
	}

	req := petition.UploadRequest{
		UserID:         first(form.Value["userId"]),
		IdempotencyKey: c.GetHeader("Idempotency-Key"),
	}
	if uid := c.GetString(userIDKey); req.UserID == "" && uid != "" {
		req.UserID = uid
	}

	if files := form.File["petition"]; len(files) > 0 {
		fh := files[0]
		if fh.Size > petition.MaxImageSize {
			fail(c, http.StatusBadRequest, "File size exceeds 50MB limit", nil)
			return
		}
		f, err := fh.Open()
		if err != nil {
			fail(c, http.StatusBadRequest, "Invalid form data", nil)
			return
		}
		data, err := io.ReadAll(io.LimitReader(f, petition.MaxImageSize+1))
		_ = f.Close()
		if err != nil {
			fail(c, http.StatusBadRequest, "Failed to process file content", nil)
			return
		}
		req.FileName = fh.Filename
		req.MediaType = fh.Header.Get("Content-Type")
		req.Data = data
	}

	result, err := s.deps.Uploads.Upload(c.Request.Context(), req)
	if err != nil {
		var verr *petition.ValidationError
		var serr *petition.StoreError
		switch {
		case errors.As(err, &verr):
			fail(c, http.StatusBadRequest, verr.Message, nil)
		case errors.As(err, &serr):
			fail(c, http.StatusInternalServerError, serr.Message, serr.Err)
		default:
			fail(c, http.StatusInternalServerError, "Internal server error during file upload", err)
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var req analysis.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Missing required fields: petitionId and content", nil)
		return
	}

	result, err := s.analysisService().AnalyzePetition(c.Request.Context(), req)
	if err != nil {
		s.failAnalysis(c, err, "Internal server error during petition analysis")
		return
	}
	if !result.IsOk() {
		failResult(c, result.Kind, result.Err, analysis.AnalysisMessages)
		return
	}

	c.JSON(http.StatusOK, result.Value)
}

func (s *Server) handleEvaluate(c *gin.Context) {
	var req analysis.EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Missing required fields", nil)
		return
	}

	result, err := s.analysisService().EvaluateEvidence(c.Request.Context(), req)
	if err != nil {
		s.failAnalysis(c, err, "Internal server error during evidence evaluation")
		return
	}
	if !result.IsOk() {
		failResult(c, result.Kind, result.Err, analysis.EvaluationMessages)
		return
	}

	c.JSON(http.StatusOK, result.Value)
}

// handleTestAI always answers 200; the outcome is in the body
func (s *Server) handleTestAI(c *gin.Context) {
	c.JSON(http.StatusOK, status.TestProvider(c.Request.Context(), s.deps.Provider))
}

type reportRequest struct {
	Type      model.ReportType  `json:"type"`
	SessionID string            `json:"sessionId,omitempty"`
	Session   *workflow.Session `json:"session,omitempty"`
	Format    string            `json:"format,omitempty"` // json or markdown
}

func (s *Server) handleGenerateReport(c *gin.Context) {
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid report request", nil)
		return
	}
	if req.Type == "" {
		req.Type = model.ReportSummary
	}
	if !req.Type.Valid() {
		fail(c, http.StatusBadRequest, "Invalid report type: "+string(req.Type), nil)
		return
	}

	session := req.Session
	if req.SessionID != "" {
		if s.deps.Sessions == nil {
			fail(c, http.StatusInternalServerError, "Sessions not configured", nil)
			return
		}
		found, err := s.deps.Sessions.Get(req.SessionID)
		if err != nil {
			fail(c, http.StatusNotFound, "Session not found", nil)
			return
		}
		session = found
	}
	if session == nil {
		fail(c, http.StatusBadRequest, "Missing required fields: sessionId or session", nil)
		return
	}

	r := report.Build(session, req.Type, s.now())
	if req.Format == "markdown" {
		c.Status(http.StatusOK)
		c.Header("Content-Type", "text/markdown; charset=utf-8")
		if err := report.RenderMarkdown(c.Writer, r); err != nil {
			s.logger.Error("render markdown failed", zap.Error(err))
		}
		return
	}

	c.JSON(http.StatusOK, r)
}

func (s *Server) analysisService() *analysis.Service {
	if s.deps.Analysis != nil {
		return s.deps.Analysis
	}
	return analysis.NewService(nil)
}

func (s *Server) failAnalysis(c *gin.Context, err error, internal string) {
	var ierr *analysis.InputError
	switch {
	case errors.As(err, &ierr):
		fail(c, http.StatusBadRequest, ierr.Message, nil)
	case errors.Is(err, llm.ErrNotConfigured):
		fail(c, http.StatusInternalServerError, "AI service not configured", nil)
	default:
		fail(c, http.StatusInternalServerError, internal, err)
	}
}

// failResult maps a non-ok normalizer result onto the HTTP error taxonomy
func failResult(c *gin.Context, kind normalize.Kind, err error, msgs analysis.Messages) {
	switch {
	case kind == normalize.UpstreamError && errors.Is(err, llm.ErrEmptyCompletion):
		fail(c, http.StatusInternalServerError, msgs.Empty, nil)
	case kind == normalize.UpstreamError:
		fail(c, http.StatusServiceUnavailable, msgs.Unavailable, nil)
	default:
		fail(c, http.StatusInternalServerError, msgs.Parse, err)
	}
}

// fail writes {error, details?}
func fail(c *gin.Context, code int, message string, details error) {
	body := gin.H{"error": message}
	if details != nil {
		body["details"] = details.Error()
	}
	c.AbortWithStatusJSON(code, body)
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
