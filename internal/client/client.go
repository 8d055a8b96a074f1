// Package client calls a casedesk server. Every call returns a Response
// instead of an error so callers can render failures directly.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/casedesk/internal/analysis"
	"github.com/ppiankov/casedesk/internal/model"
	"github.com/ppiankov/casedesk/internal/petition"
	"github.com/ppiankov/casedesk/internal/status"
)

// ErrNotConfigured is the Response.Error for a client without base URL or key
const ErrNotConfigured = "Service not configured. Set the server URL and key first."

// Response wraps every call outcome
type Response[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Client talks to the function endpoints
type Client struct {
	baseURL string
	key     string
	http    *http.Client
}

// New creates a client. key is sent as a bearer token.
func New(baseURL, key string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
		http:    &http.Client{Timeout: timeout},
	}
}

// Configured reports whether calls can be made
func (c *Client) Configured() bool {
	return c.baseURL != "" && c.key != ""
}

// TestOpenAI runs the provider connectivity test
func (c *Client) TestOpenAI(ctx context.Context) Response[status.AITestResult] {
	return postJSON[status.AITestResult](ctx, c, "test-openai", map[string]bool{"test": true})
}

// UploadPetition sends a petition file as multipart form data
func (c *Client) UploadPetition(ctx context.Context, fileName, mediaType string, file io.Reader, userID string) Response[petition.UploadResult] {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="petition"; filename=%q`, fileName))
	if mediaType != "" {
		h.Set("Content-Type", mediaType)
	}
	part, err := w.CreatePart(h)
	if err == nil {
		_, err = io.Copy(part, file)
	}
	if err == nil {
		err = w.WriteField("userId", userID)
	}
	if err == nil {
		err = w.Close()
	}
	if err != nil {
		return Response[petition.UploadResult]{Error: err.Error()}
	}

	return call[petition.UploadResult](ctx, c, http.MethodPost, "/functions/v1/upload-petition", &buf, w.FormDataContentType())
}

// AnalyzePetition extracts claims from petition text
func (c *Client) AnalyzePetition(ctx context.Context, req analysis.AnalyzeRequest) Response[model.PetitionAnalysis] {
	return postJSON[model.PetitionAnalysis](ctx, c, "analyze-petition", req)
}

// EvaluateEvidence grades one evidence item
func (c *Client) EvaluateEvidence(ctx context.Context, req analysis.EvaluateRequest) Response[model.EvidenceEvaluation] {
	return postJSON[model.EvidenceEvaluation](ctx, c, "evaluate-evidence", req)
}

// GenerateReport builds a report for a server-side session
func (c *Client) GenerateReport(ctx context.Context, sessionID string, typ model.ReportType) Response[model.Report] {
	return postJSON[model.Report](ctx, c, "generate-report", map[string]string{
		"sessionId": sessionID,
		"type":      string(typ),
	})
}

// StatusReport is the body of GET /status
type StatusReport struct {
	Healthy   bool                     `json:"healthy"`
	Services  []model.ConnectionStatus `json:"services"`
	CheckedAt time.Time                `json:"checkedAt"`
}

// Status fetches the server's probe results
func (c *Client) Status(ctx context.Context) Response[StatusReport] {
	return call[StatusReport](ctx, c, http.MethodGet, "/status", nil, "")
}

// Health combines the AI test and the server status
type Health struct {
	AI        Response[status.AITestResult] `json:"ai"`
	Server    Response[StatusReport]        `json:"server"`
	Timestamp time.Time                     `json:"timestamp"`
}

// CheckSystemHealth runs TestOpenAI and Status concurrently
func (c *Client) CheckSystemHealth(ctx context.Context) Response[Health] {
	var h Health
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		h.AI = c.TestOpenAI(gctx)
		return nil
	})
	g.Go(func() error {
		h.Server = c.Status(gctx)
		return nil
	})
	_ = g.Wait()

	h.Timestamp = time.Now().UTC()
	return Response[Health]{Success: true, Data: h}
}

func postJSON[T any](ctx context.Context, c *Client, function string, payload interface{}) Response[T] {
	body, err := json.Marshal(payload)
	if err != nil {
		return Response[T]{Error: err.Error()}
	}
	return call[T](ctx, c, http.MethodPost, "/functions/v1/"+function, bytes.NewReader(body), "application/json")
}

func call[T any](ctx context.Context, c *Client, method, path string, body io.Reader, contentType string) Response[T] {
	if !c.Configured() {
		return Response[T]{Error: ErrNotConfigured}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return Response[T]{Error: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+c.key)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Response[T]{Error: fmt.Sprintf("Network error: %v", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return Response[T]{Error: fmt.Sprintf("read response: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return Response[T]{Error: apiErr.Error}
		}
		return Response[T]{Error: fmt.Sprintf("Request failed with status %d", resp.StatusCode)}
	}

	var data T
	if err := json.Unmarshal(raw, &data); err != nil {
		return Response[T]{Error: fmt.Sprintf("decode response: %v", err)}
	}
	return Response[T]{Success: true, Data: data}
}
