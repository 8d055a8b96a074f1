package status

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/ppiankov/casedesk/internal/llm"
	"github.com/ppiankov/casedesk/internal/model"
)

// The opencensus view worker is started by an imported SDK and never stops
var leakOptions = []goleak.Option{
	goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"),
}

type staticProbe struct {
	name   string
	status model.ServiceStatus
	delay  time.Duration
}

func (p staticProbe) Name() string { return p.name }

func (p staticProbe) Check(ctx context.Context) model.ConnectionStatus {
	select {
	case <-time.After(p.delay):
		return model.ConnectionStatus{Service: p.name, Status: p.status, Configured: true}
	case <-ctx.Done():
		return model.ConnectionStatus{Service: p.name, Status: model.StatusError, Message: ctx.Err().Error()}
	}
}

func TestChecker_RunOrderAndTimeout(t *testing.T) {
	defer goleak.VerifyNone(t, leakOptions...)

	checker := NewChecker(100*time.Millisecond, nil,
		staticProbe{name: "slow", status: model.StatusConnected, delay: 5 * time.Second},
		staticProbe{name: "fast", status: model.StatusConnected},
		staticProbe{name: "broken", status: model.StatusError, delay: 10 * time.Millisecond},
	)

	start := time.Now()
	results := checker.Run(context.Background())
	elapsed := time.Since(start)

	if elapsed > 2*time.Second {
		t.Errorf("Expected slow probe to be cut off, took %v", elapsed)
	}
	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}

	names := []string{results[0].Service, results[1].Service, results[2].Service}
	if strings.Join(names, ",") != "slow,fast,broken" {
		t.Errorf("Expected registration order, got %v", names)
	}
	if results[0].Status != model.StatusError {
		t.Errorf("Expected timed out probe to be error, got %s", results[0].Status)
	}
	if results[1].Status != model.StatusConnected {
		t.Errorf("Expected fast probe connected, got %s", results[1].Status)
	}
	if Healthy(results) {
		t.Error("Expected unhealthy aggregate")
	}
}

func TestChecker_NoProbes(t *testing.T) {
	defer goleak.VerifyNone(t, leakOptions...)

	results := NewChecker(0, nil).Run(context.Background())
	if len(results) != 0 || !Healthy(results) {
		t.Errorf("Expected empty healthy result, got %v", results)
	}
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestDatabaseProbe(t *testing.T) {
	r := DatabaseProbe{}.Check(context.Background())
	if r.Status != model.StatusDisconnected || r.Configured {
		t.Errorf("Expected disconnected/unconfigured, got %+v", r)
	}

	r = DatabaseProbe{Store: pinger{}, Backend: "sqlite"}.Check(context.Background())
	if r.Status != model.StatusConnected {
		t.Errorf("Expected connected, got %+v", r)
	}

	r = DatabaseProbe{Store: pinger{err: errors.New("dial tcp: refused")}, Backend: "mysql"}.Check(context.Background())
	if r.Status != model.StatusError || !strings.Contains(r.Message, "refused") {
		t.Errorf("Expected error status, got %+v", r)
	}
}

type echoProvider struct {
	reply string
	err   error
}

func (p echoProvider) Name() string                     { return "openai" }
func (p echoProvider) IsAvailable(context.Context) bool { return true }
func (p echoProvider) Complete(context.Context, llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &llm.CompletionResponse{Content: p.reply, Model: "gpt-4", TokensUsed: 12}, nil
}

func TestTestProvider(t *testing.T) {
	tests := []struct {
		name       string
		provider   llm.Provider
		want       string
		configured bool
	}{
		{"not configured", nil, "error", false},
		{"echo", echoProvider{reply: "OpenAI connection successful"}, "connected", true},
		{"wrong reply", echoProvider{reply: "Hello!"}, "warning", true},
		{"upstream failure", echoProvider{err: llm.ErrUpstream}, "error", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := TestProvider(context.Background(), tt.provider)
			if r.Status != tt.want {
				t.Errorf("Expected status %s, got %s (%s)", tt.want, r.Status, r.Message)
			}
			if r.Configured != tt.configured {
				t.Errorf("Expected configured=%v, got %v", tt.configured, r.Configured)
			}
		})
	}
}

func TestAIProbe(t *testing.T) {
	if r := (AIProbe{}).Check(context.Background()); r.Status != model.StatusDisconnected || r.Configured {
		t.Errorf("Expected disconnected/unconfigured, got %+v", r)
	}
	if r := (AIProbe{Provider: echoProvider{reply: "OpenAI connection successful"}}).Check(context.Background()); r.Status != model.StatusConnected {
		t.Errorf("Expected connected, got %+v", r)
	}
	if r := (AIProbe{Provider: echoProvider{reply: "nope"}}).Check(context.Background()); r.Status != model.StatusError {
		t.Errorf("Expected warning to map to error, got %+v", r)
	}
}

func TestFunctionsProbe(t *testing.T) {
	var missing string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodOptions {
			t.Errorf("Expected OPTIONS, got %s", r.Method)
		}
		if r.Header.Get("Authorization") != "Bearer anon" {
			t.Errorf("Expected bearer key, got %q", r.Header.Get("Authorization"))
		}
		if missing != "" && strings.HasSuffix(r.URL.Path, "/"+missing) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	probe := FunctionsProbe{BaseURL: server.URL + "/", Key: "anon", Client: server.Client()}

	r := probe.Check(context.Background())
	if r.Status != model.StatusConnected || r.Message != "All 4 edge functions are deployed and accessible" {
		t.Errorf("Expected all functions available, got %+v", r)
	}

	missing = "upload-petition"
	r = probe.Check(context.Background())
	if r.Status != model.StatusError || r.Message != "3/4 edge functions available" {
		t.Errorf("Expected partial availability, got %+v", r)
	}

	if r := (FunctionsProbe{}).Check(context.Background()); r.Configured {
		t.Errorf("Expected unconfigured, got %+v", r)
	}
}
