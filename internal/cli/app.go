package cli

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/casedesk/internal/analysis"
	"github.com/ppiankov/casedesk/internal/auth"
	"github.com/ppiankov/casedesk/internal/cache"
	"github.com/ppiankov/casedesk/internal/llm"
	"github.com/ppiankov/casedesk/internal/logging"
	"github.com/ppiankov/casedesk/internal/model"
	"github.com/ppiankov/casedesk/internal/petition"
	"github.com/ppiankov/casedesk/internal/status"
	"github.com/ppiankov/casedesk/internal/store"
	"github.com/ppiankov/casedesk/internal/workflow"
)

// app holds the wired services shared by serve, status and process
type app struct {
	cfg      *model.Config
	logger   *zap.Logger
	store    store.Store
	blobs    store.BlobStore
	cache    cache.Cache
	provider llm.Provider
	uploads  *petition.Service
	analysis *analysis.Service
	auth     *auth.Service
	sessions *workflow.Manager
}

// newApp opens the store and cache and builds the services. Missing store
// credentials or a missing AI key are not fatal: the dependent services stay
// nil and surface as not configured.
func newApp(cfg *model.Config) (*app, error) {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}

	st, blobs, err := store.Open(cfg.Store)
	switch {
	case errors.Is(err, store.ErrNotConfigured):
		logger.Warn("store not configured", zap.String("backend", cfg.Store.Backend))
	case err != nil:
		return nil, fmt.Errorf("open store: %w", err)
	default:
		a.store, a.blobs = st, blobs
	}

	a.cache, err = cache.Open(cfg.Cache)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open cache: %w", err)
	}

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		logger.Warn("AI provider not configured", zap.String("provider", cfg.LLM.Provider))
	case err != nil:
		a.Close()
		return nil, fmt.Errorf("create AI provider: %w", err)
	default:
		a.provider = provider
	}

	analysisOpts := []analysis.Option{analysis.WithLogger(logger)}
	if a.store != nil {
		uploadOpts := []petition.Option{petition.WithLogger(logger)}
		if a.cache != nil {
			uploadOpts = append(uploadOpts, petition.WithCache(a.cache))
		}
		a.uploads = petition.NewService(a.store, a.blobs, uploadOpts...)
		a.auth = auth.NewService(a.store, cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTL)*time.Second, auth.WithLogger(logger))
		analysisOpts = append(analysisOpts, analysis.WithStore(a.store))
	}
	a.analysis = analysis.NewService(a.provider, analysisOpts...)
	a.sessions = workflow.NewManager(workflow.DefaultSessionTTL)

	return a, nil
}

// checker builds the status probes. Without an explicit functions URL the
// probe targets selfURL, the server's own function routes.
func (a *app) checker(selfURL string) *status.Checker {
	probes := []status.Probe{
		status.DatabaseProbe{Store: a.store, Backend: a.cfg.Store.Backend},
		status.AIProbe{Provider: a.provider},
	}

	baseURL, key := a.cfg.Status.FunctionsBaseURL, a.cfg.Status.FunctionsKey
	if baseURL == "" && a.cfg.Store.Backend == "supabase" {
		baseURL, key = a.cfg.Store.SupabaseURL, a.cfg.Store.SupabaseKey
	}
	if baseURL == "" {
		baseURL = selfURL
	}
	probes = append(probes, status.FunctionsProbe{BaseURL: baseURL, Key: key})

	timeout := time.Duration(a.cfg.Status.ProbeTimeout) * time.Second
	return status.NewChecker(timeout, a.logger, probes...)
}

// Close releases the store and cache and flushes the logger
func (a *app) Close() {
	if closer, ok := a.cache.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
	_ = a.logger.Sync()
}
