// Package server exposes casedesk over HTTP: the petition functions, officer
// auth, workflow sessions and service status.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ppiankov/casedesk/internal/analysis"
	"github.com/ppiankov/casedesk/internal/auth"
	"github.com/ppiankov/casedesk/internal/llm"
	"github.com/ppiankov/casedesk/internal/model"
	"github.com/ppiankov/casedesk/internal/petition"
	"github.com/ppiankov/casedesk/internal/ratelimit"
	"github.com/ppiankov/casedesk/internal/status"
	"github.com/ppiankov/casedesk/internal/workflow"
)

// Deps are the services behind the HTTP surface. Any of them may be nil; the
// matching endpoints then answer "not configured".
type Deps struct {
	Uploads  *petition.Service
	Analysis *analysis.Service
	Auth     *auth.Service
	Sessions *workflow.Manager
	Checker  *status.Checker
	Provider llm.Provider
	Logger   *zap.Logger
}

// Server is the casedesk HTTP server
type Server struct {
	cfg          model.ServerConfig
	authRequired bool
	deps         Deps
	limiter      *ratelimit.Limiter
	logger       *zap.Logger
	engine       *gin.Engine
	now          func() time.Time
}

// New builds the router
func New(cfg model.ServerConfig, authRequired bool, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		cfg:          cfg,
		authRequired: authRequired,
		deps:         deps,
		limiter:      ratelimit.NewLimiter(cfg.RateLimit, cfg.RateBurst),
		logger:       logger,
		engine:       gin.New(),
		now:          time.Now,
	}
	s.engine.MaxMultipartMemory = petition.MaxDocumentSize
	s.routes()
	return s
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	r := s.engine
	r.Use(gin.Recovery(), accessLog(s.logger), cors.New(s.corsConfig()))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/status", s.handleStatus)

	authGroup := r.Group("/auth", rateLimit(s.limiter))
	authGroup.POST("/signup", s.handleSignup)
	authGroup.POST("/login", s.handleLogin)

	var guarded []gin.HandlerFunc
	if s.authRequired {
		guarded = append(guarded, requireToken(s.deps.Auth))
	}
	guarded = append(guarded, rateLimit(s.limiter))

	functions := r.Group("/functions/v1", guarded...)
	functions.Any("/:name", s.dispatchFunction)

	sessions := r.Group("/sessions", guarded...)
	sessions.POST("", s.handleCreateSession)
	sessions.GET("/:id", s.handleGetSession)
	sessions.POST("/:id/actions", s.handleSessionAction)
	sessions.DELETE("/:id", s.handleDeleteSession)
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Authorization", "X-Client-Info", "Apikey", "Content-Type", "Idempotency-Key"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}

	origins := s.cfg.AllowOrigins
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}

// Run serves until ctx is cancelled, then drains in-flight requests
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	janitor := time.NewTicker(time.Minute)
	defer janitor.Stop()

	for {
		select {
		case err, ok := <-errCh:
			if ok {
				return err
			}
			return nil
		case <-janitor.C:
			if n := s.limiter.Prune(10 * time.Minute); n > 0 {
				s.logger.Debug("pruned idle rate limiters", zap.Int("count", n))
			}
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			s.logger.Info("shutting down")
			return srv.Shutdown(shutdownCtx)
		}
	}
}
