package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ppiankov/casedesk/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve exposes the petition functions over HTTP:

  POST /functions/v1/upload-petition
  POST /functions/v1/analyze-petition
  POST /functions/v1/evaluate-evidence
  POST /functions/v1/test-openai
  POST /functions/v1/generate-report
  GET  /status, /healthz
  POST /auth/signup, /auth/login
  /sessions for workflow state

Example:
  casedesk serve --addr :8080
  CASEDESK_AUTH_REQUIRED=true JWT_SECRET=... casedesk serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	serveCmd.Flags().Bool("auth-required", false, "require a bearer token on function and session routes")

	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("auth.required", serveCmd.Flags().Lookup("auth-required"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Auth.Required && cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.required is set but no JWT secret is configured")
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg.Server, cfg.Auth.Required, server.Deps{
		Uploads:  a.uploads,
		Analysis: a.analysis,
		Auth:     a.auth,
		Sessions: a.sessions,
		Checker:  a.checker(selfURL(cfg.Server.Addr)),
		Provider: a.provider,
		Logger:   a.logger,
	})

	a.logger.Info("casedesk starting",
		zap.String("version", Version),
		zap.String("store", cfg.Store.Backend),
		zap.String("provider", cfg.LLM.Provider),
		zap.Bool("ai_configured", a.analysis.Configured()),
		zap.Bool("auth_required", cfg.Auth.Required))

	return srv.Run(ctx)
}

// selfURL turns a listen address into a loopback base URL
func selfURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://127.0.0.1" + addr
	}
	return "http://" + addr
}
