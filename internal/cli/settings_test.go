package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func loadFrom(t *testing.T, file string) *viper.Viper {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	v := viper.New()
	if err := setupViper(v, file); err != nil {
		t.Fatalf("setupViper failed: %v", err)
	}
	return v
}

func TestDecodeConfig_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := decodeConfig(loadFrom(t, ""))
	if err != nil {
		t.Fatalf("decodeConfig failed: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Errorf("Expected default addr :8080, got %s", cfg.Server.Addr)
	}
	if cfg.Store.Backend != "sqlite" || cfg.LLM.Provider != "openai" {
		t.Errorf("Unexpected defaults: store %s, provider %s", cfg.Store.Backend, cfg.LLM.Provider)
	}
	if cfg.LLM.APIKey != "" {
		t.Errorf("Expected no API key, got %q", cfg.LLM.APIKey)
	}
}

func TestDecodeConfig_FileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "casedesk.yaml")
	content := `
server:
  addr: ":9090"
store:
  backend: supabase
llm:
  provider: anthropic
`
	if err := os.WriteFile(file, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CASEDESK_SERVER_RATE_BURST", "42")
	t.Setenv("SUPABASE_URL", "https://project.supabase.co")
	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "service-role")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")

	cfg, err := decodeConfig(loadFrom(t, file))
	if err != nil {
		t.Fatalf("decodeConfig failed: %v", err)
	}

	if cfg.Server.Addr != ":9090" {
		t.Errorf("Expected addr from file, got %s", cfg.Server.Addr)
	}
	if cfg.Server.RateBurst != 42 {
		t.Errorf("Expected burst from environment, got %d", cfg.Server.RateBurst)
	}
	if cfg.Store.SupabaseURL != "https://project.supabase.co" || cfg.Store.SupabaseKey != "service-role" {
		t.Errorf("Expected supabase secrets from environment, got %q %q", cfg.Store.SupabaseURL, cfg.Store.SupabaseKey)
	}
	if cfg.LLM.APIKey != "sk-ant-test" {
		t.Errorf("Expected provider key from ANTHROPIC_API_KEY, got %q", cfg.LLM.APIKey)
	}
	if cfg.Cache.TTL != 24*60*60 {
		t.Errorf("Expected default cache TTL to survive the merge, got %d", cfg.Cache.TTL)
	}
}

func TestDecodeConfig_MissingExplicitFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if err := setupViper(viper.New(), filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Expected error for a missing explicit config file")
	}
}

func TestResolveProviderSecret_Ollama(t *testing.T) {
	t.Setenv("OLLAMA_BASE_URL", "http://gpu-box:11434")

	cfg, err := decodeConfig(loadFrom(t, ""))
	if err != nil {
		t.Fatal(err)
	}
	cfg.LLM.Provider = "ollama"
	cfg.LLM.APIKey = ""
	resolveProviderSecret(&cfg.LLM)

	if cfg.LLM.BaseURL != "http://gpu-box:11434" || cfg.LLM.APIKey != "" {
		t.Errorf("Expected base URL from environment, got %+v", cfg.LLM)
	}
}

func TestMasked(t *testing.T) {
	cfg, err := decodeConfig(loadFrom(t, ""))
	if err != nil {
		t.Fatal(err)
	}
	cfg.LLM.APIKey = "sk-1234567890"
	cfg.Auth.JWTSecret = "short"

	m := masked(cfg)
	if m.LLM.APIKey != "sk-1****" || m.Auth.JWTSecret != "****" {
		t.Errorf("Unexpected masking: %q %q", m.LLM.APIKey, m.Auth.JWTSecret)
	}
	if cfg.LLM.APIKey != "sk-1234567890" {
		t.Error("masked modified the original config")
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	if err := writeDefaultConfig(path); err != nil {
		t.Fatalf("writeDefaultConfig failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "backend: sqlite") || !strings.HasPrefix(string(data), "# casedesk configuration") {
		t.Errorf("Unexpected config file:\n%s", data)
	}

	if err := writeDefaultConfig(path); err == nil {
		t.Error("Expected error when the file already exists")
	}
}

func TestSelfURL(t *testing.T) {
	if got := selfURL(":8080"); got != "http://127.0.0.1:8080" {
		t.Errorf("Expected loopback URL, got %s", got)
	}
	if got := selfURL("10.0.0.5:9000"); got != "http://10.0.0.5:9000" {
		t.Errorf("Expected host URL, got %s", got)
	}
}
