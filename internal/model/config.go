package model

// Config is the complete casedesk configuration
type Config struct {
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Auth        AuthConfig        `yaml:"auth" mapstructure:"auth"`
	Status      StatusConfig      `yaml:"status" mapstructure:"status"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// ServerConfig controls the HTTP surface
type ServerConfig struct {
	Addr         string   `yaml:"addr" mapstructure:"addr"`
	AllowOrigins []string `yaml:"allow_origins" mapstructure:"allow_origins"`
	RateLimit    float64  `yaml:"rate_limit" mapstructure:"rate_limit"` // requests per second per client
	RateBurst    int      `yaml:"rate_burst" mapstructure:"rate_burst"`
}

// LLMConfig selects and configures the completion provider
type LLMConfig struct {
	Provider   string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama, gemini
	Model      string `yaml:"model" mapstructure:"model"`
	APIKey     string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL    string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout    int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// StoreConfig selects the relational and blob backends
type StoreConfig struct {
	Backend       string   `yaml:"backend" mapstructure:"backend"` // sqlite, mysql, supabase
	SQLitePath    string   `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	MySQLDSN      string   `yaml:"mysql_dsn,omitempty" mapstructure:"mysql_dsn"`
	MySQLReplicas []string `yaml:"mysql_replicas,omitempty" mapstructure:"mysql_replicas"`
	SupabaseURL   string   `yaml:"supabase_url,omitempty" mapstructure:"supabase_url"`
	SupabaseKey   string   `yaml:"supabase_key,omitempty" mapstructure:"supabase_key"`
	Bucket        string   `yaml:"bucket" mapstructure:"bucket"`
	BlobDir       string   `yaml:"blob_dir" mapstructure:"blob_dir"` // local blob backend when not on supabase
}

// CacheConfig controls the idempotency cache
type CacheConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	RedisURL string `yaml:"redis_url,omitempty" mapstructure:"redis_url"`
	TTL      int    `yaml:"ttl" mapstructure:"ttl"` // seconds
}

// AuthConfig controls officer accounts and tokens
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret,omitempty" mapstructure:"jwt_secret"`
	Required  bool   `yaml:"required" mapstructure:"required"`
	TokenTTL  int    `yaml:"token_ttl" mapstructure:"token_ttl"` // seconds
}

// StatusConfig controls the connectivity probes
type StatusConfig struct {
	ProbeTimeout     int    `yaml:"probe_timeout" mapstructure:"probe_timeout"` // seconds
	FunctionsBaseURL string `yaml:"functions_base_url,omitempty" mapstructure:"functions_base_url"`
	FunctionsKey     string `yaml:"functions_key,omitempty" mapstructure:"functions_key"`
}

// ConcurrencyConfig controls batch processing
type ConcurrencyConfig struct {
	Workers     int     `yaml:"workers" mapstructure:"workers"`
	AIRateLimit float64 `yaml:"ai_rate_limit" mapstructure:"ai_rate_limit"` // provider calls per second
}

// LogConfig controls zap output
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json or console
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			AllowOrigins: []string{"*"},
			RateLimit:    5,
			RateBurst:    10,
		},
		LLM: LLMConfig{
			Provider: "openai",
			Model:    "gpt-4",
			Timeout:  60,
		},
		Store: StoreConfig{
			Backend:    "sqlite",
			SQLitePath: "casedesk.db",
			Bucket:     "petition-files",
			BlobDir:    "petition-files",
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     24 * 60 * 60,
		},
		Auth: AuthConfig{
			Required: false,
			TokenTTL: 12 * 60 * 60,
		},
		Status: StatusConfig{
			ProbeTimeout: 10,
		},
		Concurrency: ConcurrencyConfig{
			Workers:     4,
			AIRateLimit: 1,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
