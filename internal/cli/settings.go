package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/casedesk/internal/llm"
	"github.com/ppiankov/casedesk/internal/model"
)

// secretEnv lists conventional variables accepted next to the CASEDESK_ ones
var secretEnv = map[string][]string{
	"store.supabase_url": {"SUPABASE_URL"},
	"store.supabase_key": {"SUPABASE_SERVICE_ROLE_KEY"},
	"store.mysql_dsn":    {"MYSQL_DSN"},
	"cache.redis_url":    {"REDIS_URL"},
	"auth.jwt_secret":    {"JWT_SECRET"},
	"llm.api_key":        nil,
	"llm.base_url":       nil,
}

// setupViper loads defaults, then the config file, then binds the environment.
// A missing default config file is not an error.
func setupViper(v *viper.Viper, file string) error {
	defaults, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return fmt.Errorf("marshal defaults: %w", err)
	}
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return fmt.Errorf("load defaults: %w", err)
	}

	v.SetEnvPrefix("CASEDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, extra := range secretEnv {
		_ = v.BindEnv(append([]string{key, envKey(key)}, extra...)...)
	}

	if file != "" {
		v.SetConfigFile(file)
	} else {
		dir, err := configDir()
		if err != nil {
			return nil
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
	}

	if err := v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// decodeConfig turns the layered settings into a Config and fills provider
// secrets from their conventional variables
func decodeConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(cfg, hook); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if v.GetBool("verbose") {
		cfg.Log.Level = "debug"
		cfg.Log.Format = "console"
	}

	resolveProviderSecret(&cfg.LLM)
	return cfg, nil
}

func loadConfig() (*model.Config, error) {
	return decodeConfig(viper.GetViper())
}

// resolveProviderSecret reads OPENAI_API_KEY and friends for the selected
// provider. Ollama takes a base URL instead of a key.
func resolveProviderSecret(c *model.LLMConfig) {
	env := llm.APIKeyEnv(c.Provider)
	if env == "" {
		return
	}
	value := os.Getenv(env)
	if value == "" {
		return
	}
	if strings.EqualFold(c.Provider, "ollama") {
		if c.BaseURL == "" {
			c.BaseURL = value
		}
		return
	}
	if c.APIKey == "" {
		c.APIKey = value
	}
}

// masked returns a copy of cfg safe to print
func masked(cfg *model.Config) *model.Config {
	out := *cfg
	out.LLM.APIKey = mask(out.LLM.APIKey)
	out.Store.SupabaseKey = mask(out.Store.SupabaseKey)
	out.Store.MySQLDSN = mask(out.Store.MySQLDSN)
	out.Cache.RedisURL = mask(out.Cache.RedisURL)
	out.Auth.JWTSecret = mask(out.Auth.JWTSecret)
	out.Status.FunctionsKey = mask(out.Status.FunctionsKey)
	return &out
}

func mask(secret string) string {
	switch {
	case secret == "":
		return ""
	case len(secret) <= 8:
		return "****"
	}
	return secret[:4] + "****"
}
