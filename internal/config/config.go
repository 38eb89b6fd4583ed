package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the Notable server.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	LLM      LLMConfig
	Audit    AuditConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig is optional; an empty URL selects the in-process cache.
type RedisConfig struct {
	URL string
}

type LLMConfig struct {
	Timeout    time.Duration
	OpenAI     ProviderConfig
	Anthropic  ProviderConfig
	Gemini     ProviderConfig
	Perplexity ProviderConfig
	XAI        ProviderConfig
}

// ProviderConfig configures one vendor adapter. BaseURL overrides the
// vendor endpoint (proxies, tests).
type ProviderConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Enabled reports whether the provider has credentials.
func (p ProviderConfig) Enabled() bool {
	return p.APIKey != ""
}

type AuditConfig struct {
	MaxAgeDays      int
	ForceMaxAgeDays int
	LockTTL         time.Duration
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("NOTABLE_PORT", 8080),
			Env:  envString("NOTABLE_ENV", "development"),
		},
		Database: loadDatabase(),
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		LLM: loadLLM(),
		Audit: AuditConfig{
			MaxAgeDays:      envInt("AUDIT_MAX_AGE_DAYS", 7),
			ForceMaxAgeDays: envInt("AUDIT_FORCE_MAX_AGE_DAYS", 1),
			LockTTL:         envDuration("AUDIT_LOCK_TTL", 2*time.Minute),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL != "" && !strings.HasPrefix(c.Redis.URL, "redis://") && !strings.HasPrefix(c.Redis.URL, "rediss://") {
		return fmt.Errorf("REDIS_URL must start with redis:// or rediss://, got %q", c.Redis.URL)
	}

	if err := c.LLM.validate(); err != nil {
		return err
	}

	if c.Audit.MaxAgeDays < 1 {
		return fmt.Errorf("AUDIT_MAX_AGE_DAYS must be at least 1, got %d", c.Audit.MaxAgeDays)
	}
	if c.Audit.ForceMaxAgeDays < 0 || c.Audit.ForceMaxAgeDays > c.Audit.MaxAgeDays {
		return fmt.Errorf("AUDIT_FORCE_MAX_AGE_DAYS must be between 0 and AUDIT_MAX_AGE_DAYS, got %d", c.Audit.ForceMaxAgeDays)
	}

	return nil
}

// LoadLLM reads only the provider settings. The CLI uses it to query vendors
// without a database.
func LoadLLM() (LLMConfig, error) {
	c := loadLLM()
	if err := c.validate(); err != nil {
		return LLMConfig{}, err
	}
	return c, nil
}

// LoadDatabase reads only the database settings.
func LoadDatabase() (DatabaseConfig, error) {
	c := loadDatabase()
	if c.URL == "" {
		return DatabaseConfig{}, fmt.Errorf("DATABASE_URL is required")
	}
	return c, nil
}

func loadDatabase() DatabaseConfig {
	return DatabaseConfig{
		URL:             os.Getenv("DATABASE_URL"),
		MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

func loadLLM() LLMConfig {
	return LLMConfig{
		Timeout: envDurationSecs("LLM_TIMEOUT_SECS", 60*time.Second),
		OpenAI: ProviderConfig{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			Model:   envString("OPENAI_MODEL", "gpt-4o-mini"),
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
		},
		Anthropic: ProviderConfig{
			APIKey:  os.Getenv("ANTHROPIC_API_KEY"),
			Model:   envString("ANTHROPIC_MODEL", "claude-3-5-haiku-20241022"),
			BaseURL: os.Getenv("ANTHROPIC_BASE_URL"),
		},
		Gemini: ProviderConfig{
			APIKey:  os.Getenv("GEMINI_API_KEY"),
			Model:   envString("GEMINI_MODEL", "gemini-2.0-flash"),
			BaseURL: os.Getenv("GEMINI_BASE_URL"),
		},
		Perplexity: ProviderConfig{
			APIKey:  os.Getenv("PERPLEXITY_API_KEY"),
			Model:   envString("PERPLEXITY_MODEL", "sonar"),
			BaseURL: os.Getenv("PERPLEXITY_BASE_URL"),
		},
		XAI: ProviderConfig{
			APIKey:  os.Getenv("XAI_API_KEY"),
			Model:   envString("XAI_MODEL", "grok-2-latest"),
			BaseURL: os.Getenv("XAI_BASE_URL"),
		},
	}
}

func (c LLMConfig) validate() error {
	if !c.OpenAI.Enabled() && !c.Anthropic.Enabled() && !c.Gemini.Enabled() &&
		!c.Perplexity.Enabled() && !c.XAI.Enabled() {
		return fmt.Errorf("at least one of OPENAI_API_KEY, ANTHROPIC_API_KEY, GEMINI_API_KEY, PERPLEXITY_API_KEY, XAI_API_KEY is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT_SECS must be positive")
	}
	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}
