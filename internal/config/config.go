package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the NicheScout server.
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Composio    ComposioConfig
	LLM         LLMConfig
	Agent       AgentConfig
	RateLimit   RateLimitConfig
	Connections ConnectionsConfig
}

type ServerConfig struct {
	Port        int
	Env         string
	CORSOrigins []string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

type ComposioConfig struct {
	APIKey   string
	BaseURL  string
	Toolkits []string
	// AuthConfigIDs maps a toolkit slug to the auth config used to connect it.
	AuthConfigIDs map[string]string
	Timeout       time.Duration
}

type LLMConfig struct {
	Provider         string
	Model            string
	ChartModel       string
	BaseURL          string
	OpenAIAPIKey     string
	OpenRouterAPIKey string
	Timeout          time.Duration
	RequestsPerMin   int
}

type AgentConfig struct {
	MaxSteps    int
	MockDelay   time.Duration
	MockOnly    bool
	DefaultMock bool
}

type RateLimitConfig struct {
	ChatRequestsPerMin int
}

type ConnectionsConfig struct {
	CacheTTL time.Duration
}

var validProviders = map[string]bool{
	"openai":     true,
	"openrouter": true,
	"ollama":     true,
	"vllm":       true,
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        envInt("NICHESCOUT_PORT", 8080),
			Env:         envString("NICHESCOUT_ENV", "development"),
			CORSOrigins: envList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Composio: ComposioConfig{
			APIKey:        os.Getenv("COMPOSIO_API_KEY"),
			BaseURL:       envString("COMPOSIO_BASE_URL", "https://backend.composio.dev/api/v3"),
			Toolkits:      envList("COMPOSIO_TOOLKITS", []string{"composio", "junglescout", "semrush", "shopify"}),
			AuthConfigIDs: envMap("COMPOSIO_AUTH_CONFIG_IDS"),
			Timeout:       envDuration("COMPOSIO_TIMEOUT", 60*time.Second),
		},
		LLM: LLMConfig{
			Provider:         envString("LLM_PROVIDER", "openai"),
			Model:            envString("LLM_MODEL", "gpt-4o-mini"),
			ChartModel:       os.Getenv("LLM_CHART_MODEL"),
			BaseURL:          os.Getenv("LLM_BASE_URL"),
			OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
			OpenRouterAPIKey: os.Getenv("OPENROUTER_API_KEY"),
			Timeout:          envDuration("LLM_TIMEOUT", 90*time.Second),
			RequestsPerMin:   envInt("LLM_RPM", 0),
		},
		Agent: AgentConfig{
			MaxSteps:    envInt("AGENT_MAX_STEPS", 15),
			MockDelay:   envDuration("AGENT_MOCK_DELAY", 2*time.Second),
			MockOnly:    envBool("AGENT_MOCK_ONLY", false),
			DefaultMock: envBool("AGENT_DEFAULT_MOCK", true),
		},
		RateLimit: RateLimitConfig{
			ChatRequestsPerMin: envInt("CHAT_RATE_LIMIT_PER_MIN", 10),
		},
		Connections: ConnectionsConfig{
			CacheTTL: envDuration("CONNECTIONS_CACHE_TTL", 10*time.Second),
		},
	}

	if cfg.LLM.ChartModel == "" {
		cfg.LLM.ChartModel = cfg.LLM.Model
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsProduction reports whether the server runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.Agent.MaxSteps <= 0 {
		return fmt.Errorf("AGENT_MAX_STEPS must be positive, got %d", c.Agent.MaxSteps)
	}

	if c.Agent.MockOnly {
		return nil
	}

	if c.Composio.APIKey == "" {
		return fmt.Errorf("COMPOSIO_API_KEY is required unless AGENT_MOCK_ONLY is set")
	}
	if !strings.HasPrefix(c.Composio.BaseURL, "http://") && !strings.HasPrefix(c.Composio.BaseURL, "https://") {
		return fmt.Errorf("COMPOSIO_BASE_URL must start with http:// or https://, got %q", c.Composio.BaseURL)
	}

	if !validProviders[c.LLM.Provider] {
		return fmt.Errorf("LLM_PROVIDER must be one of openai, openrouter, ollama, vllm; got %q", c.LLM.Provider)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("LLM_MODEL is required")
	}
	if c.LLM.Provider == "openai" && c.LLM.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER is openai")
	}
	if c.LLM.Provider == "openrouter" && c.LLM.OpenRouterAPIKey == "" {
		return fmt.Errorf("OPENROUTER_API_KEY is required when LLM_PROVIDER is openrouter")
	}
	if c.LLM.Provider == "vllm" && c.LLM.BaseURL == "" {
		return fmt.Errorf("LLM_BASE_URL is required when LLM_PROVIDER is vllm")
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

func envBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
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

// envList parses a comma-separated list, dropping empty entries.
func envList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}

// envMap parses "key:value,key:value" pairs. Malformed pairs are skipped.
func envMap(key string) map[string]string {
	out := map[string]string{}
	for _, pair := range envList(key, nil) {
		k, v, ok := strings.Cut(pair, ":")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !ok || k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	return out
}
