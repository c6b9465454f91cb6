package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	// Server
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Environment string `json:"environment"`
	APIPrefix   string `json:"api_prefix"`
	LogLevel    string `json:"log_level"`

	// CORS
	CORSOrigins []string `json:"cors_origins"`

	// Auth
	APIKeyHeader string   `json:"api_key_header"`
	APIKeys      []string `json:"api_keys"`
	EnableAuth   bool     `json:"enable_auth"`

	// Rate Limiting
	RateLimitPerMinute int `json:"rate_limit_per_minute"`

	// Elasticsearch (semantic index + course catalog)
	ElasticsearchHost        string `json:"elasticsearch_host"`
	ElasticsearchPort        int    `json:"elasticsearch_port"`
	ElasticsearchScheme      string `json:"elasticsearch_scheme"`
	ElasticsearchUser        string `json:"elasticsearch_user"`
	ElasticsearchPassword    string `json:"elasticsearch_password"`
	ElasticsearchVerifyCerts bool   `json:"elasticsearch_verify_certs"`
	ElasticsearchMaxRetries  int    `json:"elasticsearch_max_retries"`
	ChunkIndex               string `json:"chunk_index"`
	CatalogIndex             string `json:"catalog_index"`

	// Retrieval
	MaxResults int `json:"max_results"` // passages per search
	MaxHistory int `json:"max_history"` // remembered exchanges per session

	// Sessions (empty DSN selects the in-memory store)
	PostgresDSN string `json:"postgres_dsn"`

	// AI / LLM
	AnthropicAPIKey  string `json:"anthropic_api_key"`
	AnthropicBaseURL string `json:"anthropic_base_url"` // override for proxies
	AnthropicModel   string `json:"anthropic_model"`
	MaxRounds        int    `json:"max_rounds"`
	AgentTimeout     int    `json:"agent_timeout"` // seconds

	// Audit
	EnableAuditLogging bool `json:"enable_audit_logging"`
}

func Load() (*Config, error) {
	cfg := &Config{
		Host:                     DefaultHost,
		Port:                     DefaultPort,
		Environment:              DefaultEnvironment,
		APIPrefix:                DefaultAPIPrefix,
		LogLevel:                 DefaultLogLevel,
		CORSOrigins:              DefaultCORSOrigins,
		APIKeyHeader:             "X-API-Key",
		RateLimitPerMinute:       DefaultRateLimitPerMinute,
		ElasticsearchHost:        DefaultElasticsearchHost,
		ElasticsearchPort:        DefaultElasticsearchPort,
		ElasticsearchScheme:      DefaultElasticsearchScheme,
		ElasticsearchVerifyCerts: true,
		ElasticsearchMaxRetries:  DefaultElasticsearchMaxRetries,
		ChunkIndex:               DefaultChunkIndex,
		CatalogIndex:             DefaultCatalogIndex,
		MaxResults:               DefaultMaxResults,
		MaxHistory:               DefaultMaxHistory,
		AnthropicModel:           DefaultAnthropicModel,
		MaxRounds:                DefaultMaxRounds,
		AgentTimeout:             DefaultAgentTimeout,
		EnableAuditLogging:       true,
	}

	// Load from JSON config file if specified
	if path := getEnv("COURSEMIND_CONFIG", ""); path != "" {
		if err := loadJSON(path, cfg); err != nil {
			return nil, err
		}
	}

	// Environment overrides
	applyEnvOverrides(cfg)

	return cfg, nil
}

// Validate enforces startup-time invariants. A zero result limit is the
// most dangerous misconfiguration in this system: every search comes
// back empty and looks exactly like "no matches", so it must be caught
// here rather than discovered at query time.
func (c *Config) Validate() error {
	if c.MaxResults <= 0 {
		return fmt.Errorf("max_results must be a positive integer, got %d: a zero limit silently empties every search", c.MaxResults)
	}
	if c.MaxRounds <= 0 {
		return fmt.Errorf("max_rounds must be a positive integer, got %d", c.MaxRounds)
	}
	if c.AnthropicAPIKey == "" {
		return fmt.Errorf("anthropic_api_key is required (set ANTHROPIC_API_KEY)")
	}
	if c.ChunkIndex == "" || c.CatalogIndex == "" {
		return fmt.Errorf("chunk_index and catalog_index must be set")
	}
	return nil
}

func loadJSON(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, cfg)
}

func applyEnvOverrides(cfg *Config) {
	if v := getEnv("COURSEMIND_HOST", ""); v != "" {
		cfg.Host = v
	}
	if v := getEnv("COURSEMIND_PORT", ""); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
	if v := getEnv("COURSEMIND_ENV", ""); v != "" {
		cfg.Environment = v
	}
	if v := getEnv("COURSEMIND_LOG_LEVEL", ""); v != "" {
		cfg.LogLevel = v
	}
	if v := getEnv("COURSEMIND_API_KEYS", ""); v != "" {
		cfg.APIKeys = strings.Split(v, ",")
		cfg.EnableAuth = true
	}
	if v := getEnv("COURSEMIND_MAX_RESULTS", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxResults = n
		}
	}
	if v := getEnv("COURSEMIND_MAX_ROUNDS", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxRounds = n
		}
	}
	if v := getEnv("ANTHROPIC_API_KEY", ""); v != "" {
		cfg.AnthropicAPIKey = v
	}
	if v := getEnv("ANTHROPIC_BASE_URL", ""); v != "" {
		cfg.AnthropicBaseURL = v
	}
	if v := getEnv("ANTHROPIC_MODEL", ""); v != "" {
		cfg.AnthropicModel = v
	}
	if v := getEnv("ELASTICSEARCH_HOST", ""); v != "" {
		cfg.ElasticsearchHost = v
	}
	if v := getEnv("ELASTICSEARCH_PORT", ""); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.ElasticsearchPort = p
		}
	}
	if v := getEnv("ELASTICSEARCH_SCHEME", ""); v != "" {
		cfg.ElasticsearchScheme = v
	}
	if v := getEnv("ELASTICSEARCH_USER", ""); v != "" {
		cfg.ElasticsearchUser = v
	}
	if v := getEnv("ELASTICSEARCH_PASSWORD", ""); v != "" {
		cfg.ElasticsearchPassword = v
	}
	if v := getEnv("COURSEMIND_CHUNK_INDEX", ""); v != "" {
		cfg.ChunkIndex = v
	}
	if v := getEnv("COURSEMIND_CATALOG_INDEX", ""); v != "" {
		cfg.CatalogIndex = v
	}
	if v := getEnv("POSTGRES_DSN", ""); v != "" {
		cfg.PostgresDSN = v
	}
	if v := getEnv("RATE_LIMIT_PER_MINUTE", ""); v != "" {
		if r, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitPerMinute = r
		}
	}
	if v := getEnv("ENABLE_AUTH", ""); v != "" {
		cfg.EnableAuth = v == "true" || v == "1"
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
