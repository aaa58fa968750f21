// Package config handles application configuration loading and management.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Server      ServerConfig
	Cache       CacheConfig
	DocDB       DocDBConfig
	Vault       VaultConfig
	Bots        BotsConfig
	Access      AccessConfig
	Inference   InferenceConfig
	Handoff     HandoffConfig
	Sync        SyncConfig
	Analytics   AnalyticsConfig
	Translation TranslationConfig
	Log         LogConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host           string
	Port           int
	GinMode        string
	AllowedOrigins []string
}

// Address returns the server address in host:port format.
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// CacheConfig holds cache-related configuration.
type CacheConfig struct {
	Type      string
	Host      string
	Port      string
	Password  string
	DB        int
	TTL       time.Duration
	KeyPrefix string
}

// DocDBConfig holds document database configuration.
type DocDBConfig struct {
	Type     string
	URI      string
	Database string
}

// VaultConfig holds vault configuration. EncryptionKey may be a vault
// reference such as dotenv://SECRETS_ENCRYPTION_KEY.
type VaultConfig struct {
	Type          string
	EncryptionKey string
}

// BotsConfig points at the bot policy file.
type BotsConfig struct {
	ConfigPath string
}

// AccessConfig holds capability token settings.
type AccessConfig struct {
	TokenTTL time.Duration
}

// InferenceConfig selects and configures the bot reply backend.
type InferenceConfig struct {
	Type         string
	Timeout      time.Duration
	WebhookURL   string
	WebhookKey   string
	LLMProvider  string
	LLMModel     string
	OllamaHost   string
	OpenAIAPIKey string
	SystemPrompt string
	HistoryLimit int
}

// HandoffConfig holds the dispatcher and agent credentials.
type HandoffConfig struct {
	WebhookURL      string
	DispatchTimeout time.Duration
	// AgentKeys maps an API key to the agent name it authenticates.
	AgentKeys map[string]string
}

// SyncConfig tunes the push transports and the log cache.
type SyncConfig struct {
	Keepalive        time.Duration
	SubscriberBuffer int
	LogCacheSize     int
}

// AnalyticsConfig holds analytics sink settings.
type AnalyticsConfig struct {
	Enabled    bool
	SQLitePath string
	QueueSize  int
	Workers    int
}

// TranslationConfig holds dictionary settings.
type TranslationConfig struct {
	Dir      string
	Fallback string
	CacheTTL time.Duration
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	agentKeys, err := parseAgentKeys(getEnv("HANDOFF_AGENT_KEYS", ""))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			GinMode:        getEnv("GIN_MODE", "debug"),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Cache: CacheConfig{
			Type:      getEnv("CACHE_TYPE", "redis"),
			Host:      getEnv("REDIS_HOST", "localhost"),
			Port:      getEnv("REDIS_PORT", "6379"),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvAsInt("REDIS_DB", 0),
			TTL:       getEnvAsSeconds("CACHE_TTL_SECONDS", 180),
			KeyPrefix: getEnv("CACHE_KEY_PREFIX", "handoff:"),
		},
		DocDB: DocDBConfig{
			Type:     getEnv("DOCDB_TYPE", "mongodb"),
			URI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGODB_DATABASE", "handoff"),
		},
		Vault: VaultConfig{
			Type:          getEnv("VAULT_TYPE", "dotenv"),
			EncryptionKey: getEnv("SECRETS_ENCRYPTION_KEY", ""),
		},
		Bots: BotsConfig{
			ConfigPath: getEnv("BOTS_CONFIG_PATH", "bots.yaml"),
		},
		Access: AccessConfig{
			TokenTTL: getEnvAsSeconds("ACCESS_TOKEN_TTL_SECONDS", 30*24*60*60),
		},
		Inference: InferenceConfig{
			Type:         getEnv("INFERENCE_TYPE", "echo"),
			Timeout:      getEnvAsSeconds("INFERENCE_TIMEOUT_SECONDS", 30),
			WebhookURL:   getEnv("INFERENCE_WEBHOOK_URL", ""),
			WebhookKey:   getEnv("INFERENCE_WEBHOOK_API_KEY", ""),
			LLMProvider:  getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:     getEnv("LLM_MODEL", "llama3"),
			OllamaHost:   getEnv("OLLAMA_HOST", "http://localhost:11434"),
			OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
			SystemPrompt: getEnv("INFERENCE_SYSTEM_PROMPT", ""),
			HistoryLimit: getEnvAsInt("INFERENCE_HISTORY_LIMIT", 20),
		},
		Handoff: HandoffConfig{
			WebhookURL:      getEnv("HANDOFF_WEBHOOK_URL", ""),
			DispatchTimeout: getEnvAsSeconds("HANDOFF_DISPATCH_TIMEOUT_SECONDS", 10),
			AgentKeys:       agentKeys,
		},
		Sync: SyncConfig{
			Keepalive:        getEnvAsSeconds("SYNC_KEEPALIVE_SECONDS", 15),
			SubscriberBuffer: getEnvAsInt("SYNC_SUBSCRIBER_BUFFER", 64),
			LogCacheSize:     getEnvAsInt("SYNC_LOG_CACHE_SIZE", 1024),
		},
		Analytics: AnalyticsConfig{
			Enabled:    getEnvAsBool("ANALYTICS_ENABLED", true),
			SQLitePath: getEnv("ANALYTICS_SQLITE_PATH", "data/analytics.db"),
			QueueSize:  getEnvAsInt("ANALYTICS_QUEUE_SIZE", 1024),
			Workers:    getEnvAsInt("ANALYTICS_WORKERS", 2),
		},
		Translation: TranslationConfig{
			Dir:      getEnv("I18N_DIR", "i18n"),
			Fallback: getEnv("I18N_FALLBACK", "en"),
			CacheTTL: getEnvAsSeconds("I18N_CACHE_TTL_SECONDS", 3600),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values Load cannot default.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid SERVER_PORT %d", c.Server.Port)
	}
	switch c.Cache.Type {
	case "redis", "memory":
	default:
		return fmt.Errorf("unsupported CACHE_TYPE %q", c.Cache.Type)
	}
	switch c.DocDB.Type {
	case "mongodb", "memory":
	default:
		return fmt.Errorf("unsupported DOCDB_TYPE %q", c.DocDB.Type)
	}
	switch c.Inference.Type {
	case "echo", "webhook", "llm":
	default:
		return fmt.Errorf("unsupported INFERENCE_TYPE %q", c.Inference.Type)
	}
	if c.Inference.Type == "webhook" && c.Inference.WebhookURL == "" {
		return fmt.Errorf("INFERENCE_WEBHOOK_URL is required for the webhook backend")
	}
	if c.Inference.Timeout <= 0 {
		return fmt.Errorf("INFERENCE_TIMEOUT_SECONDS must be positive")
	}
	if c.Sync.Keepalive <= 0 {
		return fmt.Errorf("SYNC_KEEPALIVE_SECONDS must be positive")
	}
	if c.Access.TokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL_SECONDS must be positive")
	}
	return nil
}

// parseAgentKeys parses "name:key,name:key".
func parseAgentKeys(raw string) (map[string]string, error) {
	keys := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, key, ok := strings.Cut(pair, ":")
		name, key = strings.TrimSpace(name), strings.TrimSpace(key)
		if !ok || name == "" || key == "" {
			return nil, fmt.Errorf("invalid HANDOFF_AGENT_KEYS entry %q, expected name:key", pair)
		}
		if _, dup := keys[key]; dup {
			return nil, fmt.Errorf("duplicate key in HANDOFF_AGENT_KEYS for agent %q", name)
		}
		keys[key] = name
	}
	return keys, nil
}

// getEnv gets an environment variable with a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsSeconds(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultValue)) * time.Second
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
