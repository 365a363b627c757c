package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LLM provider names.
const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderBedrock   = "bedrock"
)

// Config holds all configuration values.
type Config struct {
	// Relational store
	SQLitePath string

	// SurrealDB resource store
	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string
	SurrealDBAuthLevel string

	// Redis search cache (disabled when RedisAddr is empty)
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	// Reasoning endpoint
	LLMProvider     string
	LLMModel        string
	OllamaHost      string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	AWSRegion       string

	// Search sources (API adapters are enabled by their keys)
	SerpAPIKey    string
	BingAPIKey    string
	GoogleCSEKey  string
	GoogleCSEID   string
	YouTubeAPIKey string
	SourcesFile   string

	// Scraping
	AdapterTimeout time.Duration
	ScrapeTimeout  time.Duration
	FetchTimeout   time.Duration
	MaxRetries     int
	MaxResources   int

	// Journeys
	FreeJourneyLimit int
	DefaultUser      string

	// Server
	ServerPort string
	ServerURL  string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables, after loading a
// .env file from the working directory when one exists.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	return Config{
		SQLitePath: getEnv("JOURNEYS_SQLITE_PATH", "journeys.db"),

		SurrealDBURL:       getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", "journeys"),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", "resources"),
		SurrealDBUser:      getEnv("SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),
		SurrealDBAuthLevel: getEnv("SURREALDB_AUTH_LEVEL", "root"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      getEnvDuration("JOURNEYS_CACHE_TTL", 24*time.Hour),

		LLMProvider:     getEnv("JOURNEYS_LLM_PROVIDER", ProviderOllama),
		LLMModel:        getEnv("JOURNEYS_LLM_MODEL", "llama3.2"),
		OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		AWSRegion:       getEnv("AWS_REGION", "us-east-1"),

		SerpAPIKey:    getEnv("SERPAPI_KEY", ""),
		BingAPIKey:    getEnv("BING_API_KEY", ""),
		GoogleCSEKey:  getEnv("GOOGLE_CSE_KEY", ""),
		GoogleCSEID:   getEnv("GOOGLE_CSE_ID", ""),
		YouTubeAPIKey: getEnv("YOUTUBE_API_KEY", ""),
		SourcesFile:   getEnv("JOURNEYS_SOURCES_FILE", ""),

		AdapterTimeout: getEnvDuration("JOURNEYS_ADAPTER_TIMEOUT", 15*time.Second),
		ScrapeTimeout:  getEnvDuration("JOURNEYS_SCRAPE_TIMEOUT", 45*time.Second),
		FetchTimeout:   getEnvDuration("JOURNEYS_FETCH_TIMEOUT", 30*time.Second),
		MaxRetries:     getEnvInt("JOURNEYS_MAX_RETRIES", 3),
		MaxResources:   getEnvInt("JOURNEYS_MAX_RESOURCES", 12),

		FreeJourneyLimit: getEnvInt("JOURNEYS_FREE_LIMIT", 5),
		DefaultUser:      getEnv("JOURNEYS_USER", "local"),

		ServerPort: getEnv("JOURNEYS_SERVER_PORT", "8484"),
		ServerURL:  getEnv("JOURNEYS_SERVER_URL", "http://localhost:8484"),

		LogFile:  getEnv("JOURNEYS_LOG_FILE", "/tmp/journeys.log"),
		LogLevel: parseLogLevel(getEnv("JOURNEYS_LOG_LEVEL", "INFO")),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", val, "default", defaultVal)
		return defaultVal
	}
	return n
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		slog.Warn("invalid duration in environment, using default", "key", key, "value", val, "default", defaultVal)
		return defaultVal
	}
	return d
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
