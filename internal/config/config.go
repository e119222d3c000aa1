package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App     AppConfig
	Events  EventsConfig
	Ai      AIConfig
	Routing RoutingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	RelayLogFilePath   string
	CorsAllowedOrigins string
	BodyLimitMB        int
	OtelEnabled        bool
}

type EventsConfig struct {
	Sink         string // "nats", "redis" or "none"
	Topic        string // in-process watermill topic
	NatsURL      string
	NatsStream   string
	RedisURL     string
	RedisChannel string
}

type AIConfig struct {
	LLMProvider        string // "ollama", "huggingface" or "openai"
	LLMModel           string
	OllamaBaseURL      string
	HuggingFaceBaseURL string
	HuggingFaceAPIKey  string
	OpenAIBaseURL      string
	OpenAIAPIKey       string
	Temperature        float64
	MaxTokens          int
	Timeout            time.Duration
	HistoryWindow      int // trailing turns sent to the model, 0 = all
}

type RoutingConfig struct {
	PairingFile string
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			RelayLogFilePath:   getEnv("RELAY_LOG_FILE_PATH", "logs/relay.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			BodyLimitMB:        getEnvAsInt("BODY_LIMIT_MB", 10),
			OtelEnabled:        getEnv("OTEL_ENABLED", "false") == "true",
		},
		Events: EventsConfig{
			Sink:         getEnv("EVENT_SINK", "none"),
			Topic:        getEnv("RELAY_EVENTS_TOPIC", "relay.events"),
			NatsURL:      getEnv("NATS_URL", "nats://localhost:4222"),
			NatsStream:   getEnv("NATS_STREAM", "RELAY_EVENTS"),
			RedisURL:     getEnv("REDIS_URL", "redis://localhost:6379"),
			RedisChannel: getEnv("REDIS_CHANNEL", "relay.events"),
		},
		Ai: AIConfig{
			LLMProvider:        getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:           getEnv("LLM_MODEL", "llama3"),
			OllamaBaseURL:      getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			HuggingFaceBaseURL: getEnv("HUGGINGFACE_BASE_URL", "https://router.huggingface.co/v1"),
			HuggingFaceAPIKey:  getEnv("HUGGINGFACE_API_KEY", ""),
			OpenAIBaseURL:      getEnv("OPENAI_BASE_URL", ""),
			OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
			Temperature:        getEnvAsFloat("LLM_TEMPERATURE", 0.7),
			MaxTokens:          getEnvAsInt("LLM_MAX_TOKENS", 512),
			Timeout:            getEnvAsDuration("AGENT_TIMEOUT", 60*time.Second),
			HistoryWindow:      getEnvAsInt("AGENT_HISTORY_WINDOW", 0),
		},
		Routing: RoutingConfig{
			PairingFile: getEnv("PAIRING_FILE", "pairings.yaml"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("90s") or a bare number of seconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if value, err := time.ParseDuration(strValue); err == nil && value > 0 {
		return value
	}
	if secs, err := strconv.Atoi(strValue); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
