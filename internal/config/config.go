package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/soarlabs/soar/internal/domain"
)

// Load reads the .env file specified by SOAR_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("SOAR_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

// DatabaseURL returns the Postgres connection string. Empty means the server
// runs without session persistence.
func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

func APIKey() string {
	return os.Getenv("API_KEY")
}

func OpenAIAPIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

func AnthropicAPIKey() string {
	return os.Getenv("ANTHROPIC_API_KEY")
}

func GeminiAPIKey() string {
	return os.Getenv("GEMINI_API_KEY")
}

func CerebrasAPIKey() string {
	return os.Getenv("CEREBRAS_API_KEY")
}

// LLMProvider returns the configured generator provider.
// Defaults to "template" (no external generator) if not set.
// Valid values: openai, anthropic, gemini, cerebras, mock, template
func LLMProvider() string {
	p := os.Getenv("LLM_PROVIDER")
	if p == "" {
		return "template"
	}
	return p
}

// EmbeddingProvider returns the configured embedding provider.
// Defaults to "openai" if not set.
// Valid values: openai, mock
func EmbeddingProvider() string {
	p := os.Getenv("EMBEDDING_PROVIDER")
	if p == "" {
		return "openai"
	}
	return p
}

// LLMAPIKey returns the API key for the configured generator provider.
func LLMAPIKey() string {
	switch LLMProvider() {
	case "anthropic":
		return AnthropicAPIKey()
	case "gemini":
		return GeminiAPIKey()
	case "cerebras":
		return CerebrasAPIKey()
	case "mock", "template":
		return ""
	default:
		return OpenAIAPIKey()
	}
}

// EmbeddingAPIKey returns the API key for the configured embedding provider.
func EmbeddingAPIKey() string {
	switch EmbeddingProvider() {
	case "mock":
		return ""
	default:
		return OpenAIAPIKey()
	}
}

func MigrationsPath() string {
	p := os.Getenv("MIGRATIONS_PATH")
	if p == "" {
		return "migrations"
	}
	return p
}

// InferenceMode returns the serving inference mode (offline, hybrid, full).
// Defaults to offline, the most conservative cap set.
func InferenceMode() domain.InferenceMode {
	switch os.Getenv("INFERENCE_MODE") {
	case "hybrid":
		return domain.ModeHybrid
	case "full":
		return domain.ModeFull
	default:
		return domain.ModeOffline
	}
}

// SOARConfig assembles the orchestrator configuration from env vars, starting
// from defaults and overriding only what is set.
func SOARConfig() domain.Config {
	cfg := domain.DefaultConfig()

	if v := os.Getenv("SOAR_ENABLED"); v != "" {
		cfg.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("SOAR_AUTO_DETECT"); v != "" {
		cfg.AutoDetect = v == "true" || v == "1"
	}
	if n, err := strconv.Atoi(os.Getenv("SOAR_MAX_ITERATIONS")); err == nil && n >= 0 {
		cfg.MaxIterations = n
	}
	if n, err := strconv.Atoi(os.Getenv("SOAR_STONES_PER_CURRICULUM")); err == nil && n >= 1 {
		cfg.StonesPerCurriculum = n
	}
	if v := os.Getenv("SOAR_CONTRADICTION_DETECTION"); v != "" {
		cfg.ContradictionDetection = v == "true" || v == "1"
	}
	if n, err := strconv.Atoi(os.Getenv("SOAR_MAX_CONTRADICTION_CLAIMS")); err == nil && n >= 2 {
		cfg.MaxContradictionClaims = n
	}

	return cfg
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}
