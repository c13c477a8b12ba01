package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"

	// DefaultChatBaseURL is the OpenAI-compatible API root; completions go to /chat/completions under it.
	DefaultChatBaseURL = "https://openrouter.ai/api/v1"
	DefaultChatTitle   = "FastAPI Chat"
)

// defaultUsers is the development credential table used when DASHBOARD_USERS is unset.
var defaultUsers = map[string]string{
	"student1": "1234",
	"laxit":    "pass123",
	"1":        "1",
}

type Config struct {
	// Server
	Port string
	Env  string

	// Chat upstream
	ChatProvider       string
	OpenRouterAPIKey   string
	ChatBaseURL        string
	ChatModel          string
	ChatReferer        string
	ChatTitle          string
	GeminiAPIKey       string
	GeminiModel        string
	ChatTimeout        time.Duration
	ChatQueueTimeout   time.Duration
	ChatConcurrentReqs int

	// Auth
	Users map[string]string

	// CORS
	AllowedOrigins []string
}

// Load reads the environment (and a .env file when present) and validates it.
func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:               getEnvOrDefault("PORT", "8000"),
		Env:                getEnvOrDefault("ENV", "development"),
		ChatProvider:       strings.ToLower(getEnvOrDefault("CHAT_PROVIDER", ProviderOpenRouter)),
		OpenRouterAPIKey:   os.Getenv("OPENROUTER_API_KEY"),
		ChatBaseURL:        strings.TrimRight(getEnvOrDefault("CHAT_BASE_URL", DefaultChatBaseURL), "/"),
		ChatModel:          getEnvOrDefault("CHAT_MODEL", "openai/gpt-4o-mini"),
		ChatReferer:        getEnvOrDefault("CHAT_REFERER", "http://localhost"),
		ChatTitle:          getEnvOrDefault("CHAT_TITLE", DefaultChatTitle),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		GeminiModel:        getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		AllowedOrigins:     splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),
	}

	timeout, err := getEnvAsIntOrDefault("CHAT_TIMEOUT_SECONDS", 60)
	if err != nil {
		return nil, err
	}
	queueTimeout, err := getEnvAsIntOrDefault("CHAT_QUEUE_TIMEOUT_SECONDS", 10)
	if err != nil {
		return nil, err
	}
	concurrent, err := getEnvAsIntOrDefault("CHAT_CONCURRENT_REQUESTS", 5)
	if err != nil {
		return nil, err
	}
	cfg.ChatTimeout = time.Duration(timeout) * time.Second
	cfg.ChatQueueTimeout = time.Duration(queueTimeout) * time.Second
	cfg.ChatConcurrentReqs = concurrent

	users, err := parseUsers(os.Getenv("DASHBOARD_USERS"))
	if err != nil {
		return nil, err
	}
	cfg.Users = users

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.ChatProvider {
	case ProviderOpenRouter:
		if _, err := requireValue("OPENROUTER_API_KEY", c.OpenRouterAPIKey); err != nil {
			return err
		}
	case ProviderGemini:
		if _, err := requireValue("GEMINI_API_KEY", c.GeminiAPIKey); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported CHAT_PROVIDER %q (want %q or %q)", c.ChatProvider, ProviderOpenRouter, ProviderGemini)
	}

	if c.ChatConcurrentReqs <= 0 {
		return fmt.Errorf("CHAT_CONCURRENT_REQUESTS must be positive, got %d", c.ChatConcurrentReqs)
	}
	if c.ChatTimeout <= 0 {
		return fmt.Errorf("CHAT_TIMEOUT_SECONDS must be positive")
	}
	if c.ChatQueueTimeout < 0 {
		return fmt.Errorf("CHAT_QUEUE_TIMEOUT_SECONDS must not be negative")
	}
	return nil
}

// IsProduction reports whether the service runs with production logging.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// parseUsers reads "user:pass,user:pass". An empty value yields the development table.
func parseUsers(raw string) (map[string]string, error) {
	if strings.TrimSpace(raw) == "" {
		users := make(map[string]string, len(defaultUsers))
		for k, v := range defaultUsers {
			users[k] = v
		}
		return users, nil
	}

	users := make(map[string]string)
	for _, entry := range splitList(raw) {
		name, password, ok := strings.Cut(entry, ":")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid DASHBOARD_USERS entry %q (want user:password)", entry)
		}
		if _, dup := users[name]; dup {
			return nil, fmt.Errorf("duplicate DASHBOARD_USERS username %q", name)
		}
		users[name] = password
	}
	return users, nil
}

func requireValue(key, val string) (string, error) {
	if val == "" {
		return "", fmt.Errorf("required environment variable %s is not set", key)
	}
	return val, nil
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvAsIntOrDefault returns defaultVal only when key is unset; a value that
// is not an integer is an error.
func getEnvAsIntOrDefault(key string, defaultVal int) (int, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("environment variable %s must be an integer, got %q", key, val)
	}
	return n, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
