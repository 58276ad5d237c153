package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v6"
)

type LLMProvider string

const (
	ProviderGemini LLMProvider = "gemini"
	ProviderOpenAI LLMProvider = "openai"
	ProviderYandex LLMProvider = "yandex"
)

type StorageBackend string

const (
	BackendFile     StorageBackend = "file"
	BackendRedis    StorageBackend = "redis"
	BackendPostgres StorageBackend = "postgres"
	BackendMemory   StorageBackend = "memory"
)

type Config struct {
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN,required"`
	AuthorizedUserID int64  `env:"AUTHORIZED_USER_ID,required"`
	ReplyToStrangers bool   `env:"REPLY_TO_STRANGERS" envDefault:"true"`

	// LLM settings
	LLMProvider      LLMProvider `env:"LLM_PROVIDER" envDefault:"gemini"`
	GeminiAPIKey     string      `env:"GEMINI_API_KEY"`
	GeminiModel      string      `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	ProactiveModel   string      `env:"PROACTIVE_MODEL"`
	OpenAIAPIKey     string      `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string      `env:"OPENAI_BASE_URL"`
	OpenAIModel      string      `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	YandexOAuthToken string      `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string      `env:"YANDEX_FOLDER_ID"`

	// OpenRouter (optional)
	OpenRouterReferrer string `env:"OPENROUTER_REFERRER"`
	OpenRouterTitle    string `env:"OPENROUTER_TITLE"`

	// Prompts
	SystemPromptPath string `env:"SYSTEM_PROMPT_PATH" envDefault:"prompts/system_prompt.txt"`

	// Timing
	Timezone          string        `env:"TIMEZONE" envDefault:"Europe/Istanbul"`
	SleepStartHour    int           `env:"SLEEP_START_HOUR" envDefault:"2"`
	SleepEndHour      int           `env:"SLEEP_END_HOUR" envDefault:"9"`
	CompletionTimeout time.Duration `env:"COMPLETION_TIMEOUT" envDefault:"60s"`

	// Proactive messages
	ProactiveEnabled     bool          `env:"PROACTIVE_ENABLED" envDefault:"true"`
	ProactiveMinInterval time.Duration `env:"PROACTIVE_MIN_INTERVAL" envDefault:"45m"`
	ProactiveMaxInterval time.Duration `env:"PROACTIVE_MAX_INTERVAL" envDefault:"120m"`

	// Storage
	StorageBackend StorageBackend `env:"STORAGE_BACKEND" envDefault:"file"`
	StoragePath    string         `env:"STORAGE_PATH" envDefault:"/var/data"`
	HistoryKey     string         `env:"HISTORY_KEY" envDefault:"chat_history"`
	RedisAddr      string         `env:"REDIS_ADDR" envDefault:"127.0.0.1:6379"`
	RedisUsername  string         `env:"REDIS_USERNAME"`
	RedisPassword  string         `env:"REDIS_PASSWORD"`
	RedisDB        int            `env:"REDIS_DB" envDefault:"0"`
	DatabaseURL    string         `env:"DATABASE_URL"`

	// Liveness endpoint
	Port int `env:"PORT" envDefault:"8080"`

	location *time.Location
}

// New parses the environment and exits the process on misconfiguration.
func New() *Config {
	cfg, err := Parse()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}

func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.SleepStartHour < 0 || c.SleepStartHour > 23 {
		errs = append(errs, fmt.Errorf("SLEEP_START_HOUR out of range: %d", c.SleepStartHour))
	}
	if c.SleepEndHour < 0 || c.SleepEndHour > 23 {
		errs = append(errs, fmt.Errorf("SLEEP_END_HOUR out of range: %d", c.SleepEndHour))
	}
	if c.SleepStartHour == c.SleepEndHour {
		errs = append(errs, errors.New("sleep window must not be empty"))
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		errs = append(errs, fmt.Errorf("unknown TIMEZONE %q: %w", c.Timezone, err))
	}
	c.location = loc

	switch c.LLMProvider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required for gemini provider"))
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for openai provider"))
		}
	case ProviderYandex:
		if c.YandexOAuthToken == "" || c.YandexFolderID == "" {
			errs = append(errs, errors.New("YANDEX_OAUTH_TOKEN and YANDEX_FOLDER_ID are required for yandex provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown LLM_PROVIDER: %s", c.LLMProvider))
	}

	switch c.StorageBackend {
	case BackendFile, BackendMemory, BackendRedis:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_BACKEND: %s", c.StorageBackend))
	}
	if c.HistoryKey == "" {
		errs = append(errs, errors.New("HISTORY_KEY must not be empty"))
	}

	if c.CompletionTimeout <= 0 {
		errs = append(errs, errors.New("COMPLETION_TIMEOUT must be positive"))
	}
	if c.ProactiveMinInterval <= 0 || c.ProactiveMaxInterval < c.ProactiveMinInterval {
		errs = append(errs, fmt.Errorf("invalid proactive interval [%s, %s)", c.ProactiveMinInterval, c.ProactiveMaxInterval))
	}
	return errors.Join(errs...)
}

// Location is the reference timezone for every timestamp the bot produces.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}
