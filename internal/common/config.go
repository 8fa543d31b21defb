package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/ternarybob/arbor"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment" validate:"oneof=development production"`
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	Library     LibraryConfig   `toml:"library"`
	Claude      ClaudeConfig    `toml:"claude"`
	Gemini      GeminiConfig    `toml:"gemini"`
	LLM         LLMConfig       `toml:"llm"`
	Summarize   SummarizeConfig `toml:"summarize"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
	Notify      NotifyConfig    `toml:"notify"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gt=0,lt=65536"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"`
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level" validate:"oneof=debug info warn error"`
	Format string   `toml:"format"` // "json" or "text"
	Output []string `toml:"output"` // "stdout", "file"
}

// LibraryConfig holds the remote research-library API settings
type LibraryConfig struct {
	BaseURL string `toml:"base_url" validate:"required,url"`
	APIKey  string `toml:"api_key"`
	UserID  string `toml:"user_id"`
	Timeout string `toml:"timeout"` // HTTP request timeout as duration string
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`       // Default: "claude-haiku-3-5-20241022"
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 2048)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "5m")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.3)
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`   // Default: "gemini-2.0-flash"
	Timeout     string  `toml:"timeout"` // Operation timeout as duration string (default: "5m")
	Temperature float32 `toml:"temperature"`
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	LLMProviderClaude LLMProvider = "claude"
	LLMProviderGemini LLMProvider = "gemini"
)

// LLMConfig selects the summarization provider
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider" validate:"oneof=claude gemini"`
}

// SummarizeConfig controls pipeline summarization behavior
type SummarizeConfig struct {
	// MaxInputChars is the fixed prefix length extracted text is truncated
	// to before the summarizer call, respecting downstream context limits.
	MaxInputChars  int    `toml:"max_input_chars" validate:"gt=0"`
	DefaultLength  string `toml:"default_length" validate:"oneof=brief standard detailed"`
	DefaultPublish string `toml:"default_publish" validate:"oneof=note local"`
	NoteTag        string `toml:"note_tag"` // Tag applied to published notes
}

// SchedulerConfig controls the orphaned-job recovery sweep
type SchedulerConfig struct {
	Enabled          bool   `toml:"enabled"`
	RecoverySchedule string `toml:"recovery_schedule"` // Cron expression
}

// NotifyConfig controls outcome notification throttling
type NotifyConfig struct {
	RateLimit string `toml:"rate_limit"` // Minimum interval between notifications
	Burst     int    `toml:"burst"`
}

// NewDefaultConfig creates a configuration with default values.
// Only user-facing settings are exposed in precis.toml; engine constants
// (extraction thresholds, caps) are fixed in code.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8090,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		Library: LibraryConfig{
			BaseURL: "https://api.zotero.org",
			Timeout: "60s",
		},
		Claude: ClaudeConfig{
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   2048,
			Timeout:     "5m",
			Temperature: 0.3,
		},
		Gemini: GeminiConfig{
			Model:       "gemini-2.0-flash",
			Timeout:     "5m",
			Temperature: 0.3,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderClaude,
		},
		Summarize: SummarizeConfig{
			MaxInputChars:  100000,
			DefaultLength:  "standard",
			DefaultPublish: "note",
			NoteTag:        "precis-summary",
		},
		Scheduler: SchedulerConfig{
			Enabled:          true,
			RecoverySchedule: "@every 5m",
		},
		Notify: NotifyConfig{
			RateLimit: "10s",
			Burst:     3,
		},
	}
}

// LoadFromFiles loads configuration from defaults, then each file in order
// (later files override earlier ones), then environment variables.
func LoadFromFiles(logger arbor.ILogger, paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		if logger != nil {
			logger.Debug().Str("path", path).Msg("Configuration file loaded")
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks the configuration against its struct constraints
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// The selected provider must have an API key from config or env
	switch c.LLM.DefaultProvider {
	case LLMProviderClaude:
		if c.Claude.APIKey == "" && os.Getenv("ANTHROPIC_API_KEY") == "" {
			return fmt.Errorf("claude provider selected but no API key configured (set claude.api_key or ANTHROPIC_API_KEY)")
		}
	case LLMProviderGemini:
		if c.Gemini.APIKey == "" && os.Getenv("GEMINI_API_KEY") == "" {
			return fmt.Errorf("gemini provider selected but no API key configured (set gemini.api_key or GEMINI_API_KEY)")
		}
	}

	return nil
}

// applyEnvOverrides applies PRECIS_* environment variable overrides
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("PRECIS_ENVIRONMENT"); env != "" {
		config.Environment = env
	}

	// Server
	if port := os.Getenv("PRECIS_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("PRECIS_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage
	if badgerPath := os.Getenv("PRECIS_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging
	if level := os.Getenv("PRECIS_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("PRECIS_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("PRECIS_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Library
	if baseURL := os.Getenv("PRECIS_LIBRARY_BASE_URL"); baseURL != "" {
		config.Library.BaseURL = baseURL
	}
	if apiKey := os.Getenv("PRECIS_LIBRARY_API_KEY"); apiKey != "" {
		config.Library.APIKey = apiKey
	}
	if userID := os.Getenv("PRECIS_LIBRARY_USER_ID"); userID != "" {
		config.Library.UserID = userID
	}
	if timeout := os.Getenv("PRECIS_LIBRARY_TIMEOUT"); timeout != "" {
		config.Library.Timeout = timeout
	}

	// Claude
	if apiKey := os.Getenv("PRECIS_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	} else if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if model := os.Getenv("PRECIS_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if maxTokens := os.Getenv("PRECIS_CLAUDE_MAX_TOKENS"); maxTokens != "" {
		if mt, err := strconv.Atoi(maxTokens); err == nil {
			config.Claude.MaxTokens = mt
		}
	}
	if timeout := os.Getenv("PRECIS_CLAUDE_TIMEOUT"); timeout != "" {
		config.Claude.Timeout = timeout
	}

	// Gemini
	if apiKey := os.Getenv("PRECIS_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	} else if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("PRECIS_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
	if timeout := os.Getenv("PRECIS_GEMINI_TIMEOUT"); timeout != "" {
		config.Gemini.Timeout = timeout
	}

	// LLM provider selection
	if provider := os.Getenv("PRECIS_LLM_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}

	// Summarize
	if maxInput := os.Getenv("PRECIS_SUMMARIZE_MAX_INPUT_CHARS"); maxInput != "" {
		if mi, err := strconv.Atoi(maxInput); err == nil {
			config.Summarize.MaxInputChars = mi
		}
	}
	if length := os.Getenv("PRECIS_SUMMARIZE_DEFAULT_LENGTH"); length != "" {
		config.Summarize.DefaultLength = length
	}
	if publish := os.Getenv("PRECIS_SUMMARIZE_DEFAULT_PUBLISH"); publish != "" {
		config.Summarize.DefaultPublish = publish
	}

	// Scheduler
	if enabled := os.Getenv("PRECIS_SCHEDULER_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Scheduler.Enabled = e
		}
	}
	if schedule := os.Getenv("PRECIS_SCHEDULER_RECOVERY_SCHEDULE"); schedule != "" {
		config.Scheduler.RecoverySchedule = schedule
	}

	// Notify
	if rateLimit := os.Getenv("PRECIS_NOTIFY_RATE_LIMIT"); rateLimit != "" {
		config.Notify.RateLimit = rateLimit
	}
}
