package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone   = "UTC"
	configPathEnv     = "NEWS_CLASSIFIER_CONFIG"
	modelEndpointEnv  = "MODEL_ENDPOINT"
	modelNameEnv      = "MODEL_NAME"
	modelAPIKeyEnv    = "MODEL_API_KEY"
	modelProviderEnv  = "MODEL_PROVIDER"
	inputPathEnv      = "INPUT_CSV"
	outputPathEnv     = "OUTPUT_CSV"
	workersEnv        = "BATCH_WORKERS"
	databaseDSNEnv    = "DATABASE_DSN"
	redisURLEnv       = "REDIS_URL"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	logLevelEnv       = "LOG_LEVEL"
	logFormatEnv      = "LOG_FORMAT"
	sentimentEnv      = "ANALYZE_SENTIMENT"
)

// ErrInvalid marks configuration that cannot drive a batch run.
var ErrInvalid = errors.New("invalid configuration")

// Config holds high-level settings required across the application.
type Config struct {
	Model         ModelConfig        `yaml:"model"`
	Batch         BatchConfig        `yaml:"batch"`
	Analysis      AnalysisConfig     `yaml:"analysis"`
	Input         InputConfig        `yaml:"input"`
	Output        OutputConfig       `yaml:"output"`
	Sources       []SourceConfig     `yaml:"sources"`
	Database      DatabaseConfig     `yaml:"database"`
	Cache         CacheConfig        `yaml:"cache"`
	Notifications NotificationConfig `yaml:"notifications"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Logging       LoggingConfig      `yaml:"logging"`
}

// ModelConfig describes the text-generation endpoint and how to call it.
type ModelConfig struct {
	Provider       string        `yaml:"provider"`
	Endpoint       string        `yaml:"endpoint"`
	Model          string        `yaml:"model"`
	APIKey         string        `yaml:"apiKey"`
	Temperature    float64       `yaml:"temperature"`
	TopP           float64       `yaml:"topP"`
	MaxTokens      int           `yaml:"maxTokens"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
	MaxAttempts    int           `yaml:"maxAttempts"`
	RetryDelay     time.Duration `yaml:"retryDelay"`
	RetryBackoff   string        `yaml:"retryBackoff"`
}

// BatchConfig controls the orchestrator. Size is a chunking hint for callers.
type BatchConfig struct {
	Size            int           `yaml:"size"`
	MinCallInterval time.Duration `yaml:"minCallInterval"`
	Workers         int           `yaml:"workers"`
}

// AnalysisConfig toggles model calls made in addition to the category prompt.
type AnalysisConfig struct {
	Sentiment bool `yaml:"sentiment"`
}

// InputConfig points at the CSV file read by the run command.
type InputConfig struct {
	Path       string `yaml:"path"`
	DateFormat string `yaml:"dateFormat"`
}

// OutputConfig points at the CSV file results are written to.
type OutputConfig struct {
	Path string `yaml:"path"`
}

// SourceConfig describes a single input with its scanner strategy.
type SourceConfig struct {
	Name     string            `yaml:"name"`
	Scanner  string            `yaml:"scanner"`
	Location string            `yaml:"location"`
	Options  map[string]string `yaml:"options"`
}

// DatabaseConfig describes Postgres connection details. Empty DSN disables persistence.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// CacheConfig enables reuse of model answers through Redis.
type CacheConfig struct {
	RedisURL string        `yaml:"redisUrl"`
	TTL      time.Duration `yaml:"ttl"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// SchedulerConfig defines how often watch mode runs a batch.
type SchedulerConfig struct {
	Interval time.Duration  `yaml:"interval"`
	Timezone string         `yaml:"timezone"`
	location *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// LoggingConfig sets the slog level and handler format (text or json).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			fileCfg, err := Parse(raw)
			if err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = fileCfg
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

// Parse decodes a YAML document over the defaults. Keys present in the document
// win even when they hold a zero value; absent keys keep their default.
func Parse(raw []byte) (Config, error) {
	cfg := defaultConfig()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values that would make a batch run meaningless.
func (c Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.Model.Endpoint) == "" {
		problems = append(problems, "model.endpoint is empty")
	}
	if strings.TrimSpace(c.Model.Model) == "" {
		problems = append(problems, "model.model is empty")
	}
	switch c.Model.Provider {
	case "ollama", "openai":
	default:
		problems = append(problems, fmt.Sprintf("model.provider %q is not supported", c.Model.Provider))
	}
	switch c.Model.RetryBackoff {
	case "constant", "exponential":
	default:
		problems = append(problems, fmt.Sprintf("model.retryBackoff %q is not supported", c.Model.RetryBackoff))
	}
	if c.Model.MaxAttempts < 1 {
		problems = append(problems, "model.maxAttempts must be at least 1")
	}
	if c.Model.RetryDelay < 0 {
		problems = append(problems, "model.retryDelay must not be negative")
	}
	if c.Model.MaxTokens < 0 {
		problems = append(problems, "model.maxTokens must not be negative")
	}
	if c.Model.RequestTimeout <= 0 {
		problems = append(problems, "model.requestTimeout must be positive")
	}
	if c.Batch.MinCallInterval < 0 {
		problems = append(problems, "batch.minCallInterval must not be negative")
	}
	if c.Batch.Workers < 1 {
		problems = append(problems, "batch.workers must be at least 1")
	}
	if c.Batch.Size < 0 {
		problems = append(problems, "batch.size must not be negative")
	}
	if c.Scheduler.Interval <= 0 {
		problems = append(problems, "scheduler.interval must be positive")
	}
	for i, src := range c.Sources {
		if src.Scanner == "" || src.Location == "" {
			problems = append(problems, fmt.Sprintf("sources[%d] needs scanner and location", i))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(modelProviderEnv); v != "" {
		c.Model.Provider = v
	}
	if v := os.Getenv(modelEndpointEnv); v != "" {
		c.Model.Endpoint = v
	}
	if v := os.Getenv(modelNameEnv); v != "" {
		c.Model.Model = v
	}
	if v := os.Getenv(modelAPIKeyEnv); v != "" {
		c.Model.APIKey = v
	}
	if v := os.Getenv(inputPathEnv); v != "" {
		c.Input.Path = v
	}
	if v := os.Getenv(outputPathEnv); v != "" {
		c.Output.Path = v
	}
	if v := os.Getenv(workersEnv); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Batch.Workers = n
		}
	}
	if v := os.Getenv(sentimentEnv); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.Analysis.Sentiment = enabled
		}
	}
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(redisURLEnv); v != "" {
		c.Cache.RedisURL = v
	}
	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(logFormatEnv); v != "" {
		c.Logging.Format = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Model: ModelConfig{
			Provider:       "ollama",
			Endpoint:       "http://localhost:11434/api/generate",
			Model:          "llama2",
			Temperature:    0.1,
			TopP:           0.9,
			MaxTokens:      2048,
			RequestTimeout: 60 * time.Second,
			MaxAttempts:    3,
			RetryDelay:     2 * time.Second,
			RetryBackoff:   "constant",
		},
		Batch: BatchConfig{
			Size:            10,
			MinCallInterval: time.Second,
			Workers:         1,
		},
		Input:     InputConfig{Path: "data/news_articles.csv", DateFormat: "2006-01-02"},
		Output:    OutputConfig{Path: "data/processed_articles.csv"},
		Cache:     CacheConfig{TTL: 24 * time.Hour},
		Scheduler: SchedulerConfig{Interval: time.Hour, Timezone: defaultTimezone, location: tz},
		Logging:   LoggingConfig{Level: "info", Format: "text"},
	}
}
