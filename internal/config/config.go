package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"ContentGenerator/internal/domain"
)

const (
	defaultTimezone = "UTC"
	configPathEnv   = "CONTENTGEN_CONFIG"

	databaseDSNEnv      = "DATABASE_DSN"
	redisAddrEnv        = "REDIS_ADDR"
	redisPasswordEnv    = "REDIS_PASSWORD"
	aiProviderEnv       = "AI_PROVIDER"
	aiEndpointEnv       = "AI_ENDPOINT"
	aiModelEnv          = "AI_MODEL"
	aiAPIKeyEnv         = "AI_API_KEY"
	schedulerEnabledEnv = "SCHEDULER_ENABLED"
	telegramTokenEnv    = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv   = "TELEGRAM_CHAT_ID"
	httpAddrEnv         = "HTTP_ADDR"
	logLevelEnv         = "LOG_LEVEL"

	// MemoryDSN selects the in-process store instead of Postgres.
	MemoryDSN = "memory://"
)

// AI providers understood by the llm factory.
const (
	ProviderOpenAICompatible = "openai-compatible"
	ProviderOpenAI           = "openai"
	ProviderAnthropic        = "anthropic"
	ProviderGateway          = "gateway"
)

// Config is the full contentgen configuration.
type Config struct {
	Database      DatabaseConfig     `yaml:"database"`
	Redis         RedisConfig        `yaml:"redis"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Pipeline      PipelineConfig     `yaml:"pipeline"`
	AI            AIConfig           `yaml:"ai"`
	Publisher     PublisherConfig    `yaml:"publisher"`
	Prompts       PromptConfig       `yaml:"prompts"`
	Notifications NotificationConfig `yaml:"notifications"`
	HTTP          HTTPConfig         `yaml:"http"`
	Logging       LoggingConfig      `yaml:"logging"`
}

// DatabaseConfig selects the store. MemoryDSN keeps everything in process.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
	MigrateOnStart  bool          `yaml:"migrateOnStart"`
}

// InMemory reports whether the DSN selects the in-process store.
func (d DatabaseConfig) InMemory() bool {
	return d.DSN == "" || strings.HasPrefix(d.DSN, MemoryDSN)
}

// RedisConfig enables the cross-instance run lock when Addr is set.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	LockKey  string        `yaml:"lockKey"`
	LockTTL  time.Duration `yaml:"lockTTL"`
}

// SchedulerConfig binds runs to a cron expression.
type SchedulerConfig struct {
	Enabled        bool           `yaml:"enabled"`
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location is the bound timezone, UTC before Load.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	return time.UTC
}

// PipelineConfig tunes populate and batch processing.
type PipelineConfig struct {
	BatchSize           int           `yaml:"batchSize"`
	AutoPopulate        bool          `yaml:"autoPopulate"`
	PopulateMaxPriority int           `yaml:"populateMaxPriority"`
	ContentTypes        []string      `yaml:"contentTypes"`
	StaleAfter          time.Duration `yaml:"staleAfter"`
}

// Types parses ContentTypes; an empty list means every type.
func (p PipelineConfig) Types() ([]domain.ContentType, error) {
	return domain.ParseContentTypes(p.ContentTypes)
}

// AIConfig defines how to contact the completion service.
type AIConfig struct {
	Provider          string        `yaml:"provider"`
	Endpoint          string        `yaml:"endpoint"`
	Model             string        `yaml:"model"`
	APIKey            string        `yaml:"apiKey"`
	SystemPrompt      string        `yaml:"systemPrompt"`
	Timeout           time.Duration `yaml:"timeout"`
	MaxTokens         int           `yaml:"maxTokens"`
	RequestsPerMinute int           `yaml:"requestsPerMinute"`
}

// PublisherConfig selects the status new pages are written with.
type PublisherConfig struct {
	Status string `yaml:"status"`
}

// PageStatus returns the configured status as a domain value.
func (p PublisherConfig) PageStatus() domain.PageStatus {
	return domain.PageStatus(p.Status)
}

// PromptConfig overrides the built-in prompt template per content type.
type PromptConfig struct {
	Location string `yaml:"location"`
	Industry string `yaml:"industry"`
	Combo    string `yaml:"combo"`
}

// Overrides returns the non-empty templates keyed by content type.
func (p PromptConfig) Overrides() map[domain.ContentType]string {
	out := map[domain.ContentType]string{}
	for ct, text := range map[domain.ContentType]string{
		domain.ContentLocation: p.Location,
		domain.ContentIndustry: p.Industry,
		domain.ContentCombo:    p.Combo,
	} {
		if strings.TrimSpace(text) != "" {
			out[ct] = text
		}
	}
	return out
}

// NotificationConfig lists run-report channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig is the bot used for run reports. BaseURL is for tests.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
	BaseURL  string `yaml:"baseUrl"`
}

// Enabled reports whether both token and chat are configured.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// HTTPConfig configures the operator API.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig selects the level and an optional JSON log file.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Load reads YAML configuration (if present) over the defaults and applies
// environment overrides. An empty path falls back to CONTENTGEN_CONFIG.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		// Decoding onto the defaults keeps every key the file omits.
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	var errs []error
	if err := cfg.applyEnvOverrides(); err != nil {
		errs = append(errs, err)
	}
	if err := cfg.resolveTimezone(); err != nil {
		errs = append(errs, err)
	}
	if err := cfg.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Pipeline.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("pipeline.batchSize must be positive, got %d", c.Pipeline.BatchSize))
	}
	if p := c.Pipeline.PopulateMaxPriority; p < domain.MinPriority || p > domain.MaxPriority {
		errs = append(errs, fmt.Errorf("pipeline.populateMaxPriority must be within %d..%d, got %d", domain.MinPriority, domain.MaxPriority, p))
	}
	if _, err := c.Pipeline.Types(); err != nil {
		errs = append(errs, fmt.Errorf("pipeline.contentTypes: %w", err))
	}
	if c.Pipeline.StaleAfter < 0 {
		errs = append(errs, errors.New("pipeline.staleAfter must not be negative"))
	}
	if c.Scheduler.Enabled && strings.TrimSpace(c.Scheduler.CronExpression) == "" {
		errs = append(errs, errors.New("scheduler.cronExpression is required when the scheduler is enabled"))
	}
	switch c.AI.Provider {
	case ProviderOpenAICompatible, ProviderOpenAI, ProviderAnthropic, ProviderGateway:
	default:
		errs = append(errs, fmt.Errorf("ai.provider %q is not supported", c.AI.Provider))
	}
	if c.AI.Timeout <= 0 {
		errs = append(errs, errors.New("ai.timeout must be positive"))
	}
	switch c.Publisher.PageStatus() {
	case domain.PageDraft, domain.PagePublished:
	default:
		errs = append(errs, fmt.Errorf("publisher.status %q must be draft or published", c.Publisher.Status))
	}
	return errors.Join(errs...)
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(redisAddrEnv); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv(redisPasswordEnv); v != "" {
		c.Redis.Password = v
	}

	if v := os.Getenv(aiProviderEnv); v != "" {
		c.AI.Provider = v
	}
	if v := os.Getenv(aiEndpointEnv); v != "" {
		c.AI.Endpoint = v
	}
	if v := os.Getenv(aiModelEnv); v != "" {
		c.AI.Model = v
	}
	if v := os.Getenv(aiAPIKeyEnv); v != "" {
		c.AI.APIKey = v
	}

	if v := os.Getenv(schedulerEnabledEnv); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s=%q: %w", schedulerEnabledEnv, v, err)
		}
		c.Scheduler.Enabled = enabled
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(httpAddrEnv); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	return nil
}

func (c *Config) resolveTimezone() error {
	name := strings.TrimSpace(c.Scheduler.Timezone)
	if name == "" {
		name = defaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fmt.Errorf("scheduler.timezone %q: %w", name, err)
	}
	c.Scheduler.location = loc
	return nil
}

// Default returns the built-in configuration.
func Default() Config {
	cfg := defaultConfig()
	cfg.Scheduler.location = time.UTC
	return cfg
}

func defaultConfig() Config {
	return Config{
		Database: DatabaseConfig{
			DSN:             MemoryDSN,
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Redis: RedisConfig{LockKey: "contentgen:run-lock", LockTTL: 2 * time.Hour},
		Scheduler: SchedulerConfig{
			Enabled:        true,
			CronExpression: "0 */6 * * *",
			Timezone:       defaultTimezone,
		},
		Pipeline: PipelineConfig{
			BatchSize:           10,
			AutoPopulate:        true,
			PopulateMaxPriority: 3,
			StaleAfter:          30 * time.Minute,
		},
		AI: AIConfig{
			Provider:     ProviderOpenAICompatible,
			Endpoint:     "https://api.openai.com/v1/chat/completions",
			Model:        "gpt-4o-mini",
			SystemPrompt: "You write landing page copy and answer with one JSON object.",
			Timeout:      60 * time.Second,
			MaxTokens:    2048,
		},
		Publisher: PublisherConfig{Status: string(domain.PagePublished)},
		HTTP:      HTTPConfig{Addr: ":8080"},
		Logging:   LoggingConfig{Level: "info"},
	}
}
