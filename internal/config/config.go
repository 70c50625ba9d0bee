package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all configuration required by the agent process.
// Values come from the environment (optionally seeded from a .env file).
// No business logic should depend on raw environment variables.
type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Twilio    TwilioConfig
	Telegram  TelegramConfig
	AI        AIConfig
	Scheduler SchedulerConfig
	Calls     CallsConfig
	Directory DirectoryConfig
}

type AppConfig struct {
	Env         string `env:"APP_ENV"`
	Port        int    `env:"APP_PORT" envDefault:"8000"`
	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9090"`

	// PublicBaseURL is where the telephony provider reaches our webhooks.
	PublicBaseURL string `env:"PUBLIC_BASE_URL"`
	LocalBaseURL  string `env:"LOCAL_BASE_URL" envDefault:"http://localhost:8000"`
}

type DBConfig struct {
	Host     string `env:"DB_HOST"`
	Port     int    `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME"`

	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string `env:"DB_SSLMODE"`

	MigrateOnStart bool `env:"DB_MIGRATE_ON_START" envDefault:"true"`
}

type RedisConfig struct {
	Host     string `env:"REDIS_HOST"`
	Port     int    `env:"REDIS_PORT" envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type AuthConfig struct {
	JWTSecret      string        `env:"JWT_SECRET"`
	JWTIssuer      string        `env:"JWT_ISSUER"`
	JWTAudience    string        `env:"JWT_AUDIENCE"`
	AccessTokenTTL time.Duration `env:"JWT_ACCESS_TTL"`
}

type TwilioConfig struct {
	AccountSID string `env:"TWILIO_ACCOUNT_SID"`
	AuthToken  string `env:"TWILIO_AUTH_TOKEN"`
	FromNumber string `env:"TWILIO_FROM_NUMBER"`
	APIBaseURL string `env:"TWILIO_API_BASE_URL" envDefault:"https://api.twilio.com"`

	ValidateSignature bool `env:"TWILIO_VALIDATE_SIGNATURE" envDefault:"false"`
}

type TelegramConfig struct {
	BotToken string `env:"TELEGRAM_BOT_TOKEN"`
	ChatID   int64  `env:"TELEGRAM_CHAT_ID"`
}

type AIConfig struct {
	APIKey          string        `env:"OPENAI_API_KEY"`
	BaseURL         string        `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	TranscribeModel string        `env:"OPENAI_TRANSCRIBE_MODEL" envDefault:"whisper-1"`
	SummaryModel    string        `env:"OPENAI_SUMMARY_MODEL" envDefault:"gpt-4o-mini"`
	Timeout         time.Duration `env:"AI_TIMEOUT" envDefault:"60s"`
}

type SchedulerConfig struct {
	Enabled  bool   `env:"SCHEDULER_ENABLED" envDefault:"true"`
	Timezone string `env:"OMAN_TIMEZONE" envDefault:"Asia/Muscat"`

	CallStartHour       int `env:"CALL_START_HOUR" envDefault:"8"`
	MorningNotifyHour   int `env:"MORNING_NOTIFY_HOUR" envDefault:"7"`
	MorningNotifyMinute int `env:"MORNING_NOTIFY_MINUTE" envDefault:"55"`

	JobTimeout time.Duration `env:"SCHEDULER_JOB_TIMEOUT" envDefault:"30m"`
}

type CallsConfig struct {
	BatchLimit   int `env:"CALL_BATCH_LIMIT" envDefault:"20"`
	PreviewLimit int `env:"CALL_PREVIEW_LIMIT" envDefault:"50"`

	// EnrichMode selects how recordings are transcribed: inline or queue (asynq).
	EnrichMode string `env:"ENRICH_MODE" envDefault:"inline"`

	// RecordingMatchWindow bounds the "latest record for this phone" lookup. Zero is unbounded.
	RecordingMatchWindow time.Duration `env:"RECORDING_MATCH_WINDOW" envDefault:"0s"`

	DispatchLockTTL time.Duration `env:"DISPATCH_LOCK_TTL" envDefault:"2m"`
}

type DirectoryConfig struct {
	CountryPrefix string `env:"COUNTRY_PREFIX" envDefault:"+968"`
	File          string `env:"DIRECTORY_FILE"`
	IncludeSample bool   `env:"DIRECTORY_INCLUDE_SAMPLE" envDefault:"true"`
}

const (
	EnrichModeInline = "inline"
	EnrichModeQueue  = "queue"
)

// Load reads .env (when present) and the process environment, then validates.
func Load() (Config, error) {
	_ = godotenv.Load()

	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("env.Parse: %w", err)
	}
	trimAll(&c)

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks required fields and fills environment-dependent defaults.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}
	if c.IsProduction() && c.App.PublicBaseURL == "" {
		errs = append(errs, errors.New("PUBLIC_BASE_URL is required in production"))
	}

	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if c.DB.SSLMode == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			c.DB.SSLMode = "disable"
		}
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}

	if c.Redis.Host == "" {
		errs = append(errs, errors.New("REDIS_HOST is required"))
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Auth.AccessTokenTTL <= 0 {
		c.Auth.AccessTokenTTL = 12 * time.Hour
	}

	if c.Twilio.ValidateSignature && c.Twilio.AuthToken == "" {
		errs = append(errs, errors.New("TWILIO_VALIDATE_SIGNATURE requires TWILIO_AUTH_TOKEN"))
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == 0 {
		errs = append(errs, errors.New("TELEGRAM_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set"))
	}

	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("OMAN_TIMEZONE is not a valid location: %q", c.Scheduler.Timezone))
	}
	if c.Scheduler.CallStartHour < 0 || c.Scheduler.CallStartHour > 23 {
		errs = append(errs, fmt.Errorf("CALL_START_HOUR must be 0-23, got %d", c.Scheduler.CallStartHour))
	}
	if c.Scheduler.MorningNotifyHour < 0 || c.Scheduler.MorningNotifyHour > 23 {
		errs = append(errs, fmt.Errorf("MORNING_NOTIFY_HOUR must be 0-23, got %d", c.Scheduler.MorningNotifyHour))
	}
	if c.Scheduler.MorningNotifyMinute < 0 || c.Scheduler.MorningNotifyMinute > 59 {
		errs = append(errs, fmt.Errorf("MORNING_NOTIFY_MINUTE must be 0-59, got %d", c.Scheduler.MorningNotifyMinute))
	}

	if c.Calls.BatchLimit <= 0 {
		errs = append(errs, fmt.Errorf("CALL_BATCH_LIMIT must be > 0, got %d", c.Calls.BatchLimit))
	}
	if c.Calls.PreviewLimit <= 0 {
		errs = append(errs, fmt.Errorf("CALL_PREVIEW_LIMIT must be > 0, got %d", c.Calls.PreviewLimit))
	}
	switch c.Calls.EnrichMode {
	case EnrichModeInline, EnrichModeQueue:
	default:
		errs = append(errs, fmt.Errorf("ENRICH_MODE must be inline or queue, got %q", c.Calls.EnrichMode))
	}
	if c.Calls.RecordingMatchWindow < 0 {
		errs = append(errs, errors.New("RECORDING_MATCH_WINDOW must not be negative"))
	}

	if c.Directory.CountryPrefix == "" || !strings.HasPrefix(c.Directory.CountryPrefix, "+") {
		errs = append(errs, fmt.Errorf("COUNTRY_PREFIX must start with +, got %q", c.Directory.CountryPrefix))
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

// BaseURL is the externally reachable root used to build callback URLs.
func (c Config) BaseURL() string {
	if c.App.PublicBaseURL != "" {
		return strings.TrimRight(c.App.PublicBaseURL, "/")
	}
	return strings.TrimRight(c.App.LocalBaseURL, "/")
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// TwilioConfigured reports whether outbound calls can be placed.
func (c Config) TwilioConfigured() bool {
	return c.Twilio.AccountSID != "" && c.Twilio.AuthToken != ""
}

func trimAll(c *Config) {
	c.App.Env = strings.TrimSpace(c.App.Env)
	c.App.PublicBaseURL = strings.TrimSpace(c.App.PublicBaseURL)
	c.App.LocalBaseURL = strings.TrimSpace(c.App.LocalBaseURL)
	c.DB.Host = strings.TrimSpace(c.DB.Host)
	c.DB.User = strings.TrimSpace(c.DB.User)
	c.DB.Name = strings.TrimSpace(c.DB.Name)
	c.DB.SSLMode = strings.TrimSpace(c.DB.SSLMode)
	c.Redis.Host = strings.TrimSpace(c.Redis.Host)
	c.Auth.JWTIssuer = strings.TrimSpace(c.Auth.JWTIssuer)
	c.Auth.JWTAudience = strings.TrimSpace(c.Auth.JWTAudience)
	c.Twilio.AccountSID = strings.TrimSpace(c.Twilio.AccountSID)
	c.Twilio.FromNumber = strings.TrimSpace(c.Twilio.FromNumber)
	c.Scheduler.Timezone = strings.TrimSpace(c.Scheduler.Timezone)
	c.Calls.EnrichMode = strings.ToLower(strings.TrimSpace(c.Calls.EnrichMode))
	c.Directory.CountryPrefix = strings.TrimSpace(c.Directory.CountryPrefix)
	c.Directory.File = strings.TrimSpace(c.Directory.File)
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
