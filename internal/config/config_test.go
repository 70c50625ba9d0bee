package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		App:       AppConfig{Env: "local", Port: 8000, LocalBaseURL: "http://localhost:8000"},
		DB:        DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "outreach"},
		Redis:     RedisConfig{Host: "localhost", Port: 6379},
		Auth:      AuthConfig{JWTSecret: "secret"},
		Scheduler: SchedulerConfig{Timezone: "Asia/Muscat", CallStartHour: 8, MorningNotifyHour: 7, MorningNotifyMinute: 55},
		Calls:     CallsConfig{BatchLimit: 20, PreviewLimit: 50, EnrichMode: EnrichModeInline},
		Directory: DirectoryConfig{CountryPrefix: "+968"},
	}
}

func TestLoad_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_ProductionRequiresSSLModeAndPublicURL(t *testing.T) {
	c := validConfig()
	c.App.Env = "production"
	err := c.Validate()
	if err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
	if !strings.Contains(err.Error(), "DB_SSLMODE") || !strings.Contains(err.Error(), "PUBLIC_BASE_URL") {
		t.Fatalf("expected both errors aggregated, got %v", err)
	}
}

func TestValidate_LocalDefaults(t *testing.T) {
	c := validConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
	if c.Auth.AccessTokenTTL != 12*time.Hour {
		t.Fatalf("expected default access ttl, got %s", c.Auth.AccessTokenTTL)
	}
}

func TestValidate_RejectsBadScheduleAndMode(t *testing.T) {
	c := validConfig()
	c.Scheduler.CallStartHour = 24
	c.Scheduler.Timezone = "Mars/Olympus"
	c.Calls.EnrichMode = "kafka"
	err := c.Validate()
	if err == nil {
		t.Fatalf("expected error")
	}
	for _, want := range []string{"CALL_START_HOUR", "OMAN_TIMEZONE", "ENRICH_MODE"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %s in %v", want, err)
		}
	}
}

func TestValidate_TelegramTokenNeedsChat(t *testing.T) {
	c := validConfig()
	c.Telegram.BotToken = "123:abc"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for token without chat id")
	}
}

func TestBaseURL_PrefersPublic(t *testing.T) {
	c := validConfig()
	if got := c.BaseURL(); got != "http://localhost:8000" {
		t.Fatalf("unexpected local base url %q", got)
	}
	c.App.PublicBaseURL = "https://agent.example.com/"
	if got := c.BaseURL(); got != "https://agent.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", got)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "agent")
	t.Setenv("DB_NAME", "outreach")
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("CALL_BATCH_LIMIT", "5")
	t.Setenv("ENRICH_MODE", " Queue ")
	t.Setenv("RECORDING_MATCH_WINDOW", "6h")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Calls.BatchLimit != 5 {
		t.Fatalf("expected batch limit 5, got %d", c.Calls.BatchLimit)
	}
	if c.Calls.EnrichMode != EnrichModeQueue {
		t.Fatalf("expected queue mode, got %q", c.Calls.EnrichMode)
	}
	if c.Calls.RecordingMatchWindow != 6*time.Hour {
		t.Fatalf("expected 6h window, got %s", c.Calls.RecordingMatchWindow)
	}
	if c.Scheduler.Timezone != "Asia/Muscat" || c.Scheduler.CallStartHour != 8 {
		t.Fatalf("expected schedule defaults, got %+v", c.Scheduler)
	}
	if c.RedisAddr() != "redis:6379" {
		t.Fatalf("unexpected redis addr %q", c.RedisAddr())
	}
}
