package config

import (
	"strings"
	"testing"
	"time"
)

func validLocal() Config {
	return Config{
		App:   AppConfig{Env: "local", Port: 8080},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "callbooker"},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Auth:  AuthConfig{JWTSecret: "secret"},
		Links: LinksConfig{SigningSecret: "link-secret"},
	}
}

func TestLoad_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_ProductionRequiresSSLModeAndCalendarToken(t *testing.T) {
	c := validLocal()
	c.App.Env = "production"
	c.Auth.JWTIssuer = "callbooker"
	c.Auth.JWTAudience = "tc2"

	err := c.Validate()
	if err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
	if !strings.Contains(err.Error(), "DB_SSLMODE") || !strings.Contains(err.Error(), "CALENDAR_API_TOKEN") {
		t.Fatalf("expected both errors aggregated, got %v", err)
	}
}

func TestValidate_LocalDefaults(t *testing.T) {
	c := validLocal()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
	if c.Links.SupportTTL != 7*24*time.Hour {
		t.Fatalf("expected 7 day link ttl, got %v", c.Links.SupportTTL)
	}
	if c.Calendar.BaseURL != defaultCalendarBaseURL {
		t.Fatalf("expected default calendar url, got %q", c.Calendar.BaseURL)
	}
	if c.Jobs.MirrorMaxAttempts != 10 {
		t.Fatalf("expected 10 mirror attempts, got %d", c.Jobs.MirrorMaxAttempts)
	}
	if !c.UsesCalendarStub() {
		t.Fatalf("expected local env without token to use calendar stub")
	}
}

func TestValidate_RejectsSharedSecrets(t *testing.T) {
	c := validLocal()
	c.Links.SigningSecret = c.Auth.JWTSecret
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error when link and jwt secrets match")
	}
}

func TestParseFeeds(t *testing.T) {
	feeds, err := parseFeeds(" Ann@Example.com=https://cal/ann.ics , bob@example.com=https://cal/bob.ics")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if feeds["ann@example.com"] != "https://cal/ann.ics" || len(feeds) != 2 {
		t.Fatalf("unexpected feeds: %v", feeds)
	}
	if _, err := parseFeeds("no-separator"); err == nil {
		t.Fatalf("expected error for malformed entry")
	}
}
