package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "server:\n  host: 0.0.0.0\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Delivery.AnchorHour != 6 {
		t.Errorf("Delivery.AnchorHour = %d, want 6", cfg.Delivery.AnchorHour)
	}
	if cfg.Delivery.FromEmail != "hi@dailyhi.com" {
		t.Errorf("Delivery.FromEmail = %q, want hi@dailyhi.com", cfg.Delivery.FromEmail)
	}
	if cfg.SES.Region != "us-west-2" {
		t.Errorf("SES.Region = %q, want us-west-2", cfg.SES.Region)
	}
}

func TestLoadParsesSections(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
database:
  url: postgres://localhost/dailyhi
delivery:
  hostname: dailyhi.com
  anchor_hour: 7
content:
  facts_path: facts.txt
  weekly_facts_path: chuck.txt
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Database.URL != "postgres://localhost/dailyhi" {
		t.Errorf("Database.URL = %q", cfg.Database.URL)
	}
	if cfg.Delivery.Hostname != "dailyhi.com" {
		t.Errorf("Delivery.Hostname = %q", cfg.Delivery.Hostname)
	}
	if cfg.Delivery.AnchorHour != 7 {
		t.Errorf("Delivery.AnchorHour = %d, want 7", cfg.Delivery.AnchorHour)
	}
	if cfg.Content.WeeklyFactsPath != "chuck.txt" {
		t.Errorf("Content.WeeklyFactsPath = %q", cfg.Content.WeeklyFactsPath)
	}
}

func TestLoadFromEnvOverrides(t *testing.T) {
	path := writeConfig(t, "database:\n  url: postgres://file/db\n")

	t.Setenv("DATABASE_URL", "postgres://env/db")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("PORT", "3000")

	cfg, err := LoadFromEnv(path)
	if err != nil {
		t.Fatalf("LoadFromEnv() error: %v", err)
	}

	if cfg.Database.URL != "postgres://env/db" {
		t.Errorf("Database.URL = %q, env override lost", cfg.Database.URL)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("Redis.Addr = %q", cfg.Redis.Addr)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want 3000", cfg.Server.Port)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() on missing file should error")
	}
}
