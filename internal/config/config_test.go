package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"SR_PORT", "SR_STORE", "SR_TAKEAWAY_TTL", "SR_DEV_MODE", "SR_ALTERNATIVES_LIMIT", "SR_MARKETS"} {
		t.Setenv(k, "")
	}

	c, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if c.Port != 8080 {
		t.Errorf("port = %d, want 8080", c.Port)
	}
	if c.Store != "sqlite" {
		t.Errorf("store = %q, want sqlite", c.Store)
	}
	if c.TakeawayTTL != 30*24*time.Hour {
		t.Errorf("ttl = %v, want 720h", c.TakeawayTTL)
	}
	if c.AlternativesLimit != 3 {
		t.Errorf("alternatives limit = %d, want 3", c.AlternativesLimit)
	}
	if c.DevMode {
		t.Error("dev mode should default to false")
	}
	if len(c.Markets) != 0 {
		t.Errorf("markets = %v, want none", c.Markets)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("SR_PORT", "9090")
	t.Setenv("SR_STORE", "Redis")
	t.Setenv("SR_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("SR_TAKEAWAY_TTL", "7d")
	t.Setenv("SR_DEV_MODE", "true")
	t.Setenv("SR_FEED_RATE", "0.5")
	t.Setenv("SR_MARKETS", "los-angeles-ca, ,austin-tx")

	c, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if c.Port != 9090 || c.Store != "redis" || !c.DevMode {
		t.Errorf("got %+v", c)
	}
	if c.TakeawayTTL != 7*24*time.Hour {
		t.Errorf("ttl = %v, want 168h", c.TakeawayTTL)
	}
	if c.FeedRate != 0.5 {
		t.Errorf("feed rate = %v, want 0.5", c.FeedRate)
	}
	if len(c.Markets) != 2 || c.Markets[1] != "austin-tx" {
		t.Errorf("markets = %v", c.Markets)
	}
}

func TestFromEnvErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown store", map[string]string{"SR_STORE": "mongo"}},
		{"redis without url", map[string]string{"SR_STORE": "redis", "SR_REDIS_URL": ""}},
		{"postgres without dsn", map[string]string{"SR_STORE": "postgres", "SR_POSTGRES_DSN": ""}},
		{"bad ttl", map[string]string{"SR_STORE": "memory", "SR_TAKEAWAY_TTL": "soon"}},
		{"negative ttl", map[string]string{"SR_STORE": "memory", "SR_TAKEAWAY_TTL": "-1h"}},
		{"bad port", map[string]string{"SR_STORE": "memory", "SR_TAKEAWAY_TTL": "", "SR_PORT": "70000"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := FromEnv(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("SR_FEED_URL=http://feed.local\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	t.Setenv("SR_FEED_URL", "")
	os.Unsetenv("SR_FEED_URL")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.FeedURL != "http://feed.local" {
		t.Errorf("feed url = %q, want http://feed.local", c.FeedURL)
	}
}
