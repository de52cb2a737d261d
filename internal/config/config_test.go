package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(ConfigPathEnv, "")
	t.Setenv("TOP_N", "")
	t.Setenv("CHUNK_SIZE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TopN != 25 {
		t.Errorf("expected top N 25, got %d", cfg.TopN)
	}
	if cfg.ChunkSize != 512 {
		t.Errorf("expected chunk size 512, got %d", cfg.ChunkSize)
	}
	if cfg.DedupeThreshold != 95 {
		t.Errorf("expected threshold 95, got %d", cfg.DedupeThreshold)
	}
	if cfg.StripPunctuation {
		t.Error("expected punctuation stripping off by default")
	}
	if got := cfg.ReportPath(); got != filepath.Join(cfg.DataDir, "top_topics.csv") {
		t.Errorf("unexpected report path %q", got)
	}
}

func TestLoadYAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bulletinlens.yaml")
	raw := strings.Join([]string{
		"topN: 10",
		"chunkSize: 256",
		"runTtl: 30m",
		"excludedTopics: [alpha, beta]",
		"relevantTags: [NN]",
	}, "\n")
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnv, path)
	t.Setenv("TOP_N", "7")
	t.Setenv("CHUNK_SIZE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TopN != 7 {
		t.Errorf("expected env to win with 7, got %d", cfg.TopN)
	}
	if cfg.ChunkSize != 256 {
		t.Errorf("expected YAML chunk size 256, got %d", cfg.ChunkSize)
	}
	if cfg.RunTTL != 30*time.Minute {
		t.Errorf("expected run TTL 30m, got %s", cfg.RunTTL)
	}
	if len(cfg.ExcludedTopics) != 2 || cfg.ExcludedTopics[1] != "beta" {
		t.Errorf("unexpected excluded topics %v", cfg.ExcludedTopics)
	}
	if len(cfg.RelevantTags) != 1 || cfg.RelevantTags[0] != "NN" {
		t.Errorf("unexpected relevant tags %v", cfg.RelevantTags)
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("topN: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnv, path)
	if _, err := Load(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadMissingYAML(t *testing.T) {
	t.Setenv(ConfigPathEnv, filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected read error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"postgres", func(c *Config) { c.DBDriver = "postgres"; c.DBDSN = "postgres://localhost/db" }, false},
		{"no inference url", func(c *Config) { c.InferenceURL = "" }, true},
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }, true},
		{"empty dsn", func(c *Config) { c.DBDSN = "" }, true},
		{"zero chunk", func(c *Config) { c.ChunkSize = 0 }, true},
		{"threshold high", func(c *Config) { c.DedupeThreshold = 101 }, true},
		{"threshold low", func(c *Config) { c.DedupeThreshold = -1 }, true},
		{"threshold edge", func(c *Config) { c.DedupeThreshold = 100 }, false},
		{"zero top n", func(c *Config) { c.TopN = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
