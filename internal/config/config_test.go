package config_test

import (
	"testing"

	"github.com/coursemind/coursemind/internal/config"
)

func validConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.AnthropicAPIKey = "test-key"
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := validConfig(t)

	if cfg.MaxResults != config.DefaultMaxResults {
		t.Errorf("MaxResults = %d, want %d", cfg.MaxResults, config.DefaultMaxResults)
	}
	if cfg.MaxRounds != 2 {
		t.Errorf("MaxRounds = %d, want 2", cfg.MaxRounds)
	}
	if cfg.ChunkIndex == "" || cfg.CatalogIndex == "" {
		t.Error("index names should have defaults")
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	cfg := validConfig(t)
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

// A zero result limit empties every search while looking exactly like
// "no matches". It must be rejected at startup, never tolerated.
func TestValidateRejectsZeroMaxResults(t *testing.T) {
	cfg := validConfig(t)
	cfg.MaxResults = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("MaxResults=0 must fail validation")
	}

	cfg.MaxResults = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("negative MaxResults must fail validation")
	}
}

func TestValidateRejectsZeroMaxRounds(t *testing.T) {
	cfg := validConfig(t)
	cfg.MaxRounds = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("MaxRounds=0 must fail validation")
	}
}

func TestValidateRequiresAPIKey(t *testing.T) {
	cfg := validConfig(t)
	cfg.AnthropicAPIKey = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("missing Anthropic API key must fail validation")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("COURSEMIND_PORT", "9001")
	t.Setenv("COURSEMIND_MAX_RESULTS", "7")
	t.Setenv("COURSEMIND_CHUNK_INDEX", "my-chunks")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9001 {
		t.Errorf("Port = %d, want 9001", cfg.Port)
	}
	if cfg.MaxResults != 7 {
		t.Errorf("MaxResults = %d, want 7", cfg.MaxResults)
	}
	if cfg.ChunkIndex != "my-chunks" {
		t.Errorf("ChunkIndex = %q, want my-chunks", cfg.ChunkIndex)
	}
}
