package config

import "testing"

func validConfig() Config {
	return Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
		Embedding: EmbeddingConfig{
			APIKey: "test-key",
			Model:  "text-embedding-3-small",
		},
	}
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing database addrs")
	}
}

func TestValidate_MissingModel(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Model = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing embedding model")
	}
}

func TestValidate_DefaultLimitAboveMax(t *testing.T) {
	cfg := validConfig()
	cfg.Search.DefaultLimit = 50
	cfg.Search.MaxLimit = 10

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when default_limit exceeds max_limit")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := validConfig()
	cfg.ApplyDefaults()

	if cfg.Search.CategoryBoost != 0.1 {
		t.Errorf("category boost default: got %g, want 0.1", cfg.Search.CategoryBoost)
	}
	if cfg.Search.DefaultLimit != 2 {
		t.Errorf("default limit: got %d, want 2", cfg.Search.DefaultLimit)
	}
	if cfg.Embedding.Dimensions != 768 {
		t.Errorf("dimensions default: got %d, want 768", cfg.Embedding.Dimensions)
	}
	if cfg.Embedding.Workers <= 0 {
		t.Error("embedding workers default must be positive")
	}
	if cfg.Ingest.Group == "" || cfg.Ingest.Consumer == "" {
		t.Error("ingest group and consumer must default to non-empty values")
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("SEARCHD_TEST_KEY", "secret")

	out := string(expandEnvVars([]byte("api_key: ${SEARCHD_TEST_KEY}\nurl: ${SEARCHD_MISSING:-http://fallback}")))
	want := "api_key: secret\nurl: http://fallback"
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}
