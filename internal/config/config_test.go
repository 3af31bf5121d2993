package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// chdir switches the working directory for the test's duration; it stands in
// for t.Chdir, which needs Go 1.24+.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}

func validConfig() Config {
	cfg := Config{}
	cfg.Qdrant.URL = "http://localhost:6333"
	cfg.Embedding.Providers = map[string]ProviderConfig{
		"voyage": {APIKey: "test-key"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := validConfig()

	if cfg.HTTP.Host != "0.0.0.0" {
		t.Errorf("expected Host=0.0.0.0, got %q", cfg.HTTP.Host)
	}
	if cfg.HTTP.Port != 8080 {
		t.Errorf("expected Port=8080, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.WriteTimeoutSec != 120 {
		t.Errorf("expected WriteTimeoutSec=120, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Embedding.Provider != "voyage" {
		t.Errorf("expected provider=voyage, got %q", cfg.Embedding.Provider)
	}
	if got := cfg.Embedding.Providers["voyage"].Model; got != "voyage-3-large" {
		t.Errorf("expected voyage model=voyage-3-large, got %q", got)
	}
	if got := cfg.Embedding.Providers["voyage"].Dimensions; got != 1024 {
		t.Errorf("expected voyage dimensions=1024, got %d", got)
	}
	if got := cfg.Embedding.Providers["openai"].Dimensions; got != 1536 {
		t.Errorf("expected openai dimensions=1536, got %d", got)
	}
	if cfg.Search.Collection != "labor_consultant_docs" {
		t.Errorf("expected collection=labor_consultant_docs, got %q", cfg.Search.Collection)
	}
	if cfg.Search.ScoreThreshold != 0.3 {
		t.Errorf("expected ScoreThreshold=0.3, got %v", cfg.Search.ScoreThreshold)
	}
	if cfg.Search.DefaultTopK != 5 {
		t.Errorf("expected DefaultTopK=5, got %d", cfg.Search.DefaultTopK)
	}
	if cfg.Search.MaxTopK != 20 {
		t.Errorf("expected MaxTopK=20, got %d", cfg.Search.MaxTopK)
	}
	if cfg.Search.OversampleFactor != 3 {
		t.Errorf("expected OversampleFactor=3, got %v", cfg.Search.OversampleFactor)
	}
	if cfg.Cache.Disabled {
		t.Error("expected cache enabled by default")
	}
	if cfg.Cache.TTLSec != 300 {
		t.Errorf("expected TTLSec=300, got %d", cfg.Cache.TTLSec)
	}
	if cfg.Cache.MaxEntries != 100 {
		t.Errorf("expected MaxEntries=100, got %d", cfg.Cache.MaxEntries)
	}
	if cfg.Ingest.ChunkSize != 1000 {
		t.Errorf("expected ChunkSize=1000, got %d", cfg.Ingest.ChunkSize)
	}
	if cfg.Ingest.ChunkOverlap != 200 {
		t.Errorf("expected ChunkOverlap=200, got %d", cfg.Ingest.ChunkOverlap)
	}
	if cfg.Ingest.BatchSize != 100 {
		t.Errorf("expected BatchSize=100, got %d", cfg.Ingest.BatchSize)
	}
	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("expected Model=gpt-4o-mini, got %q", cfg.LLM.Model)
	}
	if cfg.LLM.Temperature != 0.7 {
		t.Errorf("expected Temperature=0.7, got %v", cfg.LLM.Temperature)
	}
	if cfg.LLM.MaxTokens != 2000 {
		t.Errorf("expected MaxTokens=2000, got %d", cfg.LLM.MaxTokens)
	}
	if cfg.LLM.MaxHistory != 6 {
		t.Errorf("expected MaxHistory=6, got %d", cfg.LLM.MaxHistory)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{}
	cfg.HTTP = HTTPConfig{Port: 9000, ReadTimeoutSec: 5, WriteTimeoutSec: 60, ShutdownSec: 5}
	cfg.Search.OversampleFactor = 1 // oversampling off
	cfg.Search.ScoreThreshold = 0.55
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 9000 {
		t.Errorf("expected Port=9000, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Search.OversampleFactor != 1 {
		t.Errorf("expected OversampleFactor=1, got %v", cfg.Search.OversampleFactor)
	}
	if cfg.Search.ScoreThreshold != 0.55 {
		t.Errorf("expected ScoreThreshold=0.55, got %v", cfg.Search.ScoreThreshold)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 70000

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid port")
	}

	expected := "http.port must be between 1 and 65535, got 70000"
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_MissingQdrantURL(t *testing.T) {
	cfg := validConfig()
	cfg.Qdrant.URL = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing qdrant url")
	}
}

func TestValidate_UnknownProvider(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Provider = "cohere"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}

	expected := `embedding.provider must be "voyage" or "openai", got "cohere"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_MissingProviderKey(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Provider = "openai" // only voyage carries a key in validConfig

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing provider key")
	}
	if !strings.Contains(err.Error(), "embedding.providers.openai.api_key is required") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestValidate_ThresholdRange(t *testing.T) {
	cfg := validConfig()
	cfg.Search.ScoreThreshold = 1.2

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for out-of-range threshold")
	}
	if !strings.Contains(err.Error(), "search.score_threshold must be between 0 and 1") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestValidate_DefaultTopKAboveMax(t *testing.T) {
	cfg := validConfig()
	cfg.Search.DefaultTopK = 50

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for default_top_k above max_top_k")
	}
	if !strings.Contains(err.Error(), "must not exceed search.max_top_k") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestValidate_ChunkOverlapTooLarge(t *testing.T) {
	cfg := validConfig()
	cfg.Ingest.ChunkSize = 100
	cfg.Ingest.ChunkOverlap = 100

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for overlap >= chunk size")
	}
	if !strings.Contains(err.Error(), "ingest.chunk_overlap") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("RAGD_TEST_URL", "http://qdrant:6333")

	in := []byte("url: ${RAGD_TEST_URL}\nkey: ${RAGD_TEST_MISSING:-fallback}\nempty: ${RAGD_TEST_MISSING}")
	got := string(expandEnvVars(in))

	want := "url: http://qdrant:6333\nkey: fallback\nempty: "
	if got != want {
		t.Errorf("expandEnvVars:\ngot:  %q\nwant: %q", got, want)
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	raw := `
qdrant:
  url: ${RAGD_TEST_QDRANT:-http://localhost:6333}
embedding:
  provider: voyage
  providers:
    voyage:
      api_key: test-key
search:
  default_top_k: 3
`
	if err := os.WriteFile(filepath.Join(dir, "config", "test.yaml"), []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Qdrant.URL != "http://localhost:6333" {
		t.Errorf("expected default qdrant url, got %q", cfg.Qdrant.URL)
	}
	if cfg.Search.DefaultTopK != 3 {
		t.Errorf("expected DefaultTopK=3, got %d", cfg.Search.DefaultTopK)
	}
	if cfg.Search.MaxTopK != 20 {
		t.Errorf("expected MaxTopK=20 from defaults, got %d", cfg.Search.MaxTopK)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	chdir(t, t.TempDir())

	_, err := Load("nope")
	if err == nil || !strings.Contains(err.Error(), "failed to read config") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if got := GetEnv(); got != "local" {
		t.Errorf("expected local, got %q", got)
	}

	t.Setenv("ENV", "prod")
	if got := GetEnv(); got != "prod" {
		t.Errorf("expected prod, got %q", got)
	}
}
