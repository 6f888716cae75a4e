package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, found, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if found {
		t.Fatalf("missing .env reported as found")
	}
	if cfg.MaxConcurrent != 15 || cfg.MixTarget != 10 || cfg.TopicThreshold != 80 {
		t.Fatalf("defaults: got=%+v", cfg)
	}
}

func TestLoadFromEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	body := "LLM_PROVIDER=anthropic\nMAX_CONCURRENT=4\nGENERATION_TIMEOUT=45s\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("MAX_CONCURRENT", "")
	t.Setenv("GENERATION_TIMEOUT", "")
	os.Unsetenv("LLM_PROVIDER")
	os.Unsetenv("MAX_CONCURRENT")
	os.Unsetenv("GENERATION_TIMEOUT")

	cfg, found, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !found {
		t.Fatalf(".env not reported as found")
	}
	if cfg.LLMProvider != "anthropic" || cfg.MaxConcurrent != 4 || cfg.GenerationTimeout != 45*time.Second {
		t.Fatalf("env file values: got=%+v", cfg)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"MAX_CONCURRENT": "many",
		"VECTOR_BACKEND": "faiss",
		"CACHE_BACKEND":  "memcached",
		"MIX_TARGET":     "0",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			if _, _, err := Load(filepath.Join(t.TempDir(), "none.env")); err == nil {
				t.Fatalf("%s=%s: expected error", key, val)
			}
		})
	}
}
