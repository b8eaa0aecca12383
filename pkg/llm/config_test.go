package llm

import "testing"

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("LLM_MODEL", "")
	cfg := LoadConfig()
	if cfg.Provider != "openai" {
		t.Fatalf("expected openai default, got %q", cfg.Provider)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("LLM_MODEL", "claude-test")
	t.Setenv("LLM_API_KEY", "k")
	t.Setenv("LLM_MAX_TOKENS", "1024")
	cfg := LoadConfig()
	if cfg.Provider != "anthropic" || cfg.Model != "claude-test" || cfg.MaxTokens != 1024 {
		t.Fatalf("unexpected config %+v", cfg)
	}
}
