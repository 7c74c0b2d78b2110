package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("unexpected default addr: %s", cfg.Server.Addr)
	}
	if cfg.Chat.ContextWindow != 10 || cfg.Chat.RetentionLimit != 200 {
		t.Fatalf("unexpected chat defaults: %+v", cfg.Chat)
	}
	if cfg.Store.Path == "" {
		t.Fatal("store path must have a default")
	}
}

func TestLoadPortForms(t *testing.T) {
	t.Setenv("PORT", "9000")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Server.Addr != ":9000" {
		t.Fatalf("unexpected addr: %s", cfg.Server.Addr)
	}

	t.Setenv("PORT", "127.0.0.1:9000")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Fatalf("unexpected addr: %s", cfg.Server.Addr)
	}
}

func TestLoadRejectsBadOverrides(t *testing.T) {
	t.Setenv("CONTEXT_WINDOW", "0")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for CONTEXT_WINDOW=0")
	}
}

func TestAIConfigEnabled(t *testing.T) {
	cfg := AIConfig{}
	if cfg.Enabled() {
		t.Fatal("empty config must not be enabled")
	}

	cfg = AIConfig{Model: "doubao-lite", APIKey: "key"}
	if !cfg.Enabled() {
		t.Fatal("api key + model should enable AI")
	}

	cfg = AIConfig{Model: "doubao-lite", AccessKey: "ak"}
	if cfg.Enabled() {
		t.Fatal("access key without secret key must not enable AI")
	}
}
