package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `{
		"basic_config": {"server_address": ":9000", "min_workers": 2, "max_workers": 8, "queue_size": 32, "turn_timeout": 60},
		"database": {"driver": "sqlite3", "dsn": "data/chat.db"},
		"redis": {"enabled": true, "host": "localhost", "port": 6379},
		"providers": {
			"ollama": {"base_url": "http://localhost:11434", "model": "llama3"},
			"openai": {"model": "gpt-4o-mini", "api_key_env": "TEST_OPENAI_KEY"}
		}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BasicConfig.ServerAddress != ":9000" || cfg.BasicConfig.TurnTimeout != 60 {
		t.Fatalf("basic config mismatch: %#v", cfg.BasicConfig)
	}
	if !cfg.Redis.Enabled {
		t.Fatalf("redis should be enabled")
	}
	// Relative sqlite paths resolve against the config file location.
	if !filepath.IsAbs(cfg.Database.DSN) {
		t.Fatalf("expected absolute dsn, got %s", cfg.Database.DSN)
	}
	if filepath.Dir(cfg.Database.DSN) != filepath.Join(filepath.Dir(path), "data") {
		t.Fatalf("dsn resolved to unexpected dir: %s", cfg.Database.DSN)
	}
	if cfg.Providers["ollama"].Model != "llama3" {
		t.Fatalf("provider config mismatch: %#v", cfg.Providers)
	}
}

func TestLoadDefaultsDriver(t *testing.T) {
	path := writeConfig(t, `{"database": {"dsn": "chat.db"}}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.Driver != "sqlite3" {
		t.Fatalf("expected sqlite3 default, got %s", cfg.Database.Driver)
	}
}

func TestLoadRejectsSqliteWithoutDSN(t *testing.T) {
	path := writeConfig(t, `{"database": {"driver": "sqlite3"}}`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for sqlite without dsn")
	}
}

func TestLoadMemoryDSNNotRewritten(t *testing.T) {
	path := writeConfig(t, `{"database": {"driver": "sqlite3", "dsn": ":memory:"}}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.DSN != ":memory:" {
		t.Fatalf(":memory: must pass through untouched, got %s", cfg.Database.DSN)
	}
}

func TestResolveAPIKey(t *testing.T) {
	direct := ProviderConfig{APIKey: "inline"}
	if direct.ResolveAPIKey() != "inline" {
		t.Fatalf("inline key should win")
	}

	t.Setenv("TEST_PROVIDER_KEY", "from-env")
	fromEnv := ProviderConfig{APIKeyEnv: "TEST_PROVIDER_KEY"}
	if fromEnv.ResolveAPIKey() != "from-env" {
		t.Fatalf("env fallback failed")
	}

	none := ProviderConfig{}
	if none.ResolveAPIKey() != "" {
		t.Fatalf("expected empty key")
	}
}
