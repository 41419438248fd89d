package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFileKeepsDefaultsForMissingKeys(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "rigor.yaml")
	raw := []byte(`
database:
  driver: postgres
  dsn: postgres://rigor@localhost/rigor
oracle:
  provider: openai
  timeout: 5s
conflict:
  maxPairs: 10
scheduler:
  enabled: true
  interval: 30m
`)
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFile(path, Default())
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.Database.Driver != "postgres" || cfg.Database.DSN != "postgres://rigor@localhost/rigor" {
		t.Fatalf("database not applied: %+v", cfg.Database)
	}
	if cfg.Oracle.Provider != OracleOpenAI || cfg.Oracle.Timeout != 5*time.Second {
		t.Fatalf("oracle not applied: %+v", cfg.Oracle)
	}
	if cfg.Oracle.OpenAI.Model != "gpt-4o-mini" {
		t.Fatalf("nested default lost: %q", cfg.Oracle.OpenAI.Model)
	}
	if cfg.Conflict.MaxPairs != 10 || cfg.Conflict.MaxDimensionPenalty != 60 {
		t.Fatalf("conflict merge wrong: %+v", cfg.Conflict)
	}
	if !cfg.Scheduler.Enabled || cfg.Scheduler.Interval != 30*time.Minute || !cfg.Scheduler.ReanalyzeCompleted {
		t.Fatalf("scheduler merge wrong: %+v", cfg.Scheduler)
	}
}

func TestLoadFileErrors(t *testing.T) {
	t.Parallel()

	base := Default()
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), base); err == nil {
		t.Fatalf("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("oracle: [unclosed"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadFile(path, base); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rigor.yaml")
	if err := os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)
	t.Setenv(databaseDSNEnv, "file.db")
	t.Setenv(openAIModelEnv, "gpt-test")
	t.Setenv(logFormatEnv, "json")
	t.Setenv("RIGOR_METRICS_ENABLED", "false")

	cfg := Load()

	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Fatalf("logging = %+v", cfg.Logging)
	}
	if cfg.Database.DSN != "file.db" {
		t.Fatalf("dsn = %q", cfg.Database.DSN)
	}
	if cfg.Oracle.OpenAI.Model != "gpt-test" {
		t.Fatalf("model = %q", cfg.Oracle.OpenAI.Model)
	}
	if cfg.Metrics.Enabled {
		t.Fatalf("metrics should be disabled by env")
	}
	if cfg.Scheduler.Location() == nil {
		t.Fatalf("location not bound")
	}
}

func TestLoadFromExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rigor.yaml")
	if err := os.WriteFile(path, []byte("http:\n  addr: \":9090\"\n  requestsPerSecond: 0\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(httpAddrEnv, "")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.HTTP.Addr != ":9090" || cfg.HTTP.RequestsPerSecond != 0 || cfg.HTTP.Burst != 40 {
		t.Fatalf("http = %+v", cfg.HTTP)
	}

	if _, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
