package config

import (
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{
		"SEARCH_FAN_OUT", "SEARCH_MEMOIZE", "SEARCH_TIMEOUT_SECONDS", "SEARCH_DEFAULT_DEPTH",
		"ORACLE_MAX_ATTEMPTS", "ORACLE_BACKOFF_MS", "ORACLE_MAX_BACKOFF_MS", "ORACLE_TIMEOUT_MS",
		"ORACLE_CONCURRENCY", "ORACLE_MAX_TOKENS", "ORACLE_TEMPERATURE", "WORKERS", "JOB_MAX_RECEIVES",
	} {
		t.Setenv(k, "")
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error = %v", err)
	}
	if cfg.Search.FanOut != runtime.NumCPU() || !cfg.Search.Memoize || cfg.Search.Timeout != 2*time.Minute || cfg.Search.DefaultDepth != 2 {
		t.Fatalf("search defaults = %+v", cfg.Search)
	}
	o := cfg.Oracle
	if o.MaxAttempts != 3 || o.Backoff != 250*time.Millisecond || o.MaxBackoff != 4*time.Second ||
		o.CallTimeout != 15*time.Second || o.Concurrency != 8 || o.MaxTokens != 64 || o.Temperature != 0.1 {
		t.Fatalf("oracle defaults = %+v", o)
	}
	if cfg.JobMaxReceives != 5 {
		t.Fatalf("JobMaxReceives = %d, want 5", cfg.JobMaxReceives)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("SEARCH_FAN_OUT", "3")
	t.Setenv("SEARCH_MEMOIZE", "false")
	t.Setenv("ORACLE_TIMEOUT_MS", "500")
	t.Setenv("ORACLE_API_KEY", "sk-server")
	t.Setenv("QUEUE_URL", "https://sqs.example/queue")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error = %v", err)
	}
	if cfg.Search.FanOut != 3 || cfg.Search.Memoize {
		t.Fatalf("search = %+v", cfg.Search)
	}
	if cfg.Oracle.CallTimeout != 500*time.Millisecond || cfg.Oracle.APIKey != "sk-server" {
		t.Fatalf("oracle = %+v", cfg.Oracle)
	}
	if cfg.QueueURL != "https://sqs.example/queue" {
		t.Fatalf("QueueURL = %q", cfg.QueueURL)
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	cases := map[string]string{
		"SEARCH_FAN_OUT":     "many",
		"SEARCH_MEMOIZE":     "perhaps",
		"ORACLE_TEMPERATURE": "warm",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			_, err := LoadConfig()
			if err == nil || !strings.Contains(err.Error(), key) {
				t.Fatalf("LoadConfig error = %v, want mention of %s", err, key)
			}
		})
	}
}

func TestWorkerCount(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		t.Setenv("WORKERS", "")
		if got, want := WorkerCount(), runtime.NumCPU(); got != want {
			t.Fatalf("WorkerCount default = %d, want %d", got, want)
		}
	})

	t.Run("override", func(t *testing.T) {
		t.Setenv("WORKERS", "5")
		if got := WorkerCount(); got != 5 {
			t.Fatalf("WorkerCount override = %d, want 5", got)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		t.Setenv("WORKERS", "not-a-number")
		if got, want := WorkerCount(), runtime.NumCPU(); got != want {
			t.Fatalf("WorkerCount invalid fallback = %d, want %d", got, want)
		}
	})
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{Username: "u", Password: "p", URL: "db.local", Port: "5432", Name: "chess"}
	if got := p.DSN(); got != "postgres://u:p@db.local:5432/chess" {
		t.Fatalf("DSN = %q", got)
	}
	if !p.Enabled() || (PostgresConfig{}).Enabled() {
		t.Fatalf("Enabled mismatch")
	}
}
