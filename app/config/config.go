package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	// this will automatically load your .env file:
	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	Logs     LogConfig
	DB       PostgresConfig
	Search   SearchConfig
	Oracle   OracleConfig
	QueueURL string

	// JobMaxReceives is how many times a queued job may be delivered before
	// a retryable failure is recorded as final.
	JobMaxReceives int
}

type LogConfig struct {
	Style string // "console" or "json"
	Level string
}

type PostgresConfig struct {
	Username string
	Password string
	URL      string
	Port     string
	Name     string
}

// Enabled reports whether a database host was configured.
func (p PostgresConfig) Enabled() bool { return p.URL != "" }

// DSN builds the lib/pq connection string.
func (p PostgresConfig) DSN() string {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s", p.Username, p.Password, p.URL, p.Port)
	if p.Name != "" {
		dsn += "/" + p.Name
	}
	return dsn
}

type SearchConfig struct {
	FanOut       int
	Memoize      bool
	Timeout      time.Duration
	DefaultDepth int
}

type OracleConfig struct {
	URL         string
	Model       string
	APIKey      string //server key, used by queued jobs only
	MaxAttempts int
	Backoff     time.Duration
	MaxBackoff  time.Duration
	CallTimeout time.Duration
	Concurrency int
	MaxTokens   int
	Temperature float64
}

func LoadConfig() (*Config, error) {
	fanOut, err := intEnv("SEARCH_FAN_OUT", WorkerCount())
	if err != nil {
		return nil, err
	}
	memoize, err := boolEnv("SEARCH_MEMOIZE", true)
	if err != nil {
		return nil, err
	}
	timeoutSec, err := intEnv("SEARCH_TIMEOUT_SECONDS", 120)
	if err != nil {
		return nil, err
	}
	depth, err := intEnv("SEARCH_DEFAULT_DEPTH", 2)
	if err != nil {
		return nil, err
	}

	attempts, err := intEnv("ORACLE_MAX_ATTEMPTS", 3)
	if err != nil {
		return nil, err
	}
	backoffMS, err := intEnv("ORACLE_BACKOFF_MS", 250)
	if err != nil {
		return nil, err
	}
	maxBackoffMS, err := intEnv("ORACLE_MAX_BACKOFF_MS", 4000)
	if err != nil {
		return nil, err
	}
	callTimeoutMS, err := intEnv("ORACLE_TIMEOUT_MS", 15000)
	if err != nil {
		return nil, err
	}
	concurrency, err := intEnv("ORACLE_CONCURRENCY", 8)
	if err != nil {
		return nil, err
	}
	maxTokens, err := intEnv("ORACLE_MAX_TOKENS", 64)
	if err != nil {
		return nil, err
	}
	temperature, err := floatEnv("ORACLE_TEMPERATURE", 0.1)
	if err != nil {
		return nil, err
	}
	maxReceives, err := intEnv("JOB_MAX_RECEIVES", 5)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		QueueURL:       os.Getenv("QUEUE_URL"),
		JobMaxReceives: maxReceives,
		Logs: LogConfig{
			Style: os.Getenv("LOG_STYLE"),
			Level: os.Getenv("LOG_LEVEL"),
		},
		DB: PostgresConfig{
			Username: os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PWD"),
			URL:      os.Getenv("POSTGRES_URL"),
			Port:     os.Getenv("POSTGRES_PORT"),
			Name:     os.Getenv("POSTGRES_DB"),
		},
		Search: SearchConfig{
			FanOut:       fanOut,
			Memoize:      memoize,
			Timeout:      time.Duration(timeoutSec) * time.Second,
			DefaultDepth: depth,
		},
		Oracle: OracleConfig{
			URL:         os.Getenv("ORACLE_URL"),
			Model:       os.Getenv("ORACLE_MODEL"),
			APIKey:      os.Getenv("ORACLE_API_KEY"),
			MaxAttempts: attempts,
			Backoff:     time.Duration(backoffMS) * time.Millisecond,
			MaxBackoff:  time.Duration(maxBackoffMS) * time.Millisecond,
			CallTimeout: time.Duration(callTimeoutMS) * time.Millisecond,
			Concurrency: concurrency,
			MaxTokens:   maxTokens,
			Temperature: temperature,
		},
	}

	return cfg, nil
}

// WorkerCount defaults to the number of cpus. Otherwise can be overwritten
// with the WORKERS env var.
func WorkerCount() int {
	n := runtime.NumCPU()
	if v := os.Getenv("WORKERS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			n = parsed
		}
	}
	return n
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("error converting string to int: %s: %w", key, err)
	}
	return n, nil
}

func boolEnv(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("error parsing %s: %w", key, err)
	}
	return b, nil
}

func floatEnv(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("error parsing %s: %w", key, err)
	}
	return f, nil
}
