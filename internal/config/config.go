package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultBackendPort is the port the marketplace backend listens on when no
// explicit base URL is configured.
const DefaultBackendPort = 5000

type Config struct {
	API       APIConfig       `yaml:"api"`
	Session   SessionConfig   `yaml:"session"`
	Drafts    DraftsConfig    `yaml:"drafts"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type APIConfig struct {
	// URL, when set, is used verbatim. Otherwise the base URL is resolved
	// from Host and Port via ResolveBaseURL.
	URL  string `yaml:"url"`
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	RequestTimeout time.Duration `yaml:"request_timeout"`
	UploadTimeout  time.Duration `yaml:"upload_timeout"`

	// Aggregation fan-out limits.
	FanoutConcurrency int           `yaml:"fanout_concurrency"`
	FanoutTimeout     time.Duration `yaml:"fanout_timeout"` // per store request
	FanoutBudget      time.Duration `yaml:"fanout_budget"`  // whole aggregation
	RequestsPerSecond float64       `yaml:"requests_per_second"`
}

type SessionConfig struct {
	Path string `yaml:"path"`
}

type DraftsConfig struct {
	Path string `yaml:"path"`
}

type TelemetryConfig struct {
	ServiceName  string `yaml:"service_name"`
	Environment  string `yaml:"environment"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
}

// Load builds the configuration from defaults, an optional YAML config file
// and environment variables, in increasing order of precedence. A .env file
// in the working directory is honored when present.
func Load() (*Config, error) {
	// A missing .env is the common case outside development.
	_ = godotenv.Load()

	cfg := defaults()

	if path := configFilePath(); path != "" {
		if err := mergeFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := mergeEnv(cfg); err != nil {
		return nil, err
	}

	if cfg.API.Port <= 0 || cfg.API.Port > 65535 {
		return nil, fmt.Errorf("invalid backend port %d", cfg.API.Port)
	}

	return cfg, nil
}

func defaults() *Config {
	home, _ := os.UserHomeDir()
	dir := filepath.Join(home, ".filedesk")

	return &Config{
		API: APIConfig{
			Host:              "localhost",
			Port:              DefaultBackendPort,
			RequestTimeout:    30 * time.Second,
			UploadTimeout:     2 * time.Minute,
			FanoutConcurrency: 8,
			FanoutTimeout:     15 * time.Second,
			FanoutBudget:      45 * time.Second,
			RequestsPerSecond: 20,
		},
		Session: SessionConfig{
			Path: filepath.Join(dir, "session.json"),
		},
		Drafts: DraftsConfig{
			Path: filepath.Join(dir, "drafts.db"),
		},
		Telemetry: TelemetryConfig{
			ServiceName: "filedesk",
			Environment: "development",
		},
	}
}

// configFilePath returns the YAML config file to read, or "" when none
// exists. FILEDESK_CONFIG wins over the default location.
func configFilePath() string {
	if p := os.Getenv("FILEDESK_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	p := filepath.Join(home, ".filedesk", "config.yaml")
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}

func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func mergeEnv(cfg *Config) error {
	var err error

	cfg.API.URL = getEnv("FILEDESK_API_URL", cfg.API.URL)
	cfg.API.Host = getEnv("FILEDESK_API_HOST", cfg.API.Host)

	cfg.API.Port, err = getIntEnv("FILEDESK_API_PORT", cfg.API.Port)
	if err != nil {
		return fmt.Errorf("invalid FILEDESK_API_PORT: %w", err)
	}

	cfg.API.RequestTimeout, err = getDurationEnv("FILEDESK_REQUEST_TIMEOUT", cfg.API.RequestTimeout)
	if err != nil {
		return fmt.Errorf("invalid FILEDESK_REQUEST_TIMEOUT: %w", err)
	}
	cfg.API.UploadTimeout, err = getDurationEnv("FILEDESK_UPLOAD_TIMEOUT", cfg.API.UploadTimeout)
	if err != nil {
		return fmt.Errorf("invalid FILEDESK_UPLOAD_TIMEOUT: %w", err)
	}

	cfg.API.FanoutConcurrency, err = getIntEnv("FILEDESK_FANOUT_CONCURRENCY", cfg.API.FanoutConcurrency)
	if err != nil {
		return fmt.Errorf("invalid FILEDESK_FANOUT_CONCURRENCY: %w", err)
	}
	cfg.API.FanoutTimeout, err = getDurationEnv("FILEDESK_FANOUT_TIMEOUT", cfg.API.FanoutTimeout)
	if err != nil {
		return fmt.Errorf("invalid FILEDESK_FANOUT_TIMEOUT: %w", err)
	}
	cfg.API.FanoutBudget, err = getDurationEnv("FILEDESK_FANOUT_BUDGET", cfg.API.FanoutBudget)
	if err != nil {
		return fmt.Errorf("invalid FILEDESK_FANOUT_BUDGET: %w", err)
	}

	cfg.Session.Path = getEnv("FILEDESK_SESSION_PATH", cfg.Session.Path)
	cfg.Drafts.Path = getEnv("FILEDESK_DRAFTS_PATH", cfg.Drafts.Path)

	cfg.Telemetry.ServiceName = getEnv("FILEDESK_SERVICE_NAME", cfg.Telemetry.ServiceName)
	cfg.Telemetry.Environment = getEnv("FILEDESK_ENVIRONMENT", cfg.Telemetry.Environment)
	cfg.Telemetry.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)

	return nil
}

// BaseURL returns the API base URL, resolving it from host and port when no
// explicit URL was configured.
func (c *APIConfig) BaseURL() string {
	if c.URL != "" {
		return strings.TrimRight(c.URL, "/")
	}
	return ResolveBaseURL(c.Host, c.Port)
}

// ResolveBaseURL mirrors the resolution rule used by the hosted clients:
// loopback hosts talk to localhost directly, anything else talks to the
// same host on the fixed backend port.
func ResolveBaseURL(host string, port int) string {
	if host == "" || isLoopback(host) {
		return fmt.Sprintf("http://localhost:%d/api", port)
	}
	return fmt.Sprintf("http://%s:%d/api", host, port)
}

func isLoopback(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(value)
}

func getDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	return time.ParseDuration(value)
}
