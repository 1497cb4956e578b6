package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/minkyuuuu/kiwoom-dashboard/internal/models"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Gemini   GeminiConfig   `toml:"gemini"`
	Analysis AnalysisConfig `toml:"analysis"`
	Upload   UploadConfig   `toml:"upload"`
	Previews PreviewsConfig `toml:"previews"`
	Logging  LoggingConfig  `toml:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

// GeminiConfig contains the extraction endpoint settings.
type GeminiConfig struct {
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	BaseURL string `toml:"base_url"`
	Timeout string `toml:"timeout"`
}

// GetTimeout returns the per-request timeout, or zero when unset or invalid.
func (c *GeminiConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// AnalysisConfig contains the retry policy of the extraction call.
type AnalysisConfig struct {
	MaxRetries     int    `toml:"max_retries"`
	InitialBackoff string `toml:"initial_backoff"`
}

// GetInitialBackoff returns the first retry delay, defaulting to one second.
func (c *AnalysisConfig) GetInitialBackoff() time.Duration {
	d, err := time.ParseDuration(c.InitialBackoff)
	if err != nil || d <= 0 {
		return time.Second
	}
	return d
}

// UploadConfig limits incoming request bodies.
type UploadConfig struct {
	MaxBodyMB int `toml:"max_body_mb"`
}

// MaxBodyBytes returns the request body limit in bytes.
func (c *UploadConfig) MaxBodyBytes() int64 {
	if c.MaxBodyMB <= 0 {
		return 32 << 20
	}
	return int64(c.MaxBodyMB) << 20
}

// PreviewsConfig bounds the preview cache.
type PreviewsConfig struct {
	MaxEntries int `toml:"max_entries"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Outputs    []string `toml:"outputs"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// Validate reports missing or invalid mandatory settings.
func (c *Config) Validate() []string {
	var issues []string
	if c.Gemini.APIKey == "" {
		issues = append(issues, "gemini.api_key is required (or set GEMINI_API_KEY)")
	}
	if c.Gemini.Model == "" {
		issues = append(issues, "gemini.model is required")
	}
	if c.Gemini.Timeout != "" {
		if _, err := time.ParseDuration(c.Gemini.Timeout); err != nil {
			issues = append(issues, fmt.Sprintf("gemini.timeout %q is not a duration", c.Gemini.Timeout))
		}
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		issues = append(issues, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
	}
	if c.Analysis.MaxRetries < 0 {
		issues = append(issues, "analysis.max_retries must not be negative")
	}
	// Every filled slot holds a live preview; the cache must never evict one.
	if c.Previews.MaxEntries < models.TotalCapacity() {
		issues = append(issues, fmt.Sprintf("previews.max_entries %d is below the %d images the slots can hold", c.Previews.MaxEntries, models.TotalCapacity()))
	}
	if c.Analysis.InitialBackoff != "" {
		if d, err := time.ParseDuration(c.Analysis.InitialBackoff); err != nil || d <= 0 {
			issues = append(issues, fmt.Sprintf("analysis.initial_backoff %q is not a positive duration", c.Analysis.InitialBackoff))
		}
	}
	return issues
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies KIWOOM_* environment variable overrides to config.
// The Gemini key also falls back to GEMINI_API_KEY and GOOGLE_API_KEY.
func applyEnvOverrides(config *Config) {
	if port := os.Getenv("KIWOOM_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("KIWOOM_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	for _, name := range []string{"GOOGLE_API_KEY", "GEMINI_API_KEY", "KIWOOM_GEMINI_API_KEY"} {
		if key := os.Getenv(name); key != "" {
			config.Gemini.APIKey = key
		}
	}
	if model := os.Getenv("KIWOOM_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
	if baseURL := os.Getenv("KIWOOM_GEMINI_BASE_URL"); baseURL != "" {
		config.Gemini.BaseURL = baseURL
	}
	if timeout := os.Getenv("KIWOOM_GEMINI_TIMEOUT"); timeout != "" {
		config.Gemini.Timeout = timeout
	}
	if retries := os.Getenv("KIWOOM_ANALYSIS_MAX_RETRIES"); retries != "" {
		if n, err := strconv.Atoi(retries); err == nil {
			config.Analysis.MaxRetries = n
		}
	}
	if backoff := os.Getenv("KIWOOM_ANALYSIS_INITIAL_BACKOFF"); backoff != "" {
		config.Analysis.InitialBackoff = backoff
	}
	if maxBody := os.Getenv("KIWOOM_UPLOAD_MAX_BODY_MB"); maxBody != "" {
		if n, err := strconv.Atoi(maxBody); err == nil {
			config.Upload.MaxBodyMB = n
		}
	}
	if level := os.Getenv("KIWOOM_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if outputs := os.Getenv("KIWOOM_LOG_OUTPUTS"); outputs != "" {
		config.Logging.Outputs = splitList(outputs)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ApplyFlagOverrides applies command-line flag overrides to config.
func ApplyFlagOverrides(config *Config, port int, host, model string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
	if model != "" {
		config.Gemini.Model = model
	}
}
