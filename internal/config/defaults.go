package config

// DefaultModel is the Gemini model used for extraction.
const DefaultModel = "gemini-2.5-flash-preview-09-2025"

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 4250,
			Host: "localhost",
		},
		Gemini: GeminiConfig{
			Model:   DefaultModel,
			Timeout: "60s",
		},
		Analysis: AnalysisConfig{
			MaxRetries:     5,
			InitialBackoff: "1s",
		},
		Upload: UploadConfig{
			MaxBodyMB: 32,
		},
		Previews: PreviewsConfig{
			MaxEntries: 64,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Outputs:    []string{"console"},
			FilePath:   "logs/kiwoom-dashboard.log",
			MaxSizeMB:  10,
			MaxBackups: 5,
		},
	}
}
